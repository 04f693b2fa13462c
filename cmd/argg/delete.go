package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"argg-api/pkg/catalog"
)

var deleteTimeout time.Duration

var deleteRecordCmd = &cobra.Command{
	Use:   "delete-record RECORD_ID",
	Short: "Delete a metadata record from the catalog",
	Long: `Delete a metadata record created by a registration. The catalog moves the
record to its deleted state; it is not purged.`,
	Example: `  argg delete-record 6f1c2a9e-8d4b-4b61-9d0e-3f1a7c2b5e10`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDeleteRecord,
}

func init() {
	deleteRecordCmd.Flags().DurationVar(&deleteTimeout, "timeout", 30*time.Second, "Time allowed for the catalog call")
}

func runDeleteRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := catalog.New(cfg.Catalog)
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), deleteTimeout)
	defer cancel()

	id := args[0]
	if err := client.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}

	log.Info().Str("record_id", id).Msg("Deleted metadata record")
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", client.RecordWebURL(id))
	return nil
}
