package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"argg-api/pkg/config"
	"argg-api/pkg/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "argg",
	Short: "API registration backend for the BC Data Catalog",
	Long: `argg accepts API registrations, records them as metadata records in the
BC Data Catalog and notifies the catalog administrators by email.

Configuration is read from the environment. A .env file in the working
directory is loaded first when present.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(deleteRecordCmd)
}

// loadConfig reads .env and the environment and sets up logging.
func loadConfig() (*config.Config, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging)

	if envErr != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	} else {
		log.Debug().Msg("Loaded configuration from .env file")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
