package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"argg-api/api"
	"argg-api/api/middleware"
	"argg-api/api/services"
	"argg-api/pkg/catalog"
	"argg-api/pkg/config"
	"argg-api/pkg/notify"
	"argg-api/pkg/shared"
	embeddednats "argg-api/pkg/services/embedded-nats"
	"argg-api/pkg/services/workers"
	"argg-api/pkg/tracing"
)

var natsDataDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registration HTTP server",
	Long: `Run the HTTP server. It exposes the API description on /, the
registration endpoint on /register and a health probe on /health.

When NATS_ENABLED is true an embedded NATS server records the outcome of
every registration on the ` + shared.StreamRegistrations + ` stream.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&natsDataDir, "nats-dir", "", "JetStream store directory (defaults to a temp dir)")
}

func initNATS(cfg config.NATSConfig) (*embeddednats.EmbeddedNATS, error) {
	natsCfg := embeddednats.DefaultConfig()
	natsCfg.Port = cfg.Port
	if natsDataDir != "" {
		natsCfg.StoreDir = natsDataDir
	}

	en, err := embeddednats.New(natsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS: %w", err)
	}

	if err := en.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded NATS: %w", err)
	}

	if err := en.CreateRegistrationStreams(); err != nil {
		shutdownNATS(en)
		return nil, fmt.Errorf("failed to create registration streams: %w", err)
	}

	if err := en.CreateDurableConsumer(shared.StreamRegistrations,
		shared.ConsumerRegistrationAudit, shared.SubjectRegistrationsAll); err != nil {
		shutdownNATS(en)
		return nil, fmt.Errorf("failed to create consumer %s: %w", shared.ConsumerRegistrationAudit, err)
	}

	log.Info().Msg("NATS JetStream initialized successfully")
	return en, nil
}

// startEventBus starts the embedded NATS server and its workers. On failure
// nothing is left running.
func startEventBus(
	cfg config.NATSConfig,
	newManager func(*embeddednats.EmbeddedNATS) (*workers.Manager, error),
) (*embeddednats.EmbeddedNATS, *workers.Manager, error) {
	en, err := initNATS(cfg)
	if err != nil {
		return nil, nil, err
	}

	workerManager, err := newManager(en)
	if err != nil {
		shutdownNATS(en)
		return nil, nil, fmt.Errorf("failed to create worker manager: %w", err)
	}
	if err := workerManager.Start(); err != nil {
		_ = workerManager.Stop()
		shutdownNATS(en)
		return nil, nil, fmt.Errorf("failed to start workers: %w", err)
	}
	return en, workerManager, nil
}

// shutdownNATS stops a server that was started but will not be used.
func shutdownNATS(en *embeddednats.EmbeddedNATS) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := en.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to shutdown NATS")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	catalogClient := catalog.New(cfg.Catalog)
	defer catalogClient.Close()
	prober := catalog.NewProber()
	defer prober.Close()

	var (
		en            *embeddednats.EmbeddedNATS
		workerManager *workers.Manager
		events        services.EventPublisher
		health        api.HealthChecker
		stats         func() map[string]uint64
	)
	if cfg.NATS.Enabled {
		if en, workerManager, err = startEventBus(cfg.NATS, workers.NewManager); err != nil {
			return err
		}
		events, health, stats = en, en, workerManager.RegistrationCounts
	} else {
		log.Info().Msg("Event bus disabled")
	}

	validator := services.NewValidationService(catalogClient, cfg.Registration.Variant)
	registrar := services.NewRegistrationService(
		catalogClient,
		prober,
		notify.New(cfg.SMTP),
		events,
		tp.Tracer(),
		services.RecordDefaultsFrom(cfg),
		cfg.SMTP.TargetAddresses,
	)

	mux := http.NewServeMux()
	api.NewHandlers(validator, registrar, health, stats, version).RegisterRoutes(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.Chain(mux, middleware.Standard(cfg.Server.CORSEnabled)...),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("variant", validator.Variant()).
			Bool("nats", cfg.NATS.Enabled).
			Msg("Starting ARGG API server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-sigChan:
		log.Info().Msg("Shutting down server...")
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("Server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to shutdown server gracefully")
	}

	if workerManager != nil {
		if err := workerManager.Stop(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop workers")
		}
	}

	if en != nil {
		if err := en.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shutdown NATS")
		}
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server shutdown complete")
	return runErr
}
