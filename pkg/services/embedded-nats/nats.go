package embeddednats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"argg-api/pkg/shared"
)

type Config struct {
	// Port -1 picks a random free port.
	Port            int
	StoreDir        string
	MaxMemory       int64
	JetStreamDomain string
}

type EmbeddedNATS struct {
	server  *server.Server
	nc      *nats.Conn
	js      nats.JetStreamContext
	config  *Config
	streams map[string]*StreamConfig
}

type StreamConfig struct {
	Name            string
	Subjects        []string
	Retention       nats.RetentionPolicy
	Storage         nats.StorageType
	MaxMsgs         int64
	MaxBytes        int64
	MaxAge          time.Duration
	MaxMsgSize      int32
	Replicas        int
	DuplicateWindow time.Duration
	DiscardPolicy   nats.DiscardPolicy
}

func DefaultConfig() *Config {
	return &Config{
		Port:            4222,
		StoreDir:        filepath.Join(os.TempDir(), "argg-nats"),
		MaxMemory:       64 * 1024 * 1024, // 64MB
		JetStreamDomain: "argg",
	}
}

func New(cfg *Config) (*EmbeddedNATS, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxMemory <= 0 {
		return nil, fmt.Errorf("invalid JetStream memory limit %d", cfg.MaxMemory)
	}

	return &EmbeddedNATS{
		config:  cfg,
		streams: make(map[string]*StreamConfig),
	}, nil
}

func (en *EmbeddedNATS) Start() error {
	opts := &server.Options{
		Host:               "127.0.0.1",
		Port:               en.config.Port,
		JetStream:          true,
		StoreDir:           en.config.StoreDir,
		JetStreamMaxMemory: en.config.MaxMemory,
		JetStreamDomain:    en.config.JetStreamDomain,
		NoSigs:             true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return fmt.Errorf("NATS server not ready for connections")
	}

	en.server = ns

	if err := en.connect(); err != nil {
		ns.Shutdown()
		return fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	log.Info().Str("url", ns.ClientURL()).Msg("Embedded NATS server started")
	return nil
}

func (en *EmbeddedNATS) connect() error {
	nc, err := nats.Connect(en.server.ClientURL(),
		nats.Name(shared.ServiceName),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	en.nc = nc
	en.js = js
	return nil
}

// AddStream creates the stream or updates it in place.
func (en *EmbeddedNATS) AddStream(streamConfig *StreamConfig) error {
	if en.js == nil {
		return fmt.Errorf("JetStream not initialized")
	}

	config := &nats.StreamConfig{
		Name:       streamConfig.Name,
		Subjects:   streamConfig.Subjects,
		Retention:  streamConfig.Retention,
		Storage:    streamConfig.Storage,
		MaxMsgs:    streamConfig.MaxMsgs,
		MaxBytes:   streamConfig.MaxBytes,
		MaxAge:     streamConfig.MaxAge,
		MaxMsgSize: streamConfig.MaxMsgSize,
		Replicas:   streamConfig.Replicas,
		Duplicates: streamConfig.DuplicateWindow,
		Discard:    streamConfig.DiscardPolicy,
	}

	if _, err := en.js.StreamInfo(streamConfig.Name); err == nil {
		if _, err := en.js.UpdateStream(config); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", streamConfig.Name, err)
		}
		log.Debug().Str("stream", streamConfig.Name).Msg("Updated existing stream")
	} else {
		if _, err := en.js.AddStream(config); err != nil {
			return fmt.Errorf("failed to add stream %s: %w", streamConfig.Name, err)
		}
		log.Debug().Str("stream", streamConfig.Name).Strs("subjects", streamConfig.Subjects).Msg("Created stream")
	}

	en.streams[streamConfig.Name] = streamConfig
	return nil
}

// CreateRegistrationStreams sets up the in-memory stream that carries the
// outcome of every registration.
func (en *EmbeddedNATS) CreateRegistrationStreams() error {
	streams := []StreamConfig{
		{
			Name:            shared.StreamRegistrations,
			Subjects:        []string{shared.SubjectRegistrationsAll},
			Retention:       nats.LimitsPolicy,
			Storage:         nats.MemoryStorage,
			MaxMsgs:         10000,
			MaxBytes:        16 * 1024 * 1024, // 16MB
			MaxAge:          24 * time.Hour,
			MaxMsgSize:      64 * 1024, // 64KB
			Replicas:        1,
			DuplicateWindow: 2 * time.Minute,
			DiscardPolicy:   nats.DiscardOld,
		},
	}

	for i := range streams {
		if err := en.AddStream(&streams[i]); err != nil {
			return err
		}
	}
	return nil
}

func (en *EmbeddedNATS) PublishWithDedup(ctx context.Context, subject string, data []byte, msgID string) error {
	if en.js == nil {
		return fmt.Errorf("JetStream not initialized")
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, msgID)

	if _, err := en.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishRegistration publishes event on its subject, deduplicated by id.
func (en *EmbeddedNATS) PublishRegistration(ctx context.Context, event *shared.RegistrationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal registration event: %w", err)
	}
	return en.PublishWithDedup(ctx, event.Subject, data, event.ID)
}

func (en *EmbeddedNATS) CreateDurableConsumer(streamName, consumerName string, filterSubject string) error {
	if en.js == nil {
		return fmt.Errorf("JetStream not initialized")
	}

	config := &nats.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: filterSubject,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		MaxAckPending: 1000,
		DeliverPolicy: nats.DeliverAllPolicy,
		ReplayPolicy:  nats.ReplayInstantPolicy,
	}

	if _, err := en.js.ConsumerInfo(streamName, consumerName); err == nil {
		log.Debug().Str("consumer", consumerName).Str("stream", streamName).Msg("Durable consumer already exists")
		return nil
	}

	if _, err := en.js.AddConsumer(streamName, config); err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", consumerName, err)
	}

	log.Debug().Str("consumer", consumerName).Str("stream", streamName).Msg("Created durable consumer")
	return nil
}

func (en *EmbeddedNATS) Connection() *nats.Conn {
	return en.nc
}

func (en *EmbeddedNATS) JetStream() nats.JetStreamContext {
	return en.js
}

func (en *EmbeddedNATS) ClientURL() string {
	if en.server == nil {
		return ""
	}
	return en.server.ClientURL()
}

func (en *EmbeddedNATS) Shutdown(ctx context.Context) error {
	if en.nc != nil {
		if err := en.nc.Drain(); err != nil {
			en.nc.Close()
		}
	}

	if en.server != nil {
		en.server.Shutdown()

		done := make(chan struct{})
		go func() {
			en.server.WaitForShutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("NATS server shutdown: %w", ctx.Err())
		}
	}

	return nil
}

func (en *EmbeddedNATS) HealthCheck() error {
	if en.nc == nil {
		return fmt.Errorf("NATS connection not initialized")
	}

	if !en.nc.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	if en.server != nil && !en.server.Running() {
		return fmt.Errorf("NATS server not running")
	}

	return nil
}
