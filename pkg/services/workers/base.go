package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	fetchBatch   = 10
	fetchMaxWait = 2 * time.Second
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// BaseWorker pulls batches from a durable JetStream consumer.
type BaseWorker struct {
	name     string
	js       nats.JetStreamContext
	consumer string
	stream   string
	subject  string

	mu  sync.Mutex
	sub *nats.Subscription
}

func NewBaseWorker(name string, js nats.JetStreamContext, stream, consumer, subject string) *BaseWorker {
	return &BaseWorker{
		name:     name,
		js:       js,
		consumer: consumer,
		stream:   stream,
		subject:  subject,
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub != nil {
		return w.sub.Unsubscribe()
	}
	return nil
}

// processMessages acks every message the handler accepts and terminates
// the rest.
func (w *BaseWorker) processMessages(ctx context.Context, handler func(*nats.Msg) error) error {
	sub, err := w.js.PullSubscribe(w.subject, w.consumer,
		nats.ManualAck(),
		nats.Bind(w.stream, w.consumer),
	)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.sub = sub
	w.mu.Unlock()

	logger := log.With().Str("worker", w.name).Logger()
	logger.Debug().Str("stream", w.stream).Str("consumer", w.consumer).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Worker stopping")
			return ctx.Err()
		default:
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
				return err
			}
			logger.Warn().Err(err).Msg("Error fetching messages")
			continue
		}

		for _, msg := range msgs {
			if err := handler(msg); err != nil {
				logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping message")
				if err := msg.Term(); err != nil {
					logger.Warn().Err(err).Msg("Error terminating message")
				}
				continue
			}
			if err := msg.Ack(); err != nil {
				logger.Warn().Err(err).Msg("Error acknowledging message")
			}
		}
	}
}
