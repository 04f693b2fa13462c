package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"argg-api/pkg/shared"
)

// RegistrationWorker writes an audit log line for every registration
// outcome and counts outcomes by status.
type RegistrationWorker struct {
	*BaseWorker

	mu     sync.Mutex
	counts map[string]uint64
}

func NewRegistrationWorker(js nats.JetStreamContext) *RegistrationWorker {
	return &RegistrationWorker{
		BaseWorker: NewBaseWorker(
			"RegistrationWorker",
			js,
			shared.StreamRegistrations,
			shared.ConsumerRegistrationAudit,
			shared.SubjectRegistrationsAll,
		),
		counts: make(map[string]uint64),
	}
}

func (w *RegistrationWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, w.handle)
}

func (w *RegistrationWorker) handle(msg *nats.Msg) error {
	var event shared.RegistrationEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("invalid registration event: %w", err)
	}

	level := zerolog.InfoLevel
	switch event.Type {
	case shared.StatusFailed:
		level = zerolog.ErrorLevel
	case shared.StatusCompletedWithWarnings:
		level = zerolog.WarnLevel
	}

	log.WithLevel(level).
		Str("worker", w.Name()).
		Str("event_id", event.ID).
		Str("status", event.Type).
		Str("record_id", event.RecordID).
		Str("title", event.Title).
		Strs("warnings", event.Warnings).
		Time("registered_at", event.Timestamp).
		Msg("Registration processed")

	w.mu.Lock()
	w.counts[event.Type]++
	w.mu.Unlock()
	return nil
}

// Counts returns a snapshot of the outcomes seen so far.
func (w *RegistrationWorker) Counts() map[string]uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]uint64, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}
