package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	embeddednats "argg-api/pkg/services/embedded-nats"
)

type Manager struct {
	workers       []Worker
	registrations *RegistrationWorker
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewManager(natsClient *embeddednats.EmbeddedNATS) (*Manager, error) {
	if natsClient.Connection() == nil {
		return nil, fmt.Errorf("NATS connection not initialized")
	}

	js := natsClient.JetStream()
	if js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	registrations := NewRegistrationWorker(js)

	return &Manager{
		ctx:           ctx,
		cancel:        cancel,
		registrations: registrations,
		workers:       []Worker{registrations},
	}, nil
}

func (m *Manager) Start() error {
	for _, worker := range m.workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			if err := w.Start(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("worker", w.Name()).Msg("Worker failed")
			}
			log.Debug().Str("worker", w.Name()).Msg("Worker stopped")
		}(worker)
	}

	log.Info().Int("workers", len(m.workers)).Msg("Started NATS workers")
	return nil
}

// Stop cancels the workers and waits for them. The NATS connection stays
// open; it belongs to the embedded server.
func (m *Manager) Stop() error {
	m.cancel()

	for _, worker := range m.workers {
		if err := worker.Stop(); err != nil {
			log.Warn().Err(err).Str("worker", worker.Name()).Msg("Error stopping worker")
		}
	}

	m.wg.Wait()
	log.Info().Msg("All workers stopped")
	return nil
}

func (m *Manager) RegistrationCounts() map[string]uint64 {
	return m.registrations.Counts()
}
