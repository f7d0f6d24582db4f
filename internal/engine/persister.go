package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"assessment-session-service/internal/domain"
)

// ProgressSaver durably persists one snapshot, last-write-wins per session.
type ProgressSaver interface {
	SaveProgress(ctx context.Context, snap domain.ProgressSnapshot) error
}

// DefaultSaveInterval is the background persistence cadence.
const DefaultSaveInterval = 30 * time.Second

// ProgressPersister pushes session progress to the store: periodically in the
// background while the session is live, and immediately after every advance
// and answer change. Saves are fire-and-forget; a failed save is logged and
// retried only by the next trigger, never blocking the state machine.
type ProgressPersister struct {
	saver    ProgressSaver
	snapshot func() (domain.ProgressSnapshot, bool)
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewProgressPersister builds a persister. snapshot must return the freshest
// in-memory state at call time; returning false suppresses the save (no
// session yet, or already finished).
func NewProgressPersister(saver ProgressSaver, interval time.Duration, snapshot func() (domain.ProgressSnapshot, bool)) *ProgressPersister {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	return &ProgressPersister{
		saver:    saver,
		snapshot: snapshot,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run starts the background interval and blocks until Stop. The snapshot is
// taken at every fire, not captured when the loop starts.
func (p *ProgressPersister) Run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.save(context.Background())
		}
	}
}

// SaveNow persists the current snapshot asynchronously.
func (p *ProgressPersister) SaveNow() {
	go p.save(context.Background())
}

// Stop halts the background interval. Idempotent.
func (p *ProgressPersister) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *ProgressPersister) save(ctx context.Context) {
	snap, ok := p.snapshot()
	if !ok {
		return
	}
	if err := p.saver.SaveProgress(ctx, snap); err != nil {
		log.Printf("failed to save assessment progress: %v", err)
	}
}
