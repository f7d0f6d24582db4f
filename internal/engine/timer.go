package engine

import (
	"sync"
	"time"
)

// QuestionTimer counts down one question's time budget at one-second
// granularity. Each Start opens a new period and invalidates the previous one
// before any new tick can fire, so a stale period can never expire late.
type QuestionTimer struct {
	onExpire func()
	onTick   func(secondsLeft int)
	tick     time.Duration

	mu        sync.Mutex
	gen       uint64
	stop      chan struct{}
	remaining int
}

// NewQuestionTimer builds a timer. onExpire fires exactly once per period that
// runs out; onTick (optional) fires after every elapsed second.
func NewQuestionTimer(onExpire func(), onTick func(secondsLeft int)) *QuestionTimer {
	return &QuestionTimer{
		onExpire: onExpire,
		onTick:   onTick,
		tick:     time.Second,
	}
}

// Start begins a new countdown of the given seconds, cancelling any period
// still running.
func (t *QuestionTimer) Start(seconds int) {
	t.mu.Lock()
	t.cancelLocked()
	t.gen++
	gen := t.gen
	t.remaining = seconds
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(gen, seconds, stop)
}

// Stop cancels the current period; its expiry callback will not fire.
func (t *QuestionTimer) Stop() {
	t.mu.Lock()
	t.cancelLocked()
	t.mu.Unlock()
}

// Remaining returns the seconds left in the current period.
func (t *QuestionTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *QuestionTimer) cancelLocked() {
	t.gen++
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *QuestionTimer) run(gen uint64, seconds int, stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	left := seconds
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		if t.gen != gen {
			// A newer period started while this tick was in flight.
			t.mu.Unlock()
			return
		}
		left--
		t.remaining = left
		if left <= 0 {
			t.stop = nil
		}
		t.mu.Unlock()

		if left <= 0 {
			t.onExpire()
			return
		}
		if t.onTick != nil {
			t.onTick(left)
		}
	}
}
