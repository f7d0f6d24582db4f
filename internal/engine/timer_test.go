package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerExpiresOnce(t *testing.T) {
	var expires int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&expires, 1) }, nil)
	timer.tick = time.Millisecond

	timer.Start(2)
	waitFor(t, func() bool { return atomic.LoadInt32(&expires) > 0 })

	time.Sleep(10 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 1 {
		t.Fatalf("expected exactly one expiry, got %d", n)
	}
}

func TestTimerStopCancelsExpiry(t *testing.T) {
	var expires int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&expires, 1) }, nil)
	timer.tick = 5 * time.Millisecond

	timer.Start(2)
	timer.Stop()

	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 0 {
		t.Fatalf("expected no expiry after stop, got %d", n)
	}
}

func TestTimerRestartInvalidatesOldPeriod(t *testing.T) {
	var expires int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&expires, 1) }, nil)
	timer.tick = 5 * time.Millisecond

	// Restart with a generous budget before the first period can run out.
	timer.Start(2)
	timer.Start(1000)

	time.Sleep(40 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 0 {
		t.Fatalf("expected the replaced period to never expire, got %d", n)
	}
	timer.Stop()
}

func TestTimerTicksCountDown(t *testing.T) {
	seen := make(chan int, 16)
	timer := NewQuestionTimer(func() {}, func(left int) { seen <- left })
	timer.tick = time.Millisecond

	timer.Start(3)

	first := <-seen
	second := <-seen
	if first != 2 || second != 1 {
		t.Fatalf("expected countdown 2,1 got %d,%d", first, second)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}
