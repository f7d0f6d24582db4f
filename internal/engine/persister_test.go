package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assessment-session-service/internal/domain"
)

type recordingSaver struct {
	mu    sync.Mutex
	saves []domain.ProgressSnapshot
	err   error
}

func (s *recordingSaver) SaveProgress(_ context.Context, snap domain.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saves = append(s.saves, snap)
	return nil
}

func (s *recordingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *recordingSaver) last() domain.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[len(s.saves)-1]
}

func TestPersisterReadsLatestStateAtFireTime(t *testing.T) {
	saver := &recordingSaver{}
	var mu sync.Mutex
	position := 0

	p := NewProgressPersister(saver, 5*time.Millisecond, func() (domain.ProgressSnapshot, bool) {
		mu.Lock()
		defer mu.Unlock()
		return domain.ProgressSnapshot{SessionID: "s1", Position: position}, true
	})
	go p.Run()
	defer p.Stop()

	waitFor(t, func() bool { return saver.count() >= 1 })

	mu.Lock()
	position = 7
	mu.Unlock()

	before := saver.count()
	waitFor(t, func() bool { return saver.count() > before })
	if got := saver.last().Position; got != 7 {
		t.Fatalf("expected snapshot taken at fire time (position 7), got %d", got)
	}
}

func TestPersisterSaveNowIsAsync(t *testing.T) {
	saver := &recordingSaver{}
	p := NewProgressPersister(saver, time.Hour, func() (domain.ProgressSnapshot, bool) {
		return domain.ProgressSnapshot{SessionID: "s1"}, true
	})
	defer p.Stop()

	p.SaveNow()
	waitFor(t, func() bool { return saver.count() == 1 })
}

func TestPersisterSkipsWhenNoSnapshot(t *testing.T) {
	saver := &recordingSaver{}
	p := NewProgressPersister(saver, time.Hour, func() (domain.ProgressSnapshot, bool) {
		return domain.ProgressSnapshot{}, false
	})
	defer p.Stop()

	p.SaveNow()
	time.Sleep(20 * time.Millisecond)
	if saver.count() != 0 {
		t.Fatalf("expected no save without a live session")
	}
}

func TestPersisterAbsorbsFailures(t *testing.T) {
	saver := &recordingSaver{err: errors.New("store down")}
	p := NewProgressPersister(saver, 5*time.Millisecond, func() (domain.ProgressSnapshot, bool) {
		return domain.ProgressSnapshot{SessionID: "s1"}, true
	})
	go p.Run()

	// Failing saves must not panic or wedge the loop; recovery picks up on the
	// next tick once the store heals.
	time.Sleep(20 * time.Millisecond)
	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()

	waitFor(t, func() bool { return saver.count() >= 1 })
	p.Stop()
}

func TestPersisterStopIsIdempotent(t *testing.T) {
	p := NewProgressPersister(&recordingSaver{}, time.Hour, func() (domain.ProgressSnapshot, bool) {
		return domain.ProgressSnapshot{}, false
	})
	p.Stop()
	p.Stop()
}
