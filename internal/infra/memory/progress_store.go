package memory

import (
	"context"
	"sync"

	"assessment-session-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore,
// last-write-wins per user.
type ProgressStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.ProgressSnapshot
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{snapshots: make(map[string]domain.ProgressSnapshot)}
}

func (s *ProgressStore) Save(_ context.Context, userID string, snap domain.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = snap
	return nil
}

func (s *ProgressStore) Load(_ context.Context, userID string) (domain.ProgressSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[userID]
	return snap, ok, nil
}

func (s *ProgressStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, userID)
	return nil
}

// ResultStore keeps final session results in memory.
type ResultStore struct {
	mu      sync.Mutex
	results []domain.SessionResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of everything stored so far.
func (s *ResultStore) Results() []domain.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionResult, len(s.results))
	copy(out, s.results)
	return out
}
