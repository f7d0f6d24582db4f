package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-session-service/internal/domain"
)

// ProgressStore persists session progress as one JSON value per session,
// last-write-wins, plus a user -> open session pointer for resume.
// Keys:
//
//	assessment:progress:{sessionID} -> snapshot JSON
//	assessment:active:{userID}      -> sessionID
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) Save(ctx context.Context, userID string, snap domain.ProgressSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.progressKey(snap.SessionID), data, s.ttl)
	pipe.Set(ctx, s.activeKey(userID), snap.SessionID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Load(ctx context.Context, userID string) (domain.ProgressSnapshot, bool, error) {
	sessionID, err := s.client.Get(ctx, s.activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ProgressSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("load active session: %w", err)
	}

	raw, err := s.client.Get(ctx, s.progressKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Pointer outlived the snapshot; treat as no open session.
		return domain.ProgressSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("load progress: %w", err)
	}

	var snap domain.ProgressSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return snap, true, nil
}

func (s *ProgressStore) Clear(ctx context.Context, userID string) error {
	sessionID, err := s.client.Get(ctx, s.activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.progressKey(sessionID))
	pipe.Del(ctx, s.activeKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) progressKey(sessionID string) string {
	return "assessment:progress:" + sessionID
}

func (s *ProgressStore) activeKey(userID string) string {
	return "assessment:active:" + userID
}
