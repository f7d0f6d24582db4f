package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"assessment-session-service/internal/domain"
)

func TestProgressStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(newClient(mr), time.Minute)

	answer := "2"
	snap := domain.ProgressSnapshot{
		SessionID: "sess-1",
		Position:  2,
		Responses: []domain.ResponseRecord{
			{QuestionIndex: 0, QuestionID: "q1", Answer: &answer},
			{QuestionIndex: 1, QuestionID: "q2", Skipped: true},
		},
	}
	if err := store.Save(ctx, "u1", snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("assessment:progress:sess-1") || !mr.Exists("assessment:active:u1") {
		t.Fatalf("expected both progress and active keys set")
	}

	loaded, ok, err := store.Load(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.SessionID != "sess-1" || loaded.Position != 2 || len(loaded.Responses) != 2 {
		t.Fatalf("unexpected snapshot %+v", loaded)
	}
	if loaded.Responses[1].Answer != nil || !loaded.Responses[1].Skipped {
		t.Fatalf("expected skip preserved with nil answer, got %+v", loaded.Responses[1])
	}
}

func TestProgressStoreLoadWithoutSession(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewProgressStore(newClient(mr), time.Minute)
	if _, ok, err := store.Load(context.Background(), "nobody"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestProgressStoreClearRemovesKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(newClient(mr), time.Minute)

	_ = store.Save(ctx, "u1", domain.ProgressSnapshot{SessionID: "sess-1", Position: 1})
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("assessment:progress:sess-1") || mr.Exists("assessment:active:u1") {
		t.Fatalf("expected keys removed")
	}
	if _, ok, _ := store.Load(ctx, "u1"); ok {
		t.Fatalf("expected no resumable session after clear")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
