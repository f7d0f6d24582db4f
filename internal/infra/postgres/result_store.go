package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-session-service/internal/domain"
)

// ResultStore writes one row per completed session. Re-submitting a session
// overwrites its row, so a finish retry stays idempotent.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.SessionResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_results (session_id, assessment_id, user_id, correct, total, skipped, score, learning_path_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (session_id) DO UPDATE SET
			correct = EXCLUDED.correct,
			total = EXCLUDED.total,
			skipped = EXCLUDED.skipped,
			score = EXCLUDED.score,
			learning_path_id = EXCLUDED.learning_path_id,
			completed_at = now()`,
		result.SessionID, result.AssessmentID, result.UserID,
		result.Correct, result.Total, result.Skipped, result.Score, result.LearningPathID,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}
