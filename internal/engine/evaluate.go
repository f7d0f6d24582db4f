package engine

import (
	"context"
	"log"

	"assessment-session-service/internal/domain"
)

// Evaluator grades one submitted answer. Implementations may call out over
// the network; the engine only ever invokes it for non-skipped questions.
type Evaluator interface {
	Evaluate(ctx context.Context, questionID string, answer *string) (domain.Evaluation, error)
}

// evaluationClient normalizes evaluator failures: a transport or server error
// degrades to a nil verdict (unscored) so advancement is never blocked.
type evaluationClient struct {
	evaluator Evaluator
}

func (c evaluationClient) evaluate(ctx context.Context, questionID string, answer *string) *domain.Evaluation {
	eval, err := c.evaluator.Evaluate(ctx, questionID, answer)
	if err != nil {
		log.Printf("failed to evaluate question %s: %v", questionID, err)
		return nil
	}
	return &eval
}
