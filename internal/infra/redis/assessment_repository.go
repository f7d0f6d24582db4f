package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"assessment-session-service/internal/domain"
)

// AssessmentLoader fetches assessment content from a backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// AssessmentRepository caches full assessments (questions plus answer keys)
// as JSON in Redis and falls back to a loader on cache miss.
// Stored as: SET assessment:{assessmentID}:content {json}
type AssessmentRepository struct {
	client *redis.Client
	loader AssessmentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAssessmentRepository(client *redis.Client, loader AssessmentLoader, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	key := r.contentKey(assessmentID)

	if assessment, ok := r.fromCache(ctx, key); ok {
		return assessment, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if assessment, ok := r.fromCache(ctx, key); ok {
			return assessment, nil
		}

		assessment, err := r.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		data, err := json.Marshal(assessment)
		if err != nil {
			return domain.Assessment{}, fmt.Errorf("marshal assessment: %w", err)
		}
		// best-effort cache fill
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()

		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (r *AssessmentRepository) fromCache(ctx context.Context, key string) (domain.Assessment, bool) {
	// A flaky cache degrades to the loader.
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Assessment{}, false
	}
	var assessment domain.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return domain.Assessment{}, false
	}
	return assessment, true
}

func (r *AssessmentRepository) contentKey(assessmentID string) string {
	return "assessment:" + assessmentID + ":content"
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
