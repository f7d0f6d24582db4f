package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-session-service/internal/domain"
)

// AssessmentLoader fetches assessment content from a backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// AssessmentRepository caches assessments with TTL to avoid repeated DB hits.
type AssessmentRepository struct {
	loader AssessmentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewAssessmentRepository(loader AssessmentLoader, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedAssessment),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[assessmentID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.assessment, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[assessmentID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.assessment, nil
		}
		r.mu.RUnlock()

		assessment, err := r.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		r.mu.Lock()
		r.cache[assessmentID] = cachedAssessment{
			assessment: assessment,
			expiresAt:  now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticAssessmentLoader is a simple loader backed by an in-memory map
// (useful for tests/demos).
type StaticAssessmentLoader struct {
	assessments map[string]domain.Assessment
}

func NewStaticAssessmentLoader(assessments map[string]domain.Assessment) *StaticAssessmentLoader {
	return &StaticAssessmentLoader{assessments: assessments}
}

func (l *StaticAssessmentLoader) LoadAssessment(_ context.Context, assessmentID string) (domain.Assessment, error) {
	if assessment, ok := l.assessments[assessmentID]; ok {
		return assessment, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}
