package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"assessment-session-service/internal/domain"
	"assessment-session-service/internal/infra/memory"
)

func TestAssessmentRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		AssessmentLoader: memory.NewStaticAssessmentLoader(map[string]domain.Assessment{
			"a1": sampleAssessment(),
		}),
	}
	repo := NewAssessmentRepository(newClient(mr), loader, time.Minute)

	first, err := repo.GetAssessment(context.Background(), "a1")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("assessment:a1:content") {
		t.Fatalf("expected cache key set")
	}

	// Second call should hit redis, loader not incremented, content intact.
	second, _ := repo.GetAssessment(context.Background(), "a1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(second.Questions) != len(first.Questions) || second.Questions[0].CorrectOption != 1 {
		t.Fatalf("cached assessment lost content: %+v", second)
	}
}

func TestAssessmentRepositoryPropagatesNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewAssessmentRepository(newClient(mr), memory.NewStaticAssessmentLoader(nil), time.Minute)
	if _, err := repo.GetAssessment(context.Background(), "missing"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

type countingLoader struct {
	memory.AssessmentLoader
	calls int
}

func (l *countingLoader) LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	l.calls++
	return l.AssessmentLoader.LoadAssessment(ctx, assessmentID)
}

func sampleAssessment() domain.Assessment {
	return domain.Assessment{
		ID: "a1",
		Questions: []domain.Question{
			{
				ID:            "q1",
				Prompt:        "What is 2 + 2?",
				Type:          domain.QuestionTypeMCQ,
				Options:       []string{"3", "4", "5"},
				CorrectOption: 1,
				TopicID:       "arithmetic",
			},
		},
	}
}
