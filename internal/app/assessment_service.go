package app

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"assessment-session-service/internal/domain"
)

// AssessmentRepository loads assessment content (from cache/backing store).
type AssessmentRepository interface {
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// ProgressStore durably persists session progress, last-write-wins per
// session, and maps each user to their open session for resume.
type ProgressStore interface {
	Save(ctx context.Context, userID string, snap domain.ProgressSnapshot) error
	Load(ctx context.Context, userID string) (domain.ProgressSnapshot, bool, error)
	Clear(ctx context.Context, userID string) error
}

// ResultStore records the final outcome of a completed session.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.SessionResult) error
}

// AssessmentService implements the engine's collaborators: bootstrap with
// resume, answer-key evaluation, progress persistence, and finalization.
type AssessmentService struct {
	assessments AssessmentRepository
	progress    ProgressStore
	results     ResultStore
	newID       func() string
}

func NewAssessmentService(assessments AssessmentRepository, progress ProgressStore, results ResultStore) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		progress:    progress,
		results:     results,
		newID:       func() string { return uuid.NewString() },
	}
}

// ForUser binds the service to one learner taking one assessment, yielding
// the collaborator set a session engine needs.
func (s *AssessmentService) ForUser(userID, assessmentID string) *SessionBackend {
	return &SessionBackend{service: s, userID: userID, assessmentID: assessmentID}
}

// SessionBackend is the per-learner view of the assessment service.
type SessionBackend struct {
	service      *AssessmentService
	userID       string
	assessmentID string
}

// StartOrResume loads the question set and restores stored progress when the
// learner has an open session with anything worth resuming; otherwise it
// mints a fresh session id.
func (b *SessionBackend) StartOrResume(ctx context.Context) (domain.BootstrapResult, error) {
	assessment, err := b.service.assessments.GetAssessment(ctx, b.assessmentID)
	if err != nil {
		return domain.BootstrapResult{}, err
	}

	result := domain.BootstrapResult{
		AssessmentID: assessment.ID,
		Questions:    assessment.Questions,
		LockedTopics: assessment.LockedTopics,
	}

	snap, found, err := b.service.progress.Load(ctx, b.userID)
	if err == nil && found {
		stored := storedSessionFromSnapshot(snap)
		if stored.HasProgress() {
			result.Session = stored
			result.Resumed = true
			return result, nil
		}
		// An open but untouched session keeps its id, starting from zero.
		result.Session = domain.StoredSession{SessionID: snap.SessionID}
		return result, nil
	}

	result.Session = domain.StoredSession{SessionID: b.service.newID()}
	return result, nil
}

// Evaluate grades one submitted answer against the stored key. Empty answers
// are graded, not treated as skips.
func (b *SessionBackend) Evaluate(ctx context.Context, questionID string, answer *string) (domain.Evaluation, error) {
	assessment, err := b.service.assessments.GetAssessment(ctx, b.assessmentID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	question, ok := findQuestion(assessment, questionID)
	if !ok {
		return domain.Evaluation{}, domain.ErrQuestionNotFound
	}
	return domain.Evaluation{
		Correct:  gradeAnswer(question, answer),
		TopicID:  question.TopicID,
		ModuleID: question.ModuleID,
	}, nil
}

// SaveProgress persists the snapshot for this learner.
func (b *SessionBackend) SaveProgress(ctx context.Context, snap domain.ProgressSnapshot) error {
	return b.service.progress.Save(ctx, b.userID, snap)
}

// Finish grades every response, stores the result row, clears the learner's
// resume state, and returns the summary with the follow-up routing token.
func (b *SessionBackend) Finish(ctx context.Context, assessmentID, sessionID string, responses []domain.ResponseRecord) (domain.SessionSummary, error) {
	assessment, err := b.service.assessments.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.SessionSummary{}, err
	}

	summary := domain.SessionSummary{Total: len(assessment.Questions)}
	for _, resp := range responses {
		if resp.Skipped {
			summary.Skipped++
			continue
		}
		question, ok := findQuestion(assessment, resp.QuestionID)
		if !ok {
			continue
		}
		if gradeAnswer(question, resp.Answer) {
			summary.Correct++
		}
	}
	if summary.Total > 0 {
		summary.Score = int(math.Round(100 * float64(summary.Correct) / float64(summary.Total)))
	}
	summary.LearningPathID = learningPathFor(assessment, summary)

	if b.service.results != nil {
		if err := b.service.results.SaveResult(ctx, domain.SessionResult{
			SessionID:      sessionID,
			AssessmentID:   assessmentID,
			UserID:         b.userID,
			Correct:        summary.Correct,
			Total:          summary.Total,
			Skipped:        summary.Skipped,
			Score:          summary.Score,
			LearningPathID: summary.LearningPathID,
		}); err != nil {
			return domain.SessionSummary{}, err
		}
	}

	if err := b.service.progress.Clear(ctx, b.userID); err != nil {
		return domain.SessionSummary{}, err
	}
	return summary, nil
}

func storedSessionFromSnapshot(snap domain.ProgressSnapshot) domain.StoredSession {
	responses := make(map[string]domain.StoredResponse, len(snap.Responses))
	for _, rec := range snap.Responses {
		responses[rec.QuestionID] = domain.StoredResponse{Answer: rec.Answer, Skipped: rec.Skipped}
	}
	return domain.StoredSession{
		SessionID: snap.SessionID,
		Position:  snap.Position,
		Responses: responses,
	}
}

func findQuestion(assessment domain.Assessment, questionID string) (domain.Question, bool) {
	for _, q := range assessment.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

// gradeAnswer compares the submitted answer against the key: the selected
// option index for multiple-choice, a trimmed case-insensitive match against
// any accepted answer for free-text.
func gradeAnswer(question domain.Question, answer *string) bool {
	if answer == nil {
		return false
	}
	switch question.Type {
	case domain.QuestionTypeMCQ:
		selected, err := strconv.Atoi(strings.TrimSpace(*answer))
		if err != nil {
			return false
		}
		return selected == question.CorrectOption
	case domain.QuestionTypeText:
		got := strings.ToLower(strings.TrimSpace(*answer))
		if got == "" {
			return false
		}
		for _, accepted := range question.AcceptedAnswers {
			if got == strings.ToLower(strings.TrimSpace(accepted)) {
				return true
			}
		}
	}
	return false
}

// learningPathFor derives the routing token handed back to the caller. Low
// scores route into the remedial path for the assessment; others continue on
// the standard one.
func learningPathFor(assessment domain.Assessment, summary domain.SessionSummary) string {
	if summary.Total == 0 {
		return ""
	}
	if summary.Score < 40 {
		return "path-" + assessment.ID + "-foundation"
	}
	return "path-" + assessment.ID + "-core"
}
