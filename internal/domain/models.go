package domain

// QuestionType distinguishes how a question is answered and graded.
type QuestionType string

const (
	QuestionTypeMCQ  QuestionType = "mcq"
	QuestionTypeText QuestionType = "text"
)

// DefaultTimeLimitSeconds applies when a question carries no usable limit.
const DefaultTimeLimitSeconds = 60

// Question is one assessment item. The prompt is opaque to the engine;
// grading fields (CorrectOption, AcceptedAnswers) never leave the backend.
type Question struct {
	ID               string       `json:"id"`
	Prompt           string       `json:"prompt"`
	Type             QuestionType `json:"type"`
	Options          []string     `json:"options,omitempty"`
	CorrectOption    int          `json:"correctOption,omitempty"`
	AcceptedAnswers  []string     `json:"acceptedAnswers,omitempty"`
	TimeLimitSeconds int          `json:"timeLimitSeconds,omitempty"`
	TopicID          string       `json:"topicId,omitempty"`
	ModuleID         string       `json:"moduleId,omitempty"`
}

// TimeLimit returns the per-question budget in seconds, falling back to the
// default when the stored limit is absent or non-positive.
func (q Question) TimeLimit() int {
	if q.TimeLimitSeconds > 0 {
		return q.TimeLimitSeconds
	}
	return DefaultTimeLimitSeconds
}

// Assessment is the full ordered question set plus topics the backend has
// already locked for this learner.
type Assessment struct {
	ID           string     `json:"id"`
	Questions    []Question `json:"questions"`
	LockedTopics []string   `json:"lockedTopics,omitempty"`
}

// StoredResponse is one persisted answer/skip pair, keyed by question id.
type StoredResponse struct {
	Answer  *string `json:"answer"`
	Skipped bool    `json:"skipped"`
}

// StoredSession is previously persisted progress returned at bootstrap.
type StoredSession struct {
	SessionID string                    `json:"sessionId"`
	Position  int                       `json:"position"`
	Responses map[string]StoredResponse `json:"responses"`
}

// HasProgress reports whether the stored session shows anything worth
// resuming; a fresh zero-position session with empty responses does not.
func (s StoredSession) HasProgress() bool {
	if s.Position > 0 {
		return true
	}
	for _, r := range s.Responses {
		if r.Skipped || r.Answer != nil {
			return true
		}
	}
	return false
}

// BootstrapResult is the start-or-resume payload.
type BootstrapResult struct {
	AssessmentID string
	Questions    []Question
	LockedTopics []string
	Session      StoredSession
	Resumed      bool
}

// Evaluation is the grading verdict for a single submitted answer.
type Evaluation struct {
	Correct  bool   `json:"correct"`
	TopicID  string `json:"topicId"`
	ModuleID string `json:"moduleId"`
}

// ResponseRecord is the wire form of one response, ordered by the original
// question index so the store and the finisher see every question exactly once.
type ResponseRecord struct {
	QuestionIndex int     `json:"questionIndex"`
	QuestionID    string  `json:"questionId"`
	Answer        *string `json:"answer"`
	Skipped       bool    `json:"skipped"`
}

// ProgressSnapshot is the durable save unit, last-write-wins per session.
type ProgressSnapshot struct {
	SessionID string           `json:"sessionId"`
	Position  int              `json:"position"`
	Responses []ResponseRecord `json:"responses"`
}

// SessionSummary is produced once, at the terminal state.
type SessionSummary struct {
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Score          int    `json:"score"`
	Skipped        int    `json:"skipped"`
	LearningPathID string `json:"learningPathId,omitempty"`
}

// SessionResult is the persisted outcome row written at finish.
type SessionResult struct {
	SessionID      string `json:"sessionId"`
	AssessmentID   string `json:"assessmentId"`
	UserID         string `json:"userId"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Skipped        int    `json:"skipped"`
	Score          int    `json:"score"`
	LearningPathID string `json:"learningPathId,omitempty"`
}
