package engine

import (
	"context"
	"sync"
	"time"

	"assessment-session-service/internal/domain"
)

// State is the engine's lifecycle phase.
type State int

const (
	StateBootstrapping State = iota
	StateActive
	StateAdvancing
	StateFinalizing
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateActive:
		return "active"
	case StateAdvancing:
		return "advancing"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Bootstrapper starts or resumes a session and returns the ordered question
// set plus any previously stored responses.
type Bootstrapper interface {
	StartOrResume(ctx context.Context) (domain.BootstrapResult, error)
}

// Finisher accepts all responses at session end and returns the summary.
type Finisher interface {
	Finish(ctx context.Context, assessmentID, sessionID string, responses []domain.ResponseRecord) (domain.SessionSummary, error)
}

// EventType tags engine notifications.
type EventType string

const (
	EventSessionReady EventType = "sessionReady"
	EventQuestion     EventType = "question"
	EventTick         EventType = "tick"
	EventCompleted    EventType = "completed"
	EventError        EventType = "error"
)

// Event is one engine notification. Fields are populated per type.
type Event struct {
	Type         EventType
	AssessmentID string
	SessionID    string
	Resumed      bool
	Question     domain.Question
	Position     int
	Total        int
	SecondsLeft  int
	Summary      domain.SessionSummary
	Err          error
}

// Config wires the engine's external collaborators.
type Config struct {
	Bootstrapper Bootstrapper
	Evaluator    Evaluator
	Saver        ProgressSaver
	Finisher     Finisher
	// SaveInterval overrides the background persistence cadence.
	SaveInterval time.Duration
	// TimerTick overrides the countdown granularity (tests only).
	TimerTick time.Duration
}

// SessionEngine owns one learner's assessment attempt: it sequences the
// active queue, runs the per-question countdown, applies mistake lockout,
// persists progress, and finalizes. External triggers (timer expiry, next,
// skip) all funnel through advance, serialized by the state guard: while one
// advance is in flight every other trigger is a no-op, never queued.
type SessionEngine struct {
	bootstrapper Bootstrapper
	eval         evaluationClient
	finisher     Finisher

	timer     *QuestionTimer
	persister *ProgressPersister
	events    chan Event

	mu           sync.Mutex
	state        State
	assessmentID string
	sessionID    string
	questions    []domain.Question
	queue        *QuestionQueue
	answers      *AnswerStore
	ledger       *MistakeLedger
	summary      domain.SessionSummary
}

func NewSessionEngine(cfg Config) *SessionEngine {
	e := &SessionEngine{
		bootstrapper: cfg.Bootstrapper,
		eval:         evaluationClient{evaluator: cfg.Evaluator},
		finisher:     cfg.Finisher,
		state:        StateBootstrapping,
		events:       make(chan Event, 16),
	}
	e.timer = NewQuestionTimer(e.onTimerExpire, e.onTimerTick)
	if cfg.TimerTick > 0 {
		e.timer.tick = cfg.TimerTick
	}
	e.persister = NewProgressPersister(cfg.Saver, cfg.SaveInterval, e.snapshotProgress)
	return e
}

// Events returns the notification channel. Delivery is best-effort: when the
// consumer falls behind, the oldest pending event is dropped for the newest.
func (e *SessionEngine) Events() <-chan Event {
	return e.events
}

// Start boots the session, restoring persisted progress when present. A
// bootstrap failure is fatal: the engine ends up Abandoned with no session.
func (e *SessionEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateBootstrapping {
		e.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	e.mu.Unlock()

	result, err := e.bootstrapper.StartOrResume(ctx)
	if err != nil {
		e.mu.Lock()
		e.state = StateAbandoned
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.assessmentID = result.AssessmentID
	e.sessionID = result.Session.SessionID
	e.questions = result.Questions
	e.queue = NewQuestionQueue(result.Questions)
	e.answers = NewAnswerStore()
	e.ledger = NewMistakeLedger(result.LockedTopics)
	if result.Resumed {
		e.answers.Restore(result.Session.Responses)
		e.queue.Restore(result.Session.Position)
	}
	e.state = StateActive
	question, _, ok := e.queue.Current()
	position, total := e.queue.Position(), e.queue.Len()
	e.emit(Event{
		Type:         EventSessionReady,
		AssessmentID: result.AssessmentID,
		SessionID:    result.Session.SessionID,
		Resumed:      result.Resumed,
		Total:        total,
	})
	if ok {
		e.timer.Start(question.TimeLimit())
		e.emit(Event{Type: EventQuestion, Question: question, Position: position, Total: total})
	}
	e.mu.Unlock()

	go e.persister.Run()

	if !ok {
		// Resumed past the last question; only finishing remains.
		return e.Finish(ctx)
	}
	return nil
}

// SetAnswer records the learner's answer for the current question and clears
// any skip flag on it, then persists immediately. Answers are accepted while
// an advance is in flight; an evaluation already started keeps the value it
// read.
func (e *SessionEngine) SetAnswer(value string) error {
	e.mu.Lock()
	if e.state != StateActive && e.state != StateAdvancing {
		e.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	question, _, ok := e.queue.Current()
	if !ok {
		e.mu.Unlock()
		return domain.ErrNoCurrentQuestion
	}
	e.answers.SetAnswer(question.ID, value)
	e.mu.Unlock()

	e.persister.SaveNow()
	return nil
}

// Next advances past the current question, evaluating its stored answer.
func (e *SessionEngine) Next(ctx context.Context) error {
	return e.advance(ctx, false)
}

// Skip marks the current question skipped and advances without evaluating.
func (e *SessionEngine) Skip(ctx context.Context) error {
	return e.advance(ctx, true)
}

// State returns the current lifecycle phase.
func (e *SessionEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Summary returns the final score summary once the session is Completed.
func (e *SessionEngine) Summary() (domain.SessionSummary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary, e.state == StateCompleted
}

// Close abandons the engine without finalizing: background work stops and the
// last persisted snapshot remains in the store for a later resume.
func (e *SessionEngine) Close() {
	e.mu.Lock()
	if e.state == StateCompleted || e.state == StateAbandoned {
		e.mu.Unlock()
		return
	}
	e.state = StateAbandoned
	e.mu.Unlock()

	e.timer.Stop()
	e.persister.Stop()
}

// advance is the single funnel for timer expiry, explicit next, and explicit
// skip. Overlapping triggers are dropped, not queued: the first one to flip
// the state to Advancing wins.
func (e *SessionEngine) advance(ctx context.Context, explicitSkip bool) error {
	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return nil
	}
	question, currentIndex, ok := e.queue.Current()
	if !ok {
		e.mu.Unlock()
		return nil
	}
	e.state = StateAdvancing
	skipCurrent := explicitSkip || e.answers.IsSkipped(question.ID)
	if skipCurrent {
		e.answers.MarkSkipped(question.ID)
	}
	answer := e.answers.Answer(question.ID)
	e.mu.Unlock()

	// An empty answer is still graded (typically as wrong); only an explicit
	// skip bypasses evaluation and mistake accounting.
	var eval *domain.Evaluation
	if !skipCurrent {
		eval = e.eval.evaluate(ctx, question.ID, answer)
	}

	e.mu.Lock()
	if eval != nil && !eval.Correct {
		if e.ledger.RecordMistake(eval.TopicID) {
			removed := e.queue.LockOutTopic(eval.TopicID, currentIndex)
			for _, idx := range removed {
				e.answers.MarkSkipped(e.questions[idx].ID)
			}
		}
	}

	if !e.queue.Advance() {
		return e.finalizeLocked(ctx)
	}

	next, _, _ := e.queue.Current()
	position, total := e.queue.Position(), e.queue.Len()
	// The next countdown starts and its event goes out before the state guard
	// reopens; a racing trigger can never interleave a newer period first.
	e.timer.Start(next.TimeLimit())
	e.emit(Event{Type: EventQuestion, Question: next, Position: position, Total: total})
	e.state = StateActive
	e.mu.Unlock()

	e.persister.SaveNow()
	return nil
}

// Finish builds one response per original question and submits them. On
// failure the session stays Active so the caller can retry; no partial score
// is synthesized locally.
func (e *SessionEngine) Finish(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateActive:
	case StateCompleted:
		e.mu.Unlock()
		return domain.ErrSessionCompleted
	default:
		e.mu.Unlock()
		return domain.ErrSessionNotActive
	}
	return e.finalizeLocked(ctx)
}

// finalizeLocked is entered holding the lock and releases it before the
// finish call so saves and state reads are not blocked behind the network.
func (e *SessionEngine) finalizeLocked(ctx context.Context) error {
	e.state = StateFinalizing
	records := e.answers.Records(e.questions)
	assessmentID, sessionID := e.assessmentID, e.sessionID
	e.mu.Unlock()

	e.timer.Stop()

	summary, err := e.finisher.Finish(ctx, assessmentID, sessionID, records)

	e.mu.Lock()
	if err != nil {
		e.state = StateActive
		if question, _, ok := e.queue.Current(); ok {
			e.timer.Start(question.TimeLimit())
		}
		e.emit(Event{Type: EventError, Err: err})
		e.mu.Unlock()
		return err
	}
	e.state = StateCompleted
	e.summary = summary
	e.emit(Event{Type: EventCompleted, Summary: summary})
	e.mu.Unlock()

	e.persister.Stop()
	return nil
}

func (e *SessionEngine) onTimerExpire() {
	// Expiry advances with whatever answer is stored; it is not a skip.
	_ = e.advance(context.Background(), false)
}

func (e *SessionEngine) onTimerTick(secondsLeft int) {
	e.emit(Event{Type: EventTick, SecondsLeft: secondsLeft})
}

// snapshotProgress reads the freshest state at save time.
func (e *SessionEngine) snapshotProgress() (domain.ProgressSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessionID == "" || (e.state != StateActive && e.state != StateAdvancing) {
		return domain.ProgressSnapshot{}, false
	}
	return domain.ProgressSnapshot{
		SessionID: e.sessionID,
		Position:  e.queue.Position(),
		Responses: e.answers.Records(e.questions),
	}, true
}

// emit delivers best-effort: on a full channel the oldest event is dropped so
// a slow consumer never blocks the state machine.
func (e *SessionEngine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		select {
		case <-e.events:
		default:
		}
		select {
		case e.events <- ev:
		default:
		}
	}
}
