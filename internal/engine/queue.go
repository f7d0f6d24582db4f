package engine

import "assessment-session-service/internal/domain"

// QuestionQueue holds the ordered indices of still-active questions and the
// pointer into them. Entries are only ever removed (lockout), never added,
// and removal never touches entries at or before the current position.
type QuestionQueue struct {
	questions []domain.Question
	order     []int
	position  int
}

// NewQuestionQueue builds a queue over every question, in original order.
func NewQuestionQueue(questions []domain.Question) *QuestionQueue {
	order := make([]int, len(questions))
	for i := range questions {
		order[i] = i
	}
	return &QuestionQueue{questions: questions, order: order}
}

// Current returns the active question and its original index, or false when
// the queue is exhausted.
func (q *QuestionQueue) Current() (domain.Question, int, bool) {
	if q.position < 0 || q.position >= len(q.order) {
		return domain.Question{}, 0, false
	}
	idx := q.order[q.position]
	return q.questions[idx], idx, true
}

// Advance moves the pointer one step and reports whether a question remains.
func (q *QuestionQueue) Advance() bool {
	q.position++
	return q.position < len(q.order)
}

// Position returns the pointer into the active order.
func (q *QuestionQueue) Position() int {
	return q.position
}

// Restore moves the pointer to a persisted position, clamped to the order.
func (q *QuestionQueue) Restore(position int) {
	if position < 0 {
		position = 0
	}
	if position > len(q.order) {
		position = len(q.order)
	}
	q.position = position
}

// Len returns the number of active entries.
func (q *QuestionQueue) Len() int {
	return len(q.order)
}

// Exhausted reports whether no active question remains at the pointer.
func (q *QuestionQueue) Exhausted() bool {
	return q.position >= len(q.order)
}

// LockOutTopic removes every not-yet-reached entry with the given topic whose
// original index is strictly greater than afterIndex, and returns the removed
// original indices. afterIndex must be the original index of the question that
// triggered the lockout, not the queue position: earlier compactions shift
// positions but never indices. Entries at or before the current position stay,
// so already-served questions keep their recorded outcome.
func (q *QuestionQueue) LockOutTopic(topicID string, afterIndex int) []int {
	if topicID == "" {
		return nil
	}
	var removed []int
	kept := q.order[:0]
	for pos, idx := range q.order {
		if pos > q.position && idx > afterIndex && q.questions[idx].TopicID == topicID {
			removed = append(removed, idx)
			continue
		}
		kept = append(kept, idx)
	}
	q.order = kept
	return removed
}
