package engine

import "assessment-session-service/internal/domain"

type response struct {
	answer  *string
	skipped bool
}

// AnswerStore holds the answer and skip flag per question id. All mutation
// paths preserve the invariant that a skipped response has a nil answer.
type AnswerStore struct {
	responses map[string]*response
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{responses: make(map[string]*response)}
}

// SetAnswer overwrites the answer and explicitly un-skips the question.
func (s *AnswerStore) SetAnswer(questionID, value string) {
	r := s.get(questionID)
	v := value
	r.answer = &v
	r.skipped = false
}

// MarkSkipped flags the question as skipped and clears its answer. Repeat
// calls are no-ops.
func (s *AnswerStore) MarkSkipped(questionID string) {
	r := s.get(questionID)
	if r.skipped {
		return
	}
	r.skipped = true
	r.answer = nil
}

// Answer returns the stored answer, nil when absent or skipped.
func (s *AnswerStore) Answer(questionID string) *string {
	if r, ok := s.responses[questionID]; ok {
		return r.answer
	}
	return nil
}

// IsSkipped reports whether the question was skipped.
func (s *AnswerStore) IsSkipped(questionID string) bool {
	if r, ok := s.responses[questionID]; ok {
		return r.skipped
	}
	return false
}

// Restore loads persisted responses, normalizing any record that claims both
// a skip and an answer in favor of the skip.
func (s *AnswerStore) Restore(stored map[string]domain.StoredResponse) {
	for id, sr := range stored {
		if sr.Skipped {
			s.MarkSkipped(id)
			continue
		}
		if sr.Answer != nil {
			s.SetAnswer(id, *sr.Answer)
		}
	}
}

// Records builds one wire record per original question, in question order, so
// skipped and locked-out questions are always accounted for.
func (s *AnswerStore) Records(questions []domain.Question) []domain.ResponseRecord {
	records := make([]domain.ResponseRecord, 0, len(questions))
	for i, q := range questions {
		rec := domain.ResponseRecord{QuestionIndex: i, QuestionID: q.ID}
		if r, ok := s.responses[q.ID]; ok {
			rec.Skipped = r.skipped
			if !r.skipped {
				rec.Answer = r.answer
			}
		}
		records = append(records, rec)
	}
	return records
}

func (s *AnswerStore) get(questionID string) *response {
	r, ok := s.responses[questionID]
	if !ok {
		r = &response{}
		s.responses[questionID] = r
	}
	return r
}
