package engine

// mistakeThreshold is the number of wrong answers that locks a topic.
const mistakeThreshold = 2

// MistakeLedger counts wrong answers per topic. Counts only ever grow, and a
// locked topic's count is frozen: further mistakes on it never re-trigger a
// lockout.
type MistakeLedger struct {
	counts map[string]int
	locked map[string]bool
}

// NewMistakeLedger builds a ledger, optionally pre-seeded with topics the
// backend already locked for this learner.
func NewMistakeLedger(lockedTopics []string) *MistakeLedger {
	l := &MistakeLedger{
		counts: make(map[string]int),
		locked: make(map[string]bool),
	}
	for _, t := range lockedTopics {
		if t != "" {
			l.locked[t] = true
		}
	}
	return l
}

// RecordMistake increments the topic's count and reports whether this mistake
// crossed the lockout threshold. A locked topic is never re-counted.
func (l *MistakeLedger) RecordMistake(topicID string) bool {
	if topicID == "" || l.locked[topicID] {
		return false
	}
	l.counts[topicID]++
	if l.counts[topicID] >= mistakeThreshold {
		l.locked[topicID] = true
		return true
	}
	return false
}

// IsLocked reports whether the topic is locked out.
func (l *MistakeLedger) IsLocked(topicID string) bool {
	return topicID != "" && l.locked[topicID]
}

// Mistakes returns the recorded count for a topic.
func (l *MistakeLedger) Mistakes(topicID string) int {
	return l.counts[topicID]
}
