package domain

import "errors"

var (
	// ErrAssessmentNotFound indicates assessment content could not be loaded.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotFound indicates there is no stored progress for the key.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrSessionNotActive is returned when an operation needs a live session.
	ErrSessionNotActive = errors.New("assessment session not active")
	// ErrSessionCompleted is returned for operations on a finished session.
	ErrSessionCompleted = errors.New("assessment session already completed")
	// ErrNoCurrentQuestion is returned when the queue is exhausted.
	ErrNoCurrentQuestion = errors.New("no current question")
)
