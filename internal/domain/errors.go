package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz is not registered.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id is invalid for its quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuizLocked is returned when answering a quiz whose unlock condition is not met yet.
	ErrQuizLocked = errors.New("quiz is locked")
	// ErrQuestionNotActive is returned when answering a question that has not been activated.
	ErrQuestionNotActive = errors.New("question is not active")
	// ErrInsufficientPoints is returned by the ledger when a spend exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrInvalidAmount is returned for non-positive ledger amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrUnlockNotFound indicates there is no pending unlock for a quiz.
	ErrUnlockNotFound = errors.New("pending unlock not found")
	// ErrStateNotFound is returned by state stores for unknown keys.
	ErrStateNotFound = errors.New("state not found")
)

// NotFoundError carries the id of the missing quiz or question.
type NotFoundError struct {
	Kind string
	ID   string
	err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.err }

// QuizNotFound builds a NotFoundError matching ErrQuizNotFound.
func QuizNotFound(quizID string) error {
	return &NotFoundError{Kind: "quiz", ID: quizID, err: ErrQuizNotFound}
}

// QuestionNotFound builds a NotFoundError matching ErrQuestionNotFound.
func QuestionNotFound(quizID string, questionID int) error {
	return &NotFoundError{Kind: "question", ID: fmt.Sprintf("%s/%d", quizID, questionID), err: ErrQuestionNotFound}
}

// UnlockNotFound builds a NotFoundError matching ErrUnlockNotFound.
func UnlockNotFound(quizID string) error {
	return &NotFoundError{Kind: "pending unlock", ID: quizID, err: ErrUnlockNotFound}
}

// HintReason enumerates why a hint could not be used.
type HintReason string

const (
	HintNotFound          HintReason = "not found"
	HintAlreadyUsed       HintReason = "already used"
	HintThresholdNotMet   HintReason = "attempts threshold not met"
	HintInsufficientFunds HintReason = "insufficient points"
)

// HintError is a recoverable, user-facing hint failure.
type HintError struct {
	HintID string
	Reason HintReason
}

func (e *HintError) Error() string {
	return fmt.Sprintf("hint %q: %s", e.HintID, e.Reason)
}

// IsHintReason reports whether err is a HintError with the given reason.
func IsHintReason(err error, reason HintReason) bool {
	var he *HintError
	return errors.As(err, &he) && he.Reason == reason
}

// ValidationError rejects a malformed quiz at registration time.
type ValidationError struct {
	QuizID string
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("quiz %q: %s", e.QuizID, e.Msg)
	}
	return fmt.Sprintf("quiz %q: %s: %s", e.QuizID, e.Field, e.Msg)
}
