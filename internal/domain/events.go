package domain

import "time"

// EventType names the outbound notifications.
type EventType string

const (
	EventQuestionSolved EventType = "questionSolved"
	EventQuizCompleted  EventType = "quizCompleted"
	EventQuizUnlocked   EventType = "quizUnlocked"
	EventPointsChanged  EventType = "pointsChanged"
	EventHintRevealed   EventType = "hintRevealed"
	EventQuizReset      EventType = "quizReset"
)

// Event is emitted after an operation has committed.
type Event struct {
	Type       EventType `json:"type"`
	QuizID     string    `json:"quizId,omitempty"`
	QuestionID int       `json:"questionId,omitempty"`
	Quiz       *Quiz     `json:"quiz,omitempty"`
	Hint       *Hint     `json:"hint,omitempty"`
	Balance    int       `json:"balance"`
	At         time.Time `json:"at"`
}
