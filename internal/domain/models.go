package domain

import "time"

// QuestionStatus is the progression state of a single question.
type QuestionStatus string

const (
	StatusInactive QuestionStatus = "inactive"
	StatusActive   QuestionStatus = "active"
	StatusSolved   QuestionStatus = "solved"
)

// QuizMode controls how questions are activated.
type QuizMode string

const (
	// ModeSequential activates one more question per solved question.
	ModeSequential QuizMode = "sequential"
	// ModeAllUnlocked activates every question at creation.
	ModeAllUnlocked QuizMode = "all_unlocked"
)

// Question is immutable quiz content; its runtime status lives in QuizState.
type Question struct {
	ID                 int              `json:"id" yaml:"id"`
	Prompt             string           `json:"prompt,omitempty" yaml:"prompt"`
	Answer             string           `json:"answer" yaml:"answer"`
	AlternativeAnswers []string         `json:"alternativeAnswers,omitempty" yaml:"alternative_answers"`
	CustomHints        []CustomHint     `json:"customHints,omitempty" yaml:"custom_hints"`
	ContextualHints    []ContextualHint `json:"contextualHints,omitempty" yaml:"contextual_hints"`
	AutoFreeHints      []AutoFreeHint   `json:"autoFreeHints,omitempty" yaml:"auto_free_hints"`
}

// Quiz is an ordered collection of questions plus its activation rules.
type Quiz struct {
	ID                       string           `json:"id" yaml:"id"`
	Title                    string           `json:"title" yaml:"title"`
	Questions                []Question       `json:"questions" yaml:"questions"`
	Mode                     QuizMode         `json:"quizMode" yaml:"mode"`
	InitialUnlockedQuestions int              `json:"initialUnlockedQuestions" yaml:"initial_unlocked_questions"`
	UnlockCondition          *UnlockCondition `json:"unlockCondition,omitempty" yaml:"unlock_condition"`
	InitiallyLocked          bool             `json:"initiallyLocked" yaml:"initially_locked"`
}

// Question returns the question with the given id.
func (q Quiz) Question(id int) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// QuestionState is the runtime status of one question.
type QuestionState struct {
	ID     int            `json:"id"`
	Status QuestionStatus `json:"status"`
}

// QuizState is the per-quiz runtime projection.
// CompletedQuestions always equals the number of solved questions.
type QuizState struct {
	QuizID             string          `json:"quizId"`
	CompletedQuestions int             `json:"completedQuestions"`
	Questions          []QuestionState `json:"questions"`
}

// Status returns the status of a question, or false if the question is unknown.
func (s QuizState) Status(questionID int) (QuestionStatus, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q.Status, true
		}
	}
	return "", false
}

// Completed reports whether every question has been solved.
func (s QuizState) Completed() bool {
	return len(s.Questions) > 0 && s.CompletedQuestions == len(s.Questions)
}

// Clone returns a deep copy safe to hand to callers.
func (s QuizState) Clone() QuizState {
	out := s
	out.Questions = append([]QuestionState(nil), s.Questions...)
	return out
}

// PendingUnlock is a notification that a quiz became playable.
type PendingUnlock struct {
	QuizID     string    `json:"quizId"`
	QuizTitle  string    `json:"quizTitle"`
	UnlockedAt time.Time `json:"unlockedAt"`
	Shown      bool      `json:"shown"`
}

// AnswerResult summarizes the outcome of one submission.
type AnswerResult struct {
	QuizID        string   `json:"quizId"`
	QuestionID    int      `json:"questionId"`
	IsCorrect     bool     `json:"isCorrect"`
	CompletedQuiz bool     `json:"completedQuiz"`
	AlreadySolved bool     `json:"alreadySolved,omitempty"`
	Awarded       int      `json:"awarded,omitempty"`
	RevealedHint  *Hint    `json:"revealedHint,omitempty"`
	Unlocked      []string `json:"unlocked,omitempty"`
}

// UnlockStatus describes how far a locked quiz is from becoming playable.
type UnlockStatus struct {
	QuizID          string           `json:"quizId"`
	Condition       *UnlockCondition `json:"condition,omitempty"`
	ProgressPercent int              `json:"progressPercent"`
	IsMet           bool             `json:"isMet"`
}
