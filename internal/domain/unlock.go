package domain

// UnlockKind tags the unlock condition variants.
type UnlockKind string

const (
	UnlockPlaythrough      UnlockKind = "playthrough"
	UnlockProgress         UnlockKind = "progress"
	UnlockMultiPlaythrough UnlockKind = "multi_playthrough"
)

// UnlockCondition gates a locked quiz on the progress of other quizzes.
type UnlockCondition struct {
	Type                    UnlockKind `json:"type" yaml:"type"`
	RequiredQuizID          string     `json:"requiredQuizId,omitempty" yaml:"required_quiz_id"`
	RequiredQuestionsSolved int        `json:"requiredQuestionsSolved,omitempty" yaml:"required_questions_solved"`
	RequiredQuizIDs         []string   `json:"requiredQuizIds,omitempty" yaml:"required_quiz_ids"`
}

// Dependencies lists the quiz ids the condition reads.
func (c UnlockCondition) Dependencies() []string {
	if c.Type == UnlockMultiPlaythrough {
		return c.RequiredQuizIDs
	}
	if c.RequiredQuizID == "" {
		return nil
	}
	return []string{c.RequiredQuizID}
}
