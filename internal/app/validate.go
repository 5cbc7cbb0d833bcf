package app

import (
	"errors"
	"fmt"

	"quiz-progression-service/internal/domain"
)

// RegisterQuizzes validates and registers quizzes. A malformed quiz is
// rejected on its own; the rest of the batch is still registered. A quiz whose
// unlock condition depends on a rejected quiz is rejected too. The returned
// error joins one *domain.ValidationError per rejected quiz.
func (e *Engine) RegisterQuizzes(quizzes ...domain.Quiz) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	reject := func(q domain.Quiz, err error) {
		e.log.Warn("quiz rejected", "quiz", q.ID, "error", err)
		errs = append(errs, err)
	}

	accepted := make(map[string]bool, len(quizzes))
	candidates := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Mode == "" {
			q.Mode = domain.ModeSequential
		}
		err := validateQuiz(q)
		if err == nil {
			if _, dup := e.reg.quizzes[q.ID]; dup || accepted[q.ID] {
				err = &domain.ValidationError{QuizID: q.ID, Field: "id", Msg: "already registered"}
			}
		}
		if err != nil {
			reject(q, err)
			continue
		}
		accepted[q.ID] = true
		candidates = append(candidates, q)
	}

	// Dependencies resolve against registered quizzes and accepted ones only.
	// Repeat so chains on a rejected quiz are rejected as a whole.
	for changed := true; changed; {
		changed = false
		kept := candidates[:0]
		for _, q := range candidates {
			if dep, ok := e.missingDependency(q, accepted); ok {
				delete(accepted, q.ID)
				reject(q, &domain.ValidationError{QuizID: q.ID, Field: "unlockCondition", Msg: fmt.Sprintf("unknown quiz %q", dep)})
				changed = true
				continue
			}
			kept = append(kept, q)
		}
		candidates = kept
	}

	for _, q := range candidates {
		e.reg.add(q)
	}
	return errors.Join(errs...)
}

func (e *Engine) missingDependency(q domain.Quiz, accepted map[string]bool) (string, bool) {
	if q.UnlockCondition == nil {
		return "", false
	}
	for _, dep := range q.UnlockCondition.Dependencies() {
		if _, ok := e.reg.quizzes[dep]; !ok && !accepted[dep] {
			return dep, true
		}
	}
	return "", false
}

func validateQuiz(q domain.Quiz) error {
	invalid := func(field, format string, args ...any) error {
		return &domain.ValidationError{QuizID: q.ID, Field: field, Msg: fmt.Sprintf(format, args...)}
	}

	if q.ID == "" {
		return invalid("id", "must not be empty")
	}
	if q.Mode != domain.ModeSequential && q.Mode != domain.ModeAllUnlocked {
		return invalid("mode", "unknown mode %q", q.Mode)
	}
	if len(q.Questions) == 0 {
		return invalid("questions", "at least one question is required")
	}
	if q.InitialUnlockedQuestions < 0 {
		return invalid("initialUnlockedQuestions", "must not be negative")
	}

	seen := make(map[int]bool, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID <= 0 {
			return invalid("questions", "question id %d must be positive", question.ID)
		}
		if seen[question.ID] {
			return invalid("questions", "duplicate question id %d", question.ID)
		}
		seen[question.ID] = true
		if question.Answer == "" {
			return invalid("questions", "question %d has no answer", question.ID)
		}
		if err := validateHints(question); err != nil {
			return invalid("questions", "question %d: %v", question.ID, err)
		}
	}

	if q.InitiallyLocked && q.UnlockCondition == nil {
		return invalid("unlockCondition", "a locked quiz needs an unlock condition")
	}
	if q.UnlockCondition != nil {
		if err := validateCondition(q.ID, *q.UnlockCondition); err != nil {
			return invalid("unlockCondition", "%v", err)
		}
	}
	return nil
}

func validateHints(q domain.Question) error {
	ids := map[string]bool{
		domain.LetterCountHintID: true,
		domain.FirstLetterHintID: true,
	}
	claim := func(id string) error {
		if id == "" {
			return errors.New("hint id must not be empty")
		}
		if ids[id] {
			return fmt.Errorf("duplicate or reserved hint id %q", id)
		}
		ids[id] = true
		return nil
	}

	for _, h := range q.CustomHints {
		if err := claim(h.ID); err != nil {
			return err
		}
		if h.Cost < 0 {
			return fmt.Errorf("hint %q has negative cost", h.ID)
		}
	}
	for _, h := range q.ContextualHints {
		if err := claim(h.ID); err != nil {
			return err
		}
		if len(h.Triggers) == 0 {
			return fmt.Errorf("contextual hint %q has no triggers", h.ID)
		}
	}
	for _, h := range q.AutoFreeHints {
		if err := claim(h.ID); err != nil {
			return err
		}
		if h.TriggerAfterAttempts < 1 {
			return fmt.Errorf("auto-free hint %q must trigger after at least one attempt", h.ID)
		}
	}
	return nil
}

func validateCondition(quizID string, c domain.UnlockCondition) error {
	switch c.Type {
	case domain.UnlockPlaythrough:
	case domain.UnlockProgress:
		if c.RequiredQuestionsSolved < 1 {
			return errors.New("requiredQuestionsSolved must be at least 1")
		}
	case domain.UnlockMultiPlaythrough:
		if len(c.RequiredQuizIDs) == 0 {
			return errors.New("requiredQuizIds must not be empty")
		}
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}

	deps := c.Dependencies()
	if len(deps) == 0 {
		return errors.New("requiredQuizId must not be empty")
	}
	for _, dep := range deps {
		switch {
		case dep == "":
			return errors.New("required quiz id must not be empty")
		case dep == quizID:
			return errors.New("quiz cannot depend on itself")
		}
	}
	return nil
}
