package app

import (
	"time"

	"quiz-progression-service/internal/domain"
)

// UnlockEvaluator decides which locked quizzes satisfy their unlock condition.
// Conditions are evaluated read-only against quiz states.
type UnlockEvaluator struct {
	reg *registry
	now func() time.Time
}

func newUnlockEvaluator(reg *registry, now func() time.Time) *UnlockEvaluator {
	return &UnlockEvaluator{reg: reg, now: now}
}

// scan unlocks every locked quiz whose condition is met, recording a pending
// unlock for each. A quiz is unlocked at most once. It repeats until a pass
// unlocks nothing, so chains of dependent quizzes resolve in one call.
func (u *UnlockEvaluator) scan() []*domain.Quiz {
	var unlocked []*domain.Quiz
	for {
		changed := false
		for _, id := range u.reg.order {
			quiz := u.reg.quizzes[id]
			if !quiz.InitiallyLocked || quiz.UnlockCondition == nil {
				continue
			}
			if u.reg.unlockRecorded(id) {
				quiz.InitiallyLocked = false
				continue
			}
			if !u.isMet(*quiz.UnlockCondition) {
				continue
			}
			quiz.InitiallyLocked = false
			u.reg.pending = append(u.reg.pending, domain.PendingUnlock{
				QuizID:     quiz.ID,
				QuizTitle:  quiz.Title,
				UnlockedAt: u.now(),
			})
			unlocked = append(unlocked, quiz)
			changed = true
		}
		if !changed {
			return unlocked
		}
	}
}

func (u *UnlockEvaluator) status(quiz *domain.Quiz) domain.UnlockStatus {
	st := domain.UnlockStatus{QuizID: quiz.ID}
	if quiz.UnlockCondition == nil {
		// Registration refuses locked quizzes without a condition.
		st.IsMet = !quiz.InitiallyLocked
		if st.IsMet {
			st.ProgressPercent = 100
		}
		return st
	}
	cond := *quiz.UnlockCondition
	st.Condition = &cond
	st.IsMet = u.isMet(cond)
	st.ProgressPercent = u.progress(cond)
	return st
}

func (u *UnlockEvaluator) isMet(cond domain.UnlockCondition) bool {
	switch cond.Type {
	case domain.UnlockPlaythrough:
		return u.playedThrough(cond.RequiredQuizID)
	case domain.UnlockProgress:
		return u.completed(cond.RequiredQuizID) >= cond.RequiredQuestionsSolved
	case domain.UnlockMultiPlaythrough:
		if len(cond.RequiredQuizIDs) == 0 {
			return false
		}
		for _, id := range cond.RequiredQuizIDs {
			if !u.playedThrough(id) {
				return false
			}
		}
		return true
	}
	return false
}

func (u *UnlockEvaluator) progress(cond domain.UnlockCondition) int {
	switch cond.Type {
	case domain.UnlockPlaythrough:
		return u.completionPercent(cond.RequiredQuizID)
	case domain.UnlockProgress:
		if cond.RequiredQuestionsSolved <= 0 {
			return 100
		}
		done := min(u.completed(cond.RequiredQuizID), cond.RequiredQuestionsSolved)
		return done * 100 / cond.RequiredQuestionsSolved
	case domain.UnlockMultiPlaythrough:
		if len(cond.RequiredQuizIDs) == 0 {
			return 0
		}
		sum := 0
		for _, id := range cond.RequiredQuizIDs {
			sum += u.completionPercent(id)
		}
		return sum / len(cond.RequiredQuizIDs)
	}
	return 0
}

func (u *UnlockEvaluator) playedThrough(quizID string) bool {
	quiz, ok := u.reg.quizzes[quizID]
	if !ok || len(quiz.Questions) == 0 {
		return false
	}
	return u.completed(quizID) == len(quiz.Questions)
}

func (u *UnlockEvaluator) completed(quizID string) int {
	if st, ok := u.reg.states[quizID]; ok {
		return st.CompletedQuestions
	}
	return 0
}

func (u *UnlockEvaluator) completionPercent(quizID string) int {
	quiz, ok := u.reg.quizzes[quizID]
	if !ok || len(quiz.Questions) == 0 {
		return 0
	}
	return min(u.completed(quizID), len(quiz.Questions)) * 100 / len(quiz.Questions)
}
