package app

import "quiz-progression-service/internal/domain"

type hintRef struct {
	quizID     string
	questionID int
}

// registry is the state container shared by the engine components. It is not
// safe for concurrent use; Engine serializes access.
type registry struct {
	order   []string
	quizzes map[string]*domain.Quiz
	states  map[string]*domain.QuizState
	hints   map[hintRef]*domain.HintState
	pending []domain.PendingUnlock
}

func newRegistry() *registry {
	return &registry{
		quizzes: make(map[string]*domain.Quiz),
		states:  make(map[string]*domain.QuizState),
		hints:   make(map[hintRef]*domain.HintState),
	}
}

func (r *registry) add(q domain.Quiz) {
	quiz := q
	r.order = append(r.order, quiz.ID)
	r.quizzes[quiz.ID] = &quiz
	r.resetQuiz(&quiz)
}

// resetQuiz re-creates the runtime state of a quiz from its definition.
func (r *registry) resetQuiz(q *domain.Quiz) {
	state := newQuizState(*q)
	r.states[q.ID] = &state
	for _, question := range q.Questions {
		r.hints[hintRef{q.ID, question.ID}] = newHintState()
	}
}

func (r *registry) lookup(quizID string, questionID int) (*domain.Quiz, domain.Question, error) {
	quiz, ok := r.quizzes[quizID]
	if !ok {
		return nil, domain.Question{}, domain.QuizNotFound(quizID)
	}
	question, ok := quiz.Question(questionID)
	if !ok {
		return nil, domain.Question{}, domain.QuestionNotFound(quizID, questionID)
	}
	return quiz, question, nil
}

func (r *registry) hintState(quizID string, questionID int) *domain.HintState {
	ref := hintRef{quizID, questionID}
	st, ok := r.hints[ref]
	if !ok {
		st = newHintState()
		r.hints[ref] = st
	}
	return st
}

func (r *registry) unlockRecorded(quizID string) bool {
	for _, p := range r.pending {
		if p.QuizID == quizID {
			return true
		}
	}
	return false
}

func newQuizState(q domain.Quiz) domain.QuizState {
	state := domain.QuizState{
		QuizID:    q.ID,
		Questions: make([]domain.QuestionState, len(q.Questions)),
	}
	for i, question := range q.Questions {
		status := domain.StatusInactive
		if q.Mode == domain.ModeAllUnlocked || i < q.InitialUnlockedQuestions {
			status = domain.StatusActive
		}
		state.Questions[i] = domain.QuestionState{ID: question.ID, Status: status}
	}
	return state
}

func newHintState() *domain.HintState {
	return &domain.HintState{UsedHints: []string{}, AutoFreeHintsUsed: []string{}}
}
