package app

import (
	"context"
	"sync"
	"time"

	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/matching"
	"quiz-progression-service/internal/platform/logger"
)

// Engine is the quiz progression core. It owns one explicit state container
// (quizzes, quiz states, hint states, ledger, pending unlocks); independent
// engines share nothing.
//
// Every operation applies its in-memory transition atomically under mu, then
// persists the touched blobs and publishes events after the fact.
type Engine struct {
	mu sync.Mutex
	// writes hands out commit tickets under mu so batches land in commit order
	// without holding mu during store I/O.
	writes *writeSequencer

	reg     *registry
	ledger  *PointsLedger
	hints   *HintEngine
	unlocks *UnlockEvaluator
	bus     *EventBus

	store StateStore
	log   *logger.Logger
	now   func() time.Time

	startingGrant int
	correctReward int
	saveAttempts  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock is mostly useful for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStartingGrant sets the points a fresh ledger starts with.
func WithStartingGrant(points int) Option {
	return func(e *Engine) { e.startingGrant = points }
}

// WithCorrectReward sets the points earned per solved question; 0 disables rewards.
func WithCorrectReward(points int) Option {
	return func(e *Engine) { e.correctReward = points }
}

// WithSaveAttempts sets how often each state write is tried before giving up.
func WithSaveAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.saveAttempts = n
		}
	}
}

// NewEngine builds an engine persisting to store. Register quizzes, then call
// Restore before serving.
func NewEngine(store StateStore, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		log:           logger.Nop(),
		now:           time.Now,
		startingGrant: 50,
		correctReward: 10,
		saveAttempts:  3,
		bus:           NewEventBus(),
		writes:        newWriteSequencer(),
		reg:           newRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ledger = NewPointsLedger(e.startingGrant, e.now)
	e.hints = newHintEngine(e.reg, e.ledger)
	e.unlocks = newUnlockEvaluator(e.reg, e.now)
	return e
}

// OnStateChanged registers a listener for committed events.
func (e *Engine) OnStateChanged(fn Listener) func() {
	return e.bus.OnStateChanged(fn)
}

// Subscribe returns a channel of committed events and its cancel function.
func (e *Engine) Subscribe(buffer int) (<-chan domain.Event, func()) {
	return e.bus.Subscribe(buffer)
}

// commit must be called with mu held; it releases mu, persists b and publishes events.
// Other operations run while b is written; writes of later commits wait their turn.
func (e *Engine) commit(ctx context.Context, b batch, events []domain.Event) {
	ticket := e.writes.ticket()
	e.mu.Unlock()
	e.writes.wait(ticket)
	_ = e.flush(ctx, b)
	e.writes.done()
	e.bus.publish(events...)
}

// Restore loads persisted state for every registered quiz. Missing blobs keep
// their fresh defaults; a missing ledger is created with the starting grant.
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()

	var b batch
	var points domain.Points
	found, err := loadJSON(ctx, e.store, ledgerKey, &points)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if found {
		e.ledger.replace(points)
	} else if err := b.put(ledgerKey, e.ledger.Snapshot()); err != nil {
		e.mu.Unlock()
		return err
	}

	var pending []domain.PendingUnlock
	if _, err := loadJSON(ctx, e.store, unlocksKey, &pending); err != nil {
		e.mu.Unlock()
		return err
	}
	e.reg.pending = pending

	for _, id := range e.reg.order {
		quiz := e.reg.quizzes[id]
		if e.reg.unlockRecorded(id) {
			quiz.InitiallyLocked = false
		}
		if err := e.restoreQuiz(ctx, quiz); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	events, err := e.scanUnlocks(&b)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.log.Info("state restored", "quizzes", len(e.reg.order), "balance", e.ledger.Balance())
	e.commit(ctx, b, events)
	return nil
}

func (e *Engine) restoreQuiz(ctx context.Context, quiz *domain.Quiz) error {
	var state domain.QuizState
	found, err := loadJSON(ctx, e.store, quizStateKey(quiz.ID), &state)
	if err != nil {
		return err
	}
	if found {
		if reconciled, ok := reconcile(*quiz, state); ok {
			e.reg.states[quiz.ID] = &reconciled
		} else {
			e.log.Warn("stored quiz state does not match quiz content; starting fresh", "quiz", quiz.ID)
		}
	}
	for _, question := range quiz.Questions {
		var hs domain.HintState
		found, err := loadJSON(ctx, e.store, hintStateKey(quiz.ID, question.ID), &hs)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if hs.UsedHints == nil {
			hs.UsedHints = []string{}
		}
		if hs.AutoFreeHintsUsed == nil {
			hs.AutoFreeHintsUsed = []string{}
		}
		e.reg.hints[hintRef{quiz.ID, question.ID}] = &hs
	}
	return nil
}

// reconcile accepts a stored state only if it covers the same questions in the
// same order, and recomputes the solved counter from the statuses.
func reconcile(quiz domain.Quiz, state domain.QuizState) (domain.QuizState, bool) {
	if len(state.Questions) != len(quiz.Questions) {
		return domain.QuizState{}, false
	}
	solved := 0
	for i, qs := range state.Questions {
		if qs.ID != quiz.Questions[i].ID {
			return domain.QuizState{}, false
		}
		switch qs.Status {
		case domain.StatusSolved:
			solved++
		case domain.StatusActive, domain.StatusInactive:
		default:
			return domain.QuizState{}, false
		}
	}
	state.QuizID = quiz.ID
	state.CompletedQuestions = solved
	return state, true
}

// SubmitAnswer checks an answer and advances the quiz.
//
// A wrong answer is a normal result, not an error. Submissions to an already
// solved question are no-ops: nothing is awarded or counted again.
func (e *Engine) SubmitAnswer(ctx context.Context, quizID string, questionID int, answer string) (domain.AnswerResult, error) {
	e.mu.Lock()

	quiz, question, err := e.reg.lookup(quizID, questionID)
	if err != nil {
		e.mu.Unlock()
		return domain.AnswerResult{}, err
	}
	if quiz.InitiallyLocked {
		e.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrQuizLocked
	}
	state := e.reg.states[quizID]
	status, _ := state.Status(questionID)

	result := domain.AnswerResult{QuizID: quizID, QuestionID: questionID}
	correct := matching.IsCorrect(answer, question.Answer, question.AlternativeAnswers...)

	switch status {
	case domain.StatusSolved:
		result.IsCorrect = correct
		result.AlreadySolved = true
		result.CompletedQuiz = state.Completed()
		e.mu.Unlock()
		return result, nil
	case domain.StatusInactive:
		e.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrQuestionNotActive
	}

	var b batch
	var events []domain.Event
	if correct {
		events, err = e.solveLocked(quiz, state, questionID, &result, &b)
	} else {
		events, err = e.missLocked(quiz, question, answer, &result, &b)
	}
	if err != nil {
		e.mu.Unlock()
		return domain.AnswerResult{}, err
	}
	e.commit(ctx, b, events)
	return result, nil
}

func (e *Engine) solveLocked(quiz *domain.Quiz, state *domain.QuizState, questionID int, result *domain.AnswerResult, b *batch) ([]domain.Event, error) {
	at := e.now()
	setStatus(state, questionID, domain.StatusSolved)
	state.CompletedQuestions++
	if quiz.Mode == domain.ModeSequential {
		activateNext(state)
	}

	events := []domain.Event{{Type: domain.EventQuestionSolved, QuizID: quiz.ID, QuestionID: questionID, At: at}}

	if e.correctReward > 0 {
		if _, err := e.ledger.Earn(e.correctReward, reasonCorrectAnswer, domain.TransactionRefs{QuizID: quiz.ID, QuestionID: questionID}); err != nil {
			return nil, err
		}
		result.Awarded = e.correctReward
		events = append(events, domain.Event{Type: domain.EventPointsChanged, Balance: e.ledger.Balance(), At: at})
		if err := b.put(ledgerKey, e.ledger.Snapshot()); err != nil {
			return nil, err
		}
	}

	result.IsCorrect = true
	result.CompletedQuiz = state.CompletedQuestions == len(quiz.Questions)
	if result.CompletedQuiz {
		events = append(events, domain.Event{Type: domain.EventQuizCompleted, QuizID: quiz.ID, At: at})
	}
	if err := b.put(quizStateKey(quiz.ID), state); err != nil {
		return nil, err
	}

	unlockEvents, err := e.scanUnlocks(b)
	if err != nil {
		return nil, err
	}
	for _, ev := range unlockEvents {
		result.Unlocked = append(result.Unlocked, ev.QuizID)
	}
	return append(events, unlockEvents...), nil
}

func (e *Engine) missLocked(quiz *domain.Quiz, question domain.Question, answer string, result *domain.AnswerResult, b *batch) ([]domain.Event, error) {
	hs := e.reg.hintState(quiz.ID, question.ID)
	hs.WrongAttempts++

	var events []domain.Event
	if hint := e.hints.evaluateTriggers(quiz.ID, question, answer); hint != nil {
		result.RevealedHint = hint
		events = append(events, domain.Event{Type: domain.EventHintRevealed, QuizID: quiz.ID, QuestionID: question.ID, Hint: hint, At: e.now()})
	}
	if err := b.put(hintStateKey(quiz.ID, question.ID), hs); err != nil {
		return nil, err
	}
	return events, nil
}

// scanUnlocks runs the unlock evaluator and stages the pending-unlock blob.
func (e *Engine) scanUnlocks(b *batch) ([]domain.Event, error) {
	unlocked := e.unlocks.scan()
	if len(unlocked) == 0 {
		return nil, nil
	}
	events := make([]domain.Event, 0, len(unlocked))
	for _, quiz := range unlocked {
		snapshot := *quiz
		e.log.Info("quiz unlocked", "quiz", quiz.ID)
		events = append(events, domain.Event{Type: domain.EventQuizUnlocked, QuizID: quiz.ID, Quiz: &snapshot, At: e.now()})
	}
	if err := b.put(unlocksKey, e.reg.pending); err != nil {
		return nil, err
	}
	return events, nil
}

func setStatus(state *domain.QuizState, questionID int, status domain.QuestionStatus) {
	for i := range state.Questions {
		if state.Questions[i].ID == questionID {
			state.Questions[i].Status = status
			return
		}
	}
}

// activateNext activates the lowest-id inactive question, if any.
func activateNext(state *domain.QuizState) {
	next := -1
	for i, qs := range state.Questions {
		if qs.Status != domain.StatusInactive {
			continue
		}
		if next < 0 || qs.ID < state.Questions[next].ID {
			next = i
		}
	}
	if next >= 0 {
		state.Questions[next].Status = domain.StatusActive
	}
}

// UseHint reveals a hint, charging its cost. Hint failures are *domain.HintError;
// hints of a locked quiz or an inactive question fail like SubmitAnswer does.
func (e *Engine) UseHint(ctx context.Context, quizID string, questionID int, hintID string) (domain.HintUse, error) {
	e.mu.Lock()

	quiz, question, err := e.reg.lookup(quizID, questionID)
	if err != nil {
		e.mu.Unlock()
		return domain.HintUse{}, err
	}
	if quiz.InitiallyLocked {
		e.mu.Unlock()
		return domain.HintUse{}, domain.ErrQuizLocked
	}
	if status, _ := e.reg.states[quizID].Status(questionID); status == domain.StatusInactive {
		e.mu.Unlock()
		return domain.HintUse{}, domain.ErrQuestionNotActive
	}
	use, hint, err := e.hints.use(quiz.ID, question, hintID)
	if err != nil {
		e.mu.Unlock()
		return domain.HintUse{}, err
	}

	var b batch
	at := e.now()
	events := []domain.Event{{Type: domain.EventHintRevealed, QuizID: quiz.ID, QuestionID: questionID, Hint: &hint, At: at}}
	if err := b.put(hintStateKey(quiz.ID, questionID), e.reg.hintState(quiz.ID, questionID)); err != nil {
		e.mu.Unlock()
		return domain.HintUse{}, err
	}
	if use.PointsDeducted > 0 {
		events = append(events, domain.Event{Type: domain.EventPointsChanged, Balance: use.Balance, At: at})
		if err := b.put(ledgerKey, e.ledger.Snapshot()); err != nil {
			e.mu.Unlock()
			return domain.HintUse{}, err
		}
	}
	e.commit(ctx, b, events)
	return use, nil
}

// AvailableHints lists every hint of a question with whether it can be used now.
func (e *Engine) AvailableHints(quizID string, questionID int) ([]domain.HintAvailability, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	quiz, question, err := e.reg.lookup(quizID, questionID)
	if err != nil {
		return nil, err
	}
	return e.hints.available(quiz.ID, question), nil
}

// UnlockStatus reports a quiz's unlock condition and how close it is to being met.
func (e *Engine) UnlockStatus(quizID string) (domain.UnlockStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	quiz, ok := e.reg.quizzes[quizID]
	if !ok {
		return domain.UnlockStatus{}, domain.QuizNotFound(quizID)
	}
	return e.unlocks.status(quiz), nil
}

// ResetQuiz re-creates the quiz state and the quiz's hint states from scratch.
// Points and unlocks are kept.
func (e *Engine) ResetQuiz(ctx context.Context, quizID string) (domain.QuizState, error) {
	e.mu.Lock()

	quiz, ok := e.reg.quizzes[quizID]
	if !ok {
		e.mu.Unlock()
		return domain.QuizState{}, domain.QuizNotFound(quizID)
	}
	e.reg.resetQuiz(quiz)
	state := e.reg.states[quizID].Clone()

	var b batch
	if err := b.put(quizStateKey(quizID), state); err != nil {
		e.mu.Unlock()
		return domain.QuizState{}, err
	}
	for _, question := range quiz.Questions {
		b.del(hintStateKey(quizID, question.ID))
	}
	e.commit(ctx, b, []domain.Event{{Type: domain.EventQuizReset, QuizID: quizID, At: e.now()}})
	return state, nil
}

// Quiz returns a registered quiz, including its current lock flag.
func (e *Engine) Quiz(quizID string) (domain.Quiz, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	quiz, ok := e.reg.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.QuizNotFound(quizID)
	}
	return *quiz, nil
}

// Quizzes returns all quizzes in registration order.
func (e *Engine) Quizzes() []domain.Quiz {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Quiz, 0, len(e.reg.order))
	for _, id := range e.reg.order {
		out = append(out, *e.reg.quizzes[id])
	}
	return out
}

// QuizState returns a copy of the quiz's progression state.
func (e *Engine) QuizState(quizID string) (domain.QuizState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.reg.states[quizID]
	if !ok {
		return domain.QuizState{}, domain.QuizNotFound(quizID)
	}
	return state.Clone(), nil
}

// HintState returns a copy of the hint usage of one question.
func (e *Engine) HintState(quizID string, questionID int) (domain.HintState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.reg.lookup(quizID, questionID); err != nil {
		return domain.HintState{}, err
	}
	return e.reg.hintState(quizID, questionID).Clone(), nil
}

// Points returns a snapshot of the ledger.
func (e *Engine) Points() domain.Points {
	return e.ledger.Snapshot()
}

// PendingUnlocks returns unlock notifications not yet shown.
func (e *Engine) PendingUnlocks() []domain.PendingUnlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.PendingUnlock
	for _, p := range e.reg.pending {
		if !p.Shown {
			out = append(out, p)
		}
	}
	return out
}

// MarkUnlockShown consumes the unlock notification of a quiz.
func (e *Engine) MarkUnlockShown(ctx context.Context, quizID string) error {
	e.mu.Lock()
	idx := -1
	for i := range e.reg.pending {
		if e.reg.pending[i].QuizID == quizID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return domain.UnlockNotFound(quizID)
	}
	e.reg.pending[idx].Shown = true

	var b batch
	if err := b.put(unlocksKey, e.reg.pending); err != nil {
		e.mu.Unlock()
		return err
	}
	e.commit(ctx, b, nil)
	return nil
}
