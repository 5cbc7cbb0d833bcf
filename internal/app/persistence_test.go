package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/infra/memory"
)

func TestRestoreResumesProgress(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	quizzes := []domain.Quiz{
		cityQuiz("a", domain.ModeSequential, 3, 1),
		lockedQuiz("b", domain.UnlockCondition{Type: domain.UnlockProgress, RequiredQuizID: "a", RequiredQuestionsSolved: 1}),
	}

	first := newTestEngine(t, store, quizzes...)
	if _, err := first.SubmitAnswer(ctx, "a", 1, "Berlin"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := first.SubmitAnswer(ctx, "a", 2, "Paris"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := first.UseHint(ctx, "a", 2, domain.LetterCountHintID); err != nil {
		t.Fatalf("use hint: %v", err)
	}

	second := newTestEngine(t, store, quizzes...)

	state, err := second.QuizState("a")
	if err != nil {
		t.Fatalf("quiz state: %v", err)
	}
	if state.CompletedQuestions != 1 || state.Questions[0].Status != domain.StatusSolved || state.Questions[1].Status != domain.StatusActive {
		t.Fatalf("progress not restored: %+v", state)
	}
	points := second.Points()
	if points.TotalPoints != 55 || len(points.History) != 3 {
		t.Fatalf("ledger not restored: %+v", points)
	}
	hs, _ := second.HintState("a", 2)
	if hs.WrongAttempts != 1 || !hs.Used(domain.LetterCountHintID) {
		t.Fatalf("hint state not restored: %+v", hs)
	}
	quiz, _ := second.Quiz("b")
	if quiz.InitiallyLocked {
		t.Fatalf("unlock not restored")
	}
	if len(second.PendingUnlocks()) != 1 {
		t.Fatalf("expected pending unlock restored")
	}
}

func TestRestoreDiscardsMismatchedState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()

	first := newTestEngine(t, store, cityQuiz("a", domain.ModeSequential, 3, 1))
	if _, err := first.SubmitAnswer(ctx, "a", 1, "Berlin"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Same quiz id, different content.
	second := newTestEngine(t, store, cityQuiz("a", domain.ModeSequential, 2, 1))
	state, _ := second.QuizState("a")
	if state.CompletedQuestions != 0 || len(state.Questions) != 2 {
		t.Fatalf("expected fresh state for changed quiz, got %+v", state)
	}
}

type failingStore struct {
	mu     sync.Mutex
	writes int
}

func (s *failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, domain.ErrStateNotFound
}

func (s *failingStore) Save(context.Context, string, []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return errors.New("disk full")
}

func (s *failingStore) Remove(context.Context, string) error {
	return errors.New("disk full")
}

func TestSaveFailureKeepsInMemoryProgress(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	engine := app.NewEngine(store, app.WithSaveAttempts(2))
	if err := engine.RegisterQuizzes(cityQuiz("a", domain.ModeSequential, 2, 1)); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := engine.SubmitAnswer(ctx, "a", 1, "Berlin")
	if err != nil {
		t.Fatalf("save failures must not fail the submission: %v", err)
	}
	if !res.IsCorrect {
		t.Fatalf("expected correct answer")
	}
	state, _ := engine.QuizState("a")
	if state.CompletedQuestions != 1 || engine.Points().TotalPoints != 60 {
		t.Fatalf("in-memory progress lost: %+v", state)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	// ledger + quiz state, two attempts each
	if store.writes != 4 {
		t.Fatalf("expected 4 write attempts, got %d", store.writes)
	}
}

func TestResetRemovesHintBlobs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStateStore()
	quizzes, err := memory.NewStaticCatalog(cityQuiz("a", domain.ModeAllUnlocked, 2, 0)).LoadQuizzes(ctx)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := newTestEngine(t, store, quizzes...)

	if _, err := engine.SubmitAnswer(ctx, "a", 2, "Paris"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !hasKey(store.Keys(), "quiz:a:hints:2") {
		t.Fatalf("expected hint blob, got %v", store.Keys())
	}

	if _, err := engine.ResetQuiz(ctx, "a"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	keys := store.Keys()
	if hasKey(keys, "quiz:a:hints:2") || !hasKey(keys, "quiz:a:state") || !hasKey(keys, "ledger") {
		t.Fatalf("unexpected keys after reset: %v", keys)
	}
}

func hasKey(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}

// gatedStore blocks every Save while a gate is armed.
type gatedStore struct {
	*memory.StateStore
	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (s *gatedStore) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.entered = make(chan struct{}, 1)
}

func (s *gatedStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.mu.Unlock()
	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-gate
	}
	return s.StateStore.Save(ctx, key, value)
}

func TestSlowWritesDoNotBlockOtherOperations(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{StateStore: memory.NewStateStore()}
	engine := newTestEngine(t, store, cityQuiz("a", domain.ModeSequential, 2, 1))
	store.arm()

	firstDone := make(chan error, 1)
	go func() {
		_, err := engine.SubmitAnswer(ctx, "a", 1, "Berlin")
		firstDone <- err
	}()
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first write never started")
	}

	read := make(chan domain.QuizState, 1)
	go func() {
		state, _ := engine.QuizState("a")
		read <- state
	}()
	select {
	case state := <-read:
		if state.CompletedQuestions != 1 {
			t.Fatalf("expected committed solve to be visible, got %+v", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("read blocked behind a pending write")
	}

	secondDone := make(chan error, 1)
	go func() {
		_, err := engine.SubmitAnswer(ctx, "a", 2, "Hamburg")
		secondDone <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for {
		state, _ := engine.QuizState("a")
		if state.CompletedQuestions == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second submission blocked behind a pending write")
		}
		time.Sleep(5 * time.Millisecond)
	}

	store.mu.Lock()
	close(store.gate)
	store.mu.Unlock()
	for _, done := range []chan error{firstDone, secondDone} {
		if err := <-done; err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	raw, err := store.Load(ctx, "quiz:a:state")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	var stored domain.QuizState
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if stored.CompletedQuestions != 2 {
		t.Fatalf("writes landed out of order: %+v", stored)
	}
}
