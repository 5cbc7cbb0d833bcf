package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"quiz-progression-service/internal/domain"
)

// StateStore persists opaque state blobs by key (in-memory, Redis, Postgres, etc).
// Load returns domain.ErrStateNotFound for unknown keys.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

const (
	ledgerKey  = "ledger"
	unlocksKey = "unlocks"
)

func quizStateKey(quizID string) string {
	return "quiz:" + quizID + ":state"
}

func hintStateKey(quizID string, questionID int) string {
	return "quiz:" + quizID + ":hints:" + strconv.Itoa(questionID)
}

// write is one pending persistence step captured at commit time.
type write struct {
	key    string
	value  []byte
	remove bool
}

type batch []write

func (b *batch) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	*b = append(*b, write{key: key, value: raw})
	return nil
}

func (b *batch) del(key string) {
	*b = append(*b, write{key: key, remove: true})
}

// writeSequencer serialises batch writes in ticket order.
type writeSequencer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func newWriteSequencer() *writeSequencer {
	s := &writeSequencer{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *writeSequencer) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next++
	return t
}

func (s *writeSequencer) wait(ticket uint64) {
	s.mu.Lock()
	for s.serving != ticket {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *writeSequencer) done() {
	s.mu.Lock()
	s.serving++
	s.cond.Broadcast()
	s.mu.Unlock()
}

// flush applies the batch concurrently. Each write is retried up to attempts
// times; failures are logged and returned but never undo in-memory state.
func (e *Engine) flush(ctx context.Context, b batch) error {
	if len(b) == 0 {
		return nil
	}
	// A plain group: one failing key must not cancel the others.
	var g errgroup.Group
	for _, w := range b {
		w := w
		g.Go(func() error {
			var err error
			for attempt := 1; attempt <= e.saveAttempts; attempt++ {
				if w.remove {
					err = e.store.Remove(ctx, w.key)
				} else {
					err = e.store.Save(ctx, w.key, w.value)
				}
				if err == nil {
					return nil
				}
				e.log.Warn("state write failed", "key", w.key, "attempt", attempt, "error", err)
				if ctx.Err() != nil {
					break
				}
			}
			return fmt.Errorf("persist %s: %w", w.key, err)
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Error("state not persisted; in-memory state kept", "error", err)
		return err
	}
	return nil
}

func loadJSON(ctx context.Context, store StateStore, key string, dst any) (bool, error) {
	raw, err := store.Load(ctx, key)
	if errors.Is(err, domain.ErrStateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
