package app

import (
	"errors"
	"sort"
	"strconv"

	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/matching"
)

// HintEngine decides which hints are revealable and applies reveals.
type HintEngine struct {
	reg    *registry
	ledger *PointsLedger
}

func newHintEngine(reg *registry, ledger *PointsLedger) *HintEngine {
	return &HintEngine{reg: reg, ledger: ledger}
}

// standardHints derives the generated hints from the canonical answer.
func standardHints(q domain.Question) []domain.Hint {
	letters := []rune(q.Answer)
	first := ""
	if len(letters) > 0 {
		first = string(letters[0])
	}
	return []domain.Hint{
		{ID: domain.LetterCountHintID, Kind: domain.HintStandard, Content: strconv.Itoa(len(letters)), Cost: domain.LetterCountHintCost},
		{ID: domain.FirstLetterHintID, Kind: domain.HintStandard, Content: first, Cost: domain.FirstLetterHintCost},
	}
}

func customHint(h domain.CustomHint) domain.Hint {
	return domain.Hint{ID: h.ID, Kind: domain.HintCustom, Content: h.Content, Cost: h.Cost}
}

func contextualHint(h domain.ContextualHint) domain.Hint {
	return domain.Hint{ID: h.ID, Kind: domain.HintContextual, Content: h.Content, Triggers: h.Triggers}
}

func autoFreeHint(h domain.AutoFreeHint) domain.Hint {
	return domain.Hint{ID: h.ID, Kind: domain.HintAutoFree, Content: h.Content, TriggerAfterAttempts: h.TriggerAfterAttempts}
}

// autoFreeByThreshold returns auto-free hints ordered by ascending threshold,
// keeping configuration order among equal thresholds.
func autoFreeByThreshold(q domain.Question) []domain.AutoFreeHint {
	out := append([]domain.AutoFreeHint(nil), q.AutoFreeHints...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TriggerAfterAttempts < out[j].TriggerAfterAttempts
	})
	return out
}

// allHints lists every hint of a question: custom, standard, auto-free, contextual.
func allHints(q domain.Question) []domain.Hint {
	hints := make([]domain.Hint, 0, len(q.CustomHints)+2+len(q.AutoFreeHints)+len(q.ContextualHints))
	for _, h := range q.CustomHints {
		hints = append(hints, customHint(h))
	}
	hints = append(hints, standardHints(q)...)
	for _, h := range autoFreeByThreshold(q) {
		hints = append(hints, autoFreeHint(h))
	}
	for _, h := range q.ContextualHints {
		hints = append(hints, contextualHint(h))
	}
	return hints
}

func findHint(q domain.Question, hintID string) (domain.Hint, bool) {
	for _, h := range allHints(q) {
		if h.ID == hintID {
			return h, true
		}
	}
	return domain.Hint{}, false
}

func markUsed(st *domain.HintState, h domain.Hint) {
	st.UsedHints = append(st.UsedHints, h.ID)
	if h.Kind == domain.HintAutoFree {
		st.AutoFreeHintsUsed = append(st.AutoFreeHintsUsed, h.ID)
	}
}

// evaluateTriggers runs after a wrong answer has been counted. A matching
// unused contextual hint wins; otherwise the lowest-threshold auto-free hint
// that is due and unused is revealed. At most one hint is revealed.
func (h *HintEngine) evaluateTriggers(quizID string, q domain.Question, wrongAnswer string) *domain.Hint {
	st := h.reg.hintState(quizID, q.ID)

	for _, ch := range q.ContextualHints {
		if st.Used(ch.ID) {
			continue
		}
		for _, trigger := range ch.Triggers {
			if matching.Equivalent(wrongAnswer, trigger) {
				hint := contextualHint(ch)
				markUsed(st, hint)
				return &hint
			}
		}
	}

	for _, af := range autoFreeByThreshold(q) {
		if af.TriggerAfterAttempts <= st.WrongAttempts && !st.Used(af.ID) {
			hint := autoFreeHint(af)
			markUsed(st, hint)
			return &hint
		}
	}
	return nil
}

// use reveals a hint, charging its cost when it has one.
func (h *HintEngine) use(quizID string, q domain.Question, hintID string) (domain.HintUse, domain.Hint, error) {
	hint, ok := findHint(q, hintID)
	if !ok {
		return domain.HintUse{}, domain.Hint{}, &domain.HintError{HintID: hintID, Reason: domain.HintNotFound}
	}
	st := h.reg.hintState(quizID, q.ID)
	if reason, ok := h.blocked(hint, st); !ok {
		return domain.HintUse{}, hint, &domain.HintError{HintID: hintID, Reason: reason}
	}

	if hint.Kind == domain.HintAutoFree && st.Used(hint.ID) {
		// Re-entrant: an auto-revealed hint can be shown again for free.
		return domain.HintUse{HintID: hint.ID, Content: hint.Content, Balance: h.ledger.Balance()}, hint, nil
	}

	if hint.Cost > 0 {
		_, err := h.ledger.Spend(hint.Cost, "Hint: "+hint.ID, domain.TransactionRefs{
			QuizID:     quizID,
			QuestionID: q.ID,
			HintID:     hint.ID,
		})
		if errors.Is(err, domain.ErrInsufficientPoints) {
			return domain.HintUse{}, hint, &domain.HintError{HintID: hintID, Reason: domain.HintInsufficientFunds}
		}
		if err != nil {
			return domain.HintUse{}, hint, err
		}
	}
	markUsed(st, hint)

	return domain.HintUse{
		HintID:         hint.ID,
		Content:        hint.Content,
		PointsDeducted: hint.Cost,
		Balance:        h.ledger.Balance(),
	}, hint, nil
}

// blocked reports whether a hint can be used now, with the reason when it
// cannot. Auto-free hints are free and re-entrant, so only their threshold
// matters.
func (h *HintEngine) blocked(hint domain.Hint, st *domain.HintState) (domain.HintReason, bool) {
	if hint.Kind == domain.HintAutoFree {
		if st.WrongAttempts < hint.TriggerAfterAttempts {
			return domain.HintThresholdNotMet, false
		}
		return "", true
	}
	if st.Used(hint.ID) {
		return domain.HintAlreadyUsed, false
	}
	if hint.Cost > 0 && h.ledger.Balance() < hint.Cost {
		return domain.HintInsufficientFunds, false
	}
	return "", true
}

func (h *HintEngine) available(quizID string, q domain.Question) []domain.HintAvailability {
	st := h.reg.hintState(quizID, q.ID)
	hints := allHints(q)
	out := make([]domain.HintAvailability, 0, len(hints))
	for _, hint := range hints {
		reason, ok := h.blocked(hint, st)
		out = append(out, domain.HintAvailability{Hint: hint, CanUse: ok, Reason: string(reason)})
	}
	return out
}
