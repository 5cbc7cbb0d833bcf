package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-progression-service/internal/domain"
)

const (
	reasonStartingGrant = "Starting points"
	reasonCorrectAnswer = "Correct answer"
)

// PointsLedger is an append-only transaction log with a derived balance.
// Every read-modify-append sequence is serialized by the ledger's own lock.
type PointsLedger struct {
	mu     sync.Mutex
	now    func() time.Time
	points domain.Points
}

// NewPointsLedger creates a ledger seeded with a single starting grant.
func NewPointsLedger(startingGrant int, now func() time.Time) *PointsLedger {
	if now == nil {
		now = time.Now
	}
	l := &PointsLedger{now: now, points: domain.Points{History: []domain.Transaction{}}}
	if startingGrant > 0 {
		l.appendLocked(domain.TransactionEarned, startingGrant, reasonStartingGrant, domain.TransactionRefs{})
	}
	return l
}

// Earn credits amount to the ledger.
func (l *PointsLedger) Earn(amount int, reason string, refs domain.TransactionRefs) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(domain.TransactionEarned, amount, reason, refs), nil
}

// Spend debits amount from the ledger. A spend larger than the balance is
// refused with ErrInsufficientPoints, so the balance never goes negative.
func (l *PointsLedger) Spend(amount int, reason string, refs domain.TransactionRefs) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.points.TotalPoints < amount {
		return domain.Transaction{}, domain.ErrInsufficientPoints
	}
	return l.appendLocked(domain.TransactionSpent, amount, reason, refs), nil
}

// Balance returns the current total.
func (l *PointsLedger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.points.TotalPoints
}

// Snapshot returns a copy of totals and history.
func (l *PointsLedger) Snapshot() domain.Points {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.points
	out.History = append([]domain.Transaction(nil), l.points.History...)
	return out
}

// replace swaps in a persisted ledger. Totals are recomputed from history so a
// tampered blob cannot break TotalPoints = EarnedPoints - SpentPoints.
func (l *PointsLedger) replace(p domain.Points) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rebuilt := domain.Points{History: append([]domain.Transaction{}, p.History...)}
	for _, tx := range rebuilt.History {
		switch tx.Type {
		case domain.TransactionEarned:
			rebuilt.EarnedPoints += tx.Amount
		case domain.TransactionSpent:
			rebuilt.SpentPoints += tx.Amount
		}
	}
	rebuilt.TotalPoints = rebuilt.EarnedPoints - rebuilt.SpentPoints
	l.points = rebuilt
}

func (l *PointsLedger) appendLocked(typ domain.TransactionType, amount int, reason string, refs domain.TransactionRefs) domain.Transaction {
	tx := domain.Transaction{
		ID:              uuid.NewString(),
		Type:            typ,
		Amount:          amount,
		Reason:          reason,
		Timestamp:       l.now(),
		TransactionRefs: refs,
	}
	switch typ {
	case domain.TransactionEarned:
		l.points.EarnedPoints += amount
		l.points.TotalPoints += amount
	case domain.TransactionSpent:
		l.points.SpentPoints += amount
		l.points.TotalPoints -= amount
	}
	l.points.History = append(l.points.History, tx)
	return tx
}
