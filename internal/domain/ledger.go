package domain

import "time"

// TransactionType distinguishes ledger credits from debits.
type TransactionType string

const (
	TransactionEarned TransactionType = "earned"
	TransactionSpent  TransactionType = "spent"
)

// TransactionRefs optionally links a transaction to the content that caused it.
type TransactionRefs struct {
	QuizID     string `json:"quizId,omitempty"`
	QuestionID int    `json:"questionId,omitempty"`
	HintID     string `json:"hintId,omitempty"`
}

// Transaction is one immutable ledger entry.
type Transaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	Amount    int             `json:"amount"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
	TransactionRefs
}

// Points is a snapshot of the points ledger.
// TotalPoints always equals EarnedPoints - SpentPoints.
type Points struct {
	TotalPoints  int           `json:"totalPoints"`
	EarnedPoints int           `json:"earnedPoints"`
	SpentPoints  int           `json:"spentPoints"`
	History      []Transaction `json:"pointsHistory"`
}
