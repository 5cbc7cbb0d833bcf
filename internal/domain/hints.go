package domain

// HintKind tags the hint variants.
type HintKind string

const (
	HintCustom     HintKind = "custom"
	HintContextual HintKind = "contextual"
	HintAutoFree   HintKind = "auto_free"
	HintStandard   HintKind = "standard"
)

// Standard hints are derived from the answer and never stored.
const (
	LetterCountHintID   = "letter-count"
	FirstLetterHintID   = "first-letter"
	LetterCountHintCost = 5
	FirstLetterHintCost = 10
)

// CustomHint is purchasable for a fixed cost.
type CustomHint struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
	Cost    int    `json:"cost" yaml:"cost"`
}

// ContextualHint is revealed for free when a wrong answer matches one of its triggers.
type ContextualHint struct {
	ID       string   `json:"id" yaml:"id"`
	Content  string   `json:"content" yaml:"content"`
	Triggers []string `json:"triggers" yaml:"triggers"`
}

// AutoFreeHint is revealed for free once enough wrong attempts were made.
type AutoFreeHint struct {
	ID                   string `json:"id" yaml:"id"`
	Content              string `json:"content" yaml:"content"`
	TriggerAfterAttempts int    `json:"triggerAfterAttempts" yaml:"trigger_after_attempts"`
}

// Hint is the uniform view over all hint variants.
type Hint struct {
	ID                   string   `json:"id"`
	Kind                 HintKind `json:"kind"`
	Content              string   `json:"content"`
	Cost                 int      `json:"cost"`
	TriggerAfterAttempts int      `json:"triggerAfterAttempts,omitempty"`
	Triggers             []string `json:"triggers,omitempty"`
}

// HintState tracks per-question hint usage.
type HintState struct {
	WrongAttempts     int      `json:"wrongAttempts"`
	UsedHints         []string `json:"usedHints"`
	AutoFreeHintsUsed []string `json:"autoFreeHintsUsed"`
}

// Used reports whether the hint id was already revealed.
func (s HintState) Used(hintID string) bool {
	for _, id := range s.UsedHints {
		if id == hintID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s HintState) Clone() HintState {
	return HintState{
		WrongAttempts:     s.WrongAttempts,
		UsedHints:         append([]string(nil), s.UsedHints...),
		AutoFreeHintsUsed: append([]string(nil), s.AutoFreeHintsUsed...),
	}
}

// HintAvailability tells the caller whether a hint can be used right now.
type HintAvailability struct {
	Hint   Hint   `json:"hint"`
	CanUse bool   `json:"canUse"`
	Reason string `json:"reason,omitempty"`
}

// HintUse is the outcome of revealing a hint.
type HintUse struct {
	HintID         string `json:"hintId"`
	Content        string `json:"content"`
	PointsDeducted int    `json:"pointsDeducted"`
	Balance        int    `json:"balance"`
}
