package matching

// IsCorrect reports whether userAnswer matches correctAnswer or one of the
// alternatives. Empty answers never match.
//
// Alternatives are compared against the user's answer, not against the
// canonical answer.
func IsCorrect(userAnswer, correctAnswer string, alternatives ...string) bool {
	if userAnswer == "" || correctAnswer == "" {
		return false
	}
	if Equivalent(userAnswer, correctAnswer) {
		return true
	}
	for _, alt := range alternatives {
		if Equivalent(alt, userAnswer) {
			return true
		}
	}
	return false
}

// Equivalent compares two strings by normalized form, then by non-empty
// phonetic code.
func Equivalent(a, b string) bool {
	if Normalize(a) == Normalize(b) {
		return true
	}
	ca := Encode(a)
	return ca != "" && ca == Encode(b)
}
