// Package budget provides token budget estimation and history trimming for
// dialogue turn prompts. Because the engine supports multiple LLM backends
// with different tokenizers, it uses a conservative character-based
// heuristic: 1 token ≈ 4 characters of English prose. This deliberately
// under-estimates so prompts keep headroom for model-specific overhead.
package budget

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default per-turn prompt budget in
	// tokens. Conservative enough for 8k-context models while leaving room
	// for the generated turn.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimHistory drops the oldest history lines until the estimated token count
// of fixed plus the remaining lines fits within maxTokens. fixed is the
// prompt text that must not be trimmed (persona, retrieval context,
// instructions); history holds prior transcript lines, oldest first.
//
// If even an empty history exceeds the budget the empty slice is returned —
// the fixed prompt is never trimmed here.
func TrimHistory(fixed string, history []string, maxTokens int) []string {
	if len(history) == 0 {
		return history
	}

	fixedTokens := Estimate(fixed)

	total := fixedTokens
	for _, line := range history {
		total += Estimate(line) + 1 // +1 for the joining newline
	}

	// History is short (the synthesizer windows it first); a linear scan
	// dropping oldest lines is clear and correct.
	for len(history) > 0 && total > maxTokens {
		total -= Estimate(history[0]) + 1
		history = history[1:]
	}
	return history
}
