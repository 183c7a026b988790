package fsm

import "strings"

// sanitizeAnswer implements the submit-answer storage rule (§4.4): trim,
// truncate to MaxAnswerLength, and substitute the no-answer sentinel for
// an empty result.
func sanitizeAnswer(text string, maxLen int, emptySentinel string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	if trimmed == "" {
		return emptySentinel
	}
	return trimmed
}
