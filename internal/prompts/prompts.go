// Package prompts provides the prompt-source interface consumed by the
// session FSM (§4.2): a template-driven local generator, a pluggable
// remote generator, and a fallback wrapper that makes the combined source
// infallible from the FSM's point of view.
package prompts

import "context"

// Mode selects the finale variant for a generated LastLash descriptor.
type Mode string

const (
	Flashback Mode = "FLASHBACK"
	WordLash  Mode = "WORD_LASH"
	AcroLash  Mode = "ACRO_LASH"
)

// LastLash describes a single finale round: its shared prompt, its mode,
// and (for WORD_LASH/ACRO_LASH) the required starting letters.
type LastLash struct {
	Prompt       string
	Mode         Mode
	Letters      []string
	Instructions string
}

// Source produces prompt text, optionally themed, and a single finale
// descriptor. Implementations must return exactly the requested count of
// distinct strings not present in seen, and must add whatever they return
// into seen so repeat calls within a game never repeat a prompt.
type Source interface {
	GeneratePrompts(ctx context.Context, count int, seen map[string]bool, theme string) ([]string, error)
	GenerateLastLash(ctx context.Context, seen map[string]bool, theme string) (LastLash, error)
}
