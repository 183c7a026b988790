package prompts

import "context"

// Fallback wraps a Primary source (typically Remote) with a Local
// generator that tops up any shortfall, so callers never see an error or
// an undersized batch (§4.2, design note in spec.md §9: "the remote
// dependency [must not] leak into the FSM").
type Fallback struct {
	Primary Source
	Local   *TemplateSource
}

func NewFallback(primary Source, local *TemplateSource) *Fallback {
	return &Fallback{Primary: primary, Local: local}
}

func (f *Fallback) GeneratePrompts(ctx context.Context, count int, seen map[string]bool, theme string) ([]string, error) {
	var out []string

	if f.Primary != nil {
		if got, err := f.Primary.GeneratePrompts(ctx, count, seen, theme); err == nil {
			out = got
		}
	}

	if len(out) < count {
		topUp, _ := f.Local.GeneratePrompts(ctx, count-len(out), seen, theme)
		out = append(out, topUp...)
	}

	return out, nil
}

func (f *Fallback) GenerateLastLash(ctx context.Context, seen map[string]bool, theme string) (LastLash, error) {
	if f.Primary != nil {
		if got, err := f.Primary.GenerateLastLash(ctx, seen, theme); err == nil {
			return got, nil
		}
	}
	return f.Local.GenerateLastLash(ctx, seen, theme)
}
