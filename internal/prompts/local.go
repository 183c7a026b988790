package prompts

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// TemplateSource generates prompts by filling blanks in a fixed set of
// templates with words drawn from themed and general fill-word lists. It
// never errors — it is the generator of last resort wrapped by Fallback.
// A single instance is shared by every room, so access to the RNG is
// mutex-guarded.
type TemplateSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewTemplateSource(rng *rand.Rand) *TemplateSource {
	return &TemplateSource{rng: rng}
}

var promptTemplates = []string{
	"The worst possible thing to say during %s is...",
	"My secret talent is %s, but only when %s.",
	"If %s had a theme song, it would be called...",
	"The real reason %s keeps happening is...",
	"You know you've had too much %s when...",
	"The last thing I'd want to hear from %s is...",
	"A terrible name for a %s would be...",
	"The one rule everyone breaks about %s is...",
	"What %s really needs is more...",
	"Nobody tells you that %s actually involves...",
}

var fillWords = []string{
	"a first date", "Monday mornings", "the office holiday party", "a job interview",
	"grandma's cooking", "a long car ride", "a family reunion", "a blind date",
	"a group project", "the DMV", "a wedding toast", "airport security",
	"a yoga class", "a karaoke night", "a first day at a new job", "a dentist visit",
	"a group chat", "a potluck", "a wildlife documentary", "a self-checkout machine",
}

func themedFillWords(theme string) []string {
	if theme == "" {
		return fillWords
	}
	return append([]string{theme}, fillWords...)
}

// GeneratePrompts fills count distinct prompt-template instantiations,
// skipping anything already present in seen, and records its output back
// into seen.
func (s *TemplateSource) GeneratePrompts(_ context.Context, count int, seen map[string]bool, theme string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	words := themedFillWords(theme)
	out := make([]string, 0, count)

	for attempts := 0; len(out) < count && attempts < count*50+200; attempts++ {
		tmpl := promptTemplates[s.rng.Intn(len(promptTemplates))]
		fill1 := words[s.rng.Intn(len(words))]
		fill2 := words[s.rng.Intn(len(words))]

		var text string
		switch countVerbs(tmpl) {
		case 2:
			text = fmt.Sprintf(tmpl, fill1, fill2)
		default:
			text = fmt.Sprintf(tmpl, fill1)
		}

		if seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}

	return out, nil
}

func countVerbs(tmpl string) int {
	n := 0
	for i := 0; i < len(tmpl)-1; i++ {
		if tmpl[i] == '%' && tmpl[i+1] == 's' {
			n++
		}
	}
	return n
}

var flashbackSetups = []string{
	"The lights flickered, the door creaked open, and then...",
	"Everyone froze when they heard the voice say...",
	"Just as the cake was being cut, someone shouted...",
	"The fortune teller looked up from the cards and whispered...",
	"Halfway through the toast, the power went out, and...",
}

const letterPool = "BCDFGHJKLMNPQRSTVWXYZ"

// randomLetters returns n uppercase letters with no two consecutive
// letters identical, per §4.2.
func randomLetters(rng *rand.Rand, n int) []string {
	letters := make([]string, n)
	prev := byte(0)
	for i := 0; i < n; i++ {
		var c byte
		for {
			c = letterPool[rng.Intn(len(letterPool))]
			if c != prev {
				break
			}
		}
		letters[i] = string(c)
		prev = c
	}
	return letters
}

// GenerateLastLash produces one finale descriptor, picking one of the
// three modes at random on each call.
func (s *TemplateSource) GenerateLastLash(_ context.Context, seen map[string]bool, theme string) (LastLash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.rng.Intn(3) {
	case 0:
		text := flashbackSetups[s.rng.Intn(len(flashbackSetups))]
		for attempts := 0; seen[text] && attempts < len(flashbackSetups)*2; attempts++ {
			text = flashbackSetups[s.rng.Intn(len(flashbackSetups))]
		}
		seen[text] = true
		return LastLash{Prompt: text, Mode: Flashback}, nil

	case 1:
		letters := randomLetters(s.rng, 3)
		text := fmt.Sprintf("Write a 3-word phrase starting with %s, %s, %s.", letters[0], letters[1], letters[2])
		seen[text] = true
		return LastLash{
			Prompt:       text,
			Mode:         WordLash,
			Letters:      letters,
			Instructions: "Each word must start with the matching letter, in order.",
		}, nil

	default:
		n := 3 + s.rng.Intn(3) // 3-5
		letters := randomLetters(s.rng, n)
		text := fmt.Sprintf("Invent an acronym for %s using the letters %v.", themeOrDefault(theme), letters)
		seen[text] = true
		return LastLash{
			Prompt:       text,
			Mode:         AcroLash,
			Letters:      letters,
			Instructions: "Each word must start with the matching letter, in order.",
		}, nil
	}
}

func themeOrDefault(theme string) string {
	if theme == "" {
		return "something in this room"
	}
	return theme
}
