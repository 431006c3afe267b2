// Package title hosts the title refinement collaborator used before prompt
// building and by the title endpoints.
package title

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Refiner polishes an episode title and proposes alternatives.
type Refiner interface {
	Refine(ctx context.Context, original string) (string, error)
	Suggest(ctx context.Context, blurb string) ([]string, error)
}

// StaticRefiner performs a local, deterministic refinement. It serves as both
// the offline default and the fallback behind the OpenAI refiner.
type StaticRefiner struct{}

// NewStaticRefiner creates the offline refiner.
func NewStaticRefiner() *StaticRefiner {
	return &StaticRefiner{}
}

// Refine title-cases each word and keeps the title otherwise intact.
func (s *StaticRefiner) Refine(ctx context.Context, original string) (string, error) {
	trimmed := strings.TrimSpace(original)
	if trimmed == "" {
		return original, nil
	}
	c := cases.Title(language.Und, cases.NoLower)
	return c.String(trimmed), nil
}

// Suggest returns canned suggestions so the endpoint never dead-ends.
func (s *StaticRefiner) Suggest(ctx context.Context, blurb string) ([]string, error) {
	base, err := s.Refine(ctx, blurb)
	if err != nil || strings.TrimSpace(base) == "" {
		return defaultSuggestions(), nil
	}
	words := strings.Fields(base)
	if len(words) > 6 {
		base = strings.Join(words[:6], " ")
	}
	return []string{
		base,
		"Inside " + base,
		base + ": The Conversation",
	}, nil
}

func defaultSuggestions() []string {
	return []string{"Episode Title 1", "Episode Title 2", "Episode Title 3"}
}

var _ Refiner = (*StaticRefiner)(nil)
