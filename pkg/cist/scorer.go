package cist

import (
	"context"
	"strings"
)

// AnswerScorer grades a user's answer to a screening question. Real
// clinical scoring lives outside this service; callers inject an
// implementation.
type AnswerScorer interface {
	Score(ctx context.Context, category Category, question, answer string) (float64, error)
}

// StubScorer is the placeholder grader used until a real scoring backend
// is wired. An empty answer scores zero, a minimal answer scores half the
// category maximum, anything substantive scores full. Rand, when set,
// perturbs the substantive case for exercising score paths in tests.
type StubScorer struct {
	Rand func() float64
}

func NewStubScorer() *StubScorer {
	return &StubScorer{}
}

func (s *StubScorer) Score(_ context.Context, category Category, _ string, answer string) (float64, error) {
	max := MaxScores[category]
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0, nil
	}
	if len([]rune(trimmed)) < 3 {
		return max / 2, nil
	}
	if s.Rand != nil && s.Rand() < 0.2 {
		return max / 2, nil
	}
	return max, nil
}
