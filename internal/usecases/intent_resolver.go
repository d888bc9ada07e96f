package usecases

import (
	"chatbot_erp/internal/entities"
	"context"
)

// ConfidenceThreshold is the lowest fuzzy score accepted as a match.
const ConfidenceThreshold = 60

// FallbackResponse is sent when no intent matches. Analytics keys on this exact text.
const FallbackResponse = "Desculpe, não tenho certeza de como ajudar. Pode reformular?"

type MatchSource string

const (
	MatchExact MatchSource = "exact"
	MatchFuzzy MatchSource = "fuzzy"
	MatchNone  MatchSource = "none"
)

type Resolution struct {
	Intent *entities.Intent
	Score  int
	Source MatchSource
}

func (r Resolution) Matched() bool { return r.Intent != nil }

// IntentResolver tries the exact matcher first and only falls back to fuzzy
// scoring when it misses.
type IntentResolver struct {
	exact     Matcher
	fuzzy     Matcher
	threshold int
}

func NewIntentResolver(exact, fuzzy Matcher) *IntentResolver {
	return &IntentResolver{exact: exact, fuzzy: fuzzy, threshold: ConfidenceThreshold}
}

func (r *IntentResolver) Resolve(ctx context.Context, question string) (Resolution, error) {
	intent, _, err := r.exact.Match(ctx, question)
	if err != nil {
		return Resolution{}, err
	}
	if intent != nil {
		return Resolution{Intent: intent, Score: 100, Source: MatchExact}, nil
	}

	intent, score, err := r.fuzzy.Match(ctx, question)
	if err != nil {
		return Resolution{}, err
	}
	if intent == nil || score < r.threshold {
		return Resolution{Score: score, Source: MatchNone}, nil
	}
	return Resolution{Intent: intent, Score: score, Source: MatchFuzzy}, nil
}
