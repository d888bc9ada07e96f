package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/nlp"
	"context"
	"fmt"
	"strings"
)

// Matcher finds the intent for a question and the confidence of that match.
type Matcher interface {
	Match(ctx context.Context, question string) (*entities.Intent, int, error)
}

// ExactMatcher looks a question up verbatim, ignoring case and surrounding space.
type ExactMatcher struct {
	store   interfaces.IntentStore
	catalog *IntentCatalog
}

func NewExactMatcher(store interfaces.IntentStore, catalog *IntentCatalog) *ExactMatcher {
	return &ExactMatcher{store: store, catalog: catalog}
}

func (m *ExactMatcher) Match(ctx context.Context, question string) (*entities.Intent, int, error) {
	text := strings.ToLower(strings.TrimSpace(question))
	if text == "" {
		return nil, 0, nil
	}

	id, ok, err := m.store.FindIntentIDByVariation(ctx, text)
	if err != nil {
		return nil, 0, fmt.Errorf("exact lookup: %w", err)
	}
	if !ok {
		return nil, 0, nil
	}

	intent, err := m.catalog.Lookup(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if intent == nil {
		// Added after the last catalog load.
		m.catalog.Invalidate()
		if intent, err = m.catalog.Lookup(ctx, id); err != nil || intent == nil {
			return nil, 0, err
		}
	}
	return intent, 100, nil
}

// FuzzyMatcher scores a question against every known variation.
type FuzzyMatcher struct {
	catalog    *IntentCatalog
	normalizer interfaces.TextNormalizer
}

func NewFuzzyMatcher(catalog *IntentCatalog, normalizer interfaces.TextNormalizer) *FuzzyMatcher {
	return &FuzzyMatcher{catalog: catalog, normalizer: normalizer}
}

// Match returns the best scoring intent. Ties keep the variation seen first.
func (m *FuzzyMatcher) Match(ctx context.Context, question string) (*entities.Intent, int, error) {
	key := nlp.SortedKey(m.normalizer.Tokens(question))
	if key == "" {
		return nil, 0, nil
	}

	snap, err := m.catalog.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	var best *entities.Intent
	bestScore := 0
	for _, v := range snap.Variations {
		if score := nlp.Ratio(key, v.Key); score > bestScore {
			best, bestScore = snap.Intents[v.IntentID], score
		}
	}
	return best, bestScore, nil
}
