package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"chatbot_erp/internal/nlp"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CompiledVariation is a variation with its normalized, token-sorted form.
type CompiledVariation struct {
	entities.Variation
	Key string
}

// CatalogSnapshot is immutable once built.
type CatalogSnapshot struct {
	Intents    map[int64]*entities.Intent
	Variations []CompiledVariation
}

// IntentCatalog caches intents and their variations. Intent kinds and reply
// templates are settled here, once per load.
type IntentCatalog struct {
	store            interfaces.IntentStore
	normalizer       interfaces.TextNormalizer
	orderStatusTitle string
	ttl              time.Duration
	log              *logger.Logger
	metrics          *metrics.Metrics
	now              func() time.Time

	mu       sync.RWMutex
	snap     *CatalogSnapshot
	loadedAt time.Time
}

func NewIntentCatalog(store interfaces.IntentStore, normalizer interfaces.TextNormalizer, orderStatusTitle string, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *IntentCatalog {
	return &IntentCatalog{
		store:            store,
		normalizer:       normalizer,
		orderStatusTitle: strings.TrimSpace(orderStatusTitle),
		ttl:              ttl,
		log:              log.WithModule("intent_catalog"),
		metrics:          m,
		now:              time.Now,
	}
}

// Snapshot returns the current catalog, reloading it when stale. If a reload
// fails and an older snapshot exists, the older one is served.
func (c *IntentCatalog) Snapshot(ctx context.Context) (*CatalogSnapshot, error) {
	c.mu.RLock()
	snap, fresh := c.snap, c.fresh()
	c.mu.RUnlock()
	if snap != nil && fresh {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && c.fresh() {
		return c.snap, nil
	}

	loaded, err := c.load(ctx)
	if err != nil {
		c.metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		if c.snap != nil {
			c.log.WithError(err).Warn("Intent catalog reload failed, serving previous snapshot")
			return c.snap, nil
		}
		return nil, err
	}
	c.metrics.CatalogReloadsTotal.WithLabelValues("success").Inc()
	c.snap = loaded
	c.loadedAt = c.now()
	c.log.Info("Intent catalog loaded", "intents", len(loaded.Intents), "variations", len(loaded.Variations))
	return loaded, nil
}

func (c *IntentCatalog) fresh() bool {
	return !c.loadedAt.IsZero() && c.now().Sub(c.loadedAt) < c.ttl
}

// Invalidate forces the next Snapshot call to reload.
func (c *IntentCatalog) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

// Lookup returns the compiled intent with id, or nil.
func (c *IntentCatalog) Lookup(ctx context.Context, id int64) (*entities.Intent, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Intents[id], nil
}

func (c *IntentCatalog) load(ctx context.Context) (*CatalogSnapshot, error) {
	intents, err := c.store.ListIntents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	variations, err := c.store.ListVariations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}

	snap := &CatalogSnapshot{
		Intents:    make(map[int64]*entities.Intent, len(intents)),
		Variations: make([]CompiledVariation, 0, len(variations)),
	}
	for i := range intents {
		intent := c.compile(intents[i])
		snap.Intents[intent.ID] = &intent
	}

	for _, v := range variations {
		if _, ok := snap.Intents[v.IntentID]; !ok {
			continue
		}
		key := nlp.SortedKey(c.normalizer.Tokens(v.Text))
		if key == "" {
			continue
		}
		snap.Variations = append(snap.Variations, CompiledVariation{Variation: v, Key: key})
	}
	return snap, nil
}

func (c *IntentCatalog) compile(intent entities.Intent) entities.Intent {
	kind, err := entities.ParseIntentKind(string(intent.Kind))
	if err != nil {
		c.log.WithError(err).Warn("Treating intent as generic", "intent_id", intent.ID)
		kind = entities.IntentGeneric
	}
	if kind == entities.IntentGeneric && c.orderStatusTitle != "" && strings.EqualFold(strings.TrimSpace(intent.Title), c.orderStatusTitle) {
		kind = entities.IntentOrderStatus
	}
	intent.Kind = kind

	if intent.Template == nil {
		tmpl, warnings := DecodeLegacyTemplate(intent.Response)
		for _, w := range warnings {
			c.log.WithError(w.Err).Warn("Malformed template block", "intent_id", intent.ID, "block", w.Block)
		}
		intent.Template = tmpl
	} else if intent.Template.Raw == "" {
		tmpl := *intent.Template
		tmpl.Raw = intent.Response
		intent.Template = &tmpl
	}
	return intent
}
