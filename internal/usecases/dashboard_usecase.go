package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"context"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultUnansweredLimit = 50
	MaxUnansweredLimit     = 500
)

// NewIntentInput is what an admin submits to create an intent. Either Template
// or Response must carry a reply.
type NewIntentInput struct {
	Title      string                     `json:"title"`
	Kind       string                     `json:"kind"`
	Variations []string                   `json:"variations"`
	Template   *entities.ResponseTemplate `json:"template"`
	Response   string                     `json:"response"`
}

// DashboardUsecase backs the admin API: intent management and unanswered questions.
type DashboardUsecase struct {
	store   interfaces.Store
	catalog *IntentCatalog
}

func NewDashboardUsecase(store interfaces.Store, catalog *IntentCatalog) *DashboardUsecase {
	return &DashboardUsecase{store: store, catalog: catalog}
}

func (u *DashboardUsecase) ListIntents(ctx context.Context) ([]entities.Intent, error) {
	return u.store.ListIntents(ctx)
}

func (u *DashboardUsecase) GetIntent(ctx context.Context, id int64) (*entities.Intent, error) {
	intent, err := u.store.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, ErrNotFound
	}
	return intent, nil
}

func (u *DashboardUsecase) CreateIntent(ctx context.Context, in NewIntentInput) (*entities.Intent, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	kind, err := entities.ParseIntentKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	variations := normalizeVariations(in.Variations)
	if len(variations) == 0 {
		return nil, fmt.Errorf("%w: at least one variation is required", ErrInvalidInput)
	}

	intent := &entities.Intent{Title: title, Kind: kind, Response: in.Response}
	if in.Template != nil {
		tmpl := *in.Template
		tmpl.Variants = SplitVariants(strings.Join(tmpl.Variants, "\n\n"))
		intent.Template = &tmpl
		if intent.Response == "" {
			intent.Response = strings.Join(tmpl.Variants, "\n\n")
		}
	}
	if intent.Template == nil && strings.TrimSpace(intent.Response) == "" && kind == entities.IntentGeneric {
		return nil, fmt.Errorf("%w: a response or template is required", ErrInvalidInput)
	}

	if err := u.store.CreateIntent(ctx, intent, variations); err != nil {
		return nil, fmt.Errorf("create intent: %w", err)
	}
	u.catalog.Invalidate()
	return intent, nil
}

func (u *DashboardUsecase) DeleteIntent(ctx context.Context, id int64) error {
	deleted, err := u.store.DeleteIntent(ctx, id)
	if err != nil {
		return fmt.Errorf("delete intent: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	u.catalog.Invalidate()
	return nil
}

// UnansweredQuestions lists questions that were answered with the fallback text.
func (u *DashboardUsecase) UnansweredQuestions(ctx context.Context, limit int) ([]entities.UnansweredQuestion, error) {
	if limit <= 0 {
		limit = DefaultUnansweredLimit
	}
	if limit > MaxUnansweredLimit {
		limit = MaxUnansweredLimit
	}
	return u.store.UnansweredQuestions(ctx, FallbackResponse, limit)
}

// Engagement reports conversations, messages and bot assertiveness per tenant,
// busiest tenants first.
func (u *DashboardUsecase) Engagement(ctx context.Context) ([]entities.ClientEngagement, error) {
	rows, err := u.store.Engagement(ctx, FallbackResponse)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].AssertivenessRate = assertivenessRate(rows[i].BotReplies, rows[i].Fallbacks)
	}
	return rows, nil
}

// assertivenessRate is the percentage of non-fallback bot replies, rounded to
// one decimal.
func assertivenessRate(botReplies, fallbacks int64) float64 {
	if botReplies <= 0 {
		return 0
	}
	return math.Round(float64(botReplies-fallbacks)/float64(botReplies)*1000) / 10
}

// normalizeVariations lowercases and trims, skipping blanks and repeats.
func normalizeVariations(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
