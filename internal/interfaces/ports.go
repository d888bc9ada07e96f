package interfaces

import (
	"chatbot_erp/internal/entities"
	"context"
	"errors"
	"time"
)

// ErrOrderNotFound is returned by OrderStatusClient when the ERP knows no such sale.
var ErrOrderNotFound = errors.New("order not found")

type TenantStore interface {
	// GetTenantByToken returns nil, nil when no tenant owns the token.
	GetTenantByToken(ctx context.Context, token string) (*entities.Tenant, error)
}

type ConversationStore interface {
	LatestConversation(ctx context.Context, tenantID int64) (*entities.Conversation, error)
	HasMessageSince(ctx context.Context, conversationID int64, since time.Time) (bool, error)
	CreateConversation(ctx context.Context, tenantID int64, startedAt time.Time) (*entities.Conversation, error)
	// CreateMessage fills msg.ID.
	CreateMessage(ctx context.Context, msg *entities.Message) error
}

type IntentStore interface {
	// ListIntents returns intents without variations, ordered by id.
	ListIntents(ctx context.Context) ([]entities.Intent, error)
	// ListVariations returns every variation ordered by id.
	ListVariations(ctx context.Context) ([]entities.Variation, error)
	GetIntent(ctx context.Context, id int64) (*entities.Intent, error)
	// FindIntentIDByVariation matches an already lowercased and trimmed text.
	FindIntentIDByVariation(ctx context.Context, text string) (int64, bool, error)
	CreateIntent(ctx context.Context, intent *entities.Intent, variations []string) error
	DeleteIntent(ctx context.Context, id int64) (bool, error)
}

type AnalyticsStore interface {
	UnansweredQuestions(ctx context.Context, fallback string, limit int) ([]entities.UnansweredQuestion, error)
	Engagement(ctx context.Context, fallback string) ([]entities.ClientEngagement, error)
}

type AdminUserStore interface {
	CreateAdminUser(ctx context.Context, user *entities.AdminUser) error
	GetAdminUserByUsername(ctx context.Context, username string) (*entities.AdminUser, error)
}

// Store is the persistence boundary. WithTx runs fn against a transactional view;
// an error from fn rolls everything back.
type Store interface {
	TenantStore
	ConversationStore
	IntentStore
	AnalyticsStore
	AdminUserStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// OrderStatusClient looks up a sale in a tenant's ERP.
type OrderStatusClient interface {
	LookupOrder(ctx context.Context, cfg entities.ERPConfig, code string) (*entities.OrderStatus, error)
}

type TextNormalizer interface {
	Tokens(text string) []string
}

// ChatHandler runs one chat turn. Channels other than HTTP depend on this.
type ChatHandler interface {
	HandleQuestion(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
}
