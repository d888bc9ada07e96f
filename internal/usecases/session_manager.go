package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"context"
	"fmt"
	"time"
)

// SessionWindow is how long a conversation stays open after its last message.
const SessionWindow = 30 * time.Minute

type SessionManager struct {
	window time.Duration
}

func NewSessionManager() *SessionManager {
	return &SessionManager{window: SessionWindow}
}

// Attach returns the tenant's latest conversation if it saw a message within the
// window before now, otherwise a new conversation started at now.
func (m *SessionManager) Attach(ctx context.Context, store interfaces.ConversationStore, tenantID int64, now time.Time) (*entities.Conversation, error) {
	latest, err := store.LatestConversation(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("latest conversation: %w", err)
	}

	if latest != nil {
		active, err := store.HasMessageSince(ctx, latest.ID, now.Add(-m.window))
		if err != nil {
			return nil, fmt.Errorf("check conversation activity: %w", err)
		}
		if active {
			return latest, nil
		}
	}

	conv, err := store.CreateConversation(ctx, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}
