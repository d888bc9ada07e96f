package repository

import (
	"chatbot_erp/internal/entities"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) LatestConversation(ctx context.Context, tenantID int64) (*entities.Conversation, error) {
	var c entities.Conversation
	err := s.db.QueryRow(ctx, `
		SELECT conversation_id, client_id, start_time
		FROM conversations
		WHERE client_id = $1
		ORDER BY start_time DESC, conversation_id DESC
		LIMIT 1`, tenantID).Scan(&c.ID, &c.TenantID, &c.StartedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) HasMessageSince(ctx context.Context, conversationID int64, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM messages WHERE conversation_id = $1 AND timestamp > $2
		)`, conversationID, since).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) CreateConversation(ctx context.Context, tenantID int64, startedAt time.Time) (*entities.Conversation, error) {
	c := entities.Conversation{TenantID: tenantID, StartedAt: startedAt}
	err := s.db.QueryRow(ctx,
		"INSERT INTO conversations (client_id, start_time) VALUES ($1, $2) RETURNING conversation_id",
		tenantID, startedAt).Scan(&c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateMessage(ctx context.Context, msg *entities.Message) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender, content, timestamp)
		VALUES ($1, $2, $3, $4) RETURNING message_id`,
		msg.ConversationID, string(msg.Sender), msg.Content, msg.Timestamp).Scan(&msg.ID)
}
