package repository

import (
	"chatbot_erp/internal/entities"
	"context"
	"fmt"
)

// unansweredQuery pairs each fallback bot message with the user message right
// before it in the same conversation.
const unansweredQuery = `
	SELECT u.timestamp, c.client_name, u.content
	FROM messages b
	JOIN conversations cv ON cv.conversation_id = b.conversation_id
	JOIN clients c ON c.client_id = cv.client_id
	JOIN messages u ON u.message_id = (
		SELECT MAX(m.message_id) FROM messages m
		WHERE m.conversation_id = b.conversation_id
		  AND m.sender = 'user'
		  AND m.message_id < b.message_id
	)
	WHERE b.sender = 'bot' AND b.content = %[1]s
	ORDER BY b.message_id DESC
	LIMIT %[2]s`

// engagementQuery counts each tenant's conversations, messages, bot replies and
// fallback replies. Tenants without traffic are listed with zeros.
const engagementQuery = `
	SELECT c.client_name,
	       COUNT(DISTINCT cv.conversation_id),
	       COUNT(m.message_id),
	       COALESCE(SUM(CASE WHEN m.sender = 'bot' THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN m.sender = 'bot' AND m.content = %[1]s THEN 1 ELSE 0 END), 0)
	FROM clients c
	LEFT JOIN conversations cv ON cv.client_id = c.client_id
	LEFT JOIN messages m ON m.conversation_id = cv.conversation_id
	GROUP BY c.client_id, c.client_name
	ORDER BY COUNT(DISTINCT cv.conversation_id) DESC, c.client_name`

var (
	pgUnansweredQuery     = fmt.Sprintf(unansweredQuery, "$1", "$2")
	sqliteUnansweredQuery = fmt.Sprintf(unansweredQuery, "?", "?")
	pgEngagementQuery     = fmt.Sprintf(engagementQuery, "$1")
	sqliteEngagementQuery = fmt.Sprintf(engagementQuery, "?")
)

func (s *PostgresStore) UnansweredQuestions(ctx context.Context, fallback string, limit int) ([]entities.UnansweredQuestion, error) {
	rows, err := s.db.Query(ctx, pgUnansweredQuery, fallback, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.UnansweredQuestion
	for rows.Next() {
		var q entities.UnansweredQuestion
		if err := rows.Scan(&q.AskedAt, &q.TenantName, &q.Question); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Engagement(ctx context.Context, fallback string) ([]entities.ClientEngagement, error) {
	rows, err := s.db.Query(ctx, pgEngagementQuery, fallback)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.ClientEngagement
	for rows.Next() {
		var e entities.ClientEngagement
		if err := rows.Scan(&e.TenantName, &e.Conversations, &e.Messages, &e.BotReplies, &e.Fallbacks); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
