package entities

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Conversation groups the messages a tenant exchanged within one session window.
type Conversation struct {
	ID        int64     `json:"conversation_id"`
	TenantID  int64     `json:"client_id"`
	StartedAt time.Time `json:"start_time"`
}

// Message is immutable once written.
type Message struct {
	ID             int64     `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// UnansweredQuestion is a user question whose bot reply was the fallback text.
// ClientEngagement is per-tenant usage. AssertivenessRate is the percentage of
// bot replies that were not the fallback, 0 when the bot never replied.
type ClientEngagement struct {
	TenantName        string  `json:"client_name"`
	Conversations     int64   `json:"conversations"`
	Messages          int64   `json:"messages"`
	BotReplies        int64   `json:"bot_replies"`
	Fallbacks         int64   `json:"fallbacks"`
	AssertivenessRate float64 `json:"assertiveness_rate"`
}

type UnansweredQuestion struct {
	AskedAt    time.Time `json:"asked_at"`
	TenantName string    `json:"client_name"`
	Question   string    `json:"question"`
}
