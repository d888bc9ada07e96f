package entities

type ChatRequest struct {
	Token    string `json:"token"`
	Question string `json:"question"`
}

type ChatResponse struct {
	Status         string       `json:"status"`
	Response       string       `json:"response"`
	ConversationID int64        `json:"conversation_id"`
	MessageID      int64        `json:"message_id"`
	QuickReplies   []QuickReply `json:"quick_replies"`
	Images         []string     `json:"images,omitempty"`
}
