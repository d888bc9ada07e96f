package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"context"
	"fmt"
	"strings"
	"time"
)

// ChatService runs one question/answer turn for a tenant.
type ChatService struct {
	store        interfaces.Store
	resolver     *IntentResolver
	renderer     *ResponseRenderer
	sessions     *SessionManager
	imageBaseURL string
	log          *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewChatService(store interfaces.Store, resolver *IntentResolver, renderer *ResponseRenderer, sessions *SessionManager, imageBaseURL string, log *logger.Logger, m *metrics.Metrics) *ChatService {
	return &ChatService{
		store:        store,
		resolver:     resolver,
		renderer:     renderer,
		sessions:     sessions,
		imageBaseURL: imageBaseURL,
		log:          log.WithModule("chat"),
		metrics:      m,
		now:          time.Now,
	}
}

// HandleQuestion authorizes the tenant, answers the question and records both
// messages. Only authorization failures and storage failures are returned.
func (s *ChatService) HandleQuestion(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, &ForbiddenError{Detail: "access token not provided"}
	}
	tenant, err := s.store.GetTenantByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil {
		return nil, &ForbiddenError{Detail: "invalid access token"}
	}

	res, err := s.resolver.Resolve(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("resolve intent: %w", err)
	}
	s.observe(tenant, req.Question, res)

	reply := s.renderer.Render(ctx, tenant, res, req.Question)

	var conv *entities.Conversation
	bot := &entities.Message{Sender: entities.SenderBot, Content: reply.Text}
	// Timestamps are taken inside the transaction so they follow insertion
	// order even when another turn commits while this one waits on the ERP.
	err = s.store.WithTx(ctx, func(tx interfaces.Store) error {
		recordedAt := s.now()

		var err error
		if conv, err = s.sessions.Attach(ctx, tx, tenant.ID, recordedAt); err != nil {
			return err
		}

		user := &entities.Message{
			ConversationID: conv.ID,
			Sender:         entities.SenderUser,
			Content:        req.Question,
			Timestamp:      recordedAt,
		}
		if err := tx.CreateMessage(ctx, user); err != nil {
			return fmt.Errorf("save user message: %w", err)
		}

		bot.ConversationID = conv.ID
		bot.Timestamp = s.now()
		if bot.Timestamp.Before(user.Timestamp) {
			bot.Timestamp = user.Timestamp
		}
		if err := tx.CreateMessage(ctx, bot); err != nil {
			return fmt.Errorf("save bot message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}

	resp := &entities.ChatResponse{
		Status:         "success",
		Response:       reply.Text,
		ConversationID: conv.ID,
		MessageID:      bot.ID,
		QuickReplies:   reply.QuickReplies,
	}
	if resp.QuickReplies == nil {
		resp.QuickReplies = []entities.QuickReply{}
	}
	for _, name := range reply.Images {
		resp.Images = append(resp.Images, s.imageBaseURL+name)
	}
	return resp, nil
}

func (s *ChatService) observe(tenant *entities.Tenant, question string, res Resolution) {
	s.metrics.QuestionsTotal.WithLabelValues(string(res.Source)).Inc()
	s.metrics.MatchScore.Observe(float64(res.Score))

	log := s.log.WithFields(map[string]any{
		"client_id": tenant.ID,
		"question":  question,
		"source":    string(res.Source),
		"score":     res.Score,
	})
	if res.Matched() {
		log.Info("Question resolved", "intent", res.Intent.Title)
		return
	}
	log.Info("Question unresolved, sending fallback")
}
