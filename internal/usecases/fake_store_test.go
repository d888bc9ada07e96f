package usecases

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// fakeStore is an in-memory interfaces.Store.
type fakeStore struct {
	mu            sync.Mutex
	tenants       map[string]*entities.Tenant
	intents       []entities.Intent
	variations    []entities.Variation
	conversations []entities.Conversation
	messages      []entities.Message
	admins        []entities.AdminUser
	nextID        int64

	failBotMessage error
	listIntentsErr error
	listCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tenants: make(map[string]*entities.Tenant)}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addTenant(t *entities.Tenant) *entities.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tenants[t.AccessToken] = t
	return t
}

func (s *fakeStore) addIntent(intent entities.Intent, variations ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent.ID = s.id()
	s.intents = append(s.intents, intent)
	for _, v := range variations {
		s.variations = append(s.variations, entities.Variation{ID: s.id(), IntentID: intent.ID, Text: v})
	}
	return intent.ID
}

func (s *fakeStore) GetTenantByToken(_ context.Context, token string) (*entities.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenants[token], nil
}

func (s *fakeStore) LatestConversation(_ context.Context, tenantID int64) (*entities.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *entities.Conversation
	for i := range s.conversations {
		c := s.conversations[i]
		if c.TenantID != tenantID {
			continue
		}
		if latest == nil || !c.StartedAt.Before(latest.StartedAt) {
			latest = &c
		}
	}
	return latest, nil
}

func (s *fakeStore) HasMessageSince(_ context.Context, conversationID int64, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.Timestamp.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateConversation(_ context.Context, tenantID int64, startedAt time.Time) (*entities.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := entities.Conversation{ID: s.id(), TenantID: tenantID, StartedAt: startedAt}
	s.conversations = append(s.conversations, c)
	return &c, nil
}

func (s *fakeStore) CreateMessage(_ context.Context, msg *entities.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Sender == entities.SenderBot && s.failBotMessage != nil {
		return s.failBotMessage
	}
	msg.ID = s.id()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeStore) ListIntents(context.Context) ([]entities.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listIntentsErr != nil {
		return nil, s.listIntentsErr
	}
	return slices.Clone(s.intents), nil
}

func (s *fakeStore) ListVariations(context.Context) ([]entities.Variation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.variations), nil
}

func (s *fakeStore) GetIntent(_ context.Context, id int64) (*entities.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.intents {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindIntentIDByVariation(_ context.Context, text string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variations {
		if strings.ToLower(strings.TrimSpace(v.Text)) == text {
			return v.IntentID, true, nil
		}
	}
	return 0, false, nil
}

func (s *fakeStore) CreateIntent(_ context.Context, intent *entities.Intent, variations []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent.ID = s.id()
	s.intents = append(s.intents, *intent)
	for _, v := range variations {
		s.variations = append(s.variations, entities.Variation{ID: s.id(), IntentID: intent.ID, Text: v})
	}
	return nil
}

func (s *fakeStore) DeleteIntent(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.intents)
	s.intents = slices.DeleteFunc(s.intents, func(it entities.Intent) bool { return it.ID == id })
	s.variations = slices.DeleteFunc(s.variations, func(v entities.Variation) bool { return v.IntentID == id })
	return len(s.intents) < n, nil
}

func (s *fakeStore) UnansweredQuestions(_ context.Context, fallback string, limit int) ([]entities.UnansweredQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entities.UnansweredQuestion
	for i := len(s.messages) - 1; i > 0 && len(out) < limit; i-- {
		bot, user := s.messages[i], s.messages[i-1]
		if bot.Sender == entities.SenderBot && bot.Content == fallback && user.Sender == entities.SenderUser {
			out = append(out, entities.UnansweredQuestion{AskedAt: user.Timestamp, Question: user.Content})
		}
	}
	return out, nil
}

func (s *fakeStore) Engagement(_ context.Context, fallback string) ([]entities.ClientEngagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := make(map[int64]int64, len(s.conversations))
	for _, c := range s.conversations {
		owner[c.ID] = c.TenantID
	}

	var out []entities.ClientEngagement
	for _, t := range s.tenants {
		e := entities.ClientEngagement{TenantName: t.Name}
		for _, c := range s.conversations {
			if c.TenantID == t.ID {
				e.Conversations++
			}
		}
		for _, m := range s.messages {
			if owner[m.ConversationID] != t.ID {
				continue
			}
			e.Messages++
			if m.Sender == entities.SenderBot {
				e.BotReplies++
				if m.Content == fallback {
					e.Fallbacks++
				}
			}
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b entities.ClientEngagement) int {
		if a.Conversations != b.Conversations {
			return int(b.Conversations - a.Conversations)
		}
		return strings.Compare(a.TenantName, b.TenantName)
	})
	return out, nil
}

func (s *fakeStore) CreateAdminUser(_ context.Context, user *entities.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.id()
	s.admins = append(s.admins, *user)
	return nil
}

func (s *fakeStore) GetAdminUserByUsername(_ context.Context, username string) (*entities.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.admins {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

// WithTx restores conversations and messages when fn fails.
func (s *fakeStore) WithTx(_ context.Context, fn func(tx interfaces.Store) error) error {
	s.mu.Lock()
	convs, msgs := slices.Clone(s.conversations), slices.Clone(s.messages)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.conversations, s.messages = convs, msgs
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }

// fakeOrders records lookups and replies with a canned result. When gate is
// set, each lookup signals entered and then waits for gate to close.
type fakeOrders struct {
	mu      sync.Mutex
	calls   int
	status  *entities.OrderStatus
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) LookupOrder(_ context.Context, _ entities.ERPConfig, code string) (*entities.OrderStatus, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.status == nil {
		return nil, interfaces.ErrOrderNotFound
	}
	st := *f.status
	st.Code = code
	return &st, nil
}

var errStoreDown = errors.New("store down")

func testDeps() (*logger.Logger, *metrics.Metrics) {
	return logger.Discard(), metrics.New(prometheus.NewRegistry())
}
