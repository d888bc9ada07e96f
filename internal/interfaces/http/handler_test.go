package http

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/usecases"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatHandler struct {
	resp *entities.ChatResponse
	err  error
}

func (s *stubChatHandler) HandleQuestion(context.Context, entities.ChatRequest) (*entities.ChatResponse, error) {
	return s.resp, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHandleChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		chat       *stubChatHandler
		body       any
		wantStatus int
		wantError  string
	}{
		{
			name:       "forbidden carries detail",
			chat:       &stubChatHandler{err: &usecases.ForbiddenError{Detail: "invalid access token"}},
			body:       map[string]string{"token": "x", "question": "oi"},
			wantStatus: http.StatusForbidden,
			wantError:  "invalid access token",
		},
		{
			name:       "unexpected failure hides details",
			chat:       &stubChatHandler{err: errors.New("pq: connection refused")},
			body:       map[string]string{"token": "x", "question": "oi"},
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
		{
			name:       "malformed json",
			chat:       &stubChatHandler{},
			body:       `{"token":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request",
		},
		{
			name:       "question too long",
			chat:       &stubChatHandler{},
			body:       map[string]string{"token": "x", "question": strings.Repeat("a", MaxQuestionLength+1)},
			wantStatus: http.StatusBadRequest,
			wantError:  "Question too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(cfg *RouterConfig) { cfg.Chat = tt.chat })
			w := srv.do(http.MethodPost, "/chat", tt.body, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, w.Body.String())
		})
	}
}

func TestHandleChat_EndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seedTenant(t, "Acme", "tok-acme")
	auth := srv.login(t)

	w := srv.do(http.MethodPost, "/api/admin/intents", map[string]any{
		"title":      "Nota Fiscal",
		"variations": []string{"Como emitir nota fiscal", "emitir nf"},
		"response":   "Acesse o menu Fiscal.\n🚀 Quick Replies: [{\"title\": \"Cancelar\", \"payload\": \"cancelar nota\"}]\n🖼️ Imagens relacionadas: nf.png",
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(http.MethodPost, "/chat", map[string]string{"token": "tok-acme", "question": "  Como emitir nota fiscal "}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeChat(t, w)
	assert.Equal(t, "success", first.Status)
	assert.Equal(t, "Acesse o menu Fiscal.", first.Response)
	assert.Equal(t, []entities.QuickReply{{Title: "Cancelar", Payload: "cancelar nota"}}, first.QuickReplies)
	assert.Equal(t, []string{"http://localhost:8000/images/nf.png"}, first.Images)
	assert.NotZero(t, first.MessageID)

	w = srv.do(http.MethodPost, "/chat", map[string]string{"token": "tok-acme", "question": "qual a previsão do tempo"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeChat(t, w)
	assert.Equal(t, usecases.FallbackResponse, second.Response)
	assert.Equal(t, first.ConversationID, second.ConversationID, "same session within the window")
	assert.NotNil(t, second.QuickReplies)
	assert.Contains(t, w.Body.String(), `"quick_replies":[]`)
	assert.NotContains(t, w.Body.String(), `"images"`)

	w = srv.do(http.MethodPost, "/chat", map[string]string{"token": "nope", "question": "oi"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"invalid access token"}`, w.Body.String())

	w = srv.do(http.MethodPost, "/chat", map[string]string{"question": "oi"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"access token not provided"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestServer(t, func(cfg *RouterConfig) { cfg.Store = stubPinger{err: errors.New("down")} })
	w = down.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodGet, "/healthz", nil, nil)

	w := srv.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `chatbot_http_requests_total{route="/healthz",status="200"} 1`)
}
