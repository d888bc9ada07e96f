package http

import (
	"bytes"
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/infrastructure"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"chatbot_erp/internal/nlp"
	"chatbot_erp/internal/repository"
	"chatbot_erp/internal/usecases"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// testServer is a fully wired router on an in-memory SQLite store.
type testServer struct {
	engine *gin.Engine
	client *infrastructure.SQLiteClient
	store  *repository.SQLiteStore
}

func newTestServer(t *testing.T, configure func(cfg *RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	client, err := infrastructure.NewSQLiteClient(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	store := repository.NewSQLiteStore(client.DB)

	model, err := nlp.Load()
	require.NoError(t, err)
	normalizer := nlp.NewNormalizer(model)

	log := logger.Discard()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	catalog := usecases.NewIntentCatalog(store, normalizer, "Status do Pedido", time.Minute, log, m)
	resolver := usecases.NewIntentResolver(usecases.NewExactMatcher(store, catalog), usecases.NewFuzzyMatcher(catalog, normalizer))
	renderer := usecases.NewResponseRenderer(infrastructure.NewERPClient(time.Second, "MasterSite", "status", log), log, m)
	chat := usecases.NewChatService(store, resolver, renderer, usecases.NewSessionManager(), "http://localhost:8000/images/", log, m)

	auth := usecases.NewAuthUsecase(store, testJWTSecret)
	require.NoError(t, auth.EnsureAdmin(ctx, "admin", "s3cret-pass"))

	cfg := RouterConfig{
		Chat:          chat,
		Auth:          auth,
		Dashboard:     usecases.NewDashboardUsecase(store, catalog),
		Store:         store,
		Registry:      registry,
		Metrics:       m,
		Log:           log,
		ImagesDir:     t.TempDir(),
		CORSOrigins:   []string{"http://localhost:5500"},
		ChatRateLimit: 100,
		ChatRateBurst: 100,
		JWTSecret:     testJWTSecret,
	}
	if configure != nil {
		configure(&cfg)
	}

	engine := gin.New()
	SetupRoutes(engine, cfg)
	return &testServer{engine: engine, client: client, store: store}
}

func (s *testServer) seedTenant(t *testing.T, name, token string) {
	t.Helper()
	_, err := s.client.DB.Exec(
		"INSERT INTO clients (client_name, access_token, created_at) VALUES (?, ?, ?)",
		name, token, time.Now().UnixNano())
	require.NoError(t, err)
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) map[string]string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "s3cret-pass"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return map[string]string{"Authorization": "Bearer " + out.Token}
}

func decodeChat(t *testing.T, w *httptest.ResponseRecorder) entities.ChatResponse {
	t.Helper()
	var resp entities.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
