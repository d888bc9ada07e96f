package http

import (
	"chatbot_erp/internal/entities"
	"chatbot_erp/internal/interfaces"
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/metrics"
	"chatbot_erp/internal/usecases"
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const (
	maxRequestBytes = 1 << 20
	healthTimeout   = 2 * time.Second

	// Admin API quota per user.
	adminRateLimit = rate.Limit(5)
	adminRateBurst = 10
)

type pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries everything SetupRoutes wires into the engine.
type RouterConfig struct {
	Chat      interfaces.ChatHandler
	Auth      *usecases.AuthUsecase
	Dashboard *usecases.DashboardUsecase
	Store     pinger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Log       *logger.Logger

	ImagesDir     string
	CORSOrigins   []string
	ChatRateLimit rate.Limit
	ChatRateBurst int
	JWTSecret     string
}

type Handler struct {
	chat  interfaces.ChatHandler
	store pinger
	log   *logger.Logger
}

func NewHandler(chat interfaces.ChatHandler, store pinger, log *logger.Logger) *Handler {
	return &Handler{chat: chat, store: store, log: log.WithModule("http")}
}

func SetupRoutes(r *gin.Engine, cfg RouterConfig) {
	middleware := NewMiddleware(cfg.JWTSecret)
	h := NewHandler(cfg.Chat, cfg.Store, cfg.Log)
	adminHandler := NewAdminHandler(cfg.Auth, cfg.Dashboard, cfg.Log)

	r.Use(RequestLogger(cfg.Log, cfg.Metrics))
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(maxRequestBytes))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Public Routes
	r.POST("/chat", middleware.RateLimitPerIP(cfg.ChatRateLimit, cfg.ChatRateBurst), h.HandleChat)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	if info, err := os.Stat(cfg.ImagesDir); err == nil && info.IsDir() {
		r.Static("/images", cfg.ImagesDir)
	} else {
		cfg.Log.Warn("Images directory not found, /images disabled", "dir", cfg.ImagesDir)
	}

	// Public Auth Routes
	r.POST("/api/auth/login", adminHandler.Login)

	// Admin Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	admin.Use(middleware.RateLimitPerUser(adminRateLimit, adminRateBurst))
	{
		admin.GET("/intents", adminHandler.ListIntents)
		admin.GET("/intents/:id", adminHandler.GetIntent)
		admin.POST("/intents", adminHandler.CreateIntent)
		admin.DELETE("/intents/:id", adminHandler.DeleteIntent)
		admin.GET("/analytics/unanswered", adminHandler.UnansweredQuestions)
		admin.GET("/analytics/engagement", adminHandler.Engagement)
	}
}

// HandleChat answers one question. Authorization failures are 403 with the
// detail; anything else unexpected is a 500 with a fixed body.
func (h *Handler) HandleChat(c *gin.Context) {
	var req entities.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Question = SanitizeString(req.Question)
	if !ValidateLength(req.Question, 0, MaxQuestionLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question too long"})
		return
	}

	resp, err := h.chat.HandleQuestion(c.Request.Context(), req)
	if err != nil {
		var forbidden *usecases.ForbiddenError
		if errors.As(err, &forbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Detail})
			return
		}
		requestLogger(c, h.log).WithError(err).Error("Chat turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		requestLogger(c, h.log).WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
