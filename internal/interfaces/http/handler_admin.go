package http

import (
	"chatbot_erp/internal/logger"
	"chatbot_erp/internal/usecases"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	auth      *usecases.AuthUsecase
	dashboard *usecases.DashboardUsecase
	log       *logger.Logger
}

func NewAdminHandler(auth *usecases.AuthUsecase, dashboard *usecases.DashboardUsecase, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		auth:      auth,
		dashboard: dashboard,
		log:       log.WithModule("admin"),
	}
}

// Login exchanges admin credentials for a JWT.
func (h *AdminHandler) Login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil || !ValidUsername(loginReq.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), loginReq.Username, loginReq.Password)
	if errors.Is(err, usecases.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) ListIntents(c *gin.Context) {
	intents, err := h.dashboard.ListIntents(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to list intents")
		return
	}
	if intents == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, intents)
}

func (h *AdminHandler) GetIntent(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid intent ID"})
		return
	}

	intent, err := h.dashboard.GetIntent(c.Request.Context(), id)
	if errors.Is(err, usecases.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Intent not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Failed to load intent")
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *AdminHandler) CreateIntent(c *gin.Context) {
	var in usecases.NewIntentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := sanitizeIntentInput(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.dashboard.CreateIntent(c.Request.Context(), in)
	if errors.Is(err, usecases.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, err, "Failed to create intent")
		return
	}

	requestLogger(c, h.log).Info("Intent created", "intent_id", intent.ID, "title", intent.Title)
	c.JSON(http.StatusCreated, intent)
}

func (h *AdminHandler) DeleteIntent(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid intent ID"})
		return
	}

	err := h.dashboard.DeleteIntent(c.Request.Context(), id)
	if errors.Is(err, usecases.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Intent not found"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Failed to delete intent")
		return
	}

	requestLogger(c, h.log).Info("Intent deleted", "intent_id", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UnansweredQuestions lists user questions that got the fallback reply.
func (h *AdminHandler) UnansweredQuestions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	questions, err := h.dashboard.UnansweredQuestions(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, err, "Failed to load unanswered questions")
		return
	}
	if questions == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Engagement reports per-tenant conversation and message counts with the bot's
// assertiveness rate.
func (h *AdminHandler) Engagement(c *gin.Context) {
	rows, err := h.dashboard.Engagement(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to load engagement")
		return
	}
	if rows == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AdminHandler) internalError(c *gin.Context, err error, msg string) {
	requestLogger(c, h.log).WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
