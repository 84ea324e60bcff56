package agent_service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumina/agent-api/core"
)

// ChatRequest is the JSON body of one agent turn.
type ChatRequest struct {
	Messages  []core.Message `json:"messages" binding:"required,min=1,dive"`
	UserID    string         `json:"userId" binding:"required"`
	PersonaID string         `json:"personaId"`
}

// ChatResponse mirrors the pipeline outcome. Plan is attached even on
// failure so callers can inspect the steps taken.
type ChatResponse struct {
	OK    bool            `json:"ok"`
	Plan  *core.AgentPlan `json:"plan,omitempty"`
	Error string          `json:"error,omitempty"`
}

type Service struct {
	agent    *core.Agent
	personas *core.PersonaSelector
	logger   *zap.Logger
}

func NewService(agent *core.Agent, personas *core.PersonaSelector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{agent: agent, personas: personas, logger: logger}
}

func (s *Service) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", s.health)
	api := r.Group("/api/v1")
	api.POST("/agent/chat", s.chat)
	api.GET("/personas", s.listPersonas)
}

func (s *Service) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ChatResponse{OK: false, Error: "invalid request: " + err.Error()})
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.With(
		zap.String("requestId", requestID),
		zap.String("userId", req.UserID))
	logger.Info("agent turn received",
		zap.Int("messages", len(req.Messages)),
		zap.String("personaId", req.PersonaID))

	result := s.agent.Run(c.Request.Context(), core.TurnRequest{
		Messages:  req.Messages,
		UserID:    req.UserID,
		PersonaID: req.PersonaID,
	})

	c.Header("X-Request-Id", requestID)
	if !result.OK {
		logger.Warn("agent turn degraded", zap.Int("steps", len(result.Plan.Steps)))
		c.JSON(http.StatusOK, ChatResponse{OK: false, Plan: result.Plan, Error: result.ErrorMessage})
		return
	}
	logger.Info("agent turn done",
		zap.Int("steps", len(result.Plan.Steps)),
		zap.String("persona", result.Plan.Persona))
	c.JSON(http.StatusOK, ChatResponse{OK: true, Plan: result.Plan})
}

func (s *Service) listPersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personas": s.personas.List()})
}

func (s *Service) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
