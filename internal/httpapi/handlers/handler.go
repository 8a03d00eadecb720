package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/calculation"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/logging"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
	"github.com/suPer8Hu/mentor-chat/internal/turn"
)

// TurnQueue enqueues async turn jobs.
type TurnQueue interface {
	PublishTurn(ctx context.Context, jobID string) error
}

// StopBroadcaster forwards stop requests to other processes (the worker).
type StopBroadcaster interface {
	PublishStop(ctx context.Context, chatID string) error
}

type Handler struct {
	Chats        *chat.Service
	Orchestrator *turn.Orchestrator
	Advisors     *advisor.Repo
	Prompts      *prompt.Repo
	Settings     *settings.Repo
	Analyses     *calculation.Service

	// optional; async turns answer 503 without a queue
	Queue   TurnQueue
	StopBus StopBroadcaster

	Log zerolog.Logger
}

func (h *Handler) logger(c *gin.Context) zerolog.Logger {
	return logging.From(c.Request.Context(), h.Log)
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
