package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/ai"
	"github.com/suPer8Hu/mentor-chat/internal/calculation"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
)

func (h *Handler) GetAnalysis(c *gin.Context) {
	a, err := h.Analyses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.analysisError(c, err)
		return
	}
	common.OK(c, gin.H{"analysis": a})
}

type runAnalysisReq struct {
	PromptID string `json:"prompt_id" binding:"required"`
}

func (h *Handler) RunAnalysis(c *gin.Context) {
	var req runAnalysisReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	a, err := h.Analyses.Run(c.Request.Context(), c.Param("id"), req.PromptID)
	if err != nil {
		h.analysisError(c, err)
		return
	}
	common.OK(c, gin.H{"analysis": a})
}

func (h *Handler) DeleteAnalysis(c *gin.Context) {
	if err := h.Analyses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.analysisError(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

func (h *Handler) analysisError(c *gin.Context, err error) {
	var gwErr *ai.GatewayError
	switch {
	case errors.Is(err, calculation.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40405, "analysis not found")
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "chat not found")
	case errors.Is(err, prompt.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40403, "prompt not found")
	case errors.Is(err, calculation.ErrNoConversation):
		common.Fail(c, http.StatusBadRequest, 10006, err.Error())
	case ai.IsConfigurationError(err):
		common.Fail(c, http.StatusBadRequest, 10007, err.Error())
	case errors.As(err, &gwErr):
		common.Fail(c, http.StatusBadGateway, 50201, gwErr.Error())
	default:
		lg := h.logger(c)
		lg.Error().Err(err).Msg("analysis request failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
