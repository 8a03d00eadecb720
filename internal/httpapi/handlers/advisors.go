package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/advisor"
	"github.com/suPer8Hu/mentor-chat/internal/common"
)

// Assistants and mentors share these handlers; the route group fixes the kind.

func (h *Handler) ListAdvisors(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := h.Advisors.List(c.Request.Context(), kind)
		if err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"items": out})
	}
}

func (h *Handler) GetDefaultAdvisor(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := h.Advisors.GetDefault(c.Request.Context(), kind)
		if err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"item": a})
	}
}

func (h *Handler) CreateAdvisor(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req advisor.Patch
		if err := c.ShouldBindJSON(&req); err != nil {
			common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
			return
		}
		a := &advisor.Advisor{Kind: kind}
		if req.Name != nil {
			a.Name = *req.Name
		}
		if req.ModelName != nil {
			a.ModelName = *req.ModelName
		}
		if req.Temperature != nil {
			a.Temperature = *req.Temperature
		}
		if req.ActiveAfterQuestions != nil {
			a.ActiveAfterQuestions = *req.ActiveAfterQuestions
		}
		if req.SystemPrompt != nil {
			a.SystemPrompt = *req.SystemPrompt
		}
		if req.IsDefault != nil {
			a.IsDefault = *req.IsDefault
		}
		if err := h.Advisors.Create(c.Request.Context(), a); err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"item": a})
	}
}

func (h *Handler) UpdateAdvisor(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req advisor.Patch
		if err := c.ShouldBindJSON(&req); err != nil {
			common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
			return
		}
		a, err := h.Advisors.Update(c.Request.Context(), kind, c.Param("id"), req)
		if err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"item": a})
	}
}

func (h *Handler) DeleteAdvisor(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Advisors.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"deleted": true})
	}
}

func (h *Handler) SetDefaultAdvisor(kind advisor.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.Advisors.SetDefault(c.Request.Context(), kind, c.Param("id")); err != nil {
			h.advisorError(c, err)
			return
		}
		a, err := h.Advisors.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			h.advisorError(c, err)
			return
		}
		common.OK(c, gin.H{"item": a})
	}
}

func (h *Handler) advisorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, advisor.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40404, "advisor not found")
	case errors.Is(err, advisor.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, 10002, err.Error())
	default:
		lg := h.logger(c)
		lg.Error().Err(err).Msg("advisor request failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
