package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
)

// ListPrompts: ?target= narrows to one target model.
func (h *Handler) ListPrompts(c *gin.Context) {
	var (
		out []prompt.Prompt
		err error
	)
	if raw, ok := c.GetQuery("target"); ok {
		t, perr := prompt.ParseTarget(raw)
		if perr != nil {
			common.Fail(c, http.StatusBadRequest, 10005, perr.Error())
			return
		}
		out, err = h.Prompts.ListByTarget(c.Request.Context(), t)
	} else {
		out, err = h.Prompts.List(c.Request.Context())
	}
	if err != nil {
		h.promptError(c, err)
		return
	}
	common.OK(c, gin.H{"prompts": out})
}

func (h *Handler) GetPrompt(c *gin.Context) {
	p, err := h.Prompts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.promptError(c, err)
		return
	}
	common.OK(c, gin.H{"prompt": p})
}

type promptReq struct {
	Name        *string `json:"name"`
	Content     *string `json:"content"`
	TargetModel *string `json:"target_model"`
}

func (r promptReq) target() (*prompt.Target, error) {
	if r.TargetModel == nil {
		return nil, nil
	}
	t, err := prompt.ParseTarget(*r.TargetModel)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) CreatePrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	t, err := req.target()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, err.Error())
		return
	}
	if req.Name == nil || req.Content == nil {
		common.Fail(c, http.StatusBadRequest, 10002, prompt.ErrInvalidInput.Error())
		return
	}
	target := prompt.TargetNone
	if t != nil {
		target = *t
	}
	p, err := h.Prompts.Create(c.Request.Context(), *req.Name, *req.Content, target)
	if err != nil {
		h.promptError(c, err)
		return
	}
	common.OK(c, gin.H{"prompt": p})
}

func (h *Handler) UpdatePrompt(c *gin.Context) {
	var req promptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	t, err := req.target()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, err.Error())
		return
	}
	p, err := h.Prompts.Update(c.Request.Context(), c.Param("id"), req.Name, req.Content, t)
	if err != nil {
		h.promptError(c, err)
		return
	}
	common.OK(c, gin.H{"prompt": p})
}

func (h *Handler) DeletePrompt(c *gin.Context) {
	if err := h.Prompts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.promptError(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

func (h *Handler) promptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, prompt.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40403, "prompt not found")
	case errors.Is(err, prompt.ErrInvalidInput):
		common.Fail(c, http.StatusBadRequest, 10002, err.Error())
	default:
		lg := h.logger(c)
		lg.Error().Err(err).Msg("prompt request failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
