package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/common"
)

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.Chats.ListChats(c.Request.Context())
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("list chats failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"chats": chats})
}

type chatTitleReq struct {
	Title string `json:"title"`
}

func (h *Handler) CreateChat(c *gin.Context) {
	var req chatTitleReq
	_ = c.ShouldBindJSON(&req) // allow empty {}

	ch, err := h.Chats.CreateChat(c.Request.Context(), req.Title)
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("create chat failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create chat")
		return
	}
	common.OK(c, gin.H{"chat": ch})
}

func (h *Handler) RenameChat(c *gin.Context) {
	var req chatTitleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Chats.RenameChat(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		h.chatError(c, err)
		return
	}
	ch, err := h.Chats.GetChat(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.chatError(c, err)
		return
	}
	common.OK(c, gin.H{"chat": ch})
}

func (h *Handler) DeleteChat(c *gin.Context) {
	if err := h.Chats.DeleteChat(c.Request.Context(), c.Param("id")); err != nil {
		h.chatError(c, err)
		return
	}
	common.OK(c, gin.H{"deleted": true})
}

// ListMessages: ?view=ui hides system entries, ?order=desc reverses.
func (h *Handler) ListMessages(c *gin.Context) {
	order := chat.OrderAsc
	if c.Query("order") == "desc" {
		order = chat.OrderDesc
	}
	msgs, err := h.Chats.ListMessages(c.Request.Context(), c.Param("id"), c.Query("view") == "ui", order)
	if err != nil {
		h.chatError(c, err)
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) GetJob(c *gin.Context) {
	j, err := h.Chats.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, chat.ErrJobNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		lg := h.logger(c)
		lg.Error().Err(err).Msg("get job failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"job": j})
}

func (h *Handler) chatError(c *gin.Context, err error) {
	if errors.Is(err, chat.ErrNotFound) {
		common.Fail(c, http.StatusNotFound, 40401, "chat not found")
		return
	}
	lg := h.logger(c)
	lg.Error().Err(err).Msg("chat request failed")
	common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
}
