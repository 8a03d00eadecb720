package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/chat"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"github.com/suPer8Hu/mentor-chat/internal/prompt"
	"github.com/suPer8Hu/mentor-chat/internal/turn"
)

// errPromptTarget: a prompt id was given for a slot its target model does not serve.
var errPromptTarget = errors.New("prompt target does not match")

// sendMessageReq selects prompts either by record id or as raw text; ids win. A prompt
// picked by id must target the slot it fills.
type sendMessageReq struct {
	Message string `json:"message" binding:"required"`

	MainPromptID      string `json:"main_prompt_id"`
	AssistantPromptID string `json:"assistant_prompt_id"`
	MentorPromptID    string `json:"mentor_prompt_id"`

	MainPrompt      string `json:"main_prompt"`
	AssistantPrompt string `json:"assistant_prompt"`
	MentorPrompt    string `json:"mentor_prompt"`
}

func (h *Handler) bindTurn(c *gin.Context) (turn.Request, bool) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return turn.Request{}, false
	}

	ctx := c.Request.Context()
	resolve := func(id, raw string, slot prompt.Target) (string, error) {
		if id == "" {
			return raw, nil
		}
		p, err := h.Prompts.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if p.TargetModel != slot {
			return "", fmt.Errorf("%w: prompt %s targets %q, not %q", errPromptTarget, id, p.TargetModel, slot)
		}
		return p.Content, nil
	}

	tr := turn.Request{ChatID: c.Param("id"), Content: req.Message}
	var err error
	if tr.SystemPrompt, err = resolve(req.MainPromptID, req.MainPrompt, prompt.TargetMain); err == nil {
		if tr.AssistantPrompt, err = resolve(req.AssistantPromptID, req.AssistantPrompt, prompt.TargetAssistant); err == nil {
			tr.MentorPrompt, err = resolve(req.MentorPromptID, req.MentorPrompt, prompt.TargetMentor)
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, prompt.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40403, "prompt not found")
		case errors.Is(err, errPromptTarget):
			common.Fail(c, http.StatusBadRequest, 10008, err.Error())
		default:
			lg := h.logger(c)
			lg.Error().Err(err).Msg("resolve prompts failed")
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return turn.Request{}, false
	}
	return tr, true
}

func (h *Handler) turnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, turn.ErrEmptyContent):
		common.Fail(c, http.StatusBadRequest, 10004, "message is empty")
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "chat not found")
	case errors.Is(err, turn.ErrTurnInProgress):
		common.Fail(c, http.StatusConflict, 40901, err.Error())
	default:
		lg := h.logger(c)
		lg.Error().Err(err).Msg("turn failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

// SendMessage runs a turn and answers with every message it stored.
func (h *Handler) SendMessage(c *gin.Context) {
	req, ok := h.bindTurn(c)
	if !ok {
		return
	}
	res, err := h.Orchestrator.Run(c.Request.Context(), req)
	if err != nil {
		h.turnError(c, err)
		return
	}
	common.OK(c, res)
}

// SendMessageStream runs a turn and streams the reply as server-sent events:
// chunk events while generating, ping every 15s, then done (or error).
func (h *Handler) SendMessageStream(c *gin.Context) {
	req, ok := h.bindTurn(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// answer plain JSON errors while no event has been written yet
	if strings.TrimSpace(req.Content) == "" {
		h.turnError(c, turn.ErrEmptyContent)
		return
	}
	if _, err := h.Chats.GetChat(ctx, req.ChatID); err != nil {
		h.chatError(c, err)
		return
	}
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50003, "streaming not supported")
		return
	}

	chunks := make(chan string, 64)
	req.OnChunk = func(s string) {
		select {
		case chunks <- s:
		case <-ctx.Done():
		}
	}

	type outcome struct {
		res *turn.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.Orchestrator.Run(ctx, req)
		done <- outcome{res, err}
	}()

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			// last-resort: send a simple error that won't break SSE framing
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case s := <-chunks:
			writeJSON("chunk", gin.H{"type": "chunk", "delta": s})

		case <-ticker.C:
			writeJSON("ping", gin.H{"type": "ping", "ts": time.Now().Unix()})

		case out := <-done:
			// chunks sent before Run returned are still buffered
			for drained := false; !drained; {
				select {
				case s := <-chunks:
					writeJSON("chunk", gin.H{"type": "chunk", "delta": s})
				default:
					drained = true
				}
			}
			if out.err != nil {
				writeJSON("error", gin.H{"type": "error", "message": streamErrorMessage(out.err)})
				return
			}
			writeJSON("done", gin.H{"type": "done", "result": out.res})
			return

		case <-ctx.Done():
			// the turn runs on and stores its reply; only Stop cancels it
			return
		}
	}
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return "chat not found"
	case errors.Is(err, turn.ErrEmptyContent), errors.Is(err, turn.ErrTurnInProgress):
		return err.Error()
	default:
		return "internal error"
	}
}

// SendMessageAsync stores a turn job and queues it for the worker. With an
// Idempotency-Key header a repeated request returns the first job instead of a new one.
func (h *Handler) SendMessageAsync(c *gin.Context) {
	if h.Queue == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async turns are not enabled")
		return
	}
	req, ok := h.bindTurn(c)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.turnError(c, turn.ErrEmptyContent)
		return
	}

	// read idempotency key
	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	j := &chat.Job{
		ID:              common.NewULID(),
		ChatID:          req.ChatID,
		Content:         strings.TrimSpace(req.Content),
		SystemPrompt:    req.SystemPrompt,
		AssistantPrompt: req.AssistantPrompt,
		MentorPrompt:    req.MentorPrompt,
		IdempotencyKey:  idempoKeyPtr,
		Status:          chat.JobQueued,
	}
	job, created, err := h.Chats.CreateJobOrGetExisting(c.Request.Context(), j)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "chat not found")
			return
		}
		lg := h.logger(c)
		lg.Error().Err(err).Str("chat_id", req.ChatID).Str("key", idempoKey).Msg("create job failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	// enqueue only when a new job was created
	if created {
		if err := h.Queue.PublishTurn(c.Request.Context(), job.ID); err != nil {
			lg := h.logger(c)
			lg.Error().Err(err).Str("job_id", job.ID).Msg("publish job failed")
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}
	c.JSON(http.StatusAccepted, gin.H{"code": 0, "message": "ok", "data": gin.H{"job_id": job.ID, "created": created}})
}

// StopGeneration cancels the chat's in-flight turn here and, through the stop bus, in
// the worker.
func (h *Handler) StopGeneration(c *gin.Context) {
	chatID := c.Param("id")
	stopped := h.Orchestrator.Stop(chatID)
	if h.StopBus != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.StopBus.PublishStop(ctx, chatID); err != nil {
			lg := h.logger(c)
			lg.Warn().Err(err).Str("chat_id", chatID).Msg("broadcast stop failed")
		}
	}
	common.OK(c, gin.H{"stopped": stopped})
}
