package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mentor-chat/internal/common"
	"github.com/suPer8Hu/mentor-chat/internal/settings"
)

// apiSettingsView never carries the key itself.
type apiSettingsView struct {
	*settings.APISettings
	HasAPIKey bool `json:"has_api_key"`
}

func (h *Handler) GetAPISettings(c *gin.Context) {
	s, err := h.Settings.GetAPISettings(c.Request.Context())
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("load api settings failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if s == nil {
		common.OK(c, gin.H{"settings": nil})
		return
	}
	common.OK(c, gin.H{"settings": apiSettingsView{APISettings: s, HasAPIKey: s.APIKey != ""}})
}

func (h *Handler) SaveAPISettings(c *gin.Context) {
	var req settings.APIPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	id, err := h.Settings.SaveAPISettings(c.Request.Context(), req)
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("save api settings failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"id": id})
}

func (h *Handler) GetCalculationSettings(c *gin.Context) {
	s, err := h.Settings.GetCalculationSettings(c.Request.Context())
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("load calculation settings failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"settings": s})
}

func (h *Handler) SaveCalculationSettings(c *gin.Context) {
	var req settings.CalculationPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	id, err := h.Settings.SaveCalculationSettings(c.Request.Context(), req)
	if err != nil {
		lg := h.logger(c)
		lg.Error().Err(err).Msg("save calculation settings failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"id": id})
}
