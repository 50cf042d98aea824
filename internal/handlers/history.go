package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HistorySettingsRequest toggles periodic sampling.
type HistorySettingsRequest struct {
	Enabled *bool `json:"enabled" example:"true"`
}

// @Summary      Temperature history
// @Description  Rolling 24h window, oldest first. Timestamps are unix milliseconds.
// @Tags         history
// @Produce      json
// @Success      200  {array}  models.HistoryPoint
// @Router       /api/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.History.Points())
}

// @Summary      History sampling settings
// @Tags         history
// @Produce      json
// @Success      200  {object}  models.HistorySettings
// @Router       /api/history/settings [get]
func (h *Handler) getHistorySettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.services.History.Enabled()})
}

// @Summary      Enable or disable history sampling
// @Description  Enabling takes a sample immediately. Recorded points are kept either way.
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        body  body      HistorySettingsRequest  true  "Toggle"
// @Success      200   {object}  models.HistorySettings
// @Failure      400   {object}  map[string]string
// @Router       /api/history/settings [post]
func (h *Handler) setHistorySettings(c *gin.Context) {
	var req HistorySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Paramètre "enabled" requis`})
		return
	}
	h.services.History.SetEnabled(c.Request.Context(), *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": h.services.History.Enabled()})
}
