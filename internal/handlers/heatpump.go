package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"geothermal_monitor/internal/device/heatpump"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errNoData        = "Données non disponibles. PAC en cours de connexion..."
	errNoRoomsData   = "Données des pièces non disponibles"
	errControlFields = `Paramètres "parameter" et "value" requis`
	errWritePrefix   = "Erreur écriture: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "request_id", requestID(c)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// ControlRequest is the body of a heat pump parameter write.
type ControlRequest struct {
	// Writable parameter name
	Parameter string `json:"parameter" example:"heating_target_temperature"`
	// Numeric value, or a numeric string
	Value interface{} `json:"value" swaggertype:"number" example:"1.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    statusOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// @Summary      Latest heat pump snapshot
// @Tags         heatpump
// @Produce      json
// @Success      200  {object}  models.HeatPumpSnapshot
// @Failure      503  {object}  map[string]string
// @Router       /api/data [get]
func (h *Handler) getData(c *gin.Context) {
	snap := h.services.HeatPump.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoData})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Heat pump and rooms snapshots
// @Description  Either side is null until its first poll completes.
// @Tags         heatpump
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "heatpump, rooms"
// @Router       /api/system [get]
func (h *Handler) getSystem(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"heatpump": h.services.HeatPump.Snapshot(),
		"rooms":    h.services.Rooms.Snapshot(),
	})
}

// @Summary      Heating curve
// @Description  Curve parameters as read from the heat pump and the sampled curve from -20 to +25 °C.
// @Tags         heatpump
// @Produce      json
// @Success      200  {object}  service.CurveReport
// @Failure      503  {object}  map[string]string
// @Router       /api/heating-curve [get]
func (h *Handler) getHeatingCurve(c *gin.Context) {
	report, ok := h.services.HeatPump.Curve()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoData})
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Write a heat pump parameter
// @Description  The parameter must be whitelisted and the value within its range; nothing is clamped.
// @Tags         heatpump
// @Accept       json
// @Produce      json
// @Param        body  body      ControlRequest  true  "Parameter write"
// @Success      200   {object}  map[string]interface{}  "success, parameter, value"
// @Failure      400   {object}  map[string]interface{}  "error, allowed | min, max, received"
// @Failure      500   {object}  map[string]string
// @Router       /api/controls [post]
func (h *Handler) postControls(c *gin.Context) {
	var req ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Parameter == "" || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errControlFields})
		return
	}

	value := toNumber(req.Value)
	if err := heatpump.Validate(req.Parameter, value); err != nil {
		var rangeErr *heatpump.RangeError
		switch {
		case errors.As(err, &rangeErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    fmt.Sprintf("Valeur hors plage pour %q", req.Parameter),
				"min":      rangeErr.Min,
				"max":      rangeErr.Max,
				"received": req.Value,
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   fmt.Sprintf("Paramètre %q non autorisé", req.Parameter),
				"allowed": heatpump.AllowedParams(),
			})
		}
		return
	}

	if err := h.services.HeatPump.WriteParameter(c.Request.Context(), req.Parameter, value); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errWritePrefix+err.Error(),
			"heatpump_write_failed", err, "parameter", req.Parameter, "value", value)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "parameter": req.Parameter, "value": value})
}

// toNumber converts a decoded JSON value to a float. Anything that is not a
// number or a numeric string yields NaN, which every range rejects.
func toNumber(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}
