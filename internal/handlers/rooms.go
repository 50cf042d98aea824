package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"geothermal_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Accepted ranges for room writes.
const (
	minRoomID   = 1
	maxRoomID   = 32
	minRoomTemp = 15.0
	maxRoomTemp = 28.0
)

const (
	errUnknownController = "Contrôleur inconnu"
	errInvalidRoomID     = "Identifiant de pièce invalide"
	errRoomTempRange     = "Température hors plage"
	errRoomTempRequired  = `Paramètre "temperature" requis`
	errLabelRequired     = `Paramètre "name" requis`
)

// RoomTemperatureRequest is the body of a room target write.
type RoomTemperatureRequest struct {
	Temperature *float64 `json:"temperature" example:"21.5"`
}

// RoomLabelRequest is the body of a room rename.
type RoomLabelRequest struct {
	Name string `json:"name" example:"Salon"`
}

// @Summary      Latest rooms snapshot
// @Tags         rooms
// @Produce      json
// @Success      200  {object}  models.RoomsSnapshot
// @Failure      503  {object}  map[string]string
// @Router       /api/rooms [get]
func (h *Handler) getRooms(c *gin.Context) {
	snap := h.services.Rooms.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoRoomsData})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// roomTarget validates the :controllerId and :roomId path parameters and
// writes the 400 response itself when they are invalid.
func (h *Handler) roomTarget(c *gin.Context) (string, int, bool) {
	controllerID := c.Param("controllerId")
	if !slices.Contains(h.services.Rooms.ControllerIDs(), controllerID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   errUnknownController,
			"allowed": h.services.Rooms.ControllerIDs(),
		})
		return "", 0, false
	}
	roomID, err := strconv.Atoi(c.Param("roomId"))
	if err != nil || roomID < minRoomID || roomID > maxRoomID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": errInvalidRoomID,
			"min":   minRoomID,
			"max":   maxRoomID,
		})
		return "", 0, false
	}
	return controllerID, roomID, true
}

// @Summary      Set a room target temperature
// @Description  Accepted by the controller; the thermostat applies it asynchronously.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        controllerId  path      string                  true  "Controller id"  example(rez)
// @Param        roomId        path      int                     true  "Room id (1-32)"
// @Param        body          body      RoomTemperatureRequest  true  "Target temperature (15-28)"
// @Success      200           {object}  map[string]interface{}
// @Failure      400           {object}  map[string]interface{}
// @Failure      500           {object}  map[string]string
// @Router       /api/rooms/{controllerId}/{roomId}/temperature [post]
func (h *Handler) setRoomTemperature(c *gin.Context) {
	controllerID, roomID, ok := h.roomTarget(c)
	if !ok {
		return
	}
	var req RoomTemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Temperature == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRoomTempRequired})
		return
	}
	temp := *req.Temperature
	if temp < minRoomTemp || temp > maxRoomTemp {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    errRoomTempRange,
			"min":      minRoomTemp,
			"max":      maxRoomTemp,
			"received": temp,
		})
		return
	}

	if err := h.services.Rooms.SetRoomTemperature(c.Request.Context(), controllerID, roomID, temp); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errWritePrefix+err.Error(),
			"room_temperature_write_failed", err, "controller", controllerID, "room", roomID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"controllerId": controllerID,
		"roomId":       roomID,
		"temperature":  temp,
	})
}

// @Summary      Room labels
// @Description  controllerId -> roomId -> name
// @Tags         rooms
// @Produce      json
// @Success      200  {object}  models.RoomLabels
// @Router       /api/rooms/labels [get]
func (h *Handler) getLabels(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Labels.All())
}

// @Summary      Rename a room
// @Description  The name overrides the controller-reported one from the next poll on.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        controllerId  path      string            true  "Controller id"  example(rez)
// @Param        roomId        path      int               true  "Room id (1-32)"
// @Param        body          body      RoomLabelRequest  true  "New name"
// @Success      200           {object}  map[string]interface{}
// @Failure      400           {object}  map[string]interface{}
// @Router       /api/rooms/{controllerId}/{roomId}/label [put]
func (h *Handler) setRoomLabel(c *gin.Context) {
	controllerID, roomID, ok := h.roomTarget(c)
	if !ok {
		return
	}
	var req RoomLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errLabelRequired})
		return
	}

	name, err := h.services.Labels.SetLabel(c.Request.Context(), controllerID, roomID, req.Name)
	if errors.Is(err, service.ErrEmptyLabel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errLabelRequired})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "Erreur: "+err.Error(),
			"room_label_failed", err, "controller", controllerID, "room", roomID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"controllerId": controllerID,
		"roomId":       roomID,
		"name":         name,
	})
}
