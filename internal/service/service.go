package service

import (
	"context"

	"geothermal_monitor/internal/models"
)

// HeatPump exposes the cached heat pump state and parameter writes.
type HeatPump interface {
	Snapshot() *models.HeatPumpSnapshot
	WriteParameter(ctx context.Context, name string, value float64) error
	Curve() (CurveReport, bool)
}

// Rooms exposes the cached room state and room target writes.
type Rooms interface {
	Snapshot() *models.RoomsSnapshot
	ControllerIDs() []string
	SetRoomTemperature(ctx context.Context, controllerID string, roomID int, temperature float64) error
}

// Labels manages user-defined room names.
type Labels interface {
	All() models.RoomLabels
	SetLabel(ctx context.Context, controllerID string, roomID int, name string) (string, error)
}

// History exposes the sampled trend window and its on/off toggle.
type History interface {
	Points() []models.HistoryPoint
	Enabled() bool
	SetEnabled(ctx context.Context, enabled bool)
}

// EventLog exposes the control journal.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Service aggregates everything the HTTP layer needs.
type Service struct {
	HeatPump
	Rooms
	Labels
	History
	EventLog
}

func NewService(heatPump HeatPump, rooms Rooms, labels Labels, history History, events EventLog) *Service {
	return &Service{
		HeatPump: heatPump,
		Rooms:    rooms,
		Labels:   labels,
		History:  history,
		EventLog: events,
	}
}
