package service

import (
	"context"
	"errors"
	"fmt"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/metrics"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/repository"
)

var ErrNoControllerReachable = errors.New("no room controller reachable")

// HeatPumpReader yields a snapshot on every call, the disconnected one on failure.
type HeatPumpReader interface {
	ReadOrDisconnected(ctx context.Context) (*models.HeatPumpSnapshot, error)
}

// HeatPumpFetch adapts the heat pump client to a poller.
func HeatPumpFetch(r HeatPumpReader) FetchFunc[models.HeatPumpSnapshot] {
	return func(ctx context.Context, _ *models.HeatPumpSnapshot) (*models.HeatPumpSnapshot, error) {
		return r.ReadOrDisconnected(ctx)
	}
}

// RoomsReader polls every room controller, carrying forward from previous.
type RoomsReader interface {
	PollAll(ctx context.Context, previous *models.RoomsSnapshot) *models.RoomsSnapshot
}

// RoomsFetch adapts the room controller client to a poller.
func RoomsFetch(r RoomsReader) FetchFunc[models.RoomsSnapshot] {
	return func(ctx context.Context, previous *models.RoomsSnapshot) (*models.RoomsSnapshot, error) {
		snap := r.PollAll(ctx, previous)
		if snap != nil && !snap.Connected {
			return snap, ErrNoControllerReachable
		}
		return snap, nil
	}
}

// LoadRoomsCache seeds the rooms slot from the persisted snapshot.
func LoadRoomsCache(ctx context.Context, docs repository.Documents, slot *Slot[models.RoomsSnapshot], log *logger.Logger) error {
	var snap models.RoomsSnapshot
	found, err := docs.Load(ctx, repository.KeyRoomsCache, &snap)
	if err != nil || !found {
		return err
	}
	slot.Store(&snap)
	if log != nil {
		log.Infow("rooms_cache_loaded", "rooms", len(snap.Rooms), "timestamp", snap.Timestamp)
	}
	return nil
}

// ParameterWriter forwards heat pump parameter writes.
type ParameterWriter interface {
	WriteParameter(ctx context.Context, name string, value float64) error
}

type HeatPumpService struct {
	slot    *Slot[models.HeatPumpSnapshot]
	client  ParameterWriter
	journal Recorder
}

func NewHeatPumpService(slot *Slot[models.HeatPumpSnapshot], client ParameterWriter, journal Recorder) *HeatPumpService {
	return &HeatPumpService{slot: slot, client: client, journal: journal}
}

func (s *HeatPumpService) Snapshot() *models.HeatPumpSnapshot {
	return s.slot.Load()
}

// WriteParameter sends a validated write to the heat pump. The cache is not
// touched; the next poll reflects the change.
func (s *HeatPumpService) WriteParameter(ctx context.Context, name string, value float64) error {
	err := s.client.WriteParameter(ctx, name, value)
	metrics.IncDeviceWrite("heatpump", err)
	if err != nil {
		return err
	}
	if s.journal != nil {
		s.journal.Record(ctx, models.EventParameterWrite, fmt.Sprintf("%s = %g", name, value),
			map[string]any{"parameter": name, "value": value})
	}
	return nil
}

// Curve reports the heating curve, or false before the first successful read.
func (s *HeatPumpService) Curve() (CurveReport, bool) {
	snap := s.slot.Load()
	if snap == nil || !snap.Connected {
		return CurveReport{}, false
	}
	return BuildCurveReport(snap), true
}

// RoomTargetWriter forwards room target writes.
type RoomTargetWriter interface {
	ControllerIDs() []string
	SetRoomTemperature(ctx context.Context, controllerID string, roomID int, temperature float64) error
}

type RoomsService struct {
	slot    *Slot[models.RoomsSnapshot]
	client  RoomTargetWriter
	journal Recorder
}

func NewRoomsService(slot *Slot[models.RoomsSnapshot], client RoomTargetWriter, journal Recorder) *RoomsService {
	return &RoomsService{slot: slot, client: client, journal: journal}
}

func (s *RoomsService) Snapshot() *models.RoomsSnapshot {
	return s.slot.Load()
}

func (s *RoomsService) ControllerIDs() []string {
	return s.client.ControllerIDs()
}

func (s *RoomsService) SetRoomTemperature(ctx context.Context, controllerID string, roomID int, temperature float64) error {
	err := s.client.SetRoomTemperature(ctx, controllerID, roomID, temperature)
	metrics.IncDeviceWrite(controllerID, err)
	if err != nil {
		return err
	}
	if s.journal != nil {
		s.journal.Record(ctx, models.EventRoomTarget,
			fmt.Sprintf("%s/%d target = %g", controllerID, roomID, temperature),
			map[string]any{"controllerId": controllerID, "roomId": roomID, "temperature": temperature})
	}
	return nil
}
