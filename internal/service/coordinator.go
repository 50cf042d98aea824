package service

import (
	"context"
	"fmt"
	"sync"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/metrics"
	"geothermal_monitor/internal/models"
)

// CoolingState is the coordinator's memory of the heat pump mode.
type CoolingState int

const (
	CoolingUnknown CoolingState = iota
	CoolingOff
	CoolingOn
)

func (s CoolingState) String() string {
	switch s {
	case CoolingOff:
		return "heating"
	case CoolingOn:
		return "cooling"
	default:
		return "unknown"
	}
}

// CoolingSetter is the room controller side of the cooling sync.
type CoolingSetter interface {
	ControllerIDs() []string
	SetCoolingMode(ctx context.Context, controllerID string, cooling bool) error
}

// Coordinator propagates heat pump heating/cooling transitions to every room
// controller, once per transition.
type Coordinator struct {
	rooms   CoolingSetter
	journal Recorder
	log     *logger.Logger

	mu    sync.Mutex
	state CoolingState
}

func NewCoordinator(rooms CoolingSetter, journal Recorder, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{rooms: rooms, journal: journal, log: log}
}

func (c *Coordinator) State() CoolingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Observe inspects one heat pump snapshot. The first observation only records
// the mode. Nil and disconnected snapshots are skipped and leave the state
// unchanged, so a lost link never counts as leaving cooling.
func (c *Coordinator) Observe(ctx context.Context, snap *models.HeatPumpSnapshot) error {
	if snap == nil || !snap.Connected {
		return nil
	}
	next := CoolingOff
	if snap.IsCooling() {
		next = CoolingOn
	}

	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	switch {
	case prev == CoolingUnknown:
		c.log.Infow("cooling_state_initial", "state", next.String())
		return nil
	case prev == next:
		return nil
	}

	c.log.Infow("cooling_transition", "from", prev.String(), "to", next.String())
	c.sync(ctx, next == CoolingOn)
	return nil
}

// sync writes the flag to all controllers concurrently. Failures are logged
// and left for the next transition or a manual fix.
func (c *Coordinator) sync(ctx context.Context, cooling bool) {
	ids := c.rooms.ControllerIDs()
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := c.rooms.SetCoolingMode(ctx, id, cooling)
			metrics.IncDeviceWrite(id, err)
			if err != nil {
				c.log.Errorw("cooling_sync_failed", "controller", id, "cooling", cooling, "err", err)
			}
		}(id)
	}
	wg.Wait()

	metrics.IncCoolingSwitch(cooling)
	if c.journal != nil {
		c.journal.Record(ctx, models.EventCoolingSwitch,
			fmt.Sprintf("cooling=%t sent to %d controllers", cooling, len(ids)),
			map[string]any{"cooling": cooling, "controllers": ids})
	}
}

// Consumer adapts Observe to the heat pump poller.
func (c *Coordinator) Consumer() Consumer[models.HeatPumpSnapshot] {
	return Consumer[models.HeatPumpSnapshot]{Name: "coordinator", Fn: c.Observe}
}
