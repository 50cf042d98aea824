package nussbaum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"sync"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	roomsPath    = "/api/rooms/"
	settingsPath = "/api/settings/"
	settingsPost = "/api/settings/update/"
)

var (
	ErrUnknownController = errors.New("unknown controller")
	ErrRoomNotFound      = errors.New("room not found")
)

// Controller is one configured base station.
type Controller struct {
	ID   string
	Name string
	Host string
}

// LabelProvider returns user-defined room names.
type LabelProvider interface {
	Label(controllerID string, roomID int) (string, bool)
}

type Options struct {
	Timeout time.Duration
	// MaxStale drops carried-forward rooms of a failing controller once its last
	// successful read is older than this. Zero never drops them.
	MaxStale time.Duration
}

// Client talks to every configured controller.
type Client struct {
	transport   *Transport
	controllers []Controller
	labels      LabelProvider
	maxStale    time.Duration
	now         func() time.Time
	log         *logger.Logger
}

func NewClient(controllers []Controller, labels LabelProvider, opts Options, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		transport:   NewTransport(opts.Timeout),
		controllers: controllers,
		labels:      labels,
		maxStale:    opts.MaxStale,
		now:         time.Now,
		log:         log,
	}
}

// Controllers returns the configured controllers.
func (c *Client) Controllers() []Controller {
	return c.controllers
}

// ControllerIDs returns the configured controller ids.
func (c *Client) ControllerIDs() []string {
	ids := make([]string, 0, len(c.controllers))
	for _, ctrl := range c.controllers {
		ids = append(ids, ctrl.ID)
	}
	return ids
}

func (c *Client) controller(id string) (Controller, error) {
	for _, ctrl := range c.controllers {
		if ctrl.ID == id {
			return ctrl, nil
		}
	}
	return Controller{}, fmt.Errorf("%w: %s", ErrUnknownController, id)
}

func (c *Client) roomName(ctrl Controller, id int, raw map[string]any) string {
	if c.labels != nil {
		if name, ok := c.labels.Label(ctrl.ID, id); ok && name != "" {
			return name
		}
	}
	if name := asString(raw["name"]); name != "" {
		return name
	}
	return fmt.Sprintf("Pièce %d", id)
}

// ReadController reads rooms and settings of one controller concurrently.
// coolingHint is used when the settings do not carry a cooling flag.
func (c *Client) ReadController(ctx context.Context, ctrl Controller, coolingHint bool) ([]models.Room, models.ControllerStatus, error) {
	var roomsRes, settingsRes any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		roomsRes, err = c.transport.Get(gctx, ctrl.Host, roomsPath)
		return err
	})
	g.Go(func() (err error) {
		settingsRes, err = c.transport.Get(gctx, ctrl.Host, settingsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, models.ControllerStatus{}, err
	}

	settings, _ := settingsRes.(map[string]any)
	cooling := coolingHint
	if b, ok := asBool(settings["cooling"]); ok {
		cooling = b
	}
	ctrlErrors := []string{}
	if list, ok := settings["errors"].([]any); ok {
		for _, e := range list {
			ctrlErrors = append(ctrlErrors, formValue(e))
		}
	}

	raw := roomList(roomsRes)
	rooms := make([]models.Room, 0, len(raw))
	for _, r := range raw {
		id, _ := parseRoomID(r)
		actual := floatOr(r["actualTemperature"], 0)
		target := floatOr(r["temperature"], 0)
		rooms = append(rooms, models.Room{
			ID:                id,
			Name:              c.roomName(ctrl, id, r),
			ControllerID:      ctrl.ID,
			ControllerName:    ctrl.Name,
			ActualTemperature: actual,
			TargetTemperature: target,
			BatteryLevel:      levelToPercent(int(floatOr(r["thermostatBatteryLevel"], 0))),
			SignalStrength:    int(floatOr(r["thermostatSignalStrength"], 0)),
			Demanding:         models.IsDemanding(cooling, actual, target),
		})
	}

	status := models.ControllerStatus{
		ID:          ctrl.ID,
		Name:        ctrl.Name,
		Host:        ctrl.Host,
		Connected:   true,
		Cooling:     cooling,
		Diagnose:    floatOr(settings["diagnose"], 0),
		Errors:      ctrlErrors,
		LastSuccess: c.now().UTC(),
	}
	return rooms, status, nil
}

type controllerResult struct {
	rooms  []models.Room
	status models.ControllerStatus
	err    error
}

// PollAll reads every controller concurrently. Each controller settles on its
// own: a failing one is reported disconnected and its rooms are carried from
// previous, subject to MaxStale.
func (c *Client) PollAll(ctx context.Context, previous *models.RoomsSnapshot) *models.RoomsSnapshot {
	results := make([]controllerResult, len(c.controllers))
	var wg sync.WaitGroup
	for i, ctrl := range c.controllers {
		wg.Add(1)
		go func(i int, ctrl Controller) {
			defer wg.Done()
			rooms, status, err := c.ReadController(ctx, ctrl, false)
			results[i] = controllerResult{rooms: rooms, status: status, err: err}
		}(i, ctrl)
	}
	wg.Wait()

	now := c.now().UTC()
	snap := &models.RoomsSnapshot{
		Timestamp:   now,
		Controllers: make([]models.ControllerStatus, 0, len(c.controllers)),
		Rooms:       []models.Room{},
	}
	for i, ctrl := range c.controllers {
		res := results[i]
		if res.err == nil {
			snap.Rooms = append(snap.Rooms, res.rooms...)
			snap.Controllers = append(snap.Controllers, res.status)
			snap.Connected = true
			snap.Cooling = snap.Cooling || res.status.Cooling
			continue
		}

		c.log.Warnw("controller_read_failed", "controller", ctrl.ID, "host", ctrl.Host, "err", res.err)
		status := models.ControllerStatus{
			ID:     ctrl.ID,
			Name:   ctrl.Name,
			Host:   ctrl.Host,
			Errors: []string{res.err.Error()},
		}
		if previous != nil {
			if prev, ok := previous.Controller(ctrl.ID); ok {
				status.LastSuccess = prev.LastSuccess
			}
			if c.fresh(status.LastSuccess, now) {
				if stale := previous.RoomsOf(ctrl.ID); len(stale) > 0 {
					c.log.Infow("controller_rooms_carried", "controller", ctrl.ID, "rooms", len(stale))
					snap.Rooms = append(snap.Rooms, stale...)
				}
			}
		}
		snap.Controllers = append(snap.Controllers, status)
	}
	snap.Demand = Summarize(snap.Rooms, snap.Cooling)
	return snap
}

func (c *Client) fresh(lastSuccess, now time.Time) bool {
	if c.maxStale <= 0 {
		return true
	}
	return !lastSuccess.IsZero() && now.Sub(lastSuccess) <= c.maxStale
}

// Summarize counts demanding rooms and finds the largest gap to target.
func Summarize(rooms []models.Room, cooling bool) models.DemandSummary {
	sum := models.DemandSummary{TotalRooms: len(rooms)}
	maxDelta := 0.0
	for _, r := range rooms {
		if r.Demanding {
			sum.DemandingRooms++
		}
		delta := r.TargetTemperature - r.ActualTemperature
		if cooling {
			delta = -delta
		}
		if delta > maxDelta {
			maxDelta = delta
			sum.MaxDeltaRoom = r.Name
		}
	}
	sum.MaxDelta = math.Round(maxDelta*10) / 10
	return sum
}

// SetCoolingMode rewrites the controller settings with the cooling flag changed.
func (c *Client) SetCoolingMode(ctx context.Context, controllerID string, cooling bool) error {
	ctrl, err := c.controller(controllerID)
	if err != nil {
		return err
	}
	res, err := c.transport.Get(ctx, ctrl.Host, settingsPath)
	if err != nil {
		return fmt.Errorf("read settings of %s: %w", ctrl.ID, err)
	}
	settings, _ := res.(map[string]any)

	form := url.Values{}
	for k, v := range settings {
		form.Set(k, formValue(v))
	}
	form.Set("cooling", strconv.FormatBool(cooling))

	if _, err := c.transport.Post(ctx, ctrl.Host, settingsPost, form); err != nil {
		return fmt.Errorf("update settings of %s: %w", ctrl.ID, err)
	}
	c.log.Infow("controller_cooling_set", "controller", ctrl.ID, "cooling", cooling)
	return nil
}

// SetRoomTemperature posts the full room object with a new target. The
// controller propagates the change to the thermostat within a minute or so.
func (c *Client) SetRoomTemperature(ctx context.Context, controllerID string, roomID int, temperature float64) error {
	ctrl, err := c.controller(controllerID)
	if err != nil {
		return err
	}
	res, err := c.transport.Get(ctx, ctrl.Host, roomsPath)
	if err != nil {
		return fmt.Errorf("read rooms of %s: %w", ctrl.ID, err)
	}

	var room map[string]any
	for _, r := range roomList(res) {
		if id, ok := parseRoomID(r); ok && id == roomID {
			room = r
			break
		}
	}
	if room == nil {
		return fmt.Errorf("%w: %d on %s", ErrRoomNotFound, roomID, ctrl.ID)
	}

	form := url.Values{}
	for k, v := range room {
		form.Set(k, formValue(v))
	}
	form.Set("temperature", strconv.FormatFloat(temperature, 'f', -1, 64))
	form.Set("changed", "1")

	path := fmt.Sprintf("/api/base-stations/%s/rooms/%d/update/", formValue(room["baseStation"]), roomID)
	if _, err := c.transport.Post(ctx, ctrl.Host, path, form); err != nil {
		return fmt.Errorf("update room %d of %s: %w", roomID, ctrl.ID, err)
	}
	c.log.Infow("room_target_set", "controller", ctrl.ID, "room", roomID, "temperature", temperature)
	return nil
}
