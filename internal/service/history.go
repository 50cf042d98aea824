package service

import (
	"context"
	"math"
	"sync"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/repository"
)

const (
	DefaultSampleInterval = 10 * time.Minute
	DefaultRetention      = 24 * time.Hour
)

// excludedModes are heat pump modes whose temperatures say nothing about floor heating.
var excludedModes = map[string]bool{
	models.ModeHotWater: true,
	models.ModePool:     true,
	models.ModeDefrost:  true,
}

// HistoryMirror receives every appended point, e.g. a time-series database.
type HistoryMirror interface {
	WritePoint(ctx context.Context, p models.HistoryPoint) error
}

// HistorySampler records a rolling window of temperature points.
type HistorySampler struct {
	docs      repository.Documents
	heatPump  *Slot[models.HeatPumpSnapshot]
	rooms     *Slot[models.RoomsSnapshot]
	interval  time.Duration
	retention time.Duration
	mirror    HistoryMirror
	journal   Recorder
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	points  []models.HistoryPoint
	enabled bool
	base    context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

type HistoryOptions struct {
	Interval  time.Duration
	Retention time.Duration
	Mirror    HistoryMirror
	Journal   Recorder
}

func NewHistorySampler(docs repository.Documents, heatPump *Slot[models.HeatPumpSnapshot], rooms *Slot[models.RoomsSnapshot], opts HistoryOptions, log *logger.Logger) *HistorySampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSampleInterval
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if log == nil {
		log = logger.Nop()
	}
	return &HistorySampler{
		docs:      docs,
		heatPump:  heatPump,
		rooms:     rooms,
		interval:  opts.Interval,
		retention: opts.Retention,
		mirror:    opts.Mirror,
		journal:   opts.Journal,
		log:       log,
		now:       time.Now,
		points:    []models.HistoryPoint{},
		enabled:   true,
	}
}

// Load restores settings and points, dropping points outside the retention window.
func (s *HistorySampler) Load(ctx context.Context) error {
	settings := models.HistorySettings{Enabled: true}
	if _, err := s.docs.Load(ctx, repository.KeyHistorySettings, &settings); err != nil {
		return err
	}
	var points []models.HistoryPoint
	if _, err := s.docs.Load(ctx, repository.KeyHistory, &points); err != nil {
		return err
	}

	s.mu.Lock()
	s.enabled = settings.Enabled
	s.points = s.prune(points)
	n := len(s.points)
	s.mu.Unlock()

	s.log.Infow("history_loaded", "points", n, "enabled", settings.Enabled)
	return nil
}

// prune keeps points strictly newer than now - retention. Caller holds mu.
func (s *HistorySampler) prune(points []models.HistoryPoint) []models.HistoryPoint {
	cutoff := s.now().Add(-s.retention).UnixMilli()
	out := make([]models.HistoryPoint, 0, len(points))
	for _, p := range points {
		if p.Timestamp > cutoff {
			out = append(out, p)
		}
	}
	return out
}

// Start takes a sample right away and then one per interval, if sampling is enabled.
func (s *HistorySampler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	enabled := s.enabled
	s.mu.Unlock()

	if !enabled {
		s.log.Infow("history_disabled")
		return
	}
	s.resume()
}

// resume samples once and starts the timer unless it is already running.
func (s *HistorySampler) resume() {
	s.mu.Lock()
	if s.cancel != nil || s.base == nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.Sample(ctx)
	go s.run(ctx, done)
	s.log.Infow("history_sampling_started", "interval", s.interval)
}

func (s *HistorySampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sample(ctx)
		}
	}
}

// Stop cancels the timer. Points and settings are untouched.
func (s *HistorySampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		s.log.Infow("history_sampling_stopped")
	}
}

func (s *HistorySampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *HistorySampler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled persists the toggle. Enabling resumes sampling with an immediate
// sample; disabling only stops the timer.
func (s *HistorySampler) SetEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()

	if err := s.docs.Save(ctx, repository.KeyHistorySettings, models.HistorySettings{Enabled: enabled}); err != nil {
		s.log.Errorw("history_settings_save_failed", "err", err)
	}
	if s.journal != nil {
		s.journal.Record(ctx, models.EventHistoryToggle, "history sampling toggled", map[string]any{"enabled": enabled})
	}

	if enabled {
		s.resume()
	} else {
		s.Stop()
	}
}

// Points returns a copy of the recorded window, oldest first.
func (s *HistorySampler) Points() []models.HistoryPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryPoint, len(s.points))
	copy(out, s.points)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roomAverages(rooms *models.RoomsSnapshot) (avgTemp, avgTarget *float64) {
	if rooms == nil || len(rooms.Rooms) == 0 {
		return nil, nil
	}
	var sumActual, sumTarget float64
	for _, r := range rooms.Rooms {
		sumActual += r.ActualTemperature
		sumTarget += r.TargetTemperature
	}
	n := float64(len(rooms.Rooms))
	a, t := round1(sumActual/n), round1(sumTarget/n)
	return &a, &t
}

// Sample appends one point built from the cached snapshots. It reports
// whether a point was recorded.
func (s *HistorySampler) Sample(ctx context.Context) bool {
	hp := s.heatPump.Load()
	if hp == nil || !hp.Connected {
		return false
	}
	mode := hp.OperatingState.Mode
	if excludedModes[mode] {
		s.log.Debugw("history_sample_skipped", "mode", mode)
		return false
	}

	avgTemp, avgTarget := roomAverages(s.rooms.Load())
	point := models.HistoryPoint{
		Timestamp:     s.now().UnixMilli(),
		OutdoorTemp:   hp.Temperatures.Outdoor,
		ReturnTemp:    hp.Temperatures.HeatingReturn,
		ReturnTarget:  hp.Temperatures.HeatingReturnTarget,
		FlowTemp:      hp.Temperatures.HeatingFlow,
		AvgRoomTemp:   avgTemp,
		AvgRoomTarget: avgTarget,
	}

	s.mu.Lock()
	s.points = append(s.prune(s.points), point)
	snapshot := make([]models.HistoryPoint, len(s.points))
	copy(snapshot, s.points)
	s.mu.Unlock()

	if err := s.docs.Save(ctx, repository.KeyHistory, snapshot); err != nil {
		s.log.Errorw("history_save_failed", "err", err)
	}
	if s.mirror != nil {
		if err := s.mirror.WritePoint(ctx, point); err != nil {
			s.log.Warnw("history_mirror_failed", "err", err)
		}
	}
	s.log.Infow("history_sampled", "points", len(snapshot), "outdoor", point.OutdoorTemp)
	return true
}
