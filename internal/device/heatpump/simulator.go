package heatpump

import (
	"context"
	"math"
	"sync"
	"time"

	"geothermal_monitor/internal/device/luxtronik"
)

// ----------- Simulation constants -----------
const (
	SimOutdoorMeanC    = 5.0    // daily mean outdoor temperature °C
	SimOutdoorSwingC   = 6.0    // amplitude of the day/night swing °C
	SimRoomC           = 20.0   // idle floor loop settles here °C
	SimRampUpCPerSec   = 0.02   // supply warming while the compressor heats
	SimRampDownCPerSec = 0.005  // supply cooling while idle
	SimHotWaterCPerSec = 0.01   // tank warming during a hot water cycle
	SimTankLossCPerSec = 0.0005 // tank standing loss
	SimHysteresisC     = 2.0    // band around the return target
	SimCompressorKW    = 6.0    // thermal output while running
)

// Operating state integers, as reported by the controller.
const (
	simStateHeating  = 0
	simStateHotWater = 1
	simStateIdle     = 4
	modeOff          = 4
)

// Simulator is an in-process Driver that models a brine heat pump heating a
// floor loop and a hot water tank. State advances on every Read from the time
// elapsed since the previous one.
type Simulator struct {
	mu  sync.Mutex
	now func() time.Time

	last          time.Time
	supply        float64
	ret           float64
	tank          float64
	compressor    bool
	hotWaterCycle bool

	starts        int
	compressorSec float64
	heatingSec    float64
	hotWaterSec   float64
	heatingKWh    float64
	hotWaterKWh   float64
	params        map[string]float64
}

// NewSimulator returns a simulator at rest with factory settings.
func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		now:    now,
		last:   now(),
		supply: SimRoomC,
		ret:    SimRoomC,
		tank:   48,
		params: map[string]float64{
			"heating_target_temperature":    0,
			"warmwater_target_temperature":  50,
			"heating_operation_mode":        0,
			"warmwater_operation_mode":      0,
			"heating_curve_end_point":       35,
			"heating_curve_parallel_offset": 22,
			"deltaHeatingReduction":         0,
		},
	}
}

// Read advances the model and returns the current fields.
func (s *Simulator) Read(ctx context.Context) (luxtronik.Reading, error) {
	if err := ctx.Err(); err != nil {
		return luxtronik.Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.advance(now)
	return s.reading(now), nil
}

// Write applies a whitelisted parameter. The next Read reflects it.
func (s *Simulator) Write(ctx context.Context, name string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(name, value); err != nil {
		return err
	}
	s.mu.Lock()
	s.params[name] = value
	s.mu.Unlock()
	return nil
}

// OutdoorAt is the simulated outdoor temperature, warmest at 15:00 UTC.
func OutdoorAt(t time.Time) float64 {
	h := float64(t.UTC().Hour()) + float64(t.UTC().Minute())/60
	return SimOutdoorMeanC + SimOutdoorSwingC*math.Cos(2*math.Pi*(h-15)/24)
}

// returnTarget interpolates linearly between the curve's two anchors.
func (s *Simulator) returnTarget(outdoor float64) float64 {
	offset := s.params["heating_curve_parallel_offset"]
	end := s.params["heating_curve_end_point"]
	switch {
	case outdoor >= 20:
		return offset + s.params["heating_target_temperature"]
	case outdoor <= -15:
		return end + s.params["heating_target_temperature"]
	}
	return offset + (end-offset)*(20-outdoor)/35 + s.params["heating_target_temperature"]
}

// advance moves the model forward. Returns false when less than a second passed.
func (s *Simulator) advance(now time.Time) bool {
	elapsed := now.Sub(s.last).Seconds()
	if elapsed < 1 {
		return false
	}
	s.last = now

	target := s.returnTarget(OutdoorAt(now))
	heatingOff := s.params["heating_operation_mode"] == modeOff
	hotWaterOff := s.params["warmwater_operation_mode"] == modeOff
	tankTarget := s.params["warmwater_target_temperature"]

	// hot water has priority over the floor loop
	switch {
	case s.hotWaterCycle && (hotWaterOff || s.tank >= tankTarget):
		s.hotWaterCycle = false
	case !s.hotWaterCycle && !hotWaterOff && s.tank < tankTarget-5:
		s.hotWaterCycle = true
	}

	wasRunning := s.compressor
	switch {
	case s.hotWaterCycle:
		s.compressor = true
	case heatingOff:
		s.compressor = false
	case s.compressor && s.ret >= target:
		s.compressor = false
	case !s.compressor && s.ret < target-SimHysteresisC:
		s.compressor = true
	}
	if s.compressor && !wasRunning {
		s.starts++
	}

	if s.hotWaterCycle {
		s.tank = math.Min(s.tank+SimHotWaterCPerSec*elapsed, tankTarget)
		s.hotWaterSec += elapsed
		s.hotWaterKWh += SimCompressorKW * elapsed / 3600
	} else {
		s.tank = math.Max(s.tank-SimTankLossCPerSec*elapsed, SimRoomC)
	}

	if s.compressor && !s.hotWaterCycle {
		s.supply = math.Min(s.supply+SimRampUpCPerSec*elapsed, target+10)
		s.heatingSec += elapsed
		s.heatingKWh += SimCompressorKW * elapsed / 3600
		s.ret = s.supply - 5
	} else {
		s.supply = math.Max(s.supply-SimRampDownCPerSec*elapsed, SimRoomC)
		s.ret = math.Max(s.supply-2, SimRoomC)
	}
	if s.compressor {
		s.compressorSec += elapsed
	}
	return true
}

func (s *Simulator) state() int {
	switch {
	case s.hotWaterCycle:
		return simStateHotWater
	case s.compressor:
		return simStateHeating
	default:
		return simStateIdle
	}
}

func (s *Simulator) reading(now time.Time) luxtronik.Reading {
	outdoor := OutdoorAt(now)
	params := make(map[string]any, len(s.params))
	for k, v := range s.params {
		params[k] = v
	}
	return luxtronik.Reading{
		Values: map[string]any{
			"temperature_supply":          round1(s.supply),
			"temperature_return":          round1(s.ret),
			"temperature_target_return":   round1(s.returnTarget(outdoor)),
			"temperature_hot_gas":         round1(s.supply + 30*boolFactor(s.compressor)),
			"temperature_outside":         round1(outdoor),
			"temperature_outside_avg":     SimOutdoorMeanC,
			"temperature_hot_water":       round1(s.tank),
			"temperature_heat_source_in":  8.0,
			"temperature_heat_source_out": 8.0 - 3*boolFactor(s.compressor),
			"compressor1":                 s.compressor,
			"HUPout":                      s.compressor && !s.hotWaterCycle,
			"VBOout":                      s.compressor,
			"BUPout":                      s.hotWaterCycle,
			"ZUPout":                      false,
			"AVout":                       false,
			"hours_compressor1":           s.compressorSec / 3600,
			"starts_compressor1":          s.starts,
			"hours_heatpump":              s.compressorSec / 3600,
			"hours_heating":               s.heatingSec / 3600,
			"hours_hot_water":             s.hotWaterSec / 3600,
			"opStateHeating":              s.state(),
			"energy_heating":              round1(s.heatingKWh),
			"energy_hot_water":            round1(s.hotWaterKWh),
			"HDin_pressure":               18 * boolFactor(s.compressor),
			"NDin_pressure":               6.0,
		},
		Parameters: params,
	}
}

func boolFactor(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
