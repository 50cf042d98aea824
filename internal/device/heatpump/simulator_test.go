package heatpump

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"geothermal_monitor/internal/models"
)

// simClock is a manually advanced clock.
type simClock struct{ t time.Time }

func (c *simClock) now() time.Time          { return c.t }
func (c *simClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSimClock() *simClock {
	return &simClock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func TestOutdoorAt_DailySwing(t *testing.T) {
	warm := OutdoorAt(time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC))
	cold := OutdoorAt(time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC))
	if math.Abs(warm-(SimOutdoorMeanC+SimOutdoorSwingC)) > 1e-9 {
		t.Fatalf("15:00 outdoor = %.2f", warm)
	}
	if math.Abs(cold-(SimOutdoorMeanC-SimOutdoorSwingC)) > 1e-9 {
		t.Fatalf("03:00 outdoor = %.2f", cold)
	}
}

func TestSimulator_SubSecondReadDoesNotAdvance(t *testing.T) {
	clk := newSimClock()
	sim := NewSimulator(clk.now)

	clk.advance(500 * time.Millisecond)
	r, err := sim.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Values["compressor1"] != false {
		t.Fatalf("compressor started before any time passed")
	}
	if r.Values["temperature_supply"] != SimRoomC {
		t.Fatalf("supply = %v, want %v", r.Values["temperature_supply"], SimRoomC)
	}
	if r.Values["opStateHeating"] != simStateIdle {
		t.Fatalf("state = %v, want idle", r.Values["opStateHeating"])
	}
}

func TestSimulator_CompressorStartsBelowReturnTarget(t *testing.T) {
	clk := newSimClock()
	sim := NewSimulator(clk.now)

	clk.advance(60 * time.Second)
	r, err := sim.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.Values["compressor1"] != true {
		t.Fatalf("compressor should run with a cold return")
	}
	if r.Values["starts_compressor1"] != 1 {
		t.Fatalf("starts = %v, want 1", r.Values["starts_compressor1"])
	}
	want := round1(SimRoomC + SimRampUpCPerSec*60)
	if r.Values["temperature_supply"] != want {
		t.Fatalf("supply = %v, want %v", r.Values["temperature_supply"], want)
	}
	if r.Values["opStateHeating"] != simStateHeating {
		t.Fatalf("state = %v, want heating", r.Values["opStateHeating"])
	}
}

func TestSimulator_HeatingOffKeepsCompressorIdle(t *testing.T) {
	clk := newSimClock()
	sim := NewSimulator(clk.now)
	if err := sim.Write(context.Background(), "heating_operation_mode", modeOff); err != nil {
		t.Fatalf("Write: %v", err)
	}

	clk.advance(10 * time.Minute)
	r, _ := sim.Read(context.Background())
	if r.Values["compressor1"] != false {
		t.Fatalf("compressor ran with heating off")
	}
	if r.Parameters["heating_operation_mode"] != float64(modeOff) {
		t.Fatalf("parameter not reported: %v", r.Parameters["heating_operation_mode"])
	}
}

func TestSimulator_HotWaterCycleHasPriority(t *testing.T) {
	clk := newSimClock()
	sim := NewSimulator(clk.now)
	if err := sim.Write(context.Background(), "warmwater_target_temperature", 60); err != nil {
		t.Fatalf("Write: %v", err)
	}

	clk.advance(100 * time.Second)
	r, _ := sim.Read(context.Background())
	if r.Values["BUPout"] != true || r.Values["HUPout"] != false {
		t.Fatalf("expected hot water valve only, got BUP=%v HUP=%v", r.Values["BUPout"], r.Values["HUPout"])
	}
	if r.Values["temperature_hot_water"] != 49.0 {
		t.Fatalf("tank = %v, want 49", r.Values["temperature_hot_water"])
	}
	if r.Values["opStateHeating"] != simStateHotWater {
		t.Fatalf("state = %v, want hot water", r.Values["opStateHeating"])
	}
}

func TestSimulator_WriteValidates(t *testing.T) {
	sim := NewSimulator(newSimClock().now)

	var rerr *RangeError
	if err := sim.Write(context.Background(), "heating_curve_end_point", 99); !errors.As(err, &rerr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if err := sim.Write(context.Background(), "compressor1", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestSimulator_CanceledContext(t *testing.T) {
	sim := NewSimulator(newSimClock().now)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sim.Read(ctx); err == nil {
		t.Fatalf("expected error on canceled context")
	}
}

func TestSimulator_DrivesClient(t *testing.T) {
	clk := newSimClock()
	c := NewClient(NewSimulator(clk.now))
	c.now = clk.now

	clk.advance(time.Minute)
	snap, err := c.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !snap.Connected || snap.OperatingState.Mode != models.ModeHeating {
		t.Fatalf("snapshot = connected %v mode %q", snap.Connected, snap.OperatingState.Mode)
	}
	if snap.HeatingCurve.EndPoint != 35 || snap.HeatingCurve.ParallelOffset != 22 {
		t.Fatalf("curve = %+v", snap.HeatingCurve)
	}
	if !snap.Outputs.Compressor || !snap.Outputs.HeatingPump {
		t.Fatalf("outputs = %+v", snap.Outputs)
	}
}
