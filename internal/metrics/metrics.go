package metrics

import (
	"sync"
	"time"

	"geothermal_monitor/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "geothermal_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	pollTotal   *prometheus.CounterVec
	pollLatency *prometheus.HistogramVec

	heatPumpConnected prometheus.Gauge
	heatPumpTemp      *prometheus.GaugeVec
	heatPumpOutput    *prometheus.GaugeVec
	heatPumpCooling   prometheus.Gauge

	controllerConnected *prometheus.GaugeVec
	roomTemp            *prometheus.GaugeVec
	roomsDemanding      prometheus.Gauge

	coolingSwitches *prometheus.CounterVec
	deviceWrites    *prometheus.CounterVec
	wsClients       prometheus.Gauge
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		pollTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_total",
				Help: "Total device polls by poller and result",
			},
			[]string{"poller", "result"},
		)
		pollLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "poll_latency_seconds",
				Help:    "Device poll latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"poller"},
		)
		heatPumpConnected = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "heatpump_connected",
			Help: "1 when the last heat pump read succeeded",
		})
		heatPumpTemp = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "heatpump_temperature_celsius",
				Help: "Heat pump temperatures by sensor",
			},
			[]string{"sensor"},
		)
		heatPumpOutput = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "heatpump_output_on",
				Help: "Heat pump outputs, 1 when running",
			},
			[]string{"output"},
		)
		heatPumpCooling = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "heatpump_cooling",
			Help: "1 when the heat pump runs in cooling mode",
		})
		controllerConnected = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "controller_connected",
				Help: "1 when the room controller answered the last poll",
			},
			[]string{"controller"},
		)
		roomTemp = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "room_temperature_celsius",
				Help: "Room temperatures by controller, room and kind (actual|target)",
			},
			[]string{"controller", "room", "kind"},
		)
		roomsDemanding = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "rooms_demanding",
			Help: "Number of rooms still away from their target",
		})
		coolingSwitches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cooling_switches_total",
				Help: "Heating/cooling switches propagated to room controllers",
			},
			[]string{"mode"},
		)
		deviceWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_writes_total",
				Help: "Writes sent to devices by target and result",
			},
			[]string{"target", "result"},
		)
		wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "websocket_clients",
			Help: "Connected push channel clients",
		})

		prometheus.MustRegister(
			pollTotal,
			pollLatency,
			heatPumpConnected,
			heatPumpTemp,
			heatPumpOutput,
			heatPumpCooling,
			controllerConnected,
			roomTemp,
			roomsDemanding,
			coolingSwitches,
			deviceWrites,
			wsClients,
		)
	})
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ObservePoll records one poller tick.
func ObservePoll(poller string, duration time.Duration, err error) {
	if pollTotal != nil {
		pollTotal.WithLabelValues(poller, result(err)).Inc()
	}
	if pollLatency != nil {
		pollLatency.WithLabelValues(poller).Observe(duration.Seconds())
	}
}

// ObserveHeatPump exports the gauges of a heat pump snapshot.
func ObserveHeatPump(s *models.HeatPumpSnapshot) {
	if s == nil || heatPumpConnected == nil {
		return
	}
	heatPumpConnected.Set(boolGauge(s.Connected))
	heatPumpCooling.Set(boolGauge(s.IsCooling()))
	if !s.Connected {
		return
	}
	t := s.Temperatures
	for sensor, v := range map[string]float64{
		"outdoor":        t.Outdoor,
		"outdoor_avg24h": t.OutdoorAvg24h,
		"flow":           t.HeatingFlow,
		"return":         t.HeatingReturn,
		"return_target":  t.HeatingReturnTarget,
		"hot_water":      t.HotWater,
		"source_in":      t.SourceIn,
		"source_out":     t.SourceOut,
		"hot_gas":        t.HotGas,
	} {
		heatPumpTemp.WithLabelValues(sensor).Set(v)
	}
	o := s.Outputs
	for output, on := range map[string]bool{
		"compressor":         o.Compressor,
		"heating_pump":       o.HeatingPump,
		"brine_pump":         o.BrinePump,
		"hot_water_valve":    o.HotWaterValve,
		"recirculation_pump": o.RecirculationPump,
		"defrost_valve":      o.DefrostValve,
	} {
		heatPumpOutput.WithLabelValues(output).Set(boolGauge(on))
	}
}

// ObserveRooms exports the gauges of a rooms snapshot.
func ObserveRooms(s *models.RoomsSnapshot) {
	if s == nil || controllerConnected == nil {
		return
	}
	for _, c := range s.Controllers {
		controllerConnected.WithLabelValues(c.ID).Set(boolGauge(c.Connected))
	}
	for _, r := range s.Rooms {
		roomTemp.WithLabelValues(r.ControllerID, r.Name, "actual").Set(r.ActualTemperature)
		roomTemp.WithLabelValues(r.ControllerID, r.Name, "target").Set(r.TargetTemperature)
	}
	roomsDemanding.Set(float64(s.Demand.DemandingRooms))
}

// IncCoolingSwitch counts a propagated mode change.
func IncCoolingSwitch(cooling bool) {
	if coolingSwitches == nil {
		return
	}
	mode := "heating"
	if cooling {
		mode = "cooling"
	}
	coolingSwitches.WithLabelValues(mode).Inc()
}

// IncDeviceWrite counts a write sent to a device (heatpump or a controller id).
func IncDeviceWrite(target string, err error) {
	if target == "" {
		target = "unknown"
	}
	if deviceWrites != nil {
		deviceWrites.WithLabelValues(target, result(err)).Inc()
	}
}

// SetWebSocketClients reports the number of connected push clients.
func SetWebSocketClients(n int) {
	if wsClients != nil {
		wsClients.Set(float64(n))
	}
}
