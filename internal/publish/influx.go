package publish

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"geothermal_monitor/internal/config"
	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/service"
)

const (
	influxConnectTimeout = 10 * time.Second
	influxBatchSize      = 50
	influxFlushMillis    = 10_000
)

// pointWriter is the subset of api.WriteAPI used here.
type pointWriter interface {
	WritePoint(p *write.Point)
	Flush()
}

// InfluxWriter mirrors history points and heat pump readings into InfluxDB.
// Writes are batched and non-blocking; async failures are logged.
type InfluxWriter struct {
	client influxdb2.Client
	writer pointWriter
	log    *logger.Logger
}

// ConnectInflux pings the server and opens a batching write API.
func ConnectInflux(cfg config.InfluxConfig, log *logger.Logger) (*InfluxWriter, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if log == nil {
		log = logger.Nop()
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(influxBatchSize).
			SetFlushInterval(influxFlushMillis))

	ctx, cancel := context.WithTimeout(context.Background(), influxConnectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Warnw("influx_write_failed", "err", err)
		}
	}()

	return &InfluxWriter{client: client, writer: writeAPI, log: log}, nil
}

// WritePoint implements service.HistoryMirror.
func (w *InfluxWriter) WritePoint(_ context.Context, p models.HistoryPoint) error {
	w.writer.WritePoint(historyPoint(p))
	return nil
}

// WriteHeatPump records one connected heat pump reading.
func (w *InfluxWriter) WriteHeatPump(_ context.Context, s *models.HeatPumpSnapshot) error {
	if s == nil || !s.Connected {
		return nil
	}
	w.writer.WritePoint(heatPumpPoint(s))
	return nil
}

func (w *InfluxWriter) HeatPumpConsumer() service.Consumer[models.HeatPumpSnapshot] {
	return service.Consumer[models.HeatPumpSnapshot]{Name: "influx", Fn: w.WriteHeatPump}
}

// Close flushes pending points and closes the client.
func (w *InfluxWriter) Close() {
	if w == nil {
		return
	}
	w.writer.Flush()
	if w.client != nil {
		w.client.Close()
	}
}

func historyPoint(p models.HistoryPoint) *write.Point {
	fields := map[string]interface{}{
		"outdoor":       p.OutdoorTemp,
		"return":        p.ReturnTemp,
		"return_target": p.ReturnTarget,
		"flow":          p.FlowTemp,
	}
	if p.AvgRoomTemp != nil {
		fields["avg_room"] = *p.AvgRoomTemp
	}
	if p.AvgRoomTarget != nil {
		fields["avg_room_target"] = *p.AvgRoomTarget
	}
	return write.NewPoint("history", nil, fields, time.UnixMilli(p.Timestamp))
}

func heatPumpPoint(s *models.HeatPumpSnapshot) *write.Point {
	t := s.Temperatures
	return write.NewPoint("heatpump",
		map[string]string{"mode": s.OperatingState.Mode},
		map[string]interface{}{
			"outdoor":        t.Outdoor,
			"flow":           t.HeatingFlow,
			"return":         t.HeatingReturn,
			"return_target":  t.HeatingReturnTarget,
			"hot_water":      t.HotWater,
			"source_in":      t.SourceIn,
			"source_out":     t.SourceOut,
			"compressor":     s.Outputs.Compressor,
			"pressure_high":  s.Pressures.High,
			"pressure_low":   s.Pressures.Low,
			"heating_energy": s.Runtime.HeatingEnergy,
		},
		s.Timestamp)
}
