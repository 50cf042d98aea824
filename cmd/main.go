package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "geothermal_monitor/docs"
	"geothermal_monitor/internal/config"
	"geothermal_monitor/internal/device/heatpump"
	"geothermal_monitor/internal/device/luxtronik"
	"geothermal_monitor/internal/device/nussbaum"
	"geothermal_monitor/internal/handlers"
	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/metrics"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/publish"
	"geothermal_monitor/internal/repository"
	"geothermal_monitor/internal/repository/db"
	"geothermal_monitor/internal/server"
	"geothermal_monitor/internal/service"
)

const shutdownTimeout = 10 * time.Second

// publishers holds the optional outbound sinks. Either field may be nil.
type publishers struct {
	mqtt   *publish.MQTTPublisher
	influx *publish.InfluxWriter
}

func main() {
	cfg, err := config.Load("configs")
	log := logger.Get(cfg.LogLevel)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	metrics.Init()

	// open DB
	conn, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer closeDB(conn, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos := repository.NewRepository(conn)
	journal := service.NewEventLogService(repos.EventRepo, log)

	labels := service.NewLabelStore(repos.Documents, journal, log)
	if err := labels.Load(ctx); err != nil {
		log.Warnw("room_labels_load_failed", "err", err)
	}

	// devices
	var driver heatpump.Driver = luxtronik.NewClient(cfg.HeatPump.Addr(), cfg.HeatPump.Timeout)
	if cfg.HeatPump.Simulate {
		log.Warnw("heatpump_simulated", "reason", "heatpump.simulate is set")
		driver = heatpump.NewSimulator(time.Now)
	}
	pac := heatpump.NewClient(driver)
	rooms := nussbaum.NewClient(controllers(cfg), labels, nussbaum.Options{
		Timeout:  cfg.Rooms.Timeout,
		MaxStale: cfg.Rooms.MaxStale,
	}, log)

	heatPumpSlot := &service.Slot[models.HeatPumpSnapshot]{}
	roomsSlot := &service.Slot[models.RoomsSnapshot]{}
	if err := service.LoadRoomsCache(ctx, repos.Documents, roomsSlot, log); err != nil {
		log.Warnw("rooms_cache_load_failed", "err", err)
	}
	roomsCache := service.NewFlusher(repos.Documents, repository.KeyRoomsCache, log)

	hub := handlers.NewHub(log)
	coordinator := service.NewCoordinator(rooms, journal, log)
	pubs := connectPublishers(cfg, log)

	heatPumpConsumers := []service.Consumer[models.HeatPumpSnapshot]{
		{Name: "metrics", Fn: func(_ context.Context, s *models.HeatPumpSnapshot) error {
			metrics.ObserveHeatPump(s)
			return nil
		}},
		hub.HeatPumpConsumer(),
	}
	roomsConsumers := []service.Consumer[models.RoomsSnapshot]{
		{Name: "persist", Fn: func(_ context.Context, s *models.RoomsSnapshot) error {
			roomsCache.Submit(s)
			return nil
		}},
		{Name: "metrics", Fn: func(_ context.Context, s *models.RoomsSnapshot) error {
			metrics.ObserveRooms(s)
			return nil
		}},
		hub.RoomsConsumer(),
	}
	if pubs.mqtt != nil {
		heatPumpConsumers = append(heatPumpConsumers, pubs.mqtt.HeatPumpConsumer())
		roomsConsumers = append(roomsConsumers, pubs.mqtt.RoomsConsumer())
	}
	if pubs.influx != nil {
		heatPumpConsumers = append(heatPumpConsumers, pubs.influx.HeatPumpConsumer())
	}
	// cooling sync runs last so broadcasts are not delayed by controller writes
	heatPumpConsumers = append(heatPumpConsumers, coordinator.Consumer())

	heatPumpPoller := service.NewPoller("heatpump", cfg.HeatPump.PollInterval, heatPumpSlot,
		service.HeatPumpFetch(pac), log, heatPumpConsumers...)
	roomsPoller := service.NewPoller("rooms", cfg.Rooms.PollInterval, roomsSlot,
		service.RoomsFetch(rooms), log, roomsConsumers...)

	opts := service.HistoryOptions{
		Interval:  cfg.History.SampleInterval,
		Retention: cfg.History.Retention,
		Journal:   journal,
	}
	if pubs.influx != nil {
		opts.Mirror = pubs.influx
	}
	sampler := service.NewHistorySampler(repos.Documents, heatPumpSlot, roomsSlot, opts, log)
	if err := sampler.Load(ctx); err != nil {
		log.Warnw("history_load_failed", "err", err)
	}

	// wire dependencies
	services := service.NewService(
		service.NewHeatPumpService(heatPumpSlot, pac, journal),
		service.NewRoomsService(roomsSlot, rooms, journal),
		labels,
		sampler,
		journal,
	)
	apiHandler := handlers.NewHandler(services, hub, cfg.Server.CORSOrigin, log)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)
	log.Infow("server_started", "port", cfg.Server.Port, "heatpump", cfg.HeatPump.Addr(),
		"controllers", cfg.ControllerIDs())

	// first ticks block on the devices; the persisted rooms cache is served meanwhile
	if err := heatPumpPoller.Start(ctx); err != nil {
		log.Fatalw("failed to start heat pump poller", "err", err)
	}
	if err := roomsPoller.Start(ctx); err != nil {
		log.Fatalw("failed to start rooms poller", "err", err)
	}
	sampler.Start(ctx)

	waitForShutdown(log)

	// stop producers first, then the sinks they feed
	heatPumpPoller.Stop()
	roomsPoller.Stop()
	sampler.Stop()
	cancel()
	hub.Close()
	roomsCache.Wait()
	pubs.close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

func controllers(cfg config.Config) []nussbaum.Controller {
	out := make([]nussbaum.Controller, 0, len(cfg.Rooms.Controllers))
	for _, c := range cfg.Rooms.Controllers {
		out = append(out, nussbaum.Controller{ID: c.ID, Name: c.Name, Host: c.Host})
	}
	return out
}

// connectPublishers opens the optional MQTT and InfluxDB sinks. A sink that
// fails to connect is logged and left out; the dashboard works without it.
func connectPublishers(cfg config.Config, log *logger.Logger) publishers {
	var p publishers

	m, err := publish.ConnectMQTT(cfg.MQTT, log)
	switch {
	case err == nil:
		p.mqtt = m
	case !errors.Is(err, publish.ErrDisabled):
		log.Errorw("mqtt_connect_failed", "broker", cfg.MQTT.Broker, "err", err)
	}

	w, err := publish.ConnectInflux(cfg.Influx, log)
	switch {
	case err == nil:
		p.influx = w
	case !errors.Is(err, publish.ErrDisabled):
		log.Errorw("influx_connect_failed", "url", cfg.Influx.URL, "err", err)
	}
	return p
}

func (p publishers) close() {
	p.mqtt.Close()
	p.influx.Close()
}

func closeDB(conn *sql.DB, log *logger.Logger) {
	if err := conn.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown(log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutting down server...", "signal", sig.String())
}
