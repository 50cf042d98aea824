package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ControllerConfig describes one room controller (base station).
type ControllerConfig struct {
	ID   string
	Name string
	Host string
}

type ServerConfig struct {
	Port       string
	CORSOrigin string
}

type HeatPumpConfig struct {
	Host         string
	Port         int
	PollInterval time.Duration
	Timeout      time.Duration
	// Simulate replaces the controller with an in-process model.
	Simulate bool
}

// Addr returns host:port of the heat pump controller.
func (c HeatPumpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RoomsConfig struct {
	Controllers  []ControllerConfig
	PollInterval time.Duration
	Timeout      time.Duration
	// MaxStale bounds how long rooms of an unreachable controller are carried forward.
	// Zero keeps them until the controller answers again.
	MaxStale time.Duration
}

type HistoryConfig struct {
	SampleInterval time.Duration
	Retention      time.Duration
}

type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

type Config struct {
	Server   ServerConfig
	HeatPump HeatPumpConfig
	Rooms    RoomsConfig
	History  HistoryConfig
	DBPath   string
	LogLevel string
	MQTT     MQTTConfig
	Influx   InfluxConfig
}

// ControllerIDs returns the configured controller ids in declaration order.
func (c Config) ControllerIDs() []string {
	ids := make([]string, 0, len(c.Rooms.Controllers))
	for _, ctrl := range c.Rooms.Controllers {
		ids = append(ids, ctrl.ID)
	}
	return ids
}

// env bindings keep the variable names the dashboard has always used.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.cors_origin":         "CORS_ORIGIN",
	"heatpump.host":              "PAC_HOST",
	"heatpump.port":              "PAC_PORT",
	"heatpump.poll_interval_ms":  "POLL_INTERVAL",
	"heatpump.timeout_ms":        "PAC_TIMEOUT",
	"heatpump.simulate":          "PAC_SIMULATE",
	"rooms.rez.host":             "NUSSBAUM_REZ_HOST",
	"rooms.etage.host":           "NUSSBAUM_ETAGE_HOST",
	"rooms.poll_interval_ms":     "NUSSBAUM_POLL_INTERVAL",
	"rooms.timeout_ms":           "NUSSBAUM_TIMEOUT",
	"rooms.max_stale":            "ROOMS_MAX_STALE",
	"history.sample_interval_ms": "HISTORY_INTERVAL",
	"history.retention":          "HISTORY_RETENTION",
	"db.path":                    "DB_PATH",
	"log.level":                  "LOG_LEVEL",
	"mqtt.enabled":               "MQTT_ENABLED",
	"mqtt.broker":                "MQTT_BROKER",
	"mqtt.client_id":             "MQTT_CLIENT_ID",
	"mqtt.username":              "MQTT_USERNAME",
	"mqtt.password":              "MQTT_PASSWORD",
	"mqtt.topic_prefix":          "MQTT_TOPIC_PREFIX",
	"influx.enabled":             "INFLUX_ENABLED",
	"influx.url":                 "INFLUX_URL",
	"influx.token":               "INFLUX_TOKEN",
	"influx.org":                 "INFLUX_ORG",
	"influx.bucket":              "INFLUX_BUCKET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3002")
	v.SetDefault("server.cors_origin", "http://localhost:5173")

	v.SetDefault("heatpump.host", "192.168.86.28")
	v.SetDefault("heatpump.port", 8889)
	v.SetDefault("heatpump.poll_interval_ms", 10_000)
	v.SetDefault("heatpump.timeout_ms", 30_000)
	v.SetDefault("heatpump.simulate", false)

	v.SetDefault("rooms.rez.host", "192.168.86.40")
	v.SetDefault("rooms.etage.host", "192.168.86.41")
	v.SetDefault("rooms.poll_interval_ms", 30_000)
	v.SetDefault("rooms.timeout_ms", 30_000)
	v.SetDefault("rooms.max_stale", "0s")

	v.SetDefault("history.sample_interval_ms", 10*60*1000)
	v.SetDefault("history.retention", "24h")

	v.SetDefault("db.path", "data/geothermal.db")
	v.SetDefault("log.level", "info")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "geothermal-monitor")
	v.SetDefault("mqtt.topic_prefix", "geothermal")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.org", "home")
	v.SetDefault("influx.bucket", "geothermal")
}

// Load reads configs/config.yml when present, then applies environment overrides.
func Load(searchPaths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(searchPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Server: ServerConfig{
			Port:       v.GetString("server.port"),
			CORSOrigin: v.GetString("server.cors_origin"),
		},
		HeatPump: HeatPumpConfig{
			Host:         v.GetString("heatpump.host"),
			Port:         v.GetInt("heatpump.port"),
			PollInterval: millis(v, "heatpump.poll_interval_ms"),
			Timeout:      millis(v, "heatpump.timeout_ms"),
			Simulate:     v.GetBool("heatpump.simulate"),
		},
		Rooms: RoomsConfig{
			Controllers: []ControllerConfig{
				{ID: "rez", Name: "Rez-de-chaussée", Host: v.GetString("rooms.rez.host")},
				{ID: "etage", Name: "Étage", Host: v.GetString("rooms.etage.host")},
			},
			PollInterval: millis(v, "rooms.poll_interval_ms"),
			Timeout:      millis(v, "rooms.timeout_ms"),
			MaxStale:     v.GetDuration("rooms.max_stale"),
		},
		History: HistoryConfig{
			SampleInterval: millis(v, "history.sample_interval_ms"),
			Retention:      v.GetDuration("history.retention"),
		},
		DBPath:   v.GetString("db.path"),
		LogLevel: v.GetString("log.level"),
		MQTT: MQTTConfig{
			Enabled:     v.GetBool("mqtt.enabled"),
			Broker:      v.GetString("mqtt.broker"),
			ClientID:    v.GetString("mqtt.client_id"),
			Username:    v.GetString("mqtt.username"),
			Password:    v.GetString("mqtt.password"),
			TopicPrefix: v.GetString("mqtt.topic_prefix"),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
	}
}

func (c Config) validate() error {
	var problems []string
	if c.HeatPump.Host == "" {
		problems = append(problems, "heatpump.host is empty")
	}
	if c.HeatPump.Port <= 0 || c.HeatPump.Port > 65535 {
		problems = append(problems, fmt.Sprintf("heatpump.port %d out of range", c.HeatPump.Port))
	}
	if c.HeatPump.PollInterval <= 0 {
		problems = append(problems, "heatpump poll interval must be positive")
	}
	if c.Rooms.PollInterval <= 0 {
		problems = append(problems, "rooms poll interval must be positive")
	}
	if c.Rooms.MaxStale < 0 {
		problems = append(problems, "rooms.max_stale must not be negative")
	}
	if c.History.SampleInterval <= 0 || c.History.Retention <= 0 {
		problems = append(problems, "history interval and retention must be positive")
	}
	for _, ctrl := range c.Rooms.Controllers {
		if ctrl.Host == "" {
			problems = append(problems, "host missing for controller "+ctrl.ID)
		}
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
