package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"geothermal_monitor/internal/config"
	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/service"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttPublishTimeout    = 5 * time.Second
	mqttDisconnectQuiesce = 250 // ms
	mqttQoS               = 1

	statusOnline  = "online"
	statusOffline = "offline"
)

// MQTTPublisher mirrors snapshots as retained JSON messages under a topic prefix:
//
//	<prefix>/status    online | offline (LWT)
//	<prefix>/heatpump  latest heat pump snapshot
//	<prefix>/rooms     latest rooms snapshot
type MQTTPublisher struct {
	client pahomqtt.Client
	prefix string
	log    *logger.Logger
}

// ConnectMQTT connects to the broker and announces the service as online.
func ConnectMQTT(cfg config.MQTTConfig, log *logger.Logger) (*MQTTPublisher, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &MQTTPublisher{prefix: cfg.TopicPrefix, log: log}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetMaxReconnectInterval(time.Minute).
		SetWill(p.topic("status"), statusOffline, mqttQoS, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(p.topic("status"), mqttQoS, true, statusOnline)
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	p.client = client
	return p, nil
}

func (p *MQTTPublisher) topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// publish sends one retained JSON message.
func (p *MQTTPublisher) publish(name string, v any) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	token := p.client.Publish(p.topic(name), mqttQoS, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, mqttPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func (p *MQTTPublisher) PublishHeatPump(_ context.Context, s *models.HeatPumpSnapshot) error {
	return p.publish("heatpump", s)
}

func (p *MQTTPublisher) PublishRooms(_ context.Context, s *models.RoomsSnapshot) error {
	return p.publish("rooms", s)
}

func (p *MQTTPublisher) HeatPumpConsumer() service.Consumer[models.HeatPumpSnapshot] {
	return service.Consumer[models.HeatPumpSnapshot]{Name: "mqtt", Fn: p.PublishHeatPump}
}

func (p *MQTTPublisher) RoomsConsumer() service.Consumer[models.RoomsSnapshot] {
	return service.Consumer[models.RoomsSnapshot]{Name: "mqtt", Fn: p.PublishRooms}
}

// Close publishes the graceful offline status and disconnects.
func (p *MQTTPublisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	if p.client.IsConnected() {
		p.client.Publish(p.topic("status"), mqttQoS, true, statusOffline).WaitTimeout(mqttPublishTimeout)
	}
	p.client.Disconnect(mqttDisconnectQuiesce)
}
