package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/metrics"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/service"
)

// Envelope types pushed to dashboard clients.
const (
	wsTypeHeatPump = "heatpump"
	wsTypeRooms    = "rooms"

	wsSendBufferSize = 16
)

type wsClient struct {
	id   string
	send chan []byte
}

// Hub fans snapshots out to every connected push client.
type Hub struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{log: log, clients: make(map[*wsClient]struct{})}
}

// register adds a client whose queue already holds the initial messages, so
// they are delivered before any broadcast. initial runs under the hub lock:
// a snapshot stored before it runs is in the queue, a later one is broadcast.
func (h *Hub) register(id string, initial func() []wsEnvelope) (*wsClient, bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, false
	}
	var envs []wsEnvelope
	if initial != nil {
		envs = initial()
	}
	c := &wsClient{id: id, send: make(chan []byte, wsSendBufferSize+len(envs))}
	for _, env := range envs {
		b, err := json.Marshal(env)
		if err != nil {
			h.log.Errorw("ws_marshal_failed", "type", env.Type, "err", err)
			continue
		}
		c.send <- b
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.SetWebSocketClients(n)
	h.log.Infow("ws_client_connected", "client", id, "clients", n)
	return c, true
}

// unregister removes the client and closes its queue exactly once.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(c.send)
		metrics.SetWebSocketClients(n)
		h.log.Infow("ws_client_disconnected", "client", c.id, "clients", n)
	}
}

// Broadcast queues one envelope for every client. Slow clients whose queue is
// full miss the message; the next snapshot supersedes it anyway.
func (h *Hub) Broadcast(typ string, data any) {
	b, err := json.Marshal(wsEnvelope{Type: typ, Data: data})
	if err != nil {
		h.log.Errorw("ws_marshal_failed", "type", typ, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Warnw("ws_client_lagging", "client", c.id, "type", typ)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.SetWebSocketClients(0)
}

func (h *Hub) HeatPumpConsumer() service.Consumer[models.HeatPumpSnapshot] {
	return service.Consumer[models.HeatPumpSnapshot]{
		Name: "broadcast",
		Fn: func(_ context.Context, s *models.HeatPumpSnapshot) error {
			h.Broadcast(wsTypeHeatPump, s)
			return nil
		},
	}
}

func (h *Hub) RoomsConsumer() service.Consumer[models.RoomsSnapshot] {
	return service.Consumer[models.RoomsSnapshot]{
		Name: "broadcast",
		Fn: func(_ context.Context, s *models.RoomsSnapshot) error {
			h.Broadcast(wsTypeRooms, s)
			return nil
		},
	}
}
