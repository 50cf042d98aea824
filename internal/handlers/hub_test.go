package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"geothermal_monitor/internal/models"
)

func TestHub_RegisterQueuesInitialBeforeBroadcast(t *testing.T) {
	hub := NewHub(nil)
	c, ok := hub.register("a", func() []wsEnvelope {
		return []wsEnvelope{{Type: wsTypeHeatPump, Data: "first"}}
	})
	if !ok {
		t.Fatal("register refused")
	}
	hub.Broadcast(wsTypeRooms, "second")

	var env wsEnvelope
	_ = json.Unmarshal(<-c.send, &env)
	if env.Type != wsTypeHeatPump || env.Data != "first" {
		t.Fatalf("first message: %+v", env)
	}
	_ = json.Unmarshal(<-c.send, &env)
	if env.Type != wsTypeRooms || env.Data != "second" {
		t.Fatalf("second message: %+v", env)
	}
}

func TestHub_LaggingClientDropsMessages(t *testing.T) {
	hub := NewHub(nil)
	c, _ := hub.register("slow", nil)

	for i := 0; i < wsSendBufferSize+5; i++ {
		hub.Broadcast(wsTypeRooms, i)
	}
	if got := len(c.send); got != wsSendBufferSize {
		t.Fatalf("queue len=%d want %d", got, wsSendBufferSize)
	}
}

func TestHub_UnregisterTwiceIsSafe(t *testing.T) {
	hub := NewHub(nil)
	c, _ := hub.register("a", nil)
	hub.unregister(c)
	hub.unregister(c)

	if _, open := <-c.send; open {
		t.Fatal("send channel should be closed")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("clients=%d", hub.ClientCount())
	}
}

func TestHub_ClosedRefusesClients(t *testing.T) {
	hub := NewHub(nil)
	c, _ := hub.register("a", nil)
	hub.Close()

	if _, open := <-c.send; open {
		t.Fatal("send channel should be closed")
	}
	if _, ok := hub.register("b", nil); ok {
		t.Fatal("closed hub accepted a client")
	}
	// unregister after Close must not double-close
	hub.unregister(c)
}

func TestHub_Consumers(t *testing.T) {
	hub := NewHub(nil)
	c, _ := hub.register("a", nil)
	ctx := context.Background()

	if err := hub.HeatPumpConsumer().Fn(ctx, &models.HeatPumpSnapshot{Connected: true}); err != nil {
		t.Fatal(err)
	}
	if err := hub.RoomsConsumer().Fn(ctx, &models.RoomsSnapshot{}); err != nil {
		t.Fatal(err)
	}

	var env wsEnvelope
	_ = json.Unmarshal(<-c.send, &env)
	if env.Type != wsTypeHeatPump {
		t.Fatalf("type=%q", env.Type)
	}
	_ = json.Unmarshal(<-c.send, &env)
	if env.Type != wsTypeRooms {
		t.Fatalf("type=%q", env.Type)
	}
}

func TestHub_BroadcastDuringRegisterIsNotLost(t *testing.T) {
	hub := NewHub(nil)
	var wg sync.WaitGroup

	// a poller stores its snapshot after the initial read and broadcasts
	// while the client is still being registered
	c, ok := hub.register("a", func() []wsEnvelope {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(wsTypeRooms, "fresh")
		}()
		return []wsEnvelope{{Type: wsTypeRooms, Data: "cached"}}
	})
	if !ok {
		t.Fatal("register refused")
	}
	wg.Wait()

	if got := len(c.send); got != 2 {
		t.Fatalf("queue len=%d want 2", got)
	}
	var env wsEnvelope
	_ = json.Unmarshal(<-c.send, &env)
	if env.Data != "cached" {
		t.Fatalf("first message: %+v", env)
	}
	_ = json.Unmarshal(<-c.send, &env)
	if env.Data != "fresh" {
		t.Fatalf("second message: %+v", env)
	}
}

func TestHub_ClosedSkipsInitialSnapshots(t *testing.T) {
	hub := NewHub(nil)
	hub.Close()

	called := false
	if _, ok := hub.register("a", func() []wsEnvelope {
		called = true
		return nil
	}); ok {
		t.Fatal("closed hub accepted a client")
	}
	if called {
		t.Fatal("initial snapshots read for a refused client")
	}
}
