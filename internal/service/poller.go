package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/metrics"
)

var ErrPollerStarted = errors.New("poller already started")

// FetchFunc produces the next snapshot from the previous one. A non-nil
// snapshot is stored even when err is set; a nil snapshot keeps the cache.
type FetchFunc[T any] func(ctx context.Context, previous *T) (*T, error)

// Consumer is notified after every slot update, in registration order.
type Consumer[T any] struct {
	Name string
	Fn   func(ctx context.Context, snap *T) error
}

type pollerState int

const (
	pollerUninitialized pollerState = iota
	pollerPolling
	pollerStopped
)

// Poller runs fetch on a fixed interval and fans results out to consumers.
type Poller[T any] struct {
	name      string
	interval  time.Duration
	slot      *Slot[T]
	fetch     FetchFunc[T]
	consumers []Consumer[T]
	log       *logger.Logger

	mu     sync.Mutex
	state  pollerState
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller[T any](name string, interval time.Duration, slot *Slot[T], fetch FetchFunc[T], log *logger.Logger, consumers ...Consumer[T]) *Poller[T] {
	if log == nil {
		log = logger.Nop()
	}
	return &Poller[T]{
		name:      name,
		interval:  interval,
		slot:      slot,
		fetch:     fetch,
		consumers: consumers,
		log:       log,
	}
}

// Start runs the first tick synchronously, so the slot is populated when it
// returns, then keeps polling in the background until Stop or ctx ends.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != pollerUninitialized {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPollerStarted, p.name)
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.state = pollerPolling
	p.mu.Unlock()

	p.tick(runCtx)
	go p.run(runCtx)
	return nil
}

func (p *Poller[T]) run(ctx context.Context) {
	defer close(p.done)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx)
		}
	}
}

// Stop cancels future ticks and waits for the loop to exit. The result of a
// tick still in flight is discarded.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if p.state != pollerPolling {
		p.state = pollerStopped
		p.mu.Unlock()
		return
	}
	p.state = pollerStopped
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller[T]) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("poll_panic", "poller", p.name, "panic", r)
		}
	}()

	start := time.Now()
	snap, err := p.fetch(ctx, p.slot.Load())
	metrics.ObservePoll(p.name, time.Since(start), err)

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.Warnw("poll_failed", "poller", p.name, "err", err)
	}
	if snap == nil {
		return
	}
	p.slot.Store(snap)

	for _, c := range p.consumers {
		p.notify(ctx, c, snap)
	}
}

func (p *Poller[T]) notify(ctx context.Context, c Consumer[T], snap *T) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("consumer_panic", "poller", p.name, "consumer", c.Name, "panic", r)
		}
	}()
	if err := c.Fn(ctx, snap); err != nil {
		p.log.Warnw("consumer_failed", "poller", p.name, "consumer", c.Name, "err", err)
	}
}
