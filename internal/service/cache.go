package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/repository"
)

// Slot holds the latest snapshot of one device family. It is written by a
// single poller and read by everyone else. Load returns nil until the first store.
type Slot[T any] struct {
	p atomic.Pointer[T]
}

func (s *Slot[T]) Load() *T { return s.p.Load() }

func (s *Slot[T]) Store(v *T) { s.p.Store(v) }

const flushTimeout = 10 * time.Second

// Flusher persists a document asynchronously. Only the latest submitted value
// is written; intermediate values are dropped if a write is still running.
type Flusher struct {
	docs repository.Documents
	key  string
	log  *logger.Logger

	mu      sync.Mutex
	idle    *sync.Cond
	pending any
	dirty   bool
	running bool
}

func NewFlusher(docs repository.Documents, key string, log *logger.Logger) *Flusher {
	f := &Flusher{docs: docs, key: key, log: log}
	f.idle = sync.NewCond(&f.mu)
	return f
}

// Submit schedules v for persistence and returns immediately.
func (f *Flusher) Submit(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = v
	f.dirty = true
	if !f.running {
		f.running = true
		go f.loop()
	}
}

func (f *Flusher) loop() {
	for {
		f.mu.Lock()
		if !f.dirty {
			f.running = false
			f.idle.Broadcast()
			f.mu.Unlock()
			return
		}
		v := f.pending
		f.pending, f.dirty = nil, false
		f.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := f.docs.Save(ctx, f.key, v); err != nil && f.log != nil {
			f.log.Errorw("document_flush_failed", "key", f.key, "err", err)
		}
		cancel()
	}
}

// Wait blocks until every submitted value has been written.
func (f *Flusher) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.running {
		f.idle.Wait()
	}
}
