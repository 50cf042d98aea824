package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"geothermal_monitor/internal/models"
)

// memDocs is an in-memory repository.Documents.
type memDocs struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves map[string]int
	err   error
}

func newMemDocs() *memDocs {
	return &memDocs{data: map[string][]byte{}, saves: map[string]int{}}
}

func (m *memDocs) Save(_ context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.saves[key]++
	return nil
}

func (m *memDocs) Load(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memDocs) saveCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[key]
}

// fakeEventRepo is a minimal repository.EventRepo.
type fakeEventRepo struct {
	mu sync.Mutex

	gotFrom  time.Time
	gotTo    time.Time
	gotType  string
	gotLimit int
	calls    int

	appended  []models.Event
	events    []models.Event
	err       error
	appendErr error
}

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ string, limit int) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFrom, f.gotTo, f.gotType, f.gotLimit = from, to, typ, limit
	return f.events, f.err
}

func (f *fakeEventRepo) Append(_ context.Context, e models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// coolingCall is one SetCoolingMode invocation.
type coolingCall struct {
	controller string
	cooling    bool
}

// fakeControllers records writes to room controllers.
type fakeControllers struct {
	mu       sync.Mutex
	ids      []string
	calls    []coolingCall
	failOn   map[string]bool
	targets  map[string]float64
	failTemp error
}

func (f *fakeControllers) ControllerIDs() []string { return f.ids }

func (f *fakeControllers) SetCoolingMode(_ context.Context, id string, cooling bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, coolingCall{id, cooling})
	if f.failOn[id] {
		return errors.New("controller offline")
	}
	return nil
}

func (f *fakeControllers) SetRoomTemperature(_ context.Context, id string, roomID int, temp float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTemp != nil {
		return f.failTemp
	}
	if f.targets == nil {
		f.targets = map[string]float64{}
	}
	f.targets[id] = temp
	return nil
}

func (f *fakeControllers) callsSnapshot() []coolingCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]coolingCall(nil), f.calls...)
}

func heatPumpIn(mode string) *models.HeatPumpSnapshot {
	return &models.HeatPumpSnapshot{
		Timestamp:      time.Now().UTC(),
		Connected:      true,
		OperatingState: models.OperatingState{Mode: mode},
	}
}
