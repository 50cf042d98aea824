package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockHeatPump struct {
	snap     *models.HeatPumpSnapshot
	writeErr error
	curve    service.CurveReport
	curveOK  bool

	writes    int
	lastName  string
	lastValue float64
}

func (m *mockHeatPump) Snapshot() *models.HeatPumpSnapshot { return m.snap }
func (m *mockHeatPump) WriteParameter(ctx context.Context, name string, value float64) error {
	m.writes++
	m.lastName = name
	m.lastValue = value
	return m.writeErr
}
func (m *mockHeatPump) Curve() (service.CurveReport, bool) { return m.curve, m.curveOK }

type mockRooms struct {
	snap     *models.RoomsSnapshot
	ids      []string
	writeErr error

	writes     int
	lastCtrl   string
	lastRoomID int
	lastTemp   float64
}

func (m *mockRooms) Snapshot() *models.RoomsSnapshot { return m.snap }
func (m *mockRooms) ControllerIDs() []string         { return m.ids }
func (m *mockRooms) SetRoomTemperature(ctx context.Context, controllerID string, roomID int, temperature float64) error {
	m.writes++
	m.lastCtrl, m.lastRoomID, m.lastTemp = controllerID, roomID, temperature
	return m.writeErr
}

// mockLabels keeps labels in memory and trims like the real store.
type mockLabels struct {
	mu     sync.Mutex
	labels models.RoomLabels
	err    error
}

func (m *mockLabels) All() models.RoomLabels {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := models.RoomLabels{}
	for ctrl, rooms := range m.labels {
		out[ctrl] = map[string]string{}
		for id, name := range rooms {
			out[ctrl][id] = name
		}
	}
	return out
}

func (m *mockLabels) SetLabel(ctx context.Context, controllerID string, roomID int, name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", service.ErrEmptyLabel
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labels == nil {
		m.labels = models.RoomLabels{}
	}
	if m.labels[controllerID] == nil {
		m.labels[controllerID] = map[string]string{}
	}
	m.labels[controllerID][strconv.Itoa(roomID)] = name
	return name, nil
}

type mockHistory struct {
	points  []models.HistoryPoint
	enabled bool
	toggles []bool
}

func (m *mockHistory) Points() []models.HistoryPoint { return m.points }
func (m *mockHistory) Enabled() bool                 { return m.enabled }
func (m *mockHistory) SetEnabled(ctx context.Context, enabled bool) {
	m.enabled = enabled
	m.toggles = append(m.toggles, enabled)
}

type mockEventLog struct {
	resp      []models.Event
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

type mocks struct {
	heatPump *mockHeatPump
	rooms    *mockRooms
	labels   *mockLabels
	history  *mockHistory
	events   *mockEventLog
}

func newMocks() *mocks {
	return &mocks{
		heatPump: &mockHeatPump{},
		rooms:    &mockRooms{ids: []string{"rez", "etage"}},
		labels:   &mockLabels{},
		history:  &mockHistory{enabled: true},
		events:   &mockEventLog{},
	}
}

func (m *mocks) service() *service.Service {
	return service.NewService(m.heatPump, m.rooms, m.labels, m.history, m.events)
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, NewHub(nil), "", nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
