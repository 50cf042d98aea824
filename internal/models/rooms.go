package models

import "time"

type Room struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	ControllerID      string  `json:"controllerId"`
	ControllerName    string  `json:"controllerName"`
	ActualTemperature float64 `json:"actualTemperature"`
	TargetTemperature float64 `json:"targetTemperature"`
	BatteryLevel      int     `json:"batteryLevel"`   // percent
	SignalStrength    int     `json:"signalStrength"` // 0..3
	Demanding         bool    `json:"demanding"`
}

type ControllerStatus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Connected   bool      `json:"connected"`
	Cooling     bool      `json:"cooling"`
	Diagnose    float64   `json:"diagnose"`
	Errors      []string  `json:"errors"`
	LastSuccess time.Time `json:"lastSuccess,omitzero"`
}

type DemandSummary struct {
	TotalRooms     int     `json:"totalRooms"`
	DemandingRooms int     `json:"demandingRooms"`
	MaxDelta       float64 `json:"maxDelta"`
	MaxDeltaRoom   string  `json:"maxDeltaRoom"`
}

// RoomsSnapshot is one poll across every configured room controller.
type RoomsSnapshot struct {
	Timestamp   time.Time          `json:"timestamp"`
	Connected   bool               `json:"connected"`
	Controllers []ControllerStatus `json:"controllers"`
	Rooms       []Room             `json:"rooms"`
	Cooling     bool               `json:"cooling"`
	Demand      DemandSummary      `json:"demand"`
}

// RoomsOf returns the rooms belonging to the given controller.
func (s *RoomsSnapshot) RoomsOf(controllerID string) []Room {
	var out []Room
	for _, r := range s.Rooms {
		if r.ControllerID == controllerID {
			out = append(out, r)
		}
	}
	return out
}

// Controller returns the status entry for id, if present.
func (s *RoomsSnapshot) Controller(id string) (ControllerStatus, bool) {
	for _, c := range s.Controllers {
		if c.ID == id {
			return c, true
		}
	}
	return ControllerStatus{}, false
}

// IsDemanding reports whether a room still needs heat (or cold, in cooling mode).
func IsDemanding(cooling bool, actual, target float64) bool {
	if cooling {
		return actual > target
	}
	return actual < target
}

// RoomLabels holds user-defined room names keyed by controller id, then room id.
type RoomLabels map[string]map[string]string
