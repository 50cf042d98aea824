package models

import "time"

// Event types recorded in the control journal.
const (
	EventParameterWrite = "PARAMETER_WRITE"
	EventRoomTarget     = "ROOM_TARGET"
	EventRoomLabel      = "ROOM_LABEL"
	EventCoolingSwitch  = "COOLING_SWITCH"
	EventHistoryToggle  = "HISTORY_TOGGLE"
)

// Event is one entry of the control journal: every write the service sends
// to a device or applies to its own settings.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
