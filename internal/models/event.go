package models

import "time"

// Event types recorded in the operational log.
const (
	EventStart      = "START"
	EventStop       = "STOP"
	EventModeChange = "MODE_CHANGE"
	EventConfig     = "CONFIG"
	EventError      = "ERROR"
	EventReset      = "RESET"
)

// CoolerEvent is a single entry in the operational log.
type CoolerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | MODE_CHANGE | CONFIG | ERROR | RESET
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
