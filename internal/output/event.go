package output

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventJobStarted EventName = "job_started"
	EventProgress   EventName = "progress"
	EventMessage    EventName = "message"
	EventWarning    EventName = "warning"
	EventError      EventName = "error"
	EventFinished   EventName = "finished"
)

// Event is one entry in a job's lifecycle stream. Progress events carry a
// Percent in [0,100]; every job ends with exactly one finished event.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	JobID     string         `json:"job_id,omitempty"`
	Message   string         `json:"message,omitempty"`
	Percent   *int           `json:"percent,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pct builds the Percent field for a progress event.
func Pct(percent int) *int {
	return &percent
}
