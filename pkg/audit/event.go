// Package audit keeps a history of query results across automation runs.
package audit

import (
	"fmt"
	"time"

	"github.com/netcensus/netcensus/pkg/model"
)

// Event records the outcome of one parameter query on one device.
type Event struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user,omitempty"`
	Device    string        `json:"device"`
	Parameter string        `json:"parameter"`
	Via       string        `json:"via,omitempty"` // jump host, empty when direct
	LineCount int           `json:"line_count"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter selects history events. Zero fields match everything.
type Filter struct {
	Device      string
	Parameter   string
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Match reports whether e satisfies every criterion except paging.
func (f Filter) Match(e *Event) bool {
	switch {
	case f.Device != "" && e.Device != f.Device:
		return false
	case f.Parameter != "" && e.Parameter != f.Parameter:
		return false
	case f.RunID != "" && e.RunID != f.RunID:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

func (f Filter) page(events []*Event) []*Event {
	if f.Offset > 0 {
		if f.Offset >= len(events) {
			return []*Event{}
		}
		events = events[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}

// NewEvent creates a new history event for a run
func NewEvent(runID, device, parameter string) *Event {
	return &Event{
		ID:        generateID(),
		RunID:     runID,
		Timestamp: time.Now(),
		Device:    device,
		Parameter: parameter,
	}
}

// FromResult creates the history event for a command result.
func FromResult(runID string, res model.CommandResult) *Event {
	e := NewEvent(runID, res.DeviceName, res.Parameter)
	if res.Success {
		return e.WithLines(res.LineCount)
	}
	e.Error = res.ErrorMessage
	return e
}

// WithUser sets the operator name
func (e *Event) WithUser(user string) *Event {
	e.User = user
	return e
}

// WithVia records the jump host the device was reached through
func (e *Event) WithVia(jump string) *Event {
	e.Via = jump
	return e
}

// WithLines marks the event as successful with the given line count
func (e *Event) WithLines(n int) *Event {
	e.Success = true
	e.LineCount = n
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	e.LineCount = 0
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the query duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// NewRunID returns an identifier grouping the events of one run.
func NewRunID(started time.Time) string {
	return started.Format("20060102-150405")
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
