// Package audit provides journaling of route programming outcomes.
package audit

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Event records the outcome of one route or VRF programming attempt.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"` // apply or delete
	Platform  string    `json:"platform"`
	Route     string    `json:"route"`
	Message   string    `json:"message,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Filter defines criteria for querying journal events.
type Filter struct {
	Operation   string
	Platform    string
	Route       string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a journal event for one programming attempt.
func NewEvent(operation, platform, route string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: operation,
		Platform:  platform,
		Route:     route,
	}
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess(message string) *Event {
	e.Success = true
	e.Message = message
	return e
}

// Matches reports whether the event satisfies the filter, ignoring
// offset and limit.
func (e *Event) Matches(filter Filter) bool {
	if filter.Operation != "" && e.Operation != filter.Operation {
		return false
	}
	if filter.Platform != "" && e.Platform != filter.Platform {
		return false
	}
	if filter.Route != "" && e.Route != filter.Route {
		return false
	}
	if !filter.StartTime.IsZero() && e.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && e.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.SuccessOnly && !e.Success {
		return false
	}
	if filter.FailureOnly && e.Success {
		return false
	}
	return true
}

// eventSeq disambiguates events created within the same nanosecond.
var eventSeq atomic.Uint64

func generateID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), eventSeq.Add(1))
}
