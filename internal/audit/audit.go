// Package audit captures key domain actions as events. Keep the event
// transport-agnostic so publishers can fan out to Kafka, memory, or nothing.
package audit

import (
	"context"
	"sync"
	"time"
)

// Action names the domain occurrence an event records.
type Action string

const (
	ActionPlayerCreated        Action = "player_created"
	ActionPlayerDeactivated    Action = "player_deactivated"
	ActionAliasAdded           Action = "alias_added"
	ActionReportVersionCreated Action = "report_version_created"
)

// Event is emitted from domain logic. Fields are flat strings so encoding
// stays stable across sinks.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  string    `json:"player_id,omitempty"`
	ReportID  string    `json:"report_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher collects events in memory. Used in tests and as the
// default sink when Kafka is not configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs an empty in-memory event sink.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
