package executor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType names a pipeline event.
type EventType string

const (
	// EventHandoverInitiated fires when a handover record is created.
	EventHandoverInitiated EventType = "handover.initiated"
	// EventHandoverCompleted fires on a successful agent response.
	EventHandoverCompleted EventType = "handover.completed"
	// EventHandoverFailed fires on an invocation failure.
	EventHandoverFailed EventType = "handover.failed"
)

// PipelineEvent is a progress notification emitted during plan
// execution.
type PipelineEvent struct {
	// Type is the event kind.
	Type EventType `json:"type"`

	// SessionID groups the events of one orchestrated request.
	SessionID string `json:"session_id,omitempty"`

	// HandoverID is the handover record id.
	HandoverID string `json:"handover_id"`

	// TaskID is the plan assignment id.
	TaskID string `json:"task_id"`

	// AgentID identifies the invoked agent.
	AgentID string `json:"agent_id"`

	// Capability is the capability tag of the task.
	Capability string `json:"capability,omitempty"`

	// Confidence is the response confidence score (completed events).
	Confidence float64 `json:"confidence,omitempty"`

	// Error is the failure text (failed events).
	Error string `json:"error,omitempty"`

	// Timestamp is when the event fired.
	Timestamp time.Time `json:"timestamp"`
}

// defaultEventBuffer is the per-subscriber channel capacity.
const defaultEventBuffer = 64

// EventBus fans pipeline events out to subscribers. Publishing never
// blocks: events to a full subscriber are dropped.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[chan PipelineEvent]struct{}
	buffer      int
	closed      bool
	logger      *zap.Logger
}

// NewEventBus creates a bus with the given per-subscriber buffer.
func NewEventBus(buffer int, logger *zap.Logger) *EventBus {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[chan PipelineEvent]struct{}),
		buffer:      buffer,
		logger:      logger.With(zap.String("component", "event_bus")),
	}
}

// Subscribe registers a new subscriber channel. The caller must drain
// it and call Unsubscribe when done.
func (b *EventBus) Subscribe() chan PipelineEvent {
	ch := make(chan PipelineEvent, b.buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan PipelineEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Publish delivers the event to every subscriber that has room.
func (b *EventBus) Publish(event PipelineEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Debug("dropping pipeline event for slow subscriber",
				zap.String("type", string(event.Type)),
				zap.String("handover_id", event.HandoverID))
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
