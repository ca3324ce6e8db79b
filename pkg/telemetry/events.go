package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event emitted by a machine.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies the machine that emitted the event.
	Source string `json:"source"`

	// Product is the product involved, if applicable.
	Product string `json:"product,omitempty"`

	// Resource is the reservoir involved, if applicable.
	Resource string `json:"resource,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants.
const (
	EventTypeBrewCompleted     = "brew.completed"
	EventTypeBrewRejected      = "brew.rejected"
	EventTypePowerChanged      = "power.changed"
	EventTypeReservoirRefilled = "reservoir.refilled"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
// A nil *EventPublisher and a disabled one drop every event.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("event buffer size must be positive, got: %d", cfg.BufferSize)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config: cfg,
		buffer: make(chan Event, cfg.BufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.EnableAsync {
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if ep.config.EnableAsync {
		select {
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
		}
		select {
		case ep.buffer <- event:
			return nil
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	// Synchronous publishing
	ep.deliverEvent(event)
	return nil
}

// PublishBrewCompleted publishes a successful brew.
func (ep *EventPublisher) PublishBrewCompleted(source, product string, count int, duration time.Duration) error {
	return ep.Publish(Event{
		Type:    EventTypeBrewCompleted,
		Source:  source,
		Product: product,
		Message: fmt.Sprintf("Brewed %s (total %d)", product, count),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"count":    count,
			"duration": duration.Seconds(),
		},
	})
}

// PublishBrewRejected publishes a brew that was refused.
func (ep *EventPublisher) PublishBrewRejected(source, product, resource, code, reason string) error {
	return ep.Publish(Event{
		Type:     EventTypeBrewRejected,
		Source:   source,
		Product:  product,
		Resource: resource,
		Message:  fmt.Sprintf("Brew of %s rejected: %s", product, reason),
		Level:    EventLevelWarning,
		Data: map[string]interface{}{
			"code": code,
		},
	})
}

// PublishPowerChanged publishes a power state transition.
func (ep *EventPublisher) PublishPowerChanged(source string, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	return ep.Publish(Event{
		Type:    EventTypePowerChanged,
		Source:  source,
		Message: fmt.Sprintf("Machine %s powered %s", source, state),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"powered_on": on,
		},
	})
}

// PublishReservoirRefilled publishes a refill with the resulting level.
func (ep *EventPublisher) PublishReservoirRefilled(source, resource string, amount, level, capacity int) error {
	return ep.Publish(Event{
		Type:     EventTypeReservoirRefilled,
		Source:   source,
		Resource: resource,
		Message:  fmt.Sprintf("Refilled %s by %d, now %d/%d", resource, amount, level, capacity),
		Level:    EventLevelInfo,
		Data: map[string]interface{}{
			"amount":   amount,
			"level":    level,
			"capacity": capacity,
		},
	})
}

// Subscribe adds a new event subscriber. A nil filter accepts every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	if ep == nil {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// processEvents batches buffered events and delivers them when the batch is
// full, when the flush interval elapses, or on shutdown.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	batch := make([]Event, 0, ep.config.MaxBatchSize)

	var tick <-chan time.Time
	if ep.config.FlushInterval > 0 {
		ticker := time.NewTicker(ep.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	flush := func() {
		for _, event := range batch {
			ep.deliverEvent(event)
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)
			if len(batch) >= ep.config.MaxBatchSize {
				flush()
			}

		case <-tick:
			flush()

		case <-ep.ctx.Done():
			// Drain whatever is still buffered before exiting
			for {
				select {
				case event := <-ep.buffer:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}

// deliverEvent delivers an event to all matching subscribers in order.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown flushes pending events and stops the publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}
