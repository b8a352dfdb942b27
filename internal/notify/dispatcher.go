package notify

import (
	"time"

	"agromart-be/internal/logger"

	"go.uber.org/zap"
)

type EventType string

const (
	EventBidPlaced             EventType = "BID_PLACED"
	EventBidCountered          EventType = "BID_COUNTERED"
	EventBidAccepted           EventType = "BID_ACCEPTED"
	EventBidRejected           EventType = "BID_REJECTED"
	EventOrderCreated          EventType = "ORDER_CREATED"
	EventOrderStatusChanged    EventType = "ORDER_STATUS_CHANGED"
	EventDeliveryStatusChanged EventType = "DELIVERY_STATUS_CHANGED"
	EventOrderCancelled        EventType = "ORDER_CANCELLED"
	EventWalletCredited        EventType = "WALLET_CREDITED"
	EventCashoutRequested      EventType = "CASHOUT_REQUESTED"
	EventCashoutDecided        EventType = "CASHOUT_DECIDED"
	EventCashoutPaid           EventType = "CASHOUT_PAID"
)

// Event is a committed state transition fanned out to external channels
// (toasts, email, SMS). Delivery is best-effort; the engines never wait
// on it and a failed delivery never rolls a transition back.
type Event struct {
	Type       EventType
	EntityID   string
	ActorID    int64
	Recipients []int64
	Payload    map[string]any
	OccurredAt time.Time
}

type Dispatcher interface {
	Dispatch(ev Event)
	Close()
}

// asyncDispatcher buffers events on a channel and drains them on a single
// goroutine. A full buffer drops the event with a warning rather than
// blocking the committing request.
type asyncDispatcher struct {
	events chan Event
	sinks  []Sink
	done   chan struct{}
}

// Sink is one outbound delivery channel.
type Sink interface {
	Deliver(ev Event) error
}

func NewDispatcher(buffer int, sinks ...Sink) Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &asyncDispatcher{
		events: make(chan Event, buffer),
		sinks:  sinks,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *asyncDispatcher) Dispatch(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	select {
	case d.events <- ev:
	default:
		logger.L().Warn("notification buffer full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("entity_id", ev.EntityID),
		)
	}
}

func (d *asyncDispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		for _, sink := range d.sinks {
			if err := sink.Deliver(ev); err != nil {
				logger.L().Warn("notification delivery failed",
					zap.String("type", string(ev.Type)),
					zap.String("entity_id", ev.EntityID),
					zap.Error(err),
				)
			}
		}
	}
}

func (d *asyncDispatcher) Close() {
	close(d.events)
	<-d.done
}

// LogSink writes events to the structured log. It stands in for real
// email/SMS/toast channels, which live outside this service.
type LogSink struct{}

func (LogSink) Deliver(ev Event) error {
	logger.L().Info("notification",
		zap.String("type", string(ev.Type)),
		zap.String("entity_id", ev.EntityID),
		zap.Int64("actor_id", ev.ActorID),
		zap.Int64s("recipients", ev.Recipients),
	)
	return nil
}

// Noop discards every event. Used in tests.
type Noop struct{}

func (Noop) Dispatch(ev Event) {}
func (Noop) Close()            {}
