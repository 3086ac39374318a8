package services

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/stratify-hq/stratify/pkg/eventbus"
)

// RoutedEvent is any domain event that knows its routing key.
type RoutedEvent interface {
	RoutingKey() string
}

// EventEmitter publishes domain events to the sink after the owning
// transaction has committed. Publish failures are logged and swallowed:
// delivery is at-most-once and a lost event never rolls back the
// already-committed mutation.
type EventEmitter struct {
	sink     eventbus.Sink
	exchange string
	log      *logrus.Logger
}

func NewEventEmitter(sink eventbus.Sink, exchange string, log *logrus.Logger) *EventEmitter {
	return &EventEmitter{sink: sink, exchange: exchange, log: log}
}

func (e *EventEmitter) Emit(ctx context.Context, ev RoutedEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		e.log.WithError(err).WithField("routing_key", ev.RoutingKey()).
			Error("events: failed to encode event")
		return
	}
	if err := e.sink.Publish(ctx, e.exchange, ev.RoutingKey(), payload); err != nil {
		e.log.WithError(err).WithField("routing_key", ev.RoutingKey()).
			Warn("events: publish failed, event dropped")
	}
}
