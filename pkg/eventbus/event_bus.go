package eventbus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Envelope is the unit delivered to subscribers.
type Envelope struct {
	Exchange   string
	RoutingKey string
	Payload    json.RawMessage
}

// Sink accepts published domain events. Implementations may bridge to
// an external broker; publishing is at-most-once relative to the
// caller's transaction.
type Sink interface {
	Publish(ctx context.Context, exchange, routingKey string, payload json.RawMessage) error
}

type Handler func(ctx context.Context, e Envelope)

// EventBus is an in-process Sink that fans envelopes out to
// routing-key-matched subscribers.
type EventBus interface {
	Sink
	Subscribe(pattern string, h Handler)
	SubscribersCount() int
	Clear()
}

type subscriber struct {
	pattern string
	handler Handler
}

type busImpl struct {
	log *logrus.Logger

	mu          sync.RWMutex
	subscribers []subscriber
}

func New(log *logrus.Logger) EventBus {
	return &busImpl{log: log}
}

// MatchRoutingKey reports whether a routing key matches a subscription
// pattern. A trailing ".*" matches any single suffix segment; "#"
// matches everything.
func MatchRoutingKey(pattern, key string) bool {
	if pattern == "#" || pattern == key {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		rest, found := strings.CutPrefix(key, prefix+".")
		return found && !strings.Contains(rest, ".")
	}
	return false
}

func (b *busImpl) Publish(ctx context.Context, exchange, routingKey string, payload json.RawMessage) error {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	e := Envelope{Exchange: exchange, RoutingKey: routingKey, Payload: payload}

	handled := false
	for _, sub := range subs {
		if !MatchRoutingKey(sub.pattern, routingKey) {
			continue
		}
		handled = true
		func() {
			defer func() {
				if r := recover(); r != nil {
					if b.log != nil {
						b.log.Errorf("eventbus: handler for %q panicked on %s: %v", sub.pattern, routingKey, r)
					}
				}
			}()
			sub.handler(ctx, e)
		}()
	}

	if !handled && b.log != nil {
		b.log.Warnf("eventbus: no matching subscribers for routing key %q", routingKey)
	}
	return nil
}

func (b *busImpl) Subscribe(pattern string, h Handler) {
	if h == nil {
		panic("eventbus: handler must not be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber{pattern: pattern, handler: h})
}

func (b *busImpl) SubscribersCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *busImpl) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = nil
}
