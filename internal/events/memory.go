// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// ErrSubscriptionNotFound is returned when unsubscribing with invalid ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// MemoryBusConfig configures the memory event bus.
type MemoryBusConfig struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
	Logger           *zap.Logger
}

// MemoryEventBus is an in-memory event bus implementation.
type MemoryEventBus struct {
	mu            sync.RWMutex
	subscriptions map[SubscriptionID]*subscription
	history       *History
	log           *zap.Logger
	closed        atomic.Bool
	wg            sync.WaitGroup
	stopPruner    chan struct{}
}

type subscription struct {
	id      SubscriptionID
	pattern Pattern
	handler EventHandler
	async   bool
	ch      chan Event
	stopCh  chan struct{}
}

// NewMemoryEventBus creates a new in-memory event bus.
func NewMemoryEventBus(cfg MemoryBusConfig) *MemoryEventBus {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bus := &MemoryEventBus{
		subscriptions: make(map[SubscriptionID]*subscription),
		history: NewHistory(HistoryConfig{
			MaxEvents: cfg.HistoryMaxEvents,
			MaxAge:    cfg.HistoryMaxAge,
		}),
		log:        logger,
		stopPruner: make(chan struct{}),
	}

	pruneInterval := cfg.HistoryMaxAge / 10
	if pruneInterval < time.Minute {
		pruneInterval = time.Minute
	}
	if pruneInterval > time.Hour {
		pruneInterval = time.Hour
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-bus.stopPruner:
				return
			case <-ticker.C:
				bus.history.Prune()
			}
		}
	}()

	return bus
}

// Publish emits an event to all matching subscribers.
func (bus *MemoryEventBus) Publish(ctx context.Context, event Event) error {
	if bus.closed.Load() {
		return ErrBusClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.history.Add(event)

	bus.mu.RLock()
	subs := make([]*subscription, 0, len(bus.subscriptions))
	for _, sub := range bus.subscriptions {
		subs = append(subs, sub)
	}
	bus.mu.RUnlock()

	for _, sub := range subs {
		if !sub.pattern.Match(event.Type) {
			continue
		}
		if sub.async {
			select {
			case sub.ch <- event:
			default:
				bus.log.Warn("dropped event, async subscriber buffer full",
					zap.String("type", event.Type),
					zap.String("pattern", sub.pattern.String()))
			}
			continue
		}
		bus.dispatch(ctx, sub.handler, event)
	}

	return nil
}

// dispatch runs a handler, containing panics and logging errors.
func (bus *MemoryEventBus) dispatch(ctx context.Context, handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.log.Error("event handler panic", zap.String("type", event.Type), zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		bus.log.Warn("event handler failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// Subscribe registers a synchronous handler for events matching pattern.
func (bus *MemoryEventBus) Subscribe(pattern string, handler EventHandler) (SubscriptionID, error) {
	return bus.subscribe(pattern, handler, false, 0)
}

// SubscribeAsync registers an async handler with buffered channel.
func (bus *MemoryEventBus) SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error) {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return bus.subscribe(pattern, handler, true, bufferSize)
}

func (bus *MemoryEventBus) subscribe(pattern string, handler EventHandler, async bool, bufferSize int) (SubscriptionID, error) {
	if bus.closed.Load() {
		return "", ErrBusClosed
	}

	compiled, err := CompilePattern(pattern)
	if err != nil {
		return "", err
	}

	sub := &subscription{
		id:      SubscriptionID(uuid.NewString()),
		pattern: compiled,
		handler: handler,
		async:   async,
	}
	if async {
		sub.ch = make(chan Event, bufferSize)
		sub.stopCh = make(chan struct{})
	}

	bus.mu.Lock()
	bus.subscriptions[sub.id] = sub
	bus.mu.Unlock()

	if async {
		bus.wg.Add(1)
		go func() {
			defer bus.wg.Done()
			for {
				select {
				case <-sub.stopCh:
					return
				case event := <-sub.ch:
					bus.dispatch(context.Background(), sub.handler, event)
				}
			}
		}()
	}

	return sub.id, nil
}

// Unsubscribe removes a subscription.
func (bus *MemoryEventBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	sub, ok := bus.subscriptions[id]
	if !ok {
		bus.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	delete(bus.subscriptions, id)
	bus.mu.Unlock()

	if sub.async {
		close(sub.stopCh)
	}

	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (bus *MemoryEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscriptions)
}

// History retrieves past events matching filter.
func (bus *MemoryEventBus) History(filter EventFilter) ([]Event, error) {
	return bus.history.Query(filter), nil
}

// Close shuts down the event bus.
func (bus *MemoryEventBus) Close() error {
	if bus.closed.Swap(true) {
		return nil
	}

	close(bus.stopPruner)

	bus.mu.Lock()
	for _, sub := range bus.subscriptions {
		if sub.async {
			close(sub.stopCh)
		}
	}
	bus.subscriptions = make(map[SubscriptionID]*subscription)
	bus.mu.Unlock()

	bus.wg.Wait()
	return nil
}
