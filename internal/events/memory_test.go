// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventBus_Publish_AssignsIDAndTimestamp(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var received Event
	_, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		received = e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched, AppID: "calc"}))

	assert.NotEmpty(t, received.ID)
	assert.False(t, received.Timestamp.IsZero())
	assert.Equal(t, "calc", received.AppID)
}

func TestMemoryEventBus_Subscribe_PatternMatching(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var count int32
	_, err := bus.Subscribe("application.*", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	require.NoError(t, err)

	for _, typ := range []string{EventAppLaunched, EventAppStopped, EventAppExited, "other.thing"} {
		require.NoError(t, bus.Publish(context.Background(), Event{Type: typ}))
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&count))
}

func TestMemoryEventBus_Subscribe_InvalidPattern(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	_, err := bus.Subscribe("", func(ctx context.Context, e Event) error { return nil })
	assert.Error(t, err)
}

func TestMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var count int32
	id, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bus.SubscriberCount())

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched}))
	require.NoError(t, bus.Unsubscribe(id))
	assert.Equal(t, 0, bus.SubscriberCount())
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched}))

	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
	assert.ErrorIs(t, bus.Unsubscribe(id), ErrSubscriptionNotFound)
}

func TestMemoryEventBus_SubscribeAsync(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	received := make(chan Event, 1)
	_, err := bus.SubscribeAsync(EventAppExited, func(ctx context.Context, e Event) error {
		received <- e
		return nil
	}, 10)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppExited, AppID: "calc"}))

	select {
	case e := <-received:
		assert.Equal(t, "calc", e.AppID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for async event")
	}
}

func TestMemoryEventBus_HandlerErrorAndPanic(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})
	defer bus.Close()

	var reached int32
	_, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe("*", func(ctx context.Context, e Event) error {
		panic("handler panic")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe("*", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&reached, 1)
		return nil
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched}))
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&reached))
}

func TestMemoryEventBus_History(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{HistoryMaxEvents: 10})
	defer bus.Close()

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched, AppID: "calc"}))
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventAppStopped, AppID: "calc"}))

	all, err := bus.History(EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stopped, err := bus.History(EventFilter{Types: []string{EventAppStopped}})
	require.NoError(t, err)
	require.Len(t, stopped, 1)
	assert.Equal(t, EventAppStopped, stopped[0].Type)
}

func TestMemoryEventBus_Close(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{})

	_, err := bus.SubscribeAsync("*", func(ctx context.Context, e Event) error { return nil }, 1)
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), Event{Type: EventAppLaunched}), ErrBusClosed)
	_, err = bus.Subscribe("*", func(ctx context.Context, e Event) error { return nil })
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestMemoryEventBus_Concurrency(t *testing.T) {
	bus := NewMemoryEventBus(MemoryBusConfig{HistoryMaxEvents: 1000})
	defer bus.Close()

	var count int64
	_, err := bus.Subscribe("*", func(ctx context.Context, e Event) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				bus.Publish(context.Background(), Event{Type: EventAppLaunched})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(200), atomic.LoadInt64(&count))
}
