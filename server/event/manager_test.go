// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	conductor "github.com/go-a2a/conductor"
)

func TestManager_CreateConsumer(t *testing.T) {
	t.Parallel()

	t.Run("resubscribe without active stream fails", func(t *testing.T) {
		t.Parallel()

		m := NewManager(0)
		_, err := m.CreateConsumer("task-1", true)
		if !errors.Is(err, ErrNoActiveStream) {
			t.Errorf("CreateConsumer(resubscribe) error = %v, want ErrNoActiveStream", err)
		}
	})

	t.Run("resubscribe attaches to active stream", func(t *testing.T) {
		t.Parallel()

		m := NewManager(0)
		if _, err := m.CreateConsumer("task-1", false); err != nil {
			t.Fatalf("CreateConsumer() error = %v", err)
		}
		if _, err := m.CreateConsumer("task-1", true); err != nil {
			t.Errorf("CreateConsumer(resubscribe) error = %v", err)
		}
		if got := m.ConsumerCount("task-1"); got != 2 {
			t.Errorf("ConsumerCount() = %d, want 2", got)
		}
	})

	t.Run("resubscribe after teardown fails", func(t *testing.T) {
		t.Parallel()

		m := NewManager(0)
		if _, err := m.CreateConsumer("task-1", false); err != nil {
			t.Fatalf("CreateConsumer() error = %v", err)
		}
		m.Close("task-1")

		if _, err := m.CreateConsumer("task-1", true); !errors.Is(err, ErrNoActiveStream) {
			t.Errorf("CreateConsumer(resubscribe) after Close error = %v, want ErrNoActiveStream", err)
		}
	})
}

func TestManager_FanOutOrdering(t *testing.T) {
	t.Parallel()

	const (
		subscribers = 4
		updates     = 10
	)

	ctx := context.Background()
	m := NewManager(0)

	queues := make([]*Queue, subscribers)
	for i := range queues {
		queue, err := m.CreateConsumer("task-1", false)
		if err != nil {
			t.Fatalf("CreateConsumer() error = %v", err)
		}
		queues[i] = queue
	}

	var published []conductor.Event
	for i := 1; i <= updates; i++ {
		event := statusEvent("task-1", i)
		published = append(published, event)
		m.Publish("task-1", event)
	}
	final := finalEvent("task-1", conductor.TaskStateCompleted)
	published = append(published, final)
	m.Publish("task-1", final)

	// Every subscriber observes the full sequence in publish order, and
	// each sequence ends exactly once at the terminal event.
	var wg sync.WaitGroup
	for i, queue := range queues {
		wg.Add(1)
		go func(i int, queue *Queue) {
			defer wg.Done()

			var received []conductor.Event
			for event := range NewConsumer(queue).Events(ctx) {
				received = append(received, event)
			}

			if diff := cmp.Diff(published, received); diff != "" {
				t.Errorf("subscriber %d event sequence mismatch (-want +got):\n%s", i, diff)
				return
			}
			if !conductor.IsFinalEvent(received[len(received)-1]) {
				t.Errorf("subscriber %d sequence did not end with a final event", i)
			}
		}(i, queue)
	}
	wg.Wait()
}

func TestManager_SlowSubscriberDoesNotStallOthers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(2)

	slow, err := m.CreateConsumer("task-1", false)
	if err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}
	fast, err := m.CreateConsumer("task-1", false)
	if err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}

	// The fast subscriber drains as we publish; the slow one never reads.
	done := make(chan int)
	go func() {
		count := 0
		for range NewConsumer(fast).Events(ctx) {
			count++
		}
		done <- count
	}()

	for i := 1; i <= 8; i++ {
		m.Publish("task-1", statusEvent("task-1", i))
	}
	m.Publish("task-1", finalEvent("task-1", conductor.TaskStateCompleted))

	select {
	case count := <-done:
		// Drop-oldest never evicts the newest event, so the final event
		// always reaches the consumer and terminates its sequence.
		if count < 1 {
			t.Errorf("fast subscriber received %d events, want at least 1", count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber stalled by slow subscriber")
	}

	// The slow subscriber kept only the newest events within capacity.
	if slow.Size() != 2 {
		t.Errorf("slow queue size = %d, want 2", slow.Size())
	}
	last, err := slow.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if conductor.IsFinalEvent(last) {
		t.Error("oldest surviving event is the final event; expected an earlier survivor first")
	}
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(0)

	queue, err := m.CreateConsumer("task-1", false)
	if err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}

	// A consumer blocked in Dequeue is released by teardown with a closed,
	// not hanging, sequence.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range NewConsumer(queue).Events(ctx) {
		}
	}()

	time.Sleep(20 * time.Millisecond)
	m.Close("task-1")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer still blocked after Close()")
	}

	if m.HasActiveStream("task-1") {
		t.Error("HasActiveStream() = true after Close()")
	}
}

func TestManager_LateSubscriberSeesNoHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(0)

	first, err := m.CreateConsumer("task-1", false)
	if err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}
	m.Publish("task-1", statusEvent("task-1", 1))
	m.Publish("task-1", statusEvent("task-1", 2))

	// Events published before attachment are not replayed.
	late, err := m.CreateConsumer("task-1", true)
	if err != nil {
		t.Fatalf("CreateConsumer(resubscribe) error = %v", err)
	}
	if late.Size() != 0 {
		t.Errorf("late subscriber queue size = %d, want 0", late.Size())
	}

	final := finalEvent("task-1", conductor.TaskStateCompleted)
	m.Publish("task-1", final)

	var lateEvents []conductor.Event
	for event := range NewConsumer(late).Events(ctx) {
		lateEvents = append(lateEvents, event)
	}
	want := []conductor.Event{final}
	if diff := cmp.Diff(want, lateEvents); diff != "" {
		t.Errorf("late subscriber events mismatch (-want +got):\n%s", diff)
	}

	if first.Size() != 3 {
		t.Errorf("first subscriber queue size = %d, want 3", first.Size())
	}
}

func TestManager_CloseAll(t *testing.T) {
	t.Parallel()

	m := NewManager(0)

	for _, taskID := range []string{"task-1", "task-2"} {
		if _, err := m.CreateConsumer(taskID, false); err != nil {
			t.Fatalf("CreateConsumer(%s) error = %v", taskID, err)
		}
	}

	m.CloseAll()

	for _, taskID := range []string{"task-1", "task-2"} {
		if m.HasActiveStream(taskID) {
			t.Errorf("HasActiveStream(%s) = true after CloseAll()", taskID)
		}
	}
}

func TestManager_ConcurrentPublishAndSubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(0)

	if _, err := m.CreateConsumer("task-1", false); err != nil {
		t.Fatalf("CreateConsumer() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Publish("task-1", statusEvent("task-1", i))
		}(i)
		go func() {
			defer wg.Done()
			queue, err := m.CreateConsumer("task-1", true)
			if err != nil {
				t.Errorf("CreateConsumer(resubscribe) error = %v", err)
				return
			}
			// Non-blocking sanity read.
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			_, _ = queue.Dequeue(readCtx)
		}()
	}
	wg.Wait()

	m.Close("task-1")
}
