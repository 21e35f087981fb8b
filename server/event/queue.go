// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides per-task, multi-consumer event queues for
// SSE-style streaming: fan-out to every attached subscriber, resubscribe
// semantics and teardown that unblocks pending readers.
package event

import (
	"context"
	"sync"

	conductor "github.com/go-a2a/conductor"
)

// DefaultMaxQueueSize is the default per-consumer queue capacity.
const DefaultMaxQueueSize = 1024

// Queue is a bounded event queue backing a single subscriber.
//
// Overflow policy: when the buffer is full, Enqueue drops the OLDEST
// unread event for this consumer and accepts the new one. Publication
// therefore never blocks on a slow subscriber, and one lagging consumer
// cannot stall delivery to the others.
type Queue struct {
	events     chan conductor.Event
	maxSize    int
	mu         sync.RWMutex
	closed     bool
	closeOnce  sync.Once
	doneSignal chan struct{}
}

// NewQueue creates a queue with the given capacity. A maxSize of 0 selects
// DefaultMaxQueueSize.
func NewQueue(maxSize int) (*Queue, error) {
	if maxSize < 0 {
		return nil, ErrInvalidQueueSize
	}
	if maxSize == 0 {
		maxSize = DefaultMaxQueueSize
	}

	return &Queue{
		events:     make(chan conductor.Event, maxSize),
		maxSize:    maxSize,
		doneSignal: make(chan struct{}),
	}, nil
}

// Enqueue adds an event to the queue, evicting the oldest unread event if
// the buffer is full. Returns ErrQueueClosed if the queue is closed.
func (q *Queue) Enqueue(event conductor.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	for {
		select {
		case q.events <- event:
			return nil
		default:
		}

		// Buffer full: evict one and retry. A concurrent reader may have
		// drained the queue in between, so the drain is non-blocking too.
		select {
		case <-q.events:
		default:
		}
	}
}

// Dequeue retrieves the next event, blocking until one is available, the
// context is canceled, or the queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (conductor.Event, error) {
	select {
	case event := <-q.events:
		return event, nil
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event := <-q.events:
		return event, nil
	case <-q.doneSignal:
		// Drain anything still buffered before reporting closure.
		select {
		case event := <-q.events:
			return event, nil
		default:
			return nil, ErrQueueClosed
		}
	}
}

// Close closes the queue. Pending Dequeue calls return buffered events
// first, then ErrQueueClosed. Close is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		q.closed = true
		close(q.doneSignal)
	})
}

// IsClosed reports whether the queue is closed.
func (q *Queue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Size returns the number of buffered events.
func (q *Queue) Size() int {
	return len(q.events)
}

// Capacity returns the maximum buffer size.
func (q *Queue) Capacity() int {
	return q.maxSize
}
