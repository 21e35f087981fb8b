// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"

	conductor "github.com/go-a2a/conductor"
)

// Consumer drains a single consumer queue, terminating its event sequence
// exactly once: after the first final event, when the queue is torn down,
// or when the caller's context is canceled.
type Consumer struct {
	queue *Queue
}

// NewConsumer creates a consumer for the given queue.
func NewConsumer(queue *Queue) *Consumer {
	return &Consumer{queue: queue}
}

// Events returns a channel yielding events as they arrive. The channel is
// closed after a final event has been delivered, after queue teardown, or
// on context cancellation. The final event itself is always delivered
// before the channel closes.
func (c *Consumer) Events(ctx context.Context) <-chan conductor.Event {
	events := make(chan conductor.Event)

	go func() {
		defer close(events)

		for {
			event, err := c.queue.Dequeue(ctx)
			if err != nil {
				// ErrQueueClosed means teardown; a context error means the
				// subscriber went away. Either way the sequence ends.
				return
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}

			if conductor.IsFinalEvent(event) {
				c.queue.Close()
				return
			}
		}
	}()

	return events
}
