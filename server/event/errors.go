// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "errors"

var (
	// ErrQueueClosed is returned when attempting to use a closed queue.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrNoActiveStream is returned when resubscribing to a task that has
	// no live publisher: the task finished or was never streamed.
	ErrNoActiveStream = errors.New("no active stream for task")

	// ErrInvalidQueueSize is returned when creating a queue with a
	// negative capacity.
	ErrInvalidQueueSize = errors.New("max queue size must not be negative")
)
