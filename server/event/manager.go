// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"

	conductor "github.com/go-a2a/conductor"
)

// Manager tracks the consumer queues attached to each task and fans every
// published event out to all of them in publish order.
type Manager struct {
	mu      sync.RWMutex
	queues  map[string][]*Queue
	maxSize int
}

// NewManager creates a queue manager. A maxQueueSize of 0 selects
// DefaultMaxQueueSize for every consumer queue.
func NewManager(maxQueueSize int) *Manager {
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	}
	return &Manager{
		queues:  make(map[string][]*Queue),
		maxSize: maxQueueSize,
	}
}

// CreateConsumer registers a new consumer queue for the task and returns
// it. With isResubscribe set, the call fails with ErrNoActiveStream unless
// a stream for the task is already open: there is nothing to reattach to
// once a task finished or if it was never streamed.
func (m *Manager) CreateConsumer(taskID string, isResubscribe bool) (*Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, active := m.queues[taskID]
	if isResubscribe && !active {
		return nil, ErrNoActiveStream
	}

	queue, err := NewQueue(m.maxSize)
	if err != nil {
		return nil, err
	}

	m.queues[taskID] = append(existing, queue)
	return queue, nil
}

// Publish delivers the event to every consumer queue currently attached to
// the task. All subscribers observe events in the order Publish is called;
// a full queue drops that consumer's oldest unread event only.
func (m *Manager) Publish(taskID string, event conductor.Event) {
	m.mu.RLock()
	queues := m.queues[taskID]
	m.mu.RUnlock()

	for _, queue := range queues {
		// A closed queue just reports ErrQueueClosed; nothing to do.
		_ = queue.Enqueue(event)
	}
}

// HasActiveStream reports whether any consumer queues exist for the task.
func (m *Manager) HasActiveStream(taskID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, active := m.queues[taskID]
	return active
}

// Close tears down all consumer queues for the task, unblocking any
// consumer waiting in Dequeue.
func (m *Manager) Close(taskID string) {
	m.mu.Lock()
	queues := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()

	for _, queue := range queues {
		queue.Close()
	}
}

// CloseAll tears down every managed queue.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.queues
	m.queues = make(map[string][]*Queue)
	m.mu.Unlock()

	for _, queues := range all {
		for _, queue := range queues {
			queue.Close()
		}
	}
}

// ConsumerCount returns the number of consumer queues attached to the
// task. Useful for tests and monitoring.
func (m *Manager) ConsumerCount(taskID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.queues[taskID])
}
