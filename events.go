// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

// Event represents any event that can be published for a task and consumed
// by streaming subscribers. Events are ephemeral: they are delivered to the
// subscribers attached at publication time and never persisted.
type Event interface {
	// EventTaskID returns the task ID this event belongs to.
	EventTaskID() string
}

// TaskStatusUpdateEvent carries a status snapshot for a task. Final marks
// the last event of a stream; after it the subscriber's sequence ends.
type TaskStatusUpdateEvent struct {
	ID       string         `json:"id"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// EventTaskID returns the task ID this event belongs to.
func (e *TaskStatusUpdateEvent) EventTaskID() string {
	return e.ID
}

// TaskArtifactUpdateEvent carries an artifact produced by the task.
type TaskArtifactUpdateEvent struct {
	ID       string         `json:"id"`
	Artifact *Artifact      `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// EventTaskID returns the task ID this event belongs to.
func (e *TaskArtifactUpdateEvent) EventTaskID() string {
	return e.ID
}

// InternalErrorEvent reports a failure of the agent collaborator on a live
// stream. It terminates the subscriber's sequence without persisting any
// status change for the task.
type InternalErrorEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// EventTaskID returns the task ID this event belongs to.
func (e *InternalErrorEvent) EventTaskID() string {
	return e.ID
}

var (
	_ Event = (*TaskStatusUpdateEvent)(nil)
	_ Event = (*TaskArtifactUpdateEvent)(nil)
	_ Event = (*InternalErrorEvent)(nil)
)

// IsFinalEvent reports whether the event terminates a subscriber stream.
// A status update with Final set and an internal error event both end the
// stream.
func IsFinalEvent(event Event) bool {
	switch e := event.(type) {
	case *TaskStatusUpdateEvent:
		return e.Final
	case *InternalErrorEvent:
		return true
	default:
		return false
	}
}
