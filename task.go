// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package conductor provides the data model for the Agent-to-Agent (A2A)
// task orchestration protocol: tasks, messages, artifacts, agent cards and
// the status/artifact events exchanged between a host and its remote agents.
package conductor

import (
	"fmt"
)

// TaskState represents the lifecycle state of a task.
type TaskState string

// Task lifecycle states.
const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
)

// Terminal reports whether the state is absorbing. A task in a terminal
// state accepts no further status transitions.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateCanceled || s == TaskStateFailed
}

// Validate ensures the TaskState is one of the known states.
func (s TaskState) Validate() error {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return nil
	default:
		return fmt.Errorf("invalid task state: %s", s)
	}
}

// TaskStatus represents the current status of a task, optionally carrying
// the latest agent-authored message for that status.
type TaskStatus struct {
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitzero"`
}

// Validate ensures the TaskStatus is valid.
func (ts TaskStatus) Validate() error {
	if err := ts.State.Validate(); err != nil {
		return err
	}
	if ts.Message != nil {
		if err := ts.Message.Validate(); err != nil {
			return fmt.Errorf("invalid status message: %w", err)
		}
	}
	return nil
}

// Task represents a unit of work tracked by the task store. History and
// artifacts are append-only; once Status.State is terminal the record is
// immutable.
type Task struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId,omitzero"`
	Status    TaskStatus  `json:"status"`
	History   []*Message  `json:"history,omitzero"`
	Artifacts []*Artifact `json:"artifacts,omitzero"`
}

// Validate ensures the Task is valid.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if err := t.Status.Validate(); err != nil {
		return fmt.Errorf("invalid task status: %w", err)
	}
	for i, message := range t.History {
		if message == nil {
			return fmt.Errorf("history message at index %d cannot be nil", i)
		}
		if err := message.Validate(); err != nil {
			return fmt.Errorf("history message at index %d is invalid: %w", i, err)
		}
	}
	for i, artifact := range t.Artifacts {
		if artifact == nil {
			return fmt.Errorf("artifact at index %d cannot be nil", i)
		}
		if err := artifact.Validate(); err != nil {
			return fmt.Errorf("artifact at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// NewTask creates a Task in the submitted state from a TaskSendParams
// request envelope. The requesting message becomes the first history entry.
func NewTask(params TaskSendParams) (*Task, error) {
	if params.ID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if params.Message == nil {
		return nil, fmt.Errorf("request message cannot be nil")
	}
	if err := params.Message.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request message: %w", err)
	}

	return &Task{
		ID:        params.ID,
		SessionID: params.SessionID,
		Status: TaskStatus{
			State: TaskStateSubmitted,
		},
		History: []*Message{params.Message},
	}, nil
}

// Clone returns a deep copy of the task. History, artifacts and metadata
// maps are copied so the two values never share mutable state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	out := &Task{
		ID:        t.ID,
		SessionID: t.SessionID,
		Status: TaskStatus{
			State:   t.Status.State,
			Message: t.Status.Message.Clone(),
		},
	}

	if t.History != nil {
		out.History = make([]*Message, len(t.History))
		for i, message := range t.History {
			out.History[i] = message.Clone()
		}
	}
	if t.Artifacts != nil {
		out.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, artifact := range t.Artifacts {
			out.Artifacts[i] = artifact.Clone()
		}
	}

	return out
}
