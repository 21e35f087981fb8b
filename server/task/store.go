// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides the canonical task store for the A2A server:
// task records, their lifecycle guard rails and the push-notification
// configuration side table.
package task

import (
	"context"

	conductor "github.com/go-a2a/conductor"
)

// Store holds canonical task records keyed by task ID. Mutations to a
// single task are serialized; reads may run concurrently and always
// observe a consistent snapshot.
//
// Updating a task that reached a terminal state fails with
// conductor.TaskNotUpdatableError and leaves the stored record unchanged.
type Store interface {
	// Upsert creates a task in the submitted state from the request
	// envelope, or returns the existing task for the same ID with the
	// request message appended to its history. Resubmitting to a
	// terminal task fails with conductor.TaskNotUpdatableError.
	Upsert(ctx context.Context, params conductor.TaskSendParams) (*conductor.Task, error)

	// Update applies a new status to the task and appends any artifacts.
	// The status message, if present, is appended to the task history.
	Update(ctx context.Context, taskID string, status conductor.TaskStatus, artifacts []*conductor.Artifact) (*conductor.Task, error)

	// Get returns a snapshot of the task.
	Get(ctx context.Context, taskID string) (*conductor.Task, error)

	// Delete removes the task record and its push notification config.
	Delete(ctx context.Context, taskID string) error

	// SetPushConfig associates a push notification config with a task.
	SetPushConfig(ctx context.Context, taskID string, config *conductor.PushNotificationConfig) error

	// GetPushConfig returns the push notification config for a task.
	GetPushConfig(ctx context.Context, taskID string) (*conductor.PushNotificationConfig, error)

	// HasPushConfig reports whether a push notification config exists.
	HasPushConfig(ctx context.Context, taskID string) bool

	// Close releases all store resources.
	Close(ctx context.Context) error
}

// AppendHistory returns a copy of the task whose history is truncated to
// the last historyLength messages. A historyLength of zero or less leaves
// the history unmodified. The stored task is never mutated.
func AppendHistory(task *conductor.Task, historyLength int) *conductor.Task {
	if task == nil {
		return nil
	}

	out := task.Clone()
	if historyLength > 0 && len(out.History) > historyLength {
		out.History = out.History[len(out.History)-historyLength:]
	}
	return out
}
