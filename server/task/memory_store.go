// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"

	conductor "github.com/go-a2a/conductor"
)

// InMemoryStore is an in-memory implementation of Store. Task data is lost
// when the server process stops. All operations are thread-safe; snapshots
// returned to callers are deep copies and never share state with the
// stored records.
type InMemoryStore struct {
	mu          sync.RWMutex
	tasks       map[string]*conductor.Task
	pushConfigs map[string]*conductor.PushNotificationConfig
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks:       make(map[string]*conductor.Task),
		pushConfigs: make(map[string]*conductor.PushNotificationConfig),
	}
}

// Upsert creates a task in the submitted state, or appends the request
// message to the history of an existing task with the same ID. Resubmitting
// to a terminal task fails with conductor.TaskNotUpdatableError and leaves
// the stored record unchanged.
func (s *InMemoryStore) Upsert(ctx context.Context, params conductor.TaskSendParams) (*conductor.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, conductor.InvalidParamsError{Msg: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[params.ID]
	if !exists {
		created, err := conductor.NewTask(params)
		if err != nil {
			return nil, conductor.InvalidParamsError{Msg: err.Error()}
		}
		s.tasks[params.ID] = created
		return created.Clone(), nil
	}

	if task.Status.State.Terminal() {
		return nil, conductor.TaskNotUpdatableError{TaskID: task.ID, State: task.Status.State}
	}

	task.History = append(task.History, params.Message.Clone())
	return task.Clone(), nil
}

// Update applies a new status to the task and appends any artifacts. It
// fails with conductor.TaskNotFoundError for an unknown ID and with
// conductor.TaskNotUpdatableError if the task is already terminal; in both
// cases the stored record is unchanged.
func (s *InMemoryStore) Update(ctx context.Context, taskID string, status conductor.TaskStatus, artifacts []*conductor.Artifact) (*conductor.Task, error) {
	if err := status.Validate(); err != nil {
		return nil, conductor.InvalidParamsError{Msg: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, conductor.TaskNotFoundError{TaskID: taskID}
	}

	if task.Status.State.Terminal() {
		return nil, conductor.TaskNotUpdatableError{TaskID: taskID, State: task.Status.State}
	}

	task.Status = conductor.TaskStatus{
		State:   status.State,
		Message: status.Message.Clone(),
	}
	if status.Message != nil {
		task.History = append(task.History, status.Message.Clone())
	}
	for _, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		task.Artifacts = append(task.Artifacts, artifact.Clone())
	}

	return task.Clone(), nil
}

// Get returns a snapshot of the task.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*conductor.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, conductor.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Delete removes the task record and its push notification config.
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return conductor.TaskNotFoundError{TaskID: taskID}
	}

	delete(s.tasks, taskID)
	delete(s.pushConfigs, taskID)
	return nil
}

// SetPushConfig associates a push notification config with a task.
// Re-setting a config replaces the previous one.
func (s *InMemoryStore) SetPushConfig(ctx context.Context, taskID string, config *conductor.PushNotificationConfig) error {
	if config == nil {
		return conductor.InvalidParamsError{Msg: "push notification config cannot be nil"}
	}
	if err := config.Validate(); err != nil {
		return conductor.InvalidParamsError{Msg: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	configCopy := *config
	s.pushConfigs[taskID] = &configCopy
	return nil
}

// GetPushConfig returns the push notification config for a task.
func (s *InMemoryStore) GetPushConfig(ctx context.Context, taskID string) (*conductor.PushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, exists := s.pushConfigs[taskID]
	if !exists {
		return nil, conductor.TaskNotFoundError{TaskID: taskID}
	}

	configCopy := *config
	return &configCopy, nil
}

// HasPushConfig reports whether a push notification config exists.
func (s *InMemoryStore) HasPushConfig(ctx context.Context, taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.pushConfigs[taskID]
	return exists
}

// Close clears all records.
func (s *InMemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*conductor.Task)
	s.pushConfigs = make(map[string]*conductor.PushNotificationConfig)
	return nil
}

// Size returns the current number of tasks. Useful for tests and
// monitoring.
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}
