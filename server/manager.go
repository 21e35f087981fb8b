// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	conductor "github.com/go-a2a/conductor"
	"github.com/go-a2a/conductor/server/event"
	"github.com/go-a2a/conductor/server/push"
	"github.com/go-a2a/conductor/server/task"
)

// TaskManager drives the task lifecycle: it validates requests, persists
// state transitions through the task store, runs the agent collaborator
// and fans results out to subscribers and push notification endpoints.
//
// State transitions follow submitted, working, then either completed or
// input-required; input-required tasks resume through working on the next
// send for the same task ID. Terminal states absorb all later updates.
type TaskManager struct {
	agent    Agent
	store    task.Store
	events   *event.Manager
	sender   *push.Sender
	verifier *push.URLVerifier

	logger *slog.Logger
	tracer trace.Tracer
}

// TaskManagerConfig configures a TaskManager.
type TaskManagerConfig struct {
	// Agent produces answers for submitted tasks. Required.
	Agent Agent

	// Store holds canonical task state. Defaults to a fresh in-memory
	// store.
	Store task.Store

	// Events fans task events out to streaming subscribers. Defaults to
	// a manager with the default queue size.
	Events *event.Manager

	// Sender delivers push notifications. When nil, requests carrying a
	// push notification config are rejected.
	Sender *push.Sender

	// Verifier vets push notification URLs before registration. When
	// nil, URLs are accepted without ownership verification.
	Verifier *push.URLVerifier

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
}

// NewTaskManager creates a TaskManager.
func NewTaskManager(config TaskManagerConfig) (*TaskManager, error) {
	if config.Agent == nil {
		return nil, fmt.Errorf("agent cannot be nil")
	}

	store := config.Store
	if store == nil {
		store = task.NewInMemoryStore()
	}
	events := config.Events
	if events == nil {
		events = event.NewManager(event.DefaultMaxQueueSize)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("github.com/go-a2a/conductor/server")
	}

	return &TaskManager{
		agent:    config.Agent,
		store:    store,
		events:   events,
		sender:   config.Sender,
		verifier: config.Verifier,
		logger:   logger,
		tracer:   tracer,
	}, nil
}

// SendTask handles a single-shot task submission. It runs the agent to
// completion and returns the resulting task snapshot, with history
// truncated to the requested length.
func (m *TaskManager) SendTask(ctx context.Context, params conductor.TaskSendParams) (*conductor.Task, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.SendTask",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if err := m.validateRequest(params); err != nil {
		return nil, err
	}

	if params.PushNotification != nil {
		if err := m.registerPushConfig(ctx, params.ID, params.PushNotification); err != nil {
			return nil, err
		}
	}

	if _, err := m.store.Upsert(ctx, params); err != nil {
		return nil, err
	}

	working, err := m.store.Update(ctx, params.ID, conductor.TaskStatus{State: conductor.TaskStateWorking}, nil)
	if err != nil {
		return nil, err
	}
	m.notifyPush(ctx, working)

	response, err := m.agent.Invoke(ctx, params.Message.Text(), params.SessionID)
	if err != nil {
		m.logger.ErrorContext(ctx, "agent invocation failed", "task_id", params.ID, "error", err)
		return nil, conductor.InternalError{Msg: fmt.Sprintf("agent invocation failed: %v", err)}
	}

	status, artifacts := m.resolveResponse(response, false)
	updated, err := m.store.Update(ctx, params.ID, status, artifacts)
	if err != nil {
		return nil, err
	}
	m.notifyPush(ctx, updated)

	m.logger.InfoContext(ctx, "task finished", "task_id", params.ID, "state", updated.Status.State)
	return task.AppendHistory(updated, params.HistoryLength), nil
}

// SendTaskSubscribe handles a streaming task submission. The agent runs
// in the background; the returned consumer yields status and artifact
// events until a final event ends the stream.
func (m *TaskManager) SendTaskSubscribe(ctx context.Context, params conductor.TaskSendParams) (*event.Consumer, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.SendTaskSubscribe",
		trace.WithAttributes(attribute.String("a2a.task_id", params.ID)))
	defer span.End()

	if err := m.validateRequest(params); err != nil {
		return nil, err
	}

	if params.PushNotification != nil {
		if err := m.registerPushConfig(ctx, params.ID, params.PushNotification); err != nil {
			return nil, err
		}
	}

	if _, err := m.store.Upsert(ctx, params); err != nil {
		return nil, err
	}

	queue, err := m.events.CreateConsumer(params.ID, false)
	if err != nil {
		return nil, err
	}

	go m.runStreamingAgent(params)

	m.logger.InfoContext(ctx, "task stream opened", "task_id", params.ID)
	return event.NewConsumer(queue), nil
}

// Resubscribe attaches a new consumer to an already-running stream. Only
// events published after attachment are delivered; there is no replay.
func (m *TaskManager) Resubscribe(ctx context.Context, taskID string) (*event.Consumer, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.Resubscribe",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	if _, err := m.store.Get(ctx, taskID); err != nil {
		return nil, err
	}

	queue, err := m.events.CreateConsumer(taskID, true)
	if err != nil {
		return nil, fmt.Errorf("resubscribe to task %s: %w", taskID, err)
	}

	m.logger.InfoContext(ctx, "task resubscribed", "task_id", taskID)
	return event.NewConsumer(queue), nil
}

// GetTask returns a snapshot of the task with history truncated to
// historyLength.
func (m *TaskManager) GetTask(ctx context.Context, taskID string, historyLength int) (*conductor.Task, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.GetTask",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	snapshot, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return task.AppendHistory(snapshot, historyLength), nil
}

// SetPushNotification registers a push notification config for an
// existing task after verifying the callback URL.
func (m *TaskManager) SetPushNotification(ctx context.Context, config conductor.TaskPushNotificationConfig) (*conductor.TaskPushNotificationConfig, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.SetPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", config.ID)))
	defer span.End()

	if _, err := m.store.Get(ctx, config.ID); err != nil {
		return nil, err
	}
	if err := m.registerPushConfig(ctx, config.ID, &config.PushNotificationConfig); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetPushNotification returns the push notification config registered for
// a task.
func (m *TaskManager) GetPushNotification(ctx context.Context, taskID string) (*conductor.TaskPushNotificationConfig, error) {
	ctx, span := m.tracer.Start(ctx, "a2a.task_manager.GetPushNotification",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	config, err := m.store.GetPushConfig(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &conductor.TaskPushNotificationConfig{ID: taskID, PushNotificationConfig: *config}, nil
}

// Close tears down all live streams and releases the store.
func (m *TaskManager) Close(ctx context.Context) error {
	m.events.CloseAll()
	return m.store.Close(ctx)
}

// validateRequest checks the request envelope and the modality contract
// before any state is created.
func (m *TaskManager) validateRequest(params conductor.TaskSendParams) error {
	if err := params.Validate(); err != nil {
		return conductor.InvalidParamsError{Msg: err.Error()}
	}

	supported := m.agent.SupportedContentTypes()
	if !conductor.AreModalitiesCompatible(params.AcceptedOutputModes, supported) {
		return conductor.ContentTypeNotSupportedError{
			Requested: params.AcceptedOutputModes,
			Supported: supported,
		}
	}

	if params.PushNotification != nil && params.PushNotification.URL == "" {
		return conductor.InvalidParamsError{Msg: "push notification URL is missing"}
	}
	return nil
}

// registerPushConfig verifies the callback URL and stores the config.
func (m *TaskManager) registerPushConfig(ctx context.Context, taskID string, config *conductor.PushNotificationConfig) error {
	if m.sender == nil {
		return conductor.PushNotificationNotSupportedError{}
	}
	if err := config.Validate(); err != nil {
		return conductor.InvalidParamsError{Msg: err.Error()}
	}
	if m.verifier != nil {
		if err := m.verifier.VerifyURL(ctx, config.URL); err != nil {
			m.logger.WarnContext(ctx, "push notification URL rejected",
				"task_id", taskID, "url", config.URL, "error", err)
			return conductor.InvalidParamsError{Msg: "push notification URL verification failed"}
		}
	}
	return m.store.SetPushConfig(ctx, taskID, config)
}

// runStreamingAgent drives one streaming agent run. It owns the stream
// teardown: whatever happens, the task's queues are closed when it
// returns.
func (m *TaskManager) runStreamingAgent(params conductor.TaskSendParams) {
	// Detached from the request context: subscribers may come and go
	// while the agent is still working.
	ctx := context.Background()
	defer m.events.Close(params.ID)

	stream, err := m.agent.Stream(ctx, params.Message.Text(), params.SessionID)
	if err != nil {
		m.publishInternalError(ctx, params.ID, fmt.Sprintf("streaming error: %v", err))
		return
	}

	for item := range stream {
		if item.Err != nil {
			m.publishInternalError(ctx, params.ID, fmt.Sprintf("streaming error: %v", item.Err))
			return
		}

		status, artifacts := m.resolveResponse(item.Response, true)
		final := item.Response.IsTaskComplete || item.Response.RequireUserInput

		updated, err := m.store.Update(ctx, params.ID, status, artifacts)
		if err != nil {
			m.publishInternalError(ctx, params.ID, fmt.Sprintf("streaming error: %v", err))
			return
		}
		m.notifyPush(ctx, updated)

		for _, artifact := range artifacts {
			m.events.Publish(params.ID, &conductor.TaskArtifactUpdateEvent{
				ID:       params.ID,
				Artifact: artifact,
			})
		}
		m.events.Publish(params.ID, &conductor.TaskStatusUpdateEvent{
			ID:     params.ID,
			Status: status,
			Final:  final,
		})

		if final {
			m.logger.InfoContext(ctx, "task stream finished",
				"task_id", params.ID, "state", status.State)
			return
		}
	}
}

// resolveResponse maps an agent response to a task status and artifacts.
// Completion wins when the agent reports both completion and a need for
// input. The streaming path keeps intermediate responses in the working
// state; the single-shot path has no intermediate responses and treats
// them as completed.
func (m *TaskManager) resolveResponse(response AgentResponse, streaming bool) (conductor.TaskStatus, []*conductor.Artifact) {
	var state conductor.TaskState
	switch {
	case response.IsTaskComplete:
		state = conductor.TaskStateCompleted
	case response.RequireUserInput:
		state = conductor.TaskStateInputRequired
	case streaming:
		state = conductor.TaskStateWorking
	default:
		state = conductor.TaskStateCompleted
	}

	status := conductor.TaskStatus{
		State:   state,
		Message: conductor.NewAgentTextMessage(response.Content),
	}

	var artifacts []*conductor.Artifact
	if state == conductor.TaskStateCompleted {
		artifacts = []*conductor.Artifact{conductor.NewTextArtifact(response.Content)}
	}
	return status, artifacts
}

// publishInternalError ends a stream with an internal error event. Task
// state is left at the last successful update.
func (m *TaskManager) publishInternalError(ctx context.Context, taskID, message string) {
	m.logger.ErrorContext(ctx, "task stream failed", "task_id", taskID, "error", message)
	m.events.Publish(taskID, &conductor.InternalErrorEvent{ID: taskID, Message: message})
}

// notifyPush delivers a task snapshot to the registered callback, if any.
// Delivery is asynchronous and never fails the request.
func (m *TaskManager) notifyPush(ctx context.Context, snapshot *conductor.Task) {
	if m.sender == nil || !m.store.HasPushConfig(ctx, snapshot.ID) {
		return
	}
	config, err := m.store.GetPushConfig(ctx, snapshot.ID)
	if err != nil {
		m.logger.WarnContext(ctx, "push notification config lookup failed",
			"task_id", snapshot.ID, "error", err)
		return
	}
	m.sender.Send(config, snapshot)
}
