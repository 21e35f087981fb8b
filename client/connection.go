// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"

	conductor "github.com/go-a2a/conductor"
)

// FailureDescriptor is the degraded result a host receives when a remote
// agent cannot be reached or fails mid-task. It is a payload, not an
// error: one remote's failure must not abort the host's orchestration.
type FailureDescriptor struct {
	Error  string `json:"error"`
	Status string `json:"status"`
	Agent  string `json:"agent"`
}

// TaskUpdateCallback observes task events as a remote task progresses.
type TaskUpdateCallback func(event conductor.Event)

// RemoteAgentConnection is a per-remote-agent proxy for a host. It picks
// the delivery strategy from the agent card and normalizes streaming and
// single-shot agents into one call.
type RemoteAgentConnection struct {
	card   conductor.AgentCard
	client *A2AClient
	logger *slog.Logger
}

// NewRemoteAgentConnection creates a connection for one remote agent.
// The card's URL is used as the JSON-RPC endpoint.
func NewRemoteAgentConnection(card conductor.AgentCard, config ClientConfig) (*RemoteAgentConnection, error) {
	if config.Endpoint == "" {
		config.Endpoint = card.URL
	}
	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &RemoteAgentConnection{
		card:   card,
		client: client,
		logger: client.logger,
	}, nil
}

// Card returns the remote agent's card.
func (c *RemoteAgentConnection) Card() conductor.AgentCard {
	return c.card
}

// SendTask dispatches a task to the remote agent and returns the unified
// result. Streaming agents are consumed event by event with onUpdate
// invoked per event; non-streaming agents answer in one round trip. Any
// transport failure is converted into a FailureDescriptor.
func (c *RemoteAgentConnection) SendTask(ctx context.Context, request conductor.TaskSendParams, onUpdate TaskUpdateCallback) (*conductor.Task, *FailureDescriptor) {
	if c.card.Capabilities.Streaming {
		return c.sendStreaming(ctx, request, onUpdate)
	}
	return c.sendPolling(ctx, request, onUpdate)
}

func (c *RemoteAgentConnection) sendStreaming(ctx context.Context, request conductor.TaskSendParams, onUpdate TaskUpdateCallback) (*conductor.Task, *FailureDescriptor) {
	if onUpdate != nil {
		onUpdate(&conductor.TaskStatusUpdateEvent{
			ID: request.ID,
			Status: conductor.TaskStatus{
				State:   conductor.TaskStateSubmitted,
				Message: request.Message,
			},
		})
	}

	stream, err := c.client.SendTaskStreaming(ctx, request)
	if err != nil {
		return nil, c.failure(err)
	}

	task := &conductor.Task{
		ID:        request.ID,
		SessionID: request.SessionID,
		Status:    conductor.TaskStatus{State: conductor.TaskStateSubmitted},
	}
	if request.Message != nil {
		task.History = []*conductor.Message{request.Message}
	}

	for event := range stream {
		if event.Err != nil {
			return nil, c.failure(event.Err)
		}

		switch {
		case event.Status != nil:
			event.Status.Metadata = conductor.MergeMetadata(event.Status.Metadata, request.Metadata)
			if event.Status.Status.Message != nil {
				mergeMessageMetadata(event.Status.Status.Message, request.Message)
			}
			task.Status = event.Status.Status
			if event.Status.Status.Message != nil {
				task.History = append(task.History, event.Status.Status.Message)
			}
			if onUpdate != nil {
				onUpdate(event.Status)
			}
			if event.Status.Final {
				return task, nil
			}

		case event.Artifact != nil:
			event.Artifact.Metadata = conductor.MergeMetadata(event.Artifact.Metadata, request.Metadata)
			task.Artifacts = append(task.Artifacts, event.Artifact.Artifact)
			if onUpdate != nil {
				onUpdate(event.Artifact)
			}
		}
	}

	// Stream ended without a final event: the remote tore the stream
	// down early.
	return task, nil
}

func (c *RemoteAgentConnection) sendPolling(ctx context.Context, request conductor.TaskSendParams, onUpdate TaskUpdateCallback) (*conductor.Task, *FailureDescriptor) {
	task, err := c.client.SendTask(ctx, request)
	if err != nil {
		return nil, c.failure(err)
	}

	if task.Status.Message != nil {
		mergeMessageMetadata(task.Status.Message, request.Message)
	}
	if onUpdate != nil {
		onUpdate(&conductor.TaskStatusUpdateEvent{
			ID:     task.ID,
			Status: task.Status,
			Final:  task.Status.State.Terminal(),
		})
	}
	return task, nil
}

func (c *RemoteAgentConnection) failure(err error) *FailureDescriptor {
	c.logger.Warn("remote agent task failed", "agent", c.card.Name, "error", err)
	return &FailureDescriptor{
		Error:  err.Error(),
		Status: "failed",
		Agent:  c.card.Name,
	}
}

// mergeMessageMetadata folds the request message's metadata into an
// incoming message and rotates the correlation ID: the message's previous
// message_id is preserved under last_message_id, the merged message_id
// wins, and a fresh one is generated when neither side supplies one.
func mergeMessageMetadata(target, source *conductor.Message) {
	if target == nil {
		return
	}

	var previousID any
	hadPrevious := false
	if target.Metadata != nil {
		previousID, hadPrevious = target.Metadata["message_id"]
	}

	var sourceMeta map[string]any
	if source != nil {
		sourceMeta = source.Metadata
	}
	target.Metadata = conductor.MergeMetadata(target.Metadata, sourceMeta)

	if hadPrevious {
		if target.Metadata == nil {
			target.Metadata = make(map[string]any)
		}
		target.Metadata["last_message_id"] = previousID
	}
	if target.Metadata == nil {
		target.Metadata = make(map[string]any)
	}
	if _, ok := target.Metadata["message_id"]; !ok {
		target.Metadata["message_id"] = conductor.GenerateID()
	}
}
