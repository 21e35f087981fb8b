// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	conductor "github.com/go-a2a/conductor"
	"github.com/go-a2a/conductor/server"
)

func TestMergeMessageMetadata(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		target map[string]any
		source map[string]any
		want   map[string]any
	}{
		"previous id rotates to last_message_id": {
			target: map[string]any{"message_id": "a"},
			source: map[string]any{"message_id": "b"},
			want:   map[string]any{"last_message_id": "a", "message_id": "b"},
		},
		"source wins on conflict": {
			target: map[string]any{"trace": "old", "keep": true},
			source: map[string]any{"trace": "new", "message_id": "m1"},
			want:   map[string]any{"trace": "new", "keep": true, "message_id": "m1"},
		},
		"nil source keeps target": {
			target: map[string]any{"message_id": "a"},
			source: nil,
			want:   map[string]any{"last_message_id": "a", "message_id": "a"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			target := conductor.NewAgentTextMessage("hello")
			target.Metadata = tt.target
			var source *conductor.Message
			if tt.source != nil {
				source = conductor.NewUserTextMessage("hi")
				source.Metadata = tt.source
			}

			mergeMessageMetadata(target, source)

			if diff := cmp.Diff(tt.want, target.Metadata); diff != "" {
				t.Errorf("metadata mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("fresh id generated when absent", func(t *testing.T) {
		t.Parallel()

		target := conductor.NewAgentTextMessage("hello")
		mergeMessageMetadata(target, conductor.NewUserTextMessage("hi"))

		if target.Metadata == nil || target.Metadata["message_id"] == "" {
			t.Errorf("metadata = %v, want generated message_id", target.Metadata)
		}
		if _, ok := target.Metadata["last_message_id"]; ok {
			t.Error("last_message_id set without a previous id")
		}
	})
}

func TestRemoteAgentConnection_Streaming(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{script: []server.StreamItem{
		{Response: AgentResponse{Content: "Looking up forecast..."}},
		{Response: AgentResponse{IsTaskComplete: true, Content: "Sunny, 20C"}},
	}}
	ts := newAgentServer(t, agent)

	conn, err := NewRemoteAgentConnection(agentCard(ts.URL, true), ClientConfig{})
	if err != nil {
		t.Fatalf("NewRemoteAgentConnection() error = %v", err)
	}

	var updates []conductor.Event
	task, failure := conn.SendTask(context.Background(), sendParams("task-1", "weather in Paris?"), func(event conductor.Event) {
		updates = append(updates, event)
	})
	if failure != nil {
		t.Fatalf("SendTask() failure = %+v", failure)
	}

	if task.Status.State != conductor.TaskStateCompleted {
		t.Errorf("task state = %q, want %q", task.Status.State, conductor.TaskStateCompleted)
	}
	if len(task.Artifacts) != 1 {
		t.Errorf("artifact count = %d, want 1", len(task.Artifacts))
	}

	// submitted snapshot, working status, artifact, final status.
	if len(updates) != 4 {
		t.Fatalf("update count = %d, want 4", len(updates))
	}
	first, ok := updates[0].(*conductor.TaskStatusUpdateEvent)
	if !ok || first.Status.State != conductor.TaskStateSubmitted {
		t.Errorf("updates[0] = %+v, want submitted status", updates[0])
	}
	last, ok := updates[len(updates)-1].(*conductor.TaskStatusUpdateEvent)
	if !ok || !last.Final {
		t.Errorf("updates[3] = %+v, want final status", updates[len(updates)-1])
	}

	// Every agent message got a correlation id.
	if last.Status.Message == nil || last.Status.Message.Metadata["message_id"] == "" {
		t.Error("final status message has no message_id")
	}
}

func TestRemoteAgentConnection_Polling(t *testing.T) {
	t.Parallel()

	agent := &scriptAgent{response: AgentResponse{IsTaskComplete: true, Content: "Sunny, 20C"}}
	ts := newAgentServer(t, agent)

	conn, err := NewRemoteAgentConnection(agentCard(ts.URL, false), ClientConfig{})
	if err != nil {
		t.Fatalf("NewRemoteAgentConnection() error = %v", err)
	}

	params := sendParams("task-1", "weather in Paris?")
	params.Metadata = map[string]any{"conversation_id": "conv-1"}
	params.Message.Metadata = map[string]any{"message_id": "m-1"}

	var updates []conductor.Event
	task, failure := conn.SendTask(context.Background(), params, func(event conductor.Event) {
		updates = append(updates, event)
	})
	if failure != nil {
		t.Fatalf("SendTask() failure = %+v", failure)
	}

	if task.Status.State != conductor.TaskStateCompleted {
		t.Errorf("task state = %q, want %q", task.Status.State, conductor.TaskStateCompleted)
	}
	if len(updates) != 1 {
		t.Fatalf("update count = %d, want 1", len(updates))
	}

	// The agent's answer carries the request message's metadata.
	if task.Status.Message == nil {
		t.Fatal("task has no status message")
	}
	if got := task.Status.Message.Metadata["message_id"]; got != "m-1" {
		t.Errorf("message_id = %v, want %q", got, "m-1")
	}
}

func TestRemoteAgentConnection_TransportFailure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		streaming bool
	}{
		"streaming":  {streaming: true},
		"single rpc": {streaming: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			card := agentCard("http://127.0.0.1:9", tt.streaming)
			conn, err := NewRemoteAgentConnection(card, ClientConfig{})
			if err != nil {
				t.Fatalf("NewRemoteAgentConnection() error = %v", err)
			}

			task, failure := conn.SendTask(context.Background(), sendParams("task-1", "hello"), nil)
			if task != nil {
				t.Errorf("SendTask() task = %+v, want nil", task)
			}
			if failure == nil {
				t.Fatal("SendTask() returned no failure for unreachable agent")
			}
			want := &FailureDescriptor{Status: "failed", Agent: "Weather Agent"}
			if failure.Status != want.Status || failure.Agent != want.Agent || failure.Error == "" {
				t.Errorf("failure = %+v, want status %q from agent %q", failure, want.Status, want.Agent)
			}
		})
	}
}
