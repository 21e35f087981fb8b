// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"testing"
)

func TestIsFinalEvent(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		event Event
		want  bool
	}{
		"non-final status update": {
			event: &TaskStatusUpdateEvent{
				ID:     "task-1",
				Status: TaskStatus{State: TaskStateWorking},
			},
			want: false,
		},
		"final status update": {
			event: &TaskStatusUpdateEvent{
				ID:     "task-1",
				Status: TaskStatus{State: TaskStateCompleted},
				Final:  true,
			},
			want: true,
		},
		"final input-required status update": {
			event: &TaskStatusUpdateEvent{
				ID:     "task-1",
				Status: TaskStatus{State: TaskStateInputRequired},
				Final:  true,
			},
			want: true,
		},
		"artifact update is never final": {
			event: &TaskArtifactUpdateEvent{
				ID:       "task-1",
				Artifact: NewTextArtifact("result"),
			},
			want: false,
		},
		"internal error ends the stream": {
			event: &InternalErrorEvent{
				ID:      "task-1",
				Message: "agent failed",
			},
			want: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := IsFinalEvent(tt.event); got != tt.want {
				t.Errorf("IsFinalEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventTaskID(t *testing.T) {
	t.Parallel()

	events := []Event{
		&TaskStatusUpdateEvent{ID: "task-1", Status: TaskStatus{State: TaskStateWorking}},
		&TaskArtifactUpdateEvent{ID: "task-1", Artifact: NewTextArtifact("x")},
		&InternalErrorEvent{ID: "task-1", Message: "boom"},
	}

	for _, event := range events {
		if got := event.EventTaskID(); got != "task-1" {
			t.Errorf("EventTaskID() = %q, want %q", got, "task-1")
		}
	}
}
