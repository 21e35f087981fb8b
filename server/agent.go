// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
)

// AgentResponse is one unit of agent output. IsTaskComplete marks the
// final answer, RequireUserInput marks a turn back to the caller; when
// neither is set the response is an intermediate progress update. If both
// are set, completion takes precedence.
type AgentResponse struct {
	IsTaskComplete   bool
	RequireUserInput bool
	Content          string
}

// StreamItem is one element of a streaming agent run. Err, when non-nil,
// aborts the run; Response is meaningless in that case.
type StreamItem struct {
	Response AgentResponse
	Err      error
}

// Agent is the collaborator that produces answers for submitted tasks.
// The task manager drives the lifecycle; the agent only turns a query
// into content.
//
// Invoke must return a single response for a complete turn. Stream must
// return a channel that yields intermediate updates and closes after the
// terminating item (complete, input required, or error).
type Agent interface {
	// SupportedContentTypes returns the output modalities the agent can
	// produce, matched against the request's accepted output modes.
	SupportedContentTypes() []string

	// Invoke runs the agent to completion for a single-shot request.
	Invoke(ctx context.Context, query, sessionID string) (AgentResponse, error)

	// Stream runs the agent and yields incremental updates.
	Stream(ctx context.Context, query, sessionID string) (<-chan StreamItem, error)
}
