// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	conductor "github.com/go-a2a/conductor"
	"github.com/go-a2a/conductor/server/event"
)

// sseWriter frames JSON-RPC responses as Server-Sent Events on an HTTP
// response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter prepares the response for event streaming. It fails when
// the underlying writer cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by connection")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	return &sseWriter{w: w, flusher: flusher}, nil
}

// WriteResponse frames one JSON-RPC response as a data-only SSE event.
func (s *sseWriter) WriteResponse(response *conductor.JSONRPCResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// streamEvents forwards consumer events to the client until the stream
// ends or the client goes away. Each event rides in a JSON-RPC response
// envelope carrying the request ID, internal errors as the error member.
func (s *sseWriter) streamEvents(ctx context.Context, requestID any, consumer *event.Consumer) {
	for ev := range consumer.Events(ctx) {
		response := &conductor.JSONRPCResponse{JSONRPC: "2.0", ID: requestID}

		if internalErr, ok := ev.(*conductor.InternalErrorEvent); ok {
			response.Error = &conductor.JSONRPCError{
				Code:    conductor.ErrorCodeInternalError,
				Message: internalErr.Message,
			}
		} else {
			result, err := json.Marshal(ev)
			if err != nil {
				response.Error = &conductor.JSONRPCError{
					Code:    conductor.ErrorCodeInternalError,
					Message: fmt.Sprintf("failed to encode event: %v", err),
				}
			} else {
				response.Result = jsontext.Value(result)
			}
		}

		if err := s.WriteResponse(response); err != nil {
			// Client disconnected; the consumer drains on ctx cancel.
			return
		}
	}
}
