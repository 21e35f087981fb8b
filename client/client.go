// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the A2A client side: a JSON-RPC client for a
// single remote agent endpoint and the remote connection used by hosts
// to dispatch tasks across agents.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	conductor "github.com/go-a2a/conductor"
	"github.com/go-a2a/conductor/client/internal/sse"
)

// agentCardPath is the well-known discovery path for agent cards.
const agentCardPath = "/.well-known/agent.json"

// A2AClient talks JSON-RPC to one remote agent endpoint.
type A2AClient struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// ClientConfig configures an A2AClient.
type ClientConfig struct {
	// Endpoint is the agent's JSON-RPC URL. Required.
	Endpoint string

	// HTTPClient defaults to a client with a 60 second timeout. Streaming
	// requests strip the timeout so long-lived event streams stay open.
	HTTPClient *http.Client

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewClient creates an A2AClient.
func NewClient(config ClientConfig) (*A2AClient, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &A2AClient{
		endpoint: config.Endpoint,
		client:   httpClient,
		logger:   logger,
	}, nil
}

// ResolveAgentCard fetches the agent card from the well-known discovery
// path under baseURL.
func ResolveAgentCard(ctx context.Context, httpClient *http.Client, baseURL string) (*conductor.AgentCard, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cardURL := strings.TrimSuffix(baseURL, "/") + agentCardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create card request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card endpoint returned HTTP %d", resp.StatusCode)
	}

	var card conductor.AgentCard
	if err := json.UnmarshalRead(resp.Body, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

// SendTask submits a task and waits for the agent's complete answer.
func (c *A2AClient) SendTask(ctx context.Context, params conductor.TaskSendParams) (*conductor.Task, error) {
	var task conductor.Task
	if err := c.call(ctx, conductor.MethodTasksSend, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask retrieves a task snapshot.
func (c *A2AClient) GetTask(ctx context.Context, taskID string, historyLength int) (*conductor.Task, error) {
	var task conductor.Task
	params := conductor.TaskQueryParams{ID: taskID, HistoryLength: historyLength}
	if err := c.call(ctx, conductor.MethodTasksGet, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetPushNotification registers a push notification callback for a task.
func (c *A2AClient) SetPushNotification(ctx context.Context, config conductor.TaskPushNotificationConfig) (*conductor.TaskPushNotificationConfig, error) {
	var result conductor.TaskPushNotificationConfig
	if err := c.call(ctx, conductor.MethodTasksPushNotificationSet, config, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPushNotification retrieves the push notification config for a task.
func (c *A2AClient) GetPushNotification(ctx context.Context, taskID string) (*conductor.TaskPushNotificationConfig, error) {
	var result conductor.TaskPushNotificationConfig
	params := conductor.TaskIDParams{ID: taskID}
	if err := c.call(ctx, conductor.MethodTasksPushNotificationGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StreamEvent is one element of a streaming response. Exactly one field
// is set.
type StreamEvent struct {
	Status   *conductor.TaskStatusUpdateEvent
	Artifact *conductor.TaskArtifactUpdateEvent
	Err      error
}

// SendTaskStreaming submits a task and streams status and artifact
// events. The channel closes after the final event or on error; a
// server-side failure arrives as a StreamEvent with Err set.
func (c *A2AClient) SendTaskStreaming(ctx context.Context, params conductor.TaskSendParams) (<-chan StreamEvent, error) {
	return c.stream(ctx, conductor.MethodTasksSendSubscribe, params)
}

// Resubscribe reattaches to a running task stream.
func (c *A2AClient) Resubscribe(ctx context.Context, taskID string) (<-chan StreamEvent, error) {
	return c.stream(ctx, conductor.MethodTasksResubscribe, conductor.TaskIDParams{ID: taskID})
}

// call performs one JSON-RPC round trip and decodes the result into out.
func (c *A2AClient) call(ctx context.Context, method string, params, out any) error {
	resp, err := c.do(ctx, c.client, method, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpcResp conductor.JSONRPCResponse
	if err := json.UnmarshalRead(resp.Body, &rpcResp); err != nil {
		return fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode rpc result: %w", err)
	}
	return nil
}

// stream performs one JSON-RPC request and decodes the SSE response into
// a channel of events.
func (c *A2AClient) stream(ctx context.Context, method string, params any) (<-chan StreamEvent, error) {
	// No client timeout on streams; lifetime is bound to ctx.
	streamClient := &http.Client{Transport: c.client.Transport}

	resp, err := c.do(ctx, streamClient, method, params)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "text/event-stream") {
		// The server answered with a plain JSON-RPC error.
		defer resp.Body.Close()
		var rpcResp conductor.JSONRPCResponse
		if err := json.UnmarshalRead(resp.Body, &rpcResp); err != nil {
			return nil, fmt.Errorf("decode rpc response: %w", err)
		}
		if rpcResp.Error != nil {
			return nil, rpcResp.Error
		}
		return nil, fmt.Errorf("expected event stream, got %q", contentType)
	}

	events := make(chan StreamEvent)
	go c.decodeStream(resp.Body, events)
	return events, nil
}

// decodeStream turns SSE frames into StreamEvents until the stream ends.
func (c *A2AClient) decodeStream(body io.ReadCloser, events chan<- StreamEvent) {
	defer close(events)
	defer body.Close()

	decoder := sse.NewDecoder(body)
	for {
		var rpcResp conductor.JSONRPCResponse
		if err := decoder.DecodeJSON(&rpcResp); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			events <- StreamEvent{Err: fmt.Errorf("decode stream event: %w", err)}
			return
		}

		event, err := decodeEvent(&rpcResp)
		events <- event
		if err != nil || event.Err != nil {
			return
		}
		if event.Status != nil && event.Status.Final {
			return
		}
	}
}

// decodeEvent maps one JSON-RPC envelope to a StreamEvent. The result is
// probed for a status or artifact member to pick the concrete type.
func decodeEvent(rpcResp *conductor.JSONRPCResponse) (StreamEvent, error) {
	if rpcResp.Error != nil {
		return StreamEvent{Err: rpcResp.Error}, nil
	}

	var probe struct {
		Status   jsontext.Value `json:"status"`
		Artifact jsontext.Value `json:"artifact"`
	}
	if err := json.Unmarshal(rpcResp.Result, &probe); err != nil {
		return StreamEvent{Err: fmt.Errorf("decode stream event: %w", err)}, err
	}

	switch {
	case len(probe.Status) > 0:
		var status conductor.TaskStatusUpdateEvent
		if err := json.Unmarshal(rpcResp.Result, &status); err != nil {
			return StreamEvent{Err: err}, err
		}
		return StreamEvent{Status: &status}, nil
	case len(probe.Artifact) > 0:
		var artifact conductor.TaskArtifactUpdateEvent
		if err := json.Unmarshal(rpcResp.Result, &artifact); err != nil {
			return StreamEvent{Err: err}, err
		}
		return StreamEvent{Artifact: &artifact}, nil
	default:
		err := fmt.Errorf("stream event is neither status nor artifact")
		return StreamEvent{Err: err}, err
	}
}

// do sends one JSON-RPC request envelope.
func (c *A2AClient) do(ctx context.Context, httpClient *http.Client, method string, params any) (*http.Response, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	body, err := json.Marshal(&conductor.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      conductor.GenerateID(),
		Method:  method,
		Params:  jsontext.Value(paramsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "rpc request", "method", method, "endpoint", c.endpoint)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call %s: %w", method, err)
	}
	return resp, nil
}
