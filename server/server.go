// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	conductor "github.com/go-a2a/conductor"
	"github.com/go-a2a/conductor/server/event"
	"github.com/go-a2a/conductor/server/push"
)

// A2AServer exposes a TaskManager over HTTP: JSON-RPC on the root path,
// SSE for the streaming methods, plus the agent card and JWKS discovery
// documents on their well-known paths.
type A2AServer struct {
	card    conductor.AgentCard
	manager *TaskManager
	keys    *push.KeyManager
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Config configures an A2AServer.
type Config struct {
	// Card is the agent card served at /.well-known/agent.json. Required.
	Card conductor.AgentCard

	// Manager handles the task lifecycle. Required.
	Manager *TaskManager

	// Keys, when set, are served as a JWKS document at
	// /.well-known/jwks.json so receivers can verify push notifications.
	Keys *push.KeyManager

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewServer creates an A2AServer.
func NewServer(config Config) (*A2AServer, error) {
	if err := config.Card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	if config.Manager == nil {
		return nil, fmt.Errorf("task manager cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &A2AServer{
		card:    config.Card,
		manager: config.Manager,
		keys:    config.Keys,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	if s.keys != nil {
		s.mux.Handle("GET /.well-known/jwks.json", s.keys.JWKSHandler())
	}
	s.mux.HandleFunc("POST /{$}", s.handleRPC)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *A2AServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *A2AServer) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, s.card); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to encode agent card", "error", err)
	}
}

// handleRPC parses one JSON-RPC request and dispatches it. Streaming
// methods switch the response to SSE; everything else answers with a
// single JSON-RPC response.
func (s *A2AServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	var request conductor.JSONRPCRequest
	if err := json.UnmarshalRead(r.Body, &request); err != nil {
		s.writeResponse(w, nil, nil, conductor.JSONParseError{Msg: err.Error()})
		return
	}

	ctx := r.Context()
	s.logger.InfoContext(ctx, "rpc request", "method", request.Method, "request_id", request.ID)

	switch request.Method {
	case conductor.MethodTasksSend:
		var params conductor.TaskSendParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		result, err := s.manager.SendTask(ctx, params)
		s.writeResponse(w, request.ID, result, err)

	case conductor.MethodTasksGet:
		var params conductor.TaskQueryParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		result, err := s.manager.GetTask(ctx, params.ID, params.HistoryLength)
		s.writeResponse(w, request.ID, result, err)

	case conductor.MethodTasksPushNotificationSet:
		var params conductor.TaskPushNotificationConfig
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		result, err := s.manager.SetPushNotification(ctx, params)
		s.writeResponse(w, request.ID, result, err)

	case conductor.MethodTasksPushNotificationGet:
		var params conductor.TaskIDParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		result, err := s.manager.GetPushNotification(ctx, params.ID)
		s.writeResponse(w, request.ID, result, err)

	case conductor.MethodTasksSendSubscribe:
		var params conductor.TaskSendParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		if !s.card.Capabilities.Streaming {
			s.writeResponse(w, request.ID, nil, conductor.MethodNotFoundError{Method: request.Method})
			return
		}
		consumer, err := s.manager.SendTaskSubscribe(ctx, params)
		if err != nil {
			s.writeResponse(w, request.ID, nil, err)
			return
		}
		s.streamConsumer(w, r, request.ID, consumer)

	case conductor.MethodTasksResubscribe:
		var params conductor.TaskIDParams
		if err := json.Unmarshal(request.Params, &params); err != nil {
			s.writeResponse(w, request.ID, nil, conductor.InvalidParamsError{Msg: err.Error()})
			return
		}
		consumer, err := s.manager.Resubscribe(ctx, params.ID)
		if err != nil {
			s.writeResponse(w, request.ID, nil, err)
			return
		}
		s.streamConsumer(w, r, request.ID, consumer)

	default:
		s.writeResponse(w, request.ID, nil, conductor.MethodNotFoundError{Method: request.Method})
	}
}

// streamConsumer upgrades the response to SSE and forwards consumer
// events until the stream ends.
func (s *A2AServer) streamConsumer(w http.ResponseWriter, r *http.Request, requestID any, consumer *event.Consumer) {
	writer, err := newSSEWriter(w)
	if err != nil {
		s.writeResponse(w, requestID, nil, conductor.InternalError{Msg: err.Error()})
		return
	}
	writer.streamEvents(r.Context(), requestID, consumer)
}

// writeResponse encodes one JSON-RPC response. A2A error codes pass
// through; other errors become internal errors.
func (s *A2AServer) writeResponse(w http.ResponseWriter, requestID any, result any, err error) {
	response := &conductor.JSONRPCResponse{JSONRPC: "2.0", ID: requestID}
	if err != nil {
		response.Error = conductor.NewJSONRPCError(err)
	} else {
		payload, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			response.Error = &conductor.JSONRPCError{
				Code:    conductor.ErrorCodeInternalError,
				Message: fmt.Sprintf("failed to encode result: %v", marshalErr),
			}
		} else {
			response.Result = jsontext.Value(payload)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if encodeErr := json.MarshalWrite(w, response); encodeErr != nil {
		s.logger.Error("failed to write rpc response", "error", encodeErr)
	}
}
