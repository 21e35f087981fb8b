// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"errors"

	"github.com/go-json-experiment/json/jsontext"
)

// JSON-RPC method names of the A2A protocol surface.
const (
	MethodTasksSend                = "tasks/send"
	MethodTasksSendSubscribe       = "tasks/sendSubscribe"
	MethodTasksGet                 = "tasks/get"
	MethodTasksResubscribe         = "tasks/resubscribe"
	MethodTasksPushNotificationSet = "tasks/pushNotification/set"
	MethodTasksPushNotificationGet = "tasks/pushNotification/get"
)

// JSONRPCRequest is the request envelope carried over the HTTP transport.
// Params stays raw until the method is known.
type JSONRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitzero"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// JSONRPCError is the error object of a JSON-RPC response.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error returns the error message.
func (e *JSONRPCError) Error() string {
	return e.Message
}

// JSONRPCResponse is the response envelope. Exactly one of Result and
// Error is set.
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitzero"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *JSONRPCError  `json:"error,omitzero"`
}

// NewJSONRPCError converts an error into a JSON-RPC error object. Errors
// implementing A2AError keep their protocol code; anything else is
// reported as an internal error.
func NewJSONRPCError(err error) *JSONRPCError {
	var a2aErr A2AError
	if errors.As(err, &a2aErr) {
		return &JSONRPCError{Code: a2aErr.Code(), Message: a2aErr.Error()}
	}
	return &JSONRPCError{Code: ErrorCodeInternalError, Message: err.Error()}
}
