// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"fmt"
)

// Error codes for the A2A protocol, matching the JSON-RPC error space.
const (
	ErrorCodeJSONParse               = -32700
	ErrorCodeInvalidRequest          = -32600
	ErrorCodeMethodNotFound          = -32601
	ErrorCodeInvalidParams           = -32602
	ErrorCodeInternalError           = -32603
	ErrorCodeTaskNotFound            = -32001
	ErrorCodeTaskNotCancelable       = -32002
	ErrorCodePushNotSupported        = -32003
	ErrorCodeUnsupportedOperation    = -32004
	ErrorCodeContentTypeNotSupported = -32005
)

// A2AError represents a coded error in the A2A protocol.
type A2AError interface {
	error
	Code() int
}

// TaskNotFoundError indicates the requested task ID is unknown.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Code returns the error code.
func (e TaskNotFoundError) Code() int {
	return ErrorCodeTaskNotFound
}

// TaskNotUpdatableError indicates an attempt to mutate a task that already
// reached a terminal state. The stored task is left unchanged.
type TaskNotUpdatableError struct {
	TaskID string
	State  TaskState
}

// Error returns the error message.
func (e TaskNotUpdatableError) Error() string {
	return fmt.Sprintf("task %s in terminal state %s cannot be updated", e.TaskID, e.State)
}

// Code returns the error code.
func (e TaskNotUpdatableError) Code() int {
	return ErrorCodeUnsupportedOperation
}

// InvalidParamsError indicates a malformed or incomplete request envelope.
type InvalidParamsError struct {
	Msg string
}

// Error returns the error message.
func (e InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s", e.Msg)
}

// Code returns the error code.
func (e InvalidParamsError) Code() int {
	return ErrorCodeInvalidParams
}

// ContentTypeNotSupportedError indicates the requested output modes do not
// intersect the agent's supported content types.
type ContentTypeNotSupportedError struct {
	Requested []string
	Supported []string
}

// Error returns the error message.
func (e ContentTypeNotSupportedError) Error() string {
	return fmt.Sprintf("incompatible content types: requested %v, supported %v", e.Requested, e.Supported)
}

// Code returns the error code.
func (e ContentTypeNotSupportedError) Code() int {
	return ErrorCodeContentTypeNotSupported
}

// InternalError represents an unexpected failure, including agent
// collaborator failures surfaced on the single-shot path.
type InternalError struct {
	Msg string
}

// Error returns the error message.
func (e InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}

// Code returns the error code.
func (e InternalError) Code() int {
	return ErrorCodeInternalError
}

// MethodNotFoundError indicates an unknown JSON-RPC method.
type MethodNotFoundError struct {
	Method string
}

// Error returns the error message.
func (e MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.Method)
}

// Code returns the error code.
func (e MethodNotFoundError) Code() int {
	return ErrorCodeMethodNotFound
}

// JSONParseError indicates a request body that is not valid JSON.
type JSONParseError struct {
	Msg string
}

// Error returns the error message.
func (e JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Msg)
}

// Code returns the error code.
func (e JSONParseError) Code() int {
	return ErrorCodeJSONParse
}

// PushNotificationNotSupportedError indicates the agent does not support
// push notifications.
type PushNotificationNotSupportedError struct{}

// Error returns the error message.
func (e PushNotificationNotSupportedError) Error() string {
	return "push notifications are not supported"
}

// Code returns the error code.
func (e PushNotificationNotSupportedError) Code() int {
	return ErrorCodePushNotSupported
}
