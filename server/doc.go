// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the A2A server side: the task lifecycle
// manager that drives an agent collaborator, and an HTTP transport
// exposing it over JSON-RPC with SSE streaming.
//
// The manager composes the building blocks from the subpackages: the
// task store (server/task), the event fan-out (server/event) and push
// notification delivery (server/push).
package server
