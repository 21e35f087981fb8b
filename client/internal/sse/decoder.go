// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse decodes Server-Sent Event streams.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
)

// Event is one decoded Server-Sent Event.
type Event struct {
	Type string
	Data string
	ID   string
}

// maxLineSize bounds a single SSE line. Events carry whole task
// snapshots, so the default scanner buffer is too small.
const maxLineSize = 1 << 20

// Decoder reads Server-Sent Events off a stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Decode returns the next event, or io.EOF when the stream ends.
func (d *Decoder) Decode() (*Event, error) {
	event := &Event{}

	for d.scanner.Scan() {
		line := d.scanner.Text()

		// A blank line terminates the pending event.
		if line == "" {
			if event.Data != "" || event.Type != "" {
				return event, nil
			}
			continue
		}

		// Comment lines keep the connection alive; skip them.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Type = value
		case "data":
			if event.Data != "" {
				event.Data += "\n"
			}
			event.Data += value
		case "id":
			event.ID = value
		}
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read SSE stream: %w", err)
	}

	// The stream may end without a trailing blank line.
	if event.Data != "" || event.Type != "" {
		return event, nil
	}
	return nil, io.EOF
}

// DecodeJSON decodes the next event and unmarshals its data into v.
func (d *Decoder) DecodeJSON(v any) error {
	event, err := d.Decode()
	if err != nil {
		return err
	}
	if event.Data == "" {
		return fmt.Errorf("SSE event has no data")
	}
	if err := json.Unmarshal([]byte(event.Data), v); err != nil {
		return fmt.Errorf("decode SSE event data: %w", err)
	}
	return nil
}
