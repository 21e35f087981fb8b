// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Role represents the role of a message sender.
type Role string

// Role constants for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Part represents a typed content part of a message or artifact.
type Part interface {
	PartType() string
	Validate() error
}

// TextPart is a plain-text content part.
type TextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextPart creates a TextPart with the correct type tag.
func NewTextPart(text string) *TextPart {
	return &TextPart{
		Type: "text",
		Text: text,
	}
}

// PartType returns the part's type tag.
func (p TextPart) PartType() string {
	return "text"
}

// Validate ensures the TextPart is valid.
func (p TextPart) Validate() error {
	if p.Type != "text" {
		return fmt.Errorf("invalid text part type: %s", p.Type)
	}
	return nil
}

// Message represents a single exchange between the user and an agent.
// Metadata carries correlation identifiers such as message_id and
// last_message_id through the host's orchestration layer.
type Message struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the Message is valid.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must contain at least one part")
	}
	for i, part := range m.Parts {
		if part == nil {
			return fmt.Errorf("message part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("message part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the message. Parts are immutable values and
// are shared; the metadata map is copied.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}

	out := &Message{
		Role:  m.Role,
		Parts: make([]Part, len(m.Parts)),
	}
	copy(out.Parts, m.Parts)

	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}

	return out
}

// Text returns the concatenated text of all text parts, joined by newlines.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}

	var texts []string
	for _, part := range m.Parts {
		if tp, ok := part.(*TextPart); ok {
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// UnmarshalJSON decodes the message, resolving each part against its type
// tag. Only text parts are understood by this implementation; an unknown
// part type is an error.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role     Role             `json:"role"`
		Parts    []jsontext.Value `json:"parts"`
		Metadata map[string]any   `json:"metadata,omitzero"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.Metadata = raw.Metadata
	m.Parts = make([]Part, 0, len(raw.Parts))

	for i, rawPart := range raw.Parts {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(rawPart, &probe); err != nil {
			return fmt.Errorf("failed to probe part at index %d: %w", i, err)
		}

		switch probe.Type {
		case "text":
			var part TextPart
			if err := json.Unmarshal(rawPart, &part); err != nil {
				return fmt.Errorf("failed to unmarshal text part at index %d: %w", i, err)
			}
			m.Parts = append(m.Parts, &part)
		default:
			return fmt.Errorf("unknown part type at index %d: %s", i, probe.Type)
		}
	}

	return nil
}

// NewUserTextMessage creates a user message containing a single TextPart.
func NewUserTextMessage(text string) *Message {
	return &Message{
		Role:  RoleUser,
		Parts: []Part{NewTextPart(text)},
	}
}

// NewAgentTextMessage creates an agent message containing a single TextPart.
func NewAgentTextMessage(text string) *Message {
	return &Message{
		Role:  RoleAgent,
		Parts: []Part{NewTextPart(text)},
	}
}
