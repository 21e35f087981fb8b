// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Artifact represents an output produced by an agent while working on a
// task. Artifacts are append-only once attached to a task.
type Artifact struct {
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       []Part         `json:"parts"`
	Index       int            `json:"index,omitzero"`
	Metadata    map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the Artifact is valid.
func (a Artifact) Validate() error {
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must contain at least one part")
	}
	for i, part := range a.Parts {
		if part == nil {
			return fmt.Errorf("artifact part at index %d cannot be nil", i)
		}
		if err := part.Validate(); err != nil {
			return fmt.Errorf("artifact part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}

	out := &Artifact{
		Name:        a.Name,
		Description: a.Description,
		Parts:       make([]Part, len(a.Parts)),
		Index:       a.Index,
	}
	copy(out.Parts, a.Parts)

	if a.Metadata != nil {
		out.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}

	return out
}

// UnmarshalJSON decodes the artifact, resolving each part against its type
// tag. Only text parts are understood by this implementation.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string           `json:"name,omitzero"`
		Description string           `json:"description,omitzero"`
		Parts       []jsontext.Value `json:"parts"`
		Index       int              `json:"index,omitzero"`
		Metadata    map[string]any   `json:"metadata,omitzero"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Name = raw.Name
	a.Description = raw.Description
	a.Index = raw.Index
	a.Metadata = raw.Metadata
	a.Parts = make([]Part, 0, len(raw.Parts))

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
			a.Parts = append(a.Parts, &part)
		default:
			return fmt.Errorf("unknown part type at index %d: %s", i, probe.Type)
		}
	}

	return nil
}

// NewTextArtifact creates an artifact containing a single TextPart.
func NewTextArtifact(text string) *Artifact {
	return &Artifact{
		Parts: []Part{NewTextPart(text)},
	}
}
