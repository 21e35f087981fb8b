// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package conductor

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a new random identifier for tasks, sessions and
// message correlation.
func GenerateID() string {
	return uuid.NewString()
}

// AreModalitiesCompatible reports whether the requested output modes are
// serviceable by an agent supporting the given content types.
//
// An empty request means the caller accepts anything the agent produces.
// An empty supported list means the agent declared nothing, which is only
// compatible with an unconstrained request.
func AreModalitiesCompatible(requested, supported []string) bool {
	if len(requested) == 0 {
		return true
	}
	for _, want := range requested {
		for _, have := range supported {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// MergeMetadata merges source metadata into target, key by key, with the
// source winning on conflict. A nil source is a no-op; a nil target is
// initialized from the source.
func MergeMetadata(target, source map[string]any) map[string]any {
	if len(source) == 0 {
		return target
	}
	if target == nil {
		target = make(map[string]any, len(source))
	}
	for k, v := range source {
		target[k] = v
	}
	return target
}
