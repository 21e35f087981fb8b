// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  []*Event
	}{
		"single data event": {
			input: "data: {\"id\":\"t1\"}\n\n",
			want:  []*Event{{Data: `{"id":"t1"}`}},
		},
		"typed event with id": {
			input: "event: status\nid: 7\ndata: hello\n\n",
			want:  []*Event{{Type: "status", ID: "7", Data: "hello"}},
		},
		"multiline data joined with newline": {
			input: "data: line one\ndata: line two\n\n",
			want:  []*Event{{Data: "line one\nline two"}},
		},
		"comments and blank lines skipped": {
			input: ": heartbeat\n\ndata: a\n\n: heartbeat\ndata: b\n\n",
			want:  []*Event{{Data: "a"}, {Data: "b"}},
		},
		"final event without trailing blank line": {
			input: "data: last",
			want:  []*Event{{Data: "last"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			decoder := NewDecoder(strings.NewReader(tt.input))

			var got []*Event
			for {
				event, err := decoder.Decode()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				got = append(got, event)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecoder_DecodeJSON(t *testing.T) {
	t.Parallel()

	decoder := NewDecoder(strings.NewReader("data: {\"name\":\"weather\"}\n\n"))

	var got struct {
		Name string `json:"name"`
	}
	if err := decoder.DecodeJSON(&got); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if got.Name != "weather" {
		t.Errorf("decoded name = %q, want %q", got.Name, "weather")
	}
}
