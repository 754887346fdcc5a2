package domain

import (
	"encoding/json"
	"testing"
)

func TestApiLogListShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "bare-array", input: `[{"endpoint":"/a"},{"endpoint":"/b"}]`, want: 2},
		{name: "items-object", input: `{"items":[{"endpoint":"/a"}]}`, want: 1},
		{name: "empty-array", input: `[]`, want: 0},
		{name: "object-without-items", input: `{}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list ApiLogList
			if err := json.Unmarshal([]byte(tt.input), &list); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(list) != tt.want {
				t.Fatalf("len = %d, want %d", len(list), tt.want)
			}
		})
	}
}

func TestApiLogListRejectsScalar(t *testing.T) {
	var list ApiLogList
	if err := json.Unmarshal([]byte(`"nope"`), &list); err == nil {
		t.Fatalf("expected error for scalar payload")
	}
}

func TestChatResponseReplyText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "string", input: `{"reply":"hello"}`, want: "hello"},
		{name: "absent", input: `{}`, want: ""},
		{name: "null", input: `{"reply":null}`, want: ""},
		{name: "object", input: `{"reply": {"vms": [1, 2]}}`, want: `{"vms":[1,2]}`},
		{name: "number", input: `{"reply":42}`, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ChatResponse
			if err := json.Unmarshal([]byte(tt.input), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := resp.ReplyText(); got != tt.want {
				t.Fatalf("ReplyText() = %q, want %q", got, tt.want)
			}
		})
	}
}
