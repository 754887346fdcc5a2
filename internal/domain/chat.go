package domain

import (
	"bytes"
	"encoding/json"
)

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleAgent ChatRole = "agent"
)

// ChatMessage — запись транскрипта. Живет только в рамках страницы.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Text    string   `json:"text"`
	IsError bool     `json:"is_error,omitempty"`
	Ordinal uint64   `json:"ordinal"` // порядковый номер запроса, к которому относится запись
}

type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse — ответ /chat. reply бывает строкой или произвольным JSON
// (например, инвентаризация "list vms").
type ChatResponse struct {
	Reply json.RawMessage `json:"reply"`
}

// ReplyText: отсутствующий или null reply дает "", строка — как есть,
// остальное — компактный JSON.
func (r ChatResponse) ReplyText() string {
	raw := bytes.TrimSpace(r.Reply)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
