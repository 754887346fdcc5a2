package domain

import "encoding/json"

// DurableStatus — минимальная проекция ответа Durable Functions
// (.../instances/{id}?showHistory=true). Остальное нам не нужно.
type DurableStatus struct {
	InstanceID    string          `json:"instanceId"`
	Name          string          `json:"name"`
	RuntimeStatus string          `json:"runtimeStatus"`
	CreatedTime   string          `json:"createdTime"`
	LastUpdated   string          `json:"lastUpdatedTime"`
	Output        json.RawMessage `json:"output,omitempty"`
}
