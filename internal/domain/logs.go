package domain

import (
	"bytes"
	"encoding/json"
)

// ApiLogRecord — запись журнала вызовов бэкенда.
type ApiLogRecord struct {
	CreatedAt  string   `json:"createdAt"`
	Endpoint   string   `json:"endpoint"`
	Method     string   `json:"method"`
	StatusCode *int     `json:"statusCode,omitempty"`
	DurationMs *float64 `json:"durationMs,omitempty"`
}

// ApiLogList принимает обе формы ответа /api/logs/actions:
// голый массив или {"items": [...]}.
type ApiLogList []ApiLogRecord

func (l *ApiLogList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []ApiLogRecord
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var wrapped struct {
		Items []ApiLogRecord `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Items
	return nil
}
