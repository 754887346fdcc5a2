package domain

// DecisionRecord — строка виджета "Last SRE Decisions".
type DecisionRecord struct {
	TS           string `json:"ts"`
	PipelineName string `json:"pipeline_name"`
	Category     string `json:"category"`
	Action       string `json:"action"`
}

// PipelineEvent — строка ленты пайплайнов.
type PipelineEvent struct {
	TS           string `json:"ts"`
	PipelineName string `json:"pipeline_name"`
	Category     string `json:"category"`
	Action       string `json:"action"`
	Status       string `json:"status"`
	Why          string `json:"why"`
	RunID        string `json:"run_id"`
	InstanceID   string `json:"instance_id,omitempty"` // Durable Functions instance, может отсутствовать
}
