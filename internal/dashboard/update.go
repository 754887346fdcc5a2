package dashboard

// Типы сообщений, которые уходят в браузер.
const (
	UpdateRegion       = "region"
	UpdateKPI          = "kpi"
	UpdateChart        = "chart"
	UpdateChartDestroy = "chart_destroy"
	UpdateTabs         = "tabs"
	UpdateChat         = "chat"
	UpdateChatClear    = "chat_input_clear"
)

// Update — одно изменение страницы. Браузер только применяет его к DOM.
type Update struct {
	Type   string            `json:"type"`
	Region *RegionState      `json:"region,omitempty"`
	KPIs   map[string]string `json:"kpis,omitempty"`
	Canvas string            `json:"canvas,omitempty"`
	Chart  *ChartConfig      `json:"chart,omitempty"`
	Tabs   *TabState         `json:"tabs,omitempty"`
	Chat   *ChatEntry        `json:"chat,omitempty"`
}

// Sink принимает изменения страницы (websocket, тестовый буфер).
type Sink interface {
	Publish(u Update)
}

type SinkFunc func(u Update)

func (f SinkFunc) Publish(u Update) { f(u) }

type discardSink struct{}

func (discardSink) Publish(Update) {}

func orDiscard(s Sink) Sink {
	if s == nil {
		return discardSink{}
	}
	return s
}
