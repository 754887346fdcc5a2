package domain

import "encoding/json"

// ResourceSummaryItem — одна продуктовая категория ресурсов.
type ResourceSummaryItem struct {
	Product            string `json:"product"`
	AzureTotal         int64  `json:"azure_total"`
	CreatedByTerraform int64  `json:"created_by_terraform"`
}

// ResourceSummary — ответ /api/resources/summary.
// KPI опциональны и любого JSON-типа: бэкенд шлет и 97.5, и "97%".
// Пустое значение или null рисуется заглушкой.
type ResourceSummary struct {
	KPISuccess    json.RawMessage       `json:"kpi_success,omitempty"`
	KPIMTTR       json.RawMessage       `json:"kpi_mttr,omitempty"`
	KPIOpenAlerts json.RawMessage       `json:"kpi_open_alerts,omitempty"`
	KPIFailedRuns json.RawMessage       `json:"kpi_failed_runs,omitempty"`
	Items         []ResourceSummaryItem `json:"items"`
}

// KPISet — четыре скаляра шапки дашборда.
type KPISet struct {
	Success    json.RawMessage
	MTTR       json.RawMessage
	OpenAlerts json.RawMessage
	FailedRuns json.RawMessage
}

func (s *ResourceSummary) KPIs() KPISet {
	return KPISet{
		Success:    s.KPISuccess,
		MTTR:       s.KPIMTTR,
		OpenAlerts: s.KPIOpenAlerts,
		FailedRuns: s.KPIFailedRuns,
	}
}
