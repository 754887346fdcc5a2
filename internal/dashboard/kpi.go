package dashboard

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/xela07ax/saude-console/internal/domain"
)

// Placeholder для отсутствующего KPI.
const Placeholder = "—"

// ID элементов карточек KPI в шаблоне страницы.
const (
	SlotSuccess    = "kpi-success"
	SlotMTTR       = "kpi-mttr"
	SlotOpenAlerts = "kpi-open"
	SlotFailedRuns = "kpi-failed"
)

type KPISlots struct {
	mu     sync.Mutex
	values map[string]string
	sink   Sink
}

func NewKPISlots(sink Sink) *KPISlots {
	return &KPISlots{
		values: map[string]string{
			SlotSuccess:    Placeholder,
			SlotMTTR:       Placeholder,
			SlotOpenAlerts: Placeholder,
			SlotFailedRuns: Placeholder,
		},
		sink: orDiscard(sink),
	}
}

func (k *KPISlots) Set(set domain.KPISet) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.values = map[string]string{
		SlotSuccess:    formatKPI(set.Success),
		SlotMTTR:       formatKPI(set.MTTR),
		SlotOpenAlerts: formatKPI(set.OpenAlerts),
		SlotFailedRuns: formatKPI(set.FailedRuns),
	}
	snapshot := make(map[string]string, len(k.values))
	for id, v := range k.values {
		snapshot[id] = v
	}
	k.sink.Publish(Update{Type: UpdateKPI, KPIs: snapshot})
}

func (k *KPISlots) Value(slot string) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.values[slot]
}

// formatKPI: число без хвостовых нулей, строка как есть, прочее текстом JSON.
func formatKPI(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Placeholder
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}
