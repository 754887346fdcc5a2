package dashboard

import (
	"sync"

	"github.com/xela07ax/saude-console/internal/domain"
)

// ChartConfig сериализуется в конфиг Chart.js один к одному.
type ChartConfig struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label string  `json:"label"`
	Data  []int64 `json:"data"`
}

type ChartOptions struct {
	Responsive          bool                   `json:"responsive"`
	MaintainAspectRatio bool                   `json:"maintainAspectRatio"`
	Scales              map[string]AxisOptions `json:"scales"`
}

type AxisOptions struct {
	Stacked bool `json:"stacked"`
}

// ResourceChartConfig — stacked bar: категория = product, две серии.
func ResourceChartConfig(items []domain.ResourceSummaryItem) ChartConfig {
	labels := make([]string, 0, len(items))
	total := make([]int64, 0, len(items))
	tf := make([]int64, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Product)
		total = append(total, it.AzureTotal)
		tf = append(tf, it.CreatedByTerraform)
	}

	return ChartConfig{
		Type: "bar",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{Label: "Total Azure", Data: total},
				{Label: "Created by Terraform", Data: tf},
			},
		},
		Options: ChartOptions{
			Responsive:          true,
			MaintainAspectRatio: false,
			Scales: map[string]AxisOptions{
				"x": {Stacked: true},
				"y": {Stacked: true},
			},
		},
	}
}

// Chart — живой экземпляр графика на канве.
type Chart struct {
	Seq       uint64
	Config    ChartConfig
	destroyed bool
}

func (c *Chart) Destroyed() bool { return c.destroyed }

// Canvas держит не более одного живого Chart.
type Canvas struct {
	mu        sync.Mutex
	id        string
	current   *Chart
	seq       uint64
	destroyed int
	sink      Sink
}

func NewCanvas(id string, sink Sink) *Canvas {
	return &Canvas{id: id, sink: orDiscard(sink)}
}

// Render уничтожает предыдущий график и рисует новый.
func (cv *Canvas) Render(items []domain.ResourceSummaryItem) *Chart {
	cfg := ResourceChartConfig(items)

	cv.mu.Lock()
	defer cv.mu.Unlock()

	if cv.current != nil {
		cv.current.destroyed = true
		cv.destroyed++
		cv.sink.Publish(Update{Type: UpdateChartDestroy, Canvas: cv.id})
	}
	cv.seq++
	cv.current = &Chart{Seq: cv.seq, Config: cfg}
	cv.sink.Publish(Update{Type: UpdateChart, Canvas: cv.id, Chart: &cfg})
	return cv.current
}

func (cv *Canvas) Current() *Chart {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.current
}

// DestroyedCount — сколько экземпляров было снято при перерисовке.
func (cv *Canvas) DestroyedCount() int {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.destroyed
}
