package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Fetch: исход каждого запуска виджета (ok, empty, error)
	FetchTotal *prometheus.CounterVec

	// Latency: сколько заняла выборка виджета вместе с рендером
	FetchDuration *prometheus.HistogramVec

	// Errors: классификация отказов бэкенда
	UpstreamErrors *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Chat: исход запросов к агенту (ok, error, stale)
	ChatRequests *prometheus.CounterVec

	// Открытые страницы (websocket-сессии)
	ActivePages prometheus.Gauge

	// Durable: текущий статус инстанса (1 у актуального статуса)
	DurableStatus *prometheus.GaugeVec

	// Сколько инстансов сейчас под наблюдением
	StatusTracked prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		FetchTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "saude_fetch_total",
			Help: "Total number of widget fetches by outcome.",
		}, []string{"widget", "outcome"}),

		FetchDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saude_fetch_duration_seconds",
			Help:    "Histogram of widget fetch latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"widget"}),

		UpstreamErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "saude_upstream_errors_total",
			Help: "Total number of upstream errors by type.",
		}, []string{"type"}), // типы: transport, status, decode, circuit_open, rate_limit

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "saude_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),

		ChatRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "saude_chat_requests_total",
			Help: "Total number of chat submissions by outcome.",
		}, []string{"outcome"}),

		ActivePages: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "saude_active_pages",
			Help: "Current number of open dashboard pages.",
		}),

		DurableStatus: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "saude_durable_instance_status",
			Help: "Durable instance runtime status (1 for the current status).",
		}, []string{"instance_id", "status"}),

		StatusTracked: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "saude_status_tracked",
			Help: "Current number of tracked durable instances.",
		}),
	}
}
