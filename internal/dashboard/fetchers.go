package dashboard

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

// Пути бэкенда, которые читает дашборд.
const (
	PathResourcesSummary = "/api/resources/summary"
	PathSREActions       = "/api/sre/actions"
	PathLogsActions      = "/api/logs/actions"
	PathChat             = "/chat"
)

// DecisionsTop — сколько решений показывает виджет дашборда.
const DecisionsTop = 5

// Getter — чем фетчеры ходят в бэкенд. Любая ошибка (сеть, не-2xx, битый JSON)
// сводится к состоянию ошибки виджета и строке в логе.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// InstanceTracker получает durable-инстансы, замеченные в ленте.
type InstanceTracker interface {
	Track(instanceID string)
}

// widget — общая часть фетчеров: логгер и метрики исхода.
type widget struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func newWidget(name string, logger *zap.Logger, m *metrics.Metrics) widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return widget{name: name, logger: logger.With(zap.String("widget", name)), metrics: m}
}

func (w widget) done(start time.Time, outcome string) {
	w.metrics.FetchDuration.WithLabelValues(w.name).Observe(time.Since(start).Seconds())
	w.metrics.FetchTotal.WithLabelValues(w.name, outcome).Inc()
}

func (w widget) fail(start time.Time, err error) {
	if errors.Is(err, context.Canceled) {
		w.logger.Debug("fetch canceled")
	} else {
		w.logger.Warn("fetch failed", zap.Error(err))
	}
	w.done(start, "error")
}

// SummaryFetcher: KPI + график. Грузится один раз при открытии страницы.
type SummaryFetcher struct {
	widget
	api    Getter
	kpis   *KPISlots
	canvas *Canvas
	region *Region // только chartError
}

func NewSummaryFetcher(api Getter, kpis *KPISlots, canvas *Canvas, region *Region, logger *zap.Logger, m *metrics.Metrics) *SummaryFetcher {
	return &SummaryFetcher{widget: newWidget("summary", logger, m), api: api, kpis: kpis, canvas: canvas, region: region}
}

func (f *SummaryFetcher) Fetch(ctx context.Context) {
	start := time.Now()

	var data domain.ResourceSummary
	if err := f.api.GetJSON(ctx, PathResourcesSummary, nil, &data); err != nil {
		f.region.Fail()
		f.fail(start, err)
		return
	}

	f.kpis.Set(data.KPIs())
	f.canvas.Render(data.Items)
	f.region.Ok()

	outcome := "ok"
	if len(data.Items) == 0 {
		outcome = "empty"
	}
	f.done(start, outcome)
}

// DecisionsFetcher: последние решения SRE. При ошибке старые строки остаются.
type DecisionsFetcher struct {
	widget
	api    Getter
	region *Region
}

func NewDecisionsFetcher(api Getter, region *Region, logger *zap.Logger, m *metrics.Metrics) *DecisionsFetcher {
	return &DecisionsFetcher{widget: newWidget("decisions", logger, m), api: api, region: region}
}

func (f *DecisionsFetcher) Fetch(ctx context.Context) {
	start := time.Now()

	var items []domain.DecisionRecord
	query := url.Values{"top": []string{strconv.Itoa(DecisionsTop)}}
	if err := f.api.GetJSON(ctx, PathSREActions, query, &items); err != nil {
		f.fail(start, err)
		return
	}

	if len(items) == 0 {
		f.region.Empty()
		f.done(start, "empty")
		return
	}

	body, err := RenderDecisionRows(items)
	if err != nil {
		f.fail(start, err)
		return
	}
	f.region.Rows(body)
	f.done(start, "ok")
}

// FeedFetcher: лента событий пайплайнов с необязательным фильтром.
type FeedFetcher struct {
	widget
	api     Getter
	region  *Region
	tracker InstanceTracker

	mu     sync.RWMutex
	filter string
}

func NewFeedFetcher(api Getter, region *Region, tracker InstanceTracker, logger *zap.Logger, m *metrics.Metrics) *FeedFetcher {
	return &FeedFetcher{widget: newWidget("feed", logger, m), api: api, region: region, tracker: tracker}
}

// SetFilter запоминает фильтр; его читают и ручное обновление, и поллер.
func (f *FeedFetcher) SetFilter(filter string) {
	f.mu.Lock()
	f.filter = filter
	f.mu.Unlock()
}

func (f *FeedFetcher) Filter() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter
}

// Query — параметры запроса: pipeline только при непустом фильтре.
func (f *FeedFetcher) Query() url.Values {
	pipeline := strings.TrimSpace(f.Filter())
	if pipeline == "" {
		return nil
	}
	return url.Values{"pipeline": []string{pipeline}}
}

func (f *FeedFetcher) Fetch(ctx context.Context) {
	start := time.Now()
	f.region.Clear()

	var items []domain.PipelineEvent
	if err := f.api.GetJSON(ctx, PathSREActions, f.Query(), &items); err != nil {
		f.region.Fail()
		f.fail(start, err)
		return
	}

	if len(items) == 0 {
		f.region.Empty()
		f.done(start, "empty")
		return
	}

	body, err := RenderFeedRows(items)
	if err != nil {
		f.region.Fail()
		f.fail(start, err)
		return
	}
	f.region.Rows(body)
	f.done(start, "ok")

	if f.tracker != nil {
		for _, it := range items {
			if it.InstanceID != "" {
				f.tracker.Track(it.InstanceID)
			}
		}
	}
}

// LogsFetcher: журнал вызовов API. Принимает массив или {items}.
type LogsFetcher struct {
	widget
	api    Getter
	region *Region
}

func NewLogsFetcher(api Getter, region *Region, logger *zap.Logger, m *metrics.Metrics) *LogsFetcher {
	return &LogsFetcher{widget: newWidget("logs", logger, m), api: api, region: region}
}

func (f *LogsFetcher) Fetch(ctx context.Context) {
	start := time.Now()
	f.region.Clear()

	var items domain.ApiLogList
	if err := f.api.GetJSON(ctx, PathLogsActions, nil, &items); err != nil {
		f.region.Fail()
		f.fail(start, err)
		return
	}

	if len(items) == 0 {
		f.region.Empty()
		f.done(start, "empty")
		return
	}

	body, err := RenderLogRows(items)
	if err != nil {
		f.region.Fail()
		f.fail(start, err)
		return
	}
	f.region.Rows(body)
	f.done(start, "ok")
}
