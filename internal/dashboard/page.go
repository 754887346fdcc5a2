package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

// ID элементов страницы, которыми владеют регионы.
const (
	CanvasResources = "resourcesChart"

	decisionsBodyID  = "decisions-table-body"
	decisionsEmptyID = "decisions-empty"
	chartErrorID     = "chartError"
	feedBodyID       = "pipelineFeed-body"
	feedEmptyID      = "emptyState"
	feedErrorID      = "feedError"
	logsBodyID       = "api-logs-body"
	logsEmptyID      = "emptyLogsState"
	logsErrorID      = "logsError"
)

// Имена задач поллера.
const (
	JobDecisions = "decisions"
	JobFeed      = "feed"
	JobLogs      = "logs"
)

// Команды из браузера.
const (
	CmdTab         = "tab"
	CmdFeedFilter  = "feed_filter"
	CmdFeedRefresh = "feed_refresh"
	CmdLogsRefresh = "logs_refresh"
	CmdChat        = "chat"
)

type Command struct {
	Type   string `json:"type"`
	Key    string `json:"key,omitempty"`
	Filter string `json:"filter,omitempty"`
	Text   string `json:"text,omitempty"`
}

// API — бэкенд целиком: чтение виджетов и чат.
type API interface {
	Getter
	Poster
}

type Intervals struct {
	Decisions time.Duration
	Feed      time.Duration
	Logs      time.Duration
}

// DefaultIntervals — периоды опроса по умолчанию.
var DefaultIntervals = Intervals{
	Decisions: 30 * time.Second,
	Feed:      10 * time.Second,
	Logs:      10 * time.Second,
}

type Deps struct {
	API       API
	Tracker   InstanceTracker
	Intervals Intervals
	Chat      ChatOptions
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Page — контроллер одной открытой страницы. Владеет роутером вкладок,
// канвой графика, регионами, транскриптом и поллером.
type Page struct {
	ID string

	tabs       *TabRouter
	canvas     *Canvas
	kpis       *KPISlots
	summaryErr *Region
	decisions  *Region
	feed       *Region
	logs       *Region
	transcript *Transcript

	summaryFetcher   *SummaryFetcher
	decisionsFetcher *DecisionsFetcher
	feedFetcher      *FeedFetcher
	logsFetcher      *LogsFetcher
	chat             *ChatClient
	poller           *Poller

	sink    Sink
	logger  *zap.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPage(fragment string, sink Sink, deps Deps) *Page {
	sink = orDiscard(sink)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewMetrics(nil)
	}
	iv := deps.Intervals
	if iv.Decisions <= 0 {
		iv.Decisions = DefaultIntervals.Decisions
	}
	if iv.Feed <= 0 {
		iv.Feed = DefaultIntervals.Feed
	}
	if iv.Logs <= 0 {
		iv.Logs = DefaultIntervals.Logs
	}

	id := uuid.NewString()
	logger := deps.Logger.With(zap.String("page_id", id))

	p := &Page{
		ID:         id,
		tabs:       NewTabRouter(fragment),
		canvas:     NewCanvas(CanvasResources, sink),
		kpis:       NewKPISlots(sink),
		summaryErr: NewRegion("summary", "", "", chartErrorID, sink),
		decisions:  NewRegion("decisions", decisionsBodyID, decisionsEmptyID, "", sink),
		feed:       NewRegion("feed", feedBodyID, feedEmptyID, feedErrorID, sink),
		logs:       NewRegion("logs", logsBodyID, logsEmptyID, logsErrorID, sink),
		transcript: NewTranscript(sink),
		sink:       sink,
		logger:     logger,
		metrics:    deps.Metrics,
	}

	p.summaryFetcher = NewSummaryFetcher(deps.API, p.kpis, p.canvas, p.summaryErr, logger, deps.Metrics)
	p.decisionsFetcher = NewDecisionsFetcher(deps.API, p.decisions, logger, deps.Metrics)
	p.feedFetcher = NewFeedFetcher(deps.API, p.feed, deps.Tracker, logger, deps.Metrics)
	p.logsFetcher = NewLogsFetcher(deps.API, p.logs, logger, deps.Metrics)
	p.chat = NewChatClient(deps.API, p.transcript, sink, deps.Chat, logger, deps.Metrics)

	// summary в поллер не входит: грузится только при открытии
	p.poller = NewPoller(logger,
		Job{Name: JobDecisions, Interval: iv.Decisions, Run: p.decisionsFetcher.Fetch},
		Job{Name: JobFeed, Interval: iv.Feed, Run: p.feedFetcher.Fetch},
		Job{Name: JobLogs, Interval: iv.Logs, Run: p.logsFetcher.Fetch},
	)

	return p
}

// Load — открытие страницы: вкладка из фрагмента, поллер и все четыре
// фетчера один раз в фоне. Не ждет сеть: команды принимаются сразу.
func (p *Page) Load(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.metrics.ActivePages.Inc()

	p.publishTabs()
	p.poller.Start(p.ctx)

	for _, fetch := range []func(context.Context){
		p.summaryFetcher.Fetch,
		p.decisionsFetcher.Fetch,
		p.feedFetcher.Fetch,
		p.logsFetcher.Fetch,
	} {
		p.async(fetch)
	}
	p.logger.Info("page loaded", zap.String("tab", p.tabs.Active()))
}

// Wait ждет фоновые запросы страницы: первичную загрузку и команды.
// Вызывать из той же горутины, что Load и Handle.
func (p *Page) Wait() { p.wg.Wait() }

// Handle применяет команду браузера. Сетевые команды уходят в фон.
func (p *Page) Handle(cmd Command) {
	switch cmd.Type {
	case CmdTab:
		if p.tabs.Activate(cmd.Key) {
			p.publishTabs()
		}
	case CmdFeedFilter:
		// фильтр подхватит ближайший тик поллера
		p.feedFetcher.SetFilter(cmd.Filter)
	case CmdFeedRefresh:
		p.feedFetcher.SetFilter(cmd.Filter)
		p.async(p.feedFetcher.Fetch)
	case CmdLogsRefresh:
		p.async(p.logsFetcher.Fetch)
	case CmdChat:
		text := cmd.Text
		p.async(func(ctx context.Context) { p.chat.Submit(ctx, text) })
	default:
		p.logger.Debug("unknown command", zap.String("type", cmd.Type))
	}
}

// Close — страница закрыта: гасим поллер и ждем фоновые запросы.
func (p *Page) Close() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
			p.metrics.ActivePages.Dec()
		}
		p.poller.Stop()
		p.wg.Wait()
		p.logger.Info("page closed")
	})
}

// Poller отдает ручку поллера (Tick в тестах).
func (p *Page) Poller() *Poller { return p.poller }

func (p *Page) Tabs() *TabRouter { return p.tabs }

func (p *Page) Canvas() *Canvas { return p.canvas }

func (p *Page) KPIs() *KPISlots { return p.kpis }

func (p *Page) Transcript() *Transcript { return p.transcript }

// Region по имени: summary, decisions, feed, logs.
func (p *Page) Region(name string) *Region {
	switch name {
	case "summary":
		return p.summaryErr
	case "decisions":
		return p.decisions
	case "feed":
		return p.feed
	case "logs":
		return p.logs
	}
	return nil
}

func (p *Page) Feed() *FeedFetcher { return p.feedFetcher }
func (p *Page) Chat() *ChatClient  { return p.chat }

func (p *Page) publishTabs() {
	st := p.tabs.State()
	p.sink.Publish(Update{Type: UpdateTabs, Tabs: &st})
}

func (p *Page) async(fn func(ctx context.Context)) {
	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn(ctx)
	}()
}
