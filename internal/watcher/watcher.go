package watcher

/*
Watcher — фоновый опрос статусов durable-инстансов бэкенда.

- Track не блокирует вызывающего: id уходит в буферизованный канал,
  при переполнении он сбрасывается с записью в лог (Load Shedding).
- Набор отслеживаемых инстансов ограничен MaxTracked, самый старый вытесняется.
- Каждые Interval все инстансы опрашиваются по очереди; runtimeStatus
  пишется в лог и в gauge saude_durable_instance_status.
- Stop закрывает вход и ждет, пока воркер вычитает канал (Drain Pattern).
*/

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

// StatusSource — откуда берется статус инстанса (upstream.Client).
type StatusSource interface {
	DurableStatus(ctx context.Context, instanceID string) (*domain.DurableStatus, error)
}

type Options struct {
	Interval    time.Duration
	MaxTracked  int
	BufferSize  int
	InstanceIDs []string // отслеживаются с самого старта
}

type Watcher struct {
	src     StatusSource
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics

	ch       chan string
	closeMu  sync.RWMutex
	isClosed bool
	wg       sync.WaitGroup

	mu      sync.RWMutex
	order   []string          // порядок добавления, для вытеснения
	tracked map[string]string // id -> последний runtimeStatus
}

func New(src StatusSource, opts Options, logger *zap.Logger, m *metrics.Metrics) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.MaxTracked <= 0 {
		opts.MaxTracked = 256
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	w := &Watcher{
		src:     src,
		opts:    opts,
		logger:  logger.With(zap.String("mod", "watcher")),
		metrics: m,
		ch:      make(chan string, opts.BufferSize),
		tracked: make(map[string]string),
	}
	for _, id := range opts.InstanceIDs {
		w.add(id)
	}
	return w
}

func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.worker(ctx)
}

// Stop запирает вход и ждет завершения воркера.
func (w *Watcher) Stop() {
	w.closeMu.Lock()
	if w.isClosed {
		w.closeMu.Unlock()
		return
	}
	w.isClosed = true
	close(w.ch)
	w.closeMu.Unlock()

	w.wg.Wait()
	w.logger.Info("watcher stopped gracefully")
}

// Track ставит инстанс на наблюдение. Никогда не блокирует.
func (w *Watcher) Track(instanceID string) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return
	}

	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.isClosed {
		w.logger.Debug("track dropped: watcher is stopping", zap.String("instance_id", instanceID))
		return
	}

	select {
	case w.ch <- instanceID:
	default:
		w.logger.Warn("watcher_buffer_overflow", zap.String("instance_id", instanceID))
	}
}

// Snapshot — id -> последний известный runtimeStatus ("" до первого опроса).
func (w *Watcher) Snapshot() map[string]string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]string, len(w.tracked))
	for id, st := range w.tracked {
		out[id] = st
	}
	return out
}

// PollOnce опрашивает все инстансы один раз.
func (w *Watcher) PollOnce(ctx context.Context) {
	for _, id := range w.ids() {
		if ctx.Err() != nil {
			return
		}
		w.poll(ctx, id)
	}
}

func (w *Watcher) worker(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	w.PollOnce(ctx)

	for {
		select {
		case id, ok := <-w.ch:
			if !ok {
				w.logger.Info("watcher worker finished")
				return
			}
			w.add(id)
		case <-ticker.C:
			w.drain()
			w.PollOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("watcher worker canceled")
			return
		}
	}
}

// drain забирает накопившиеся id перед опросом, не дожидаясь новых.
func (w *Watcher) drain() {
	for {
		select {
		case id, ok := <-w.ch:
			if !ok {
				return
			}
			w.add(id)
		default:
			return
		}
	}
}

func (w *Watcher) poll(ctx context.Context, id string) {
	st, err := w.src.DurableStatus(ctx, id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("durable status poll failed", zap.String("instance_id", id), zap.Error(err))
		return
	}

	w.mu.Lock()
	prev, ok := w.tracked[id]
	if ok {
		w.tracked[id] = st.RuntimeStatus
	}
	w.mu.Unlock()
	if !ok {
		// вытеснен, пока шел запрос
		return
	}

	if prev != st.RuntimeStatus {
		w.metrics.DurableStatus.DeletePartialMatch(prometheus.Labels{"instance_id": id})
	}
	w.metrics.DurableStatus.WithLabelValues(id, st.RuntimeStatus).Set(1)

	w.logger.Info("durable status",
		zap.String("instance_id", id),
		zap.String("name", st.Name),
		zap.String("runtime_status", st.RuntimeStatus),
		zap.String("last_updated", st.LastUpdated),
	)
}

func (w *Watcher) add(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.tracked[id]; ok {
		return
	}
	if len(w.order) >= w.opts.MaxTracked {
		oldest := w.order[0]
		w.order = w.order[1:]
		delete(w.tracked, oldest)
		w.metrics.DurableStatus.DeletePartialMatch(prometheus.Labels{"instance_id": oldest})
		w.logger.Debug("instance evicted", zap.String("instance_id", oldest))
	}
	w.order = append(w.order, id)
	w.tracked[id] = ""
	w.metrics.StatusTracked.Set(float64(len(w.tracked)))
}

func (w *Watcher) ids() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}
