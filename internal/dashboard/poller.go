package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job — фетчер, который перезапускается с фиксированным периодом.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Poller держит по таймеру на задачу. Без джиттера, бэкоффа и склейки:
// если прошлый запуск еще идет, новый стартует параллельно.
type Poller struct {
	jobs   []Job
	logger *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	tickers sync.WaitGroup // горутины таймеров
	runs    sync.WaitGroup // запуски задач в полете

	started int32
}

func NewPoller(logger *zap.Logger, jobs ...Job) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		jobs:   jobs,
		logger: logger.With(zap.String("mod", "poller")),
	}
}

// Start запускает таймеры. Повторный вызов ничего не делает.
func (p *Poller) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for _, job := range p.jobs {
		if job.Interval <= 0 {
			p.logger.Warn("job skipped: non-positive interval", zap.String("job", job.Name))
			continue
		}
		p.tickers.Add(1)
		go p.loop(ctx, job)
	}
}

// Stop гасит таймеры и ждет, пока допишутся запуски в полете.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	// сначала таймеры: после их выхода новых runs.Add не будет
	p.tickers.Wait()
	p.runs.Wait()
	p.logger.Debug("poller stopped")
}

// Tick синхронно выполняет задачу по имени. Для тестов и ручного обновления.
func (p *Poller) Tick(ctx context.Context, name string) bool {
	for _, job := range p.jobs {
		if job.Name == name {
			job.Run(ctx)
			return true
		}
	}
	return false
}

func (p *Poller) loop(ctx context.Context, job Job) {
	defer p.tickers.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runs.Add(1)
			go func() {
				defer p.runs.Done()
				job.Run(ctx)
			}()
		}
	}
}
