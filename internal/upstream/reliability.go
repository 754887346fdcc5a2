package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Settings — параметры обвязки надежности вокруг бэкенда.
type Settings struct {
	Name           string
	MaxRequests    uint32
	Interval       time.Duration
	Timeout        time.Duration // Время, через которое CB попробует "закрыться"
	Failures       uint32        // Сколько ошибок подряд открывают CB
	RateLimit      float64
	RateBurst      int
	RetryAttempts  uint
	AttemptTimeout time.Duration

	OnStateChange func(name string, from, to gobreaker.State)
}

// Reliability: rate.Limiter + gobreaker (+ retry-go там, где повтор допустим).
type Reliability struct {
	cb             *gobreaker.CircuitBreaker
	limiter        *rate.Limiter
	attempts       uint
	attemptTimeout time.Duration
}

func NewReliability(s Settings) *Reliability {
	if s.Name == "" {
		s.Name = "saude-upstream"
	}
	if s.RateLimit <= 0 {
		s.RateLimit = 50
	}
	if s.RateBurst <= 0 {
		s.RateBurst = 20
	}
	if s.RetryAttempts == 0 {
		s.RetryAttempts = 3
	}
	if s.AttemptTimeout <= 0 {
		s.AttemptTimeout = 10 * time.Second
	}
	failures := s.Failures
	if failures == 0 {
		failures = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > failures
		},
		// 4xx — проблема запроса, а не бэкенда, предохранитель не трогаем
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Code < 500 && statusErr.Code != http.StatusTooManyRequests
			}
			var decodeErr *DecodeError
			return errors.As(err, &decodeErr)
		},
		OnStateChange: s.OnStateChange,
	})

	return &Reliability{
		cb:             cb,
		limiter:        rate.NewLimiter(rate.Limit(s.RateLimit), s.RateBurst),
		attempts:       s.RetryAttempts,
		attemptTimeout: s.AttemptTimeout,
	}
}

// State текущего предохранителя.
func (r *Reliability) State() gobreaker.State {
	return r.cb.State()
}

// Call — один вызов без повторов. Виджеты и чат ходят только так.
func (r *Reliability) Call(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	res, err := r.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return res.([]byte), nil
}

// CallWithRetry повторяет вызов внутри предохранителя (статус-прокси, наблюдатель статусов).
func (r *Reliability) CallWithRetry(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var finalData []byte

	_, err := r.cb.Execute(func() (interface{}, error) {
		rt := retry.New(
			retry.Context(ctx),
			retry.Attempts(r.attempts),
			retry.RetryIf(retryable),
			retry.LastErrorOnly(true),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Бэкенд прислал Retry-After — ждем ровно столько
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := rt.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
			defer cancel()

			var callErr error
			finalData, callErr = fn(tCtx)
			return callErr
		})

		return finalData, retryErr
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return finalData, nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}
