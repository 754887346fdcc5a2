package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen — предохранитель открыт, бэкенд не вызывался.
var ErrCircuitOpen = errors.New("upstream circuit open")

// StatusError — бэкенд ответил не-2xx.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Path, e.Code)
}

// DecodeError — тело ответа не разобралось как ожидаемый JSON.
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("upstream %s: decode: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ThrottleError — 429 с заголовком Retry-After.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// Classify сводит ошибку к метке для метрик.
func Classify(err error) string {
	var (
		statusErr   *StatusError
		decodeErr   *DecodeError
		throttleErr *ThrottleError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &throttleErr):
		return "rate_limit"
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
