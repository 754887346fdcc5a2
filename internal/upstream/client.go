package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

// Options — адрес бэкенда SAUDE и заголовки авторизации Functions.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	FunctionsKey string // x-functions-key
	BearerToken  string // используется, если ключа нет
	HTTPClient   *http.Client
}

// Response — сырой ответ бэкенда для прозрачного проксирования.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Client ходит в бэкенд SAUDE. Все вызовы идут через Reliability.
type Client struct {
	baseURL string
	http    *http.Client
	headers http.Header
	rel     *Reliability
	cache   Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewClient(opts Options, rel *Reliability, cache Cache, m *metrics.Metrics, logger *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if rel == nil {
		rel = NewReliability(Settings{})
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	switch {
	case opts.FunctionsKey != "":
		headers.Set("x-functions-key", opts.FunctionsKey)
	case opts.BearerToken != "":
		headers.Set("Authorization", "Bearer "+opts.BearerToken)
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:    httpClient,
		headers: headers,
		rel:     rel,
		cache:   cache,
		metrics: m,
		logger:  logger.Named("upstream"),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON — GET без повторов, успешные тела кэшируются (если кэш включен).
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	key := pathWithQuery(path, query)

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			return c.decode(path, body, out)
		}
	}

	body, err := c.rel.Call(ctx, func(ctx context.Context) ([]byte, error) {
		resp, err := c.do(ctx, http.MethodGet, key, nil)
		if err != nil {
			return nil, err
		}
		if err := statusErr(path, resp); err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return c.observe(err)
	}

	if err := c.decode(path, body, out); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Set(ctx, key, body)
	}
	return nil
}

// PostJSON — POST без повторов (чат: каждая отправка независима).
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	body, err := c.rel.Call(ctx, func(ctx context.Context) ([]byte, error) {
		resp, err := c.do(ctx, http.MethodPost, path, payload)
		if err != nil {
			return nil, err
		}
		if err := statusErr(path, resp); err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return c.observe(err)
	}

	return c.decode(path, body, out)
}

// Forward отдает ответ бэкенда как есть. 5xx/429/сетевые сбои повторяются;
// после исчерпания попыток возвращается последний полученный ответ, если он был.
func (c *Client) Forward(ctx context.Context, path string, query url.Values) (*Response, error) {
	var last *Response

	_, err := c.rel.CallWithRetry(ctx, func(ctx context.Context) ([]byte, error) {
		resp, err := c.do(ctx, http.MethodGet, pathWithQuery(path, query), nil)
		if resp != nil {
			last = resp
		}
		if err != nil {
			return nil, err
		}
		if resp.Status >= http.StatusInternalServerError || resp.Status == http.StatusTooManyRequests {
			return nil, statusErr(path, resp)
		}
		return resp.Body, nil
	})
	if err != nil {
		c.observe(err)
		if last != nil {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

// DurableStatus читает статус durable-инстанса через /status/{id} бэкенда.
func (c *Client) DurableStatus(ctx context.Context, instanceID string) (*domain.DurableStatus, error) {
	path := "/status/" + url.PathEscape(instanceID)
	query := url.Values{"showHistory": []string{"true"}}

	resp, err := c.Forward(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if err := statusErr(path, resp); err != nil {
		return nil, c.observe(err)
	}

	var st domain.DurableStatus
	if err := c.decode(path, resp.Body, &st); err != nil {
		return nil, err
	}
	if st.InstanceID == "" {
		st.InstanceID = instanceID
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, pathAndQuery string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, pathAndQuery, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, pathAndQuery, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, pathAndQuery, err)
	}

	out := &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return out, &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Cause:      &StatusError{Path: pathAndQuery, Code: resp.StatusCode},
		}
	}
	return out, nil
}

func (c *Client) decode(path string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.observe(&DecodeError{Path: path, Cause: err})
	}
	return nil
}

func (c *Client) observe(err error) error {
	if kind := Classify(err); kind != "" && kind != "canceled" {
		c.metrics.UpstreamErrors.WithLabelValues(kind).Inc()
	}
	return err
}

func statusErr(path string, resp *Response) error {
	if resp.Status < 200 || resp.Status > 299 {
		return &StatusError{Path: path, Code: resp.Status}
	}
	return nil
}

func pathWithQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return time.Second
}
