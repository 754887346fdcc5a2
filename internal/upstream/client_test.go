package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xela07ax/saude-console/internal/domain"
	"go.uber.org/zap"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *memCache) Set(_ context.Context, key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = body
}

func newTestClient(t *testing.T, h http.Handler, opts Options, cache Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	rel := NewReliability(Settings{RateLimit: 1000, RateBurst: 100, Failures: 2, Timeout: time.Minute})
	return NewClient(opts, rel, cache, nil, zap.NewNop())
}

func TestGetJSONSuccessAndHeaders(t *testing.T) {
	var gotKey, gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-functions-key")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"ts":"t1","pipeline_name":"p1"}]`))
	}), Options{FunctionsKey: "k1"}, nil)

	var out []domain.DecisionRecord
	err := c.GetJSON(context.Background(), "/api/sre/actions", url.Values{"top": []string{"5"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if len(out) != 1 || out[0].PipelineName != "p1" {
		t.Fatalf("GetJSON() = %+v, want one record for p1", out)
	}
	if gotKey != "k1" {
		t.Fatalf("x-functions-key = %q, want %q", gotKey, "k1")
	}
	if gotQuery != "top=5" {
		t.Fatalf("query = %q, want %q", gotQuery, "top=5")
	}
}

func TestGetJSONBearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}), Options{BearerToken: "tok"}, nil)

	var out []domain.DecisionRecord
	if err := c.GetJSON(context.Background(), "/api/sre/actions", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got != "Bearer tok" {
		t.Fatalf("Authorization = %q, want %q", got, "Bearer tok")
	}
}

func TestGetJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			kind: "status",
		},
		{
			name: "decode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
			kind: "decode",
		},
		{
			name: "throttle",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			kind: "rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler, Options{}, nil)
			var out []domain.DecisionRecord
			err := c.GetJSON(context.Background(), "/api/sre/actions", nil, &out)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := Classify(err); got != tt.kind {
				t.Fatalf("Classify() = %q, want %q (err=%v)", got, tt.kind, err)
			}
		})
	}
}

func TestGetJSONTransportError(t *testing.T) {
	rel := NewReliability(Settings{RateLimit: 1000, RateBurst: 100})
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"}, rel, nil, nil, zap.NewNop())

	var out []domain.DecisionRecord
	err := c.GetJSON(context.Background(), "/api/sre/actions", nil, &out)
	if got := Classify(err); got != "transport" {
		t.Fatalf("Classify() = %q, want %q (err=%v)", got, "transport", err)
	}
}

func TestGetJSONCircuitOpens(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}), Options{}, nil)

	var out []domain.DecisionRecord
	// Failures: 2 -> открывается на третьей ошибке подряд
	for i := 0; i < 3; i++ {
		_ = c.GetJSON(context.Background(), "/x", nil, &out)
	}
	err := c.GetJSON(context.Background(), "/x", nil, &out)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("upstream hits = %d, want 3", got)
	}
}

func TestGetJSONClientErrorsDoNotTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), Options{}, nil)

	var out []domain.DecisionRecord
	for i := 0; i < 5; i++ {
		err := c.GetJSON(context.Background(), "/x", nil, &out)
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("circuit opened on 404 after %d calls", i)
		}
	}
}

func TestGetJSONUsesCache(t *testing.T) {
	var hits int32
	cache := &memCache{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"items":[]}`))
	}), Options{}, cache)

	for i := 0; i < 3; i++ {
		var out domain.ApiLogList
		if err := c.GetJSON(context.Background(), "/api/logs/actions", nil, &out); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("upstream hits = %d, want 1", got)
	}
}

func TestPostJSON(t *testing.T) {
	var gotType string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{"reply":"pong"}`))
	}), Options{}, nil)

	var out domain.ChatResponse
	if err := c.PostJSON(context.Background(), "/chat", domain.ChatRequest{Message: "ping"}, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if got := out.ReplyText(); got != "pong" {
		t.Fatalf("ReplyText() = %q, want %q", got, "pong")
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotType)
	}
}

func TestForwardRelaysClientError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such instance"))
	}), Options{}, nil)

	resp, err := c.Forward(context.Background(), "/status/abc", nil)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if resp.Status != http.StatusNotFound || string(resp.Body) != "no such instance" {
		t.Fatalf("Forward() = %d %q, want 404 %q", resp.Status, resp.Body, "no such instance")
	}
}

func TestForwardRetriesServerError(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"runtimeStatus":"Running"}`))
	}), Options{}, nil)

	st, err := c.DurableStatus(context.Background(), "inst/1")
	if err != nil {
		t.Fatalf("DurableStatus() error = %v", err)
	}
	if st.RuntimeStatus != "Running" || st.InstanceID != "inst/1" {
		t.Fatalf("DurableStatus() = %+v", st)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("upstream hits = %d, want 2", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: time.Second},
		{in: "7", want: 7 * time.Second},
		{in: "garbage", want: time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.want {
			t.Fatalf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
