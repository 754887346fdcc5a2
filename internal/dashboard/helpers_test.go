package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
)

var errUpstream = errors.New("upstream: status 500")

// stubAPI отдает заранее заданные тела по пути и пишет историю запросов.
type stubAPI struct {
	mu      sync.Mutex
	bodies  map[string]string
	errs    map[string]error
	queries []string
	holds   map[string]chan struct{}
	postFn  func(ctx context.Context, path string, in any) (string, error)
}

func newStubAPI() *stubAPI {
	return &stubAPI{bodies: map[string]string{}, errs: map[string]error{}, holds: map[string]chan struct{}{}}
}

// hold задерживает ответы по path, пока не закрыт возвращенный канал.
func (s *stubAPI) hold(path string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.holds[path] = ch
	return ch
}

func (s *stubAPI) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
	delete(s.errs, path)
}

func (s *stubAPI) fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[path] = err
}

func (s *stubAPI) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	s.mu.Lock()
	full := path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	s.queries = append(s.queries, full)
	err := s.errs[path]
	body, ok := s.bodies[path]
	held := s.holds[path]
	s.mu.Unlock()

	if held != nil {
		select {
		case <-held:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err != nil {
		return err
	}
	if !ok {
		body = "[]"
	}
	return json.Unmarshal([]byte(body), out)
}

func (s *stubAPI) PostJSON(ctx context.Context, path string, in, out any) error {
	if s.postFn == nil {
		return json.Unmarshal([]byte(`{"reply":""}`), out)
	}
	body, err := s.postFn(ctx, path, in)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (s *stubAPI) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

type recSink struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recSink) Publish(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.updates))
	for _, u := range r.updates {
		out = append(out, u.Type)
	}
	return out
}

type trackerFunc func(string)

func (f trackerFunc) Track(id string) { f(id) }
