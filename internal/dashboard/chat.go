package dashboard

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

const (
	ChatGreeting     = `How can I help? Try asking "list vms" or "triage".`
	ChatErrorMessage = "Error: Could not connect to the agent."
)

// Poster — отправка JSON в бэкенд.
type Poster interface {
	PostJSON(ctx context.Context, path string, in, out any) error
}

// ChatEntry — запись транскрипта вместе с готовой разметкой.
type ChatEntry struct {
	domain.ChatMessage
	HTML string `json:"html"`
}

// Transcript — только дописывается, живет в пределах страницы.
type Transcript struct {
	mu      sync.Mutex
	entries []domain.ChatMessage
	sink    Sink
}

func NewTranscript(sink Sink) *Transcript {
	return &Transcript{
		entries: []domain.ChatMessage{{Role: domain.RoleAgent, Text: ChatGreeting}},
		sink:    orDiscard(sink),
	}
}

func (t *Transcript) Append(msg domain.ChatMessage) error {
	html, err := RenderChatEntry(msg)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, msg)
	t.sink.Publish(Update{Type: UpdateChat, Chat: &ChatEntry{ChatMessage: msg, HTML: html}})
	return nil
}

func (t *Transcript) Entries() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ChatMessage, len(t.entries))
	copy(out, t.entries)
	return out
}

type ChatOptions struct {
	Timeout      time.Duration
	DiscardStale bool // отбрасывать ответы, которые обогнал более новый
}

// ChatClient — fire-and-forget отправка в /chat. Ответы дописываются в порядке прихода.
type ChatClient struct {
	api        Poster
	transcript *Transcript
	sink       Sink
	opts       ChatOptions
	logger     *zap.Logger
	metrics    *metrics.Metrics

	issued uint64 // последний выданный порядковый номер

	mu      sync.Mutex
	applied uint64 // номер самого нового дописанного ответа
}

func NewChatClient(api Poster, transcript *Transcript, sink Sink, opts ChatOptions, logger *zap.Logger, m *metrics.Metrics) *ChatClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	return &ChatClient{
		api:        api,
		transcript: transcript,
		sink:       orDiscard(sink),
		opts:       opts,
		logger:     logger.With(zap.String("mod", "chat")),
		metrics:    m,
	}
}

// Submit: пустой после trim текст игнорируется. Запись пользователя появляется
// до отправки запроса, затем поле ввода очищается и идет POST /chat.
// Возвращает false, если сообщение не отправлялось.
func (c *ChatClient) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	ordinal := atomic.AddUint64(&c.issued, 1)
	if err := c.transcript.Append(domain.ChatMessage{Role: domain.RoleUser, Text: text, Ordinal: ordinal}); err != nil {
		c.logger.Error("render user entry", zap.Error(err))
		return false
	}
	c.sink.Publish(Update{Type: UpdateChatClear})

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	var resp domain.ChatResponse
	err := c.api.PostJSON(ctx, PathChat, domain.ChatRequest{Message: text}, &resp)

	reply := domain.ChatMessage{Role: domain.RoleAgent, Ordinal: ordinal}
	outcome := "ok"
	if err != nil {
		c.logger.Warn("chat request failed", zap.Uint64("ordinal", ordinal), zap.Error(err))
		reply.Text = ChatErrorMessage
		reply.IsError = true
		outcome = "error"
	} else {
		reply.Text = resp.ReplyText()
	}

	if !c.admit(ordinal) {
		c.logger.Info("stale chat reply dropped", zap.Uint64("ordinal", ordinal))
		c.metrics.ChatRequests.WithLabelValues("stale").Inc()
		return true
	}
	if err := c.transcript.Append(reply); err != nil {
		c.logger.Error("render agent entry", zap.Error(err))
	}
	c.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	return true
}

// admit решает, дописывать ли ответ с данным номером.
func (c *ChatClient) admit(ordinal uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.DiscardStale && ordinal < c.applied {
		return false
	}
	if ordinal > c.applied {
		c.applied = ordinal
	}
	return true
}
