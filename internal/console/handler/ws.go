package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xela07ax/saude-console/internal/dashboard"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 64 << 10
	sendBuffer     = 256
)

// WSHandler: одно websocket-соединение = одна открытая страница.
type WSHandler struct {
	upgrader websocket.Upgrader
	deps     dashboard.Deps
	logger   *zap.Logger
}

func NewWSHandler(deps dashboard.Deps, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		deps:   deps,
		logger: logger.Named("ws"),
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan dashboard.Update, sendBuffer)
	done := make(chan struct{})
	sink := dashboard.SinkFunc(func(u dashboard.Update) {
		select {
		case out <- u:
		case <-done:
		}
	})

	deps := h.deps
	deps.Logger = h.logger
	query := r.URL.Query()
	page := dashboard.NewPage(query.Get("tab"), sink, deps)
	// переподключение приносит фильтр ленты из поля ввода
	page.Feed().SetFilter(query.Get("filter"))
	logger := h.logger.With(zap.String("page_id", page.ID))

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		h.writeLoop(ctx, conn, out, done, logger)
	}()

	page.Load(ctx)
	h.readLoop(conn, page, logger)

	// сначала отпускаем тех, кто ждет в sink, потом ждем фоновые запросы страницы
	cancel()
	close(done)
	page.Close()
	writer.Wait()
}

func (h *WSHandler) readLoop(conn *websocket.Conn, page *dashboard.Page, logger *zap.Logger) {
	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd dashboard.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		page.Handle(cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan dashboard.Update, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				// читатель увидит закрытое соединение и завершит страницу
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-ctx.Done():
			// сервер останавливается: закрываем соединение, читатель завершит страницу
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
