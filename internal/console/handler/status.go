package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/saude-console/internal/upstream"
	"go.uber.org/zap"
)

// Forwarder — прозрачный GET в бэкенд.
type Forwarder interface {
	Forward(ctx context.Context, path string, query url.Values) (*upstream.Response, error)
}

// StatusHandler проксирует /status/{instanceID} в бэкенд: цель ссылок из ленты.
type StatusHandler struct {
	fwd    Forwarder
	logger *zap.Logger
}

func NewStatusHandler(fwd Forwarder, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{fwd: fwd, logger: logger.Named("status")}
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "instanceID")
	// chi маршрутизирует по RawPath, если он есть: тогда параметр еще закодирован
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(id); err == nil {
			id = decoded
		}
	}
	if id == "" {
		http.Error(w, "instanceID is required", http.StatusBadRequest)
		return
	}

	// токен консоли бэкенду не нужен
	query := r.URL.Query()
	query.Del("access_token")

	resp, err := h.fwd.Forward(r.Context(), "/status/"+url.PathEscape(id), query)
	if err != nil {
		h.logger.Warn("status proxy failed", zap.String("instance_id", id), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "upstream unavailable",
			"type":  upstream.Classify(err),
		})
		return
	}

	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
