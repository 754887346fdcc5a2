package handler

import "net/http"

const serviceName = "saude-console"

type HealthHandler struct {
	upstream string
}

func NewHealthHandler(upstreamBaseURL string) *HealthHandler {
	return &HealthHandler{upstream: upstreamBaseURL}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": serviceName})
}

// Healthz показывает, куда смотрит консоль. Бэкенд не опрашивается.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "upstream": h.upstream})
}
