package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/saude-console/internal/console/handler"
	"github.com/xela07ax/saude-console/internal/infra/auth"
	"go.uber.org/zap"
)

type Options struct {
	MetricsPath string
	Gatherer    prometheus.Gatherer // nil — /metrics не публикуется

	// nil — периметр открыт (MVP по умолчанию)
	Validator auth.TokenValidator
}

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	opts   Options

	shellHandler  *handler.ShellHandler  // /
	wsHandler     *handler.WSHandler     // /ws
	statusHandler *handler.StatusHandler // /status/{instanceID}
	healthHandler *handler.HealthHandler // /health, /healthz
	authHandler   *handler.AuthHandler   // /auth/token, nil если выдача токенов не настроена
}

func NewConsoleServer(
	opts Options,
	logger *zap.Logger,
	shellH *handler.ShellHandler,
	wsH *handler.WSHandler,
	statusH *handler.StatusHandler,
	healthH *handler.HealthHandler,
	authH *handler.AuthHandler,
) *ConsoleServer {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		opts:          opts,
		shellHandler:  shellH,
		wsHandler:     wsH,
		statusHandler: statusH,
		healthHandler: healthH,
		authHandler:   authH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get("/health", s.healthHandler.Health)
		r.Get("/healthz", s.healthHandler.Healthz)

		// оболочка без данных, поэтому открыта всегда
		r.Method(http.MethodGet, "/", s.shellHandler)

		if s.authHandler != nil {
			r.Post("/auth/token", s.authHandler.Login)
		}
		if s.opts.Gatherer != nil {
			r.Method(http.MethodGet, s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
		}
	})

	// --- ПЕРИМЕТР: данные бэкенда ---
	r.Group(func(r chi.Router) {
		if s.opts.Validator != nil {
			r.Use(auth.NewMiddleware(s.opts.Validator, s.logger))
		}
		r.Method(http.MethodGet, "/ws", s.wsHandler)
		r.Get("/status/{instanceID}", s.statusHandler.Get)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
