package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/saude-console/internal/infra"
	"github.com/xela07ax/saude-console/internal/metrics"
	"github.com/xela07ax/saude-console/internal/upstream"
	"github.com/xela07ax/saude-console/internal/watcher"
)

// status-poller — наблюдатель статусов без консоли.
// Инстансы: status.instance_ids из конфига плюс аргументы командной строки.
func main() {
	metricsAddr := flag.String("metrics-addr", ":9090", "address for the Prometheus endpoint, empty to disable")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ids := append(append([]string{}, cfg.Status.InstanceIDs...), flag.Args()...)
	if len(ids) == 0 {
		logger.Warn("no instance ids configured, nothing to poll until restart")
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	client := upstream.NewFromConfig(cfg, nil, m, logger)
	w := watcher.New(client, watcher.Options{
		Interval:    cfg.Status.Interval,
		MaxTracked:  cfg.Status.MaxTracked,
		BufferSize:  cfg.Status.BufferSize,
		InstanceIDs: ids,
	}, logger, m)

	var srv *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: cfg.Server.ReadTimeout}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("metrics listen", zap.Error(err))
			}
		}()
	}

	w.Start(appCtx)
	logger.Info("status poller started",
		zap.Int("instances", len(ids)),
		zap.Duration("interval", cfg.Status.Interval),
		zap.String("upstream", client.BaseURL()),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	w.Stop()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info("status poller exited properly")
}
