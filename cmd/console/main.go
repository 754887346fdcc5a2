package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/saude-console/internal/console/handler"
	"github.com/xela07ax/saude-console/internal/console/server"
	"github.com/xela07ax/saude-console/internal/console/service"
	"github.com/xela07ax/saude-console/internal/dashboard"
	"github.com/xela07ax/saude-console/internal/domain"
	"github.com/xela07ax/saude-console/internal/infra"
	"github.com/xela07ax/saude-console/internal/infra/auth"
	"github.com/xela07ax/saude-console/internal/metrics"
	"github.com/xela07ax/saude-console/internal/upstream"
	"github.com/xela07ax/saude-console/internal/watcher"
)

func main() {
	hashPassword := flag.Bool("hash-password", false, "read a password from stdin and print its bcrypt hash for auth.operator_password_hash")
	flag.Parse()

	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *hashPassword {
		if err := printPasswordHash(cfg.Auth.BcryptCost); err != nil {
			log.Fatalf("hash-password: %v", err)
		}
		return
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизни фоновых горутин: SIGTERM -> cancel
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// 3. Redis (необязателен: общий кэш ответов бэкенда)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(appCtx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// без кэша консоль работает, просто чаще ходит в бэкенд
			logger.Warn("redis unreachable, upstream cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			rdb.Close()
			rdb = nil
		}
		pingCancel()
	}

	// 4. Бэкенд и наблюдатель статусов
	client := upstream.NewFromConfig(cfg, rdb, m, logger)

	statusWatcher := watcher.New(client, watcher.Options{
		Interval:    cfg.Status.Interval,
		MaxTracked:  cfg.Status.MaxTracked,
		BufferSize:  cfg.Status.BufferSize,
		InstanceIDs: cfg.Status.InstanceIDs,
	}, logger, m)
	statusWatcher.Start(appCtx)

	// 5. Периметр
	opts := server.Options{MetricsPath: cfg.Metrics.Path, Gatherer: reg}
	var authH *handler.AuthHandler
	if cfg.Auth.Enabled() {
		pub, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
		if err != nil {
			logger.Fatal("auth public key", zap.Error(err))
		}
		opts.Validator = auth.NewRSAValidator(pub)

		if len(cfg.Auth.PrivateKey) > 0 {
			priv, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
			if err != nil {
				logger.Fatal("auth private key", zap.Error(err))
			}
			operator := domain.Operator{Username: cfg.Auth.OperatorUsername, PasswordHash: cfg.Auth.OperatorPasswordHash}
			if service.HashCostBelow(operator.PasswordHash, cfg.Auth.BcryptCost) {
				logger.Warn("operator password hash is weaker than auth.bcrypt_cost, regenerate with -hash-password",
					zap.Int("bcrypt_cost", cfg.Auth.BcryptCost))
			}
			authH = handler.NewAuthHandler(service.NewAuthService(operator, priv, cfg.Auth.TokenTTL), logger)
		}
		logger.Info("console perimeter enabled", zap.Bool("token_issuing", authH != nil))
	}

	// 6. Страницы
	deps := dashboard.Deps{
		API:     client,
		Tracker: statusWatcher,
		Intervals: dashboard.Intervals{
			Decisions: cfg.Poller.DecisionsInterval,
			Feed:      cfg.Poller.FeedInterval,
			Logs:      cfg.Poller.LogsInterval,
		},
		Chat:    dashboard.ChatOptions{Timeout: cfg.Chat.Timeout, DiscardStale: cfg.Chat.DiscardStale},
		Metrics: m,
		Logger:  logger,
	}

	consoleSrv := server.NewConsoleServer(opts, logger,
		handler.NewShellHandler(logger),
		handler.NewWSHandler(deps, logger),
		handler.NewStatusHandler(client, logger),
		handler.NewHealthHandler(client.BaseURL()),
		authH,
	)

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     consoleSrv,
		ReadTimeout: cfg.Server.ReadTimeout,
		// без WriteTimeout: соединения /ws живут, пока открыта страница
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return appCtx },
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("SAUDE console started", zap.String("addr", srv.Addr), zap.String("upstream", client.BaseURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("SAUDE console stopping...")

	// закрываем страницы: отмена контекста гасит поллеры и websocket-циклы
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	statusWatcher.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info("SAUDE console exited properly")
}

func printPasswordHash(cost int) error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := service.HashPassword(strings.TrimRight(line, "\r\n"), cost)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
