package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/cache"
	httpapi "github.com/radieske/bet-ledger/internal/ledger/http"
	"github.com/radieske/bet-ledger/internal/ledger/producer"
	"github.com/radieske/bet-ledger/internal/ledger/repo"
	"github.com/radieske/bet-ledger/internal/ledger/ws"
	sharedcache "github.com/radieske/bet-ledger/internal/shared/cache"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/internal/shared/logger"
	"github.com/radieske/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ledger-service"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositório: sqlite embarcado ou postgres
	store, err := repo.Open(ctx, cfg.StoreDriver, cfg.DataDir, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	checks := map[string]metrics.HealthFunc{"store": store.Ping}

	// Redis é opcional: sem ele a API segue sem cache e sem avisos em tempo real
	var (
		c   cache.Cache = cache.Nop{}
		hub *ws.Hub
	)
	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, running without cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		log.Info("redis connected")

		c = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }

		// Em produção, restringir a origem do WebSocket
		hub = ws.NewHub(func(r *http.Request) bool { return true })
		ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisSyncChannel, hub, log)
	}

	var publ producer.Publisher = producer.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		writer := kafka.NewAsyncWriter(brokers, cfg.TopicLedgerEvents, func(err error) {
			log.Warn("ledger event delivery failed", zap.Error(err))
		})
		defer writer.Close()
		publ = producer.NewKafkaPublisher(writer)
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicLedgerEvents))
	}

	metrics.RegisterLedger()
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, checks, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	api := httpapi.NewServer(log, store, c, publ, hub)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)

	log.Info("ledger-service stopped")
}
