package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/cache"
	"github.com/radieske/bet-ledger/internal/ledger/repo"
	ledgersync "github.com/radieske/bet-ledger/internal/ledger/sync"
	sharedcache "github.com/radieske/bet-ledger/internal/shared/cache"
	"github.com/radieske/bet-ledger/internal/shared/config"
	"github.com/radieske/bet-ledger/internal/shared/kafka"
	"github.com/radieske/bet-ledger/internal/shared/logger"
	"github.com/radieske/bet-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ledger-sync-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// destino: banco remoto gerenciado (sempre postgres)
	remote, err := repo.Open(ctx, config.DriverPostgres, "", cfg.RemotePostgresDSN, log.Named("remote"))
	if err != nil {
		log.Fatal("failed to open remote store", zap.Error(err))
	}
	defer remote.Close()
	log.Info("remote store connected")

	redisClient, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	checks := map[string]metrics.HealthFunc{
		"remote": remote.Ping,
		"redis":  func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	// origem: repositório local ou o cache Redis preenchido pela API
	var source ledgersync.Source
	switch cfg.SyncSource {
	case config.SyncSourceCache:
		source = cache.NewRedisCache(redisClient, cfg.CacheTTL)
	default:
		local, err := repo.Open(ctx, cfg.StoreDriver, cfg.DataDir, cfg.PostgresDSN, log.Named("local"))
		if err != nil {
			log.Fatal("failed to open local store", zap.Error(err))
		}
		defer local.Close()
		source = ledgersync.NewStoreSource(local)
		checks["local"] = local.Ping
	}
	log.Info("sync source ready", zap.String("source", cfg.SyncSource))

	notifier := ledgersync.NewRedisNotifier(redisClient, cfg.RedisSyncChannel)
	merger := ledgersync.NewMerger(source, remote, notifier, log)

	brokers := cfg.Brokers()
	reader := kafka.NewReader(brokers, cfg.TopicLedgerEvents, cfg.SyncGroupID)
	defer reader.Close()

	dlq := kafka.NewWriter(brokers, cfg.TopicLedgerEventsDLQ)
	defer dlq.Close()

	metrics.RegisterSync()

	consumer := &ledgersync.Consumer{
		Log:        log,
		Reader:     reader,
		Merger:     merger,
		DLQ:        dlq,
		OnConsumed: func() { metrics.SyncEventsConsumed.Inc() },
		OnSynced: func(r ledgersync.Report) {
			metrics.SyncBetsInserted.Add(float64(r.Inserted))
			if r.BankrollPushed {
				metrics.SyncBankrollPushed.Inc()
			}
		},
		OnRun:   func(status string) { metrics.SyncRuns.WithLabelValues(status).Inc() },
		OnError: func(stage string) { metrics.SyncErrors.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, checks, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	log.Info("ledger-sync-worker started", zap.String("topic", cfg.TopicLedgerEvents), zap.String("group", cfg.SyncGroupID))
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("consumer stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = msrv.Shutdown(shutdownCtx)

	log.Info("ledger-sync-worker stopped")
}
