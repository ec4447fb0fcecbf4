package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-appointment-ledger/internal/config"
	"github.com/hackgods/clinic-appointment-ledger/internal/logging"
	"github.com/hackgods/clinic-appointment-ledger/internal/metrics"
	"github.com/hackgods/clinic-appointment-ledger/internal/notify"
	redisclient "github.com/hackgods/clinic-appointment-ledger/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("dev", "info", "sms-worker")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "sms-worker")
	logger.Info().
		Str("env", cfg.Env).
		Str("queue", cfg.SMSQueueKey).
		Dur("wait", cfg.WorkerInterval).
		Msg("sms-worker starting up")

	if cfg.SMSGatewayURL == "" {
		logger.Fatal().Msg("SMS_GATEWAY_URL is required")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	queue := redisclient.NewSMSQueue(rdb, cfg.SMSQueueKey)
	gateway := notify.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayToken)
	m := metrics.New()
	worker := notify.NewWorker(queue, gateway, cfg.WorkerInterval, logger, m)

	// metrics only; the worker has no API
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()

	if n, err := queue.Len(rootCtx); err == nil {
		logger.Info().Int64("backlog", n).Msg("draining sms queue")
	}

	worker.Run(rootCtx)

	logger.Info().Msg("shutdown signal received, stopping sms worker")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
