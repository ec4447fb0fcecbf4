package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-appointment-ledger/internal/api"
	"github.com/hackgods/clinic-appointment-ledger/internal/appointment"
	"github.com/hackgods/clinic-appointment-ledger/internal/config"
	"github.com/hackgods/clinic-appointment-ledger/internal/db"
	"github.com/hackgods/clinic-appointment-ledger/internal/logging"
	"github.com/hackgods/clinic-appointment-ledger/internal/metrics"
	"github.com/hackgods/clinic-appointment-ledger/internal/notify"
	"github.com/hackgods/clinic-appointment-ledger/internal/patient"
	redisclient "github.com/hackgods/clinic-appointment-ledger/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("dev", "info", "api-server")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "api-server")
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	if err == nil {
		err = db.EnsureSchema(pgCtx, pgPool)
	}
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres setup error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
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

	m := metrics.New()
	store := appointment.NewPgStore(pgPool)
	sender := notify.NewQueueSender(redisclient.NewSMSQueue(rdb, cfg.SMSQueueKey))
	svc := appointment.NewService(store, sender, logger,
		appointment.WithMetrics(m),
		appointment.WithSenderName(cfg.SMSSenderName),
	)

	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		Patients:       patient.NewService(patient.NewPgStore(pgPool), logger),
		Metrics:        m,
		Logger:         logger,
		PostgresPing:   pgPool.Ping,
		RedisPing:      redisclient.Ping(rdb),
		RequestTimeout: cfg.RequestTimeout,
		Env:            cfg.Env,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()

	logger.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
