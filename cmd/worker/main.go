package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/kasirhub/backend-pos/internal/app"
	"github.com/kasirhub/backend-pos/internal/config"
	"github.com/kasirhub/backend-pos/internal/lock"
	"github.com/kasirhub/backend-pos/internal/obs"
	"github.com/kasirhub/backend-pos/internal/order"
	"github.com/kasirhub/backend-pos/internal/report"
	"github.com/kasirhub/backend-pos/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "pos"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := app.NewPgxPool(initCtx, cfg.DatabaseURL, "pos-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(initCtx, cfg.RedisURL, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	reportSvc := &report.Service{
		Q:   report.Store{DB: pool},
		R:   redisClient,
		TTL: cfg.ReportCacheTTL,
	}

	mux := tasks.NewMux(
		tasks.ReceiptHandler{Orders: order.Store{Pool: pool}, Logger: logger},
		tasks.ReportWarmHandler{
			Reports: reportSvc,
			Locker:  lock.Locker{R: redisClient},
			Logger:  logger,
		},
	)

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
		},
		Logger: asynqZerolog{logger},
	})

	go warmReportsDaily(ctx, tasks.Client{Inner: asynq.NewClient(asynqOpt)}, logger)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

// warmReportsDaily keeps today's report caches fresh so the first dashboard
// request of the day is never a cold read.
func warmReportsDaily(ctx context.Context, client tasks.Client, logger zerolog.Logger) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			day := time.Now().Format("2006-01-02")
			if err := client.EnqueueReportWarm(ctx, day); err != nil {
				logger.Error().Err(err).Str("day", day).Msg("enqueue report warm")
			}
		}
	}
}

// asynqZerolog adapts the shared logger to asynq's logging interface.
type asynqZerolog struct {
	l zerolog.Logger
}

func (a asynqZerolog) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqZerolog) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqZerolog) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqZerolog) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqZerolog) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
