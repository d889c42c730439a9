package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kasirhub/backend-pos/internal/app"
	"github.com/kasirhub/backend-pos/internal/auth"
	"github.com/kasirhub/backend-pos/internal/cart"
	"github.com/kasirhub/backend-pos/internal/catalog"
	"github.com/kasirhub/backend-pos/internal/common"
	"github.com/kasirhub/backend-pos/internal/config"
	"github.com/kasirhub/backend-pos/internal/customer"
	"github.com/kasirhub/backend-pos/internal/events"
	"github.com/kasirhub/backend-pos/internal/health"
	"github.com/kasirhub/backend-pos/internal/obs"
	"github.com/kasirhub/backend-pos/internal/order"
	"github.com/kasirhub/backend-pos/internal/ratelimit"
	"github.com/kasirhub/backend-pos/internal/rates"
	"github.com/kasirhub/backend-pos/internal/report"
	"github.com/kasirhub/backend-pos/internal/security"
	"github.com/kasirhub/backend-pos/internal/supplier"
	"github.com/kasirhub/backend-pos/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if envBool("DB_MIGRATE", true) {
		if err := app.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := app.NewPgxPool(ctx, cfg.DatabaseURL, "pos-api")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := app.NewRedis(ctx, cfg.RedisURL, metricsEnabled)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogSvc := &catalog.Service{
		DB:    pool,
		Cache: catalog.NewCache(redisClient, catalog.CacheTTLOrDefault(cfg.MenuCacheTTL)),
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	ratesStore := &rates.Store{DB: pool}
	ratesLoader := &rates.Loader{Source: ratesStore, Logger: &logger}
	if err := ratesLoader.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial rate refresh failed, billing at zero rates")
	}
	go ratesLoader.Run(runCtx, cfg.RatesRefreshEvery)
	ratesHandler := &rates.Handler{Loader: ratesLoader, Store: ratesStore}

	sessions := cart.NewStore(cfg.SessionTTL)
	go sweepSessions(runCtx, sessions, logger)
	sessionHandler := &cart.Handler{
		Store:    sessions,
		Catalog:  catalogSvc,
		Rates:    ratesLoader,
		Currency: cfg.CurrencyCode,
	}

	authSvc, err := auth.NewService(auth.Config{
		Store:           auth.Store{DB: pool},
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		Issuer:          "backend-pos",
		Audience:        "pos-terminal",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authSvc}
	authMiddleware := auth.Middleware{Service: authSvc}

	customerHandler := &customer.Handler{Svc: &customer.Service{DB: pool}}
	supplierHandler := &supplier.Handler{Svc: &supplier.Service{DB: pool}}

	bus := &events.Bus{Store: events.Store{DB: pool}}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := tasks.Client{Inner: asynq.NewClient(asynqOpt)}
	defer func() {
		if err := taskClient.Inner.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	orderSvc := &order.Service{
		Store:    order.Store{Pool: pool},
		Sessions: sessions,
		Rates:    ratesLoader,
		Bus:      bus,
		Tasks:    taskClient,
		Currency: cfg.CurrencyCode,
	}
	orderHandler := &order.Handler{Svc: orderSvc}

	reportSvc := &report.Service{
		Q:   report.Store{DB: pool},
		R:   redisClient,
		TTL: cfg.ReportCacheTTL,
	}
	reportHandler := &report.Handler{Svc: reportSvc}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     envBool("SECURE_HEADERS", true),
		EnableHSTS: envBool("SECURE_HSTS", false),
		HSTSMaxAge: envInt("SECURE_HSTS_MAX_AGE", 31536000),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURE_MAX_BODY_BYTES", 1<<20))}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      app.ReadinessChecker{DB: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		if limiter, err := ratelimit.New(redisClient, cfg.RateLimit); err != nil {
			logger.Error().Err(err).Msg("configure rate limiter")
		} else {
			v.Use(ratelimit.Handler{Limiter: limiter, Logger: logger}.Middleware)
		}

		v.Route("/auth", func(a chi.Router) {
			a.Post("/login", authHandler.Login)
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)
			a.Group(func(protected chi.Router) {
				protected.Use(authMiddleware.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		v.Get("/menu", catalogHandler.List)
		v.Get("/menu/{id}", catalogHandler.Get)

		v.Route("/sessions", func(s chi.Router) {
			s.Use(authMiddleware.RequireAuth)
			s.Get("/{id}", sessionHandler.Get)
			s.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", sessionHandler.Open)
				g.Post("/{id}/items", sessionHandler.AddItem)
				g.Delete("/{id}/items/{itemId}", sessionHandler.RemoveItem)
				g.Delete("/{id}/items", sessionHandler.Clear)
				g.Delete("/{id}", sessionHandler.Close)
			})
		})

		v.Route("/orders", func(o chi.Router) {
			o.Use(authMiddleware.RequireAuth)
			o.Get("/", orderHandler.List)
			o.Get("/{id}", orderHandler.Get)
			o.With(idem.Middleware).Post("/", orderHandler.Submit)
			o.With(auth.RequireRole(auth.RoleManager)).Post("/{id}/void", orderHandler.Void)
		})

		v.Route("/rates", func(rt chi.Router) {
			rt.Use(authMiddleware.RequireAuth)
			rt.Get("/", ratesHandler.Get)
			rt.With(auth.RequireRole(auth.RoleManager)).Put("/", ratesHandler.Update)
		})

		v.Route("/customers", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Get("/", customerHandler.List)
			c.Get("/{id}", customerHandler.Get)
			c.Post("/", customerHandler.Create)
			c.Put("/{id}", customerHandler.Update)
			c.Delete("/{id}", customerHandler.Delete)
		})

		v.Route("/suppliers", func(s chi.Router) {
			s.Use(authMiddleware.RequireAuth)
			s.Use(auth.RequireRole(auth.RoleManager))
			s.Get("/", supplierHandler.List)
			s.Get("/{id}", supplierHandler.Get)
			s.Post("/", supplierHandler.Create)
			s.Put("/{id}", supplierHandler.Update)
			s.Delete("/{id}", supplierHandler.Delete)
		})

		v.Route("/reports", func(rp chi.Router) {
			rp.Use(authMiddleware.RequireAuth)
			rp.Use(auth.RequireRole(auth.RoleManager))
			rp.Get("/daily", reportHandler.Daily)
			rp.Get("/top-items", reportHandler.TopItems)
		})
	})

	var handler http.Handler = r
	if tracingEnabled {
		handler = otelhttp.NewHandler(r, "pos-api",
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return req.Method + " " + req.URL.Path
			}))
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: handler,
	}

	go func() {
		<-runCtx.Done()
		health.SetReady(false)
		drain := envDurationMillis("SHUTDOWN_DRAIN_MS", 2000)
		logger.Info().Dur("drain", drain).Msg("shutting down")
		time.Sleep(drain)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func sweepSessions(ctx context.Context, store *cart.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := store.Sweep()
			if obs.OrderSessionsOpen != nil {
				obs.OrderSessionsOpen.Set(float64(store.Count()))
			}
			if dropped > 0 {
				logger.Info().Int("dropped", dropped).Msg("expired order sessions swept")
			}
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
