// Package app wires configuration, storage, domain services, and the
// HTTP server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/auth"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/cart"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/checkout"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/domain/report"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/handler"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/storage/postgres"
	"github.com/Zeyademad999/nassim-clipper-checkout/internal/storage/session"
	"github.com/Zeyademad999/nassim-clipper-checkout/pkg/health"
	"github.com/Zeyademad999/nassim-clipper-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Cart session store: Redis when configured, in-memory otherwise.
	carts, err := newSessionStore(ctx, lg, healthSvc, cfg.Session)
	if err != nil {
		return err
	}

	// Repositories.
	serviceRepo := postgres.NewServiceRepository(pool)
	barberRepo := postgres.NewBarberRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	reportSource := postgres.NewReportSource(pool)

	// Domain services.
	coordinator := checkout.NewCoordinator(txnRepo)
	aggregator := report.NewAggregator(reportSource)
	authService := auth.NewService(userRepo, []byte(cfg.JWT.Secret), cfg.JWT.TTL)

	// Nightly summary of the previous day's sales.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("5 0 * * *", func() {
		logDailySummary(ctx, lg, aggregator)
	}); err != nil {
		return errors.Wrap(err, "schedule daily summary")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP surface.
	h := handler.NewHandler(serviceRepo, barberRepo, carts, coordinator, txnRepo, aggregator, authService)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Session-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("barber-pos", m.MeterProvider(), m.TracerProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newSessionStore picks the cart store implementation from config and
// registers its readiness check when the store has one.
func newSessionStore(ctx context.Context, lg *zap.Logger, healthSvc *health.Health, cfg SessionConfig) (cart.Store, error) {
	if cfg.RedisAddr == "" {
		lg.Info("Using in-memory cart sessions", zap.Duration("ttl", cfg.TTL))
		store := session.NewMemoryStore(cfg.TTL)
		store.StartJanitor(ctx, time.Minute)
		return store, nil
	}

	lg.Info("Using Redis cart sessions", zap.String("addr", cfg.RedisAddr))
	store := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
	if err := store.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "connect redis")
	}
	healthSvc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(store))
	go func() {
		<-ctx.Done()
		_ = store.Close()
	}()
	return store, nil
}

// logDailySummary reports yesterday's totals shortly after midnight so
// the shop has a closing summary in the logs.
func logDailySummary(ctx context.Context, lg *zap.Logger, aggregator *report.Aggregator) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)

	reportCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	daily, err := aggregator.DailyReport(reportCtx, yesterday)
	if err != nil {
		lg.Error("Daily summary failed", zap.Error(err))
		return
	}
	lg.Info("Daily summary",
		zap.String("date", yesterday.Format("2006-01-02")),
		zap.String("revenue", daily.TotalRevenue.StringFixed(2)),
		zap.Int("transactions", daily.TotalTransactions),
	)
}
