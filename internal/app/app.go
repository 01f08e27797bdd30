package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
	"github.com/xenking/checkout-floor/internal/handler"
	"github.com/xenking/checkout-floor/pkg/health"
	"github.com/xenking/checkout-floor/pkg/httpmiddleware"
)

const serviceName = "checkout-floor"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Metrics, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("registers", cfg.Registers),
	)

	floor, err := checkout.NewFloor(cfg.Registers)
	if err != nil {
		return errors.Wrap(err, "create checkout floor")
	}

	healthSvc := newHealth(floor)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h, err := newHTTPHandler(lg, m, cfg, floor, healthSvc)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
	}

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
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHealth registers the process and floor checks. A broken routing table
// never heals by itself, so the floor check fails on the first bad run.
func newHealth(floor *checkout.Floor) *health.Health {
	h := health.New()
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	h.AddLivenessCheck("floor", time.Second, func(context.Context) error {
		return floor.Current().Verify()
	}, health.WithFailureThreshold(1))
	return h
}

// newHTTPHandler builds the router with checkout and probe routes and wraps
// it in the middleware chain.
func newHTTPHandler(
	lg *zap.Logger,
	t httpmiddleware.TelemetryProvider,
	cfg *Config,
	floor *checkout.Floor,
	healthSvc *health.Health,
) (http.Handler, error) {
	h, err := handler.NewHandler(floor, t.MeterProvider().Meter(serviceName))
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	router := mux.NewRouter()
	h.Register(router)
	router.HandleFunc("/livez", healthSvc.LiveEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthSvc.ReadyEndpoint).Methods(http.MethodGet)

	routeFinder := httpmiddleware.MakeRouteFinder(router)
	return httpmiddleware.Wrap(router,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.HeaderRequestID},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.Instrument(serviceName, routeFinder, t),
		httpmiddleware.LogRequests(routeFinder),
	), nil
}
