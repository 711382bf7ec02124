package groupd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamgroup/logger"
	"github.com/kbukum/streamgroup/observability"
	"github.com/kbukum/streamgroup/resilience"
	"github.com/kbukum/streamgroup/server"
	"github.com/kbukum/streamgroup/server/middleware"
	"github.com/kbukum/streamgroup/version"
)

// App wires the groupd service together and runs its lifecycle:
// telemetry setup, HTTP serving, signal wait and graceful shutdown.
type App struct {
	Cfg    *Config
	Logger *logger.Logger
	Server *server.Server
	Health *observability.HealthRegistry

	shutdownTelemetry observability.ShutdownFunc
	gracefulTimeout   time.Duration
}

// NewApp applies defaults, validates cfg and initializes the global logger.
// Routes are registered by Setup.
func NewApp(cfg *Config) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	logger.RegisterDefaults("server", "groups", "config")

	return &App{
		Cfg:             cfg,
		Logger:          log,
		Server:          server.New(cfg.Server, log),
		Health:          observability.NewHealthRegistry(cfg.Name, cfg.Version),
		gracefulTimeout: 15 * time.Second,
	}, nil
}

// Setup starts telemetry and registers middleware and routes.
func (a *App) Setup(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, a.Cfg.Observability, a.Cfg.Name, a.Cfg.Version, a.Cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability setup: %w", err)
	}
	a.shutdownTelemetry = shutdown

	meter := observability.Meter(a.Cfg.Name)
	httpMetrics, err := observability.NewMetrics(meter)
	if err != nil {
		return err
	}
	groupMetrics, err := observability.NewGroupMetrics(meter)
	if err != nil {
		return err
	}

	a.Server.ApplyMiddleware(httpMetrics)
	a.Server.RegisterSystemEndpoints(a.Cfg.Name, a.Health)
	slots := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "grouping",
		MaxConcurrent: a.Cfg.Grouping.MaxConcurrent,
		MaxWait:       a.Cfg.Grouping.QueueWait,
		OnReject: func(name string, err error) {
			a.Logger.Warn("grouping request rejected", logger.Fields("bulkhead", name, logger.FieldError, err.Error()))
		},
	})
	a.Health.Register("grouping", groupingHealth(slots, a.Cfg.Grouping))

	v1 := a.Server.Engine().Group("/v1")
	if a.Cfg.Auth.Enabled() {
		v1.Use(middleware.JWTAuth(middleware.JWTConfig{
			Secret: a.Cfg.Auth.JWTSecret,
			Issuer: a.Cfg.Auth.Issuer,
		}))
	}
	v1.Use(middleware.ConcurrencyLimit(slots, time.Second))
	NewHandler(a.Cfg.Grouping, a.Logger, WithObserver(groupMetrics)).Register(v1)
	return nil
}

// groupingHealth reports degraded while every grouping slot is taken.
func groupingHealth(slots *resilience.Bulkhead, cfg GroupingConfig) observability.CheckFunc {
	return func(context.Context) observability.Health {
		h := observability.Health{
			Status: observability.HealthStatusUp,
			Details: map[string]string{
				"in_flight":      strconv.Itoa(slots.InUse()),
				"max_concurrent": strconv.Itoa(slots.MaxConcurrent()),
				"key_timeout":    cfg.KeyTimeout.String(),
			},
		}
		if slots.Available() == 0 {
			h.Status = observability.HealthStatusDegraded
			h.Message = "all grouping slots in use"
		}
		return h
	}
}

// Router returns the engine for tests and embedding.
func (a *App) Router() *gin.Engine { return a.Server.Engine() }

// Run sets the app up, serves until SIGINT, SIGTERM or ctx ends, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	if err := a.Server.Start(ctx); err != nil {
		return err
	}
	a.Logger.Info("groupd ready", logger.Fields(
		"addr", a.Server.Addr(),
		"version", a.Cfg.Version,
		"auth", a.Cfg.Auth.Enabled(),
	))

	a.WaitForSignal(ctx)
	return a.Shutdown()
}

// WaitForSignal blocks until an OS interrupt/term signal or ctx is done.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown stops the server, then flushes telemetry, within the graceful
// timeout.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := a.Server.Stop(ctx); err != nil {
		shutdownErr = err
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			a.Logger.WithError(err).Error("telemetry shutdown error")
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}
	a.Logger.Info("groupd shutdown complete")
	return shutdownErr
}
