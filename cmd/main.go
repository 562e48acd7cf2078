package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rollcall/internal/adapters/http/api"
	app "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := initObservability(cfg); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Get().Error(ctx, "failed to listen", logger.String("addr", cfg.Addr), logger.Error(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, ln); err != nil {
		logger.Get().Error(ctx, "rollcall stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// initObservability sets up the global logger and metrics manager from cfg.
func initObservability(cfg *config.Config) error {
	out := io.Writer(os.Stdout)
	if cfg.LogOutput == config.LogOutputStderr {
		out = os.Stderr
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(out)); err != nil {
		return err
	}
	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithConstLabels(cfg.MetricsLabels),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
	)
	return nil
}

// newService builds the attendance service from configuration.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithStorage(cfg.Storage),
		app.WithDataDir(cfg.DataDir),
		app.WithSQLitePath(cfg.SQLitePath),
		app.WithRosterFile(cfg.RosterFile),
		app.WithStrictRoster(cfg.StrictRoster),
		app.WithIdentifierFormat(cfg.IDPrefix, cfg.IDWidth),
		app.WithCorrections(cfg.Corrections),
		app.WithLocation(loc),
	), nil
}

// run serves the API on ln until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	log := logger.Get()

	svc, err := newService(cfg, log.Named("service"))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Handler:           api.NewServer(svc, svc).Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info(context.Background(), "server stopped")
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx, cfg.SystemMetricsInterval)
		return nil
	})

	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc, serviceMetricsInterval)
		return nil
	})

	return g.Wait()
}

// startSystemMetricsUpdater updates system metrics every interval until ctx ends.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes today's gauges every interval until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics recomputes the present-today gauge. Attendance
// publishes it as a side effect.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	if _, err := svc.Attendance(ctx); err != nil && !errors.Is(err, app.ErrNotStarted) {
		logger.Get().Warn(ctx, "refreshing attendance gauges failed", logger.Error(err))
	}
}
