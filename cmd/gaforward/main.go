// Command gaforward runs the event forwarding service: it accepts
// normalized analytics events over HTTP, maps them to Google Analytics
// vendor calls, and relays the calls to a collector endpoint, spooling them
// locally while the collector is unreachable.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/trackforge/gatag/ga"
	"github.com/trackforge/gatag/internal/forward"
	"github.com/trackforge/gatag/internal/observability"
	"github.com/trackforge/gatag/transport"
	"github.com/trackforge/gatag/transport/spool"
)

// Config holds all forwarder configuration.
type Config struct {
	// LogLevel is the log level (debug, info, warn, error)
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogFormat is the log format (json, text)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// CollectorEndpoint is the base URL of the call collector
	CollectorEndpoint string `env:"COLLECTOR_ENDPOINT"`

	// CollectorAPIKey authenticates batch requests to the collector
	CollectorAPIKey string `env:"COLLECTOR_API_KEY"`

	// FlushInterval is how often buffered calls are relayed
	FlushInterval time.Duration `env:"COLLECTOR_FLUSH_INTERVAL" envDefault:"5s"`

	// SpoolPath is the SQLite spool database; empty disables spooling
	SpoolPath string `env:"SPOOL_PATH"`

	// SpoolMaxSize caps the number of spooled calls
	SpoolMaxSize int `env:"SPOOL_MAX_SIZE" envDefault:"1000"`

	// HitsPerSecond throttles outgoing hits; HitBurst is the burst allowance
	HitsPerSecond float64 `env:"HITS_PER_SECOND" envDefault:"2"`
	HitBurst      int     `env:"HIT_BURST" envDefault:"20"`

	// HTTP intake configuration
	HTTP forward.Config `envPrefix:""`

	// Integration configuration
	GA ga.Config `envPrefix:""`
}

func main() {
	// Load configuration from environment
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}
	if err := cfg.GA.Validate(); err != nil {
		slog.Error("invalid integration config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting gaforward",
		"log_level", cfg.LogLevel,
		"http_addr", cfg.HTTP.Addr,
		"collector", cfg.CollectorEndpoint,
		"classic", cfg.GA.Classic,
		"enhanced_ecommerce", cfg.GA.EnhancedEcommerce,
	)

	// Create context canceled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Setup observability
	obs, err := observability.New("gaforward")
	if err != nil {
		logger.Error("failed to setup observability", "error", err)
		os.Exit(1)
	}
	metrics, err := observability.NewMetrics(obs.Meter())
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	// Build the transport chain: collector (or spool) behind the hit rate
	// limiter behind the per-command counter. When both are configured the
	// spool backs the collector: batches that cannot be delivered are
	// spooled and replayed at the next start.
	var sink transport.Transport
	var collector *transport.Collector
	var store *spool.Spool

	if cfg.SpoolPath != "" {
		store, err = spool.Open(cfg.SpoolPath, cfg.SpoolMaxSize, logger)
		if err != nil {
			logger.Error("failed to open spool", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		sink = store
	}

	if cfg.CollectorEndpoint != "" {
		ccfg := transport.CollectorConfig{
			Endpoint: cfg.CollectorEndpoint,
			APIKey:   cfg.CollectorAPIKey,
			OnFlush: func(calls int, elapsed time.Duration, err error) {
				metrics.FlushDuration.Record(context.Background(), float64(elapsed.Milliseconds()))
				metrics.BatchSize.Record(context.Background(), int64(calls))
			},
		}
		if store != nil {
			ccfg.Fallback = store
		}
		collector, err = transport.NewCollector(ccfg)
		if err != nil {
			logger.Error("failed to create collector transport", "error", err)
			os.Exit(1)
		}
		sink = collector

		// Drain calls spooled while the collector was unreachable.
		if store != nil {
			replayed, err := store.Replay(collector)
			if err != nil {
				logger.Error("failed to replay spool", "error", err)
			} else if replayed > 0 {
				logger.Info("replayed spooled calls", "count", replayed)
			}
		}
	}

	if sink == nil {
		logger.Warn("no collector endpoint or spool path configured, recording calls in memory")
		sink = transport.NewRecorder()
	}

	limited := transport.NewRateLimited(sink, cfg.HitsPerSecond, cfg.HitBurst)
	instrumented, err := transport.Instrument(obs.Meter(), limited)
	if err != nil {
		logger.Error("failed to instrument transport", "error", err)
		os.Exit(1)
	}

	// Create the integration and emit the tracker setup sequence.
	integration, err := ga.New(cfg.GA, instrumented, logger)
	if err != nil {
		logger.Error("failed to create integration", "error", err)
		os.Exit(1)
	}
	integration.Initialize()

	// Periodically relay buffered calls.
	flushDone := make(chan struct{})
	if collector != nil {
		go collector.FlushLoop(ctx, cfg.FlushInterval, flushDone)
	} else {
		close(flushDone)
	}

	// Serve the intake.
	service := forward.NewService(cfg.HTTP, integration, metrics, logger)
	if err := service.Run(ctx, service.Router(obs.MetricsHandler())); err != nil {
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown: stop flushing, then drain what remains.
	logger.Info("initiating graceful shutdown")
	<-flushDone

	if collector != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		if err := collector.Flush(flushCtx); err != nil {
			logger.Error("final flush failed", "error", err)
		}
		cancel()
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		logger.Error("observability shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// setupLogger creates a logger based on configuration.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
