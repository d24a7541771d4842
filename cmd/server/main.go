package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"travel-rag/internal/adapter/rag_http"
	"travel-rag/internal/corpus"
	"travel-rag/internal/di"
	"travel-rag/internal/infra/config"
	"travel-rag/internal/infra/logger"
	"travel-rag/internal/infra/otel"
)

const (
	startupIndexTimeout = 5 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server_exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Telemetry and logger
	shutdownOTel, err := otel.InitProvider(ctx, otel.Config{
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.OTel.ServiceVersion,
		Environment:    cfg.Server.Env,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownOTel(shutdownCtx)
	}()

	log := logger.NewWithOTel(cfg.LogLevel, cfg.OTel.Enabled)
	slog.SetDefault(log)

	// 3. Components
	app, err := di.NewApplicationComponents(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire components: %w", err)
	}
	defer app.Close()

	// 4. Initial corpus load
	if cfg.Index.OnStartup {
		indexCtx, cancel := context.WithTimeout(ctx, startupIndexTimeout)
		report, err := app.IndexUsecase.Execute(indexCtx, corpus.All())
		cancel()
		if err != nil {
			log.Error("startup_indexing_incomplete",
				slog.Int("indexed", report.Indexed),
				slog.Int("failed", report.Failed),
				slog.String("error", err.Error()))
		}
	}

	// 5. Worker
	app.Worker.Start()
	defer app.Worker.Stop()

	// 6. HTTP
	e := newEcho(ctx, cfg, app, log)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("server_starting", slog.String("addr", addr), slog.String("env", cfg.Server.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(ctx context.Context, cfg *config.Config, app *di.ApplicationComponents, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	if cfg.OTel.Enabled {
		e.Use(otelecho.Middleware(cfg.OTel.ServiceName))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				log.LogAttrs(c.Request().Context(), slog.LevelError, "http_request", attrs...)
				return nil
			}
			log.LogAttrs(c.Request().Context(), slog.LevelInfo, "http_request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	limiter := rag_http.NewRateLimiter(ctx, rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	app.Handler.Register(e, limiter.Middleware())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
