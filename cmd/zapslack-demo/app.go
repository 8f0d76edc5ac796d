package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"zapslack"
	"zapslack/internal/config"
	"zapslack/internal/constants"
	"zapslack/internal/logger"
	"zapslack/internal/worker"
	"zapslack/pkg/circuitbreaker"
	"zapslack/pkg/health"
	"zapslack/pkg/metrics"
	"zapslack/pkg/middleware"
	"zapslack/pkg/retry"
	"zapslack/pkg/webhook"
)

type App struct {
	config *config.Config
	logger logger.Logger

	appLogger *zap.Logger
	handle    *worker.Handle
	server    *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

func (a *App) Initialize() error {
	metrics.Register()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	core, handle, err := a.buildPipeline()
	if err != nil {
		return fmt.Errorf("failed to build forwarding pipeline: %w", err)
	}
	a.handle = handle

	consoleCore := newConsoleCore(a.config.Logging.Level)
	a.appLogger = zap.New(zapcore.NewTee(consoleCore, core), zap.AddCaller())

	if a.config.Server.Port > 0 {
		a.initDebugServer()
	}

	return nil
}

func (a *App) buildPipeline() (*zapslack.Core, *worker.Handle, error) {
	compiled, err := config.Compile(a.config.Filters)
	if err != nil {
		return nil, nil, err
	}

	client := a.buildWebhookClient()

	builder := zapslack.NewBuilder(compiled.Targets).
		MessageFilters(compiled.Messages).
		EventByFieldFilters(compiled.EventByField).
		FieldExclusions(compiled.Exclusions).
		ExpressionFilters(a.config.Filters.Expressions, a.config.Filters.ExpressionFallback).
		Slack(zapslack.SlackConfig(a.config.Slack)).
		Client(client).
		DiagnosticLogger(zap.New(newConsoleCore(a.config.Logging.Level)))

	if a.config.Delivery.SendTimeoutSeconds > 0 {
		builder.SendTimeout(a.config.Delivery.SendTimeoutSeconds * time.Second)
	}
	if a.config.Delivery.FailureLogPerSec > 0 {
		builder.FailureLogRate(a.config.Delivery.FailureLogPerSec)
	}

	return builder.Build()
}

func (a *App) buildWebhookClient() *webhook.Client {
	var opts []webhook.Option

	if a.config.Delivery.Retry.Enabled {
		policy := retry.DefaultPolicy()
		if r := a.config.Delivery.Retry; r.MaxAttempts > 0 {
			policy.MaxAttempts = r.MaxAttempts
		}
		if r := a.config.Delivery.Retry; r.InitialInterval > 0 {
			policy.InitialInterval = r.InitialInterval
		}
		if r := a.config.Delivery.Retry; r.MaxInterval > 0 {
			policy.MaxInterval = r.MaxInterval
		}
		if r := a.config.Delivery.Retry; r.Multiplier > 0 {
			policy.Multiplier = r.Multiplier
		}
		if r := a.config.Delivery.Retry; r.MaxElapsedTime > 0 {
			policy.MaxElapsedTime = r.MaxElapsedTime
		}
		opts = append(opts, webhook.WithRetryPolicy(policy, func(attempt int, err error, nextDelay time.Duration) {
			a.logger.Warnw("webhook send failed, retrying",
				"attempt", attempt,
				"next_delay", nextDelay,
				"error", err,
			)
		}))
	}

	if a.config.CircuitBreaker.Enabled {
		cbCfg := circuitbreaker.DefaultConfig("slack-webhook")
		if a.config.CircuitBreaker.MaxRequests > 0 {
			cbCfg.MaxRequests = a.config.CircuitBreaker.MaxRequests
		}
		if a.config.CircuitBreaker.IntervalSeconds > 0 {
			cbCfg.Interval = a.config.CircuitBreaker.IntervalSeconds * time.Second
		}
		if a.config.CircuitBreaker.TimeoutSeconds > 0 {
			cbCfg.Timeout = a.config.CircuitBreaker.TimeoutSeconds * time.Second
		}
		opts = append(opts, webhook.WithCircuitBreaker(circuitbreaker.NewWrapper(cbCfg)))
	}

	return webhook.NewClient(opts...)
}

func (a *App) initDebugServer() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RecoveryMiddleware(a.logger))

	registry := health.NewCheckerRegistry()
	registry.Register(health.NewWorkerChecker(a.handle))

	router.GET("/health", func(c *gin.Context) {
		h := registry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
		Handler: router,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.logger.Infow("Debug server starting", "port", a.config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("debug server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.emitDemoTraffic(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.shutdown()
		return nil
	})

	return g.Wait()
}

// emitDemoTraffic produces sample events until the context is canceled.
// Targets under "app" match the example subtractive filter; the "noisy"
// logger exists to demonstrate filtering.
func (a *App) emitDemoTraffic(ctx context.Context) error {
	dbLog := a.appLogger.Named("app").Named("db").
		With(zap.String("span", "demo-run"), zap.String("request_id", uuid.New().String()))
	noisyLog := a.appLogger.Named("noisy").Named("poller")

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		i++
		noisyLog.Debug("poll tick", zap.Int("iteration", i))
		dbLog.Info("connection established", zap.Int("retries", 3), zap.String("password", "hunter2"))
		if i%4 == 0 {
			dbLog.Error("connection lost", zap.Int("retries", 3))
		}
	}
}

func (a *App) shutdown() {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Errorw("Debug server shutdown error", "error", err)
		}
	}

	if err := a.handle.Shutdown(); err != nil && !errors.Is(err, worker.ErrAlreadyStopped) {
		a.logger.Errorw("Worker shutdown error", "error", err)
	}
	select {
	case <-a.handle.Done():
	case <-time.After(constants.ShutdownTimeout):
		a.logger.Warnw("Delivery worker did not stop in time")
	}
}

func newConsoleCore(level string) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		parseLevel(level),
	)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
