package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"LinkSentry/internal/analyzer"
	"LinkSentry/internal/api"
	"LinkSentry/internal/config"
	"LinkSentry/internal/domain"
	"LinkSentry/internal/fetcher"
	"LinkSentry/internal/infrastructure/llm"
	"LinkSentry/internal/infrastructure/render"
	"LinkSentry/internal/infrastructure/scheduler"
	"LinkSentry/internal/infrastructure/storage"
	"LinkSentry/internal/infrastructure/telegram"
	"LinkSentry/internal/logging"
	"LinkSentry/internal/ports"
	"LinkSentry/internal/reputation"
	"LinkSentry/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.SQLiteStore
	pipeline *usecase.Pipeline
	reminder *usecase.Reminder
	server   *api.Server
}

// New builds a runnable application instance. The SQLite store, reputation
// cache, fetcher, classifier, and HTTP surface are all assembled here so main
// stays a thin dispatcher.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path, logging.Component(baseLogger, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reputationStore := reputation.New(store,
		reputation.WithCapacity(cfg.Cache.Capacity),
		reputation.WithMetrics(store),
		reputation.WithLogger(logging.Component(baseLogger, "reputation")),
	)

	var renderer ports.Renderer
	if cfg.Renderer.Enabled {
		renderer = render.NewChromeRenderer(cfg.Renderer.ChromePath, cfg.Fetcher.UserAgent,
			logging.Component(baseLogger, "render"))
	}

	contentFetcher := fetcher.New(renderer,
		fetcher.WithRateLimit(cfg.Fetcher.RatePerSecond),
		fetcher.WithLogger(logging.Component(baseLogger, "fetcher")),
	)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	var classifier ports.Classifier
	if c := llm.NewClassifier(cfg.Classifier); c != nil {
		classifier = c
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Reputation: reputationStore,
		Fetcher:    contentFetcher,
		Analyzer:   analyzer.New(),
		Classifier: classifier,
		Reviews:    store,
		Metrics:    store,
		Notifier:   notifier,
		Logger:     logging.Component(baseLogger, "pipeline"),
	})

	reminder := usecase.NewReminder(
		scheduler.NewIntervalScheduler(cfg.Review.ReminderInterval),
		store,
		notifier,
		logging.Component(baseLogger, "reminder"),
	)

	server := api.NewServer(pipeline, store, store, cfg.Server.APIKey,
		logging.Component(baseLogger, "api"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		pipeline: pipeline,
		reminder: reminder,
		server:   server,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down in order.
func (a *Application) Run(ctx context.Context) error {
	if err := a.reminder.Start(ctx); err != nil {
		return fmt.Errorf("start reminder: %w", err)
	}
	defer a.reminder.Stop(context.Background())
	defer a.store.Close()

	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: a.server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// CheckOnce runs a single trust decision and releases resources. Used by the
// one-shot CLI mode.
func (a *Application) CheckOnce(ctx context.Context, rawURL string) domain.CheckResult {
	defer a.store.Close()
	return a.pipeline.CheckURL(ctx, rawURL)
}

// ReviewLog exposes the persistent review queue for export tooling.
func (a *Application) ReviewLog() ports.ReviewLog {
	return a.store
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.store.Close()
}
