package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"AINewsScanner/internal/config"
	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/fetch"
	"AINewsScanner/internal/infrastructure/llm"
	"AINewsScanner/internal/infrastructure/ml"
	"AINewsScanner/internal/infrastructure/parser"
	"AINewsScanner/internal/infrastructure/scheduler"
	"AINewsScanner/internal/infrastructure/social"
	"AINewsScanner/internal/infrastructure/storage"
	"AINewsScanner/internal/infrastructure/telegram"
	"AINewsScanner/internal/logging"
	"AINewsScanner/internal/scanner"
	"AINewsScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	pipeline   *usecase.Pipeline
	scheduler  *scheduler.TickerScheduler
	repository *storage.SQLiteRepository
	publisher  *telegram.Publisher
	logger     *slog.Logger
}

// New builds a runnable application instance. The returned Application owns
// the database handle; call Close when done.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repository, err := storage.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	fetcher := fetch.NewClient(
		&http.Client{Timeout: cfg.Scrape.RequestTimeout()},
		cfg.Scrape.UserAgent,
		cfg.Scrape.MaxRetries,
		cfg.Scrape.RequestDelay(),
		logging.ForComponent(baseLogger, "fetch"),
	)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewSiteScanner(fetcher, cfg.Scrape.RequestDelay(), cfg.Scrape.MaxArticleAgeDays, logging.ForComponent(baseLogger, "scanner.site")))
	registry.Register(parser.NewFeedScanner(cfg.Scrape.MaxArticleAgeDays, logging.ForComponent(baseLogger, "scanner.feed")))

	source := parser.NewStrategySource(registry, cfg.Sources, 2*cfg.Scrape.RequestDelay(), logging.ForComponent(baseLogger, "source"))

	classifier := ml.NewClassifier(cfg.ML.InferenceURL, cfg.ML.APIKey, logging.ForComponent(baseLogger, "classifier"))
	summarizer := llm.NewSummarizer(cfg.LLM.Endpoint, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.SystemPrompt, logging.ForComponent(baseLogger, "summarizer"))
	publisher := telegram.NewPublisher(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID, logging.ForComponent(baseLogger, "telegram"))

	feed := social.NewFetcher(
		cfg.Social.UserID,
		cfg.Social.Username,
		cfg.Social.BearerToken,
		cfg.Social.APIEndpoint,
		repository,
		classifier,
		logging.ForComponent(baseLogger, "social"),
	)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Social:         feed,
		Repository:     repository,
		Classifier:     classifier,
		Summarizer:     summarizer,
		Publisher:      publisher,
		Logger:         logging.ForComponent(baseLogger, "pipeline"),
		PerSourceLimit: cfg.Scrape.PerSourceLimit,
		SocialAccount:  cfg.Social.UserID,
		MaxSocialPosts: cfg.Social.MaxResults,
	})

	return &Application{
		cfg:        cfg,
		pipeline:   pipeline,
		scheduler:  scheduler.NewTickerScheduler(cfg.Scheduler.Interval()),
		repository: repository,
		publisher:  publisher,
		logger:     baseLogger,
	}, nil
}

// RunOnce executes a single scraping cycle.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.pipeline.RunCycle(ctx)
}

// RunSocial executes a single social cycle.
func (a *Application) RunSocial(ctx context.Context) error {
	return a.pipeline.RunSocialCycle(ctx)
}

// RunScheduled runs both cycles on the configured cadence until the context
// is cancelled.
func (a *Application) RunScheduled(ctx context.Context) error {
	err := a.scheduler.Start(ctx, func() {
		if err := a.pipeline.RunCycle(ctx); err != nil {
			a.logger.Error("scraping cycle failed", "error", err)
		}
		if err := a.pipeline.RunSocialCycle(ctx); err != nil {
			a.logger.Error("social cycle failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// Status prints database statistics, the most recent published articles and
// channel connectivity.
func (a *Application) Status(ctx context.Context) error {
	total, err := a.repository.ProcessedCount(ctx)
	if err != nil {
		return fmt.Errorf("processed count: %w", err)
	}

	recent, err := a.repository.RecentArticles(ctx, 5)
	if err != nil {
		return fmt.Errorf("recent articles: %w", err)
	}

	fmt.Printf("Total articles processed: %d\n", total)
	for i, rec := range recent {
		title := domain.Truncate(rec.Title, 60)
		if len(title) < len(rec.Title) {
			title += "..."
		}
		fmt.Printf("%d. %s (%s)\n", i+1, title, rec.Source)
	}

	if a.publisher.TestConnection(ctx) {
		fmt.Println("Telegram: connected")
	} else {
		fmt.Println("Telegram: connection failed")
	}
	return nil
}

// ResetCursor clears the stored social cursor so the next poll refetches the
// newest timeline page.
func (a *Application) ResetCursor(ctx context.Context) error {
	return a.repository.ClearCursor(ctx, a.cfg.Social.UserID)
}

// Close releases owned resources.
func (a *Application) Close() error {
	return a.repository.Close()
}
