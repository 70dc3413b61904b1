package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/metrics"
	"AINewsScanner/internal/ports"
)

// Default delay between consecutive sends, courtesy to the outbound channel.
const defaultSendDelay = time.Second

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source         ports.ArticleSource
	Social         ports.SocialFeed
	Repository     ports.Repository
	Classifier     ports.Classifier
	Summarizer     ports.Summarizer
	Publisher      ports.Publisher
	Logger         *slog.Logger
	PerSourceLimit int
	SocialAccount  string
	MaxSocialPosts int
	SendDelay      time.Duration
}

// Pipeline implements the discover-classify-summarize-publish workflow for
// articles and the parallel social path.
type Pipeline struct {
	source         ports.ArticleSource
	social         ports.SocialFeed
	repository     ports.Repository
	classifier     ports.Classifier
	summarizer     ports.Summarizer
	publisher      ports.Publisher
	logger         *slog.Logger
	perSourceLimit int
	socialAccount  string
	maxSocialPosts int
	sendDelay      time.Duration
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	sendDelay := deps.SendDelay
	if sendDelay == 0 {
		sendDelay = defaultSendDelay
	}
	return &Pipeline{
		source:         deps.Source,
		social:         deps.Social,
		repository:     deps.Repository,
		classifier:     deps.Classifier,
		summarizer:     deps.Summarizer,
		publisher:      deps.Publisher,
		logger:         deps.Logger,
		perSourceLimit: deps.PerSourceLimit,
		socialAccount:  deps.SocialAccount,
		maxSocialPosts: deps.MaxSocialPosts,
		sendDelay:      sendDelay,
	}
}

// RunCycle executes one full scrape-and-publish cycle, then reports cycle
// statistics to the channel. An unreachable channel aborts before scraping.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	start := time.Now()
	p.info("starting scraping cycle")

	if !p.publisher.TestConnection(ctx) {
		metrics.Global.SetError("telegram connection failed")
		return fmt.Errorf("telegram connection failed")
	}

	articles, err := p.source.FetchAll(ctx, p.perSourceLimit)
	if err != nil && len(articles) == 0 {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("fetch articles: %w", err)
	}
	metrics.Global.AddArticlesFound(len(articles))

	if len(articles) == 0 {
		p.warn("no articles found from any source")
		metrics.Global.RecordCycle(time.Since(start))
		return nil
	}

	published, err := p.ProcessArticles(ctx, articles)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	duration := time.Since(start)
	metrics.Global.RecordCycle(duration)

	total, countErr := p.repository.ProcessedCount(ctx)
	if countErr != nil {
		p.warn("cannot read processed count", "error", countErr)
	}

	status := fmt.Sprintf(
		"✅ *Scraping Cycle Complete*\n\n📊 *Statistics:*\n• Articles found: %d\n• Articles published: %d\n• Duration: %.1f seconds\n• Total processed: %d",
		len(articles), published, duration.Seconds(), total)
	p.publisher.SendStatus(ctx, status)

	p.info("cycle complete", "found", len(articles), "published", published, "duration", duration)
	return nil
}

// ProcessArticles runs each candidate through the dedupe gate, classification
// and conditional summarization, then publishes. The dedupe record is written
// only after a successful send so failures retry next cycle.
func (p *Pipeline) ProcessArticles(ctx context.Context, articles []domain.Article) (int, error) {
	published := 0

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		seen, err := p.repository.IsProcessed(ctx, article.URL)
		if err != nil {
			return published, fmt.Errorf("dedupe check for %s: %w", article.URL, err)
		}
		if seen {
			p.info("skipping already processed article", "title", article.Title, "status", domain.StatusSkippedDuplicate)
			metrics.Global.IncrementDuplicates()
			continue
		}

		label, confidence, err := p.classifier.Classify(ctx, classificationText(article))
		if err != nil {
			p.warn("classification failed", "title", article.Title, "error", err)
		} else {
			article.Classification = label
			p.info("article classified", "label", label, "confidence", confidence)
		}

		if p.summarizer.ShouldSummarize(article.Source) {
			summary, err := p.summarizer.Summarize(ctx, article.Title, article.Content)
			if err != nil {
				p.warn("summarization failed, publishing original", "title", article.Title, "error", err)
			} else {
				article.Content = summary
			}
		}

		if p.publisher.SendArticle(ctx, article) {
			err := p.repository.MarkProcessed(ctx, domain.ProcessedArticle{
				URL:    article.URL,
				Title:  article.Title,
				Source: article.Source,
			})
			if err != nil {
				return published, fmt.Errorf("mark processed %s: %w", article.URL, err)
			}
			published++
			metrics.Global.IncrementPublished()
			p.info("published article", "title", article.Title, "status", domain.StatusPublished)
		} else {
			metrics.Global.IncrementPublishFailures()
			p.error("failed to publish article", "title", article.Title, "status", domain.StatusPublishFailed)
		}

		p.pause(ctx)
	}

	return published, nil
}

// RunSocialCycle polls the timeline and publishes new posts. The cursor
// advances after every send attempt, success or not, so a flaky channel can
// never replay the same post.
func (p *Pipeline) RunSocialCycle(ctx context.Context) error {
	if p.social == nil {
		return nil
	}

	posts, err := p.social.FetchNewPosts(ctx, p.maxSocialPosts)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("fetch posts: %w", err)
	}
	metrics.Global.AddPostsFetched(len(posts))

	if len(posts) == 0 {
		p.info("no new posts to publish")
		return nil
	}

	sent := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.publisher.SendPost(ctx, post) {
			sent++
			metrics.Global.IncrementPostsSent()
			p.info("sent post", "id", post.ID)
		} else {
			p.error("failed to send post", "id", post.ID)
		}

		if err := p.repository.SetCursor(ctx, p.socialAccount, post.ID); err != nil {
			return fmt.Errorf("advance cursor: %w", err)
		}

		p.pause(ctx)
	}

	p.info("social cycle complete", "sent", sent, "total", len(posts))
	return nil
}

// classificationText is the title plus the first 200 body characters.
func classificationText(article domain.Article) string {
	return article.Title + " " + domain.Truncate(article.Content, 200)
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.sendDelay < 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.sendDelay):
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
