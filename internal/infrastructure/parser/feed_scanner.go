package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"AINewsScanner/internal/dates"
	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/scanner"
)

// FeedScanner handles sources that expose an RSS/Atom listing instead of a
// scrapeable index page. Feed entries already carry title, description and
// publication date, so no per-article fetch is needed.
type FeedScanner struct {
	parser     *gofeed.Parser
	maxAgeDays int
	logger     *slog.Logger
}

// NewFeedScanner builds the gofeed-backed strategy.
func NewFeedScanner(maxAgeDays int, logger *slog.Logger) *FeedScanner {
	return &FeedScanner{
		parser:     gofeed.NewParser(),
		maxAgeDays: maxAgeDays,
		logger:     logger,
	}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan parses the profile's feed URL and maps recent entries onto articles,
// keeping feed order and honoring the per-source limit.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	profile := req.Profile
	feedURL := profile.FeedURL
	if feedURL == "" {
		feedURL = profile.URL
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", profile.Name, err)
	}

	var articles []domain.Article
	for _, item := range feed.Items {
		if req.Limit > 0 && len(articles) >= req.Limit {
			break
		}
		if item.Link == "" || item.Title == "" {
			continue
		}
		if !validArticleURL(profile, item.Link) {
			continue
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content == "" {
			continue
		}

		var publishedAt time.Time
		hasDate := false
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
			hasDate = true
		} else if t, ok := dates.ParseText(item.Published); ok {
			publishedAt = t
			hasDate = true
		}

		if !dates.IsRecent(publishedAt, hasDate, f.maxAgeDays) {
			continue
		}

		articles = append(articles, domain.Article{
			URL:         item.Link,
			Title:       item.Title,
			Content:     content,
			Source:      profile.Name,
			SourceKey:   profile.Key,
			PublishedAt: publishedAt,
			HasDate:     hasDate,
		})
	}

	if f.logger != nil {
		f.logger.Info("feed scan complete", "source", profile.Name, "items", len(feed.Items), "kept", len(articles))
	}

	return articles, nil
}
