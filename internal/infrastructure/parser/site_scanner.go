package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsScanner/internal/config"
	"AINewsScanner/internal/dates"
	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/fetch"
	"AINewsScanner/internal/metrics"
	"AINewsScanner/internal/scanner"
)

// Body fragments at or below this length are boilerplate or ad copy.
const minFragmentLen = 50

// SiteScanner extracts articles from listing pages using the selectors a
// source profile declares. One instance serves every "site" source.
type SiteScanner struct {
	fetcher    *fetch.Client
	delay      time.Duration
	maxAgeDays int
	logger     *slog.Logger
}

// NewSiteScanner wires the shared fetcher; delay is the politeness pause
// between consecutive article fetches.
func NewSiteScanner(fetcher *fetch.Client, delay time.Duration, maxAgeDays int, logger *slog.Logger) *SiteScanner {
	return &SiteScanner{
		fetcher:    fetcher,
		delay:      delay,
		maxAgeDays: maxAgeDays,
		logger:     logger,
	}
}

// Name identifies the strategy inside the registry.
func (s *SiteScanner) Name() string {
	return "site"
}

// Scan fetches the listing page, walks candidate article links up to the
// per-source limit and returns every complete, recent article in discovery
// order. Individual article failures are logged and skipped.
func (s *SiteScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	profile := req.Profile

	listingHTML, err := s.fetcher.Get(ctx, profile.URL)
	if err != nil {
		return nil, fmt.Errorf("listing page for %s: %w", profile.Name, err)
	}

	links := extractLinks(profile, listingHTML, s.logger)
	s.info("extracted article links", "source", profile.Name, "count", len(links))

	if req.Limit > 0 && len(links) > req.Limit {
		links = links[:req.Limit]
	}

	var articles []domain.Article
	for _, link := range links {
		articleHTML, err := s.fetcher.Get(ctx, link)
		if err != nil {
			s.warn("skipping article after fetch failure", "url", link, "error", err)
			s.pause(ctx)
			continue
		}

		article, ok := extractArticle(profile, articleHTML, link)
		if !ok {
			s.info("skipping article with missing title or content", "url", link, "status", domain.StatusSkippedIncomplete)
			metrics.Global.IncrementIncompleteSkipped()
			s.pause(ctx)
			continue
		}

		if !dates.IsRecent(article.PublishedAt, article.HasDate, s.maxAgeDays) {
			if article.HasDate {
				s.info("skipping old article", "url", link, "published", article.PublishedAt.Format("2006-01-02"), "status", domain.StatusSkippedOld)
			} else {
				s.info("skipping article with unresolved date", "url", link, "status", domain.StatusSkippedOld)
			}
			metrics.Global.IncrementOldSkipped()
			s.pause(ctx)
			continue
		}

		articles = append(articles, article)
		s.info("extracted article", "source", profile.Name, "title", article.Title)
		s.pause(ctx)
	}

	return articles, nil
}

// extractLinks applies the profile link selector to the listing markup,
// resolves every href against the base URL, keeps only valid article URLs
// and dedupes while preserving discovery order. Parse failures yield an
// empty set, never an error.
func extractLinks(profile config.SourceProfile, listingHTML string, logger *slog.Logger) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse listing page", "source", profile.Name, "error", err)
		}
		return nil
	}

	base, err := url.Parse(profile.BaseURL)
	if err != nil {
		if logger != nil {
			logger.Error("invalid base url", "source", profile.Name, "error", err)
		}
		return nil
	}

	seen := map[string]struct{}{}
	var links []string

	doc.Find(profile.LinkSelector).Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()

		if !validArticleURL(profile, full) {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})

	return links
}

// validArticleURL is the per-source validity predicate: absolute URL, every
// Require substring present, and at least one Allow substring when the
// allow-list is non-empty.
func validArticleURL(profile config.SourceProfile, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}

	for _, required := range profile.Require {
		if !strings.Contains(rawURL, required) {
			return false
		}
	}

	if len(profile.Allow) == 0 {
		return true
	}
	for _, allowed := range profile.Allow {
		if strings.Contains(rawURL, allowed) {
			return true
		}
	}
	return false
}

// extractArticle pulls title, body and timestamp out of an article page. A
// missing title or body makes the extraction fail; the caller drops the URL.
func extractArticle(profile config.SourceProfile, articleHTML, articleURL string) (domain.Article, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(doc.Find(profile.TitleSelector).First().Text())

	var paragraphs []string
	doc.Find(profile.ContentSelector).Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > minFragmentLen {
			paragraphs = append(paragraphs, text)
		}
	})
	content := strings.Join(paragraphs, "\n\n")

	if title == "" || content == "" {
		return domain.Article{}, false
	}

	publishedAt, hasDate := extractDate(profile, doc, articleURL, title, content)

	return domain.Article{
		URL:         articleURL,
		Title:       title,
		Content:     content,
		Source:      profile.Name,
		SourceKey:   profile.Key,
		PublishedAt: publishedAt,
		HasDate:     hasDate,
	}, true
}

// extractDate tries the date selector's datetime/content attributes, then
// its text, then narrows through URL, body and title fallbacks.
func extractDate(profile config.SourceProfile, doc *goquery.Document, articleURL, title, content string) (time.Time, bool) {
	sel := doc.Find(profile.DateSelector).First()
	if sel.Length() > 0 {
		candidates := []string{}
		if v, ok := sel.Attr("datetime"); ok {
			candidates = append(candidates, v)
		}
		if v, ok := sel.Attr("content"); ok {
			candidates = append(candidates, v)
		}
		candidates = append(candidates, sel.Text())

		for _, candidate := range candidates {
			if t, ok := dates.ParseText(candidate); ok {
				return t, true
			}
		}
	}

	if t, ok := dates.Resolve("", articleURL, content); ok {
		return t, true
	}
	return dates.FromText(title)
}

func (s *SiteScanner) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.delay):
	}
}

func (s *SiteScanner) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *SiteScanner) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
