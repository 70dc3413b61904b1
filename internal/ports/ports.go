package ports

import (
	"context"

	"AINewsScanner/internal/domain"
)

// ArticleSource pulls fresh articles from every configured news site.
type ArticleSource interface {
	FetchAll(ctx context.Context, perSourceLimit int) ([]domain.Article, error)
}

// SocialFeed polls a social timeline and returns new posts, oldest first.
type SocialFeed interface {
	FetchNewPosts(ctx context.Context, maxResults int) ([]domain.SocialPost, error)
}

// Repository persists processed keys for deduplication plus the per-account
// social cursor. Insertion is idempotent; a duplicate insert is not an error.
type Repository interface {
	IsProcessed(ctx context.Context, url string) (bool, error)
	MarkProcessed(ctx context.Context, article domain.ProcessedArticle) error
	ProcessedCount(ctx context.Context) (int, error)
	GetCursor(ctx context.Context, accountID string) (string, error)
	SetCursor(ctx context.Context, accountID, postID string) error
}

// Classifier assigns a channel rubric to a piece of content. Confidence is
// advisory; the pipeline always accepts the returned label.
type Classifier interface {
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// Summarizer shortens an article body. Must not be called for social sources;
// the pipeline enforces that, not the summarizer.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
	ShouldSummarize(source string) bool
}

// Publisher streams formatted records to the outbound channel.
type Publisher interface {
	SendArticle(ctx context.Context, article domain.Article) bool
	SendPost(ctx context.Context, post domain.SocialPost) bool
	SendStatus(ctx context.Context, message string) bool
	TestConnection(ctx context.Context) bool
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}
