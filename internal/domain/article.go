package domain

import "time"

// Article is a core entity extracted from a configured news site.
type Article struct {
	URL       string
	Title     string
	Content   string
	Source    string
	SourceKey string

	// PublishedAt is only meaningful when HasDate is true. An article with an
	// unresolved date must never be treated as published "now".
	PublishedAt time.Time
	HasDate     bool

	Classification string
}

// SocialPost is a single post pulled from the X timeline API. Posts are
// immutable once built; ID is numeric so the pipeline can order oldest-first.
type SocialPost struct {
	ID             string
	AuthorUsername string
	AuthorName     string
	Text           string
	URL            string
	MediaURLs      []string
	Classification string
}

// ProcessingStatus enumerates terminal pipeline states per record.
type ProcessingStatus string

const (
	StatusSkippedDuplicate  ProcessingStatus = "skipped_duplicate"
	StatusSkippedOld        ProcessingStatus = "skipped_old"
	StatusSkippedIncomplete ProcessingStatus = "skipped_incomplete"
	StatusPublished         ProcessingStatus = "published"
	StatusPublishFailed     ProcessingStatus = "publish_failed"
)

// ProcessedArticle is the dedupe record persisted for every published item.
type ProcessedArticle struct {
	URL         string
	Title       string
	Source      string
	ProcessedAt time.Time
}
