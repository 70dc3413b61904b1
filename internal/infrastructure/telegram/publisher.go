package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/ports"
	"AINewsScanner/internal/retry"
)

const (
	apiBase = "https://api.telegram.org"

	// Telegram limits: 4096 chars per message, ~1024 per media caption.
	maxContentLen = 3000
	maxCaptionLen = 1000
)

var photoHints = []string{".jpg", ".jpeg", ".png", ".gif", "format=jpg", "format=png"}
var videoHints = []string{".mp4", ".mov", ".avi", "format=mp4"}

// Publisher streams formatted articles and posts to a Telegram channel via
// the Bot API.
type Publisher struct {
	botToken   string
	chatID     string
	apiBase    string
	client     *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers bot token and chat identifier.
func NewPublisher(botToken, chatID string, logger *slog.Logger) *Publisher {
	return &Publisher{
		botToken:   botToken,
		chatID:     chatID,
		apiBase:    apiBase,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// SendArticle posts one formatted article. The classification label is
// prefixed as the message header.
func (p *Publisher) SendArticle(ctx context.Context, article domain.Article) bool {
	content := domain.Truncate(article.Content, maxContentLen)
	if len(content) < len(article.Content) {
		content += "...\n\n[Content truncated due to length]"
	}

	message := fmt.Sprintf("*%s*\n\n%s\n\nSource: %s | [Read Full Article](%s)",
		article.Title, content, article.Source, article.URL)
	if article.Classification != "" {
		message = article.Classification + "\n\n" + message
	}

	err := p.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  p.chatID,
		"text":                     message,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	})
	if err != nil {
		p.error("send article failed", "title", article.Title, "error", err)
		return false
	}
	return true
}

// SendPost publishes a social post, preferring its first media attachment.
// Media type is picked from extension/format hints; an unknown type is tried
// as a photo first, and any media failure falls back to text with the media
// link appended.
func (p *Publisher) SendPost(ctx context.Context, post domain.SocialPost) bool {
	caption := fmt.Sprintf("%s\n\n%s\n\n---\n\nАвтор: **%s** ( @%s )\n\n[🔗 Оригинал в X](%s)",
		post.Classification, escapeMarkdown(post.Text), post.AuthorName, post.AuthorUsername, post.URL)

	if len(post.MediaURLs) == 0 {
		return p.sendCaptionAsText(ctx, caption, "")
	}

	mediaURL := post.MediaURLs[0]
	trimmed := domain.Truncate(caption, maxCaptionLen)

	switch {
	case matchesAny(mediaURL, photoHints):
		if p.sendMedia(ctx, "sendPhoto", "photo", mediaURL, trimmed) {
			return true
		}
	case matchesAny(mediaURL, videoHints):
		if p.sendMedia(ctx, "sendVideo", "video", mediaURL, trimmed) {
			return true
		}
	default:
		p.info("unknown media type, trying as photo", "url", mediaURL)
		if p.sendMedia(ctx, "sendPhoto", "photo", mediaURL, trimmed) {
			return true
		}
	}

	return p.sendCaptionAsText(ctx, caption, mediaURL)
}

// SendStatus posts an operational status message to the channel.
func (p *Publisher) SendStatus(ctx context.Context, message string) bool {
	err := p.call(ctx, "sendMessage", map[string]any{
		"chat_id":    p.chatID,
		"text":       message,
		"parse_mode": "Markdown",
	})
	if err != nil {
		p.error("send status failed", "error", err)
		return false
	}
	return true
}

// TestConnection checks bot reachability via getMe before a cycle starts.
func (p *Publisher) TestConnection(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/bot%s/getMe", p.apiBase, p.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.error("telegram connection test failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.error("telegram connection test failed", "status", resp.Status)
		return false
	}
	return true
}

func (p *Publisher) sendMedia(ctx context.Context, method, field, mediaURL, caption string) bool {
	err := p.call(ctx, method, map[string]any{
		"chat_id":    p.chatID,
		field:        mediaURL,
		"caption":    caption,
		"parse_mode": "Markdown",
	})
	if err != nil {
		p.warn("media send failed, falling back", "method", method, "url", mediaURL, "error", err)
		return false
	}
	return true
}

func (p *Publisher) sendCaptionAsText(ctx context.Context, caption, mediaURL string) bool {
	text := caption
	if mediaURL != "" {
		text = caption + "\n\n📎 Media: " + mediaURL
	}

	err := p.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  p.chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	})
	if err != nil {
		p.error("send post as text failed", "error", err)
		return false
	}
	return true
}

// call posts one Bot API method with retry and exponential backoff.
func (p *Publisher) call(ctx context.Context, method string, payload map[string]any) error {
	if p.botToken == "" || p.chatID == "" {
		return fmt.Errorf("telegram publisher misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", p.apiBase, p.botToken, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return retry.Do(ctx, retry.Config{MaxAttempts: 3, Delay: p.retryDelay, Linear: true}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram API error: %s", resp.Status)
		}
		return nil
	})
}

func matchesAny(mediaURL string, hints []string) bool {
	lower := strings.ToLower(mediaURL)
	for _, hint := range hints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// escapeMarkdown escapes Telegram Markdown special characters so raw post
// text cannot break message parsing.
func escapeMarkdown(text string) string {
	special := []string{"*", "_", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	for _, char := range special {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Publisher) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
