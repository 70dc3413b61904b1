package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/ports"
	"AINewsScanner/internal/retry"
)

// Fetcher polls one X (Twitter) account's timeline through the v2 API.
// A stored cursor (since_id) keeps each poll incremental; the cursor itself
// is advanced by the pipeline after publish attempts, not here.
type Fetcher struct {
	userID      string
	username    string
	bearerToken string
	apiEndpoint string
	repository  ports.Repository
	classifier  ports.Classifier
	http        *http.Client
	logger      *slog.Logger
}

var _ ports.SocialFeed = (*Fetcher)(nil)

// NewFetcher wires the timeline poller. apiEndpoint must contain one %s
// placeholder for the user id.
func NewFetcher(userID, username, bearerToken, apiEndpoint string, repo ports.Repository, classifier ports.Classifier, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		userID:      userID,
		username:    username,
		bearerToken: bearerToken,
		apiEndpoint: apiEndpoint,
		repository:  repo,
		classifier:  classifier,
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

type timelineResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"users"`
		Media []struct {
			MediaKey        string `json:"media_key"`
			Type            string `json:"type"`
			URL             string `json:"url"`
			PreviewImageURL string `json:"preview_image_url"`
		} `json:"media"`
		Tweets []tweet `json:"tweets"`
	} `json:"includes"`
}

type tweet struct {
	ID          string `json:"id"`
	AuthorID    string `json:"author_id"`
	Text        string `json:"text"`
	Attachments struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// FetchNewPosts returns classified posts newer than the stored cursor,
// oldest first. API-side rejections (rate limit, auth, permissions) yield an
// empty list rather than an error so the cycle keeps going; only transport
// failures are retried.
func (f *Fetcher) FetchNewPosts(ctx context.Context, maxResults int) ([]domain.SocialPost, error) {
	sinceID, err := f.repository.GetCursor(ctx, f.userID)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}

	endpoint := fmt.Sprintf(f.apiEndpoint, f.userID)

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", "author_id,created_at,text,entities,public_metrics,referenced_tweets")
	params.Set("expansions", "author_id,attachments.media_keys,referenced_tweets.id")
	params.Set("user.fields", "name,username")
	params.Set("media.fields", "url,preview_image_url,type")
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	var timeline timelineResponse
	fetched := true

	err = retry.Do(ctx, retry.Config{MaxAttempts: 3, Delay: 5 * time.Second}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+f.bearerToken)

		resp, err := f.http.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			reset := resp.Header.Get("x-rate-limit-reset")
			f.error("timeline rate limit exceeded", "reset", reset)
			fetched = false
			return nil
		case resp.StatusCode == http.StatusUnauthorized:
			f.error("timeline request unauthorized, check bearer token")
			fetched = false
			return nil
		case resp.StatusCode == http.StatusForbidden:
			f.error("timeline request forbidden, check API permissions")
			fetched = false
			return nil
		case resp.StatusCode >= 400:
			f.error("timeline API error", "status", resp.Status)
			fetched = false
			return nil
		}

		if err := json.NewDecoder(resp.Body).Decode(&timeline); err != nil {
			return fmt.Errorf("decode timeline: %w", err)
		}
		return nil
	})
	if err != nil {
		f.error("timeline fetch failed", "error", err)
		return nil, nil
	}
	if !fetched || len(timeline.Data) == 0 {
		f.info("no new posts")
		return nil, nil
	}

	posts := f.assemble(ctx, timeline)

	sort.Slice(posts, func(i, j int) bool {
		return numericLess(posts[i].ID, posts[j].ID)
	})

	f.info("fetched new posts", "count", len(posts))
	return posts, nil
}

// assemble joins each tweet with its expanded author, media and referenced
// tweets, reconstructs truncated retweets and classifies the final text.
func (f *Fetcher) assemble(ctx context.Context, timeline timelineResponse) []domain.SocialPost {
	users := map[string]struct{ name, username string }{}
	for _, u := range timeline.Includes.Users {
		users[u.ID] = struct{ name, username string }{u.Name, u.Username}
	}

	media := map[string]struct{ kind, url, preview string }{}
	for _, m := range timeline.Includes.Media {
		media[m.MediaKey] = struct{ kind, url, preview string }{m.Type, m.URL, m.PreviewImageURL}
	}

	referenced := map[string]tweet{}
	for _, t := range timeline.Includes.Tweets {
		referenced[t.ID] = t
	}

	var posts []domain.SocialPost
	for _, t := range timeline.Data {
		author := users[t.AuthorID]

		var mediaURLs []string
		for _, key := range t.Attachments.MediaKeys {
			item, ok := media[key]
			if !ok {
				f.warn("media key missing from includes", "key", key)
				continue
			}
			switch item.kind {
			case "photo":
				if item.url != "" {
					mediaURLs = append(mediaURLs, item.url)
				}
			case "video", "animated_gif":
				if item.url != "" {
					mediaURLs = append(mediaURLs, item.url)
				} else if item.preview != "" {
					mediaURLs = append(mediaURLs, item.preview)
				}
			}
		}

		text := reconstructRetweet(t, referenced)

		var label string
		if f.classifier != nil {
			if l, _, err := f.classifier.Classify(ctx, text); err == nil {
				label = l
			}
		}

		posts = append(posts, domain.SocialPost{
			ID:             t.ID,
			AuthorUsername: author.username,
			AuthorName:     author.name,
			Text:           text,
			URL:            fmt.Sprintf("https://x.com/%s/status/%s", author.username, t.ID),
			MediaURLs:      mediaURLs,
			Classification: label,
		})
	}

	return posts
}

// reconstructRetweet splices the commenter's text with the referenced tweet
// when the API truncated a retweet. Untruncated text passes through as is.
func reconstructRetweet(t tweet, referenced map[string]tweet) string {
	text := t.Text

	for _, ref := range t.ReferencedTweets {
		if ref.Type != "retweeted" {
			continue
		}
		if !strings.HasSuffix(text, "…") && !strings.HasSuffix(text, "...") {
			break
		}

		full, ok := referenced[ref.ID]
		if !ok {
			break
		}

		const rtMarker = "RT @"
		if strings.Contains(text, rtMarker) {
			comment := strings.TrimSpace(strings.SplitN(text, rtMarker, 2)[0])
			if comment != "" {
				text = fmt.Sprintf("%s RT @%s: %s", comment, full.AuthorID, full.Text)
			} else {
				text = fmt.Sprintf("RT @%s: %s", full.AuthorID, full.Text)
			}
		} else if full.Text != "" {
			text = full.Text
		}
		break
	}

	return text
}

// numericLess compares post ids as integers so ordering is chronological.
func numericLess(a, b string) bool {
	ai, errA := strconv.ParseUint(a, 10, 64)
	bi, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return ai < bi
}

func (f *Fetcher) info(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Fetcher) error(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Error(msg, args...)
	}
}
