package usecase

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"AINewsScanner/internal/domain"
)

type fakeSource struct {
	articles []domain.Article
}

func (f *fakeSource) FetchAll(ctx context.Context, perSourceLimit int) ([]domain.Article, error) {
	return f.articles, nil
}

type fakeSocial struct {
	posts []domain.SocialPost
}

func (f *fakeSocial) FetchNewPosts(ctx context.Context, maxResults int) ([]domain.SocialPost, error) {
	return f.posts, nil
}

type fakeRepo struct {
	processed map[string]bool
	marked    []string
	cursors   []string
}

func newFakeRepo(seen ...string) *fakeRepo {
	processed := map[string]bool{}
	for _, url := range seen {
		processed[url] = true
	}
	return &fakeRepo{processed: processed}
}

func (f *fakeRepo) IsProcessed(ctx context.Context, url string) (bool, error) {
	return f.processed[url], nil
}

func (f *fakeRepo) MarkProcessed(ctx context.Context, a domain.ProcessedArticle) error {
	f.processed[a.URL] = true
	f.marked = append(f.marked, a.URL)
	return nil
}

func (f *fakeRepo) ProcessedCount(ctx context.Context) (int, error) {
	return len(f.processed), nil
}

func (f *fakeRepo) GetCursor(ctx context.Context, accountID string) (string, error) {
	if len(f.cursors) == 0 {
		return "", nil
	}
	return f.cursors[len(f.cursors)-1], nil
}

func (f *fakeRepo) SetCursor(ctx context.Context, accountID, postID string) error {
	f.cursors = append(f.cursors, postID)
	return nil
}

type fakeClassifier struct {
	inputs []string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	f.inputs = append(f.inputs, text)
	return "📄 НОВОЕ ИССЛЕДОВАНИЕ", 0.9, nil
}

type fakeSummarizer struct {
	summarized []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	f.summarized = append(f.summarized, title)
	return "summary of " + title, nil
}

func (f *fakeSummarizer) ShouldSummarize(source string) bool {
	return !strings.Contains(strings.ToLower(source), "twitter")
}

type fakePublisher struct {
	failURLs map[string]bool
	failIDs  map[string]bool
	articles []domain.Article
	posts    []domain.SocialPost
	statuses []string
}

func (f *fakePublisher) SendArticle(ctx context.Context, a domain.Article) bool {
	if f.failURLs[a.URL] {
		return false
	}
	f.articles = append(f.articles, a)
	return true
}

func (f *fakePublisher) SendPost(ctx context.Context, p domain.SocialPost) bool {
	if f.failIDs[p.ID] {
		return false
	}
	f.posts = append(f.posts, p)
	return true
}

func (f *fakePublisher) SendStatus(ctx context.Context, message string) bool {
	f.statuses = append(f.statuses, message)
	return true
}

func (f *fakePublisher) TestConnection(ctx context.Context) bool { return true }

func newTestPipeline(source *fakeSource, social *fakeSocial, repo *fakeRepo, pub *fakePublisher) (*Pipeline, *fakeClassifier, *fakeSummarizer) {
	classifier := &fakeClassifier{}
	summarizer := &fakeSummarizer{}
	p := NewPipeline(PipelineDeps{
		Source:         source,
		Social:         social,
		Repository:     repo,
		Classifier:     classifier,
		Summarizer:     summarizer,
		Publisher:      pub,
		PerSourceLimit: 10,
		SocialAccount:  "acct-1",
		MaxSocialPosts: 30,
		SendDelay:      time.Millisecond,
	})
	return p, classifier, summarizer
}

func article(url, title string) domain.Article {
	return domain.Article{URL: url, Title: title, Content: "body of " + title, Source: "Test Source"}
}

func TestProcessArticlesSkipsDuplicates(t *testing.T) {
	repo := newFakeRepo("https://example.com/dup")
	pub := &fakePublisher{}
	p, _, _ := newTestPipeline(nil, nil, repo, pub)

	published, err := p.ProcessArticles(context.Background(), []domain.Article{
		article("https://example.com/dup", "Duplicate"),
		article("https://example.com/new", "Fresh"),
	})
	if err != nil {
		t.Fatalf("ProcessArticles error: %v", err)
	}

	if published != 1 {
		t.Fatalf("expected 1 published, got %d", published)
	}
	if len(pub.articles) != 1 || pub.articles[0].Title != "Fresh" {
		t.Fatalf("unexpected published set: %+v", pub.articles)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "https://example.com/new" {
		t.Fatalf("unexpected dedupe records: %v", repo.marked)
	}
}

func TestProcessArticlesRecordsOnlyOnSendSuccess(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{failURLs: map[string]bool{"https://example.com/flaky": true}}
	p, _, _ := newTestPipeline(nil, nil, repo, pub)

	published, err := p.ProcessArticles(context.Background(), []domain.Article{
		article("https://example.com/flaky", "Flaky"),
		article("https://example.com/solid", "Solid"),
	})
	if err != nil {
		t.Fatalf("ProcessArticles error: %v", err)
	}

	if published != 1 {
		t.Fatalf("expected 1 published, got %d", published)
	}
	if repo.processed["https://example.com/flaky"] {
		t.Fatal("failed send must not be recorded, it should retry next cycle")
	}
	if !repo.processed["https://example.com/solid"] {
		t.Fatal("successful send must be recorded")
	}
}

func TestProcessArticlesClassifiesTitlePlusLead(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	p, classifier, _ := newTestPipeline(nil, nil, repo, pub)

	long := strings.Repeat("a", 300)
	_, err := p.ProcessArticles(context.Background(), []domain.Article{
		{URL: "u", Title: "Headline", Content: long, Source: "Test Source"},
	})
	if err != nil {
		t.Fatalf("ProcessArticles error: %v", err)
	}

	if len(classifier.inputs) != 1 {
		t.Fatalf("expected 1 classification, got %d", len(classifier.inputs))
	}
	want := "Headline " + strings.Repeat("a", 200)
	if classifier.inputs[0] != want {
		t.Fatalf("classification input = %q, want title plus first 200 chars", classifier.inputs[0])
	}
	if pub.articles[0].Classification == "" {
		t.Fatal("label not attached to article")
	}
}

func TestClassificationTextTrimsOnRuneBoundary(t *testing.T) {
	t.Parallel()

	article := domain.Article{Title: "Заголовок", Content: strings.Repeat("ю", 300)}
	got := classificationText(article)

	if !utf8.ValidString(got) {
		t.Fatalf("classification input is not valid UTF-8: %q", got)
	}
	want := "Заголовок " + strings.Repeat("ю", 200)
	if got != want {
		t.Fatalf("classification input = %q, want title plus first 200 characters", got)
	}
}

func TestProcessArticlesSummarizesOnlySummarizableSources(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	p, _, summarizer := newTestPipeline(nil, nil, repo, pub)

	_, err := p.ProcessArticles(context.Background(), []domain.Article{
		{URL: "u1", Title: "News", Content: "body", Source: "Test Source"},
		{URL: "u2", Title: "Post", Content: "body", Source: "Twitter"},
	})
	if err != nil {
		t.Fatalf("ProcessArticles error: %v", err)
	}

	if len(summarizer.summarized) != 1 || summarizer.summarized[0] != "News" {
		t.Fatalf("unexpected summarized set: %v", summarizer.summarized)
	}
	if pub.articles[0].Content != "summary of News" {
		t.Fatalf("summary not applied: %q", pub.articles[0].Content)
	}
	if pub.articles[1].Content != "body" {
		t.Fatalf("social content must stay verbatim: %q", pub.articles[1].Content)
	}
}

func TestRunSocialCycleAdvancesCursorOnFailure(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{failIDs: map[string]bool{"103": true}}
	social := &fakeSocial{posts: []domain.SocialPost{
		{ID: "101", Text: "first"},
		{ID: "103", Text: "second"},
		{ID: "105", Text: "third"},
	}}
	p, _, _ := newTestPipeline(nil, social, repo, pub)

	if err := p.RunSocialCycle(context.Background()); err != nil {
		t.Fatalf("RunSocialCycle error: %v", err)
	}

	if len(pub.posts) != 2 {
		t.Fatalf("expected 2 sent posts, got %d", len(pub.posts))
	}

	// The cursor advances past every attempted post, failures included.
	want := []string{"101", "103", "105"}
	if len(repo.cursors) != len(want) {
		t.Fatalf("cursor writes = %v, want %v", repo.cursors, want)
	}
	for i, id := range want {
		if repo.cursors[i] != id {
			t.Fatalf("cursor write %d = %s, want %s", i, repo.cursors[i], id)
		}
	}
}

func TestRunCycleEndToEnd(t *testing.T) {
	repo := newFakeRepo("https://example.com/old")
	pub := &fakePublisher{}
	source := &fakeSource{articles: []domain.Article{
		article("https://example.com/old", "Old"),
		article("https://example.com/a", "Alpha"),
		article("https://example.com/b", "Beta"),
	}}
	p, _, _ := newTestPipeline(source, nil, repo, pub)

	if err := p.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle error: %v", err)
	}

	if len(pub.articles) != 2 {
		t.Fatalf("expected 2 published, got %d", len(pub.articles))
	}
	if len(pub.statuses) != 1 {
		t.Fatalf("expected 1 status message, got %d", len(pub.statuses))
	}
	status := pub.statuses[0]
	if !strings.Contains(status, "Articles found: 3") || !strings.Contains(status, "Articles published: 2") {
		t.Fatalf("status misses cycle stats: %q", status)
	}
}
