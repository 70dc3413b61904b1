package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsScanner/internal/config"
	"AINewsScanner/internal/fetch"
	"AINewsScanner/internal/scanner"
)

func testProfile(baseURL string) config.SourceProfile {
	return config.SourceProfile{
		Key:             "testsource",
		Name:            "Test Source",
		Scanner:         "site",
		URL:             baseURL + "/news/",
		BaseURL:         baseURL,
		LinkSelector:    "a[href*='/news/']",
		TitleSelector:   "h1",
		ContentSelector: ".content p",
		DateSelector:    "time",
		Allow:           []string{"/news/"},
	}
}

func TestExtractLinksDedupesAndResolves(t *testing.T) {
	t.Parallel()

	profile := testProfile("https://example.com")
	listing := `
	<html><body>
	  <a href="/news/first-story/">First</a>
	  <a href="/news/first-story/">First again</a>
	  <a href="https://example.com/news/second-story/">Second</a>
	  <a href="/about/">About</a>
	  <a href="">Empty</a>
	</body></html>`

	links := extractLinks(profile, listing, nil)

	want := []string{
		"https://example.com/news/first-story/",
		"https://example.com/news/second-story/",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i, link := range links {
		if link != want[i] {
			t.Fatalf("link %d = %q, want %q", i, link, want[i])
		}
	}
}

func TestValidArticleURL(t *testing.T) {
	t.Parallel()

	profile := config.SourceProfile{
		Require: []string{"/tech/", "/article/"},
	}

	if !validArticleURL(profile, "https://example.com/tech/article/123/story") {
		t.Fatal("url with all required substrings should be valid")
	}
	if validArticleURL(profile, "https://example.com/tech/123/story") {
		t.Fatal("url missing a required substring should be invalid")
	}
	if validArticleURL(profile, "/tech/article/relative") {
		t.Fatal("relative url should be invalid")
	}

	allowed := config.SourceProfile{Allow: []string{"/ai/", "/ml/"}}
	if !validArticleURL(allowed, "https://example.com/ml/story") {
		t.Fatal("url matching one allow substring should be valid")
	}
	if validArticleURL(allowed, "https://example.com/sports/story") {
		t.Fatal("url matching no allow substring should be invalid")
	}
}

func TestExtractArticleFiltersShortFragments(t *testing.T) {
	t.Parallel()

	profile := testProfile("https://example.com")
	long := strings.Repeat("long paragraph text ", 5)
	html := fmt.Sprintf(`
	<html><body>
	  <h1>  Headline  </h1>
	  <div class="content">
	    <p>Ad</p>
	    <p>%s</p>
	    <p>Subscribe now</p>
	    <p>%s</p>
	  </div>
	</body></html>`, long, long)

	article, ok := extractArticle(profile, html, "https://example.com/news/x/")
	if !ok {
		t.Fatal("extraction failed")
	}
	if article.Title != "Headline" {
		t.Fatalf("unexpected title: %q", article.Title)
	}

	paragraphs := strings.Split(article.Content, "\n\n")
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs after filtering, got %d", len(paragraphs))
	}
	for _, p := range paragraphs {
		if len(p) <= minFragmentLen {
			t.Fatalf("short fragment survived: %q", p)
		}
	}
}

func TestExtractArticleRequiresTitleAndContent(t *testing.T) {
	t.Parallel()

	profile := testProfile("https://example.com")
	long := strings.Repeat("body text here ", 10)

	if _, ok := extractArticle(profile, fmt.Sprintf(`<div class="content"><p>%s</p></div>`, long), "u"); ok {
		t.Fatal("article without title should fail")
	}
	if _, ok := extractArticle(profile, `<h1>Title</h1><div class="content"><p>tiny</p></div>`, "u"); ok {
		t.Fatal("article without substantial content should fail")
	}
}

func TestExtractDateFallbacks(t *testing.T) {
	t.Parallel()

	profile := testProfile("https://example.com")

	// datetime attribute wins.
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(
		`<time datetime="2025-06-15T10:00:00">yesterday</time>`))
	got, ok := extractDate(profile, doc, "https://example.com/news/x/", "t", "c")
	if !ok || got.Format("2006-01-02") != "2025-06-15" {
		t.Fatalf("datetime attr not used: %v (%v)", got, ok)
	}

	// No selector match falls back to the URL.
	doc, _ = goquery.NewDocumentFromReader(strings.NewReader(`<p>no time tag</p>`))
	got, ok = extractDate(profile, doc, "https://example.com/2025/06/14/story/", "t", "c")
	if !ok || got.Format("2006-01-02") != "2025-06-14" {
		t.Fatalf("url fallback not used: %v (%v)", got, ok)
	}

	// Then the body text.
	got, ok = extractDate(profile, doc, "https://example.com/news/x/", "t", "Published June 13, 2025 in print")
	if !ok || got.Format("2006-01-02") != "2025-06-13" {
		t.Fatalf("body fallback not used: %v (%v)", got, ok)
	}

	// Nothing resolvable stays unknown.
	if _, ok = extractDate(profile, doc, "https://example.com/news/x/", "t", "no dates"); ok {
		t.Fatal("expected unresolved date")
	}
}

func TestSiteScannerScan(t *testing.T) {
	t.Parallel()

	recent := time.Now().Add(-48 * time.Hour).Format("2006-01-02")
	long := strings.Repeat("substantial article body text ", 5)

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news/":
			fmt.Fprintf(w, `<html><body>
			  <a href="/news/fresh/">Fresh</a>
			  <a href="/news/stale/">Stale</a>
			  <a href="/news/broken/">Broken</a>
			</body></html>`)
		case "/news/fresh/":
			fmt.Fprintf(w, `<h1>Fresh Story</h1><time datetime="%s"></time><div class="content"><p>%s</p></div>`, recent, long)
		case "/news/stale/":
			fmt.Fprintf(w, `<h1>Stale Story</h1><time datetime="2020-01-01"></time><div class="content"><p>%s</p></div>`, long)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	fetcher := fetch.NewClient(server.Client(), "", 1, 0, nil)
	sc := NewSiteScanner(fetcher, 0, 14, nil)

	articles, err := sc.Scan(context.Background(), scanner.Request{
		Profile: testProfile(server.URL),
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "Fresh Story" {
		t.Fatalf("unexpected title: %q", articles[0].Title)
	}
	if !articles[0].HasDate {
		t.Fatal("expected resolved date")
	}
	if articles[0].Source != "Test Source" || articles[0].SourceKey != "testsource" {
		t.Fatalf("unexpected source fields: %q %q", articles[0].Source, articles[0].SourceKey)
	}
}

func TestSiteScannerHonorsLimit(t *testing.T) {
	t.Parallel()

	recent := time.Now().Add(-24 * time.Hour).Format("2006-01-02")
	long := strings.Repeat("body text for limit test ", 5)

	mux := http.NewServeMux()
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/news/" {
			for i := 0; i < 5; i++ {
				fmt.Fprintf(w, `<a href="/news/story-%d/">s</a>`, i)
			}
			return
		}
		fmt.Fprintf(w, `<h1>Story</h1><time datetime="%s"></time><div class="content"><p>%s</p></div>`, recent, long)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := fetch.NewClient(server.Client(), "", 1, 0, nil)
	sc := NewSiteScanner(fetcher, 0, 14, nil)

	articles, err := sc.Scan(context.Background(), scanner.Request{
		Profile: testProfile(server.URL),
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
}
