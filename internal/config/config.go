package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWS_SCANNER_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	xBearerTokenEnv   = "X_BEARER_TOKEN"
	xUserIDEnv        = "X_USER_ID"
	mlAPIKeyEnv       = "ML_API_KEY"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Scrape        ScrapeConfig       `yaml:"scrape"`
	Notifications NotificationConfig `yaml:"notifications"`
	Social        SocialConfig       `yaml:"social"`
	ML            MLConfig           `yaml:"ml"`
	LLM           LLMConfig          `yaml:"llm"`
	Sources       []SourceProfile    `yaml:"sources"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the SQLite file used for dedupe state.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines how often the cycles run.
type SchedulerConfig struct {
	IntervalHours int `yaml:"intervalHours"`
}

// Interval resolves the configured cadence, defaulting to hourly.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalHours <= 0 {
		return time.Hour
	}
	return time.Duration(s.IntervalHours) * time.Hour
}

// ScrapeConfig groups politeness and recency knobs for the scrape run.
type ScrapeConfig struct {
	RequestDelaySeconds   int    `yaml:"requestDelaySeconds"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`
	MaxRetries            int    `yaml:"maxRetries"`
	MaxArticleAgeDays     int    `yaml:"maxArticleAgeDays"`
	PerSourceLimit        int    `yaml:"perSourceLimit"`
	UserAgent             string `yaml:"userAgent"`
}

// RequestDelay is the politeness pause enforced between consecutive fetches.
func (s ScrapeConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelaySeconds) * time.Second
}

// RequestTimeout bounds a single HTTP request.
func (s ScrapeConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SocialConfig describes the X (Twitter) timeline to mirror.
type SocialConfig struct {
	BearerToken string `yaml:"bearerToken"`
	UserID      string `yaml:"userId"`
	Username    string `yaml:"username"`
	APIEndpoint string `yaml:"apiEndpoint"`
	MaxResults  int    `yaml:"maxResults"`
}

// MLConfig describes the zero-shot classification service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// LLMConfig defines the OpenAI-compatible endpoint used for summarization.
type LLMConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// SourceProfile is the declarative extraction recipe for one site. Selectors
// are CSS; Allow/Require drive the article-URL validity predicate: a URL is
// valid when it contains every Require substring and, if Allow is non-empty,
// at least one Allow substring.
type SourceProfile struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	Scanner         string   `yaml:"scanner"`
	URL             string   `yaml:"url"`
	BaseURL         string   `yaml:"baseUrl"`
	FeedURL         string   `yaml:"feedUrl"`
	LinkSelector    string   `yaml:"linkSelector"`
	TitleSelector   string   `yaml:"titleSelector"`
	ContentSelector string   `yaml:"contentSelector"`
	DateSelector    string   `yaml:"dateSelector"`
	Allow           []string `yaml:"allow"`
	Require         []string `yaml:"require"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(xBearerTokenEnv); v != "" {
		c.Social.BearerToken = v
	}
	if v := os.Getenv(xUserIDEnv); v != "" {
		c.Social.UserID = v
	}

	if v := os.Getenv(mlAPIKeyEnv); v != "" {
		c.ML.APIKey = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv("MAX_ARTICLE_AGE_DAYS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Scrape.MaxArticleAgeDays = val
		}
	}
	if v := os.Getenv("PER_SOURCE_LIMIT"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			c.Scrape.PerSourceLimit = val
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler = override.Scheduler
	}

	if override.Scrape.RequestDelaySeconds > 0 {
		base.Scrape.RequestDelaySeconds = override.Scrape.RequestDelaySeconds
	}
	if override.Scrape.RequestTimeoutSeconds > 0 {
		base.Scrape.RequestTimeoutSeconds = override.Scrape.RequestTimeoutSeconds
	}
	if override.Scrape.MaxRetries > 0 {
		base.Scrape.MaxRetries = override.Scrape.MaxRetries
	}
	if override.Scrape.MaxArticleAgeDays > 0 {
		base.Scrape.MaxArticleAgeDays = override.Scrape.MaxArticleAgeDays
	}
	if override.Scrape.PerSourceLimit > 0 {
		base.Scrape.PerSourceLimit = override.Scrape.PerSourceLimit
	}
	if override.Scrape.UserAgent != "" {
		base.Scrape.UserAgent = override.Scrape.UserAgent
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Social.BearerToken != "" {
		base.Social.BearerToken = override.Social.BearerToken
	}
	if override.Social.UserID != "" {
		base.Social.UserID = override.Social.UserID
	}
	if override.Social.Username != "" {
		base.Social.Username = override.Social.Username
	}
	if override.Social.APIEndpoint != "" {
		base.Social.APIEndpoint = override.Social.APIEndpoint
	}
	if override.Social.MaxResults > 0 {
		base.Social.MaxResults = override.Social.MaxResults
	}

	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Path: "news_articles.db"},
		Scheduler: SchedulerConfig{IntervalHours: 1},
		Scrape: ScrapeConfig{
			RequestDelaySeconds:   2,
			RequestTimeoutSeconds: 30,
			MaxRetries:            3,
			MaxArticleAgeDays:     14,
			PerSourceLimit:        10,
			UserAgent:             "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Social: SocialConfig{
			UserID:      "2244994945",
			Username:    "TwitterDev",
			APIEndpoint: "https://api.twitter.com/2/users/%s/tweets",
			MaxResults:  30,
		},
		ML: MLConfig{InferenceURL: "https://ml.example.org/infer", APIKey: ""},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You summarize AI-industry news articles in three short paragraphs.",
		},
		Sources: defaultSources(),
	}
}

func defaultSources() []SourceProfile {
	return []SourceProfile{
		{
			Key:             "venturebeat",
			Name:            "VentureBeat AI",
			Scanner:         "site",
			URL:             "https://venturebeat.com/category/ai/",
			BaseURL:         "https://venturebeat.com",
			LinkSelector:    "article a",
			TitleSelector:   "h1.entry-title, h1",
			ContentSelector: ".entry-content p, .post-content p, .article-content p",
			DateSelector:    "time, .entry-date, .post-date, .published-date",
			Allow:           []string{"/ai/", "/category/ai/", "/programming-development/"},
		},
		{
			Key:             "scmp",
			Name:            "SCMP Tech",
			Scanner:         "site",
			URL:             "https://www.scmp.com/tech",
			BaseURL:         "https://www.scmp.com",
			LinkSelector:    "a[href*='/article/']",
			TitleSelector:   "h1, .article__headline",
			ContentSelector: "article p",
			DateSelector:    "time, .published-date, .article__date, .date",
			Require:         []string{"/tech/", "/article/"},
		},
		{
			Key:             "artificialintelligence_news",
			Name:            "AI News",
			Scanner:         "site",
			URL:             "https://artificialintelligence-news.com/",
			BaseURL:         "https://artificialintelligence-news.com",
			LinkSelector:    "a[href*='/news/']",
			TitleSelector:   "h1.entry-title, h1",
			ContentSelector: ".entry-content p, .post-content p",
			DateSelector:    "time, .entry-date, .post-date, .published-date",
			Allow:           []string{"/news/"},
		},
		{
			Key:             "theverge_ai",
			Name:            "The Verge AI",
			Scanner:         "site",
			URL:             "https://www.theverge.com/ai-artificial-intelligence",
			BaseURL:         "https://www.theverge.com",
			LinkSelector:    "a[data-analytics-link='article']",
			TitleSelector:   "h1, .c-page-title",
			ContentSelector: ".c-entry-content p, .e-content p",
			DateSelector:    "time, .c-byline__item, .published-date",
			Allow:           []string{"/ai-artificial-intelligence/", "/artificial-intelligence/"},
		},
		{
			Key:             "epoch_ai_data",
			Name:            "Epoch AI - Data Insights",
			Scanner:         "site",
			URL:             "https://epoch.ai/data-insights",
			BaseURL:         "https://epoch.ai",
			LinkSelector:    "a[href*='/data-insights/']",
			TitleSelector:   "h1, .post-title, .entry-title",
			ContentSelector: ".post-content p, .entry-content p, .content p",
			DateSelector:    "time, .post-date, .published-date, .date",
			Allow:           []string{"/data-insights/"},
		},
		{
			Key:             "epoch_ai_blog",
			Name:            "Epoch AI - Blog",
			Scanner:         "site",
			URL:             "https://epoch.ai/blog",
			BaseURL:         "https://epoch.ai",
			LinkSelector:    "a[href*='/blog/']",
			TitleSelector:   "h1, .post-title, .entry-title",
			ContentSelector: ".post-content p, .entry-content p, .content p",
			DateSelector:    "time, .post-date, .published-date, .date",
			Allow:           []string{"/blog/"},
		},
		{
			Key:             "epoch_ai_gradient",
			Name:            "Epoch AI - Gradient Updates",
			Scanner:         "site",
			URL:             "https://epoch.ai/gradient-updates",
			BaseURL:         "https://epoch.ai",
			LinkSelector:    "a[href*='/gradient-updates/']",
			TitleSelector:   "h1, .post-title, .entry-title",
			ContentSelector: ".post-content p, .entry-content p, .content p",
			DateSelector:    "time, .post-date, .published-date, .date",
			Allow:           []string{"/gradient-updates/"},
		},
		{
			Key:             "metr_research",
			Name:            "METR Research",
			Scanner:         "site",
			URL:             "https://metr.org/research/",
			BaseURL:         "https://metr.org",
			LinkSelector:    "a[href*='/research/']",
			TitleSelector:   "h1, .post-title, .entry-title",
			ContentSelector: ".post-content p, .entry-content p, .content p",
			DateSelector:    "time, .post-date, .published-date, .date",
			Allow:           []string{"/research/"},
		},
		{
			Key:             "techxplore",
			Name:            "TechXplore Latest News",
			Scanner:         "site",
			URL:             "https://techxplore.com/latest-news/",
			BaseURL:         "https://techxplore.com",
			LinkSelector:    "a[href*='/news/']",
			TitleSelector:   "h1, .news-article-title",
			ContentSelector: ".news-article-content p, .article-content p",
			DateSelector:    "time, .news-date, .published-date, .date",
			Allow:           []string{"/news/"},
		},
		{
			Key:             "forbes_innovation",
			Name:            "Forbes Innovation",
			Scanner:         "site",
			URL:             "https://www.forbes.com/innovation/",
			BaseURL:         "https://www.forbes.com",
			LinkSelector:    "a[href*='/innovation/']",
			TitleSelector:   "h1, .headline",
			ContentSelector: ".article-body p, .entry-content p",
			DateSelector:    "time, .published-date, .date, .timestamp",
			Allow:           []string{"/innovation/"},
		},
		{
			Key:             "forbes_ai",
			Name:            "Forbes AI",
			Scanner:         "site",
			URL:             "https://www.forbes.com/ai/",
			BaseURL:         "https://www.forbes.com",
			LinkSelector:    "a[href*='/ai/']",
			TitleSelector:   "h1, .headline",
			ContentSelector: ".article-body p, .entry-content p",
			DateSelector:    "time, .published-date, .date, .timestamp",
			Allow:           []string{"/ai/"},
		},
		{
			Key:             "sakana_ai",
			Name:            "Sakana AI Blog",
			Scanner:         "site",
			URL:             "https://sakana.ai/blog/",
			BaseURL:         "https://sakana.ai",
			LinkSelector:    "a[href*='/blog/']",
			TitleSelector:   "h1, .post-title, .entry-title",
			ContentSelector: ".post-content p, .entry-content p, .content p",
			DateSelector:    "time, .post-date, .published-date, .date",
			Allow:           []string{"/blog/"},
		},
		{
			Key:             "interesting_engineering",
			Name:            "Interesting Engineering - Innovation",
			Scanner:         "site",
			URL:             "https://interestingengineering.com/innovation",
			BaseURL:         "https://interestingengineering.com",
			LinkSelector:    "a[href*='/innovation/']",
			TitleSelector:   "h1, .article-title",
			ContentSelector: "article p",
			DateSelector:    "time, .article-date, .published-date, .date",
			Allow:           []string{"/innovation/"},
		},
	}
}
