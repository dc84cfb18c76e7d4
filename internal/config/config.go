// Package config builds the single Config value a run is driven by.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrNoCategories       = errors.New("at least one category is required")
	ErrUnknownStorage     = errors.New("STORAGE_BACKEND must be 'file', 'sqlite' or 'postgres'")
	ErrUnknownSearch      = errors.New("SEARCH_PROVIDER must be 'tavily' or 'rss'")
	ErrUnknownSummarizer  = errors.New("SUMMARIZER must be 'groq', 'openai', 'gemini', 'ollama' or 'none'")
	ErrDuplicateCategory  = errors.New("category names must be unique")
	ErrMissingRecipients  = errors.New("RECIPIENT_EMAIL is required when SEND_EMAIL=true")
	ErrMissingCredentials = errors.New("missing credentials")
)

type Config struct {
	// Search settings
	SearchProvider    string // "tavily" or "rss"
	TavilyAPIKey      string
	SearchTimeout     time.Duration
	SearchFallbackRSS bool

	// Summarizer settings
	Summarizer         string // groq | openai | gemini | ollama | none
	GroqAPIKey         string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	SummaryModel       string
	GeminiAPIKey       string
	OllamaHost         string
	SummaryTimeout     time.Duration
	MaxSummaryRequests int // 0 = unlimited
	SummaryCacheTTL    time.Duration

	// Storage settings
	StorageBackend   string // file | sqlite | postgres
	DatabaseURL      string
	SQLitePath       string
	StoreFilePath    string
	SkipSentArticles bool

	// Enrichment
	EnrichBelowWords  int
	ScrapeConcurrency int

	// Email settings
	SendEmail       bool
	EmailTestMode   bool
	ResendAPIKey    string
	SenderEmail     string
	Recipients      []string
	EmailBatchSize  int
	EmailBatchDelay time.Duration

	// Telegram settings
	TelegramToken  string
	TelegramChatID string

	// Newsletter presentation
	NewsletterTitle string
	FeedbackURL     string
	OutputDir       string
	LogoPath        string

	// App settings
	Debug            bool
	EnableMonitoring bool
	MonitoringPort   string
	RetryAttempts    int
	RetryDelay       time.Duration

	CurationPath string
	Curation     Curation
}

// Load reads .env (if present), the environment and the curation file.
func Load() (*Config, error) {
	envPath := getEnvOrDefault("ENV_PATH", ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("Skipping .env", "path", envPath, "error", err)
	}

	cfg := &Config{
		SearchProvider:    strings.ToLower(getEnvOrDefault("SEARCH_PROVIDER", "tavily")),
		TavilyAPIKey:      os.Getenv("TAVILY_API_KEY"),
		SearchTimeout:     getEnvDurationOrDefault("SEARCH_TIMEOUT", 30*time.Second),
		SearchFallbackRSS: getEnvBoolOrDefault("SEARCH_FALLBACK_RSS", false),

		Summarizer:         strings.ToLower(getEnvOrDefault("SUMMARIZER", "groq")),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		SummaryModel:       os.Getenv("SUMMARY_MODEL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		OllamaHost:         getEnvOrDefault("OLLAMA_HOST", "http://127.0.0.1:11434"),
		SummaryTimeout:     getEnvDurationOrDefault("SUMMARY_TIMEOUT", 20*time.Second),
		MaxSummaryRequests: getEnvIntOrDefault("MAX_SUMMARY_REQUESTS", 0),
		SummaryCacheTTL:    getEnvDurationOrDefault("SUMMARY_CACHE_TTL", 24*time.Hour),

		StorageBackend:   strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "file")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnvOrDefault("SQLITE_PATH", "newsletter.db"),
		StoreFilePath:    getEnvOrDefault("STORE_FILE_PATH", "newsletter_store.json"),
		SkipSentArticles: getEnvBoolOrDefault("SKIP_SENT_ARTICLES", false),

		EnrichBelowWords:  getEnvIntOrDefault("ENRICH_BELOW_WORDS", 120),
		ScrapeConcurrency: getEnvIntOrDefault("SCRAPE_CONCURRENCY", 4),

		SendEmail:       getEnvBoolOrDefault("SEND_EMAIL", false),
		EmailTestMode:   getEnvBoolOrDefault("EMAIL_TEST_MODE", false),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		SenderEmail:     getEnvOrDefault("SENDER_EMAIL", "AI Newsletter <onboarding@resend.dev>"),
		Recipients:      SplitList(os.Getenv("RECIPIENT_EMAIL")),
		EmailBatchSize:  getEnvIntOrDefault("EMAIL_BATCH_SIZE", 50),
		EmailBatchDelay: getEnvDurationOrDefault("EMAIL_BATCH_DELAY", 500*time.Millisecond),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),

		NewsletterTitle: getEnvOrDefault("NEWSLETTER_TITLE", "AI & ML Weekly Newsletter"),
		FeedbackURL:     getEnvOrDefault("FEEDBACK_URL", "#"),
		OutputDir:       getEnvOrDefault("OUTPUT_DIR", "output"),
		LogoPath:        getEnvOrDefault("LOGO_PATH", "assets/logo.jpg"),

		Debug:            getEnvBoolOrDefault("DEBUG", false),
		EnableMonitoring: getEnvBoolOrDefault("ENABLE_HTTP_MONITORING", false),
		MonitoringPort:   getEnvOrDefault("MONITORING_PORT", "8080"),
		RetryAttempts:    getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:       getEnvDurationOrDefault("RETRY_DELAY", 2*time.Second),

		CurationPath: getEnvOrDefault("CURATION_CONFIG_PATH", "configs/curation.yaml"),
	}

	curation, err := LoadCuration(cfg.CurationPath)
	if err != nil {
		return nil, err
	}
	cfg.Curation = curation

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if err := c.Curation.Validate(); err != nil {
		return err
	}

	switch c.SearchProvider {
	case "tavily":
		if c.TavilyAPIKey == "" {
			return fmt.Errorf("%w: TAVILY_API_KEY is required", ErrMissingCredentials)
		}
	case "rss":
		if len(c.Curation.Feeds) == 0 {
			return fmt.Errorf("%w: rss search needs at least one feed", ErrMissingCredentials)
		}
	default:
		return ErrUnknownSearch
	}

	switch c.Summarizer {
	case "groq":
		if c.GroqAPIKey == "" {
			return fmt.Errorf("%w: GROQ_API_KEY is required", ErrMissingCredentials)
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required", ErrMissingCredentials)
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required", ErrMissingCredentials)
		}
	case "ollama", "none":
	default:
		return ErrUnknownSummarizer
	}

	switch c.StorageBackend {
	case "file", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required", ErrMissingCredentials)
		}
	default:
		return ErrUnknownStorage
	}

	if c.SendEmail {
		if c.ResendAPIKey == "" {
			return fmt.Errorf("%w: RESEND_API_KEY is required", ErrMissingCredentials)
		}
		if len(c.Recipients) == 0 {
			return ErrMissingRecipients
		}
	}
	return nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
