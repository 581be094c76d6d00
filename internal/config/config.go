package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Twitter OAuth2 credentials and endpoints
	TwitterClientID     string
	TwitterClientSecret string
	TwitterRedirectURI  string
	TwitterScopes       string
	AuthorizationURL    string
	TokenURL            string
	TweetURL            string
	SearchURL           string

	// File-backed state
	TokenFile      string
	TargetIDsFile  string
	RepliedLogFile string

	// LLM completion API (OpenAI-compatible, OpenRouter by default)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Deliberation backend
	DelibBaseURL     string
	DelibAdminKey    string
	DefaultProjectID string
	AnalyticsURL     string

	// Bot behavior
	TargetUsername        string
	PollingInterval       time.Duration
	SearchWindow          time.Duration
	ContinuationThreshold int

	// Ops listener for /health and /metrics, disabled when empty
	OpsAddr string
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		TwitterClientID:     getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		TwitterRedirectURI:  getEnv("TWITTER_REDIRECT_URI", ""),
		TwitterScopes:       getEnv("TWITTER_SCOPES", "tweet.read tweet.write users.read offline.access"),
		AuthorizationURL:    getEnv("TWITTER_AUTHORIZATION_URL", "https://twitter.com/i/oauth2/authorize"),
		TokenURL:            getEnv("TWITTER_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
		TweetURL:            getEnv("TWITTER_TWEET_URL", "https://api.twitter.com/2/tweets"),
		SearchURL:           getEnv("TWITTER_SEARCH_URL", "https://api.twitter.com/2/tweets/search/recent"),

		TokenFile:      getEnv("TOKEN_FILE", "tokens.json"),
		TargetIDsFile:  getEnv("TARGET_TWEET_IDS_FILE", "target_tweet_ids.txt"),
		RepliedLogFile: getEnv("REPLIED_TWEETS_FILE", "replied_tweets.txt"),

		LLMAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		LLMBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:   getEnv("LLM_MODEL", "google/gemini-2.0-flash-001"),

		DelibBaseURL:     getEnv("DELIB_API_BASE_URL", ""),
		DelibAdminKey:    getEnv("DELIB_ADMIN_API_KEY", ""),
		DefaultProjectID: getEnv("DEFAULT_PROJECT_ID", ""),
		AnalyticsURL:     getEnv("DELIB_ANALYTICS_URL", ""),

		TargetUsername:        getEnv("TARGET_USERNAME", ""),
		PollingInterval:       time.Duration(getEnvInt("POLLING_INTERVAL_SECONDS", 60)) * time.Second,
		SearchWindow:          time.Duration(getEnvInt("SEARCH_WINDOW_MINUTES", 2)) * time.Minute,
		ContinuationThreshold: getEnvInt("CONTINUATION_THRESHOLD", 5),

		OpsAddr: getEnv("OPS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

// Validate checks configuration for correctness. Only unrecoverable
// misconfiguration is an error; optional features degrade instead.
func (c *Config) Validate() error {
	if c.TwitterClientID == "" {
		return fmt.Errorf("TWITTER_CLIENT_ID must be set")
	}

	if c.TwitterRedirectURI == "" {
		return fmt.Errorf("TWITTER_REDIRECT_URI must be set")
	}

	if c.DefaultProjectID != "" && c.LLMAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY must be set when DEFAULT_PROJECT_ID is configured")
	}

	if c.PollingInterval <= 0 {
		return fmt.Errorf("POLLING_INTERVAL_SECONDS must be positive")
	}

	if c.ContinuationThreshold <= 0 {
		return fmt.Errorf("CONTINUATION_THRESHOLD must be positive")
	}

	if c.DefaultProjectID == "" {
		log.Println("WARNING: DEFAULT_PROJECT_ID not set, the bot will not generate replies")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
