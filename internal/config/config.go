package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port      string
	APIKey    string
	StaticDir string

	Subreddits       []string
	PostLimit        int
	AssetID          string
	MarketDays       int
	RefreshIntervalS int

	VolatilityModelPath string
	SentimentModelPath  string
	SentimentBackend    string

	OpenAIAPIKey string
	OpenAIModel  string

	RedisURL         string
	TelegramBotToken string
}

var defaultSubreddits = []string{"Bitcoin", "BTC", "Crypto", "CryptoNews"}

func Load() *Config {
	cfg := &Config{
		APIKey:           os.Getenv("API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.StaticDir = strings.TrimSpace(os.Getenv("STATIC_DIR"))
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}

	cfg.Subreddits = defaultSubreddits
	if v := strings.TrimSpace(os.Getenv("SUBREDDITS")); v != "" {
		var subs []string
		for _, sub := range strings.Split(v, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				subs = append(subs, sub)
			}
		}
		if len(subs) > 0 {
			cfg.Subreddits = subs
		}
	}

	cfg.PostLimit = 50
	if v := strings.TrimSpace(os.Getenv("POST_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PostLimit = n
		}
	}

	cfg.AssetID = strings.TrimSpace(os.Getenv("ASSET_ID"))
	if cfg.AssetID == "" {
		cfg.AssetID = "bitcoin"
	}

	cfg.MarketDays = 30
	if v := strings.TrimSpace(os.Getenv("MARKET_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MarketDays = n
		}
	}

	cfg.RefreshIntervalS = 3600
	if v := strings.TrimSpace(os.Getenv("REFRESH_INTERVAL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshIntervalS = n
		}
	}

	cfg.VolatilityModelPath = strings.TrimSpace(os.Getenv("VOLATILITY_MODEL_PATH"))
	if cfg.VolatilityModelPath == "" {
		cfg.VolatilityModelPath = "models/volatility_forest.json"
	}

	cfg.SentimentModelPath = strings.TrimSpace(os.Getenv("SENTIMENT_MODEL_PATH"))
	if cfg.SentimentModelPath == "" {
		cfg.SentimentModelPath = "models/sentiment_clf.json"
	}

	cfg.SentimentBackend = strings.ToLower(strings.TrimSpace(os.Getenv("SENTIMENT_BACKEND")))
	if cfg.SentimentBackend == "" {
		cfg.SentimentBackend = "local"
	}
	if cfg.SentimentBackend != "local" && cfg.SentimentBackend != "openai" {
		log.Printf("Warning: unsupported SENTIMENT_BACKEND=%q, defaulting to local", cfg.SentimentBackend)
		cfg.SentimentBackend = "local"
	}

	if cfg.SentimentBackend == "openai" && cfg.OpenAIAPIKey == "" {
		log.Println("Warning: SENTIMENT_BACKEND=openai but OPENAI_API_KEY not set, falling back to local")
		cfg.SentimentBackend = "local"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, snapshot persistence disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	return cfg
}
