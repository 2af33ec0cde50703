package config

import (
	"os"
	"strconv"
	"time"

	errs "foodmap-video-importer/pkg/errors"
)

type Config struct {
	DatabaseURL      string
	GoogleMapsAPIKey string
	OpenAIAPIKey     string
	YouTubeAPIKey    string // optional; oEmbed fallback covers metadata when absent
	Port             string

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBConnMaxIdleTime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration

	// Transcript sidecar
	TranscriptBaseURL string
	TranscriptTimeout time.Duration

	// TikTok metadata sidecar (yt-dlp wrapper); shares the transcript host by default
	DownloaderBaseURL string

	// OpenAI client settings
	OpenAIModel       string
	OpenAIVisionModel string
	OpenAITimeout     time.Duration
	OpenAITemperature float32
	OpenAIMaxTokens   int

	// Lookup cache
	CacheMemoryCapacity int
	PlaceCacheTTL       time.Duration
	TranscriptCacheTTL  time.Duration // covers missing-transcript results too; keep short
	DetailsCacheTTL     time.Duration

	// Retry policy for rate-limited calls
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMultiplier  float64
	RetryMaxDelay    time.Duration

	// Photo pipeline
	PhotoMaxSelected   int
	PhotoMaxAnalyzed   int
	PhotoCallDelay     time.Duration // mandatory gap between vision/enhancement calls
	PhotoEnhanceEnable bool

	// Place search bias
	DefaultCity  string
	SearchRadius uint // meters

	// Object storage
	StorageRoot    string
	StorageBaseURL string

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"
}

func Load() *Config {
	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbConnMaxIdleTime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_IDLE_TIME_MINUTES", "5"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "8s"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "6s"))

	transcriptTO, _ := time.ParseDuration(getEnv("TRANSCRIPT_TIMEOUT", "20s"))

	openAITO, _ := time.ParseDuration(getEnv("OPENAI_TIMEOUT", "60s"))
	openAITemp, _ := strconv.ParseFloat(getEnv("OPENAI_TEMPERATURE", "0.1"), 32)
	openAIMaxTokens, _ := strconv.Atoi(getEnv("OPENAI_MAX_TOKENS", "1500"))

	cacheCap, _ := strconv.Atoi(getEnv("CACHE_MEMORY_CAPACITY", "500"))
	placeTTL, _ := time.ParseDuration(getEnv("PLACE_CACHE_TTL", "168h"))
	transcriptTTL, _ := time.ParseDuration(getEnv("TRANSCRIPT_CACHE_TTL", "1h"))
	detailsTTL, _ := time.ParseDuration(getEnv("DETAILS_CACHE_TTL", "72h"))

	retryAttempts, _ := strconv.Atoi(getEnv("RETRY_MAX_ATTEMPTS", "4"))
	retryBase, _ := time.ParseDuration(getEnv("RETRY_BASE_DELAY", "2s"))
	retryMult, _ := strconv.ParseFloat(getEnv("RETRY_MULTIPLIER", "2.0"), 64)
	retryMax, _ := time.ParseDuration(getEnv("RETRY_MAX_DELAY", "60s"))

	photoMax, _ := strconv.Atoi(getEnv("PHOTO_MAX_SELECTED", "3"))
	photoAnalyzed, _ := strconv.Atoi(getEnv("PHOTO_MAX_ANALYZED", "10"))
	photoDelay, _ := time.ParseDuration(getEnv("PHOTO_CALL_DELAY", "4s"))
	photoEnhance, _ := strconv.ParseBool(getEnv("PHOTO_ENHANCE_ENABLED", "true"))

	searchRadius, _ := strconv.Atoi(getEnv("SEARCH_RADIUS_METERS", "15000"))

	return &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		YouTubeAPIKey:    getEnv("YOUTUBE_API_KEY", ""),
		Port:             getEnv("PORT", "8080"),

		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBConnMaxIdleTime: dbConnMaxIdleTime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,

		TranscriptBaseURL: getEnv("TRANSCRIPT_BASE_URL", "http://localhost:5005"),
		TranscriptTimeout: transcriptTO,
		DownloaderBaseURL: getEnv("DOWNLOADER_BASE_URL", getEnv("TRANSCRIPT_BASE_URL", "http://localhost:5005")),

		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		OpenAITimeout:     openAITO,
		OpenAITemperature: float32(openAITemp),
		OpenAIMaxTokens:   openAIMaxTokens,

		CacheMemoryCapacity: cacheCap,
		PlaceCacheTTL:       placeTTL,
		TranscriptCacheTTL:  transcriptTTL,
		DetailsCacheTTL:     detailsTTL,

		RetryMaxAttempts: retryAttempts,
		RetryBaseDelay:   retryBase,
		RetryMultiplier:  retryMult,
		RetryMaxDelay:    retryMax,

		PhotoMaxSelected:   photoMax,
		PhotoMaxAnalyzed:   photoAnalyzed,
		PhotoCallDelay:     photoDelay,
		PhotoEnhanceEnable: photoEnhance,

		DefaultCity:  getEnv("DEFAULT_CITY", "Da Nang"),
		SearchRadius: uint(searchRadius),

		StorageRoot:    getEnv("STORAGE_ROOT", "./data/photos"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "/photos"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks required credentials. Missing ones are a startup-fatal
// configuration error, never retried.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errs.NewConfig("config.Validate", "DATABASE_URL is required", nil)
	}
	if c.GoogleMapsAPIKey == "" {
		return errs.NewConfig("config.Validate", "GOOGLE_MAPS_API_KEY is required", nil)
	}
	if c.OpenAIAPIKey == "" {
		return errs.NewConfig("config.Validate", "OPENAI_API_KEY is required", nil)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
