package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	openai "github.com/sashabaranov/go-openai"
	"googlemaps.github.io/maps"

	"foodmap-video-importer/internal/admin"
	"foodmap-video-importer/internal/cities"
	"foodmap-video-importer/internal/extractor"
	"foodmap-video-importer/internal/orchestrator"
	"foodmap-video-importer/internal/photos"
	"foodmap-video-importer/internal/prompts"
	"foodmap-video-importer/internal/suggestion"
	"foodmap-video-importer/internal/transcript"
	"foodmap-video-importer/internal/verifier"
	"foodmap-video-importer/internal/video"
	"foodmap-video-importer/pkg/cache"
	"foodmap-video-importer/pkg/config"
	"foodmap-video-importer/pkg/database"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/retry"
	"foodmap-video-importer/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("config: ", err)
	}

	logger := logging.New(logging.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout})
	logger.Info("starting foodmap video importer", logging.String("port", cfg.Port))

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal("database: ", err)
	}
	defer db.Close()

	cityIdx, err := cities.Load(cfg.DefaultCity)
	if err != nil {
		log.Fatal("cities: ", err)
	}
	policy, err := verifier.LoadPolicy()
	if err != nil {
		log.Fatal("venue policy: ", err)
	}
	pm, err := prompts.NewManager()
	if err != nil {
		log.Fatal("prompts: ", err)
	}
	store, err := storage.NewLocalStorage(cfg.StorageRoot, cfg.StorageBaseURL)
	if err != nil {
		log.Fatal("storage: ", err)
	}

	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.GoogleMapsAPIKey))
	if err != nil {
		log.Fatal("maps client: ", err)
	}
	openaiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	openaiCfg.HTTPClient = &http.Client{Timeout: cfg.OpenAITimeout}
	openaiClient := openai.NewClientWithConfig(openaiCfg)

	lookupCache := cache.New(cfg.CacheMemoryCapacity, db)
	retryPolicy := retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Multiplier:  cfg.RetryMultiplier,
		MaxDelay:    cfg.RetryMaxDelay,
		Jitter:      0.25,
		Retryable:   errs.IsRateLimit,
	}

	metadataFetcher := video.NewMetadataFetcher(cfg.YouTubeAPIKey, cfg.DownloaderBaseURL, logger)
	transcripts := transcript.NewClient(cfg.TranscriptBaseURL, cfg.TranscriptTimeout, lookupCache, cfg.TranscriptCacheTTL, logger)
	mentionExtractor := extractor.New(openaiClient, pm, extractor.Config{
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
		MaxTokens:   cfg.OpenAIMaxTokens,
	}, logger)
	placeVerifier := verifier.New(mapsClient, policy, lookupCache, verifier.Config{
		SearchRadius:    cfg.SearchRadius,
		PlaceCacheTTL:   cfg.PlaceCacheTTL,
		DetailsCacheTTL: cfg.DetailsCacheTTL,
	}, retryPolicy, logger)
	photoService := photos.New(mapsClient, openaiClient, openaiClient, store, pm, photos.Config{
		MaxSelected:    cfg.PhotoMaxSelected,
		MaxAnalyzed:    cfg.PhotoMaxAnalyzed,
		CallDelay:      cfg.PhotoCallDelay,
		EnhanceEnabled: cfg.PhotoEnhanceEnable,
		VisionModel:    cfg.OpenAIVisionModel,
		DownloadWidth:  1200,
	}, retryPolicy, logger)

	pipeline := orchestrator.New(metadataFetcher, transcripts, mentionExtractor, placeVerifier, photoService, db, cityIdx, logger)
	suggestions := suggestion.New(db, pipeline, logger)

	router := mux.NewRouter()
	admin.NewHandler(suggestions, pipeline, db, logger).Register(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // extraction runs block for their full duration
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown", logging.Err(err))
		}
	}()

	logger.Info("listening", logging.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server: ", err)
	}
	logger.Info("server stopped")
}
