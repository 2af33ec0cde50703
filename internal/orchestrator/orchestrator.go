// Package orchestrator runs one extraction end to end: platform detection,
// metadata, transcript, mention extraction, then per-mention verification,
// scoring, import and photos. Mentions are processed strictly sequentially;
// one mention's failure never aborts its siblings.
//
// Collection, restaurant, link and photo writes are sequential with no
// spanning transaction; a partial failure can leave an orphaned collection
// row behind.
package orchestrator

import (
	"context"
	"sync"

	"foodmap-video-importer/internal/authenticity"
	"foodmap-video-importer/internal/cities"
	"foodmap-video-importer/internal/extractor"
	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/verifier"
	"foodmap-video-importer/internal/video"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/storage"
)

type MetadataFetcher interface {
	Fetch(ctx context.Context, source models.ContentSource) (*models.VideoMetadata, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}

type MentionExtractor interface {
	Extract(ctx context.Context, in extractor.Input) ([]models.RestaurantMention, error)
}

type PlaceVerifier interface {
	Verify(ctx context.Context, mention models.RestaurantMention, city string, lat, lng float64) (*models.VerifiedPlace, error)
}

type PhotoProcessor interface {
	Process(ctx context.Context, collectionSlug string, place *models.VerifiedPlace) ([]models.PhotoResult, error)
}

// Store is the persistence slice the orchestrator writes through.
type Store interface {
	CreateCollection(ctx context.Context, c *models.Collection) (int64, error)
	UpsertRestaurant(ctx context.Context, r *models.Restaurant) (int64, error)
	LinkRestaurant(ctx context.Context, link models.CollectionLink) error
}

type Options struct {
	Preview bool // compute everything, persist nothing
}

// Stats aggregates counters across runs for the admin API.
type Stats struct {
	Runs          int `json:"runs"`
	TotalMentions int `json:"total_mentions"`
	Verified      int `json:"verified"`
	Imported      int `json:"imported"`
	Failed        int `json:"failed"`
}

type Service struct {
	metadata    MetadataFetcher
	transcripts TranscriptFetcher
	extractor   MentionExtractor
	verifier    PlaceVerifier
	photos      PhotoProcessor
	store       Store
	cities      *cities.Index
	log         *logging.Logger

	mu    sync.Mutex
	stats Stats
}

func New(metadata MetadataFetcher, transcripts TranscriptFetcher, mentions MentionExtractor, places PlaceVerifier, photos PhotoProcessor, store Store, cityIdx *cities.Index, log *logging.Logger) *Service {
	return &Service{
		metadata:    metadata,
		transcripts: transcripts,
		extractor:   mentions,
		verifier:    places,
		photos:      photos,
		store:       store,
		cities:      cityIdx,
		log:         log.WithComponent("orchestrator"),
	}
}

// Extract runs the full pipeline for one video. Platform detection,
// metadata acquisition, extraction and collection creation are fatal;
// everything after is isolated per mention.
func (s *Service) Extract(ctx context.Context, sourceURL, creatorName string, opts Options) (*models.ExtractionResult, error) {
	source, err := video.DetectPlatform(sourceURL)
	if err != nil {
		return nil, err
	}

	meta, err := s.metadata.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	transcript := ""
	if s.transcripts != nil {
		transcript, err = s.transcripts.Fetch(ctx, sourceURL)
		if err != nil {
			s.log.Warn("transcript fetch failed, continuing without", logging.Err(err))
			transcript = ""
		}
	}

	city := s.cities.Infer(meta.Title, meta.Description, meta.ChannelName, sourceURL)
	s.log.Info("starting extraction",
		logging.String("url", sourceURL),
		logging.String("city", city.Name),
		logging.Bool("preview", opts.Preview))

	mentions, err := s.extractor.Extract(ctx, extractor.Input{
		Metadata:   meta,
		Transcript: transcript,
		City:       city.Name,
	})
	if err != nil {
		return nil, err
	}

	collection := &models.Collection{
		Title:       meta.Title,
		Slug:        storage.Slugify(meta.Title),
		SourceURL:   sourceURL,
		CreatorName: creatorName,
	}
	if !opts.Preview {
		id, err := s.store.CreateCollection(ctx, collection)
		if err != nil {
			return nil, err
		}
		collection.ID = id
	}

	result := &models.ExtractionResult{Collection: collection, Preview: opts.Preview}
	result.Stats.TotalMentions = len(mentions)
	for _, mention := range mentions {
		mr := s.processMention(ctx, collection, mention, city, opts)
		result.Results = append(result.Results, mr)
		if mr.Place != nil {
			result.Stats.Verified++
		}
		if mr.Imported {
			result.Stats.Imported++
		}
		if mr.Error != "" || mr.Place == nil {
			result.Stats.Failed++
		}
	}

	s.recordRun(result.Stats)
	s.log.Info("extraction finished",
		logging.Int("mentions", result.Stats.TotalMentions),
		logging.Int("verified", result.Stats.Verified),
		logging.Int("imported", result.Stats.Imported),
		logging.Int("failed", result.Stats.Failed))
	return result, nil
}

func (s *Service) processMention(ctx context.Context, collection *models.Collection, mention models.RestaurantMention, city cities.City, opts Options) models.MentionResult {
	mr := models.MentionResult{Mention: mention}

	place, err := s.verifier.Verify(ctx, mention, city.Name, city.Lat, city.Lng)
	if err != nil {
		mr.Error = err.Error()
		return mr
	}
	if place == nil {
		s.log.Info("mention not verifiable", logging.String("name", mention.Name))
		return mr
	}
	mr.Place = place
	mr.Classification = verifier.Classify(place.Reviews)
	mr.Assessment = authenticity.Score(place)

	if opts.Preview {
		mr.Imported = true
		return mr
	}

	restaurantID, err := s.store.UpsertRestaurant(ctx, &models.Restaurant{
		PlaceID:           place.PlaceID,
		Name:              place.Name,
		Address:           place.FormattedAddress,
		Lat:               place.Lat,
		Lng:               place.Lng,
		Rating:            place.Rating,
		RatingCount:       place.RatingCount,
		PriceLevel:        place.PriceLevel,
		Phone:             place.Phone,
		Classification:    mr.Classification,
		AuthenticityScore: mr.Assessment.Score,
		BadgeLevel:        mr.Assessment.Badge.Level,
	})
	if err != nil {
		mr.Error = err.Error()
		return mr
	}

	if err := s.store.LinkRestaurant(ctx, models.CollectionLink{
		CollectionID: collection.ID,
		RestaurantID: restaurantID,
		Notes:        mention.Notes,
		Dishes:       mention.Dishes,
		TimestampSec: mention.TimestampSec,
	}); err != nil {
		mr.Error = err.Error()
		return mr
	}
	mr.Imported = true

	if s.photos != nil {
		photoResults, err := s.photos.Process(ctx, collection.Slug, place)
		if err != nil {
			s.log.Warn("photo pipeline failed", logging.String("place_id", place.PlaceID), logging.Err(err))
		}
		mr.Photos = photoResults
	}
	return mr
}

// GetStats returns aggregate counters since process start.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Service) recordRun(run models.ExtractionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Runs++
	s.stats.TotalMentions += run.TotalMentions
	s.stats.Verified += run.Verified
	s.stats.Imported += run.Imported
	s.stats.Failed += run.Failed
}
