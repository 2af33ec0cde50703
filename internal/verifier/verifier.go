// Package verifier resolves free-text restaurant mentions to canonical
// places in the Google place directory. Both the text search and the
// details fetch go through the lookup cache; a mention that cannot be
// resolved is a nil result, not an error.
package verifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/pkg/cache"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/retry"
	"foodmap-video-importer/pkg/vntext"
)

// PlacesAPI is the slice of the maps client the verifier uses.
type PlacesAPI interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

type Config struct {
	SearchRadius    uint // meters
	PlaceCacheTTL   time.Duration
	DetailsCacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{SearchRadius: 15000, PlaceCacheTTL: 168 * time.Hour, DetailsCacheTTL: 72 * time.Hour}
}

type Service struct {
	places PlacesAPI
	policy *Policy
	cache  *cache.Service
	cfg    Config
	rp     retry.Policy
	log    *logging.Logger
}

func New(places PlacesAPI, policy *Policy, cacheSvc *cache.Service, cfg Config, rp retry.Policy, log *logging.Logger) *Service {
	return &Service{
		places: places,
		policy: policy,
		cache:  cacheSvc,
		cfg:    cfg,
		rp:     rp,
		log:    log.WithComponent("verifier"),
	}
}

// candidate is the cached slice of a search result: just enough to apply
// the venue policy and fetch details later.
type candidate struct {
	PlaceID string   `json:"place_id"`
	Name    string   `json:"name"`
	Types   []string `json:"types"`
}

// Verify resolves a mention near the given city bias. Returns (nil, nil)
// when the directory has no acceptable match.
func (s *Service) Verify(ctx context.Context, mention models.RestaurantMention, city string, lat, lng float64) (*models.VerifiedPlace, error) {
	query := strings.TrimSpace(mention.Name)
	if query == "" {
		return nil, nil
	}
	if mention.Address != "" {
		query += " " + mention.Address
	}
	query += " " + city

	candidates, err := s.search(ctx, query, lat, lng)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		if !s.policy.Accept(c.Types) {
			s.log.Debug("candidate rejected by venue policy",
				logging.String("name", c.Name), logging.String("place_id", c.PlaceID))
			continue
		}
		return s.details(ctx, c.PlaceID)
	}
	return nil, nil
}

func (s *Service) search(ctx context.Context, query string, lat, lng float64) ([]candidate, error) {
	key := cache.GeoKey("textsearch", query, lat, lng)
	if v, ok := s.cache.Get(ctx, key); ok {
		var cached []candidate
		if err := json.Unmarshal(v, &cached); err == nil {
			return cached, nil
		}
	}

	resp, err := retry.DoValue(ctx, s.rp, "verifier.search", func(ctx context.Context) (maps.PlacesSearchResponse, error) {
		r, err := s.places.TextSearch(ctx, &maps.TextSearchRequest{
			Query:    query,
			Location: &maps.LatLng{Lat: lat, Lng: lng},
			Radius:   s.cfg.SearchRadius,
		})
		return r, classifyMapsErr("verifier.search", err)
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, candidate{PlaceID: r.PlaceID, Name: r.Name, Types: r.Types})
	}
	if b, err := json.Marshal(candidates); err == nil {
		s.cache.Put(ctx, key, b, s.cfg.PlaceCacheTTL)
	}
	return candidates, nil
}

func (s *Service) details(ctx context.Context, placeID string) (*models.VerifiedPlace, error) {
	key := cache.Key("details", placeID)
	if v, ok := s.cache.Get(ctx, key); ok {
		var cached models.VerifiedPlace
		if err := json.Unmarshal(v, &cached); err == nil {
			return &cached, nil
		}
	}

	result, err := retry.DoValue(ctx, s.rp, "verifier.details", func(ctx context.Context) (maps.PlaceDetailsResult, error) {
		r, err := s.places.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
			PlaceID: placeID,
			Fields: []maps.PlaceDetailsFieldMask{
				maps.PlaceDetailsFieldMaskPlaceID,
				maps.PlaceDetailsFieldMaskName,
				maps.PlaceDetailsFieldMaskFormattedAddress,
				maps.PlaceDetailsFieldMaskGeometry,
				maps.PlaceDetailsFieldMaskRatings,
				maps.PlaceDetailsFieldMaskUserRatingsTotal,
				maps.PlaceDetailsFieldMaskPriceLevel,
				maps.PlaceDetailsFieldMaskTypes,
				maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
				maps.PlaceDetailsFieldMaskOpeningHours,
				maps.PlaceDetailsFieldMaskReviews,
				maps.PlaceDetailsFieldMaskPhotos,
			},
		})
		return r, classifyMapsErr("verifier.details", err)
	})
	if err != nil {
		return nil, err
	}

	place := fromDetails(&result)
	if b, err := json.Marshal(place); err == nil {
		s.cache.Put(ctx, key, b, s.cfg.DetailsCacheTTL)
	}
	return place, nil
}

func fromDetails(r *maps.PlaceDetailsResult) *models.VerifiedPlace {
	place := &models.VerifiedPlace{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		Rating:           r.Rating,
		RatingCount:      r.UserRatingsTotal,
		PriceLevel:       r.PriceLevel,
		Types:            r.Types,
		Phone:            r.FormattedPhoneNumber,
	}
	if r.OpeningHours != nil {
		place.WeekdayHours = r.OpeningHours.WeekdayText
	}
	for _, rev := range r.Reviews {
		place.Reviews = append(place.Reviews, models.Review{
			AuthorName: rev.AuthorName,
			Language:   rev.Language,
			Rating:     rev.Rating,
			Text:       rev.Text,
			Time:       time.Unix(int64(rev.Time), 0),
		})
	}
	for _, p := range r.Photos {
		place.Photos = append(place.Photos, models.PhotoRef{
			Reference: p.PhotoReference,
			Width:     p.Width,
			Height:    p.Height,
		})
	}
	return place
}

// Classify labels a place by the share of Vietnamese-language reviews.
// Reviews without a language tag fall back to a diacritic check.
func Classify(reviews []models.Review) models.Classification {
	if len(reviews) == 0 {
		return models.ClassUnknown
	}
	ratio := VietnameseRatio(reviews)
	switch {
	case ratio > 0.4:
		return models.ClassLocalFavorite
	case ratio < 0.2:
		return models.ClassTouristSpot
	default:
		return models.ClassUnknown
	}
}

// VietnameseRatio is the fraction of reviews written in Vietnamese. Shared
// with the authenticity scorer.
func VietnameseRatio(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	vi := 0
	for _, r := range reviews {
		if isVietnamese(r) {
			vi++
		}
	}
	return float64(vi) / float64(len(reviews))
}

func isVietnamese(r models.Review) bool {
	if r.Language != "" {
		return strings.HasPrefix(strings.ToLower(r.Language), "vi")
	}
	return vntext.HasDiacritics(r.Text)
}

// classifyMapsErr tags directory quota errors so the retry policy picks
// them up; everything else passes through.
func classifyMapsErr(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return errs.NewRateLimit(op, "google", err)
	}
	return errs.NewExternal(op, "google", "place lookup failed", err)
}
