// Package photos selects, analyzes and enhances gallery photos for a
// verified place. Vision and enhancement calls run strictly sequentially
// with a mandatory inter-call delay; enhancement is best-effort and falls
// back to the original image.
package photos

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"googlemaps.github.io/maps"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/prompts"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/retry"
	"foodmap-video-importer/pkg/storage"
)

// PhotoFetcher is the slice of the maps client that resolves photo
// references to image bytes.
type PhotoFetcher interface {
	PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error)
}

// VisionClient analyzes an image via a multi-part chat message.
type VisionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ImageEditor produces an enhanced variant of an image.
type ImageEditor interface {
	CreateEditImage(ctx context.Context, req openai.ImageEditRequest) (openai.ImageResponse, error)
}

type Config struct {
	MaxSelected    int
	MaxAnalyzed    int
	CallDelay      time.Duration // between vision/enhancement calls
	EnhanceEnabled bool
	VisionModel    string
	DownloadWidth  uint
}

func DefaultConfig() Config {
	return Config{
		MaxSelected:    3,
		MaxAnalyzed:    10,
		CallDelay:      4 * time.Second,
		EnhanceEnabled: true,
		VisionModel:    openai.GPT4o,
		DownloadWidth:  1200,
	}
}

type Service struct {
	fetcher  PhotoFetcher
	vision   VisionClient // nil disables vision analysis
	editor   ImageEditor  // nil disables enhancement
	store    storage.Storage
	prompts  *prompts.Manager
	cfg      Config
	rp       retry.Policy
	sleep    retry.SleepFunc
	log      *logging.Logger
}

func New(fetcher PhotoFetcher, vision VisionClient, editor ImageEditor, store storage.Storage, pm *prompts.Manager, cfg Config, rp retry.Policy, log *logging.Logger) *Service {
	if cfg.MaxSelected <= 0 {
		cfg.MaxSelected = 3
	}
	if cfg.MaxAnalyzed <= 0 {
		cfg.MaxAnalyzed = 10
	}
	return &Service{
		fetcher: fetcher,
		vision:  vision,
		editor:  editor,
		store:   store,
		prompts: pm,
		cfg:     cfg,
		rp:      rp,
		sleep:   defaultSleep,
		log:     log.WithComponent("photos"),
	}
}

// WithSleep replaces the inter-call delay primitive; used by tests.
func (s *Service) WithSleep(fn retry.SleepFunc) *Service {
	s.sleep = fn
	return s
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process builds the gallery for one place: clears stale photos, picks the
// best candidates, optionally enhances them, and uploads the results.
func (s *Service) Process(ctx context.Context, collectionSlug string, place *models.VerifiedPlace) ([]models.PhotoResult, error) {
	if len(place.Photos) == 0 {
		return nil, nil
	}
	shortID := storage.ShortPlaceID(place.PlaceID)

	if err := s.store.DeleteByPrefix(ctx, storage.PhotoPrefix(collectionSlug, shortID)); err != nil {
		s.log.Warn("stale gallery cleanup failed", logging.String("place_id", place.PlaceID), logging.Err(err))
	}

	candidates := rankHeuristically(place.Photos)
	var selected []selectedPhoto
	var err error
	if s.vision != nil {
		selected, err = s.selectWithVision(ctx, candidates)
	} else {
		selected, err = s.selectHeuristic(ctx, candidates)
	}
	if err != nil {
		return nil, err
	}

	var results []models.PhotoResult
	for i, sel := range selected {
		data, enhanced := sel.data, false
		if s.cfg.EnhanceEnabled && s.editor != nil {
			if i > 0 || s.vision != nil {
				if err := s.sleep(ctx, s.cfg.CallDelay); err != nil {
					return results, err
				}
			}
			if out, eerr := s.enhance(ctx, sel.data); eerr == nil {
				data, enhanced = out, true
			} else {
				s.log.Warn("enhancement failed, uploading original",
					logging.String("place_id", place.PlaceID), logging.Err(eerr))
			}
		}

		path := storage.PhotoPath(collectionSlug, shortID, i+1)
		url, uerr := s.store.Upload(ctx, path, data, "image/jpeg")
		if uerr != nil {
			s.log.Warn("photo upload failed", logging.String("path", path), logging.Err(uerr))
			continue
		}
		results = append(results, models.PhotoResult{URL: url, Category: sel.category, Enhanced: enhanced})
	}
	return results, nil
}

type selectedPhoto struct {
	data     []byte
	category string
}

func rankHeuristically(refs []models.PhotoRef) []models.PhotoCandidate {
	candidates := make([]models.PhotoCandidate, len(refs))
	for i, ref := range refs {
		score, category := HeuristicScore(ref)
		candidates[i] = models.PhotoCandidate{Ref: ref, Score: score, Category: category}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// selectHeuristic downloads the top heuristic candidates directly.
func (s *Service) selectHeuristic(ctx context.Context, candidates []models.PhotoCandidate) ([]selectedPhoto, error) {
	var out []selectedPhoto
	for _, c := range candidates {
		if len(out) == s.cfg.MaxSelected {
			break
		}
		data, err := s.download(ctx, c.Ref)
		if err != nil {
			s.log.Warn("photo download failed", logging.Err(err))
			continue
		}
		out = append(out, selectedPhoto{data: data, category: c.Category})
	}
	return out, nil
}

// selectWithVision analyzes up to MaxAnalyzed candidates sequentially,
// ranks food photos first by appeal+quality, and fills remaining slots
// with the highest-quality non-food shots.
func (s *Service) selectWithVision(ctx context.Context, candidates []models.PhotoCandidate) ([]selectedPhoto, error) {
	type analyzed struct {
		cand models.PhotoCandidate
		data []byte
	}
	var pool []analyzed

	limit := s.cfg.MaxAnalyzed
	if limit > len(candidates) {
		limit = len(candidates)
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.CallDelay); err != nil {
				return nil, err
			}
		}
		c := candidates[i]
		data, err := s.download(ctx, c.Ref)
		if err != nil {
			s.log.Warn("photo download failed", logging.Err(err))
			continue
		}
		if a, err := s.analyze(ctx, data); err == nil {
			c.Analyzed = true
			c.IsFood = a.IsFood
			c.FoodScore = a.FoodScore
			c.QualityScore = a.QualityScore
			c.Description = a.Description
			if a.Category != "" {
				c.Category = a.Category
			}
		} else {
			s.log.Warn("vision analysis failed, keeping heuristic rank", logging.Err(err))
		}
		pool = append(pool, analyzed{cand: c, data: data})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i].cand, pool[j].cand
		if a.IsFood != b.IsFood {
			return a.IsFood
		}
		if a.IsFood {
			return a.FoodScore+a.QualityScore > b.FoodScore+b.QualityScore
		}
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		return a.Score > b.Score
	})

	var out []selectedPhoto
	for _, p := range pool {
		if len(out) == s.cfg.MaxSelected {
			break
		}
		out = append(out, selectedPhoto{data: p.data, category: p.cand.Category})
	}
	return out, nil
}

func (s *Service) download(ctx context.Context, ref models.PhotoRef) ([]byte, error) {
	resp, err := s.fetcher.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: ref.Reference,
		MaxWidth:       s.cfg.DownloadWidth,
	})
	if err != nil {
		return nil, errs.NewExternal("photos.download", "google", "photo fetch failed", err)
	}
	defer resp.Data.Close()
	data, err := io.ReadAll(resp.Data)
	if err != nil {
		return nil, errs.NewExternal("photos.download", "google", "reading photo body", err)
	}
	return data, nil
}

type visionAnalysis struct {
	IsFood       bool   `json:"is_food"`
	FoodScore    int    `json:"food_score"`
	QualityScore int    `json:"quality_score"`
	Category     string `json:"category"`
	Description  string `json:"description"`
}

func (s *Service) analyze(ctx context.Context, image []byte) (*visionAnalysis, error) {
	prompt, err := s.prompts.Render("analyze_photo", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.vision.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.VisionModel,
		MaxTokens: 300,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, classifyOpenAIErr("photos.analyze", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errs.NewExternal("photos.analyze", "openai", "empty vision response", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	var a visionAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &a); err != nil {
		return nil, errs.NewExternal("photos.analyze", "openai", "unparseable vision response", err)
	}
	return &a, nil
}

// enhance sends the image through the edit endpoint with the strict
// preservation prompt, retrying only on rate limits.
func (s *Service) enhance(ctx context.Context, image []byte) ([]byte, error) {
	prompt, err := s.prompts.Render("enhance_photo", nil)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "enhance-*.jpg")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(image); err != nil {
		return nil, err
	}

	resp, err := retry.DoValue(ctx, s.rp, "photos.enhance", func(ctx context.Context) (openai.ImageResponse, error) {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return openai.ImageResponse{}, err
		}
		r, err := s.editor.CreateEditImage(ctx, openai.ImageEditRequest{
			Image:          tmp,
			Prompt:         prompt,
			N:              1,
			Size:           openai.CreateImageSize1024x1024,
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		})
		return r, classifyOpenAIErr("photos.enhance", err)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errs.NewExternal("photos.enhance", "openai", "empty enhancement response", nil)
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}

// classifyOpenAIErr tags HTTP 429 responses so the retry policy picks
// them up; everything else passes through as an external failure.
func classifyOpenAIErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return errs.NewRateLimit(op, "openai", err)
	}
	return errs.NewExternal(op, "openai", "request failed", err)
}
