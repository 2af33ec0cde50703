package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"googlemaps.github.io/maps"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/prompts"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/retry"
)

func TestHeuristicScore(t *testing.T) {
	tests := []struct {
		name     string
		ref      models.PhotoRef
		score    int
		category string
	}{
		{"portrait food shot", models.PhotoRef{Width: 800, Height: 1000}, 70, "food"},
		{"wide exterior", models.PhotoRef{Width: 4000, Height: 1500}, 10, "exterior"},
		{"landscape unknown", models.PhotoRef{Width: 1200, Height: 800}, 55, "unknown"},
		{"square", models.PhotoRef{Width: 1000, Height: 1000}, 70, "food"},
		{"oversized panorama", models.PhotoRef{Width: 6000, Height: 2000}, -10, "exterior"},
		{"tiny portrait", models.PhotoRef{Width: 400, Height: 600}, 50, "food"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, category := HeuristicScore(tt.ref)
			if score != tt.score || category != tt.category {
				t.Fatalf("HeuristicScore(%dx%d) = (%d, %q), want (%d, %q)",
					tt.ref.Width, tt.ref.Height, score, category, tt.score, tt.category)
			}
		})
	}
}

type fakeFetcher struct {
	calls int
	fail  bool
}

func (f *fakeFetcher) PlacePhoto(ctx context.Context, r *maps.PlacePhotoRequest) (maps.PlacePhotoResponse, error) {
	f.calls++
	if f.fail {
		return maps.PlacePhotoResponse{}, errors.New("fetch failed")
	}
	data := []byte("jpeg:" + r.PhotoReference)
	return maps.PlacePhotoResponse{
		ContentType: "image/jpeg",
		Data:        io.NopCloser(bytes.NewReader(data)),
	}, nil
}

type fakeVision struct {
	calls   int
	byOrder []string // responses served in call order
}

func (f *fakeVision) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	idx := f.calls
	f.calls++
	content := `{"is_food": false, "food_score": 0, "quality_score": 5, "category": "interior", "description": "a room"}`
	if idx < len(f.byOrder) {
		content = f.byOrder[idx]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

type fakeEditor struct {
	calls int
	fail  bool
}

func (f *fakeEditor) CreateEditImage(ctx context.Context, req openai.ImageEditRequest) (openai.ImageResponse, error) {
	f.calls++
	if f.fail {
		return openai.ImageResponse{}, &openai.APIError{HTTPStatusCode: 500, Message: "boom"}
	}
	return openai.ImageResponse{
		Data: []openai.ImageResponseDataInner{{B64JSON: "ZW5oYW5jZWQ="}}, // "enhanced"
	}, nil
}

type memStore struct {
	uploads []string
	deleted []string
}

func (m *memStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	m.uploads = append(m.uploads, path)
	return "/photos/" + path, nil
}
func (m *memStore) Delete(ctx context.Context, path string) error { return nil }
func (m *memStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.deleted = append(m.deleted, prefix)
	return nil
}

func testService(t *testing.T, fetcher PhotoFetcher, vision VisionClient, editor ImageEditor, store *memStore, cfg Config) (*Service, *int) {
	t.Helper()
	pm, err := prompts.NewManager()
	if err != nil {
		t.Fatalf("prompts.NewManager: %v", err)
	}
	log := logging.New(logging.LogConfig{Level: "error", Format: "text"})
	rp := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Retryable: nil}.
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil })

	sleeps := 0
	svc := New(fetcher, vision, editor, store, pm, cfg, rp, log).
		WithSleep(func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		})
	return svc, &sleeps
}

func place(n int) *models.VerifiedPlace {
	p := &models.VerifiedPlace{PlaceID: "place-x"}
	for i := 0; i < n; i++ {
		p.Photos = append(p.Photos, models.PhotoRef{
			Reference: fmt.Sprintf("ref-%d", i),
			Width:     800,
			Height:    1000,
		})
	}
	return p
}

func TestProcessHeuristicOnly(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &memStore{}
	cfg := DefaultConfig()
	cfg.EnhanceEnabled = false
	svc, _ := testService(t, fetcher, nil, nil, store, cfg)

	results, err := svc.Process(context.Background(), "da-nang-eats", place(5))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if len(store.deleted) != 1 || !strings.HasPrefix(store.uploads[0], store.deleted[0]) {
		t.Fatalf("stale prefix %v not cleared before upload %v", store.deleted, store.uploads)
	}
	if fetcher.calls != 3 {
		t.Fatalf("downloaded %d photos, want 3", fetcher.calls)
	}
	for _, r := range results {
		if r.Enhanced {
			t.Fatalf("result %+v marked enhanced with enhancement disabled", r)
		}
		if r.Category != "food" {
			t.Fatalf("category = %q, want food for portrait refs", r.Category)
		}
	}
}

func TestProcessVisionRanksFoodFirst(t *testing.T) {
	foodHigh := `{"is_food": true, "food_score": 9, "quality_score": 8, "category": "food", "description": "noodles"}`
	foodLow := `{"is_food": true, "food_score": 4, "quality_score": 5, "category": "food", "description": "soup"}`
	interior := `{"is_food": false, "food_score": 0, "quality_score": 9, "category": "interior", "description": "room"}`

	vision := &fakeVision{byOrder: []string{interior, foodLow, foodHigh, interior}}
	fetcher := &fakeFetcher{}
	store := &memStore{}
	cfg := DefaultConfig()
	cfg.EnhanceEnabled = false
	cfg.MaxSelected = 2
	cfg.MaxAnalyzed = 4
	svc, sleeps := testService(t, fetcher, vision, nil, store, cfg)

	results, err := svc.Process(context.Background(), "slug", place(4))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Category != "food" {
			t.Fatalf("food photos must rank first, got %+v", results)
		}
	}
	if vision.calls != 4 {
		t.Fatalf("vision called %d times, want 4", vision.calls)
	}
	if *sleeps != 3 {
		t.Fatalf("slept %d times between 4 sequential calls, want 3", *sleeps)
	}
}

func TestProcessVisionFillsWithQuality(t *testing.T) {
	food := `{"is_food": true, "food_score": 7, "quality_score": 6, "category": "food", "description": "pho"}`
	goodRoom := `{"is_food": false, "food_score": 0, "quality_score": 9, "category": "interior", "description": "bright room"}`
	dullRoom := `{"is_food": false, "food_score": 0, "quality_score": 2, "category": "interior", "description": "dim room"}`

	vision := &fakeVision{byOrder: []string{dullRoom, food, goodRoom}}
	store := &memStore{}
	cfg := DefaultConfig()
	cfg.EnhanceEnabled = false
	cfg.MaxSelected = 2
	svc, _ := testService(t, &fakeFetcher{}, vision, nil, store, cfg)

	results, err := svc.Process(context.Background(), "slug", place(3))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Category != "food" || results[1].Category != "interior" {
		t.Fatalf("ranking = %+v, want food then best interior", results)
	}
}

func TestProcessEnhancementFallback(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &memStore{}
	editor := &fakeEditor{fail: true}
	cfg := DefaultConfig()
	cfg.MaxSelected = 2
	svc, _ := testService(t, fetcher, nil, editor, store, cfg)

	results, err := svc.Process(context.Background(), "slug", place(2))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (originals on enhancement failure)", len(results))
	}
	for _, r := range results {
		if r.Enhanced {
			t.Fatalf("result %+v marked enhanced after editor failure", r)
		}
	}
}

func TestProcessEnhancementSuccess(t *testing.T) {
	store := &memStore{}
	editor := &fakeEditor{}
	cfg := DefaultConfig()
	cfg.MaxSelected = 1
	svc, _ := testService(t, &fakeFetcher{}, nil, editor, store, cfg)

	results, err := svc.Process(context.Background(), "slug", place(1))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(results) != 1 || !results[0].Enhanced {
		t.Fatalf("results = %+v, want one enhanced photo", results)
	}
	if editor.calls != 1 {
		t.Fatalf("editor called %d times, want 1", editor.calls)
	}
}

func TestProcessNoPhotos(t *testing.T) {
	store := &memStore{}
	svc, _ := testService(t, &fakeFetcher{}, nil, nil, store, DefaultConfig())
	results, err := svc.Process(context.Background(), "slug", &models.VerifiedPlace{PlaceID: "p"})
	if err != nil || results != nil {
		t.Fatalf("Process = (%+v, %v), want (nil, nil)", results, err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("gallery cleanup ran with no photos")
	}
}
