package verifier

import (
	"context"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/pkg/cache"
	"foodmap-video-importer/pkg/logging"
	"foodmap-video-importer/pkg/retry"
)

type fakePlaces struct {
	searchCalls  int
	detailsCalls int
	searchResp   maps.PlacesSearchResponse
	detailsResp  maps.PlaceDetailsResult
	searchErr    error
}

func (f *fakePlaces) TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
	f.searchCalls++
	return f.searchResp, f.searchErr
}

func (f *fakePlaces) PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	f.detailsCalls++
	return f.detailsResp, nil
}

func testLogger() *logging.Logger {
	return logging.New(logging.LogConfig{Level: "error", Format: "text"})
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestService(t *testing.T, places *fakePlaces) *Service {
	t.Helper()
	policy, err := LoadPolicy()
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	rp := retry.DefaultPolicy(nil).WithSleep(noSleep)
	return New(places, policy, cache.New(50, nil), DefaultConfig(), rp, testLogger())
}

func searchResult(placeID, name string, types ...string) maps.PlacesSearchResult {
	return maps.PlacesSearchResult{PlaceID: placeID, Name: name, Types: types}
}

func TestVerifyCacheIdempotence(t *testing.T) {
	places := &fakePlaces{
		searchResp: maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{
			searchResult("place-1", "Bún Chả Hương Liên", "restaurant", "food"),
		}},
		detailsResp: maps.PlaceDetailsResult{
			PlaceID:          "place-1",
			Name:             "Bún Chả Hương Liên",
			FormattedAddress: "24 Lê Văn Hưu, Hà Nội",
			Types:            []string{"restaurant", "food"},
		},
	}
	s := newTestService(t, places)

	mention := models.RestaurantMention{Name: "Bún chả Hương Liên"}
	first, err := s.Verify(context.Background(), mention, "Hanoi", 21.0285, 105.8542)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if first == nil || first.PlaceID != "place-1" {
		t.Fatalf("Verify = %+v", first)
	}

	second, err := s.Verify(context.Background(), mention, "Hanoi", 21.0285, 105.8542)
	if err != nil {
		t.Fatalf("Verify (cached): %v", err)
	}
	if second == nil || second.PlaceID != first.PlaceID || second.Name != first.Name {
		t.Fatalf("cached Verify = %+v, want %+v", second, first)
	}
	if places.searchCalls != 1 {
		t.Fatalf("search called %d times, want 1", places.searchCalls)
	}
	if places.detailsCalls != 1 {
		t.Fatalf("details called %d times, want 1", places.detailsCalls)
	}
}

func TestVerifyVenuePolicy(t *testing.T) {
	tests := []struct {
		name    string
		results []maps.PlacesSearchResult
		wantID  string
	}{
		{
			"plain restaurant accepted",
			[]maps.PlacesSearchResult{searchResult("r1", "Quán Ăn", "restaurant")},
			"r1",
		},
		{
			"hotel without food rejected, next food candidate wins",
			[]maps.PlacesSearchResult{
				searchResult("h1", "Grand Hotel", "lodging", "point_of_interest"),
				searchResult("r2", "Cơm Gà Bà Buội", "food", "point_of_interest"),
			},
			"r2",
		},
		{
			"hotel with restaurant type accepted",
			[]maps.PlacesSearchResult{searchResult("h2", "Hotel Bistro", "lodging", "restaurant")},
			"h2",
		},
		{
			"nothing acceptable",
			[]maps.PlacesSearchResult{searchResult("s1", "Mini Mart", "convenience_store")},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places := &fakePlaces{
				searchResp:  maps.PlacesSearchResponse{Results: tt.results},
				detailsResp: maps.PlaceDetailsResult{PlaceID: tt.wantID},
			}
			s := newTestService(t, places)
			got, err := s.Verify(context.Background(), models.RestaurantMention{Name: "x"}, "Da Nang", 16.05, 108.20)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("Verify = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.PlaceID != tt.wantID {
				t.Fatalf("Verify = %+v, want place %q", got, tt.wantID)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	mk := func(lang string, n int) []models.Review {
		out := make([]models.Review, n)
		for i := range out {
			out[i] = models.Review{Language: lang, Text: "ok"}
		}
		return out
	}

	tests := []struct {
		name    string
		reviews []models.Review
		want    models.Classification
	}{
		{"half vietnamese", append(mk("vi", 5), mk("en", 5)...), models.ClassLocalFavorite},
		{"one in ten", append(mk("vi", 1), mk("en", 9)...), models.ClassTouristSpot},
		{"three in ten", append(mk("vi", 3), mk("en", 7)...), models.ClassUnknown},
		{"no reviews", nil, models.ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.reviews); got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyDiacriticFallback(t *testing.T) {
	reviews := []models.Review{
		{Text: "Ngon lắm, giá rẻ"},
		{Text: "Quán ngon nhất Đà Nẵng"},
		{Text: "great spot, friendly staff"},
	}
	if got := Classify(reviews); got != models.ClassLocalFavorite {
		t.Fatalf("Classify = %q, want local_favorite", got)
	}
}
