package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodmap-video-importer/pkg/cache"
	"foodmap-video-importer/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(logging.LogConfig{Level: "error", Format: "text"})
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `"banh mi queue around the corner"`, "banh mi queue around the corner"},
		{"object with transcript", `{"transcript": "first stop is a pho shop"}`, "first stop is a pho shop"},
		{"object with text", `{"text": "we tried the grilled pork"}`, "we tried the grilled pork"},
		{"nested data", `{"data": {"content": "com tam at midnight"}}`, "com tam at midnight"},
		{"segments array", `[{"text": "0:10 hello"}, {"text": "0:20 world"}]`, "0:10 hello 0:20 world"},
		{"array of strings", `["part one", "part two"]`, "part one part two"},
		{"plain text", "not json at all", "not json at all"},
		{"empty object", `{}`, ""},
		{"empty body", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseResponse([]byte(tt.body)); got != tt.want {
				t.Fatalf("parseResponse(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestFetchCachesResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/transcript" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"transcript": "bun cha by the lake"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, cache.New(10, nil), time.Hour, testLogger())

	for i := 0; i < 3; i++ {
		text, err := c.Fetch(context.Background(), "https://youtu.be/abc")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if text != "bun cha by the lake" {
			t.Fatalf("Fetch = %q", text)
		}
	}
	if calls != 1 {
		t.Fatalf("sidecar called %d times, want 1", calls)
	}
}

func TestFetchCachesMiss(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, cache.New(10, nil), time.Hour, testLogger())

	for i := 0; i < 2; i++ {
		text, err := c.Fetch(context.Background(), "https://youtu.be/nocap")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if text != "" {
			t.Fatalf("Fetch = %q, want empty", text)
		}
	}
	if calls != 1 {
		t.Fatalf("sidecar called %d times, want 1 (negative result cached)", calls)
	}
}

func TestFetchSidecarDownFallsBackEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, nil, time.Hour, testLogger())

	text, err := c.Fetch(context.Background(), "https://youtu.be/down")
	if err != nil {
		t.Fatalf("Fetch should degrade, got error: %v", err)
	}
	if text != "" {
		t.Fatalf("Fetch = %q, want empty on sidecar failure", text)
	}
}
