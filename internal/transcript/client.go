// Package transcript talks to the transcript sidecar. The sidecar wraps
// several caption sources and its response shape has drifted over time, so
// parsing is deliberately permissive. A missing transcript is not an error:
// extraction falls back to the video description.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foodmap-video-importer/pkg/cache"
	"foodmap-video-importer/pkg/circuit"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

// noTranscript is the cached negative marker. Repeated runs over the same
// video should not hammer the sidecar for captions that do not exist.
const noTranscript = "\x00none"

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Service
	cacheTTL   time.Duration
	breaker    *circuit.Breaker
	log        *logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, cacheSvc *cache.Service, cacheTTL time.Duration, log *logging.Logger) *Client {
	clog := log.WithComponent("transcript")
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheSvc,
		cacheTTL:   cacheTTL,
		breaker: circuit.New(circuit.Config{
			Name:              "transcript",
			OperationTimeout:  timeout,
			OpenFor:           30 * time.Second,
			MaxConsecFailures: 3,
			WindowSize:        10,
			FailureRate:       0.6,
		}, log),
		log: clog,
	}
}

// Fetch returns the transcript text for a video, or ("", nil) when none is
// available. Only transport-level failures surface as errors.
func (c *Client) Fetch(ctx context.Context, videoURL string) (string, error) {
	key := cache.Key("transcript", videoURL)
	if c.cache != nil {
		if v, ok := c.cache.Get(ctx, key); ok {
			text := string(v)
			if text == noTranscript {
				return "", nil
			}
			return text, nil
		}
	}

	var text string
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = c.fetch(ctx, videoURL)
		return err
	}, func(ctx context.Context, cause error) error {
		c.log.Warn("transcript unavailable, continuing without",
			logging.String("url", videoURL), logging.Err(cause))
		text = ""
		return nil
	})
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		stored := text
		if stored == "" {
			stored = noTranscript
		}
		c.cache.Put(ctx, key, []byte(stored), c.cacheTTL)
	}
	return text, nil
}

func (c *Client) fetch(ctx context.Context, videoURL string) (string, error) {
	q := url.Values{}
	q.Set("url", videoURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript?"+q.Encode(), nil)
	if err != nil {
		return "", errs.NewExternal("transcript.fetch", "transcript", "building request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.NewExternal("transcript.fetch", "transcript", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.NewExternal("transcript.fetch", "transcript",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errs.NewExternal("transcript.fetch", "transcript", "reading body", err)
	}
	return parseResponse(body), nil
}

// parseResponse accepts the shapes the sidecar has produced over time: a
// bare JSON string, an array of caption segments, an object with the text
// under one of several keys (possibly nested), or plain text.
func parseResponse(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		// Not JSON, treat as plain text.
		return trimmed
	}
	return strings.TrimSpace(extractText(v, 0))
}

func extractText(v any, depth int) string {
	if depth > 4 {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := extractText(item, depth+1); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		for _, key := range []string{"transcript", "text", "content", "data", "result"} {
			if inner, ok := t[key]; ok {
				if s := extractText(inner, depth+1); s != "" {
					return s
				}
			}
		}
		return ""
	default:
		return ""
	}
}
