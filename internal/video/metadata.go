package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"foodmap-video-importer/internal/models"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

const (
	youtubeAPIURL    = "https://www.googleapis.com/youtube/v3/videos"
	youtubeOEmbedURL = "https://www.youtube.com/oembed"
)

// MetadataFetcher acquires VideoMetadata with a platform-specific strategy:
// YouTube via the Data API with an oEmbed fallback, TikTok via the
// downloader sidecar's container metadata. If every strategy fails the
// extraction run aborts for that source.
type MetadataFetcher struct {
	httpClient        *http.Client
	youtubeAPIKey     string
	downloaderBaseURL string
	log               *logging.Logger
}

func NewMetadataFetcher(youtubeAPIKey, downloaderBaseURL string, log *logging.Logger) *MetadataFetcher {
	return &MetadataFetcher{
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		youtubeAPIKey:     youtubeAPIKey,
		downloaderBaseURL: downloaderBaseURL,
		log:               log.WithComponent("video"),
	}
}

func (f *MetadataFetcher) Fetch(ctx context.Context, source models.ContentSource) (*models.VideoMetadata, error) {
	switch source.Platform {
	case models.PlatformYouTube:
		return f.fetchYouTube(ctx, source.URL)
	case models.PlatformTikTok:
		return f.fetchTikTok(ctx, source.URL)
	default:
		return nil, errs.NewInput("video.Fetch", "unsupported platform", nil)
	}
}

func (f *MetadataFetcher) fetchYouTube(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	id, ok := ExtractYouTubeID(videoURL)
	if !ok {
		return nil, errs.NewInput("video.fetchYouTube", "cannot extract video id from URL", nil)
	}

	if f.youtubeAPIKey != "" {
		md, err := f.fetchYouTubeAPI(ctx, id)
		if err == nil {
			return md, nil
		}
		f.log.Warn("youtube data api failed, falling back to oembed", logging.Err(err))
	}
	return f.fetchYouTubeOEmbed(ctx, videoURL)
}

type youtubeAPIResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (f *MetadataFetcher) fetchYouTubeAPI(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails,statistics")
	q.Set("id", videoID)
	q.Set("key", f.youtubeAPIKey)

	var parsed youtubeAPIResponse
	if err := f.getJSON(ctx, youtubeAPIURL+"?"+q.Encode(), &parsed); err != nil {
		return nil, errs.NewExternal("video.fetchYouTubeAPI", "youtube", "metadata request failed", err)
	}
	if len(parsed.Items) == 0 {
		return nil, errs.NewExternal("video.fetchYouTubeAPI", "youtube", "no metadata for video "+videoID, nil)
	}

	item := parsed.Items[0]
	md := &models.VideoMetadata{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		ChannelName: item.Snippet.ChannelTitle,
		ChannelID:   item.Snippet.ChannelID,
		Duration:    parseISO8601Duration(item.ContentDetails.Duration),
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		md.PublishedAt = t
	}
	md.ViewCount, _ = strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	md.LikeCount, _ = strconv.ParseInt(item.Statistics.LikeCount, 10, 64)
	return md, nil
}

// fetchYouTubeOEmbed covers missing/unauthorized API keys. The embed
// endpoint carries no description or statistics; downstream falls back to
// the transcript for mention material.
func (f *MetadataFetcher) fetchYouTubeOEmbed(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	q := url.Values{}
	q.Set("url", videoURL)
	q.Set("format", "json")

	var parsed struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := f.getJSON(ctx, youtubeOEmbedURL+"?"+q.Encode(), &parsed); err != nil {
		return nil, errs.NewExternal("video.fetchYouTubeOEmbed", "youtube", "oembed request failed", err)
	}
	if parsed.Title == "" {
		return nil, errs.NewExternal("video.fetchYouTubeOEmbed", "youtube", "empty oembed payload", nil)
	}
	return &models.VideoMetadata{Title: parsed.Title, ChannelName: parsed.AuthorName}, nil
}

// fetchTikTok reads container metadata produced by the downloader sidecar,
// which downloads the video plus captions and reports what it found.
func (f *MetadataFetcher) fetchTikTok(ctx context.Context, videoURL string) (*models.VideoMetadata, error) {
	q := url.Values{}
	q.Set("url", videoURL)

	var parsed struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Uploader    string  `json:"uploader"`
		UploaderID  string  `json:"uploader_id"`
		UploadDate  string  `json:"upload_date"` // YYYYMMDD
		Duration    float64 `json:"duration"`
		ViewCount   int64   `json:"view_count"`
		LikeCount   int64   `json:"like_count"`
	}
	if err := f.getJSON(ctx, f.downloaderBaseURL+"/metadata?"+q.Encode(), &parsed); err != nil {
		return nil, errs.NewExternal("video.fetchTikTok", "downloader", "container metadata request failed", err)
	}
	if parsed.Title == "" && parsed.Description == "" {
		return nil, errs.NewExternal("video.fetchTikTok", "downloader", "empty container metadata", nil)
	}

	md := &models.VideoMetadata{
		Title:       parsed.Title,
		Description: parsed.Description,
		ChannelName: parsed.Uploader,
		ChannelID:   parsed.UploaderID,
		Duration:    time.Duration(parsed.Duration * float64(time.Second)),
		ViewCount:   parsed.ViewCount,
		LikeCount:   parsed.LikeCount,
	}
	if t, err := time.Parse("20060102", parsed.UploadDate); err == nil {
		md.PublishedAt = t
	}
	return md, nil
}

func (f *MetadataFetcher) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(s string) time.Duration {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second
}
