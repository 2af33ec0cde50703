package video

import (
	"net/url"
	"strings"

	"foodmap-video-importer/internal/models"
	errs "foodmap-video-importer/pkg/errors"
)

// DetectPlatform classifies a source URL by hostname substring. Anything
// outside the two supported platforms is an unsupported-input error, fatal
// for that source.
func DetectPlatform(rawURL string) (models.ContentSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return models.ContentSource{URL: rawURL, Platform: models.PlatformUnknown},
			errs.NewInput("video.DetectPlatform", "invalid video URL", err)
	}

	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return models.ContentSource{URL: rawURL, Platform: models.PlatformYouTube}, nil
	case strings.Contains(host, "tiktok.com"):
		return models.ContentSource{URL: rawURL, Platform: models.PlatformTikTok}, nil
	default:
		return models.ContentSource{URL: rawURL, Platform: models.PlatformUnknown},
			errs.NewInput("video.DetectPlatform", "unsupported video platform: "+host, nil)
	}
}

// ExtractYouTubeID pulls the video id out of watch, short-link and shorts
// URL forms. Returns false for anything it cannot parse.
func ExtractYouTubeID(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Host)

	if strings.Contains(host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if i := strings.IndexByte(id, '/'); i > 0 {
			id = id[:i]
		}
		return id, id != ""
	}
	if !strings.Contains(host, "youtube.com") {
		return "", false
	}
	if id := u.Query().Get("v"); id != "" {
		return id, true
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
			if i := strings.IndexByte(id, '/'); i > 0 {
				id = id[:i]
			}
			if id != "" {
				return id, true
			}
		}
	}
	return "", false
}
