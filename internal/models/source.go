package models

import "time"

// Platform identifies the hosting video platform for a content source.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
	PlatformUnknown Platform = "unknown"
)

// ContentSource is the immutable input of one extraction run.
type ContentSource struct {
	URL      string
	Platform Platform
}

// VideoMetadata has a uniform shape regardless of the platform-specific
// acquisition strategy that produced it.
type VideoMetadata struct {
	Title       string
	Description string
	ChannelName string
	ChannelID   string
	PublishedAt time.Time
	Duration    time.Duration
	ViewCount   int64
	LikeCount   int64
}

// RestaurantMention is a free-text restaurant reference extracted from a
// video; not yet verified against the place directory. JSON tags match the
// extraction model's output contract.
type RestaurantMention struct {
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	Dishes       []string `json:"dishes,omitempty"`
	PriceHint    string   `json:"price_hint,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	TimestampSec int      `json:"timestamp_sec,omitempty"`
}
