package models

import "time"

// Review is a single directory review attached to a verified place.
type Review struct {
	AuthorName string
	Language   string // BCP-47 tag as reported by the directory, e.g. "vi", "en"
	Rating     int    // 1..5
	Text       string
	Time       time.Time
}

// PhotoRef is an opaque directory photo reference plus its dimensions.
type PhotoRef struct {
	Reference string
	Width     int
	Height    int
}

// VerifiedPlace is a mention resolved to a canonical real-world venue.
// Dedup across mentions and collections is by PlaceID.
type VerifiedPlace struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Lat              float64
	Lng              float64
	Rating           float32
	RatingCount      int
	PriceLevel       int // 0 (unknown/free) .. 4
	Types            []string
	Phone            string
	WeekdayHours     []string
	Reviews          []Review
	Photos           []PhotoRef
}

// Classification labels a place by its review-language profile. The empty
// value means unclassified; the 0.2 to 0.4 band is neither.
type Classification string

const (
	ClassLocalFavorite Classification = "local_favorite"
	ClassTouristSpot   Classification = "tourist_spot"
	ClassUnknown       Classification = ""
)
