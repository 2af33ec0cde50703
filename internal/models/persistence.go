package models

import "time"

// Collection is one extraction run's persisted result set. Reprocessing a
// source always inserts a new collection.
type Collection struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	SourceURL   string    `json:"source_url"`
	CreatorName string    `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Restaurant is the persisted sink for a verified place. A row is reused
// across collections when the same PlaceID recurs.
type Restaurant struct {
	ID                int64
	PlaceID           string
	Name              string
	Address           string
	Lat               float64
	Lng               float64
	Rating            float32
	RatingCount       int
	PriceLevel        int
	Phone             string
	Classification    Classification
	AuthenticityScore float64
	BadgeLevel        int
	CreatedAt         time.Time
}

// CollectionLink ties a restaurant into a collection with mention-derived
// presentation data.
type CollectionLink struct {
	CollectionID int64
	RestaurantID int64
	Notes        string
	Dishes       []string
	TimestampSec int
}

// SuggestionStatus values; transitions are monotonic within one run.
type SuggestionStatus string

const (
	SuggestionPending    SuggestionStatus = "pending"
	SuggestionProcessing SuggestionStatus = "processing"
	SuggestionCompleted  SuggestionStatus = "completed"
	SuggestionFailed     SuggestionStatus = "failed"
	SuggestionRejected   SuggestionStatus = "rejected"
)

// Suggestion wraps one user-submitted video through one pipeline run.
type Suggestion struct {
	ID                 string           `json:"id"`
	SourceURL          string           `json:"source_url"`
	SubmitterName      string           `json:"submitter_name,omitempty"`
	Status             SuggestionStatus `json:"status"`
	ResultCollectionID *int64           `json:"result_collection_id,omitempty"`
	Logs               string           `json:"logs,omitempty"` // structured JSON: {stats, errors} or {error}
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
