package models

// ExtractionStats accumulates per-run counters across independent mentions.
type ExtractionStats struct {
	TotalMentions int `json:"total_mentions"`
	Verified      int `json:"verified"`
	Imported      int `json:"imported"`
	Failed        int `json:"failed"`
}

// MentionResult records what happened to a single mention. Error is a
// message rather than an error value because results are serialized into
// suggestion logs.
type MentionResult struct {
	Mention        RestaurantMention       `json:"mention"`
	Place          *VerifiedPlace          `json:"place,omitempty"`
	Classification Classification          `json:"classification,omitempty"`
	Assessment     *AuthenticityAssessment `json:"assessment,omitempty"`
	Photos         []PhotoResult           `json:"photos,omitempty"`
	Imported       bool                    `json:"imported"`
	Error          string                  `json:"error,omitempty"`
}

// ExtractionResult is the orchestrator's output for one run. In preview
// mode Collection describes what would have been created (ID zero).
type ExtractionResult struct {
	Collection *Collection     `json:"collection,omitempty"`
	Results    []MentionResult `json:"results"`
	Stats      ExtractionStats `json:"stats"`
	Preview    bool            `json:"preview"`
}
