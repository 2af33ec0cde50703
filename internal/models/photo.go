package models

// PhotoCandidate is a directory photo under consideration for a place's
// gallery, scored heuristically and optionally by vision analysis.
type PhotoCandidate struct {
	Ref      PhotoRef
	Score    int    // heuristic score, base 50
	Category string // "food", "exterior", "interior", "unknown"

	// Vision analysis results; Analyzed is false when only the heuristic ran.
	Analyzed     bool
	IsFood       bool
	FoodScore    int // 0..10
	QualityScore int // 0..10
	Description  string
}

// PhotoResult is an uploaded gallery photo.
type PhotoResult struct {
	URL      string
	Category string
	Enhanced bool // false when enhancement failed and the original was uploaded
}
