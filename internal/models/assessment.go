package models

// Badge is one of five ordered authenticity levels shown to users.
type Badge struct {
	Level int    // 1..5
	Label string
	Icon  string
}

// AuthenticityAssessment is derived on demand from a verified place's
// signals; it is not persisted as a versioned entity.
type AuthenticityAssessment struct {
	Score         float64 // clamped to [0,1]
	Badge         Badge
	Signals       []string
	Summary       string
	ReviewWarning string // empty when reviews look credible
}

// CredibilityReport is the output of the review credibility filter.
type CredibilityReport struct {
	TotalReviews    int
	CredibleReviews []Review
	Suspicious      []FlaggedReview
}

// FlaggedReview carries the exact flags that disqualified one review.
type FlaggedReview struct {
	Review Review
	Flags  []string
}

// SuspiciousRatio returns the fraction of reviews that were flagged.
func (r CredibilityReport) SuspiciousRatio() float64 {
	if r.TotalReviews == 0 {
		return 0
	}
	return float64(len(r.Suspicious)) / float64(r.TotalReviews)
}
