package authenticity

import (
	"fmt"
	"strings"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/verifier"
)

// localFoodTypes mark venue categories that point toward everyday local
// dining rather than attractions.
var localFoodTypes = map[string]bool{
	"restaurant":    true,
	"food":          true,
	"meal_takeaway": true,
	"cafe":          true,
	"bakery":        true,
}

const touristType = "tourist_attraction"

var badges = []models.Badge{
	{Level: 5, Label: "Local Legend", Icon: "🏆"},
	{Level: 4, Label: "Local Favorite", Icon: "⭐"},
	{Level: 3, Label: "Worth a Visit", Icon: "👍"},
	{Level: 2, Label: "Tourist Oriented", Icon: "📸"},
	{Level: 1, Label: "Tourist Trap Risk", Icon: "⚠️"},
}

// BadgeFor maps a clamped score to its badge. Thresholds are inclusive
// lower bounds.
func BadgeFor(score float64) models.Badge {
	switch {
	case score >= 0.8:
		return badges[0]
	case score >= 0.65:
		return badges[1]
	case score >= 0.45:
		return badges[2]
	case score >= 0.25:
		return badges[3]
	default:
		return badges[4]
	}
}

// Score computes the deterministic authenticity assessment for a place.
func Score(place *models.VerifiedPlace) *models.AuthenticityAssessment {
	report := FilterReviews(place.Reviews)
	warning := reviewWarning(report)

	score := 0.5
	var positives, negatives []string

	ratio := report.SuspiciousRatio()
	if ratio > 0.5 {
		score -= 0.15
		negatives = append(negatives, "most reviews look suspicious")
	} else if ratio < 0.2 && len(report.CredibleReviews) >= 3 {
		positives = append(positives, "reviews look trustworthy")
	}

	if len(report.CredibleReviews) == 0 {
		return &models.AuthenticityAssessment{
			Score:         0.3,
			Badge:         BadgeFor(0.3),
			Signals:       append(negatives, "no credible reviews"),
			Summary:       "Limited reliable reviews, authenticity could not be established",
			ReviewWarning: warning,
		}
	}

	viRatio := verifier.VietnameseRatio(report.CredibleReviews)
	if viRatio > 0 {
		score += 0.4 * viRatio
		positives = append(positives, fmt.Sprintf("%.0f%% of credible reviews are in Vietnamese", viRatio*100))
	}

	score += priceDelta(place.PriceLevel, &positives)

	hasFood, hasTourist := false, false
	for _, t := range place.Types {
		if localFoodTypes[t] {
			hasFood = true
		}
		if t == touristType {
			hasTourist = true
		}
	}
	switch {
	case hasTourist:
		score -= 0.1
		negatives = append(negatives, "listed as a tourist attraction")
	case hasFood:
		score += 0.2
		positives = append(positives, "everyday local venue type")
	}

	if place.Rating > 0 && place.RatingCount > 0 {
		volume := float64(place.RatingCount) / 100
		if volume > 1 {
			volume = 1
		}
		score += 0.2 * (float64(place.Rating) / 5) * volume
		positives = append(positives, fmt.Sprintf("rated %.1f across %d reviews", place.Rating, place.RatingCount))
	}

	score = clamp(score)
	return &models.AuthenticityAssessment{
		Score:         score,
		Badge:         BadgeFor(score),
		Signals:       append(positives, negatives...),
		Summary:       summarize(score, len(positives), len(negatives)),
		ReviewWarning: warning,
	}
}

// priceDelta scales up to +0.2 inversely with price level; an unknown
// level contributes a neutral half.
func priceDelta(priceLevel int, positives *[]string) float64 {
	if priceLevel <= 0 {
		return 0.1
	}
	if priceLevel > 4 {
		priceLevel = 4
	}
	delta := 0.2 * float64(4-priceLevel) / 3
	if priceLevel <= 2 {
		*positives = append(*positives, "budget-friendly pricing")
	}
	return delta
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func summarize(score float64, positives, negatives int) string {
	var band string
	switch {
	case score >= 0.8:
		band = "A standout local spot"
	case score >= 0.65:
		band = "A solid local choice"
	case score >= 0.45:
		band = "A reasonable stop"
	case score >= 0.25:
		band = "Leans toward the tourist trail"
	default:
		band = "Shows strong tourist-trap signals"
	}
	switch {
	case positives > negatives:
		return band + ", with mostly positive signals"
	case negatives > positives:
		return band + ", with several concerning signals"
	default:
		return band + ", with mixed signals"
	}
}

func reviewWarning(report models.CredibilityReport) string {
	ratio := report.SuspiciousRatio()
	count := len(report.Suspicious)
	if ratio <= 0.4 && count < 3 {
		return ""
	}
	if ratio > 0.6 {
		return "Many reviews appear inauthentic, proceed with caution"
	}
	return "Some reviews show low-credibility patterns"
}

// IsStrongWarning distinguishes the caution-tier review warning.
func IsStrongWarning(warning string) bool {
	return strings.Contains(warning, "proceed with caution")
}
