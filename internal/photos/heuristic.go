package photos

import "foodmap-video-importer/internal/models"

// HeuristicScore rates a photo from its dimensions alone: portrait and
// square frames are usually plated food, wide panoramas are usually
// storefronts. Base 50, adjusted by aspect ratio and absolute width.
func HeuristicScore(ref models.PhotoRef) (int, string) {
	score := 50
	category := "unknown"

	if ref.Height > 0 {
		ratio := float64(ref.Width) / float64(ref.Height)
		switch {
		case ratio <= 1.0:
			score += 20
			category = "food"
		case ratio <= 1.8:
			score += 5
		default:
			score -= 40
			category = "exterior"
		}
	}
	if ref.Width > 5000 {
		score -= 20
	}
	if ref.Width < 500 {
		score -= 20
	}
	return score, category
}
