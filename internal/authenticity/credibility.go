// Package authenticity derives a 5-level authenticity badge and a review
// credibility assessment from a verified place's directory signals. Both
// are pure functions: recomputed on demand, never persisted as entities.
package authenticity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/pkg/vntext"
)

// Flag names emitted by the credibility filter. Downstream consumers and
// tests match on these exact strings.
const (
	FlagTooShort       = "too_short"
	FlagGenericPhrase  = "generic_phrase"
	FlagEmojiOnly      = "emoji_only"
	FlagSuperlatives   = "superlative_overload"
	FlagExtremeRating  = "extreme_rating_short_text"
	FlagRepetitive     = "repetitive"
	FlagNoSpecifics    = "no_specifics"
)

// stockPhrases are canned praise lines in English and Vietnamese. A short
// review whose entire text is one of these carries no information.
var stockPhrases = map[string]bool{
	"great place":       true,
	"nice place":        true,
	"good place":        true,
	"good food":         true,
	"great food":        true,
	"nice food":         true,
	"delicious":         true,
	"very good":         true,
	"highly recommend":  true,
	"highly recommended": true,
	"must try":          true,
	"love it":           true,
	"loved it":          true,
	"best ever":         true,
	"amazing":           true,
	"awesome":           true,
	"perfect":           true,
	"excellent":         true,
	"ngon":              true,
	"rat ngon":          true,
	"ngon lam":          true,
	"qua ngon":          true,
	"tuyet voi":         true,
	"rat tuyet":         true,
	"dang thu":          true,
	"qua tuyet":         true,
}

var superlatives = []string{
	"best", "amazing", "awesome", "incredible", "perfect", "phenomenal",
	"outstanding", "unbelievable", "fantastic", "greatest",
	"nhat", "tuyet voi", "dinh cao", "so mot",
}

// specificTerms name food or experience details in either language. A
// longer review mentioning none of them reads like filler.
var specificTerms = []string{
	// food
	"pho", "bun", "banh", "com", "mi", "chao", "goi", "nem", "che", "xoi",
	"noodle", "soup", "rice", "chicken", "pork", "beef", "seafood", "shrimp",
	"fish", "tofu", "broth", "sauce", "spring roll", "coffee", "tea", "beer",
	"ga", "bo", "heo", "tom", "ca", "rau", "nuoc",
	// experience
	"service", "staff", "waiter", "menu", "dish", "flavor", "flavour",
	"taste", "price", "portion", "atmosphere", "seating", "table", "wait",
	"queue", "clean", "fresh", "spicy", "sweet", "crispy",
	"phuc vu", "nhan vien", "gia", "mon", "khong gian", "sach", "tuoi", "cay",
}

// FilterReviews applies the per-review suspicion flags. Any flag makes a
// review non-credible; the exact flag list is preserved for reporting.
func FilterReviews(reviews []models.Review) models.CredibilityReport {
	report := models.CredibilityReport{TotalReviews: len(reviews)}
	for _, rev := range reviews {
		flags := flagReview(rev)
		if len(flags) == 0 {
			report.CredibleReviews = append(report.CredibleReviews, rev)
		} else {
			report.Suspicious = append(report.Suspicious, models.FlaggedReview{Review: rev, Flags: flags})
		}
	}
	return report
}

func flagReview(rev models.Review) []string {
	var flags []string
	text := strings.TrimSpace(rev.Text)
	runes := utf8.RuneCountInString(text)
	folded := vntext.Fold(text)

	if runes < 20 {
		flags = append(flags, FlagTooShort)
	}
	if runes < 40 && isStockPhrase(folded) {
		flags = append(flags, FlagGenericPhrase)
	}
	if isEmojiOnly(text) {
		flags = append(flags, FlagEmojiOnly)
	}
	if runes < 100 && countSuperlatives(folded) >= 3 {
		flags = append(flags, FlagSuperlatives)
	}
	if (rev.Rating == 1 || rev.Rating == 5) && runes < 50 {
		flags = append(flags, FlagExtremeRating)
	}
	if words := strings.Fields(folded); len(words) > 5 {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[w] = true
		}
		if float64(len(unique))/float64(len(words)) < 0.5 {
			flags = append(flags, FlagRepetitive)
		}
	}
	if runes >= 30 && !mentionsSpecifics(folded) {
		flags = append(flags, FlagNoSpecifics)
	}
	return flags
}

// isStockPhrase strips emoji and punctuation, then checks whether the
// entire remaining text is one canned phrase.
func isStockPhrase(folded string) bool {
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	return cleaned != "" && stockPhrases[cleaned]
}

func isEmojiOnly(text string) bool {
	seen := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if !isEmojiRune(r) {
			return false
		}
		seen = true
	}
	return seen
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0xFE0F || r == 0x200D: // variation selector, ZWJ
		return true
	case r >= 0x1F1E6 && r <= 0x1F1FF: // flags
		return true
	default:
		return false
	}
}

func countSuperlatives(folded string) int {
	n := 0
	for _, s := range superlatives {
		n += strings.Count(folded, s)
	}
	return n
}

func mentionsSpecifics(folded string) bool {
	padded := " " + folded + " "
	for _, term := range specificTerms {
		if len([]rune(term)) <= 3 {
			// short terms need word boundaries so "ga" won't match "garden"
			if strings.Contains(padded, " "+term+" ") {
				return true
			}
			continue
		}
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}
