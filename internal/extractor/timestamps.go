package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/pkg/vntext"
)

// timestampLineRe matches chapter-style lines: "0:54 Mỳ Quảng Nhung",
// "1:02:30 Bánh xèo alley". Leading list bullets are tolerated.
var timestampLineRe = regexp.MustCompile(`^[\s\-–•*]*(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s+(.+)$`)

// sectionMarkers are chapter names that are video structure, not venues.
// Compared against the folded name prefix.
var sectionMarkers = []string{
	"intro", "outro", "credits", "subscribe", "giveaway",
	"recap", "summary", "bloopers", "conclusion", "thanks for watching",
}

// dishNames is the fixed set of dish substrings recognized in chapter
// names, folded form. Matching is diacritic-insensitive; the tagged dish
// keeps the chapter's original spelling. Longer entries first so "bun bo
// hue" wins over "bun bo".
var dishNames = []string{
	"bun bo hue", "banh trang nuong", "banh canh cua",
	"mi quang", "my quang", "banh xeo", "banh mi", "banh cuon", "banh canh",
	"bun cha", "bun bo", "bun rieu", "bun thit nuong", "bun mam",
	"com tam", "com ga", "cao lau", "hu tieu", "goi cuon", "nem lui",
	"banh beo", "banh nam", "banh loc", "xoi ga", "chao long",
	"pho bo", "pho ga", "pho", "che", "oc",
}

// extractTimestampMentions runs the cheap chapter-list pass over the video
// description. Any hit means the description already enumerates the venues
// and no model call is needed.
func extractTimestampMentions(description string) []models.RestaurantMention {
	var mentions []models.RestaurantMention
	for _, line := range strings.Split(description, "\n") {
		m := timestampLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[4])
		if name == "" || isSectionMarker(name) {
			continue
		}

		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])

		mention := models.RestaurantMention{
			Name:         name,
			TimestampSec: hours*3600 + minutes*60 + seconds,
		}
		if dish, ok := dishFromName(name); ok {
			mention.Dishes = []string{dish}
		}
		mentions = append(mentions, mention)
	}
	return mentions
}

func isSectionMarker(name string) bool {
	folded := vntext.Fold(name)
	for _, marker := range sectionMarkers {
		if strings.HasPrefix(folded, marker) {
			return true
		}
	}
	return false
}

// dishFromName finds a known dish substring in a chapter name and returns
// it in the chapter's original spelling.
func dishFromName(name string) (string, bool) {
	orig := []rune(name)
	folded := []rune(vntext.Fold(name))
	for _, dish := range dishNames {
		if i := indexRunes(folded, []rune(dish)); i >= 0 {
			return string(orig[i : i+len([]rune(dish))]), true
		}
	}
	return "", false
}

// indexRunes finds needle in haystack at a word boundary on both sides, so
// "pho" does not tag "phone" or "telephoto".
func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if !runesEqual(haystack[i:i+len(needle)], needle) {
			continue
		}
		if i > 0 && isWordRune(haystack[i-1]) {
			continue
		}
		if end := i + len(needle); end < len(haystack) && isWordRune(haystack[end]) {
			continue
		}
		return i
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}
