package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"foodmap-video-importer/pkg/vntext"
)

// Slugify derives an object-path segment from a collection title: fold
// diacritics, lower-case, collapse everything non-alphanumeric to single
// hyphens, and truncate to 50 characters.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range vntext.Fold(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}
	if slug == "" {
		slug = "collection"
	}
	return slug
}

// ShortPlaceID derives a stable short identifier from an external place id,
// used to group a place's photos within a collection folder.
func ShortPlaceID(placeID string) string {
	sum := md5.Sum([]byte(placeID))
	return hex.EncodeToString(sum[:])[:8]
}

// PhotoPath builds the canonical object path for one gallery photo.
func PhotoPath(collectionSlug, shortPlaceID string, variant int) string {
	return fmt.Sprintf("%s/%s-%d.jpg", collectionSlug, shortPlaceID, variant)
}

// PhotoPrefix is the path prefix shared by all of a place's photos in a
// collection; used for stale-gallery cleanup.
func PhotoPrefix(collectionSlug, shortPlaceID string) string {
	return fmt.Sprintf("%s/%s-", collectionSlug, shortPlaceID)
}
