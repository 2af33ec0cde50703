// Package storage abstracts the object store used for restaurant gallery
// photos. Paths follow the {collectionSlug}/{shortPlaceID}-{variant}.jpg
// convention so a place's photos can be replaced as a group.
package storage

import "context"

type Storage interface {
	// Upload writes an object and returns its public URL.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	// DeleteByPrefix removes every object whose path starts with prefix;
	// used to clear a place's stale gallery before reprocessing.
	DeleteByPrefix(ctx context.Context, prefix string) error
}
