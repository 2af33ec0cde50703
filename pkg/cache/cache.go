// Package cache implements the two-tier lookup cache: a bounded in-memory
// tier in front of a durable store, keyed by a content hash of a normalized
// request signature. Entries expire by TTL; the memory tier evicts the
// oldest-inserted entry on overflow (insertion order, not LRU).
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DurableStore is the persistent second tier. Implementations must return
// (nil, zero, nil) on a miss; errors are treated as misses by the service so
// a cold-start environment without the backing table cannot crash lookups.
type DurableStore interface {
	GetEntry(ctx context.Context, key string) (value []byte, expiresAt time.Time, err error)
	PutEntry(ctx context.Context, key string, value []byte, expiresAt time.Time) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Service is constructed once at process start and passed by reference; it
// replaces the module-level maps of the original design with an explicit
// object carrying an injected clock.
type Service struct {
	capacity int
	durable  DurableStore
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
	order   []string // insertion order for eviction
}

func New(capacity int, durable DurableStore) *Service {
	return NewWithClock(capacity, durable, time.Now)
}

func NewWithClock(capacity int, durable DurableStore, now func() time.Time) *Service {
	if capacity <= 0 {
		capacity = 500
	}
	return &Service{
		capacity: capacity,
		durable:  durable,
		now:      now,
		entries:  make(map[string]memoryEntry),
	}
}

// Get checks memory first, then the durable tier, promoting durable hits
// into memory. An entry is never returned past its expiry.
func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok {
		if s.now().Before(e.expiresAt) {
			s.mu.Unlock()
			return e.value, true
		}
		s.remove(key)
	}
	s.mu.Unlock()

	if s.durable == nil {
		return nil, false
	}
	value, expiresAt, err := s.durable.GetEntry(ctx, key)
	if err != nil || value == nil {
		// Durable failures (missing table, connectivity) degrade to a miss.
		return nil, false
	}
	if !s.now().Before(expiresAt) {
		return nil, false
	}
	s.mu.Lock()
	s.insert(key, memoryEntry{value: value, expiresAt: expiresAt})
	s.mu.Unlock()
	return value, true
}

// Put writes both tiers with a TTL-derived expiry. Durable write failures
// are swallowed: the memory tier still serves the current process.
func (s *Service) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	expiresAt := s.now().Add(ttl)
	s.mu.Lock()
	s.insert(key, memoryEntry{value: value, expiresAt: expiresAt})
	s.mu.Unlock()
	if s.durable != nil {
		_ = s.durable.PutEntry(ctx, key, value, expiresAt)
	}
}

// Len returns the memory-tier size.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Service) insert(key string, e memoryEntry) {
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = e

	for len(s.entries) > s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

func (s *Service) remove(key string) {
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Key hashes a (kind, normalized input) signature. Query text is lower-cased
// and whitespace-collapsed so cosmetic variations share an entry.
func Key(kind, input string) string {
	sig := kind + "|" + normalize(input)
	sum := md5.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}

// GeoKey adds a location bias rounded to ~100m so nearby biases share an
// entry without materially changing result relevance.
func GeoKey(kind, input string, lat, lng float64) string {
	sig := fmt.Sprintf("%s|%s|%.3f,%.3f", kind, normalize(input), lat, lng)
	sum := md5.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
