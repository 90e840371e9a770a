package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/himalayatravels/tour-booking-backend/internal/models"
	"github.com/himalayatravels/tour-booking-backend/pkg/tourapi"
)

// TourAPI is the outbound catalog client used by the catalog service.
type TourAPI interface {
	ListTours(ctx context.Context) ([]tourapi.Record, error)
}

// TourCache holds the normalized package list. Fetch replaces the whole
// slice, so a lost race between two concurrent populations only causes
// redundant work, never inconsistency. Never invalidated automatically.
type TourCache struct {
	mu        sync.RWMutex
	packages  []models.TourPackage
	populated bool
}

// NewTourCache creates an empty cache.
func NewTourCache() *TourCache {
	return &TourCache{}
}

// Get returns the cached packages and whether the cache is populated.
func (c *TourCache) Get() ([]models.TourPackage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.packages, c.populated
}

// Set replaces the cached package list.
func (c *TourCache) Set(packages []models.TourPackage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages = packages
	c.populated = true
}

// Invalidate empties the cache; the next read triggers a fresh fetch.
func (c *TourCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages = nil
	c.populated = false
}

// CatalogService normalizes raw catalog records into canonical tour
// packages and serves them cache-first.
type CatalogService struct {
	api    TourAPI
	cache  *TourCache
	logger *logrus.Logger
}

// NewCatalogService creates a catalog service. A nil cache gets a fresh one.
func NewCatalogService(api TourAPI, cache *TourCache, logger *logrus.Logger) *CatalogService {
	if cache == nil {
		cache = NewTourCache()
	}
	return &CatalogService{api: api, cache: cache, logger: logger}
}

// FetchTourPackages fetches the catalog, transforms every record and
// replaces the cache. Transport and decode failures are logged and swallowed
// into an empty result: an empty catalog is a valid, if degraded, state.
// Empty responses are returned without caching.
func (s *CatalogService) FetchTourPackages(ctx context.Context) []models.TourPackage {
	records, err := s.api.ListTours(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch tour packages")
		return []models.TourPackage{}
	}

	if len(records) == 0 {
		s.logger.Warn("Catalog endpoint returned no tour packages")
		return []models.TourPackage{}
	}

	packages := make([]models.TourPackage, 0, len(records))
	for _, record := range records {
		packages = append(packages, TransformRecord(record))
	}

	s.cache.Set(packages)
	s.logger.WithField("count", len(packages)).Info("Tour packages fetched and cached")
	return packages
}

// GetTourPackages returns the cached packages, fetching on a cold cache.
// Two callers racing before the first fetch completes both fetch; the
// transform is idempotent, so the duplicate work is accepted.
func (s *CatalogService) GetTourPackages(ctx context.Context) []models.TourPackage {
	if cached, ok := s.cache.Get(); ok {
		return cached
	}
	return s.FetchTourPackages(ctx)
}

// GetTourByID returns the first package with the given id, or
// models.ErrTourNotFound.
func (s *CatalogService) GetTourByID(ctx context.Context, id int) (*models.TourPackage, error) {
	for _, pkg := range s.GetTourPackages(ctx) {
		if pkg.ID == id {
			found := pkg
			return &found, nil
		}
	}
	return nil, models.ErrTourNotFound
}

// Refresh drops the cache and fetches the catalog again.
func (s *CatalogService) Refresh(ctx context.Context) []models.TourPackage {
	s.cache.Invalidate()
	return s.FetchTourPackages(ctx)
}

// TransformRecord normalizes a raw catalog record into a canonical
// TourPackage. Field resolution is first-non-empty-wins across the known
// synonym spellings; every field gets a safe default, so transformation is
// total and never fails.
func TransformRecord(record tourapi.Record) models.TourPackage {
	return models.TourPackage{
		ID:          intField(record, "id", "package_id"),
		Title:       stringField(record, "Untitled Tour", "name", "title"),
		Description: stringField(record, "", "description"),
		Duration:    stringField(record, "N/A", "duration"),
		GroupSize:   stringField(record, "N/A", "group_size", "groupSize"),
		Price:       numberField(record, "price"),
		Image:       stringField(record, "", "cover_image", "image_url", "image"),
		Highlights:  listField(record, "tours", "tour_highlights", "highlights"),
		Itinerary:   listField(record, "tour_details", "details", "itinerary"),
		Included:    listField(record, "included"),
		Excluded:    listField(record, "excluded"),
	}
}

// ParseStringList turns a field value into an ordered list of strings.
// Priority order matters: a JSON-looking string must not be comma or
// newline split, and a string containing both delimiters prefers newlines.
//
//  1. absent/empty input -> empty list
//  2. already a list -> returned unchanged (elements coerced to strings)
//  3. string decoding as a JSON array -> decoded elements
//  4. string containing a newline -> split on newlines, trimmed, empties dropped
//  5. string containing a comma -> split on commas, trimmed, empties dropped
//  6. anything else -> single-element list with the original string
func ParseStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		return coerceElements(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}
		}

		var decoded []any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil && decoded != nil {
			return coerceElements(decoded)
		}

		if strings.Contains(trimmed, "\n") {
			return splitAndTrim(trimmed, "\n")
		}
		if strings.Contains(trimmed, ",") {
			return splitAndTrim(trimmed, ",")
		}
		return []string{v}
	default:
		return []string{coerceString(value)}
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// coerceElements renders every decoded JSON element as a string. Non-string
// elements are kept, not rejected: the adapter's contract is totality.
func coerceElements(values []any) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		result = append(result, coerceString(v))
	}
	return result
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// stringField resolves the first key with a non-empty value, coerced to a
// string, falling back to def.
func stringField(record tourapi.Record, def string, keys ...string) string {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if s := coerceString(value); s != "" {
				return s
			}
		}
	}
	return def
}

// numberField resolves the first key holding a usable number. Numeric
// strings are accepted; absent or falsy values yield 0.
func numberField(record tourapi.Record, keys ...string) float64 {
	for _, key := range keys {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

func intField(record tourapi.Record, keys ...string) int {
	return int(numberField(record, keys...))
}

// listField resolves the first key that is present with a non-empty value
// and runs it through ParseStringList.
func listField(record tourapi.Record, keys ...string) []string {
	for _, key := range keys {
		value, ok := record[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		if parsed := ParseStringList(value); len(parsed) > 0 {
			return parsed
		}
	}
	return []string{}
}
