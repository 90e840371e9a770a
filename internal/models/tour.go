package models

// TourPackage is the canonical tour record served to clients.
// Every field is guaranteed to be populated with a safe default even when the
// upstream catalog omits or renames it; only ID is assumed always valid.
type TourPackage struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	GroupSize   string   `json:"group_size"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Highlights  []string `json:"highlights"`
	Itinerary   []string `json:"itinerary"`
	Included    []string `json:"included"`
	Excluded    []string `json:"excluded"`
}

// RawTourRecord is a tour record as received from the catalog API, before
// field-name normalization. Field names vary across deployments (e.g.
// "name" vs "title", "tours" vs "tour_highlights" vs "highlights"), and
// array-valued fields may instead arrive as delimited or JSON-encoded
// strings. Never retained after transformation.
type RawTourRecord map[string]any
