package main

import "time"

// Source identifiers, ranked for deduplication. When two sources describe the
// same physical feature the higher-priority source wins.
const (
	SourceNPS  = "nps"
	SourceRIDB = "ridb"
	SourceOSM  = "openstreetmap"
)

var sourcePriority = map[string]int{
	SourceNPS:  3,
	SourceRIDB: 2,
	SourceOSM:  1,
}

// Coordinate is a WGS84 decimal-degree point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NearbyPark is a park within the nearby radius of a trail centroid.
type NearbyPark struct {
	ParkID        string  `json:"parkId"`
	ParkName      string  `json:"parkName"`
	DistanceMiles float64 `json:"distanceMiles"`
}

// TrailSegment is a single raw geometry fragment from a state GIS feed. It is
// never persisted; the consolidator consumes it entirely.
type TrailSegment struct {
	RecordID    string
	Name        string
	LengthMiles float64
	County      string
	Surface     string
	TrailType   string
	URL         string
	// Polyline vertices in [lon, lat] order, empty for point features.
	Path  [][]float64
	Point *Coordinate
}

// Trail is a logical trail entity consolidated from one or more segments.
type Trail struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ParkID      string       `json:"parkId"`
	ParkName    string       `json:"parkName"`
	StateCode   string       `json:"stateCode"`
	LengthMiles *float64     `json:"lengthMiles,omitempty"`
	Difficulty  *string      `json:"difficulty,omitempty"`
	TrailType   *string      `json:"trailType,omitempty"`
	SurfaceType *string      `json:"surfaceType,omitempty"`
	County      *string      `json:"county,omitempty"`
	Description *string      `json:"description,omitempty"`
	URL         *string      `json:"url,omitempty"`
	Trailhead   *Coordinate  `json:"trailheadCoordinates,omitempty"`
	NearbyParks []NearbyPark `json:"nearbyParks"`

	// Enrichment targets. A nil field means the phase has not touched the
	// record yet; phases never overwrite a non-nil value.
	EstimatedDurationMinutes *int     `json:"estimatedDurationMinutes,omitempty"`
	Region                   *string  `json:"region,omitempty"`
	SourceID                 *string  `json:"sourceId,omitempty"`
	ElevationFeet            *int     `json:"elevationFeet,omitempty"`
	DogFriendly              *bool    `json:"dogFriendly,omitempty"`
	Season                   *string  `json:"season,omitempty"`
	Rating                   *float64 `json:"rating,omitempty"`

	DataSource  string    `json:"dataSource"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Park is a governing park from the registry.
type Park struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	StateCode   string      `json:"stateCode"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	Acres       float64     `json:"acres"`
	Designation string      `json:"designation,omitempty"`
	OfficialURL *string     `json:"officialUrl,omitempty"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	Description *string     `json:"description,omitempty"`
	DataSource  string      `json:"dataSource"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// PriceRange is the min/max of positive fees found on a facility.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Campground is a unified campground/facility record across sources.
type Campground struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	StateCode      string      `json:"stateCode"`
	Coordinates    *Coordinate `json:"coordinates,omitempty"`
	Reservable     bool        `json:"reservable"`
	ReservationURL *string     `json:"reservationUrl,omitempty"`
	Photos         []string    `json:"photos,omitempty"`
	DataSource     string      `json:"dataSource"`
	LastUpdated    time.Time   `json:"lastUpdated"`

	// Enrichment targets, nil until the facility-detail phase runs.
	Phone         *string     `json:"phone,omitempty"`
	Amenities     []string    `json:"amenities,omitempty"`
	SiteTypes     []string    `json:"siteTypes,omitempty"`
	PetFriendly   *bool       `json:"petFriendly,omitempty"`
	Prices        *PriceRange `json:"priceRange,omitempty"`
	OpenSeason    *string     `json:"openSeason,omitempty"`
	NearestParkID *string     `json:"nearestParkId,omitempty"`
	Rating        *float64    `json:"rating,omitempty"`
}

// CatalogMeta is the _meta block of a persisted state document.
type CatalogMeta struct {
	StateCode   string    `json:"stateCode"`
	StateName   string    `json:"stateName"`
	LastUpdated time.Time `json:"lastUpdated"`
	TotalParks  int       `json:"totalParks"`
	TotalTrails int       `json:"totalTrails"`
	Sources     []string  `json:"sources"`
	RunID       string    `json:"runId,omitempty"`
}

// ParkTrails groups the trails assigned to one park inside a state document.
type ParkTrails struct {
	ParkName string  `json:"parkName"`
	Trails   []Trail `json:"trails"`
}

// StateCatalog is the object-store document for one state: the source of
// truth for that state's parks and trails.
type StateCatalog struct {
	Meta  CatalogMeta            `json:"_meta"`
	Parks map[string]*ParkTrails `json:"parks"`
}

// FacilityCatalog is the object-store document holding a state's unified
// campgrounds.
type FacilityCatalog struct {
	Meta        CatalogMeta  `json:"_meta"`
	Campgrounds []Campground `json:"campgrounds"`
}

// ParkRegistry is the deduplicated park set for one state.
type ParkRegistry struct {
	Meta  CatalogMeta `json:"_meta"`
	Parks []Park      `json:"parks"`
}

// MergeStats counts what an incremental merge did. Observability only.
type MergeStats struct {
	MatchedToPark int
	Unassigned    int
	NewlyAdded    int
	Preserved     int
	SkippedNoPark int
}

// EnrichStats counts per-phase outcomes. Partial failure is expected; these
// are logged, never used for control flow.
type EnrichStats struct {
	Updated int
	Skipped int
	Errors  int
}
