package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// OverpassElement is one element of a community-map tag query result. Only
// tags are requested; nodes carry lat/lon directly and ways a center point.
type OverpassElement struct {
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags"`
}

// Coordinate returns the element's point: its own position for nodes, the
// computed center for ways and relations.
func (el *OverpassElement) Coordinate() *Coordinate {
	if el.Center != nil {
		return &Coordinate{Lat: el.Center.Lat, Lon: el.Center.Lon}
	}
	if el.Lat != 0 || el.Lon != 0 {
		return &Coordinate{Lat: el.Lat, Lon: el.Lon}
	}
	return nil
}

type overpassResponse struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassClient issues bbox-scoped, tag-only queries against a community
// mapping query service. Callers own pacing and the 429/504 handling.
type OverpassClient struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
}

func NewOverpassClient(httpClient *http.Client, baseURL string, cache Cache) *OverpassClient {
	return &OverpassClient{httpClient: httpClient, baseURL: baseURL, cache: cache}
}

// QueryTrailTags fetches the tags of named hiking ways inside one grid cell.
func (c *OverpassClient) QueryTrailTags(ctx context.Context, cell orb.Bound) ([]OverpassElement, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:25];way[highway~"path|footway|track"]["name"](%s);out tags;`,
		bboxClause(cell),
	)
	return c.run(ctx, query)
}

// QueryCampgrounds fetches campground nodes and ways inside one grid cell.
func (c *OverpassClient) QueryCampgrounds(ctx context.Context, cell orb.Bound) ([]OverpassElement, error) {
	query := fmt.Sprintf(
		`[out:json][timeout:25];nwr["tourism"="camp_site"](%s);out tags center;`,
		bboxClause(cell),
	)
	return c.run(ctx, query)
}

// bboxClause renders a bound as the service's south,west,north,east form.
func bboxClause(b orb.Bound) string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
}

func (c *OverpassClient) run(ctx context.Context, query string) ([]OverpassElement, error) {
	if cached, ok := c.cache.Get(query); ok {
		var resp overpassResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			return resp.Elements, nil
		}
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, newUpstreamError(resp.StatusCode, c.baseURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tag query response: %w", err)
	}

	c.cache.Set(query, body)
	return parsed.Elements, nil
}

// OSMCampgrounds maps raw camp-site elements into unified facility records.
// Elements without a name are kept under a synthetic name so coordinate
// deduplication can still fold them into higher-priority records.
func OSMCampgrounds(elements []OverpassElement, stateCode string) []Campground {
	now := time.Now().UTC()
	var campgrounds []Campground

	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("Campground %d", el.ID)
		}

		cg := Campground{
			ID:          fmt.Sprintf("osm-%d", el.ID),
			Name:        name,
			StateCode:   stateCode,
			DataSource:  SourceOSM,
			LastUpdated: now,
		}
		cg.Coordinates = el.Coordinate()
		if site := el.Tags["reservation"]; site == "yes" || site == "required" {
			cg.Reservable = true
		}
		if img := el.Tags["image"]; img != "" {
			cg.Photos = append(cg.Photos, img)
		}
		campgrounds = append(campgrounds, cg)
	}

	return campgrounds
}
