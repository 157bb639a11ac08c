package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
)

// GISGeometry is the geometry fragment of a state feed feature: either a
// polyline (paths of [lon, lat] vertices) or a single point.
type GISGeometry struct {
	Paths [][][]float64 `json:"paths,omitempty"`
	X     *float64      `json:"x,omitempty"`
	Y     *float64      `json:"y,omitempty"`
}

// GISFeature is one raw record from a state GIS trail feed. Attribute names
// vary per state; the consolidator resolves them through candidate lists.
type GISFeature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *GISGeometry   `json:"geometry,omitempty"`
}

type gisPage struct {
	Features              []GISFeature `json:"features"`
	ExceededTransferLimit bool         `json:"exceededTransferLimit"`
}

// GISFeedClient fetches per-state trail extracts from ArcGIS-style feature
// services, paginated by offset/count.
type GISFeedClient struct {
	httpClient *http.Client
	feeds      map[string]string
	pageSize   int
}

// NewGISFeedClient creates a feed client from a state-to-endpoint map.
func NewGISFeedClient(httpClient *http.Client, feeds map[string]string) *GISFeedClient {
	return &GISFeedClient{httpClient: httpClient, feeds: feeds, pageSize: 1000}
}

// LoadGISFeeds reads the state-to-feed-endpoint map from a JSON data file.
func LoadGISFeeds(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GIS feed registry: %w", err)
	}
	var feeds map[string]string
	if err := json.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("failed to parse GIS feed registry: %w", err)
	}
	return feeds, nil
}

// FetchStateTrails pulls every raw segment feature for a state, walking the
// feed's offset pagination until a short page comes back.
func (c *GISFeedClient) FetchStateTrails(ctx context.Context, stateCode string) ([]GISFeature, error) {
	feedURL, ok := c.feeds[stateCode]
	if !ok {
		return nil, fmt.Errorf("no GIS feed configured for state %s", stateCode)
	}

	logger := slog.With("state", stateCode)
	var features []GISFeature
	offset := 0

	for {
		page, err := c.fetchPage(ctx, feedURL, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed page at offset %d: %w", offset, err)
		}

		features = append(features, page.Features...)
		logger.Debug("feed page fetched", "offset", offset, "features", len(page.Features))

		if len(page.Features) < c.pageSize && !page.ExceededTransferLimit {
			break
		}
		offset += len(page.Features)
		if len(page.Features) == 0 {
			break
		}
	}

	logger.Info("state feed fetched", "total_features", len(features))
	return features, nil
}

func (c *GISFeedClient) fetchPage(ctx context.Context, feedURL string, offset int) (*gisPage, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url: %w", err)
	}

	q := u.Query()
	q.Set("f", "json")
	q.Set("where", "1=1")
	q.Set("outFields", "*")
	q.Set("resultOffset", fmt.Sprintf("%d", offset))
	q.Set("resultRecordCount", fmt.Sprintf("%d", c.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, newUpstreamError(resp.StatusCode, u.String())
	}

	var page gisPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}
	return &page, nil
}
