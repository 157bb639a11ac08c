package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NPSClient talks to the National Park Service API: the highest-priority
// source for parks and campgrounds.
type NPSClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      Cache
}

func NewNPSClient(httpClient *http.Client, baseURL, apiKey string, cache Cache) *NPSClient {
	return &NPSClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, cache: cache}
}

type npsPark struct {
	ID          string `json:"id"`
	ParkCode    string `json:"parkCode"`
	FullName    string `json:"fullName"`
	Designation string `json:"designation"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type npsCampground struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
	ReservationURL string `json:"reservationUrl"`
	Images         []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type npsPage[T any] struct {
	Total string `json:"total"`
	Data  []T    `json:"data"`
}

// FetchParks returns the NPS parks for a state mapped into registry records.
func (c *NPSClient) FetchParks(ctx context.Context, stateCode string) ([]Park, error) {
	raw, err := fetchNPSPages[npsPark](ctx, c, "parks", stateCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	parks := make([]Park, 0, len(raw))
	for _, np := range raw {
		p := Park{
			ID:          np.ParkCode,
			Name:        np.FullName,
			StateCode:   stateCode,
			Designation: np.Designation,
			DataSource:  SourceNPS,
			LastUpdated: now,
		}
		if np.ParkCode == "" {
			p.ID = slugify(stateCode, np.FullName)
		}
		if coord := parseCoordinate(np.Latitude, np.Longitude); coord != nil {
			p.Coordinates = coord
		}
		if np.URL != "" {
			p.OfficialURL = strptr(np.URL)
		}
		if np.Description != "" {
			p.Description = strptr(np.Description)
		}
		if len(np.Images) > 0 && np.Images[0].URL != "" {
			p.ImageURL = strptr(np.Images[0].URL)
		}
		parks = append(parks, p)
	}
	return parks, nil
}

// FetchCampgrounds returns the NPS campgrounds for a state as unified
// facility records.
func (c *NPSClient) FetchCampgrounds(ctx context.Context, stateCode string) ([]Campground, error) {
	raw, err := fetchNPSPages[npsCampground](ctx, c, "campgrounds", stateCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	campgrounds := make([]Campground, 0, len(raw))
	for _, nc := range raw {
		cg := Campground{
			ID:          "nps-" + nc.ID,
			Name:        nc.Name,
			StateCode:   stateCode,
			DataSource:  SourceNPS,
			LastUpdated: now,
		}
		if coord := parseCoordinate(nc.Latitude, nc.Longitude); coord != nil {
			cg.Coordinates = coord
		}
		if nc.ReservationURL != "" {
			cg.Reservable = true
			cg.ReservationURL = strptr(nc.ReservationURL)
		}
		for _, img := range nc.Images {
			if img.URL != "" {
				cg.Photos = append(cg.Photos, img.URL)
			}
		}
		campgrounds = append(campgrounds, cg)
	}
	return campgrounds, nil
}

func fetchNPSPages[T any](ctx context.Context, c *NPSClient, resource, stateCode string) ([]T, error) {
	logger := slog.With("resource", resource, "state", stateCode)
	const limit = 50

	var all []T
	for start := 0; ; start += limit {
		body, err := c.get(ctx, resource, url.Values{
			"stateCode": {stateCode},
			"limit":     {strconv.Itoa(limit)},
			"start":     {strconv.Itoa(start)},
		})
		if err != nil {
			return nil, err
		}

		var page npsPage[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode NPS %s response: %w", resource, err)
		}

		all = append(all, page.Data...)
		total, _ := strconv.Atoi(page.Total)
		if len(page.Data) < limit || (total > 0 && len(all) >= total) {
			break
		}
	}

	logger.Debug("NPS fetch complete", "records", len(all))
	return all, nil
}

func (c *NPSClient) get(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	reqURL := strings.TrimSuffix(c.baseURL, "/") + "/" + resource + "?" + params.Encode()

	if cached, ok := c.cache.Get(reqURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
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
		return nil, newUpstreamError(resp.StatusCode, reqURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.Set(reqURL, body)
	return body, nil
}

// parseCoordinate converts the NPS string lat/lon pair, rejecting the 0,0
// placeholder some records carry.
func parseCoordinate(latStr, lonStr string) *Coordinate {
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if lat == 0 && lon == 0 {
		return nil
	}
	return &Coordinate{Lat: lat, Lon: lon}
}
