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
	"time"
)

// RIDBClient talks to the federal recreation-facility API. The API is
// rate-limited and cannot be queried in bulk, so enrichment walks it one
// facility at a time.
type RIDBClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      Cache
}

func NewRIDBClient(httpClient *http.Client, baseURL, apiKey string, cache Cache) *RIDBClient {
	return &RIDBClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, cache: cache}
}

type ridbFacility struct {
	FacilityID        string  `json:"FacilityID"`
	FacilityName      string  `json:"FacilityName"`
	FacilityLatitude  float64 `json:"FacilityLatitude"`
	FacilityLongitude float64 `json:"FacilityLongitude"`
	Reservable        bool    `json:"Reservable"`
	MEDIA             []struct {
		URL string `json:"URL"`
	} `json:"MEDIA"`
}

// FacilityDetail is the per-facility detail document.
type FacilityDetail struct {
	FacilityID          string `json:"FacilityID"`
	FacilityPhone       string `json:"FacilityPhone"`
	FacilityDescription string `json:"FacilityDescription"`
	Activities          []struct {
		ActivityName string `json:"ActivityName"`
	} `json:"ACTIVITY"`
	Campsites []struct {
		CampsiteID string `json:"CampsiteID"`
	} `json:"CAMPSITE"`
	PermitEntrances []struct {
		PermitEntranceID string `json:"PermitEntranceID"`
	} `json:"PERMITENTRANCE"`
}

// CampsiteAttribute is a structured key/value pair on a campsite.
type CampsiteAttribute struct {
	AttributeName  string `json:"AttributeName"`
	AttributeValue string `json:"AttributeValue"`
}

// CampsiteFee is one fee schedule entry on a campsite.
type CampsiteFee struct {
	FeeDescription string  `json:"FeeDescription"`
	FeeAmount      float64 `json:"FeeAmount"`
}

// FacilityCampsite is one entry of the campsite sub-resource.
type FacilityCampsite struct {
	CampsiteID   string              `json:"CampsiteID"`
	CampsiteType string              `json:"CampsiteType"`
	Attributes   []CampsiteAttribute `json:"ATTRIBUTES"`
	Fees         []CampsiteFee       `json:"FEE"`
}

type ridbPage[T any] struct {
	RecData  []T `json:"RECDATA"`
	Metadata struct {
		Results struct {
			TotalCount int `json:"TOTAL_COUNT"`
		} `json:"RESULTS"`
	} `json:"METADATA"`
}

// FetchFacilities returns a state's campground facilities as unified records.
// Facility ids carry the "ridb-" prefix; the computed-field enrichment phase
// strips it back off for sourceId.
func (c *RIDBClient) FetchFacilities(ctx context.Context, stateCode string) ([]Campground, error) {
	logger := slog.With("state", stateCode)
	const limit = 50

	var raw []ridbFacility
	for offset := 0; ; offset += limit {
		body, err := c.get(ctx, "facilities", url.Values{
			"state":    {stateCode},
			"activity": {"CAMPING"},
			"limit":    {strconv.Itoa(limit)},
			"offset":   {strconv.Itoa(offset)},
		})
		if err != nil {
			return nil, err
		}

		var page ridbPage[ridbFacility]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode facility page: %w", err)
		}

		raw = append(raw, page.RecData...)
		if len(page.RecData) < limit || len(raw) >= page.Metadata.Results.TotalCount {
			break
		}
	}

	now := time.Now().UTC()
	campgrounds := make([]Campground, 0, len(raw))
	for _, f := range raw {
		cg := Campground{
			ID:          "ridb-" + f.FacilityID,
			Name:        f.FacilityName,
			StateCode:   stateCode,
			Reservable:  f.Reservable,
			DataSource:  SourceRIDB,
			LastUpdated: now,
		}
		if f.FacilityLatitude != 0 || f.FacilityLongitude != 0 {
			cg.Coordinates = &Coordinate{Lat: f.FacilityLatitude, Lon: f.FacilityLongitude}
		}
		if f.Reservable {
			cg.ReservationURL = strptr("https://www.recreation.gov/camping/campgrounds/" + f.FacilityID)
		}
		for _, m := range f.MEDIA {
			if m.URL != "" {
				cg.Photos = append(cg.Photos, m.URL)
			}
		}
		campgrounds = append(campgrounds, cg)
	}

	logger.Info("RIDB facilities fetched", "count", len(campgrounds))
	return campgrounds, nil
}

// FetchFacilityDetail returns the detail document for one facility.
func (c *RIDBClient) FetchFacilityDetail(ctx context.Context, facilityID string) (*FacilityDetail, error) {
	body, err := c.get(ctx, "facilities/"+facilityID, url.Values{"full": {"true"}})
	if err != nil {
		return nil, err
	}

	var detail FacilityDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode facility detail: %w", err)
	}
	return &detail, nil
}

// FetchCampsites returns the campsite sub-resource for one facility.
func (c *RIDBClient) FetchCampsites(ctx context.Context, facilityID string) ([]FacilityCampsite, error) {
	body, err := c.get(ctx, "facilities/"+facilityID+"/campsites", url.Values{"limit": {"50"}})
	if err != nil {
		return nil, err
	}

	var page ridbPage[FacilityCampsite]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode campsites: %w", err)
	}
	return page.RecData, nil
}

func (c *RIDBClient) get(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "/" + resource + "?" + params.Encode()

	if cached, ok := c.cache.Get(reqURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)

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
