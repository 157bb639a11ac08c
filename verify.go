package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StatesWithCatalogs lists the state codes that have a trail catalog
// document, so a full verification run only visits states that exist.
func StatesWithCatalogs(ctx context.Context, store *CatalogStore) ([]string, error) {
	keys, err := store.s3.ListKeys(ctx, "catalog/states/")
	if err != nil {
		return nil, err
	}

	var states []string
	for _, key := range keys {
		base := strings.TrimPrefix(key, "catalog/states/")
		code, ok := strings.CutSuffix(base, ".json")
		if !ok {
			continue
		}
		states = append(states, code)
	}
	return states, nil
}

// CatalogIntegrityReport is the result of verifying one state's documents.
type CatalogIntegrityReport struct {
	StateCode string
	OK        bool
	Problems  []string
	Parks     int
	Trails    int
	Unlinked  int // campgrounds with no nearest park
}

// Print logs the report details
func (r *CatalogIntegrityReport) Print() {
	logger := slog.With("state", r.StateCode, "parks", r.Parks, "trails", r.Trails)

	if r.OK {
		logger.Info("catalog integrity check PASSED")
	} else {
		logger.Error("catalog integrity check FAILED", "problems", len(r.Problems))
	}

	for _, p := range r.Problems {
		slog.Warn("catalog problem", "detail", p)
	}
	if r.Unlinked > 0 {
		slog.Info("campgrounds without a nearby park", "count", r.Unlinked)
	}
}

// VerifyStateCatalog checks a state's documents against the catalog's
// structural rules: well-formed trail ids, nearby-park lists sorted and
// within radius, non-negative lengths, and meta counts that match the
// document body.
func VerifyStateCatalog(ctx context.Context, store *CatalogStore, stateCode string) (*CatalogIntegrityReport, error) {
	report := &CatalogIntegrityReport{StateCode: stateCode}

	catalog, err := store.LoadStateCatalog(ctx, stateCode)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		report.Problems = append(report.Problems, "no trail catalog document")
	} else {
		verifyTrailDocument(catalog, stateCode, report)
	}

	facilities, err := store.LoadFacilityCatalog(ctx, stateCode)
	if err != nil {
		return nil, err
	}
	if facilities != nil {
		verifyFacilityDocument(facilities, report)
	}

	report.OK = len(report.Problems) == 0
	return report, nil
}

func verifyTrailDocument(catalog *StateCatalog, stateCode string, report *CatalogIntegrityReport) {
	report.Parks = len(catalog.Parks)
	statePrefix := strings.ToLower(stateCode) + "-"

	for parkID, pt := range catalog.Parks {
		for i := range pt.Trails {
			t := &pt.Trails[i]
			report.Trails++

			if t.ID == "" || !strings.HasPrefix(t.ID, statePrefix) {
				report.Problems = append(report.Problems,
					fmt.Sprintf("trail %q in park %s has malformed id %q", t.Name, parkID, t.ID))
			}
			if t.ParkID != parkID {
				report.Problems = append(report.Problems,
					fmt.Sprintf("trail %s filed under park %s but claims park %s", t.ID, parkID, t.ParkID))
			}
			if t.LengthMiles != nil && *t.LengthMiles < 0 {
				report.Problems = append(report.Problems,
					fmt.Sprintf("trail %s has negative length %.1f", t.ID, *t.LengthMiles))
			}
			verifyNearbyParks(t, report)
		}
	}

	if catalog.Meta.TotalTrails != report.Trails {
		report.Problems = append(report.Problems,
			fmt.Sprintf("meta reports %d trails, document has %d", catalog.Meta.TotalTrails, report.Trails))
	}
	if catalog.Meta.TotalParks != report.Parks {
		report.Problems = append(report.Problems,
			fmt.Sprintf("meta reports %d parks, document has %d", catalog.Meta.TotalParks, report.Parks))
	}
}

func verifyNearbyParks(t *Trail, report *CatalogIntegrityReport) {
	prev := -1.0
	for _, np := range t.NearbyParks {
		if np.DistanceMiles < prev {
			report.Problems = append(report.Problems,
				fmt.Sprintf("trail %s nearby parks not sorted by distance", t.ID))
			return
		}
		prev = np.DistanceMiles
		if np.DistanceMiles > NearbyRadiusMiles {
			report.Problems = append(report.Problems,
				fmt.Sprintf("trail %s lists park %s at %.1f mi, beyond the %v mi radius",
					t.ID, np.ParkID, np.DistanceMiles, NearbyRadiusMiles))
		}
	}
}

func verifyFacilityDocument(fc *FacilityCatalog, report *CatalogIntegrityReport) {
	seen := make(map[string]bool, len(fc.Campgrounds))
	for i := range fc.Campgrounds {
		cg := &fc.Campgrounds[i]
		if seen[cg.ID] {
			report.Problems = append(report.Problems,
				fmt.Sprintf("duplicate campground id %s", cg.ID))
		}
		seen[cg.ID] = true

		if cg.Prices != nil && cg.Prices.Min > cg.Prices.Max {
			report.Problems = append(report.Problems,
				fmt.Sprintf("campground %s has inverted price range", cg.ID))
		}
		if cg.NearestParkID == nil {
			report.Unlinked++
		}
	}
}
