package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// UnassignedBucketID returns the reserved park id that collects trails with
// no governing park inside the match radius.
func UnassignedBucketID(stateCode string) string {
	return strings.ToLower(stateCode) + "-unassigned"
}

func unassignedBucketName(stateCode string) string {
	return fmt.Sprintf("%s State-wide Trails", stateName(stateCode))
}

// AssignTrails turns consolidated trails into catalog Trail records by
// matching each centroid against the park registry. Within the match radius
// a trail belongs to that park; otherwise it falls into the state-wide
// unassigned bucket.
func AssignTrails(consolidated []ConsolidatedTrail, registry []Park, stateCode, dataSource string, now time.Time) []Trail {
	trails := make([]Trail, 0, len(consolidated))

	for _, ct := range consolidated {
		parkID := UnassignedBucketID(stateCode)
		parkName := unassignedBucketName(stateCode)
		if park, _, ok := NearestPark(*ct.Centroid, registry, ParkMatchRadiusMiles); ok {
			parkID = park.ID
			parkName = park.Name
		}

		t := Trail{
			ID:          trailID(stateCode, parkID, ct.Name),
			Name:        ct.Name,
			ParkID:      parkID,
			ParkName:    parkName,
			StateCode:   stateCode,
			Trailhead:   ct.Centroid,
			NearbyParks: NearbyParks(*ct.Centroid, registry, NearbyRadiusMiles),
			DataSource:  dataSource,
			LastUpdated: now,
		}
		if ct.LengthMiles > 0 {
			length := roundTo(ct.LengthMiles, 2)
			t.LengthMiles = &length
		}
		if ct.County != "" {
			t.County = strptr(ct.County)
		}
		if ct.Surface != "" {
			t.SurfaceType = strptr(ct.Surface)
		}
		if ct.TrailType != "" {
			t.TrailType = strptr(ct.TrailType)
		}
		if ct.URL != "" {
			t.URL = strptr(ct.URL)
		}
		trails = append(trails, t)
	}

	return trails
}

// MergeStateCatalog merges freshly assigned trails into the previously
// persisted state catalog. Every existing trail is retained verbatim except
// for its recomputed nearbyParks list, which preserves manual curation
// between runs; only genuinely new trails are appended. The merge is
// additive: parks and trails absent from the fresh extract survive. Fresh
// trails assigned to a park id missing from the registry are skipped, except
// for the reserved unassigned bucket which is always honored.
func MergeStateCatalog(existing *StateCatalog, fresh []Trail, registry []Park, stateCode, runID string, now time.Time) (*StateCatalog, MergeStats) {
	logger := slog.With("state", stateCode)
	var stats MergeStats

	merged := &StateCatalog{
		Meta:  CatalogMeta{StateCode: stateCode, StateName: stateName(stateCode)},
		Parks: make(map[string]*ParkTrails),
	}

	registryIDs := make(map[string]string, len(registry))
	for _, p := range registry {
		registryIDs[p.ID] = p.Name
	}
	bucketID := UnassignedBucketID(stateCode)

	// Carry the whole existing catalog forward, refreshing only the derived
	// nearbyParks field on each trail.
	if existing != nil {
		merged.Meta.Sources = existing.Meta.Sources
		for parkID, pt := range existing.Parks {
			kept := &ParkTrails{ParkName: pt.ParkName, Trails: make([]Trail, len(pt.Trails))}
			copy(kept.Trails, pt.Trails)
			for i := range kept.Trails {
				if th := kept.Trails[i].Trailhead; th != nil {
					kept.Trails[i].NearbyParks = NearbyParks(*th, registry, NearbyRadiusMiles)
				}
			}
			merged.Parks[parkID] = kept
		}
	}

	for _, t := range fresh {
		if t.ParkID == bucketID {
			stats.Unassigned++
		} else if _, known := registryIDs[t.ParkID]; !known {
			stats.SkippedNoPark++
			logger.Warn("skipping trail for unknown park", "park_id", t.ParkID, "trail", t.Name)
			continue
		} else {
			stats.MatchedToPark++
		}

		pt, ok := merged.Parks[t.ParkID]
		if !ok {
			pt = &ParkTrails{ParkName: t.ParkName}
			merged.Parks[t.ParkID] = pt
		}

		if idx, found := indexTrailByName(pt.Trails, t.Name); found {
			// Existing record wins wholesale; only the spatial context is
			// derived state and gets refreshed.
			if th := pt.Trails[idx].Trailhead; th != nil {
				pt.Trails[idx].NearbyParks = NearbyParks(*th, registry, NearbyRadiusMiles)
			} else {
				pt.Trails[idx].NearbyParks = t.NearbyParks
			}
			stats.Preserved++
			continue
		}

		pt.Trails = append(pt.Trails, t)
		stats.NewlyAdded++
	}

	// Drop an unassigned bucket that ended up empty.
	if pt, ok := merged.Parks[bucketID]; ok && len(pt.Trails) == 0 {
		delete(merged.Parks, bucketID)
	}

	totalTrails := 0
	for _, pt := range merged.Parks {
		totalTrails += len(pt.Trails)
	}
	merged.Meta.TotalParks = len(merged.Parks)
	merged.Meta.TotalTrails = totalTrails
	merged.Meta.LastUpdated = now
	merged.Meta.RunID = runID
	merged.Meta.Sources = appendSource(merged.Meta.Sources, "state-gis")

	logger.Info("incremental merge complete",
		"matched_to_park", stats.MatchedToPark,
		"unassigned", stats.Unassigned,
		"newly_added", stats.NewlyAdded,
		"preserved", stats.Preserved,
		"skipped_unknown_park", stats.SkippedNoPark,
	)

	return merged, stats
}

// indexTrailByName finds a trail by its normalized name.
func indexTrailByName(trails []Trail, name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i := range trails {
		if strings.ToLower(strings.TrimSpace(trails[i].Name)) == key {
			return i, true
		}
	}
	return 0, false
}

func appendSource(sources []string, source string) []string {
	for _, s := range sources {
		if s == source {
			return sources
		}
	}
	return append(sources, source)
}

func strptr(s string) *string { return &s }

func intptr(i int) *int { return &i }

func boolptr(b bool) *bool { return &b }
