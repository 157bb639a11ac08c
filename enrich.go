package main

import (
	"log/slog"
	"math"
	"strings"
)

// paceMPH is the assumed hiking pace per difficulty, used to derive trail
// durations.
var paceMPH = map[string]float64{
	"easy":     2.0,
	"moderate": 1.5,
	"hard":     1.0,
	"expert":   0.75,
}

const defaultPaceMPH = 1.5

// sourceIDPrefixes maps a record's data source to the id prefix that gets
// stripped to recover the upstream identifier.
var sourceIDPrefixes = map[string]string{
	SourceRIDB: "ridb-",
	SourceNPS:  "nps-",
	SourceOSM:  "osm-",
}

// estimateDurationMinutes derives a walking duration from length and
// difficulty using the fixed pace table.
func estimateDurationMinutes(lengthMiles float64, difficulty *string) int {
	pace := defaultPaceMPH
	if difficulty != nil {
		if p, ok := paceMPH[strings.ToLower(*difficulty)]; ok {
			pace = p
		}
	}
	return int(math.Round(lengthMiles / pace * 60))
}

// sourceIDFor strips the source-dependent prefix from a record id. Trail ids
// from state feeds are slugs prefixed with the lower-cased state code.
func sourceIDFor(dataSource, id, stateCode string) string {
	if prefix, ok := sourceIDPrefixes[dataSource]; ok {
		return strings.TrimPrefix(id, prefix)
	}
	return strings.TrimPrefix(id, strings.ToLower(stateCode)+"-")
}

// EnrichComputedFields is enrichment phase 1: purely local derivations, no
// network calls. Each target field is only written when currently absent, so
// re-running the phase is a no-op for already-enriched records.
func EnrichComputedFields(catalog *StateCatalog, facilities *FacilityCatalog, registry []Park) EnrichStats {
	var stats EnrichStats
	logger := slog.With("phase", "computed-fields")

	if catalog != nil {
		region, hasRegion := stateRegions[catalog.Meta.StateCode]

		for _, pt := range catalog.Parks {
			for i := range pt.Trails {
				t := &pt.Trails[i]
				touched := false

				if t.EstimatedDurationMinutes == nil && t.LengthMiles != nil {
					t.EstimatedDurationMinutes = intptr(estimateDurationMinutes(*t.LengthMiles, t.Difficulty))
					touched = true
				}
				if t.Region == nil && hasRegion {
					t.Region = strptr(region)
					touched = true
				}
				if t.SourceID == nil {
					t.SourceID = strptr(sourceIDFor(t.DataSource, t.ID, t.StateCode))
					touched = true
				}

				if touched {
					stats.Updated++
				} else {
					stats.Skipped++
				}
			}
		}
	}

	if facilities != nil {
		linkRadiusMiles := FacilityLinkRadiusMeters / metersPerMile
		for i := range facilities.Campgrounds {
			cg := &facilities.Campgrounds[i]
			if cg.NearestParkID != nil || cg.Coordinates == nil {
				stats.Skipped++
				continue
			}
			if park, _, ok := NearestPark(*cg.Coordinates, registry, linkRadiusMiles); ok {
				cg.NearestParkID = strptr(park.ID)
				stats.Updated++
			} else {
				stats.Skipped++
			}
		}
	}

	logger.Info("computed-field enrichment complete", "updated", stats.Updated, "skipped", stats.Skipped)
	return stats
}
