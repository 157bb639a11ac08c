package main

import (
	"testing"
	"time"
)

var mergeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mergeRegistry() []Park {
	return []Park{
		{ID: "devils-lake", Name: "Devils Lake State Park", Coordinates: &Coordinate{Lat: 43.4283, Lon: -89.7329}},
		{ID: "mirror-lake", Name: "Mirror Lake State Park", Coordinates: &Coordinate{Lat: 43.5658, Lon: -89.8118}},
	}
}

func TestAssignTrailsMatchAndBucket(t *testing.T) {
	registry := mergeRegistry()

	// ~8 miles from Devils Lake, inside the 15-mile match radius.
	near := ConsolidatedTrail{Name: "North Loop", LengthMiles: 3.2, Centroid: &Coordinate{Lat: 43.43, Lon: -89.57}}
	// ~40+ miles from every registry park.
	far := ConsolidatedTrail{Name: "Far Ridge", LengthMiles: 1.0, Centroid: &Coordinate{Lat: 45.2, Lon: -88.0}}

	trails := AssignTrails([]ConsolidatedTrail{near, far}, registry, "WI", "state-gis", mergeNow)
	if len(trails) != 2 {
		t.Fatalf("got %d trails, expected 2", len(trails))
	}

	if trails[0].ParkID != "devils-lake" {
		t.Errorf("near trail assigned to %s, expected devils-lake", trails[0].ParkID)
	}
	if trails[0].ID != "wi-devils-lake-north-loop" {
		t.Errorf("trail id = %q", trails[0].ID)
	}
	if len(trails[0].NearbyParks) == 0 {
		t.Error("near trail should list nearby parks")
	}

	if trails[1].ParkID != "wi-unassigned" {
		t.Errorf("far trail assigned to %s, expected the wi-unassigned bucket", trails[1].ParkID)
	}
}

func TestMergePreservesExistingTrail(t *testing.T) {
	registry := mergeRegistry()
	trailhead := &Coordinate{Lat: 43.43, Lon: -89.57}

	existing := &StateCatalog{
		Meta: CatalogMeta{StateCode: "WI"},
		Parks: map[string]*ParkTrails{
			"devils-lake": {
				ParkName: "Devils Lake State Park",
				Trails: []Trail{
					{
						ID:          "wi-devils-lake-elkhorn-trail",
						Name:        "Elkhorn Trail",
						ParkID:      "devils-lake",
						Description: strptr("Hand-curated description"),
						Trailhead:   trailhead,
					},
				},
			},
		},
	}

	fresh := AssignTrails([]ConsolidatedTrail{
		{Name: "Elkhorn Trail", LengthMiles: 2.5, Centroid: trailhead},
	}, registry, "WI", "state-gis", mergeNow)
	// Simulate the feed carrying a different description.
	fresh[0].Description = strptr("feed description")

	merged, stats := MergeStateCatalog(existing, fresh, registry, "WI", "run-1", mergeNow)

	if stats.Preserved != 1 || stats.NewlyAdded != 0 {
		t.Fatalf("stats = %+v, expected one preserved and none added", stats)
	}

	got := merged.Parks["devils-lake"].Trails[0]
	if got.Description == nil || *got.Description != "Hand-curated description" {
		t.Errorf("description was clobbered: %v", got.Description)
	}
	if len(got.NearbyParks) == 0 {
		t.Error("nearbyParks should be recomputed on the preserved record")
	}
}

func TestMergeIsAdditive(t *testing.T) {
	registry := mergeRegistry()

	existing := &StateCatalog{
		Meta: CatalogMeta{StateCode: "WI", Sources: []string{"nps"}},
		Parks: map[string]*ParkTrails{
			"mirror-lake": {
				ParkName: "Mirror Lake State Park",
				Trails: []Trail{
					{ID: "wi-mirror-lake-echo-rock", Name: "Echo Rock", ParkID: "mirror-lake"},
				},
			},
		},
	}

	fresh := AssignTrails([]ConsolidatedTrail{
		{Name: "North Loop", LengthMiles: 3.2, Centroid: &Coordinate{Lat: 43.43, Lon: -89.57}},
	}, registry, "WI", "state-gis", mergeNow)

	merged, stats := MergeStateCatalog(existing, fresh, registry, "WI", "run-2", mergeNow)

	if stats.NewlyAdded != 1 {
		t.Errorf("stats.NewlyAdded = %d, expected 1", stats.NewlyAdded)
	}
	if _, ok := merged.Parks["mirror-lake"]; !ok {
		t.Error("park absent from the fresh extract must survive the merge")
	}
	if merged.Meta.TotalTrails != 2 {
		t.Errorf("TotalTrails = %d, expected 2", merged.Meta.TotalTrails)
	}
	if merged.Meta.RunID != "run-2" {
		t.Errorf("RunID = %q", merged.Meta.RunID)
	}

	sources := merged.Meta.Sources
	if len(sources) != 2 || sources[0] != "nps" || sources[1] != "state-gis" {
		t.Errorf("sources = %v, expected nps plus state-gis", sources)
	}
}

func TestMergeSkipsUnknownPark(t *testing.T) {
	registry := mergeRegistry()

	fresh := []Trail{
		{ID: "wi-ghost-park-lost-trail", Name: "Lost Trail", ParkID: "ghost-park", StateCode: "WI"},
		{ID: "wi-unassigned-stray", Name: "Stray", ParkID: "wi-unassigned", ParkName: "Wisconsin State-wide Trails", StateCode: "WI"},
	}

	merged, stats := MergeStateCatalog(nil, fresh, registry, "WI", "run-3", mergeNow)

	if stats.SkippedNoPark != 1 {
		t.Errorf("stats.SkippedNoPark = %d, expected 1", stats.SkippedNoPark)
	}
	if _, ok := merged.Parks["ghost-park"]; ok {
		t.Error("unknown park must not appear in the catalog")
	}
	if _, ok := merged.Parks["wi-unassigned"]; !ok {
		t.Error("the reserved unassigned bucket must always be honored")
	}
	if stats.Unassigned != 1 {
		t.Errorf("stats.Unassigned = %d, expected 1", stats.Unassigned)
	}
}

func TestMergeDropsEmptyUnassignedBucket(t *testing.T) {
	registry := mergeRegistry()

	existing := &StateCatalog{
		Meta: CatalogMeta{StateCode: "WI"},
		Parks: map[string]*ParkTrails{
			"wi-unassigned": {ParkName: "Wisconsin State-wide Trails"},
		},
	}

	merged, _ := MergeStateCatalog(existing, nil, registry, "WI", "run-4", mergeNow)
	if _, ok := merged.Parks["wi-unassigned"]; ok {
		t.Error("empty unassigned bucket should be removed")
	}
}
