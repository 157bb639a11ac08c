package main

import (
	"math"
	"testing"
)

func segmentFeature(name string, miles float64, path [][]float64) GISFeature {
	attrs := map[string]any{}
	if name != "" {
		attrs["TRAIL_NAME"] = name
	}
	if miles > 0 {
		attrs["MILES"] = miles
	}
	var geom *GISGeometry
	if path != nil {
		geom = &GISGeometry{Paths: [][][]float64{path}}
	}
	return GISFeature{Attributes: attrs, Geometry: geom}
}

func TestConsolidateSegmentsSumsLengths(t *testing.T) {
	path := [][]float64{{-89.7, 43.4}, {-89.71, 43.41}, {-89.72, 43.42}}
	features := []GISFeature{
		segmentFeature("Ice Age Trail", 1.2, path),
		segmentFeature("Ice Age Trail", 0.8, path),
		segmentFeature("ice age trail", 2.0, path),
	}

	trails, dropped := ConsolidateSegments(features)
	if dropped != 0 {
		t.Fatalf("dropped %d groups, expected 0", dropped)
	}
	if len(trails) != 1 {
		t.Fatalf("got %d trails, expected 1", len(trails))
	}

	trail := trails[0]
	if trail.Name != "Ice Age Trail" {
		t.Errorf("name = %q, expected first-seen casing", trail.Name)
	}
	if math.Abs(trail.LengthMiles-4.0) > 1e-9 {
		t.Errorf("length = %.4f, expected 4.0", trail.LengthMiles)
	}
	if trail.Centroid == nil {
		t.Fatal("expected a representative coordinate")
	}
	// Midpoint vertex of the first segment's polyline.
	if trail.Centroid.Lat != 43.41 || trail.Centroid.Lon != -89.71 {
		t.Errorf("centroid = %+v, expected the midpoint vertex", trail.Centroid)
	}
}

func TestConsolidateSegmentsMeterConversion(t *testing.T) {
	features := []GISFeature{
		{
			Attributes: map[string]any{
				"NAME":         "River Walk",
				"Shape_Length": 1609.344,
			},
			Geometry: &GISGeometry{Paths: [][][]float64{{{-90.0, 44.0}, {-90.01, 44.01}}}},
		},
	}

	trails, _ := ConsolidateSegments(features)
	if len(trails) != 1 {
		t.Fatalf("got %d trails, expected 1", len(trails))
	}
	if math.Abs(trails[0].LengthMiles-1.0) > 1e-6 {
		t.Errorf("length = %.6f mi, expected 1.0 from 1609.344 m", trails[0].LengthMiles)
	}
}

func TestConsolidateSegmentsNameFallback(t *testing.T) {
	features := []GISFeature{
		{
			Attributes: map[string]any{"OBJECTID": float64(17), "MILES": 0.5},
			Geometry:   &GISGeometry{X: float64ptr(-90.2), Y: float64ptr(44.2)},
		},
	}

	trails, _ := ConsolidateSegments(features)
	if len(trails) != 1 {
		t.Fatalf("got %d trails, expected 1", len(trails))
	}
	if trails[0].Name != "Trail_17" {
		t.Errorf("name = %q, expected record-id fallback Trail_17", trails[0].Name)
	}
	if trails[0].Centroid == nil || trails[0].Centroid.Lat != 44.2 {
		t.Errorf("centroid = %+v, expected point geometry", trails[0].Centroid)
	}
}

func TestConsolidateSegmentsDropsNoGeometry(t *testing.T) {
	features := []GISFeature{
		segmentFeature("Ghost Trail", 1.0, nil),
		segmentFeature("Real Trail", 1.0, [][]float64{{-90.0, 44.0}, {-90.1, 44.1}}),
	}

	trails, dropped := ConsolidateSegments(features)
	if dropped != 1 {
		t.Errorf("dropped = %d, expected 1", dropped)
	}
	if len(trails) != 1 || trails[0].Name != "Real Trail" {
		t.Errorf("surviving trails = %+v, expected only Real Trail", trails)
	}
}

func TestConsolidateSegmentsFirstAttributeWins(t *testing.T) {
	features := []GISFeature{
		{
			Attributes: map[string]any{"TRAIL_NAME": "Bluff Trail", "MILES": 1.0, "COUNTY": "Sauk"},
			Geometry:   &GISGeometry{Paths: [][][]float64{{{-89.7, 43.4}, {-89.8, 43.5}}}},
		},
		{
			Attributes: map[string]any{"TRAIL_NAME": "Bluff Trail", "MILES": 1.0, "COUNTY": "Columbia", "SURFACE": "dirt"},
			Geometry:   &GISGeometry{Paths: [][][]float64{{{-89.9, 43.6}, {-90.0, 43.7}}}},
		},
	}

	trails, _ := ConsolidateSegments(features)
	if len(trails) != 1 {
		t.Fatalf("got %d trails, expected 1", len(trails))
	}
	if trails[0].County != "Sauk" {
		t.Errorf("county = %q, expected first-seen Sauk", trails[0].County)
	}
	if trails[0].Surface != "dirt" {
		t.Errorf("surface = %q, expected later segment to fill the gap", trails[0].Surface)
	}
}

func TestTrailID(t *testing.T) {
	testCases := []struct {
		name     string
		state    string
		park     string
		trail    string
		expected string
	}{
		{"simple", "WI", "devils-lake", "East Bluff Trail", "wi-devils-lake-east-bluff-trail"},
		{"punctuation collapsed", "MI", "piro", "Chapel Rock / Beach Loop", "mi-piro-chapel-rock-beach-loop"},
		{"trailing punctuation stripped", "MN", "voya", "Blind Ash Bay!", "mn-voya-blind-ash-bay"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := trailID(tc.state, tc.park, tc.trail); got != tc.expected {
				t.Errorf("trailID = %q, expected %q", got, tc.expected)
			}
		})
	}
}

func float64ptr(f float64) *float64 { return &f }
