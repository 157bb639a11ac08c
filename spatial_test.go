package main

import (
	"math"
	"testing"
)

func TestDistanceMiles(t *testing.T) {
	testCases := []struct {
		name          string
		a, b          Coordinate
		expectedMiles float64
		tolerance     float64
	}{
		{
			name:          "Madison to Milwaukee (~75 mi)",
			a:             Coordinate{Lat: 43.0731, Lon: -89.4012},
			b:             Coordinate{Lat: 43.0389, Lon: -87.9065},
			expectedMiles: 75,
			tolerance:     3,
		},
		{
			name:          "Zero distance",
			a:             Coordinate{Lat: 45.0, Lon: -90.0},
			b:             Coordinate{Lat: 45.0, Lon: -90.0},
			expectedMiles: 0,
			tolerance:     0.01,
		},
		{
			name:          "1 degree latitude (~69 mi)",
			a:             Coordinate{Lat: 44.0, Lon: -90.0},
			b:             Coordinate{Lat: 45.0, Lon: -90.0},
			expectedMiles: 69,
			tolerance:     1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceMiles(tc.a, tc.b)
			if math.Abs(got-tc.expectedMiles) > tc.tolerance {
				t.Errorf("Distance mismatch: got %.1f mi, expected %.1f mi", got, tc.expectedMiles)
			}

			reversed := DistanceMiles(tc.b, tc.a)
			if math.Abs(got-reversed) > 1e-9 {
				t.Errorf("Distance not symmetric: %.6f vs %.6f", got, reversed)
			}
		})
	}
}

func testParks() []Park {
	return []Park{
		{ID: "devils-lake", Name: "Devils Lake State Park", Coordinates: &Coordinate{Lat: 43.4283, Lon: -89.7329}},
		{ID: "mirror-lake", Name: "Mirror Lake State Park", Coordinates: &Coordinate{Lat: 43.5658, Lon: -89.8118}},
		{ID: "governor-dodge", Name: "Governor Dodge State Park", Coordinates: &Coordinate{Lat: 43.0189, Lon: -90.1134}},
		{ID: "no-coords", Name: "Unplaced Park"},
	}
}

func TestNearestPark(t *testing.T) {
	parks := testParks()

	testCases := []struct {
		name       string
		point      Coordinate
		maxRadius  float64
		expectedID string
		expectOK   bool
	}{
		{
			name:       "point near Devils Lake",
			point:      Coordinate{Lat: 43.43, Lon: -89.73},
			maxRadius:  ParkMatchRadiusMiles,
			expectedID: "devils-lake",
			expectOK:   true,
		},
		{
			name:      "point beyond radius of all parks",
			point:     Coordinate{Lat: 46.5, Lon: -84.0},
			maxRadius: ParkMatchRadiusMiles,
			expectOK:  false,
		},
		{
			name:       "larger radius finds a match",
			point:      Coordinate{Lat: 43.8, Lon: -89.8},
			maxRadius:  50,
			expectedID: "mirror-lake",
			expectOK:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			park, dist, ok := NearestPark(tc.point, parks, tc.maxRadius)
			if ok != tc.expectOK {
				t.Fatalf("match = %v, expected %v", ok, tc.expectOK)
			}
			if !ok {
				return
			}
			if park.ID != tc.expectedID {
				t.Errorf("matched %s, expected %s", park.ID, tc.expectedID)
			}
			if dist > tc.maxRadius {
				t.Errorf("distance %.1f exceeds radius %.1f", dist, tc.maxRadius)
			}
		})
	}
}

func TestNearestParkDeterministicTie(t *testing.T) {
	// Two parks at the identical location; the lower id must win no matter
	// the input order.
	at := Coordinate{Lat: 44.0, Lon: -90.0}
	parks := []Park{
		{ID: "zebra-park", Coordinates: &at},
		{ID: "alpha-park", Coordinates: &at},
	}

	for run := 0; run < 2; run++ {
		park, _, ok := NearestPark(at, parks, 15)
		if !ok {
			t.Fatal("expected a match")
		}
		if park.ID != "alpha-park" {
			t.Errorf("run %d: matched %s, expected alpha-park", run, park.ID)
		}
		parks[0], parks[1] = parks[1], parks[0]
	}
}

func TestNearbyParks(t *testing.T) {
	parks := testParks()
	point := Coordinate{Lat: 43.43, Lon: -89.73}

	nearby := NearbyParks(point, parks, NearbyRadiusMiles)
	if len(nearby) == 0 {
		t.Fatal("expected at least one nearby park")
	}

	for i, np := range nearby {
		if np.DistanceMiles > NearbyRadiusMiles {
			t.Errorf("park %s at %.1f mi exceeds radius", np.ParkID, np.DistanceMiles)
		}
		if np.DistanceMiles != roundTo(np.DistanceMiles, 1) {
			t.Errorf("distance %.4f not rounded to one decimal", np.DistanceMiles)
		}
		if i > 0 && nearby[i-1].DistanceMiles > np.DistanceMiles {
			t.Errorf("results not sorted: %.1f before %.1f",
				nearby[i-1].DistanceMiles, np.DistanceMiles)
		}
	}

	if nearby[0].ParkID != "devils-lake" {
		t.Errorf("closest park = %s, expected devils-lake", nearby[0].ParkID)
	}
}

func TestGridCells(t *testing.T) {
	box, ok := boundingBox([]Coordinate{
		{Lat: 43.0, Lon: -90.0},
		{Lat: 44.2, Lon: -88.9},
	})
	if !ok {
		t.Fatal("expected a bounding box")
	}

	cells := gridCells(box, 0.5)
	if len(cells) < 4 {
		t.Errorf("expected at least 4 cells for a 1.2x1.1 degree box, got %d", len(cells))
	}
	for _, c := range cells {
		if c.Min.Lat() < box.Min.Lat()-1e-9 || c.Max.Lat() > box.Max.Lat()+1e-9 {
			t.Errorf("cell latitude range %v outside box", c)
		}
	}

	// A degenerate box still yields one cell.
	point, _ := boundingBox([]Coordinate{{Lat: 43.0, Lon: -90.0}})
	if got := len(gridCells(point, 0.5)); got != 1 {
		t.Errorf("degenerate box produced %d cells, expected 1", got)
	}
}
