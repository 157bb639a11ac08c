package main

import "testing"

func TestVerifyTrailDocument(t *testing.T) {
	catalog := &StateCatalog{
		Meta: CatalogMeta{StateCode: "WI", TotalParks: 1, TotalTrails: 2},
		Parks: map[string]*ParkTrails{
			"devils-lake": {
				ParkName: "Devils Lake State Park",
				Trails: []Trail{
					{
						ID: "wi-devils-lake-east-bluff", Name: "East Bluff", ParkID: "devils-lake",
						NearbyParks: []NearbyPark{
							{ParkID: "devils-lake", DistanceMiles: 0.4},
							{ParkID: "mirror-lake", DistanceMiles: 11.2},
						},
					},
					{ID: "wi-devils-lake-west-bluff", Name: "West Bluff", ParkID: "devils-lake"},
				},
			},
		},
	}

	report := &CatalogIntegrityReport{StateCode: "WI"}
	verifyTrailDocument(catalog, "WI", report)
	if len(report.Problems) != 0 {
		t.Fatalf("clean document reported problems: %v", report.Problems)
	}
	if report.Trails != 2 || report.Parks != 1 {
		t.Errorf("counts = %d trails / %d parks", report.Trails, report.Parks)
	}
}

func TestVerifyTrailDocumentFlagsProblems(t *testing.T) {
	negative := -1.0
	catalog := &StateCatalog{
		Meta: CatalogMeta{StateCode: "WI", TotalParks: 9, TotalTrails: 9},
		Parks: map[string]*ParkTrails{
			"devils-lake": {
				Trails: []Trail{
					{ID: "mi-wrong-state-id", Name: "Bad ID", ParkID: "devils-lake"},
					{ID: "wi-devils-lake-a", Name: "Wrong Park", ParkID: "mirror-lake"},
					{ID: "wi-devils-lake-b", Name: "Negative", ParkID: "devils-lake", LengthMiles: &negative},
					{
						ID: "wi-devils-lake-c", Name: "Unsorted", ParkID: "devils-lake",
						NearbyParks: []NearbyPark{
							{ParkID: "p1", DistanceMiles: 12.0},
							{ParkID: "p2", DistanceMiles: 3.0},
						},
					},
					{
						ID: "wi-devils-lake-d", Name: "Too Far", ParkID: "devils-lake",
						NearbyParks: []NearbyPark{{ParkID: "p3", DistanceMiles: 80.0}},
					},
				},
			},
		},
	}

	report := &CatalogIntegrityReport{StateCode: "WI"}
	verifyTrailDocument(catalog, "WI", report)

	// Malformed id, wrong park, negative length, unsorted list, beyond-radius
	// entry, plus the two meta count mismatches.
	if len(report.Problems) != 7 {
		t.Errorf("found %d problems, expected 7: %v", len(report.Problems), report.Problems)
	}
}

func TestVerifyFacilityDocument(t *testing.T) {
	fc := &FacilityCatalog{
		Campgrounds: []Campground{
			{ID: "ridb-1", Prices: &PriceRange{Min: 30, Max: 20}},
			{ID: "ridb-1"},
			{ID: "ridb-2", NearestParkID: strptr("devils-lake")},
		},
	}

	report := &CatalogIntegrityReport{}
	verifyFacilityDocument(fc, report)

	if len(report.Problems) != 2 {
		t.Errorf("found %d problems, expected inverted prices and a duplicate id: %v",
			len(report.Problems), report.Problems)
	}
	if report.Unlinked != 2 {
		t.Errorf("unlinked = %d, expected 2", report.Unlinked)
	}
}
