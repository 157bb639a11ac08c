package main

import (
	"os"
	"path/filepath"
	"testing"
)

func testLinkStore() *LinkStore {
	return &LinkStore{links: []NPSLink{
		{ParkCode: "apis", ParkName: "Apostle Islands National Lakeshore", StateCode: "WI", URL: "https://www.nps.gov/apis/index.htm"},
		{ParkCode: "iatr", ParkName: "Ice Age National Scenic Trail", StateCode: "WI", URL: "https://www.nps.gov/iatr/index.htm"},
		{ParkCode: "piro", ParkName: "Pictured Rocks National Lakeshore", StateCode: "MI", URL: "https://www.nps.gov/piro/index.htm"},
	}}
}

func TestLinkStoreMatchPrecedence(t *testing.T) {
	store := testLinkStore()

	testCases := []struct {
		name         string
		park         Park
		expectedCode string
		expectMatch  bool
	}{
		{
			name:         "exact park code beats everything",
			park:         Park{ID: "iatr", Name: "Apostle Islands National Lakeshore", StateCode: "WI"},
			expectedCode: "iatr",
			expectMatch:  true,
		},
		{
			name:         "exact normalized name",
			park:         Park{ID: "x1", Name: "apostle islands national lakeshore", StateCode: "WI"},
			expectedCode: "apis",
			expectMatch:  true,
		},
		{
			name:         "containment above minimum length",
			park:         Park{ID: "x2", Name: "Ice Age National Scenic Trail Western Segment", StateCode: "WI"},
			expectedCode: "iatr",
			expectMatch:  true,
		},
		{
			name:         "word overlap",
			park:         Park{ID: "x3", Name: "Pictured Rocks Lakeshore Unit", StateCode: "MI"},
			expectedCode: "piro",
			expectMatch:  true,
		},
		{
			name:        "wrong state never matches",
			park:        Park{ID: "x4", Name: "Pictured Rocks National Lakeshore", StateCode: "WI"},
			expectMatch: false,
		},
		{
			name:        "unrelated name",
			park:        Park{ID: "x5", Name: "Copper Falls State Park", StateCode: "WI"},
			expectMatch: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			link, ok := store.Match(tc.park)
			if ok != tc.expectMatch {
				t.Fatalf("match = %v, expected %v", ok, tc.expectMatch)
			}
			if ok && link.ParkCode != tc.expectedCode {
				t.Errorf("matched %s, expected %s", link.ParkCode, tc.expectedCode)
			}
		})
	}
}

func TestApplyLinkKeepsExistingValues(t *testing.T) {
	park := Park{Name: "Apostle Islands National Lakeshore", OfficialURL: strptr("https://example.org/official")}
	link := &NPSLink{URL: "https://www.nps.gov/apis/index.htm", ImageURL: "https://www.nps.gov/apis.jpg"}

	ApplyLink(&park, link)
	if *park.OfficialURL != "https://example.org/official" {
		t.Error("an already-set official URL must not be replaced")
	}
	if park.ImageURL == nil || *park.ImageURL != "https://www.nps.gov/apis.jpg" {
		t.Errorf("imageUrl = %v, expected the link's image", park.ImageURL)
	}
}

func TestLoadLinkStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.json")
	content := `[{"parkCode":"voya","parkName":"Voyageurs National Park","stateCode":"MN","url":"https://www.nps.gov/voya/index.htm"}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadLinkStore(path)
	if err != nil {
		t.Fatalf("LoadLinkStore: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("loaded %d links, expected 1", store.Len())
	}

	missing, err := LoadLinkStore(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("a missing file should yield an empty store, got %v", err)
	}
	if missing.Len() != 0 {
		t.Errorf("empty store expected, got %d links", missing.Len())
	}
}
