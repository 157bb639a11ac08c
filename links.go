package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// NPSLink ties a park to its national-park-service page and imagery.
type NPSLink struct {
	ParkCode  string `json:"parkCode"`
	ParkName  string `json:"parkName"`
	StateCode string `json:"stateCode"`
	URL       string `json:"url"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Match ranks, strongest first. A higher rank always beats a lower one
// regardless of overlap counts.
const (
	matchNone = iota
	matchWordOverlap
	matchContainment
	matchExactName
	matchExactCode
)

// minContainmentLen guards the containment rule against short generic names
// like "Park" matching everything.
const minContainmentLen = 10

// LinkStore holds the park link records for lookup during aggregation.
type LinkStore struct {
	links []NPSLink
}

// LoadLinkStore reads the link file. A missing file yields an empty store so
// aggregation still runs, just without official URLs.
func LoadLinkStore(path string) (*LinkStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LinkStore{}, nil
		}
		return nil, fmt.Errorf("failed to read link store: %w", err)
	}

	var links []NPSLink
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("failed to parse link store: %w", err)
	}
	return &LinkStore{links: links}, nil
}

func (s *LinkStore) Len() int {
	return len(s.links)
}

// Match finds the best link for a park. Precedence: exact park code, exact
// normalized name, containment either direction above a minimum length, then
// word overlap. Equal-rank candidates are broken by overlap count and then
// file order, so results are stable across runs.
func (s *LinkStore) Match(park Park) (*NPSLink, bool) {
	parkName := NormalizeParkName(park.Name)
	parkWords := nameWords(parkName)

	best := -1
	bestRank := matchNone
	bestOverlap := 0

	for i := range s.links {
		link := &s.links[i]
		if link.StateCode != "" && !strings.EqualFold(link.StateCode, park.StateCode) {
			continue
		}

		rank, overlap := scoreLink(park, parkName, parkWords, link)
		if rank > bestRank || (rank == bestRank && overlap > bestOverlap) {
			best = i
			bestRank = rank
			bestOverlap = overlap
		}
	}

	if bestRank == matchNone {
		return nil, false
	}
	return &s.links[best], true
}

func scoreLink(park Park, parkName string, parkWords []string, link *NPSLink) (int, int) {
	if link.ParkCode != "" && strings.EqualFold(park.ID, link.ParkCode) {
		return matchExactCode, 0
	}

	linkName := NormalizeParkName(link.ParkName)
	if linkName == parkName && parkName != "" {
		return matchExactName, 0
	}

	if len(parkName) >= minContainmentLen && len(linkName) >= minContainmentLen {
		if strings.Contains(parkName, linkName) || strings.Contains(linkName, parkName) {
			return matchContainment, 0
		}
	}

	overlap := wordOverlap(parkWords, nameWords(linkName))
	if overlap >= 2 {
		return matchWordOverlap, overlap
	}
	return matchNone, 0
}

// genericNameWords never count toward overlap; nearly every record has them.
var genericNameWords = map[string]bool{
	"state": true, "park": true, "area": true, "national": true,
	"recreation": true, "forest": true, "the": true, "of": true,
}

func nameWords(normalized string) []string {
	var words []string
	for _, w := range strings.Fields(normalized) {
		if !genericNameWords[w] {
			words = append(words, w)
		}
	}
	return words
}

func wordOverlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	count := 0
	for _, w := range b {
		if set[w] {
			count++
		}
	}
	return count
}

// ApplyLink fills a park's official URL and image from a matched link,
// keeping values already set by a stronger source.
func ApplyLink(park *Park, link *NPSLink) {
	if park.OfficialURL == nil && link.URL != "" {
		park.OfficialURL = strptr(link.URL)
	}
	if park.ImageURL == nil && link.ImageURL != "" {
		park.ImageURL = strptr(link.ImageURL)
	}
}
