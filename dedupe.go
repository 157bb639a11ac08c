package main

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pluralFolds maps plural and synonym name variants onto a canonical token so
// that "Baraboo Hills" and "Baraboo Hill" collide.
var pluralFolds = map[string]string{
	"hills":   "hill",
	"areas":   "area",
	"forests": "forest",
	"lakes":   "lake",
	"rivers":  "river",
	"creeks":  "creek",
}

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeParkName produces the dedup key for strategy A: lower-cased,
// diacritics stripped, a trailing standalone number removed, and known
// plural/synonym variants folded.
func NormalizeParkName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if stripped, _, err := transform.String(diacriticStripper, lowered); err == nil {
		lowered = stripped
	}

	words := strings.Fields(lowered)
	if len(words) > 1 {
		if isNumber(words[len(words)-1]) {
			words = words[:len(words)-1]
		}
	}
	for i, w := range words {
		if folded, ok := pluralFolds[w]; ok {
			words[i] = folded
		}
	}
	return strings.Join(words, " ")
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DedupeParks collapses parks whose normalized names collide, keeping the
// record with the largest acreage as canonical. Input order is preserved for
// the survivors.
func DedupeParks(parks []Park) []Park {
	winners := make(map[string]int)
	var order []string

	for i := range parks {
		key := NormalizeParkName(parks[i].Name)
		cur, seen := winners[key]
		if !seen {
			winners[key] = i
			order = append(order, key)
			continue
		}
		if parks[i].Acres > parks[cur].Acres {
			winners[key] = i
		}
	}

	out := make([]Park, 0, len(order))
	for _, key := range order {
		out = append(out, parks[winners[key]])
	}
	return out
}

// coordinateBucket is the strategy-B dedup key: latitude and longitude each
// rounded to three decimal places, roughly a half-mile cell.
func coordinateBucket(c Coordinate) string {
	return fmt.Sprintf("%.3f,%.3f", roundTo(c.Lat, 3), roundTo(c.Lon, 3))
}

// DedupeCampgrounds collapses facilities that land in the same coordinate
// bucket. The record from the highest-priority source wins; photo lists of
// every colliding record are unioned onto the winner so photos are never
// dropped. Records without coordinates cannot be bucketed and pass through
// untouched.
func DedupeCampgrounds(campgrounds []Campground) []Campground {
	type bucket struct {
		winner Campground
		photos []string
	}
	buckets := make(map[string]*bucket)
	var order []string
	var unbucketed []Campground

	for _, cg := range campgrounds {
		if cg.Coordinates == nil {
			unbucketed = append(unbucketed, cg)
			continue
		}
		key := coordinateBucket(*cg.Coordinates)
		b, seen := buckets[key]
		if !seen {
			buckets[key] = &bucket{winner: cg, photos: append([]string(nil), cg.Photos...)}
			order = append(order, key)
			continue
		}
		b.photos = append(b.photos, cg.Photos...)
		if sourcePriority[cg.DataSource] > sourcePriority[b.winner.DataSource] {
			b.winner = cg
		}
	}

	out := make([]Campground, 0, len(order)+len(unbucketed))
	for _, key := range order {
		b := buckets[key]
		b.winner.Photos = unionStrings(b.photos)
		out = append(out, b.winner)
	}
	return append(out, unbucketed...)
}

// unionStrings removes duplicates while preserving first-seen order.
func unionStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
