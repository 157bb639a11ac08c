package main

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// State GIS feeds disagree on attribute naming, so each logical field has an
// ordered candidate list. First non-empty wins.
var (
	nameAttrs     = []string{"TRAIL_NAME", "TRAILNAME", "NAME", "Name", "TRAIL_NM", "SEGMENT_NAME"}
	recordIDAttrs = []string{"OBJECTID", "FID", "GLOBALID", "GlobalID"}
	mileAttrs     = []string{"MILES", "Miles", "LENGTH_MI", "TRAIL_MILES", "SEG_MILES"}
	meterAttrs    = []string{"SHAPE_Length", "Shape_Length", "SHAPE_LEN", "METERS", "LENGTH_M"}
	countyAttrs   = []string{"COUNTY", "County", "CTY_NAME"}
	surfaceAttrs  = []string{"SURFACE", "SURF_TYPE", "SURFACE_TYPE", "Surface"}
	typeAttrs     = []string{"TRAIL_TYPE", "TYPE", "USE_TYPE", "TrailType"}
	urlAttrs      = []string{"URL", "WEB_URL", "WEBLINK", "WEBSITE"}
)

// ConsolidatedTrail is one logical trail entity built from a group of raw
// segments sharing a name. Not yet assigned to a park.
type ConsolidatedTrail struct {
	Name        string
	LengthMiles float64
	County      string
	Surface     string
	TrailType   string
	URL         string
	Centroid    *Coordinate
}

// ConsolidateSegments groups raw feed features into logical trails, one per
// distinct lower-cased name, summing segment lengths and taking the first
// non-empty value for each descriptive attribute. A group whose segments
// carry no geometry at all cannot be spatially matched and is dropped.
// Returns the consolidated trails and the dropped-group count.
func ConsolidateSegments(features []GISFeature) ([]ConsolidatedTrail, int) {
	type group struct {
		trail ConsolidatedTrail
		order int
	}
	groups := make(map[string]*group)

	for i := range features {
		f := &features[i]
		name := firstStringAttr(f.Attributes, nameAttrs)
		if name == "" {
			name = "Trail_" + recordID(f.Attributes, i)
		}
		key := strings.ToLower(strings.TrimSpace(name))

		g, ok := groups[key]
		if !ok {
			g = &group{trail: ConsolidatedTrail{Name: strings.TrimSpace(name)}, order: len(groups)}
			groups[key] = g
		}

		g.trail.LengthMiles += segmentMiles(f.Attributes)

		if g.trail.County == "" {
			g.trail.County = firstStringAttr(f.Attributes, countyAttrs)
		}
		if g.trail.Surface == "" {
			g.trail.Surface = firstStringAttr(f.Attributes, surfaceAttrs)
		}
		if g.trail.TrailType == "" {
			g.trail.TrailType = firstStringAttr(f.Attributes, typeAttrs)
		}
		if g.trail.URL == "" {
			g.trail.URL = firstStringAttr(f.Attributes, urlAttrs)
		}

		if g.trail.Centroid == nil {
			g.trail.Centroid = representativePoint(f.Geometry)
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].order < ordered[j].order })

	var trails []ConsolidatedTrail
	dropped := 0
	for _, g := range ordered {
		if g.trail.Centroid == nil {
			dropped++
			slog.Warn("dropping trail group without geometry", "name", g.trail.Name)
			continue
		}
		trails = append(trails, g.trail)
	}

	return trails, dropped
}

// representativePoint picks a single coordinate to stand for a segment: the
// midpoint vertex of its polyline, or the point itself for point features.
func representativePoint(geom *GISGeometry) *Coordinate {
	if geom == nil {
		return nil
	}
	if len(geom.Paths) > 0 && len(geom.Paths[0]) > 0 {
		path := geom.Paths[0]
		mid := path[len(path)/2]
		if len(mid) < 2 {
			return nil
		}
		return &Coordinate{Lat: mid[1], Lon: mid[0]}
	}
	if geom.X != nil && geom.Y != nil {
		return &Coordinate{Lat: *geom.Y, Lon: *geom.X}
	}
	return nil
}

// segmentMiles reads a segment's length, preferring fields already in miles
// and converting meter-based shape lengths otherwise.
func segmentMiles(attrs map[string]any) float64 {
	if v, ok := firstFloatAttr(attrs, mileAttrs); ok {
		return v
	}
	if v, ok := firstFloatAttr(attrs, meterAttrs); ok {
		return v / metersPerMile
	}
	return 0
}

func recordID(attrs map[string]any, fallback int) string {
	if id := firstStringAttr(attrs, recordIDAttrs); id != "" {
		return id
	}
	return strconv.Itoa(fallback)
}

func firstStringAttr(attrs map[string]any, candidates []string) string {
	for _, key := range candidates {
		v, ok := attrs[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		}
	}
	return ""
}

func firstFloatAttr(attrs map[string]any, candidates []string) (float64, bool) {
	for _, key := range candidates {
		v, ok := attrs[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return n, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && f > 0 {
				return f, true
			}
		}
	}
	return 0, false
}

// slugify builds the deterministic trail id from state, park and name.
func slugify(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "-"))
	var b strings.Builder
	lastDash := true
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// trailID builds the stable identifier: state + park + normalized name.
func trailID(stateCode, parkID, name string) string {
	return slugify(stateCode, parkID, name)
}
