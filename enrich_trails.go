package main

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/time/rate"
)

// enrichGridCellDeg is the side length of the query grid. Half a degree
// keeps any single community-map query small enough to service.
const enrichGridCellDeg = 0.5

// surfaceValues folds community-map surface free text onto the catalog's
// surface enumeration.
var surfaceValues = map[string]string{
	"paved":       "paved",
	"asphalt":     "paved",
	"concrete":    "paved",
	"chipseal":    "paved",
	"gravel":      "gravel",
	"fine_gravel": "gravel",
	"compacted":   "gravel",
	"pebblestone": "gravel",
	"dirt":        "dirt",
	"ground":      "dirt",
	"earth":       "dirt",
	"unpaved":     "dirt",
	"rock":        "rock",
	"stone":       "rock",
	"bare_rock":   "rock",
	"wood":        "boardwalk",
	"boardwalk":   "boardwalk",
}

// mapSurface normalizes a surface tag. Multi-valued tags become "mixed";
// unmappable values stay nil.
func mapSurface(value string) *string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return nil
	}
	if strings.Contains(v, ";") {
		return strptr("mixed")
	}
	if mapped, ok := surfaceValues[v]; ok {
		return strptr(mapped)
	}
	return nil
}

// mapElevationFeet parses an elevation tag. The unit suffix decides feet vs
// meters; bare numbers are meters per the community-map convention.
func mapElevationFeet(value string) *int {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return nil
	}

	feet := false
	switch {
	case strings.HasSuffix(v, "ft"):
		v = strings.TrimSpace(strings.TrimSuffix(v, "ft"))
		feet = true
	case strings.HasSuffix(v, "'"):
		v = strings.TrimSpace(strings.TrimSuffix(v, "'"))
		feet = true
	case strings.HasSuffix(v, "m"):
		v = strings.TrimSpace(strings.TrimSuffix(v, "m"))
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	if !feet {
		n *= 3.28084
	}
	return intptr(int(math.Round(n)))
}

// mapDogPolicy turns a dog access tag into a boolean, nil when the value
// states nothing usable.
func mapDogPolicy(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "leashed", "permissive", "unleashed":
		return boolptr(true)
	case "no", "private":
		return boolptr(false)
	}
	return nil
}

// mapSeason folds seasonal/opening-hours tag values onto the season
// enumeration via substring rules.
func mapSeason(value string) *string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return nil
	case strings.Contains(v, "24/7"), strings.Contains(v, "year"):
		return strptr("year-round")
	case strings.Contains(v, "winter"):
		return strptr("winter-only")
	case strings.Contains(v, "summer"):
		return strptr("summer-only")
	case v == "no":
		return strptr("year-round")
	case v == "yes", strings.Contains(v, "season"):
		return strptr("seasonal")
	}
	return nil
}

// trailNeedsEnrichment reports whether phase 3 still has anything to fill.
func trailNeedsEnrichment(t *Trail) bool {
	return t.SurfaceType == nil || t.ElevationFeet == nil || t.DogFriendly == nil || t.Season == nil
}

// EnrichTrailTags is enrichment phase 3: for each state catalog with trails
// still missing community-map fields, decompose the bounding box of those
// trails into half-degree grid cells and issue one tag-only query per cell.
// Cells are processed strictly one at a time behind the limiter; a 429
// sleeps and retries the same cell up to the retry cap, while a 504 marks
// the cell too dense to service and skips it for the rest of the run.
func EnrichTrailTags(ctx context.Context, catalog *StateCatalog, client *OverpassClient, limiter *rate.Limiter, rateLimitBackoff time.Duration) EnrichStats {
	var stats EnrichStats
	logger := slog.With("phase", "trail-tags", "state", catalog.Meta.StateCode)

	// Index pending trails by normalized name and collect their coordinates.
	pending := make(map[string][]*Trail)
	var points []Coordinate
	for _, pt := range catalog.Parks {
		for i := range pt.Trails {
			t := &pt.Trails[i]
			if !trailNeedsEnrichment(t) || t.Trailhead == nil {
				stats.Skipped++
				continue
			}
			key := strings.ToLower(strings.TrimSpace(t.Name))
			pending[key] = append(pending[key], t)
			points = append(points, *t.Trailhead)
		}
	}
	if len(pending) == 0 {
		logger.Info("no trails need tag enrichment")
		return stats
	}

	bound, _ := boundingBox(points)
	cells := gridCells(bound, enrichGridCellDeg)
	logger.Info("querying community map", "pending_trails", len(pending), "grid_cells", len(cells))

	for _, cell := range cells {
		if err := limiter.Wait(ctx); err != nil {
			return stats
		}

		elements, err := queryCellWithRetry(ctx, client, cell, rateLimitBackoff)
		if err != nil {
			stats.Errors++
			if IsOverloaded(err) {
				logger.Warn("cell too dense to service, skipping", "cell", bboxClause(cell))
			} else {
				logger.Warn("cell query failed", "cell", bboxClause(cell), "error", err)
			}
			continue
		}

		for _, el := range elements {
			name := strings.ToLower(strings.TrimSpace(el.Tags["name"]))
			trails, ok := pending[name]
			if !ok {
				continue
			}
			for _, t := range trails {
				if applyTrailTags(t, el.Tags) {
					stats.Updated++
				}
			}
		}
	}

	logger.Info("trail tag enrichment complete",
		"updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats
}

// applyTrailTags fills any still-absent enrichment field from the element's
// tags. Populated fields are never overwritten.
func applyTrailTags(t *Trail, tags map[string]string) bool {
	touched := false

	if t.SurfaceType == nil {
		if s := mapSurface(tags["surface"]); s != nil {
			t.SurfaceType = s
			touched = true
		}
	}
	if t.ElevationFeet == nil {
		if e := mapElevationFeet(tags["ele"]); e != nil {
			t.ElevationFeet = e
			touched = true
		}
	}
	if t.DogFriendly == nil {
		if d := mapDogPolicy(tags["dog"]); d != nil {
			t.DogFriendly = d
			touched = true
		}
	}
	if t.Season == nil {
		season := mapSeason(tags["seasonal"])
		if season == nil {
			season = mapSeason(tags["opening_hours"])
		}
		if season != nil {
			t.Season = season
			touched = true
		}
	}

	return touched
}

func queryCellWithRetry(ctx context.Context, client *OverpassClient, cell orb.Bound, backoff time.Duration) ([]OverpassElement, error) {
	var lastErr error
	for attempt := 0; attempt < maxRateLimitRetries; attempt++ {
		elements, err := client.QueryTrailTags(ctx, cell)
		if err == nil {
			return elements, nil
		}
		if !IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
		if !sleepCtx(ctx, backoff) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
