package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Pipeline orchestrates catalog aggregation, merge, enrichment and import.
type Pipeline struct {
	config   *Config
	store    *CatalogStore
	db       *Database // nil when the relational projection is skipped
	gis      *GISFeedClient
	nps      *NPSClient
	ridb     *RIDBClient
	overpass *OverpassClient
	links    *LinkStore
}

// NewPipeline creates a pipeline over the given collaborators.
func NewPipeline(config *Config, store *CatalogStore, db *Database, gis *GISFeedClient, nps *NPSClient, ridb *RIDBClient, overpass *OverpassClient, links *LinkStore) *Pipeline {
	return &Pipeline{
		config:   config,
		store:    store,
		db:       db,
		gis:      gis,
		nps:      nps,
		ridb:     ridb,
		overpass: overpass,
		links:    links,
	}
}

// statesInScope expands the -state flag value into concrete state codes.
func statesInScope(stateFlag string) ([]string, error) {
	if strings.EqualFold(stateFlag, "ALL") {
		return allStateCodes(), nil
	}
	code := strings.ToUpper(strings.TrimSpace(stateFlag))
	if _, ok := stateNames[code]; !ok {
		return nil, fmt.Errorf("unknown state code: %s", stateFlag)
	}
	return []string{code}, nil
}

// RunParkAggregation builds the deduplicated park registry for a state from
// the national-park API, attaching official links where the store has a
// match.
func (p *Pipeline) RunParkAggregation(ctx context.Context, stateCode string) error {
	logger := slog.With("state", stateCode)
	logger.Info("starting park aggregation")

	fresh, err := p.nps.FetchParks(ctx, stateCode)
	if err != nil {
		return fmt.Errorf("failed to fetch parks for %s: %w", stateCode, err)
	}
	logger.Info("fetched parks", "count", len(fresh))

	// Existing registry entries come first so records already in the
	// catalog survive a tie on acreage.
	candidates := fresh
	if existing, err := p.store.LoadRegistry(ctx, stateCode); err != nil {
		return err
	} else if existing != nil {
		candidates = append(append([]Park{}, existing.Parks...), fresh...)
	}

	parks := DedupeParks(candidates)

	linked := 0
	for i := range parks {
		if link, ok := p.links.Match(parks[i]); ok {
			ApplyLink(&parks[i], link)
			linked++
		}
	}

	reg := &ParkRegistry{
		Meta: CatalogMeta{
			StateCode:   stateCode,
			StateName:   stateName(stateCode),
			LastUpdated: time.Now().UTC(),
			TotalParks:  len(parks),
			Sources:     []string{SourceNPS},
			RunID:       uuid.NewString(),
		},
		Parks: parks,
	}
	if err := p.store.SaveRegistry(ctx, reg); err != nil {
		return err
	}

	logger.Info("park registry saved", "parks", len(parks), "linked", linked)
	return nil
}

// RunTrailIngest fetches a state's GIS feed, consolidates segments into
// trails, assigns them to parks and merges the result into the existing
// catalog without clobbering prior records.
func (p *Pipeline) RunTrailIngest(ctx context.Context, stateCode string) error {
	logger := slog.With("state", stateCode)
	logger.Info("starting trail ingest")

	features, err := p.gis.FetchStateTrails(ctx, stateCode)
	if err != nil {
		return fmt.Errorf("failed to fetch GIS feed for %s: %w", stateCode, err)
	}
	logger.Info("fetched feed features", "count", len(features))

	consolidated, dropped := ConsolidateSegments(features)
	if dropped > 0 {
		logger.Warn("dropped trails without geometry", "count", dropped)
	}

	var registryParks []Park
	if reg, err := p.store.LoadRegistry(ctx, stateCode); err != nil {
		return err
	} else if reg != nil {
		registryParks = reg.Parks
	} else {
		logger.Warn("no park registry for state, all trails go unassigned")
	}

	now := time.Now().UTC()
	fresh := AssignTrails(consolidated, registryParks, stateCode, "state-gis", now)

	existing, err := p.store.LoadStateCatalog(ctx, stateCode)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	merged, stats := MergeStateCatalog(existing, fresh, registryParks, stateCode, runID, now)
	if err := p.store.SaveStateCatalog(ctx, merged); err != nil {
		return err
	}

	logger.Info("trail catalog merged",
		"run_id", runID,
		"matched", stats.MatchedToPark,
		"unassigned", stats.Unassigned,
		"added", stats.NewlyAdded,
		"preserved", stats.Preserved,
		"skipped_no_park", stats.SkippedNoPark,
	)

	if p.db != nil {
		imported, failed := p.db.ImportTrails(ctx, flattenTrails(merged))
		logger.Info("trails projected", "imported", imported, "failed_batches", failed)
	}
	return nil
}

// RunCampgroundAggregation unifies campground records from the national-park
// API, the federal facility API and the crowd-sourced map, then deduplicates
// them into the state's facility catalog. Enrichment already present on
// matching records is carried forward.
func (p *Pipeline) RunCampgroundAggregation(ctx context.Context, stateCode string) error {
	logger := slog.With("state", stateCode)
	logger.Info("starting campground aggregation")

	npsCGs, err := p.nps.FetchCampgrounds(ctx, stateCode)
	if err != nil {
		return fmt.Errorf("failed to fetch park campgrounds for %s: %w", stateCode, err)
	}

	ridbCGs, err := p.ridb.FetchFacilities(ctx, stateCode)
	if err != nil {
		return fmt.Errorf("failed to fetch facilities for %s: %w", stateCode, err)
	}

	osmCGs, err := p.fetchOSMCampgrounds(ctx, stateCode)
	if err != nil {
		// The crowd-sourced layer is best effort; the authoritative
		// sources still produce a usable catalog.
		logger.Warn("crowd-sourced campground query failed", "error", err)
	}
	logger.Info("fetched campgrounds",
		"nps", len(npsCGs), "ridb", len(ridbCGs), "osm", len(osmCGs))

	combined := append(append(npsCGs, ridbCGs...), osmCGs...)
	deduped := DedupeCampgrounds(combined)

	existing, err := p.store.LoadFacilityCatalog(ctx, stateCode)
	if err != nil {
		return err
	}
	carried := carryFacilityEnrichment(deduped, existing)

	fc := &FacilityCatalog{
		Meta: CatalogMeta{
			StateCode:   stateCode,
			StateName:   stateName(stateCode),
			LastUpdated: time.Now().UTC(),
			Sources:     []string{SourceNPS, SourceRIDB, SourceOSM},
			RunID:       uuid.NewString(),
		},
		Campgrounds: deduped,
	}
	if err := p.store.SaveFacilityCatalog(ctx, fc); err != nil {
		return err
	}

	logger.Info("facility catalog saved",
		"campgrounds", len(deduped), "enrichment_carried", carried)
	return nil
}

// fetchOSMCampgrounds queries the crowd-sourced map over the bounding box of
// the state's known parks. Without a registry there is no box to query.
func (p *Pipeline) fetchOSMCampgrounds(ctx context.Context, stateCode string) ([]Campground, error) {
	reg, err := p.store.LoadRegistry(ctx, stateCode)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, nil
	}

	var points []Coordinate
	for _, park := range reg.Parks {
		if park.Coordinates != nil {
			points = append(points, *park.Coordinates)
		}
	}
	box, ok := boundingBox(points)
	if !ok {
		return nil, nil
	}

	elements, err := p.overpass.QueryCampgrounds(ctx, box)
	if err != nil {
		return nil, err
	}
	return OSMCampgrounds(elements, stateCode), nil
}

// carryFacilityEnrichment copies detail-phase fields from a previous catalog
// onto matching fresh records so re-aggregation does not undo enrichment.
func carryFacilityEnrichment(fresh []Campground, existing *FacilityCatalog) int {
	if existing == nil {
		return 0
	}
	prior := make(map[string]*Campground, len(existing.Campgrounds))
	for i := range existing.Campgrounds {
		prior[existing.Campgrounds[i].ID] = &existing.Campgrounds[i]
	}

	carried := 0
	for i := range fresh {
		old, ok := prior[fresh[i].ID]
		if !ok || old.Amenities == nil {
			continue
		}
		cg := &fresh[i]
		cg.Phone = old.Phone
		cg.Amenities = old.Amenities
		cg.SiteTypes = old.SiteTypes
		cg.PetFriendly = old.PetFriendly
		cg.Prices = old.Prices
		cg.OpenSeason = old.OpenSeason
		cg.NearestParkID = old.NearestParkID
		cg.Rating = old.Rating
		carried++
	}
	return carried
}

// RunEnrichment executes the requested enrichment phase(s) for a state.
// Phases only fill null fields, so reruns are safe; partial failure inside a
// phase is logged and the rest of the run proceeds.
func (p *Pipeline) RunEnrichment(ctx context.Context, stateCode, phase string) error {
	logger := slog.With("state", stateCode, "phase", phase)
	logger.Info("starting enrichment")

	catalog, err := p.store.LoadStateCatalog(ctx, stateCode)
	if err != nil {
		return err
	}
	facilities, err := p.store.LoadFacilityCatalog(ctx, stateCode)
	if err != nil {
		return err
	}
	if catalog == nil && facilities == nil {
		return fmt.Errorf("no catalog documents for state %s", stateCode)
	}

	var registryParks []Park
	if reg, err := p.store.LoadRegistry(ctx, stateCode); err != nil {
		return err
	} else if reg != nil {
		registryParks = reg.Parks
	}

	backoff := p.config.Pipeline.RateLimitBackoff

	if phase == "all" || phase == "1" {
		stats := EnrichComputedFields(catalog, facilities, registryParks)
		logger.Info("computed-field phase done",
			"updated", stats.Updated, "skipped", stats.Skipped)
	}

	if (phase == "all" || phase == "2") && facilities != nil {
		limiter := rate.NewLimiter(rate.Every(p.config.Pipeline.FacilityDelay), 1)
		stats := EnrichFacilityDetails(ctx, facilities, p.ridb, limiter, backoff)
		logger.Info("facility-detail phase done",
			"updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	}

	if (phase == "all" || phase == "3") && catalog != nil {
		limiter := rate.NewLimiter(rate.Every(p.config.Pipeline.OverpassDelay), 1)
		stats := EnrichTrailTags(ctx, catalog, p.overpass, limiter, backoff)
		logger.Info("trail-tag phase done",
			"updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	}

	if catalog != nil {
		catalog.Meta.LastUpdated = time.Now().UTC()
		if err := p.store.SaveStateCatalog(ctx, catalog); err != nil {
			return err
		}
	}
	if facilities != nil {
		facilities.Meta.LastUpdated = time.Now().UTC()
		if err := p.store.SaveFacilityCatalog(ctx, facilities); err != nil {
			return err
		}
	}

	logger.Info("enrichment saved")
	return nil
}

// RunImport projects a state's object-store documents into the relational
// store. The object store stays the source of truth; a failed batch here
// never blocks the rest.
func (p *Pipeline) RunImport(ctx context.Context, stateCode string) error {
	if p.db == nil {
		return fmt.Errorf("import requires a database connection")
	}
	logger := slog.With("state", stateCode)
	logger.Info("starting relational import")

	if reg, err := p.store.LoadRegistry(ctx, stateCode); err != nil {
		return err
	} else if reg != nil {
		imported, failed := p.db.ImportParks(ctx, reg.Parks)
		logger.Info("parks projected", "imported", imported, "failed_batches", failed)
	}

	if catalog, err := p.store.LoadStateCatalog(ctx, stateCode); err != nil {
		return err
	} else if catalog != nil {
		imported, failed := p.db.ImportTrails(ctx, flattenTrails(catalog))
		logger.Info("trails projected", "imported", imported, "failed_batches", failed)

		if count, err := p.db.CountTrailsByState(ctx, stateCode); err == nil && count != catalog.Meta.TotalTrails {
			logger.Warn("projection drift against the document",
				"projected", count, "document", catalog.Meta.TotalTrails)
		}
	}

	if fc, err := p.store.LoadFacilityCatalog(ctx, stateCode); err != nil {
		return err
	} else if fc != nil {
		imported, failed := p.db.ImportCampgrounds(ctx, fc.Campgrounds)
		logger.Info("campgrounds projected", "imported", imported, "failed_batches", failed)
	}
	return nil
}

// flattenTrails lists every trail in a state document, unassigned bucket
// included, in stable park-id order.
func flattenTrails(catalog *StateCatalog) []Trail {
	var trails []Trail
	for _, parkID := range sortedParkIDs(catalog) {
		trails = append(trails, catalog.Parks[parkID].Trails...)
	}
	return trails
}

func sortedParkIDs(catalog *StateCatalog) []string {
	ids := make([]string, 0, len(catalog.Parks))
	for id := range catalog.Parks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
