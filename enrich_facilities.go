package main

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// amenityVocabulary maps free-text keywords to amenity identifiers. Matching
// is case-insensitive substring containment against descriptions and
// campsite attributes.
var amenityVocabulary = []struct {
	keyword string
	amenity string
}{
	{"shower", "showers"},
	{"flush toilet", "flush_toilets"},
	{"vault toilet", "vault_toilets"},
	{"drinking water", "drinking_water"},
	{"potable water", "drinking_water"},
	{"electric", "electric_hookups"},
	{"sewer", "sewer_hookups"},
	{"dump station", "dump_station"},
	{"laundry", "laundry"},
	{"camp store", "camp_store"},
	{"firewood", "firewood"},
	{"playground", "playground"},
	{"boat launch", "boat_launch"},
	{"wifi", "wifi"},
	{"wi-fi", "wifi"},
}

// siteTypeKeywords maps campsite-type substrings to site type identifiers.
var siteTypeKeywords = []struct {
	keyword  string
	siteType string
}{
	{"tent", "tent"},
	{"rv", "rv"},
	{"group", "group"},
	{"cabin", "cabin"},
	{"yurt", "yurt"},
	{"equestrian", "equestrian"},
	{"boat", "boat_in"},
	{"walk", "walk_to"},
}

var (
	monthPattern = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

	yearRoundRe  = regexp.MustCompile(`(?i)\byear[\s-]?round\b|\bopen all year\b`)
	monthRangeRe = regexp.MustCompile(`(?i)\b(` + monthPattern + `)\s*(?:through|thru|to|until|[-–])\s*(` + monthPattern + `)\b`)
	seasonalRe   = regexp.MustCompile(`(?i)\bseasonal\b`)

	petAllowedRe = regexp.MustCompile(`(?i)\bpets?\s+(?:are\s+)?allowed\b|\bpet[\s-]?friendly\b|\bdogs?\s+(?:are\s+)?allowed\b`)
	petBannedRe  = regexp.MustCompile(`(?i)\bno\s+pets\b|\bpets?\s+(?:are\s+)?(?:not\s+allowed|prohibited)\b`)
)

// deriveAmenities scans free text for the amenity vocabulary.
func deriveAmenities(texts ...string) []string {
	joined := strings.ToLower(strings.Join(texts, " "))
	var found []string
	for _, entry := range amenityVocabulary {
		if strings.Contains(joined, entry.keyword) {
			found = append(found, entry.amenity)
		}
	}
	return unionStrings(found)
}

// deriveSiteTypes maps structured campsite types onto the site-type set.
func deriveSiteTypes(campsites []FacilityCampsite) []string {
	var found []string
	for _, cs := range campsites {
		lowered := strings.ToLower(cs.CampsiteType)
		for _, entry := range siteTypeKeywords {
			if strings.Contains(lowered, entry.keyword) {
				found = append(found, entry.siteType)
			}
		}
	}
	return unionStrings(found)
}

// derivePetPolicy inspects attributes first, then description keywords.
// Returns nil when nothing states a policy either way.
func derivePetPolicy(description string, campsites []FacilityCampsite) *bool {
	for _, cs := range campsites {
		for _, attr := range cs.Attributes {
			if !strings.Contains(strings.ToLower(attr.AttributeName), "pet") {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(attr.AttributeValue)) {
			case "yes", "true", "y", "domestic":
				return boolptr(true)
			case "no", "false", "n":
				return boolptr(false)
			}
		}
	}
	if petBannedRe.MatchString(description) {
		return boolptr(false)
	}
	if petAllowedRe.MatchString(description) {
		return boolptr(true)
	}
	return nil
}

// derivePriceRange takes the min/max of positive fees across campsites.
func derivePriceRange(campsites []FacilityCampsite) *PriceRange {
	var pr *PriceRange
	for _, cs := range campsites {
		for _, fee := range cs.Fees {
			if fee.FeeAmount <= 0 {
				continue
			}
			if pr == nil {
				pr = &PriceRange{Min: fee.FeeAmount, Max: fee.FeeAmount}
				continue
			}
			if fee.FeeAmount < pr.Min {
				pr.Min = fee.FeeAmount
			}
			if fee.FeeAmount > pr.Max {
				pr.Max = fee.FeeAmount
			}
		}
	}
	return pr
}

// deriveOpenSeason pattern-matches a description: an explicit year-round
// phrase wins, then a month range, then the bare word "seasonal". Returns
// nil when no pattern matches.
func deriveOpenSeason(description string) *string {
	if yearRoundRe.MatchString(description) {
		return strptr("year-round")
	}
	if m := monthRangeRe.FindStringSubmatch(description); m != nil {
		return strptr(m[1] + " - " + m[2])
	}
	if seasonalRe.MatchString(description) {
		return strptr("seasonal")
	}
	return nil
}

// EnrichFacilityDetails is enrichment phase 2: walk every un-enriched RIDB
// facility sequentially, fetching its detail and campsite list and deriving
// the enrichment fields. The walk is deliberately sequential with a fixed
// inter-request delay; parallelizing it would violate the API's usage
// policy. A 429 sleeps and retries the same facility up to the retry cap;
// any other failure counts as an error and moves on. An enriched facility
// always ends up with a non-nil amenity set, which is the phase's
// idempotence marker.
func EnrichFacilityDetails(ctx context.Context, facilities *FacilityCatalog, client *RIDBClient, limiter *rate.Limiter, rateLimitBackoff time.Duration) EnrichStats {
	var stats EnrichStats
	logger := slog.With("phase", "facility-detail", "state", facilities.Meta.StateCode)

	for i := range facilities.Campgrounds {
		cg := &facilities.Campgrounds[i]

		if cg.Amenities != nil {
			stats.Skipped++
			continue
		}
		facilityID, isRIDB := strings.CutPrefix(cg.ID, "ridb-")
		if !isRIDB {
			stats.Skipped++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return stats
		}

		detail, campsites, err := fetchFacilityWithRetry(ctx, client, facilityID, rateLimitBackoff)
		if err != nil {
			stats.Errors++
			logger.Warn("facility enrichment failed", "facility_id", facilityID, "error", err)
			continue
		}

		if detail.FacilityPhone != "" {
			cg.Phone = strptr(detail.FacilityPhone)
		}
		cg.Amenities = deriveAmenities(detail.FacilityDescription, attributeText(campsites))
		if cg.Amenities == nil {
			cg.Amenities = []string{}
		}
		cg.SiteTypes = deriveSiteTypes(campsites)
		if cg.PetFriendly == nil {
			cg.PetFriendly = derivePetPolicy(detail.FacilityDescription, campsites)
		}
		if cg.Prices == nil {
			cg.Prices = derivePriceRange(campsites)
		}
		if cg.OpenSeason == nil {
			cg.OpenSeason = deriveOpenSeason(detail.FacilityDescription)
		}

		stats.Updated++
	}

	logger.Info("facility-detail enrichment complete",
		"updated", stats.Updated, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats
}

const maxRateLimitRetries = 3

func fetchFacilityWithRetry(ctx context.Context, client *RIDBClient, facilityID string, backoff time.Duration) (*FacilityDetail, []FacilityCampsite, error) {
	var lastErr error
	for attempt := 0; attempt < maxRateLimitRetries; attempt++ {
		detail, err := client.FetchFacilityDetail(ctx, facilityID)
		if err == nil {
			campsites, csErr := client.FetchCampsites(ctx, facilityID)
			if csErr == nil {
				return detail, campsites, nil
			}
			err = csErr
		}

		if !IsRateLimited(err) {
			return nil, nil, err
		}
		lastErr = err
		if !sleepCtx(ctx, backoff) {
			return nil, nil, ctx.Err()
		}
	}
	return nil, nil, lastErr
}

// attributeText flattens campsite attributes into searchable text for the
// amenity vocabulary.
func attributeText(campsites []FacilityCampsite) string {
	var b strings.Builder
	for _, cs := range campsites {
		for _, attr := range cs.Attributes {
			b.WriteString(attr.AttributeName)
			b.WriteByte(' ')
			b.WriteString(attr.AttributeValue)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
