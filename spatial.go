package main

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

const (
	// earthRadiusMiles is the mean Earth radius used by the haversine formula.
	earthRadiusMiles = 3959.0

	// ParkMatchRadiusMiles is the maximum distance at which a trail is
	// assigned to a specific park. Beyond it the trail falls into the
	// state-wide unassigned bucket.
	ParkMatchRadiusMiles = 15.0

	// NearbyRadiusMiles bounds the nearbyParks list on every trail.
	NearbyRadiusMiles = 50.0

	// FacilityLinkRadiusMeters bounds facility-to-park linking (~25 miles).
	FacilityLinkRadiusMeters = 40234.0

	metersPerMile = 1609.344
)

// DistanceMiles returns the great-circle distance between two coordinates
// using the haversine formula.
func DistanceMiles(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// NearestPark returns the candidate park closest to point if it lies within
// maxRadiusMiles. Candidates are scanned in id order so that an exact
// distance tie always resolves the same way.
func NearestPark(point Coordinate, candidates []Park, maxRadiusMiles float64) (*Park, float64, bool) {
	ordered := make([]Park, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var best *Park
	bestDist := math.MaxFloat64

	for i := range ordered {
		p := &ordered[i]
		if p.Coordinates == nil {
			continue
		}
		d := DistanceMiles(point, *p.Coordinates)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}

	if best == nil || bestDist > maxRadiusMiles {
		return nil, 0, false
	}
	return best, bestDist, true
}

// NearbyParks returns every candidate within radiusMiles of point, sorted
// ascending by distance, each tagged with the distance rounded to one
// decimal place.
func NearbyParks(point Coordinate, candidates []Park, radiusMiles float64) []NearbyPark {
	var nearby []NearbyPark
	for i := range candidates {
		p := &candidates[i]
		if p.Coordinates == nil {
			continue
		}
		d := DistanceMiles(point, *p.Coordinates)
		if d > radiusMiles {
			continue
		}
		nearby = append(nearby, NearbyPark{
			ParkID:        p.ID,
			ParkName:      p.Name,
			DistanceMiles: roundTo(d, 1),
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceMiles == nearby[j].DistanceMiles {
			return nearby[i].ParkID < nearby[j].ParkID
		}
		return nearby[i].DistanceMiles < nearby[j].DistanceMiles
	})

	return nearby
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// boundingBox returns the bounding box of the given coordinates, or false
// when the list is empty.
func boundingBox(points []Coordinate) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}

	b := orb.Bound{
		Min: orb.Point{points[0].Lon, points[0].Lat},
		Max: orb.Point{points[0].Lon, points[0].Lat},
	}
	for _, c := range points[1:] {
		b = b.Extend(orb.Point{c.Lon, c.Lat})
	}
	return b, true
}

// gridCells decomposes a bounding box into cells of cellDeg degrees on each
// side. Cells along the top and right edges are clipped to the box. Used to
// keep any single bulk query bounded.
func gridCells(b orb.Bound, cellDeg float64) []orb.Bound {
	var cells []orb.Bound
	minLat := b.Min.Lat()
	for {
		maxLat := math.Min(minLat+cellDeg, b.Max.Lat())
		minLon := b.Min.Lon()
		for {
			maxLon := math.Min(minLon+cellDeg, b.Max.Lon())
			cells = append(cells, orb.Bound{
				Min: orb.Point{minLon, minLat},
				Max: orb.Point{maxLon, maxLat},
			})
			minLon += cellDeg
			if minLon >= b.Max.Lon() {
				break
			}
		}
		minLat += cellDeg
		if minLat >= b.Max.Lat() {
			break
		}
	}
	return cells
}
