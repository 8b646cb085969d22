// Package opendrive provides the OpenDRIVE road-network data model and
// the XODR parser building it. Roads are immutable after parsing; all
// accessors are read-only lookups by longitudinal position.
package opendrive

import (
	"fmt"
	"math"
	"sort"
)

// positionEps absorbs floating-point drift at segment boundaries.
const positionEps = 1e-6

// GeometryLookupError reports a query offset that no reference-line
// segment covers, i.e. a gap or overlap in the road's plan view.
type GeometryLookupError struct {
	RoadID string
	S      float64
}

func (e *GeometryLookupError) Error() string {
	return fmt.Sprintf("opendrive: road %s has no geometry covering s=%g", e.RoadID, e.S)
}

// ElevationRecord defines elevation (or superelevation) along a road as
// a cubic polynomial of the distance from its start offset. The mesh
// pipeline uses the simplified piecewise-linear reading of the profile;
// the full coefficients are retained from the input.
type ElevationRecord struct {
	S          float64
	A, B, C, D float64
}

// Road is a single road: a reference line built from geometry segments,
// lane sections describing the cross-section, and elevation profiles.
type Road struct {
	ID       string
	Name     string
	Length   float64
	Junction string

	Geometries      []Geometry        // ordered by S, contiguous
	Sections        []LaneSection     // ordered by S
	Elevations      []ElevationRecord // ordered by S
	Superelevations []ElevationRecord // ordered by S
}

// GeometryAt returns the segment whose [S, S+length) interval contains
// s. The last segment's interval is closed at the road's total length.
// A query that resolves to no segment returns a GeometryLookupError.
func (r *Road) GeometryAt(s float64) (*Geometry, error) {
	if len(r.Geometries) == 0 || s < -positionEps {
		return nil, &GeometryLookupError{RoadID: r.ID, S: s}
	}

	i := sort.Search(len(r.Geometries), func(i int) bool {
		return r.Geometries[i].S > s+positionEps
	}) - 1
	if i < 0 {
		return nil, &GeometryLookupError{RoadID: r.ID, S: s}
	}

	g := &r.Geometries[i]
	end := g.End()
	if i == len(r.Geometries)-1 {
		// Closed at road end so the forced final sample always resolves.
		end = math.Max(end, r.Length)
	}
	if s > end+positionEps {
		return nil, &GeometryLookupError{RoadID: r.ID, S: s}
	}
	return g, nil
}

// SectionAt returns the lane section active at s: the last section
// starting at or before s. Queries before the first section resolve to
// the first section.
func (r *Road) SectionAt(s float64) *LaneSection {
	if len(r.Sections) == 0 {
		return nil
	}
	i := sort.Search(len(r.Sections), func(i int) bool {
		return r.Sections[i].S > s+positionEps
	}) - 1
	if i < 0 {
		i = 0
	}
	return &r.Sections[i]
}

// SectionEnd returns the end offset of the section at index idx: the
// next section's start, or the road length for the last section.
func (r *Road) SectionEnd(idx int) float64 {
	if idx+1 < len(r.Sections) {
		return r.Sections[idx+1].S
	}
	return r.Length
}

// ElevationAt returns the reference-line elevation at s, interpolated
// linearly between the bracketing elevation records and extrapolated
// flat beyond the profile ends.
func (r *Road) ElevationAt(s float64) float64 {
	return interpolateProfile(r.Elevations, s)
}

// SuperelevationAt returns the cross-slope at s using the same
// piecewise-linear reading as the elevation profile.
func (r *Road) SuperelevationAt(s float64) float64 {
	return interpolateProfile(r.Superelevations, s)
}

func interpolateProfile(recs []ElevationRecord, s float64) float64 {
	if len(recs) == 0 {
		return 0
	}

	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].S > s
	}) - 1
	if i < 0 {
		return recs[0].A
	}
	if i == len(recs)-1 {
		return recs[i].A
	}

	r0, r1 := &recs[i], &recs[i+1]
	span := r1.S - r0.S
	if span <= 0 {
		return r1.A
	}
	t := (s - r0.S) / span
	return r0.A + t*(r1.A-r0.A)
}

// Header carries the OpenDRIVE document header.
type Header struct {
	RevMajor int
	RevMinor int
	Name     string
	Version  string
	North    float64
	South    float64
	East     float64
	West     float64
}

// RoadNetwork is a parsed OpenDRIVE document.
type RoadNetwork struct {
	Header Header
	Roads  []Road
}

// RoadByID returns the road with the given id, or nil.
func (n *RoadNetwork) RoadByID(id string) *Road {
	for i := range n.Roads {
		if n.Roads[i].ID == id {
			return &n.Roads[i]
		}
	}
	return nil
}
