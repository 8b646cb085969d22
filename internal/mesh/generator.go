package mesh

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/Faultbox/xodr2dae/internal/material"
	"github.com/Faultbox/xodr2dae/pkg/geom"
	"github.com/Faultbox/xodr2dae/pkg/opendrive"
)

const (
	// sampleEps absorbs float drift when matching sample offsets to
	// section and segment boundaries.
	sampleEps = 1e-9

	// markLift raises road marks slightly above the surface so they
	// are not z-fighting with the lane mesh.
	markLift = 0.01
)

// Options configure mesh generation.
type Options struct {
	// StepSize is the longitudinal sampling interval in meters. Must
	// be positive.
	StepSize float64

	// SurfaceTileLength is the arc length covered by one texture
	// repeat on lane surfaces.
	SurfaceTileLength float64

	// MarkTileLength is the texture repeat length on road marks.
	MarkTileLength float64

	// DashLength and GapLength define the dash cycle of broken road
	// marks, phased by arc length from the road start.
	DashLength float64
	GapLength  float64
}

// DefaultOptions returns the stock generation parameters.
func DefaultOptions() Options {
	return Options{
		StepSize:          1.0,
		SurfaceTileLength: 10.0,
		MarkTileLength:    2.0,
		DashLength:        3.0,
		GapLength:         1.0,
	}
}

func (o *Options) applyDefaults() {
	def := DefaultOptions()
	if o.SurfaceTileLength <= 0 {
		o.SurfaceTileLength = def.SurfaceTileLength
	}
	if o.MarkTileLength <= 0 {
		o.MarkTileLength = def.MarkTileLength
	}
	if o.DashLength <= 0 {
		o.DashLength = def.DashLength
	}
	if o.GapLength <= 0 {
		o.GapLength = def.GapLength
	}
}

// Diagnostic is a non-fatal condition reported during generation.
type Diagnostic struct {
	RoadID string
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("road %s: %v", d.RoadID, d.Err)
}

// Generator samples roads at a fixed step and builds triangle meshes
// for lane surfaces and road marks. It holds no mutable state between
// calls: generating twice from the same network yields identical
// meshes.
type Generator struct {
	lib  *material.Library
	opts Options
}

// NewGenerator returns a generator using the given material library.
func NewGenerator(lib *material.Library, opts Options) (*Generator, error) {
	if opts.StepSize <= 0 {
		return nil, errors.Errorf("mesh: step size must be positive, got %g", opts.StepSize)
	}
	opts.applyDefaults()
	return &Generator{lib: lib, opts: opts}, nil
}

// GenerateNetwork builds meshes for every road in the network. Roads
// whose reference line has coverage gaps are skipped with a diagnostic;
// the rest of the batch continues. All returned meshes are frozen.
func (g *Generator) GenerateNetwork(net *opendrive.RoadNetwork) (map[string]*MeshData, []Diagnostic) {
	meshes := make(map[string]*MeshData)
	var diags []Diagnostic

	for i := range net.Roads {
		road := &net.Roads[i]
		roadMeshes, err := g.generateRoad(road)
		if err != nil {
			diags = append(diags, Diagnostic{RoadID: road.ID, Err: err})
			continue
		}

		triangles := 0
		for name, m := range roadMeshes {
			if m.TriangleCount() == 0 {
				continue
			}
			triangles += m.TriangleCount()
			meshes[name] = m
		}
		if triangles == 0 {
			diags = append(diags, Diagnostic{RoadID: road.ID, Err: ErrEmptyMesh})
		}
	}

	for _, m := range meshes {
		m.Freeze()
	}
	return meshes, diags
}

// centerSample is one evaluated point on a road's reference line.
type centerSample struct {
	s      float64   // offset from road start
	x, y   float64   // centerline position
	elev   float64   // centerline elevation
	normal geom.Vec2 // unit lateral direction, 90deg left of heading
	super  float64   // cross slope, applied to z only
}

// point returns the 3D point at the given signed lateral offset.
func (c *centerSample) point(offset, lift float64) geom.Vec3 {
	return geom.Vec3{
		X: c.x + c.normal.X*offset,
		Y: c.y + c.normal.Y*offset,
		Z: c.elev + c.super*offset + lift,
	}
}

func (g *Generator) generateRoad(road *opendrive.Road) (map[string]*MeshData, error) {
	meshes := make(map[string]*MeshData)

	for idx := range road.Sections {
		section := &road.Sections[idx]
		start, end := section.S, road.SectionEnd(idx)
		if end <= start {
			continue
		}

		offsets := sampleOffsets(start, end, g.opts.StepSize)
		samples, err := g.sampleCenterline(road, offsets)
		if err != nil {
			return nil, err
		}

		g.generateSide(meshes, road, section, samples, section.Left, false)
		g.generateSide(meshes, road, section, samples, section.Right, true)

		if section.Center != nil && section.Center.Mark != nil {
			// The center mark runs on the reference line itself.
			boundary := make([]float64, len(samples))
			g.generateMark(meshes, road, section, section.Center, samples, boundary)
		}
	}

	return meshes, nil
}

// generateSide walks one side's lanes in centerline-outward order,
// accumulating each lane's boundary offsets from a running total so
// adjacent lanes share edges exactly. Lanes arrive pre-sorted from the
// parser: left ascending by id, right descending.
func (g *Generator) generateSide(meshes map[string]*MeshData, road *opendrive.Road,
	section *opendrive.LaneSection, samples []centerSample, lanes []opendrive.Lane, right bool) {

	running := make([]float64, len(samples))
	inner := make([]float64, len(samples))
	outer := make([]float64, len(samples))

	for i := range lanes {
		lane := &lanes[i]

		for k := range samples {
			w := lane.WidthAt(samples[k].s - section.S)
			inner[k] = running[k]
			if right {
				running[k] -= w
			} else {
				running[k] += w
			}
			outer[k] = running[k]
		}

		g.generateSurface(meshes, road, lane, samples, inner, outer)
		if lane.Mark != nil {
			g.generateMark(meshes, road, section, lane, samples, outer)
		}
	}
}

// generateSurface emits the quad strip between a lane's inner and
// outer boundaries. Samples where the lane width is zero contribute no
// vertices; the strip restarts after each zero-width stretch. A lane
// that is zero-width everywhere produces no mesh at all.
func (g *Generator) generateSurface(meshes map[string]*MeshData, road *opendrive.Road,
	lane *opendrive.Lane, samples []centerSample, inner, outer []float64) {

	var mesh *MeshData
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		if end-runStart >= 2 {
			if mesh == nil {
				mesh = g.surfaceMesh(meshes, road, lane)
			}
			g.emitSurfaceStrip(mesh, samples[runStart:end], inner[runStart:end], outer[runStart:end])
		}
		runStart = -1
	}

	for k := range samples {
		if math.Abs(outer[k]-inner[k]) > sampleEps {
			if runStart < 0 {
				runStart = k
			}
		} else {
			flush(k)
		}
	}
	flush(len(samples))
}

func (g *Generator) surfaceMesh(meshes map[string]*MeshData, road *opendrive.Road, lane *opendrive.Lane) *MeshData {
	name := fmt.Sprintf("road_%s_lane_%d", road.ID, lane.ID)
	m, ok := meshes[name]
	if !ok {
		m = NewMeshData(name)
		m.SetMaterial(surfaceMaterial(lane))
		meshes[name] = m
	}
	return m
}

func surfaceMaterial(lane *opendrive.Lane) string {
	if lane.Type == opendrive.LaneShoulder {
		return material.Shoulder
	}
	return material.Asphalt
}

// emitSurfaceStrip appends one contiguous quad strip. The vertex block
// layout is all inner-edge points followed by all outer-edge points;
// u follows arc length from the road start, v is 0 at the inner edge
// and 1 at the outer edge.
func (g *Generator) emitSurfaceStrip(mesh *MeshData, samples []centerSample, inner, outer []float64) {
	// Triangles wind counter-clockwise seen from +Z when the first
	// edge runs along the greater lateral offset, so the edge blocks
	// swap roles between road sides.
	left, right := outer, inner // left lanes: outer edge is further left
	vLeft, vRight := 1.0, 0.0
	if outer[0] < inner[0] {
		left, right = inner, outer
		vLeft, vRight = 0.0, 1.0
	}
	g.emitStrip(mesh, samples, left, right, vLeft, vRight, g.opts.SurfaceTileLength, 0)
}

// emitStrip appends a quad strip between two boundary offset curves.
// The left offsets must be the lateral-positive side for consistent
// counter-clockwise winding viewed from +Z.
func (g *Generator) emitStrip(mesh *MeshData, samples []centerSample,
	left, right []float64, vLeft, vRight, tileLength, lift float64) {

	base := uint32(mesh.VertexCount())
	n := uint32(len(samples))
	up := geom.Vec3{Z: 1}

	for k := range samples {
		mesh.AddVertex(samples[k].point(left[k], lift))
		mesh.AddNormal(up)
		mesh.AddTexCoord(samples[k].s/tileLength, vLeft)
	}
	for k := range samples {
		mesh.AddVertex(samples[k].point(right[k], lift))
		mesh.AddNormal(up)
		mesh.AddTexCoord(samples[k].s/tileLength, vRight)
	}

	for i := uint32(0); i+1 < n; i++ {
		l, lNext := base+i, base+i+1
		r, rNext := base+n+i, base+n+i+1
		mesh.AddTriangle(l, r, rNext)
		mesh.AddTriangle(l, rNext, lNext)
	}
}

// generateMark emits the painted-line quad strip along a lane's outer
// boundary. The line expands laterally (along the same normal used for
// lane offsets) by half the mark width to each side, lifted slightly
// above the surface.
func (g *Generator) generateMark(meshes map[string]*MeshData, road *opendrive.Road,
	section *opendrive.LaneSection, lane *opendrive.Lane, samples []centerSample, boundary []float64) {

	mark := lane.Mark
	if mark == nil || mark.Type == opendrive.MarkNone {
		return
	}

	// The mark starts sOffset into the section; snap to the sample grid.
	from := 0
	markStart := section.S + mark.SOffset
	for from < len(samples) && samples[from].s < markStart-sampleEps {
		from++
	}
	if len(samples)-from < 2 {
		return
	}
	samples = samples[from:]
	boundary = boundary[from:]

	name := fmt.Sprintf("road_%s_lane_%d_mark", road.ID, lane.ID)
	m, ok := meshes[name]
	if !ok {
		m = NewMeshData(name)
		m.SetMaterial(markMaterial(mark))
		meshes[name] = m
	}

	half := mark.Width / 2
	switch {
	case mark.Type.IsDouble():
		// Two parallel lines centered one mark-width to each side of
		// the boundary.
		g.emitMarkLine(m, samples, boundary, -mark.Width, half, mark)
		g.emitMarkLine(m, samples, boundary, mark.Width, half, mark)
	default:
		g.emitMarkLine(m, samples, boundary, 0, half, mark)
	}
}

func markMaterial(mark *opendrive.RoadMark) string {
	if mark.Color == opendrive.MarkColorYellow {
		return material.LaneMarkingYellow
	}
	return material.LaneMarkingWhite
}

// emitMarkLine emits one line of a road mark as a quad strip centered
// at boundary+lateral. Broken marks emit only the strip stretches whose
// arc-length position falls in the dash part of the dash/gap cycle, so
// the dash phase is continuous across sections and steps.
func (g *Generator) emitMarkLine(mesh *MeshData, samples []centerSample,
	boundary []float64, lateral, half float64, mark *opendrive.RoadMark) {

	left := make([]float64, len(samples))
	right := make([]float64, len(samples))
	for k := range samples {
		center := boundary[k] + lateral
		left[k] = center + half
		right[k] = center - half
	}

	if !mark.Type.IsBroken() {
		g.emitStrip(mesh, samples, left, right, 0, 1, g.opts.MarkTileLength, markLift)
		return
	}

	// Dash cycle keyed by arc length from the road start: a quad is a
	// dash quad when its midpoint falls inside the dash interval.
	cycle := g.opts.DashLength + g.opts.GapLength
	runStart := -1
	for k := 0; k+1 < len(samples); k++ {
		mid := (samples[k].s + samples[k+1].s) / 2
		if math.Mod(mid, cycle) < g.opts.DashLength {
			if runStart < 0 {
				runStart = k
			}
		} else if runStart >= 0 {
			g.emitStrip(mesh, samples[runStart:k+1], left[runStart:k+1], right[runStart:k+1],
				0, 1, g.opts.MarkTileLength, markLift)
			runStart = -1
		}
	}
	if runStart >= 0 {
		g.emitStrip(mesh, samples[runStart:], left[runStart:], right[runStart:],
			0, 1, g.opts.MarkTileLength, markLift)
	}
}

// sampleOffsets returns the sample positions in [start, end]: the
// road-global i*step grid points inside the interval, plus the interval
// ends themselves so section boundaries and the road end are never
// truncated.
func sampleOffsets(start, end, step float64) []float64 {
	offsets := []float64{start}
	for k := int(math.Floor(start/step+sampleEps)) + 1; ; k++ {
		s := float64(k) * step
		if s >= end-sampleEps {
			break
		}
		if s > start+sampleEps {
			offsets = append(offsets, s)
		}
	}
	return append(offsets, end)
}

// sampleCenterline evaluates position, lateral normal, elevation and
// superelevation at every offset. A coverage gap in the road's plan
// view surfaces as the GeometryLookupError that aborts this road.
func (g *Generator) sampleCenterline(road *opendrive.Road, offsets []float64) ([]centerSample, error) {
	samples := make([]centerSample, 0, len(offsets))

	for _, s := range offsets {
		seg, err := road.GeometryAt(s)
		if err != nil {
			return nil, err
		}

		// The last segment is closed at road length; clamp so the
		// forced end sample stays inside the evaluator's contract.
		local := math.Min(math.Max(s-seg.S, 0), seg.Length)

		x, y, _, err := seg.PositionAt(local)
		if err != nil {
			return nil, errors.Wrapf(err, "road %s at s=%g", road.ID, s)
		}
		normal, err := seg.NormalAt(local)
		if err != nil {
			return nil, errors.Wrapf(err, "road %s at s=%g", road.ID, s)
		}

		samples = append(samples, centerSample{
			s:      s,
			x:      x,
			y:      y,
			elev:   road.ElevationAt(s),
			normal: normal,
			super:  road.SuperelevationAt(s),
		})
	}
	return samples, nil
}
