package opendrive

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/xodr2dae/pkg/geom"
)

// Curve evaluation errors.
var (
	// ErrOutOfRange reports a local s outside [0, length]. Callers are
	// expected to clamp at segment boundaries before evaluating.
	ErrOutOfRange = errors.New("opendrive: s outside geometry segment")
)

// GeometryKind identifies the reference-line primitive type.
type GeometryKind uint8

const (
	GeometryLine GeometryKind = iota
	GeometryArc
)

// String returns the kind name as it appears in OpenDRIVE documents.
func (k GeometryKind) String() string {
	switch k {
	case GeometryLine:
		return "line"
	case GeometryArc:
		return "arc"
	default:
		return fmt.Sprintf("GeometryKind(%d)", uint8(k))
	}
}

// Geometry is one segment of a road's reference line. A road covers
// [0, length) with a contiguous sequence of these, ordered by S.
//
// Curvature is meaningful only for arcs and is never zero there: a
// zero-curvature arc in the input is represented as a line so that
// evaluation never divides by a near-zero radius.
type Geometry struct {
	S         float64 // start offset along the road
	X, Y      float64 // start coordinates
	Hdg       float64 // start heading, radians
	Length    float64
	Kind      GeometryKind
	Curvature float64
}

// End returns the segment's end offset along the road.
func (g *Geometry) End() float64 {
	return g.S + g.Length
}

// PositionAt evaluates the segment at local offset s (relative to the
// segment start) and returns the world position and heading.
func (g *Geometry) PositionAt(s float64) (x, y, hdg float64, err error) {
	if s < 0 || s > g.Length {
		return 0, 0, 0, fmt.Errorf("%w: s=%g, length=%g", ErrOutOfRange, s, g.Length)
	}

	switch g.Kind {
	case GeometryArc:
		x, y, hdg = g.arcPosition(s)
		return x, y, hdg, nil
	default:
		x = g.X + s*math.Cos(g.Hdg)
		y = g.Y + s*math.Sin(g.Hdg)
		return x, y, g.Hdg, nil
	}
}

// arcPosition rotates the start point about the arc center by the swept
// angle s*curvature. Positive curvature turns left.
func (g *Geometry) arcPosition(s float64) (x, y, hdg float64) {
	radius := 1.0 / math.Abs(g.Curvature)
	side := 1.0
	if g.Curvature < 0 {
		side = -1.0
	}

	// Center sits on the left normal for left turns, right normal otherwise.
	cx := g.X - math.Sin(g.Hdg)*radius*side
	cy := g.Y + math.Cos(g.Hdg)*radius*side

	startAngle := math.Atan2(g.Y-cy, g.X-cx)
	angle := startAngle + s*g.Curvature

	x = cx + math.Cos(angle)*radius
	y = cy + math.Sin(angle)*radius
	hdg = g.Hdg + s*g.Curvature
	return x, y, hdg
}

// TangentAt returns the unit tangent at local offset s.
func (g *Geometry) TangentAt(s float64) (geom.Vec2, error) {
	_, _, hdg, err := g.PositionAt(s)
	if err != nil {
		return geom.Vec2{}, err
	}
	return geom.Vec2{X: math.Cos(hdg), Y: math.Sin(hdg)}, nil
}

// NormalAt returns the unit normal at local offset s, pointing 90
// degrees left of the heading. Lane offsets accumulate along this
// vector: positive toward the left side, negative toward the right.
func (g *Geometry) NormalAt(s float64) (geom.Vec2, error) {
	tangent, err := g.TangentAt(s)
	if err != nil {
		return geom.Vec2{}, err
	}
	return tangent.Perp(), nil
}
