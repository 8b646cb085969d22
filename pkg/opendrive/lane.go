package opendrive

import "strings"

// LaneType classifies a lane's use. Only a handful of the OpenDRIVE
// types influence mesh materials; the rest are carried through as-is.
type LaneType string

const (
	LaneDriving  LaneType = "driving"
	LaneShoulder LaneType = "shoulder"
	LaneBorder   LaneType = "border"
	LaneNone     LaneType = "none"
)

// MarkColor is a road-mark paint color.
type MarkColor string

const (
	MarkColorWhite  MarkColor = "white"
	MarkColorYellow MarkColor = "yellow"
)

// MarkType is a road-mark line pattern, e.g. "solid", "broken",
// "solid solid" for double lines.
type MarkType string

const (
	MarkSolid  MarkType = "solid"
	MarkBroken MarkType = "broken"
	MarkNone   MarkType = "none"
)

// IsSolid reports a single continuous line.
func (t MarkType) IsSolid() bool {
	return strings.Contains(string(t), "solid") && !strings.Contains(string(t), "broken")
}

// IsBroken reports a dashed line.
func (t MarkType) IsBroken() bool {
	return strings.Contains(string(t), "broken")
}

// IsDouble reports a double line such as "solid solid".
func (t MarkType) IsDouble() bool {
	return strings.Count(string(t), "solid") >= 2
}

// RoadMark is a painted boundary line on a lane's outer edge.
type RoadMark struct {
	SOffset    float64 // relative to the owning lane section
	Type       MarkType
	Width      float64
	Material   string
	Weight     string
	Color      MarkColor
	LaneChange string
}

// WidthRecord defines lane width as a cubic polynomial of the distance
// from the record's own start offset.
type WidthRecord struct {
	SOffset    float64 // relative to the owning lane section
	A, B, C, D float64
}

// Eval returns the width at local offset s (relative to the section).
func (w *WidthRecord) Eval(s float64) float64 {
	ds := s - w.SOffset
	return w.A + w.B*ds + w.C*ds*ds + w.D*ds*ds*ds
}

// SpeedRecord is a lane speed limit.
type SpeedRecord struct {
	SOffset float64
	Max     float64
	Unit    string
}

// MaxMS returns the speed limit converted to meters per second.
func (r *SpeedRecord) MaxMS() float64 {
	switch r.Unit {
	case "km/h":
		return r.Max / 3.6
	case "mph":
		return r.Max * 0.44704
	default:
		return r.Max
	}
}

// Lane is a single lane within a lane section. The id sign encodes the
// side: positive left of the reference line, negative right, zero for
// the non-drivable center lane.
type Lane struct {
	ID     int
	Type   LaneType
	Level  bool
	Widths []WidthRecord // ordered by SOffset
	Mark   *RoadMark
	Speed  *SpeedRecord
}

// IsLeft reports whether the lane lies left of the reference line.
func (l *Lane) IsLeft() bool { return l.ID > 0 }

// IsRight reports whether the lane lies right of the reference line.
func (l *Lane) IsRight() bool { return l.ID < 0 }

// IsCenter reports the center lane (id 0).
func (l *Lane) IsCenter() bool { return l.ID == 0 }

// WidthAt returns the lane width at local offset s within the owning
// section. The active record is the last one starting at or before s.
// Negative polynomial values clamp to zero; a lane with no width
// records has zero width everywhere.
func (l *Lane) WidthAt(s float64) float64 {
	if len(l.Widths) == 0 {
		return 0
	}
	rec := &l.Widths[0]
	for i := 1; i < len(l.Widths); i++ {
		if l.Widths[i].SOffset > s {
			break
		}
		rec = &l.Widths[i]
	}
	w := rec.Eval(s)
	if w < 0 {
		return 0
	}
	return w
}

// LaneSection is a longitudinal interval with a fixed set of lanes.
// It is active from S to the next section's start, or to road end.
type LaneSection struct {
	S      float64
	Left   []Lane // ascending id, ids > 0
	Right  []Lane // descending id, ids < 0
	Center *Lane  // id 0, optional
}
