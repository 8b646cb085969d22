package opendrive

import (
	"encoding/xml"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// ParseError wraps any malformed-document failure from Parse. It is
// fatal for the whole conversion, unlike per-road geometry errors.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "opendrive: parse: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Raw document layout. Only the elements the mesh pipeline consumes are
// mapped; everything else in the document is skipped by the decoder.
type xmlDoc struct {
	XMLName xml.Name  `xml:"OpenDRIVE"`
	Header  xmlHeader `xml:"header"`
	Roads   []xmlRoad `xml:"road"`
}

type xmlHeader struct {
	RevMajor int     `xml:"revMajor,attr"`
	RevMinor int     `xml:"revMinor,attr"`
	Name     string  `xml:"name,attr"`
	Version  string  `xml:"version,attr"`
	North    float64 `xml:"north,attr"`
	South    float64 `xml:"south,attr"`
	East     float64 `xml:"east,attr"`
	West     float64 `xml:"west,attr"`
}

type xmlRoad struct {
	ID       string  `xml:"id,attr"`
	Name     string  `xml:"name,attr"`
	Length   float64 `xml:"length,attr"`
	Junction string  `xml:"junction,attr"`

	PlanView struct {
		Geometries []xmlGeometry `xml:"geometry"`
	} `xml:"planView"`
	ElevationProfile struct {
		Elevations []xmlPoly `xml:"elevation"`
	} `xml:"elevationProfile"`
	LateralProfile struct {
		Superelevations []xmlPoly `xml:"superelevation"`
	} `xml:"lateralProfile"`
	Lanes struct {
		Sections []xmlLaneSection `xml:"laneSection"`
	} `xml:"lanes"`
}

type xmlGeometry struct {
	S      float64 `xml:"s,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Hdg    float64 `xml:"hdg,attr"`
	Length float64 `xml:"length,attr"`

	Line *struct{} `xml:"line"`
	Arc  *struct {
		Curvature float64 `xml:"curvature,attr"`
	} `xml:"arc"`
	Spiral     *struct{} `xml:"spiral"`
	Poly3      *struct{} `xml:"poly3"`
	ParamPoly3 *struct{} `xml:"paramPoly3"`
}

type xmlPoly struct {
	S float64 `xml:"s,attr"`
	A float64 `xml:"a,attr"`
	B float64 `xml:"b,attr"`
	C float64 `xml:"c,attr"`
	D float64 `xml:"d,attr"`
}

type xmlLaneSection struct {
	S      float64       `xml:"s,attr"`
	Left   *xmlLaneGroup `xml:"left"`
	Center *xmlLaneGroup `xml:"center"`
	Right  *xmlLaneGroup `xml:"right"`
}

type xmlLaneGroup struct {
	Lanes []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID    int    `xml:"id,attr"`
	Type  string `xml:"type,attr"`
	Level string `xml:"level,attr"`

	Widths []struct {
		SOffset float64 `xml:"sOffset,attr"`
		A       float64 `xml:"a,attr"`
		B       float64 `xml:"b,attr"`
		C       float64 `xml:"c,attr"`
		D       float64 `xml:"d,attr"`
	} `xml:"width"`
	RoadMark *struct {
		SOffset    float64  `xml:"sOffset,attr"`
		Type       string   `xml:"type,attr"`
		Width      *float64 `xml:"width,attr"`
		Material   string   `xml:"material,attr"`
		Weight     string   `xml:"weight,attr"`
		Color      string   `xml:"color,attr"`
		LaneChange string   `xml:"laneChange,attr"`
	} `xml:"roadMark"`
	Speed *struct {
		SOffset float64 `xml:"sOffset,attr"`
		Max     float64 `xml:"max,attr"`
		Unit    string  `xml:"unit,attr"`
	} `xml:"speed"`
}

// ParseFile parses an OpenDRIVE document from disk.
func ParseFile(path string) (*RoadNetwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses an OpenDRIVE document into a RoadNetwork. All failures,
// including structural ones like duplicate lane ids, are reported as
// *ParseError.
func Parse(r io.Reader) (*RoadNetwork, error) {
	var doc xmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Err: errors.Wrap(err, "decoding XML")}
	}

	net := &RoadNetwork{
		Header: Header{
			RevMajor: doc.Header.RevMajor,
			RevMinor: doc.Header.RevMinor,
			Name:     doc.Header.Name,
			Version:  doc.Header.Version,
			North:    doc.Header.North,
			South:    doc.Header.South,
			East:     doc.Header.East,
			West:     doc.Header.West,
		},
	}

	for i := range doc.Roads {
		road, err := buildRoad(&doc.Roads[i])
		if err != nil {
			return nil, &ParseError{Err: errors.Wrapf(err, "road %s", doc.Roads[i].ID)}
		}
		net.Roads = append(net.Roads, *road)
	}

	return net, nil
}

func buildRoad(xr *xmlRoad) (*Road, error) {
	road := &Road{
		ID:       xr.ID,
		Name:     xr.Name,
		Length:   xr.Length,
		Junction: xr.Junction,
	}
	if road.ID == "" {
		return nil, errors.New("missing road id")
	}
	if road.Length <= 0 {
		return nil, errors.Errorf("non-positive length %g", road.Length)
	}

	for i := range xr.PlanView.Geometries {
		road.Geometries = append(road.Geometries, buildGeometry(&xr.PlanView.Geometries[i]))
	}
	sort.SliceStable(road.Geometries, func(i, j int) bool {
		return road.Geometries[i].S < road.Geometries[j].S
	})

	road.Elevations = buildProfile(xr.ElevationProfile.Elevations)
	road.Superelevations = buildProfile(xr.LateralProfile.Superelevations)

	for i := range xr.Lanes.Sections {
		section, err := buildSection(&xr.Lanes.Sections[i])
		if err != nil {
			return nil, errors.Wrapf(err, "laneSection at s=%g", xr.Lanes.Sections[i].S)
		}
		road.Sections = append(road.Sections, *section)
	}
	sort.SliceStable(road.Sections, func(i, j int) bool {
		return road.Sections[i].S < road.Sections[j].S
	})

	return road, nil
}

// buildGeometry maps one planView geometry. Spirals and polynomial
// segments degrade to lines, matching the simplified reference-line
// model; an arc with zero curvature is likewise stored as a line so
// arc evaluation never sees an infinite radius.
func buildGeometry(xg *xmlGeometry) Geometry {
	g := Geometry{
		S:      xg.S,
		X:      xg.X,
		Y:      xg.Y,
		Hdg:    xg.Hdg,
		Length: xg.Length,
		Kind:   GeometryLine,
	}
	if xg.Arc != nil && xg.Arc.Curvature != 0 {
		g.Kind = GeometryArc
		g.Curvature = xg.Arc.Curvature
	}
	return g
}

func buildProfile(polys []xmlPoly) []ElevationRecord {
	if len(polys) == 0 {
		return nil
	}
	recs := make([]ElevationRecord, 0, len(polys))
	for _, p := range polys {
		recs = append(recs, ElevationRecord{S: p.S, A: p.A, B: p.B, C: p.C, D: p.D})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].S < recs[j].S })
	return recs
}

func buildSection(xs *xmlLaneSection) (*LaneSection, error) {
	section := &LaneSection{S: xs.S}
	seen := make(map[int]bool)

	add := func(group *xmlLaneGroup) error {
		if group == nil {
			return nil
		}
		for i := range group.Lanes {
			lane, err := buildLane(&group.Lanes[i])
			if err != nil {
				return err
			}
			if seen[lane.ID] {
				return errors.Errorf("duplicate lane id %d", lane.ID)
			}
			seen[lane.ID] = true

			switch {
			case lane.ID > 0:
				section.Left = append(section.Left, *lane)
			case lane.ID < 0:
				section.Right = append(section.Right, *lane)
			default:
				section.Center = lane
			}
		}
		return nil
	}

	if err := add(xs.Left); err != nil {
		return nil, err
	}
	if err := add(xs.Center); err != nil {
		return nil, err
	}
	if err := add(xs.Right); err != nil {
		return nil, err
	}

	// Left lanes ascend from the centerline outward, right lanes descend.
	sort.SliceStable(section.Left, func(i, j int) bool {
		return section.Left[i].ID < section.Left[j].ID
	})
	sort.SliceStable(section.Right, func(i, j int) bool {
		return section.Right[i].ID > section.Right[j].ID
	})

	return section, nil
}

func buildLane(xl *xmlLane) (*Lane, error) {
	laneType := LaneType(xl.Type)
	if laneType == "" {
		laneType = LaneDriving
	}

	lane := &Lane{
		ID:    xl.ID,
		Type:  laneType,
		Level: xl.Level == "true",
	}

	for _, w := range xl.Widths {
		lane.Widths = append(lane.Widths, WidthRecord{
			SOffset: w.SOffset,
			A:       w.A, B: w.B, C: w.C, D: w.D,
		})
	}
	sort.SliceStable(lane.Widths, func(i, j int) bool {
		return lane.Widths[i].SOffset < lane.Widths[j].SOffset
	})

	if xl.RoadMark != nil {
		mark := &RoadMark{
			SOffset:    xl.RoadMark.SOffset,
			Type:       MarkType(xl.RoadMark.Type),
			Width:      0.15,
			Material:   xl.RoadMark.Material,
			Weight:     xl.RoadMark.Weight,
			Color:      MarkColor(xl.RoadMark.Color),
			LaneChange: xl.RoadMark.LaneChange,
		}
		if mark.Type == "" {
			mark.Type = MarkSolid
		}
		if mark.Color == "" {
			mark.Color = MarkColorWhite
		}
		if xl.RoadMark.Width != nil {
			if *xl.RoadMark.Width <= 0 {
				return nil, errors.Errorf("lane %d: non-positive roadMark width %g", xl.ID, *xl.RoadMark.Width)
			}
			mark.Width = *xl.RoadMark.Width
		}
		lane.Mark = mark
	}

	if xl.Speed != nil {
		unit := xl.Speed.Unit
		if unit == "" {
			unit = "km/h"
		}
		lane.Speed = &SpeedRecord{
			SOffset: xl.Speed.SOffset,
			Max:     xl.Speed.Max,
			Unit:    unit,
		}
	}

	return lane, nil
}
