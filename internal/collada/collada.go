// Package collada writes generated meshes as a COLLADA 1.4.1 document.
// The vertex and index ordering produced by the mesh generator is
// preserved untouched into the triangle lists; meshes and materials
// are emitted in sorted-name order so output is deterministic.
package collada

import (
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Faultbox/xodr2dae/internal/material"
	"github.com/Faultbox/xodr2dae/internal/mesh"
)

const schemaNS = "http://www.collada.org/2005/11/COLLADASchema"

type document struct {
	XMLName xml.Name `xml:"COLLADA"`
	XMLNS   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`

	Asset        asset         `xml:"asset"`
	Effects      []effect      `xml:"library_effects>effect"`
	Images       []image       `xml:"library_images>image"`
	Materials    []materialRef `xml:"library_materials>material"`
	Geometries   []geometry    `xml:"library_geometries>geometry"`
	VisualScenes []visualScene `xml:"library_visual_scenes>visual_scene"`
	Scene        scene         `xml:"scene"`
}

type asset struct {
	Author   string `xml:"contributor>author"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	Unit     unit   `xml:"unit"`
	UpAxis   string `xml:"up_axis"`
}

type unit struct {
	Name  string `xml:"name,attr"`
	Meter string `xml:"meter,attr"`
}

type image struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name,attr"`
	InitFrom string `xml:"init_from"`
}

type effect struct {
	ID      string        `xml:"id,attr"`
	Profile profileCommon `xml:"profile_COMMON"`
}

type profileCommon struct {
	NewParams []newParam `xml:"newparam"`
	Technique technique  `xml:"technique"`
}

type newParam struct {
	SID     string       `xml:"sid,attr"`
	Surface *surfaceElem `xml:"surface,omitempty"`
	Sampler *samplerElem `xml:"sampler2D,omitempty"`
}

type surfaceElem struct {
	Type     string `xml:"type,attr"`
	InitFrom string `xml:"init_from"`
}

type samplerElem struct {
	Source string `xml:"source"`
}

type technique struct {
	SID     string  `xml:"sid,attr"`
	Lambert lambert `xml:"lambert"`
}

type lambert struct {
	Emission          colorHolder `xml:"emission"`
	Diffuse           diffuse     `xml:"diffuse"`
	IndexOfRefraction iorHolder   `xml:"index_of_refraction"`
}

type colorHolder struct {
	Color colorElem `xml:"color"`
}

type colorElem struct {
	SID   string `xml:"sid,attr,omitempty"`
	Value string `xml:",chardata"`
}

type diffuse struct {
	Texture *textureRef `xml:"texture,omitempty"`
	Color   *colorElem  `xml:"color,omitempty"`
}

type textureRef struct {
	Texture  string `xml:"texture,attr"`
	TexCoord string `xml:"texcoord,attr"`
}

type iorHolder struct {
	Float floatElem `xml:"float"`
}

type floatElem struct {
	SID   string `xml:"sid,attr,omitempty"`
	Value string `xml:",chardata"`
}

type materialRef struct {
	ID       string         `xml:"id,attr"`
	Name     string         `xml:"name,attr"`
	Instance instanceEffect `xml:"instance_effect"`
}

type instanceEffect struct {
	URL string `xml:"url,attr"`
}

type geometry struct {
	ID   string   `xml:"id,attr"`
	Name string   `xml:"name,attr"`
	Mesh meshElem `xml:"mesh"`
}

type meshElem struct {
	Sources   []source  `xml:"source"`
	Vertices  vertices  `xml:"vertices"`
	Triangles triangles `xml:"triangles"`
}

type source struct {
	ID         string     `xml:"id,attr"`
	FloatArray floatArray `xml:"float_array"`
	Accessor   accessor   `xml:"technique_common>accessor"`
}

type floatArray struct {
	ID    string `xml:"id,attr"`
	Count int    `xml:"count,attr"`
	Value string `xml:",chardata"`
}

type accessor struct {
	Source string  `xml:"source,attr"`
	Count  int     `xml:"count,attr"`
	Stride int     `xml:"stride,attr"`
	Params []param `xml:"param"`
}

type param struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type vertices struct {
	ID    string  `xml:"id,attr"`
	Input []input `xml:"input"`
}

type input struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   *int   `xml:"offset,attr,omitempty"`
	Set      *int   `xml:"set,attr,omitempty"`
}

type triangles struct {
	Material string  `xml:"material,attr"`
	Count    int     `xml:"count,attr"`
	Inputs   []input `xml:"input"`
	P        string  `xml:"p"`
}

type visualScene struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Nodes []node `xml:"node"`
}

type node struct {
	ID       string           `xml:"id,attr"`
	Name     string           `xml:"name,attr"`
	Type     string           `xml:"type,attr"`
	Instance instanceGeometry `xml:"instance_geometry"`
}

type instanceGeometry struct {
	URL      string           `xml:"url,attr"`
	Material instanceMaterial `xml:"bind_material>technique_common>instance_material"`
}

type instanceMaterial struct {
	Symbol string           `xml:"symbol,attr"`
	Target string           `xml:"target,attr"`
	Bind   *bindVertexInput `xml:"bind_vertex_input,omitempty"`
}

type bindVertexInput struct {
	Semantic      string `xml:"semantic,attr"`
	InputSemantic string `xml:"input_semantic,attr"`
	InputSet      int    `xml:"input_set,attr"`
}

type scene struct {
	Instance instanceVisualScene `xml:"instance_visual_scene"`
}

type instanceVisualScene struct {
	URL string `xml:"url,attr"`
}

// Exporter writes mesh maps as COLLADA documents.
type Exporter struct {
	lib *material.Library
}

// NewExporter returns an exporter using the given material library.
func NewExporter(lib *material.Library) *Exporter {
	return &Exporter{lib: lib}
}

// ExportFile writes the document to the given path.
func (e *Exporter) ExportFile(path string, meshes map[string]*mesh.MeshData) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "collada: creating output file")
	}
	if err := e.Export(f, meshes); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "collada: closing output file")
}

// Export writes the document to w.
func (e *Exporter) Export(w io.Writer, meshes map[string]*mesh.MeshData) error {
	now := time.Now().UTC().Format(time.RFC3339)
	doc := document{
		XMLNS:   schemaNS,
		Version: "1.4.1",
		Asset: asset{
			Author:   "xodr2dae",
			Created:  now,
			Modified: now,
			Unit:     unit{Name: "meter", Meter: "1.0"},
			UpAxis:   "Z_UP",
		},
	}

	e.addImages(&doc)
	e.addMaterials(&doc)
	e.addGeometries(&doc, meshes)
	e.addScene(&doc, meshes)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "collada: writing header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "collada: encoding document")
	}
	_, err := io.WriteString(w, "\n")
	return errors.Wrap(err, "collada: writing trailer")
}

func (e *Exporter) addImages(doc *document) {
	names := e.lib.TextureNames()
	sort.Strings(names)
	for _, name := range names {
		tex := e.lib.Texture(name)
		id := cleanID(tex.FilePath)
		doc.Images = append(doc.Images, image{
			ID:       id,
			Name:     id,
			InitFrom: tex.FilePath,
		})
	}
}

func (e *Exporter) addMaterials(doc *document) {
	names := e.lib.Names()
	sort.Strings(names)

	for _, name := range names {
		mat := e.lib.Get(name)
		effectID := name + "_effect"

		profile := profileCommon{
			Technique: technique{
				SID: "common",
				Lambert: lambert{
					Emission: colorHolder{Color: colorElem{
						SID:   "emission",
						Value: formatColor(mat.Emission),
					}},
					IndexOfRefraction: iorHolder{Float: floatElem{
						SID:   "ior",
						Value: "1.5",
					}},
				},
			},
		}

		if mat.DiffuseTexture != nil {
			texID := cleanID(mat.DiffuseTexture.FilePath)
			profile.NewParams = []newParam{
				{
					SID:     texID + "-surface",
					Surface: &surfaceElem{Type: "2D", InitFrom: texID},
				},
				{
					SID:     texID + "-sampler",
					Sampler: &samplerElem{Source: texID + "-surface"},
				},
			}
			profile.Technique.Lambert.Diffuse = diffuse{
				Texture: &textureRef{Texture: texID + "-sampler", TexCoord: "diffuse"},
			}
		} else {
			profile.Technique.Lambert.Diffuse = diffuse{
				Color: &colorElem{Value: formatColor(mat.Diffuse)},
			}
		}

		doc.Effects = append(doc.Effects, effect{ID: effectID, Profile: profile})
		doc.Materials = append(doc.Materials, materialRef{
			ID:       name + "_material",
			Name:     name,
			Instance: instanceEffect{URL: "#" + effectID},
		})
	}
}

func (e *Exporter) addGeometries(doc *document, meshes map[string]*mesh.MeshData) {
	for _, name := range sortedMeshNames(meshes) {
		m := meshes[name]

		positions := make([]float64, 0, len(m.Vertices)*3)
		for _, v := range m.Vertices {
			positions = append(positions, v.X, v.Y, v.Z)
		}
		normals := make([]float64, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, n.X, n.Y, n.Z)
		}
		texcoords := make([]float64, 0, len(m.TexCoords)*2)
		for _, tc := range m.TexCoords {
			texcoords = append(texcoords, tc.X, tc.Y)
		}

		xyz := []param{{"X", "float"}, {"Y", "float"}, {"Z", "float"}}
		st := []param{{"S", "float"}, {"T", "float"}}

		zero := 0
		matName := m.MaterialName
		if matName == "" || e.lib.Get(matName) == nil {
			matName = material.Asphalt
		}

		doc.Geometries = append(doc.Geometries, geometry{
			ID:   "geometry_" + name,
			Name: name,
			Mesh: meshElem{
				Sources: []source{
					makeSource(name+"-positions", positions, len(m.Vertices), 3, xyz),
					makeSource(name+"-normals", normals, len(m.Normals), 3, xyz),
					makeSource(name+"-texcoords", texcoords, len(m.TexCoords), 2, st),
				},
				Vertices: vertices{
					ID: "vertices_" + name,
					Input: []input{
						{Semantic: "POSITION", Source: "#" + name + "-positions"},
					},
				},
				Triangles: triangles{
					Material: matName,
					Count:    m.TriangleCount(),
					Inputs: []input{
						{Semantic: "VERTEX", Source: "#vertices_" + name, Offset: &zero},
						{Semantic: "NORMAL", Source: "#" + name + "-normals", Offset: &zero},
						{Semantic: "TEXCOORD", Source: "#" + name + "-texcoords", Offset: &zero, Set: &zero},
					},
					P: formatIndices(m.Indices),
				},
			},
		})
	}
}

func (e *Exporter) addScene(doc *document, meshes map[string]*mesh.MeshData) {
	vs := visualScene{ID: "scene", Name: "RoadScene"}

	for _, name := range sortedMeshNames(meshes) {
		m := meshes[name]
		matName := m.MaterialName
		if matName == "" || e.lib.Get(matName) == nil {
			matName = material.Asphalt
		}
		inst := instanceMaterial{
			Symbol: matName,
			Target: "#" + matName + "_material",
			Bind: &bindVertexInput{
				Semantic:      "diffuse",
				InputSemantic: "TEXCOORD",
				InputSet:      0,
			},
		}
		vs.Nodes = append(vs.Nodes, node{
			ID:   "node_" + name,
			Name: name,
			Type: "NODE",
			Instance: instanceGeometry{
				URL:      "#geometry_" + name,
				Material: inst,
			},
		})
	}

	doc.VisualScenes = []visualScene{vs}
	doc.Scene = scene{Instance: instanceVisualScene{URL: "#scene"}}
}

func makeSource(id string, data []float64, count, stride int, params []param) source {
	return source{
		ID: id,
		FloatArray: floatArray{
			ID:    id + "-array",
			Count: len(data),
			Value: formatFloats(data),
		},
		Accessor: accessor{
			Source: "#" + id + "-array",
			Count:  count,
			Stride: stride,
			Params: params,
		},
	}
}

func sortedMeshNames(meshes map[string]*mesh.MeshData) []string {
	names := make([]string, 0, len(meshes))
	for name := range meshes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func formatIndices(indices []uint32) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.FormatUint(uint64(idx), 10)
	}
	return strings.Join(parts, " ")
}

func formatColor(c material.RGBA) string {
	return formatFloats([]float64{c.R, c.G, c.B, c.A})
}

func cleanID(path string) string {
	r := strings.NewReplacer(".", "_", " ", "_", "/", "_")
	return r.Replace(path)
}
