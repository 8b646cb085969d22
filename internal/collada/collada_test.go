package collada

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/xodr2dae/internal/material"
	"github.com/Faultbox/xodr2dae/internal/mesh"
	"github.com/Faultbox/xodr2dae/pkg/geom"
)

func quadMesh(name, mat string) *mesh.MeshData {
	m := mesh.NewMeshData(name)
	m.SetMaterial(mat)
	m.AddVertex(geom.Vec3{X: 0, Y: 0, Z: 0})
	m.AddVertex(geom.Vec3{X: 1, Y: 0, Z: 0})
	m.AddVertex(geom.Vec3{X: 1, Y: 1, Z: 0})
	m.AddVertex(geom.Vec3{X: 0, Y: 1, Z: 0})
	for i := 0; i < 4; i++ {
		m.AddNormal(geom.Vec3{Z: 1})
	}
	m.AddTexCoord(0, 0)
	m.AddTexCoord(1, 0)
	m.AddTexCoord(1, 1)
	m.AddTexCoord(0, 1)
	m.AddTriangle(0, 1, 2)
	m.AddTriangle(0, 2, 3)
	m.Freeze()
	return m
}

func export(t *testing.T, lib *material.Library, meshes map[string]*mesh.MeshData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewExporter(lib).Export(&buf, meshes); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.String()
}

func TestExportBasicDocument(t *testing.T) {
	lib := material.DefaultLibrary()
	out := export(t, lib, map[string]*mesh.MeshData{
		"road_1_lane_1": quadMesh("road_1_lane_1", material.Asphalt),
	})

	for _, want := range []string{
		`version="1.4.1"`,
		`xmlns="http://www.collada.org/2005/11/COLLADASchema"`,
		`<up_axis>Z_UP</up_axis>`,
		`<geometry id="geometry_road_1_lane_1"`,
		`<float_array id="road_1_lane_1-positions-array" count="12">`,
		`<triangles material="Asphalt" count="2">`,
		`<p>0 1 2 0 2 3</p>`,
		`<instance_geometry url="#geometry_road_1_lane_1">`,
		`target="#Asphalt_material"`,
		`<instance_visual_scene url="#scene">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestExportLibraryOrder(t *testing.T) {
	lib := material.DefaultLibrary()
	out := export(t, lib, map[string]*mesh.MeshData{
		"road_1_lane_1": quadMesh("road_1_lane_1", material.Asphalt),
	})

	order := []string{
		"<library_effects>",
		"<library_materials>",
		"<library_geometries>",
		"<library_visual_scenes>",
		"<scene>",
	}
	last := -1
	for _, elem := range order {
		idx := strings.Index(out, elem)
		if idx < 0 {
			t.Fatalf("document missing %s", elem)
		}
		if idx < last {
			t.Errorf("%s appears before preceding library", elem)
		}
		last = idx
	}
}

func TestExportIsWellFormed(t *testing.T) {
	lib := material.DefaultLibrary()
	out := export(t, lib, map[string]*mesh.MeshData{
		"road_1_lane_1":  quadMesh("road_1_lane_1", material.Asphalt),
		"road_1_lane_-1": quadMesh("road_1_lane_-1", material.Shoulder),
	})

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("malformed output: %v", err)
		}
	}
}

func TestTexturedMaterial(t *testing.T) {
	lib := material.DefaultLibrary()
	tex := &material.Texture{Name: "asphalt_diff", FilePath: "textures/Asphalt1_Diff.png"}
	lib.AddTexture(tex)
	lib.Get(material.Asphalt).DiffuseTexture = tex

	out := export(t, lib, map[string]*mesh.MeshData{
		"road_1_lane_1": quadMesh("road_1_lane_1", material.Asphalt),
	})

	for _, want := range []string{
		`<init_from>textures/Asphalt1_Diff.png</init_from>`,
		`<surface type="2D">`,
		`<sampler2D>`,
		`texcoord="diffuse"`,
		`<bind_vertex_input semantic="diffuse" input_semantic="TEXCOORD" input_set="0">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textured document missing %q", want)
		}
	}
}

func TestMeshesSortedByName(t *testing.T) {
	lib := material.DefaultLibrary()
	out := export(t, lib, map[string]*mesh.MeshData{
		"road_2_lane_1": quadMesh("road_2_lane_1", material.Asphalt),
		"road_1_lane_1": quadMesh("road_1_lane_1", material.Asphalt),
	})

	first := strings.Index(out, "geometry_road_1_lane_1")
	second := strings.Index(out, "geometry_road_2_lane_1")
	if first < 0 || second < 0 {
		t.Fatal("geometries missing from document")
	}
	if first > second {
		t.Error("geometries not in sorted name order")
	}
}

func TestExportFile(t *testing.T) {
	lib := material.DefaultLibrary()
	path := filepath.Join(t.TempDir(), "out.dae")

	err := NewExporter(lib).ExportFile(path, map[string]*mesh.MeshData{
		"road_1_lane_1": quadMesh("road_1_lane_1", material.Asphalt),
	})
	if err != nil {
		t.Fatalf("ExportFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "<COLLADA") {
		t.Error("file does not contain a COLLADA document")
	}
}
