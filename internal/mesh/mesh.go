// Package mesh turns a parsed road network into triangle meshes for
// export: one mesh per lane surface and one per painted road mark.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/xodr2dae/pkg/geom"
)

// ErrEmptyMesh reports a road (or the whole network) that produced no
// triangles. It is diagnostic, never fatal to the batch.
var ErrEmptyMesh = errors.New("mesh: no triangles generated")

// MeshData is an append-only triangle mesh under construction. The
// vertex, normal and texcoord slices run in parallel; indices reference
// them in triples, one triangle each. Freeze it before handing it to
// an exporter; appending after Freeze is a programming error.
type MeshData struct {
	Name         string
	MaterialName string

	Vertices  []geom.Vec3
	Normals   []geom.Vec3
	TexCoords []geom.Vec2
	Indices   []uint32

	frozen bool
}

// NewMeshData returns an empty mesh with the given name.
func NewMeshData(name string) *MeshData {
	return &MeshData{Name: name}
}

// AddVertex appends a vertex position.
func (m *MeshData) AddVertex(v geom.Vec3) {
	m.checkMutable()
	m.Vertices = append(m.Vertices, v)
}

// AddNormal appends a vertex normal.
func (m *MeshData) AddNormal(n geom.Vec3) {
	m.checkMutable()
	m.Normals = append(m.Normals, n)
}

// AddTexCoord appends a texture coordinate pair.
func (m *MeshData) AddTexCoord(u, v float64) {
	m.checkMutable()
	m.TexCoords = append(m.TexCoords, geom.Vec2{X: u, Y: v})
}

// AddTriangle appends one triangle by vertex indices.
func (m *MeshData) AddTriangle(i1, i2, i3 uint32) {
	m.checkMutable()
	m.Indices = append(m.Indices, i1, i2, i3)
}

// SetMaterial sets the material reference for the whole mesh.
func (m *MeshData) SetMaterial(name string) {
	m.checkMutable()
	m.MaterialName = name
}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// Freeze marks the mesh complete. Further appends panic.
func (m *MeshData) Freeze() {
	m.frozen = true
}

func (m *MeshData) checkMutable() {
	if m.frozen {
		panic(fmt.Sprintf("mesh: append to frozen mesh %q", m.Name))
	}
}
