package mesh

import (
	"testing"

	"github.com/Faultbox/xodr2dae/pkg/geom"
)

func TestMeshDataCounts(t *testing.T) {
	m := NewMeshData("test")
	if m.Name != "test" {
		t.Errorf("expected name 'test', got %s", m.Name)
	}

	m.AddVertex(geom.Vec3{X: 1})
	m.AddVertex(geom.Vec3{Y: 1})
	m.AddVertex(geom.Vec3{Z: 1})
	m.AddNormal(geom.Vec3{Z: 1})
	m.AddTexCoord(0.5, 1)
	m.AddTriangle(0, 1, 2)

	if m.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", m.VertexCount())
	}
	if m.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", m.TriangleCount())
	}
	if len(m.Indices) != 3 {
		t.Errorf("expected 3 indices, got %d", len(m.Indices))
	}
	if m.TexCoords[0].X != 0.5 || m.TexCoords[0].Y != 1 {
		t.Errorf("unexpected texcoord %+v", m.TexCoords[0])
	}
}

func TestMeshDataMaterial(t *testing.T) {
	m := NewMeshData("test")
	m.SetMaterial("Asphalt")
	if m.MaterialName != "Asphalt" {
		t.Errorf("expected material 'Asphalt', got %s", m.MaterialName)
	}
}

func TestFrozenMeshPanics(t *testing.T) {
	m := NewMeshData("test")
	m.AddVertex(geom.Vec3{})
	m.Freeze()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when mutating a frozen mesh")
		}
	}()
	m.AddVertex(geom.Vec3{X: 1})
}
