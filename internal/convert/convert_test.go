package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/xodr2dae/internal/material"
)

const sampleXODR = `<?xml version="1.0" encoding="UTF-8"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4" name="sample"/>
  <road id="1" name="Main" length="100.0" junction="-1">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100">
        <line/>
      </geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <left>
          <lane id="1" type="driving" level="false">
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
            <roadMark sOffset="0" type="solid" color="white"/>
          </lane>
        </left>
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.5" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

const emptyLanesXODR = `<?xml version="1.0" encoding="UTF-8"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4" name="empty"/>
  <road id="1" name="Flat" length="50.0" junction="-1">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="50">
        <line/>
      </geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="0" b="0" c="0" d="0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.xodr")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}
	return path
}

func defaultRunOptions(input, output string) Options {
	return Options{
		Input:             input,
		Output:            output,
		StepSize:          1.0,
		SurfaceTileLength: 10.0,
		MarkTileLength:    2.0,
		DashLength:        3.0,
		GapLength:         1.0,
	}
}

func TestRunProducesDocument(t *testing.T) {
	input := writeInput(t, sampleXODR)
	output := filepath.Join(t.TempDir(), "out.dae")

	ok, warnings, err := Run(defaultRunOptions(input, output))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ok {
		t.Fatal("expected successful conversion")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	doc := string(data)
	if !strings.Contains(doc, "<COLLADA") {
		t.Error("output is not a COLLADA document")
	}
	if !strings.Contains(doc, "geometry_road_1_lane_1") {
		t.Error("output missing left lane geometry")
	}
	if !strings.Contains(doc, "geometry_road_1_lane_-1") {
		t.Error("output missing right lane geometry")
	}
	if !strings.Contains(doc, "geometry_road_1_lane_1_mark") {
		t.Error("output missing lane mark geometry")
	}
}

func TestRunEmptyNetwork(t *testing.T) {
	input := writeInput(t, emptyLanesXODR)
	output := filepath.Join(t.TempDir(), "out.dae")

	ok, warnings, err := Run(defaultRunOptions(input, output))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ok {
		t.Error("expected conversion to report no usable meshes")
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the empty road")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("no output file should be written for an empty network")
	}
}

func TestRunParseFailure(t *testing.T) {
	input := writeInput(t, "<OpenDRIVE><road></OpenDRIVE>")
	output := filepath.Join(t.TempDir(), "out.dae")

	_, _, err := Run(defaultRunOptions(input, output))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRunMissingInput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.dae")
	_, _, err := Run(defaultRunOptions("/nonexistent/input.xodr", output))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestBuildLibraryBindsTextures(t *testing.T) {
	texDir := t.TempDir()
	for _, name := range []string{"Asphalt1_Diff.png", "LaneMarking1_Diff.png"} {
		if err := os.WriteFile(filepath.Join(texDir, name), []byte("png"), 0644); err != nil {
			t.Fatalf("writing texture stub: %v", err)
		}
	}

	lib := buildLibrary(texDir)

	asphalt := lib.Get(material.Asphalt)
	if asphalt.DiffuseTexture == nil {
		t.Fatal("asphalt texture not bound")
	}
	if !strings.HasSuffix(asphalt.DiffuseTexture.FilePath, "Asphalt1_Diff.png") {
		t.Errorf("unexpected asphalt texture path %s", asphalt.DiffuseTexture.FilePath)
	}
	if lib.Get(material.Shoulder).DiffuseTexture == nil {
		t.Error("shoulder should share the asphalt texture")
	}
	if lib.Get(material.LaneMarkingWhite).DiffuseTexture == nil {
		t.Error("white marking texture not bound")
	}
	if lib.Get(material.LaneMarkingYellow).DiffuseTexture == nil {
		t.Error("yellow marking texture not bound")
	}
}

func TestBuildLibraryWithoutTextures(t *testing.T) {
	lib := buildLibrary("")
	if lib.Get(material.Asphalt).DiffuseTexture != nil {
		t.Error("no texture should be bound without a texture dir")
	}

	lib = buildLibrary(t.TempDir())
	if lib.Get(material.Asphalt).DiffuseTexture != nil {
		t.Error("missing texture files should leave flat colors")
	}
}
