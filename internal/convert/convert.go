// Package convert orchestrates a full OpenDRIVE to COLLADA run:
// parse the network, generate lane and mark meshes, export the
// document. Per-road generation failures are reported as warnings
// and do not abort the batch.
package convert

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/xodr2dae/internal/collada"
	"github.com/Faultbox/xodr2dae/internal/config"
	"github.com/Faultbox/xodr2dae/internal/logger"
	"github.com/Faultbox/xodr2dae/internal/material"
	"github.com/Faultbox/xodr2dae/internal/mesh"
	"github.com/Faultbox/xodr2dae/pkg/opendrive"
)

// Texture filenames looked up in the texture directory. Missing files
// are skipped and the material falls back to its flat color.
const (
	asphaltTextureFile = "Asphalt1_Diff.png"
	markTextureFile    = "LaneMarking1_Diff.png"
)

// Options configure a single conversion run.
type Options struct {
	Input      string
	Output     string
	TextureDir string

	StepSize          float64
	SurfaceTileLength float64
	MarkTileLength    float64
	DashLength        float64
	GapLength         float64
}

// FromConfig builds run options from loaded configuration plus the
// positional input and output paths.
func FromConfig(cfg *config.Config, input, output string) Options {
	return Options{
		Input:             input,
		Output:            output,
		TextureDir:        cfg.Convert.TextureDir,
		StepSize:          cfg.Convert.StepSize,
		SurfaceTileLength: cfg.Convert.SurfaceTileLength,
		MarkTileLength:    cfg.Convert.MarkTileLength,
		DashLength:        cfg.Marks.DashLength,
		GapLength:         cfg.Marks.GapLength,
	}
}

// Run converts opts.Input to opts.Output. It returns true when the
// output document contains at least one mesh, plus a warning string
// per skipped or empty road.
func Run(opts Options) (bool, []string, error) {
	log := logger.Log

	net, err := opendrive.ParseFile(opts.Input)
	if err != nil {
		return false, nil, err
	}
	log.Info("parsed network",
		zap.String("input", opts.Input),
		zap.Int("roads", len(net.Roads)))

	lib := buildLibrary(opts.TextureDir)

	gen, err := mesh.NewGenerator(lib, mesh.Options{
		StepSize:          opts.StepSize,
		SurfaceTileLength: opts.SurfaceTileLength,
		MarkTileLength:    opts.MarkTileLength,
		DashLength:        opts.DashLength,
		GapLength:         opts.GapLength,
	})
	if err != nil {
		return false, nil, err
	}

	meshes, diags := gen.GenerateNetwork(net)
	warnings := make([]string, 0, len(diags))
	for _, d := range diags {
		warnings = append(warnings, d.String())
		log.Warn("road skipped", zap.String("road", d.RoadID), zap.Error(d.Err))
	}
	log.Info("generated meshes", zap.Int("meshes", len(meshes)))

	if len(meshes) == 0 {
		return false, warnings, nil
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, warnings, err
		}
	}
	if err := collada.NewExporter(lib).ExportFile(opts.Output, meshes); err != nil {
		return false, warnings, err
	}
	log.Info("wrote document", zap.String("output", opts.Output))

	return true, warnings, nil
}

// buildLibrary returns the stock materials, with diffuse textures
// bound when the expected files exist under dir.
func buildLibrary(dir string) *material.Library {
	lib := material.DefaultLibrary()
	if dir == "" {
		return lib
	}

	if tex := findTexture(dir, asphaltTextureFile, "asphalt_diff"); tex != nil {
		lib.AddTexture(tex)
		lib.Get(material.Asphalt).DiffuseTexture = tex
		lib.Get(material.Shoulder).DiffuseTexture = tex
	}
	if tex := findTexture(dir, markTextureFile, "lane_marking_diff"); tex != nil {
		lib.AddTexture(tex)
		lib.Get(material.LaneMarkingWhite).DiffuseTexture = tex
		lib.Get(material.LaneMarkingYellow).DiffuseTexture = tex
	}
	return lib
}

func findTexture(dir, file, name string) *material.Texture {
	path := filepath.Join(dir, file)
	if _, err := os.Stat(path); err != nil {
		logger.Log.Debug("texture not found", zap.String("path", path))
		return nil
	}
	return &material.Texture{Name: name, FilePath: path}
}
