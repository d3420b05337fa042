package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/areaimport"
	"github.com/Faultbox/haven-area/internal/logger"
	"github.com/Faultbox/haven-area/internal/preview"
	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/internal/terrain"
	"github.com/Faultbox/haven-area/internal/texture"
	"github.com/Faultbox/haven-area/pkg/area"
)

// defaultBakeSize is used when a material references no mask image.
const defaultBakeSize = 512

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	e := setup(fs, args, 1, "info <file.havenarea>")
	defer logger.Sync()

	m, err := area.LoadManifest(fs.Arg(0))
	if err != nil {
		fail(err)
	}

	fmt.Printf("Level:    %s\n", m.Level)
	fmt.Printf("Archive:  %s\n", m.Rim)
	fmt.Printf("Format:   %s\n", m.Format)
	fmt.Printf("Axes:     %s\n", m.CoordinateSystem)
	fmt.Printf("Profile:  %s (host %s)\n", e.profile.Name, e.cfg.Host.Version)
	fmt.Println()

	for _, c := range area.Categories {
		if !m.Has(c) {
			fmt.Printf("%-8s  (absent)\n", c)
			continue
		}
		fmt.Printf("%-8s  %d models, %d instances\n", c, len(m.Groups(c)), m.InstanceCount(c))
	}

	materials := slices.Clone(m.Materials())
	if len(materials) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Terrain materials:")
	slices.SortFunc(materials, func(a, b area.MaterialBlendSpec) int { return strings.Compare(a.Name, b.Name) })
	for _, spec := range materials {
		masks := "1 mask"
		if spec.UsesSecondMask() {
			masks = "2 masks"
		}
		fmt.Printf("  %-24s %dx%d grid, %d cells, %s\n", spec.Name, spec.Cols(), spec.Rows(), spec.CellCount(), masks)
	}
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	out := fs.String("o", "", "Write the scene YAML to file (default stdout)")
	e := setup(fs, args, 1, "import [-o scene.yaml] <file.havenarea>")
	defer logger.Sync()

	s := e.newScene()
	runner := areaimport.New(s, logger.Named("areaimport"))
	res, err := runner.Run(fs.Arg(0), e.options())
	if err != nil {
		fail(err)
	}

	for _, c := range area.Categories {
		st, ok := res.Categories[c]
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "%-8s  %d models, %d instances, %d skipped\n", c, st.Templates, st.Instances, st.Skipped)
	}
	fmt.Fprintf(os.Stderr, "Materials built: %d, failed: %d\n", res.MaterialsBuilt, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "  %v\n", f)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		w = f
	}
	if err := s.WriteYAML(w); err != nil {
		fail(err)
	}
}

func cmdGraph(args []string) {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	depth := fs.Int("depth", 3, "Maximum nesting depth of the dump")
	e := setup(fs, args, 2, "graph <file.havenarea> <material>")
	defer logger.Sync()

	mat, err := e.buildMaterial(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s: %d nodes, %d links (%s)\n", mat.Name, len(mat.Graph.Nodes()), len(mat.Graph.Links()), e.profile.Name)
	cfg := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                *depth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	for _, n := range mat.Graph.Nodes() {
		cfg.Dump(n)
	}
	cfg.Dump(mat.Graph.Links())
}

func cmdBake(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	out := fs.String("o", "", "Output image (.png or .webp)")
	e := setup(fs, args, 2, "bake [-size N] -o <file> <file.havenarea> <material>")
	defer logger.Sync()

	if *out == "" {
		fail(errors.New("bake: -o is required"))
	}

	mat, err := e.buildMaterial(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fail(err)
	}
	prog, err := mat.Graph.Compile()
	if err != nil {
		fail(err)
	}

	w, h := maskSize(mat.Images())
	img := preview.Downsample(preview.Bake(prog, w, h), e.cfg.Bake.Size)
	format := preview.FormatFromPath(*out, e.cfg.Bake.Format)
	if err := preview.WriteFile(*out, img, format); err != nil {
		fail(err)
	}
	e.log.Info("preview written",
		zap.String("material", mat.Name),
		zap.String("path", *out),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
}

// buildMaterial builds the terrain graph of one manifest material on a
// fresh scene material of the same name.
func (e *env) buildMaterial(path, name string) (*scene.Material, error) {
	m, err := area.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	spec, ok := area.NewMaterialIndex(m.Materials()).Lookup(name)
	if !ok {
		return nil, fmt.Errorf("material %q not found in %s", name, path)
	}

	s := e.newScene()
	mat := s.NewMaterial(spec.Name)
	b := terrain.NewBuilder(e.profile, texture.LoaderFunc(s.LoadImage), logger.Named("terrain"))
	if err := b.Build(mat, spec, m.Dir); err != nil {
		return nil, err
	}
	return mat, nil
}

// maskSize returns the size of the largest non-colour image, which is the
// resolution the weights are authored at.
func maskSize(images []*texture.Image) (w, h int) {
	for _, img := range images {
		if img.ColorSpace != texture.ColorSpaceNonColor {
			continue
		}
		iw, ih := img.Size()
		if iw*ih > w*h {
			w, h = iw, ih
		}
	}
	if w == 0 || h == 0 {
		return defaultBakeSize, defaultBakeSize
	}
	return w, h
}
