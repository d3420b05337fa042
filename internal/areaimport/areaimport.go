// Package areaimport runs a whole area import: it loads the manifest, builds
// the level's group hierarchy, imports and hides templates, places their
// instances and rebuilds the terrain materials.
//
// Importing the same manifest twice duplicates every group, object,
// material and image; nothing is deduplicated against earlier imports.
package areaimport

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/importer"
	"github.com/Faultbox/haven-area/internal/placer"
	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/internal/terrain"
	"github.com/Faultbox/haven-area/internal/texture"
	"github.com/Faultbox/haven-area/pkg/area"
)

// Options selects the categories to import. A disabled category is skipped
// end to end, templates and instances alike. Terrain materials are only
// rebuilt when terrain is imported.
type Options struct {
	Terrain bool
	Props   bool
	Trees   bool
}

// DefaultOptions imports everything.
func DefaultOptions() Options {
	return Options{Terrain: true, Props: true, Trees: true}
}

// Enabled reports whether a category is selected.
func (o Options) Enabled(c area.Category) bool {
	switch c {
	case area.CategoryTerrain:
		return o.Terrain
	case area.CategoryProps:
		return o.Props
	case area.CategoryTrees:
		return o.Trees
	}
	return false
}

// CategoryStats counts what one category produced.
type CategoryStats struct {
	Templates int // Models imported as hidden templates
	Instances int // Placed copies
	Skipped   int // Entries whose model was missing or failed to import
}

// MaterialError is a terrain material that could not be rebuilt.
type MaterialError struct {
	Material string
	Err      error
}

func (e MaterialError) Error() string {
	return fmt.Sprintf("material %q: %v", e.Material, e.Err)
}

func (e MaterialError) Unwrap() error { return e.Err }

// Result summarises an import.
type Result struct {
	Level          string
	Group          scene.GroupID
	Categories     map[area.Category]CategoryStats
	MaterialsBuilt int
	Failures       []MaterialError
}

// Instances returns the number of placed instances across categories.
func (r *Result) Instances() int {
	n := 0
	for _, s := range r.Categories {
		n += s.Instances
	}
	return n
}

// Runner imports areas into one scene.
type Runner struct {
	scene   scene.Authoring
	models  *importer.Importer
	builder *terrain.Builder
	log     *zap.Logger
}

// New creates a runner writing into s. A nil logger disables logging.
func New(s scene.Authoring, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		scene:   s,
		models:  importer.New(s, log),
		builder: terrain.NewBuilder(s.Profile(), texture.LoaderFunc(s.LoadImage), log),
		log:     log,
	}
}

// Models returns the model importer, for registering extra formats.
func (r *Runner) Models() *importer.Importer {
	return r.models
}

// Run imports the manifest at path. Only a missing or malformed manifest is
// an error; missing models are skipped and failed materials are reported in
// the result.
func (r *Runner) Run(path string, opts Options) (*Result, error) {
	start := time.Now()
	m, err := area.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	res, err := r.RunManifest(m, opts)
	if err != nil {
		return nil, err
	}
	r.log.Info("area imported",
		zap.String("level", m.Level),
		zap.Int("instances", res.Instances()),
		zap.Int("materials", res.MaterialsBuilt),
		zap.Int("material_failures", len(res.Failures)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// RunManifest imports an already loaded manifest.
func (r *Runner) RunManifest(m *area.Manifest, opts Options) (*Result, error) {
	level, err := r.scene.CreateGroup(m.Level, r.scene.Root())
	if err != nil {
		return nil, fmt.Errorf("creating level group: %w", err)
	}
	res := &Result{
		Level:      m.Level,
		Group:      level,
		Categories: make(map[area.Category]CategoryStats),
	}

	for _, c := range area.Categories {
		if !opts.Enabled(c) || !m.Has(c) {
			continue
		}
		stats, err := r.importCategory(m, c, level)
		if err != nil {
			return nil, err
		}
		res.Categories[c] = stats
	}

	if opts.Terrain && m.Has(area.CategoryTerrain) {
		r.buildMaterials(m, res)
	}
	return res, nil
}

// templateGroupName returns the hidden template group of a category.
func templateGroupName(c area.Category) string {
	switch c {
	case area.CategoryTerrain:
		return "_TerrainTemplates"
	case area.CategoryProps:
		return "_PropTemplates"
	case area.CategoryTrees:
		return "_TreeTemplates"
	}
	return "_" + c.String() + "Templates"
}

func (r *Runner) importCategory(m *area.Manifest, c area.Category, level scene.GroupID) (CategoryStats, error) {
	var stats CategoryStats
	group, err := r.scene.CreateGroup(c.String(), level)
	if err != nil {
		return stats, fmt.Errorf("creating %s group: %w", c, err)
	}
	templates, err := r.scene.CreateGroup(templateGroupName(c), group)
	if err != nil {
		return stats, fmt.Errorf("creating %s template group: %w", c, err)
	}

	for _, g := range m.Groups(c) {
		template, err := r.models.Import(m.Resolve(g.File), templates)
		if err != nil {
			stats.Skipped++
			r.log.Warn("model skipped",
				zap.Stringer("category", c),
				zap.String("entry", g.Name),
				zap.Bool("not_found", errors.Is(err, importer.ErrNotFound)),
				zap.Error(err))
			continue
		}
		stats.Templates++
		r.hide(template)

		for i, inst := range g.Instances {
			if _, err := placer.Place(r.scene, template, inst, group); err != nil {
				r.log.Warn("instance skipped",
					zap.String("entry", g.Name),
					zap.Int("instance", i),
					zap.Error(err))
				continue
			}
			stats.Instances++
		}
	}

	r.log.Debug("category imported",
		zap.Stringer("category", c),
		zap.Int("templates", stats.Templates),
		zap.Int("instances", stats.Instances),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// hide hides a template and its descendants in viewport and render.
func (r *Runner) hide(template scene.ObjectID) {
	for _, id := range append([]scene.ObjectID{template}, r.scene.Descendants(template)...) {
		if err := r.scene.SetHidden(id, true, true); err != nil {
			r.log.Warn("hide template", zap.Error(err))
		}
	}
}

// buildMaterials rebuilds every scene material named in the manifest. A
// failure is logged and recorded; the remaining materials are still built.
func (r *Runner) buildMaterials(m *area.Manifest, res *Result) {
	idx := area.NewMaterialIndex(m.Materials())
	if idx.Len() == 0 {
		return
	}
	for _, mat := range r.scene.Materials() {
		spec, ok := idx.Lookup(mat.Name)
		if !ok {
			continue
		}
		if err := r.builder.Build(mat, spec, m.Dir); err != nil {
			r.log.Error("terrain material failed",
				zap.String("material", mat.Name),
				zap.String("spec", spec.Name),
				zap.Error(err))
			res.Failures = append(res.Failures, MaterialError{Material: mat.Name, Err: err})
			continue
		}
		res.MaterialsBuilt++
	}
}
