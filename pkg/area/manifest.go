// Package area loads .havenarea manifests: the JSON description of a level
// area written by the exporter, listing terrain materials and patches, props
// and trees with their placed instances.
package area

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Manifest errors.
var (
	ErrManifestNotFound = errors.New("area manifest not found")
	ErrInvalidManifest  = errors.New("invalid area manifest")
)

// DefaultLevelName is used when the manifest carries no level name.
const DefaultLevelName = "Unknown Level"

// Category identifies one of the importable asset categories.
type Category int

const (
	CategoryTerrain Category = iota // Terrain patches
	CategoryProps                   // Static props
	CategoryTrees                   // SpeedTree exports
)

// String returns the group name used for the category.
func (c Category) String() string {
	switch c {
	case CategoryTerrain:
		return "Terrain"
	case CategoryProps:
		return "Props"
	case CategoryTrees:
		return "Trees"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Categories lists every category in import order.
var Categories = []Category{CategoryTerrain, CategoryProps, CategoryTrees}

// Instance is one placement of a model.
type Instance struct {
	Position [3]float32 // World position
	Rotation [4]float32 // Quaternion, scalar last (x, y, z, w)
	Scale    float32    // Uniform scale
}

// AssetGroup is a model file and every place it is instanced.
type AssetGroup struct {
	Name      string
	File      string // Relative to the manifest directory
	Instances []Instance
}

// Terrain holds the blend materials and the terrain patch models.
type Terrain struct {
	Materials []MaterialBlendSpec
	Patches   map[string]AssetGroup
}

// Manifest is a parsed area description. It is not modified after loading.
type Manifest struct {
	Level            string
	Rim              string // Source RIM archive stem
	Format           string // Model format written by the exporter ("glb" or "fbx")
	CoordinateSystem string // Always "z_up" for current exporters
	Terrain          *Terrain
	Props            map[string]AssetGroup
	Trees            map[string]AssetGroup
	Dir              string // Directory asset paths are resolved against
}

// Resolve joins an asset path from the manifest with the manifest directory.
func (m *Manifest) Resolve(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Dir, filepath.FromSlash(rel))
}

// Has reports whether the manifest contains a section for the category.
func (m *Manifest) Has(c Category) bool {
	switch c {
	case CategoryTerrain:
		return m.Terrain != nil
	case CategoryProps:
		return m.Props != nil
	case CategoryTrees:
		return m.Trees != nil
	}
	return false
}

// Groups returns the asset groups of a category sorted by name.
func (m *Manifest) Groups(c Category) []AssetGroup {
	var src map[string]AssetGroup
	switch c {
	case CategoryTerrain:
		if m.Terrain != nil {
			src = m.Terrain.Patches
		}
	case CategoryProps:
		src = m.Props
	case CategoryTrees:
		src = m.Trees
	}

	groups := make([]AssetGroup, 0, len(src))
	for _, g := range src {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// Materials returns the terrain blend materials, or nil without terrain.
func (m *Manifest) Materials() []MaterialBlendSpec {
	if m.Terrain == nil {
		return nil
	}
	return m.Terrain.Materials
}

// InstanceCount returns the number of instances across a category.
func (m *Manifest) InstanceCount(c Category) int {
	n := 0
	for _, g := range m.Groups(c) {
		n += len(g.Instances)
	}
	return n
}

// LoadManifest reads and parses a manifest file. Asset paths resolve against
// the file's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Raw JSON shapes. Fixed-size vectors are decoded as slices so their length
// can be checked; encoding/json silently pads or truncates arrays.
type rawManifest struct {
	Level            string                   `json:"level"`
	Rim              string                   `json:"rim"`
	Format           string                   `json:"format"`
	CoordinateSystem string                   `json:"coordinate_system"`
	Terrain          *rawTerrain              `json:"terrain"`
	Props            map[string]rawAssetGroup `json:"props"`
	Trees            map[string]rawAssetGroup `json:"trees"`
}

type rawTerrain struct {
	Materials []rawMaterial            `json:"materials"`
	Patches   map[string]rawAssetGroup `json:"patches"`
}

type rawMaterial struct {
	Name       string    `json:"name"`
	Palette    string    `json:"palette"`
	MaskA      string    `json:"maskA"`
	MaskA2     string    `json:"maskA2"`
	TotalCells *int      `json:"totalCells"`
	PalDim     []float32 `json:"palDim"`
	PalParam   []float32 `json:"palParam"`
	UVScales   []float32 `json:"uvScales"`
}

type rawAssetGroup struct {
	File      string        `json:"file"`
	Instances []rawInstance `json:"instances"`
}

type rawInstance struct {
	Position []float32 `json:"position"`
	Rotation []float32 `json:"rotation"`
	Scale    *float32  `json:"scale"`
}

// ParseManifest parses manifest JSON. Dir is left empty.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	m := &Manifest{
		Level:            raw.Level,
		Rim:              raw.Rim,
		Format:           raw.Format,
		CoordinateSystem: raw.CoordinateSystem,
	}
	if m.Level == "" {
		m.Level = DefaultLevelName
	}

	if raw.Terrain != nil {
		t := &Terrain{}
		for _, rm := range raw.Terrain.Materials {
			t.Materials = append(t.Materials, convertMaterial(rm))
		}
		patches, err := convertGroups("terrain.patches", raw.Terrain.Patches)
		if err != nil {
			return nil, err
		}
		t.Patches = patches
		m.Terrain = t
	}

	var err error
	if raw.Props != nil {
		if m.Props, err = convertGroups("props", raw.Props); err != nil {
			return nil, err
		}
	}
	if raw.Trees != nil {
		if m.Trees, err = convertGroups("trees", raw.Trees); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// convertMaterial never fails. A bad palDim or palParam is kept on the spec
// and reported by Validate, so only that material is skipped.
func convertMaterial(rm rawMaterial) MaterialBlendSpec {
	mat := MaterialBlendSpec{
		Name:       rm.Name,
		Palette:    rm.Palette,
		MaskA:      rm.MaskA,
		MaskA2:     rm.MaskA2,
		TotalCells: rm.TotalCells,
		UVScales:   rm.UVScales,
	}
	if len(rm.PalDim) != 4 {
		mat.shape = append(mat.shape, fmt.Errorf("palDim: want 4 values, got %d", len(rm.PalDim)))
	}
	if len(rm.PalParam) != 4 {
		mat.shape = append(mat.shape, fmt.Errorf("palParam: want 4 values, got %d", len(rm.PalParam)))
	}
	copy(mat.PalDim[:], rm.PalDim)
	copy(mat.PalParam[:], rm.PalParam)
	return mat
}

func convertGroups(section string, raw map[string]rawAssetGroup) (map[string]AssetGroup, error) {
	groups := make(map[string]AssetGroup, len(raw))
	for name, rg := range raw {
		g := AssetGroup{Name: name, File: rg.File}
		for i, ri := range rg.Instances {
			inst, err := convertInstance(ri)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%q].instances[%d]: %v", ErrInvalidManifest, section, name, i, err)
			}
			g.Instances = append(g.Instances, inst)
		}
		groups[name] = g
	}
	return groups, nil
}

func convertInstance(ri rawInstance) (Instance, error) {
	inst := Instance{Scale: 1.0}
	if len(ri.Position) != 3 {
		return inst, fmt.Errorf("position: want 3 values, got %d", len(ri.Position))
	}
	if len(ri.Rotation) != 4 {
		return inst, fmt.Errorf("rotation: want 4 values, got %d", len(ri.Rotation))
	}
	copy(inst.Position[:], ri.Position)
	copy(inst.Rotation[:], ri.Rotation)
	if ri.Scale != nil {
		inst.Scale = *ri.Scale
	}
	return inst, nil
}
