package area

import (
	"strings"

	"golang.org/x/text/cases"
)

// MaterialIndex looks up blend specs by host material name.
//
// Names compare case-insensitively. Host names carrying a duplicate suffix
// (".001", ".012") also match the undecorated spec name.
type MaterialIndex struct {
	specs map[string]*MaterialBlendSpec
}

// NewMaterialIndex indexes materials by folded name. Unnamed entries are
// skipped and later duplicates replace earlier ones.
func NewMaterialIndex(materials []MaterialBlendSpec) *MaterialIndex {
	idx := &MaterialIndex{specs: make(map[string]*MaterialBlendSpec, len(materials))}
	for i := range materials {
		if materials[i].Name == "" {
			continue
		}
		idx.specs[foldName(materials[i].Name)] = &materials[i]
	}
	return idx
}

// Len returns the number of indexed materials.
func (idx *MaterialIndex) Len() int {
	return len(idx.specs)
}

// Lookup finds the spec for a host material name.
func (idx *MaterialIndex) Lookup(hostName string) (*MaterialBlendSpec, bool) {
	key := foldName(hostName)
	if spec, ok := idx.specs[key]; ok {
		return spec, true
	}
	if base, ok := StripDuplicateSuffix(key); ok {
		spec, found := idx.specs[base]
		return spec, found
	}
	return nil, false
}

// StripDuplicateSuffix removes a trailing ".NNN" that hosts append to
// duplicated datablock names.
func StripDuplicateSuffix(name string) (string, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return name, false
	}
	for _, r := range name[dot+1:] {
		if r < '0' || r > '9' {
			return name, false
		}
	}
	return name[:dot], true
}

func foldName(name string) string {
	return cases.Fold().String(name)
}
