package scene

import (
	"fmt"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	hmath "github.com/Faultbox/haven-area/pkg/math"
)

// DuplicateHierarchy deep-copies obj and its descendants into group g. Mesh
// data is shared with the source. Local transforms and parent-inverse
// matrices are copied at every level; visibility is not.
func (s *Scene) DuplicateHierarchy(obj ObjectID, g GroupID) (ObjectID, error) {
	src, err := s.lookup(obj)
	if err != nil {
		return 0, err
	}
	if _, ok := s.groups[g]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoGroup, g)
	}
	dup, err := s.duplicate(src, g)
	if err != nil {
		return 0, err
	}
	s.log.Debug("hierarchy duplicated",
		zap.String("source", src.Name),
		zap.Int("objects", 1+len(s.Descendants(dup))))
	return dup, nil
}

// objectData is the part of an Object a duplicate inherits. Hierarchy and
// group links are rebuilt, never copied.
type objectData struct {
	Transform     Transform
	ParentInverse hmath.Mat4
	Properties    map[string]any
}

func (s *Scene) duplicate(src *Object, g GroupID) (ObjectID, error) {
	var data objectData
	if err := copier.CopyWithOption(&data, src, copier.Option{CaseSensitive: true, DeepCopy: true}); err != nil {
		return 0, fmt.Errorf("copying %s: %w", src.Name, err)
	}
	id := s.NewObject(src.Name, src.Mesh)
	o := s.objects[id]
	o.Transform = data.Transform
	o.ParentInverse = data.ParentInverse
	o.Properties = data.Properties
	// NewObject linked it to the root; duplicates live only in g.
	if g != s.root {
		if err := s.UnlinkObject(id, s.root); err != nil {
			return 0, err
		}
	}
	if err := s.LinkObject(id, g); err != nil {
		return 0, err
	}

	for _, childID := range src.children {
		child := s.objects[childID]
		dupChild, err := s.duplicate(child, g)
		if err != nil {
			return 0, err
		}
		if err := s.SetParent(dupChild, id, child.ParentInverse); err != nil {
			return 0, err
		}
	}
	return id, nil
}
