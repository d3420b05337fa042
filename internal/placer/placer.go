// Package placer instances template hierarchies at manifest transforms.
package placer

import (
	"fmt"

	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/pkg/area"
	hmath "github.com/Faultbox/haven-area/pkg/math"
)

// Scene is the part of the scene the placer needs.
type Scene interface {
	Object(id scene.ObjectID) (*scene.Object, bool)
	DuplicateHierarchy(obj scene.ObjectID, g scene.GroupID) (scene.ObjectID, error)
	SetTransform(obj scene.ObjectID, t scene.Transform) error
}

// Place duplicates template into group and moves the copy to the instance's
// position, rotation and uniform scale. The game's (x, y, z, w) rotation is
// applied on top of the template's own local rotation.
func Place(s Scene, template scene.ObjectID, inst area.Instance, group scene.GroupID) (scene.ObjectID, error) {
	src, ok := s.Object(template)
	if !ok {
		return 0, fmt.Errorf("%w: template %d", scene.ErrNoObject, template)
	}
	dup, err := s.DuplicateHierarchy(template, group)
	if err != nil {
		return 0, fmt.Errorf("duplicating %s: %w", src.Name, err)
	}

	gameRot := hmath.QuatFromXYZW(inst.Rotation)
	templateRot := hmath.QuatFromMat4(src.Transform.Matrix())
	t := scene.Transform{
		Location: hmath.Vec3FromArray(inst.Position),
		Rotation: gameRot.Mul(templateRot),
		Scale:    hmath.Splat(inst.Scale),
	}
	if err := s.SetTransform(dup, t); err != nil {
		return 0, err
	}
	return dup, nil
}
