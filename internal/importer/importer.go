// Package importer loads external model files into the scene, finds the
// root of what was created, moves it into a target group and normalises the
// imported materials' transparency and specular settings.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/internal/shader"
)

// ErrNotFound is returned when a model file is missing, has an unsupported
// extension, or produced no objects. No scene changes are made in the first
// two cases.
var ErrNotFound = errors.New("model not found")

// Extensions the manifest may reference.
const (
	ExtGLB  = ".glb"
	ExtGLTF = ".gltf"
	ExtFBX  = ".fbx"
)

// Format creates scene objects from one model file. New objects are expected
// in the host's default group; the importer relinks them.
type Format interface {
	Import(path string, host scene.Authoring) error
}

// Importer dispatches model files to format backends by extension.
type Importer struct {
	host    scene.Authoring
	formats map[string]Format
	log     *zap.Logger
}

// New creates an importer with the glTF backend registered for .glb and
// .gltf. FBX has no built-in backend; see Register.
func New(host scene.Authoring, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	gltfFormat := &GLTF{YUp: true, log: log}
	return &Importer{
		host: host,
		formats: map[string]Format{
			ExtGLB:  gltfFormat,
			ExtGLTF: gltfFormat,
		},
		log: log,
	}
}

// Register installs a backend for an extension (".fbx", ...). Only the
// three manifest extensions are accepted.
func (im *Importer) Register(ext string, f Format) error {
	ext = strings.ToLower(ext)
	switch ext {
	case ExtGLB, ExtGLTF, ExtFBX:
		im.formats[ext] = f
		return nil
	}
	return fmt.Errorf("unsupported model extension %q", ext)
}

// Import loads path and links everything it created into group. It returns
// the root of the new objects.
func (im *Importer) Import(path string, group scene.GroupID) (scene.ObjectID, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := im.formats[ext]
	if !ok {
		return 0, fmt.Errorf("%w: no importer for %q (%s)", ErrNotFound, ext, path)
	}

	before := make(map[scene.ObjectID]bool)
	for _, id := range im.host.ObjectIDs() {
		before[id] = true
	}
	err := format.Import(path, im.host)
	var created []scene.ObjectID
	for _, id := range im.host.ObjectIDs() {
		if !before[id] {
			created = append(created, id)
		}
	}
	if err != nil {
		im.discard(created)
		return 0, fmt.Errorf("importing %s: %w", path, err)
	}
	if len(created) == 0 {
		return 0, fmt.Errorf("%w: %s produced no objects", ErrNotFound, path)
	}

	root := im.findRoot(created)
	for _, id := range created {
		if err := im.relink(id, group); err != nil {
			return 0, err
		}
	}
	im.setupMaterials(created)

	rootObj, _ := im.host.Object(root)
	im.log.Debug("model imported",
		zap.String("path", path),
		zap.String("root", rootObj.Name),
		zap.Int("objects", len(created)))
	return root, nil
}

// discard removes objects a failed backend left behind.
func (im *Importer) discard(created []scene.ObjectID) {
	for _, id := range created {
		if err := im.host.RemoveObject(id); err != nil {
			im.log.Warn("discard partial import", zap.Error(err))
		}
	}
	if len(created) > 0 {
		im.log.Debug("partial import discarded", zap.Int("objects", len(created)))
	}
}

// findRoot returns the first object whose parent is absent or outside the
// new set, falling back to the first object.
func (im *Importer) findRoot(created []scene.ObjectID) scene.ObjectID {
	set := make(map[scene.ObjectID]bool, len(created))
	for _, id := range created {
		set[id] = true
	}
	for _, id := range created {
		o, ok := im.host.Object(id)
		if !ok {
			continue
		}
		if p := o.Parent(); p == 0 || !set[p] {
			return id
		}
	}
	return created[0]
}

func (im *Importer) relink(id scene.ObjectID, group scene.GroupID) error {
	o, ok := im.host.Object(id)
	if !ok {
		return fmt.Errorf("%w: %d", scene.ErrNoObject, id)
	}
	for _, g := range append([]scene.GroupID(nil), o.Groups()...) {
		if err := im.host.UnlinkObject(id, g); err != nil {
			return err
		}
	}
	return im.host.LinkObject(id, group)
}

// setupMaterials turns off specular and backface culling on every material
// of the imported meshes. Materials with a linked alpha input or clip
// blending get clip alpha, a 0.5 threshold and clip shadows where the host
// supports them.
func (im *Importer) setupMaterials(objects []scene.ObjectID) {
	specular := im.host.Profile().SpecularInput
	seen := make(map[*scene.Material]bool)
	for _, id := range objects {
		o, ok := im.host.Object(id)
		if !ok || !o.IsMesh() {
			continue
		}
		for _, mat := range o.Mesh.Materials {
			if mat == nil || seen[mat] {
				continue
			}
			seen[mat] = true
			normaliseMaterial(mat, specular)
		}
	}
}

func normaliseMaterial(mat *scene.Material, specular string) {
	mat.SetBackfaceCulling(false)
	mat.SetUseNodes(true)

	bsdf, ok := mat.Principled()
	if !ok {
		return
	}
	if mat.Graph.HasInput(bsdf, specular) {
		_ = mat.Graph.SetInput(bsdf, specular, shader.Float(0))
	}

	clip := mat.BlendMethod == scene.BlendClip || mat.Graph.IsLinked(bsdf, shader.SocketAlpha)
	if !clip {
		return
	}
	mat.BlendMethod = scene.BlendClip
	mat.AlphaThreshold = 0.5
	mat.SetShadowMethod(scene.ShadowClip)
	mat.SetSurfaceRenderMethod(scene.SurfaceDithered)
}
