package importer

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/scene"
	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
	hmath "github.com/Faultbox/haven-area/pkg/math"
)

// GLTF imports .gltf and .glb files.
type GLTF struct {
	// YUp converts glTF's Y-up axes to the host's Z-up axes.
	YUp bool

	log *zap.Logger
}

// Import creates one object per node, one mesh per glTF mesh and one
// material per glTF material.
func (f *GLTF) Import(path string, host scene.Authoring) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return fmt.Errorf("opening glTF: %w", err)
	}
	log := f.log
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(path)

	materials := make([]*scene.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i] = f.material(doc, m, dir, host, log)
	}

	meshes := make([]*scene.Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		mesh, err := f.mesh(doc, m, materials, host)
		if err != nil {
			return fmt.Errorf("mesh %d (%s): %w", i, m.Name, err)
		}
		meshes[i] = mesh
	}

	objects := make([]scene.ObjectID, len(doc.Nodes))
	for i, n := range doc.Nodes {
		var mesh *scene.Mesh
		if n.Mesh != nil && *n.Mesh < len(meshes) {
			mesh = meshes[*n.Mesh]
		}
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("Node%d", i)
		}
		id := host.NewObject(name, mesh)
		if err := host.SetTransform(id, f.transform(n)); err != nil {
			return err
		}
		if extras, ok := n.Extras.(map[string]any); ok {
			if o, ok := host.Object(id); ok {
				o.Properties = extras
			}
		}
		objects[i] = id
	}

	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(objects) {
				return fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			if err := host.SetParent(objects[c], objects[i], hmath.Identity()); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
		}
	}

	log.Debug("glTF loaded",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("materials", len(doc.Materials)))
	return nil
}

// transform reads a node's matrix or TRS.
func (f *GLTF) transform(n *gltf.Node) scene.Transform {
	var t scene.Transform
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var mat hmath.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		t = scene.TransformFromMatrix(mat)
	} else {
		tr, r, s := n.Translation, n.RotationOrDefault(), n.ScaleOrDefault()
		t = scene.Transform{
			Location: hmath.Vec3{X: float32(tr[0]), Y: float32(tr[1]), Z: float32(tr[2])},
			Rotation: hmath.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
			Scale:    hmath.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
		}
	}
	if f.YUp {
		t = scene.Transform{
			Location: yUpToZUp(t.Location),
			Rotation: hmath.Quat{X: t.Rotation.X, Y: -t.Rotation.Z, Z: t.Rotation.Y, W: t.Rotation.W},
			Scale:    hmath.Vec3{X: t.Scale.X, Y: t.Scale.Z, Z: t.Scale.Y},
		}
	}
	return t
}

func yUpToZUp(v hmath.Vec3) hmath.Vec3 {
	return hmath.Vec3{X: v.X, Y: -v.Z, Z: v.Y}
}

// mesh reads positions and indices of every primitive into one mesh.
func (f *GLTF) mesh(doc *gltf.Document, m *gltf.Mesh, materials []*scene.Material, host scene.Authoring) (*scene.Mesh, error) {
	name := m.Name
	if name == "" {
		name = "Mesh"
	}
	mesh := host.NewMesh(name)
	seen := make(map[*scene.Material]bool)

	for _, p := range m.Primitives {
		base := uint32(len(mesh.Positions))
		if idx, ok := p.Attributes[gltf.POSITION]; ok {
			acc, err := accessor(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("reading positions: %w", err)
			}
			pos, err := modeler.ReadPosition(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("reading positions: %w", err)
			}
			for _, v := range pos {
				if f.YUp {
					v = yUpToZUp(hmath.Vec3{X: v[0], Y: v[1], Z: v[2]}).Array()
				}
				mesh.Positions = append(mesh.Positions, v)
			}
		}
		if p.Indices != nil {
			acc, err := accessor(doc, *p.Indices)
			if err != nil {
				return nil, fmt.Errorf("reading indices: %w", err)
			}
			indices, err := modeler.ReadIndices(doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("reading indices: %w", err)
			}
			for _, i := range indices {
				mesh.Indices = append(mesh.Indices, base+i)
			}
		}
		if p.Material != nil && *p.Material < len(materials) {
			if mat := materials[*p.Material]; !seen[mat] {
				seen[mat] = true
				mesh.Materials = append(mesh.Materials, mat)
			}
		}
	}
	return mesh, nil
}

func accessor(doc *gltf.Document, index int) (*gltf.Accessor, error) {
	if index < 0 || index >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	return doc.Accessors[index], nil
}

// material builds a principled material. A base colour texture is wired to
// Base Color, and to Alpha for masked and blended materials.
func (f *GLTF) material(doc *gltf.Document, m *gltf.Material, dir string, host scene.Authoring, log *zap.Logger) *scene.Material {
	name := m.Name
	if name == "" {
		name = "Material"
	}
	mat := host.NewMaterial(name)
	mat.BackfaceCulling = !m.DoubleSided
	switch m.AlphaMode {
	case gltf.AlphaMask:
		mat.BlendMethod = scene.BlendClip
		mat.AlphaThreshold = float32(m.AlphaCutoffOrDefault())
	case gltf.AlphaBlend:
		mat.BlendMethod = scene.BlendBlend
	}

	bsdf, ok := mat.Principled()
	if !ok {
		return mat
	}
	g := mat.Graph
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}

	c := pbr.BaseColorFactorOrDefault()
	_ = g.SetInput(bsdf, shader.SocketBaseColor, shader.Value{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])})
	_ = g.SetInput(bsdf, shader.SocketMetallic, shader.Float(float32(pbr.MetallicFactorOrDefault())))
	_ = g.SetInput(bsdf, shader.SocketRoughness, shader.Float(float32(pbr.RoughnessFactorOrDefault())))

	if pbr.BaseColorTexture == nil {
		return mat
	}
	img, err := f.textureImage(doc, pbr.BaseColorTexture.Index, dir, host)
	if err != nil {
		log.Warn("base colour texture skipped", zap.String("material", mat.Name), zap.Error(err))
		return mat
	}
	tex, err := g.AddNode(shader.KindImageTexture, "Base Color")
	if err != nil {
		return mat
	}
	tex.Image = img
	tex.Location = [2]float32{-400, 0}
	if err := g.Connect(tex, shader.SocketColorOut, bsdf, shader.SocketBaseColor); err != nil {
		log.Warn("base colour link", zap.String("material", mat.Name), zap.Error(err))
	}
	if m.AlphaMode != gltf.AlphaOpaque {
		if err := g.Connect(tex, shader.SocketAlpha, bsdf, shader.SocketAlpha); err != nil {
			log.Warn("alpha link", zap.String("material", mat.Name), zap.Error(err))
		}
	}
	return mat
}

// textureImage loads the external image behind a texture index. Images
// embedded in buffers or data URIs are not supported.
func (f *GLTF) textureImage(doc *gltf.Document, index int, dir string, host scene.Authoring) (*texture.Image, error) {
	if index < 0 || index >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", index)
	}
	src := doc.Textures[index].Source
	if src == nil || *src >= len(doc.Images) {
		return nil, fmt.Errorf("texture %d has no image", index)
	}
	img := doc.Images[*src]
	if img.URI == "" || img.IsEmbeddedResource() {
		return nil, fmt.Errorf("image %d is embedded", *src)
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	uri = filepath.FromSlash(strings.TrimPrefix(uri, "./"))
	return host.LoadImage(filepath.Join(dir, uri), texture.ColorSpaceSRGB)
}
