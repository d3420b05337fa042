package scene

import (
	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
	hmath "github.com/Faultbox/haven-area/pkg/math"
)

// ObjectID identifies an object. Zero means none.
type ObjectID uint32

// GroupID identifies a group (collection). Zero means none.
type GroupID uint32

// Transform is an object's local location, rotation and scale.
type Transform struct {
	Location hmath.Vec3
	Rotation hmath.Quat
	Scale    hmath.Vec3
}

// IdentityTransform returns the rest transform.
func IdentityTransform() Transform {
	return Transform{
		Rotation: hmath.QuatIdentity(),
		Scale:    hmath.Splat(1),
	}
}

// TransformFromMatrix decomposes a local matrix.
func TransformFromMatrix(m hmath.Mat4) Transform {
	loc, rot, scale := m.Decompose()
	return Transform{Location: loc, Rotation: rot, Scale: scale}
}

// Matrix returns the local matrix T * R * S.
func (t Transform) Matrix() hmath.Mat4 {
	return hmath.Compose(t.Location, t.Rotation, t.Scale)
}

// Mesh is geometry shared by every object that uses it.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Indices   []uint32
	Materials []*Material
}

// Object is a scene object. Transform, ParentInverse and Properties are
// deep-copied when a hierarchy is duplicated.
type Object struct {
	ID            ObjectID
	Name          string
	Mesh          *Mesh
	Transform     Transform
	ParentInverse hmath.Mat4
	HideViewport  bool
	HideRender    bool
	Properties    map[string]any

	parent   ObjectID
	children []ObjectID
	groups   []GroupID
}

// IsMesh reports whether the object carries geometry.
func (o *Object) IsMesh() bool {
	return o.Mesh != nil
}

// Parent returns the parent object, zero for none.
func (o *Object) Parent() ObjectID {
	return o.parent
}

// Children returns the direct children in creation order.
func (o *Object) Children() []ObjectID {
	return o.children
}

// Groups returns the groups the object is linked into.
func (o *Object) Groups() []GroupID {
	return o.groups
}

// Group is a named collection of objects and child groups.
type Group struct {
	ID           GroupID
	Name         string
	HideViewport bool
	HideRender   bool

	parent   GroupID
	children []GroupID
	objects  []ObjectID
}

// Parent returns the parent group, zero for the root.
func (g *Group) Parent() GroupID {
	return g.parent
}

// Children returns the child groups.
func (g *Group) Children() []GroupID {
	return g.children
}

// Objects returns the objects linked into the group.
func (g *Group) Objects() []ObjectID {
	return g.objects
}

// BlendMethod is how a material's alpha is rendered.
type BlendMethod string

const (
	BlendOpaque BlendMethod = "OPAQUE"
	BlendClip   BlendMethod = "CLIP"
	BlendHashed BlendMethod = "HASHED"
	BlendBlend  BlendMethod = "BLEND"
)

// ShadowMethod is how a material casts shadows.
type ShadowMethod string

const (
	ShadowOpaque ShadowMethod = "OPAQUE"
	ShadowClip   ShadowMethod = "CLIP"
	ShadowHashed ShadowMethod = "HASHED"
)

// SurfaceRenderMethod is the newer hosts' replacement for blend modes.
type SurfaceRenderMethod string

const (
	SurfaceDithered SurfaceRenderMethod = "DITHERED"
	SurfaceBlended  SurfaceRenderMethod = "BLENDED"
)

// Material is a host material with a shader node tree. ShadowMethod and
// SurfaceRenderMethod only exist on hosts whose profile supports them.
type Material struct {
	Name            string
	BackfaceCulling bool
	UseNodes        bool
	BlendMethod     BlendMethod
	AlphaThreshold  float32

	ShadowMethod        ShadowMethod
	SurfaceRenderMethod SurfaceRenderMethod

	Graph *shader.Graph

	profile shader.Profile
}

// NodeTree returns the editable shader graph.
func (m *Material) NodeTree() shader.Editor { return m.Graph }

// SetBackfaceCulling toggles backface culling.
func (m *Material) SetBackfaceCulling(enabled bool) { m.BackfaceCulling = enabled }

// SetUseNodes toggles node-based shading.
func (m *Material) SetUseNodes(enabled bool) { m.UseNodes = enabled }

// SetShadowMethod sets the shadow mode. It reports false when the host has
// no such property.
func (m *Material) SetShadowMethod(sm ShadowMethod) bool {
	if !m.profile.HasShadowMethod {
		return false
	}
	m.ShadowMethod = sm
	return true
}

// SetSurfaceRenderMethod sets the surface render mode. It reports false when
// the host has no such property.
func (m *Material) SetSurfaceRenderMethod(srm SurfaceRenderMethod) bool {
	if !m.profile.HasSurfaceRenderMethod {
		return false
	}
	m.SurfaceRenderMethod = srm
	return true
}

// Principled returns the material's first principled surface node.
func (m *Material) Principled() (*shader.Node, bool) {
	return m.Graph.First(shader.KindPrincipled)
}

// Images returns the images the material's node tree references.
func (m *Material) Images() []*texture.Image {
	return m.Graph.Images()
}
