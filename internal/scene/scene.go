// Package scene is an in-memory host scene: objects in a parent hierarchy,
// groups (collections), shared meshes, materials with shader node trees and
// an image registry. It implements the narrow Port the importer, placer and
// orchestrator mutate the host through.
package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/haven-area/internal/shader"
	"github.com/Faultbox/haven-area/internal/texture"
	"github.com/Faultbox/haven-area/pkg/area"
	hmath "github.com/Faultbox/haven-area/pkg/math"
)

// Scene errors.
var (
	ErrNoObject = errors.New("no such object")
	ErrNoGroup  = errors.New("no such group")
	ErrCycle    = errors.New("parenting would create a cycle")
)

// RootGroupName is the name of the scene's master collection.
const RootGroupName = "Scene Collection"

// Port is the scene mutation surface used by the import pipeline.
type Port interface {
	Root() GroupID
	CreateGroup(name string, parent GroupID) (GroupID, error)
	LinkObject(obj ObjectID, g GroupID) error
	UnlinkObject(obj ObjectID, g GroupID) error
	Object(id ObjectID) (*Object, bool)
	ObjectIDs() []ObjectID
	Descendants(obj ObjectID) []ObjectID
	DuplicateHierarchy(obj ObjectID, g GroupID) (ObjectID, error)
	SetTransform(obj ObjectID, t Transform) error
	SetHidden(obj ObjectID, viewport, render bool) error
	Materials() []*Material
}

// Authoring is the creation API format importers build objects with. New
// objects are linked into the root group, as the host's importers do.
type Authoring interface {
	Port
	NewObject(name string, mesh *Mesh) ObjectID
	RemoveObject(obj ObjectID) error
	SetParent(child, parent ObjectID, parentInverse hmath.Mat4) error
	NewMesh(name string) *Mesh
	NewMaterial(name string) *Material
	LoadImage(path string, cs texture.ColorSpace) (*texture.Image, error)
	Profile() shader.Profile
}

// Scene is a single-writer in-memory scene.
type Scene struct {
	profile shader.Profile
	images  *texture.Registry
	log     *zap.Logger

	objects   map[ObjectID]*Object
	order     []ObjectID
	groups    map[GroupID]*Group
	root      GroupID
	meshes    []*Mesh
	materials []*Material
	names     map[string]map[string]bool

	nextObject ObjectID
	nextGroup  GroupID
}

var _ Authoring = (*Scene)(nil)

// New creates an empty scene for a host profile. A nil registry gets a fresh
// one; a nil logger disables logging.
func New(profile shader.Profile, images *texture.Registry, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	if images == nil {
		images = texture.NewRegistry(log)
	}
	s := &Scene{
		profile:    profile,
		images:     images,
		log:        log,
		objects:    make(map[ObjectID]*Object),
		groups:     make(map[GroupID]*Group),
		names:      make(map[string]map[string]bool),
		nextObject: 1,
		nextGroup:  1,
	}
	s.root = s.addGroup(RootGroupName, 0)
	return s
}

// Profile returns the host profile.
func (s *Scene) Profile() shader.Profile { return s.profile }

// Images returns the image registry.
func (s *Scene) Images() *texture.Registry { return s.images }

// Root returns the master collection.
func (s *Scene) Root() GroupID { return s.root }

// uniqueName returns base, or base.001, base.002, ... when the name is
// taken within the namespace. An existing duplicate suffix on base is
// dropped first.
func (s *Scene) uniqueName(namespace, base string) string {
	used := s.names[namespace]
	if used == nil {
		used = make(map[string]bool)
		s.names[namespace] = used
	}
	name := base
	if used[name] {
		stem, _ := area.StripDuplicateSuffix(base)
		for i := 1; used[name]; i++ {
			name = fmt.Sprintf("%s.%03d", stem, i)
		}
	}
	used[name] = true
	return name
}

func (s *Scene) addGroup(name string, parent GroupID) GroupID {
	g := &Group{
		ID:     s.nextGroup,
		Name:   s.uniqueName("group", name),
		parent: parent,
	}
	s.nextGroup++
	s.groups[g.ID] = g
	if p := s.groups[parent]; p != nil {
		p.children = append(p.children, g.ID)
	}
	return g.ID
}

// CreateGroup creates a group under parent.
func (s *Scene) CreateGroup(name string, parent GroupID) (GroupID, error) {
	if _, ok := s.groups[parent]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoGroup, parent)
	}
	id := s.addGroup(name, parent)
	s.log.Debug("group created", zap.String("name", s.groups[id].Name))
	return id, nil
}

// Group returns a group by ID.
func (s *Scene) Group(id GroupID) (*Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// FindGroup returns the first group with the given name.
func (s *Scene) FindGroup(name string) (*Group, bool) {
	for id := GroupID(1); id < s.nextGroup; id++ {
		if g := s.groups[id]; g != nil && g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// Object returns an object by ID.
func (s *Scene) Object(id ObjectID) (*Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// ObjectIDs returns every object in creation order.
func (s *Scene) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, len(s.order))
	copy(ids, s.order)
	return ids
}

// NewObject creates an object linked into the root group.
func (s *Scene) NewObject(name string, mesh *Mesh) ObjectID {
	o := &Object{
		ID:            s.nextObject,
		Name:          s.uniqueName("object", name),
		Mesh:          mesh,
		Transform:     IdentityTransform(),
		ParentInverse: hmath.Identity(),
	}
	s.nextObject++
	s.objects[o.ID] = o
	s.order = append(s.order, o.ID)
	s.link(o, s.groups[s.root])
	return o.ID
}

// RemoveObject deletes an object from the scene. It is unlinked from every
// group and its parent; its children become unparented. The name is freed.
func (s *Scene) RemoveObject(obj ObjectID) error {
	o, err := s.lookup(obj)
	if err != nil {
		return err
	}
	if p := s.objects[o.parent]; p != nil {
		p.children = removeID(p.children, obj)
	}
	for _, c := range o.children {
		if child := s.objects[c]; child != nil {
			child.parent = 0
		}
	}
	for _, g := range o.groups {
		if grp := s.groups[g]; grp != nil {
			grp.objects = removeID(grp.objects, obj)
		}
	}
	delete(s.objects, obj)
	s.order = removeID(s.order, obj)
	delete(s.names["object"], o.Name)
	return nil
}

// NewMesh creates a mesh datablock.
func (s *Scene) NewMesh(name string) *Mesh {
	m := &Mesh{Name: s.uniqueName("mesh", name)}
	s.meshes = append(s.meshes, m)
	return m
}

// NewMaterial creates a node-based material with the host's default tree:
// a principled surface wired to an output.
func (s *Scene) NewMaterial(name string) *Material {
	m := &Material{
		Name:            s.uniqueName("material", name),
		BackfaceCulling: true,
		UseNodes:        true,
		BlendMethod:     BlendOpaque,
		AlphaThreshold:  0.5,
		Graph:           shader.NewGraph(s.profile),
		profile:         s.profile,
	}
	if s.profile.HasShadowMethod {
		m.ShadowMethod = ShadowOpaque
	}
	if s.profile.HasSurfaceRenderMethod {
		m.SurfaceRenderMethod = SurfaceDithered
	}

	out, err := m.Graph.AddNode(shader.KindOutput, "")
	if err == nil {
		bsdf, err := m.Graph.AddNode(shader.KindPrincipled, "")
		if err == nil {
			err = m.Graph.Connect(bsdf, shader.SocketBSDF, out, shader.SocketSurface)
		}
		if err != nil {
			s.log.Warn("default material tree", zap.String("material", m.Name), zap.Error(err))
		}
	}
	s.materials = append(s.materials, m)
	return m
}

// Materials returns every material in creation order.
func (s *Scene) Materials() []*Material {
	return s.materials
}

// Meshes returns every mesh datablock.
func (s *Scene) Meshes() []*Mesh {
	return s.meshes
}

// LoadImage loads an image datablock through the registry.
func (s *Scene) LoadImage(path string, cs texture.ColorSpace) (*texture.Image, error) {
	return s.images.Load(path, cs)
}

func (s *Scene) lookup(id ObjectID) (*Object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoObject, id)
	}
	return o, nil
}

func (s *Scene) link(o *Object, g *Group) {
	for _, id := range o.groups {
		if id == g.ID {
			return
		}
	}
	o.groups = append(o.groups, g.ID)
	g.objects = append(g.objects, o.ID)
}

// LinkObject links an object into a group. Linking twice is a no-op.
func (s *Scene) LinkObject(obj ObjectID, g GroupID) error {
	o, err := s.lookup(obj)
	if err != nil {
		return err
	}
	grp, ok := s.groups[g]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoGroup, g)
	}
	s.link(o, grp)
	return nil
}

// UnlinkObject removes an object from a group.
func (s *Scene) UnlinkObject(obj ObjectID, g GroupID) error {
	o, err := s.lookup(obj)
	if err != nil {
		return err
	}
	grp, ok := s.groups[g]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoGroup, g)
	}
	o.groups = removeID(o.groups, g)
	grp.objects = removeID(grp.objects, obj)
	return nil
}

// SetParent parents child to parent with the given parent-inverse matrix.
// A zero parent clears the parent.
func (s *Scene) SetParent(child, parent ObjectID, parentInverse hmath.Mat4) error {
	c, err := s.lookup(child)
	if err != nil {
		return err
	}
	if parent != 0 {
		if _, err := s.lookup(parent); err != nil {
			return err
		}
		for p := parent; p != 0; p = s.objects[p].parent {
			if p == child {
				return fmt.Errorf("%w: %s under %d", ErrCycle, c.Name, parent)
			}
		}
	}
	if old := s.objects[c.parent]; old != nil {
		old.children = removeID(old.children, child)
	}
	c.parent = parent
	c.ParentInverse = parentInverse
	if parent != 0 {
		p := s.objects[parent]
		p.children = append(p.children, child)
	}
	return nil
}

// Descendants returns every object below obj, depth first.
func (s *Scene) Descendants(obj ObjectID) []ObjectID {
	o, ok := s.objects[obj]
	if !ok {
		return nil
	}
	var out []ObjectID
	for _, c := range o.children {
		out = append(out, c)
		out = append(out, s.Descendants(c)...)
	}
	return out
}

// SetTransform replaces an object's local transform.
func (s *Scene) SetTransform(obj ObjectID, t Transform) error {
	o, err := s.lookup(obj)
	if err != nil {
		return err
	}
	o.Transform = t
	return nil
}

// SetHidden sets viewport and render visibility.
func (s *Scene) SetHidden(obj ObjectID, viewport, render bool) error {
	o, err := s.lookup(obj)
	if err != nil {
		return err
	}
	o.HideViewport = viewport
	o.HideRender = render
	return nil
}

// WorldMatrix returns parent world * parent inverse * local, up the chain.
func (s *Scene) WorldMatrix(obj ObjectID) (hmath.Mat4, error) {
	o, err := s.lookup(obj)
	if err != nil {
		return hmath.Mat4{}, err
	}
	local := o.Transform.Matrix()
	if o.parent == 0 {
		return local, nil
	}
	parent, err := s.WorldMatrix(o.parent)
	if err != nil {
		return hmath.Mat4{}, err
	}
	return parent.Mul(o.ParentInverse).Mul(local), nil
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
