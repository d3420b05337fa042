package scene

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Dump is a YAML-friendly snapshot of the scene.
type Dump struct {
	Groups    []GroupDump    `yaml:"groups"`
	Materials []MaterialDump `yaml:"materials,omitempty"`
	Images    []ImageDump    `yaml:"images,omitempty"`
}

// GroupDump is a group with its objects and child groups.
type GroupDump struct {
	Name    string       `yaml:"name"`
	Objects []ObjectDump `yaml:"objects,omitempty"`
	Groups  []GroupDump  `yaml:"groups,omitempty"`
}

// ObjectDump is an object's placement. Rotation is (w, x, y, z).
type ObjectDump struct {
	Name     string     `yaml:"name"`
	Mesh     string     `yaml:"mesh,omitempty"`
	Parent   string     `yaml:"parent,omitempty"`
	Location [3]float32 `yaml:"location,flow"`
	Rotation [4]float32 `yaml:"rotation,flow"`
	Scale    [3]float32 `yaml:"scale,flow"`
	World    [3]float32 `yaml:"world,flow"`
	Hidden   bool       `yaml:"hidden,omitempty"`
}

// MaterialDump summarises a material and its node tree.
type MaterialDump struct {
	Name                string   `yaml:"name"`
	BlendMethod         string   `yaml:"blend_method"`
	ShadowMethod        string   `yaml:"shadow_method,omitempty"`
	SurfaceRenderMethod string   `yaml:"surface_render_method,omitempty"`
	BackfaceCulling     bool     `yaml:"backface_culling"`
	Nodes               int      `yaml:"nodes"`
	Links               int      `yaml:"links"`
	Images              []string `yaml:"images,omitempty"`
}

// ImageDump is one image datablock.
type ImageDump struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`
	ColorSpace string `yaml:"colorspace"`
}

// Dump snapshots the scene starting from the root group.
func (s *Scene) Dump() Dump {
	d := Dump{Groups: []GroupDump{s.dumpGroup(s.groups[s.root])}}
	for _, m := range s.materials {
		md := MaterialDump{
			Name:                m.Name,
			BlendMethod:         string(m.BlendMethod),
			ShadowMethod:        string(m.ShadowMethod),
			SurfaceRenderMethod: string(m.SurfaceRenderMethod),
			BackfaceCulling:     m.BackfaceCulling,
			Nodes:               len(m.Graph.Nodes()),
			Links:               len(m.Graph.Links()),
		}
		for _, img := range m.Images() {
			md.Images = append(md.Images, img.Name)
		}
		d.Materials = append(d.Materials, md)
	}
	for _, img := range s.images.Images() {
		d.Images = append(d.Images, ImageDump{
			Name:       img.Name,
			Path:       img.Path,
			ColorSpace: string(img.ColorSpace),
		})
	}
	return d
}

func (s *Scene) dumpGroup(g *Group) GroupDump {
	gd := GroupDump{Name: g.Name}
	for _, id := range g.objects {
		gd.Objects = append(gd.Objects, s.dumpObject(s.objects[id]))
	}
	for _, id := range g.children {
		gd.Groups = append(gd.Groups, s.dumpGroup(s.groups[id]))
	}
	return gd
}

func (s *Scene) dumpObject(o *Object) ObjectDump {
	od := ObjectDump{
		Name:     o.Name,
		Location: o.Transform.Location.Array(),
		Rotation: o.Transform.Rotation.WXYZ(),
		Scale:    o.Transform.Scale.Array(),
		Hidden:   o.HideViewport || o.HideRender,
	}
	if o.Mesh != nil {
		od.Mesh = o.Mesh.Name
	}
	if p := s.objects[o.parent]; p != nil {
		od.Parent = p.Name
	}
	if world, err := s.WorldMatrix(o.ID); err == nil {
		od.World = world.Translation().Array()
	}
	return od
}

// WriteYAML writes the scene snapshot as YAML.
func (s *Scene) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Dump()); err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return enc.Close()
}
