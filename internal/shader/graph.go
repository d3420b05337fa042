// Package shader models a host material's shader node graph: nodes with typed
// sockets, links between them, host-version compatibility profiles and an
// interpreter that evaluates the graph for a texture coordinate.
package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/haven-area/internal/texture"
)

// Graph errors.
var (
	ErrUnknownNode   = errors.New("unknown shader node")
	ErrUnknownSocket = errors.New("unknown shader socket")
	ErrSocketType    = errors.New("incompatible shader sockets")
)

// NodeKind identifies a node type.
type NodeKind string

const (
	KindOutput        NodeKind = "ShaderNodeOutputMaterial"
	KindPrincipled    NodeKind = "ShaderNodeBsdfPrincipled"
	KindTexCoord      NodeKind = "ShaderNodeTexCoord"
	KindSeparateXYZ   NodeKind = "ShaderNodeSeparateXYZ"
	KindCombineXYZ    NodeKind = "ShaderNodeCombineXYZ"
	KindImageTexture  NodeKind = "ShaderNodeTexImage"
	KindSeparateColor NodeKind = "ShaderNodeSeparateColor"
	KindSeparateRGB   NodeKind = "ShaderNodeSeparateRGB"
	KindMath          NodeKind = "ShaderNodeMath"
	KindVectorMath    NodeKind = "ShaderNodeVectorMath"
)

// Operation is the function of a Math or VectorMath node.
type Operation string

const (
	OpNone        Operation = ""
	OpAdd         Operation = "ADD"
	OpMultiply    Operation = "MULTIPLY"
	OpDivide      Operation = "DIVIDE"
	OpMultiplyAdd Operation = "MULTIPLY_ADD"
	OpFract       Operation = "FRACT"
	OpScale       Operation = "SCALE"
)

// Value is a socket value. Floats use the first component, vectors the
// first three and colours all four.
type Value [4]float32

// Float wraps a scalar.
func Float(f float32) Value {
	return Value{f, f, f, 1}
}

// NodeID identifies a node within its graph.
type NodeID int

// Node is one shader node. Fields other than the sockets are node parameters
// the host exposes on the node itself.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Label    string
	Location [2]float32

	Operation Operation // Math and VectorMath
	Clamp     bool      // Math: clamp the result to [0, 1]

	Image         *texture.Image // ImageTexture
	Interpolation texture.Interpolation
	Extension     texture.Extension

	inputs map[string]Value // unlinked input values
}

// Input returns the unlinked value of an input socket.
func (n *Node) Input(name string) (Value, bool) {
	v, ok := n.inputs[name]
	return v, ok
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n.Label != "" {
		return fmt.Sprintf("%s#%d(%s)", n.Kind, n.ID, n.Label)
	}
	return fmt.Sprintf("%s#%d", n.Kind, n.ID)
}

// Link connects an output socket to an input socket.
type Link struct {
	From     NodeID
	FromSock string
	To       NodeID
	ToSock   string
}

// Editor is the narrow mutation interface builders use to write a graph.
type Editor interface {
	Clear()
	AddNode(kind NodeKind, label string) (*Node, error)
	SetInput(n *Node, socket string, v Value) error
	Connect(from *Node, output string, to *Node, input string) error
	HasInput(n *Node, socket string) bool
}

// Graph is an in-memory node tree.
type Graph struct {
	profile Profile
	defs    map[NodeKind]nodeDef
	nodes   []*Node
	byID    map[NodeID]*Node
	links   []Link
	nextID  NodeID
}

var _ Editor = (*Graph)(nil)

// NewGraph creates an empty graph whose sockets follow the profile.
func NewGraph(p Profile) *Graph {
	return &Graph{
		profile: p,
		defs:    catalog(p),
		byID:    make(map[NodeID]*Node),
		nextID:  1,
	}
}

// Profile returns the host profile the graph was created for.
func (g *Graph) Profile() Profile {
	return g.profile
}

// Clear removes every node and link.
func (g *Graph) Clear() {
	g.nodes = nil
	g.links = nil
	g.byID = make(map[NodeID]*Node)
}

// AddNode creates a node with its inputs at their defaults.
func (g *Graph) AddNode(kind NodeKind, label string) (*Node, error) {
	def, ok := g.defs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, kind)
	}
	n := &Node{
		ID:            g.nextID,
		Kind:          kind,
		Label:         label,
		Interpolation: texture.InterpolationLinear,
		Extension:     texture.ExtensionRepeat,
		inputs:        make(map[string]Value, len(def.inputs)),
	}
	for _, s := range def.inputs {
		n.inputs[s.name] = s.def
	}
	g.nextID++
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return n, nil
}

// Node returns a node by ID.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Links returns all links.
func (g *Graph) Links() []Link {
	return g.links
}

// HasInput reports whether the node has an input socket with that name.
func (g *Graph) HasInput(n *Node, socket string) bool {
	if n == nil {
		return false
	}
	_, ok := g.defs[n.Kind].input(socket)
	return ok
}

// SetInput sets the value of an unlinked input.
func (g *Graph) SetInput(n *Node, socket string, v Value) error {
	if err := g.owns(n); err != nil {
		return err
	}
	if !g.HasInput(n, socket) {
		return fmt.Errorf("%w: %s has no input %q", ErrUnknownSocket, n, socket)
	}
	n.inputs[socket] = v
	return nil
}

// Connect links an output to an input, replacing any link already feeding
// that input. Shader outputs only connect to shader inputs.
func (g *Graph) Connect(from *Node, output string, to *Node, input string) error {
	if err := g.owns(from); err != nil {
		return err
	}
	if err := g.owns(to); err != nil {
		return err
	}
	out, ok := g.defs[from.Kind].output(output)
	if !ok {
		return fmt.Errorf("%w: %s has no output %q", ErrUnknownSocket, from, output)
	}
	in, ok := g.defs[to.Kind].input(input)
	if !ok {
		return fmt.Errorf("%w: %s has no input %q", ErrUnknownSocket, to, input)
	}
	if (out.typ == SocketShader) != (in.typ == SocketShader) {
		return fmt.Errorf("%w: %s.%s (%s) -> %s.%s (%s)", ErrSocketType, from, output, out.typ, to, input, in.typ)
	}

	links := g.links[:0]
	for _, l := range g.links {
		if l.To == to.ID && l.ToSock == input {
			continue
		}
		links = append(links, l)
	}
	g.links = append(links, Link{From: from.ID, FromSock: output, To: to.ID, ToSock: input})
	return nil
}

// LinkInto returns the link feeding an input, if any.
func (g *Graph) LinkInto(n *Node, input string) (Link, bool) {
	for _, l := range g.links {
		if l.To == n.ID && l.ToSock == input {
			return l, true
		}
	}
	return Link{}, false
}

// IsLinked reports whether an input is fed by a link.
func (g *Graph) IsLinked(n *Node, input string) bool {
	_, ok := g.LinkInto(n, input)
	return ok
}

// Find returns the nodes of a kind in creation order.
func (g *Graph) Find(kind NodeKind) []*Node {
	var found []*Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			found = append(found, n)
		}
	}
	return found
}

// First returns the first node of a kind.
func (g *Graph) First(kind NodeKind) (*Node, bool) {
	for _, n := range g.nodes {
		if n.Kind == kind {
			return n, true
		}
	}
	return nil, false
}

// Count returns the number of nodes of a kind performing op. OpNone matches
// any operation.
func (g *Graph) Count(kind NodeKind, op Operation) int {
	count := 0
	for _, n := range g.nodes {
		if n.Kind == kind && (op == OpNone || n.Operation == op) {
			count++
		}
	}
	return count
}

// Images returns the distinct images referenced by texture nodes, by name.
func (g *Graph) Images() []*texture.Image {
	seen := make(map[*texture.Image]bool)
	var images []*texture.Image
	for _, n := range g.nodes {
		if n.Image != nil && !seen[n.Image] {
			seen[n.Image] = true
			images = append(images, n.Image)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images
}

func (g *Graph) owns(n *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrUnknownNode)
	}
	if g.byID[n.ID] != n {
		return fmt.Errorf("%w: %s is not part of this graph", ErrUnknownNode, n)
	}
	return nil
}
