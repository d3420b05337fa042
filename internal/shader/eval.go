package shader

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// Evaluation errors.
var (
	ErrNoSurface = errors.New("graph has no principled surface wired to an output")
	ErrCycle     = errors.New("shader graph contains a cycle")
)

// missingImage is what an image node without an image produces.
var missingImage = Value{1, 0, 1, 1}

type evalFunc func(ctx *evalCtx) Value

type evalCtx struct {
	uv    Value
	gen   uint32
	stamp []uint32
	cache []Value
}

// Program is a graph compiled into closures. Shared sub-expressions are
// computed once per evaluation. A Program is not safe for concurrent use.
type Program struct {
	root evalFunc
	ctx  evalCtx
}

// Eval runs the program for one texture coordinate.
func (p *Program) Eval(u, v float32) Value {
	p.ctx.uv = Value{u, v, 0, 0}
	p.ctx.gen++
	return p.root(&p.ctx)
}

// Compile builds a program computing the base colour that reaches the
// material output.
func (g *Graph) Compile() (*Program, error) {
	surface, err := g.surfaceNode()
	if err != nil {
		return nil, err
	}
	c := newCompiler(g)
	root, err := c.input(surface, SocketBaseColor)
	if err != nil {
		return nil, err
	}
	return c.program(root), nil
}

// CompileSocket builds a program computing one output socket of a node.
func (g *Graph) CompileSocket(n *Node, output string) (*Program, error) {
	if err := g.owns(n); err != nil {
		return nil, err
	}
	if _, ok := g.defs[n.Kind].output(output); !ok {
		return nil, fmt.Errorf("%w: %s has no output %q", ErrUnknownSocket, n, output)
	}
	c := newCompiler(g)
	root, err := c.output(n, output)
	if err != nil {
		return nil, err
	}
	return c.program(root), nil
}

// Evaluate compiles the graph and evaluates the base colour at (u, v).
func (g *Graph) Evaluate(u, v float32) (Value, error) {
	p, err := g.Compile()
	if err != nil {
		return Value{}, err
	}
	return p.Eval(u, v), nil
}

func (g *Graph) surfaceNode() (*Node, error) {
	out, ok := g.First(KindOutput)
	if !ok {
		return nil, ErrNoSurface
	}
	link, ok := g.LinkInto(out, SocketSurface)
	if !ok {
		return nil, ErrNoSurface
	}
	surface := g.byID[link.From]
	if surface == nil || surface.Kind != KindPrincipled {
		return nil, ErrNoSurface
	}
	return surface, nil
}

type socketKey struct {
	node NodeID
	name string
}

type compiler struct {
	g        *Graph
	into     map[socketKey]Link
	outputs  map[socketKey]evalFunc
	samples  map[NodeID]evalFunc
	visiting map[NodeID]bool
	slots    int
}

func newCompiler(g *Graph) *compiler {
	into := make(map[socketKey]Link, len(g.links))
	for _, l := range g.links {
		into[socketKey{l.To, l.ToSock}] = l
	}
	return &compiler{
		g:        g,
		into:     into,
		outputs:  make(map[socketKey]evalFunc),
		samples:  make(map[NodeID]evalFunc),
		visiting: make(map[NodeID]bool),
	}
}

func (c *compiler) program(root evalFunc) *Program {
	return &Program{
		root: root,
		ctx: evalCtx{
			stamp: make([]uint32, c.slots),
			cache: make([]Value, c.slots),
		},
	}
}

// memoize caches a function's result for the current evaluation.
func (c *compiler) memoize(f evalFunc) evalFunc {
	slot := c.slots
	c.slots++
	return func(ctx *evalCtx) Value {
		if ctx.stamp[slot] == ctx.gen {
			return ctx.cache[slot]
		}
		v := f(ctx)
		ctx.cache[slot] = v
		ctx.stamp[slot] = ctx.gen
		return v
	}
}

// input compiles the value arriving at an input socket, converting between
// socket types the way the host does.
func (c *compiler) input(n *Node, name string) (evalFunc, error) {
	def, ok := c.g.defs[n.Kind].input(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no input %q", ErrUnknownSocket, n, name)
	}
	link, linked := c.into[socketKey{n.ID, name}]
	if !linked {
		v := n.inputs[name]
		return func(*evalCtx) Value { return v }, nil
	}

	from := c.g.byID[link.From]
	if from == nil {
		return nil, fmt.Errorf("%w: link source %d", ErrUnknownNode, link.From)
	}
	outDef, _ := c.g.defs[from.Kind].output(link.FromSock)
	f, err := c.output(from, link.FromSock)
	if err != nil {
		return nil, err
	}
	if outDef.typ == def.typ {
		return f, nil
	}
	return func(ctx *evalCtx) Value {
		return convert(f(ctx), outDef.typ, def.typ)
	}, nil
}

func (c *compiler) output(n *Node, name string) (evalFunc, error) {
	key := socketKey{n.ID, name}
	if f, ok := c.outputs[key]; ok {
		return f, nil
	}
	if c.visiting[n.ID] {
		return nil, fmt.Errorf("%w: through %s", ErrCycle, n)
	}
	c.visiting[n.ID] = true
	defer delete(c.visiting, n.ID)

	f, err := c.node(n, name)
	if err != nil {
		return nil, err
	}
	f = c.memoize(f)
	c.outputs[key] = f
	return f, nil
}

// inputs compiles several inputs of a node at once.
func (c *compiler) inputs(n *Node, names ...string) ([]evalFunc, error) {
	fs := make([]evalFunc, len(names))
	for i, name := range names {
		f, err := c.input(n, name)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func (c *compiler) node(n *Node, output string) (evalFunc, error) {
	switch n.Kind {
	case KindTexCoord:
		return func(ctx *evalCtx) Value { return ctx.uv }, nil

	case KindSeparateXYZ:
		in, err := c.input(n, SocketVectorIn)
		if err != nil {
			return nil, err
		}
		idx, err := channelIndex(n, output, SocketX, SocketY, SocketZ)
		if err != nil {
			return nil, err
		}
		return func(ctx *evalCtx) Value { return Float(in(ctx)[idx]) }, nil

	case KindCombineXYZ:
		fs, err := c.inputs(n, SocketX, SocketY, SocketZ)
		if err != nil {
			return nil, err
		}
		return func(ctx *evalCtx) Value {
			return Value{fs[0](ctx)[0], fs[1](ctx)[0], fs[2](ctx)[0], 0}
		}, nil

	case KindSeparateColor, KindSeparateRGB:
		inName, outs := "Color", [3]string{"Red", "Green", "Blue"}
		if n.Kind == KindSeparateRGB {
			inName, outs = "Image", [3]string{"R", "G", "B"}
		}
		in, err := c.input(n, inName)
		if err != nil {
			return nil, err
		}
		idx, err := channelIndex(n, output, outs[:]...)
		if err != nil {
			return nil, err
		}
		return func(ctx *evalCtx) Value { return Float(in(ctx)[idx]) }, nil

	case KindImageTexture:
		sample, err := c.sample(n)
		if err != nil {
			return nil, err
		}
		if output == SocketAlpha {
			return func(ctx *evalCtx) Value { return Float(sample(ctx)[3]) }, nil
		}
		return func(ctx *evalCtx) Value {
			s := sample(ctx)
			return Value{s[0], s[1], s[2], 1}
		}, nil

	case KindMath:
		return c.math(n)

	case KindVectorMath:
		if output == VecOutVal {
			return func(*evalCtx) Value { return Float(0) }, nil
		}
		return c.vectorMath(n)
	}
	return nil, fmt.Errorf("%w: cannot evaluate %s output %q", ErrUnknownNode, n, output)
}

// sample compiles one texture lookup shared by an image node's outputs.
func (c *compiler) sample(n *Node) (evalFunc, error) {
	if f, ok := c.samples[n.ID]; ok {
		return f, nil
	}
	var vec evalFunc
	if _, linked := c.into[socketKey{n.ID, SocketVectorIn}]; linked {
		f, err := c.input(n, SocketVectorIn)
		if err != nil {
			return nil, err
		}
		vec = f
	} else {
		vec = func(ctx *evalCtx) Value { return ctx.uv }
	}

	img, interp, ext := n.Image, n.Interpolation, n.Extension
	f := c.memoize(func(ctx *evalCtx) Value {
		if img == nil {
			return missingImage
		}
		uv := vec(ctx)
		return Value(img.Sample(uv[0], uv[1], interp, ext))
	})
	c.samples[n.ID] = f
	return f, nil
}

func (c *compiler) math(n *Node) (evalFunc, error) {
	fs, err := c.inputs(n, MathA, MathB, MathC)
	if err != nil {
		return nil, err
	}
	a, b, cc := fs[0], fs[1], fs[2]

	var op func(ctx *evalCtx) float32
	switch n.Operation {
	case OpAdd:
		op = func(ctx *evalCtx) float32 { return a(ctx)[0] + b(ctx)[0] }
	case OpMultiply:
		op = func(ctx *evalCtx) float32 { return a(ctx)[0] * b(ctx)[0] }
	case OpDivide:
		op = func(ctx *evalCtx) float32 { return safeDivide(a(ctx)[0], b(ctx)[0]) }
	case OpMultiplyAdd:
		op = func(ctx *evalCtx) float32 { return a(ctx)[0]*b(ctx)[0] + cc(ctx)[0] }
	case OpFract:
		op = func(ctx *evalCtx) float32 { return Fract(a(ctx)[0]) }
	default:
		return nil, fmt.Errorf("%w: math operation %q on %s", ErrUnknownNode, n.Operation, n)
	}

	if n.Clamp {
		return func(ctx *evalCtx) Value { return Float(Clamp01(op(ctx))) }, nil
	}
	return func(ctx *evalCtx) Value { return Float(op(ctx)) }, nil
}

func (c *compiler) vectorMath(n *Node) (evalFunc, error) {
	fs, err := c.inputs(n, VecA, VecB, VecScale)
	if err != nil {
		return nil, err
	}
	a, b, s := fs[0], fs[1], fs[2]

	switch n.Operation {
	case OpScale:
		return func(ctx *evalCtx) Value {
			v, k := a(ctx), s(ctx)[0]
			return Value{v[0] * k, v[1] * k, v[2] * k, 0}
		}, nil
	case OpAdd:
		return func(ctx *evalCtx) Value {
			x, y := a(ctx), b(ctx)
			return Value{x[0] + y[0], x[1] + y[1], x[2] + y[2], 0}
		}, nil
	}
	return nil, fmt.Errorf("%w: vector operation %q on %s", ErrUnknownNode, n.Operation, n)
}

func channelIndex(n *Node, output string, names ...string) (int, error) {
	for i, name := range names {
		if name == output {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s has no output %q", ErrUnknownSocket, n, output)
}

// convert applies the host's implicit socket conversions.
func convert(v Value, from, to SocketType) Value {
	switch {
	case from == to:
		return v
	case from == SocketFloat:
		if to == SocketColor {
			return Value{v[0], v[0], v[0], 1}
		}
		return Value{v[0], v[0], v[0], 0}
	case to == SocketFloat && from == SocketColor:
		return Float(0.2126*v[0] + 0.7152*v[1] + 0.0722*v[2])
	case to == SocketFloat:
		return Float((v[0] + v[1] + v[2]) / 3)
	case to == SocketColor:
		return Value{v[0], v[1], v[2], 1}
	default:
		return Value{v[0], v[1], v[2], 0}
	}
}

// Fract returns x - floor(x).
func Fract(x float32) float32 {
	return x - math32.Floor(x)
}

// Clamp01 clamps to [0, 1].
func Clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// safeDivide returns 0 for a zero divisor, as the host's math node does.
func safeDivide(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}
