package terrain

import "github.com/Faultbox/haven-area/internal/shader"

// socket addresses one output of a node.
type socket struct {
	node *shader.Node
	name string
}

// writer wraps an Editor and keeps the first error. After a failure every
// call is a no-op and new nodes are detached placeholders.
type writer struct {
	ed  shader.Editor
	err error
}

func (w *writer) add(kind shader.NodeKind, label string, x, y float32) *shader.Node {
	if w.err != nil {
		return &shader.Node{Kind: kind}
	}
	n, err := w.ed.AddNode(kind, label)
	if err != nil {
		w.err = err
		return &shader.Node{Kind: kind}
	}
	n.Location = [2]float32{x, y}
	return n
}

func (w *writer) math(op shader.Operation, label string, x, y float32) *shader.Node {
	n := w.add(shader.KindMath, label, x, y)
	n.Operation = op
	return n
}

func (w *writer) vectorMath(op shader.Operation, label string, x, y float32) *shader.Node {
	n := w.add(shader.KindVectorMath, label, x, y)
	n.Operation = op
	return n
}

func (w *writer) set(n *shader.Node, input string, v float32) {
	if w.err != nil {
		return
	}
	w.err = w.ed.SetInput(n, input, shader.Float(v))
}

func (w *writer) link(from socket, to *shader.Node, input string) {
	if w.err != nil {
		return
	}
	w.err = w.ed.Connect(from.node, from.name, to, input)
}
