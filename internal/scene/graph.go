package scene

import "fmt"

// Graph owns the scene tree and indexes nodes by name.
type Graph struct {
	root  *Node
	nodes map[string]*Node
}

func NewGraph() *Graph {
	root := NewNode("scene")
	return &Graph{
		root:  root,
		nodes: map[string]*Node{root.Name: root},
	}
}

func (g *Graph) Root() *Node { return g.root }

// Add attaches n under parent, or under the root when parent is nil.
func (g *Graph) Add(n *Node, parent *Node) error {
	if _, dup := g.nodes[n.Name]; dup {
		return fmt.Errorf("scene: duplicate node %q", n.Name)
	}
	if parent == nil {
		parent = g.root
	}
	parent.Add(n)
	g.nodes[n.Name] = n
	return nil
}

// Attach reparents an existing node.
func (g *Graph) Attach(child, parent *Node) {
	parent.Add(child)
}

func (g *Graph) Get(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// SetVisible toggles a node by name and reports whether it exists.
func (g *Graph) SetVisible(name string, visible bool) bool {
	n, ok := g.nodes[name]
	if !ok {
		return false
	}
	n.Visible = visible
	return true
}

// Walk visits nodes depth-first from the root; returning false prunes the
// node's subtree.
func (g *Graph) Walk(fn func(n *Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(g.root)
}
