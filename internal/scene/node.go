package scene

import "github.com/san-kum/launchsim/internal/dynamo"

// Node is a renderable scene element. Position and Orientation are local to
// the parent; a node without a parent is in world space.
type Node struct {
	Name        string
	Position    dynamo.Vec3
	Orientation dynamo.Quat
	Visible     bool
	Scale       float64

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:        name,
		Orientation: dynamo.QuatIdentity(),
		Visible:     true,
		Scale:       1,
	}
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

func (n *Node) remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// WorldPosition composes the node's position through its ancestors.
func (n *Node) WorldPosition() dynamo.Vec3 {
	return n.LocalToWorld(dynamo.Vec3{})
}

func (n *Node) WorldOrientation() dynamo.Quat {
	q := n.Orientation
	for p := n.parent; p != nil; p = p.parent {
		q = p.Orientation.Mul(q)
	}
	return q
}

// LocalToWorld maps a point in n's frame to world space.
func (n *Node) LocalToWorld(p dynamo.Vec3) dynamo.Vec3 {
	for cur := n; cur != nil; cur = cur.parent {
		p = cur.Orientation.Rotate(p.Scale(cur.Scale)).Add(cur.Position)
	}
	return p
}

// EffectiveVisible is false if the node or any ancestor is hidden.
func (n *Node) EffectiveVisible() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.Visible {
			return false
		}
	}
	return true
}
