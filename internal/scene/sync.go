package scene

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/physics"
)

const DefaultJitterAmplitude = 0.5

type binding struct {
	nodes  []*Node
	target *Node
}

// Synchronizer copies body poses into the nodes bound to them. Bound nodes
// are expected to sit directly under the root so their local transform is
// their world transform.
type Synchronizer struct {
	bindings  map[*physics.Body]*binding
	order     []*physics.Body
	amplitude float64
	rng       *rand.Rand
}

func NewSynchronizer(amplitude float64, seed int64) *Synchronizer {
	return &Synchronizer{
		bindings:  make(map[*physics.Body]*binding),
		amplitude: amplitude,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (s *Synchronizer) Bind(b *physics.Body, nodes ...*Node) {
	bd, ok := s.bindings[b]
	if !ok {
		bd = &binding{}
		s.bindings[b] = bd
		s.order = append(s.order, b)
	}
	for _, n := range nodes {
		if !containsNode(bd.nodes, n) {
			bd.nodes = append(bd.nodes, n)
		}
	}
}

// SetVibrationTarget marks n as the node that shakes while vibrating. n must
// already be bound to b.
func (s *Synchronizer) SetVibrationTarget(b *physics.Body, n *Node) error {
	bd, ok := s.bindings[b]
	if !ok || !containsNode(bd.nodes, n) {
		return fmt.Errorf("scene: node %q is not bound to body %q", n.Name, b.Name)
	}
	bd.target = n
	return nil
}

func (s *Synchronizer) Unbind(b *physics.Body) {
	if _, ok := s.bindings[b]; !ok {
		return
	}
	delete(s.bindings, b)
	for i, other := range s.order {
		if other == b {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Synchronizer) Bound(b *physics.Body) []*Node {
	if bd, ok := s.bindings[b]; ok {
		return bd.nodes
	}
	return nil
}

// Sync writes every body's pose into its nodes. While vibrating, the
// vibration target gets a fresh jitter offset; the body itself is never
// touched.
func (s *Synchronizer) Sync(vibrating bool) {
	for _, b := range s.order {
		bd := s.bindings[b]
		for _, n := range bd.nodes {
			n.Orientation = b.Orientation
			if vibrating && n == bd.target {
				n.Position = b.Position.Add(s.Jitter())
				continue
			}
			n.Position = b.Position
		}
	}
}

// Jitter samples each component uniformly from [-amplitude/2, amplitude/2).
func (s *Synchronizer) Jitter() dynamo.Vec3 {
	return dynamo.Vec3{
		X: (s.rng.Float64() - 0.5) * s.amplitude,
		Y: (s.rng.Float64() - 0.5) * s.amplitude,
		Z: (s.rng.Float64() - 0.5) * s.amplitude,
	}
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, c := range nodes {
		if c == n {
			return true
		}
	}
	return false
}
