package scene

import (
	"fmt"

	"github.com/san-kum/launchsim/internal/dynamo"
)

const (
	NodeAxes     = "axes"
	NodePad      = "pad"
	NodeRocket   = "rocket"
	NodeIgnition = "ignition"
	NodeSustain  = "sustain"
	NodeChase    = "chase-camera"
)

// ModelLoader produces the rocket model. Loading happens before the launch
// controller starts; a failed load leaves the scene without a rocket.
type ModelLoader func() (*Node, error)

// DefaultRocket is the built-in model: a bare node with exhaust cones
// attached by the scene builder.
func DefaultRocket() (*Node, error) {
	return NewNode(NodeRocket), nil
}

type LaunchOptions struct {
	RocketStart dynamo.Vec3
	ChaseOffset dynamo.Vec3
	Loader      ModelLoader
}

// LaunchScene is the assembled launch set. Rocket, Ignition, Sustain and
// Chase are nil when the model failed to load.
type LaunchScene struct {
	Graph    *Graph
	Axes     *Node
	Pad      *Node
	Rocket   *Node
	Ignition *Node
	Sustain  *Node
	Chase    *Node
	LoadErr  error
}

func (s *LaunchScene) HasRocket() bool { return s.Rocket != nil }

func NewLaunchScene(opts LaunchOptions) (*LaunchScene, error) {
	g := NewGraph()
	s := &LaunchScene{
		Graph: g,
		Axes:  NewNode(NodeAxes),
		Pad:   NewNode(NodePad),
	}
	if err := g.Add(s.Axes, nil); err != nil {
		return nil, err
	}
	if err := g.Add(s.Pad, nil); err != nil {
		return nil, err
	}

	loader := opts.Loader
	if loader == nil {
		loader = DefaultRocket
	}
	rocket, err := loader()
	if err != nil {
		s.LoadErr = fmt.Errorf("load rocket model: %w", err)
		return s, nil
	}
	if rocket == nil {
		s.LoadErr = fmt.Errorf("load rocket model: loader returned no node")
		return s, nil
	}
	rocket.Name = NodeRocket
	rocket.Position = opts.RocketStart
	if err := g.Add(rocket, nil); err != nil {
		return nil, err
	}
	s.Rocket = rocket

	// Cones hang below the rocket and ride along with it.
	s.Ignition = NewNode(NodeIgnition)
	s.Ignition.Position = dynamo.Vec3{Y: -1.5}
	s.Ignition.Visible = false
	s.Sustain = NewNode(NodeSustain)
	s.Sustain.Position = dynamo.Vec3{Y: -2.5}
	s.Sustain.Scale = 2
	s.Sustain.Visible = false
	s.Chase = NewNode(NodeChase)
	s.Chase.Position = opts.ChaseOffset

	for _, n := range []*Node{s.Ignition, s.Sustain, s.Chase} {
		if err := g.Add(n, rocket); err != nil {
			return nil, err
		}
	}
	return s, nil
}
