package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/physics"
)

func TestNodeWorldTransform(t *testing.T) {
	parent := NewNode("parent")
	parent.Position = dynamo.Vec3{X: 10}
	parent.Orientation = dynamo.QuatAxisAngle(dynamo.Vec3Y, math.Pi/2)

	child := NewNode("child")
	child.Position = dynamo.Vec3{X: 1}
	parent.Add(child)

	got := child.WorldPosition()
	if !got.ApproxEqual(dynamo.Vec3{X: 10, Z: -1}, 1e-9) {
		t.Errorf("child world position = %v", got)
	}

	q := child.WorldOrientation()
	if math.Abs(q.W-parent.Orientation.W) > 1e-12 || math.Abs(q.Y-parent.Orientation.Y) > 1e-12 {
		t.Errorf("child should inherit parent orientation, got %v", q)
	}
}

func TestNodeReparent(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.Add(c)
	b.Add(c)

	if len(a.Children()) != 0 || len(b.Children()) != 1 || c.Parent() != b {
		t.Error("reparenting should detach from the previous parent")
	}
}

func TestEffectiveVisible(t *testing.T) {
	parent, child := NewNode("p"), NewNode("c")
	parent.Add(child)

	if !child.EffectiveVisible() {
		t.Error("expected visible")
	}
	parent.Visible = false
	if child.EffectiveVisible() {
		t.Error("hidden parent should hide child")
	}
}

func TestGraph(t *testing.T) {
	g := NewGraph()
	n := NewNode("cone")
	if err := g.Add(n, nil); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := g.Add(NewNode("cone"), nil); err == nil {
		t.Error("duplicate name should be rejected")
	}

	if !g.SetVisible("cone", false) || n.Visible {
		t.Error("SetVisible failed")
	}
	if g.SetVisible("missing", true) {
		t.Error("SetVisible on a missing node should report false")
	}

	var names []string
	g.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return true
	})
	if len(names) != 2 || names[0] != "scene" || names[1] != "cone" {
		t.Errorf("unexpected walk order %v", names)
	}
}

func TestSyncCopiesPose(t *testing.T) {
	body := physics.NewBody("rocket", 1, dynamo.Vec3{X: 1, Y: 2, Z: 3})
	body.Orientation = dynamo.QuatAxisAngle(dynamo.Vec3Y, 0.3)
	n := NewNode("rocket")

	s := NewSynchronizer(DefaultJitterAmplitude, 1)
	s.Bind(body, n)
	if err := s.SetVibrationTarget(body, n); err != nil {
		t.Fatal(err)
	}

	s.Sync(false)
	if n.Position != body.Position {
		t.Errorf("non-vibrating sync must copy exactly: %v vs %v", n.Position, body.Position)
	}
	if n.Orientation != body.Orientation {
		t.Errorf("orientation not copied: %v", n.Orientation)
	}
}

func TestSyncJitterBounded(t *testing.T) {
	body := physics.NewBody("rocket", 1, dynamo.Vec3{Y: 100})
	target, follower := NewNode("rocket"), NewNode("marker")

	s := NewSynchronizer(DefaultJitterAmplitude, 42)
	s.Bind(body, target, follower)
	if err := s.SetVibrationTarget(body, target); err != nil {
		t.Fatal(err)
	}

	moved := false
	for i := 0; i < 1000; i++ {
		s.Sync(true)
		d := target.Position.Sub(body.Position)
		if math.Abs(d.X) > 0.25 || math.Abs(d.Y) > 0.25 || math.Abs(d.Z) > 0.25 {
			t.Fatalf("jitter out of bounds: %v", d)
		}
		if d != (dynamo.Vec3{}) {
			moved = true
		}
		if follower.Position != body.Position {
			t.Fatalf("only the vibration target should shake, follower at %v", follower.Position)
		}
	}
	if !moved {
		t.Error("vibrating sync never perturbed the target")
	}
	if body.Position != (dynamo.Vec3{Y: 100}) {
		t.Errorf("jitter leaked into the body: %v", body.Position)
	}

	s.Sync(false)
	if target.Position != body.Position {
		t.Error("jitter residue after vibration stopped")
	}
}

func TestSetVibrationTargetRequiresBinding(t *testing.T) {
	s := NewSynchronizer(DefaultJitterAmplitude, 1)
	body := physics.NewBody("rocket", 1, dynamo.Vec3{})
	if err := s.SetVibrationTarget(body, NewNode("x")); err == nil {
		t.Error("expected error for unbound node")
	}
}

func TestUnbind(t *testing.T) {
	s := NewSynchronizer(DefaultJitterAmplitude, 1)
	body := physics.NewBody("rocket", 1, dynamo.Vec3{Y: 5})
	n := NewNode("rocket")
	s.Bind(body, n, n)

	if len(s.Bound(body)) != 1 {
		t.Errorf("duplicate bind should be ignored, got %d nodes", len(s.Bound(body)))
	}

	s.Unbind(body)
	s.Sync(false)
	if n.Position != (dynamo.Vec3{}) {
		t.Error("unbound node should not be synced")
	}
}

func TestNewLaunchScene(t *testing.T) {
	s, err := NewLaunchScene(LaunchOptions{
		RocketStart: dynamo.Vec3{Y: 2},
		ChaseOffset: dynamo.Vec3{Z: 12, Y: 4},
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !s.HasRocket() || s.LoadErr != nil {
		t.Fatal("default loader should provide a rocket")
	}
	if s.Ignition.Visible || s.Sustain.Visible {
		t.Error("effect cones start hidden")
	}
	if s.Chase.Parent() != s.Rocket {
		t.Error("chase camera must ride on the rocket")
	}

	s.Rocket.Position = dynamo.Vec3{Y: 50}
	if got := s.Chase.WorldPosition(); !got.ApproxEqual(dynamo.Vec3{Y: 54, Z: 12}, 1e-9) {
		t.Errorf("chase camera world position = %v", got)
	}
}

func TestNewLaunchSceneLoadFailure(t *testing.T) {
	boom := errors.New("file not found")
	s, err := NewLaunchScene(LaunchOptions{
		Loader: func() (*Node, error) { return nil, boom },
	})
	if err != nil {
		t.Fatalf("load failure must not fail the scene: %v", err)
	}
	if s.HasRocket() || s.Chase != nil {
		t.Error("rocket-dependent nodes should be absent")
	}
	if !errors.Is(s.LoadErr, boom) {
		t.Errorf("LoadErr = %v", s.LoadErr)
	}
	if _, ok := s.Graph.Get(NodePad); !ok {
		t.Error("static scenery should still be present")
	}
}
