package viz

import (
	"math"
	"sort"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/scene"
)

// Edges further than this many viewports off-screen are dropped before
// rasterizing.
const offscreenLimit = 4

type Edge struct {
	From, To dynamo.Vec3
}

// Shape is a wireframe in its node's local frame.
type Shape []Edge

type projectedEdge struct {
	x0, y0, x1, y1 int
	depth          float64
}

// Renderer draws scene nodes as wireframes. Nodes without a shape are
// skipped.
type Renderer struct {
	Shapes map[string]Shape
}

func NewRenderer() *Renderer {
	return &Renderer{Shapes: map[string]Shape{
		scene.NodeAxes:     AxesShape(5),
		scene.NodePad:      PadShape(4),
		scene.NodeRocket:   RocketShape(0.6, 4),
		scene.NodeIgnition: ConeShape(0.4, 1, 6),
		scene.NodeSustain:  ConeShape(0.4, 1, 6),
	}}
}

// Collect returns the world-space edges of every visible node. A hidden
// node hides its subtree.
func (r *Renderer) Collect(g *scene.Graph) []Edge {
	var out []Edge
	g.Walk(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		for _, e := range r.Shapes[n.Name] {
			out = append(out, Edge{From: n.LocalToWorld(e.From), To: n.LocalToWorld(e.To)})
		}
		return true
	})
	return out
}

// Render draws g as seen by cam and returns the number of edges drawn.
// Edges with an endpoint outside the clip range are dropped.
func (r *Renderer) Render(c *Canvas, g *scene.Graph, cam camera.Camera) int {
	if c == nil || g == nil {
		return 0
	}
	w, h := c.PixelWidth(), c.PixelHeight()
	if w == 0 || h == 0 {
		return 0
	}
	edges := r.Collect(g)
	proj := make([]projectedEdge, 0, len(edges))
	for _, e := range edges {
		x0, y0, d0, ok0 := cam.Project(e.From, w, h)
		x1, y1, d1, ok1 := cam.Project(e.To, w, h)
		if !ok0 || !ok1 || offscreen(x0, y0, w, h) || offscreen(x1, y1, w, h) {
			continue
		}
		proj = append(proj, projectedEdge{
			x0: int(math.Round(x0)), y0: int(math.Round(y0)),
			x1: int(math.Round(x1)), y1: int(math.Round(y1)),
			depth: (d0 + d1) / 2,
		})
	}
	// Far to near.
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		c.DrawLine(e.x0, e.y0, e.x1, e.y1)
	}
	return len(proj)
}

func offscreen(x, y float64, w, h int) bool {
	fw, fh := float64(w), float64(h)
	return x < -offscreenLimit*fw || x > (offscreenLimit+1)*fw ||
		y < -offscreenLimit*fh || y > (offscreenLimit+1)*fh
}

func AxesShape(l float64) Shape {
	o := dynamo.Vec3{}
	return Shape{
		{o, dynamo.Vec3{X: l}},
		{o, dynamo.Vec3{Y: l}},
		{o, dynamo.Vec3{Z: l}},
	}
}

// PadShape is a square slab outline on the ground plane with a cross.
func PadShape(half float64) Shape {
	c := []dynamo.Vec3{{X: -half, Z: -half}, {X: half, Z: -half}, {X: half, Z: half}, {X: -half, Z: half}}
	s := Shape{{c[0], c[2]}, {c[1], c[3]}}
	for i := range c {
		s = append(s, Edge{c[i], c[(i+1)%len(c)]})
	}
	return s
}

// RocketShape is a square-section body of the given width from y=-1 up to
// height-1 with a nose point one width above.
func RocketShape(width, height float64) Shape {
	s := width / 2
	bottom, top := -1.0, height-1
	base := []dynamo.Vec3{{X: -s, Z: -s}, {X: s, Z: -s}, {X: s, Z: s}, {X: -s, Z: s}}
	nose := dynamo.Vec3{Y: top + width}
	var out Shape
	for i, p := range base {
		q := base[(i+1)%len(base)]
		lo, hi := p.Add(dynamo.Vec3{Y: bottom}), p.Add(dynamo.Vec3{Y: top})
		out = append(out,
			Edge{lo, q.Add(dynamo.Vec3{Y: bottom})},
			Edge{hi, q.Add(dynamo.Vec3{Y: top})},
			Edge{lo, hi},
			Edge{hi, nose},
		)
	}
	return out
}

// ConeShape is an exhaust cone with its base ring at the origin and its
// apex length below.
func ConeShape(radius, length float64, segments int) Shape {
	if segments < 3 {
		segments = 3
	}
	apex := dynamo.Vec3{Y: -length}
	ring := make([]dynamo.Vec3, segments)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(segments)
		ring[i] = dynamo.Vec3{X: radius * math.Cos(a), Z: radius * math.Sin(a)}
	}
	var out Shape
	for i, p := range ring {
		out = append(out, Edge{p, ring[(i+1)%segments]}, Edge{p, apex})
	}
	return out
}
