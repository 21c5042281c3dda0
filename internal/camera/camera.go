package camera

import (
	"math"

	"github.com/san-kum/launchsim/internal/dynamo"
)

// Camera is a perspective camera looking from Position at its focus point.
type Camera struct {
	Position dynamo.Vec3
	Up       dynamo.Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64

	focus dynamo.Vec3
}

func NewPerspective(fov, aspect, near, far float64) *Camera {
	return &Camera{
		Up:     dynamo.Vec3Y,
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

func (c *Camera) LookAt(p dynamo.Vec3) { c.focus = p }
func (c *Camera) Focus() dynamo.Vec3   { return c.focus }

// Basis returns the camera's forward, right and up unit vectors. A camera
// sitting on its focus point has a zero basis.
func (c *Camera) Basis() (forward, right, up dynamo.Vec3) {
	forward = c.focus.Sub(c.Position).Normalize()
	if forward == (dynamo.Vec3{}) {
		return
	}
	right = forward.Cross(c.Up).Normalize()
	if right == (dynamo.Vec3{}) {
		right = dynamo.Vec3{X: 1}
	}
	up = right.Cross(forward)
	return
}

func (c *Camera) tanHalf() float64 {
	return math.Tan(c.FOV * math.Pi / 360)
}

// NDC converts pixel coordinates in a w x h viewport to normalized device
// coordinates, y up.
func NDC(px, py float64, w, h int) (float64, float64) {
	return px/float64(w)*2 - 1, -(py/float64(h)*2 - 1)
}

// Ray unprojects an NDC point into a world-space direction from Position.
// The direction is not normalized.
func (c *Camera) Ray(ndcX, ndcY float64) dynamo.Vec3 {
	f, r, u := c.Basis()
	if f == (dynamo.Vec3{}) {
		return dynamo.Vec3{}
	}
	t := c.tanHalf()
	return f.Add(r.Scale(ndcX * t * c.Aspect)).Add(u.Scale(ndcY * t))
}

// Project maps a world point into a w x h viewport. ok is false for points
// outside the near/far range.
func (c *Camera) Project(p dynamo.Vec3, w, h int) (sx, sy, depth float64, ok bool) {
	f, r, u := c.Basis()
	d := p.Sub(c.Position)
	depth = d.Dot(f)
	if depth <= c.Near || (c.Far > 0 && depth > c.Far) {
		return 0, 0, depth, false
	}
	t := c.tanHalf()
	x := d.Dot(r) / (depth * t * c.Aspect)
	y := d.Dot(u) / (depth * t)
	sx = (x + 1) / 2 * float64(w)
	sy = (1 - y) / 2 * float64(h)
	return sx, sy, depth, true
}
