package camera

import (
	"fmt"
	"math"

	"github.com/san-kum/launchsim/internal/dynamo"
)

const (
	DefaultZoomSpeed = 0.001
	MinZoomFactor    = 0.1
	MaxZoomFactor    = 10

	rayEpsilon = 1e-12
)

// Anchor describes one zoom event.
type Anchor struct {
	NDCX, NDCY float64
	Dir        dynamo.Vec3
	Point      dynamo.Vec3
	Factor     float64
}

// Zoom scales the orbit camera and its target about the world point under
// the cursor, so that point stays put on screen.
type Zoom struct {
	Speed float64
	orbit *Orbit
}

func NewZoom(orbit *Orbit, speed float64) *Zoom {
	if speed <= 0 {
		speed = DefaultZoomSpeed
	}
	return &Zoom{Speed: speed, orbit: orbit}
}

// OnWheel handles a wheel event at pixel (px, py) of a w x h viewport.
// Positive deltaY moves the camera toward the anchor. A degenerate event
// leaves the camera untouched and returns an error wrapping
// dynamo.ErrDegenerateRay.
func (z *Zoom) OnWheel(px, py, deltaY float64, w, h int) (Anchor, error) {
	if w <= 0 || h <= 0 {
		return Anchor{}, fmt.Errorf("%w: viewport %dx%d", dynamo.ErrDegenerateRay, w, h)
	}
	a := Anchor{Factor: 1 - deltaY*z.Speed}
	a.Factor = math.Max(MinZoomFactor, math.Min(MaxZoomFactor, a.Factor))
	a.NDCX, a.NDCY = NDC(px, py, w, h)

	var err error
	a.Dir, a.Point, err = z.anchor(a.NDCX, a.NDCY)
	if err != nil {
		return a, err
	}
	return a, z.Apply(a.Point, a.Factor)
}

// anchor intersects the cursor ray with the plane through the orbit target
// facing the ray.
func (z *Zoom) anchor(ndcX, ndcY float64) (dir, p dynamo.Vec3, err error) {
	cam := z.orbit.Camera
	dir = cam.Ray(ndcX, ndcY)
	dd := dir.Dot(dir)
	if dd < rayEpsilon || math.IsNaN(dd) {
		return dir, p, dynamo.ErrDegenerateRay
	}
	distance := -cam.Position.Sub(z.orbit.Target).Dot(dir) / dd
	p = cam.Position.Add(dir.Scale(distance))
	if !p.IsFinite() {
		return dir, p, fmt.Errorf("%w: anchor not finite", dynamo.ErrDegenerateRay)
	}
	return dir, p, nil
}

// Apply scales the camera position and orbit target about p by factor.
// Both are replaced together or not at all.
func (z *Zoom) Apply(p dynamo.Vec3, factor float64) error {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return fmt.Errorf("%w: zoom factor %v", dynamo.ErrDegenerateRay, factor)
	}
	cam := z.orbit.Camera
	pos := cam.Position.ScaleAbout(p, factor)
	target := z.orbit.Target.ScaleAbout(p, factor)
	if !pos.IsFinite() || !target.IsFinite() {
		return fmt.Errorf("%w: zoom result not finite", dynamo.ErrDegenerateRay)
	}
	cam.Position = pos
	z.orbit.Target = target
	z.orbit.Update()
	return nil
}
