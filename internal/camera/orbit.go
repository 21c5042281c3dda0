package camera

import (
	"math"

	"github.com/san-kum/launchsim/internal/dynamo"
)

const polarEps = 1e-6

// Orbit keeps a camera pointed at Target and rotates it around the target
// on request. Any manual change to the camera or Target must be followed by
// Update.
type Orbit struct {
	Camera      *Camera
	Target      dynamo.Vec3
	MinDistance float64
	MaxDistance float64

	theta, phi float64
	updates    int
}

func NewOrbit(cam *Camera, target dynamo.Vec3) *Orbit {
	o := &Orbit{Camera: cam, Target: target}
	o.Update()
	return o
}

// Attach hands control to another camera.
func (o *Orbit) Attach(cam *Camera) {
	o.Camera = cam
	o.theta, o.phi = 0, 0
}

// Rotate queues an azimuth/polar rotation applied by the next Update.
func (o *Orbit) Rotate(dTheta, dPhi float64) {
	o.theta += dTheta
	o.phi += dPhi
}

func (o *Orbit) Updates() int { return o.updates }

// Distance is the camera-target separation.
func (o *Orbit) Distance() float64 {
	return o.Camera.Position.Sub(o.Target).Length()
}

// Update applies queued rotation and distance limits, then points the
// camera at Target.
func (o *Orbit) Update() {
	o.updates++
	cam := o.Camera
	if cam == nil {
		return
	}

	offset := cam.Position.Sub(o.Target)
	r := offset.Length()

	if (o.theta != 0 || o.phi != 0) && r > 0 {
		theta := math.Atan2(offset.X, offset.Z) + o.theta
		phi := math.Acos(math.Max(-1, math.Min(1, offset.Y/r))) + o.phi
		phi = math.Max(polarEps, math.Min(math.Pi-polarEps, phi))
		offset = dynamo.Vec3{
			X: r * math.Sin(phi) * math.Sin(theta),
			Y: r * math.Cos(phi),
			Z: r * math.Sin(phi) * math.Cos(theta),
		}
		o.theta, o.phi = 0, 0
	}

	switch {
	case o.MinDistance > 0 && r > 0 && r < o.MinDistance:
		offset = offset.Scale(o.MinDistance / r)
	case o.MaxDistance > 0 && r > o.MaxDistance:
		offset = offset.Scale(o.MaxDistance / r)
	}

	cam.Position = o.Target.Add(offset)
	cam.LookAt(o.Target)
}
