package dynamo

import "math"

type Vec3 struct {
	X, Y, Z float64
}

var (
	Vec3Zero = Vec3{}
	Vec3Y    = Vec3{0, 1, 0}
)

// Vec3 methods.
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

// IsFinite reports whether every component is neither NaN nor Inf.
func (v Vec3) IsFinite() bool {
	return State{v.X, v.Y, v.Z}.IsValid()
}

// ApproxEqual compares componentwise within tol.
func (v Vec3) ApproxEqual(o Vec3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// ScaleAbout scales v away from (f > 1) or toward (f < 1) the anchor p.
func (v Vec3) ScaleAbout(p Vec3, f float64) Vec3 {
	return v.Sub(p).Scale(f).Add(p)
}

// Quat is a rotation quaternion, W being the scalar part.
type Quat struct {
	W, X, Y, Z float64
}

func QuatIdentity() Quat { return Quat{W: 1} }

// QuatAxisAngle builds a rotation of angle radians around axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return Quat{W: c, X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

func (q Quat) Conjugate() Quat { return Quat{q.W, -q.X, -q.Y, -q.Z} }

func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return QuatIdentity()
	}
	return Quat{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Rotate applies q to v (q * v * q^-1 for unit q).
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Integrate advances q by angular velocity w (rad/s) over dt.
func (q Quat) Integrate(w Vec3, dt float64) Quat {
	if w == (Vec3{}) {
		return q
	}
	dq := Quat{0, w.X, w.Y, w.Z}.Mul(q)
	h := dt / 2
	return Quat{
		q.W + dq.W*h,
		q.X + dq.X*h,
		q.Y + dq.Y*h,
		q.Z + dq.Z*h,
	}.Normalize()
}
