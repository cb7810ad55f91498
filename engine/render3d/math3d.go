package render3d

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis unit vectors
var (
	AxisX = mgl64.Vec3{1, 0, 0}
	AxisY = mgl64.Vec3{0, 1, 0}
	AxisZ = mgl64.Vec3{0, 0, 1}
)

// Euler is a rotation given as angles (radians) about X, Y and Z, applied in XYZ order
type Euler struct {
	X, Y, Z float64
}

// EulerDeg builds an Euler from degrees
func EulerDeg(x, y, z float64) Euler {
	return Euler{mgl64.DegToRad(x), mgl64.DegToRad(y), mgl64.DegToRad(z)}
}

// Quat returns the rotation as a quaternion (Rx * Ry * Rz)
func (e Euler) Quat() mgl64.Quat {
	qx := mgl64.QuatRotate(e.X, AxisX)
	qy := mgl64.QuatRotate(e.Y, AxisY)
	qz := mgl64.QuatRotate(e.Z, AxisZ)
	return qx.Mul(qy).Mul(qz)
}

// IsZero reports whether all three angles are zero
func (e Euler) IsZero() bool {
	return e.X == 0 && e.Y == 0 && e.Z == 0
}

// Compose builds a translation * rotation * scale matrix
func Compose(t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// Decompose splits an affine matrix into translation, rotation and scale.
// The translation is copied straight from the last column.
func Decompose(m mgl64.Mat4) (t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) {
	t = mgl64.Vec3{m[12], m[13], m[14]}

	c0 := mgl64.Vec3{m[0], m[1], m[2]}
	c1 := mgl64.Vec3{m[4], m[5], m[6]}
	c2 := mgl64.Vec3{m[8], m[9], m[10]}
	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	s = mgl64.Vec3{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		return t, mgl64.QuatIdent(), s
	}
	c0, c1, c2 = c0.Mul(1/sx), c1.Mul(1/sy), c2.Mul(1/sz)
	rot := mgl64.Mat4{
		c0[0], c0[1], c0[2], 0,
		c1[0], c1[1], c1[2], 0,
		c2[0], c2[1], c2[2], 0,
		0, 0, 0, 1,
	}
	r = mgl64.Mat4ToQuat(rot).Normalize()
	return t, r, s
}

// Reflect mirrors incident direction d about normal n
func Reflect(d, n mgl64.Vec3) mgl64.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}

// Color3 is a linear RGB color in [0,1]
type Color3 struct {
	R, G, B float64
}

var White = Color3{1, 1, 1}

func (c Color3) Scale(s float64) Color3 {
	return Color3{c.R * s, c.G * s, c.B * s}
}

func (c Color3) Add(o Color3) Color3 {
	return Color3{
		math.Min(c.R+o.R, 1),
		math.Min(c.G+o.G, 1),
		math.Min(c.B+o.B, 1),
	}
}

func (c Color3) Mul(o Color3) Color3 {
	return Color3{c.R * o.R, c.G * o.G, c.B * o.B}
}

func (c Color3) Lerp(o Color3, t float64) Color3 {
	return Color3{c.R + (o.R-c.R)*t, c.G + (o.G-c.G)*t, c.B + (o.B-c.B)*t}
}

// NRGBA converts to an opaque 8-bit color
func (c Color3) NRGBA() color.NRGBA {
	return color.NRGBA{clamp8(c.R), clamp8(c.G), clamp8(c.B), 255}
}

// ColorFromNRGBA converts an 8-bit color back to linear floats
func ColorFromNRGBA(c color.NRGBA) Color3 {
	return Color3{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
