package render3d

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is anything the renderer can look through
type Camera interface {
	WorldTransform() mgl64.Mat4
	Projection() mgl64.Mat4
}

// Pose is a position plus orientation in world space
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// NewPose returns a pose at p with identity orientation
func NewPose(p mgl64.Vec3) Pose {
	return Pose{Position: p, Orientation: mgl64.QuatIdent()}
}

// WorldTransform returns translation * rotation
func (p *Pose) WorldTransform() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]).Mul4(p.Orientation.Mat4())
}

// Translate moves the pose by a world-space offset
func (p *Pose) Translate(offset mgl64.Vec3) {
	p.Position = p.Position.Add(offset)
}

// Right returns the local +X axis in world space
func (p *Pose) Right() mgl64.Vec3 {
	return p.Orientation.Rotate(AxisX)
}

// Forward returns the local -Z axis in world space
func (p *Pose) Forward() mgl64.Vec3 {
	return p.Orientation.Rotate(AxisZ.Mul(-1))
}

// LookAt orients the pose so -Z points at target with +Y as close to up as possible
func (p *Pose) LookAt(target, up mgl64.Vec3) {
	f := target.Sub(p.Position)
	if f.Len() < 1e-12 {
		return
	}
	p.Orientation = basisQuat(f.Normalize(), up)
}

// basisQuat returns the rotation taking -Z to forward and +Y towards up
func basisQuat(forward, up mgl64.Vec3) mgl64.Quat {
	right := forward.Cross(up)
	if right.Len() < 1e-12 {
		right = forward.Cross(AxisZ)
		if right.Len() < 1e-12 {
			right = AxisX
		}
	}
	right = right.Normalize()
	u := right.Cross(forward).Normalize()
	back := forward.Mul(-1)
	m := mgl64.Mat4{
		right[0], right[1], right[2], 0,
		u[0], u[1], u[2], 0,
		back[0], back[1], back[2], 0,
		0, 0, 0, 1,
	}
	return mgl64.Mat4ToQuat(m).Normalize()
}

// PerspectiveCamera is a pinhole camera with a vertical field of view
type PerspectiveCamera struct {
	Pose
	FovY   float64 // degrees
	Aspect float64
	Near   float64
	Far    float64
}

func NewPerspectiveCamera(fovY, aspect, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Pose:   NewPose(mgl64.Vec3{}),
		FovY:   fovY,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
}

func (c *PerspectiveCamera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// OrthoCamera projects along -Z without perspective
type OrthoCamera struct {
	Pose
	Left, Right, Top, Bottom float64
	Near, Far                float64
}

func NewOrthoCamera(left, right, top, bottom, near, far float64) *OrthoCamera {
	return &OrthoCamera{
		Pose:   NewPose(mgl64.Vec3{}),
		Left:   left,
		Right:  right,
		Top:    top,
		Bottom: bottom,
		Near:   near,
		Far:    far,
	}
}

func (c *OrthoCamera) Projection() mgl64.Mat4 {
	return mgl64.Ortho(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
}

// fixedCamera is a camera with precomputed matrices, used for cube faces
type fixedCamera struct {
	world mgl64.Mat4
	proj  mgl64.Mat4
}

func (c fixedCamera) WorldTransform() mgl64.Mat4 { return c.world }
func (c fixedCamera) Projection() mgl64.Mat4     { return c.proj }
