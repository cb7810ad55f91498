package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

// Gesture is one frame of user input for the orbit controls
type Gesture struct {
	// Drag in pixels since the previous frame
	DX, DY float64
	// Scroll wheel steps, positive zooms in
	Scroll float64
	// Reset returns to the initial view
	Reset bool
}

// Source supplies a gesture per frame
type Source interface {
	Poll() Gesture
}

const (
	minPolar = 0.01
	maxPolar = math.Pi - 0.01
)

// Orbit keeps a pose on a sphere around Target, always looking at it. It can
// spin on its own (AutoRotate) and follows gestures from Input when set.
type Orbit struct {
	Target mgl64.Vec3

	Distance    float64
	MinDistance float64
	MaxDistance float64

	// Azimuth around +Y and polar angle from +Y, radians
	Azimuth float64
	Polar   float64

	// AutoRotate spins the azimuth, radians per second
	AutoRotate float64

	// RotateSpeed is radians per dragged pixel
	RotateSpeed float64
	// ZoomSpeed scales distance per scroll step
	ZoomSpeed float64

	Input Source

	pose *render3d.Pose
	home [3]float64
}

// NewOrbit attaches controls to pose and takes the starting angles from its
// current position relative to target
func NewOrbit(pose *render3d.Pose, target mgl64.Vec3) *Orbit {
	o := &Orbit{
		Target:      target,
		MinDistance: 0.01,
		MaxDistance: 1e4,
		RotateSpeed: 2 * math.Pi / 800,
		ZoomSpeed:   0.95,
		pose:        pose,
	}
	offset := pose.Position.Sub(target)
	o.Distance = offset.Len()
	if o.Distance < o.MinDistance {
		o.Distance = 1
		offset = mgl64.Vec3{0, 0, 1}
	}
	o.Azimuth = math.Atan2(offset[0], offset[2])
	o.Polar = math.Acos(mgl64.Clamp(offset[1]/offset.Len(), -1, 1))
	o.home = [3]float64{o.Distance, o.Azimuth, o.Polar}
	o.apply()
	return o
}

// Rotate turns the view by the given angle deltas
func (o *Orbit) Rotate(dAzimuth, dPolar float64) {
	o.Azimuth += dAzimuth
	o.Polar = mgl64.Clamp(o.Polar+dPolar, minPolar, maxPolar)
}

// Zoom multiplies the distance by factor within the configured range
func (o *Orbit) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	o.Distance = mgl64.Clamp(o.Distance*factor, o.MinDistance, o.MaxDistance)
}

// Reset returns to the starting view
func (o *Orbit) Reset() {
	o.Distance, o.Azimuth, o.Polar = o.home[0], o.home[1], o.home[2]
	o.apply()
}

// Update applies input and auto rotation for dt seconds, then moves the pose
func (o *Orbit) Update(dt float64) {
	if o.Input != nil {
		g := o.Input.Poll()
		if g.Reset {
			o.Reset()
		}
		o.Rotate(-g.DX*o.RotateSpeed, -g.DY*o.RotateSpeed)
		if g.Scroll != 0 {
			o.Zoom(math.Pow(o.ZoomSpeed, g.Scroll))
		}
	}
	o.Azimuth = math.Mod(o.Azimuth+o.AutoRotate*dt, 2*math.Pi)
	o.apply()
}

func (o *Orbit) apply() {
	sinP := math.Sin(o.Polar)
	offset := mgl64.Vec3{
		o.Distance * sinP * math.Sin(o.Azimuth),
		o.Distance * math.Cos(o.Polar),
		o.Distance * sinP * math.Cos(o.Azimuth),
	}
	o.pose.Position = o.Target.Add(offset)
	o.pose.LookAt(o.Target, render3d.AxisY)
}
