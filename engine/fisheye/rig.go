package fisheye

import (
	"fmt"

	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/go-gl/mathgl/mgl64"
)

// Default cube capture clip planes
const (
	DefaultNear = 0.01
	DefaultFar  = 1000.0
)

// CaptureRig renders the scene into all six faces of a cube texture from its pose
type CaptureRig struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Near, Far   float64

	target *render3d.CubeTexture
}

// NewCaptureRig allocates a rig with size x size faces
func NewCaptureRig(size int) *CaptureRig {
	return &CaptureRig{
		Orientation: mgl64.QuatIdent(),
		Near:        DefaultNear,
		Far:         DefaultFar,
		target:      newTarget(size),
	}
}

func newTarget(size int) *render3d.CubeTexture {
	t := render3d.NewCubeTexture(size)
	t.FlipY = true
	return t
}

// Texture is the cube texture capture writes into
func (r *CaptureRig) Texture() *render3d.CubeTexture { return r.target }

// Size is the face edge length in pixels
func (r *CaptureRig) Size() int { return r.target.Size }

// Resize discards the render target and allocates a new one when the size
// changes. An equal size keeps the current target.
func (r *CaptureRig) Resize(size int) {
	if r.target != nil && r.target.Size == size {
		return
	}
	r.target = newTarget(size)
}

// Capture renders scene into the cube texture from the rig's current pose
func (r *CaptureRig) Capture(renderer render3d.Renderer, scene *render3d.Scene) error {
	if err := renderer.CaptureCube(scene, r.Position, r.Orientation, r.Near, r.Far, r.target); err != nil {
		return fmt.Errorf("cube capture: %w", err)
	}
	return nil
}

// CaptureAt moves the rig to pos/orient and captures
func (r *CaptureRig) CaptureAt(renderer render3d.Renderer, scene *render3d.Scene, pos mgl64.Vec3, orient mgl64.Quat) error {
	r.Position = pos
	r.Orientation = orient
	return r.Capture(renderer, scene)
}
