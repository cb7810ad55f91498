package fisheye

import (
	"fmt"
	"math"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

const (
	// DefaultDetail is the icosphere subdivision used when none is given
	DefaultDetail = 32

	// FullSpan captures the whole sphere
	FullSpan = 2 * math.Pi
)

// yawFlip turns the capture rig around: the cube faces are laid out with +Z
// forward while the viewing camera looks down -Z.
var yawFlip = mgl64.QuatRotate(math.Pi, render3d.AxisY)

// ProjectionCamera produces a fisheye image. It captures the scene into a cube
// map from its own pose, then renders a sphere reflecting that cube map
// through an orthographic lens.
type ProjectionCamera struct {
	render3d.Pose

	resolution int
	detail     int
	tilt       render3d.Euler
	span       float64

	lens   *render3d.OrthoCamera
	outer  *render3d.Scene
	sphere *render3d.Object
	rig    *CaptureRig

	log zerolog.Logger
}

// Option configures a ProjectionCamera at construction
type Option func(*ProjectionCamera)

// WithDetail sets the sphere subdivision level
func WithDetail(detail int) Option {
	return func(c *ProjectionCamera) { c.detail = detail }
}

// WithTilt sets the initial capture tilt
func WithTilt(e render3d.Euler) Option {
	return func(c *ProjectionCamera) { c.tilt = e }
}

// WithSpan sets the initial field of capture in radians
func WithSpan(span float64) Option {
	return func(c *ProjectionCamera) { c.span = span }
}

// WithClipPlanes sets the cube capture near/far planes
func WithClipPlanes(near, far float64) Option {
	return func(c *ProjectionCamera) {
		c.rig.Near = near
		c.rig.Far = far
	}
}

// WithLogger attaches a logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *ProjectionCamera) { c.log = l }
}

// NewProjectionCamera builds the camera for a square output of resolution pixels
func NewProjectionCamera(resolution int, opts ...Option) (*ProjectionCamera, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("fisheye: resolution %d: %w", resolution, core.ErrInvalidConfiguration)
	}

	c := &ProjectionCamera{
		Pose:   render3d.NewPose(mgl64.Vec3{0, 0, 1}),
		detail: DefaultDetail,
		span:   FullSpan,
		lens:   render3d.NewOrthoCamera(-1, 1, 1, -1, 1, 2),
		outer:  render3d.NewScene(),
		rig:    NewCaptureRig(resolution),
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.detail < 1 {
		return nil, fmt.Errorf("fisheye: detail %d: %w", c.detail, core.ErrInvalidConfiguration)
	}
	if err := validateSpan(c.span); err != nil {
		return nil, err
	}
	if c.rig.Near <= 0 || c.rig.Far <= c.rig.Near {
		return nil, fmt.Errorf("fisheye: clip planes %g..%g: %w", c.rig.Near, c.rig.Far, core.ErrInvalidConfiguration)
	}

	c.sphere = render3d.NewObject("fisheye-sphere", nil, render3d.Material{
		Kind:  render3d.MaterialEnvMap,
		Color: render3d.White,
	})
	c.sphere.Mesh = c.buildGeometry()
	c.outer.Add(c.sphere)

	if err := c.SetResolution(resolution); err != nil {
		return nil, err
	}
	return c, nil
}

func validateSpan(span float64) error {
	if !(span > 0) || span > FullSpan+1e-9 {
		return fmt.Errorf("fisheye: span %g rad: %w", span, core.ErrInvalidConfiguration)
	}
	return nil
}

// buildGeometry returns a full icosphere for a full span, otherwise the cap
// whose normals stay within span/4 of the lens axis. A reflected ray turns by
// twice the normal's angle, so that cap covers span/2 either side of forward.
func (c *ProjectionCamera) buildGeometry() *render3d.Mesh3D {
	if c.span >= FullSpan-1e-9 {
		return render3d.MakeIcosphere(c.detail, render3d.White)
	}
	return render3d.MakeSphereCap(c.span/4, c.detail, 4*c.detail, render3d.White)
}

// SetResolution resizes frustum, capture target and sphere. Calling it again
// with the same value leaves the state unchanged.
func (c *ProjectionCamera) SetResolution(resolution int) error {
	if resolution <= 0 {
		return fmt.Errorf("fisheye: resolution %d: %w", resolution, core.ErrInvalidConfiguration)
	}
	radius := float64(resolution) / 2

	c.lens.Left = -radius
	c.lens.Right = radius
	c.lens.Top = radius
	c.lens.Bottom = -radius
	c.lens.Near = 1
	c.lens.Far = radius * 2
	c.lens.Position = mgl64.Vec3{0, 0, radius * 2}
	c.lens.Orientation = mgl64.QuatIdent()

	c.rig.Resize(resolution)

	c.sphere.Scale = mgl64.Vec3{radius, radius, radius}
	c.sphere.Material.EnvMap = c.rig.Texture()

	if c.resolution != resolution {
		c.log.Debug().Int("from", c.resolution).Int("to", resolution).Msg("fisheye resolution set")
	}
	c.resolution = resolution
	return nil
}

// Resolution is the square output size in pixels
func (c *ProjectionCamera) Resolution() int { return c.resolution }

// Detail is the sphere subdivision level
func (c *ProjectionCamera) Detail() int { return c.detail }

// SetTilt sets the Euler offset applied to the capture orientation
func (c *ProjectionCamera) SetTilt(e render3d.Euler) { c.tilt = e }

// Tilt returns the capture tilt
func (c *ProjectionCamera) Tilt() render3d.Euler { return c.tilt }

// SetSpan changes the field of capture. The sphere geometry is rebuilt and
// SetResolution re-run so frustum and target stay consistent.
func (c *ProjectionCamera) SetSpan(span float64) error {
	if err := validateSpan(span); err != nil {
		return err
	}
	c.span = span
	c.sphere.Mesh = c.buildGeometry()
	c.log.Debug().Float64("span_deg", mgl64.RadToDeg(span)).Int("vertices", c.sphere.Mesh.VertexCount()).Msg("fisheye span set")
	return c.SetResolution(c.resolution)
}

// Span is the field of capture in radians
func (c *ProjectionCamera) Span() float64 { return c.span }

// CaptureOrientation is the rig orientation for a camera rotation r
func (c *ProjectionCamera) CaptureOrientation(r mgl64.Quat) mgl64.Quat {
	q := r
	if !c.tilt.IsZero() {
		q = q.Mul(c.tilt.Quat())
	}
	return q.Mul(yawFlip)
}

// Update moves the capture rig to this camera's world pose and captures the
// scene. It must run every frame, otherwise the sphere shows a stale cube map.
func (c *ProjectionCamera) Update(renderer render3d.Renderer, scene *render3d.Scene) error {
	t, r, _ := render3d.Decompose(c.WorldTransform())
	return c.rig.CaptureAt(renderer, scene, t, c.CaptureOrientation(r))
}

// Render draws the sphere through the orthographic lens
func (c *ProjectionCamera) Render(renderer render3d.Renderer) error {
	return renderer.Render(c.outer, c.lens)
}

// Lens is the orthographic camera looking at the sphere
func (c *ProjectionCamera) Lens() *render3d.OrthoCamera { return c.lens }

// OuterScene holds only the sphere
func (c *ProjectionCamera) OuterScene() *render3d.Scene { return c.outer }

// Sphere is the env-mapped sphere object
func (c *ProjectionCamera) Sphere() *render3d.Object { return c.sphere }

// Rig is the owned cube capture rig
func (c *ProjectionCamera) Rig() *CaptureRig { return c.rig }
