package fisheye

import (
	"math"
	"testing"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCam(t *testing.T, res int, opts ...Option) *ProjectionCamera {
	t.Helper()
	opts = append([]Option{WithDetail(6)}, opts...)
	c, err := NewProjectionCamera(res, opts...)
	require.NoError(t, err)
	return c
}

func TestSetResolutionSizesEverything(t *testing.T) {
	c := newCam(t, 8)
	for _, r := range []int{1, 2, 7, 64, 255, 1024} {
		require.NoError(t, c.SetResolution(r))
		l := c.Lens()
		assert.Equal(t, float64(r), l.Right-l.Left, "r=%d", r)
		assert.Equal(t, float64(r), l.Top-l.Bottom, "r=%d", r)
		assert.Equal(t, float64(r), l.Far, "far is twice the radius")
		half := float64(r) / 2
		assert.Equal(t, mgl64.Vec3{half, half, half}, c.Sphere().Scale)
		assert.Equal(t, r, c.Rig().Size())
		assert.Same(t, c.Rig().Texture(), c.Sphere().Material.EnvMap)
		assert.True(t, c.Rig().Texture().FlipY)
	}
}

func TestSetResolutionIdempotent(t *testing.T) {
	c := newCam(t, 32)
	require.NoError(t, c.SetResolution(48))
	lens := *c.Lens()
	tex := c.Rig().Texture()
	scale := c.Sphere().Scale

	require.NoError(t, c.SetResolution(48))
	assert.Equal(t, lens, *c.Lens())
	assert.Same(t, tex, c.Rig().Texture())
	assert.Equal(t, scale, c.Sphere().Scale)
	assert.Equal(t, 48, c.Resolution())
}

func TestResizeReplacesTarget(t *testing.T) {
	c := newCam(t, 16)
	before := c.Rig().Texture()
	require.NoError(t, c.SetResolution(20))
	assert.NotSame(t, before, c.Rig().Texture())
	assert.Same(t, c.Rig().Texture(), c.Sphere().Material.EnvMap)
}

func TestInvalidConfigurationRejected(t *testing.T) {
	_, err := NewProjectionCamera(0)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
	_, err = NewProjectionCamera(-5)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
	_, err = NewProjectionCamera(16, WithDetail(0))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
	_, err = NewProjectionCamera(16, WithSpan(0))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
	_, err = NewProjectionCamera(16, WithClipPlanes(1, 1))
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	c := newCam(t, 16)
	lens := *c.Lens()
	tex := c.Rig().Texture()
	assert.ErrorIs(t, c.SetResolution(0), core.ErrInvalidConfiguration)
	assert.ErrorIs(t, c.SetSpan(-1), core.ErrInvalidConfiguration)
	assert.ErrorIs(t, c.SetSpan(3*math.Pi), core.ErrInvalidConfiguration)

	assert.Equal(t, 16, c.Resolution())
	assert.Equal(t, lens, *c.Lens())
	assert.Same(t, tex, c.Rig().Texture())
	assert.Equal(t, FullSpan, c.Span())
}

func TestSpanRebuildsGeometry(t *testing.T) {
	c := newCam(t, 16)
	full := c.Sphere().Mesh
	require.Len(t, full.Triangles, 20*7*7)
	tex := c.Rig().Texture()

	require.NoError(t, c.SetSpan(math.Pi))
	assert.NotSame(t, full, c.Sphere().Mesh)
	for _, tri := range c.Sphere().Mesh.Triangles {
		for _, v := range tri.V {
			polar := math.Acos(math.Max(-1, math.Min(1, v.Pos[2])))
			assert.LessOrEqual(t, polar, math.Pi/4+1e-9)
		}
	}
	assert.Same(t, tex, c.Sphere().Material.EnvMap)
	assert.Equal(t, mgl64.Vec3{8, 8, 8}, c.Sphere().Scale)

	require.NoError(t, c.SetSpan(FullSpan))
	assert.Len(t, c.Sphere().Mesh.Triangles, 20*7*7)
	assert.Equal(t, 3*20*7*7, c.Sphere().Mesh.VertexCount())
}

func TestUpdateCopiesTranslationExactly(t *testing.T) {
	c := newCam(t, 8)
	c.Position = mgl64.Vec3{1.25, -3.5, 7.0000001}
	c.Orientation = render3d.EulerDeg(10, 33, -4).Quat()

	r := render3d.NewSoftRenderer(8, 8)
	require.NoError(t, c.Update(r, render3d.NewScene()))
	assert.Equal(t, c.Position, c.Rig().Position)
}

func TestCaptureOrientationFlipsForward(t *testing.T) {
	c := newCam(t, 8)
	q := c.CaptureOrientation(mgl64.QuatIdent())
	// Rig +Z is the camera's -Z
	got := q.Rotate(render3d.AxisZ)
	assert.InDelta(t, -1, got[2], 1e-12)

	c.SetTilt(render3d.EulerDeg(0, 90, 0))
	got = c.CaptureOrientation(mgl64.QuatIdent()).Rotate(render3d.AxisZ)
	assert.InDelta(t, -1, got[0], 1e-12)
}

func colorAt(r *render3d.SoftRenderer, x, y int) render3d.Color3 {
	return render3d.ColorFromNRGBA(r.Output().NRGBAAt(x, y))
}

func box(name string, pos mgl64.Vec3, c render3d.Color3) *render3d.Object {
	o := render3d.NewObject(name, render3d.MakeBox(2, 2, 2, c), render3d.Material{Kind: render3d.MaterialUnlit, Color: render3d.White})
	o.Position = pos
	return o
}

func TestFisheyeImageOrientation(t *testing.T) {
	const res = 32
	green := render3d.Color3{G: 1}
	red := render3d.Color3{R: 1}
	blue := render3d.Color3{B: 1}

	scene := render3d.NewScene()
	scene.Add(box("ahead", mgl64.Vec3{0, 0, -5}, green))
	scene.Add(box("right", mgl64.Vec3{5, 0, 0}, red))
	scene.Add(box("left", mgl64.Vec3{-5, 0, 0}, blue))

	c := newCam(t, res, WithDetail(12))
	c.Position = mgl64.Vec3{}
	r := render3d.NewSoftRenderer(res, res)

	require.NoError(t, c.Update(r, scene))
	require.NoError(t, c.Render(r))

	center := res / 2
	assert.Equal(t, green, colorAt(r, center, center))
	// 90 degrees off axis lands at sin(45deg) of the radius
	radius := float64(res) / 2
	off := int(0.707 * radius)
	assert.Equal(t, red, colorAt(r, center+off, center))
	assert.Equal(t, blue, colorAt(r, center-off-1, center))

	// Tilting the capture 90 degrees to the left brings the left box to the centre
	c.SetTilt(render3d.EulerDeg(0, 90, 0))
	require.NoError(t, c.Update(r, scene))
	require.NoError(t, c.Render(r))
	assert.Equal(t, blue, colorAt(r, center, center))
}

func TestRigResizeKeepsTargetForSameSize(t *testing.T) {
	rig := NewCaptureRig(4)
	tex := rig.Texture()
	rig.Resize(4)
	assert.Same(t, tex, rig.Texture())
	rig.Resize(5)
	assert.Equal(t, 5, rig.Size())
	assert.Equal(t, DefaultNear, rig.Near)
	assert.Equal(t, DefaultFar, rig.Far)
}
