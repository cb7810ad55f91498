package render3d

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Renderer draws scenes into its output buffer and into cube textures
type Renderer interface {
	Render(scene *Scene, cam Camera) error
	CaptureCube(scene *Scene, pos mgl64.Vec3, orient mgl64.Quat, near, far float64, target *CubeTexture) error
	Snapshot() *image.NRGBA
}

// ErrTargetSize is returned when a render target has unusable dimensions
var ErrTargetSize = errors.New("render3d: invalid target size")

// SoftRenderer is a z-buffered CPU rasterizer
type SoftRenderer struct {
	out   *image.NRGBA
	depth []float64

	// Scratch depth buffer for cube faces, grown on demand
	faceDepth []float64

	// Frames counts completed Render calls
	Frames uint64
}

// NewSoftRenderer creates a renderer with a w x h output buffer
func NewSoftRenderer(w, h int) *SoftRenderer {
	r := &SoftRenderer{}
	r.SetSize(w, h)
	return r
}

// SetSize reallocates the output buffer
func (r *SoftRenderer) SetSize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if r.out != nil && r.out.Bounds().Dx() == w && r.out.Bounds().Dy() == h {
		return
	}
	r.out = image.NewNRGBA(image.Rect(0, 0, w, h))
	r.depth = make([]float64, w*h)
}

// Size returns the output buffer dimensions
func (r *SoftRenderer) Size() (int, int) {
	return r.out.Bounds().Dx(), r.out.Bounds().Dy()
}

// Render draws scene through cam into the output buffer
func (r *SoftRenderer) Render(scene *Scene, cam Camera) error {
	if err := r.draw(scene, cam, r.out, r.depth, scene.Background); err != nil {
		return err
	}
	r.Frames++
	return nil
}

// Output exposes the live output buffer without copying
func (r *SoftRenderer) Output() *image.NRGBA {
	return r.out
}

// Snapshot returns a copy of the output buffer
func (r *SoftRenderer) Snapshot() *image.NRGBA {
	cp := image.NewNRGBA(r.out.Bounds())
	copy(cp.Pix, r.out.Pix)
	return cp
}

// CaptureCube renders the six faces of target from pos with orientation orient
func (r *SoftRenderer) CaptureCube(scene *Scene, pos mgl64.Vec3, orient mgl64.Quat, near, far float64, target *CubeTexture) error {
	if target == nil || target.Size < 1 {
		return fmt.Errorf("cube capture: %w", ErrTargetSize)
	}
	if near <= 0 || far <= near {
		return fmt.Errorf("cube capture: bad clip planes near=%g far=%g", near, far)
	}
	n := target.Size * target.Size
	if len(r.faceDepth) < n {
		r.faceDepth = make([]float64, n)
	}

	base := mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(orient.Mat4())
	proj := mgl64.Perspective(math.Pi/2, 1, near, far)
	for f := FacePosX; f <= FaceNegZ; f++ {
		cam := fixedCamera{world: base.Mul4(faceRotation(f)), proj: proj}
		if err := r.draw(scene, cam, target.Faces[f], r.faceDepth[:n], scene.Background); err != nil {
			return fmt.Errorf("cube face %s: %w", f, err)
		}
	}
	return nil
}

// clipVert carries everything interpolated across a triangle
type clipVert struct {
	clip   mgl64.Vec4
	world  mgl64.Vec3
	normal mgl64.Vec3
	color  Color3
}

func lerpClipVert(a, b clipVert, t float64) clipVert {
	return clipVert{
		clip:   a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
		world:  a.world.Add(b.world.Sub(a.world).Mul(t)),
		normal: a.normal.Add(b.normal.Sub(a.normal).Mul(t)),
		color:  a.color.Lerp(b.color, t),
	}
}

// clipNear clips a polygon against the near plane (z + w >= 0)
func clipNear(in []clipVert, out []clipVert) []clipVert {
	out = out[:0]
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da := a.clip[2] + a.clip[3]
		db := b.clip[2] + b.clip[3]
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpClipVert(a, b, da/(da-db)))
		}
	}
	return out
}

// frameSetup holds per-pass camera data
type frameSetup struct {
	vp       mgl64.Mat4
	invVP    mgl64.Mat4
	camPos   mgl64.Vec3
	forward  mgl64.Vec3
	ortho    bool
	w, h     int
	wf, hf   float64
	scene    *Scene
	dst      *image.NRGBA
	depth    []float64
	lighting LightingSetup
}

func (r *SoftRenderer) draw(scene *Scene, cam Camera, dst *image.NRGBA, depth []float64, bg Skybox) error {
	if scene == nil {
		return errors.New("render3d: nil scene")
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	if w < 1 || h < 1 || len(depth) != w*h {
		return ErrTargetSize
	}

	world := cam.WorldTransform()
	proj := cam.Projection()
	vp := proj.Mul4(world.Inv())
	if vp.Det() == 0 {
		return errors.New("render3d: singular camera matrix")
	}

	fs := &frameSetup{
		vp:       vp,
		invVP:    vp.Inv(),
		camPos:   mgl64.Vec3{world[12], world[13], world[14]},
		forward:  mgl64.TransformNormal(AxisZ.Mul(-1), world).Normalize(),
		ortho:    proj[15] == 1,
		w:        w,
		h:        h,
		wf:       float64(w),
		hf:       float64(h),
		scene:    scene,
		dst:      dst,
		depth:    depth,
		lighting: scene.Lighting,
	}

	fs.clear(bg)

	poly := make([]clipVert, 0, 8)
	scratch := make([]clipVert, 0, 8)
	for _, obj := range scene.Objects {
		if obj == nil || obj.Hidden || obj.Mesh == nil {
			continue
		}
		model := obj.Matrix()
		nm := normalMatrix(model)
		for _, tri := range obj.Mesh.Triangles {
			poly = poly[:0]
			for i := 0; i < 3; i++ {
				v := tri.V[i]
				wp := mgl64.TransformCoordinate(v.Pos, model)
				poly = append(poly, clipVert{
					clip:   vp.Mul4x1(wp.Vec4(1)),
					world:  wp,
					normal: nm.Mul3x1(v.Normal),
					color:  v.Color,
				})
			}
			clipped := clipNear(poly, scratch)
			for i := 1; i+1 < len(clipped); i++ {
				fs.rasterize(clipped[0], clipped[i], clipped[i+1], &obj.Material)
			}
			scratch = clipped
		}
	}
	return nil
}

// clear fills the target with background or clear color and resets depth
func (fs *frameSetup) clear(bg Skybox) {
	for i := range fs.depth {
		fs.depth[i] = math.Inf(1)
	}
	pix := fs.dst.Pix
	stride := fs.dst.Stride
	if bg == nil {
		c := fs.scene.ClearColor
		for y := 0; y < fs.h; y++ {
			row := y * stride
			for x := 0; x < fs.w; x++ {
				i := row + x*4
				pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
			}
		}
		return
	}
	for y := 0; y < fs.h; y++ {
		row := y * stride
		ndcY := 1 - 2*(float64(y)+0.5)/fs.hf
		for x := 0; x < fs.w; x++ {
			ndcX := 2*(float64(x)+0.5)/fs.wf - 1
			c := bg.Sample(fs.rayDir(ndcX, ndcY)).NRGBA()
			i := row + x*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

// rayDir returns the world-space view ray through an NDC point
func (fs *frameSetup) rayDir(ndcX, ndcY float64) mgl64.Vec3 {
	if fs.ortho {
		return fs.forward
	}
	far := fs.invVP.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1, 1})
	if far[3] == 0 {
		return fs.forward
	}
	p := far.Vec3().Mul(1 / far[3])
	return p.Sub(fs.camPos).Normalize()
}

// rasterize fills one clipped triangle with perspective-correct attributes
func (fs *frameSetup) rasterize(a, b, c clipVert, mat *Material) {
	if a.clip[3] <= 0 || b.clip[3] <= 0 || c.clip[3] <= 0 {
		return
	}
	ia, ib, ic := 1/a.clip[3], 1/b.clip[3], 1/c.clip[3]

	// Screen space (Y-down)
	x0, y0 := (a.clip[0]*ia*0.5+0.5)*fs.wf, (1-(a.clip[1]*ia*0.5+0.5))*fs.hf
	x1, y1 := (b.clip[0]*ib*0.5+0.5)*fs.wf, (1-(b.clip[1]*ib*0.5+0.5))*fs.hf
	x2, y2 := (c.clip[0]*ic*0.5+0.5)*fs.wf, (1-(c.clip[1]*ic*0.5+0.5))*fs.hf
	z0, z1, z2 := a.clip[2]*ia, b.clip[2]*ib, c.clip[2]*ic

	area := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if math.Abs(area) < 1e-12 {
		return
	}
	invArea := 1 / area

	minX := clampInt(int(math.Floor(math.Min(x0, math.Min(x1, x2)))), 0, fs.w-1)
	maxX := clampInt(int(math.Ceil(math.Max(x0, math.Max(x1, x2)))), 0, fs.w-1)
	minY := clampInt(int(math.Floor(math.Min(y0, math.Min(y1, y2)))), 0, fs.h-1)
	maxY := clampInt(int(math.Ceil(math.Max(y0, math.Max(y1, y2)))), 0, fs.h-1)

	pix := fs.dst.Pix
	stride := fs.dst.Stride
	for py := minY; py <= maxY; py++ {
		sy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			sx := float64(px) + 0.5

			// Barycentric weights
			w0 := ((x1-sx)*(y2-sy) - (x2-sx)*(y1-sy)) * invArea
			w1 := ((x2-sx)*(y0-sy) - (x0-sx)*(y2-sy)) * invArea
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			if z < -1 || z > 1 {
				continue
			}
			di := py*fs.w + px
			if z >= fs.depth[di] {
				continue
			}

			// Perspective-correct weights
			p0, p1, p2 := w0*ia, w1*ib, w2*ic
			sum := p0 + p1 + p2
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			n := a.normal.Mul(p0).Add(b.normal.Mul(p1)).Add(c.normal.Mul(p2))
			if n.Len() > 0 {
				n = n.Normalize()
			}
			col := Color3{
				a.color.R*p0 + b.color.R*p1 + c.color.R*p2,
				a.color.G*p0 + b.color.G*p1 + c.color.G*p2,
				a.color.B*p0 + b.color.B*p1 + c.color.B*p2,
			}
			wp := a.world.Mul(p0).Add(b.world.Mul(p1)).Add(c.world.Mul(p2))

			out := fs.shade(mat, wp, n, col).NRGBA()
			fs.depth[di] = z
			i := py*stride + px*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = out.R, out.G, out.B, out.A
		}
	}
}

func (fs *frameSetup) viewDir(wp mgl64.Vec3) mgl64.Vec3 {
	if fs.ortho {
		return fs.forward
	}
	d := wp.Sub(fs.camPos)
	if d.Len() == 0 {
		return fs.forward
	}
	return d.Normalize()
}

func (fs *frameSetup) shade(mat *Material, wp, n mgl64.Vec3, vertexColor Color3) Color3 {
	base := vertexColor.Mul(mat.Color)
	switch mat.Kind {
	case MaterialUnlit:
		return base
	case MaterialEnvMap:
		r := Reflect(fs.viewDir(wp), n)
		// Cube render targets are sampled with X mirrored
		return mat.EnvMap.Sample(mgl64.Vec3{-r[0], r[1], r[2]}).Mul(mat.Color)
	default:
		lit := fs.lighting.ComputeLighting(n, base)
		if mat.Reflectivity > 0 {
			env := fs.scene.Environment
			if env == nil {
				env = fs.scene.Background
			}
			if env != nil {
				refl := env.Sample(Reflect(fs.viewDir(wp), n))
				lit = lit.Lerp(refl.Mul(base.Add(Color3{0.25, 0.25, 0.25})), mat.Reflectivity)
			}
		}
		return lit
	}
}
