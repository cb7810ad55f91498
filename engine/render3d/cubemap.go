package render3d

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CubeFace indexes the six faces of a cube texture
type CubeFace int

const (
	FacePosX CubeFace = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

func (f CubeFace) String() string {
	return [...]string{"+x", "-x", "+y", "-y", "+z", "-z"}[f]
}

// faceBasis gives each face's viewing direction and image-up direction in
// cube-local space. Right is forward x up.
type faceBasis struct {
	forward, up, right mgl64.Vec3
}

var cubeFaces = func() [6]faceBasis {
	def := [6][2]mgl64.Vec3{
		{AxisX, AxisY},
		{AxisX.Mul(-1), AxisY},
		{AxisY, AxisZ},
		{AxisY.Mul(-1), AxisZ.Mul(-1)},
		{AxisZ, AxisY},
		{AxisZ.Mul(-1), AxisY},
	}
	var out [6]faceBasis
	for i, d := range def {
		out[i] = faceBasis{forward: d[0], up: d[1], right: d[0].Cross(d[1])}
	}
	return out
}()

// faceRotation is the camera rotation looking down the face's forward axis
func faceRotation(f CubeFace) mgl64.Mat4 {
	b := cubeFaces[f]
	back := b.forward.Mul(-1)
	return mgl64.Mat4{
		b.right[0], b.right[1], b.right[2], 0,
		b.up[0], b.up[1], b.up[2], 0,
		back[0], back[1], back[2], 0,
		0, 0, 0, 1,
	}
}

// CubeTexture holds six square faces rendered from one point.
// Face rows are stored top-down; FlipY makes sampling map face-up to the top row.
type CubeTexture struct {
	Size  int
	Faces [6]*image.NRGBA
	FlipY bool
}

// NewCubeTexture allocates six size x size faces
func NewCubeTexture(size int) *CubeTexture {
	t := &CubeTexture{Size: size, FlipY: true}
	for i := range t.Faces {
		t.Faces[i] = image.NewNRGBA(image.Rect(0, 0, size, size))
	}
	return t
}

// FaceFor returns the face a direction lands on and its [-1,1] face coordinates
func FaceFor(dir mgl64.Vec3) (f CubeFace, u, v float64) {
	ax, ay, az := math.Abs(dir[0]), math.Abs(dir[1]), math.Abs(dir[2])
	switch {
	case ax >= ay && ax >= az:
		f = FacePosX
		if dir[0] < 0 {
			f = FaceNegX
		}
	case ay >= az:
		f = FacePosY
		if dir[1] < 0 {
			f = FaceNegY
		}
	default:
		f = FacePosZ
		if dir[2] < 0 {
			f = FaceNegZ
		}
	}
	b := cubeFaces[f]
	ma := dir.Dot(b.forward)
	if ma <= 0 {
		return f, 0, 0
	}
	return f, dir.Dot(b.right) / ma, dir.Dot(b.up) / ma
}

// Sample returns the texel seen along a cube-local direction (nearest filter)
func (t *CubeTexture) Sample(dir mgl64.Vec3) Color3 {
	if t == nil || t.Size == 0 {
		return Color3{}
	}
	f, u, v := FaceFor(dir)
	img := t.Faces[f]
	size := float64(t.Size)

	x := int((u*0.5 + 0.5) * size)
	var y int
	if t.FlipY {
		y = int((1 - (v*0.5 + 0.5)) * size)
	} else {
		y = int((v*0.5 + 0.5) * size)
	}
	x = clampInt(x, 0, t.Size-1)
	y = clampInt(y, 0, t.Size-1)

	i := img.PixOffset(x, y)
	return Color3{
		float64(img.Pix[i]) / 255,
		float64(img.Pix[i+1]) / 255,
		float64(img.Pix[i+2]) / 255,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
