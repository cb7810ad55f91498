package assets

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

// quadrantSky is 8x4: top half red, bottom half blue, with the middle
// columns of the top half green
func quadrantSky() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{0, 0, 255, 255}
			if y < 2 {
				c = color.NRGBA{255, 0, 0, 255}
				if x == 3 || x == 4 {
					c = color.NRGBA{0, 255, 0, 255}
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeImage(t *testing.T, name string, img image.Image, enc func(io.Writer, image.Image) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, enc(f, img))
	require.NoError(t, f.Close())
	return path
}

func writePNG(t *testing.T, img image.Image) string {
	return writeImage(t, "sky.png", img, png.Encode)
}

func TestLoadImageFormats(t *testing.T) {
	sky := quadrantSky()
	jpg := func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 95}) }

	for _, tc := range []struct {
		name     string
		path     string
		lossless bool
	}{
		{"png", writePNG(t, sky), true},
		{"tga", writeImage(t, "sky.tga", sky, tga.Encode), true},
		{"jpeg", writeImage(t, "sky.jpg", sky, jpg), false},
		{"png with odd extension", writeImage(t, "sky.img", sky, png.Encode), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img, err := LoadImage(tc.path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
			if tc.lossless {
				assert.Equal(t, sky.Pix, img.Pix)
			}
		})
	}

	junk := filepath.Join(t.TempDir(), "sky.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err := LoadImage(junk)
	assert.ErrorIs(t, err, core.ErrAssetLoad)
}

func TestEquirectSample(t *testing.T) {
	e := &Equirect{Img: quadrantSky()}
	red := render3d.Color3{R: 1}
	green := render3d.Color3{G: 1}
	blue := render3d.Color3{B: 1}

	assert.Equal(t, green, e.Sample(mgl64.Vec3{0, 0.3, 1}), "+Z maps to the center columns")
	assert.Equal(t, red, e.Sample(mgl64.Vec3{0, 0.3, -1}))
	assert.Equal(t, blue, e.Sample(mgl64.Vec3{0, -0.3, 1}))
	assert.Equal(t, red, e.Sample(mgl64.Vec3{1, 5, 0}))
	assert.Equal(t, blue, e.Sample(mgl64.Vec3{0, -1, 0}))
	assert.NotPanics(t, func() { e.Sample(mgl64.Vec3{}) })
}

func TestLatLong(t *testing.T) {
	lat, lon := latLong(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0, lat, 1e-12)
	assert.InDelta(t, math.Pi/2, lon, 1e-12)

	lat, _ = latLong(mgl64.Vec3{0.01, 5, 0})
	assert.InDelta(t, math.Pi/2, lat, 0.01)
}

func TestLoadBackgroundResamples(t *testing.T) {
	path := writePNG(t, quadrantSky())

	bg, err := LoadBackground(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, bg.Img.Bounds().Dx())

	bg, err = LoadBackground(path, 4)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), bg.Img.Bounds())
}

func TestApplyBackgroundKeepsPreviousOnFailure(t *testing.T) {
	scene, _ := DemoScene()
	prev := scene.Background

	bogus := filepath.Join(t.TempDir(), "sky.tga")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0o644))

	err := ApplyBackground(scene, bogus, zerolog.Nop())
	assert.ErrorIs(t, err, core.ErrAssetLoad)
	assert.Same(t, prev, scene.Background)

	err = ApplyBackground(scene, filepath.Join(t.TempDir(), "missing.png"), zerolog.Nop())
	assert.ErrorIs(t, err, core.ErrAssetLoad)
	assert.Same(t, prev, scene.Background)

	require.NoError(t, ApplyBackground(scene, writePNG(t, quadrantSky()), zerolog.Nop()))
	assert.IsType(t, &Equirect{}, scene.Background)
	assert.Same(t, scene.Background, scene.Environment)
}

func TestDemoSceneAnimates(t *testing.T) {
	scene, animate := DemoScene()
	cube := scene.Find(DemoCube)
	torus := scene.Find(DemoTorus)
	require.NotNil(t, cube)
	require.NotNil(t, torus)
	assert.NotEmpty(t, torus.Mesh.Triangles)

	animate(math.Pi / 2)
	assert.InDelta(t, 0, cube.Position[0], 1e-12)
	assert.InDelta(t, 3, cube.Position[1], 1e-12)
	assert.InDelta(t, 3, cube.Position[2], 1e-12)
	assert.InDelta(t, 3, cube.Position.Len()/math.Sqrt2, 1e-9)

	// Spin follows absolute time, so both objects share it
	assert.True(t, cube.Orientation.ApproxEqual(torus.Orientation))
}

func TestBackgroundResolvedFromAssetsDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "assets"), 0o755))
	src := writePNG(t, quadrantSky())
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "studio.png"), data, 0o644))
	t.Chdir(root)

	found := FindAsset("studio.png")
	require.NotEmpty(t, found)
	assert.True(t, filepath.IsAbs(found))
	assert.Equal(t, "", FindAsset("nowhere.png"))
	assert.Equal(t, "nowhere.png", ResolveAsset("nowhere.png"))

	scene, _ := DemoScene()
	require.NoError(t, ApplyBackground(scene, "studio.png", zerolog.Nop()))
	assert.IsType(t, &Equirect{}, scene.Background)
}
