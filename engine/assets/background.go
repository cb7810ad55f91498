package assets

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

// MaxBackgroundWidth bounds the resampled width of loaded backgrounds
const MaxBackgroundWidth = 4096

// Equirect is a latitude/longitude environment image used as a skybox. The
// center column of the image faces +Z.
type Equirect struct {
	Img *image.NRGBA
}

// Sample looks up dir. x runs with longitude from +pi at the left edge to
// -pi at the right, y from the zenith at the top to the nadir at the bottom.
func (e *Equirect) Sample(dir mgl64.Vec3) render3d.Color3 {
	lat, lon := latLong(dir)
	b := e.Img.Bounds()
	w, h := b.Dx(), b.Dy()

	x := int((lon/(-2*math.Pi) + 0.5) * float64(w))
	y := int((lat/(-math.Pi) + 0.5) * float64(h))
	x = ((x % w) + w) % w
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return render3d.ColorFromNRGBA(e.Img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
}

// latLong returns latitude in [-pi/2, pi/2] and longitude in [-pi, pi]
func latLong(dir mgl64.Vec3) (lat, lon float64) {
	l := dir.Len()
	if l == 0 {
		return 0, 0
	}
	r := math.Hypot(dir[0], dir[2])
	if r < math.Abs(dir[1]) {
		// acos is better conditioned near the poles
		lat = math.Acos(r / l)
		if dir[1] < 0 {
			lat = -lat
		}
	} else {
		lat = math.Asin(dir[1] / l)
	}
	if dir[0] != 0 || dir[2] != 0 {
		lon = math.Atan2(dir[0], dir[2])
	}
	return lat, lon
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8}

	errUnknownFormat = errors.New("unknown image format")
)

// decodeImage picks the decoder itself. The tga package registers itself
// with image.Decode under an empty magic prefix, which would claim every file.
func decodeImage(path string, f *os.File) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return tga.Decode(f)
	}
	br := bufio.NewReader(f)
	head, _ := br.Peek(len(pngMagic))
	switch {
	case bytes.HasPrefix(head, pngMagic):
		return png.Decode(br)
	case bytes.HasPrefix(head, jpegMagic):
		return jpeg.Decode(br)
	}
	return nil, errUnknownFormat
}

// LoadImage decodes a png, jpeg or tga file into NRGBA. tga is chosen by
// extension, png and jpeg by content.
func LoadImage(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAssetLoad, err)
	}
	defer f.Close()

	img, err := decodeImage(path, f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrAssetLoad, path, err)
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst, nil
}

// LoadBackground loads an equirectangular image, resampling it down to
// maxWidth (keeping a 2:1 aspect) when wider. maxWidth <= 0 keeps the size.
func LoadBackground(path string, maxWidth int) (*Equirect, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrAssetLoad, path)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = Resample(img, maxWidth, maxWidth/2)
	}
	return &Equirect{Img: img}, nil
}

// Resample scales img to w x h with Catmull-Rom filtering
func Resample(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ApplyBackground loads path and installs it as the scene's background and
// environment. On failure the scene keeps whatever it had, the failure is
// logged and an ErrAssetLoad error is returned for the caller to report.
func ApplyBackground(scene *render3d.Scene, path string, log zerolog.Logger) error {
	path = ResolveAsset(path)
	bg, err := LoadBackground(path, MaxBackgroundWidth)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("background not loaded, keeping previous")
		return err
	}
	scene.Background = bg
	scene.Environment = bg
	log.Info().Str("path", path).
		Int("width", bg.Img.Bounds().Dx()).
		Int("height", bg.Img.Bounds().Dy()).
		Msg("background loaded")
	return nil
}

// ResolveAsset returns path itself when it exists or is absolute, otherwise
// the file FindAsset locates for it, falling back to path unchanged.
func ResolveAsset(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if found := FindAsset(path); found != "" {
		return found
	}
	return path
}

// FindAsset looks for name under an assets/ directory near the working
// directory or the source tree. It returns "" when nothing matches.
func FindAsset(name string) string {
	candidates := []string{
		filepath.Join("assets", name),
		filepath.Join("..", "assets", name),
		filepath.Join("..", "..", "assets", name),
	}
	if _, filename, _, ok := runtime.Caller(0); ok {
		srcDir := filepath.Dir(filename)
		candidates = append(candidates, filepath.Join(srcDir, "..", "..", "assets", name))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}
	return ""
}
