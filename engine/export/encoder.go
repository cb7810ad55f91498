package export

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/HugoSmits86/nativewebp"
)

// Supported frame formats
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Encoder turns a raster into file bytes
type Encoder interface {
	Ext() string
	Encode(w io.Writer, img image.Image) error
}

// PNGEncoder writes png frames
type PNGEncoder struct {
	Compression png.CompressionLevel
}

func (PNGEncoder) Ext() string { return FormatPNG }

func (e PNGEncoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: e.Compression}
	return enc.Encode(w, img)
}

// WebPEncoder writes lossless webp frames
type WebPEncoder struct{}

func (WebPEncoder) Ext() string { return FormatWebP }

func (WebPEncoder) Encode(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// EncoderFor maps a format name to its encoder; empty means png
func EncoderFor(format string) (Encoder, error) {
	switch format {
	case "", FormatPNG:
		return PNGEncoder{}, nil
	case FormatWebP:
		return WebPEncoder{}, nil
	}
	return nil, fmt.Errorf("export: unknown format %q: %w", format, core.ErrInvalidConfiguration)
}
