package export

import (
	"fmt"
	"math"

	"github.com/1siamBot/fisheye-engine/engine/core"
)

// Defaults used when Options leaves a field empty
const (
	DefaultPrefix   = "frame"
	DefaultDuration = 0.5
	DefaultFPS      = 60
)

// Options describes one export run
type Options struct {
	// Duration of the sequence in seconds
	Duration float64
	// FPS is the frame rate of the sequence
	FPS int
	// EyeSeparation in world units, 0 renders mono
	EyeSeparation float64
	// Prefix starts every file name
	Prefix string
	// Format selects the frame encoder: "png" or "webp"
	Format string
}

// DefaultOptions returns half a second of mono png at 60 fps
func DefaultOptions() Options {
	return Options{
		Duration: DefaultDuration,
		FPS:      DefaultFPS,
		Prefix:   DefaultPrefix,
		Format:   FormatPNG,
	}
}

// Validate rejects options that cannot produce a sequence
func (o Options) Validate() error {
	switch {
	case !(o.Duration > 0) || math.IsInf(o.Duration, 0):
		return fmt.Errorf("export: duration %g: %w", o.Duration, core.ErrInvalidConfiguration)
	case o.FPS <= 0:
		return fmt.Errorf("export: fps %d: %w", o.FPS, core.ErrInvalidConfiguration)
	case !(o.EyeSeparation >= 0) || math.IsInf(o.EyeSeparation, 0):
		return fmt.Errorf("export: eye separation %g: %w", o.EyeSeparation, core.ErrInvalidConfiguration)
	case o.FrameCount() < 1:
		return fmt.Errorf("export: %gs at %d fps is less than one frame: %w", o.Duration, o.FPS, core.ErrInvalidConfiguration)
	}
	if _, err := EncoderFor(o.Format); err != nil {
		return err
	}
	return nil
}

// FrameCount is floor(duration*fps). The small epsilon keeps products like
// 0.1*30 from flooring to one frame short.
func (o Options) FrameCount() int {
	return int(math.Floor(o.Duration*float64(o.FPS) + 1e-9))
}

// Delta is the fixed time step per frame
func (o Options) Delta() float64 {
	return 1 / float64(o.FPS)
}

func (o Options) prefix() string {
	if o.Prefix == "" {
		return DefaultPrefix
	}
	return o.Prefix
}
