package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/export"
	"github.com/1siamBot/fisheye-engine/engine/fisheye"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

// Angles holds Euler angles in degrees
type Angles struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type Window struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Export struct {
	Duration      float64 `yaml:"duration"`
	FPS           int     `yaml:"fps"`
	EyeSeparation float64 `yaml:"eye_separation"`
	Prefix        string  `yaml:"prefix"`
	Format        string  `yaml:"format"` // "png" | "webp"
	OutputDir     string  `yaml:"output_dir"`
}

type Preview struct {
	Addr string `yaml:"addr"`
	FPS  int    `yaml:"fps"`
}

type Config struct {
	Resolution int     `yaml:"resolution"`
	Detail     int     `yaml:"detail"`
	Tilt       Angles  `yaml:"tilt"`
	SpanDeg    float64 `yaml:"span_deg"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`

	Background string  `yaml:"background,omitempty"` // png, jpeg or tga; empty uses the gradient sky
	AutoRotate float64 `yaml:"auto_rotate"`          // orbit speed, degrees per second
	MaxDelta   float64 `yaml:"max_delta"`            // cap on live frame delta, seconds

	Window  Window  `yaml:"window"`
	Export  Export  `yaml:"export"`
	Preview Preview `yaml:"preview"`
}

// Default returns the settings used when no file is given
func Default() *Config {
	return &Config{
		Resolution: 1024,
		Detail:     fisheye.DefaultDetail,
		SpanDeg:    360,
		Near:       fisheye.DefaultNear,
		Far:        fisheye.DefaultFar,
		AutoRotate: 12,
		MaxDelta:   0.25,
		Window:     Window{Width: 768, Height: 768},
		Export: Export{
			Duration:  export.DefaultDuration,
			FPS:       export.DefaultFPS,
			Prefix:    export.DefaultPrefix,
			Format:    export.FormatPNG,
			OutputDir: "frames",
		},
		Preview: Preview{Addr: ":8080", FPS: 30},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w: %w", path, core.ErrInvalidConfiguration, err)
	}
	return c, nil
}

// LoadOptional is Load, but a missing file yields the defaults
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks every value a component would reject
func (c *Config) Validate() error {
	var errs []error
	if c.Resolution <= 0 {
		errs = append(errs, fmt.Errorf("resolution %d must be positive", c.Resolution))
	}
	if c.Detail < 1 {
		errs = append(errs, fmt.Errorf("detail %d must be at least 1", c.Detail))
	}
	if !(c.SpanDeg > 0) || c.SpanDeg > 360 {
		errs = append(errs, fmt.Errorf("span_deg %g must be in (0, 360]", c.SpanDeg))
	}
	if c.Near <= 0 || c.Far <= c.Near {
		errs = append(errs, fmt.Errorf("near/far %g/%g", c.Near, c.Far))
	}
	if c.MaxDelta < 0 {
		errs = append(errs, fmt.Errorf("max_delta %g is negative", c.MaxDelta))
	}
	if err := c.ExportOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w: %w", core.ErrInvalidConfiguration, errors.Join(errs...))
	}
	return nil
}

// TiltEuler converts the tilt to radians
func (c *Config) TiltEuler() render3d.Euler {
	return render3d.EulerDeg(c.Tilt.X, c.Tilt.Y, c.Tilt.Z)
}

// Span is the field of capture in radians
func (c *Config) Span() float64 {
	if c.SpanDeg >= 360 {
		return fisheye.FullSpan
	}
	return c.SpanDeg * fisheye.FullSpan / 360
}

// CameraOptions returns the projection camera settings
func (c *Config) CameraOptions() []fisheye.Option {
	return []fisheye.Option{
		fisheye.WithDetail(c.Detail),
		fisheye.WithTilt(c.TiltEuler()),
		fisheye.WithSpan(c.Span()),
		fisheye.WithClipPlanes(c.Near, c.Far),
	}
}

// ExportOptions returns the export run settings
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Duration:      c.Export.Duration,
		FPS:           c.Export.FPS,
		EyeSeparation: c.Export.EyeSeparation,
		Prefix:        c.Export.Prefix,
		Format:        c.Export.Format,
	}
}
