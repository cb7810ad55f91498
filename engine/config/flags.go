package config

import (
	"flag"
)

// Flags are command line overrides. Only flags given on the command line
// replace config file values.
type Flags struct {
	ConfigPath string

	Resolution    int
	Detail        int
	TiltX         float64
	TiltY         float64
	TiltZ         float64
	SpanDeg       float64
	Background    string
	AutoRotate    float64
	Duration      float64
	FPS           int
	EyeSeparation float64
	Prefix        string
	Format        string
	OutputDir     string
	Addr          string

	set map[string]bool
}

// RegisterFlags defines the shared flags on fs
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{set: map[string]bool{}}
	fs.StringVar(&f.ConfigPath, "config", "fisheye.yaml", "path to YAML config (optional)")
	fs.IntVar(&f.Resolution, "resolution", 0, "fisheye output size in pixels")
	fs.IntVar(&f.Detail, "detail", 0, "sphere subdivision level")
	fs.Float64Var(&f.TiltX, "tilt-x", 0, "capture tilt about X, degrees")
	fs.Float64Var(&f.TiltY, "tilt-y", 0, "capture tilt about Y, degrees")
	fs.Float64Var(&f.TiltZ, "tilt-z", 0, "capture tilt about Z, degrees")
	fs.Float64Var(&f.SpanDeg, "span", 0, "field of capture, degrees (360 = full sphere)")
	fs.StringVar(&f.Background, "background", "", "background image (png, jpeg, tga)")
	fs.Float64Var(&f.AutoRotate, "auto-rotate", 0, "orbit speed, degrees per second")
	fs.Float64Var(&f.Duration, "duration", 0, "export duration, seconds")
	fs.IntVar(&f.FPS, "fps", 0, "export frame rate")
	fs.Float64Var(&f.EyeSeparation, "eye-sep", 0, "stereo eye separation, world units (0 = mono)")
	fs.StringVar(&f.Prefix, "prefix", "", "export file name prefix")
	fs.StringVar(&f.Format, "format", "", "export format: png | webp")
	fs.StringVar(&f.OutputDir, "out", "", "export directory")
	fs.StringVar(&f.Addr, "addr", "", "preview listen address")
	return f
}

// Parse parses args and records which flags were given
func (f *Flags) Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return nil
}

// IsSet reports whether the named flag was given
func (f *Flags) IsSet(name string) bool { return f.set[name] }

// Resolve applies the given flags on top of c
func (c *Config) Resolve(f *Flags) {
	if f == nil {
		return
	}
	if f.IsSet("resolution") {
		c.Resolution = f.Resolution
	}
	if f.IsSet("detail") {
		c.Detail = f.Detail
	}
	if f.IsSet("tilt-x") {
		c.Tilt.X = f.TiltX
	}
	if f.IsSet("tilt-y") {
		c.Tilt.Y = f.TiltY
	}
	if f.IsSet("tilt-z") {
		c.Tilt.Z = f.TiltZ
	}
	if f.IsSet("span") {
		c.SpanDeg = f.SpanDeg
	}
	if f.IsSet("background") {
		c.Background = f.Background
	}
	if f.IsSet("auto-rotate") {
		c.AutoRotate = f.AutoRotate
	}
	if f.IsSet("duration") {
		c.Export.Duration = f.Duration
	}
	if f.IsSet("fps") {
		c.Export.FPS = f.FPS
	}
	if f.IsSet("eye-sep") {
		c.Export.EyeSeparation = f.EyeSeparation
	}
	if f.IsSet("prefix") {
		c.Export.Prefix = f.Prefix
	}
	if f.IsSet("format") {
		c.Export.Format = f.Format
	}
	if f.IsSet("out") {
		c.Export.OutputDir = f.OutputDir
	}
	if f.IsSet("addr") {
		c.Preview.Addr = f.Addr
	}
}
