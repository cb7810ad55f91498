package config

import (
	"flag"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/fisheye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, fisheye.FullSpan, c.Span())
	assert.True(t, c.TiltEuler().IsZero())
	assert.Equal(t, 30, c.ExportOptions().FrameCount())
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fisheye.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resolution: 512
tilt:
  x: 90
span_deg: 180
export:
  eye_separation: 0.064
  format: webp
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, c.Resolution)
	assert.Equal(t, fisheye.DefaultDetail, c.Detail)
	assert.Equal(t, 60, c.Export.FPS)
	assert.Equal(t, "webp", c.Export.Format)
	assert.InDelta(t, math.Pi/2, c.TiltEuler().X, 1e-12)
	assert.InDelta(t, math.Pi, c.Span(), 1e-12)
	assert.Equal(t, 0.064, c.ExportOptions().EyeSeparation)
	require.NoError(t, c.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := Default()
	c.Background = "sky.tga"
	require.NoError(t, Save(path, c))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	c, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("resolution: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"resolution":   func(c *Config) { c.Resolution = 0 },
		"detail":       func(c *Config) { c.Detail = 0 },
		"span":         func(c *Config) { c.SpanDeg = 400 },
		"clip":         func(c *Config) { c.Far = c.Near },
		"fps":          func(c *Config) { c.Export.FPS = -1 },
		"duration":     func(c *Config) { c.Export.Duration = 0 },
		"format":       func(c *Config) { c.Export.Format = "bmp" },
		"eye sep inf":  func(c *Config) { c.Export.EyeSeparation = math.Inf(1) },
		"eye sep -inf": func(c *Config) { c.Export.EyeSeparation = math.Inf(-1) },
		"eye sep nan":  func(c *Config) { c.Export.EyeSeparation = math.NaN() },
	} {
		c := Default()
		mutate(c)
		assert.ErrorIs(t, c.Validate(), core.ErrInvalidConfiguration, name)
	}
}

func TestFlagsOverrideOnlyWhenGiven(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := RegisterFlags(fs)
	require.NoError(t, f.Parse(fs, []string{"-resolution", "256", "-eye-sep", "0", "-format", "webp"}))

	c := Default()
	c.Export.EyeSeparation = 0.1
	c.Resolve(f)

	assert.Equal(t, 256, c.Resolution)
	assert.Equal(t, 0.0, c.Export.EyeSeparation, "explicit zero switches to mono")
	assert.Equal(t, "webp", c.Export.Format)
	assert.Equal(t, 60, c.Export.FPS)
	assert.Equal(t, fisheye.DefaultDetail, c.Detail)
	assert.Equal(t, "fisheye.yaml", f.ConfigPath)
}
