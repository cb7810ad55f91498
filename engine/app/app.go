// Package app assembles the fisheye pipeline from a config: scene, renderer,
// projection camera, orbit controls and animation driver.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/1siamBot/fisheye-engine/engine/assets"
	"github.com/1siamBot/fisheye-engine/engine/config"
	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/export"
	"github.com/1siamBot/fisheye-engine/engine/fisheye"
	"github.com/1siamBot/fisheye-engine/engine/input"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

type App struct {
	Config   *config.Config
	Renderer *render3d.SoftRenderer
	Scene    *render3d.Scene
	Camera   *fisheye.ProjectionCamera
	Orbit    *input.Orbit
	Driver   *core.Driver
	Events   *core.EventBus
	Log      zerolog.Logger

	// Progress follows the current or last export through bus events
	Progress ExportProgress

	heldInput input.Source
}

// ExportProgress is what the export events have reported so far
type ExportProgress struct {
	Active  bool
	Frames  int
	Files   int
	Written int
	Last    string
	Err     error
}

func (p ExportProgress) String() string {
	switch {
	case p.Active:
		return fmt.Sprintf("exporting %d/%d files", p.Written, p.Files)
	case errors.Is(p.Err, context.Canceled):
		return fmt.Sprintf("export cancelled after %d files", p.Written)
	case p.Err != nil:
		return fmt.Sprintf("export failed after %d files: %v", p.Written, p.Err)
	case p.Files > 0:
		return fmt.Sprintf("exported %d files", p.Written)
	}
	return ""
}

// New validates cfg and builds the demo scene viewed through a fisheye camera
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cam, err := fisheye.NewProjectionCamera(cfg.Resolution, append(cfg.CameraOptions(), fisheye.WithLogger(log))...)
	if err != nil {
		return nil, err
	}
	scene, animate := assets.DemoScene()
	r := render3d.NewSoftRenderer(cfg.Resolution, cfg.Resolution)

	a := &App{
		Config:   cfg,
		Renderer: r,
		Scene:    scene,
		Camera:   cam,
		Events:   core.NewEventBus(),
		Log:      log,
	}
	a.watchExports()

	if cfg.Background != "" {
		// A failed load keeps the default sky
		if err := assets.ApplyBackground(scene, cfg.Background, log); err == nil {
			a.Events.Emit(core.Event{Type: core.EvtBackgroundChanged, Payload: cfg.Background})
		}
	}

	a.Orbit = input.NewOrbit(&cam.Pose, mgl64.Vec3{})
	a.Orbit.AutoRotate = mgl64.DegToRad(cfg.AutoRotate)

	d := core.NewDriver(r, scene, cam)
	d.Controls = a.Orbit
	d.Events = a.Events
	d.Log = log
	d.Clock.MaxDelta = cfg.MaxDelta
	d.AddAnimator(animate)
	a.Driver = d

	log.Info().
		Int("resolution", cfg.Resolution).
		Int("detail", cfg.Detail).
		Float64("span_deg", cfg.SpanDeg).
		Msg("fisheye pipeline ready")
	return a, nil
}

// SetResolution resizes camera and renderer together
func (a *App) SetResolution(res int) error {
	if err := a.Camera.SetResolution(res); err != nil {
		return err
	}
	a.Renderer.SetSize(res, res)
	a.Config.Resolution = res
	a.Events.Emit(core.Event{Type: core.EvtResolutionChanged, Payload: res})
	return nil
}

// SetBackground swaps the scene background. A failed load leaves the
// current one and returns an ErrAssetLoad error.
func (a *App) SetBackground(path string) error {
	if err := assets.ApplyBackground(a.Scene, path, a.Log); err != nil {
		return err
	}
	a.Config.Background = path
	a.Events.Emit(core.Event{Type: core.EvtBackgroundChanged, Payload: path})
	return nil
}

// Exporter returns an exporter that pauses this app's live loop
func (a *App) Exporter(sink export.Sink) *export.Exporter {
	return &export.Exporter{
		Renderer: a.Renderer,
		Scene:    a.Scene,
		Camera:   a.Camera,
		Loop:     a.Driver,
		Sink:     sink,
		Events:   a.Events,
		Log:      a.Log,
	}
}

// StartExport opens a stepped export of the configured options. Pointer input
// is detached from the orbit controls until EndExport.
func (a *App) StartExport(sink export.Sink) (*export.Session, error) {
	s, err := a.Exporter(sink).Start(a.Config.ExportOptions())
	if err != nil {
		return nil, err
	}
	a.holdInput()
	return s, nil
}

// EndExport closes s if it is still running and reattaches pointer input
func (a *App) EndExport(s *export.Session) {
	if s != nil {
		s.Close()
	}
	a.releaseInput()
}

// RunExport renders the configured sequence into sink in one call
func (a *App) RunExport(ctx context.Context, sink export.Sink) (*export.Session, error) {
	a.holdInput()
	defer a.releaseInput()
	return a.Exporter(sink).Run(ctx, a.Config.ExportOptions())
}

func (a *App) holdInput() {
	if a.Orbit.Input != nil {
		a.heldInput = a.Orbit.Input
		a.Orbit.Input = nil
	}
}

func (a *App) releaseInput() {
	if a.heldInput != nil {
		a.Orbit.Input = a.heldInput
		a.heldInput = nil
	}
}

// watchExports keeps Progress current and logs roughly every tenth file
func (a *App) watchExports() {
	a.Events.On(core.EvtExportStarted, func(e core.Event) {
		a.Progress = ExportProgress{Active: true}
		if s, ok := e.Payload.(*export.Session); ok {
			a.Progress.Frames = s.FrameCount
			a.Progress.Files = s.FrameCount * len(s.Eyes)
		}
	})
	a.Events.On(core.EvtExportFrameWritten, func(e core.Event) {
		p := &a.Progress
		p.Written++
		p.Last, _ = e.Payload.(string)
		step := p.Files / 10
		if step < 1 {
			step = 1
		}
		if p.Written%step == 0 || p.Written == p.Files {
			a.Log.Info().Int("written", p.Written).Int("files", p.Files).Str("last", p.Last).Msg("export progress")
		}
	})
	a.Events.On(core.EvtExportFinished, func(core.Event) {
		a.Progress.Active = false
	})
	a.Events.On(core.EvtExportFailed, func(e core.Event) {
		a.Progress.Active = false
		a.Progress.Err, _ = e.Payload.(error)
	})
}

// DirSink is the configured output directory as a sink
func (a *App) DirSink() *export.DirSink {
	return &export.DirSink{Dir: a.Config.Export.OutputDir}
}

// String summarizes the current view for HUDs and logs
func (a *App) String() string {
	return fmt.Sprintf("res %d | span %.0f° | tilt %.0f/%.0f/%.0f | frame %d | %.1f fps",
		a.Camera.Resolution(), mgl64.RadToDeg(a.Camera.Span()),
		a.Config.Tilt.X, a.Config.Tilt.Y, a.Config.Tilt.Z,
		a.Driver.Stats.Frames, a.Driver.Stats.FPS)
}
