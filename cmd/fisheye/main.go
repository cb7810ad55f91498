package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/fisheye-engine/engine/app"
	"github.com/1siamBot/fisheye-engine/engine/config"
	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/export"
	"github.com/1siamBot/fisheye-engine/engine/input/pointer"
)

const (
	spanStep   = 30.0
	tiltStep   = 15.0
	stereoSep  = 0.064
	statusLife = 4 * time.Second
)

// Viewer implements ebiten.Game
type Viewer struct {
	app     *app.App
	pointer *pointer.State
	frame   *ebiten.Image

	session    *export.Session
	configPath string

	status     string
	statusTime time.Time
}

func NewViewer(a *app.App) *Viewer {
	v := &Viewer{
		app:     a,
		pointer: pointer.NewState(),
	}
	a.Orbit.Input = v.pointer

	report := func(core.Event) { v.setStatus("%s", a.Progress) }
	a.Events.On(core.EvtExportFinished, report)
	a.Events.On(core.EvtExportFailed, report)
	a.Events.On(core.EvtBackgroundChanged, func(e core.Event) { v.setStatus("background %v", e.Payload) })
	return v
}

func (v *Viewer) Update() error {
	v.pointer.Update()
	v.handleKeys()

	if v.session != nil {
		// One export frame per tick; the live loop is suspended meanwhile.
		// Failures reach the status line through the export events.
		_ = v.session.Step()
		if v.session.Done() {
			v.app.EndExport(v.session)
			v.session = nil
		}
	} else if _, err := v.app.Driver.Tick(); err != nil {
		return err
	}

	v.app.Events.Dispatch()
	return nil
}

func (v *Viewer) handleKeys() {
	cfg := v.app.Config

	if v.pointer.IsKeyJustPressed(ebiten.KeyEscape) && v.session != nil {
		v.app.EndExport(v.session)
		v.session = nil
		return
	}
	if v.session != nil {
		return
	}

	switch {
	case v.pointer.IsKeyJustPressed(ebiten.KeyE):
		v.startExport()
	case v.pointer.IsKeyJustPressed(ebiten.KeyV):
		if cfg.Export.EyeSeparation == 0 {
			cfg.Export.EyeSeparation = stereoSep
		} else {
			cfg.Export.EyeSeparation = 0
		}
		v.setStatus("eye separation %.3f", cfg.Export.EyeSeparation)
	case v.pointer.IsKeyJustPressed(ebiten.KeyBracketLeft):
		v.setSpan(cfg.SpanDeg - spanStep)
	case v.pointer.IsKeyJustPressed(ebiten.KeyBracketRight):
		v.setSpan(cfg.SpanDeg + spanStep)
	case v.pointer.IsKeyJustPressed(ebiten.KeyUp):
		v.setTilt(tiltStep)
	case v.pointer.IsKeyJustPressed(ebiten.KeyDown):
		v.setTilt(-tiltStep)
	case v.pointer.IsKeyJustPressed(ebiten.KeyPageUp):
		v.setResolution(cfg.Resolution * 2)
	case v.pointer.IsKeyJustPressed(ebiten.KeyPageDown):
		v.setResolution(cfg.Resolution / 2)
	case v.pointer.IsKeyJustPressed(ebiten.KeyB) && cfg.Background != "":
		if err := v.app.SetBackground(cfg.Background); err != nil {
			v.setStatus("background: %v", err)
		}
	case v.pointer.IsKeyJustPressed(ebiten.KeyS) && v.configPath != "":
		if err := config.Save(v.configPath, cfg); err != nil {
			v.setStatus("config not saved: %v", err)
		} else {
			v.setStatus("config saved to %s", v.configPath)
		}
	case v.pointer.IsKeyJustPressed(ebiten.KeyP):
		if v.app.Driver.Running() {
			v.app.Driver.Suspend()
		} else {
			v.app.Driver.Resume()
		}
	}
}

func (v *Viewer) startExport() {
	s, err := v.app.StartExport(v.app.DirSink())
	if err != nil {
		v.setStatus("export not started: %v", err)
		return
	}
	v.session = s
}

func (v *Viewer) setSpan(deg float64) {
	if deg > 360 {
		deg = 360
	}
	if deg < spanStep {
		deg = spanStep
	}
	cfg := v.app.Config
	cfg.SpanDeg = deg
	if err := v.app.Camera.SetSpan(cfg.Span()); err != nil {
		v.setStatus("span: %v", err)
	}
}

func (v *Viewer) setTilt(deg float64) {
	cfg := v.app.Config
	cfg.Tilt.X += deg
	v.app.Camera.SetTilt(cfg.TiltEuler())
}

func (v *Viewer) setResolution(res int) {
	if res < 64 || res > 4096 {
		return
	}
	if err := v.app.SetResolution(res); err != nil {
		v.setStatus("resolution: %v", err)
	}
}

func (v *Viewer) setStatus(format string, args ...interface{}) {
	v.status = fmt.Sprintf(format, args...)
	v.statusTime = time.Now()
	log.Info().Msg(v.status)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	out := v.app.Renderer.Output()
	b := out.Bounds()
	if v.frame == nil || v.frame.Bounds().Dx() != b.Dx() || v.frame.Bounds().Dy() != b.Dy() {
		if v.frame != nil {
			v.frame.Deallocate()
		}
		v.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	v.frame.WritePixels(out.Pix)

	// Fit the square fisheye into the window
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	side := sw
	if sh < side {
		side = sh
	}
	scale := float64(side) / float64(b.Dx())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(sw-side)/2, float64(sh-side)/2)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(v.frame, op)

	v.drawHUD(screen)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	info := fmt.Sprintf(
		"%s | TPS: %.0f\n"+
			"[Drag] Orbit [Scroll] Zoom [R] Reset [P] Pause\n"+
			"[E] Export [V] Stereo [ ] ] Span [Up/Down] Tilt [PgUp/PgDn] Resolution [S] Save config",
		v.app, ebiten.ActualTPS(),
	)
	if v.app.Progress.Active {
		info += "\n" + v.app.Progress.String()
	} else if v.status != "" && time.Since(v.statusTime) < statusLife {
		info += "\n" + v.status
	}
	ebitenutil.DebugPrint(screen, info)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func main() {
	fs := flag.CommandLine
	flags := config.RegisterFlags(fs)
	if err := flags.Parse(fs, os.Args[1:]); err != nil {
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadOptional(flags.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", flags.ConfigPath).Msg("config load failed")
	}
	cfg.Resolve(flags)

	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle("Fisheye")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	v := NewViewer(a)
	v.configPath = flags.ConfigPath
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal().Err(err).Msg("viewer stopped")
	}
}
