package core

import (
	"fmt"

	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/rs/zerolog"
)

// Controls advance user input (orbit, keyboard) by dt before the camera update
type Controls interface {
	Update(dt float64)
}

// Camera is the viewpoint the driver synchronizes and renders every frame
type Camera interface {
	Update(r render3d.Renderer, scene *render3d.Scene) error
	Render(r render3d.Renderer) error
}

// Animator mutates the scene for an absolute time in seconds
type Animator func(elapsed float64)

// Mixer advances per-frame state after the frame is rendered
type Mixer func(dt float64)

// Driver runs the per-frame sequence: animators, controls, camera update,
// render, mixers, stats. It owns the live/suspended state of the loop.
type Driver struct {
	Clock    *Clock
	Renderer render3d.Renderer
	Scene    *render3d.Scene
	Camera   Camera
	Controls Controls
	Stats    *Stats
	Events   *EventBus
	Log      zerolog.Logger

	Animators []Animator
	Mixers    []Mixer

	elapsed float64
	running bool
}

// NewDriver wires a driver with a live clock; the loop starts running
func NewDriver(r render3d.Renderer, scene *render3d.Scene, cam Camera) *Driver {
	return &Driver{
		Clock:    NewClock(),
		Renderer: r,
		Scene:    scene,
		Camera:   cam,
		Stats:    NewStats(),
		Log:      zerolog.Nop(),
		running:  true,
	}
}

// AddAnimator registers a scene mutation run first each frame
func (d *Driver) AddAnimator(a Animator) { d.Animators = append(d.Animators, a) }

// AddMixer registers per-frame state advanced after render
func (d *Driver) AddMixer(m Mixer) { d.Mixers = append(d.Mixers, m) }

// Elapsed returns total animated time in seconds
func (d *Driver) Elapsed() float64 { return d.elapsed }

// Running reports whether the live loop fires frames
func (d *Driver) Running() bool { return d.running }

// Tick polls the clock and animates one live frame. It does nothing while the
// loop is suspended and reports whether a frame was produced.
func (d *Driver) Tick() (bool, error) {
	if !d.running {
		return false, nil
	}
	if err := d.Animate(d.Clock.Delta()); err != nil {
		return false, err
	}
	return true, nil
}

// Step animates one frame with a fixed delta. The clock is driven for that
// frame only and is back on wall time, with a fresh origin, when Step returns.
func (d *Driver) Step(dt float64) error {
	d.Clock.Drive(dt)
	defer d.Clock.Release()
	return d.Animate(d.Clock.Delta())
}

// Suspend stops live frames; Step still works
func (d *Driver) Suspend() {
	if !d.running {
		return
	}
	d.running = false
	d.Log.Debug().Float64("elapsed", d.elapsed).Msg("animation loop suspended")
	d.Events.Emit(Event{Type: EvtLoopSuspended, Frame: d.Stats.Frames})
}

// Resume restarts live frames from a fresh wall-clock origin
func (d *Driver) Resume() {
	d.Clock.Release()
	if d.running {
		return
	}
	d.running = true
	d.Log.Debug().Float64("elapsed", d.elapsed).Msg("animation loop resumed")
	d.Events.Emit(Event{Type: EvtLoopResumed, Frame: d.Stats.Frames})
}

// Animate runs the frame sequence for dt seconds.
// Controls run before the camera update so the pose reflects the latest input,
// and the camera update runs before render so the cube map is current.
func (d *Driver) Animate(dt float64) error {
	d.elapsed += dt

	for _, a := range d.Animators {
		a(d.elapsed)
	}

	if d.Controls != nil {
		d.Controls.Update(dt)
	}

	if d.Camera != nil {
		if err := d.Camera.Update(d.Renderer, d.Scene); err != nil {
			return fmt.Errorf("camera update: %w: %w", ErrRenderFailure, err)
		}
		if err := d.Camera.Render(d.Renderer); err != nil {
			return fmt.Errorf("render: %w: %w", ErrRenderFailure, err)
		}
	}

	for _, m := range d.Mixers {
		m(dt)
	}

	d.Stats.Update(dt)
	d.Events.Emit(Event{Type: EvtFrameRendered, Frame: d.Stats.Frames, Payload: dt})
	return nil
}
