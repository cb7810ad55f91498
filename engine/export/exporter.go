package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// Camera is the viewpoint exported each frame. Eyes are produced by moving it
// along its world right axis.
type Camera interface {
	WorldTransform() mgl64.Mat4
	Translate(offset mgl64.Vec3)
	Update(r render3d.Renderer, scene *render3d.Scene) error
	Render(r render3d.Renderer) error
}

// Loop is the animation loop paused for the length of an export
type Loop interface {
	Step(dt float64) error
	Running() bool
	Suspend()
	Resume()
}

// Exporter renders a fixed-rate frame sequence into a Sink
type Exporter struct {
	Renderer render3d.Renderer
	Scene    *render3d.Scene
	Camera   Camera
	Loop     Loop
	Sink     Sink
	Events   *core.EventBus
	Log      zerolog.Logger
}

// Session is an export in progress
type Session struct {
	Duration      float64
	FPS           int
	EyeSeparation float64
	FrameIndex    int
	FrameCount    int
	Eyes          []Eye

	exp    *Exporter
	enc    Encoder
	prefix string
	width  int
	dt     float64
	buf    bytes.Buffer

	written int
	done    bool
	err     error

	// resume is false when the loop was already paused at Start
	resume bool
}

// Start validates opts, opens the sink and suspends the live loop. Nothing is
// rendered and the loop is left alone if either of the first two fail.
func (e *Exporter) Start(opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	enc, err := EncoderFor(opts.Format)
	if err != nil {
		return nil, err
	}

	if e.Sink == nil {
		return nil, fmt.Errorf("export: no frame sink: %w", core.ErrPlatformUnsupported)
	}
	if err := e.Sink.Open(); err != nil {
		e.Log.Warn().Err(err).Msg("frame sink unavailable, export not started")
		return nil, err
	}

	s := &Session{
		Duration:      opts.Duration,
		FPS:           opts.FPS,
		EyeSeparation: opts.EyeSeparation,
		FrameCount:    opts.FrameCount(),
		Eyes:          Eyes(opts.EyeSeparation),
		exp:           e,
		enc:           enc,
		prefix:        opts.prefix(),
		dt:            opts.Delta(),
		resume:        e.Loop.Running(),
	}
	s.width = PadWidth(s.FrameCount)

	e.Loop.Suspend()
	e.Log.Info().
		Int("frames", s.FrameCount).
		Int("fps", s.FPS).
		Int("eyes", len(s.Eyes)).
		Str("format", enc.Ext()).
		Msg("export started")
	e.Events.Emit(core.Event{Type: core.EvtExportStarted, Payload: s})
	return s, nil
}

// Run exports the whole sequence, checking ctx before every frame and
// dispatching queued events after each one. The live loop is resumed on
// return whatever the outcome, unless it was paused before the export.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Session, error) {
	s, err := e.Start(opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		s.Close()
		e.Events.Dispatch()
	}()

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			s.fail(err)
			return s, err
		}
		err := s.Step()
		e.Events.Dispatch()
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// Done reports whether the session has finished or failed
func (s *Session) Done() bool { return s.done }

// Err is the error that stopped the session, if any
func (s *Session) Err() error { return s.err }

// Written is the number of files delivered to the sink
func (s *Session) Written() int { return s.written }

// Step animates and writes exactly one frame, every eye included. The loop is
// resumed after the last frame or on the first error if it was running when
// the session started.
func (s *Session) Step() error {
	if s.done {
		return s.err
	}
	e := s.exp

	if err := e.Loop.Step(s.dt); err != nil {
		return s.fail(fmt.Errorf("export frame %d: %w", s.FrameIndex, err))
	}

	for _, eye := range s.Eyes {
		if err := s.renderEye(eye); err != nil {
			return s.fail(err)
		}
	}

	s.FrameIndex++
	if s.FrameIndex >= s.FrameCount {
		s.finish()
	}
	return nil
}

func (s *Session) renderEye(eye Eye) error {
	e := s.exp

	offset := rightAxis(e.Camera.WorldTransform()).Mul(eye.Offset)
	e.Camera.Translate(offset)
	err := s.renderCurrent()
	e.Camera.Translate(offset.Mul(-1))
	if err != nil {
		return fmt.Errorf("export frame %d: %w: %w", s.FrameIndex, core.ErrRenderFailure, err)
	}

	s.buf.Reset()
	if err := s.enc.Encode(&s.buf, e.Renderer.Snapshot()); err != nil {
		return fmt.Errorf("export frame %d: encode: %w", s.FrameIndex, err)
	}

	name := FrameName(s.prefix, s.FrameIndex, s.width, eye.Label, s.enc.Ext())
	if err := e.Sink.WriteFrame(name, s.buf.Bytes()); err != nil {
		return fmt.Errorf("export frame %d: write %s: %w", s.FrameIndex, name, err)
	}
	s.written++

	e.Log.Debug().Int("frame", s.FrameIndex).Str("file", name).Msg("frame written")
	e.Events.Emit(core.Event{Type: core.EvtExportFrameWritten, Frame: uint64(s.FrameIndex), Payload: name})
	return nil
}

func (s *Session) renderCurrent() error {
	e := s.exp
	if err := e.Camera.Update(e.Renderer, e.Scene); err != nil {
		return err
	}
	return e.Camera.Render(e.Renderer)
}

// Close ends the session early and resumes the live loop. Closing a finished
// session does nothing.
func (s *Session) Close() {
	if s.done {
		return
	}
	s.fail(context.Canceled)
}

func (s *Session) fail(err error) error {
	s.err = err
	s.exp.Log.Error().Err(err).Int("frame", s.FrameIndex).Int("written", s.written).Msg("export aborted")
	s.exp.Events.Emit(core.Event{Type: core.EvtExportFailed, Frame: uint64(s.FrameIndex), Payload: err})
	s.end()
	return err
}

func (s *Session) finish() {
	s.exp.Log.Info().Int("frames", s.FrameCount).Int("written", s.written).Msg("export finished")
	s.exp.Events.Emit(core.Event{Type: core.EvtExportFinished, Frame: uint64(s.FrameIndex), Payload: s.written})
	s.end()
}

func (s *Session) end() {
	s.done = true
	if s.resume {
		s.exp.Loop.Resume()
	}
}

// rightAxis is the normalized local +X axis of a world transform
func rightAxis(m mgl64.Mat4) mgl64.Vec3 {
	r := mgl64.Vec3{m[0], m[1], m[2]}
	if l := r.Len(); l > 0 {
		return r.Mul(1 / l)
	}
	return render3d.AxisX
}
