package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal is shared by the fakes so ordering across them can be checked
type journal struct {
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

type fakeLoop struct {
	j       *journal
	steps   int
	stepErr error
	onStep  func()
	paused  bool
}

func (l *fakeLoop) Step(dt float64) error {
	l.steps++
	l.j.add("step")
	if l.onStep != nil {
		l.onStep()
	}
	return l.stepErr
}

func (l *fakeLoop) Running() bool { return !l.paused }

func (l *fakeLoop) Suspend() {
	l.paused = true
	l.j.add("suspend")
}

func (l *fakeLoop) Resume() {
	l.paused = false
	l.j.add("resume")
}

type fakeCamera struct {
	render3d.Pose
	j         *journal
	seen      []mgl64.Vec3
	renderErr error
}

func (c *fakeCamera) Update(render3d.Renderer, *render3d.Scene) error {
	c.seen = append(c.seen, c.Position)
	return nil
}

func (c *fakeCamera) Render(render3d.Renderer) error {
	c.j.add("render")
	return c.renderErr
}

type memSink struct {
	j        *journal
	names    []string
	openErr  error
	failAt   int
	writeErr error
}

func (s *memSink) Open() error {
	s.j.add("open")
	return s.openErr
}

func (s *memSink) WriteFrame(name string, data []byte) error {
	if s.writeErr != nil && len(s.names) == s.failAt {
		return s.writeErr
	}
	s.names = append(s.names, name)
	s.j.add("write %s", name)
	return nil
}

type fixture struct {
	j      *journal
	loop   *fakeLoop
	cam    *fakeCamera
	sink   *memSink
	exp    *Exporter
	events []core.EventType
}

func newFixture() *fixture {
	j := &journal{}
	f := &fixture{
		j:    j,
		loop: &fakeLoop{j: j},
		cam:  &fakeCamera{Pose: render3d.NewPose(mgl64.Vec3{0, 0, 1}), j: j},
		sink: &memSink{j: j},
	}
	bus := core.NewEventBus()
	for _, et := range []core.EventType{core.EvtExportStarted, core.EvtExportFinished, core.EvtExportFailed} {
		bus.On(et, func(e core.Event) { f.events = append(f.events, e.Type) })
	}
	f.exp = &Exporter{
		Renderer: render3d.NewSoftRenderer(2, 2),
		Scene:    render3d.NewScene(),
		Camera:   f.cam,
		Loop:     f.loop,
		Sink:     f.sink,
		Events:   bus,
	}
	return f
}

func opts(duration float64, fps int, sep float64) Options {
	o := DefaultOptions()
	o.Duration = duration
	o.FPS = fps
	o.EyeSeparation = sep
	return o
}

func TestMonoSequence(t *testing.T) {
	f := newFixture()
	s, err := f.exp.Run(context.Background(), opts(0.5, 60, 0))
	require.NoError(t, err)

	require.Len(t, f.sink.names, 30)
	assert.Equal(t, 30, f.loop.steps)
	assert.Equal(t, "frame.00.png", f.sink.names[0])
	assert.Equal(t, "frame.29.png", f.sink.names[29])
	assert.Equal(t, 30, s.Written())
	assert.True(t, s.Done())
	assert.NoError(t, s.Err())
	assert.Equal(t, []Eye{{}}, s.Eyes)

	f.exp.Events.Dispatch()
	assert.Equal(t, []core.EventType{core.EvtExportStarted, core.EvtExportFinished}, f.events)
}

func TestStereoSequence(t *testing.T) {
	f := newFixture()
	_, err := f.exp.Run(context.Background(), opts(0.5, 60, 0.064))
	require.NoError(t, err)

	require.Len(t, f.sink.names, 60)
	assert.Equal(t, 30, f.loop.steps, "one animation step per frame, shared by both eyes")
	assert.Equal(t, []string{"frame.00.left.png", "frame.00.right.png", "frame.01.left.png"}, f.sink.names[:3])
	assert.Equal(t, "frame.29.right.png", f.sink.names[59])
}

func TestLoopSuspendedAroundExport(t *testing.T) {
	f := newFixture()
	_, err := f.exp.Run(context.Background(), opts(0.1, 20, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"open", "suspend",
		"step", "render", "write frame.0.png",
		"step", "render", "write frame.1.png",
		"resume",
	}, f.j.entries)
}

func TestPadding(t *testing.T) {
	assert.Equal(t, 2, PadWidth(100))
	assert.Equal(t, 1, PadWidth(5))
	assert.Equal(t, 1, PadWidth(10))
	assert.Equal(t, 2, PadWidth(11))
	assert.Equal(t, 3, PadWidth(101))
	assert.Equal(t, 1, PadWidth(1))

	assert.Equal(t, "seq.007.right.webp", FrameName("seq", 7, 3, "right", "webp"))
	assert.Equal(t, "seq.12.png", FrameName("seq", 12, 1, "", "png"))

	f := newFixture()
	_, err := f.exp.Run(context.Background(), opts(1, 5, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"frame.0.png", "frame.1.png", "frame.2.png", "frame.3.png", "frame.4.png"}, f.sink.names)
}

func TestFrameCountFloors(t *testing.T) {
	assert.Equal(t, 30, opts(0.5, 60, 0).FrameCount())
	assert.Equal(t, 3, opts(0.1, 30, 0).FrameCount())
	assert.Equal(t, 2, opts(0.09, 30, 0).FrameCount())
	assert.InDelta(t, 1.0/60, opts(0.5, 60, 0).Delta(), 1e-15)
}

func TestInvalidOptionsRejectedBeforeAnything(t *testing.T) {
	for _, o := range []Options{
		opts(0, 60, 0),
		opts(-1, 60, 0),
		opts(math.NaN(), 60, 0),
		opts(1, 0, 0),
		opts(1, 60, -0.1),
		opts(1, 60, math.NaN()),
		opts(1, 60, math.Inf(1)),
		opts(1, 60, math.Inf(-1)),
		opts(0.001, 60, 0),
		{Duration: 1, FPS: 1, Format: "gif"},
	} {
		f := newFixture()
		_, err := f.exp.Run(context.Background(), o)
		assert.ErrorIs(t, err, core.ErrInvalidConfiguration, "%+v", o)
		assert.Empty(t, f.j.entries)
	}
}

func TestSinkOpenFailureLeavesLoopRunning(t *testing.T) {
	f := newFixture()
	f.sink.openErr = fmt.Errorf("picker dismissed: %w", core.ErrPlatformUnsupported)

	_, err := f.exp.Run(context.Background(), opts(0.5, 60, 0))
	assert.ErrorIs(t, err, core.ErrPlatformUnsupported)
	assert.Equal(t, []string{"open"}, f.j.entries)
}

func TestWriteErrorHaltsSequence(t *testing.T) {
	f := newFixture()
	f.sink.failAt = 3
	f.sink.writeErr = errors.New("disk full")

	s, err := f.exp.Run(context.Background(), opts(0.5, 60, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, f.sink.writeErr)
	assert.Len(t, f.sink.names, 3, "frames already written are kept")
	assert.Equal(t, 4, f.loop.steps)
	assert.Equal(t, "resume", f.j.entries[len(f.j.entries)-1])
	assert.Equal(t, err, s.Err())

	f.exp.Events.Dispatch()
	assert.Equal(t, []core.EventType{core.EvtExportStarted, core.EvtExportFailed}, f.events)
}

func TestRenderErrorWrapped(t *testing.T) {
	f := newFixture()
	f.cam.renderErr = errors.New("device lost")

	_, err := f.exp.Run(context.Background(), opts(0.5, 60, 0))
	assert.ErrorIs(t, err, core.ErrRenderFailure)
	assert.Empty(t, f.sink.names)
	assert.Equal(t, 1, f.loop.steps)
}

func TestCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.loop.onStep = func() {
		if f.loop.steps == 2 {
			cancel()
		}
	}

	_, err := f.exp.Run(ctx, opts(0.5, 60, 0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.sink.names, 2)
	assert.Equal(t, "resume", f.j.entries[len(f.j.entries)-1])
}

func TestEyeOffsetsFollowCameraAndRoundTrip(t *testing.T) {
	f := newFixture()
	start := mgl64.Vec3{0.1, 1.7, -3.3}
	f.cam.Position = start

	// Turn the camera 90 degrees left every frame; right axis goes +X, -Z, -X
	yaw := mgl64.QuatRotate(math.Pi/2, render3d.AxisY)
	f.loop.onStep = func() {
		if f.loop.steps > 1 {
			f.cam.Orientation = yaw.Mul(f.cam.Orientation)
		}
	}

	const sep = 0.5
	_, err := f.exp.Run(context.Background(), opts(3, 1, sep))
	require.NoError(t, err)
	require.Len(t, f.cam.seen, 6)

	rights := []mgl64.Vec3{{1, 0, 0}, {0, 0, -1}, {-1, 0, 0}}
	for i, r := range rights {
		left, right := f.cam.seen[2*i], f.cam.seen[2*i+1]
		assert.True(t, left.ApproxEqualThreshold(start.Sub(r.Mul(sep/2)), 1e-9), "frame %d left %v", i, left)
		assert.True(t, right.ApproxEqualThreshold(start.Add(r.Mul(sep/2)), 1e-9), "frame %d right %v", i, right)
	}
	assert.True(t, f.cam.Position.ApproxEqualThreshold(start, 1e-12), "camera returned to %v", f.cam.Position)
}

func TestSessionStepByStep(t *testing.T) {
	f := newFixture()
	s, err := f.exp.Start(opts(0.05, 60, 0.1))
	require.NoError(t, err)
	assert.Equal(t, 3, s.FrameCount)

	for !s.Done() {
		require.NoError(t, s.Step())
	}
	assert.Equal(t, 3, s.FrameIndex)
	assert.Len(t, f.sink.names, 6)
	assert.NoError(t, s.Step(), "stepping a finished session is a no-op")
	assert.Len(t, f.sink.names, 6)

	s.Close()
	resumes := 0
	for _, e := range f.j.entries {
		if e == "resume" {
			resumes++
		}
	}
	assert.Equal(t, 1, resumes)
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := newFixture()
	f.exp.Sink = MultiSink{&DirSink{Dir: dir}, f.sink}

	o := opts(0.1, 20, 0)
	o.Prefix = "fish"
	_, err := f.exp.Run(context.Background(), o)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "fish.1.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, []string{"fish.0.png", "fish.1.png"}, f.sink.names)
}

func TestDirSinkOpenFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.ErrorIs(t, (&DirSink{Dir: file}).Open(), core.ErrPlatformUnsupported)
	assert.ErrorIs(t, (&DirSink{}).Open(), core.ErrPlatformUnsupported)
}

func TestWebPEncoder(t *testing.T) {
	enc, err := EncoderFor(FormatWebP)
	require.NoError(t, err)
	assert.Equal(t, "webp", enc.Ext())

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, render3d.NewSoftRenderer(4, 4).Snapshot()))
	assert.Equal(t, "RIFF", buf.String()[:4])
	assert.Equal(t, "WEBP", buf.String()[8:12])
}

func TestPausedLoopStaysPaused(t *testing.T) {
	f := newFixture()
	f.loop.paused = true

	_, err := f.exp.Run(context.Background(), opts(0.1, 20, 0))
	require.NoError(t, err)
	assert.NotContains(t, f.j.entries, "resume")
	assert.False(t, f.loop.Running())

	f = newFixture()
	f.loop.paused = true
	s, err := f.exp.Start(opts(0.1, 20, 0))
	require.NoError(t, err)
	s.Close()
	assert.NotContains(t, f.j.entries, "resume")
}

func TestRunDispatchesEachFrame(t *testing.T) {
	f := newFixture()
	var written []string
	f.exp.Events.On(core.EvtExportFrameWritten, func(e core.Event) {
		written = append(written, e.Payload.(string))
		// Handlers run between frames, not after the whole run
		assert.Len(t, f.sink.names, len(written))
	})

	_, err := f.exp.Run(context.Background(), opts(0.1, 30, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"frame.0.png", "frame.1.png", "frame.2.png"}, written)
	assert.Equal(t, 0, f.exp.Events.Pending())
	assert.Equal(t, []core.EventType{core.EvtExportStarted, core.EvtExportFinished}, f.events)
}

func TestStartRejectsUnknownFormat(t *testing.T) {
	f := newFixture()
	o := opts(0.1, 20, 0)
	o.Format = "tiff"
	_, err := f.exp.Start(o)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
	assert.Empty(t, f.j.entries)
}
