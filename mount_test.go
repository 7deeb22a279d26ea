package galaxy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
	"github.com/gekko3d/galaxy/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyPipeline struct {
	loop     *frame.Loop
	open     bool
	frames   int
	disposed int
	resized  int
	tilt     bool
	params   []core.GalaxyParameters
}

func newSpy() *spyPipeline { return &spyPipeline{open: true} }

func (s *spyPipeline) Start(l *frame.Loop) {
	s.loop = l
	l.RequestFrame(s.frame)
}

func (s *spyPipeline) frame(time.Time) {
	s.frames++
	s.loop.RequestFrame(s.frame)
}

func (s *spyPipeline) Poll() bool { return s.open }
func (s *spyPipeline) Resize() { s.resized++ }
func (s *spyPipeline) RequestTiltPermission() bool { return s.tilt }
func (s *spyPipeline) FrameInterval() time.Duration { return 0 }
func (s *spyPipeline) Dispose() { s.disposed++ }

func (s *spyPipeline) Regenerate(p core.GalaxyParameters) error {
	s.params = append(s.params, p)
	return nil
}

func spyRung(s *spyPipeline) Rung {
	return Rung{Name: "spy", Kind: PipelineAccelerated, Open: func(Setup) (Pipeline, error) {
		return s, nil
	}}
}

func failingRung(name string) Rung {
	return Rung{Name: name, Kind: PipelineAccelerated, Open: func(Setup) (Pipeline, error) {
		return nil, errors.New("no adapter")
	}}
}

func panickingRung() Rung {
	return Rung{Name: "panics", Kind: PipelineAccelerated, Open: func(Setup) (Pipeline, error) {
		panic("driver exploded")
	}}
}

var testContainer = Container{Title: "test", Width: 320, Height: 240, PixelRatio: 1}

func testOptions(rungs ...Rung) Options {
	vp := core.NewViewport(testContainer.Width, testContainer.Height, 1, "", nil)
	params := core.DefaultGalaxyParameters(vp)
	params.Count = 2000
	opts := DefaultOptions()
	opts.Params = &params
	opts.Seed = 7
	opts.Logger = logging.NewNopLogger()
	opts.Probe = &Probe{Rungs: rungs}
	return opts
}

func TestMountFallsThroughToSoftware(t *testing.T) {
	h, err := Mount(testContainer, testOptions(failingRung("gpu"), panickingRung(), ImageRung()))
	require.NoError(t, err)
	defer h.Dispose()

	assert.Equal(t, PipelineSoftware, h.Kind())
	assert.Equal(t, "image", h.Rung())
	assert.True(t, h.Step(time.Now()))
}

func TestMountPrefersFirstWorkingRung(t *testing.T) {
	spy := newSpy()
	h, err := Mount(testContainer, testOptions(failingRung("gpu"), spyRung(spy), ImageRung()))
	require.NoError(t, err)
	defer h.Dispose()

	assert.Equal(t, PipelineAccelerated, h.Kind())
	assert.Equal(t, "spy", h.Rung())
	assert.NotNil(t, spy.loop, "first frame requested on mount")
}

func TestMountFailsWhenEveryRungFails(t *testing.T) {
	_, err := Mount(testContainer, testOptions(failingRung("a"), panickingRung()))
	require.Error(t, err)
}

func TestMountRejectsInvalidContainer(t *testing.T) {
	for _, c := range []Container{{}, {Width: 100}, {Width: -1, Height: 10}} {
		_, err := Mount(c, testOptions(ImageRung()))
		assert.ErrorIs(t, err, ErrInvalidContainer)
	}
}

func TestMountRejectsInvalidParams(t *testing.T) {
	opts := testOptions(ImageRung())
	opts.Params.Count = 0
	_, err := Mount(testContainer, opts)
	assert.ErrorIs(t, err, core.ErrInvalidParameters)
}

func TestDisposeIsIdempotent(t *testing.T) {
	spy := newSpy()
	h, err := Mount(testContainer, testOptions(spyRung(spy)))
	require.NoError(t, err)

	h.Dispose()
	h.Dispose()
	assert.Equal(t, 1, spy.disposed)
	assert.True(t, h.Disposed())

	var nilHandle *Handle
	assert.NotPanics(t, nilHandle.Dispose)
}

func TestNoFramesAfterDispose(t *testing.T) {
	spy := newSpy()
	h, err := Mount(testContainer, testOptions(spyRung(spy)))
	require.NoError(t, err)

	now := time.Now()
	require.True(t, h.Step(now))
	require.True(t, h.Step(now.Add(16*time.Millisecond)))
	h.Dispose()

	assert.False(t, h.Step(now.Add(32*time.Millisecond)))
	assert.Equal(t, 2, spy.frames)
	assert.False(t, h.RequestTiltPermission())
	h.Resize()
	assert.Zero(t, spy.resized)
}

func TestStepDisposesWhenHostCloses(t *testing.T) {
	spy := newSpy()
	h, err := Mount(testContainer, testOptions(spyRung(spy)))
	require.NoError(t, err)

	spy.open = false
	assert.False(t, h.Step(time.Now()))
	assert.True(t, h.Disposed())
	assert.Equal(t, 1, spy.disposed)
}

func TestHandlesAreIndependent(t *testing.T) {
	a, b := newSpy(), newSpy()
	ha, err := Mount(testContainer, testOptions(spyRung(a)))
	require.NoError(t, err)
	hb, err := Mount(testContainer, testOptions(spyRung(b)))
	require.NoError(t, err)
	defer hb.Dispose()

	assert.NotEqual(t, ha.ID(), hb.ID())
	ha.Dispose()

	assert.True(t, hb.Step(time.Now()))
	assert.Equal(t, 1, b.frames)
	assert.Zero(t, b.disposed)
	assert.Equal(t, 1, a.disposed)
}

func TestRegenerateValidatesBeforeForwarding(t *testing.T) {
	spy := newSpy()
	opts := testOptions(spyRung(spy))
	h, err := Mount(testContainer, opts)
	require.NoError(t, err)
	defer h.Dispose()

	bad := *opts.Params
	bad.Branches = 0
	assert.ErrorIs(t, h.Regenerate(bad), core.ErrInvalidParameters)
	assert.Empty(t, spy.params)

	good := *opts.Params
	good.Branches = 3
	require.NoError(t, h.Regenerate(good))
	require.Len(t, spy.params, 1)
	assert.Equal(t, 3, spy.params[0].Branches)
}

func TestRequestTiltPermissionForwards(t *testing.T) {
	spy := newSpy()
	spy.tilt = true
	h, err := Mount(testContainer, testOptions(spyRung(spy)))
	require.NoError(t, err)
	defer h.Dispose()

	assert.True(t, h.RequestTiltPermission())
}

func TestRunHonorsContext(t *testing.T) {
	spy := newSpy()
	h, err := Mount(testContainer, testOptions(spyRung(spy)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)
	assert.True(t, h.Disposed())
	assert.Equal(t, 1, spy.disposed)
}

func TestRunWritesSnapshotAtFrameLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxy.png")
	opts := testOptions(ImageRung())
	opts.Snapshot = path
	opts.SnapshotFrames = 3

	h, err := Mount(testContainer, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, h.Run(ctx))
	assert.True(t, h.Disposed())
	assert.FileExists(t, path)
}

func TestMountLogsUnderHandlePrefix(t *testing.T) {
	var buf bytes.Buffer
	opts := testOptions(failingRung("gpu"), ImageRung())
	opts.Logger = logging.NewLoggerTo("galaxy", false, log.New(&buf, "", 0))

	h, err := Mount(testContainer, opts)
	require.NoError(t, err)
	defer h.Dispose()

	out := buf.String()
	assert.Contains(t, out, "[galaxy/"+h.ID().String()[:8]+"]")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "Pipeline selected: software (image)")
}

func TestTerminalMountKeepsDefaultLoggerOffStdout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	opts := testOptions(TerminalRung())
	opts.Logger = nil
	opts.Screen = tcell.NewSimulationScreen("")
	h, err := Mount(testContainer, opts)
	os.Stdout = stdout
	require.NoError(t, err)
	assert.Equal(t, "terminal", h.Rung())
	assert.True(t, h.Step(time.Now()))
	h.Dispose()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, string(out))
}
