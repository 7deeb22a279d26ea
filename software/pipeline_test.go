package software

import (
	"context"
	"testing"
	"time"

	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
	"github.com/gekko3d/galaxy/logging"
	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, presenter Presenter) *Pipeline {
	t.Helper()
	vp := core.NewViewport(1280, 720, 1, "", nil)
	params := core.DefaultGalaxyParameters(vp)
	params.Count = 3000
	p, err := New(Config{Viewport: vp, Params: &params, Seed: 1, Presenter: presenter, PointBudget: 1000})
	require.NoError(t, err)
	return p
}

func TestPipeline_RendersFrames(t *testing.T) {
	ip := NewImagePresenter(96, 54)
	p := newTestPipeline(t, ip)
	loop := frame.NewLoop()
	p.Start(loop)

	t0 := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		require.True(t, loop.Step(t0.Add(time.Duration(i)*16*time.Millisecond)))
	}
	assert.Equal(t, uint64(3), p.Frames())
	assert.Equal(t, 3, ip.Frames())
	assert.Greater(t, lit(ip.Last()), 0)
	assert.True(t, loop.Pending())
	assert.False(t, p.RequestTiltPermission())
	assert.Nil(t, p.Scene().Stars)
}

func TestPipeline_DebugMountsLeaveRasterLoggerAlone(t *testing.T) {
	before := gg.Logger()
	vp := core.NewViewport(320, 180, 1, "", nil)
	params := core.DefaultGalaxyParameters(vp)
	params.Count = 500
	for i := 0; i < 2; i++ {
		p, err := New(Config{
			Viewport:  vp,
			Params:    &params,
			Presenter: NewImagePresenter(32, 18),
			Logger:    logging.NewDefaultLogger("software", true),
		})
		require.NoError(t, err)
		p.Dispose()
	}
	assert.Same(t, before, gg.Logger())
}

func TestPipeline_NoDrawAfterDispose(t *testing.T) {
	ip := NewImagePresenter(32, 18)
	p := newTestPipeline(t, ip)
	loop := frame.NewLoop()
	p.Start(loop)
	loop.Step(time.Now())

	p.Dispose()
	p.Dispose()
	assert.True(t, loop.Step(time.Now()), "the already requested callback still runs")
	assert.False(t, loop.Pending())
	assert.Equal(t, uint64(1), p.Frames())
	assert.Equal(t, 1, ip.Frames())
	assert.False(t, p.Poll())
}

func TestPipeline_RunUntilPresenterCloses(t *testing.T) {
	ip := NewImagePresenter(32, 18)
	ip.FrameLimit = 4
	p := newTestPipeline(t, ip)
	loop := frame.NewLoop()
	p.Start(loop)

	require.NoError(t, loop.Run(context.Background(), p.Poll, time.Millisecond))
	assert.Equal(t, 4, ip.Frames())
}

func TestPipeline_RegenerateAndResize(t *testing.T) {
	ip := NewImagePresenter(32, 18)
	p := newTestPipeline(t, ip)

	params := p.Scene().Params
	params.Count = 500
	require.NoError(t, p.Regenerate(params))
	assert.Equal(t, 500, p.Scene().Galaxy.Len())

	params.Branches = 0
	assert.ErrorIs(t, p.Regenerate(params), core.ErrInvalidParameters)

	ip.SetSize(64, 36)
	p.Resize()
	w, h := p.raster.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 36, h)
}

func TestPipeline_DragMovesCamera(t *testing.T) {
	p := newTestPipeline(t, NewImagePresenter(32, 18))
	yaw := p.Scene().Camera.Yaw()
	p.sink.PointerDown(core.PointerEvent{ID: 0, X: 10, Y: 10, Primary: true})
	p.sink.PointerMove(core.PointerEvent{ID: 0, X: 40, Y: 10})
	p.sink.PointerUp(0)
	assert.NotEqual(t, yaw, p.Scene().Camera.Yaw())
}
