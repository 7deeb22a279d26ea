package software

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/galaxy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events  []string
	last    core.PointerEvent
	wheel   float64
	resized int
}

func (r *recordingSink) PointerDown(ev core.PointerEvent) {
	r.events = append(r.events, "down")
	r.last = ev
}

func (r *recordingSink) PointerMove(ev core.PointerEvent) {
	r.events = append(r.events, "move")
	r.last = ev
}

func (r *recordingSink) PointerUp(int)       { r.events = append(r.events, "up") }
func (r *recordingSink) Wheel(delta float64) { r.wheel += delta }
func (r *recordingSink) DoubleClick()        { r.events = append(r.events, "toggle") }
func (r *recordingSink) Reset()              { r.events = append(r.events, "reset") }
func (r *recordingSink) Resized()            { r.resized++ }

func newSimPresenter(t *testing.T, cols, rows int) (*TerminalPresenter, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	tp, err := NewTerminalPresenter(screen)
	require.NoError(t, err)
	screen.SetSize(cols, rows)
	t.Cleanup(func() { tp.Close() })
	return tp, screen
}

func TestTerminalPresenter_HalfBlocks(t *testing.T) {
	tp, screen := newSimPresenter(t, 4, 2)
	w, h := tp.Size()
	require.Equal(t, 4, w)
	require.Equal(t, 4, h)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 1, color.RGBA{G: 255, A: 255})
	require.NoError(t, tp.Present(img))

	cells, cw, _ := screen.GetContents()
	cell := cells[1]
	require.NotEmpty(t, cell.Runes)
	assert.Equal(t, halfBlock, cell.Runes[0])
	fg, bg, _ := cell.Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(255, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 255, 0), bg)

	other := cells[cw+2]
	fg, bg, _ = other.Style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), bg)
}

func TestTerminalPresenter_MouseDrag(t *testing.T) {
	tp, screen := newSimPresenter(t, 20, 10)
	sink := &recordingSink{}

	screen.InjectMouse(2, 3, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(5, 3, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(5, 3, tcell.ButtonNone, tcell.ModNone)
	screen.InjectMouse(5, 3, tcell.WheelDown, tcell.ModNone)
	assert.True(t, tp.Poll(sink))

	assert.Equal(t, []string{"down", "move", "move", "up"}, sink.events)
	assert.Equal(t, float64(5*cellPixelsX), sink.last.X)
	assert.Equal(t, float64(3*cellPixelsY), sink.last.Y)
	assert.True(t, sink.last.Primary)
	assert.Equal(t, 1.0, sink.wheel)
}

func TestTerminalPresenter_Keys(t *testing.T) {
	tp, screen := newSimPresenter(t, 20, 10)
	sink := &recordingSink{}

	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	assert.True(t, tp.Poll(sink))
	assert.Equal(t, []string{"toggle"}, sink.events)
	assert.Equal(t, -1.0, sink.wheel)

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.False(t, tp.Poll(sink))
}

func TestTerminalPresenter_Closed(t *testing.T) {
	tp, _ := newSimPresenter(t, 4, 2)
	require.NoError(t, tp.Close())
	require.NoError(t, tp.Close())
	assert.ErrorIs(t, tp.Present(image.NewRGBA(image.Rect(0, 0, 4, 4))), ErrPresenterClosed)
	assert.False(t, tp.Poll(&recordingSink{}))
}

func TestImagePresenter_FrameLimitAndPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxy.png")
	ip := NewImagePresenter(8, 4)
	ip.FrameLimit = 2
	ip.Path = path

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.SetRGBA(3, 2, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	assert.True(t, ip.Poll(nil))
	require.NoError(t, ip.Present(img))
	assert.True(t, ip.Poll(nil))
	require.NoError(t, ip.Present(img))
	assert.False(t, ip.Poll(nil))
	assert.Equal(t, 2, ip.Frames())

	img.SetRGBA(3, 2, color.RGBA{})
	assert.Equal(t, color.RGBA{R: 9, G: 8, B: 7, A: 255}, ip.Last().RGBAAt(3, 2), "frames are copied")

	require.NoError(t, ip.Close())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.ErrorIs(t, ip.Present(img), ErrPresenterClosed)
}
