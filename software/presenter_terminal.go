package software

import (
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/galaxy/core"
)

// Cell metrics used to turn terminal cells into pointer pixels, so drag
// sensitivity feels like a window of similar size.
const (
	cellPixelsX = 8
	cellPixelsY = 16
)

const halfBlock = '▀'

// TerminalPresenter shows frames with upper half blocks: each cell carries
// two vertically stacked pixels, the top as foreground and the bottom as
// background.
type TerminalPresenter struct {
	screen tcell.Screen
	held   bool
	closed bool
}

// NewTerminalPresenter takes ownership of screen, or opens the controlling
// terminal when screen is nil.
func NewTerminalPresenter(screen tcell.Screen) (*TerminalPresenter, error) {
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()
	return &TerminalPresenter{screen: screen}, nil
}

func (t *TerminalPresenter) Size() (int, int) {
	cols, rows := t.screen.Size()
	return cols, rows * 2
}

func (t *TerminalPresenter) Present(img *image.RGBA) error {
	if t.closed {
		return ErrPresenterClosed
	}
	cols, rows := t.screen.Size()
	b := img.Bounds()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := img.RGBAAt(b.Min.X+x, b.Min.Y+2*y)
			bottom := img.RGBAAt(b.Min.X+x, b.Min.Y+2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *TerminalPresenter) Poll(sink InputSink) bool {
	if t.closed {
		return false
	}
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return false
		case *tcell.EventResize:
			t.screen.Sync()
			sink.Resized()
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
				return false
			case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
				return false
			case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
				sink.DoubleClick()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == '+' || ev.Rune() == '='):
				sink.Wheel(-1)
			case ev.Key() == tcell.KeyRune && ev.Rune() == '-':
				sink.Wheel(1)
			}
		case *tcell.EventMouse:
			t.mouse(ev, sink)
		case *tcell.EventFocus:
			if !ev.Focused {
				t.held = false
				sink.Reset()
			}
		}
	}
	return true
}

func (t *TerminalPresenter) mouse(ev *tcell.EventMouse, sink InputSink) {
	cx, cy := ev.Position()
	pe := core.PointerEvent{
		ID:      0,
		Kind:    core.PointerMouse,
		X:       float64(cx * cellPixelsX),
		Y:       float64(cy * cellPixelsY),
		Primary: true,
		At:      ev.When(),
	}
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		sink.Wheel(-1)
		return
	case buttons&tcell.WheelDown != 0:
		sink.Wheel(1)
		return
	}
	down := buttons&tcell.Button1 != 0
	switch {
	case down && !t.held:
		t.held = true
		sink.PointerDown(pe)
	case down:
		sink.PointerMove(pe)
	case t.held:
		t.held = false
		sink.PointerMove(pe)
		sink.PointerUp(pe.ID)
	}
}

func (t *TerminalPresenter) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.screen.Fini()
	return nil
}
