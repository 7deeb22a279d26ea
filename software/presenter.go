package software

import (
	"errors"
	"image"

	"github.com/gekko3d/galaxy/core"
)

var ErrPresenterClosed = errors.New("presenter closed")

// Presenter is the canvas of the software pipeline.
type Presenter interface {
	// Size is the frame size in pixels Present expects.
	Size() (width, height int)
	Present(img *image.RGBA) error
	// Poll drains pending host input into sink and reports whether the host
	// is still open.
	Poll(sink InputSink) bool
	Close() error
}

// InputSink receives normalized host input.
type InputSink interface {
	PointerDown(ev core.PointerEvent)
	PointerMove(ev core.PointerEvent)
	PointerUp(id int)
	Wheel(delta float64)
	DoubleClick()
	Reset()
	Resized()
}
