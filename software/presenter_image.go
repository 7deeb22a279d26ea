package software

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// ImagePresenter is a headless canvas. It keeps the latest frame and can
// write it as PNG, optionally closing itself after a fixed number of frames.
type ImagePresenter struct {
	// Path, when set, receives the last frame on Close.
	Path string
	// FrameLimit closes the host after that many presented frames; 0 means
	// no limit.
	FrameLimit int

	w, h   int
	last   *image.RGBA
	count  int
	closed bool
}

func NewImagePresenter(width, height int) *ImagePresenter {
	return &ImagePresenter{w: max(width, 1), h: max(height, 1)}
}

func (p *ImagePresenter) Size() (int, int) { return p.w, p.h }

// SetSize changes the frame size; the pipeline picks it up on Resize.
func (p *ImagePresenter) SetSize(width, height int) {
	p.w, p.h = max(width, 1), max(height, 1)
}

func (p *ImagePresenter) Present(img *image.RGBA) error {
	if p.closed {
		return ErrPresenterClosed
	}
	if p.last == nil || p.last.Bounds() != img.Bounds() {
		p.last = image.NewRGBA(img.Bounds())
	}
	copy(p.last.Pix, img.Pix)
	p.count++
	return nil
}

func (p *ImagePresenter) Poll(InputSink) bool {
	if p.closed {
		return false
	}
	return p.FrameLimit <= 0 || p.count < p.FrameLimit
}

// Frames is the number of frames presented so far.
func (p *ImagePresenter) Frames() int { return p.count }

// Last returns the most recent frame, or nil before the first one.
func (p *ImagePresenter) Last() *image.RGBA { return p.last }

func (p *ImagePresenter) WritePNG(path string) error {
	if p.last == nil {
		return fmt.Errorf("write %s: no frame presented", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, p.last); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (p *ImagePresenter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.Path != "" && p.last != nil {
		return p.WritePNG(p.Path)
	}
	return nil
}
