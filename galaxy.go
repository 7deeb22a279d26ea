// Package galaxy mounts an interactive procedural galaxy into a host
// container. Mount probes for a GPU path and falls back to a CPU renderer,
// so a valid mount always yields something on screen.
package galaxy

import (
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
)

var ErrInvalidContainer = errors.New("invalid container")

// Container describes the host region the galaxy is mounted into.
type Container struct {
	Title      string
	Width      int
	Height     int
	PixelRatio float64 // 0 lets the pipeline read it from the host
	UserAgent  string
}

func (c Container) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidContainer, c.Width, c.Height)
	}
	return nil
}

// PipelineKind names the rendering path a mount ended up on.
type PipelineKind string

const (
	PipelineAccelerated PipelineKind = "accelerated"
	PipelineSoftware    PipelineKind = "software"
)

// Pipeline is a rendering path bound to one canvas.
type Pipeline interface {
	// Start requests the first frame; every frame requests the next.
	Start(loop *frame.Loop)
	// Poll drains host events and reports whether the canvas is still open.
	Poll() bool
	Resize()
	Regenerate(params core.GalaxyParameters) error
	RequestTiltPermission() bool
	// FrameInterval paces Run; zero means the presenter paces itself.
	FrameInterval() time.Duration
	Dispose()
}
