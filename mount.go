package galaxy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
	"github.com/gekko3d/galaxy/logging"
	"github.com/google/uuid"
)

// Handle controls one mounted galaxy. Several handles may coexist; they
// share nothing.
type Handle struct {
	id       uuid.UUID
	rung     Rung
	pipeline Pipeline
	loop     *frame.Loop
	log      logging.Logger

	mu       sync.Mutex
	running  bool
	disposed bool
	release  sync.Once
}

// Mount probes for a pipeline, builds the scene inside it and schedules the
// first frame. Errors are limited to an unusable container, invalid
// parameters, or a ladder where every rung failed.
func Mount(c Container, opts Options) (*Handle, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if opts.Params != nil {
		if err := opts.Params.Validate(); err != nil {
			return nil, err
		}
	}
	opts = opts.withDefaults()

	id := uuid.New()
	log := mountLogger(opts, id.String()[:8])
	setup := Setup{
		Container: c,
		Viewport:  core.NewViewport(c.Width, c.Height, c.PixelRatio, c.UserAgent, opts.Classifier),
		Options:   opts,
		Logger:    log,
	}
	probe := opts.Probe
	if probe == nil {
		probe = DefaultProbe(opts)
	}
	pipe, rung, err := probe.Select(setup)
	if err != nil {
		return nil, fmt.Errorf("mount %dx%d: %w", c.Width, c.Height, err)
	}
	if rung.Terminal && opts.Logger == nil {
		log = logging.NewNopLogger()
	}
	log.Infof("Pipeline selected: %s (%s)", rung.Kind, rung.Name)

	h := &Handle{
		id:       id,
		rung:     rung,
		pipeline: pipe,
		loop:     frame.NewLoop(),
		log:      log,
	}
	pipe.Start(h.loop)
	return h, nil
}

func mountLogger(opts Options, short string) logging.Logger {
	switch l := opts.Logger.(type) {
	case nil:
		return logging.NewDefaultLogger("galaxy/"+short, opts.Debug)
	case *logging.DefaultLogger:
		return l.With(short)
	default:
		return l
	}
}

func (h *Handle) ID() uuid.UUID { return h.id }

func (h *Handle) Kind() PipelineKind { return h.rung.Kind }

// Rung names the ladder step that opened the pipeline.
func (h *Handle) Rung() string { return h.rung.Name }

func (h *Handle) Disposed() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

func (h *Handle) Resize() {
	if h.Disposed() {
		return
	}
	h.pipeline.Resize()
}

// RequestTiltPermission asks the host for tilt access. It returns false when
// tilt is unavailable, denied, or the handle is disposed.
func (h *Handle) RequestTiltPermission() bool {
	if h.Disposed() {
		return false
	}
	return h.pipeline.RequestTiltPermission()
}

// Regenerate replaces the galaxy. On error the current galaxy keeps
// rendering.
func (h *Handle) Regenerate(params core.GalaxyParameters) error {
	if h.Disposed() {
		return nil
	}
	if err := params.Validate(); err != nil {
		return err
	}
	return h.pipeline.Regenerate(params)
}

// Step drains host events and runs the pending frame, for hosts that pump
// frames themselves. It returns false once the handle is finished.
func (h *Handle) Step(now time.Time) bool {
	if h.Disposed() {
		return false
	}
	if !h.pipeline.Poll() {
		h.Dispose()
		return false
	}
	return h.loop.Step(now)
}

// Run drives frames until ctx is cancelled, the canvas closes or Dispose is
// called, then releases the pipeline on the calling goroutine.
func (h *Handle) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.disposed || h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	err := h.loop.Run(ctx, h.pipeline.Poll, h.pipeline.FrameInterval())

	h.mu.Lock()
	h.running = false
	h.disposed = true
	h.mu.Unlock()
	h.loop.Stop()
	h.dispose()
	return err
}

// Dispose stops the loop and releases the pipeline. It is safe to call more
// than once and on a nil handle. While Run is active on another goroutine,
// the release happens there once Run notices the stop.
func (h *Handle) Dispose() {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	running := h.running
	h.mu.Unlock()

	h.loop.Stop()
	if !running {
		h.dispose()
	}
}

func (h *Handle) dispose() {
	h.release.Do(func() {
		h.pipeline.Dispose()
		h.log.Infof("galaxy %s disposed after %d frames", h.id, h.loop.Frames())
	})
}
