// Package software renders the galaxy on the CPU. It projects points itself,
// rasterizes them with gg and hands frames to a Presenter.
package software

import (
	"math"
	"math/rand"
	"time"

	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
	"github.com/gekko3d/galaxy/logging"
)

const (
	DefaultSupersample   = 2
	DefaultPointBudget   = 12000
	DefaultFrameInterval = time.Second / 30

	galaxyAlpha    = 0.85
	minPointRadius = 0.35
)

type Config struct {
	Viewport      core.Viewport
	Params        *core.GalaxyParameters
	Seed          int64
	Presenter     Presenter
	Supersample   int
	PointBudget   int // galaxy points drawn per frame
	FrameInterval time.Duration
	FocalOffset   float64
	Logger        logging.Logger
}

type Pipeline struct {
	cfg       Config
	log       logging.Logger
	presenter Presenter
	scene     *core.Scene
	raster    *Raster
	sink      inputSink
	loop      *frame.Loop
	clock     frame.Time

	frames   uint64
	disposed bool
}

type inputSink struct {
	*core.Gestures
	resized func()
}

func (s inputSink) Resized() { s.resized() }

// New builds a software pipeline. It only fails on invalid galaxy parameters.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Presenter == nil {
		cfg.Presenter = NewImagePresenter(cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Supersample <= 0 {
		cfg.Supersample = DefaultSupersample
	}
	if cfg.PointBudget <= 0 {
		cfg.PointBudget = DefaultPointBudget
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	// gg logs through one process-wide logger; the command installs it.
	log := logging.OrNop(cfg.Logger)

	scene, err := core.NewScene(core.SceneConfig{
		Viewport: cfg.Viewport,
		Params:   cfg.Params,
		Rand:     rand.New(rand.NewSource(cfg.Seed)),
	})
	if err != nil {
		return nil, err
	}
	w, h := cfg.Presenter.Size()
	p := &Pipeline{
		cfg:       cfg,
		log:       log,
		presenter: cfg.Presenter,
		scene:     scene,
		raster:    NewRaster(w, h, cfg.Supersample),
	}
	p.sink = inputSink{Gestures: scene.Gestures, resized: p.Resize}
	log.Infof("software pipeline ready %dx%d, %d particles (%s)", w, h, scene.Galaxy.Len(), scene.Viewport.Class)
	return p, nil
}

func (p *Pipeline) Scene() *core.Scene { return p.scene }

func (p *Pipeline) Frames() uint64 { return p.frames }

func (p *Pipeline) FrameInterval() time.Duration { return p.cfg.FrameInterval }

func (p *Pipeline) Start(loop *frame.Loop) {
	p.loop = loop
	loop.RequestFrame(p.frame)
}

func (p *Pipeline) Poll() bool {
	if p.disposed {
		return false
	}
	return p.presenter.Poll(p.sink)
}

func (p *Pipeline) frame(now time.Time) {
	if p.disposed {
		return
	}
	dt := p.clock.Advance(now)
	p.scene.Advance(dt)
	if err := p.draw(); err != nil {
		p.log.Errorf("software frame: %v", err)
	}
	p.loop.RequestFrame(p.frame)
}

func (p *Pipeline) draw() error {
	s := p.scene
	w, h := p.raster.Size()
	proj := NewProjection(w, h, s.Camera.Yaw(), s.Camera.Pitch(), s.Camera.Radius(), p.cfg.FocalOffset)
	boost := s.PointScale()

	p.raster.Begin()
	starGroup := NewGroup(s.Motion.Angle(), 1)
	p.plot(&proj, s.Starfield, 1, starGroup, core.StarfieldSize, core.StarfieldOpacity, 1)

	stride := int(math.Ceil(float64(s.Galaxy.Len()) / float64(p.cfg.PointBudget)))
	group := NewGroup(s.Motion.Angle(), s.Motion.Scale())
	p.plot(&proj, s.Galaxy, max(stride, 1), group, float64(s.Params.Size)*boost, galaxyAlpha, float64(max(stride, 1)))

	img, err := p.raster.Finish()
	if err != nil {
		return err
	}
	if err := p.presenter.Present(img); err != nil {
		return err
	}
	p.frames++
	return nil
}

// plot projects every stride-th point. Thinned sets get larger points so the
// overall brightness holds.
func (p *Pipeline) plot(proj *Projection, b *core.ParticleBuffer, stride int, g Group, size, alpha, thinning float64) {
	grow := math.Sqrt(thinning)
	for i := 0; i < b.Len(); i += stride {
		x, y, depth, ok := proj.Project(b.Position(i), g)
		if !ok || x < -1 || y < -1 || x > float64(proj.Width)+1 || y > float64(proj.Height)+1 {
			continue
		}
		r := math.Max(size*grow*proj.Focal()/depth, minPointRadius)
		p.raster.Dot(x, y, r, b.Color(i), alpha)
	}
}

// Resize follows the presenter's current size.
func (p *Pipeline) Resize() {
	if p.disposed {
		return
	}
	w, h := p.presenter.Size()
	p.raster.Resize(w, h)
}

func (p *Pipeline) Regenerate(params core.GalaxyParameters) error {
	if p.disposed {
		return nil
	}
	return p.scene.Regenerate(params)
}

// RequestTiltPermission always reports false: there is no tilt input here.
func (p *Pipeline) RequestTiltPermission() bool { return false }

func (p *Pipeline) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	if err := p.presenter.Close(); err != nil {
		p.log.Warnf("closing presenter: %v", err)
	}
	p.raster.Close()
	p.scene.Release()
	p.log.Debugf("software pipeline disposed after %d frames", p.frames)
}
