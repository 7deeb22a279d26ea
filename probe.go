package galaxy

import (
	"errors"
	"fmt"

	"github.com/gekko3d/galaxy/accel"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/logging"
	"github.com/gekko3d/galaxy/software"
)

// Setup is what a rung needs to open its pipeline.
type Setup struct {
	Container Container
	Viewport  core.Viewport
	Options   Options
	Logger    logging.Logger
}

// Rung is one step of the capability ladder.
type Rung struct {
	Name string
	Kind PipelineKind
	// Terminal marks a rung that draws on the controlling terminal, where
	// the default stdout logger would write over the canvas.
	Terminal bool
	Open     func(Setup) (Pipeline, error)
}

// Probe tries its rungs in order and keeps the first pipeline that opens.
type Probe struct {
	Rungs []Rung
}

func DefaultProbe(opts Options) *Probe {
	p := &Probe{}
	if !opts.Software {
		p.Rungs = append(p.Rungs, AcceleratedRung())
	}
	if !opts.Headless {
		p.Rungs = append(p.Rungs, TerminalRung())
	}
	p.Rungs = append(p.Rungs, ImageRung())
	return p
}

func AcceleratedRung() Rung {
	return Rung{Name: "gpu", Kind: PipelineAccelerated, Open: func(s Setup) (Pipeline, error) {
		pipe, err := accel.Open(accel.Config{
			Title:      s.Container.Title,
			Width:      s.Container.Width,
			Height:     s.Container.Height,
			UserAgent:  s.Container.UserAgent,
			PixelRatio: s.Container.PixelRatio,
			Classifier: s.Options.Classifier,
			Params:     s.Options.Params,
			Seed:       s.Options.Seed,
			TiltOptIn:  s.Options.TiltOptIn,
			Logger:     s.Logger,
		})
		if err != nil {
			return nil, err
		}
		return pipe, nil
	}}
}

func TerminalRung() Rung {
	return Rung{Name: "terminal", Kind: PipelineSoftware, Terminal: true, Open: func(s Setup) (Pipeline, error) {
		presenter, err := software.NewTerminalPresenter(s.Options.Screen)
		if err != nil {
			return nil, err
		}
		cfg := softwareConfig(s, presenter)
		if s.Options.Logger == nil {
			cfg.Logger = logging.NewNopLogger()
		}
		pipe, err := software.New(cfg)
		if err != nil {
			presenter.Close()
			return nil, err
		}
		return pipe, nil
	}}
}

// ImageRung renders off-screen at container size. It cannot fail for valid
// parameters, so it ends the default ladder.
func ImageRung() Rung {
	return Rung{Name: "image", Kind: PipelineSoftware, Open: func(s Setup) (Pipeline, error) {
		presenter := software.NewImagePresenter(s.Container.Width, s.Container.Height)
		presenter.Path = s.Options.Snapshot
		presenter.FrameLimit = s.Options.SnapshotFrames
		pipe, err := software.New(softwareConfig(s, presenter))
		if err != nil {
			return nil, err
		}
		return pipe, nil
	}}
}

func softwareConfig(s Setup, presenter software.Presenter) software.Config {
	return software.Config{
		Viewport:  s.Viewport,
		Params:    s.Options.Params,
		Seed:      s.Options.Seed,
		Presenter: presenter,
		Logger:    s.Logger,
	}
}

var errNoRung = errors.New("no pipeline could be opened")

// Select walks the ladder once. Rung failures, panics included, are logged
// and skipped.
func (p *Probe) Select(s Setup) (Pipeline, Rung, error) {
	log := logging.OrNop(s.Logger)
	for _, rung := range p.Rungs {
		pipe, err := openRung(rung, s)
		if err != nil {
			log.Warnf("%s pipeline unavailable (%s): %v", rung.Kind, rung.Name, err)
			continue
		}
		return pipe, rung, nil
	}
	return nil, Rung{}, errNoRung
}

func openRung(rung Rung, s Setup) (pipe Pipeline, err error) {
	defer func() {
		if r := recover(); r != nil {
			pipe, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	pipe, err = rung.Open(s)
	if err == nil && pipe == nil {
		err = errors.New("rung returned no pipeline")
	}
	if err != nil && pipe != nil {
		pipe.Dispose()
		pipe = nil
	}
	return pipe, err
}
