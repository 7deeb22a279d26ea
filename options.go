package galaxy

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/logging"
)

type Options struct {
	// Params pins the galaxy. Nil derives it from the viewport.
	Params *core.GalaxyParameters
	// Classifier decides mobile vs desktop tuning.
	Classifier core.DeviceClassifier
	// Seed drives generation; 0 picks one from the clock.
	Seed int64

	Logger logging.Logger
	Debug  bool

	// Software skips the accelerated rung.
	Software bool
	// Headless skips the terminal rung.
	Headless bool
	// Screen replaces the controlling terminal for the terminal rung.
	Screen tcell.Screen

	// Snapshot is a PNG path the headless canvas writes on dispose.
	Snapshot string
	// SnapshotFrames closes a headless canvas after that many frames.
	SnapshotFrames int

	// TiltOptIn requests tilt access on the first primary pointer-down.
	TiltOptIn bool

	// Probe overrides the capability ladder.
	Probe *Probe
}

func DefaultOptions() Options {
	return Options{
		Classifier: core.ByViewportWidth(core.DefaultMobileWidth),
		TiltOptIn:  true,
	}
}

func (o Options) withDefaults() Options {
	if o.Classifier == nil {
		o.Classifier = core.ByViewportWidth(core.DefaultMobileWidth)
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}
