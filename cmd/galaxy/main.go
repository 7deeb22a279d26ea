package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gekko3d/galaxy"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/logging"
	"github.com/gogpu/gg"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	width := flag.Int("width", 1280, "Canvas width")
	height := flag.Int("height", 720, "Canvas height")
	title := flag.String("title", "Galaxy", "Window title")
	ratio := flag.Float64("dpr", 0, "Device pixel ratio (0 reads it from the window)")
	device := flag.String("device", "auto", "Device class: auto, desktop, mobile or ua")
	ua := flag.String("ua", "", "User agent used by -device=ua")
	seed := flag.Int64("seed", 0, "Generation seed (0 picks one)")
	soft := flag.Bool("software", false, "Skip the GPU pipeline")
	headless := flag.Bool("headless", false, "Skip the terminal canvas")
	snapshot := flag.String("snapshot", "", "Write the last headless frame to this PNG")
	frames := flag.Int("frames", 0, "Stop a headless run after this many frames")
	tilt := flag.Bool("tilt", true, "Ask for gamepad tilt on first click")
	logPath := flag.String("log", "", "Write logs to this file instead of stdout")

	count := flag.Int("count", 0, "Particle count")
	branches := flag.Int("branches", 0, "Spiral arms")
	radius := flag.Float64("radius", 0, "Galaxy radius")
	spin := flag.Float64("spin", 0, "Arm twist per unit radius")
	randomness := flag.Float64("randomness", 0, "Scatter as a fraction of distance")
	power := flag.Float64("power", 0, "Scatter concentration exponent")
	inside := flag.String("inside", "", "Core color, #rrggbb")
	outside := flag.String("outside", "", "Rim color, #rrggbb")
	flag.Parse()

	logger := logging.NewDefaultLogger("galaxy", *debug)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = logging.NewLoggerTo("galaxy", *debug, log.New(f, "", log.LstdFlags|log.Lmicroseconds))
	}

	// The terminal canvas owns stdout, so raster diagnostics only go to a
	// log file or a headless run.
	if *debug && (*logPath != "" || *headless) {
		gg.SetLogger(logging.NewSlog(logger))
	}

	classifier, err := classifierFor(*device)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	container := galaxy.Container{Title: *title, Width: *width, Height: *height, PixelRatio: *ratio, UserAgent: *ua}

	opts := galaxy.DefaultOptions()
	opts.Classifier = classifier
	opts.Seed = *seed
	if *logPath != "" {
		opts.Logger = logger
	}
	opts.Debug = *debug
	opts.Software = *soft
	opts.Headless = *headless
	opts.Snapshot = *snapshot
	opts.SnapshotFrames = *frames
	opts.TiltOptIn = *tilt

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["count"] || set["branches"] || set["radius"] || set["spin"] || set["randomness"] ||
		set["power"] || set["inside"] || set["outside"] {
		vp := core.NewViewport(*width, *height, *ratio, *ua, classifier)
		p := core.DefaultGalaxyParameters(vp)
		if set["count"] {
			p.Count = *count
		}
		if set["branches"] {
			p.Branches = *branches
		}
		if set["radius"] {
			p.Radius = *radius
		}
		if set["spin"] {
			p.Spin = *spin
		}
		if set["randomness"] {
			p.Randomness = *randomness
		}
		if set["power"] {
			p.RandomnessPower = *power
		}
		if set["inside"] {
			if p.InsideColor, err = core.ParseColor(*inside); err != nil {
				logger.Errorf("%v", err)
				os.Exit(2)
			}
		}
		if set["outside"] {
			if p.OutsideColor, err = core.ParseColor(*outside); err != nil {
				logger.Errorf("%v", err)
				os.Exit(2)
			}
		}
		opts.Params = &p
	}

	h, err := galaxy.Mount(container, opts)
	if err != nil {
		logger.Errorf("mount: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := h.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorf("run: %v", err)
	}
}

func classifierFor(device string) (core.DeviceClassifier, error) {
	switch device {
	case "auto", "":
		return core.ByViewportWidth(core.DefaultMobileWidth), nil
	case "desktop":
		return core.ForceClass(core.DeviceDesktop), nil
	case "mobile":
		return core.ForceClass(core.DeviceMobile), nil
	case "ua":
		return core.ByUserAgent(), nil
	}
	return nil, fmt.Errorf("unknown device class %q", device)
}
