package core

import "time"

type SceneConfig struct {
	Viewport Viewport
	// Params pins the galaxy. When nil the galaxy follows the viewport and is
	// rebuilt if the device class changes.
	Params        *GalaxyParameters
	Rand          Rand
	ShootingStars bool
	Tilt          TiltSource
	TiltOptIn     bool
}

// Scene is the simulation state a pipeline renders: one galaxy, its
// starfield, the camera and the transient effects.
type Scene struct {
	Viewport Viewport
	Params   GalaxyParameters

	Camera   *CameraRig
	Gestures *Gestures
	Pulses   *Pulses
	Motion   *Motion
	Stars    *ShootingStars // nil when disabled

	Galaxy    *ParticleBuffer
	Starfield *ParticleBuffer

	auto       bool
	rng        Rand
	generation int
}

func NewScene(cfg SceneConfig) (*Scene, error) {
	s := &Scene{Viewport: cfg.Viewport, rng: cfg.Rand, auto: cfg.Params == nil}
	if cfg.Params != nil {
		s.Params = *cfg.Params
	} else {
		s.Params = DefaultGalaxyParameters(cfg.Viewport)
	}
	galaxy, err := Generate(s.Params, s.rng)
	if err != nil {
		return nil, err
	}
	s.Galaxy = galaxy
	s.generation = 1
	s.Starfield = GenerateStarfield(StarfieldCount(cfg.Viewport.Class), StarfieldRadius, s.rng)

	s.Camera = NewCameraRig(DefaultCameraConfig(cfg.Viewport.Class))
	s.Camera.SetTiltSource(cfg.Tilt)
	s.Pulses = NewPulses(DefaultPulseDuration, DefaultPulseStrength)
	s.Motion = NewMotion(s.Params)
	s.Gestures = NewGestures(s.Camera, s.Pulses, s.Motion)
	s.Gestures.TiltOptIn = cfg.TiltOptIn && cfg.Tilt != nil
	if cfg.ShootingStars {
		s.Stars = NewShootingStars(DefaultShootingStarConfig(cfg.Viewport.Class))
	}
	return s, nil
}

// Generation increases every time Galaxy is replaced.
func (s *Scene) Generation() int { return s.generation }

func (s *Scene) AutoParams() bool { return s.auto }

// Advance runs one frame of simulation in render order: galaxy motion, camera,
// shooting stars, pulses.
func (s *Scene) Advance(dt time.Duration) {
	s.Motion.Advance(dt)
	s.Camera.Tick(dt)
	if s.Stars != nil {
		s.Stars.TrySpawn(s.rng)
		s.Stars.Tick(dt)
	}
	s.Pulses.Tick(dt)
}

// PointScale is the point size multiplier from live pulses.
func (s *Scene) PointScale() float64 { return 1 + s.Pulses.Influence() }

// Regenerate rebuilds the galaxy. Invalid parameters leave the current galaxy
// in place.
func (s *Scene) Regenerate(p GalaxyParameters) error {
	galaxy, err := Generate(p, s.rng)
	if err != nil {
		return err
	}
	s.Galaxy.Release()
	s.Galaxy = galaxy
	s.Params = p
	s.Motion.Retune(p)
	s.generation++
	return nil
}

// Resize adopts a new viewport. Tuning follows the device class and a
// viewport-derived galaxy is rebuilt when the class flips.
func (s *Scene) Resize(vp Viewport) (bool, error) {
	prev := s.Viewport.Class
	s.Viewport = vp
	if vp.Class == prev {
		return false, nil
	}
	s.Camera.Retune(DefaultCameraConfig(vp.Class))
	if s.Stars != nil {
		s.Stars.Retune(DefaultShootingStarConfig(vp.Class))
	}
	if !s.auto {
		return false, nil
	}
	if err := s.Regenerate(DefaultGalaxyParameters(vp)); err != nil {
		return false, err
	}
	return true, nil
}

// Release drops the CPU particle arrays.
func (s *Scene) Release() {
	s.Galaxy.Release()
	s.Starfield.Release()
	if s.Stars != nil {
		s.Stars.Reset()
	}
	s.Gestures.Reset()
}
