package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
	PointerPen
)

// CameraConfig tunes the orbit rig.
type CameraConfig struct {
	Yaw    float64
	Pitch  float64
	Radius float64

	MinDistance float64
	MaxDistance float64
	PitchLimit  float64

	Sensitivity      float64 // rad per pixel for mouse and pen
	TouchSensitivity float64
	DampingSeed      float64 // fraction of a drag step carried as velocity
	Damping          float64 // velocity decay per 60 Hz frame

	IdleAfter time.Duration
	DriftRate float64 // rad/s

	TiltRate     float64 // rad/s at full deflection
	TiltDeadzone float64
}

func DefaultCameraConfig(class DeviceClass) CameraConfig {
	cfg := CameraConfig{
		Yaw:              0,
		Pitch:            0.27,
		Radius:           8.3,
		MinDistance:      3.5,
		MaxDistance:      22,
		PitchLimit:       math.Pi/2 - 0.01,
		Sensitivity:      0.005,
		TouchSensitivity: 0.008,
		DampingSeed:      0.35,
		Damping:          0.92,
		IdleAfter:        2200 * time.Millisecond,
		DriftRate:        0.05,
		TiltRate:         0.9,
		TiltDeadzone:     0.08,
	}
	if class == DeviceMobile {
		cfg.Radius = 9.3
		cfg.Sensitivity = 0.006
		cfg.TouchSensitivity = 0.01
		cfg.DriftRate = 0.035
	}
	return cfg
}

// CameraRig orbits the origin. Yaw stays in [-π, π), pitch within
// ±PitchLimit and radius within [MinDistance, MaxDistance].
type CameraRig struct {
	cfg CameraConfig

	yaw, pitch, radius float64
	velYaw, velPitch   float64

	held       bool
	idle       time.Duration
	pinchBase  float64
	tilt       TiltSource
	permission TiltPermission
}

func NewCameraRig(cfg CameraConfig) *CameraRig {
	if cfg.PitchLimit <= 0 || cfg.PitchLimit >= math.Pi/2 {
		cfg.PitchLimit = math.Pi/2 - 0.01
	}
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = 3.5
	}
	if cfg.MaxDistance < cfg.MinDistance {
		cfg.MaxDistance = cfg.MinDistance
	}
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = 0.92
	}
	c := &CameraRig{cfg: cfg}
	c.yaw = wrapAngle(cfg.Yaw)
	c.pitch = clamp(cfg.Pitch, -cfg.PitchLimit, cfg.PitchLimit)
	c.radius = clamp(cfg.Radius, cfg.MinDistance, cfg.MaxDistance)
	c.pinchBase = c.radius
	return c
}

// Retune swaps sensitivities and drift after a device class change and keeps
// the current pose.
func (c *CameraRig) Retune(cfg CameraConfig) {
	c.cfg.Sensitivity = cfg.Sensitivity
	c.cfg.TouchSensitivity = cfg.TouchSensitivity
	c.cfg.DriftRate = cfg.DriftRate
}

func (c *CameraRig) Config() CameraConfig { return c.cfg }

func (c *CameraRig) Yaw() float64    { return c.yaw }
func (c *CameraRig) Pitch() float64  { return c.pitch }
func (c *CameraRig) Radius() float64 { return c.radius }

func (c *CameraRig) Velocity() (yaw, pitch float64) { return c.velYaw, c.velPitch }

func (c *CameraRig) SetPointerHeld(held bool) {
	c.held = held
	c.markInput()
}

func (c *CameraRig) markInput() { c.idle = 0 }

// StopInertia zeroes the angular velocity.
func (c *CameraRig) StopInertia() {
	c.velYaw, c.velPitch = 0, 0
}

func (c *CameraRig) ApplyDrag(dx, dy float64, kind PointerKind) {
	sens := c.cfg.Sensitivity
	if kind == PointerTouch {
		sens = c.cfg.TouchSensitivity
	}
	dYaw := dx * sens
	dPitch := dy * sens
	c.yaw = wrapAngle(c.yaw + dYaw)
	c.pitch = clamp(c.pitch+dPitch, -c.cfg.PitchLimit, c.cfg.PitchLimit)
	c.velYaw = dYaw * c.cfg.DampingSeed
	c.velPitch = dPitch * c.cfg.DampingSeed
	c.markInput()
}

// ApplyZoom moves the camera along its orbit radius.
func (c *CameraRig) ApplyZoom(delta float64) {
	c.radius = clamp(c.radius+delta, c.cfg.MinDistance, c.cfg.MaxDistance)
	c.markInput()
}

// BeginPinch captures the current radius as the pinch baseline.
func (c *CameraRig) BeginPinch() {
	c.pinchBase = c.radius
	c.StopInertia()
	c.markInput()
}

// ApplyPinchRatio sets radius = baseline / ratio. Spreading the fingers
// (ratio > 1) zooms in.
func (c *CameraRig) ApplyPinchRatio(ratio float64) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return
	}
	c.radius = clamp(c.pinchBase/ratio, c.cfg.MinDistance, c.cfg.MaxDistance)
	c.markInput()
}

func (c *CameraRig) ApplyTilt(dgamma, dbeta float64) {
	if dgamma == 0 && dbeta == 0 {
		return
	}
	c.yaw = wrapAngle(c.yaw + dgamma)
	c.pitch = clamp(c.pitch+dbeta, -c.cfg.PitchLimit, c.cfg.PitchLimit)
	c.markInput()
}

func (c *CameraRig) SetTiltSource(src TiltSource) {
	c.tilt = src
	if src == nil {
		c.permission = TiltUnavailable
	} else if c.permission == TiltUnavailable {
		c.permission = TiltUnrequested
	}
}

func (c *CameraRig) TiltPermission() TiltPermission { return c.permission }

// RequestTiltPermission asks the tilt source once. Later calls return the
// recorded answer.
func (c *CameraRig) RequestTiltPermission() bool {
	if c.tilt == nil {
		c.permission = TiltUnavailable
		return false
	}
	if c.permission == TiltUnrequested {
		if c.tilt.RequestPermission() {
			c.permission = TiltGranted
		} else {
			c.permission = TiltDenied
		}
	}
	return c.permission == TiltGranted
}

// Tick advances inertia, tilt and idle drift by dt.
func (c *CameraRig) Tick(dt time.Duration) {
	if dt <= 0 {
		return
	}
	sec := dt.Seconds()

	if c.permission == TiltGranted && c.tilt != nil {
		if g, b, ok := c.tilt.Read(); ok {
			g = deadzone(g, c.cfg.TiltDeadzone)
			b = deadzone(b, c.cfg.TiltDeadzone)
			c.ApplyTilt(g*c.cfg.TiltRate*sec, b*c.cfg.TiltRate*sec)
		}
	}

	if !c.held && (c.velYaw != 0 || c.velPitch != 0) {
		frames := sec * 60
		c.yaw = wrapAngle(c.yaw + c.velYaw*frames)
		c.pitch = clamp(c.pitch+c.velPitch*frames, -c.cfg.PitchLimit, c.cfg.PitchLimit)
		decay := math.Pow(c.cfg.Damping, frames)
		c.velYaw *= decay
		c.velPitch *= decay
		if math.Abs(c.velYaw) < 1e-6 {
			c.velYaw = 0
		}
		if math.Abs(c.velPitch) < 1e-6 {
			c.velPitch = 0
		}
	}

	c.idle += dt
	if !c.held && c.idle >= c.cfg.IdleAfter {
		c.yaw = wrapAngle(c.yaw + c.cfg.DriftRate*sec)
	}
}

func (c *CameraRig) Idle() time.Duration { return c.idle }

// Position is the eye point on the orbit sphere.
func (c *CameraRig) Position() mgl32.Vec3 {
	return OrbitPosition(c.yaw, c.pitch, c.radius)
}

func (c *CameraRig) LookAt() mgl32.Vec3 { return mgl32.Vec3{} }

// ViewMatrix looks from Position at the origin with +Y up.
func (c *CameraRig) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.LookAt(), mgl32.Vec3{0, 1, 0})
}

func OrbitPosition(yaw, pitch, radius float64) mgl32.Vec3 {
	cp := math.Cos(pitch)
	return mgl32.Vec3{
		float32(radius * cp * math.Sin(yaw)),
		float32(radius * math.Sin(pitch)),
		float32(radius * cp * math.Cos(yaw)),
	}
}

func wrapAngle(a float64) float64 {
	return a - 2*math.Pi*math.Floor((a+math.Pi)/(2*math.Pi))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func deadzone(v, dz float64) float64 {
	if math.Abs(v) < dz {
		return 0
	}
	return v
}
