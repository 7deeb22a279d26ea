package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame60 = time.Second / 60

type fakeTilt struct {
	grant    bool
	asked    int
	gamma    float64
	beta     float64
	readable bool
}

func (f *fakeTilt) RequestPermission() bool {
	f.asked++
	return f.grant
}

func (f *fakeTilt) Read() (float64, float64, bool) { return f.gamma, f.beta, f.readable }

func newTestRig() *CameraRig {
	cfg := DefaultCameraConfig(DeviceDesktop)
	cfg.Radius = 10
	return NewCameraRig(cfg)
}

func TestCameraRig_PitchClamp(t *testing.T) {
	rig := newTestRig()
	limit := rig.Config().PitchLimit
	require.Less(t, limit, math.Pi/2)

	rig.ApplyDrag(0, 1e6, PointerMouse)
	assert.Equal(t, limit, rig.Pitch())
	rig.SetPointerHeld(false)
	for i := 0; i < 120; i++ {
		rig.Tick(frame60)
		assert.LessOrEqual(t, rig.Pitch(), limit)
	}

	rig.ApplyDrag(0, -1e7, PointerTouch)
	assert.Equal(t, -limit, rig.Pitch())
	rig.ApplyTilt(0, -5)
	assert.Equal(t, -limit, rig.Pitch())
}

func TestCameraRig_RadiusClamp(t *testing.T) {
	rig := newTestRig()
	rig.ApplyZoom(-100)
	assert.Equal(t, 3.5, rig.Radius())
	rig.ApplyZoom(1000)
	assert.Equal(t, 22.0, rig.Radius())
}

func TestCameraRig_Pinch(t *testing.T) {
	rig := newTestRig()
	rig.BeginPinch()
	rig.ApplyPinchRatio(50.0 / 100.0)
	assert.InDelta(t, 20, rig.Radius(), 1e-9)
	assert.Greater(t, rig.Radius(), 10.0)

	rig.ApplyPinchRatio(10.0 / 100.0)
	assert.Equal(t, 22.0, rig.Radius())

	rig.ApplyPinchRatio(4)
	assert.Equal(t, 3.5, rig.Radius())

	rig.ApplyPinchRatio(0)
	assert.Equal(t, 3.5, rig.Radius())
}

func TestCameraRig_DragSetsVelocityAndInertiaDecays(t *testing.T) {
	rig := newTestRig()
	rig.SetPointerHeld(true)
	rig.ApplyDrag(20, 0, PointerMouse)
	cfg := rig.Config()
	vy, _ := rig.Velocity()
	assert.InDelta(t, 20*cfg.Sensitivity*cfg.DampingSeed, vy, 1e-12)

	yaw := rig.Yaw()
	rig.Tick(frame60)
	assert.Equal(t, yaw, rig.Yaw(), "no inertia while held")

	rig.SetPointerHeld(false)
	rig.Tick(frame60)
	assert.Greater(t, rig.Yaw(), yaw)
	v1, _ := rig.Velocity()
	assert.InDelta(t, vy*cfg.Damping, v1, 1e-9)

	for i := 0; i < 600; i++ {
		rig.Tick(frame60)
	}
	v2, _ := rig.Velocity()
	assert.Zero(t, v2)
}

func TestCameraRig_TouchIsMoreSensitive(t *testing.T) {
	mouse, touch := newTestRig(), newTestRig()
	mouse.ApplyDrag(10, 0, PointerMouse)
	touch.ApplyDrag(10, 0, PointerTouch)
	assert.Greater(t, touch.Yaw(), mouse.Yaw())
}

func TestCameraRig_IdleDrift(t *testing.T) {
	rig := newTestRig()
	start := rig.Yaw()

	// 2s: still below the idle threshold.
	for i := 0; i < 120; i++ {
		rig.Tick(frame60)
	}
	assert.Equal(t, start, rig.Yaw())

	prev := rig.Yaw()
	for i := 0; i < 60; i++ {
		rig.Tick(frame60)
		if rig.Idle() >= rig.Config().IdleAfter {
			assert.Greater(t, rig.Yaw(), prev)
		}
		prev = rig.Yaw()
	}
	assert.Greater(t, rig.Yaw(), start)

	rig.ApplyZoom(0.1)
	assert.Zero(t, rig.Idle())
}

func TestCameraRig_YawWraps(t *testing.T) {
	rig := newTestRig()
	for i := 0; i < 50; i++ {
		rig.ApplyDrag(300, 0, PointerMouse)
		assert.GreaterOrEqual(t, rig.Yaw(), -math.Pi)
		assert.Less(t, rig.Yaw(), math.Pi)
	}
}

func TestCameraRig_Position(t *testing.T) {
	cfg := DefaultCameraConfig(DeviceDesktop)
	cfg.Yaw, cfg.Pitch, cfg.Radius = 0, 0, 10
	rig := NewCameraRig(cfg)
	pos := rig.Position()
	assert.InDelta(t, 0, pos[0], 1e-6)
	assert.InDelta(t, 0, pos[1], 1e-6)
	assert.InDelta(t, 10, pos[2], 1e-6)
	assert.InDelta(t, 10, float64(pos.Len()), 1e-5)

	rig.ApplyDrag(137, -42, PointerMouse)
	assert.InDelta(t, rig.Radius(), float64(rig.Position().Len()), 1e-4)
	assert.Zero(t, rig.LookAt().Len())
}

func TestCameraRig_TiltPermissionOnce(t *testing.T) {
	rig := newTestRig()
	assert.False(t, rig.RequestTiltPermission())
	assert.Equal(t, TiltUnavailable, rig.TiltPermission())

	src := &fakeTilt{grant: true, gamma: 1, readable: true}
	rig.SetTiltSource(src)
	assert.Equal(t, TiltUnrequested, rig.TiltPermission())
	assert.True(t, rig.RequestTiltPermission())
	assert.True(t, rig.RequestTiltPermission())
	assert.Equal(t, 1, src.asked)

	yaw := rig.Yaw()
	rig.Tick(frame60)
	assert.Greater(t, rig.Yaw(), yaw)
}

func TestCameraRig_TiltDenied(t *testing.T) {
	rig := newTestRig()
	src := &fakeTilt{grant: false, gamma: 1, readable: true}
	rig.SetTiltSource(src)
	assert.False(t, rig.RequestTiltPermission())
	assert.Equal(t, TiltDenied, rig.TiltPermission())

	yaw := rig.Yaw()
	rig.Tick(frame60)
	assert.Equal(t, yaw, rig.Yaw())
}
