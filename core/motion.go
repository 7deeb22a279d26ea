package core

import (
	"math"
	"time"
)

// rotationDamping slows the configured rotation speed to the visible rate.
const rotationDamping = 0.2

// Motion is the galaxy's own animation: a slow spin around +Y and a breathing
// scale. Both freeze while paused.
type Motion struct {
	RotationSpeed  float64
	PulseSpeed     float64
	PulseIntensity float64

	angle   float64
	elapsed float64
	paused  bool
}

func NewMotion(p GalaxyParameters) *Motion {
	m := &Motion{}
	m.Retune(p)
	return m
}

func (m *Motion) Retune(p GalaxyParameters) {
	m.RotationSpeed = p.RotationSpeed
	m.PulseSpeed = p.PulseSpeed
	m.PulseIntensity = p.PulseIntensity
}

func (m *Motion) Advance(dt time.Duration) {
	if m.paused || dt <= 0 {
		return
	}
	sec := dt.Seconds()
	m.elapsed += sec
	m.angle = math.Mod(m.angle+m.RotationSpeed*rotationDamping*sec, 2*math.Pi)
}

// Toggle flips the paused state and reports whether rotation is now running.
func (m *Motion) Toggle() bool {
	m.paused = !m.paused
	return !m.paused
}

func (m *Motion) Paused() bool { return m.paused }

func (m *Motion) Angle() float64 { return m.angle }

func (m *Motion) Scale() float64 {
	return 1 + math.Sin(m.elapsed*m.PulseSpeed)*m.PulseIntensity
}
