package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidParameters = errors.New("invalid galaxy parameters")

// GalaxyParameters drive one procedural galaxy.
type GalaxyParameters struct {
	Count           int
	Radius          float64
	Branches        int
	Spin            float64
	Randomness      float64
	RandomnessPower float64
	InsideColor     mgl32.Vec3
	OutsideColor    mgl32.Vec3

	// Presentation
	Size           float32 // billboard half-size in world units
	RotationSpeed  float64 // rad/s before the 0.2 damping factor
	PulseSpeed     float64
	PulseIntensity float64
}

const (
	DefaultInsideColor  = "#ffd86b"
	DefaultOutsideColor = "#5aa8ff"
)

// DefaultGalaxyParameters returns the stock galaxy sized for vp.
func DefaultGalaxyParameters(vp Viewport) GalaxyParameters {
	inside, _ := ParseColor(DefaultInsideColor)
	outside, _ := ParseColor(DefaultOutsideColor)
	p := GalaxyParameters{
		Count:           vp.ParticleCount(),
		Radius:          6.5,
		Branches:        6,
		Spin:            1.2,
		Randomness:      0.25,
		RandomnessPower: 2.6,
		InsideColor:     inside,
		OutsideColor:    outside,
		Size:            0.02,
		RotationSpeed:   0.12,
		PulseSpeed:      0.5,
		PulseIntensity:  0.1,
	}
	if vp.IsMobile() {
		p.Size = 0.022
		p.RotationSpeed = 0.1
	}
	return p
}

// Validate rejects parameter sets that would break generation.
func (p GalaxyParameters) Validate() error {
	switch {
	case p.Count <= 0:
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidParameters, p.Count)
	case !(p.Radius > 0) || math.IsInf(p.Radius, 0):
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidParameters, p.Radius)
	case p.Branches < 1:
		return fmt.Errorf("%w: branches must be at least 1, got %d", ErrInvalidParameters, p.Branches)
	case p.Randomness < 0 || math.IsNaN(p.Randomness) || math.IsInf(p.Randomness, 0):
		return fmt.Errorf("%w: randomness must be finite and not negative, got %v", ErrInvalidParameters, p.Randomness)
	case !(p.RandomnessPower > 0):
		return fmt.Errorf("%w: randomness power must be positive, got %v", ErrInvalidParameters, p.RandomnessPower)
	case math.IsNaN(p.Spin) || math.IsInf(p.Spin, 0):
		return fmt.Errorf("%w: spin must be finite", ErrInvalidParameters)
	}
	for name, c := range map[string]mgl32.Vec3{"inside": p.InsideColor, "outside": p.OutsideColor} {
		for _, ch := range c {
			if ch < 0 || ch > 1 {
				return fmt.Errorf("%w: %s color %v outside [0,1]", ErrInvalidParameters, name, c)
			}
		}
	}
	return nil
}

// ParseColor reads a "#rrggbb" color stop.
func ParseColor(hex string) (mgl32.Vec3, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("%w: color %q: %v", ErrInvalidParameters, hex, err)
	}
	return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}, nil
}
