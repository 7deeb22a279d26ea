package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Rand is the uniform [0,1) source generation draws from. *math/rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// ParticleBuffer stores positions and colors as flat xyz/rgb float triples.
type ParticleBuffer struct {
	Positions []float32
	Colors    []float32
}

func newParticleBuffer(n int) *ParticleBuffer {
	return &ParticleBuffer{
		Positions: make([]float32, 3*n),
		Colors:    make([]float32, 3*n),
	}
}

func (b *ParticleBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Positions) / 3
}

func (b *ParticleBuffer) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.Positions[3*i], b.Positions[3*i+1], b.Positions[3*i+2]}
}

func (b *ParticleBuffer) Color(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.Colors[3*i], b.Colors[3*i+1], b.Colors[3*i+2]}
}

// Release drops the CPU-side arrays.
func (b *ParticleBuffer) Release() {
	if b == nil {
		return
	}
	b.Positions = nil
	b.Colors = nil
}

// Height jitter is flattened twice, once on the draw and once on placement.
const (
	heightJitterScale = 0.35
	heightFlatten     = 0.8
)

// BranchAngle is the arm angle of particle i.
func BranchAngle(i, branches int) float64 {
	return float64(i%branches) / float64(branches) * 2 * math.Pi
}

// Generate builds the spiral point cloud. Each particle consumes exactly seven
// draws from rng: radius, then magnitude and sign for x, y and z.
func Generate(p GalaxyParameters, rng Rand) (*ParticleBuffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	buf := newParticleBuffer(p.Count)
	for i := 0; i < p.Count; i++ {
		r := rng.Float64() * p.Radius
		jx := jitter(rng, p, r)
		jy := jitter(rng, p, r) * heightJitterScale
		jz := jitter(rng, p, r)

		a := BranchAngle(i, p.Branches) + r*p.Spin
		buf.Positions[3*i] = float32(math.Cos(a)*r + jx)
		buf.Positions[3*i+1] = float32(jy * heightFlatten)
		buf.Positions[3*i+2] = float32(math.Sin(a)*r + jz)

		c := lerpVec3(p.InsideColor, p.OutsideColor, float32(r/p.Radius))
		buf.Colors[3*i] = c[0]
		buf.Colors[3*i+1] = c[1]
		buf.Colors[3*i+2] = c[2]
	}
	return buf, nil
}

func jitter(rng Rand, p GalaxyParameters, r float64) float64 {
	m := math.Pow(rng.Float64(), p.RandomnessPower)
	if rng.Float64() >= 0.5 {
		m = -m
	}
	return m * p.Randomness * r
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// GenerateStarfield scatters count white points uniformly over a sphere.
func GenerateStarfield(count int, radius float64, rng Rand) *ParticleBuffer {
	if count < 0 {
		count = 0
	}
	buf := newParticleBuffer(count)
	for i := 0; i < count; i++ {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*rng.Float64() - 1)
		buf.Positions[3*i] = float32(radius * math.Sin(phi) * math.Cos(theta))
		buf.Positions[3*i+1] = float32(radius * math.Cos(phi))
		buf.Positions[3*i+2] = float32(radius * math.Sin(phi) * math.Sin(theta))
		buf.Colors[3*i] = 1
		buf.Colors[3*i+1] = 1
		buf.Colors[3*i+2] = 1
	}
	return buf
}

// Starfield sizing per device class.
const (
	StarfieldRadius  = 80
	StarfieldSize    = 0.06
	StarfieldOpacity = 0.6
)

func StarfieldCount(class DeviceClass) int {
	if class == DeviceMobile {
		return 2500
	}
	return 4000
}
