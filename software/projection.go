package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	fovY      = 70 * math.Pi / 180
	nearDepth = 0.1
)

// Projection maps world points to target pixels the way the accelerated
// camera does: group spin and scale, then orbit yaw and pitch, then a
// perspective divide by the distance from the eye plus FocalOffset.
type Projection struct {
	Width, Height int
	Yaw, Pitch    float64
	Distance      float64
	FocalOffset   float64

	focal      float64
	cx, cy     float64
	cosY, sinY float64
	cosP, sinP float64
}

func NewProjection(width, height int, yaw, pitch, distance, focalOffset float64) Projection {
	p := Projection{
		Width:       width,
		Height:      height,
		Yaw:         yaw,
		Pitch:       pitch,
		Distance:    distance,
		FocalOffset: focalOffset,
	}
	p.focal = float64(height) / 2 / math.Tan(fovY/2)
	p.cx, p.cy = float64(width)/2, float64(height)/2
	p.sinY, p.cosY = math.Sincos(yaw)
	p.sinP, p.cosP = math.Sincos(pitch)
	return p
}

// Focal is the focal length in pixels.
func (p *Projection) Focal() float64 { return p.focal }

// Group carries the galaxy group transform into Project.
type Group struct {
	sin, cos, scale float64
}

func NewGroup(angle, scale float64) Group {
	s, c := math.Sincos(angle)
	return Group{sin: s, cos: c, scale: scale}
}

var Identity = Group{cos: 1, scale: 1}

// Project returns pixel coordinates and the perspective divisor. ok is false
// for points behind the near plane.
func (p *Projection) Project(v mgl32.Vec3, g Group) (sx, sy, depth float64, ok bool) {
	x := float64(v[0]) * g.scale
	y := float64(v[1]) * g.scale
	z := float64(v[2]) * g.scale
	x, z = g.cos*x+g.sin*z, -g.sin*x+g.cos*z

	x1 := x*p.cosY - z*p.sinY
	z1 := x*p.sinY + z*p.cosY
	y2 := y*p.cosP - z1*p.sinP
	z2 := y*p.sinP + z1*p.cosP

	depth = p.Distance + p.FocalOffset - z2
	if depth < nearDepth {
		return 0, 0, depth, false
	}
	k := p.focal / depth
	return p.cx + x1*k, p.cy - y2*k, depth, true
}
