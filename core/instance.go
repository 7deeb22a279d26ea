package core

import "github.com/go-gl/mathgl/mgl32"

// PointInstance is one billboard; the layout matches points.wgsl.
type PointInstance struct {
	Pos   [3]float32
	Size  float32
	Color [4]float32
}

const PointInstanceSize = 32

// AppendBufferInstances expands a particle buffer into billboard instances.
func AppendBufferInstances(dst []PointInstance, b *ParticleBuffer, size, alpha float32) []PointInstance {
	for i := 0; i < b.Len(); i++ {
		dst = append(dst, PointInstance{
			Pos:   [3]float32{b.Positions[3*i], b.Positions[3*i+1], b.Positions[3*i+2]},
			Size:  size,
			Color: [4]float32{b.Colors[3*i], b.Colors[3*i+1], b.Colors[3*i+2], alpha},
		})
	}
	return dst
}

const (
	starHeadSize  = 0.09
	starTrailSize = 0.05
)

// AppendStarInstances emits a white head and a fading trail per star.
// scratch is reused for trail reads and returned.
func AppendStarInstances(dst []PointInstance, stars []*ShootingStar, scratch []mgl32.Vec3) ([]PointInstance, []mgl32.Vec3) {
	for _, s := range stars {
		scratch = s.Trail(scratch[:0])
		n := float32(len(scratch))
		for k, p := range scratch {
			size := float32(starTrailSize)
			alpha := 0.7 * (1 - float32(k)/n)
			if k == 0 {
				size, alpha = starHeadSize, 1
			}
			dst = append(dst, PointInstance{
				Pos:   [3]float32{p[0], p[1], p[2]},
				Size:  size,
				Color: [4]float32{1, 1, 1, alpha},
			})
		}
	}
	return dst, scratch
}

// PointUniforms matches the uniform block of points.wgsl.
type PointUniforms struct {
	ViewProj mgl32.Mat4
	Model    mgl32.Mat4
	Right    mgl32.Vec4
	Up       mgl32.Vec4
	Params   mgl32.Vec4 // x size scale, y opacity
}

const PointUniformsSize = 176

// NewPointUniforms derives the billboard basis from the view matrix rows.
func NewPointUniforms(proj, view, model mgl32.Mat4, sizeScale, opacity float32) PointUniforms {
	return PointUniforms{
		ViewProj: proj.Mul4(view),
		Model:    model,
		Right:    mgl32.Vec4{view.At(0, 0), view.At(0, 1), view.At(0, 2), 0},
		Up:       mgl32.Vec4{view.At(1, 0), view.At(1, 1), view.At(1, 2), 0},
		Params:   mgl32.Vec4{sizeScale, opacity, 0, 0},
	}
}

// GroupModel is the galaxy group transform: spin about +Y then uniform scale.
func GroupModel(angle, scale float64) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(float32(angle)).Mul4(mgl32.Scale3D(float32(scale), float32(scale), float32(scale)))
}
