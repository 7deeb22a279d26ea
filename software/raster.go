package software

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

type dot struct {
	x, y, r float64
}

type bucket struct {
	r, g, b, a float64
	dots       []dot
}

// Raster draws round points into a supersampled gg context and downsamples
// the result. Points are grouped by quantized color so each color is one
// path fill.
type Raster struct {
	Supersample int

	ctx     *gg.Context
	out     *image.RGBA
	w, h    int
	index   map[uint32]int
	buckets []bucket
}

func NewRaster(width, height, supersample int) *Raster {
	if supersample < 1 {
		supersample = 1
	}
	r := &Raster{Supersample: supersample, index: make(map[uint32]int)}
	r.Resize(width, height)
	return r
}

func (r *Raster) Size() (int, int) { return r.w, r.h }

func (r *Raster) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if r.ctx != nil && width == r.w && height == r.h {
		return
	}
	if r.ctx != nil {
		r.ctx.Close()
	}
	r.w, r.h = width, height
	r.ctx = gg.NewContext(width*r.Supersample, height*r.Supersample)
	r.out = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Begin starts a frame on a black background.
func (r *Raster) Begin() {
	clear(r.index)
	r.buckets = r.buckets[:0]
	r.ctx.ClearWithColor(gg.RGB(0, 0, 0))
}

// Dot queues a point at output pixel (x, y) with the given output-pixel radius.
func (r *Raster) Dot(x, y, radius float64, c mgl32.Vec3, alpha float64) {
	key := quantize(c[0])<<15 | quantize(c[1])<<10 | quantize(c[2])<<5 | quantize(float32(alpha))
	i, ok := r.index[key]
	if !ok {
		i = len(r.buckets)
		r.index[key] = i
		r.buckets = append(r.buckets, bucket{r: float64(c[0]), g: float64(c[1]), b: float64(c[2]), a: alpha})
	}
	s := float64(r.Supersample)
	r.buckets[i].dots = append(r.buckets[i].dots, dot{x: x * s, y: y * s, r: radius * s})
}

func quantize(v float32) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 31
	}
	return uint32(v * 31)
}

// Finish fills every queued bucket and returns the downsampled frame. The
// returned image is reused by the next frame.
func (r *Raster) Finish() (*image.RGBA, error) {
	for i := range r.buckets {
		b := &r.buckets[i]
		r.ctx.SetRGBA(b.r, b.g, b.b, b.a)
		for _, d := range b.dots {
			r.ctx.DrawCircle(d.x, d.y, d.r)
		}
		if err := r.ctx.Fill(); err != nil {
			return nil, fmt.Errorf("fill: %w", err)
		}
		b.dots = b.dots[:0]
	}
	src := r.ctx.Image()
	draw.BiLinear.Scale(r.out, r.out.Bounds(), src, src.Bounds(), draw.Src, nil)
	return r.out, nil
}

func (r *Raster) Close() {
	if r.ctx != nil {
		r.ctx.Close()
		r.ctx = nil
	}
}
