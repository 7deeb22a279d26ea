// Package accel renders the galaxy through WebGPU into a GLFW window.
package accel

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/frame"
	"github.com/gekko3d/galaxy/gpu"
	"github.com/gekko3d/galaxy/logging"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoAdapter = errors.New("no usable GPU adapter")

const (
	fovY      = 70
	nearPlane = 0.1
	farPlane  = 200

	galaxyOpacity = 1.0
	starOpacity   = 1.0
)

// clipDepth maps OpenGL clip depth [-w, w] onto WebGPU's [0, w].
var clipDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type Config struct {
	Title      string
	Width      int
	Height     int
	UserAgent  string
	PixelRatio float64 // 0 reads the window content scale
	Classifier core.DeviceClassifier
	Params     *core.GalaxyParameters
	Seed       int64
	TiltOptIn  bool
	Logger     logging.Logger
}

type Pipeline struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Config   *wgpu.SurfaceConfiguration
	Points   *gpu.PointsPass

	cfg   Config
	log   logging.Logger
	scene *core.Scene
	tilt  *gamepadTilt
	loop  *frame.Loop
	clock frame.Time

	zoom      harmonica.Spring
	eyeRadius float64
	eyeVel    float64

	uploaded int
	dynamic  []core.PointInstance
	trail    []mgl32.Vec3
	frames   uint64
	glfwHeld bool
	disposed bool
}

type adapterRung struct {
	name string
	opts wgpu.RequestAdapterOptions
}

var adapterLadder = []adapterRung{
	{"high-performance", wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceHighPerformance}},
	{"low-power", wgpu.RequestAdapterOptions{PowerPreference: wgpu.PowerPreferenceLowPower}},
	{"fallback", wgpu.RequestAdapterOptions{ForceFallbackAdapter: true}},
}

// Open creates the window and every GPU object. On error nothing is left
// allocated.
func Open(cfg Config) (*Pipeline, error) {
	log := logging.OrNop(cfg.Logger)
	if err := acquireGLFW(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	p := &Pipeline{cfg: cfg, log: log, glfwHeld: true}
	if err := p.init(); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) init() error {
	var err error
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	p.Window, err = glfw.CreateWindow(p.cfg.Width, p.cfg.Height, p.cfg.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}

	p.Instance = wgpu.CreateInstance(nil)
	if p.Instance == nil {
		return errors.New("create wgpu instance")
	}
	p.Surface = p.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(p.Window))
	if p.Surface == nil {
		return errors.New("create surface")
	}

	for _, rung := range adapterLadder {
		opts := rung.opts
		opts.CompatibleSurface = p.Surface
		adapter, err := p.Instance.RequestAdapter(&opts)
		if err != nil || adapter == nil {
			p.log.Warnf("adapter %s unavailable: %v", rung.name, err)
			continue
		}
		p.log.Debugf("adapter %s acquired", rung.name)
		p.Adapter = adapter
		break
	}
	if p.Adapter == nil {
		return ErrNoAdapter
	}

	p.Device, err = p.Adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	p.Queue = p.Device.GetQueue()

	width, height := p.Window.GetFramebufferSize()
	caps := p.Surface.GetCapabilities(p.Adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return errors.New("surface reports no formats")
	}
	p.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	p.Surface.Configure(p.Adapter, p.Device, p.Config)

	p.Points, err = gpu.NewPointsPass(p.Device, p.Config.Format)
	if err != nil {
		return err
	}

	p.tilt = &gamepadTilt{}
	p.scene, err = core.NewScene(core.SceneConfig{
		Viewport:      p.viewport(),
		Params:        p.cfg.Params,
		Rand:          rand.New(rand.NewSource(p.cfg.Seed)),
		ShootingStars: true,
		Tilt:          p.tilt,
		TiltOptIn:     p.cfg.TiltOptIn,
	})
	if err != nil {
		return err
	}
	if err := p.Points.SetStarfield(core.AppendBufferInstances(nil, p.scene.Starfield, core.StarfieldSize, core.StarfieldOpacity)); err != nil {
		return err
	}
	if err := p.uploadGalaxy(); err != nil {
		return err
	}

	p.zoom = harmonica.NewSpring(harmonica.FPS(60), 8.0, 1.0)
	p.eyeRadius = p.scene.Camera.Radius()
	p.attachInput()
	p.log.Infof("accelerated pipeline ready %dx%d, %d particles (%s)",
		width, height, p.scene.Galaxy.Len(), p.scene.Viewport.Class)
	return nil
}

func (p *Pipeline) viewport() core.Viewport {
	w, h := p.Window.GetSize()
	ratio := p.cfg.PixelRatio
	if ratio <= 0 {
		sx, _ := p.Window.GetContentScale()
		ratio = float64(sx)
	}
	return core.NewViewport(w, h, ratio, p.cfg.UserAgent, p.cfg.Classifier)
}

func (p *Pipeline) uploadGalaxy() error {
	g := p.scene.Galaxy
	if err := p.Points.SetGalaxy(core.AppendBufferInstances(make([]core.PointInstance, 0, g.Len()), g, p.scene.Params.Size, galaxyOpacity)); err != nil {
		return err
	}
	p.uploaded = p.scene.Generation()
	return nil
}

// Scene exposes the simulation for embedding hosts.
func (p *Pipeline) Scene() *core.Scene { return p.scene }

func (p *Pipeline) Frames() uint64 { return p.frames }

// FrameInterval is zero: Fifo presentation paces the loop.
func (p *Pipeline) FrameInterval() time.Duration { return 0 }

func (p *Pipeline) Start(loop *frame.Loop) {
	p.loop = loop
	loop.RequestFrame(p.frame)
}

// Poll pumps GLFW events and reports whether the window is still open.
func (p *Pipeline) Poll() bool {
	if p.disposed {
		return false
	}
	glfw.PollEvents()
	return !p.disposed && !p.Window.ShouldClose()
}

func (p *Pipeline) frame(now time.Time) {
	if p.disposed {
		return
	}
	dt := p.clock.Advance(now)
	p.scene.Advance(dt)
	p.eyeRadius, p.eyeVel = p.zoom.Update(p.eyeRadius, p.eyeVel, p.scene.Camera.Radius())

	if p.uploaded != p.scene.Generation() {
		if err := p.uploadGalaxy(); err != nil {
			p.log.Errorf("galaxy upload failed: %v", err)
		}
	}
	p.render()
	p.loop.RequestFrame(p.frame)
}

func (p *Pipeline) uniforms() (starfield, group, world core.PointUniforms) {
	s := p.scene
	eye := core.OrbitPosition(s.Camera.Yaw(), s.Camera.Pitch(), p.eyeRadius)
	view := mgl32.LookAtV(eye, s.Camera.LookAt(), mgl32.Vec3{0, 1, 0})
	aspect := float32(p.Config.Width) / float32(p.Config.Height)
	proj := clipDepth.Mul4(mgl32.Perspective(mgl32.DegToRad(fovY), aspect, nearPlane, farPlane))
	size := float32(s.PointScale())

	starfield = core.NewPointUniforms(proj, view, core.GroupModel(s.Motion.Angle(), 1), size, 1)
	group = core.NewPointUniforms(proj, view, core.GroupModel(s.Motion.Angle(), s.Motion.Scale()), size, 1)
	world = core.NewPointUniforms(proj, view, mgl32.Ident4(), 1, starOpacity)
	return starfield, group, world
}

func (p *Pipeline) render() {
	starfield, group, world := p.uniforms()
	p.Points.UpdateUniforms(p.Queue, starfield, group, world)

	p.dynamic, p.trail = core.AppendStarInstances(p.dynamic[:0], p.scene.Stars.Active(), p.trail)
	if err := p.Points.UpdateDynamic(p.Queue, p.dynamic); err != nil {
		p.log.Errorf("%v", err)
	}

	nextTexture, err := p.Surface.GetCurrentTexture()
	if err != nil {
		p.log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		p.log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := p.Device.CreateCommandEncoder(nil)
	if err != nil {
		p.log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})
	p.Points.Draw(pass)
	if err := pass.End(); err != nil {
		p.log.Errorf("render pass End failed: %v", err)
	}
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		p.log.Errorf("encoder Finish failed: %v", err)
		return
	}
	defer cmd.Release()
	p.Queue.Submit(cmd)
	p.Surface.Present()
	p.frames++
}

// Resize reconfigures the surface to the window's framebuffer and adopts the
// new viewport.
func (p *Pipeline) Resize() {
	if p.disposed {
		return
	}
	w, h := p.Window.GetFramebufferSize()
	if w <= 0 || h <= 0 {
		return
	}
	p.Config.Width = uint32(w)
	p.Config.Height = uint32(h)
	p.Surface.Configure(p.Adapter, p.Device, p.Config)

	regenerated, err := p.scene.Resize(p.viewport())
	if err != nil {
		p.log.Warnf("resize: %v", err)
	}
	if regenerated {
		p.log.Debugf("device class now %s, galaxy rebuilt with %d particles", p.scene.Viewport.Class, p.scene.Galaxy.Len())
	}
}

func (p *Pipeline) Regenerate(params core.GalaxyParameters) error {
	if p.disposed {
		return nil
	}
	if err := p.scene.Regenerate(params); err != nil {
		return err
	}
	return p.uploadGalaxy()
}

func (p *Pipeline) RequestTiltPermission() bool {
	if p.disposed || p.scene == nil {
		return false
	}
	return p.scene.Camera.RequestTiltPermission()
}

// Dispose releases everything Open acquired. It tolerates a partially opened
// pipeline and repeated calls.
func (p *Pipeline) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	if p.scene != nil {
		p.scene.Release()
	}
	if p.Points != nil {
		p.Points.Release()
		p.Points = nil
	}
	if p.Queue != nil {
		p.Queue.Release()
		p.Queue = nil
	}
	if p.Device != nil {
		p.Device.Release()
		p.Device = nil
	}
	if p.Adapter != nil {
		p.Adapter.Release()
		p.Adapter = nil
	}
	if p.Surface != nil {
		p.Surface.Release()
		p.Surface = nil
	}
	if p.Instance != nil {
		p.Instance.Release()
		p.Instance = nil
	}
	if p.Window != nil {
		p.detachInput()
		p.Window.Destroy()
		p.Window = nil
	}
	if p.glfwHeld {
		releaseGLFW()
		p.glfwHeld = false
	}
	p.log.Debugf("accelerated pipeline disposed after %d frames", p.frames)
}
