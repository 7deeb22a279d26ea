package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/galaxy/core"
	"github.com/gekko3d/galaxy/shaders"
)

// QuadVertex is one corner of the unit billboard.
type QuadVertex struct {
	Corner [2]float32
}

var quadCorners = []QuadVertex{
	{Corner: [2]float32{-1, -1}}, {Corner: [2]float32{1, -1}}, {Corner: [2]float32{1, 1}},
	{Corner: [2]float32{-1, -1}}, {Corner: [2]float32{1, 1}}, {Corner: [2]float32{-1, 1}},
}

// PointsPass draws three instance sets with one pipeline: the starfield and
// galaxy share the group transform, shooting stars use world space.
type PointsPass struct {
	Device   *wgpu.Device
	Pipeline *wgpu.RenderPipeline

	QuadBuffer *wgpu.Buffer

	StarfieldBuffer *wgpu.Buffer
	StarfieldCount  uint32
	GalaxyBuffer    *wgpu.Buffer
	GalaxyCount     uint32

	DynamicBuffer *wgpu.Buffer
	DynamicCap    uint32
	DynamicCount  uint32

	StarfieldUniforms *wgpu.Buffer
	GroupUniforms     *wgpu.Buffer
	WorldUniforms     *wgpu.Buffer
	StarfieldBG       *wgpu.BindGroup
	GroupBG           *wgpu.BindGroup
	WorldBG           *wgpu.BindGroup
}

func NewPointsPass(device *wgpu.Device, format wgpu.TextureFormat) (*PointsPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "PointsShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PointsWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("points shader: %w", err)
	}
	defer shaderModule.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "PointsUniformBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.PointUniformsSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("points bind group layout: %w", err)
	}
	defer bgl.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("points pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "PointsPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(QuadVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(core.PointInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						// Pos and Size are adjacent and read as one vec4.
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("points pipeline: %w", err)
	}

	p := &PointsPass{Device: device, Pipeline: pipeline}

	p.QuadBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "PointsQuad",
		Contents: wgpu.ToBytes(quadCorners),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("points quad buffer: %w", err)
	}

	if p.GroupUniforms, p.GroupBG, err = p.uniformBinding("PointsGroupUniforms"); err != nil {
		p.Release()
		return nil, err
	}
	if p.StarfieldUniforms, p.StarfieldBG, err = p.uniformBinding("PointsStarfieldUniforms"); err != nil {
		p.Release()
		return nil, err
	}
	if p.WorldUniforms, p.WorldBG, err = p.uniformBinding("PointsWorldUniforms"); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *PointsPass) uniformBinding(label string) (*wgpu.Buffer, *wgpu.BindGroup, error) {
	buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  core.PointUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", label, err)
	}
	layout := p.Pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + "BG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buf,
				Size:    core.PointUniformsSize,
			},
		},
	})
	if err != nil {
		buf.Release()
		return nil, nil, fmt.Errorf("%s bind group: %w", label, err)
	}
	return buf, bg, nil
}

func (p *PointsPass) staticBuffer(label string, instances []core.PointInstance) (*wgpu.Buffer, error) {
	if len(instances) == 0 {
		return nil, nil
	}
	return p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: wgpu.ToBytes(instances),
		Usage:    wgpu.BufferUsageVertex,
	})
}

// SetGalaxy releases the current galaxy buffer and uploads a new one.
func (p *PointsPass) SetGalaxy(instances []core.PointInstance) error {
	if p.GalaxyBuffer != nil {
		p.GalaxyBuffer.Release()
		p.GalaxyBuffer = nil
		p.GalaxyCount = 0
	}
	buf, err := p.staticBuffer("GalaxyInstances", instances)
	if err != nil {
		return fmt.Errorf("galaxy buffer: %w", err)
	}
	p.GalaxyBuffer = buf
	p.GalaxyCount = uint32(len(instances))
	return nil
}

func (p *PointsPass) SetStarfield(instances []core.PointInstance) error {
	if p.StarfieldBuffer != nil {
		p.StarfieldBuffer.Release()
		p.StarfieldBuffer = nil
		p.StarfieldCount = 0
	}
	buf, err := p.staticBuffer("StarfieldInstances", instances)
	if err != nil {
		return fmt.Errorf("starfield buffer: %w", err)
	}
	p.StarfieldBuffer = buf
	p.StarfieldCount = uint32(len(instances))
	return nil
}

// UpdateDynamic uploads per-frame instances, growing the buffer when needed.
func (p *PointsPass) UpdateDynamic(queue *wgpu.Queue, instances []core.PointInstance) error {
	p.DynamicCount = uint32(len(instances))
	if len(instances) == 0 {
		return nil
	}
	if p.DynamicBuffer == nil || p.DynamicCap < p.DynamicCount {
		if p.DynamicBuffer != nil {
			p.DynamicBuffer.Release()
			p.DynamicBuffer = nil
		}
		p.DynamicCap = p.DynamicCount + 64
		buf, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "DynamicInstances",
			Size:  uint64(p.DynamicCap) * core.PointInstanceSize,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.DynamicCap, p.DynamicCount = 0, 0
			return fmt.Errorf("dynamic buffer: %w", err)
		}
		p.DynamicBuffer = buf
	}
	size := uint64(len(instances)) * core.PointInstanceSize
	queue.WriteBuffer(p.DynamicBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&instances[0])), size))
	return nil
}

// UpdateUniforms writes the three transform blocks for this frame.
func (p *PointsPass) UpdateUniforms(queue *wgpu.Queue, starfield, group, world core.PointUniforms) {
	write := func(buf *wgpu.Buffer, u *core.PointUniforms) {
		queue.WriteBuffer(buf, 0, unsafe.Slice((*byte)(unsafe.Pointer(u)), core.PointUniformsSize))
	}
	write(p.StarfieldUniforms, &starfield)
	write(p.GroupUniforms, &group)
	write(p.WorldUniforms, &world)
}

func (p *PointsPass) Draw(pass *wgpu.RenderPassEncoder) {
	pass.SetPipeline(p.Pipeline)
	pass.SetVertexBuffer(0, p.QuadBuffer, 0, p.QuadBuffer.GetSize())

	draw := func(bg *wgpu.BindGroup, buf *wgpu.Buffer, count uint32) {
		if buf == nil || count == 0 {
			return
		}
		pass.SetBindGroup(0, bg, nil)
		pass.SetVertexBuffer(1, buf, 0, buf.GetSize())
		pass.Draw(uint32(len(quadCorners)), count, 0, 0)
	}
	draw(p.StarfieldBG, p.StarfieldBuffer, p.StarfieldCount)
	draw(p.GroupBG, p.GalaxyBuffer, p.GalaxyCount)
	draw(p.WorldBG, p.DynamicBuffer, p.DynamicCount)
}

// Release frees every GPU object the pass owns. Safe on a partially built pass.
func (p *PointsPass) Release() {
	for _, bg := range []**wgpu.BindGroup{&p.GroupBG, &p.StarfieldBG, &p.WorldBG} {
		if *bg != nil {
			(*bg).Release()
			*bg = nil
		}
	}
	for _, buf := range []**wgpu.Buffer{&p.QuadBuffer, &p.StarfieldBuffer, &p.GalaxyBuffer, &p.DynamicBuffer, &p.GroupUniforms, &p.StarfieldUniforms, &p.WorldUniforms} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	p.StarfieldCount, p.GalaxyCount, p.DynamicCount, p.DynamicCap = 0, 0, 0, 0
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
}
