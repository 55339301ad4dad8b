// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/internal/cache"
)

// pipelineCacheSize is the per-shard capacity of each pipeline cache.
// Evicted pipelines are destroyed, so it must cover the working set of
// one submission.
const pipelineCacheSize = 32

// Pipeline is a render pipeline for an emulated blit or clear, together
// with the layouts needed to bind its resources.
type Pipeline struct {
	label      string
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout
	pipeline   hal.RenderPipeline

	// Blit pipelines read a source view at binding 1 and, when sampled,
	// a sampler at binding 2.
	source       bool
	sampled      bool
	sourceDim    gputypes.TextureViewDimension
	sourceAspect gputypes.TextureAspect
}

// Label returns the pipeline key the pipeline was built for.
func (p *Pipeline) Label() string { return p.label }

// Pipelines builds and caches the pipelines of the emulated paths. It
// implements xfer.PipelineFactory and is safe for concurrent use.
//
// Pipelines that fail to build are logged once and cached as missing;
// draws that need them are skipped.
type Pipelines struct {
	device  hal.Device
	compile func(wgsl string) ([]uint32, error)
	blit    *cache.Cache[xfer.BlitPipelineKey, *Pipeline]
	clear   *cache.Cache[xfer.ClearPipelineKey, *Pipeline]
}

// NewPipelines creates an empty pipeline cache for device.
func NewPipelines(device hal.Device) *Pipelines {
	p := &Pipelines{device: device, compile: compileWGSL}
	p.blit = cache.New[xfer.BlitPipelineKey, *Pipeline](pipelineCacheSize, cache.StringerHasher[xfer.BlitPipelineKey])
	p.blit.OnEvict = func(_ xfer.BlitPipelineKey, pl *Pipeline) { p.destroy(pl) }
	p.clear = cache.New[xfer.ClearPipelineKey, *Pipeline](pipelineCacheSize, cache.StringerHasher[xfer.ClearPipelineKey])
	p.clear.OnEvict = func(_ xfer.ClearPipelineKey, pl *Pipeline) { p.destroy(pl) }
	return p
}

// BlitPipeline returns the pipeline for key, or nil when it cannot be built.
func (p *Pipelines) BlitPipeline(key xfer.BlitPipelineKey) xfer.Pipeline {
	pl := p.blit.GetOrCreate(key, func() *Pipeline {
		pl, err := p.createBlit(key)
		if err != nil {
			xfer.Logger().Warn("native: blit pipeline", "key", key.String(), "err", err)
			return nil
		}
		return pl
	})
	if pl == nil {
		return nil
	}
	return pl
}

// ClearPipeline returns the pipeline for key, or nil when it cannot be built.
func (p *Pipelines) ClearPipeline(key xfer.ClearPipelineKey) xfer.Pipeline {
	pl := p.clear.GetOrCreate(key, func() *Pipeline {
		pl, err := p.createClear(key)
		if err != nil {
			xfer.Logger().Warn("native: clear pipeline", "key", key.String(), "err", err)
			return nil
		}
		return pl
	})
	if pl == nil {
		return nil
	}
	return pl
}

// Stats reports blit and clear cache activity.
func (p *Pipelines) Stats() (blit, clear cache.Stats) {
	return p.blit.Stats(), p.clear.Stats()
}

// Destroy destroys every cached pipeline. The device must be idle.
func (p *Pipelines) Destroy() {
	p.blit.Clear()
	p.clear.Clear()
}

// =============================================================================
// Creation
// =============================================================================

func (p *Pipelines) createBlit(key xfer.BlitPipelineKey) (*Pipeline, error) {
	if key.SrcAspect == xfer.AspectStencil || key.DstAspect == xfer.AspectStencil {
		return nil, fmt.Errorf("stencil blit: %w", ErrUnsupported)
	}
	shader := newBlitShader(key)
	source, err := render(blitTemplate, shader)
	if err != nil {
		return nil, err
	}

	entries := []gputypes.BindGroupLayoutEntry{
		uniformEntry(),
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    xfer.SampleTypeOf(key.SrcFormat),
				ViewDimension: shader.viewDimension(),
			},
		},
	}
	if shader.Sampled {
		samplerType := gputypes.SamplerBindingTypeFiltering
		if key.Filter != gputypes.FilterModeLinear {
			samplerType = gputypes.SamplerBindingTypeNonFiltering
			entries[1].Texture.SampleType = gputypes.TextureSampleTypeUnfilterableFloat
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    2,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: samplerType},
		})
	}

	desc := &hal.RenderPipelineDescriptor{
		Label: key.String(),
		Vertex: hal.VertexState{
			EntryPoint: vertexEntry,
			Buffers:    xfer.BlitVertexLayout(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
		},
		Multisample: multisample(key.SampleCount),
		Fragment:    &hal.FragmentState{EntryPoint: fragmentEntry},
	}
	if shader.OutDepth {
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            key.DstFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      stencilFace(false),
			StencilBack:       stencilFace(false),
		}
	} else {
		desc.Fragment.Targets = []gputypes.ColorTargetState{{
			Format:    key.DstFormat,
			WriteMask: gputypes.ColorWriteMaskAll,
		}}
	}

	pl, err := p.build(key.String(), source, entries, desc)
	if err != nil {
		return nil, err
	}
	pl.source = true
	pl.sampled = shader.Sampled
	pl.sourceDim = shader.viewDimension()
	pl.sourceAspect = key.SrcAspect.TextureAspect()
	return pl, nil
}

func (p *Pipelines) createClear(key xfer.ClearPipelineKey) (*Pipeline, error) {
	shader := newClearShader(key)
	source, err := render(clearTemplate, shader)
	if err != nil {
		return nil, err
	}

	desc := &hal.RenderPipelineDescriptor{
		Label: key.String(),
		Vertex: hal.VertexState{
			EntryPoint: vertexEntry,
			Buffers:    xfer.ClearVertexLayout(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
		},
		Multisample: multisample(key.SampleCount),
	}

	last := -1
	for slot, f := range key.ColorFormats {
		if f != gputypes.TextureFormatUndefined {
			last = slot
		}
	}
	if last >= 0 {
		targets := make([]gputypes.ColorTargetState, last+1)
		for slot := range targets {
			targets[slot].Format = key.ColorFormats[slot]
			if key.ColorMask&(1<<slot) != 0 {
				targets[slot].WriteMask = gputypes.ColorWriteMaskAll
			}
		}
		desc.Fragment = &hal.FragmentState{EntryPoint: fragmentEntry, Targets: targets}
	}
	if key.DepthStencilFormat != gputypes.TextureFormatUndefined {
		ds := &hal.DepthStencilState{
			Format:            key.DepthStencilFormat,
			DepthWriteEnabled: key.ClearDepth,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      stencilFace(key.ClearStencil),
			StencilBack:       stencilFace(key.ClearStencil),
			StencilReadMask:   0xFF,
		}
		if key.ClearStencil {
			ds.StencilWriteMask = 0xFF
		}
		desc.DepthStencil = ds
	}
	return p.build(key.String(), source, []gputypes.BindGroupLayoutEntry{uniformEntry()}, desc)
}

// build compiles source and creates the layouts and pipeline described by
// desc, filling in its module and layout. Partially created objects are
// destroyed on failure.
func (p *Pipelines) build(label, source string, entries []gputypes.BindGroupLayoutEntry, desc *hal.RenderPipelineDescriptor) (*Pipeline, error) {
	spirv, err := p.compile(source)
	if err != nil {
		return nil, err
	}

	pl := &Pipeline{label: label}
	pl.module, err = createShaderModule(p.device, label, spirv)
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	pl.bindLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		p.destroy(pl)
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	pl.layout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []hal.BindGroupLayout{pl.bindLayout},
	})
	if err != nil {
		p.destroy(pl)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	desc.Layout = pl.layout
	desc.Vertex.Module = pl.module
	if desc.Fragment != nil {
		desc.Fragment.Module = pl.module
	}
	pl.pipeline, err = p.device.CreateRenderPipeline(desc)
	if err != nil {
		p.destroy(pl)
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}
	return pl, nil
}

// destroy releases pl in reverse creation order. Nil entries are skipped.
func (p *Pipelines) destroy(pl *Pipeline) {
	if pl == nil {
		return
	}
	if pl.pipeline != nil {
		p.device.DestroyRenderPipeline(pl.pipeline)
		pl.pipeline = nil
	}
	if pl.layout != nil {
		p.device.DestroyPipelineLayout(pl.layout)
		pl.layout = nil
	}
	if pl.bindLayout != nil {
		p.device.DestroyBindGroupLayout(pl.bindLayout)
		pl.bindLayout = nil
	}
	if pl.module != nil {
		p.device.DestroyShaderModule(pl.module)
		pl.module = nil
	}
}

func uniformEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func multisample(count uint32) gputypes.MultisampleState {
	return gputypes.MultisampleState{Count: max(count, 1), Mask: 0xFFFFFFFF}
}

func stencilFace(write bool) hal.StencilFaceState {
	op := hal.StencilOperationKeep
	if write {
		op = hal.StencilOperationReplace
	}
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      op,
	}
}
