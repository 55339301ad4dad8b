// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
)

// ResolveImage resolves each layer in its own render pass whose color
// attachment resolves into the destination layer.
func (b *Backend) ResolveImage(use xfer.CommandUse, op *xfer.ResolveOp) {
	src, ok := b.image(use, op.Src.Image)
	if !ok {
		return
	}
	dst, ok := b.image(use, op.Dst.Image)
	if !ok {
		return
	}
	b.transition(src, &op.Src, gputypes.TextureUsageRenderAttachment, false)
	b.transition(dst, &op.Dst, gputypes.TextureUsageRenderAttachment, false)
	for i := range max(op.Src.LayerCount, 1) {
		srcView, ok := b.layerView(use, src, op.Src.MipLevel, op.Src.BaseArrayLayer+i)
		if !ok {
			break
		}
		dstView, ok := b.layerView(use, dst, op.Dst.MipLevel, op.Dst.BaseArrayLayer+i)
		if !ok {
			break
		}
		rp := b.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: use.String(),
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:          srcView,
				ResolveTarget: dstView,
				LoadOp:        gputypes.LoadOpLoad,
				StoreOp:       gputypes.StoreOpStore,
			}},
		})
		rp.End()
	}
	b.transition(dst, &op.Dst, gputypes.TextureUsageRenderAttachment, true)
	b.transition(src, &op.Src, gputypes.TextureUsageRenderAttachment, true)
}

// ClearImage clears each layer with a load-op clear. Color slices of 3D
// images are filled from a staging buffer instead, since the HAL cannot
// attach a single slice.
func (b *Backend) ClearImage(use xfer.CommandUse, op *xfer.ImageClearOp) {
	img, ok := b.image(use, op.Image.Image)
	if !ok {
		return
	}
	if img.Dimension() == gputypes.TextureDimension3D {
		b.clearVolume(use, img, op)
		return
	}
	loc := &op.Image
	b.transition(img, loc, gputypes.TextureUsageRenderAttachment, false)
	for i := range max(loc.LayerCount, 1) {
		view, ok := b.layerView(use, img, loc.MipLevel, loc.BaseArrayLayer+i)
		if !ok {
			break
		}
		desc := &hal.RenderPassDescriptor{Label: use.String()}
		if op.Value.IsDepthStencil() {
			desc.DepthStencilAttachment = clearDepthStencil(img.Format(), view, loc.Aspect, op.Value)
		} else {
			desc.ColorAttachments = []hal.RenderPassColorAttachment{{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: op.Value.Color(),
			}}
		}
		b.encoder.BeginRenderPass(desc).End()
	}
	b.transition(img, loc, gputypes.TextureUsageRenderAttachment, true)
}

// clearDepthStencil clears the aspects in mask and preserves the others.
func clearDepthStencil(format gputypes.TextureFormat, view hal.TextureView, mask xfer.Aspect, v xfer.ClearValue) *hal.RenderPassDepthStencilAttachment {
	a := &hal.RenderPassDepthStencilAttachment{View: view}
	if format.HasDepth() {
		a.DepthLoadOp, a.DepthStoreOp = loadOp(mask&xfer.AspectDepth != 0), gputypes.StoreOpStore
		a.DepthClearValue = v.Depth()
	}
	if format.HasStencil() {
		a.StencilLoadOp, a.StencilStoreOp = loadOp(mask&xfer.AspectStencil != 0), gputypes.StoreOpStore
		a.StencilClearValue = v.Stencil()
	}
	return a
}

func loadOp(clear bool) gputypes.LoadOp {
	if clear {
		return gputypes.LoadOpClear
	}
	return gputypes.LoadOpLoad
}

// clearVolume fills the slices of a 3D mip level with the packed clear
// color.
func (b *Backend) clearVolume(use xfer.CommandUse, img *Image, op *xfer.ImageClearOp) {
	texel, ok := xfer.PackClearColor(img.Format(), op.Value.Color())
	if !ok || op.Value.IsDepthStencil() {
		b.fail(use, fmt.Errorf("clear 3D %s: %w", img.Format(), ErrUnsupported))
		return
	}
	loc := &op.Image
	ext := img.Extent(loc.MipLevel)
	slices := max(loc.LayerCount, 1)
	row := uint64(ext.Width) * uint64(len(texel))
	pitch := alignUp(row, rowPitchAlignment)

	data := make([]byte, pitch*uint64(ext.Height)*uint64(slices))
	for off := uint64(0); off < uint64(len(data)); off += pitch {
		for x := uint64(0); x < row; x += uint64(len(texel)) {
			copy(data[off+x:], texel)
		}
	}
	staging, ok := b.stage(use, "clear", gputypes.BufferUsageCopySrc, data)
	if !ok {
		return
	}
	b.transition(img, loc, gputypes.TextureUsageCopyDst, false)
	defer b.transition(img, loc, gputypes.TextureUsageCopyDst, true)
	b.encoder.CopyBufferToTexture(staging, img.texture, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: uint32(pitch), RowsPerImage: ext.Height},
		TextureBase: hal.ImageCopyTexture{
			Texture:  img.texture,
			MipLevel: loc.MipLevel,
			Origin:   hal.Origin3D{Z: loc.Origin.Z},
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: ext.Width, Height: ext.Height, DepthOrArrayLayers: slices},
	}})
}

// =============================================================================
// Draws
// =============================================================================

// Draw uploads the call's vertices and uniforms, binds them with the
// pipeline's resources and draws. A call with a Target runs one render
// pass per target layer; instance i of the call is drawn in pass i with
// firstInstance i, so shaders see the same instance index. A call without
// a Target draws into the pass registered with SetRenderPass.
func (b *Backend) Draw(use xfer.CommandUse, call *xfer.DrawCall) {
	pl, ok := call.Pipeline.(*Pipeline)
	if !ok || pl == nil {
		b.fail(use, ErrNoPipeline)
		return
	}
	if call.Target == nil && b.pass == nil {
		b.fail(use, ErrNoRenderPass)
		return
	}

	vb, ok := b.stage(use, "vertices", gputypes.BufferUsageVertex, call.Vertices)
	if !ok {
		return
	}
	ub, ok := b.stage(use, "uniforms", gputypes.BufferUsageUniform, call.Uniforms)
	if !ok {
		return
	}
	entries := []gputypes.BindGroupEntry{{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Size: uint64(len(call.Uniforms))},
	}}

	var src *Image
	if pl.source {
		if call.Source == nil {
			b.fail(use, fmt.Errorf("blit without source: %w", ErrNoPipeline))
			return
		}
		if src, ok = b.image(use, call.Source.Image); !ok {
			return
		}
		view, ok := b.sourceView(use, pl, src, call.Source)
		if !ok {
			return
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  1,
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
		if pl.sampled {
			s, ok := b.sampler(use, call.Filter)
			if !ok {
				return
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  2,
				Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
			})
		}
	}

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   use.String(),
		Layout:  pl.bindLayout,
		Entries: entries,
	})
	if err != nil {
		b.fail(use, fmt.Errorf("create bind group: %w", err))
		return
	}
	b.bindGroups = append(b.bindGroups, group)

	record := func(rp hal.RenderPassEncoder, instances, first uint32) {
		rp.SetPipeline(pl.pipeline)
		rp.SetBindGroup(0, group, nil)
		rp.SetVertexBuffer(0, vb, 0)
		if !call.Scissor.Empty() {
			rp.SetScissorRect(uint32(call.Scissor.X), uint32(call.Scissor.Y), call.Scissor.Width, call.Scissor.Height)
		}
		rp.SetStencilReference(call.StencilReference)
		rp.Draw(call.VertexCount, instances, 0, first)
	}

	if call.Target == nil {
		record(b.pass, call.InstanceCount, 0)
		return
	}

	dst, ok := b.image(use, call.Target.Image)
	if !ok {
		return
	}
	if dst.Dimension() == gputypes.TextureDimension3D {
		b.fail(use, fmt.Errorf("render to 3D %v: %w", dst, ErrUnsupported))
		return
	}
	loc := call.Target
	if src != nil {
		b.transition(src, call.Source, gputypes.TextureUsageTextureBinding, false)
	}
	b.transition(dst, loc, gputypes.TextureUsageRenderAttachment, false)
	for i := range max(loc.LayerCount, 1) {
		view, ok := b.layerView(use, dst, loc.MipLevel, loc.BaseArrayLayer+i)
		if !ok {
			break
		}
		rp := b.encoder.BeginRenderPass(attachmentPass(use, dst.Format(), view))
		record(rp, 1, i)
		rp.End()
	}
	b.transition(dst, loc, gputypes.TextureUsageRenderAttachment, true)
	if src != nil {
		b.transition(src, call.Source, gputypes.TextureUsageTextureBinding, true)
	}
}

// sourceView returns a view of the mip level and layers of loc only, so
// that a blit between levels or layers of one image never binds the
// subresources it renders to.
func (b *Backend) sourceView(use xfer.CommandUse, pl *Pipeline, src *Image, loc *xfer.ImageLocation) (hal.TextureView, bool) {
	desc := &hal.TextureViewDescriptor{
		Label:         use.String() + " source",
		Format:        src.Format(),
		Dimension:     pl.sourceDim,
		Aspect:        pl.sourceAspect,
		BaseMipLevel:  loc.MipLevel,
		MipLevelCount: 1,
	}
	if pl.sourceDim == gputypes.TextureViewDimension3D {
		desc.ArrayLayerCount = 1
	} else {
		desc.BaseArrayLayer = loc.BaseArrayLayer
		desc.ArrayLayerCount = max(loc.LayerCount, 1)
	}
	return b.view(use, src, desc)
}

// attachmentPass describes a pass that loads and stores view.
func attachmentPass(use xfer.CommandUse, format gputypes.TextureFormat, view hal.TextureView) *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{Label: use.String()}
	if !format.IsDepthStencil() {
		desc.ColorAttachments = []hal.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}}
		return desc
	}
	ds := &hal.RenderPassDepthStencilAttachment{View: view}
	if format.HasDepth() {
		ds.DepthLoadOp, ds.DepthStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
	}
	if format.HasStencil() {
		ds.StencilLoadOp, ds.StencilStoreOp = gputypes.LoadOpLoad, gputypes.StoreOpStore
	}
	desc.DepthStencilAttachment = ds
	return desc
}
