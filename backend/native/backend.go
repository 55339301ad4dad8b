// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
)

// rowPitchAlignment is the BytesPerRow alignment of buffer-texture copies.
const rowPitchAlignment = 256

// Backend executes xfer operations on a HAL command encoder. It implements
// xfer.Backend and xfer.Allocator.
//
// Transient objects (staging buffers, views, bind groups) live until
// Release, which the caller invokes once the encoded work has completed.
// A Backend is used by one goroutine at a time.
type Backend struct {
	device    hal.Device
	queue     hal.Queue
	encoder   hal.CommandEncoder
	pipelines *Pipelines

	pass hal.RenderPassEncoder

	buffers    []hal.Buffer
	views      []hal.TextureView
	bindGroups []hal.BindGroup
	samplers   map[gputypes.FilterMode]hal.Sampler

	errs []error
}

// NewBackend creates a backend recording into encoder. The encoder must
// be between BeginEncoding and EndEncoding while commands are encoded.
func NewBackend(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder, pipelines *Pipelines) *Backend {
	return &Backend{
		device:    device,
		queue:     queue,
		encoder:   encoder,
		pipelines: pipelines,
		samplers:  make(map[gputypes.FilterMode]hal.Sampler),
	}
}

// Encoder returns an xfer encoder that emits into b.
func (b *Backend) Encoder() *xfer.Encoder { return xfer.NewEncoder(b, b.pipelines, b) }

// SetRenderPass registers the render pass that draws without a target go
// to. Pass nil once the pass has ended.
func (b *Backend) SetRenderPass(pass hal.RenderPassEncoder) { b.pass = pass }

// Err returns every failure since the last Release, joined.
func (b *Backend) Err() error { return errors.Join(b.errs...) }

// Release destroys transient objects and clears recorded failures. The
// work that used them must have completed.
func (b *Backend) Release() {
	for _, g := range b.bindGroups {
		b.device.DestroyBindGroup(g)
	}
	for _, v := range b.views {
		b.device.DestroyTextureView(v)
	}
	for _, buf := range b.buffers {
		b.device.DestroyBuffer(buf)
	}
	for f, s := range b.samplers {
		b.device.DestroySampler(s)
		delete(b.samplers, f)
	}
	b.bindGroups = b.bindGroups[:0]
	b.views = b.views[:0]
	b.buffers = b.buffers[:0]
	b.errs = nil
}

func (b *Backend) fail(use xfer.CommandUse, err error) {
	err = fmt.Errorf("%s: %w", use, err)
	xfer.Logger().Warn("native: operation skipped", "use", use.String(), "err", err)
	b.errs = append(b.errs, err)
}

// =============================================================================
// Resources
// =============================================================================

func (b *Backend) image(use xfer.CommandUse, img xfer.Image) (*Image, bool) {
	i, ok := img.(*Image)
	if !ok || i == nil || i.texture == nil {
		b.fail(use, fmt.Errorf("image %v: %w", img, ErrForeignResource))
		return nil, false
	}
	return i, true
}

func (b *Backend) buffer(use xfer.CommandUse, buf xfer.Buffer) (*Buffer, bool) {
	nb, ok := buf.(*Buffer)
	if !ok || nb == nil || nb.buffer == nil {
		b.fail(use, fmt.Errorf("buffer: %w", ErrForeignResource))
		return nil, false
	}
	return nb, true
}

// stage creates a buffer holding data. The size is rounded up to a whole
// number of words.
func (b *Backend) stage(use xfer.CommandUse, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, bool) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  alignUp(uint64(len(data)), 4),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.fail(use, fmt.Errorf("create %s buffer: %w", label, err))
		return nil, false
	}
	b.buffers = append(b.buffers, buf)
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		b.fail(use, fmt.Errorf("write %s buffer: %w", label, err))
		return nil, false
	}
	return buf, true
}

// view creates a transient view of img.
func (b *Backend) view(use xfer.CommandUse, img *Image, desc *hal.TextureViewDescriptor) (hal.TextureView, bool) {
	v, err := b.device.CreateTextureView(img.texture, desc)
	if err != nil {
		b.fail(use, fmt.Errorf("create view of %v: %w", img, err))
		return nil, false
	}
	b.views = append(b.views, v)
	return v, true
}

// layerView returns a single-layer, single-mip view for use as an
// attachment.
func (b *Backend) layerView(use xfer.CommandUse, img *Image, mip, layer uint32) (hal.TextureView, bool) {
	return b.view(use, img, &hal.TextureViewDescriptor{
		Label:           use.String(),
		Format:          img.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    mip,
		MipLevelCount:   1,
		BaseArrayLayer:  layer,
		ArrayLayerCount: 1,
	})
}

func (b *Backend) sampler(use xfer.CommandUse, filter gputypes.FilterMode) (hal.Sampler, bool) {
	if s, ok := b.samplers[filter]; ok {
		return s, true
	}
	s, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "xfer blit " + filter.String(),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		b.fail(use, fmt.Errorf("create sampler: %w", err))
		return nil, false
	}
	b.samplers[filter] = s
	return s, true
}

// =============================================================================
// Allocator
// =============================================================================

// Bytes returns n bytes of fresh host memory.
func (b *Backend) Bytes(n int) []byte { return make([]byte, n) }

// Buffer returns a transient staging buffer of size bytes. On failure the
// returned buffer has no storage and every operation using it is skipped.
func (b *Backend) Buffer(size uint64, contents []byte) xfer.Buffer {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "xfer staging",
		Size:  alignUp(size, 4),
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.fail(xfer.UseNone, fmt.Errorf("create staging buffer: %w", err))
		return &Buffer{size: size}
	}
	b.buffers = append(b.buffers, buf)
	if contents != nil {
		if err := b.queue.WriteBuffer(buf, 0, contents); err != nil {
			b.fail(xfer.UseNone, fmt.Errorf("write staging buffer: %w", err))
		}
	}
	return NewBuffer(buf, size, 0)
}

// =============================================================================
// Barriers
// =============================================================================

// usageOf maps a tracked layout to the HAL usage state it implies. General
// and Undefined map to 0, which suppresses the barrier.
func usageOf(layout xfer.ImageLayout) gputypes.TextureUsage {
	switch layout {
	case xfer.LayoutTransferSrc:
		return gputypes.TextureUsageCopySrc
	case xfer.LayoutTransferDst:
		return gputypes.TextureUsageCopyDst
	case xfer.LayoutColorAttachment, xfer.LayoutDepthStencilAttachment:
		return gputypes.TextureUsageRenderAttachment
	case xfer.LayoutShaderReadOnly:
		return gputypes.TextureUsageTextureBinding
	}
	return gputypes.TextureUsageNone
}

// transition moves the subresources of loc from its layout to usage, or
// back when reverse is set.
func (b *Backend) transition(img *Image, loc *xfer.ImageLocation, usage gputypes.TextureUsage, reverse bool) {
	from := usageOf(loc.Layout)
	if from == gputypes.TextureUsageNone || from == usage {
		return
	}
	old, cur := from, usage
	if reverse {
		old, cur = usage, from
	}
	r := hal.TextureRange{
		Aspect:          loc.Aspect.TextureAspect(),
		BaseMipLevel:    loc.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  loc.BaseArrayLayer,
		ArrayLayerCount: max(loc.LayerCount, 1),
	}
	if img.Dimension() == gputypes.TextureDimension3D {
		r.BaseArrayLayer, r.ArrayLayerCount = 0, 1
	}
	b.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: img.texture,
		Range:   r,
		Usage:   hal.TextureUsageTransition{OldUsage: old, NewUsage: cur},
	}})
}

func alignUp(v, a uint64) uint64 { return (v + a - 1) / a * a }
