// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const allUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment

// recordingEncoder is a noop command encoder that keeps what it was asked
// to record.
type recordingEncoder struct {
	noop.CommandEncoder

	textureCopies []hal.TextureCopy
	bufferCopies  []hal.BufferCopy
	uploads       []hal.BufferTextureCopy
	readbacks     []hal.BufferTextureCopy
	clears        [][2]uint64
	barriers      []hal.TextureBarrier
	passes        []*hal.RenderPassDescriptor
	pass          *recordingPass
}

func (e *recordingEncoder) TransitionTextures(b []hal.TextureBarrier) {
	e.barriers = append(e.barriers, b...)
}

func (e *recordingEncoder) ClearBuffer(_ hal.Buffer, offset, size uint64) {
	e.clears = append(e.clears, [2]uint64{offset, size})
}

func (e *recordingEncoder) CopyBufferToBuffer(_, _ hal.Buffer, r []hal.BufferCopy) {
	e.bufferCopies = append(e.bufferCopies, r...)
}

func (e *recordingEncoder) CopyBufferToTexture(_ hal.Buffer, _ hal.Texture, r []hal.BufferTextureCopy) {
	e.uploads = append(e.uploads, r...)
}

func (e *recordingEncoder) CopyTextureToBuffer(_ hal.Texture, _ hal.Buffer, r []hal.BufferTextureCopy) {
	e.readbacks = append(e.readbacks, r...)
}

func (e *recordingEncoder) CopyTextureToTexture(_, _ hal.Texture, r []hal.TextureCopy) {
	e.textureCopies = append(e.textureCopies, r...)
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.passes = append(e.passes, desc)
	return e.pass
}

type drawRecord struct {
	vertices, instances, firstInstance uint32
	scissor                            [4]uint32
	stencil                            uint32
}

// recordingPass is a noop render pass that keeps its draws. Every pass
// begun on a recordingEncoder shares it.
type recordingPass struct {
	noop.RenderPassEncoder

	scissor [4]uint32
	stencil uint32
	draws   []drawRecord
	ended   int
}

func (p *recordingPass) SetScissorRect(x, y, w, h uint32) { p.scissor = [4]uint32{x, y, w, h} }
func (p *recordingPass) SetStencilReference(ref uint32)   { p.stencil = ref }
func (p *recordingPass) End()                             { p.ended++ }

func (p *recordingPass) Draw(vertexCount, instanceCount, _, firstInstance uint32) {
	p.draws = append(p.draws, drawRecord{
		vertices:      vertexCount,
		instances:     instanceCount,
		firstInstance: firstInstance,
		scissor:       p.scissor,
		stencil:       p.stencil,
	})
}

// recordingDevice is a noop device that keeps the descriptors of the views
// it creates.
type recordingDevice struct {
	noop.Device

	views []hal.TextureViewDescriptor
}

func (d *recordingDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.views = append(d.views, *desc)
	return d.Device.CreateTextureView(tex, desc)
}

// stubCompile stands in for the WGSL compiler.
func stubCompile(string) ([]uint32, error) { return []uint32{0x07230203}, nil }

type fixture struct {
	backend *Backend
	device  *recordingDevice
	encoder *recordingEncoder
	pipes   *Pipelines
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	device := &recordingDevice{}
	pipes := NewPipelines(device)
	pipes.compile = stubCompile
	enc := &recordingEncoder{pass: &recordingPass{}}
	return &fixture{
		backend: NewBackend(device, &noop.Queue{}, enc, pipes),
		device:  device,
		encoder: enc,
		pipes:   pipes,
	}
}

func newTestImage(format gputypes.TextureFormat, w, h, layers uint32) *Image {
	return NewImage(&noop.Texture{}, &hal.TextureDescriptor{
		Size:   hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: layers},
		Format: format,
		Usage:  allUsage,
	})
}

func newTestBuffer(t *testing.T, size uint64) *Buffer {
	t.Helper()
	buf, err := CreateBuffer(&noop.Device{}, &hal.BufferDescriptor{Label: "test", Size: size})
	if err != nil {
		t.Fatalf("CreateBuffer() = %v", err)
	}
	return buf
}
