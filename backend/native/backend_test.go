// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/backend/trace"
)

func TestImageDescriptorDefaults(t *testing.T) {
	img := newTestImage(gputypes.TextureFormatRGBA8Unorm, 16, 8, 0)
	if img.Dimension() != gputypes.TextureDimension2D || img.MipLevelCount() != 1 || img.SampleCount() != 1 {
		t.Errorf("defaults = %s mips %d samples %d", img.Dimension(), img.MipLevelCount(), img.SampleCount())
	}
	if img.ArrayLayerCount() != 1 {
		t.Errorf("ArrayLayerCount() = %d, want 1", img.ArrayLayerCount())
	}
	if got, want := img.Extent(2), (gputypes.Extent3D{Width: 4, Height: 2, DepthOrArrayLayers: 1}); got != want {
		t.Errorf("Extent(2) = %+v, want %+v", got, want)
	}

	vol := NewImage(nil, &hal.TextureDescriptor{
		Size:      hal.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 4},
		Dimension: gputypes.TextureDimension3D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
	})
	if vol.ArrayLayerCount() != 1 || vol.Extent(1).DepthOrArrayLayers != 2 {
		t.Errorf("3D layers = %d, depth(1) = %d", vol.ArrayLayerCount(), vol.Extent(1).DepthOrArrayLayers)
	}
}

func TestCopyImageCarriesLayersInOrigin(t *testing.T) {
	f := newFixture(t)
	src := newTestImage(gputypes.TextureFormatRGBA8Unorm, 16, 16, 6)
	dst := newTestImage(gputypes.TextureFormatRGBA8Unorm, 16, 16, 6)

	f.backend.CopyImage(xfer.UseCopyImage, &xfer.ImageCopyOp{
		Src: xfer.ImageLocation{Image: src, Aspect: xfer.AspectColor, MipLevel: 1, BaseArrayLayer: 2, LayerCount: 3,
			Origin: gputypes.Origin3D{X: 1, Y: 2}},
		Dst:    xfer.ImageLocation{Image: dst, Aspect: xfer.AspectColor, BaseArrayLayer: 0, LayerCount: 3},
		Extent: gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
	})
	if len(f.encoder.textureCopies) != 1 {
		t.Fatalf("texture copies = %d, want 1", len(f.encoder.textureCopies))
	}
	c := f.encoder.textureCopies[0]
	if c.SrcBase.Origin != (hal.Origin3D{X: 1, Y: 2, Z: 2}) || c.SrcBase.MipLevel != 1 {
		t.Errorf("SrcBase = %+v, want origin (1,2,2) mip 1", c.SrcBase)
	}
	if c.Size != (hal.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 3}) {
		t.Errorf("Size = %+v, want 4x4x3", c.Size)
	}
	if c.SrcBase.Aspect != gputypes.TextureAspectAll {
		t.Errorf("Aspect = %v, want all", c.SrcBase.Aspect)
	}
}

func TestBufferImageCopies(t *testing.T) {
	f := newFixture(t)
	img := newTestImage(gputypes.TextureFormatDepth24PlusStencil8, 8, 8, 1)
	buf := newTestBuffer(t, 1024)

	op := &xfer.BufferImageCopyOp{
		Buffer: buf, Offset: 64, BytesPerRow: 256, RowsPerImage: 8,
		Image:  xfer.ImageLocation{Image: img, Aspect: xfer.AspectStencil, LayerCount: 1},
		Extent: gputypes.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 1},
	}
	f.backend.CopyBufferToImage(xfer.UseCopyBufferToImage, op)
	f.backend.CopyImageToBuffer(xfer.UseCopyImageToBuffer, op)
	if len(f.encoder.uploads) != 1 || len(f.encoder.readbacks) != 1 {
		t.Fatalf("uploads = %d, readbacks = %d, want 1 each", len(f.encoder.uploads), len(f.encoder.readbacks))
	}
	u := f.encoder.uploads[0]
	if u.BufferLayout != (hal.ImageDataLayout{Offset: 64, BytesPerRow: 256, RowsPerImage: 8}) {
		t.Errorf("BufferLayout = %+v", u.BufferLayout)
	}
	if u.TextureBase.Aspect != gputypes.TextureAspectStencilOnly {
		t.Errorf("Aspect = %v, want stencil only", u.TextureBase.Aspect)
	}
}

func TestFillBuffer(t *testing.T) {
	f := newFixture(t)
	buf := newTestBuffer(t, 256)

	f.backend.FillBuffer(xfer.UseFillBuffer, &xfer.FillOp{Dst: buf, Offset: 16, WordCount: 4})
	if len(f.encoder.clears) != 1 || f.encoder.clears[0] != [2]uint64{16, 16} {
		t.Errorf("clears = %v, want [[16 16]]", f.encoder.clears)
	}
	if len(f.backend.buffers) != 0 {
		t.Errorf("staging buffers = %d, want 0 for a zero fill", len(f.backend.buffers))
	}

	f.backend.FillBuffer(xfer.UseFillBuffer, &xfer.FillOp{Dst: buf, Offset: 32, WordCount: 2, Value: 0xdeadbeef})
	if len(f.encoder.bufferCopies) != 1 {
		t.Fatalf("buffer copies = %d, want 1", len(f.encoder.bufferCopies))
	}
	if c := f.encoder.bufferCopies[0]; c.SrcOffset != 0 || c.DstOffset != 32 || c.Size != 8 {
		t.Errorf("copy = %+v, want 0 -> 32 size 8", c)
	}
	if len(f.backend.buffers) != 1 {
		t.Errorf("staging buffers = %d, want 1", len(f.backend.buffers))
	}
}

func TestUpdateBuffer(t *testing.T) {
	f := newFixture(t)
	buf := NewBuffer(newTestBuffer(t, 256).Raw(), 128, 64)

	f.backend.UpdateBuffer(xfer.UseUpdateBuffer, &xfer.UpdateOp{Dst: buf, Offset: 72, Data: []byte{1, 2, 3, 4, 5, 6}})
	if len(f.encoder.bufferCopies) != 1 {
		t.Fatalf("buffer copies = %d, want 1", len(f.encoder.bufferCopies))
	}
	if c := f.encoder.bufferCopies[0]; c.DstOffset != 72 || c.Size != 6 {
		t.Errorf("copy = %+v, want dst 72 size 6", c)
	}
	if err := f.backend.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestForeignResourcesAreSkipped(t *testing.T) {
	f := newFixture(t)
	img := trace.NewImage(trace.ImageDesc{Name: "img", Format: gputypes.TextureFormatRGBA8Unorm})
	buf := trace.NewBuffer("buf", 64, 0)

	f.backend.CopyImage(xfer.UseCopyImage, &xfer.ImageCopyOp{
		Src: xfer.ImageLocation{Image: img}, Dst: xfer.ImageLocation{Image: img},
	})
	f.backend.FillBuffer(xfer.UseFillBuffer, &xfer.FillOp{Dst: buf, WordCount: 1})
	if len(f.encoder.textureCopies)+len(f.encoder.clears) != 0 {
		t.Error("foreign resources reached the encoder")
	}
	err := f.backend.Err()
	if !errors.Is(err, ErrForeignResource) {
		t.Fatalf("Err() = %v, want %v", err, ErrForeignResource)
	}

	f.backend.Release()
	if err := f.backend.Err(); err != nil {
		t.Errorf("Err() after Release = %v, want nil", err)
	}
}

func TestResolveImagePerLayer(t *testing.T) {
	f := newFixture(t)
	src := NewImage(&noop.Texture{}, &hal.TextureDescriptor{
		Size:        hal.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 2},
		SampleCount: 4,
		Format:      gputypes.TextureFormatRGBA8Unorm,
	})
	dst := newTestImage(gputypes.TextureFormatRGBA8Unorm, 8, 8, 2)

	f.backend.ResolveImage(xfer.UseResolveImage, &xfer.ResolveOp{
		Src: xfer.ImageLocation{Image: src, Layout: xfer.LayoutTransferSrc, Aspect: xfer.AspectColor, LayerCount: 2},
		Dst: xfer.ImageLocation{Image: dst, Layout: xfer.LayoutTransferDst, Aspect: xfer.AspectColor, LayerCount: 2},
	})
	if len(f.encoder.passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(f.encoder.passes))
	}
	for i, p := range f.encoder.passes {
		if len(p.ColorAttachments) != 1 || p.ColorAttachments[0].ResolveTarget == nil {
			t.Errorf("pass %d has no resolve target", i)
		}
	}
	if f.encoder.pass.ended != 2 {
		t.Errorf("ended passes = %d, want 2", f.encoder.pass.ended)
	}
	// Two transitions in and two back out.
	if len(f.encoder.barriers) != 4 {
		t.Errorf("barriers = %d, want 4", len(f.encoder.barriers))
	}
}

func TestClearImageLoadOps(t *testing.T) {
	f := newFixture(t)
	color := newTestImage(gputypes.TextureFormatRGBA8Unorm, 8, 8, 3)
	f.backend.ClearImage(xfer.UseClearColorImage, &xfer.ImageClearOp{
		Image: xfer.ImageLocation{Image: color, Layout: xfer.LayoutGeneral, Aspect: xfer.AspectColor, BaseArrayLayer: 1, LayerCount: 2},
		Value: xfer.ColorClear(gputypes.Color{R: 1, A: 1}),
	})
	if len(f.encoder.passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(f.encoder.passes))
	}
	if a := f.encoder.passes[0].ColorAttachments[0]; a.LoadOp != gputypes.LoadOpClear || a.ClearValue.R != 1 {
		t.Errorf("attachment = %+v, want clear to red", a)
	}
	if len(f.encoder.barriers) != 0 {
		t.Errorf("barriers = %d, want none for General", len(f.encoder.barriers))
	}

	ds := newTestImage(gputypes.TextureFormatDepth24PlusStencil8, 8, 8, 1)
	f.backend.ClearImage(xfer.UseClearDepthStencilImage, &xfer.ImageClearOp{
		Image: xfer.ImageLocation{Image: ds, Aspect: xfer.AspectDepth, LayerCount: 1},
		Value: xfer.DepthStencilClear(0.5, 3),
	})
	a := f.encoder.passes[2].DepthStencilAttachment
	if a == nil {
		t.Fatal("depth clear has no depth-stencil attachment")
	}
	if a.DepthLoadOp != gputypes.LoadOpClear || a.DepthClearValue != 0.5 {
		t.Errorf("depth = %v %v, want clear 0.5", a.DepthLoadOp, a.DepthClearValue)
	}
	if a.StencilLoadOp != gputypes.LoadOpLoad {
		t.Errorf("stencil load = %v, want load", a.StencilLoadOp)
	}
}

func TestClearVolumeUploads(t *testing.T) {
	f := newFixture(t)
	vol := NewImage(&noop.Texture{}, &hal.TextureDescriptor{
		Size:      hal.Extent3D{Width: 4, Height: 2, DepthOrArrayLayers: 8},
		Dimension: gputypes.TextureDimension3D,
		Format:    gputypes.TextureFormatRGBA8Unorm,
	})
	f.backend.ClearImage(xfer.UseClearColorImage, &xfer.ImageClearOp{
		Image: xfer.ImageLocation{Image: vol, Aspect: xfer.AspectColor, LayerCount: 3, Origin: gputypes.Origin3D{Z: 2}},
		Value: xfer.ColorClear(gputypes.Color{G: 1}),
	})
	if len(f.encoder.uploads) != 1 || len(f.encoder.passes) != 0 {
		t.Fatalf("uploads = %d passes = %d, want 1 and 0", len(f.encoder.uploads), len(f.encoder.passes))
	}
	u := f.encoder.uploads[0]
	if u.BufferLayout.BytesPerRow != rowPitchAlignment || u.TextureBase.Origin.Z != 2 || u.Size.DepthOrArrayLayers != 3 {
		t.Errorf("upload = %+v", u)
	}
}

func TestRenderClearThroughEncoder(t *testing.T) {
	f := newFixture(t)
	dev := xfer.NewDevice(xfer.WithFormatFeatures(gputypes.TextureFormatRGBA16Float, xfer.FeatureSample|xfer.FeatureRender))
	img := newTestImage(gputypes.TextureFormatRGBA16Float, 16, 8, 3)

	var cmd xfer.ClearColorImage
	err := cmd.SetContent(dev, img, xfer.LayoutTransferDst, gputypes.Color{G: 0.5, A: 1},
		[]xfer.SubresourceRange{{Aspect: xfer.AspectColor, LevelCount: 1, LayerCount: xfer.RemainingArrayLayers}})
	if err != nil {
		t.Fatalf("SetContent() = %v", err)
	}
	f.backend.Encoder().Encode(&cmd)
	if err := f.backend.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	draws := f.encoder.pass.draws
	if len(f.encoder.passes) != 3 || len(draws) != 3 {
		t.Fatalf("passes = %d draws = %d, want 3 each", len(f.encoder.passes), len(draws))
	}
	for i, d := range draws {
		if d.instances != 1 || d.firstInstance != uint32(i) || d.vertices != xfer.ClearQuadVertexCount {
			t.Errorf("draw %d = %+v, want one instance starting at %d", i, d, i)
		}
		if d.scissor != [4]uint32{0, 0, 16, 8} {
			t.Errorf("draw %d scissor = %v, want full level", i, d.scissor)
		}
	}
	if a := f.encoder.passes[0].ColorAttachments[0]; a.LoadOp != gputypes.LoadOpLoad {
		t.Errorf("LoadOp = %v, want load", a.LoadOp)
	}
	if len(f.encoder.barriers) != 2 {
		t.Errorf("barriers = %d, want 2", len(f.encoder.barriers))
	}
	blit, clr := f.pipes.Stats()
	if clr.Len != 1 || blit.Len != 0 {
		t.Errorf("cached pipelines = blit %d clear %d, want 0 and 1", blit.Len, clr.Len)
	}
}

func TestDrawIntoActivePass(t *testing.T) {
	f := newFixture(t)
	pl := f.pipes.ClearPipeline(xfer.ClearPipelineKey{
		ColorFormats: [xfer.MaxColorAttachments]gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
		ColorMask:    1,
		SampleCount:  1,
	})
	call := &xfer.DrawCall{
		Pipeline:         pl,
		Vertices:         make([]byte, 96),
		VertexCount:      6,
		InstanceCount:    1,
		Uniforms:         make([]byte, 144),
		Scissor:          xfer.Rect2D{X: 2, Y: 3, Width: 4, Height: 5},
		StencilReference: 7,
	}

	f.backend.Draw(xfer.UseClearAttachments, call)
	if !errors.Is(f.backend.Err(), ErrNoRenderPass) {
		t.Fatalf("Err() = %v, want %v", f.backend.Err(), ErrNoRenderPass)
	}
	f.backend.Release()

	pass := &recordingPass{}
	f.backend.SetRenderPass(pass)
	f.backend.Draw(xfer.UseClearAttachments, call)
	if err := f.backend.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(pass.draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(pass.draws))
	}
	d := pass.draws[0]
	if d.scissor != [4]uint32{2, 3, 4, 5} || d.stencil != 7 || d.vertices != 6 {
		t.Errorf("draw = %+v", d)
	}
	if len(f.encoder.passes) != 0 {
		t.Errorf("passes begun = %d, want 0", len(f.encoder.passes))
	}
	if len(f.backend.bindGroups) != 1 || len(f.backend.buffers) != 2 {
		t.Errorf("bind groups = %d buffers = %d, want 1 and 2", len(f.backend.bindGroups), len(f.backend.buffers))
	}
}

func TestDrawWithoutPipeline(t *testing.T) {
	f := newFixture(t)
	f.backend.SetRenderPass(&recordingPass{})
	f.backend.Draw(xfer.UseBlitImage, &xfer.DrawCall{})
	if !errors.Is(f.backend.Err(), ErrNoPipeline) {
		t.Errorf("Err() = %v, want %v", f.backend.Err(), ErrNoPipeline)
	}
}

func TestAllocatorBuffer(t *testing.T) {
	f := newFixture(t)
	buf := f.backend.Buffer(10, []byte{1, 2, 3})
	nb, ok := buf.(*Buffer)
	if !ok || nb.Raw() == nil {
		t.Fatalf("Buffer() = %#v, want a backed *Buffer", buf)
	}
	if nb.Size() != 10 || nb.Offset() != 0 {
		t.Errorf("size %d offset %d, want 10 and 0", nb.Size(), nb.Offset())
	}
	if got := len(f.backend.Bytes(12)); got != 12 {
		t.Errorf("len(Bytes(12)) = %d", got)
	}
	f.backend.Release()
	if len(f.backend.buffers) != 0 {
		t.Errorf("buffers after Release = %d, want 0", len(f.backend.buffers))
	}
}

func TestCopiesTransitionToCopyUsage(t *testing.T) {
	f := newFixture(t)
	src := newTestImage(gputypes.TextureFormatRGBA8Unorm, 16, 16, 4)
	dst := newTestImage(gputypes.TextureFormatRGBA8Unorm, 16, 16, 4)
	buf := newTestBuffer(t, 4096)
	ext := gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}

	f.backend.CopyImage(xfer.UseCopyImage, &xfer.ImageCopyOp{
		Src:    xfer.ImageLocation{Image: src, Layout: xfer.LayoutShaderReadOnly, Aspect: xfer.AspectColor, BaseArrayLayer: 1, LayerCount: 2},
		Dst:    xfer.ImageLocation{Image: dst, Layout: xfer.LayoutColorAttachment, Aspect: xfer.AspectColor, MipLevel: 0, LayerCount: 2},
		Extent: ext,
	})
	want := []hal.TextureUsageTransition{
		{OldUsage: gputypes.TextureUsageTextureBinding, NewUsage: gputypes.TextureUsageCopySrc},
		{OldUsage: gputypes.TextureUsageRenderAttachment, NewUsage: gputypes.TextureUsageCopyDst},
		{OldUsage: gputypes.TextureUsageCopyDst, NewUsage: gputypes.TextureUsageRenderAttachment},
		{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: gputypes.TextureUsageTextureBinding},
	}
	if len(f.encoder.barriers) != len(want) {
		t.Fatalf("barriers = %d, want %d", len(f.encoder.barriers), len(want))
	}
	for i, b := range f.encoder.barriers {
		if b.Usage != want[i] {
			t.Errorf("barrier %d = %+v, want %+v", i, b.Usage, want[i])
		}
	}
	if r := f.encoder.barriers[0].Range; r.BaseArrayLayer != 1 || r.ArrayLayerCount != 2 || r.MipLevelCount != 1 {
		t.Errorf("source range = %+v, want layers [1,+2) of one mip", r)
	}

	f.encoder.barriers = nil
	op := &xfer.BufferImageCopyOp{
		Buffer: buf, BytesPerRow: 256, RowsPerImage: 4,
		Image:  xfer.ImageLocation{Image: dst, Layout: xfer.LayoutShaderReadOnly, Aspect: xfer.AspectColor, LayerCount: 1},
		Extent: ext,
	}
	f.backend.CopyBufferToImage(xfer.UseCopyBufferToImage, op)
	f.backend.CopyImageToBuffer(xfer.UseCopyImageToBuffer, op)
	want = []hal.TextureUsageTransition{
		{OldUsage: gputypes.TextureUsageTextureBinding, NewUsage: gputypes.TextureUsageCopyDst},
		{OldUsage: gputypes.TextureUsageCopyDst, NewUsage: gputypes.TextureUsageTextureBinding},
		{OldUsage: gputypes.TextureUsageTextureBinding, NewUsage: gputypes.TextureUsageCopySrc},
		{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: gputypes.TextureUsageTextureBinding},
	}
	if len(f.encoder.barriers) != len(want) {
		t.Fatalf("buffer copy barriers = %d, want %d", len(f.encoder.barriers), len(want))
	}
	for i, b := range f.encoder.barriers {
		if b.Usage != want[i] {
			t.Errorf("buffer copy barrier %d = %+v, want %+v", i, b.Usage, want[i])
		}
	}
}

func TestCopiesInCopyLayoutsNeedNoBarrier(t *testing.T) {
	f := newFixture(t)
	src := newTestImage(gputypes.TextureFormatRGBA8Unorm, 8, 8, 1)
	dst := newTestImage(gputypes.TextureFormatRGBA8Unorm, 8, 8, 1)
	f.backend.CopyImage(xfer.UseCopyImage, &xfer.ImageCopyOp{
		Src:    xfer.ImageLocation{Image: src, Layout: xfer.LayoutTransferSrc, Aspect: xfer.AspectColor, LayerCount: 1},
		Dst:    xfer.ImageLocation{Image: dst, Layout: xfer.LayoutTransferDst, Aspect: xfer.AspectColor, LayerCount: 1},
		Extent: gputypes.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 1},
	})
	if len(f.encoder.barriers) != 0 {
		t.Errorf("barriers = %d, want none", len(f.encoder.barriers))
	}
}

func TestBlitSourceViewCoversSourceOnly(t *testing.T) {
	f := newFixture(t)
	img := NewImage(&noop.Texture{}, &hal.TextureDescriptor{
		Size:          hal.Extent3D{Width: 16, Height: 16, DepthOrArrayLayers: 6},
		MipLevelCount: 3,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         allUsage,
	})
	pl := f.pipes.BlitPipeline(xfer.BlitPipelineKey{
		SrcFormat:    gputypes.TextureFormatRGBA8Unorm,
		DstFormat:    gputypes.TextureFormatRGBA8Unorm,
		SrcDimension: gputypes.TextureDimension2D,
		SrcAspect:    xfer.AspectColor,
		DstAspect:    xfer.AspectColor,
		Filter:       gputypes.FilterModeLinear,
		SampleCount:  1,
	})
	f.backend.Draw(xfer.UseBlitImage, &xfer.DrawCall{
		Pipeline:      pl,
		Source:        &xfer.ImageLocation{Image: img, Aspect: xfer.AspectColor, MipLevel: 0, BaseArrayLayer: 2, LayerCount: 3},
		Target:        &xfer.ImageLocation{Image: img, Aspect: xfer.AspectColor, MipLevel: 1, BaseArrayLayer: 2, LayerCount: 3},
		Filter:        gputypes.FilterModeLinear,
		Vertices:      make([]byte, 80),
		VertexCount:   4,
		InstanceCount: 3,
		Uniforms:      make([]byte, 16),
	})
	if err := f.backend.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(f.device.views) != 4 {
		t.Fatalf("views = %d, want one source and three targets", len(f.device.views))
	}
	src := f.device.views[0]
	if src.BaseMipLevel != 0 || src.MipLevelCount != 1 {
		t.Errorf("source mips = [%d,+%d), want [0,+1)", src.BaseMipLevel, src.MipLevelCount)
	}
	if src.BaseArrayLayer != 2 || src.ArrayLayerCount != 3 {
		t.Errorf("source layers = [%d,+%d), want [2,+3)", src.BaseArrayLayer, src.ArrayLayerCount)
	}
	for _, v := range f.device.views[1:] {
		if v.BaseMipLevel != 1 {
			t.Errorf("target view mip = %d, want 1", v.BaseMipLevel)
		}
	}
}
