// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"encoding/binary"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
)

// copyTexture addresses loc for a copy. Array layers are carried in the
// origin's Z, as the HAL expects.
func copyTexture(img *Image, loc *xfer.ImageLocation) hal.ImageCopyTexture {
	return hal.ImageCopyTexture{
		Texture:  img.texture,
		MipLevel: loc.MipLevel,
		Origin: hal.Origin3D{
			X: loc.Origin.X,
			Y: loc.Origin.Y,
			Z: loc.Origin.Z + loc.BaseArrayLayer,
		},
		Aspect: loc.Aspect.TextureAspect(),
	}
}

// copySize returns the HAL copy size of ext at loc: slices for 3D images,
// layers otherwise.
func copySize(img *Image, loc *xfer.ImageLocation, ext gputypes.Extent3D) hal.Extent3D {
	s := hal.Extent3D{Width: ext.Width, Height: ext.Height, DepthOrArrayLayers: ext.DepthOrArrayLayers}
	if img.Dimension() != gputypes.TextureDimension3D {
		s.DepthOrArrayLayers = max(loc.LayerCount, 1)
	}
	return s
}

// CopyImage copies a box between textures. Both locations are moved to
// copy usage for the copy and back afterwards.
func (b *Backend) CopyImage(use xfer.CommandUse, op *xfer.ImageCopyOp) {
	src, ok := b.image(use, op.Src.Image)
	if !ok {
		return
	}
	dst, ok := b.image(use, op.Dst.Image)
	if !ok {
		return
	}
	b.transition(src, &op.Src, gputypes.TextureUsageCopySrc, false)
	b.transition(dst, &op.Dst, gputypes.TextureUsageCopyDst, false)
	b.encoder.CopyTextureToTexture(src.texture, dst.texture, []hal.TextureCopy{{
		SrcBase: copyTexture(src, &op.Src),
		DstBase: copyTexture(dst, &op.Dst),
		Size:    copySize(src, &op.Src, op.Extent),
	}})
	b.transition(dst, &op.Dst, gputypes.TextureUsageCopyDst, true)
	b.transition(src, &op.Src, gputypes.TextureUsageCopySrc, true)
}

// CopyBuffer copies a byte range between buffers.
func (b *Backend) CopyBuffer(use xfer.CommandUse, op *xfer.BufferCopyOp) {
	src, ok := b.buffer(use, op.Src)
	if !ok {
		return
	}
	dst, ok := b.buffer(use, op.Dst)
	if !ok {
		return
	}
	b.encoder.CopyBufferToBuffer(src.buffer, dst.buffer, []hal.BufferCopy{{
		SrcOffset: op.SrcOffset,
		DstOffset: op.DstOffset,
		Size:      op.Size,
	}})
}

func (b *Backend) bufferTextureCopy(use xfer.CommandUse, op *xfer.BufferImageCopyOp) (*Buffer, *Image, []hal.BufferTextureCopy, bool) {
	buf, ok := b.buffer(use, op.Buffer)
	if !ok {
		return nil, nil, nil, false
	}
	img, ok := b.image(use, op.Image.Image)
	if !ok {
		return nil, nil, nil, false
	}
	return buf, img, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       op.Offset,
			BytesPerRow:  op.BytesPerRow,
			RowsPerImage: op.RowsPerImage,
		},
		TextureBase: copyTexture(img, &op.Image),
		Size:        copySize(img, &op.Image, op.Extent),
	}}, true
}

// CopyBufferToImage uploads buffer rows into a texture box.
func (b *Backend) CopyBufferToImage(use xfer.CommandUse, op *xfer.BufferImageCopyOp) {
	if buf, img, regions, ok := b.bufferTextureCopy(use, op); ok {
		b.transition(img, &op.Image, gputypes.TextureUsageCopyDst, false)
		b.encoder.CopyBufferToTexture(buf.buffer, img.texture, regions)
		b.transition(img, &op.Image, gputypes.TextureUsageCopyDst, true)
	}
}

// CopyImageToBuffer reads a texture box into buffer rows.
func (b *Backend) CopyImageToBuffer(use xfer.CommandUse, op *xfer.BufferImageCopyOp) {
	if buf, img, regions, ok := b.bufferTextureCopy(use, op); ok {
		b.transition(img, &op.Image, gputypes.TextureUsageCopySrc, false)
		b.encoder.CopyTextureToBuffer(img.texture, buf.buffer, regions)
		b.transition(img, &op.Image, gputypes.TextureUsageCopySrc, true)
	}
}

// FillBuffer clears with ClearBuffer when the value is zero and copies
// from a filled staging buffer otherwise.
func (b *Backend) FillBuffer(use xfer.CommandUse, op *xfer.FillOp) {
	dst, ok := b.buffer(use, op.Dst)
	if !ok || op.WordCount == 0 {
		return
	}
	size := op.WordCount * 4
	if op.Value == 0 {
		b.encoder.ClearBuffer(dst.buffer, op.Offset, size)
		return
	}
	data := make([]byte, size)
	for i := uint64(0); i < size; i += 4 {
		binary.LittleEndian.PutUint32(data[i:], op.Value)
	}
	b.copyFrom(use, "fill", dst, op.Offset, data)
}

// UpdateBuffer copies op.Data through a staging buffer.
func (b *Backend) UpdateBuffer(use xfer.CommandUse, op *xfer.UpdateOp) {
	dst, ok := b.buffer(use, op.Dst)
	if !ok || len(op.Data) == 0 {
		return
	}
	b.copyFrom(use, "update", dst, op.Offset, op.Data)
}

func (b *Backend) copyFrom(use xfer.CommandUse, label string, dst *Buffer, offset uint64, data []byte) {
	staging, ok := b.stage(use, label, gputypes.BufferUsageCopySrc, data)
	if !ok {
		return
	}
	b.encoder.CopyBufferToBuffer(staging, dst.buffer, []hal.BufferCopy{{
		DstOffset: offset,
		Size:      uint64(len(data)),
	}})
}
