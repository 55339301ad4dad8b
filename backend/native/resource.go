// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Image is an xfer.Image backed by a HAL texture. The descriptor is copied
// at construction and must describe the texture.
type Image struct {
	texture hal.Texture
	desc    hal.TextureDescriptor
}

// NewImage wraps an existing texture. Zero counts in desc default to 1 and
// a zero dimension to 2D.
func NewImage(texture hal.Texture, desc *hal.TextureDescriptor) *Image {
	d := *desc
	if d.Dimension == gputypes.TextureDimensionUndefined {
		d.Dimension = gputypes.TextureDimension2D
	}
	d.MipLevelCount = max(d.MipLevelCount, 1)
	d.SampleCount = max(d.SampleCount, 1)
	d.Size.DepthOrArrayLayers = max(d.Size.DepthOrArrayLayers, 1)
	return &Image{texture: texture, desc: d}
}

// CreateImage creates a texture on device and wraps it.
func CreateImage(device hal.Device, desc *hal.TextureDescriptor) (*Image, error) {
	tex, err := device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	return NewImage(tex, desc), nil
}

// Texture returns the wrapped texture.
func (i *Image) Texture() hal.Texture { return i.texture }

func (i *Image) Format() gputypes.TextureFormat       { return i.desc.Format }
func (i *Image) SampleCount() uint32                  { return i.desc.SampleCount }
func (i *Image) Dimension() gputypes.TextureDimension { return i.desc.Dimension }
func (i *Image) MipLevelCount() uint32                { return i.desc.MipLevelCount }
func (i *Image) Usage() gputypes.TextureUsage         { return i.desc.Usage }

// IsLinear reports false: HAL textures use optimal tiling.
func (i *Image) IsLinear() bool { return false }

// ArrayLayerCount returns 1 for 3D images.
func (i *Image) ArrayLayerCount() uint32 {
	if i.desc.Dimension == gputypes.TextureDimension3D {
		return 1
	}
	return i.desc.Size.DepthOrArrayLayers
}

// Extent returns the size of mip level mip.
func (i *Image) Extent(mip uint32) gputypes.Extent3D {
	s := i.desc.Size
	e := gputypes.Extent3D{
		Width:              max(s.Width>>mip, 1),
		Height:             max(s.Height>>mip, 1),
		DepthOrArrayLayers: 1,
	}
	if i.desc.Dimension == gputypes.TextureDimension3D {
		e.DepthOrArrayLayers = max(s.DepthOrArrayLayers>>mip, 1)
	}
	return e
}

func (i *Image) String() string {
	if i.desc.Label != "" {
		return i.desc.Label
	}
	return fmt.Sprintf("texture(%s %dx%d)", i.desc.Format, i.desc.Size.Width, i.desc.Size.Height)
}

// Buffer is an xfer.Buffer backed by a range of a HAL buffer.
type Buffer struct {
	buffer hal.Buffer
	size   uint64
	offset uint64
}

// NewBuffer wraps size bytes of buffer starting at offset.
func NewBuffer(buffer hal.Buffer, size, offset uint64) *Buffer {
	return &Buffer{buffer: buffer, size: size, offset: offset}
}

// CreateBuffer creates a buffer on device and wraps all of it.
func CreateBuffer(device hal.Device, desc *hal.BufferDescriptor) (*Buffer, error) {
	buf, err := device.CreateBuffer(desc)
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}
	return NewBuffer(buf, desc.Size, 0), nil
}

// Raw returns the wrapped buffer.
func (b *Buffer) Raw() hal.Buffer { return b.buffer }

func (b *Buffer) Size() uint64   { return b.size }
func (b *Buffer) Offset() uint64 { return b.offset }
