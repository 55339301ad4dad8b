package trace

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ImageDesc describes an Image. Zero counts default to 1 and a zero
// Dimension to 2D.
type ImageDesc struct {
	Name        string
	Format      gputypes.TextureFormat
	Dimension   gputypes.TextureDimension
	Size        gputypes.Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Samples     uint32
	Usage       gputypes.TextureUsage
	Linear      bool
}

// Image is a described image with no storage.
type Image struct {
	desc ImageDesc
}

// NewImage creates an image from d.
func NewImage(d ImageDesc) *Image {
	if d.Dimension == gputypes.TextureDimensionUndefined {
		d.Dimension = gputypes.TextureDimension2D
	}
	d.MipLevels = max(d.MipLevels, 1)
	d.ArrayLayers = max(d.ArrayLayers, 1)
	d.Samples = max(d.Samples, 1)
	d.Size.Width = max(d.Size.Width, 1)
	d.Size.Height = max(d.Size.Height, 1)
	if d.Dimension == gputypes.TextureDimension3D {
		d.Size.DepthOrArrayLayers = max(d.Size.DepthOrArrayLayers, 1)
		d.ArrayLayers = 1
	} else {
		d.Size.DepthOrArrayLayers = 1
	}
	return &Image{desc: d}
}

func (i *Image) Name() string                         { return i.desc.Name }
func (i *Image) Desc() ImageDesc                      { return i.desc }
func (i *Image) Format() gputypes.TextureFormat       { return i.desc.Format }
func (i *Image) SampleCount() uint32                  { return i.desc.Samples }
func (i *Image) Dimension() gputypes.TextureDimension { return i.desc.Dimension }
func (i *Image) MipLevelCount() uint32                { return i.desc.MipLevels }
func (i *Image) ArrayLayerCount() uint32              { return i.desc.ArrayLayers }
func (i *Image) Usage() gputypes.TextureUsage         { return i.desc.Usage }
func (i *Image) IsLinear() bool                       { return i.desc.Linear }

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
	if i.desc.Name != "" {
		return i.desc.Name
	}
	return fmt.Sprintf("image(%s %dx%d)", i.desc.Format, i.desc.Size.Width, i.desc.Size.Height)
}

// Buffer is a byte buffer. Staging buffers from a Recorder keep their
// contents; declared buffers start zeroed.
type Buffer struct {
	name   string
	offset uint64
	data   []byte
}

// NewBuffer creates a zeroed buffer of size bytes at base offset.
func NewBuffer(name string, size, offset uint64) *Buffer {
	return &Buffer{name: name, offset: offset, data: make([]byte, size)}
}

func (b *Buffer) Name() string   { return b.name }
func (b *Buffer) Size() uint64   { return uint64(len(b.data)) }
func (b *Buffer) Offset() uint64 { return b.offset }

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) String() string {
	if b.name != "" {
		return b.name
	}
	return fmt.Sprintf("buffer(%d)", len(b.data))
}
