package xfer

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Aspect selects the planes of an image a region addresses.
type Aspect uint8

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil

	AspectDepthStencil = AspectDepth | AspectStencil
)

func (a Aspect) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a&AspectColor != 0 {
		parts = append(parts, "color")
	}
	if a&AspectDepth != 0 {
		parts = append(parts, "depth")
	}
	if a&AspectStencil != 0 {
		parts = append(parts, "stencil")
	}
	return strings.Join(parts, "|")
}

// TextureAspect converts the mask to the WebGPU aspect selector.
func (a Aspect) TextureAspect() gputypes.TextureAspect {
	switch a {
	case AspectDepth:
		return gputypes.TextureAspectDepthOnly
	case AspectStencil:
		return gputypes.TextureAspectStencilOnly
	default:
		return gputypes.TextureAspectAll
	}
}

// AspectsOf returns every aspect present in format.
func AspectsOf(format gputypes.TextureFormat) Aspect {
	if !format.IsDepthStencil() {
		return AspectColor
	}
	var a Aspect
	if format.HasDepth() {
		a |= AspectDepth
	}
	if format.HasStencil() {
		a |= AspectStencil
	}
	return a
}

// Offset3D is a signed texel coordinate. Blit corners use it so that
// swapped corners can express mirroring.
type Offset3D struct {
	X, Y, Z int32
}

// SubresourceLayers addresses one mip level and a run of array layers.
type SubresourceLayers struct {
	Aspect         Aspect
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Remaining counts for SubresourceRange.
const (
	RemainingMipLevels   = ^uint32(0)
	RemainingArrayLayers = ^uint32(0)
)

// SubresourceRange addresses a run of mip levels and array layers.
type SubresourceRange struct {
	Aspect         Aspect
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// counts resolves the Remaining sentinels against img.
func (r SubresourceRange) counts(img Image) (levels, layers uint32) {
	levels, layers = r.LevelCount, r.LayerCount
	if levels == RemainingMipLevels && r.BaseMipLevel < img.MipLevelCount() {
		levels = img.MipLevelCount() - r.BaseMipLevel
	}
	if layers == RemainingArrayLayers && r.BaseArrayLayer < imageLayers(img) {
		layers = imageLayers(img) - r.BaseArrayLayer
	}
	return levels, layers
}

// ImageCopyRegion describes one image-to-image copy.
type ImageCopyRegion struct {
	SrcSubresource SubresourceLayers
	SrcOffset      gputypes.Origin3D
	DstSubresource SubresourceLayers
	DstOffset      gputypes.Origin3D
	Extent         gputypes.Extent3D
}

// ImageBlitRegion describes one scaled, possibly mirrored, blit. Each side
// is a box given by two opposite corners.
type ImageBlitRegion struct {
	SrcSubresource SubresourceLayers
	SrcOffsets     [2]Offset3D
	DstSubresource SubresourceLayers
	DstOffsets     [2]Offset3D
}

// ImageResolveRegion resolves whole subresources: every layer of the
// source mip level into the matching layer of the destination mip level.
type ImageResolveRegion struct {
	SrcSubresource SubresourceLayers
	DstSubresource SubresourceLayers
}

// BufferCopyRegion describes one buffer-to-buffer copy.
type BufferCopyRegion struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// BufferImageCopyRegion describes one copy between a buffer and an image.
// BufferRowLength and BufferImageHeight are in texels; zero means the
// buffer is tightly packed to ImageExtent.
type BufferImageCopyRegion struct {
	BufferOffset      uint64
	BufferRowLength   uint32
	BufferImageHeight uint32
	ImageSubresource  SubresourceLayers
	ImageOffset       gputypes.Origin3D
	ImageExtent       gputypes.Extent3D
}

// Rect2D is a rectangle in framebuffer coordinates.
type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// Empty reports whether r covers no pixels.
func (r Rect2D) Empty() bool { return r.Width == 0 || r.Height == 0 }

// Union returns the smallest rectangle containing r and o.
func (r Rect2D) Union(o Rect2D) Rect2D {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1 := max(int64(r.X)+int64(r.Width), int64(o.X)+int64(o.Width))
	y1 := max(int64(r.Y)+int64(r.Height), int64(o.Y)+int64(o.Height))
	return Rect2D{X: x0, Y: y0, Width: uint32(x1 - int64(x0)), Height: uint32(y1 - int64(y0))}
}

// Clip returns the part of r inside a width x height framebuffer.
func (r Rect2D) Clip(width, height uint32) Rect2D {
	x0 := max(int64(r.X), 0)
	y0 := max(int64(r.Y), 0)
	x1 := min(int64(r.X)+int64(r.Width), int64(width))
	y1 := min(int64(r.Y)+int64(r.Height), int64(height))
	if x1 <= x0 || y1 <= y0 {
		return Rect2D{}
	}
	return Rect2D{X: int32(x0), Y: int32(y0), Width: uint32(x1 - x0), Height: uint32(y1 - y0)}
}

// ClearRect is one rectangle of a clear-attachments command, applied to a
// run of framebuffer layers.
type ClearRect struct {
	Rect           Rect2D
	BaseArrayLayer uint32
	LayerCount     uint32
}

// ClearAttachment names one attachment of the active render pass and the
// value to clear it to. ColorAttachment is ignored unless Aspect is
// AspectColor.
type ClearAttachment struct {
	Aspect          Aspect
	ColorAttachment uint32
	Value           ClearValue
}

// imageLayers is the number of addressable array layers. 3D images have
// a single layer; their depth is part of the extent.
func imageLayers(img Image) uint32 {
	if img.Dimension() == gputypes.TextureDimension3D {
		return 1
	}
	return img.ArrayLayerCount()
}
