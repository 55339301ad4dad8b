package xfer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Image is the read-only view of an image resource consumed by commands.
// Commands reference images without owning them; the caller keeps them
// alive until every command referencing them has been encoded.
//
// Format, sample count and extents must not change for the lifetime of the
// image. Only the layout (tracked by the caller) may change.
type Image interface {
	Format() gputypes.TextureFormat
	SampleCount() uint32
	Dimension() gputypes.TextureDimension
	// Extent returns the size of the given mip level. For 2D images the
	// DepthOrArrayLayers component is 1.
	Extent(mip uint32) gputypes.Extent3D
	MipLevelCount() uint32
	ArrayLayerCount() uint32
	Usage() gputypes.TextureUsage
	// IsLinear reports whether the image uses linear (row-major) tiling.
	IsLinear() bool
}

// Buffer is the read-only view of a linear memory resource. Identity is
// interface equality, so implementations should be pointer types; values
// of a non-comparable type are never treated as the same buffer.
type Buffer interface {
	// Size is the usable length in bytes.
	Size() uint64
	// Offset is the base offset of the buffer within its backing
	// allocation. Commands add it to every offset they emit.
	Offset() uint64
}

// ImageLayout is the access-pattern state of an image at the point a
// command is recorded. It is captured for the backend and never changes
// how a region is classified.
type ImageLayout uint8

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutTransferSrc
	LayoutTransferDst
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutShaderReadOnly
	LayoutPresent
)

var layoutNames = [...]string{
	LayoutUndefined:              "Undefined",
	LayoutGeneral:                "General",
	LayoutTransferSrc:            "TransferSrc",
	LayoutTransferDst:            "TransferDst",
	LayoutColorAttachment:        "ColorAttachment",
	LayoutDepthStencilAttachment: "DepthStencilAttachment",
	LayoutShaderReadOnly:         "ShaderReadOnly",
	LayoutPresent:                "Present",
}

func (l ImageLayout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("ImageLayout(%d)", l)
}

// CommandUse tags every backend call with the API command it serves.
// Backends use it for debug labels and encoder bookkeeping.
type CommandUse uint8

const (
	UseNone CommandUse = iota
	UseCopyImage
	UseBlitImage
	UseResolveImage
	UseCopyBuffer
	UseCopyBufferToImage
	UseCopyImageToBuffer
	UseClearAttachments
	UseClearColorImage
	UseClearDepthStencilImage
	UseFillBuffer
	UseUpdateBuffer
)

var useNames = [...]string{
	UseNone:                   "none",
	UseCopyImage:              "copy-image",
	UseBlitImage:              "blit-image",
	UseResolveImage:           "resolve-image",
	UseCopyBuffer:             "copy-buffer",
	UseCopyBufferToImage:      "copy-buffer-to-image",
	UseCopyImageToBuffer:      "copy-image-to-buffer",
	UseClearAttachments:       "clear-attachments",
	UseClearColorImage:        "clear-color-image",
	UseClearDepthStencilImage: "clear-depth-stencil-image",
	UseFillBuffer:             "fill-buffer",
	UseUpdateBuffer:           "update-buffer",
}

func (u CommandUse) String() string {
	if int(u) < len(useNames) {
		return useNames[u]
	}
	return fmt.Sprintf("CommandUse(%d)", u)
}
