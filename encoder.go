package xfer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Command is a validated transfer command. SetContent methods (one per
// command type) build and validate it; Encode emits it to a backend.
// Encode never fails once SetContent has succeeded.
type Command interface {
	Use() CommandUse
	Encode(enc *Encoder)
}

// =============================================================================
// Backend operations
// =============================================================================

// ImageLocation addresses a run of layers of one mip level, starting at a
// texel origin. For 3D images Origin.Z selects the first slice and
// BaseArrayLayer is 0; draw targets and clears of 3D images count depth
// slices in LayerCount.
type ImageLocation struct {
	Image          Image
	Layout         ImageLayout
	Aspect         Aspect
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
	Origin         gputypes.Origin3D
}

// ImageCopyOp copies a box between images. Extent is in source texels.
type ImageCopyOp struct {
	Src    ImageLocation
	Dst    ImageLocation
	Extent gputypes.Extent3D
}

// BufferCopyOp copies bytes between buffers. Offsets include the buffers'
// base offsets.
type BufferCopyOp struct {
	Src       Buffer
	Dst       Buffer
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// BufferImageCopyOp copies between a buffer and an image box. Offset
// includes the buffer's base offset; BytesPerRow and RowsPerImage describe
// the buffer layout in bytes and block rows.
type BufferImageCopyOp struct {
	Buffer       Buffer
	Offset       uint64
	BytesPerRow  uint32
	RowsPerImage uint32
	Image        ImageLocation
	Extent       gputypes.Extent3D
}

// ResolveOp resolves whole subresources of a multisampled image.
type ResolveOp struct {
	Src    ImageLocation
	Dst    ImageLocation
	Extent gputypes.Extent3D
}

// ImageClearOp clears the layers of one mip level natively.
type ImageClearOp struct {
	Image ImageLocation
	Value ClearValue
}

// FillOp writes Value to WordCount consecutive 32-bit words.
type FillOp struct {
	Dst       Buffer
	Offset    uint64
	WordCount uint64
	Value     uint32
}

// UpdateOp writes Data at Offset. Data is owned by the command and must not
// be modified.
type UpdateOp struct {
	Dst    Buffer
	Offset uint64
	Data   []byte
}

// DrawCall is a full-pipeline draw of generated geometry used by the
// emulated paths.
type DrawCall struct {
	Pipeline Pipeline
	// Target is the image rendered to, one instance per layer. Nil means
	// the active render pass.
	Target *ImageLocation
	// Source is the sampled image of blits. Texture coordinates and the
	// sampled level are relative to it: Z counts layers from its base
	// layer, or slices for 3D sources, and level 0 is its mip level.
	Source   *ImageLocation
	Filter   gputypes.FilterMode
	Topology gputypes.PrimitiveTopology

	Vertices      []byte
	VertexCount   uint32
	InstanceCount uint32
	Uniforms      []byte

	Scissor          Rect2D
	StencilReference uint32
}

// Backend issues primitive GPU operations. Every call carries the tag of
// the command it serves. Implementations report their own failures; the
// core has no error path at encode time.
type Backend interface {
	CopyImage(use CommandUse, op *ImageCopyOp)
	CopyBuffer(use CommandUse, op *BufferCopyOp)
	CopyBufferToImage(use CommandUse, op *BufferImageCopyOp)
	CopyImageToBuffer(use CommandUse, op *BufferImageCopyOp)
	ResolveImage(use CommandUse, op *ResolveOp)
	ClearImage(use CommandUse, op *ImageClearOp)
	FillBuffer(use CommandUse, op *FillOp)
	UpdateBuffer(use CommandUse, op *UpdateOp)
	Draw(use CommandUse, call *DrawCall)
}

// =============================================================================
// Pipelines and scratch memory
// =============================================================================

// Pipeline is an opaque render pipeline supplied by a PipelineFactory.
type Pipeline interface {
	Label() string
}

// BlitPipelineKey identifies the pipeline of an emulated blit.
type BlitPipelineKey struct {
	SrcFormat    gputypes.TextureFormat
	DstFormat    gputypes.TextureFormat
	SrcDimension gputypes.TextureDimension
	SrcAspect    Aspect
	DstAspect    Aspect
	Filter       gputypes.FilterMode
	SampleCount  uint32
}

func (k BlitPipelineKey) String() string {
	return fmt.Sprintf("blit %s(%s,%s)->%s(%s) filter=%d samples=%d",
		k.SrcFormat, k.SrcDimension, k.SrcAspect, k.DstFormat, k.DstAspect, k.Filter, k.SampleCount)
}

// ClearPipelineKey identifies the pipeline of an emulated clear. ColorMask
// has bit i set when color slot i is written.
type ClearPipelineKey struct {
	ColorFormats       [MaxColorAttachments]gputypes.TextureFormat
	ColorMask          uint8
	DepthStencilFormat gputypes.TextureFormat
	ClearDepth         bool
	ClearStencil       bool
	SampleCount        uint32
	Layered            bool
}

func (k ClearPipelineKey) String() string {
	s := "clear"
	for i, f := range k.ColorFormats {
		if f != gputypes.TextureFormatUndefined {
			mark := ""
			if k.ColorMask&(1<<i) != 0 {
				mark = "*"
			}
			s += fmt.Sprintf(" c%d=%s%s", i, f, mark)
		}
	}
	if k.DepthStencilFormat != gputypes.TextureFormatUndefined {
		s += fmt.Sprintf(" ds=%s depth=%t stencil=%t", k.DepthStencilFormat, k.ClearDepth, k.ClearStencil)
	}
	return s + fmt.Sprintf(" samples=%d layered=%t", k.SampleCount, k.Layered)
}

// PipelineFactory supplies cached pipelines for the emulated paths.
type PipelineFactory interface {
	BlitPipeline(key BlitPipelineKey) Pipeline
	ClearPipeline(key ClearPipelineKey) Pipeline
}

// Allocator supplies transient memory while encoding.
type Allocator interface {
	// Bytes returns n bytes of host scratch memory valid until the
	// encoded work completes.
	Bytes(n int) []byte
	// Buffer returns a staging buffer of size bytes, initialized with
	// contents when it is non-nil.
	Buffer(size uint64, contents []byte) Buffer
}

// =============================================================================
// Encoder
// =============================================================================

// RenderPassInfo describes the active render pass. ColorFormats[i] is
// Undefined when slot i has no attachment.
type RenderPassInfo struct {
	Width, Height      uint32
	Layers             uint32
	ColorFormats       []gputypes.TextureFormat
	DepthStencilFormat gputypes.TextureFormat
	SampleCount        uint32
}

// Encoder bundles the collaborators commands encode into. An Encoder is
// used by one goroutine at a time.
type Encoder struct {
	Backend   Backend
	Pipelines PipelineFactory
	Alloc     Allocator

	pass *RenderPassInfo
}

// NewEncoder creates an encoder outside any render pass.
func NewEncoder(b Backend, p PipelineFactory, a Allocator) *Encoder {
	return &Encoder{Backend: b, Pipelines: p, Alloc: a}
}

// BeginRenderPass records that subsequent commands run inside a pass.
func (e *Encoder) BeginRenderPass(info RenderPassInfo) {
	if info.Layers == 0 {
		info.Layers = 1
	}
	if info.SampleCount == 0 {
		info.SampleCount = 1
	}
	e.pass = &info
}

// EndRenderPass leaves the active render pass.
func (e *Encoder) EndRenderPass() { e.pass = nil }

// RenderPass returns the active render pass, or nil.
func (e *Encoder) RenderPass() *RenderPassInfo { return e.pass }

// Encode encodes cmds in order.
func (e *Encoder) Encode(cmds ...Command) {
	for _, c := range cmds {
		c.Encode(e)
	}
}
