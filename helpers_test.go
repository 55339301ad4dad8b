package xfer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

const allTestUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment

// testImage is an in-memory Image.
type testImage struct {
	format  gputypes.TextureFormat
	samples uint32
	dim     gputypes.TextureDimension
	size    gputypes.Extent3D
	mips    uint32
	layers  uint32
	usage   gputypes.TextureUsage
	linear  bool
}

func newTestImage(format gputypes.TextureFormat, width, height uint32) *testImage {
	return &testImage{
		format:  format,
		samples: 1,
		dim:     gputypes.TextureDimension2D,
		size:    gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		mips:    1,
		layers:  1,
		usage:   allTestUsage,
	}
}

func newTestImage3D(format gputypes.TextureFormat, width, height, depth uint32) *testImage {
	img := newTestImage(format, width, height)
	img.dim = gputypes.TextureDimension3D
	img.size.DepthOrArrayLayers = depth
	return img
}

func (i *testImage) withSamples(n uint32) *testImage              { i.samples = n; return i }
func (i *testImage) withLayers(n uint32) *testImage               { i.layers = n; return i }
func (i *testImage) withMips(n uint32) *testImage                 { i.mips = n; return i }
func (i *testImage) withUsage(u gputypes.TextureUsage) *testImage { i.usage = u; return i }

func (i *testImage) Format() gputypes.TextureFormat       { return i.format }
func (i *testImage) SampleCount() uint32                  { return i.samples }
func (i *testImage) Dimension() gputypes.TextureDimension { return i.dim }
func (i *testImage) MipLevelCount() uint32                { return i.mips }
func (i *testImage) ArrayLayerCount() uint32              { return i.layers }
func (i *testImage) Usage() gputypes.TextureUsage         { return i.usage }
func (i *testImage) IsLinear() bool                       { return i.linear }

func (i *testImage) Extent(mip uint32) gputypes.Extent3D {
	e := gputypes.Extent3D{
		Width:              max(i.size.Width>>mip, 1),
		Height:             max(i.size.Height>>mip, 1),
		DepthOrArrayLayers: 1,
	}
	if i.dim == gputypes.TextureDimension3D {
		e.DepthOrArrayLayers = max(i.size.DepthOrArrayLayers>>mip, 1)
	}
	return e
}

// testBuffer is an in-memory Buffer.
type testBuffer struct {
	size, offset uint64
	data         []byte
}

func newTestBuffer(size, offset uint64) *testBuffer {
	return &testBuffer{size: size, offset: offset}
}

func (b *testBuffer) Size() uint64   { return b.size }
func (b *testBuffer) Offset() uint64 { return b.offset }

// recordedOp is one backend call seen by recordingBackend.
type recordedOp struct {
	kind string
	use  CommandUse
	op   any
}

// recordingBackend implements Backend, PipelineFactory and Allocator and
// keeps every call for inspection.
type recordingBackend struct {
	ops       []recordedOp
	pipelines []string
	staging   []*testBuffer
}

func newTestEncoder() (*Encoder, *recordingBackend) {
	rb := &recordingBackend{}
	return NewEncoder(rb, rb, rb), rb
}

func (r *recordingBackend) add(kind string, use CommandUse, op any) {
	r.ops = append(r.ops, recordedOp{kind: kind, use: use, op: op})
}

func (r *recordingBackend) CopyImage(use CommandUse, op *ImageCopyOp) {
	r.add("copy-image", use, *op)
}
func (r *recordingBackend) CopyBuffer(use CommandUse, op *BufferCopyOp) {
	r.add("copy-buffer", use, *op)
}
func (r *recordingBackend) CopyBufferToImage(use CommandUse, op *BufferImageCopyOp) {
	r.add("buffer-to-image", use, *op)
}
func (r *recordingBackend) CopyImageToBuffer(use CommandUse, op *BufferImageCopyOp) {
	r.add("image-to-buffer", use, *op)
}
func (r *recordingBackend) ResolveImage(use CommandUse, op *ResolveOp) {
	r.add("resolve", use, *op)
}
func (r *recordingBackend) ClearImage(use CommandUse, op *ImageClearOp) {
	r.add("clear-image", use, *op)
}
func (r *recordingBackend) FillBuffer(use CommandUse, op *FillOp) {
	r.add("fill", use, *op)
}
func (r *recordingBackend) UpdateBuffer(use CommandUse, op *UpdateOp) {
	r.add("update", use, *op)
}
func (r *recordingBackend) Draw(use CommandUse, call *DrawCall) {
	r.add("draw", use, *call)
}

type testPipeline string

func (p testPipeline) Label() string { return string(p) }

func (r *recordingBackend) BlitPipeline(key BlitPipelineKey) Pipeline {
	r.pipelines = append(r.pipelines, key.String())
	return testPipeline(key.String())
}

func (r *recordingBackend) ClearPipeline(key ClearPipelineKey) Pipeline {
	r.pipelines = append(r.pipelines, key.String())
	return testPipeline(key.String())
}

func (r *recordingBackend) Bytes(n int) []byte { return make([]byte, n) }

func (r *recordingBackend) Buffer(size uint64, contents []byte) Buffer {
	b := &testBuffer{size: size, data: append([]byte(nil), contents...)}
	r.staging = append(r.staging, b)
	return b
}

func (r *recordingBackend) kinds() []string {
	out := make([]string, len(r.ops))
	for i, op := range r.ops {
		out[i] = op.kind
	}
	return out
}

func (r *recordingBackend) count(kind string) int {
	n := 0
	for _, op := range r.ops {
		if op.kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingBackend) draw(i int) DrawCall {
	d, ok := r.ops[i].op.(DrawCall)
	if !ok {
		panic(fmt.Sprintf("op %d is %s, not a draw", i, r.ops[i].kind))
	}
	return d
}

func colorLayers(base, count uint32) SubresourceLayers {
	return SubresourceLayers{Aspect: AspectColor, BaseArrayLayer: base, LayerCount: count}
}

func extent(w, h, d uint32) gputypes.Extent3D {
	return gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: d}
}
