package xfer

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Vertex counts of the emulated render paths.
const (
	// BlitVertexCount is the number of triangle-strip vertices per blit region.
	BlitVertexCount = 4

	// ClearQuadVertexCount is the number of triangle-list vertices per clear
	// rectangle and layer.
	ClearQuadVertexCount = 6
)

// Vertex strides in bytes.
const (
	blitVertexStride  = 20 // vec2 position + vec3 texcoord
	clearVertexStride = 16 // vec4 position
)

// VertexPosTex is a blit vertex: a clip-space position and a source texture
// coordinate. TexCoord.Z is the first source slice or layer; the shader
// advances it per instance.
type VertexPosTex struct {
	Position f32.Vec2
	TexCoord f32.Vec3
}

// BlitVertices returns the triangle strip covering the destination box of r
// with texture coordinates spanning its source box. Corners are used in the
// order given, so swapped corners produce a mirrored blit.
func BlitVertices(r *ImageBlitRegion, srcExtent, dstExtent gputypes.Extent3D, srcZ float32) [BlitVertexCount]VertexPosTex {
	d0, d1 := r.DstOffsets[0], r.DstOffsets[1]
	s0, s1 := r.SrcOffsets[0], r.SrcOffsets[1]

	x0, x1 := ndcX(d0.X, dstExtent.Width), ndcX(d1.X, dstExtent.Width)
	y0, y1 := ndcY(d0.Y, dstExtent.Height), ndcY(d1.Y, dstExtent.Height)
	u0, u1 := norm(s0.X, srcExtent.Width), norm(s1.X, srcExtent.Width)
	v0, v1 := norm(s0.Y, srcExtent.Height), norm(s1.Y, srcExtent.Height)

	// Strip order: (x0,y0) (x0,y1) (x1,y0) (x1,y1).
	return [BlitVertexCount]VertexPosTex{
		{Position: f32.Vec2{x0, y0}, TexCoord: f32.Vec3{u0, v0, srcZ}},
		{Position: f32.Vec2{x0, y1}, TexCoord: f32.Vec3{u0, v1, srcZ}},
		{Position: f32.Vec2{x1, y0}, TexCoord: f32.Vec3{u1, v0, srcZ}},
		{Position: f32.Vec2{x1, y1}, TexCoord: f32.Vec3{u1, v1, srcZ}},
	}
}

// AppendClearQuad appends the two triangles covering rect in a
// width x height framebuffer. Z carries the depth clear value and W the
// framebuffer layer.
func AppendClearQuad(dst []f32.Vec4, rect Rect2D, width, height uint32, depth float32, layer uint32) []f32.Vec4 {
	x0 := ndcX(rect.X, width)
	x1 := ndcX(rect.X+int32(rect.Width), width)
	y0 := ndcY(rect.Y, height)
	y1 := ndcY(rect.Y+int32(rect.Height), height)
	w := float32(layer)

	tl := f32.Vec4{x0, y0, depth, w}
	tr := f32.Vec4{x1, y0, depth, w}
	bl := f32.Vec4{x0, y1, depth, w}
	br := f32.Vec4{x1, y1, depth, w}

	// Triangle 1: TL, TR, BL. Triangle 2: TR, BR, BL.
	return append(dst, tl, tr, bl, tr, br, bl)
}

// ClearVertexCount returns the number of vertices AppendClearQuad produces
// for rects, before clipping.
func ClearVertexCount(rects []ClearRect) uint32 {
	var n uint32
	for i := range rects {
		n += rects[i].LayerCount * ClearQuadVertexCount
	}
	return n
}

func ndcX(x int32, width uint32) float32 {
	return float32(x)/float32(width)*2 - 1
}

// ndcY flips Y: framebuffer rows grow downward, clip space grows upward.
func ndcY(y int32, height uint32) float32 {
	return 1 - float32(y)/float32(height)*2
}

func norm(v int32, size uint32) float32 {
	return float32(v) / float32(size)
}

// writeBlitVertices serializes vertices into buf, which must hold
// len(v)*blitVertexStride bytes.
func writeBlitVertices(buf []byte, v []VertexPosTex) {
	off := 0
	for i := range v {
		putFloats(buf[off:], v[i].Position[0], v[i].Position[1],
			v[i].TexCoord[0], v[i].TexCoord[1], v[i].TexCoord[2])
		off += blitVertexStride
	}
}

// writeClearVertices serializes vertices into buf, which must hold
// len(v)*clearVertexStride bytes.
func writeClearVertices(buf []byte, v []f32.Vec4) {
	off := 0
	for i := range v {
		putFloats(buf[off:], v[i][0], v[i][1], v[i][2], v[i][3])
		off += clearVertexStride
	}
}

func putFloats(buf []byte, vals ...float32) {
	for i, f := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// BlitVertexLayout is the vertex buffer layout of blit draws.
func BlitVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: blitVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x3, Offset: 8, ShaderLocation: 1}, // texcoord
			},
		},
	}
}

// ClearVertexLayout is the vertex buffer layout of clear draws.
func ClearVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: clearVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}
