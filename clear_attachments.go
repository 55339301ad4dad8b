package xfer

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// clearUniformSize is the uniform block of clear draws: one RGBA float32
// color per slot followed by the depth value, padded to 16 bytes.
const clearUniformSize = MaxColorAttachments*16 + 16

// ClearAttachments clears rectangles of attachments of the active render
// pass by drawing quads whose fragment stage writes the clear values.
// Color, depth and stencil may all be cleared by one command.
type ClearAttachments struct {
	values       ClearValueStore
	colorMask    uint8
	clearDepth   bool
	clearStencil bool
	depth        float32
	stencil      uint32
	rects        Regions[ClearRect]
}

// SetContent validates and captures the clear. A single attachment is held
// in single-value storage, several in per-slot storage. On failure the
// command is left unchanged.
func (c *ClearAttachments) SetContent(dev *Device, attachments []ClearAttachment, rects []ClearRect) error {
	chk := check{use: UseClearAttachments, region: -1}
	if len(attachments) == 0 {
		return chk.param("attachments", "no attachments")
	}
	if len(rects) == 0 {
		return chk.param("rects", "no rectangles")
	}

	var values ClearValueStore = &multiClearValues{}
	if len(attachments) == 1 {
		values = &singleClearValue{}
	}
	var (
		mask                     uint8
		clearDepth, clearStencil bool
		depth                    float32
		stencil                  uint32
	)
	for i := range attachments {
		a := &attachments[i]
		ac := chk.at(i)
		switch {
		case a.Aspect == AspectColor:
			if a.ColorAttachment >= dev.MaxColorAttachments() {
				return ac.param("colorAttachment", "slot %d out of range (max %d)", a.ColorAttachment, dev.MaxColorAttachments())
			}
			if a.Value.IsDepthStencil() {
				return ac.param("value", "color attachment given a depth/stencil value")
			}
			values.SetClearValue(a.ColorAttachment, a.Value)
			mask |= 1 << a.ColorAttachment
		case a.Aspect != 0 && a.Aspect&^AspectDepthStencil == 0:
			if !a.Value.IsDepthStencil() {
				return ac.param("value", "depth/stencil attachment given a color value")
			}
			if a.Aspect&AspectDepth != 0 {
				if err := ac.depth("value", a.Value.Depth()); err != nil {
					return err
				}
				clearDepth, depth = true, a.Value.Depth()
			}
			if a.Aspect&AspectStencil != 0 {
				clearStencil, stencil = true, a.Value.Stencil()
			}
		default:
			return ac.param("aspect", "aspect %s must be color or a depth/stencil subset", a.Aspect)
		}
	}
	for i := range rects {
		r := &rects[i]
		if r.Rect.Empty() {
			return chk.at(i).param("rect", "empty rectangle %dx%d", r.Rect.Width, r.Rect.Height)
		}
		if r.LayerCount == 0 {
			return chk.at(i).param("layerCount", "layer count is zero")
		}
		if end := uint64(r.BaseArrayLayer) + uint64(r.LayerCount); end > uint64(dev.Limits().MaxTextureArrayLayers) {
			return chk.at(i).param("layerCount", "layers %d..%d exceed the limit of %d",
				r.BaseArrayLayer, end, dev.Limits().MaxTextureArrayLayers)
		}
	}

	c.values = values
	c.colorMask = mask
	c.clearDepth, c.clearStencil = clearDepth, clearStencil
	c.depth, c.stencil = depth, stencil
	c.rects = captureRegions(rects)
	slogger().Debug("xfer: clear attachments", "attachments", len(attachments), "rects", len(rects),
		"depth", clearDepth, "stencil", clearStencil)
	return nil
}

// Use returns UseClearAttachments.
func (c *ClearAttachments) Use() CommandUse { return UseClearAttachments }

// IsSingle reports whether the command holds a single clear value.
func (c *ClearAttachments) IsSingle() bool {
	_, ok := c.values.(*singleClearValue)
	return ok
}

// ClearValue returns the color clear value of slot.
func (c *ClearAttachments) ClearValue(slot uint32) ClearValue {
	if c.values == nil {
		return ClearValue{}
	}
	return c.values.ClearValue(slot)
}

// ColorMask has bit i set when color slot i is cleared.
func (c *ClearAttachments) ColorMask() uint8 { return c.colorMask }

// ClearsDepth reports whether depth is cleared, and to what value.
func (c *ClearAttachments) ClearsDepth() (bool, float32) { return c.clearDepth, c.depth }

// ClearsStencil reports whether stencil is cleared, and to what value.
func (c *ClearAttachments) ClearsStencil() (bool, uint32) { return c.clearStencil, c.stencil }

// Rects returns the captured rectangles.
func (c *ClearAttachments) Rects() *Regions[ClearRect] { return &c.rects }

// VertexCount returns the number of vertices generated for the captured
// rectangles before clipping against the render pass.
func (c *ClearAttachments) VertexCount() uint64 {
	var n uint64
	for _, r := range c.rects.All() {
		n += uint64(r.LayerCount) * ClearQuadVertexCount
	}
	return n
}

// passLayers returns the layers of r that fall inside a pass of the given
// layer count.
func (r ClearRect) passLayers(layers uint32) (first, end uint32) {
	if r.BaseArrayLayer >= layers {
		return layers, layers
	}
	return r.BaseArrayLayer, uint32(min(uint64(r.BaseArrayLayer)+uint64(r.LayerCount), uint64(layers)))
}

// Encode draws the clear into the active render pass. Slots and aspects
// the pass does not have are skipped.
func (c *ClearAttachments) Encode(enc *Encoder) {
	pass := enc.RenderPass()
	if pass == nil {
		slogger().Warn("xfer: clear attachments outside a render pass")
		return
	}

	var key ClearPipelineKey
	for i, f := range pass.ColorFormats {
		if i < MaxColorAttachments {
			key.ColorFormats[i] = f
		}
	}
	for slot := range uint32(MaxColorAttachments) {
		if c.colorMask&(1<<slot) != 0 && key.ColorFormats[slot] != gputypes.TextureFormatUndefined {
			key.ColorMask |= 1 << slot
		}
	}
	ds := pass.DepthStencilFormat
	key.ClearDepth = c.clearDepth && ds != gputypes.TextureFormatUndefined && ds.HasDepth()
	key.ClearStencil = c.clearStencil && ds != gputypes.TextureFormatUndefined && ds.HasStencil()
	if key.ColorMask == 0 && !key.ClearDepth && !key.ClearStencil {
		slogger().Debug("xfer: clear attachments has no matching attachment")
		return
	}
	key.DepthStencilFormat = ds
	key.SampleCount = pass.SampleCount
	key.Layered = pass.Layers > 1

	var quads int
	for _, r := range c.rects.All() {
		if first, end := r.passLayers(pass.Layers); !r.Rect.Clip(pass.Width, pass.Height).Empty() {
			quads += int(end - first)
		}
	}
	verts := make([]f32.Vec4, 0, quads*ClearQuadVertexCount)
	var scissor Rect2D
	for _, r := range c.rects.All() {
		rect := r.Rect.Clip(pass.Width, pass.Height)
		if rect.Empty() {
			continue
		}
		first, end := r.passLayers(pass.Layers)
		for layer := first; layer < end; layer++ {
			verts = AppendClearQuad(verts, rect, pass.Width, pass.Height, c.depth, layer)
		}
		if end > first {
			scissor = scissor.Union(rect)
		}
	}
	if len(verts) == 0 {
		return
	}

	vb := enc.Alloc.Bytes(len(verts) * clearVertexStride)
	writeClearVertices(vb, verts)
	ub := enc.Alloc.Bytes(clearUniformSize)
	writeClearUniforms(ub, c.values, key.ColorMask, c.depth)

	enc.Backend.Draw(UseClearAttachments, &DrawCall{
		Pipeline:         enc.Pipelines.ClearPipeline(key),
		Topology:         gputypes.PrimitiveTopologyTriangleList,
		Vertices:         vb,
		VertexCount:      uint32(len(verts)),
		InstanceCount:    1,
		Uniforms:         ub,
		Scissor:          scissor,
		StencilReference: c.stencil,
	})
}

// writeClearUniforms packs the colors of the masked slots and the depth
// value. Unmasked slots are left zero.
func writeClearUniforms(buf []byte, values ClearValueStore, mask uint8, depth float32) {
	clear(buf[:clearUniformSize])
	for slot := range uint32(MaxColorAttachments) {
		if mask&(1<<slot) == 0 {
			continue
		}
		col := values.ClearValue(slot).Color()
		putFloats(buf[slot*16:], float32(col.R), float32(col.G), float32(col.B), float32(col.A))
	}
	putFloats(buf[MaxColorAttachments*16:], depth)
}
