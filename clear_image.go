package xfer

import (
	"bytes"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// ClearStrategy is how one subresource range of an image clear is
// performed.
type ClearStrategy uint8

const (
	// ClearNative uses the backend's clear operation.
	ClearNative ClearStrategy = iota
	// ClearByCopy copies a buffer filled with the packed clear texel.
	ClearByCopy
	// ClearByRender draws a full-mip quad through a clear pipeline.
	ClearByRender
)

func (s ClearStrategy) String() string {
	switch s {
	case ClearNative:
		return "native"
	case ClearByCopy:
		return "copy"
	case ClearByRender:
		return "render"
	default:
		return "unknown"
	}
}

// clearImage is shared by the color and depth/stencil image clears. The
// variants differ only in validation of the value and aspect, and in the
// pipeline key requested for rendered ranges.
type clearImage struct {
	img        Image
	layout     ImageLayout
	value      ClearValue
	texel      []byte
	ranges     Regions[SubresourceRange]
	strategies []ClearStrategy
}

func (c *clearImage) setContent(dev *Device, chk check, img Image, layout ImageLayout, value ClearValue, ranges []SubresourceRange) error {
	if img == nil {
		return chk.param("image", "image is required")
	}
	if len(ranges) == 0 {
		return chk.param("ranges", "no subresource ranges")
	}

	format := img.Format()
	texel, packed := []byte(nil), false
	if !value.IsDepthStencil() {
		texel, packed = PackClearColor(format, value.Color())
	}
	feats := dev.FormatFeatures(format)
	usage := img.Usage()
	native := feats.Has(FeatureClear) && usage.Contains(gputypes.TextureUsageRenderAttachment)
	byCopy := packed && feats.Has(FeatureCopy) && usage.Contains(gputypes.TextureUsageCopyDst) && img.SampleCount() == 1
	byRender := feats.Has(FeatureRender) && usage.Contains(gputypes.TextureUsageRenderAttachment)

	strategies := make([]ClearStrategy, len(ranges))
	for i := range ranges {
		r := &ranges[i]
		rc := chk.at(i)
		if err := rc.aspect("aspect", format, r.Aspect); err != nil {
			return err
		}
		if value.IsDepthStencil() == (r.Aspect == AspectColor) {
			return rc.param("aspect", "aspect %s does not match a %s clear", r.Aspect, chk.use)
		}
		levels, layers := r.counts(img)
		if levels == 0 || uint64(r.BaseMipLevel)+uint64(levels) > uint64(img.MipLevelCount()) {
			return rc.param("levels", "mip levels [%d,+%d) out of range (image has %d)", r.BaseMipLevel, levels, img.MipLevelCount())
		}
		if layers == 0 || uint64(r.BaseArrayLayer)+uint64(layers) > uint64(imageLayers(img)) {
			return rc.param("layers", "layers [%d,+%d) out of range (image has %d)", r.BaseArrayLayer, layers, imageLayers(img))
		}
		switch {
		case native:
			strategies[i] = ClearNative
		case byCopy:
			strategies[i] = ClearByCopy
		case byRender:
			strategies[i] = ClearByRender
		default:
			return rc.incompatible("format", "%s cannot be cleared", format)
		}
	}

	c.img, c.layout, c.value = img, layout, value
	c.texel = texel
	c.ranges = captureRegions(ranges)
	c.strategies = strategies
	slogger().Debug("xfer: clear image", "use", chk.use.String(), "format", format.String(),
		"ranges", len(ranges), "strategy", strategies[0].String())
	return nil
}

// Ranges returns the captured subresource ranges.
func (c *clearImage) Ranges() *Regions[SubresourceRange] { return &c.ranges }

// Strategy returns how range i is cleared.
func (c *clearImage) Strategy(i int) ClearStrategy { return c.strategies[i] }

// Value returns the clear value.
func (c *clearImage) Value() ClearValue { return c.value }

func (c *clearImage) encode(enc *Encoder, use CommandUse) {
	for i, r := range c.ranges.All() {
		levels, layers := r.counts(c.img)
		for mip := r.BaseMipLevel; mip < r.BaseMipLevel+levels; mip++ {
			loc := ImageLocation{
				Image:          c.img,
				Layout:         c.layout,
				Aspect:         r.Aspect,
				MipLevel:       mip,
				BaseArrayLayer: r.BaseArrayLayer,
				LayerCount:     layers,
			}
			if c.img.Dimension() == gputypes.TextureDimension3D {
				loc.BaseArrayLayer = 0
				loc.LayerCount = c.img.Extent(mip).DepthOrArrayLayers
			}
			switch c.strategies[i] {
			case ClearNative:
				enc.Backend.ClearImage(use, &ImageClearOp{Image: loc, Value: c.value})
			case ClearByCopy:
				c.encodeCopy(enc, use, loc)
			case ClearByRender:
				c.encodeRender(enc, use, loc)
			}
		}
	}
}

// encodeCopy fills one slice worth of texels and copies it into every
// layer of loc.
func (c *clearImage) encodeCopy(enc *Encoder, use CommandUse, loc ImageLocation) {
	ext := c.img.Extent(loc.MipLevel)
	ext.DepthOrArrayLayers = 1
	bytesPerRow := ext.Width * uint32(len(c.texel))
	contents := bytes.Repeat(c.texel, int(ext.Width*ext.Height))
	buf := enc.Alloc.Buffer(uint64(len(contents)), contents)

	is3D := c.img.Dimension() == gputypes.TextureDimension3D
	for layer := range loc.LayerCount {
		op := &BufferImageCopyOp{
			Buffer:       buf,
			Offset:       buf.Offset(),
			BytesPerRow:  bytesPerRow,
			RowsPerImage: ext.Height,
			Image:        loc,
			Extent:       ext,
		}
		op.Image.LayerCount = 1
		if is3D {
			op.Image.Origin.Z = layer
		} else {
			op.Image.BaseArrayLayer = loc.BaseArrayLayer + layer
		}
		enc.Backend.CopyBufferToImage(use, op)
	}
}

// encodeRender draws a quad covering the mip level into every layer of
// loc, one instance per layer.
func (c *clearImage) encodeRender(enc *Encoder, use CommandUse, loc ImageLocation) {
	ext := c.img.Extent(loc.MipLevel)
	full := Rect2D{Width: ext.Width, Height: ext.Height}

	var key ClearPipelineKey
	var depth float32
	values := &singleClearValue{value: c.value}
	if c.value.IsDepthStencil() {
		key.DepthStencilFormat = c.img.Format()
		key.ClearDepth = loc.Aspect&AspectDepth != 0
		key.ClearStencil = loc.Aspect&AspectStencil != 0
		depth = c.value.Depth()
	} else {
		key.ColorFormats[0] = c.img.Format()
		key.ColorMask = 1
	}
	key.SampleCount = c.img.SampleCount()

	verts := AppendClearQuad(make([]f32.Vec4, 0, ClearQuadVertexCount), full, ext.Width, ext.Height, depth, 0)
	vb := enc.Alloc.Bytes(len(verts) * clearVertexStride)
	writeClearVertices(vb, verts)
	ub := enc.Alloc.Bytes(clearUniformSize)
	writeClearUniforms(ub, values, key.ColorMask, depth)

	target := loc
	enc.Backend.Draw(use, &DrawCall{
		Pipeline:         enc.Pipelines.ClearPipeline(key),
		Target:           &target,
		Topology:         gputypes.PrimitiveTopologyTriangleList,
		Vertices:         vb,
		VertexCount:      ClearQuadVertexCount,
		InstanceCount:    loc.LayerCount,
		Uniforms:         ub,
		Scissor:          full,
		StencilReference: c.value.Stencil(),
	})
}

// ClearColorImage clears color subresources of an image outside a render
// pass.
type ClearColorImage struct {
	clearImage
}

// SetContent validates and captures the clear. On failure the command is
// left unchanged.
func (c *ClearColorImage) SetContent(dev *Device, img Image, layout ImageLayout, color gputypes.Color, ranges []SubresourceRange) error {
	chk := check{use: UseClearColorImage, region: -1}
	if img != nil && img.Format().IsDepthStencil() {
		return chk.incompatible("image", "%s is not a color format", img.Format())
	}
	return c.setContent(dev, chk, img, layout, ColorClear(color), ranges)
}

// Use returns UseClearColorImage.
func (c *ClearColorImage) Use() CommandUse { return UseClearColorImage }

// Encode emits the clear of every captured range.
func (c *ClearColorImage) Encode(enc *Encoder) { c.encode(enc, UseClearColorImage) }

// ClearDepthStencilImage clears depth and/or stencil subresources of an
// image outside a render pass.
type ClearDepthStencilImage struct {
	clearImage
}

// SetContent validates and captures the clear. On failure the command is
// left unchanged.
func (c *ClearDepthStencilImage) SetContent(dev *Device, img Image, layout ImageLayout, depth float32, stencil uint32, ranges []SubresourceRange) error {
	chk := check{use: UseClearDepthStencilImage, region: -1}
	if img != nil && !img.Format().IsDepthStencil() {
		return chk.incompatible("image", "%s is not a depth/stencil format", img.Format())
	}
	if err := chk.depth("depth", depth); err != nil {
		return err
	}
	return c.setContent(dev, chk, img, layout, DepthStencilClear(depth, stencil), ranges)
}

// Use returns UseClearDepthStencilImage.
func (c *ClearDepthStencilImage) Use() CommandUse { return UseClearDepthStencilImage }

// Encode emits the clear of every captured range.
func (c *ClearDepthStencilImage) Encode(enc *Encoder) { c.encode(enc, UseClearDepthStencilImage) }
