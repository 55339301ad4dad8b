package xfer

import "github.com/gogpu/gputypes"

// BlitImage resamples source boxes into destination boxes, converting
// format and scaling as needed. Regions the backend can perform as a plain
// copy are emitted as copies; all others are drawn as textured quads.
type BlitImage struct {
	src, dst             Image
	srcLayout, dstLayout ImageLayout
	filter               gputypes.FilterMode
	regions              Regions[ImageBlitRegion]
	direct               []bool
}

// SetContent validates and captures the blit. filter applies to every
// region. On failure the command is left unchanged.
func (c *BlitImage) SetContent(dev *Device, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, regions []ImageBlitRegion, filter gputypes.FilterMode) error {
	chk := check{use: UseBlitImage, region: -1}
	if src == nil || dst == nil {
		return chk.param("image", "source and destination images are required")
	}
	if len(regions) == 0 {
		return chk.param("regions", "no regions")
	}
	if filter != gputypes.FilterModeNearest && filter != gputypes.FilterModeLinear {
		return chk.param("filter", "unsupported filter mode %d", filter)
	}
	if src.SampleCount() != 1 || dst.SampleCount() != 1 {
		return chk.incompatible("sampleCount", "blits require single-sampled images")
	}

	isDestUnwritableLinear := dst.IsLinear() && !dev.RenderLinearImages()
	direct := make([]bool, len(regions))
	emulated := 0
	for i := range regions {
		d, err := validateBlitRegion(chk.at(i), dev, src, dst, &regions[i], filter, isDestUnwritableLinear)
		if err != nil {
			return err
		}
		direct[i] = d
		if !d {
			emulated++
		}
	}

	c.src, c.dst = src, dst
	c.srcLayout, c.dstLayout = srcLayout, dstLayout
	c.filter = filter
	c.regions = captureRegions(regions)
	c.direct = direct
	slogger().Debug("xfer: blit image", "regions", len(regions), "emulated", emulated,
		"src", src.Format().String(), "dst", dst.Format().String())
	return nil
}

// validateBlitRegion checks one region and reports whether it can be
// performed as a direct copy.
func validateBlitRegion(chk check, dev *Device, src, dst Image, r *ImageBlitRegion, filter gputypes.FilterMode, isDestUnwritableLinear bool) (bool, error) {
	if err := chk.subresource("srcSubresource", src, r.SrcSubresource); err != nil {
		return false, err
	}
	if err := chk.subresource("dstSubresource", dst, r.DstSubresource); err != nil {
		return false, err
	}
	if err := chk.blitCorners("srcOffsets", src, r.SrcSubresource.MipLevel, r.SrcOffsets); err != nil {
		return false, err
	}
	if err := chk.blitCorners("dstOffsets", dst, r.DstSubresource.MipLevel, r.DstOffsets); err != nil {
		return false, err
	}

	src3D := src.Dimension() == gputypes.TextureDimension3D
	dst3D := dst.Dimension() == gputypes.TextureDimension3D
	if src3D || dst3D {
		for _, s := range [2]SubresourceLayers{r.SrcSubresource, r.DstSubresource} {
			if s.BaseArrayLayer != 0 || s.LayerCount != 1 {
				return false, chk.param("layerCount", "blits involving 3D images address a single layer")
			}
		}
	} else if r.SrcSubresource.LayerCount != r.DstSubresource.LayerCount {
		return false, chk.param("layerCount", "source has %d layers, destination %d",
			r.SrcSubresource.LayerCount, r.DstSubresource.LayerCount)
	}

	usage := src.Usage().Contains(gputypes.TextureUsageCopySrc) && dst.Usage().Contains(gputypes.TextureUsageCopyDst)
	if classifyBlit(src, dst, r) && usage && r.SrcSubresource.Aspect == r.DstSubresource.Aspect &&
		dev.FormatFeatures(src.Format()).Has(FeatureCopy) {
		return true, nil
	}

	// Render path.
	switch {
	case isDestUnwritableLinear:
		return false, chk.incompatible("dstImage", "blit to linear %s needs rendering, which linear images do not support", dst.Format())
	case r.SrcSubresource.Aspect == AspectStencil || r.DstSubresource.Aspect == AspectStencil:
		return false, chk.incompatible("aspect", "stencil can only be blitted by an unscaled copy of the same format")
	case src.Format().IsDepthStencil() && r.SrcSubresource.Aspect != AspectDepth:
		return false, chk.param("srcSubresource", "scaled depth/stencil blits select the depth aspect only")
	case dst.Format().IsDepthStencil() && r.DstSubresource.Aspect != AspectDepth:
		return false, chk.param("dstSubresource", "scaled depth/stencil blits select the depth aspect only")
	}
	sk, dk := kindOf(src.Format()), kindOf(dst.Format())
	if (sk == kindUint || sk == kindSint || dk == kindUint || dk == kindSint) && sk != dk {
		return false, chk.incompatible("format", "cannot blit between %s and %s", src.Format(), dst.Format())
	}
	sf := dev.FormatFeatures(src.Format())
	if !sf.Has(FeatureSample) || !src.Usage().Contains(gputypes.TextureUsageTextureBinding) {
		return false, chk.incompatible("srcImage", "%s cannot be sampled", src.Format())
	}
	if filter == gputypes.FilterModeLinear && (!sf.Has(FeatureFilter) || isIntegerFormat(src.Format())) {
		return false, chk.incompatible("filter", "%s does not support linear filtering", src.Format())
	}
	if !dev.FormatFeatures(dst.Format()).Has(FeatureRender) || !dst.Usage().Contains(gputypes.TextureUsageRenderAttachment) {
		return false, chk.incompatible("dstImage", "%s cannot be rendered to", dst.Format())
	}
	return false, nil
}

// blitCorners checks that both corners lie inside the mip level and span a
// non-empty box.
func (c check) blitCorners(field string, img Image, mip uint32, o [2]Offset3D) error {
	me := img.Extent(mip)
	for _, p := range o {
		if p.X < 0 || p.Y < 0 || p.Z < 0 ||
			uint32(p.X) > me.Width || uint32(p.Y) > me.Height || uint32(p.Z) > me.DepthOrArrayLayers {
			return c.param(field, "corner (%d,%d,%d) outside mip %d extent %dx%dx%d",
				p.X, p.Y, p.Z, mip, me.Width, me.Height, me.DepthOrArrayLayers)
		}
	}
	if o[0].X == o[1].X || o[0].Y == o[1].Y || o[0].Z == o[1].Z {
		return c.param(field, "degenerate box")
	}
	return nil
}

// Use returns UseBlitImage.
func (c *BlitImage) Use() CommandUse { return UseBlitImage }

// Regions returns the captured regions.
func (c *BlitImage) Regions() *Regions[ImageBlitRegion] { return &c.regions }

// IsDirect reports whether region i is performed as a copy.
func (c *BlitImage) IsDirect(i int) bool { return c.direct[i] }

// Filter returns the command-wide filter.
func (c *BlitImage) Filter() gputypes.FilterMode { return c.filter }

// Encode emits the blit tagged UseBlitImage.
func (c *BlitImage) Encode(enc *Encoder) { c.EncodeAs(enc, UseBlitImage) }

// EncodeAs emits the blit with an explicit command tag.
func (c *BlitImage) EncodeAs(enc *Encoder, use CommandUse) {
	for i, r := range c.regions.All() {
		if c.direct[i] {
			c.encodeCopy(enc, use, &r)
		} else {
			c.encodeRender(enc, use, &r)
		}
	}
}

func (c *BlitImage) encodeCopy(enc *Encoder, use CommandUse, r *ImageBlitRegion) {
	s, d := r.SrcOffsets, r.DstOffsets
	origin := func(o Offset3D) gputypes.Origin3D {
		return gputypes.Origin3D{X: uint32(o.X), Y: uint32(o.Y), Z: uint32(o.Z)}
	}
	ext := gputypes.Extent3D{
		Width:              absSpan(s[0].X, s[1].X),
		Height:             absSpan(s[0].Y, s[1].Y),
		DepthOrArrayLayers: absSpan(s[0].Z, s[1].Z),
	}
	enc.Backend.CopyImage(use, &ImageCopyOp{
		Src:    locationOf(c.src, c.srcLayout, r.SrcSubresource, origin(s[0])),
		Dst:    locationOf(c.dst, c.dstLayout, r.DstSubresource, origin(d[0])),
		Extent: flatExtent(c.src, ext),
	})
}

// encodeRender draws one quad per destination slice. The source slice of
// instance i is zStart + (i+0.5)*zStep, normalized by srcDepth for 3D
// sources and truncated to a layer index, counted from the base source
// layer, otherwise.
func (c *BlitImage) encodeRender(enc *Encoder, use CommandUse, r *ImageBlitRegion) {
	s, d := r.SrcOffsets, r.DstOffsets
	srcExt := c.src.Extent(r.SrcSubresource.MipLevel)
	dstExt := c.dst.Extent(r.DstSubresource.MipLevel)

	var n uint32
	dstOrigin := gputypes.Origin3D{}
	if c.dst.Dimension() == gputypes.TextureDimension3D {
		n = absSpan(d[0].Z, d[1].Z)
		dstOrigin.Z = uint32(min(d[0].Z, d[1].Z))
	} else {
		n = r.DstSubresource.LayerCount
	}

	var zStart, zStep, srcDepth float32
	if c.src.Dimension() == gputypes.TextureDimension3D {
		zStart = float32(s[0].Z)
		zStep = float32(s[1].Z-s[0].Z) / float32(n)
		srcDepth = float32(srcExt.DepthOrArrayLayers)
		if d[0].Z > d[1].Z {
			zStart, zStep = float32(s[1].Z), -zStep
		}
	} else {
		zStep = float32(r.SrcSubresource.LayerCount) / float32(n)
	}

	verts := BlitVertices(r, srcExt, dstExt, zStart)
	vb := enc.Alloc.Bytes(BlitVertexCount * blitVertexStride)
	writeBlitVertices(vb, verts[:])

	// Level of detail 0 is the source mip level.
	ub := enc.Alloc.Bytes(16)
	putFloats(ub, 0, zStep, srcDepth, 0)

	srcLoc := locationOf(c.src, c.srcLayout, r.SrcSubresource, gputypes.Origin3D{})
	dstLoc := locationOf(c.dst, c.dstLayout, r.DstSubresource, dstOrigin)
	dstLoc.LayerCount = n

	key := BlitPipelineKey{
		SrcFormat:    c.src.Format(),
		DstFormat:    c.dst.Format(),
		SrcDimension: c.src.Dimension(),
		SrcAspect:    r.SrcSubresource.Aspect,
		DstAspect:    r.DstSubresource.Aspect,
		Filter:       c.filter,
		SampleCount:  c.dst.SampleCount(),
	}
	enc.Backend.Draw(use, &DrawCall{
		Pipeline:      enc.Pipelines.BlitPipeline(key),
		Target:        &dstLoc,
		Source:        &srcLoc,
		Filter:        c.filter,
		Topology:      gputypes.PrimitiveTopologyTriangleStrip,
		Vertices:      vb,
		VertexCount:   BlitVertexCount,
		InstanceCount: n,
		Uniforms:      ub,
		Scissor:       blitScissor(d, dstExt),
	})
}

// blitScissor bounds the destination box so that filtering never touches
// texels outside it.
func blitScissor(d [2]Offset3D, dstExt gputypes.Extent3D) Rect2D {
	x0, x1 := min(d[0].X, d[1].X), max(d[0].X, d[1].X)
	y0, y1 := min(d[0].Y, d[1].Y), max(d[0].Y, d[1].Y)
	return Rect2D{X: x0, Y: y0, Width: uint32(x1 - x0), Height: uint32(y1 - y0)}.Clip(dstExt.Width, dstExt.Height)
}

