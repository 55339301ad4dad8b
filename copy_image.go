package xfer

import "github.com/gogpu/gputypes"

// CopyImage copies texel boxes between two images of copy-compatible
// formats and equal sample counts.
type CopyImage struct {
	src, dst             Image
	srcLayout, dstLayout ImageLayout
	regions              Regions[ImageCopyRegion]
	paths                []CopyPath
}

// SetContent validates and captures the copy. On failure the command is
// left unchanged.
func (c *CopyImage) SetContent(dev *Device, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, regions []ImageCopyRegion) error {
	chk := check{use: UseCopyImage, region: -1}
	if src == nil || dst == nil {
		return chk.param("image", "source and destination images are required")
	}
	if len(regions) == 0 {
		return chk.param("regions", "no regions")
	}
	if src.SampleCount() != dst.SampleCount() {
		return chk.incompatible("sampleCount", "source has %d samples, destination %d", src.SampleCount(), dst.SampleCount())
	}
	path := ClassifyCopy(src.Format(), dst.Format())
	if path == CopyIncompatible {
		return chk.incompatible("format", "%s and %s are not copy compatible", src.Format(), dst.Format())
	}
	if path == CopyStaged && src.SampleCount() > 1 {
		return chk.incompatible("format", "%s to %s needs a buffer copy, which multisampled images do not allow", src.Format(), dst.Format())
	}
	if !dev.FormatFeatures(src.Format()).Has(FeatureCopy) || !dev.FormatFeatures(dst.Format()).Has(FeatureCopy) {
		return chk.incompatible("format", "copies of %s to %s are not supported", src.Format(), dst.Format())
	}
	if !src.Usage().Contains(gputypes.TextureUsageCopySrc) || !dst.Usage().Contains(gputypes.TextureUsageCopyDst) {
		return chk.incompatible("usage", "source needs CopySrc and destination CopyDst usage")
	}

	for i := range regions {
		if err := validateImageCopyRegion(chk.at(i), src, dst, &regions[i]); err != nil {
			return err
		}
	}

	paths := make([]CopyPath, len(regions))
	for i := range paths {
		paths[i] = path
	}
	c.src, c.dst = src, dst
	c.srcLayout, c.dstLayout = srcLayout, dstLayout
	c.regions = captureRegions(regions)
	c.paths = paths
	slogger().Debug("xfer: copy image", "regions", len(regions), "path", path.String(),
		"src", src.Format().String(), "dst", dst.Format().String())
	return nil
}

func validateImageCopyRegion(chk check, src, dst Image, r *ImageCopyRegion) error {
	if err := chk.subresource("srcSubresource", src, r.SrcSubresource); err != nil {
		return err
	}
	if err := chk.subresource("dstSubresource", dst, r.DstSubresource); err != nil {
		return err
	}
	if r.SrcSubresource.Aspect != r.DstSubresource.Aspect {
		return chk.param("aspect", "source aspect %s differs from destination aspect %s",
			r.SrcSubresource.Aspect, r.DstSubresource.Aspect)
	}

	src3D := src.Dimension() == gputypes.TextureDimension3D
	dst3D := dst.Dimension() == gputypes.TextureDimension3D
	if !src3D && !dst3D && r.Extent.DepthOrArrayLayers != 1 {
		return chk.param("extent", "2D copies must have depth 1, got %d", r.Extent.DepthOrArrayLayers)
	}
	srcSlices := slices(src, r.SrcSubresource, r.Extent.DepthOrArrayLayers)
	dstSlices := slices(dst, r.DstSubresource, r.Extent.DepthOrArrayLayers)
	if srcSlices != dstSlices {
		return chk.param("layerCount", "source covers %d slices, destination %d", srcSlices, dstSlices)
	}

	srcExt := flatExtent(src, r.Extent)
	if err := chk.box("srcOffset", src, r.SrcSubresource.MipLevel, r.SrcOffset, srcExt); err != nil {
		return err
	}
	dstExt := flatExtent(dst, copyDstExtent(src.Format(), dst.Format(), r.Extent))
	return chk.box("dstOffset", dst, r.DstSubresource.MipLevel, r.DstOffset, dstExt)
}

// Use returns UseCopyImage.
func (c *CopyImage) Use() CommandUse { return UseCopyImage }

// Regions returns the captured regions.
func (c *CopyImage) Regions() *Regions[ImageCopyRegion] { return &c.regions }

// Path returns how region i is copied.
func (c *CopyImage) Path(i int) CopyPath { return c.paths[i] }

// Encode emits the copy tagged UseCopyImage.
func (c *CopyImage) Encode(enc *Encoder) { c.EncodeAs(enc, UseCopyImage) }

// EncodeAs emits the copy with an explicit command tag.
func (c *CopyImage) EncodeAs(enc *Encoder, use CommandUse) {
	for i, r := range c.regions.All() {
		srcLoc := locationOf(c.src, c.srcLayout, r.SrcSubresource, r.SrcOffset)
		dstLoc := locationOf(c.dst, c.dstLayout, r.DstSubresource, r.DstOffset)
		if c.paths[i] == CopyDirect {
			enc.Backend.CopyImage(use, &ImageCopyOp{Src: srcLoc, Dst: dstLoc, Extent: flatExtent(c.src, r.Extent)})
			continue
		}
		c.encodeStaged(enc, use, &r, srcLoc, dstLoc)
	}
}

// encodeStaged moves a region through a scratch buffer. The buffer holds
// one element per source block, which the destination reads as one
// element per destination block.
func (c *CopyImage) encodeStaged(enc *Encoder, use CommandUse, r *ImageCopyRegion, srcLoc, dstLoc ImageLocation) {
	sb, _ := TexelBlockOf(c.src.Format())
	srcExt := flatExtent(c.src, r.Extent)
	dstExt := flatExtent(c.dst, copyDstExtent(c.src.Format(), c.dst.Format(), r.Extent))

	rowBlocks := ceilDiv(srcExt.Width, sb.Width)
	rows := ceilDiv(srcExt.Height, sb.Height)
	n := slices(c.src, r.SrcSubresource, r.Extent.DepthOrArrayLayers)
	bytesPerRow := rowBlocks * sb.Size
	size := uint64(bytesPerRow) * uint64(rows) * uint64(n)

	buf := enc.Alloc.Buffer(size, nil)
	enc.Backend.CopyImageToBuffer(use, &BufferImageCopyOp{
		Buffer: buf, Offset: buf.Offset(), BytesPerRow: bytesPerRow, RowsPerImage: rows,
		Image: srcLoc, Extent: srcExt,
	})
	enc.Backend.CopyBufferToImage(use, &BufferImageCopyOp{
		Buffer: buf, Offset: buf.Offset(), BytesPerRow: bytesPerRow, RowsPerImage: rows,
		Image: dstLoc, Extent: dstExt,
	})
}
