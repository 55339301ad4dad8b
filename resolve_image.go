package xfer

import "github.com/gogpu/gputypes"

// ResolveImage reduces whole subresources of a multisampled image into a
// single-sampled image of the same format family. Resolves are always
// performed by the backend directly.
type ResolveImage struct {
	src, dst             Image
	srcLayout, dstLayout ImageLayout
	regions              Regions[ImageResolveRegion]
}

// SetContent validates and captures the resolve. On failure the command is
// left unchanged.
func (c *ResolveImage) SetContent(_ *Device, src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, regions []ImageResolveRegion) error {
	chk := check{use: UseResolveImage, region: -1}
	if src == nil || dst == nil {
		return chk.param("image", "source and destination images are required")
	}
	if len(regions) == 0 {
		return chk.param("regions", "no regions")
	}
	if src.SampleCount() <= 1 {
		return chk.incompatible("srcImage", "source must be multisampled, has %d samples", src.SampleCount())
	}
	if dst.SampleCount() != 1 {
		return chk.incompatible("dstImage", "destination must be single-sampled, has %d samples", dst.SampleCount())
	}
	if !SameFamily(src.Format(), dst.Format()) {
		return chk.incompatible("format", "cannot resolve %s into %s", src.Format(), dst.Format())
	}

	for i := range regions {
		r := &regions[i]
		rc := chk.at(i)
		if err := rc.subresource("srcSubresource", src, r.SrcSubresource); err != nil {
			return err
		}
		if err := rc.subresource("dstSubresource", dst, r.DstSubresource); err != nil {
			return err
		}
		if r.SrcSubresource.Aspect != AspectColor || r.DstSubresource.Aspect != AspectColor {
			return rc.param("aspect", "resolves address the color aspect only")
		}
		if r.SrcSubresource.LayerCount != r.DstSubresource.LayerCount {
			return rc.param("layerCount", "source has %d layers, destination %d",
				r.SrcSubresource.LayerCount, r.DstSubresource.LayerCount)
		}
		se, de := src.Extent(r.SrcSubresource.MipLevel), dst.Extent(r.DstSubresource.MipLevel)
		if se.Width != de.Width || se.Height != de.Height {
			return rc.param("extent", "source mip is %dx%d, destination mip %dx%d",
				se.Width, se.Height, de.Width, de.Height)
		}
	}

	c.src, c.dst = src, dst
	c.srcLayout, c.dstLayout = srcLayout, dstLayout
	c.regions = captureRegions(regions)
	slogger().Debug("xfer: resolve image", "regions", len(regions), "samples", src.SampleCount())
	return nil
}

// Use returns UseResolveImage.
func (c *ResolveImage) Use() CommandUse { return UseResolveImage }

// Regions returns the captured regions.
func (c *ResolveImage) Regions() *Regions[ImageResolveRegion] { return &c.regions }

// Encode emits one resolve per region.
func (c *ResolveImage) Encode(enc *Encoder) {
	for _, r := range c.regions.All() {
		ext := c.src.Extent(r.SrcSubresource.MipLevel)
		enc.Backend.ResolveImage(UseResolveImage, &ResolveOp{
			Src:    locationOf(c.src, c.srcLayout, r.SrcSubresource, gputypes.Origin3D{}),
			Dst:    locationOf(c.dst, c.dstLayout, r.DstSubresource, gputypes.Origin3D{}),
			Extent: gputypes.Extent3D{Width: ext.Width, Height: ext.Height, DepthOrArrayLayers: 1},
		})
	}
}
