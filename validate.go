package xfer

import (
	"math/bits"

	"github.com/gogpu/gputypes"
)

// subresource checks that s addresses existing planes, a mip level and a
// run of layers of img.
func (c check) subresource(field string, img Image, s SubresourceLayers) error {
	if err := c.aspect(field, img.Format(), s.Aspect); err != nil {
		return err
	}
	if s.MipLevel >= img.MipLevelCount() {
		return c.param(field, "mip level %d out of range (image has %d)", s.MipLevel, img.MipLevelCount())
	}
	if s.LayerCount == 0 {
		return c.param(field, "layer count is zero")
	}
	if uint64(s.BaseArrayLayer)+uint64(s.LayerCount) > uint64(imageLayers(img)) {
		return c.param(field, "layers [%d,+%d) out of range (image has %d)",
			s.BaseArrayLayer, s.LayerCount, imageLayers(img))
	}
	return nil
}

// aspect checks that a is non-empty and present in format.
func (c check) aspect(field string, format gputypes.TextureFormat, a Aspect) error {
	if a == 0 {
		return c.param(field, "no aspect selected")
	}
	if have := AspectsOf(format); a&^have != 0 {
		return c.param(field, "aspect %s not present in %s", a, format)
	}
	return nil
}

// singleAspect checks that exactly one plane is selected.
func (c check) singleAspect(field string, a Aspect) error {
	if bits.OnesCount8(uint8(a)) != 1 {
		return c.param(field, "aspect %s must select a single plane", a)
	}
	return nil
}

// box checks that a texel box lies inside the given mip level of img and,
// for block-compressed formats, is block aligned.
func (c check) box(field string, img Image, mip uint32, off gputypes.Origin3D, ext gputypes.Extent3D) error {
	if ext.Width == 0 || ext.Height == 0 || ext.DepthOrArrayLayers == 0 {
		return c.param(field, "empty extent %dx%dx%d", ext.Width, ext.Height, ext.DepthOrArrayLayers)
	}
	me := img.Extent(mip)
	if uint64(off.X)+uint64(ext.Width) > uint64(me.Width) ||
		uint64(off.Y)+uint64(ext.Height) > uint64(me.Height) ||
		uint64(off.Z)+uint64(ext.DepthOrArrayLayers) > uint64(me.DepthOrArrayLayers) {
		return c.param(field, "box (%d,%d,%d)+(%d,%d,%d) exceeds mip %d extent %dx%dx%d",
			off.X, off.Y, off.Z, ext.Width, ext.Height, ext.DepthOrArrayLayers,
			mip, me.Width, me.Height, me.DepthOrArrayLayers)
	}
	b, _ := TexelBlockOf(img.Format())
	if !b.Compressed() {
		return nil
	}
	if off.X%b.Width != 0 || off.Y%b.Height != 0 {
		return c.param(field, "offset (%d,%d) not aligned to %dx%d blocks", off.X, off.Y, b.Width, b.Height)
	}
	if (ext.Width%b.Width != 0 && off.X+ext.Width != me.Width) ||
		(ext.Height%b.Height != 0 && off.Y+ext.Height != me.Height) {
		return c.param(field, "extent %dx%d not a multiple of %dx%d blocks", ext.Width, ext.Height, b.Width, b.Height)
	}
	return nil
}

// flatExtent forces the depth of a 2D box to 1; 3D boxes keep their depth.
func flatExtent(img Image, e gputypes.Extent3D) gputypes.Extent3D {
	if img.Dimension() != gputypes.TextureDimension3D {
		e.DepthOrArrayLayers = 1
	}
	return e
}

// slices is the number of 2D slices a subresource run covers: the layer
// count, or the depth of the box for 3D images.
func slices(img Image, s SubresourceLayers, depth uint32) uint32 {
	if img.Dimension() == gputypes.TextureDimension3D {
		return depth
	}
	return s.LayerCount
}

// bufferRange checks that [off, off+size) lies inside buf.
func (c check) bufferRange(field string, buf Buffer, off, size uint64) error {
	if size > buf.Size() || off > buf.Size()-size {
		return c.param(field, "range [%d,+%d) exceeds buffer size %d", off, size, buf.Size())
	}
	return nil
}

// depth rejects depth clear values outside [0,1], NaN included.
func (c check) depth(field string, d float32) error {
	if !(d >= 0 && d <= 1) {
		return c.param(field, "depth %g outside [0,1]", d)
	}
	return nil
}

// mulAdd returns a*b+c and whether it fits in 64 bits.
func mulAdd(a, b, c uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	sum, carry := bits.Add64(lo, c, 0)
	return sum, hi == 0 && carry == 0
}

func locationOf(img Image, layout ImageLayout, s SubresourceLayers, origin gputypes.Origin3D) ImageLocation {
	loc := ImageLocation{
		Image:          img,
		Layout:         layout,
		Aspect:         s.Aspect,
		MipLevel:       s.MipLevel,
		BaseArrayLayer: s.BaseArrayLayer,
		LayerCount:     s.LayerCount,
		Origin:         origin,
	}
	if img.Dimension() != gputypes.TextureDimension3D {
		loc.Origin.Z = 0
	}
	return loc
}
