package xfer

import (
	"math"

	"github.com/gogpu/gputypes"
)

// BufferImageCopy copies between a buffer and an image, in the direction
// chosen at SetContent.
type BufferImageCopy struct {
	buffer  Buffer
	image   Image
	layout  ImageLayout
	toImage bool
	strided bool
	regions Regions[BufferImageCopyRegion]
	layouts []bufferLayout
}

// bufferLayout is the linear layout of one region in the buffer.
type bufferLayout struct {
	bytesPerRow  uint32
	rowsPerImage uint32
}

// layerStride is the byte distance between consecutive slices.
func (l bufferLayout) layerStride() uint64 {
	return uint64(l.bytesPerRow) * uint64(l.rowsPerImage)
}

// SetContent validates and captures the copy. toImage selects
// buffer-to-image; otherwise the image is read into the buffer. On failure
// the command is left unchanged.
func (c *BufferImageCopy) SetContent(dev *Device, buf Buffer, img Image, layout ImageLayout, regions []BufferImageCopyRegion, toImage bool) error {
	use := UseCopyImageToBuffer
	if toImage {
		use = UseCopyBufferToImage
	}
	chk := check{use: use, region: -1}
	if buf == nil || img == nil {
		return chk.param("resource", "buffer and image are required")
	}
	if len(regions) == 0 {
		return chk.param("regions", "no regions")
	}
	if img.SampleCount() != 1 {
		return chk.incompatible("image", "buffer copies need a single-sampled image, has %d samples", img.SampleCount())
	}
	if _, ok := TexelBlockOf(img.Format()); !ok || !dev.FormatFeatures(img.Format()).Has(FeatureCopy) {
		return chk.incompatible("format", "%s cannot be copied", img.Format())
	}
	wantUsage, usageName := gputypes.TextureUsageCopySrc, "CopySrc"
	if toImage {
		wantUsage, usageName = gputypes.TextureUsageCopyDst, "CopyDst"
	}
	if !img.Usage().Contains(wantUsage) {
		return chk.incompatible("usage", "image lacks %s usage", usageName)
	}

	layouts := make([]bufferLayout, len(regions))
	for i := range regions {
		l, err := validateBufferImageRegion(chk.at(i), buf, img, &regions[i])
		if err != nil {
			return err
		}
		layouts[i] = l
	}

	c.buffer, c.image, c.layout = buf, img, layout
	c.toImage = toImage
	c.strided = dev.StridedBufferImageCopy()
	c.regions = captureRegions(regions)
	c.layouts = layouts
	slogger().Debug("xfer: buffer image copy", "toImage", toImage, "regions", len(regions), "strided", c.strided)
	return nil
}

func validateBufferImageRegion(chk check, buf Buffer, img Image, r *BufferImageCopyRegion) (bufferLayout, error) {
	s := r.ImageSubresource
	if err := chk.subresource("imageSubresource", img, s); err != nil {
		return bufferLayout{}, err
	}
	if err := chk.singleAspect("imageSubresource", s.Aspect); err != nil {
		return bufferLayout{}, err
	}
	is3D := img.Dimension() == gputypes.TextureDimension3D
	if !is3D && r.ImageExtent.DepthOrArrayLayers != 1 {
		return bufferLayout{}, chk.param("imageExtent", "2D copies must have depth 1, got %d", r.ImageExtent.DepthOrArrayLayers)
	}
	if err := chk.box("imageOffset", img, s.MipLevel, r.ImageOffset, r.ImageExtent); err != nil {
		return bufferLayout{}, err
	}

	b := aspectBlock(img.Format(), s.Aspect)
	align := uint64(b.Size)
	if img.Format().IsDepthStencil() {
		align = 4
	}
	if r.BufferOffset%align != 0 {
		return bufferLayout{}, chk.param("bufferOffset", "offset %d not a multiple of %d", r.BufferOffset, align)
	}

	rowLength, imageHeight := r.BufferRowLength, r.BufferImageHeight
	if rowLength == 0 {
		rowLength = r.ImageExtent.Width
	}
	if imageHeight == 0 {
		imageHeight = r.ImageExtent.Height
	}
	if rowLength < r.ImageExtent.Width {
		return bufferLayout{}, chk.param("bufferRowLength", "row length %d below width %d", rowLength, r.ImageExtent.Width)
	}
	if imageHeight < r.ImageExtent.Height {
		return bufferLayout{}, chk.param("bufferImageHeight", "image height %d below height %d", imageHeight, r.ImageExtent.Height)
	}

	pitch := uint64(ceilDiv(rowLength, b.Width)) * uint64(b.Size)
	if pitch > math.MaxUint32 {
		return bufferLayout{}, chk.param("bufferRowLength", "row pitch of %d bytes exceeds 32 bits", pitch)
	}
	l := bufferLayout{
		bytesPerRow:  uint32(pitch),
		rowsPerImage: ceilDiv(imageHeight, b.Height),
	}
	n := uint64(slices(img, s, r.ImageExtent.DepthOrArrayLayers))
	lastRows := uint64(ceilDiv(r.ImageExtent.Height, b.Height))
	lastRowBytes := uint64(ceilDiv(r.ImageExtent.Width, b.Width)) * uint64(b.Size)
	footprint, ok := mulAdd(l.layerStride(), n-1, pitch*(lastRows-1)+lastRowBytes)
	if !ok {
		return bufferLayout{}, chk.param("bufferImageHeight", "buffer footprint exceeds 64 bits")
	}
	if err := chk.bufferRange("bufferOffset", buf, r.BufferOffset, footprint); err != nil {
		return bufferLayout{}, err
	}
	return l, nil
}

// Use returns UseCopyBufferToImage or UseCopyImageToBuffer.
func (c *BufferImageCopy) Use() CommandUse {
	if c.toImage {
		return UseCopyBufferToImage
	}
	return UseCopyImageToBuffer
}

// ToImage reports the copy direction.
func (c *BufferImageCopy) ToImage() bool { return c.toImage }

// Regions returns the captured regions.
func (c *BufferImageCopy) Regions() *Regions[BufferImageCopyRegion] { return &c.regions }

// Encode emits one backend copy per region, or one per array layer when
// the device cannot copy several layers at once.
func (c *BufferImageCopy) Encode(enc *Encoder) {
	use := c.Use()
	emit := enc.Backend.CopyImageToBuffer
	if c.toImage {
		emit = enc.Backend.CopyBufferToImage
	}
	for i, r := range c.regions.All() {
		l := c.layouts[i]
		op := BufferImageCopyOp{
			Buffer:       c.buffer,
			Offset:       c.buffer.Offset() + r.BufferOffset,
			BytesPerRow:  l.bytesPerRow,
			RowsPerImage: l.rowsPerImage,
			Image:        locationOf(c.image, c.layout, r.ImageSubresource, r.ImageOffset),
			Extent:       r.ImageExtent,
		}
		if r.ImageSubresource.LayerCount == 1 || c.strided {
			emit(use, &op)
			continue
		}
		for layer := uint32(0); layer < r.ImageSubresource.LayerCount; layer++ {
			per := op
			per.Offset = op.Offset + uint64(layer)*l.layerStride()
			per.Image.BaseArrayLayer = r.ImageSubresource.BaseArrayLayer + layer
			per.Image.LayerCount = 1
			emit(use, &per)
		}
	}
}
