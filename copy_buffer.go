package xfer

import "reflect"

// CopyBuffer copies byte ranges between buffers.
type CopyBuffer struct {
	src, dst Buffer
	regions  Regions[BufferCopyRegion]
}

// SetContent validates and captures the copy. When src and dst are the
// same buffer, the source and destination ranges of a region must not
// overlap. On failure the command is left unchanged.
func (c *CopyBuffer) SetContent(_ *Device, src, dst Buffer, regions []BufferCopyRegion) error {
	chk := check{use: UseCopyBuffer, region: -1}
	if src == nil || dst == nil {
		return chk.param("buffer", "source and destination buffers are required")
	}
	if len(regions) == 0 {
		return chk.param("regions", "no regions")
	}
	same := sameBuffer(src, dst)
	for i := range regions {
		r := &regions[i]
		rc := chk.at(i)
		if r.Size == 0 {
			return rc.param("size", "size is zero")
		}
		if err := rc.bufferRange("srcOffset", src, r.SrcOffset, r.Size); err != nil {
			return err
		}
		if err := rc.bufferRange("dstOffset", dst, r.DstOffset, r.Size); err != nil {
			return err
		}
		if same && r.SrcOffset < r.DstOffset+r.Size && r.DstOffset < r.SrcOffset+r.Size {
			return rc.param("dstOffset", "ranges [%d,+%d) and [%d,+%d) overlap", r.SrcOffset, r.Size, r.DstOffset, r.Size)
		}
	}

	c.src, c.dst = src, dst
	c.regions = captureRegions(regions)
	slogger().Debug("xfer: copy buffer", "regions", len(regions))
	return nil
}

// Use returns UseCopyBuffer.
func (c *CopyBuffer) Use() CommandUse { return UseCopyBuffer }

// Regions returns the captured regions.
func (c *CopyBuffer) Regions() *Regions[BufferCopyRegion] { return &c.regions }

// Encode emits one copy per region with the buffers' base offsets applied.
func (c *CopyBuffer) Encode(enc *Encoder) {
	for _, r := range c.regions.All() {
		enc.Backend.CopyBuffer(UseCopyBuffer, &BufferCopyOp{
			Src:       c.src,
			Dst:       c.dst,
			SrcOffset: c.src.Offset() + r.SrcOffset,
			DstOffset: c.dst.Offset() + r.DstOffset,
			Size:      r.Size,
		})
	}
}

// sameBuffer reports whether a and b are the same buffer. Comparing two
// interfaces holding a non-comparable dynamic type panics, so such values
// are only the same when they are not.
func sameBuffer(a, b Buffer) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
