package xfer

// WholeSize selects the rest of a buffer from the given offset.
const WholeSize = ^uint64(0)

// FillBuffer writes a repeating 32-bit word over a byte range.
type FillBuffer struct {
	dst       Buffer
	offset    uint64
	wordCount uint64
	value     uint32
}

// SetContent validates and captures the fill. size is a multiple of 4, or
// WholeSize to fill to the end of the buffer rounded down to whole words.
// On failure the command is left unchanged.
func (c *FillBuffer) SetContent(_ *Device, dst Buffer, offset, size uint64, value uint32) error {
	chk := check{use: UseFillBuffer, region: -1}
	if dst == nil {
		return chk.param("buffer", "destination buffer is required")
	}
	if offset%4 != 0 {
		return chk.param("offset", "offset %d not a multiple of 4", offset)
	}
	if size == WholeSize {
		if offset >= dst.Size() {
			return chk.param("offset", "offset %d at or past buffer size %d", offset, dst.Size())
		}
		size = (dst.Size() - offset) &^ 3
	}
	if size == 0 || size%4 != 0 {
		return chk.param("size", "size %d must be a non-zero multiple of 4", size)
	}
	if err := chk.bufferRange("offset", dst, offset, size); err != nil {
		return err
	}

	c.dst = dst
	c.offset = offset
	c.wordCount = size / 4
	c.value = value
	slogger().Debug("xfer: fill buffer", "offset", offset, "words", c.wordCount, "value", value)
	return nil
}

// Use returns UseFillBuffer.
func (c *FillBuffer) Use() CommandUse { return UseFillBuffer }

// Offset returns the start of the filled range relative to the buffer.
func (c *FillBuffer) Offset() uint64 { return c.offset }

// WordCount returns the number of 32-bit words written.
func (c *FillBuffer) WordCount() uint64 { return c.wordCount }

// Value returns the fill word.
func (c *FillBuffer) Value() uint32 { return c.value }

// Encode emits a single fill.
func (c *FillBuffer) Encode(enc *Encoder) {
	enc.Backend.FillBuffer(UseFillBuffer, &FillOp{
		Dst:       c.dst,
		Offset:    c.dst.Offset() + c.offset,
		WordCount: c.wordCount,
		Value:     c.value,
	})
}
