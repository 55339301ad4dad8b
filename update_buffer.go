package xfer

// UpdateBuffer writes a small block of immediate data into a buffer. The
// data is copied at SetContent, so the caller's slice may be reused as soon
// as it returns. Updates larger than the device's inline limit must be
// staged by the caller.
type UpdateBuffer struct {
	dst    Buffer
	offset uint64
	data   []byte
}

// SetContent validates and captures the update. On failure the command is
// left unchanged.
func (c *UpdateBuffer) SetContent(dev *Device, dst Buffer, offset uint64, data []byte) error {
	chk := check{use: UseUpdateBuffer, region: -1}
	if dst == nil {
		return chk.param("buffer", "destination buffer is required")
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return chk.param("data", "data size %d must be a non-zero multiple of 4", len(data))
	}
	if offset%4 != 0 {
		return chk.param("offset", "offset %d not a multiple of 4", offset)
	}
	if uint64(len(data)) > dev.MaxInlineUpdateSize() {
		return chk.capacity("data", "%d bytes exceed the inline update limit of %d", len(data), dev.MaxInlineUpdateSize())
	}
	if err := chk.bufferRange("offset", dst, offset, uint64(len(data))); err != nil {
		return err
	}

	c.dst = dst
	c.offset = offset
	c.data = append(make([]byte, 0, len(data)), data...)
	slogger().Debug("xfer: update buffer", "offset", offset, "size", len(data))
	return nil
}

// Use returns UseUpdateBuffer.
func (c *UpdateBuffer) Use() CommandUse { return UseUpdateBuffer }

// Data returns the captured data. It must not be modified.
func (c *UpdateBuffer) Data() []byte { return c.data }

// Offset returns the destination offset relative to the buffer.
func (c *UpdateBuffer) Offset() uint64 { return c.offset }

// Encode emits a single update carrying the captured data.
func (c *UpdateBuffer) Encode(enc *Encoder) {
	enc.Backend.UpdateBuffer(UseUpdateBuffer, &UpdateOp{
		Dst:    c.dst,
		Offset: c.dst.Offset() + c.offset,
		Data:   c.data,
	})
}
