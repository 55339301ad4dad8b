package xfer

import "github.com/gogpu/gputypes"

// Device describes the capabilities commands are validated against.
// It is immutable after NewDevice and safe for concurrent use.
type Device struct {
	limits                 gputypes.Limits
	maxInlineUpdateSize    uint64
	stridedBufferImageCopy bool
	renderLinearImages     bool
	formatFeatures         map[gputypes.TextureFormat]FormatFeatures
}

// NewDevice creates a device description from options.
func NewDevice(opts ...Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.limits.MaxColorAttachments == 0 || o.limits.MaxColorAttachments > MaxColorAttachments {
		o.limits.MaxColorAttachments = MaxColorAttachments
	}
	if o.limits.MaxTextureArrayLayers == 0 {
		o.limits.MaxTextureArrayLayers = gputypes.DefaultLimits().MaxTextureArrayLayers
	}
	features := make(map[gputypes.TextureFormat]FormatFeatures, len(o.formatFeatures))
	for f, v := range o.formatFeatures {
		features[f] = v
	}
	return &Device{
		limits:                 o.limits,
		maxInlineUpdateSize:    o.maxInlineUpdateSize,
		stridedBufferImageCopy: o.stridedBufferImageCopy,
		renderLinearImages:     o.renderLinearImages,
		formatFeatures:         features,
	}
}

// Limits returns the device limits.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// MaxColorAttachments returns the number of color attachment slots.
func (d *Device) MaxColorAttachments() uint32 { return d.limits.MaxColorAttachments }

// MaxInlineUpdateSize returns the largest payload UpdateBuffer accepts.
func (d *Device) MaxInlineUpdateSize() uint64 { return d.maxInlineUpdateSize }

// StridedBufferImageCopy reports whether multi-layer buffer-image copies
// are issued as one operation.
func (d *Device) StridedBufferImageCopy() bool { return d.stridedBufferImageCopy }

// RenderLinearImages reports whether linear images can be render targets.
func (d *Device) RenderLinearImages() bool { return d.renderLinearImages }

// FormatFeatures returns the capabilities of format: an override from
// WithFormatFeatures or the built-in default.
func (d *Device) FormatFeatures(format gputypes.TextureFormat) FormatFeatures {
	if f, ok := d.formatFeatures[format]; ok {
		return f
	}
	return DefaultFormatFeatures(format)
}
