package xfer

import "github.com/gogpu/gputypes"

// Option configures a Device during creation.
//
// Example:
//
//	dev := xfer.NewDevice(
//	    xfer.WithMaxInlineUpdateSize(4096),
//	    xfer.WithStridedBufferImageCopy(true),
//	)
type Option func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	limits                 gputypes.Limits
	maxInlineUpdateSize    uint64
	stridedBufferImageCopy bool
	renderLinearImages     bool
	formatFeatures         map[gputypes.TextureFormat]FormatFeatures
}

// DefaultMaxInlineUpdateSize is the largest update-buffer payload accepted
// when no limit is configured.
const DefaultMaxInlineUpdateSize = 65536

func defaultOptions() deviceOptions {
	return deviceOptions{
		limits:              gputypes.DefaultLimits(),
		maxInlineUpdateSize: DefaultMaxInlineUpdateSize,
	}
}

// WithLimits sets the device limits. MaxColorAttachments above
// MaxColorAttachments is clamped. A zero MaxTextureArrayLayers takes the
// default.
func WithLimits(l gputypes.Limits) Option {
	return func(o *deviceOptions) {
		o.limits = l
	}
}

// WithMaxInlineUpdateSize sets the largest payload UpdateBuffer accepts.
// Larger updates must be staged by the caller.
func WithMaxInlineUpdateSize(n uint64) Option {
	return func(o *deviceOptions) {
		o.maxInlineUpdateSize = n
	}
}

// WithStridedBufferImageCopy declares that the backend copies several array
// layers to or from a buffer in one operation. Without it, buffer-image
// copies are split per layer.
func WithStridedBufferImageCopy(enabled bool) Option {
	return func(o *deviceOptions) {
		o.stridedBufferImageCopy = enabled
	}
}

// WithRenderLinearImages declares that linear-tiled images can be render
// targets. Without it, blits needing the render path cannot write to a
// linear destination.
func WithRenderLinearImages(enabled bool) Option {
	return func(o *deviceOptions) {
		o.renderLinearImages = enabled
	}
}

// WithFormatFeatures overrides the capabilities of one format.
func WithFormatFeatures(format gputypes.TextureFormat, f FormatFeatures) Option {
	return func(o *deviceOptions) {
		if o.formatFeatures == nil {
			o.formatFeatures = make(map[gputypes.TextureFormat]FormatFeatures)
		}
		o.formatFeatures[format] = f
	}
}
