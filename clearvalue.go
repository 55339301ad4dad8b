package xfer

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxColorAttachments bounds the per-slot clear values of a multi-attachment
// clear.
const MaxColorAttachments = 8

// ClearValue is a color or a depth/stencil pair. Depth and stencil are kept
// independently so either may be cleared on its own.
type ClearValue struct {
	depthStencil bool
	color        gputypes.Color
	depth        float32
	stencil      uint32
}

// ColorClear returns a color clear value.
func ColorClear(c gputypes.Color) ClearValue {
	return ClearValue{color: c}
}

// DepthStencilClear returns a depth/stencil clear value.
func DepthStencilClear(depth float32, stencil uint32) ClearValue {
	return ClearValue{depthStencil: true, depth: depth, stencil: stencil}
}

// IsDepthStencil reports whether v holds a depth/stencil pair.
func (v ClearValue) IsDepthStencil() bool { return v.depthStencil }

// Color returns the color. It is zero for depth/stencil values.
func (v ClearValue) Color() gputypes.Color { return v.color }

// Depth returns the depth value. It is zero for color values.
func (v ClearValue) Depth() float32 { return v.depth }

// Stencil returns the stencil value. It is zero for color values.
func (v ClearValue) Stencil() uint32 { return v.stencil }

func (v ClearValue) String() string {
	if v.depthStencil {
		return fmt.Sprintf("depth=%g stencil=%d", v.depth, v.stencil)
	}
	return fmt.Sprintf("rgba(%g,%g,%g,%g)", v.color.R, v.color.G, v.color.B, v.color.A)
}

// ClearValueStore holds the color clear values of a clear-attachments
// command, indexed by color attachment slot.
type ClearValueStore interface {
	ClearValue(slot uint32) ClearValue
	SetClearValue(slot uint32, v ClearValue)
}

// singleClearValue stores the value of a single-attachment clear. Every
// slot reads and writes the same value.
type singleClearValue struct {
	value ClearValue
}

func (s *singleClearValue) ClearValue(uint32) ClearValue { return s.value }

func (s *singleClearValue) SetClearValue(_ uint32, v ClearValue) { s.value = v }

// multiClearValues stores one value per color attachment slot.
type multiClearValues struct {
	values [MaxColorAttachments]ClearValue
}

func (m *multiClearValues) ClearValue(slot uint32) ClearValue {
	if slot >= MaxColorAttachments {
		return ClearValue{}
	}
	return m.values[slot]
}

func (m *multiClearValues) SetClearValue(slot uint32, v ClearValue) {
	if slot < MaxColorAttachments {
		m.values[slot] = v
	}
}
