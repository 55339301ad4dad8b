package xfer

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestMultiClearValuesIndependent(t *testing.T) {
	var m multiClearValues
	vals := make([]ClearValue, MaxColorAttachments)
	for i := range vals {
		vals[i] = ColorClear(gputypes.Color{R: float64(i) / 8, G: 1, B: 0, A: 1})
		m.SetClearValue(uint32(i), vals[i])
	}
	for i := range vals {
		if got := m.ClearValue(uint32(i)); got != vals[i] {
			t.Errorf("ClearValue(%d) = %v, want %v", i, got, vals[i])
		}
	}

	m.SetClearValue(0, ColorClear(gputypes.Color{R: 9}))
	if got := m.ClearValue(1); got != vals[1] {
		t.Errorf("ClearValue(1) = %v after setting slot 0, want %v", got, vals[1])
	}
}

func TestMultiClearValuesOutOfRange(t *testing.T) {
	var m multiClearValues
	m.SetClearValue(MaxColorAttachments, ColorClear(gputypes.Color{R: 1}))
	if got := m.ClearValue(MaxColorAttachments); got != (ClearValue{}) {
		t.Errorf("ClearValue(%d) = %v, want zero", MaxColorAttachments, got)
	}
	for i := range uint32(MaxColorAttachments) {
		if got := m.ClearValue(i); got != (ClearValue{}) {
			t.Errorf("ClearValue(%d) = %v, want zero", i, got)
		}
	}
}

func TestSingleClearValueSharedAcrossSlots(t *testing.T) {
	var s singleClearValue
	v := ColorClear(gputypes.Color{R: 0.1, G: 0.2, B: 0.3, A: 0.4})
	s.SetClearValue(3, v)
	for _, slot := range []uint32{0, 3, 7} {
		if got := s.ClearValue(slot); got != v {
			t.Errorf("ClearValue(%d) = %v, want %v", slot, got, v)
		}
	}
}

func TestClearValueKinds(t *testing.T) {
	c := ColorClear(gputypes.Color{R: 1, A: 1})
	if c.IsDepthStencil() || c.Depth() != 0 || c.Stencil() != 0 {
		t.Errorf("ColorClear() = %v, want a color value", c)
	}
	ds := DepthStencilClear(0.25, 7)
	if !ds.IsDepthStencil() || ds.Depth() != 0.25 || ds.Stencil() != 7 {
		t.Errorf("DepthStencilClear() = %v, want depth 0.25 stencil 7", ds)
	}
	if got, want := ds.String(), "depth=0.25 stencil=7"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := c.String(), "rgba(1,0,0,1)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
