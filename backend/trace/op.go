package trace

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xfer"
)

// OpKind identifies the backend call an Op records.
type OpKind uint8

const (
	OpCopyImage OpKind = iota
	OpCopyBuffer
	OpCopyBufferToImage
	OpCopyImageToBuffer
	OpResolveImage
	OpClearImage
	OpFillBuffer
	OpUpdateBuffer
	OpDraw
)

var opKindNames = [...]string{
	OpCopyImage:         "CopyImage",
	OpCopyBuffer:        "CopyBuffer",
	OpCopyBufferToImage: "CopyBufferToImage",
	OpCopyImageToBuffer: "CopyImageToBuffer",
	OpResolveImage:      "ResolveImage",
	OpClearImage:        "ClearImage",
	OpFillBuffer:        "FillBuffer",
	OpUpdateBuffer:      "UpdateBuffer",
	OpDraw:              "Draw",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "Unknown"
}

// Op is one recorded backend call. Value holds a copy of the operation:
// xfer.ImageCopyOp, xfer.BufferCopyOp, xfer.BufferImageCopyOp,
// xfer.ResolveOp, xfer.ImageClearOp, xfer.FillOp, xfer.UpdateOp or
// xfer.DrawCall depending on Kind.
type Op struct {
	Kind  OpKind
	Use   xfer.CommandUse
	Value any
}

// String renders the op on one line. The rendering is stable and is what
// Digest hashes.
func (o Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-17s [%s]", o.Kind, o.Use)
	switch v := o.Value.(type) {
	case xfer.ImageCopyOp:
		fmt.Fprintf(&b, " %s -> %s extent=%s", loc(v.Src), loc(v.Dst), ext(v.Extent))
	case xfer.BufferCopyOp:
		fmt.Fprintf(&b, " %s+%d -> %s+%d size=%d", name(v.Src), v.SrcOffset, name(v.Dst), v.DstOffset, v.Size)
	case xfer.BufferImageCopyOp:
		buf := fmt.Sprintf("%s+%d bpr=%d rpi=%d", name(v.Buffer), v.Offset, v.BytesPerRow, v.RowsPerImage)
		if o.Kind == OpCopyImageToBuffer {
			fmt.Fprintf(&b, " %s -> %s extent=%s", loc(v.Image), buf, ext(v.Extent))
		} else {
			fmt.Fprintf(&b, " %s -> %s extent=%s", buf, loc(v.Image), ext(v.Extent))
		}
	case xfer.ResolveOp:
		fmt.Fprintf(&b, " %s -> %s extent=%s", loc(v.Src), loc(v.Dst), ext(v.Extent))
	case xfer.ImageClearOp:
		fmt.Fprintf(&b, " %s value=%s", loc(v.Image), v.Value)
	case xfer.FillOp:
		fmt.Fprintf(&b, " %s+%d words=%d value=%#08x", name(v.Dst), v.Offset, v.WordCount, v.Value)
	case xfer.UpdateOp:
		fmt.Fprintf(&b, " %s+%d bytes=%d", name(v.Dst), v.Offset, len(v.Data))
	case xfer.DrawCall:
		label := "<nil>"
		if v.Pipeline != nil {
			label = v.Pipeline.Label()
		}
		fmt.Fprintf(&b, " pipeline=%q verts=%d inst=%d", label, v.VertexCount, v.InstanceCount)
		if v.Target != nil {
			fmt.Fprintf(&b, " target=%s", loc(*v.Target))
		} else {
			b.WriteString(" target=pass")
		}
		if v.Source != nil {
			fmt.Fprintf(&b, " source=%s filter=%s", loc(*v.Source), v.Filter)
		}
		s := v.Scissor
		fmt.Fprintf(&b, " scissor=%d,%d,%dx%d stencil=%d", s.X, s.Y, s.Width, s.Height, v.StencilReference)
	}
	return b.String()
}

func name(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

func loc(l xfer.ImageLocation) string {
	return fmt.Sprintf("%s[%s mip=%d layers=%d+%d @%d,%d,%d]",
		name(l.Image), l.Aspect, l.MipLevel, l.BaseArrayLayer, l.LayerCount, l.Origin.X, l.Origin.Y, l.Origin.Z)
}

func ext(e gputypes.Extent3D) string {
	return fmt.Sprintf("%dx%dx%d", e.Width, e.Height, e.DepthOrArrayLayers)
}
