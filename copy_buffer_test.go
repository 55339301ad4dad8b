package xfer

import (
	"errors"
	"testing"
)

func TestCopyBuffer(t *testing.T) {
	src := newTestBuffer(256, 1024)
	dst := newTestBuffer(128, 64)

	var cmd CopyBuffer
	err := cmd.SetContent(NewDevice(), src, dst, []BufferCopyRegion{
		{SrcOffset: 0, DstOffset: 0, Size: 64},
		{SrcOffset: 128, DstOffset: 64, Size: 64},
	})
	if err != nil {
		t.Fatalf("SetContent() = %v", err)
	}

	enc, rb := newTestEncoder()
	enc.Encode(&cmd)
	if len(rb.ops) != 2 {
		t.Fatalf("ops = %v, want 2 copies", rb.kinds())
	}
	op := rb.ops[1].op.(BufferCopyOp)
	if op.SrcOffset != 1024+128 || op.DstOffset != 64+64 || op.Size != 64 {
		t.Errorf("op = %+v, want src 1152 dst 128 size 64", op)
	}
}

func TestCopyBufferRejects(t *testing.T) {
	shared := newTestBuffer(256, 0)
	tests := []struct {
		name   string
		src    Buffer
		dst    Buffer
		region BufferCopyRegion
	}{
		{"zero size", newTestBuffer(64, 0), newTestBuffer(64, 0), BufferCopyRegion{Size: 0}},
		{"source overflow", newTestBuffer(64, 0), newTestBuffer(64, 0), BufferCopyRegion{SrcOffset: 32, Size: 48}},
		{"destination overflow", newTestBuffer(64, 0), newTestBuffer(16, 0), BufferCopyRegion{Size: 32}},
		{"wrapping offset", newTestBuffer(64, 0), newTestBuffer(64, 0), BufferCopyRegion{SrcOffset: ^uint64(0) - 3, Size: 8}},
		{"overlap", shared, shared, BufferCopyRegion{SrcOffset: 0, DstOffset: 32, Size: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd CopyBuffer
			err := cmd.SetContent(NewDevice(), tt.src, tt.dst, []BufferCopyRegion{tt.region})
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("SetContent() = %v, want %v", err, ErrInvalidParameter)
			}
		})
	}
}

func TestCopyBufferSameBufferDisjoint(t *testing.T) {
	buf := newTestBuffer(256, 0)
	var cmd CopyBuffer
	if err := cmd.SetContent(NewDevice(), buf, buf, []BufferCopyRegion{{SrcOffset: 0, DstOffset: 128, Size: 128}}); err != nil {
		t.Errorf("SetContent() = %v, want nil", err)
	}
}

// sliceBuffer is a Buffer whose dynamic type is not comparable.
type sliceBuffer struct{ data []byte }

func (b sliceBuffer) Size() uint64   { return uint64(len(b.data)) }
func (b sliceBuffer) Offset() uint64 { return 0 }

func TestCopyBufferNonComparableBuffers(t *testing.T) {
	a := sliceBuffer{data: make([]byte, 128)}
	var cmd CopyBuffer
	if err := cmd.SetContent(NewDevice(), a, a, []BufferCopyRegion{{SrcOffset: 0, DstOffset: 32, Size: 64}}); err != nil {
		t.Errorf("SetContent() = %v, want nil", err)
	}
	if err := cmd.SetContent(NewDevice(), a, newTestBuffer(128, 0), []BufferCopyRegion{{Size: 64}}); err != nil {
		t.Errorf("SetContent() with mixed types = %v, want nil", err)
	}
}
