package xfer

import (
	"errors"
	"testing"
)

func TestFillBufferWordCount(t *testing.T) {
	tests := []struct {
		name   string
		size   uint64
		offset uint64
		want   uint64
	}{
		{"one word", 4, 0, 1},
		{"sixteen bytes", 16, 0, 4},
		{"whole buffer", 1024, 0, 256},
		{"tail", 64, 960, 16},
		{"whole size", WholeSize, 8, 254},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd FillBuffer
			if err := cmd.SetContent(NewDevice(), newTestBuffer(1024, 0), tt.offset, tt.size, 0xdeadbeef); err != nil {
				t.Fatalf("SetContent() = %v", err)
			}
			if got := cmd.WordCount(); got != tt.want {
				t.Errorf("WordCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFillBufferWholeSizeRoundsDown(t *testing.T) {
	var cmd FillBuffer
	if err := cmd.SetContent(NewDevice(), newTestBuffer(30, 0), 4, WholeSize, 1); err != nil {
		t.Fatalf("SetContent() = %v", err)
	}
	if got := cmd.WordCount(); got != 6 {
		t.Errorf("WordCount() = %d, want 6", got)
	}
}

func TestFillBufferRejects(t *testing.T) {
	tests := []struct {
		name   string
		offset uint64
		size   uint64
	}{
		{"size not multiple of 4", 0, 6},
		{"size 1", 0, 1},
		{"zero size", 0, 0},
		{"unaligned offset", 2, 8},
		{"out of bounds", 60, 8},
		{"whole size past end", 64, WholeSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd FillBuffer
			err := cmd.SetContent(NewDevice(), newTestBuffer(64, 0), tt.offset, tt.size, 0)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("SetContent() = %v, want %v", err, ErrInvalidParameter)
			}
			if cmd.WordCount() != 0 {
				t.Errorf("WordCount() = %d after failure, want 0", cmd.WordCount())
			}
		})
	}
}

func TestFillBufferEncode(t *testing.T) {
	var cmd FillBuffer
	if err := cmd.SetContent(NewDevice(), newTestBuffer(256, 512), 16, 32, 7); err != nil {
		t.Fatalf("SetContent() = %v", err)
	}
	enc, rb := newTestEncoder()
	enc.Encode(&cmd)
	if len(rb.ops) != 1 {
		t.Fatalf("ops = %v, want one fill", rb.kinds())
	}
	op := rb.ops[0].op.(FillOp)
	if op.Offset != 528 || op.WordCount != 8 || op.Value != 7 {
		t.Errorf("op = %+v, want offset 528, 8 words of 7", op)
	}
}
