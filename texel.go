package xfer

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

type texelEncoding uint8

const (
	encUnorm8 texelEncoding = iota
	encSnorm8
	encUint8
	encSint8
	encUnorm16
	encSnorm16
	encUint16
	encSint16
	encFloat16
	encFloat32
	encUint32
	encSint32
)

type texelLayout struct {
	channels int
	enc      texelEncoding
	bgra     bool
}

var texelLayouts = map[gputypes.TextureFormat]texelLayout{
	gputypes.TextureFormatR8Unorm:        {1, encUnorm8, false},
	gputypes.TextureFormatR8Snorm:        {1, encSnorm8, false},
	gputypes.TextureFormatR8Uint:         {1, encUint8, false},
	gputypes.TextureFormatR8Sint:         {1, encSint8, false},
	gputypes.TextureFormatRG8Unorm:       {2, encUnorm8, false},
	gputypes.TextureFormatRG8Snorm:       {2, encSnorm8, false},
	gputypes.TextureFormatRG8Uint:        {2, encUint8, false},
	gputypes.TextureFormatRG8Sint:        {2, encSint8, false},
	gputypes.TextureFormatRGBA8Unorm:     {4, encUnorm8, false},
	gputypes.TextureFormatRGBA8Snorm:     {4, encSnorm8, false},
	gputypes.TextureFormatRGBA8Uint:      {4, encUint8, false},
	gputypes.TextureFormatRGBA8Sint:      {4, encSint8, false},
	gputypes.TextureFormatBGRA8Unorm:     {4, encUnorm8, true},
	gputypes.TextureFormatR16Unorm:       {1, encUnorm16, false},
	gputypes.TextureFormatR16Snorm:       {1, encSnorm16, false},
	gputypes.TextureFormatR16Uint:        {1, encUint16, false},
	gputypes.TextureFormatR16Sint:        {1, encSint16, false},
	gputypes.TextureFormatR16Float:       {1, encFloat16, false},
	gputypes.TextureFormatRG16Unorm:      {2, encUnorm16, false},
	gputypes.TextureFormatRG16Snorm:      {2, encSnorm16, false},
	gputypes.TextureFormatRG16Uint:       {2, encUint16, false},
	gputypes.TextureFormatRG16Sint:       {2, encSint16, false},
	gputypes.TextureFormatRG16Float:      {2, encFloat16, false},
	gputypes.TextureFormatRGBA16Unorm:    {4, encUnorm16, false},
	gputypes.TextureFormatRGBA16Snorm:    {4, encSnorm16, false},
	gputypes.TextureFormatRGBA16Uint:     {4, encUint16, false},
	gputypes.TextureFormatRGBA16Sint:     {4, encSint16, false},
	gputypes.TextureFormatRGBA16Float:    {4, encFloat16, false},
	gputypes.TextureFormatR32Float:       {1, encFloat32, false},
	gputypes.TextureFormatR32Uint:        {1, encUint32, false},
	gputypes.TextureFormatR32Sint:        {1, encSint32, false},
	gputypes.TextureFormatRG32Float:      {2, encFloat32, false},
	gputypes.TextureFormatRG32Uint:       {2, encUint32, false},
	gputypes.TextureFormatRG32Sint:       {2, encSint32, false},
	gputypes.TextureFormatRGBA32Float:    {4, encFloat32, false},
	gputypes.TextureFormatRGBA32Uint:     {4, encUint32, false},
	gputypes.TextureFormatRGBA32Sint:     {4, encSint32, false},
	gputypes.TextureFormatRGBA8UnormSrgb: {4, encUnorm8, false},
	gputypes.TextureFormatBGRA8UnormSrgb: {4, encUnorm8, true},
}

// PackClearColor encodes c as one texel of format. The second result is
// false for formats without a known byte encoding (compressed, packed and
// depth/stencil formats). sRGB formats are encoded from linear values.
func PackClearColor(format gputypes.TextureFormat, c gputypes.Color) ([]byte, bool) {
	l, ok := texelLayouts[format]
	if !ok {
		return nil, false
	}
	comps := [4]float64{c.R, c.G, c.B, c.A}
	if l.bgra {
		comps[0], comps[2] = comps[2], comps[0]
	}
	if format.IsSrgb() {
		for i := 0; i < 3; i++ {
			comps[i] = linearToSrgb(comps[i])
		}
	}
	out := make([]byte, 0, 16)
	for i := 0; i < l.channels; i++ {
		out = appendComponent(out, l.enc, comps[i])
	}
	return out, true
}

func appendComponent(b []byte, enc texelEncoding, v float64) []byte {
	switch enc {
	case encUnorm8:
		return append(b, uint8(math.Round(clamp(v, 0, 1)*255)))
	case encSnorm8:
		return append(b, uint8(int8(math.Round(clamp(v, -1, 1)*127))))
	case encUint8:
		return append(b, uint8(clamp(v, 0, math.MaxUint8)))
	case encSint8:
		return append(b, uint8(int8(clamp(v, math.MinInt8, math.MaxInt8))))
	case encUnorm16:
		return binary.LittleEndian.AppendUint16(b, uint16(math.Round(clamp(v, 0, 1)*65535)))
	case encSnorm16:
		return binary.LittleEndian.AppendUint16(b, uint16(int16(math.Round(clamp(v, -1, 1)*32767))))
	case encUint16:
		return binary.LittleEndian.AppendUint16(b, uint16(clamp(v, 0, math.MaxUint16)))
	case encSint16:
		return binary.LittleEndian.AppendUint16(b, uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
	case encFloat16:
		return binary.LittleEndian.AppendUint16(b, float32ToHalf(float32(v)))
	case encFloat32:
		return binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v)))
	case encUint32:
		return binary.LittleEndian.AppendUint32(b, uint32(clamp(v, 0, math.MaxUint32)))
	case encSint32:
		return binary.LittleEndian.AppendUint32(b, uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func linearToSrgb(v float64) float64 {
	v = clamp(v, 0, 1)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// float32ToHalf converts to IEEE 754 binary16 with round-to-nearest-even.
func float32ToHalf(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case b&0x7fffffff > 0x7f800000: // NaN
		return sign | 0x7e00
	case exp >= 0x1f: // overflow and infinity
		return sign | 0x7c00
	case exp <= 0: // subnormal or zero
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		h := uint16(mant >> shift)
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && h&1 != 0) {
			h++
		}
		return sign | h
	}

	h := sign | uint16(exp)<<10 | uint16(mant>>13)
	rem := mant & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && h&1 != 0) {
		h++
	}
	return h
}
