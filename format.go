package xfer

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// =============================================================================
// Texel blocks
// =============================================================================

// TexelBlock describes the addressable unit of a format: a single texel for
// uncompressed formats, a compressed block otherwise.
type TexelBlock struct {
	Width  uint32 // texels
	Height uint32 // texels
	Size   uint32 // bytes
}

// Compressed reports whether the block spans more than one texel.
func (b TexelBlock) Compressed() bool { return b.Width > 1 || b.Height > 1 }

func blk(size uint32) TexelBlock        { return TexelBlock{Width: 1, Height: 1, Size: size} }
func cblk(w, h, size uint32) TexelBlock { return TexelBlock{Width: w, Height: h, Size: size} }
func astc(w, h uint32) TexelBlock       { return cblk(w, h, 16) }

var texelBlocks = map[gputypes.TextureFormat]TexelBlock{
	gputypes.TextureFormatR8Unorm: blk(1),
	gputypes.TextureFormatR8Snorm: blk(1),
	gputypes.TextureFormatR8Uint:  blk(1),
	gputypes.TextureFormatR8Sint:  blk(1),

	gputypes.TextureFormatR16Unorm: blk(2),
	gputypes.TextureFormatR16Snorm: blk(2),
	gputypes.TextureFormatR16Uint:  blk(2),
	gputypes.TextureFormatR16Sint:  blk(2),
	gputypes.TextureFormatR16Float: blk(2),
	gputypes.TextureFormatRG8Unorm: blk(2),
	gputypes.TextureFormatRG8Snorm: blk(2),
	gputypes.TextureFormatRG8Uint:  blk(2),
	gputypes.TextureFormatRG8Sint:  blk(2),

	gputypes.TextureFormatR32Float:       blk(4),
	gputypes.TextureFormatR32Uint:        blk(4),
	gputypes.TextureFormatR32Sint:        blk(4),
	gputypes.TextureFormatRG16Unorm:      blk(4),
	gputypes.TextureFormatRG16Snorm:      blk(4),
	gputypes.TextureFormatRG16Uint:       blk(4),
	gputypes.TextureFormatRG16Sint:       blk(4),
	gputypes.TextureFormatRG16Float:      blk(4),
	gputypes.TextureFormatRGBA8Unorm:     blk(4),
	gputypes.TextureFormatRGBA8UnormSrgb: blk(4),
	gputypes.TextureFormatRGBA8Snorm:     blk(4),
	gputypes.TextureFormatRGBA8Uint:      blk(4),
	gputypes.TextureFormatRGBA8Sint:      blk(4),
	gputypes.TextureFormatBGRA8Unorm:     blk(4),
	gputypes.TextureFormatBGRA8UnormSrgb: blk(4),
	gputypes.TextureFormatRGB10A2Uint:    blk(4),
	gputypes.TextureFormatRGB10A2Unorm:   blk(4),
	gputypes.TextureFormatRG11B10Ufloat:  blk(4),
	gputypes.TextureFormatRGB9E5Ufloat:   blk(4),

	gputypes.TextureFormatRG32Float:   blk(8),
	gputypes.TextureFormatRG32Uint:    blk(8),
	gputypes.TextureFormatRG32Sint:    blk(8),
	gputypes.TextureFormatRGBA16Unorm: blk(8),
	gputypes.TextureFormatRGBA16Snorm: blk(8),
	gputypes.TextureFormatRGBA16Uint:  blk(8),
	gputypes.TextureFormatRGBA16Sint:  blk(8),
	gputypes.TextureFormatRGBA16Float: blk(8),

	gputypes.TextureFormatRGBA32Float: blk(16),
	gputypes.TextureFormatRGBA32Uint:  blk(16),
	gputypes.TextureFormatRGBA32Sint:  blk(16),

	gputypes.TextureFormatStencil8:             blk(1),
	gputypes.TextureFormatDepth16Unorm:         blk(2),
	gputypes.TextureFormatDepth24Plus:          blk(4),
	gputypes.TextureFormatDepth24PlusStencil8:  blk(4),
	gputypes.TextureFormatDepth32Float:         blk(4),
	gputypes.TextureFormatDepth32FloatStencil8: blk(8),

	gputypes.TextureFormatBC1RGBAUnorm:     cblk(4, 4, 8),
	gputypes.TextureFormatBC1RGBAUnormSrgb: cblk(4, 4, 8),
	gputypes.TextureFormatBC2RGBAUnorm:     cblk(4, 4, 16),
	gputypes.TextureFormatBC2RGBAUnormSrgb: cblk(4, 4, 16),
	gputypes.TextureFormatBC3RGBAUnorm:     cblk(4, 4, 16),
	gputypes.TextureFormatBC3RGBAUnormSrgb: cblk(4, 4, 16),
	gputypes.TextureFormatBC4RUnorm:        cblk(4, 4, 8),
	gputypes.TextureFormatBC4RSnorm:        cblk(4, 4, 8),
	gputypes.TextureFormatBC5RGUnorm:       cblk(4, 4, 16),
	gputypes.TextureFormatBC5RGSnorm:       cblk(4, 4, 16),
	gputypes.TextureFormatBC6HRGBUfloat:    cblk(4, 4, 16),
	gputypes.TextureFormatBC6HRGBFloat:     cblk(4, 4, 16),
	gputypes.TextureFormatBC7RGBAUnorm:     cblk(4, 4, 16),
	gputypes.TextureFormatBC7RGBAUnormSrgb: cblk(4, 4, 16),

	gputypes.TextureFormatETC2RGB8Unorm:       cblk(4, 4, 8),
	gputypes.TextureFormatETC2RGB8UnormSrgb:   cblk(4, 4, 8),
	gputypes.TextureFormatETC2RGB8A1Unorm:     cblk(4, 4, 8),
	gputypes.TextureFormatETC2RGB8A1UnormSrgb: cblk(4, 4, 8),
	gputypes.TextureFormatETC2RGBA8Unorm:      cblk(4, 4, 16),
	gputypes.TextureFormatETC2RGBA8UnormSrgb:  cblk(4, 4, 16),
	gputypes.TextureFormatEACR11Unorm:         cblk(4, 4, 8),
	gputypes.TextureFormatEACR11Snorm:         cblk(4, 4, 8),
	gputypes.TextureFormatEACRG11Unorm:        cblk(4, 4, 16),
	gputypes.TextureFormatEACRG11Snorm:        cblk(4, 4, 16),

	gputypes.TextureFormatASTC4x4Unorm:       astc(4, 4),
	gputypes.TextureFormatASTC4x4UnormSrgb:   astc(4, 4),
	gputypes.TextureFormatASTC5x4Unorm:       astc(5, 4),
	gputypes.TextureFormatASTC5x4UnormSrgb:   astc(5, 4),
	gputypes.TextureFormatASTC5x5Unorm:       astc(5, 5),
	gputypes.TextureFormatASTC5x5UnormSrgb:   astc(5, 5),
	gputypes.TextureFormatASTC6x5Unorm:       astc(6, 5),
	gputypes.TextureFormatASTC6x5UnormSrgb:   astc(6, 5),
	gputypes.TextureFormatASTC6x6Unorm:       astc(6, 6),
	gputypes.TextureFormatASTC6x6UnormSrgb:   astc(6, 6),
	gputypes.TextureFormatASTC8x5Unorm:       astc(8, 5),
	gputypes.TextureFormatASTC8x5UnormSrgb:   astc(8, 5),
	gputypes.TextureFormatASTC8x6Unorm:       astc(8, 6),
	gputypes.TextureFormatASTC8x6UnormSrgb:   astc(8, 6),
	gputypes.TextureFormatASTC8x8Unorm:       astc(8, 8),
	gputypes.TextureFormatASTC8x8UnormSrgb:   astc(8, 8),
	gputypes.TextureFormatASTC10x5Unorm:      astc(10, 5),
	gputypes.TextureFormatASTC10x5UnormSrgb:  astc(10, 5),
	gputypes.TextureFormatASTC10x6Unorm:      astc(10, 6),
	gputypes.TextureFormatASTC10x6UnormSrgb:  astc(10, 6),
	gputypes.TextureFormatASTC10x8Unorm:      astc(10, 8),
	gputypes.TextureFormatASTC10x8UnormSrgb:  astc(10, 8),
	gputypes.TextureFormatASTC10x10Unorm:     astc(10, 10),
	gputypes.TextureFormatASTC10x10UnormSrgb: astc(10, 10),
	gputypes.TextureFormatASTC12x10Unorm:     astc(12, 10),
	gputypes.TextureFormatASTC12x10UnormSrgb: astc(12, 10),
	gputypes.TextureFormatASTC12x12Unorm:     astc(12, 12),
	gputypes.TextureFormatASTC12x12UnormSrgb: astc(12, 12),
}

// TexelBlockOf returns the block layout of format. The second result is
// false for Undefined and unknown formats.
func TexelBlockOf(format gputypes.TextureFormat) (TexelBlock, bool) {
	b, ok := texelBlocks[format]
	return b, ok
}

// aspectBlock returns the block used when a single aspect of a
// depth/stencil format is copied to or from a buffer.
func aspectBlock(format gputypes.TextureFormat, aspect Aspect) TexelBlock {
	switch {
	case aspect == AspectStencil:
		return blk(1)
	case aspect == AspectDepth && format == gputypes.TextureFormatDepth16Unorm:
		return blk(2)
	case aspect == AspectDepth:
		return blk(4)
	}
	b, _ := TexelBlockOf(format)
	return b
}

// ParseFormat resolves a format by its gputypes name, e.g. "RGBA8Unorm".
// Matching is case-insensitive.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	if f, ok := formatsByName[strings.ToLower(name)]; ok {
		return f, nil
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("xfer: unknown texture format %q", name)
}

var formatsByName = func() map[string]gputypes.TextureFormat {
	m := make(map[string]gputypes.TextureFormat, len(texelBlocks))
	for f := range texelBlocks {
		m[strings.ToLower(f.String())] = f
	}
	return m
}()

// =============================================================================
// Format classes
// =============================================================================

type sampleKind uint8

const (
	kindFloat sampleKind = iota
	kindUint
	kindSint
	kindDepth
)

func kindOf(f gputypes.TextureFormat) sampleKind {
	switch f {
	case gputypes.TextureFormatR8Uint, gputypes.TextureFormatR16Uint, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatR32Uint, gputypes.TextureFormatRG16Uint, gputypes.TextureFormatRGBA8Uint,
		gputypes.TextureFormatRGB10A2Uint, gputypes.TextureFormatRG32Uint, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA32Uint:
		return kindUint
	case gputypes.TextureFormatR8Sint, gputypes.TextureFormatR16Sint, gputypes.TextureFormatRG8Sint,
		gputypes.TextureFormatR32Sint, gputypes.TextureFormatRG16Sint, gputypes.TextureFormatRGBA8Sint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA32Sint:
		return kindSint
	}
	if f.IsDepthStencil() {
		return kindDepth
	}
	return kindFloat
}

func isIntegerFormat(f gputypes.TextureFormat) bool {
	k := kindOf(f)
	return k == kindUint || k == kindSint
}

// SampleTypeOf returns how shaders read format. Float formats without
// default filtering support are unfilterable.
func SampleTypeOf(format gputypes.TextureFormat) gputypes.TextureSampleType {
	switch kindOf(format) {
	case kindUint:
		return gputypes.TextureSampleTypeUint
	case kindSint:
		return gputypes.TextureSampleTypeSint
	case kindDepth:
		return gputypes.TextureSampleTypeDepth
	}
	if !DefaultFormatFeatures(format).Has(FeatureFilter) {
		return gputypes.TextureSampleTypeUnfilterableFloat
	}
	return gputypes.TextureSampleTypeFloat
}

func pair(a, b gputypes.TextureFormat) [2]gputypes.TextureFormat {
	return [2]gputypes.TextureFormat{a, b}
}

var srgbPairs = [...][2]gputypes.TextureFormat{
	pair(gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb),
	pair(gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb),
	pair(gputypes.TextureFormatBC1RGBAUnorm, gputypes.TextureFormatBC1RGBAUnormSrgb),
	pair(gputypes.TextureFormatBC2RGBAUnorm, gputypes.TextureFormatBC2RGBAUnormSrgb),
	pair(gputypes.TextureFormatBC3RGBAUnorm, gputypes.TextureFormatBC3RGBAUnormSrgb),
	pair(gputypes.TextureFormatBC7RGBAUnorm, gputypes.TextureFormatBC7RGBAUnormSrgb),
	pair(gputypes.TextureFormatETC2RGB8Unorm, gputypes.TextureFormatETC2RGB8UnormSrgb),
	pair(gputypes.TextureFormatETC2RGB8A1Unorm, gputypes.TextureFormatETC2RGB8A1UnormSrgb),
	pair(gputypes.TextureFormatETC2RGBA8Unorm, gputypes.TextureFormatETC2RGBA8UnormSrgb),
	pair(gputypes.TextureFormatASTC4x4Unorm, gputypes.TextureFormatASTC4x4UnormSrgb),
	pair(gputypes.TextureFormatASTC5x4Unorm, gputypes.TextureFormatASTC5x4UnormSrgb),
	pair(gputypes.TextureFormatASTC5x5Unorm, gputypes.TextureFormatASTC5x5UnormSrgb),
	pair(gputypes.TextureFormatASTC6x5Unorm, gputypes.TextureFormatASTC6x5UnormSrgb),
	pair(gputypes.TextureFormatASTC6x6Unorm, gputypes.TextureFormatASTC6x6UnormSrgb),
	pair(gputypes.TextureFormatASTC8x5Unorm, gputypes.TextureFormatASTC8x5UnormSrgb),
	pair(gputypes.TextureFormatASTC8x6Unorm, gputypes.TextureFormatASTC8x6UnormSrgb),
	pair(gputypes.TextureFormatASTC8x8Unorm, gputypes.TextureFormatASTC8x8UnormSrgb),
	pair(gputypes.TextureFormatASTC10x5Unorm, gputypes.TextureFormatASTC10x5UnormSrgb),
	pair(gputypes.TextureFormatASTC10x6Unorm, gputypes.TextureFormatASTC10x6UnormSrgb),
	pair(gputypes.TextureFormatASTC10x8Unorm, gputypes.TextureFormatASTC10x8UnormSrgb),
	pair(gputypes.TextureFormatASTC10x10Unorm, gputypes.TextureFormatASTC10x10UnormSrgb),
	pair(gputypes.TextureFormatASTC12x10Unorm, gputypes.TextureFormatASTC12x10UnormSrgb),
	pair(gputypes.TextureFormatASTC12x12Unorm, gputypes.TextureFormatASTC12x12UnormSrgb),
}

// linearFormat strips sRGB encoding from f.
func linearFormat(f gputypes.TextureFormat) gputypes.TextureFormat {
	if !f.IsSrgb() {
		return f
	}
	for _, p := range srgbPairs {
		if p[1] == f {
			return p[0]
		}
	}
	return f
}

// SameFamily reports whether a and b differ at most in sRGB encoding.
func SameFamily(a, b gputypes.TextureFormat) bool {
	return linearFormat(a) == linearFormat(b)
}

// =============================================================================
// Format features
// =============================================================================

// FormatFeatures is the set of operations a device supports for a format.
type FormatFeatures uint8

const (
	// FeatureCopy allows the format in copy operations.
	FeatureCopy FormatFeatures = 1 << iota
	// FeatureSample allows sampling the format in a shader.
	FeatureSample
	// FeatureFilter allows linear filtering when sampling.
	FeatureFilter
	// FeatureRender allows the format as a render attachment.
	FeatureRender
	// FeatureClear allows the backend to clear the format natively.
	FeatureClear
)

var featureNames = [...]struct {
	f    FormatFeatures
	name string
}{
	{FeatureCopy, "copy"},
	{FeatureSample, "sample"},
	{FeatureFilter, "filter"},
	{FeatureRender, "render"},
	{FeatureClear, "clear"},
}

// Has reports whether every feature in want is present.
func (f FormatFeatures) Has(want FormatFeatures) bool { return f&want == want }

func (f FormatFeatures) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Names lists the feature names present in f.
func (f FormatFeatures) Names() []string {
	var names []string
	for _, fn := range featureNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// ParseFormatFeatures builds a feature set from names such as "copy" or
// "render".
func ParseFormatFeatures(names []string) (FormatFeatures, error) {
	var f FormatFeatures
	for _, n := range names {
		found := false
		for _, fn := range featureNames {
			if strings.EqualFold(n, fn.name) {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("xfer: unknown format feature %q", n)
		}
	}
	return f, nil
}

const allFeatures = FeatureCopy | FeatureSample | FeatureFilter | FeatureRender | FeatureClear

// DefaultFormatFeatures returns the built-in capabilities of format.
func DefaultFormatFeatures(format gputypes.TextureFormat) FormatFeatures {
	b, ok := TexelBlockOf(format)
	if !ok {
		return 0
	}
	switch {
	case b.Compressed():
		return FeatureCopy | FeatureSample | FeatureFilter
	case format.IsDepthStencil(), isIntegerFormat(format):
		return FeatureCopy | FeatureSample | FeatureRender | FeatureClear
	}
	switch format {
	case gputypes.TextureFormatRGB9E5Ufloat,
		gputypes.TextureFormatR8Snorm, gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRGBA8Snorm,
		gputypes.TextureFormatR16Snorm, gputypes.TextureFormatRG16Snorm, gputypes.TextureFormatRGBA16Snorm:
		return FeatureCopy | FeatureSample | FeatureFilter
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatRG32Float, gputypes.TextureFormatRGBA32Float:
		return FeatureCopy | FeatureSample | FeatureRender | FeatureClear
	}
	return allFeatures
}

// =============================================================================
// Copy compatibility
// =============================================================================

// CopyPath is how an image-to-image copy between two formats is performed.
type CopyPath uint8

const (
	// CopyIncompatible means no copy is possible.
	CopyIncompatible CopyPath = iota
	// CopyDirect is a single backend image copy.
	CopyDirect
	// CopyStaged copies through a scratch buffer. Used between compressed
	// and uncompressed formats of equal block size.
	CopyStaged
)

var copyPathNames = [...]string{"incompatible", "direct", "staged"}

func (p CopyPath) String() string {
	if int(p) < len(copyPathNames) {
		return copyPathNames[p]
	}
	return fmt.Sprintf("CopyPath(%d)", p)
}

// ClassifyCopy decides how texels move from src to dst. Depth/stencil
// formats only copy to themselves; other formats need equal block sizes.
func ClassifyCopy(src, dst gputypes.TextureFormat) CopyPath {
	sb, ok1 := TexelBlockOf(src)
	db, ok2 := TexelBlockOf(dst)
	switch {
	case !ok1 || !ok2:
		return CopyIncompatible
	case src == dst:
		return CopyDirect
	case src.IsDepthStencil() || dst.IsDepthStencil():
		return CopyIncompatible
	case sb.Size != db.Size:
		return CopyIncompatible
	case sb.Compressed() && db.Compressed():
		if sb.Width == db.Width && sb.Height == db.Height {
			return CopyDirect
		}
		return CopyIncompatible
	case sb.Compressed() != db.Compressed():
		return CopyStaged
	}
	return CopyDirect
}

// copyDstExtent converts a copy extent given in source texels into
// destination texels. Sizes only differ between compressed and
// uncompressed formats, where one block maps to one texel.
func copyDstExtent(src, dst gputypes.TextureFormat, e gputypes.Extent3D) gputypes.Extent3D {
	sb, _ := TexelBlockOf(src)
	db, _ := TexelBlockOf(dst)
	switch {
	case sb.Compressed() && !db.Compressed():
		e.Width = ceilDiv(e.Width, sb.Width)
		e.Height = ceilDiv(e.Height, sb.Height)
	case !sb.Compressed() && db.Compressed():
		e.Width *= db.Width
		e.Height *= db.Height
	}
	return e
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// =============================================================================
// Blit classification
// =============================================================================

func absSpan(a, b int32) uint32 {
	if a > b {
		return uint32(a - b)
	}
	return uint32(b - a)
}

func ascending(o [2]Offset3D) bool {
	return o[0].X <= o[1].X && o[0].Y <= o[1].Y && o[0].Z <= o[1].Z
}

// classifyBlit reports whether a blit region can run as a plain image copy:
// identical formats and sample counts, no scaling and no mirroring.
// Anything else takes the render path.
func classifyBlit(src, dst Image, r *ImageBlitRegion) bool {
	if src.Format() != dst.Format() || src.SampleCount() != dst.SampleCount() {
		return false
	}
	if !ascending(r.SrcOffsets) || !ascending(r.DstOffsets) {
		return false
	}
	s, d := r.SrcOffsets, r.DstOffsets
	return absSpan(s[0].X, s[1].X) == absSpan(d[0].X, d[1].X) &&
		absSpan(s[0].Y, s[1].Y) == absSpan(d[0].Y, d[1].Y) &&
		absSpan(s[0].Z, s[1].Z) == absSpan(d[0].Z, d[1].Z)
}
