package plan

import (
	"encoding/hex"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xfer"
)

type commandBuilder interface {
	build(dev *xfer.Device, res *Resources) (xfer.Command, error)
}

var kinds = map[string]func() commandBuilder{
	"copyImage":              func() commandBuilder { return &copyImageSpec{} },
	"blitImage":              func() commandBuilder { return &blitImageSpec{} },
	"resolveImage":           func() commandBuilder { return &resolveImageSpec{} },
	"copyBuffer":             func() commandBuilder { return &copyBufferSpec{} },
	"copyBufferToImage":      func() commandBuilder { return &bufferImageSpec{toImage: true} },
	"copyImageToBuffer":      func() commandBuilder { return &bufferImageSpec{} },
	"clearAttachments":       func() commandBuilder { return &clearAttachmentsSpec{} },
	"clearColorImage":        func() commandBuilder { return &clearColorSpec{} },
	"clearDepthStencilImage": func() commandBuilder { return &clearDepthStencilSpec{} },
	"fillBuffer":             func() commandBuilder { return &fillBufferSpec{} },
	"updateBuffer":           func() commandBuilder { return &updateBufferSpec{} },
}

// =============================================================================
// Shared fields
// =============================================================================

// subSpec addresses one mip level and a run of layers. Zero layers means 1.
type subSpec struct {
	Aspect string `yaml:"aspect"`
	Mip    uint32 `yaml:"mip"`
	Layer  uint32 `yaml:"layer"`
	Layers uint32 `yaml:"layers"`
}

func (s subSpec) resolve() (xfer.SubresourceLayers, error) {
	a, err := aspect(s.Aspect)
	if err != nil {
		return xfer.SubresourceLayers{}, err
	}
	return xfer.SubresourceLayers{Aspect: a, MipLevel: s.Mip, BaseArrayLayer: s.Layer, LayerCount: max(s.Layers, 1)}, nil
}

// rangeSpec addresses mip levels and layers. Zero counts mean every
// remaining level or layer.
type rangeSpec struct {
	Aspect string `yaml:"aspect"`
	Mip    uint32 `yaml:"mip"`
	Mips   uint32 `yaml:"mips"`
	Layer  uint32 `yaml:"layer"`
	Layers uint32 `yaml:"layers"`
}

func resolveRanges(specs []rangeSpec) ([]xfer.SubresourceRange, error) {
	out := make([]xfer.SubresourceRange, len(specs))
	for i, s := range specs {
		a, err := aspect(s.Aspect)
		if err != nil {
			return nil, err
		}
		r := xfer.SubresourceRange{Aspect: a, BaseMipLevel: s.Mip, LevelCount: s.Mips, BaseArrayLayer: s.Layer, LayerCount: s.Layers}
		if r.LevelCount == 0 {
			r.LevelCount = xfer.RemainingMipLevels
		}
		if r.LayerCount == 0 {
			r.LayerCount = xfer.RemainingArrayLayers
		}
		out[i] = r
	}
	return out, nil
}

func component[T any](v []T, i int) T {
	if i < len(v) {
		return v[i]
	}
	var zero T
	return zero
}

func origin(v []uint32) gputypes.Origin3D {
	return gputypes.Origin3D{X: component(v, 0), Y: component(v, 1), Z: component(v, 2)}
}

// extent reads [w, h, d]; a missing or zero depth is 1.
func extent(v []uint32) gputypes.Extent3D {
	return gputypes.Extent3D{Width: component(v, 0), Height: component(v, 1), DepthOrArrayLayers: max(component(v, 2), 1)}
}

func offset3(v []int32) xfer.Offset3D {
	return xfer.Offset3D{X: component(v, 0), Y: component(v, 1), Z: component(v, 2)}
}

func color(v []float64) gputypes.Color {
	return gputypes.Color{R: component(v, 0), G: component(v, 1), B: component(v, 2), A: component(v, 3)}
}

// imagePair resolves the images and layouts shared by image-to-image
// commands.
type imagePair struct {
	Src       string `yaml:"src"`
	Dst       string `yaml:"dst"`
	SrcLayout string `yaml:"srcLayout"`
	DstLayout string `yaml:"dstLayout"`
}

func (p imagePair) resolve(res *Resources) (src, dst xfer.Image, srcLayout, dstLayout xfer.ImageLayout, err error) {
	if src, err = res.image(p.Src); err != nil {
		return
	}
	if dst, err = res.image(p.Dst); err != nil {
		return
	}
	if srcLayout, err = layout(p.SrcLayout); err != nil {
		return
	}
	dstLayout, err = layout(p.DstLayout)
	return
}

// =============================================================================
// Image commands
// =============================================================================

type copyImageSpec struct {
	imagePair `yaml:",inline"`
	Regions   []struct {
		Src       subSpec  `yaml:"src"`
		SrcOffset []uint32 `yaml:"srcOffset"`
		Dst       subSpec  `yaml:"dst"`
		DstOffset []uint32 `yaml:"dstOffset"`
		Extent    []uint32 `yaml:"extent"`
	} `yaml:"regions"`
}

func (s *copyImageSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	src, dst, sl, dl, err := s.resolve(res)
	if err != nil {
		return nil, err
	}
	regions := make([]xfer.ImageCopyRegion, len(s.Regions))
	for i, r := range s.Regions {
		ss, err := r.Src.resolve()
		if err != nil {
			return nil, err
		}
		ds, err := r.Dst.resolve()
		if err != nil {
			return nil, err
		}
		regions[i] = xfer.ImageCopyRegion{
			SrcSubresource: ss, SrcOffset: origin(r.SrcOffset),
			DstSubresource: ds, DstOffset: origin(r.DstOffset),
			Extent: extent(r.Extent),
		}
	}
	var cmd xfer.CopyImage
	return &cmd, cmd.SetContent(dev, src, sl, dst, dl, regions)
}

type blitImageSpec struct {
	imagePair `yaml:",inline"`
	Filter    string `yaml:"filter"`
	Regions   []struct {
		Src    subSpec   `yaml:"src"`
		SrcBox [][]int32 `yaml:"srcBox"`
		Dst    subSpec   `yaml:"dst"`
		DstBox [][]int32 `yaml:"dstBox"`
	} `yaml:"regions"`
}

func box(corners [][]int32) (out [2]xfer.Offset3D, err error) {
	if len(corners) != 2 {
		return out, fmt.Errorf("box needs 2 corners, got %d", len(corners))
	}
	return [2]xfer.Offset3D{offset3(corners[0]), offset3(corners[1])}, nil
}

func (s *blitImageSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	src, dst, sl, dl, err := s.resolve(res)
	if err != nil {
		return nil, err
	}
	filter, err := lookup(filters, "filter", s.Filter)
	if err != nil {
		return nil, err
	}
	regions := make([]xfer.ImageBlitRegion, len(s.Regions))
	for i, r := range s.Regions {
		var reg xfer.ImageBlitRegion
		if reg.SrcSubresource, err = r.Src.resolve(); err != nil {
			return nil, err
		}
		if reg.DstSubresource, err = r.Dst.resolve(); err != nil {
			return nil, err
		}
		if reg.SrcOffsets, err = box(r.SrcBox); err != nil {
			return nil, fmt.Errorf("region %d: srcBox: %w", i, err)
		}
		if reg.DstOffsets, err = box(r.DstBox); err != nil {
			return nil, fmt.Errorf("region %d: dstBox: %w", i, err)
		}
		regions[i] = reg
	}
	var cmd xfer.BlitImage
	return &cmd, cmd.SetContent(dev, src, sl, dst, dl, regions, filter)
}

type resolveImageSpec struct {
	imagePair `yaml:",inline"`
	Regions   []struct {
		Src subSpec `yaml:"src"`
		Dst subSpec `yaml:"dst"`
	} `yaml:"regions"`
}

func (s *resolveImageSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	src, dst, sl, dl, err := s.resolve(res)
	if err != nil {
		return nil, err
	}
	regions := make([]xfer.ImageResolveRegion, len(s.Regions))
	for i, r := range s.Regions {
		if regions[i].SrcSubresource, err = r.Src.resolve(); err != nil {
			return nil, err
		}
		if regions[i].DstSubresource, err = r.Dst.resolve(); err != nil {
			return nil, err
		}
	}
	var cmd xfer.ResolveImage
	return &cmd, cmd.SetContent(dev, src, sl, dst, dl, regions)
}

type clearColorSpec struct {
	Image  string      `yaml:"image"`
	Layout string      `yaml:"layout"`
	Color  []float64   `yaml:"color"`
	Ranges []rangeSpec `yaml:"ranges"`
}

func (s *clearColorSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	img, err := res.image(s.Image)
	if err != nil {
		return nil, err
	}
	l, err := layout(s.Layout)
	if err != nil {
		return nil, err
	}
	ranges, err := resolveRanges(s.Ranges)
	if err != nil {
		return nil, err
	}
	var cmd xfer.ClearColorImage
	return &cmd, cmd.SetContent(dev, img, l, color(s.Color), ranges)
}

type clearDepthStencilSpec struct {
	Image   string      `yaml:"image"`
	Layout  string      `yaml:"layout"`
	Depth   float32     `yaml:"depth"`
	Stencil uint32      `yaml:"stencil"`
	Ranges  []rangeSpec `yaml:"ranges"`
}

func (s *clearDepthStencilSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	img, err := res.image(s.Image)
	if err != nil {
		return nil, err
	}
	l, err := layout(s.Layout)
	if err != nil {
		return nil, err
	}
	ranges, err := resolveRanges(s.Ranges)
	if err != nil {
		return nil, err
	}
	var cmd xfer.ClearDepthStencilImage
	return &cmd, cmd.SetContent(dev, img, l, s.Depth, s.Stencil, ranges)
}

// =============================================================================
// Buffer commands
// =============================================================================

type copyBufferSpec struct {
	Src     string `yaml:"src"`
	Dst     string `yaml:"dst"`
	Regions []struct {
		SrcOffset uint64 `yaml:"srcOffset"`
		DstOffset uint64 `yaml:"dstOffset"`
		Size      uint64 `yaml:"size"`
	} `yaml:"regions"`
}

func (s *copyBufferSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	src, err := res.buffer(s.Src)
	if err != nil {
		return nil, err
	}
	dst, err := res.buffer(s.Dst)
	if err != nil {
		return nil, err
	}
	regions := make([]xfer.BufferCopyRegion, len(s.Regions))
	for i, r := range s.Regions {
		regions[i] = xfer.BufferCopyRegion{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size}
	}
	var cmd xfer.CopyBuffer
	return &cmd, cmd.SetContent(dev, src, dst, regions)
}

type bufferImageSpec struct {
	Buffer  string `yaml:"buffer"`
	Image   string `yaml:"image"`
	Layout  string `yaml:"layout"`
	Regions []struct {
		BufferOffset uint64   `yaml:"bufferOffset"`
		RowLength    uint32   `yaml:"rowLength"`
		ImageHeight  uint32   `yaml:"imageHeight"`
		Subresource  subSpec  `yaml:"subresource"`
		Offset       []uint32 `yaml:"offset"`
		Extent       []uint32 `yaml:"extent"`
	} `yaml:"regions"`

	toImage bool
}

func (s *bufferImageSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	buf, err := res.buffer(s.Buffer)
	if err != nil {
		return nil, err
	}
	img, err := res.image(s.Image)
	if err != nil {
		return nil, err
	}
	l, err := layout(s.Layout)
	if err != nil {
		return nil, err
	}
	regions := make([]xfer.BufferImageCopyRegion, len(s.Regions))
	for i, r := range s.Regions {
		sub, err := r.Subresource.resolve()
		if err != nil {
			return nil, err
		}
		regions[i] = xfer.BufferImageCopyRegion{
			BufferOffset:      r.BufferOffset,
			BufferRowLength:   r.RowLength,
			BufferImageHeight: r.ImageHeight,
			ImageSubresource:  sub,
			ImageOffset:       origin(r.Offset),
			ImageExtent:       extent(r.Extent),
		}
	}
	var cmd xfer.BufferImageCopy
	return &cmd, cmd.SetContent(dev, buf, img, l, regions, s.toImage)
}

type fillBufferSpec struct {
	Buffer string `yaml:"buffer"`
	Offset uint64 `yaml:"offset"`
	// Size zero fills to the end of the buffer.
	Size  uint64 `yaml:"size"`
	Value uint32 `yaml:"value"`
}

func (s *fillBufferSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	buf, err := res.buffer(s.Buffer)
	if err != nil {
		return nil, err
	}
	size := s.Size
	if size == 0 {
		size = xfer.WholeSize
	}
	var cmd xfer.FillBuffer
	return &cmd, cmd.SetContent(dev, buf, s.Offset, size, s.Value)
}

type updateBufferSpec struct {
	Buffer string  `yaml:"buffer"`
	Offset uint64  `yaml:"offset"`
	Data   []uint8 `yaml:"data"`
	Hex    string  `yaml:"hex"`
}

func (s *updateBufferSpec) build(dev *xfer.Device, res *Resources) (xfer.Command, error) {
	buf, err := res.buffer(s.Buffer)
	if err != nil {
		return nil, err
	}
	data := s.Data
	if s.Hex != "" {
		if data, err = hex.DecodeString(s.Hex); err != nil {
			return nil, fmt.Errorf("hex: %w", err)
		}
	}
	var cmd xfer.UpdateBuffer
	return &cmd, cmd.SetContent(dev, buf, s.Offset, data)
}

// =============================================================================
// Render pass commands
// =============================================================================

type passSpec struct {
	Width        uint32   `yaml:"width"`
	Height       uint32   `yaml:"height"`
	Layers       uint32   `yaml:"layers"`
	Samples      uint32   `yaml:"samples"`
	Colors       []string `yaml:"colors"`
	DepthStencil string   `yaml:"depthStencil"`
}

func (s passSpec) resolve() (xfer.RenderPassInfo, error) {
	info := xfer.RenderPassInfo{Width: s.Width, Height: s.Height, Layers: s.Layers, SampleCount: s.Samples}
	for _, name := range s.Colors {
		f := gputypes.TextureFormatUndefined
		if name != "" && name != "-" {
			var err error
			if f, err = xfer.ParseFormat(name); err != nil {
				return info, err
			}
		}
		info.ColorFormats = append(info.ColorFormats, f)
	}
	if s.DepthStencil != "" {
		f, err := xfer.ParseFormat(s.DepthStencil)
		if err != nil {
			return info, err
		}
		info.DepthStencilFormat = f
	}
	return info, nil
}

type clearAttachmentsSpec struct {
	Pass        *passSpec `yaml:"pass"`
	Attachments []struct {
		Aspect  string    `yaml:"aspect"`
		Slot    uint32    `yaml:"slot"`
		Color   []float64 `yaml:"color"`
		Depth   float32   `yaml:"depth"`
		Stencil uint32    `yaml:"stencil"`
	} `yaml:"attachments"`
	Rects []struct {
		X      int32  `yaml:"x"`
		Y      int32  `yaml:"y"`
		Width  uint32 `yaml:"width"`
		Height uint32 `yaml:"height"`
		Layer  uint32 `yaml:"layer"`
		Layers uint32 `yaml:"layers"`
	} `yaml:"rects"`
}

func (s *clearAttachmentsSpec) build(dev *xfer.Device, _ *Resources) (xfer.Command, error) {
	atts := make([]xfer.ClearAttachment, len(s.Attachments))
	for i, a := range s.Attachments {
		asp, err := aspect(a.Aspect)
		if err != nil {
			return nil, err
		}
		v := xfer.DepthStencilClear(a.Depth, a.Stencil)
		if asp == xfer.AspectColor {
			v = xfer.ColorClear(color(a.Color))
		}
		atts[i] = xfer.ClearAttachment{Aspect: asp, ColorAttachment: a.Slot, Value: v}
	}
	rects := make([]xfer.ClearRect, len(s.Rects))
	for i, r := range s.Rects {
		rects[i] = xfer.ClearRect{
			Rect:           xfer.Rect2D{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
			BaseArrayLayer: r.Layer,
			LayerCount:     max(r.Layers, 1),
		}
	}
	cmd := &xfer.ClearAttachments{}
	if err := cmd.SetContent(dev, atts, rects); err != nil {
		return cmd, err
	}
	if s.Pass == nil {
		return cmd, nil
	}
	info, err := s.Pass.resolve()
	if err != nil {
		return nil, fmt.Errorf("pass: %w", err)
	}
	return &InPass{Pass: info, Command: cmd}, nil
}

// InPass encodes Command inside its own render pass.
type InPass struct {
	Pass    xfer.RenderPassInfo
	Command xfer.Command
}

func (p *InPass) Use() xfer.CommandUse { return p.Command.Use() }

func (p *InPass) Encode(enc *xfer.Encoder) {
	enc.BeginRenderPass(p.Pass)
	p.Command.Encode(enc)
	enc.EndRenderPass()
}
