package xfer

import (
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"
)

// TestFailedSetContentKeepsPreviousContent sets valid content, fails a
// second SetContent whose last region or value is invalid, and checks that
// encoding still emits exactly what the valid content did.
func TestFailedSetContentKeepsPreviousContent(t *testing.T) {
	dev := NewDevice()
	rgba := gputypes.TextureFormatRGBA8Unorm
	src := newTestImage(rgba, 16, 16)
	dst := newTestImage(rgba, 8, 8)
	small := newTestImage(rgba, 4, 4)
	depth := newTestImage(gputypes.TextureFormatDepth32Float, 8, 8)
	msaa := newTestImage(rgba, 8, 8).withSamples(4)
	bufA, bufB := newTestBuffer(1024, 0), newTestBuffer(1024, 0)

	blit := &BlitImage{}
	bic := &BufferImageCopy{}
	attach := &ClearAttachments{}
	clearColor := &ClearColorImage{}
	clearDS := &ClearDepthStencilImage{}
	copyBuf := &CopyBuffer{}
	fill := &FillBuffer{}
	update := &UpdateBuffer{}
	resolve := &ResolveImage{}

	tests := []struct {
		name string
		cmd  Command
		set  func(bad bool) error
	}{
		{"BlitImage", blit, func(bad bool) error {
			regions := []ImageBlitRegion{{
				SrcSubresource: colorLayers(0, 1), SrcOffsets: box(0, 0, 16, 16),
				DstSubresource: colorLayers(0, 1), DstOffsets: box(0, 0, 8, 8),
			}}
			if bad {
				r := regions[0]
				r.SrcOffsets = box(0, 0, 32, 32)
				regions = append(regions, r)
			}
			return blit.SetContent(dev, src, LayoutGeneral, dst, LayoutGeneral, regions, gputypes.FilterModeLinear)
		}},
		{"BufferImageCopy", bic, func(bad bool) error {
			regions := []BufferImageCopyRegion{{ImageSubresource: colorLayers(0, 1), ImageExtent: extent(4, 4, 1)}}
			if bad {
				r := regions[0]
				r.ImageExtent = extent(8, 8, 1)
				regions = append(regions, r)
			}
			return bic.SetContent(dev, bufA, small, LayoutGeneral, regions, true)
		}},
		{"ClearAttachments", attach, func(bad bool) error {
			rects := []ClearRect{{Rect: Rect2D{Width: 4, Height: 4}, LayerCount: 1}}
			if bad {
				rects = append(rects, ClearRect{Rect: Rect2D{Width: 4}, LayerCount: 1})
			}
			return attach.SetContent(dev, []ClearAttachment{{Aspect: AspectColor, Value: color(1, 0, 0, 1)}}, rects)
		}},
		{"ClearColorImage", clearColor, func(bad bool) error {
			ranges := []SubresourceRange{colorRange(0, 1, 0, 1)}
			if bad {
				ranges = append(ranges, colorRange(0, 1, 1, 1))
			}
			return clearColor.SetContent(dev, dst, LayoutGeneral, gputypes.Color{G: 1}, ranges)
		}},
		{"ClearDepthStencilImage", clearDS, func(bad bool) error {
			value := float32(0.5)
			if bad {
				value = float32(math.NaN())
			}
			return clearDS.SetContent(dev, depth, LayoutGeneral, value, 0,
				[]SubresourceRange{{Aspect: AspectDepth, LevelCount: 1, LayerCount: 1}})
		}},
		{"CopyBuffer", copyBuf, func(bad bool) error {
			regions := []BufferCopyRegion{{SrcOffset: 0, DstOffset: 64, Size: 64}}
			if bad {
				regions = append(regions, BufferCopyRegion{SrcOffset: 1000, Size: 64})
			}
			return copyBuf.SetContent(dev, bufA, bufB, regions)
		}},
		{"FillBuffer", fill, func(bad bool) error {
			size := uint64(256)
			if bad {
				size = 2048
			}
			return fill.SetContent(dev, bufA, 0, size, 7)
		}},
		{"UpdateBuffer", update, func(bad bool) error {
			offset := uint64(16)
			if bad {
				offset = 1024
			}
			return update.SetContent(dev, bufA, offset, []byte{1, 2, 3, 4, 5, 6, 7, 8})
		}},
		{"ResolveImage", resolve, func(bad bool) error {
			regions := []ImageResolveRegion{{SrcSubresource: colorLayers(0, 1), DstSubresource: colorLayers(0, 1)}}
			if bad {
				regions = append(regions, ImageResolveRegion{SrcSubresource: colorLayers(0, 1), DstSubresource: colorLayers(1, 1)})
			}
			return resolve.SetContent(dev, msaa, LayoutGeneral, dst, LayoutGeneral, regions)
		}},
	}

	record := func(cmd Command) *recordingBackend {
		enc, rb := newTestEncoder()
		if cmd.Use() == UseClearAttachments {
			enc.BeginRenderPass(RenderPassInfo{Width: 8, Height: 8, ColorFormats: []gputypes.TextureFormat{rgba}})
		}
		enc.Encode(cmd)
		return rb
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set(false); err != nil {
				t.Fatalf("valid SetContent() = %v", err)
			}
			before := record(tt.cmd)
			if len(before.ops) == 0 {
				t.Fatal("valid content encoded nothing")
			}
			if err := tt.set(true); err == nil {
				t.Fatal("invalid SetContent() = nil, want error")
			}
			after := record(tt.cmd)
			if !reflect.DeepEqual(before.ops, after.ops) {
				t.Errorf("ops after failure = %v, want %v", after.kinds(), before.kinds())
			}
			if !reflect.DeepEqual(before.pipelines, after.pipelines) {
				t.Errorf("pipelines after failure = %v, want %v", after.pipelines, before.pipelines)
			}
		})
	}
}
