package plan

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xfer"
)

var layouts = func() map[string]xfer.ImageLayout {
	m := make(map[string]xfer.ImageLayout)
	for l := xfer.LayoutUndefined; l <= xfer.LayoutPresent; l++ {
		m[strings.ToLower(l.String())] = l
	}
	return m
}()

var aspects = map[string]xfer.Aspect{
	"color":        xfer.AspectColor,
	"depth":        xfer.AspectDepth,
	"stencil":      xfer.AspectStencil,
	"depthstencil": xfer.AspectDepthStencil,
}

var usages = map[string]gputypes.TextureUsage{
	"copysrc": gputypes.TextureUsageCopySrc,
	"copydst": gputypes.TextureUsageCopyDst,
	"texture": gputypes.TextureUsageTextureBinding,
	"storage": gputypes.TextureUsageStorageBinding,
	"render":  gputypes.TextureUsageRenderAttachment,
}

var dimensions = map[string]gputypes.TextureDimension{
	"":   gputypes.TextureDimension2D,
	"1d": gputypes.TextureDimension1D,
	"2d": gputypes.TextureDimension2D,
	"3d": gputypes.TextureDimension3D,
}

var filters = map[string]gputypes.FilterMode{
	"":        gputypes.FilterModeNearest,
	"nearest": gputypes.FilterModeNearest,
	"linear":  gputypes.FilterModeLinear,
}

func lookup[V any](m map[string]V, what, name string) (V, error) {
	v, ok := m[strings.ToLower(name)]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w %s %q", ErrUnknownName, what, name)
	}
	return v, nil
}

// layout parses an image layout; empty means General.
func layout(name string) (xfer.ImageLayout, error) {
	if name == "" {
		return xfer.LayoutGeneral, nil
	}
	return lookup(layouts, "layout", name)
}

// aspect parses an aspect; empty means Color.
func aspect(name string) (xfer.Aspect, error) {
	if name == "" {
		return xfer.AspectColor, nil
	}
	return lookup(aspects, "aspect", name)
}

func usage(names []string) (gputypes.TextureUsage, error) {
	if len(names) == 0 {
		return gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment, nil
	}
	var u gputypes.TextureUsage
	for _, n := range names {
		v, err := lookup(usages, "usage", n)
		if err != nil {
			return 0, err
		}
		u |= v
	}
	return u, nil
}
