package plan

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/backend/trace"
)

func TestLoadAndBuild(t *testing.T) {
	p, err := Load("testdata/mixed.yaml")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	cmds, res, err := p.Build(xfer.NewDevice())
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	wantUses := []xfer.CommandUse{
		xfer.UseCopyBufferToImage, xfer.UseCopyImage, xfer.UseBlitImage, xfer.UseResolveImage,
		xfer.UseClearColorImage, xfer.UseClearDepthStencilImage, xfer.UseClearAttachments,
		xfer.UseCopyImageToBuffer, xfer.UseCopyBuffer, xfer.UseFillBuffer, xfer.UseUpdateBuffer,
	}
	if len(cmds) != len(wantUses) {
		t.Fatalf("Build() = %d commands, want %d", len(cmds), len(wantUses))
	}
	for i, c := range cmds {
		if c.Use() != wantUses[i] {
			t.Errorf("command %d Use() = %v, want %v", i, c.Use(), wantUses[i])
		}
	}
	if _, ok := cmds[6].(*InPass); !ok {
		t.Errorf("clearAttachments = %T, want *InPass", cmds[6])
	}
	if got := res.Images["albedo"].MipLevelCount(); got != 2 {
		t.Errorf("albedo mips = %d, want 2", got)
	}
	if got := res.Buffers["readback"].Offset(); got != 256 {
		t.Errorf("readback offset = %d, want 256", got)
	}

	rec := trace.NewRecorder()
	rec.Encoder().Encode(cmds...)
	if rec.Len() < len(cmds) {
		t.Errorf("recorded %d ops for %d commands", rec.Len(), len(cmds))
	}
	if !strings.Contains(rec.String(), "target=pass") {
		t.Errorf("clear attachments did not draw into the pass:\n%s", rec)
	}
}

func TestClearColorRangeDefaults(t *testing.T) {
	p, err := Parse([]byte(`
images: [{name: a, format: RGBA8Unorm, width: 8, height: 8, mips: 3, layers: 2}]
commands:
  - {kind: clearColorImage, image: a, ranges: [{mip: 1}]}
`))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	cmds, _, err := p.Build(xfer.NewDevice())
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	rec := trace.NewRecorder()
	rec.Encoder().Encode(cmds...)
	if rec.Len() != 2 {
		t.Fatalf("ops = %d, want one per remaining mip", rec.Len())
	}
	op := rec.Ops()[1].Value.(xfer.ImageClearOp)
	if op.Image.MipLevel != 2 || op.Image.LayerCount != 2 {
		t.Errorf("last clear = mip %d layers %d, want mip 2 layers 2", op.Image.MipLevel, op.Image.LayerCount)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
		text string
	}{
		{
			"unknown image",
			"commands: [{kind: clearColorImage, image: nope, ranges: [{}]}]",
			ErrUnknownResource, "command 0 (clearColorImage)",
		},
		{
			"validation failure",
			"buffers: [{name: b, size: 16}]\ncommands: [{kind: fillBuffer, buffer: b, offset: 2}]",
			xfer.ErrInvalidParameter, "fill-buffer",
		},
		{
			"capacity",
			"buffers: [{name: b, size: 16}]\ncommands: [{kind: updateBuffer, buffer: b, data: [1, 2, 3, 4, 5, 6, 7, 8]}]",
			xfer.ErrCapacity, "command 0",
		},
		{
			"bad layout",
			"images: [{name: a, format: R8Unorm, width: 4, height: 4}]\ncommands: [{kind: clearColorImage, image: a, layout: Sideways, ranges: [{}]}]",
			ErrUnknownName, "Sideways",
		},
		{
			"duplicate",
			"buffers: [{name: b, size: 4}, {name: b, size: 8}]",
			ErrDuplicate, `"b"`,
		},
		{
			"bad format",
			"images: [{name: a, format: RGBA9Unorm, width: 4, height: 4}]",
			nil, "RGBA9Unorm",
		},
	}
	dev := xfer.NewDevice(xfer.WithMaxInlineUpdateSize(4))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() = %v", err)
			}
			_, _, err = p.Build(dev)
			if err == nil {
				t.Fatal("Build() = nil error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Build() = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), tt.text) {
				t.Errorf("Build() = %q, want it to mention %q", err, tt.text)
			}
		})
	}
}

func TestParseUnknownKind(t *testing.T) {
	_, err := Parse([]byte("commands: [{kind: teleport}]"))
	if !errors.Is(err, ErrUnknownName) {
		t.Errorf("Parse() = %v, want %v", err, ErrUnknownName)
	}
}

func TestBlitBoxNeedsTwoCorners(t *testing.T) {
	p, err := Parse([]byte(`
images:
  - {name: a, format: RGBA8Unorm, width: 4, height: 4}
  - {name: b, format: RGBA8Unorm, width: 4, height: 4}
commands:
  - {kind: blitImage, src: a, dst: b, regions: [{srcBox: [[0, 0, 0]], dstBox: [[0, 0, 0], [4, 4, 1]]}]}
`))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if _, _, err := p.Build(xfer.NewDevice()); err == nil || !strings.Contains(err.Error(), "srcBox") {
		t.Errorf("Build() = %v, want srcBox error", err)
	}
}

func TestImageSpecDefaults(t *testing.T) {
	img, err := ImageSpec{Name: "v", Format: "R8Unorm", Width: 8, Height: 8, Depth: 4, Dimension: "3d", Usage: []string{"copyDst"}}.build()
	if err != nil {
		t.Fatalf("build() = %v", err)
	}
	if img.Dimension() != gputypes.TextureDimension3D || img.Extent(0).DepthOrArrayLayers != 4 {
		t.Errorf("image = %+v", img.Desc())
	}
	if img.Usage() != gputypes.TextureUsageCopyDst {
		t.Errorf("Usage() = %v, want CopyDst", img.Usage())
	}
}
