// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"strings"
	"text/template"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
)

//go:embed shaders/blit.wgsl.tmpl
var blitShaderTemplate string

//go:embed shaders/clear.wgsl.tmpl
var clearShaderTemplate string

var (
	blitTemplate  = template.Must(template.New("blit").Parse(blitShaderTemplate))
	clearTemplate = template.Must(template.New("clear").Parse(clearShaderTemplate))
)

// Shader entry points.
const (
	vertexEntry   = "vs_main"
	fragmentEntry = "fs_main"
)

// blitShader parameterizes the blit template.
type blitShader struct {
	TextureType string
	SrcScalar   string
	DstScalar   string
	Sampled     bool
	Volume      bool
	Depth       bool
	OutDepth    bool
}

func newBlitShader(key xfer.BlitPipelineKey) blitShader {
	s := blitShader{
		SrcScalar: "f32",
		DstScalar: scalarOf(xfer.SampleTypeOf(key.DstFormat)),
		Volume:    key.SrcDimension == gputypes.TextureDimension3D,
		OutDepth:  key.DstAspect&xfer.AspectDepth != 0,
	}
	st := xfer.SampleTypeOf(key.SrcFormat)
	switch {
	case key.SrcAspect&xfer.AspectDepth != 0:
		s.Depth = true
		s.TextureType = "texture_depth_2d_array"
	case st == gputypes.TextureSampleTypeUint || st == gputypes.TextureSampleTypeSint:
		s.SrcScalar = scalarOf(st)
		s.TextureType = "texture_2d_array<" + s.SrcScalar + ">"
	default:
		s.Sampled = true
		s.TextureType = "texture_2d_array<f32>"
	}
	if s.Volume {
		s.TextureType = "texture_3d<" + s.SrcScalar + ">"
	}
	return s
}

// viewDimension returns the dimension of the source view bound at 1.
func (s blitShader) viewDimension() gputypes.TextureViewDimension {
	if s.Volume {
		return gputypes.TextureViewDimension3D
	}
	return gputypes.TextureViewDimension2DArray
}

// clearShader parameterizes the clear template.
type clearShader struct {
	Slots   int
	Outputs []clearOutput
}

type clearOutput struct {
	Slot   int
	Scalar string
}

func newClearShader(key xfer.ClearPipelineKey) clearShader {
	s := clearShader{Slots: xfer.MaxColorAttachments}
	for slot, f := range key.ColorFormats {
		if key.ColorMask&(1<<slot) == 0 || f == gputypes.TextureFormatUndefined {
			continue
		}
		s.Outputs = append(s.Outputs, clearOutput{Slot: slot, Scalar: scalarOf(xfer.SampleTypeOf(f))})
	}
	return s
}

func scalarOf(st gputypes.TextureSampleType) string {
	switch st {
	case gputypes.TextureSampleTypeUint:
		return "u32"
	case gputypes.TextureSampleTypeSint:
		return "i32"
	}
	return "f32"
}

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s shader: %w", t.Name(), err)
	}
	return sb.String(), nil
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	return spirvWords(spirvBytes), nil
}

// spirvWords converts little-endian SPIR-V bytes to words. Trailing bytes
// that do not form a word are dropped.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

func createShaderModule(device hal.Device, label string, spirv []uint32) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
}
