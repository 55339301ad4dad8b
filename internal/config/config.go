// Package config loads YAML device profiles.
//
// A profile describes what a backend can do: limits, the optional copy
// capabilities and per-format feature overrides. It maps onto
// xfer.NewDevice options:
//
//	version: 1
//	name: tiled-gpu
//	maxColorAttachments: 4
//	maxInlineUpdateSize: 4096
//	stridedBufferImageCopy: true
//	formats:
//	  RGBA16Float: [copy, sample, render]
//	  BC7RGBAUnorm: [copy, sample]
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/xfer"
)

// CurrentVersion is the profile schema version written by Encode.
const CurrentVersion = 1

// ErrVersion is returned for profiles newer than CurrentVersion.
var ErrVersion = errors.New("config: unsupported profile version")

// Profile is the YAML form of a device description.
type Profile struct {
	Version                int                 `yaml:"version"`
	Name                   string              `yaml:"name,omitempty"`
	MaxColorAttachments    uint32              `yaml:"maxColorAttachments,omitempty"`
	MaxInlineUpdateSize    uint64              `yaml:"maxInlineUpdateSize,omitempty"`
	StridedBufferImageCopy bool                `yaml:"stridedBufferImageCopy,omitempty"`
	RenderLinearImages     bool                `yaml:"renderLinearImages,omitempty"`
	Formats                map[string][]string `yaml:"formats,omitempty"`
}

func (p *Profile) normalize() {
	if p.Version == 0 {
		p.Version = CurrentVersion
	}
}

// Parse decodes a profile.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parse profile: %w", err)
	}
	p.normalize()
	if p.Version > CurrentVersion {
		return Profile{}, fmt.Errorf("%w: %d", ErrVersion, p.Version)
	}
	return p, nil
}

// Load reads and decodes the profile at path.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config: read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Options converts the profile to device options. Unknown format or
// feature names are errors.
func (p Profile) Options() ([]xfer.Option, error) {
	var opts []xfer.Option
	if p.MaxColorAttachments != 0 {
		l := gputypes.DefaultLimits()
		l.MaxColorAttachments = p.MaxColorAttachments
		opts = append(opts, xfer.WithLimits(l))
	}
	if p.MaxInlineUpdateSize != 0 {
		opts = append(opts, xfer.WithMaxInlineUpdateSize(p.MaxInlineUpdateSize))
	}
	opts = append(opts,
		xfer.WithStridedBufferImageCopy(p.StridedBufferImageCopy),
		xfer.WithRenderLinearImages(p.RenderLinearImages),
	)
	for _, name := range sortedKeys(p.Formats) {
		f, err := xfer.ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("config: formats: %w", err)
		}
		feats, err := xfer.ParseFormatFeatures(p.Formats[name])
		if err != nil {
			return nil, fmt.Errorf("config: formats.%s: %w", name, err)
		}
		opts = append(opts, xfer.WithFormatFeatures(f, feats))
	}
	return opts, nil
}

// Device builds the device the profile describes.
func (p Profile) Device() (*xfer.Device, error) {
	opts, err := p.Options()
	if err != nil {
		return nil, err
	}
	return xfer.NewDevice(opts...), nil
}

// Effective returns the profile with defaults and clamping applied, as the
// device built from it sees them. Format names are canonicalized.
func (p Profile) Effective() (Profile, error) {
	dev, err := p.Device()
	if err != nil {
		return Profile{}, err
	}
	out := Profile{
		Version:                CurrentVersion,
		Name:                   p.Name,
		MaxColorAttachments:    dev.MaxColorAttachments(),
		MaxInlineUpdateSize:    dev.MaxInlineUpdateSize(),
		StridedBufferImageCopy: dev.StridedBufferImageCopy(),
		RenderLinearImages:     dev.RenderLinearImages(),
	}
	for name := range p.Formats {
		f, _ := xfer.ParseFormat(name)
		if out.Formats == nil {
			out.Formats = make(map[string][]string, len(p.Formats))
		}
		names := dev.FormatFeatures(f).Names()
		if names == nil {
			names = []string{}
		}
		out.Formats[f.String()] = names
	}
	return out, nil
}

// Encode writes p as YAML.
func (p Profile) Encode(w io.Writer) error {
	p.normalize()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&p); err != nil {
		return fmt.Errorf("config: encode profile: %w", err)
	}
	return enc.Close()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
