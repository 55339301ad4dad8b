// Package plan reads YAML transfer plans: declared images and buffers plus
// an ordered list of commands to record against them.
//
//	images:
//	  - {name: src, format: RGBA8Unorm, width: 64, height: 64}
//	  - {name: dst, format: BGRA8Unorm, width: 128, height: 128}
//	buffers:
//	  - {name: readback, size: 65536}
//	commands:
//	  - kind: blitImage
//	    src: src
//	    dst: dst
//	    filter: linear
//	    regions:
//	      - srcBox: [[0, 0, 0], [64, 64, 1]]
//	        dstBox: [[0, 0, 0], [128, 128, 1]]
//
// Build validates every command with its SetContent method against a
// device and stops at the first failure.
package plan

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/backend/trace"
)

var (
	// ErrUnknownName reports an unrecognized enum name in a plan.
	ErrUnknownName = errors.New("plan: unknown")

	// ErrUnknownResource reports a command naming an undeclared image or
	// buffer.
	ErrUnknownResource = errors.New("plan: unknown resource")

	// ErrDuplicate reports two resources declared with the same name.
	ErrDuplicate = errors.New("plan: duplicate resource")
)

// Plan is a decoded plan document.
type Plan struct {
	Images   []ImageSpec   `yaml:"images"`
	Buffers  []BufferSpec  `yaml:"buffers"`
	Commands []CommandSpec `yaml:"commands"`
}

// ImageSpec declares an image. Zero counts default to 1, an empty
// dimension to 2d and an empty usage list to every transfer and render
// usage.
type ImageSpec struct {
	Name      string   `yaml:"name"`
	Format    string   `yaml:"format"`
	Width     uint32   `yaml:"width"`
	Height    uint32   `yaml:"height"`
	Depth     uint32   `yaml:"depth,omitempty"`
	Mips      uint32   `yaml:"mips,omitempty"`
	Layers    uint32   `yaml:"layers,omitempty"`
	Samples   uint32   `yaml:"samples,omitempty"`
	Dimension string   `yaml:"dimension,omitempty"`
	Usage     []string `yaml:"usage,omitempty"`
	Linear    bool     `yaml:"linear,omitempty"`
}

// BufferSpec declares a buffer of Size bytes at base Offset.
type BufferSpec struct {
	Name   string `yaml:"name"`
	Size   uint64 `yaml:"size"`
	Offset uint64 `yaml:"offset,omitempty"`
}

// CommandSpec is one entry of the command list. Kind selects the schema of
// the remaining fields.
type CommandSpec struct {
	Kind string
	spec commandBuilder
}

// UnmarshalYAML decodes the kind, then the kind-specific fields.
func (c *CommandSpec) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Kind string `yaml:"kind"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	newSpec, ok := kinds[head.Kind]
	if !ok {
		return fmt.Errorf("line %d: %w command kind %q", node.Line, ErrUnknownName, head.Kind)
	}
	spec := newSpec()
	if err := node.Decode(spec); err != nil {
		return fmt.Errorf("line %d: %s: %w", node.Line, head.Kind, err)
	}
	c.Kind, c.spec = head.Kind, spec
	return nil
}

// Parse decodes a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan: parse: %w", err)
	}
	return &p, nil
}

// Load reads and decodes the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plan: read: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Resources holds the images and buffers a plan declares.
type Resources struct {
	Images  map[string]*trace.Image
	Buffers map[string]*trace.Buffer
}

func (r *Resources) image(name string) (*trace.Image, error) {
	img, ok := r.Images[name]
	if !ok {
		return nil, fmt.Errorf("%w: image %q", ErrUnknownResource, name)
	}
	return img, nil
}

func (r *Resources) buffer(name string) (*trace.Buffer, error) {
	buf, ok := r.Buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %q", ErrUnknownResource, name)
	}
	return buf, nil
}

// Resources creates the declared images and buffers.
func (p *Plan) Resources() (*Resources, error) {
	res := &Resources{
		Images:  make(map[string]*trace.Image, len(p.Images)),
		Buffers: make(map[string]*trace.Buffer, len(p.Buffers)),
	}
	for _, s := range p.Images {
		if _, dup := res.Images[s.Name]; dup {
			return nil, fmt.Errorf("%w: image %q", ErrDuplicate, s.Name)
		}
		img, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("plan: image %q: %w", s.Name, err)
		}
		res.Images[s.Name] = img
	}
	for _, s := range p.Buffers {
		if _, dup := res.Buffers[s.Name]; dup {
			return nil, fmt.Errorf("%w: buffer %q", ErrDuplicate, s.Name)
		}
		res.Buffers[s.Name] = trace.NewBuffer(s.Name, s.Size, s.Offset)
	}
	return res, nil
}

func (s ImageSpec) build() (*trace.Image, error) {
	format, err := xfer.ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}
	dim, err := lookup(dimensions, "dimension", s.Dimension)
	if err != nil {
		return nil, err
	}
	u, err := usage(s.Usage)
	if err != nil {
		return nil, err
	}
	return trace.NewImage(trace.ImageDesc{
		Name:        s.Name,
		Format:      format,
		Dimension:   dim,
		Size:        gputypes.Extent3D{Width: s.Width, Height: s.Height, DepthOrArrayLayers: s.Depth},
		MipLevels:   s.Mips,
		ArrayLayers: s.Layers,
		Samples:     s.Samples,
		Usage:       u,
		Linear:      s.Linear,
	}), nil
}

// Build creates the plan's resources and validates every command against
// dev. The error names the first failing command by index and kind and
// wraps the underlying xfer validation error.
func (p *Plan) Build(dev *xfer.Device) ([]xfer.Command, *Resources, error) {
	res, err := p.Resources()
	if err != nil {
		return nil, nil, err
	}
	cmds := make([]xfer.Command, 0, len(p.Commands))
	for i, c := range p.Commands {
		if c.spec == nil {
			return nil, nil, fmt.Errorf("plan: command %d: %w command kind %q", i, ErrUnknownName, c.Kind)
		}
		cmd, err := c.spec.build(dev, res)
		if err != nil {
			return nil, nil, fmt.Errorf("plan: command %d (%s): %w", i, c.Kind, err)
		}
		cmds = append(cmds, cmd)
	}
	xfer.Logger().Debug("plan: built", "images", len(res.Images), "buffers", len(res.Buffers), "commands", len(cmds))
	return cmds, res, nil
}
