// Command xferplan validates and records YAML transfer plans.
//
// A plan names images and buffers and lists transfer commands over them.
// xferplan builds every command against a device profile, encodes them
// into a recording backend and prints the backend calls they produced:
//
//	xferplan run plan.yaml --profile tiled.yaml --digest
//	xferplan formats BC1RGBAUnorm RG32Uint
//	xferplan profile tiled.yaml
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/backend/trace"
	"github.com/gogpu/xfer/internal/config"
	"github.com/gogpu/xfer/internal/plan"
)

// CLI defines the command-line interface for xferplan.
type CLI struct {
	Profile string `name:"profile" short:"p" help:"Device profile (YAML)" type:"existingfile"`
	Debug   bool   `help:"Log command classification to stderr"`

	Run     RunCmd     `cmd:"" help:"Build a plan and print the backend calls it records"`
	Formats FormatsCmd `cmd:"" help:"Show how texels move between two formats"`
	Show    ShowCmd    `cmd:"" name:"profile" help:"Print the effective device profile"`
}

// AfterApply installs the debug logger before any command runs.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	if c.Debug {
		xfer.SetLogger(slog.New(slog.NewTextHandler(ctx.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	return nil
}

func (c *CLI) profile() (config.Profile, error) {
	if c.Profile == "" {
		return config.Profile{Version: config.CurrentVersion, Name: "default"}, nil
	}
	return config.Load(c.Profile)
}

func (c *CLI) device() (*xfer.Device, error) {
	p, err := c.profile()
	if err != nil {
		return nil, err
	}
	return p.Device()
}

// RunCmd builds a plan and records it.
type RunCmd struct {
	Plan   string `arg:"" help:"Plan file (YAML)" type:"existingfile"`
	Digest bool   `help:"Print the blake3 digest of the recording"`
}

func (c *RunCmd) Run(ctx *kong.Context, cli *CLI) error {
	dev, err := cli.device()
	if err != nil {
		return err
	}
	p, err := plan.Load(c.Plan)
	if err != nil {
		return err
	}
	cmds, res, err := p.Build(dev)
	if err != nil {
		return err
	}

	rec := trace.NewRecorder()
	xfer.Logger().Debug("xferplan: recording", "session", rec.Session(), "plan", c.Plan)
	rec.Encoder().Encode(cmds...)

	if _, err := io.WriteString(ctx.Stdout, rec.String()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "%d commands, %d ops, %d pipelines, %d staging buffers over %d images and %d buffers\n",
		len(cmds), rec.Len(), rec.PipelineCount(), len(rec.Staging()), len(res.Images), len(res.Buffers))
	if c.Digest {
		fmt.Fprintf(ctx.Stdout, "digest %s\n", rec.Digest())
	}
	return nil
}

// FormatsCmd reports how texels copy between two formats.
type FormatsCmd struct {
	Src string `arg:"" help:"Source format"`
	Dst string `arg:"" help:"Destination format"`
}

func (c *FormatsCmd) Run(ctx *kong.Context, cli *CLI) error {
	src, err := xfer.ParseFormat(c.Src)
	if err != nil {
		return err
	}
	dst, err := xfer.ParseFormat(c.Dst)
	if err != nil {
		return err
	}
	dev, err := cli.device()
	if err != nil {
		return err
	}

	w := ctx.Stdout
	for _, f := range []gputypes.TextureFormat{src, dst} {
		block, _ := xfer.TexelBlockOf(f)
		fmt.Fprintf(w, "%-24s block=%dB %dx%d features=%s\n",
			f, block.Size, block.Width, block.Height, dev.FormatFeatures(f))
	}
	fmt.Fprintf(w, "copy: %s\n", xfer.ClassifyCopy(src, dst))
	fmt.Fprintf(w, "same family: %t\n", xfer.SameFamily(src, dst))
	return nil
}

// ShowCmd prints the profile as the device sees it.
type ShowCmd struct {
	File string `arg:"" optional:"" help:"Profile to show instead of --profile" type:"existingfile"`
}

func (c *ShowCmd) Run(ctx *kong.Context, cli *CLI) error {
	var (
		p   config.Profile
		err error
	)
	if c.File != "" {
		p, err = config.Load(c.File)
	} else {
		p, err = cli.profile()
	}
	if err != nil {
		return err
	}
	eff, err := p.Effective()
	if err != nil {
		return err
	}
	return eff.Encode(ctx.Stdout)
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("xferplan"),
		kong.Description("Validate and record GPU transfer plans"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(cli),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
