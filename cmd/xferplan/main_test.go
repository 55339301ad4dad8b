package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

const testPlan = `images:
  - {name: src, format: RGBA8Unorm, width: 16, height: 16}
  - {name: dst, format: RGBA8Unorm, width: 16, height: 16}
buffers:
  - {name: staging, size: 1024}
commands:
  - kind: copyImage
    src: src
    dst: dst
    regions:
      - extent: [16, 16]
  - kind: fillBuffer
    buffer: staging
    size: 256
    value: 7
`

const testProfile = `version: 1
name: small
maxColorAttachments: 2
formats:
  RGBA16Float: [copy]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	var stdout, stderr bytes.Buffer
	parser, err := newParser(&cli, kong.Writers(&stdout, &stderr), kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("newParser() = %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return stdout.String(), err
	}
	err = ctx.Run()
	return stdout.String(), err
}

func TestRunCmd(t *testing.T) {
	plan := writeFile(t, "plan.yaml", testPlan)

	out, err := execute(t, "run", plan, "--digest")
	if err != nil {
		t.Fatalf("run = %v", err)
	}
	for _, want := range []string{"2 commands", "digest "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	again, err := execute(t, "run", plan, "--digest")
	if err != nil {
		t.Fatalf("second run = %v", err)
	}
	if again != out {
		t.Errorf("recordings differ between runs:\n%s\n%s", out, again)
	}
}

func TestRunCmdRejectsInvalidPlan(t *testing.T) {
	bad := strings.Replace(testPlan, "extent: [16, 16]", "extent: [32, 16]", 1)
	plan := writeFile(t, "plan.yaml", bad)
	if _, err := execute(t, "run", plan); err == nil {
		t.Error("run with out-of-bounds copy = nil error")
	} else if !strings.Contains(err.Error(), "command 0") {
		t.Errorf("error %q does not name the failing command", err)
	}
}

func TestFormatsCmd(t *testing.T) {
	tests := []struct {
		src, dst string
		want     string
	}{
		{"RGBA8Unorm", "RGBA8Unorm", "copy: direct"},
		{"BC1RGBAUnorm", "RG32Uint", "copy: staged"},
		{"RGBA8Unorm", "Depth32Float", "copy: incompatible"},
	}
	for _, tt := range tests {
		t.Run(tt.src+"_"+tt.dst, func(t *testing.T) {
			out, err := execute(t, "formats", tt.src, tt.dst)
			if err != nil {
				t.Fatalf("formats = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}

	if _, err := execute(t, "formats", "NotAFormat", "RGBA8Unorm"); err == nil {
		t.Error("formats with unknown name = nil error")
	}
}

func TestProfileCmd(t *testing.T) {
	path := writeFile(t, "profile.yaml", testProfile)

	out, err := execute(t, "profile", path)
	if err != nil {
		t.Fatalf("profile = %v", err)
	}
	for _, want := range []string{"name: small", "maxColorAttachments: 2", "RGBA16Float:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	viaFlag, err := execute(t, "--profile", path, "profile")
	if err != nil {
		t.Fatalf("profile via flag = %v", err)
	}
	if viaFlag != out {
		t.Errorf("--profile output differs:\n%s\n%s", viaFlag, out)
	}
}
