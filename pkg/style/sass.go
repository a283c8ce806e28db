// Package style compiles Sass stylesheets with the dart-sass executable.
package style

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/aretw0/kiln/pkg/core"
)

const opStyles = "styles"

// Output styles accepted by dart-sass.
const (
	StyleExpanded   = "expanded"
	StyleCompressed = "compressed"
)

// Sass runs the dart-sass command line compiler. Imports resolve relative
// to the importing file and to the project source directory.
type Sass struct {
	Binary    string
	Style     string
	LoadPaths []string
	Logger    *slog.Logger
}

// NewSass returns a compiler for layout using binary (default "sass").
func NewSass(layout core.Layout, binary, outputStyle string, logger *slog.Logger) *Sass {
	if binary == "" {
		binary = "sass"
	}
	if outputStyle == "" {
		outputStyle = StyleExpanded
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sass{
		Binary:    binary,
		Style:     outputStyle,
		LoadPaths: []string{layout.SrcPath()},
		Logger:    logger,
	}
}

// IsInstalled reports whether the compiler binary can be found.
func (s *Sass) IsInstalled() bool {
	_, err := exec.LookPath(s.Binary)
	return err == nil
}

// Compile compiles the stylesheet at path and returns the CSS.
// Compiler diagnostics come back as a KindCompile error.
func (s *Sass) Compile(ctx context.Context, path string) ([]byte, error) {
	args := []string{"--no-source-map", "--style=" + s.Style}
	for _, p := range s.LoadPaths {
		args = append(args, "--load-path="+p)
	}
	args = append(args, path)

	s.Logger.Debug("executing sass", "binary", s.Binary, "args", args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return nil, core.Wrap(core.KindCompile, opStyles, path, errors.New(msg))
		}
		return nil, core.Wrap(core.KindIO, opStyles, path, fmt.Errorf("run %s: %w", s.Binary, err))
	}

	return stdout.Bytes(), nil
}
