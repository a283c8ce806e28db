package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/kiln/pkg/core"
)

// Task is one named build step.
type Task interface {
	Name() string
	Run(ctx context.Context) (*Result, error)
}

// Result lists the files a task wrote, relative to the output directory.
type Result struct {
	Task  string
	Files []string
}

// TemplateCompiler turns a page template into HTML.
type TemplateCompiler interface {
	Compile(ctx context.Context, path string) ([]byte, error)
}

// StyleCompiler turns a stylesheet into CSS.
type StyleCompiler interface {
	Compile(ctx context.Context, path string) ([]byte, error)
}

type compiler interface {
	Compile(ctx context.Context, path string) ([]byte, error)
}

// CompileTask compiles every source matching Pattern into the root of the
// output directory, replacing the extension with OutExt. Files whose name
// starts with "_" are partials and are skipped.
type CompileTask struct {
	name     string
	layout   core.Layout
	pattern  string
	outExt   string
	compiler compiler
	logger   *slog.Logger
}

// NewTemplatesTask compiles src/*.gohtml into dest/*.html.
func NewTemplatesTask(layout core.Layout, c TemplateCompiler, logger *slog.Logger) *CompileTask {
	return newCompileTask(TaskTemplates, layout, "*"+core.TemplateExt, ".html", c, logger)
}

// NewStylesTask compiles src/*.sass into dest/*.css.
func NewStylesTask(layout core.Layout, c StyleCompiler, logger *slog.Logger) *CompileTask {
	return newCompileTask(TaskStyles, layout, "*"+core.StyleExt, ".css", c, logger)
}

func newCompileTask(name string, layout core.Layout, pattern, outExt string, c compiler, logger *slog.Logger) *CompileTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompileTask{name: name, layout: layout, pattern: pattern, outExt: outExt, compiler: c, logger: logger}
}

func (t *CompileTask) Name() string { return t.name }

func (t *CompileTask) Run(ctx context.Context) (*Result, error) {
	res := &Result{Task: t.name}
	matches, err := glob(t.layout, t.name, t.pattern)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if strings.HasPrefix(path.Base(rel), "_") {
			continue
		}
		t.logger.Debug("compiling", "task", t.name, "file", rel)

		out, err := t.compiler.Compile(ctx, t.layout.SrcPath(filepath.FromSlash(rel)))
		if err != nil {
			errs = append(errs, err)
			continue
		}

		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel)) + t.outExt
		if err := writeOutput(t.layout.DestPath(name), out); err != nil {
			errs = append(errs, core.Wrap(core.KindIO, t.name, name, err))
			continue
		}
		res.Files = append(res.Files, name)
	}
	return res, errors.Join(errs...)
}

// CopyTask copies every file matching Pattern into DestDir, naming each
// copy with Rename.
type CopyTask struct {
	name    string
	layout  core.Layout
	pattern string
	destDir string
	rename  func(rel string) string
	logger  *slog.Logger
}

// NewImagesTask copies src/**/imgs/* into dest/imgs, prefixing each file
// with its component's name.
func NewImagesTask(layout core.Layout, logger *slog.Logger) *CopyTask {
	return newCopyTask(TaskImages, layout, "**/"+core.ImagesDir+"/*", core.ImagesDir, ComponentPrefix(core.ImagesDir), logger)
}

// NewFontsTask copies src/**/fonts/* into dest/fonts, prefixing each file
// with its component's name.
func NewFontsTask(layout core.Layout, logger *slog.Logger) *CopyTask {
	return newCopyTask(TaskFonts, layout, "**/"+core.FontsDir+"/*", core.FontsDir, ComponentPrefix(core.FontsDir), logger)
}

// NewScriptsTask copies src/*.js into dest.
func NewScriptsTask(layout core.Layout, logger *slog.Logger) *CopyTask {
	return newCopyTask(TaskScripts, layout, "*.js", "", path.Base, logger)
}

func newCopyTask(name string, layout core.Layout, pattern, destDir string, rename func(string) string, logger *slog.Logger) *CopyTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &CopyTask{name: name, layout: layout, pattern: pattern, destDir: destDir, rename: rename, logger: logger}
}

func (t *CopyTask) Name() string { return t.name }

func (t *CopyTask) Run(ctx context.Context) (*Result, error) {
	res := &Result{Task: t.name}
	matches, err := glob(t.layout, t.name, t.pattern)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := path.Join(t.destDir, t.rename(rel))
		t.logger.Debug("copying", "task", t.name, "file", rel, "to", name)

		if err := copyFile(t.layout.SrcPath(filepath.FromSlash(rel)), t.layout.DestPath(filepath.FromSlash(name))); err != nil {
			errs = append(errs, core.Wrap(core.KindIO, t.name, rel, err))
			continue
		}
		res.Files = append(res.Files, name)
	}
	return res, errors.Join(errs...)
}

// ComponentPrefix returns a rename func for assets kept in assetDir folders:
// src/components/<c>/<assetDir>/<file> becomes <c>_<file>. Nested component
// directories are joined with "_"; files outside a component keep their name.
func ComponentPrefix(assetDir string) func(rel string) string {
	return func(rel string) string {
		dir, base := path.Split(rel)
		owner := componentOf(strings.TrimSuffix(dir, "/"), assetDir)
		if owner == "" {
			return base
		}
		return owner + "_" + base
	}
}

// componentOf strips whole path segments only: "componentsX/imgs" keeps
// its "componentsX" owner.
func componentOf(dir, assetDir string) string {
	if dir == assetDir {
		return ""
	}
	dir, _ = strings.CutSuffix(dir, "/"+assetDir)
	if rest, ok := strings.CutPrefix(dir, core.ComponentsDir+"/"); ok {
		dir = rest
	}
	return strings.ReplaceAll(dir, "/", "_")
}

func glob(layout core.Layout, task, pattern string) ([]string, error) {
	src := layout.SrcPath()
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", core.ErrNotInitialized, err)
		}
		return nil, core.Wrap(core.KindFileSystem, task, layout.Src, err)
	}
	if !info.IsDir() {
		return nil, core.Wrap(core.KindFileSystem, task, layout.Src, fmt.Errorf("not a directory"))
	}

	matches, err := doublestar.Glob(os.DirFS(src), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, core.Wrap(core.KindInvalid, task, pattern, err)
	}
	return matches, nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
