package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/kiln/pkg/core"
)

const opTemplates = "templates"

// Funcs returns the helpers every template can call. They only read the
// Scope handed to them, so renders share no state.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"component": func(s *Scope, name string) *Scope {
			return s.Enter(name)
		},
		"imagePath": func(s *Scope, image string) string {
			return s.ImagePath(image)
		},
	}
}

// Engine compiles page templates of a source tree with html/template.
// Every template under the source directory is loaded under its slash
// separated path relative to it (e.g. "components/nav/index.gohtml"), which
// is the name pages and components include it by.
type Engine struct {
	layout core.Layout
	logger *slog.Logger
}

// NewEngine returns an Engine for layout.
func NewEngine(layout core.Layout, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{layout: layout, logger: logger}
}

// Compile renders the page template at path, starting from the root Scope.
// Parse and execution failures are KindCompile errors.
func (e *Engine) Compile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := e.layout.Rel(path)
	if err != nil {
		return nil, core.Wrap(core.KindIO, opTemplates, path, err)
	}

	set, err := e.load()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, Root()); err != nil {
		return nil, core.Wrap(core.KindCompile, opTemplates, name, err)
	}
	return buf.Bytes(), nil
}

// load parses the whole source tree into one template set.
func (e *Engine) load() (*template.Template, error) {
	src := e.layout.SrcPath()
	names, err := doublestar.Glob(os.DirFS(src), "**/*"+core.TemplateExt)
	if err != nil {
		return nil, core.Wrap(core.KindIO, opTemplates, src, err)
	}

	set := template.New("").Funcs(Funcs())
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(name)))
		if err != nil {
			return nil, core.Wrap(core.KindIO, opTemplates, name, err)
		}
		if _, err := set.New(name).Parse(string(data)); err != nil {
			return nil, core.Wrap(core.KindCompile, opTemplates, name, fmt.Errorf("parse: %w", err))
		}
	}

	e.logger.Debug("templates loaded", "count", len(names))
	return set, nil
}
