package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/kiln/pkg/core"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	opInit      = "init"
	opComponent = "component"

	defaultLockInterval = 10 * time.Millisecond
	defaultLockTimeout  = 10 * time.Second
)

// Result lists the paths an operation created or rewrote, relative to the
// project root and slash separated.
type Result struct {
	Created  []string
	Modified []string
}

// Scaffolder creates projects and components inside a Layout.
type Scaffolder struct {
	layout       core.Layout
	logger       *slog.Logger
	lockInterval time.Duration
	lockTimeout  time.Duration
}

// Option configures a Scaffolder.
type Option func(*Scaffolder)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scaffolder) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLockInterval sets how often a busy project lock is retried.
func WithLockInterval(d time.Duration) Option {
	return func(s *Scaffolder) {
		if d > 0 {
			s.lockInterval = d
		}
	}
}

// WithLockTimeout bounds how long AddComponent waits for a project lock held
// by a running process.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Scaffolder) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New returns a Scaffolder for layout.
func New(layout core.Layout, opts ...Option) *Scaffolder {
	s := &Scaffolder{
		layout:       layout,
		logger:       slog.Default(),
		lockInterval: defaultLockInterval,
		lockTimeout:  defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the src/ skeleton. It fails with a KindFileSystem error
// on the first path that already exists and leaves earlier paths in place.
func (s *Scaffolder) Initialize(ctx context.Context) (*Result, error) {
	res := &Result{}
	l := s.layout

	for _, dir := range []string{l.SrcPath(), l.ComponentsPath()} {
		if err := s.mkdir(res, opInit, dir); err != nil {
			return res, err
		}
	}

	files := []struct {
		path string
		data string
	}{
		{l.RootTemplate(), rootTemplate},
		{l.RootStyle(), rootStyle},
		{l.SrcPath(core.ComponentsDir, core.CommonName+core.TemplateExt), commonTemplate},
		{l.SrcPath(core.ComponentsDir, core.CommonName+core.StyleExt), commonStyle},
	}
	for _, f := range files {
		if err := s.create(res, opInit, f.path, f.data); err != nil {
			return res, err
		}
	}

	s.logger.Debug("project initialized", "root", l.Root, "files", len(res.Created))
	return res, nil
}

// AddComponent creates src/components/<name>/ with its template, stylesheet,
// imgs/ and fonts/ and appends an include line to both aggregators.
//
// Both aggregators must exist. A name collision fails with a KindFileSystem
// error before either aggregator is touched.
func (s *Scaffolder) AddComponent(ctx context.Context, name string) (*Result, error) {
	if err := ValidateName(name); err != nil {
		return nil, core.Wrap(core.KindInvalid, opComponent, "", err)
	}

	l := s.layout
	aggregators := []string{l.RootTemplate(), l.RootStyle()}
	for _, path := range aggregators {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %w", core.ErrNotInitialized, err)
			}
			return nil, core.Wrap(core.KindIO, opComponent, s.rel(path), err)
		}
	}

	res := &Result{}
	dir := l.ComponentPath(name)
	for _, d := range []string{dir, filepath.Join(dir, core.ImagesDir), filepath.Join(dir, core.FontsDir)} {
		if err := s.mkdir(res, opComponent, d); err != nil {
			return res, err
		}
	}

	if err := s.create(res, opComponent, filepath.Join(dir, core.IndexName+core.TemplateExt), componentTemplate(name)); err != nil {
		return res, err
	}
	if err := s.create(res, opComponent, filepath.Join(dir, core.IndexName+core.StyleExt), componentStyle(name)); err != nil {
		return res, err
	}

	unlock, err := acquireLock(ctx, l.LockPath(), s.lockInterval, s.lockTimeout)
	if err != nil {
		return res, core.Wrap(core.KindIO, opComponent, s.rel(l.LockPath()), err)
	}
	defer unlock()

	if err := s.appendTo(res, l.RootTemplate(), includeLine(name)); err != nil {
		return res, err
	}
	if err := s.appendTo(res, l.RootStyle(), importLine(name)); err != nil {
		return res, err
	}

	s.logger.Debug("component added", "name", name, "dir", s.rel(dir))
	return res, nil
}

func (s *Scaffolder) mkdir(res *Result, op, dir string) error {
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return core.Wrap(core.KindFileSystem, op, s.rel(dir), err)
	}
	res.Created = append(res.Created, s.rel(dir)+"/")
	return nil
}

func (s *Scaffolder) create(res *Result, op, path, data string) error {
	if err := createExclusive(path, []byte(data), filePerm); err != nil {
		kind := core.KindIO
		if errors.Is(err, fs.ErrExist) || errors.Is(err, fs.ErrNotExist) {
			kind = core.KindFileSystem
		}
		return core.Wrap(kind, op, s.rel(path), err)
	}
	res.Created = append(res.Created, s.rel(path))
	return nil
}

// appendTo rewrites path in full with line appended, keeping its mode.
func (s *Scaffolder) appendTo(res *Result, path, line string) error {
	info, err := os.Stat(path)
	if err != nil {
		return core.Wrap(core.KindIO, opComponent, s.rel(path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Wrap(core.KindIO, opComponent, s.rel(path), err)
	}
	if err := writeFileAtomic(path, []byte(appendLine(string(data), line)), info.Mode().Perm()); err != nil {
		return core.Wrap(core.KindIO, opComponent, s.rel(path), err)
	}
	res.Modified = append(res.Modified, s.rel(path))
	return nil
}

func (s *Scaffolder) rel(path string) string {
	rel, err := filepath.Rel(s.layout.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
