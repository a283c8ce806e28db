package core

import (
	"path/filepath"
)

// File extensions of the two source languages.
const (
	TemplateExt = ".gohtml"
	StyleExt    = ".sass"
)

const (
	DefaultSrcDir  = "src"
	DefaultDestDir = "dest"
	ComponentsDir  = "components"
	ImagesDir      = "imgs"
	FontsDir       = "fonts"
	IndexName      = "index"
	CommonName     = "common"
	LockFile       = ".kiln.lock"
)

// Layout describes where a project keeps its sources and build output.
// Src and Dest are relative to Root.
type Layout struct {
	Root string
	Src  string
	Dest string
}

// NewLayout returns the default layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root, Src: DefaultSrcDir, Dest: DefaultDestDir}
}

// SrcPath joins elem onto the source directory.
func (l Layout) SrcPath(elem ...string) string {
	return filepath.Join(append([]string{l.Root, l.Src}, elem...)...)
}

// DestPath joins elem onto the output directory.
func (l Layout) DestPath(elem ...string) string {
	return filepath.Join(append([]string{l.Root, l.Dest}, elem...)...)
}

func (l Layout) ComponentsPath() string {
	return l.SrcPath(ComponentsDir)
}

func (l Layout) ComponentPath(name string) string {
	return l.SrcPath(ComponentsDir, name)
}

// RootTemplate is the template aggregator, src/index.gohtml.
func (l Layout) RootTemplate() string {
	return l.SrcPath(IndexName + TemplateExt)
}

// RootStyle is the stylesheet aggregator, src/index.sass.
func (l Layout) RootStyle() string {
	return l.SrcPath(IndexName + StyleExt)
}

func (l Layout) LockPath() string {
	return filepath.Join(l.Root, LockFile)
}

// Rel returns path relative to the source directory, slash separated.
func (l Layout) Rel(path string) (string, error) {
	rel, err := filepath.Rel(l.SrcPath(), path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
