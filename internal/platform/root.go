package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/pkg/core"
)

// ErrRootNotFound is returned by FindRoot when no ancestor looks like a project.
var ErrRootNotFound = errors.New("project root not found")

// FindRoot looks upwards from startDir for a project root.
// Indicators are a kiln.yaml file or a src/index.gohtml aggregator.
// It returns the absolute path of the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	marker := filepath.Join(core.DefaultSrcDir, core.IndexName+core.TemplateExt)
	dir := abs
	for {
		if hasFile(dir, config.FileName) || hasFile(dir, marker) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

// ResolveRoot returns dir when it is set, else the nearest project root
// above the working directory, else the working directory itself.
func ResolveRoot(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := FindRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

func hasFile(dir, name string) bool {
	path := filepath.Join(dir, name)
	_, err := os.Stat(path)
	return err == nil
}
