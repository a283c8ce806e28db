package kiln

import (
	_ "embed"
)

// Version is the kiln release, read from the VERSION file.
//
//go:embed VERSION
var Version string
