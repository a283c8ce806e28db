// Package config loads kiln settings from defaults, an optional kiln.yaml in
// the project root, KILN_* environment variables and command-line flags, in
// increasing order of precedence.
package config
