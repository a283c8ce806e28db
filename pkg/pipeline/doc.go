// Package pipeline holds the build tasks that turn a kiln source tree into
// its output directory, and the runner that executes them.
//
// Tasks run in a fixed order: templates, styles, images, fonts, js.
// Compile failures are reported to a core.Notifier and returned, but never
// stop the remaining tasks.
package pipeline
