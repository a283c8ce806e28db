// Package kiln is the Composition Root for the kiln static-site builder.
//
// A kiln project keeps its sources under src/: a root template and
// stylesheet that aggregate components living in src/components/<name>/.
// Builds write pages, stylesheets and assets to dest/.
//
// Features:
//
//   - **Scaffolding**: Init creates the source tree; AddComponent adds a
//     component and registers it with both aggregators under a project lock.
//   - **Explicit Component Scope**: templates enter a component with
//     {{with component . "name"}} and resolve images relative to it, so nested
//     components cannot leak their scope.
//   - **Pipeline**: templates (html/template), styles (dart-sass), images,
//     fonts and scripts, run in a fixed order or in parallel.
//   - **Dev Server**: serves dest/, watches src/, rebuilds the affected task
//     and live-reloads browsers over a websocket.
//
// Usage:
//
//	// Create a project and a component
//	if _, err := kiln.Init(ctx, "./site"); err != nil {
//		return err
//	}
//	if _, err := kiln.AddComponent(ctx, "./site", "header"); err != nil {
//		return err
//	}
//
//	// Build templates and styles
//	_, err := kiln.Build(ctx, "./site", []string{"templates", "styles"})
//
// See cmd/kiln for the command-line interface.
package kiln
