// Package scaffold creates kiln projects and components on disk.
//
// Initialize lays down the src/ skeleton: the root template and stylesheet
// aggregators plus the shared helper files under src/components.
// AddComponent creates src/components/<name>/ and appends one include line to
// each aggregator. Aggregator rewrites happen under a project lock file and go
// through an atomic rename, so concurrent AddComponent calls serialize.
//
// Neither operation rolls back: a failure leaves already created paths in
// place and is reported as a *core.Error.
package scaffold
