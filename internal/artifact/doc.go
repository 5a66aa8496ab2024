// Package artifact resolves the node executable for a given release version.
//
// Binaries are cached on disk keyed by version and platform. Installation is
// guarded by an advisory file lock so concurrent test runs across processes
// perform exactly one download per cache entry. The lock is held only while
// installing, never while a node runs.
package artifact
