// Package checkout implements the read-only checkout inspection commands:
// upstream tracking resolution, remote default-branch lookup, status and diff
// rendering, tracked-file listings, and git checkout discovery across
// configured roots.
package checkout
