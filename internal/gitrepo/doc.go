// Package gitrepo contains helpers for interrogating Git checkouts.
//
// It exposes RepositoryManager for reading configuration, resolving upstream
// tracking information, and capturing status and diff output, along with the
// reference namespace translations consumed by the checkout services.
package gitrepo
