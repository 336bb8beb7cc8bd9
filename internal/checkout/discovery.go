package checkout

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FilesystemCheckoutDiscoverer locates git checkouts by walking directory trees.
type FilesystemCheckoutDiscoverer struct{}

// NewFilesystemCheckoutDiscoverer constructs a discoverer backed by filepath.WalkDir.
func NewFilesystemCheckoutDiscoverer() *FilesystemCheckoutDiscoverer {
	return &FilesystemCheckoutDiscoverer{}
}

// DiscoverRepositories walks the provided roots and returns every directory
// holding a .git entry, sorted and deduplicated. A .git file counts the same
// as a directory so linked worktrees and submodule checkouts are reported.
// Unreadable directories are skipped rather than aborting the walk.
func (discoverer *FilesystemCheckoutDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	seenCheckouts := make(map[string]struct{})
	var checkoutPaths []string

	for _, rootPath := range roots {
		walkError := filepath.WalkDir(rootPath, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
			if entryError != nil {
				return nil
			}
			if directoryEntry.Name() != gitMetadataDirectoryNameConstant {
				return nil
			}

			checkoutPath := filepath.Dir(entryPath)
			if _, alreadySeen := seenCheckouts[checkoutPath]; !alreadySeen {
				seenCheckouts[checkoutPath] = struct{}{}
				checkoutPaths = append(checkoutPaths, checkoutPath)
			}

			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(checkoutPaths)
	return checkoutPaths, nil
}
