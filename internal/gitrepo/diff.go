package gitrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	gitDiffPatchFlagConstant          = "-p"
	gitDiffNoColorFlagConstant        = "--no-color"
	gitDiffNoPrefixFlagConstant       = "--no-prefix"
	gitDiffNoExternalFlagConstant     = "--no-ext-diff"
	gitDiffDetectCopiesFlagConstant   = "-C"
	gitDiffNameOnlyFlagConstant       = "--name-only"
	gitLSFilesSubcommandConstant      = "ls-files"
	gitShowSubcommandConstant         = "show"
	gitPathSeparatorArgumentConstant  = "--"
	currentDirectoryPathConstant      = "."
	revisionRangePairTemplateConstant = "%s...%s"
	showTargetTemplateConstant        = "%s:%s"
	devNullOldFileLineConstant        = "--- /dev/null"
	oldFileLinePrefixConstant         = "--- "
	newFileLinePrefixLengthConstant   = 4
	fakeDiffIndexTemplateConstant     = "Index: %s\n"
	fakeDiffSeparatorWidthConstant    = 67
	fakeDiffOldFileTemplateConstant   = "--- %s\n"
	fakeDiffNewFileTemplateConstant   = "+++ %s\n"
	fakeDiffHunkTemplateConstant      = "@@ -0,0 +1,%d @@\n"
	fakeDiffAddedLinePrefixConstant   = "+"
	lineSeparatorConstant             = "\n"
	fakeDiffSeparatorRuneConstant     = "="
)

// DiffOptions configure a patch generation run.
//
// BaseRevision defaults to the current branch's upstream and HeadRevision to
// HEAD. FullMove recreates moved or copied files in their entirety instead of
// describing them as renames, which try job patches require. FilePaths
// restricts the diff to the named paths.
type DiffOptions struct {
	BaseRevision string
	HeadRevision string
	FullMove     bool
	FilePaths    []string
}

// GenerateDiff produces a patch between the base and head revisions. Added
// files have their /dev/null markers rewritten to the incoming path so the
// patch applies with tooling that cannot create files from /dev/null.
func (manager *RepositoryManager) GenerateDiff(executionContext context.Context, repositoryPath string, options DiffOptions) (string, error) {
	baseRevision, revisionError := manager.selectBaseRevision(executionContext, repositoryPath, options.BaseRevision)
	if revisionError != nil {
		return "", revisionError
	}
	headRevision := strings.TrimSpace(options.HeadRevision)
	if len(headRevision) == 0 {
		headRevision = gitHeadReferenceConstant
	}

	diffArguments := []string{
		gitGlobalOptionFlagConstant,
		quotePathDisabledOptionConstant,
		gitDiffSubcommandConstant,
		gitDiffPatchFlagConstant,
		gitDiffNoColorFlagConstant,
		gitDiffNoPrefixFlagConstant,
		gitDiffNoExternalFlagConstant,
		fmt.Sprintf(revisionRangePairTemplateConstant, baseRevision, headRevision),
	}
	if options.FullMove {
		diffArguments = append(diffArguments, gitNoRenamesFlagConstant)
	} else {
		diffArguments = append(diffArguments, gitDiffDetectCopiesFlagConstant)
	}
	if len(options.FilePaths) > 0 {
		diffArguments = append(diffArguments, gitPathSeparatorArgumentConstant)
		diffArguments = append(diffArguments, options.FilePaths...)
	}

	diffOutput, captureError := manager.captureRaw(executionContext, repositoryPath, diffArguments...)
	if captureError != nil {
		return "", captureError
	}
	return rewriteAddedFileMarkers(diffOutput), nil
}

// GetDifferentFiles lists the files changed between the base and head revisions.
func (manager *RepositoryManager) GetDifferentFiles(executionContext context.Context, repositoryPath string, baseRevision string, headRevision string) ([]string, error) {
	selectedBase, revisionError := manager.selectBaseRevision(executionContext, repositoryPath, baseRevision)
	if revisionError != nil {
		return nil, revisionError
	}
	selectedHead := strings.TrimSpace(headRevision)
	if len(selectedHead) == 0 {
		selectedHead = gitHeadReferenceConstant
	}

	fileListing, captureError := manager.captureTrimmed(
		executionContext,
		repositoryPath,
		gitGlobalOptionFlagConstant,
		quotePathDisabledOptionConstant,
		gitDiffSubcommandConstant,
		gitDiffNameOnlyFlagConstant,
		fmt.Sprintf(revisionRangePairTemplateConstant, selectedBase, selectedHead),
	)
	if captureError != nil {
		return nil, captureError
	}
	return splitFileListing(fileListing), nil
}

// GetAllFiles lists every file under revision control.
func (manager *RepositoryManager) GetAllFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	fileListing, captureError := manager.captureTrimmed(
		executionContext,
		repositoryPath,
		gitGlobalOptionFlagConstant,
		quotePathDisabledOptionConstant,
		gitLSFilesSubcommandConstant,
		gitPathSeparatorArgumentConstant,
		currentDirectoryPathConstant,
	)
	if captureError != nil {
		return nil, captureError
	}
	return splitFileListing(fileListing), nil
}

// GetOldContents reads a file's contents at the base revision, or an empty
// string when the file does not exist there. BaseRevision defaults to the
// current branch's upstream.
func (manager *RepositoryManager) GetOldContents(executionContext context.Context, repositoryPath string, filePath string, baseRevision string) (string, error) {
	selectedBase, revisionError := manager.selectBaseRevision(executionContext, repositoryPath, baseRevision)
	if revisionError != nil {
		return "", revisionError
	}

	showTarget := fmt.Sprintf(showTargetTemplateConstant, selectedBase, filepath.ToSlash(filePath))
	fileContents, captureError := manager.captureRaw(executionContext, repositoryPath, gitShowSubcommandConstant, showTarget)
	if captureError != nil {
		if isCommandFailure(captureError) {
			return "", nil
		}
		return "", captureError
	}
	return fileContents, nil
}

// BuildFakeDiff fabricates an add-everything patch for a file that is not yet
// under revision control, preserving the file's own line endings.
func BuildFakeDiff(fileName string, fileContents string) string {
	normalizedFileName := filepath.ToSlash(fileName)
	contentLines := splitLinesKeepEndings(fileContents)

	patchBuilder := strings.Builder{}
	patchBuilder.WriteString(fmt.Sprintf(fakeDiffIndexTemplateConstant, normalizedFileName))
	patchBuilder.WriteString(strings.Repeat(fakeDiffSeparatorRuneConstant, fakeDiffSeparatorWidthConstant))
	patchBuilder.WriteString(lineSeparatorConstant)
	patchBuilder.WriteString(fmt.Sprintf(fakeDiffOldFileTemplateConstant, normalizedFileName))
	patchBuilder.WriteString(fmt.Sprintf(fakeDiffNewFileTemplateConstant, normalizedFileName))
	patchBuilder.WriteString(fmt.Sprintf(fakeDiffHunkTemplateConstant, len(contentLines)))
	for _, contentLine := range contentLines {
		patchBuilder.WriteString(fakeDiffAddedLinePrefixConstant)
		patchBuilder.WriteString(contentLine)
	}
	return patchBuilder.String()
}

func (manager *RepositoryManager) selectBaseRevision(executionContext context.Context, repositoryPath string, baseRevision string) (string, error) {
	selectedBase := strings.TrimSpace(baseRevision)
	if len(selectedBase) > 0 {
		return selectedBase, nil
	}
	resolvedUpstream, upstreamFound, upstreamError := manager.ResolveUpstreamRef(executionContext, repositoryPath)
	if upstreamError != nil {
		return "", upstreamError
	}
	if !upstreamFound {
		return "", ErrUpstreamNotResolved
	}
	return resolvedUpstream, nil
}

// rewriteAddedFileMarkers replaces "--- /dev/null" lines with the path named on
// the following "+++" line.
func rewriteAddedFileMarkers(diffOutput string) string {
	diffLines := splitLinesKeepEndings(diffOutput)
	for lineIndex := range diffLines {
		if !strings.HasPrefix(diffLines[lineIndex], devNullOldFileLineConstant) {
			continue
		}
		if lineIndex+1 >= len(diffLines) {
			continue
		}
		newFileLine := diffLines[lineIndex+1]
		if len(newFileLine) < newFileLinePrefixLengthConstant {
			continue
		}
		diffLines[lineIndex] = oldFileLinePrefixConstant + newFileLine[newFileLinePrefixLengthConstant:]
	}
	return strings.Join(diffLines, "")
}

func splitFileListing(fileListing string) []string {
	if len(fileListing) == 0 {
		return []string{}
	}
	return strings.Split(fileListing, lineSeparatorConstant)
}

// splitLinesKeepEndings splits text after each newline, keeping the newline on
// the line it terminates. A trailing fragment without a newline still counts
// as a line.
func splitLinesKeepEndings(text string) []string {
	if len(text) == 0 {
		return nil
	}
	lines := []string{}
	remaining := text
	for len(remaining) > 0 {
		newlineIndex := strings.Index(remaining, lineSeparatorConstant)
		if newlineIndex < 0 {
			lines = append(lines, remaining)
			break
		}
		lines = append(lines, remaining[:newlineIndex+1])
		remaining = remaining[newlineIndex+1:]
	}
	return lines
}
