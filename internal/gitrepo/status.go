package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	gitGlobalOptionFlagConstant           = "-c"
	quotePathDisabledOptionConstant       = "core.quotePath=false"
	gitDiffSubcommandConstant             = "diff"
	gitNameStatusFlagConstant             = "--name-status"
	gitNoRenamesFlagConstant              = "--no-renames"
	gitRecursiveFlagConstant              = "-r"
	gitStatusSubcommandConstant           = "status"
	gitShortStatusFlagConstant            = "-s"
	revisionRangeTemplateConstant         = "%s..."
	statusLinePatternConstant             = `^(\w+)\t(.+)$`
	statusCodeColumnWidthConstant         = 7
	upstreamNotResolvedMessageConstant    = "cannot determine upstream branch"
	statusLineUnsupportedTemplateConstant = "status currently unsupported: %s"
)

// ErrUpstreamNotResolved indicates no upstream branch could be determined for a status capture.
var ErrUpstreamNotResolved = errors.New(upstreamNotResolvedMessageConstant)

var statusLinePattern = regexp.MustCompile(statusLinePatternConstant)

// StatusEntry pairs a change status column with the affected file path.
type StatusEntry struct {
	StatusCode string
	FilePath   string
}

// StatusParseError indicates a status line did not match the expected shape.
type StatusParseError struct {
	Line string
}

// Error describes the unsupported status line.
func (parseError StatusParseError) Error() string {
	return fmt.Sprintf(statusLineUnsupportedTemplateConstant, parseError.Line)
}

// IsWorkTreeDirty reports whether the working tree carries uncommitted changes.
func (manager *RepositoryManager) IsWorkTreeDirty(executionContext context.Context, repositoryPath string) (bool, error) {
	statusOutput, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitStatusSubcommandConstant, gitShortStatusFlagConstant)
	if captureError != nil {
		return false, captureError
	}
	return len(statusOutput) > 0, nil
}

// CaptureStatus lists the changes between the upstream branch and HEAD. Each
// entry carries the first letter of the change status padded to the fixed
// column width consumed by patch tooling. When upstreamBranch is empty the
// current branch's upstream is resolved first.
func (manager *RepositoryManager) CaptureStatus(executionContext context.Context, repositoryPath string, upstreamBranch string) ([]StatusEntry, error) {
	selectedUpstream := strings.TrimSpace(upstreamBranch)
	if len(selectedUpstream) == 0 {
		resolvedUpstream, upstreamFound, upstreamError := manager.ResolveUpstreamRef(executionContext, repositoryPath)
		if upstreamError != nil {
			return nil, upstreamError
		}
		if !upstreamFound {
			return nil, ErrUpstreamNotResolved
		}
		selectedUpstream = resolvedUpstream
	}

	statusOutput, captureError := manager.captureTrimmed(
		executionContext,
		repositoryPath,
		gitGlobalOptionFlagConstant,
		quotePathDisabledOptionConstant,
		gitDiffSubcommandConstant,
		gitNameStatusFlagConstant,
		gitNoRenamesFlagConstant,
		gitRecursiveFlagConstant,
		fmt.Sprintf(revisionRangeTemplateConstant, selectedUpstream),
	)
	if captureError != nil {
		return nil, captureError
	}

	statusEntries := []StatusEntry{}
	if len(statusOutput) == 0 {
		return statusEntries, nil
	}
	for _, statusLine := range strings.Split(statusOutput, "\n") {
		matchedGroups := statusLinePattern.FindStringSubmatch(statusLine)
		if matchedGroups == nil {
			return nil, StatusParseError{Line: statusLine}
		}
		statusEntries = append(statusEntries, StatusEntry{
			StatusCode: padStatusCode(matchedGroups[1]),
			FilePath:   matchedGroups[2],
		})
	}
	return statusEntries, nil
}

// padStatusCode keeps the first letter of the status word and pads it to the
// column width expected by consumers of the legacy status format.
func padStatusCode(statusWord string) string {
	firstLetter := statusWord[:1]
	return firstLetter + strings.Repeat(" ", statusCodeColumnWidthConstant-len(firstLetter))
}
