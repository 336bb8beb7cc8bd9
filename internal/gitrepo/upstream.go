package gitrepo

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	branchMergeConfigurationKeyConstant          = "merge"
	branchRemoteConfigurationKeyConstant         = "remote"
	legacyUpstreamBranchConfigurationKeyConstant = "rietveld.upstream-branch"
	legacyUpstreamRemoteConfigurationKeyConstant = "rietveld.upstream-remote"
	localCheckoutRemoteNameConstant              = "."
	originRemoteNameConstant                     = "origin"
	mainBranchRefConstant                        = "refs/heads/main"
	masterBranchRefConstant                      = "refs/heads/master"
	originMainRemoteBranchConstant               = "origin/main"
	originMasterRemoteBranchConstant             = "origin/master"
	gitBranchSubcommandConstant                  = "branch"
	gitRemoteBranchesFlagConstant                = "-r"
	gitLSRemoteSubcommandConstant                = "ls-remote"
	gitSymrefFlagConstant                        = "--symref"
	gitRemoteSubcommandConstant                  = "remote"
	gitSetHeadSubcommandConstant                 = "set-head"
	gitSetHeadAutomaticFlagConstant              = "-a"
	remoteHeadMirrorRefTemplateConstant          = "refs/remotes/%s/HEAD"
	defaultRemoteMainRefTemplateConstant         = "refs/remotes/%s/main"
	masterBranchSuffixConstant                   = "master"
	symrefHeadResponsePatternConstant            = `^ref: (.*)\tHEAD$`
	symrefQueryMinimumGitVersionConstant         = "2.8"
)

var symrefHeadResponsePattern = regexp.MustCompile(symrefHeadResponsePatternConstant)

// UpstreamTuple names the remote and remote reference a branch tracks. The
// remote name is "." when the upstream is another local branch.
type UpstreamTuple struct {
	RemoteName string
	BranchRef  string
}

// ResolveUpstream determines the tracking configuration for the named branch,
// or for the current branch when branchName is empty.
//
// Resolution is layered: branch.<name>.merge and branch.<name>.remote are
// consulted first, then the legacy rietveld configuration keys, then the
// remote-tracking branches with origin/main preferred over origin/master.
// The boolean is false when no layer produced an upstream.
func (manager *RepositoryManager) ResolveUpstream(executionContext context.Context, repositoryPath string, branchName string) (UpstreamTuple, bool, error) {
	selectedBranch := strings.TrimSpace(branchName)
	if len(selectedBranch) == 0 {
		currentBranch, branchFound, branchError := manager.GetBranch(executionContext, repositoryPath)
		if branchError != nil {
			return UpstreamTuple{}, false, branchError
		}
		if branchFound {
			selectedBranch = currentBranch
		}
	}

	if len(selectedBranch) > 0 {
		mergeRef, mergeFound, mergeError := manager.GetBranchConfigValue(executionContext, repositoryPath, selectedBranch, branchMergeConfigurationKeyConstant)
		if mergeError != nil {
			return UpstreamTuple{}, false, mergeError
		}
		if mergeFound && len(mergeRef) > 0 {
			remoteName, remoteFound, remoteError := manager.GetBranchConfigValue(executionContext, repositoryPath, selectedBranch, branchRemoteConfigurationKeyConstant)
			if remoteError != nil {
				return UpstreamTuple{}, false, remoteError
			}
			if !remoteFound {
				remoteName = localCheckoutRemoteNameConstant
			}
			return UpstreamTuple{RemoteName: remoteName, BranchRef: mergeRef}, true, nil
		}
	}

	legacyUpstreamRef, legacyFound, legacyError := manager.GetConfigValue(executionContext, repositoryPath, legacyUpstreamBranchConfigurationKeyConstant)
	if legacyError != nil {
		return UpstreamTuple{}, false, legacyError
	}
	if legacyFound && len(legacyUpstreamRef) > 0 {
		legacyRemoteName, legacyRemoteFound, legacyRemoteError := manager.GetConfigValue(executionContext, repositoryPath, legacyUpstreamRemoteConfigurationKeyConstant)
		if legacyRemoteError != nil {
			return UpstreamTuple{}, false, legacyRemoteError
		}
		if !legacyRemoteFound {
			legacyRemoteName = localCheckoutRemoteNameConstant
		}
		return UpstreamTuple{RemoteName: legacyRemoteName, BranchRef: legacyUpstreamRef}, true, nil
	}

	remoteBranches, remoteBranchesError := manager.GetRemoteBranches(executionContext, repositoryPath)
	if remoteBranchesError != nil {
		return UpstreamTuple{}, false, remoteBranchesError
	}
	for _, remoteBranch := range remoteBranches {
		if remoteBranch == originMainRemoteBranchConstant {
			return UpstreamTuple{RemoteName: originRemoteNameConstant, BranchRef: mainBranchRefConstant}, true, nil
		}
	}
	for _, remoteBranch := range remoteBranches {
		if remoteBranch == originMasterRemoteBranchConstant {
			return UpstreamTuple{RemoteName: originRemoteNameConstant, BranchRef: masterBranchRefConstant}, true, nil
		}
	}

	return UpstreamTuple{}, false, nil
}

// ResolveUpstreamRef resolves the current branch's upstream as a single
// reference, translated into the remote-tracking namespace when the upstream
// lives on a remote. The boolean is false when no upstream is configured.
func (manager *RepositoryManager) ResolveUpstreamRef(executionContext context.Context, repositoryPath string) (string, bool, error) {
	upstreamTuple, upstreamFound, upstreamError := manager.ResolveUpstream(executionContext, repositoryPath, "")
	if upstreamError != nil || !upstreamFound {
		return "", false, upstreamError
	}

	upstreamRef := upstreamTuple.BranchRef
	if upstreamTuple.RemoteName != localCheckoutRemoteNameConstant {
		if remoteRefParts, translated := RefToRemoteRef(upstreamRef, upstreamTuple.RemoteName); translated {
			upstreamRef = remoteRefParts.FullRef()
		}
	}
	return upstreamRef, true, nil
}

// GetRemoteBranches lists the remote-tracking branch names known to the checkout.
func (manager *RepositoryManager) GetRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	branchListing, captureError := manager.captureTrimmed(executionContext, repositoryPath, gitBranchSubcommandConstant, gitRemoteBranchesFlagConstant)
	if captureError != nil {
		return nil, captureError
	}
	return strings.Fields(branchListing), nil
}

// ResolveDefaultRemoteBranch determines the remote's default branch as a
// remote-tracking reference such as "refs/remotes/origin/main".
//
// The local HEAD mirror is trusted first unless it still names master, in
// which case the mirror is refreshed with remote set-head before re-reading.
// When no local checkout answers, the remote itself is queried over ls-remote,
// and failing everything the conventional main reference is assumed. The
// resolution never fails outright.
func (manager *RepositoryManager) ResolveDefaultRemoteBranch(executionContext context.Context, repositoryPath string, remoteURL string, remoteName string) string {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) > 0 && pathExists(trimmedRepositoryPath) {
		if defaultBranchRef, resolved := manager.resolveDefaultBranchFromMirror(executionContext, trimmedRepositoryPath, remoteName); resolved {
			return defaultBranchRef
		}
	}

	if defaultBranchRef, resolved := manager.resolveDefaultBranchFromRemote(executionContext, remoteURL, remoteName); resolved {
		return defaultBranchRef
	}

	return fmt.Sprintf(defaultRemoteMainRefTemplateConstant, remoteName)
}

func (manager *RepositoryManager) resolveDefaultBranchFromMirror(executionContext context.Context, repositoryPath string, remoteName string) (string, bool) {
	headMirrorRef := fmt.Sprintf(remoteHeadMirrorRefTemplateConstant, remoteName)
	mirrorTarget, mirrorError := manager.captureTrimmed(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, headMirrorRef)
	if mirrorError != nil {
		return "", false
	}
	if !strings.HasSuffix(mirrorTarget, masterBranchSuffixConstant) {
		return mirrorTarget, true
	}

	// A master mirror may simply be stale; ask the remote to refresh it.
	_, refreshError := manager.captureTrimmed(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitSetHeadSubcommandConstant, gitSetHeadAutomaticFlagConstant, remoteName)
	if refreshError != nil {
		return "", false
	}
	refreshedTarget, rereadError := manager.captureTrimmed(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, headMirrorRef)
	if rereadError != nil {
		return "", false
	}
	return refreshedTarget, true
}

func (manager *RepositoryManager) resolveDefaultBranchFromRemote(executionContext context.Context, remoteURL string, remoteName string) (string, bool) {
	supportsSymref, _, versionError := manager.MeetsMinimumVersion(executionContext, "", symrefQueryMinimumGitVersionConstant)
	if versionError != nil || !supportsSymref {
		return "", false
	}

	symrefResponse, queryError := manager.captureTrimmed(executionContext, "", gitLSRemoteSubcommandConstant, gitSymrefFlagConstant, remoteURL, gitHeadReferenceConstant)
	if queryError != nil {
		return "", false
	}

	for _, responseLine := range strings.Split(symrefResponse, "\n") {
		matchedGroups := symrefHeadResponsePattern.FindStringSubmatch(responseLine)
		if matchedGroups == nil {
			continue
		}
		if remoteRefParts, translated := RefToRemoteRef(matchedGroups[1], remoteName); translated {
			return remoteRefParts.FullRef(), true
		}
	}
	return "", false
}

func pathExists(candidatePath string) bool {
	_, statError := os.Stat(candidatePath)
	return statError == nil
}
