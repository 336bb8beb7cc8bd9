package gitrepo

import (
	"regexp"
	"strings"
)

const (
	refsPrefixConstant              = "refs/"
	refsHeadsPrefixConstant         = "refs/heads/"
	headsPrefixConstant             = "heads/"
	refsRemotesPrefixConstant       = "refs/remotes/"
	remotesPrefixConstant           = "remotes/"
	remoteBranchHeadsPrefixConstant = "refs/remotes/branch-heads/"
	localBranchHeadsPrefixConstant  = "refs/branch-heads/"
	refSegmentSeparatorConstant     = "/"
)

var branchHeadsRefPattern = regexp.MustCompile(`^(refs/(remotes/)?)?branch-heads/`)

// RemoteRefParts captures the namespace prefix and branch suffix of a remote-tracking reference.
type RemoteRefParts struct {
	Prefix string
	Suffix string
}

// FullRef joins the prefix and suffix into a complete reference name.
func (parts RemoteRefParts) FullRef() string {
	return parts.Prefix + parts.Suffix
}

// RefToRemoteRef converts a checkout reference to the equivalent remote-tracking
// reference, split into its namespace prefix and branch suffix. The boolean is
// false when the reference does not name a remote branch (for example a commit
// hash or a tag).
//
// Release branch references under branch-heads/ translate the same way for
// every remote, so they are matched before the remote-qualified namespaces.
func RefToRemoteRef(reference string, remoteName string) (RemoteRefParts, bool) {
	if matchedPrefix := branchHeadsRefPattern.FindString(reference); len(matchedPrefix) > 0 {
		return RemoteRefParts{Prefix: remoteBranchHeadsPrefixConstant, Suffix: strings.TrimPrefix(reference, matchedPrefix)}, true
	}

	remoteSegment := remoteName + refSegmentSeparatorConstant
	remoteQualifiedPrefixes := []string{
		refsRemotesPrefixConstant + remoteSegment,
		remotesPrefixConstant + remoteSegment,
		remoteSegment,
		refsHeadsPrefixConstant,
		headsPrefixConstant,
	}
	for _, candidatePrefix := range remoteQualifiedPrefixes {
		if strings.HasPrefix(reference, candidatePrefix) {
			return RemoteRefParts{Prefix: refsRemotesPrefixConstant + remoteSegment, Suffix: strings.TrimPrefix(reference, candidatePrefix)}, true
		}
	}

	return RemoteRefParts{}, false
}

// RemoteRefToLocalRef converts a remote-tracking reference to the local
// reference it would check out as. References outside refs/ do not translate;
// references under refs/ but outside refs/remotes/ are already local and pass
// through unchanged. The boolean is false when no translation exists.
func RemoteRefToLocalRef(reference string, remoteName string) (string, bool) {
	if !strings.HasPrefix(reference, refsPrefixConstant) {
		return "", false
	}
	if !strings.HasPrefix(reference, refsRemotesPrefixConstant) {
		return reference, true
	}
	if strings.HasPrefix(reference, remoteBranchHeadsPrefixConstant) {
		return localBranchHeadsPrefixConstant + strings.TrimPrefix(reference, remoteBranchHeadsPrefixConstant), true
	}
	remotePrefix := refsRemotesPrefixConstant + remoteName + refSegmentSeparatorConstant
	if strings.HasPrefix(reference, remotePrefix) {
		return refsHeadsPrefixConstant + strings.TrimPrefix(reference, remotePrefix), true
	}
	return "", false
}

// ShortBranchName converts a reference like "refs/heads/main" to just "main".
func ShortBranchName(branchRef string) string {
	return strings.ReplaceAll(branchRef, refsHeadsPrefixConstant, "")
}
