package checkout

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	flagutils "github.com/temirov/scmkit/internal/utils/flags"
)

const (
	remoteHeadCommandUseConstant              = "remote-head"
	remoteHeadCommandShortDescriptionConstant = "Resolve a remote's default branch"
	remoteHeadCommandLongDescriptionConstant  = "remote-head determines the remote's default branch as a remote-tracking reference, trusting the local HEAD mirror when it is plausible, refreshing it when it looks stale, querying the remote directly when no local answer exists, and assuming main as the last resort."
	remoteHeadCommandExampleConstant          = "scmkit remote-head --path ~/Development/project --remote origin"
	remoteURLFlagNameConstant                 = "url"
	remoteURLFlagUsageConstant                = "Remote URL to query (defaults to the remote's configured fetch URL)"
	remoteHeadReportTemplateConstant          = "%s\n"
)

// RemoteHeadCommandBuilder assembles the remote-head command.
type RemoteHeadCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the remote-head command.
func (builder *RemoteHeadCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     remoteHeadCommandUseConstant,
		Short:   remoteHeadCommandShortDescriptionConstant,
		Long:    remoteHeadCommandLongDescriptionConstant,
		Example: remoteHeadCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	bindPathFlag(command)
	flagutils.EnsureRemoteFlag(command, defaultRemoteNameConstant, flagutils.RemoteFlagUsage)
	command.Flags().String(remoteURLFlagNameConstant, "", remoteURLFlagUsageConstant)

	return command, nil
}

func (builder *RemoteHeadCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	service, serviceError := resolveCommandService(builder.Dependencies, logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if serviceError != nil {
		return serviceError
	}

	remoteName, remoteFlagError := command.Flags().GetString(flagutils.RemoteFlagName)
	if remoteFlagError != nil {
		return remoteFlagError
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		remoteName = configuration.RemoteName
	}

	remoteURL, urlFlagError := command.Flags().GetString(remoteURLFlagNameConstant)
	if urlFlagError != nil {
		return urlFlagError
	}

	defaultBranchRef, resolveError := service.ResolveRemoteHead(command.Context(), RemoteHeadOptions{
		RepositoryPath: resolveRepositoryPath(command, configuration),
		RemoteName:     remoteName,
		RemoteURL:      remoteURL,
	})
	if resolveError != nil {
		return resolveError
	}

	fmt.Fprintf(command.OutOrStdout(), remoteHeadReportTemplateConstant, defaultBranchRef)
	return nil
}
