package checkout

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	upstreamCommandUseConstant              = "upstream"
	upstreamCommandShortDescriptionConstant = "Report the upstream a branch tracks"
	upstreamCommandLongDescriptionConstant  = "upstream resolves which remote and remote branch the selected branch tracks, consulting branch configuration, legacy review configuration, and the remote branch listing, and prints the remote-tracking reference downstream diffs compare against."
	upstreamCommandExampleConstant          = "scmkit upstream --path ~/Development/project --branch feature"
	branchFlagNameConstant                  = "branch"
	branchFlagUsageConstant                 = "Branch to resolve (defaults to the current branch)"
	upstreamReportTemplateConstant          = "TRACKING: %s -> %s %s\n"
	upstreamTrackingRefTemplateConstant     = "TRACKING REF: %s\n"
	upstreamMissingTemplateConstant         = "NO UPSTREAM: %s\n"
)

// UpstreamCommandBuilder assembles the upstream command.
type UpstreamCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the upstream command.
func (builder *UpstreamCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     upstreamCommandUseConstant,
		Short:   upstreamCommandShortDescriptionConstant,
		Long:    upstreamCommandLongDescriptionConstant,
		Example: upstreamCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	bindPathFlag(command)
	command.Flags().String(branchFlagNameConstant, "", branchFlagUsageConstant)

	return command, nil
}

func (builder *UpstreamCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	service, serviceError := resolveCommandService(builder.Dependencies, logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if serviceError != nil {
		return serviceError
	}

	branchName, branchFlagError := command.Flags().GetString(branchFlagNameConstant)
	if branchFlagError != nil {
		return branchFlagError
	}

	upstreamReport, reportError := service.DescribeUpstream(command.Context(), UpstreamOptions{
		RepositoryPath: resolveRepositoryPath(command, configuration),
		BranchName:     strings.TrimSpace(branchName),
	})
	if reportError != nil {
		return reportError
	}

	outputWriter := command.OutOrStdout()
	if !upstreamReport.Found {
		fmt.Fprintf(outputWriter, upstreamMissingTemplateConstant, upstreamReport.BranchName)
		return nil
	}

	fmt.Fprintf(outputWriter, upstreamReportTemplateConstant, upstreamReport.BranchName, upstreamReport.RemoteName, upstreamReport.BranchRef)
	fmt.Fprintf(outputWriter, upstreamTrackingRefTemplateConstant, upstreamReport.TrackingRef)
	return nil
}
