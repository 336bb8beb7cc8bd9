package checkout

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	statusCommandUseConstant              = "status"
	statusCommandShortDescriptionConstant = "List files changed relative to the upstream"
	statusCommandLongDescriptionConstant  = "status lists the files that differ between the comparison base and HEAD together with their change codes. The base defaults to the current branch's resolved upstream."
	statusCommandExampleConstant          = "scmkit status --path ~/Development/project"
	baseFlagNameConstant                  = "base"
	baseFlagUsageConstant                 = "Comparison base revision (defaults to the resolved upstream)"
	statusEntryTemplateConstant           = "%s%s\n"
)

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     statusCommandUseConstant,
		Short:   statusCommandShortDescriptionConstant,
		Long:    statusCommandLongDescriptionConstant,
		Example: statusCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	bindPathFlag(command)
	command.Flags().String(baseFlagNameConstant, "", baseFlagUsageConstant)

	return command, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	logger := resolveLogger(builder.LoggerProvider)

	service, serviceError := resolveCommandService(builder.Dependencies, logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider))
	if serviceError != nil {
		return serviceError
	}

	baseRevision, baseFlagError := command.Flags().GetString(baseFlagNameConstant)
	if baseFlagError != nil {
		return baseFlagError
	}

	statusEntries, statusError := service.CaptureStatus(command.Context(), StatusOptions{
		RepositoryPath: resolveRepositoryPath(command, configuration),
		BaseRevision:   baseRevision,
	})
	if statusError != nil {
		return statusError
	}

	outputWriter := command.OutOrStdout()
	for _, statusEntry := range statusEntries {
		fmt.Fprintf(outputWriter, statusEntryTemplateConstant, statusEntry.StatusCode, statusEntry.FilePath)
	}
	return nil
}
