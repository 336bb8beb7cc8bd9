package checkout

import (
	"fmt"

	"github.com/spf13/cobra"

	flagutils "github.com/temirov/scmkit/internal/utils/flags"
)

const (
	filesCommandUseConstant              = "files"
	filesCommandShortDescriptionConstant = "List tracked or changed files"
	filesCommandLongDescriptionConstant  = "files prints every file under revision control, or with --changed only the files differing from the comparison base. The base defaults to the current branch's resolved upstream."
	filesCommandExampleConstant          = "scmkit files --path ~/Development/project --changed"
	changedFlagNameConstant              = "changed"
	changedFlagUsageConstant             = "List only files differing from the comparison base"
	fileListingTemplateConstant          = "%s\n"
)

// FilesCommandBuilder assembles the files command.
type FilesCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Dependencies                 builderDependencies
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration

	changedOnlyValue bool
}

// Build constructs the files command.
func (builder *FilesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     filesCommandUseConstant,
		Short:   filesCommandShortDescriptionConstant,
		Long:    filesCommandLongDescriptionConstant,
		Example: filesCommandExampleConstant,
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}

	bindPathFlag(command)
	command.Flags().String(baseFlagNameConstant, "", baseFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), &builder.changedOnlyValue, changedFlagNameConstant, "", false, changedFlagUsageConstant)

	return command, nil
}

func (builder *FilesCommandBuilder) run(command *cobra.Command, _ []string) error {
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

	filePaths, listError := service.ListFiles(command.Context(), FilesOptions{
		RepositoryPath: resolveRepositoryPath(command, configuration),
		ChangedOnly:    builder.changedOnlyValue,
		BaseRevision:   baseRevision,
	})
	if listError != nil {
		return listError
	}

	outputWriter := command.OutOrStdout()
	for _, filePath := range filePaths {
		fmt.Fprintf(outputWriter, fileListingTemplateConstant, filePath)
	}
	return nil
}
