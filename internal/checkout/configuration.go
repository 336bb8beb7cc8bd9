package checkout

import "strings"

const (
	configurationPathKeyConstant      = "path"
	configurationRemoteKeyConstant    = "remote"
	configurationRootsKeyConstant     = "roots"
	defaultRepositoryPathConstant     = "."
	defaultCheckoutRootConstant       = "."
	configurationKeySeparatorConstant = "."
)

// CommandConfiguration captures configuration values shared by the checkout commands.
type CommandConfiguration struct {
	RepositoryPath string   `mapstructure:"path"`
	RemoteName     string   `mapstructure:"remote"`
	CheckoutRoots  []string `mapstructure:"roots"`
}

// DefaultCommandConfiguration provides baseline configuration values for checkout commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath: defaultRepositoryPathConstant,
		RemoteName:     defaultRemoteNameConstant,
		CheckoutRoots:  []string{defaultCheckoutRootConstant},
	}
}

// DefaultConfigurationValues produces Viper defaults for checkout commands.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationPathKeyConstant:   defaults.RepositoryPath,
		rootKey + configurationKeySeparatorConstant + configurationRemoteKeyConstant: defaults.RemoteName,
		rootKey + configurationKeySeparatorConstant + configurationRootsKeyConstant:  defaults.CheckoutRoots,
	}
}

// Sanitize trims configuration values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaultRepositoryPathConstant
	}

	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaultRemoteNameConstant
	}

	sanitized.CheckoutRoots = trimRoots(configuration.CheckoutRoots)
	if len(sanitized.CheckoutRoots) == 0 {
		sanitized.CheckoutRoots = append([]string{}, defaultCheckoutRootConstant)
	}

	return sanitized
}

func trimRoots(rawRoots []string) []string {
	trimmedRoots := make([]string, 0, len(rawRoots))
	for _, candidateRoot := range rawRoots {
		trimmedRoot := strings.TrimSpace(candidateRoot)
		if len(trimmedRoot) == 0 {
			continue
		}
		trimmedRoots = append(trimmedRoots, trimmedRoot)
	}
	return trimmedRoots
}
