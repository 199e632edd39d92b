package publish

import "strings"

const (
	remoteConfigurationKeyConstant = "remote"
	branchConfigurationKeyConstant = "branch"
	defaultRemoteNameConstant      = "origin"
	defaultBranchNameConstant      = "main"
)

// CommandConfiguration captures the push target of the publish command.
type CommandConfiguration struct {
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
}

// DefaultCommandConfiguration pushes to origin/main.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Remote: defaultRemoteNameConstant, Branch: defaultBranchNameConstant}
}

// Sanitize trims values and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Remote = strings.TrimSpace(configuration.Remote)
	if len(sanitized.Remote) == 0 {
		sanitized.Remote = defaultRemoteNameConstant
	}
	sanitized.Branch = strings.TrimSpace(configuration.Branch)
	if len(sanitized.Branch) == 0 {
		sanitized.Branch = defaultBranchNameConstant
	}
	return sanitized
}

// DefaultConfigurationValues exposes the defaults under rootKey for configuration merging.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + remoteConfigurationKeyConstant: defaults.Remote,
		rootKey + "." + branchConfigurationKeyConstant: defaults.Branch,
	}
}
