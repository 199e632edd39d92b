package workflow

import "strings"

const (
	planConfigurationKeyConstant   = "plan"
	dryRunConfigurationKeyConstant = "dry_run"
)

// CommandConfiguration captures configuration values for workflow.
type CommandConfiguration struct {
	Plan   string `mapstructure:"plan"`
	DryRun bool   `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration provides default workflow command settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// Sanitize normalizes configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Plan = strings.TrimSpace(configuration.Plan)
	return sanitized
}

// DefaultConfigurationValues produces Viper defaults for the workflow command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + planConfigurationKeyConstant:   defaults.Plan,
		rootKey + "." + dryRunConfigurationKeyConstant: defaults.DryRun,
	}
}
