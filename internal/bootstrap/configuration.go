package bootstrap

import "strings"

const (
	workspaceConfigurationKeyConstant = "workspace"
	manifestConfigurationKeyConstant  = "manifest"
	launchConfigurationKeyConstant    = "launch"
	defaultWorkspaceConstant          = ".labkit"
	defaultManifestConstant           = "reagents.seed.yaml"
)

// CommandConfiguration captures the workspace layout and launch preference.
type CommandConfiguration struct {
	Workspace string `mapstructure:"workspace"`
	Manifest  string `mapstructure:"manifest"`
	Launch    bool   `mapstructure:"launch"`
}

// DefaultCommandConfiguration prepares .labkit from reagents.seed.yaml and launches the server.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Workspace: defaultWorkspaceConstant, Manifest: defaultManifestConstant, Launch: true}
}

// Sanitize trims paths and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Workspace = strings.TrimSpace(configuration.Workspace)
	if len(sanitized.Workspace) == 0 {
		sanitized.Workspace = defaultWorkspaceConstant
	}
	sanitized.Manifest = strings.TrimSpace(configuration.Manifest)
	if len(sanitized.Manifest) == 0 {
		sanitized.Manifest = defaultManifestConstant
	}
	return sanitized
}

// DefaultConfigurationValues exposes the defaults under rootKey for configuration merging.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + workspaceConfigurationKeyConstant: defaults.Workspace,
		rootKey + "." + manifestConfigurationKeyConstant:  defaults.Manifest,
		rootKey + "." + launchConfigurationKeyConstant:    defaults.Launch,
	}
}
