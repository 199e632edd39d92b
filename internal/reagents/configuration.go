package reagents

import (
	"context"
	"strings"
)

const (
	backendConfigurationKeyConstant = "backend"
	pathConfigurationKeyConstant    = "path"
)

// CommandConfiguration captures where the reagent catalog lives.
type CommandConfiguration struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// DefaultCommandConfiguration returns the JSON catalog in the working directory.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Backend: string(BackendJSON), Path: jsonStoreFileNameConstant}
}

// Sanitize trims values and derives the path from the backend when it is empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Backend = strings.ToLower(strings.TrimSpace(configuration.Backend))
	if len(sanitized.Backend) == 0 {
		sanitized.Backend = string(BackendJSON)
	}
	sanitized.Path = strings.TrimSpace(configuration.Path)
	if len(sanitized.Path) == 0 {
		sanitized.Path = Backend(sanitized.Backend).DefaultFileName()
	}
	return sanitized
}

// Open opens the configured store.
func (configuration CommandConfiguration) Open(executionContext context.Context) (Store, error) {
	sanitized := configuration.Sanitize()
	backend, backendError := ParseBackend(sanitized.Backend)
	if backendError != nil {
		return nil, backendError
	}
	return OpenStore(executionContext, backend, sanitized.Path)
}

// DefaultConfigurationValues produces Viper defaults for the reagent commands.
// The path stays blank so that Sanitize derives it from the configured backend.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{
		rootKey + "." + backendConfigurationKeyConstant: DefaultCommandConfiguration().Backend,
		rootKey + "." + pathConfigurationKeyConstant:    "",
	}
}
