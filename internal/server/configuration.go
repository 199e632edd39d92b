package server

import "strings"

const (
	addressConfigurationKeyConstant = "address"
	defaultAddressConstant          = "127.0.0.1:8501"
)

// CommandConfiguration captures the listen address of the HTTP server.
type CommandConfiguration struct {
	Address string `mapstructure:"address"`
}

// DefaultCommandConfiguration listens on the loopback interface.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Address: defaultAddressConstant}
}

// Sanitize trims the address and restores the default when blank.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Address = strings.TrimSpace(configuration.Address)
	if len(sanitized.Address) == 0 {
		sanitized.Address = defaultAddressConstant
	}
	return sanitized
}

// DefaultConfigurationValues exposes the defaults under rootKey for configuration merging.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{
		rootKey + "." + addressConfigurationKeyConstant: defaultAddressConstant,
	}
}
