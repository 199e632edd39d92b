package dilution

import (
	"strings"

	"github.com/temirov/labkit/internal/units"
)

const solventConfigurationKeyConstant = "solvent"

// CommandConfiguration captures persisted defaults for the dilute command.
type CommandConfiguration struct {
	Solvent string `mapstructure:"solvent"`
}

// DefaultCommandConfiguration returns baseline configuration values for dilution planning.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{Solvent: units.DefaultSolvent}
}

// Sanitize trims configured values and restores the default solvent when empty.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Solvent = strings.TrimSpace(configuration.Solvent)
	if len(sanitized.Solvent) == 0 {
		sanitized.Solvent = units.DefaultSolvent
	}
	return sanitized
}

// DefaultConfigurationValues produces Viper defaults for the dilute command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + solventConfigurationKeyConstant: defaults.Solvent,
	}
}
