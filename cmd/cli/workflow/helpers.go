package workflow

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pathutils "github.com/temirov/labkit/internal/utils/path"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

var planPathExpander = pathutils.NewHomeExpander()

// ResolvePlanPath expands the plan path. Relative configured plans resolve next to the configuration file that named them.
func ResolvePlanPath(argumentPath string, configuredPath string, configurationFilePath string) string {
	if expandedArgument := planPathExpander.Expand(argumentPath); len(expandedArgument) > 0 {
		return expandedArgument
	}
	if len(configurationFilePath) == 0 {
		return planPathExpander.Expand(configuredPath)
	}
	return planPathExpander.ResolveWithin(filepath.Dir(configurationFilePath), configuredPath)
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
