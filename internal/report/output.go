package report

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const (
	outputFormatFlagUsageConstant      = "Output format: table, csv, or json"
	outputDestinationFlagNameConstant  = "output"
	outputDestinationFlagUsageConstant = "Write the result to this file instead of standard output"
	outputFormatConfigurationKey       = "format"
	configurationKeySeparatorConstant  = "."
)

// OutputConfiguration captures persisted rendering preferences.
type OutputConfiguration struct {
	Format string `mapstructure:"format"`
}

// DefaultOutputConfiguration returns the console table preference.
func DefaultOutputConfiguration() OutputConfiguration {
	return OutputConfiguration{Format: string(FormatTable)}
}

// Sanitize trims and lowercases the configured format.
func (configuration OutputConfiguration) Sanitize() OutputConfiguration {
	sanitized := configuration
	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	return sanitized
}

// DefaultConfigurationValues exposes the output defaults under the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{
		prefix + configurationKeySeparatorConstant + outputFormatConfigurationKey: string(FormatTable),
	}
}

// OutputOptions selects a format and a destination for one rendering.
type OutputOptions struct {
	Format      Format
	Destination string
}

// Write renders the document to the destination, or to fallback when no destination is set.
func (options OutputOptions) Write(fallback io.Writer, document Document) error {
	renderer := NewRenderer(options.Format)
	return WriteDestination(options.Destination, fallback, func(writer io.Writer) error {
		return renderer.Render(writer, document)
	})
}

// BindOutputFlags registers --format and --output on a command.
func BindOutputFlags(command *cobra.Command) {
	command.Flags().String(formatFlagNameConstant, "", outputFormatFlagUsageConstant)
	command.Flags().String(outputDestinationFlagNameConstant, "", outputDestinationFlagUsageConstant)
}

// ReadOutputOptions resolves the output flags, falling back to the configured format.
func ReadOutputOptions(command *cobra.Command, configuration OutputConfiguration) (OutputOptions, error) {
	rawFormat := configuration.Sanitize().Format
	if command.Flags().Changed(formatFlagNameConstant) {
		rawFormat, _ = command.Flags().GetString(formatFlagNameConstant)
	}
	format, formatError := ParseFormat(rawFormat)
	if formatError != nil {
		return OutputOptions{}, formatError
	}
	destination, _ := command.Flags().GetString(outputDestinationFlagNameConstant)
	return OutputOptions{Format: format, Destination: strings.TrimSpace(destination)}, nil
}
