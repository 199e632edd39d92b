package workflow

import (
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"

	"github.com/temirov/labkit/internal/report"
)

const (
	optionToolKeyConstant         = "tool"
	optionOutputKeyConstant       = "output"
	optionFormatKeyConstant       = "format"
	optionManifestKeyConstant     = "manifest"
	optionsTagNameConstant        = "mapstructure"
	optionsDecodeErrorTemplate    = "invalid %s options: %w"
	optionsValueTypeErrorTemplate = "invalid %s options: %s must be a string"
)

// stepOptions separates the output settings shared by every step from the operation specific options.
type stepOptions struct {
	operationType OperationType
	output        report.OutputOptions
	remaining     map[string]any
}

func splitStepOptions(operationType OperationType, options map[string]any, defaultFormat report.Format) (stepOptions, error) {
	split := stepOptions{operationType: operationType, output: report.OutputOptions{Format: defaultFormat}, remaining: map[string]any{}}
	for key, value := range options {
		split.remaining[key] = value
	}

	destination, destinationError := split.takeString(optionOutputKeyConstant)
	if destinationError != nil {
		return stepOptions{}, destinationError
	}
	split.output.Destination = destination

	rawFormat, formatError := split.takeString(optionFormatKeyConstant)
	if formatError != nil {
		return stepOptions{}, formatError
	}
	if len(rawFormat) > 0 {
		format, parseError := report.ParseFormat(rawFormat)
		if parseError != nil {
			return stepOptions{}, fmt.Errorf(optionsDecodeErrorTemplate, operationType, parseError)
		}
		split.output.Format = format
	}
	return split, nil
}

func (options *stepOptions) takeString(key string) (string, error) {
	rawValue, exists := options.remaining[key]
	if !exists {
		return "", nil
	}
	delete(options.remaining, key)
	if rawValue == nil {
		return "", nil
	}
	stringValue, isString := rawValue.(string)
	if !isString {
		return "", fmt.Errorf(optionsValueTypeErrorTemplate, options.operationType, key)
	}
	return strings.TrimSpace(stringValue), nil
}

// decode fills target from the remaining options. Unknown keys are rejected.
func (options stepOptions) decode(target any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          optionsTagNameConstant,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if decoderError != nil {
		return fmt.Errorf(optionsDecodeErrorTemplate, options.operationType, decoderError)
	}
	if decodeError := decoder.Decode(options.remaining); decodeError != nil {
		return fmt.Errorf(optionsDecodeErrorTemplate, options.operationType, decodeError)
	}
	return nil
}
