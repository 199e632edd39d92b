package workflow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configurationLoadErrorTemplateConstant            = "failed to load workflow configuration: %w"
	configurationParseErrorTemplateConstant           = "failed to parse workflow configuration: %w"
	configurationPathRequiredMessageConstant          = "workflow configuration path must be provided"
	configurationEmptyStepsMessageConstant            = "workflow configuration must define at least one step"
	configurationOperationMissingMessageConstant      = "workflow step missing operation name"
	configurationToolNameRequiredMessageConstant      = "workflow tool names must be non-empty"
	configurationDuplicateToolNameMessageConstant     = "workflow configuration defines duplicate tool names"
	configurationToolOperationMissingTemplateConstant = "workflow tool %s missing operation name"
	configurationUnknownToolTemplateConstant          = "workflow step references unknown tool %s"
)

// OperationType identifies supported workflow operations.
type OperationType string

// Supported workflow operations.
const (
	OperationTypeFactorial      OperationType = OperationType("factorial")
	OperationTypeBoxBehnken     OperationType = OperationType("box-behnken")
	OperationTypeDilution       OperationType = OperationType("dilution")
	OperationTypeSerialDilution OperationType = OperationType("serial-dilution")
	OperationTypeIC50           OperationType = OperationType("ic50")
	OperationTypeReagentImport  OperationType = OperationType("reagent-import")
)

// Configuration describes the ordered workflow steps and reusable tool definitions loaded from YAML or JSON.
type Configuration struct {
	Tools []NamedToolConfiguration `yaml:"tools" json:"tools"`
	Steps []StepConfiguration      `yaml:"steps" json:"steps"`

	toolLookup map[string]ToolConfiguration
}

// NamedToolConfiguration captures a reusable operation definition along with its reference name.
type NamedToolConfiguration struct {
	Name              string `yaml:"name" json:"name"`
	ToolConfiguration `yaml:",inline" json:",inline"`
}

// StepConfiguration associates an operation type with declarative options.
type StepConfiguration struct {
	Operation OperationType  `yaml:"operation" json:"operation"`
	Options   map[string]any `yaml:"with" json:"with"`
}

// ToolConfiguration describes reusable workflow options for a specific operation type.
type ToolConfiguration struct {
	Operation OperationType  `yaml:"operation" json:"operation"`
	Options   map[string]any `yaml:"with" json:"with"`
}

// LoadConfiguration reads the workflow definition from disk and performs basic validation.
func LoadConfiguration(filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, errors.New(configurationPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}
	return ParseConfiguration(contentBytes)
}

// ParseConfiguration decodes a plan. A top-level "workflow" mapping wrapping tools and steps is accepted too.
func ParseConfiguration(contentBytes []byte) (Configuration, error) {
	var configuration Configuration
	if unmarshalError := yaml.Unmarshal(contentBytes, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}
	if len(configuration.Tools) == 0 && len(configuration.Steps) == 0 {
		var wrapper struct {
			Workflow Configuration `yaml:"workflow" json:"workflow"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil {
			configuration = wrapper.Workflow
		}
	}

	toolLookup, toolsError := buildToolLookup(configuration.Tools)
	if toolsError != nil {
		return Configuration{}, toolsError
	}
	configuration.toolLookup = toolLookup

	if len(configuration.Steps) == 0 {
		return Configuration{}, errors.New(configurationEmptyStepsMessageConstant)
	}

	for stepIndex := range configuration.Steps {
		resolvedStep, resolveError := configuration.resolveStep(configuration.Steps[stepIndex])
		if resolveError != nil {
			return Configuration{}, resolveError
		}
		configuration.Steps[stepIndex] = resolvedStep
	}

	return configuration, nil
}

// resolveStep merges a referenced tool into the step. Step options override tool options.
func (configuration Configuration) resolveStep(step StepConfiguration) (StepConfiguration, error) {
	resolved := StepConfiguration{Operation: OperationType(strings.TrimSpace(string(step.Operation))), Options: map[string]any{}}

	toolName, referencesTool := step.Options[optionToolKeyConstant].(string)
	if referencesTool {
		tool, exists := configuration.toolLookup[strings.TrimSpace(toolName)]
		if !exists {
			return StepConfiguration{}, fmt.Errorf(configurationUnknownToolTemplateConstant, toolName)
		}
		if len(resolved.Operation) == 0 {
			resolved.Operation = tool.Operation
		}
		for key, value := range tool.Options {
			resolved.Options[key] = value
		}
	}
	for key, value := range step.Options {
		if key == optionToolKeyConstant {
			continue
		}
		resolved.Options[key] = value
	}

	if len(resolved.Operation) == 0 {
		return StepConfiguration{}, errors.New(configurationOperationMissingMessageConstant)
	}
	return resolved, nil
}

func buildToolLookup(tools []NamedToolConfiguration) (map[string]ToolConfiguration, error) {
	lookup := make(map[string]ToolConfiguration, len(tools))
	for toolIndex := range tools {
		trimmedName := strings.TrimSpace(tools[toolIndex].Name)
		if len(trimmedName) == 0 {
			return nil, errors.New(configurationToolNameRequiredMessageConstant)
		}
		if _, exists := lookup[trimmedName]; exists {
			return nil, errors.New(configurationDuplicateToolNameMessageConstant)
		}
		trimmedOperation := OperationType(strings.TrimSpace(string(tools[toolIndex].Operation)))
		if len(trimmedOperation) == 0 {
			return nil, fmt.Errorf(configurationToolOperationMissingTemplateConstant, trimmedName)
		}
		tools[toolIndex].Name = trimmedName
		lookup[trimmedName] = ToolConfiguration{
			Operation: trimmedOperation,
			Options:   tools[toolIndex].Options,
		}
	}

	return lookup, nil
}
