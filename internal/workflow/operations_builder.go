package workflow

import (
	"errors"
	"fmt"

	"github.com/temirov/labkit/internal/report"
)

const (
	unsupportedOperationTemplateConstant = "unsupported workflow operation: %s"
	reagentImportManifestMessageConstant = "reagent-import step requires a manifest path"
)

// BuildOperations converts the declarative configuration into executable operations.
// Steps without a format render with defaultFormat.
func BuildOperations(configuration Configuration, defaultFormat report.Format) ([]Operation, error) {
	operations := make([]Operation, 0, len(configuration.Steps))
	for stepIndex := range configuration.Steps {
		step := configuration.Steps[stepIndex]
		operation, buildError := buildOperationFromStep(step, defaultFormat)
		if buildError != nil {
			return nil, buildError
		}
		operations = append(operations, operation)
	}
	return operations, nil
}

func buildOperationFromStep(step StepConfiguration, defaultFormat report.Format) (Operation, error) {
	options, splitError := splitStepOptions(step.Operation, step.Options, defaultFormat)
	if splitError != nil {
		return nil, splitError
	}

	var operation Operation
	var request any
	switch step.Operation {
	case OperationTypeFactorial:
		factorialOperation := &FactorialOperation{Output: options.output}
		operation, request = factorialOperation, &factorialOperation.Request
	case OperationTypeBoxBehnken:
		boxBehnkenOperation := &BoxBehnkenOperation{Output: options.output}
		operation, request = boxBehnkenOperation, &boxBehnkenOperation.Request
	case OperationTypeDilution:
		dilutionOperation := &DilutionOperation{Output: options.output}
		operation, request = dilutionOperation, &dilutionOperation.Request
	case OperationTypeSerialDilution:
		serialOperation := &SerialDilutionOperation{Output: options.output}
		operation, request = serialOperation, &serialOperation.Request
	case OperationTypeIC50:
		ic50Operation := &IC50Operation{Output: options.output}
		operation, request = ic50Operation, &ic50Operation.Request
	case OperationTypeReagentImport:
		return buildReagentImportOperation(options)
	default:
		return nil, fmt.Errorf(unsupportedOperationTemplateConstant, step.Operation)
	}

	if decodeError := options.decode(request); decodeError != nil {
		return nil, decodeError
	}
	return operation, nil
}

func buildReagentImportOperation(options stepOptions) (Operation, error) {
	manifestPath, manifestError := options.takeString(optionManifestKeyConstant)
	if manifestError != nil {
		return nil, manifestError
	}
	if len(manifestPath) == 0 {
		return nil, errors.New(reagentImportManifestMessageConstant)
	}
	if decodeError := options.decode(&struct{}{}); decodeError != nil {
		return nil, decodeError
	}
	return &ReagentImportOperation{ManifestPath: manifestPath}, nil
}
