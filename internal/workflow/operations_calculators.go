package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/serialdilution"
)

const (
	planLineTemplateConstant     = "WORKFLOW-PLAN: %s → %s\n"
	stepCompletedMessageConstant = "Workflow step completed"
	operationLogFieldConstant    = "operation"
	destinationLogFieldConstant  = "destination"
)

// FactorialOperation writes a full factorial design.
type FactorialOperation struct {
	Request design.FactorialRequest
	Output  report.OutputOptions
}

// Name identifies the operation type.
func (operation *FactorialOperation) Name() string {
	return string(OperationTypeFactorial)
}

// Execute generates the design and writes it to the configured destination.
func (operation *FactorialOperation) Execute(executionContext context.Context, environment *Environment) error {
	return writeCalculation(environment, operation.Name(), operation.Output, func() (report.Document, error) {
		result, planError := environment.DesignService.Factorial(executionContext, operation.Request)
		return result.Document(), planError
	})
}

// BoxBehnkenOperation writes a Box-Behnken design.
type BoxBehnkenOperation struct {
	Request design.BoxBehnkenRequest
	Output  report.OutputOptions
}

// Name identifies the operation type.
func (operation *BoxBehnkenOperation) Name() string {
	return string(OperationTypeBoxBehnken)
}

// Execute generates the design and writes it to the configured destination.
func (operation *BoxBehnkenOperation) Execute(executionContext context.Context, environment *Environment) error {
	return writeCalculation(environment, operation.Name(), operation.Output, func() (report.Document, error) {
		result, planError := environment.DesignService.BoxBehnken(executionContext, operation.Request)
		return result.Document(), planError
	})
}

// DilutionOperation writes a dilution protocol.
type DilutionOperation struct {
	Request dilution.Request
	Output  report.OutputOptions
}

// Name identifies the operation type.
func (operation *DilutionOperation) Name() string {
	return string(OperationTypeDilution)
}

// Execute plans the dilution and writes the protocol.
func (operation *DilutionOperation) Execute(executionContext context.Context, environment *Environment) error {
	return writeCalculation(environment, operation.Name(), operation.Output, func() (report.Document, error) {
		result, planError := environment.DilutionService.Plan(executionContext, operation.Request)
		return result.Document(), planError
	})
}

// SerialDilutionOperation writes a serial dilution protocol.
type SerialDilutionOperation struct {
	Request serialdilution.Request
	Output  report.OutputOptions
}

// Name identifies the operation type.
func (operation *SerialDilutionOperation) Name() string {
	return string(OperationTypeSerialDilution)
}

// Execute plans the series and writes the protocol.
func (operation *SerialDilutionOperation) Execute(executionContext context.Context, environment *Environment) error {
	return writeCalculation(environment, operation.Name(), operation.Output, func() (report.Document, error) {
		result, planError := environment.SerialDilutionService.Plan(executionContext, operation.Request)
		return result.Document(), planError
	})
}

// IC50Operation writes an IC50 dose-response protocol.
type IC50Operation struct {
	Request ic50.Request
	Output  report.OutputOptions
}

// Name identifies the operation type.
func (operation *IC50Operation) Name() string {
	return string(OperationTypeIC50)
}

// Execute plans the dose-response series and writes the protocol.
func (operation *IC50Operation) Execute(executionContext context.Context, environment *Environment) error {
	return writeCalculation(environment, operation.Name(), operation.Output, func() (report.Document, error) {
		result, planError := environment.IC50Service.Plan(executionContext, operation.Request)
		return result.Document(), planError
	})
}

func writeCalculation(environment *Environment, operationName string, output report.OutputOptions, calculate func() (report.Document, error)) error {
	destination := report.DescribeDestination(output.Destination)
	if environment.DryRun {
		_, writeError := fmt.Fprintf(environment.Output, planLineTemplateConstant, operationName, destination)
		return writeError
	}

	document, calculationError := calculate()
	if calculationError != nil {
		return calculationError
	}
	if writeError := output.Write(environment.Output, document); writeError != nil {
		return writeError
	}
	environment.Logger.Info(stepCompletedMessageConstant, zap.String(operationLogFieldConstant, operationName), zap.String(destinationLogFieldConstant, destination))
	return nil
}
