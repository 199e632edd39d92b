package dilution

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	reagentLookupErrorTemplateConstant = "unable to look up reagent %q: %w"
	molecularWeightResolvedMessage     = "Using stored molecular weight"
	dilutionPlannedMessageConstant     = "Planned dilution"
	reagentFieldConstant               = "reagent"
	molecularWeightFieldConstant       = "molecular_weight"
	dilutionFactorFieldConstant        = "dilution_factor"
	twoStepFieldConstant               = "two_step"
	stockFormFieldConstant             = "stock_form"
)

// ReagentLookup resolves stored molecular weights by reagent name.
type ReagentLookup interface {
	LookupMolecularWeight(executionContext context.Context, reagentName string) (float64, bool, error)
}

// Service plans dilutions, filling missing molecular weights from the reagent store.
type Service struct {
	logger        *zap.Logger
	reagentLookup ReagentLookup
}

// NewService constructs a Service. The lookup may be nil.
func NewService(logger *zap.Logger, reagentLookup ReagentLookup) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, reagentLookup: reagentLookup}
}

// Plan resolves the molecular weight when absent and calculates the dilution.
func (service *Service) Plan(executionContext context.Context, request Request) (Result, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}
	resolvedRequest, resolveError := service.resolveMolecularWeight(executionContext, request)
	if resolveError != nil {
		return Result{}, resolveError
	}

	result, calculationError := Calculate(resolvedRequest)
	if calculationError != nil {
		return Result{}, calculationError
	}
	service.logger.Info(dilutionPlannedMessageConstant,
		zap.String(reagentFieldConstant, result.Request.ReagentName),
		zap.String(stockFormFieldConstant, string(result.Request.StockForm)),
		zap.Float64(dilutionFactorFieldConstant, result.DilutionFactor),
		zap.Bool(twoStepFieldConstant, result.TwoStep),
	)
	return result, nil
}

func (service *Service) resolveMolecularWeight(executionContext context.Context, request Request) (Request, error) {
	if service.reagentLookup == nil || request.MolecularWeight > 0 {
		return request, nil
	}
	reagentName := request.WithDefaults().ReagentName
	molecularWeight, found, lookupError := service.reagentLookup.LookupMolecularWeight(executionContext, reagentName)
	if lookupError != nil {
		return Request{}, fmt.Errorf(reagentLookupErrorTemplateConstant, reagentName, lookupError)
	}
	if !found {
		return request, nil
	}
	service.logger.Debug(molecularWeightResolvedMessage, zap.String(reagentFieldConstant, reagentName), zap.Float64(molecularWeightFieldConstant, molecularWeight))
	resolvedRequest := request
	resolvedRequest.MolecularWeight = molecularWeight
	return resolvedRequest, nil
}
