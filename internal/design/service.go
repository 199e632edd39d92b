package design

import (
	"context"

	"go.uber.org/zap"
)

const (
	factorialGeneratedMessageConstant  = "Generated factorial design"
	boxBehnkenGeneratedMessageConstant = "Generated Box-Behnken design"
	levelOrderWarningMessageConstant   = "Factor levels are not increasing"
	variableCountFieldConstant         = "variables"
	combinationCountFieldConstant      = "combinations"
	factorCountFieldConstant           = "factors"
	runCountFieldConstant              = "runs"
	warningFieldConstant               = "warning"
)

// Service generates experiment designs and logs their outcome.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a Service. A nil logger disables logging.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Factorial generates a full factorial design.
func (service *Service) Factorial(executionContext context.Context, request FactorialRequest) (FactorialResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return FactorialResult{}, contextError
	}
	result, generationError := GenerateFactorial(request)
	if generationError != nil {
		return FactorialResult{}, generationError
	}
	service.logger.Info(factorialGeneratedMessageConstant,
		zap.Int(variableCountFieldConstant, len(result.VariableNames)),
		zap.Int(combinationCountFieldConstant, len(result.Combinations)),
	)
	return result, nil
}

// BoxBehnken generates a Box-Behnken design, logging a warning for every factor with unordered levels.
func (service *Service) BoxBehnken(executionContext context.Context, request BoxBehnkenRequest) (BoxBehnkenResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return BoxBehnkenResult{}, contextError
	}
	result, generationError := GenerateBoxBehnken(request)
	if generationError != nil {
		return BoxBehnkenResult{}, generationError
	}
	for _, warning := range result.Warnings {
		service.logger.Warn(levelOrderWarningMessageConstant, zap.String(warningFieldConstant, warning))
	}
	service.logger.Info(boxBehnkenGeneratedMessageConstant,
		zap.Int(factorCountFieldConstant, len(result.Factors)),
		zap.Int(runCountFieldConstant, result.Runs()),
	)
	return result, nil
}
