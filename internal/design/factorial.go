package design

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/labkit/internal/report"
)

const (
	maximumVariableCountConstant        = 10
	maximumCombinationCountConstant     = 1000000
	valueSeparatorConstant              = ","
	variableAssignmentSeparatorConstant = "="
	factorialExportNameConstant         = "combinations_data.csv"
	factorialTitleConstant              = "Full Factorial Design"
	factorialTableTitleConstant         = "Combinations"
	factorialSummaryTemplateConstant    = "Generated %d combinations."
	noVariablesMessageConstant          = "at least one variable is required"
	tooManyVariablesTemplateConstant    = "at most %d variables are supported, got %d"
	emptyVariableTemplateConstant       = "variable %s has no values"
	duplicateVariableTemplateConstant   = "variable name %q is used more than once"
	valueCountMismatchTemplateConstant  = "Expected %d values, but got %d."
	tooManyCombinationsTemplateConstant = "design would produce %d combinations, more than the supported %d"
	asciiUppercaseOffsetConstant        = 'A'
)

// ErrNoVariables indicates that a factorial request has no variables.
var ErrNoVariables = errors.New(noVariablesMessageConstant)

// ErrTooManyVariables indicates that a factorial request exceeds the supported variable count.
var ErrTooManyVariables = errors.New("too many variables")

// ErrEmptyVariable indicates that a variable has no values.
var ErrEmptyVariable = errors.New("variable has no values")

// ErrDuplicateName indicates that two variables or factors share a name.
var ErrDuplicateName = errors.New("duplicate name")

// ErrTooManyCombinations indicates that the cartesian product is too large to materialize.
var ErrTooManyCombinations = errors.New("too many combinations")

// ValueCountMismatchError reports a variable whose value count differs from the declared count.
type ValueCountMismatchError struct {
	VariableName string
	Expected     int
	Actual       int
}

// Error mirrors the message shown next to the offending variable.
func (mismatch ValueCountMismatchError) Error() string {
	return fmt.Sprintf(valueCountMismatchTemplateConstant, mismatch.Expected, mismatch.Actual)
}

// Variable is one factor of a full factorial design.
type Variable struct {
	Name          string   `json:"name" mapstructure:"name"`
	Values        []string `json:"values" mapstructure:"values"`
	ValuesText    string   `json:"values_text,omitempty" mapstructure:"values_text"`
	ExpectedCount int      `json:"expected_count,omitempty" mapstructure:"expected_count"`
}

// FactorialRequest lists the variables to combine.
type FactorialRequest struct {
	Variables []Variable `json:"variables" mapstructure:"variables"`
}

// FactorialResult holds every combination in variable order.
type FactorialResult struct {
	VariableNames []string
	Combinations  [][]string
}

// Document renders the combinations table.
func (result FactorialResult) Document() report.Document {
	combinationsTable := report.NewTable(factorialExportNameConstant, factorialTableTitleConstant, result.VariableNames...)
	for _, combination := range result.Combinations {
		combinationsTable.AppendRow(combination...)
	}
	return report.Document{
		Title:  factorialTitleConstant,
		Notes:  []string{fmt.Sprintf(factorialSummaryTemplateConstant, len(result.Combinations))},
		Tables: []report.Table{combinationsTable},
	}
}

// ParseValues splits a comma separated list, trimming entries and dropping empty ones.
func ParseValues(rawValues string) []string {
	parsedValues := make([]string, 0)
	for _, candidate := range strings.Split(rawValues, valueSeparatorConstant) {
		trimmedValue := strings.TrimSpace(candidate)
		if len(trimmedValue) == 0 {
			continue
		}
		parsedValues = append(parsedValues, trimmedValue)
	}
	return parsedValues
}

// ParseVariableAssignment parses "NAME=v1,v2" or a bare "v1,v2" list; bare lists receive the default name for position.
func ParseVariableAssignment(position int, assignment string) Variable {
	name, rawValues, hasName := strings.Cut(assignment, variableAssignmentSeparatorConstant)
	if !hasName {
		return Variable{Name: DefaultVariableName(position), Values: ParseValues(assignment)}
	}
	return Variable{Name: strings.TrimSpace(name), Values: ParseValues(rawValues)}
}

// DefaultVariableName returns A, B, C ... for zero-based positions.
func DefaultVariableName(position int) string {
	return string(rune(asciiUppercaseOffsetConstant + position))
}

// GenerateFactorial enumerates the cartesian product with the last variable varying fastest.
func GenerateFactorial(request FactorialRequest) (FactorialResult, error) {
	variables, normalizeError := normalizeVariables(request.Variables)
	if normalizeError != nil {
		return FactorialResult{}, normalizeError
	}

	combinationCount := 1
	variableNames := make([]string, 0, len(variables))
	for _, variable := range variables {
		variableNames = append(variableNames, variable.Name)
		combinationCount *= len(variable.Values)
		if combinationCount > maximumCombinationCountConstant {
			return FactorialResult{}, fmt.Errorf("%w: "+tooManyCombinationsTemplateConstant, ErrTooManyCombinations, combinationCount, maximumCombinationCountConstant)
		}
	}

	combinations := make([][]string, 0, combinationCount)
	valueIndexes := make([]int, len(variables))
	for combinationIndex := 0; combinationIndex < combinationCount; combinationIndex++ {
		combination := make([]string, len(variables))
		for variableIndex, variable := range variables {
			combination[variableIndex] = variable.Values[valueIndexes[variableIndex]]
		}
		combinations = append(combinations, combination)
		advanceOdometer(valueIndexes, variables)
	}

	return FactorialResult{VariableNames: variableNames, Combinations: combinations}, nil
}

func advanceOdometer(valueIndexes []int, variables []Variable) {
	for variableIndex := len(variables) - 1; variableIndex >= 0; variableIndex-- {
		valueIndexes[variableIndex]++
		if valueIndexes[variableIndex] < len(variables[variableIndex].Values) {
			return
		}
		valueIndexes[variableIndex] = 0
	}
}

func normalizeVariables(rawVariables []Variable) ([]Variable, error) {
	if len(rawVariables) == 0 {
		return nil, ErrNoVariables
	}
	if len(rawVariables) > maximumVariableCountConstant {
		return nil, fmt.Errorf("%w: "+tooManyVariablesTemplateConstant, ErrTooManyVariables, maximumVariableCountConstant, len(rawVariables))
	}

	seenNames := make(map[string]struct{}, len(rawVariables))
	normalizedVariables := make([]Variable, 0, len(rawVariables))
	for position, rawVariable := range rawVariables {
		variable := Variable{Name: strings.TrimSpace(rawVariable.Name), ExpectedCount: rawVariable.ExpectedCount}
		if len(variable.Name) == 0 {
			variable.Name = DefaultVariableName(position)
		}
		for _, rawValue := range rawVariable.Values {
			variable.Values = append(variable.Values, ParseValues(rawValue)...)
		}
		variable.Values = append(variable.Values, ParseValues(rawVariable.ValuesText)...)

		if _, duplicate := seenNames[variable.Name]; duplicate {
			return nil, fmt.Errorf("%w: "+duplicateVariableTemplateConstant, ErrDuplicateName, variable.Name)
		}
		seenNames[variable.Name] = struct{}{}

		if variable.ExpectedCount > 0 && variable.ExpectedCount != len(variable.Values) {
			return nil, ValueCountMismatchError{VariableName: variable.Name, Expected: variable.ExpectedCount, Actual: len(variable.Values)}
		}
		if len(variable.Values) == 0 {
			return nil, fmt.Errorf("%w: "+emptyVariableTemplateConstant, ErrEmptyVariable, strconv.Quote(variable.Name))
		}
		normalizedVariables = append(normalizedVariables, variable)
	}
	return normalizedVariables, nil
}
