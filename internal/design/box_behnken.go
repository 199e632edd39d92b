package design

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/labkit/internal/report"
)

const (
	minimumFactorCountConstant        = 3
	maximumFactorCountConstant        = 10
	maximumCenterPointsConstant       = 10
	defaultFactorNamePrefixConstant   = "Factor_"
	boxBehnkenTitleConstant           = "Box-Behnken Design"
	boxBehnkenRealTableTitleConstant  = "Experimental Runs (Actual Values)"
	boxBehnkenCodedTableTitleConstant = "Coded Design Matrix (-1, 0, +1)"
	boxBehnkenExportTemplateConstant  = "BBD_%dfactors_%druns.csv"
	boxBehnkenCodedExportTemplate     = "BBD_%dfactors_%druns_coded.csv"
	boxBehnkenSummaryTemplateConstant = "Generated a Box-Behnken design with %d runs."
	factorCountTemplateConstant       = "Box-Behnken designs need between %d and %d factors, got %d"
	centerPointsTemplateConstant      = "center point replicates must be between 0 and %d, got %d"
	levelOrderWarningTemplateConstant = "Levels of %s should be in increasing order (Low < Center < High)."
	factorialPairRowsConstant         = 4
	factorLevelCountConstant          = 3
	factorLevelsTemplateConstant      = "factor %s needs low,center,high levels, got %q"
	factorLevelValueTemplateConstant  = "factor %s level %q is not a number: %w"
)

// ErrFactorCount indicates that a Box-Behnken request has too few or too many factors.
var ErrFactorCount = errors.New("unsupported factor count")

// ErrInvalidFactorLevels indicates that a factor assignment does not carry three numeric levels.
var ErrInvalidFactorLevels = errors.New("invalid factor levels")

// ErrCenterPoints indicates that the requested center replicates are out of range.
var ErrCenterPoints = errors.New("unsupported center point count")

var defaultCenterPointsByFactorCount = []int{0, 0, 0, 3, 3, 6, 6, 6, 8, 9, 10}

var twoLevelFactorial = [factorialPairRowsConstant][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

// Factor is one Box-Behnken factor with its real levels.
type Factor struct {
	Name   string  `json:"name" mapstructure:"name"`
	Low    float64 `json:"low" mapstructure:"low"`
	Center float64 `json:"center" mapstructure:"center"`
	High   float64 `json:"high" mapstructure:"high"`
}

// Level maps a coded level onto the real value.
func (factor Factor) Level(coded int) float64 {
	switch {
	case coded < 0:
		return factor.Low
	case coded > 0:
		return factor.High
	default:
		return factor.Center
	}
}

// LevelsIncreasing reports whether Low < Center < High.
func (factor Factor) LevelsIncreasing() bool {
	return factor.Low < factor.Center && factor.Center < factor.High
}

// BoxBehnkenRequest describes a Box-Behnken design.
// A nil CenterPoints selects the conventional replicate count for the factor count.
type BoxBehnkenRequest struct {
	Factors      []Factor `json:"factors" mapstructure:"factors"`
	CenterPoints *int     `json:"center_points,omitempty" mapstructure:"center_points"`
}

// BoxBehnkenResult holds the coded and real design matrices.
type BoxBehnkenResult struct {
	Factors  []Factor
	Coded    [][]int
	Real     [][]float64
	Warnings []string
}

// Runs returns the number of experimental runs.
func (result BoxBehnkenResult) Runs() int {
	return len(result.Coded)
}

// ExportName returns the conventional file name of the real design table.
func (result BoxBehnkenResult) ExportName() string {
	return fmt.Sprintf(boxBehnkenExportTemplateConstant, len(result.Factors), result.Runs())
}

// Document renders the real runs first and the coded matrix second.
func (result BoxBehnkenResult) Document() report.Document {
	factorNames := make([]string, 0, len(result.Factors))
	for _, factor := range result.Factors {
		factorNames = append(factorNames, factor.Name)
	}

	realTable := report.NewTable(result.ExportName(), boxBehnkenRealTableTitleConstant, factorNames...)
	for _, realRow := range result.Real {
		cells := make([]string, 0, len(realRow))
		for _, value := range realRow {
			cells = append(cells, strconv.FormatFloat(value, 'f', -1, 64))
		}
		realTable.AppendRow(cells...)
	}

	codedTable := report.NewTable(fmt.Sprintf(boxBehnkenCodedExportTemplate, len(result.Factors), result.Runs()), boxBehnkenCodedTableTitleConstant, factorNames...)
	for _, codedRow := range result.Coded {
		cells := make([]string, 0, len(codedRow))
		for _, level := range codedRow {
			cells = append(cells, strconv.Itoa(level))
		}
		codedTable.AppendRow(cells...)
	}

	notes := append([]string{fmt.Sprintf(boxBehnkenSummaryTemplateConstant, result.Runs())}, result.Warnings...)
	return report.Document{Title: boxBehnkenTitleConstant, Notes: notes, Tables: []report.Table{realTable, codedTable}}
}

// ParseFactorAssignment parses "NAME=low,center,high" or a bare "low,center,high" list.
func ParseFactorAssignment(position int, assignment string) (Factor, error) {
	factorName := defaultFactorNamePrefixConstant + DefaultVariableName(position)
	rawLevels := assignment
	if name, levels, hasName := strings.Cut(assignment, variableAssignmentSeparatorConstant); hasName {
		if trimmedName := strings.TrimSpace(name); len(trimmedName) > 0 {
			factorName = trimmedName
		}
		rawLevels = levels
	}

	levelTexts := ParseValues(rawLevels)
	if len(levelTexts) != factorLevelCountConstant {
		return Factor{}, fmt.Errorf("%w: "+factorLevelsTemplateConstant, ErrInvalidFactorLevels, factorName, rawLevels)
	}
	levels := make([]float64, 0, factorLevelCountConstant)
	for _, levelText := range levelTexts {
		level, parseError := strconv.ParseFloat(levelText, 64)
		if parseError != nil {
			return Factor{}, fmt.Errorf("%w: "+factorLevelValueTemplateConstant, ErrInvalidFactorLevels, factorName, levelText, parseError)
		}
		levels = append(levels, level)
	}
	return Factor{Name: factorName, Low: levels[0], Center: levels[1], High: levels[2]}, nil
}

// DefaultCenterPoints returns the conventional center replicate count for the factor count.
func DefaultCenterPoints(factorCount int) int {
	if factorCount < 0 || factorCount >= len(defaultCenterPointsByFactorCount) {
		return defaultCenterPointsByFactorCount[len(defaultCenterPointsByFactorCount)-1]
	}
	return defaultCenterPointsByFactorCount[factorCount]
}

// CodedBoxBehnken builds the coded matrix: a two-level factorial on every factor pair followed by center rows.
func CodedBoxBehnken(factorCount int, centerPoints int) [][]int {
	pairCount := factorCount * (factorCount - 1) / 2
	codedMatrix := make([][]int, 0, pairCount*factorialPairRowsConstant+centerPoints)
	for firstFactor := 0; firstFactor < factorCount-1; firstFactor++ {
		for secondFactor := firstFactor + 1; secondFactor < factorCount; secondFactor++ {
			for _, levels := range twoLevelFactorial {
				codedRow := make([]int, factorCount)
				codedRow[firstFactor] = levels[0]
				codedRow[secondFactor] = levels[1]
				codedMatrix = append(codedMatrix, codedRow)
			}
		}
	}
	for centerIndex := 0; centerIndex < centerPoints; centerIndex++ {
		codedMatrix = append(codedMatrix, make([]int, factorCount))
	}
	return codedMatrix
}

// GenerateBoxBehnken validates the request and builds both matrices.
// Levels that are not strictly increasing produce warnings rather than errors.
func GenerateBoxBehnken(request BoxBehnkenRequest) (BoxBehnkenResult, error) {
	factorCount := len(request.Factors)
	if factorCount < minimumFactorCountConstant || factorCount > maximumFactorCountConstant {
		return BoxBehnkenResult{}, fmt.Errorf("%w: "+factorCountTemplateConstant, ErrFactorCount, minimumFactorCountConstant, maximumFactorCountConstant, factorCount)
	}

	centerPoints := DefaultCenterPoints(factorCount)
	if request.CenterPoints != nil {
		centerPoints = *request.CenterPoints
	}
	if centerPoints < 0 || centerPoints > maximumCenterPointsConstant {
		return BoxBehnkenResult{}, fmt.Errorf("%w: "+centerPointsTemplateConstant, ErrCenterPoints, maximumCenterPointsConstant, centerPoints)
	}

	factors := make([]Factor, 0, factorCount)
	seenNames := make(map[string]struct{}, factorCount)
	warnings := make([]string, 0)
	for position, factor := range request.Factors {
		factor.Name = strings.TrimSpace(factor.Name)
		if len(factor.Name) == 0 {
			factor.Name = defaultFactorNamePrefixConstant + DefaultVariableName(position)
		}
		if _, duplicate := seenNames[factor.Name]; duplicate {
			return BoxBehnkenResult{}, fmt.Errorf("%w: "+duplicateVariableTemplateConstant, ErrDuplicateName, factor.Name)
		}
		seenNames[factor.Name] = struct{}{}
		if !factor.LevelsIncreasing() {
			warnings = append(warnings, fmt.Sprintf(levelOrderWarningTemplateConstant, factor.Name))
		}
		factors = append(factors, factor)
	}

	codedMatrix := CodedBoxBehnken(factorCount, centerPoints)
	realMatrix := make([][]float64, 0, len(codedMatrix))
	for _, codedRow := range codedMatrix {
		realRow := make([]float64, factorCount)
		for factorIndex, level := range codedRow {
			realRow[factorIndex] = factors[factorIndex].Level(level)
		}
		realMatrix = append(realMatrix, realRow)
	}

	return BoxBehnkenResult{Factors: factors, Coded: codedMatrix, Real: realMatrix, Warnings: warnings}, nil
}
