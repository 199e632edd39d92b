package design_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/labkit/internal/design"
)

func buildFactors(factorCount int) []design.Factor {
	factors := make([]design.Factor, 0, factorCount)
	for factorIndex := 0; factorIndex < factorCount; factorIndex++ {
		factors = append(factors, design.Factor{Low: 1, Center: 2, High: 3})
	}
	return factors
}

func TestCodedBoxBehnkenThreeFactors(testInstance *testing.T) {
	expectedMatrix := [][]int{
		{-1, -1, 0}, {1, -1, 0}, {-1, 1, 0}, {1, 1, 0},
		{-1, 0, -1}, {1, 0, -1}, {-1, 0, 1}, {1, 0, 1},
		{0, -1, -1}, {0, 1, -1}, {0, -1, 1}, {0, 1, 1},
		{0, 0, 0}, {0, 0, 0}, {0, 0, 0},
	}
	if difference := cmp.Diff(expectedMatrix, design.CodedBoxBehnken(3, 3)); len(difference) > 0 {
		testInstance.Fatalf("unexpected coded matrix (-want +got):\n%s", difference)
	}
}

func TestGenerateBoxBehnkenRunCounts(testInstance *testing.T) {
	for factorCount := 3; factorCount <= 10; factorCount++ {
		testInstance.Run(fmt.Sprintf(testDesignSubtestTemplateConstant, factorCount, "factors"), func(testInstance *testing.T) {
			result, generationError := design.GenerateBoxBehnken(design.BoxBehnkenRequest{Factors: buildFactors(factorCount)})
			require.NoError(testInstance, generationError)
			require.Equal(testInstance, 2*factorCount*(factorCount-1)+design.DefaultCenterPoints(factorCount), result.Runs())
			require.Len(testInstance, result.Real, result.Runs())
		})
	}
}

func TestGenerateBoxBehnkenMapsRealLevels(testInstance *testing.T) {
	centerPoints := 1
	result, generationError := design.GenerateBoxBehnken(design.BoxBehnkenRequest{
		Factors: []design.Factor{
			{Name: "Temp", Low: 20, Center: 30, High: 40},
			{Name: "pH", Low: 6, Center: 7, High: 8},
			{Low: 1, Center: 2, High: 3},
		},
		CenterPoints: &centerPoints,
	})
	require.NoError(testInstance, generationError)
	require.Equal(testInstance, 13, result.Runs())
	require.Equal(testInstance, "Factor_C", result.Factors[2].Name)
	require.Equal(testInstance, []float64{20, 6, 2}, result.Real[0])
	require.Equal(testInstance, []float64{30, 7, 2}, result.Real[12])
	require.Empty(testInstance, result.Warnings)

	document := result.Document()
	require.Len(testInstance, document.Tables, 2)
	require.Equal(testInstance, "BBD_3factors_13runs.csv", document.Tables[0].Name)
	require.Equal(testInstance, []string{"Temp", "pH", "Factor_C"}, document.Tables[0].Columns)
	require.Equal(testInstance, []string{"40", "8", "2"}, document.Tables[0].Rows[3])
	require.Equal(testInstance, []string{"-1", "0", "-1"}, document.Tables[1].Rows[4])
}

func TestGenerateBoxBehnkenWarnsOnUnorderedLevels(testInstance *testing.T) {
	factors := buildFactors(3)
	factors[1] = design.Factor{Name: "pH", Low: 8, Center: 7, High: 6}

	result, generationError := design.GenerateBoxBehnken(design.BoxBehnkenRequest{Factors: factors})
	require.NoError(testInstance, generationError)
	require.Equal(testInstance, []string{"Levels of pH should be in increasing order (Low < Center < High)."}, result.Warnings)
}

func TestGenerateBoxBehnkenValidation(testInstance *testing.T) {
	tooManyCenterPoints := 11
	testCases := []struct {
		name          string
		request       design.BoxBehnkenRequest
		expectedError error
	}{
		{name: "too_few_factors", request: design.BoxBehnkenRequest{Factors: buildFactors(2)}, expectedError: design.ErrFactorCount},
		{name: "too_many_factors", request: design.BoxBehnkenRequest{Factors: buildFactors(11)}, expectedError: design.ErrFactorCount},
		{name: "center_points", request: design.BoxBehnkenRequest{Factors: buildFactors(3), CenterPoints: &tooManyCenterPoints}, expectedError: design.ErrCenterPoints},
		{name: "duplicate", request: design.BoxBehnkenRequest{Factors: []design.Factor{{Name: "A"}, {Name: "A"}, {Name: "B"}}}, expectedError: design.ErrDuplicateName},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testDesignSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, generationError := design.GenerateBoxBehnken(testCase.request)
			require.ErrorIs(testInstance, generationError, testCase.expectedError)
		})
	}
}

func TestParseFactorAssignment(testInstance *testing.T) {
	testCases := []struct {
		name           string
		position       int
		assignment     string
		expectedFactor design.Factor
		expectError    bool
	}{
		{name: "named", assignment: "Temp=20,30,40", expectedFactor: design.Factor{Name: "Temp", Low: 20, Center: 30, High: 40}},
		{name: "bare", position: 1, assignment: "0.1, 0.2, 0.3", expectedFactor: design.Factor{Name: "Factor_B", Low: 0.1, Center: 0.2, High: 0.3}},
		{name: "two_levels", assignment: "Temp=20,30", expectError: true},
		{name: "not_numeric", assignment: "Temp=low,mid,high", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testDesignSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			factor, parseError := design.ParseFactorAssignment(testCase.position, testCase.assignment)
			if testCase.expectError {
				require.ErrorIs(testInstance, parseError, design.ErrInvalidFactorLevels)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedFactor, factor)
		})
	}
}
