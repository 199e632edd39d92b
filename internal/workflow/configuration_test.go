package workflow_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/labkit/internal/workflow"
)

const (
	workflowSubtestTemplateConstant = "%d_%s"
	toolPlanConstant                = `
tools:
  - name: screen
    operation: factorial
    with:
      format: csv
      variables:
        - name: Temp
          values: [20, 37]
steps:
  - with:
      tool: screen
      output: screen.csv
  - operation: ic50
    with:
      stock_concentration: 10
`
	wrappedPlanConstant = `
workflow:
  steps:
    - operation: reagent-import
      with:
        manifest: seed.yaml
`
)

func TestParseConfigurationResolvesTools(testInstance *testing.T) {
	configuration, parseError := workflow.ParseConfiguration([]byte(toolPlanConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, configuration.Steps, 2)

	firstStep := configuration.Steps[0]
	require.Equal(testInstance, workflow.OperationTypeFactorial, firstStep.Operation)
	require.Equal(testInstance, "csv", firstStep.Options["format"])
	require.Equal(testInstance, "screen.csv", firstStep.Options["output"])
	require.NotContains(testInstance, firstStep.Options, "tool")
	require.Contains(testInstance, firstStep.Options, "variables")

	require.Equal(testInstance, workflow.OperationTypeIC50, configuration.Steps[1].Operation)
}

func TestParseConfigurationAcceptsWorkflowWrapper(testInstance *testing.T) {
	configuration, parseError := workflow.ParseConfiguration([]byte(wrappedPlanConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, configuration.Steps, 1)
	require.Equal(testInstance, workflow.OperationTypeReagentImport, configuration.Steps[0].Operation)
}

func TestParseConfigurationRejectsInvalidPlans(testInstance *testing.T) {
	testCases := []struct {
		name            string
		contents        string
		expectedMessage string
	}{
		{
			name:            "no_steps",
			contents:        "steps: []\n",
			expectedMessage: "workflow configuration must define at least one step",
		},
		{
			name:            "unknown_tool",
			contents:        "steps:\n  - with:\n      tool: missing\n",
			expectedMessage: "workflow step references unknown tool missing",
		},
		{
			name:            "missing_operation",
			contents:        "steps:\n  - with:\n      output: plan.csv\n",
			expectedMessage: "workflow step missing operation name",
		},
		{
			name:            "duplicate_tools",
			contents:        "tools:\n  - name: a\n    operation: ic50\n  - name: a\n    operation: ic50\nsteps:\n  - with:\n      tool: a\n",
			expectedMessage: "workflow configuration defines duplicate tool names",
		},
		{
			name:            "malformed_yaml",
			contents:        "steps: [",
			expectedMessage: "failed to parse workflow configuration",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(workflowSubtestTemplateConstant, testCaseIndex, testCase.name), func(subtest *testing.T) {
			_, parseError := workflow.ParseConfiguration([]byte(testCase.contents))
			require.Error(subtest, parseError)
			require.Contains(subtest, parseError.Error(), testCase.expectedMessage)
		})
	}
}

func TestLoadConfigurationReadsFile(testInstance *testing.T) {
	planPath := filepath.Join(testInstance.TempDir(), "plan.yaml")
	require.NoError(testInstance, os.WriteFile(planPath, []byte(wrappedPlanConstant), 0o644))

	configuration, loadError := workflow.LoadConfiguration(planPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, configuration.Steps, 1)

	_, missingError := workflow.LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.ErrorContains(testInstance, missingError, "failed to load workflow configuration")

	_, blankError := workflow.LoadConfiguration("  ")
	require.EqualError(testInstance, blankError, "workflow configuration path must be provided")
}
