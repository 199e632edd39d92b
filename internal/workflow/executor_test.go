package workflow_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/workflow"
)

const (
	factorialPlanTemplateConstant = `
steps:
  - operation: factorial
    with:
      format: csv
      output: %s
      variables:
        - name: A
          values: [1, 2.5]
        - name: B
          values_text: "x, y"
`
	importPlanTemplateConstant = `
steps:
  - operation: reagent-import
    with:
      manifest: %s
  - operation: factorial
    with:
      variables:
        - values: [low, high]
`
	seedManifestConstant = `
reagents:
  - name: Glucose
    mw: 180.16
    manufacturer: Sigma
  - name: ATP
    mw: 507.18
`
	expectedFactorialCSVConstant = "A,B\n1,x\n1,y\n2.5,x\n2.5,y\n"
)

func buildPlan(testInstance *testing.T, contents string) []workflow.Operation {
	testInstance.Helper()
	configuration, parseError := workflow.ParseConfiguration([]byte(contents))
	require.NoError(testInstance, parseError)
	operations, buildError := workflow.BuildOperations(configuration, report.FormatTable)
	require.NoError(testInstance, buildError)
	return operations
}

func jsonStoreOpener(storePath string) reagents.StoreOpener {
	return func(context.Context) (reagents.Store, error) {
		return reagents.NewJSONStore(storePath), nil
	}
}

func TestExecutorWritesFactorialCSVToFile(testInstance *testing.T) {
	outputPath := filepath.Join(testInstance.TempDir(), "designs", "screen.csv")
	operations := buildPlan(testInstance, fmt.Sprintf(factorialPlanTemplateConstant, outputPath))

	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	outputBuffer := &bytes.Buffer{}
	executor := workflow.NewExecutor(operations, workflow.Dependencies{Logger: zap.New(observerCore), Output: outputBuffer})
	require.NoError(testInstance, executor.Execute(context.Background(), workflow.RuntimeOptions{}))

	contents, readError := os.ReadFile(outputPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, expectedFactorialCSVConstant, string(contents))
	require.Empty(testInstance, outputBuffer.String())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Workflow step completed").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Workflow completed").Len())
}

func TestExecutorDryRunPrintsPlan(testInstance *testing.T) {
	manifestPath := filepath.Join(testInstance.TempDir(), "seed.yaml")
	operations := buildPlan(testInstance, fmt.Sprintf(importPlanTemplateConstant, manifestPath))

	storePath := filepath.Join(testInstance.TempDir(), "reagents.json")
	outputBuffer := &bytes.Buffer{}
	executor := workflow.NewExecutor(operations, workflow.Dependencies{StoreOpener: jsonStoreOpener(storePath), Output: outputBuffer})
	require.NoError(testInstance, executor.Execute(context.Background(), workflow.RuntimeOptions{DryRun: true}))

	expectedOutput := fmt.Sprintf("WORKFLOW-PLAN: reagent-import → %s\nWORKFLOW-PLAN: factorial → stdout\n", manifestPath)
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
	require.NoFileExists(testInstance, storePath)
}

func TestExecutorImportsManifestBeforeLaterSteps(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	manifestPath := filepath.Join(workspace, "seed.yaml")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(seedManifestConstant), 0o644))
	storePath := filepath.Join(workspace, "reagents.json")
	require.NoError(testInstance, reagents.NewJSONStore(storePath).Put(context.Background(), reagents.Reagent{Name: "ATP", MolecularWeight: 507.18}))

	operations := buildPlan(testInstance, fmt.Sprintf(importPlanTemplateConstant, manifestPath))
	operations[1] = &workflow.FactorialOperation{
		Request: design.FactorialRequest{Variables: []design.Variable{{Values: []string{"low", "high"}}}},
		Output:  report.OutputOptions{Format: report.FormatCSV},
	}

	outputBuffer := &bytes.Buffer{}
	executor := workflow.NewExecutor(operations, workflow.Dependencies{StoreOpener: jsonStoreOpener(storePath), Output: outputBuffer})
	require.NoError(testInstance, executor.Execute(context.Background(), workflow.RuntimeOptions{}))

	expectedOutput := fmt.Sprintf("Imported 1 reagents (1 already present) from %s\nA\nlow\nhigh\n", manifestPath)
	require.Equal(testInstance, expectedOutput, outputBuffer.String())

	storedReagents, listError := reagents.NewJSONStore(storePath).List(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, storedReagents, 2)
}

func TestExecutorStopsAtFirstFailure(testInstance *testing.T) {
	outputPath := filepath.Join(testInstance.TempDir(), "never.csv")
	operations := []workflow.Operation{
		&workflow.FactorialOperation{},
		&workflow.FactorialOperation{
			Request: design.FactorialRequest{Variables: []design.Variable{{Values: []string{"1"}}}},
			Output:  report.OutputOptions{Format: report.FormatCSV, Destination: outputPath},
		},
	}

	executor := workflow.NewExecutor(operations, workflow.Dependencies{Output: &bytes.Buffer{}})
	executeError := executor.Execute(context.Background(), workflow.RuntimeOptions{})
	require.ErrorIs(testInstance, executeError, design.ErrNoVariables)
	require.ErrorContains(testInstance, executeError, "workflow operation factorial failed: ")
	require.NoFileExists(testInstance, outputPath)
}

func TestExecutorRequiresOutput(testInstance *testing.T) {
	executor := workflow.NewExecutor(nil, workflow.Dependencies{})
	require.EqualError(testInstance, executor.Execute(context.Background(), workflow.RuntimeOptions{}), "workflow executor requires an output writer")
}

func TestReagentImportWithoutStoreFails(testInstance *testing.T) {
	manifestPath := filepath.Join(testInstance.TempDir(), "seed.yaml")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(seedManifestConstant), 0o644))

	operations := []workflow.Operation{&workflow.ReagentImportOperation{ManifestPath: manifestPath}}
	executor := workflow.NewExecutor(operations, workflow.Dependencies{Output: &bytes.Buffer{}})
	require.ErrorContains(testInstance, executor.Execute(context.Background(), workflow.RuntimeOptions{}), "reagent-import step requires a reagent store")
}
