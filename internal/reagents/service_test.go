package reagents_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
)

func newJSONService(testInstance *testing.T) (*reagents.Service, *observer.ObservedLogs) {
	testInstance.Helper()
	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	store := reagents.NewJSONStore(filepath.Join(testInstance.TempDir(), "reagents.json"))
	return reagents.NewService(store, zap.New(observerCore)), observedLogs
}

func TestServiceAddValidatesAndRejectsDuplicates(testInstance *testing.T) {
	service, observedLogs := newJSONService(testInstance)
	executionContext := context.Background()

	_, invalidError := service.Add(executionContext, reagents.Reagent{Name: "  ", MolecularWeight: 10})
	require.ErrorIs(testInstance, invalidError, reagents.ErrInvalidReagent)
	require.EqualError(testInstance, invalidError, "Reagent Name and a valid MW are required.")

	_, zeroWeightError := service.Add(executionContext, reagents.Reagent{Name: "Water", MolecularWeight: 0})
	require.ErrorIs(testInstance, zeroWeightError, reagents.ErrInvalidReagent)

	added, addError := service.Add(executionContext, reagents.Reagent{Name: " Glucose ", MolecularWeight: 180.16})
	require.NoError(testInstance, addError)
	require.Equal(testInstance, "Glucose", added.Name)

	_, duplicateError := service.Add(executionContext, reagents.Reagent{Name: "Glucose", MolecularWeight: 1})
	require.ErrorIs(testInstance, duplicateError, reagents.ErrReagentExists)
	require.EqualError(testInstance, duplicateError, "Reagent 'Glucose' already exists.")
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Reagent added").Len())
}

func TestServiceUpdateAndDelete(testInstance *testing.T) {
	service, _ := newJSONService(testInstance)
	executionContext := context.Background()

	_, missingError := service.Update(executionContext, reagents.Reagent{Name: "ATP", MolecularWeight: 507.18})
	require.ErrorIs(testInstance, missingError, reagents.ErrReagentNotFound)

	_, addError := service.Add(executionContext, reagents.Reagent{Name: "ATP", MolecularWeight: 500, Manufacturer: "Sigma"})
	require.NoError(testInstance, addError)
	updated, updateError := service.Update(executionContext, reagents.Reagent{Name: "ATP", MolecularWeight: 507.18})
	require.NoError(testInstance, updateError)
	require.InDelta(testInstance, 507.18, updated.MolecularWeight, 1e-9)
	require.Empty(testInstance, updated.Manufacturer)

	molecularWeight, found, lookupError := service.LookupMolecularWeight(executionContext, "ATP")
	require.NoError(testInstance, lookupError)
	require.True(testInstance, found)
	require.InDelta(testInstance, 507.18, molecularWeight, 1e-9)

	require.NoError(testInstance, service.Delete(executionContext, "ATP"))
	require.ErrorIs(testInstance, service.Delete(executionContext, "ATP"), reagents.ErrReagentNotFound)
	_, lookupMissingError := service.Lookup(executionContext, "ATP")
	require.ErrorIs(testInstance, lookupMissingError, reagents.ErrReagentNotFound)
}

func TestServiceImportSkipsExistingReagents(testInstance *testing.T) {
	service, observedLogs := newJSONService(testInstance)
	executionContext := context.Background()
	_, addError := service.Add(executionContext, reagents.Reagent{Name: "Glucose", MolecularWeight: 180.16, Manufacturer: "Sigma"})
	require.NoError(testInstance, addError)

	manifest, decodeError := reagents.DecodeManifest(strings.NewReader("reagents:\n  - name: Glucose\n    mw: 1\n  - name: NaCl\n    mw: 58.44\n    manufacturer: Merck\n"))
	require.NoError(testInstance, decodeError)

	summary, importError := service.Import(executionContext, manifest)
	require.NoError(testInstance, importError)
	require.Equal(testInstance, reagents.ImportSummary{Added: 1, Skipped: 1}, summary)

	glucose, lookupError := service.Lookup(executionContext, "Glucose")
	require.NoError(testInstance, lookupError)
	require.InDelta(testInstance, 180.16, glucose.MolecularWeight, 1e-9)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Reagent manifest imported").Len())
}

func TestDecodeManifestRejectsInvalidEntries(testInstance *testing.T) {
	_, decodeError := reagents.DecodeManifest(strings.NewReader("reagents:\n  - name: Broken\n"))
	require.ErrorIs(testInstance, decodeError, reagents.ErrInvalidReagent)

	_, missingError := reagents.LoadManifest(filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.ErrorIs(testInstance, missingError, reagents.ErrManifestMissing)
}

func TestExportDocumentColumns(testInstance *testing.T) {
	document := reagents.ExportDocument([]reagents.Reagent{{Name: "Glucose", MolecularWeight: 180.16, Manufacturer: "Sigma"}})
	var output bytes.Buffer
	require.NoError(testInstance, report.NewRenderer(report.FormatCSV).Render(&output, document))
	require.Equal(testInstance, "Reagent Name,mw,manufacturer\nGlucose,180.16,Sigma\n", output.String())
	require.Equal(testInstance, "reagent_list.csv", document.Tables[0].Name)
}

func TestCommandAddListAndImport(testInstance *testing.T) {
	workspace := testInstance.TempDir()
	configuration := reagents.CommandConfiguration{Backend: "sqlite", Path: filepath.Join(workspace, "catalog.db")}
	builder := reagents.CommandBuilder{
		ConfigurationProvider: func() reagents.CommandConfiguration { return configuration },
	}

	runCommand := func(arguments ...string) string {
		command, buildError := builder.Build()
		require.NoError(testInstance, buildError)
		var output bytes.Buffer
		command.SetOut(&output)
		command.SetErr(&output)
		command.SetArgs(arguments)
		require.NoError(testInstance, command.Execute())
		return output.String()
	}

	require.Equal(testInstance, "Added 'Glucose'.\n", runCommand("add", "--name", "Glucose", "--mw", "180.16", "--manufacturer", "Sigma"))

	manifestPath := filepath.Join(workspace, "seed.yaml")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte("reagents:\n  - name: Glucose\n    mw: 180.16\n  - name: ATP\n    mw: 507.18\n"), 0o644))
	require.Equal(testInstance, "Imported 1 reagents (1 already present).\n", runCommand("import", manifestPath))

	require.Equal(testInstance, "Reagent Name,mw,manufacturer\nATP,507.18,\nGlucose,180.16,Sigma\n", runCommand("export"))
	require.Equal(testInstance, "Deleted 'ATP'.\n", runCommand("delete", "ATP"))
}
