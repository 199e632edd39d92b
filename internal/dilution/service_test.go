package dilution_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/report"
)

type stubReagentLookup struct {
	molecularWeights map[string]float64
	lookupError      error
	requestedNames   []string
}

func (lookup *stubReagentLookup) LookupMolecularWeight(_ context.Context, reagentName string) (float64, bool, error) {
	lookup.requestedNames = append(lookup.requestedNames, reagentName)
	if lookup.lookupError != nil {
		return 0, false, lookup.lookupError
	}
	molecularWeight, found := lookup.molecularWeights[reagentName]
	return molecularWeight, found, nil
}

func TestServicePlanUsesStoredMolecularWeight(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	lookup := &stubReagentLookup{molecularWeights: map[string]float64{"Glucose": 180.16}}
	service := dilution.NewService(zap.New(observerCore), lookup)

	result, planError := service.Plan(context.Background(), dilution.Request{
		ReagentName:         "Glucose",
		StockConcentration:  1.8016,
		StockUnit:           "mg/mL",
		TargetConcentration: 1,
		TargetUnit:          "mM",
		FinalVolume:         1,
		FinalVolumeUnit:     "mL",
	})
	require.NoError(testInstance, planError)
	require.InDelta(testInstance, 180.16, result.Request.MolecularWeight, 1e-9)
	require.InDelta(testInstance, 10, result.DilutionFactor, 1e-6)
	require.Equal(testInstance, []string{"Glucose"}, lookup.requestedNames)
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Using stored molecular weight").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("Planned dilution").Len())
}

func TestServicePlanKeepsExplicitMolecularWeight(testInstance *testing.T) {
	lookup := &stubReagentLookup{molecularWeights: map[string]float64{"Glucose": 180.16}}
	service := dilution.NewService(nil, lookup)

	result, planError := service.Plan(context.Background(), dilution.Request{ReagentName: "Glucose", StockConcentration: 1, StockUnit: "mg/mL", MolecularWeight: 100, TargetConcentration: 1, TargetUnit: "mM", FinalVolume: 1})
	require.NoError(testInstance, planError)
	require.InDelta(testInstance, 100, result.Request.MolecularWeight, 1e-9)
	require.Empty(testInstance, lookup.requestedNames)
}

func TestServicePlanReportsLookupFailure(testInstance *testing.T) {
	lookupFailure := errors.New("store unavailable")
	service := dilution.NewService(nil, &stubReagentLookup{lookupError: lookupFailure})

	_, planError := service.Plan(context.Background(), dilution.Request{StockConcentration: 1, StockUnit: "mg/mL", TargetConcentration: 1, TargetUnit: "uM", FinalVolume: 1})
	require.ErrorIs(testInstance, planError, lookupFailure)
}

func TestCommandRendersProtocol(testInstance *testing.T) {
	builder := dilution.CommandBuilder{
		ConfigurationProvider:       func() dilution.CommandConfiguration { return dilution.CommandConfiguration{Solvent: "PBS"} },
		OutputConfigurationProvider: func() report.OutputConfiguration { return report.OutputConfiguration{Format: "csv"} },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&output)
	command.SetArgs([]string{"--stock", "1", "--stock-unit", "mM", "--target", "100", "--target-unit", "uM"})
	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "Task,Action,Source,Destination\nFinal Dilution,Transfer 100.00 µL,Main Stock,Final Tube\nFinal Dilution,Add 900.00 µL,PBS,Final Tube\n", output.String())
}
