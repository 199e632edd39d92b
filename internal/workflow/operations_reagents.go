package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/labkit/internal/reagents"
)

const (
	storeOpenerMissingMessageConstant = "reagent-import step requires a reagent store"
	importSummaryTemplateConstant     = "Imported %d reagents (%d already present) from %s\n"
)

// ReagentImportOperation adds the reagents of a manifest that are not stored yet.
type ReagentImportOperation struct {
	ManifestPath string
}

// Name identifies the operation type.
func (operation *ReagentImportOperation) Name() string {
	return string(OperationTypeReagentImport)
}

// Execute loads the manifest and imports it into the reagent store.
func (operation *ReagentImportOperation) Execute(executionContext context.Context, environment *Environment) (executeError error) {
	if environment.DryRun {
		_, writeError := fmt.Fprintf(environment.Output, planLineTemplateConstant, operation.Name(), operation.ManifestPath)
		return writeError
	}
	if environment.StoreOpener == nil {
		return errors.New(storeOpenerMissingMessageConstant)
	}

	manifest, manifestError := reagents.LoadManifest(operation.ManifestPath)
	if manifestError != nil {
		return manifestError
	}
	store, openError := environment.StoreOpener(executionContext)
	if openError != nil {
		return openError
	}
	defer func() {
		executeError = errors.Join(executeError, store.Close())
	}()

	summary, importError := reagents.NewService(store, environment.Logger).Import(executionContext, manifest)
	if importError != nil {
		return importError
	}
	_, writeError := fmt.Fprintf(environment.Output, importSummaryTemplateConstant, summary.Added, summary.Skipped, operation.ManifestPath)
	return writeError
}
