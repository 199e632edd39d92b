package reagents

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/report"
)

const (
	exportNameConstant               = "reagent_list.csv"
	exportTitleConstant              = "Reagent Manager"
	exportTableTitleConstant         = "Current Reagent List"
	exportNameColumnConstant         = "Reagent Name"
	exportMolecularWeightColumn      = "mw"
	exportManufacturerColumnConstant = "manufacturer"
	exportCountNoteTemplateConstant  = "%d reagents stored."
	storeOperationErrorTemplate      = "reagent store operation failed: %w"
	reagentAddedMessageConstant      = "Reagent added"
	reagentUpdatedMessageConstant    = "Reagent updated"
	reagentDeletedMessageConstant    = "Reagent deleted"
	manifestImportedMessageConstant  = "Reagent manifest imported"
	reagentNameFieldConstant         = "reagent"
	molecularWeightFieldConstant     = "molecular_weight"
	addedCountFieldConstant          = "added"
	skippedCountFieldConstant        = "skipped"
)

// ImportSummary counts the outcome of a manifest import.
type ImportSummary struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Service validates and applies reagent catalog changes.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService constructs a Service over the store. A nil logger disables logging.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Add stores a new reagent. The name must be unused.
func (service *Service) Add(executionContext context.Context, candidate Reagent) (Reagent, error) {
	reagent := candidate.Normalized()
	if validationError := reagent.Validate(); validationError != nil {
		return Reagent{}, validationError
	}
	_, exists, getError := service.store.Get(executionContext, reagent.Name)
	if getError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, getError)
	}
	if exists {
		return Reagent{}, ExistsError{Name: reagent.Name}
	}
	if putError := service.store.Put(executionContext, reagent); putError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, putError)
	}
	service.logger.Info(reagentAddedMessageConstant, zap.String(reagentNameFieldConstant, reagent.Name), zap.Float64(molecularWeightFieldConstant, reagent.MolecularWeight))
	return service.reload(executionContext, reagent)
}

// Update replaces the molecular weight and manufacturer of an existing reagent.
func (service *Service) Update(executionContext context.Context, candidate Reagent) (Reagent, error) {
	reagent := candidate.Normalized()
	if validationError := reagent.Validate(); validationError != nil {
		return Reagent{}, validationError
	}
	existing, exists, getError := service.store.Get(executionContext, reagent.Name)
	if getError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, getError)
	}
	if !exists {
		return Reagent{}, NotFoundError{Name: reagent.Name}
	}
	reagent.ID = existing.ID
	if putError := service.store.Put(executionContext, reagent); putError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, putError)
	}
	service.logger.Info(reagentUpdatedMessageConstant, zap.String(reagentNameFieldConstant, reagent.Name), zap.Float64(molecularWeightFieldConstant, reagent.MolecularWeight))
	return service.reload(executionContext, reagent)
}

// Delete removes an existing reagent.
func (service *Service) Delete(executionContext context.Context, name string) error {
	reagentName := Reagent{Name: name}.Normalized().Name
	deleted, deleteError := service.store.Delete(executionContext, reagentName)
	if deleteError != nil {
		return fmt.Errorf(storeOperationErrorTemplate, deleteError)
	}
	if !deleted {
		return NotFoundError{Name: reagentName}
	}
	service.logger.Info(reagentDeletedMessageConstant, zap.String(reagentNameFieldConstant, reagentName))
	return nil
}

// List returns every reagent sorted by name.
func (service *Service) List(executionContext context.Context) ([]Reagent, error) {
	reagentList, listError := service.store.List(executionContext)
	if listError != nil {
		return nil, fmt.Errorf(storeOperationErrorTemplate, listError)
	}
	return reagentList, nil
}

// Lookup returns the reagent with the name.
func (service *Service) Lookup(executionContext context.Context, name string) (Reagent, error) {
	reagentName := Reagent{Name: name}.Normalized().Name
	reagent, found, getError := service.store.Get(executionContext, reagentName)
	if getError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, getError)
	}
	if !found {
		return Reagent{}, NotFoundError{Name: reagentName}
	}
	return reagent, nil
}

// LookupMolecularWeight reports the stored molecular weight of the reagent, if any.
func (service *Service) LookupMolecularWeight(executionContext context.Context, reagentName string) (float64, bool, error) {
	reagent, found, getError := service.store.Get(executionContext, Reagent{Name: reagentName}.Normalized().Name)
	if getError != nil || !found {
		return 0, false, getError
	}
	return reagent.MolecularWeight, true, nil
}

// Import adds every manifest reagent that is not stored yet and leaves existing ones untouched.
func (service *Service) Import(executionContext context.Context, manifest Manifest) (ImportSummary, error) {
	summary := ImportSummary{}
	for _, candidate := range manifest.Reagents {
		_, addError := service.Add(executionContext, candidate)
		switch {
		case addError == nil:
			summary.Added++
		case isExistsError(addError):
			summary.Skipped++
		default:
			return summary, addError
		}
	}
	service.logger.Info(manifestImportedMessageConstant, zap.Int(addedCountFieldConstant, summary.Added), zap.Int(skippedCountFieldConstant, summary.Skipped))
	return summary, nil
}

// Export returns the catalog as a document with the reagent table.
func (service *Service) Export(executionContext context.Context) (report.Document, error) {
	reagentList, listError := service.List(executionContext)
	if listError != nil {
		return report.Document{}, listError
	}
	return ExportDocument(reagentList), nil
}

// ExportDocument renders reagents as the catalog table.
func ExportDocument(reagentList []Reagent) report.Document {
	exportTable := report.NewTable(exportNameConstant, exportTableTitleConstant, exportNameColumnConstant, exportMolecularWeightColumn, exportManufacturerColumnConstant)
	for _, reagent := range reagentList {
		exportTable.AppendRow(reagent.Name, strconv.FormatFloat(reagent.MolecularWeight, 'f', -1, 64), reagent.Manufacturer)
	}
	return report.Document{
		Title:  exportTitleConstant,
		Notes:  []string{fmt.Sprintf(exportCountNoteTemplateConstant, len(reagentList))},
		Tables: []report.Table{exportTable},
	}
}

func (service *Service) reload(executionContext context.Context, reagent Reagent) (Reagent, error) {
	stored, found, getError := service.store.Get(executionContext, reagent.Name)
	if getError != nil {
		return Reagent{}, fmt.Errorf(storeOperationErrorTemplate, getError)
	}
	if !found {
		return reagent, nil
	}
	return stored, nil
}
