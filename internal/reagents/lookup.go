package reagents

import (
	"context"
	"errors"
)

// StoreOpener opens the configured store on demand.
type StoreOpener func(executionContext context.Context) (Store, error)

// OpenerLookup answers molecular weight lookups by opening the store for each request.
type OpenerLookup struct {
	Open StoreOpener
}

// LookupMolecularWeight opens the store, reads the reagent, and closes the store again.
func (lookup OpenerLookup) LookupMolecularWeight(executionContext context.Context, reagentName string) (molecularWeight float64, found bool, lookupError error) {
	if lookup.Open == nil {
		return 0, false, nil
	}
	store, openError := lookup.Open(executionContext)
	if openError != nil {
		return 0, false, openError
	}
	defer func() {
		lookupError = errors.Join(lookupError, store.Close())
	}()
	return NewService(store, nil).LookupMolecularWeight(executionContext, reagentName)
}

func isExistsError(candidate error) bool {
	return errors.Is(candidate, ErrReagentExists)
}
