package reagents

import (
	"errors"
	"fmt"
	"strings"
)

const (
	invalidReagentMessageConstant  = "Reagent Name and a valid MW are required."
	reagentExistsTemplateConstant  = "Reagent '%s' already exists."
	reagentMissingTemplateConstant = "Reagent '%s' was not found."
)

// ErrInvalidReagent indicates a reagent without a name or with a non-positive molecular weight.
var ErrInvalidReagent = errors.New(invalidReagentMessageConstant)

// ErrReagentExists indicates an attempt to add a reagent whose name is already stored.
var ErrReagentExists = errors.New("reagent already exists")

// ErrReagentNotFound indicates that no reagent carries the requested name.
var ErrReagentNotFound = errors.New("reagent not found")

// Reagent is a stored compound with its molecular weight in g/mol.
type Reagent struct {
	ID              string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string  `json:"name" yaml:"name"`
	MolecularWeight float64 `json:"mw" yaml:"mw"`
	Manufacturer    string  `json:"manufacturer" yaml:"manufacturer"`
}

// Normalized trims the textual fields.
func (reagent Reagent) Normalized() Reagent {
	normalized := reagent
	normalized.Name = strings.TrimSpace(reagent.Name)
	normalized.Manufacturer = strings.TrimSpace(reagent.Manufacturer)
	return normalized
}

// Validate requires a name and a positive molecular weight.
func (reagent Reagent) Validate() error {
	if len(strings.TrimSpace(reagent.Name)) == 0 || reagent.MolecularWeight <= 0 {
		return ErrInvalidReagent
	}
	return nil
}

// ExistsError reports a duplicate reagent name.
type ExistsError struct {
	Name string
}

// Error renders the duplicate name.
func (existsError ExistsError) Error() string {
	return fmt.Sprintf(reagentExistsTemplateConstant, existsError.Name)
}

// Is matches ErrReagentExists.
func (existsError ExistsError) Is(target error) bool {
	return target == ErrReagentExists
}

// NotFoundError reports a missing reagent name.
type NotFoundError struct {
	Name string
}

// Error renders the missing name.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(reagentMissingTemplateConstant, notFoundError.Name)
}

// Is matches ErrReagentNotFound.
func (notFoundError NotFoundError) Is(target error) bool {
	return target == ErrReagentNotFound
}
