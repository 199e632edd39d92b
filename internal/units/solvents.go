package units

// DefaultSolvent is used when no solvent is selected.
const DefaultSolvent = "Water"

// Solvents lists the diluents offered by the calculators.
func Solvents() []string {
	return []string{DefaultSolvent, "PBS", "DMSO", "Ethanol", "Methanol", "Culture Medium"}
}
