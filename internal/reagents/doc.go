// Package reagents manages the molecular weight catalog used by the calculators.
//
// Reagents persist either in a JSON file keyed by reagent name or in a SQLite
// database. Service validates additions and edits, imports seed manifests,
// exports the catalog as a table, and answers molecular weight lookups.
package reagents
