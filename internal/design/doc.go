// Package design generates experiment layouts.
//
// Factorial enumerates every combination of variable values. BoxBehnken
// builds the coded three-level response surface design and maps it onto the
// real factor levels. Both are exposed as the "design" command group.
package design
