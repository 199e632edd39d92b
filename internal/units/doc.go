// Package units converts laboratory concentrations and volumes to base units
// and formats them for protocols.
//
// Molar concentrations are normalized to mol/L, mass per volume concentrations
// to g/L and volumes to liters. The ASCII prefix "u" is accepted wherever the
// micro sign is expected.
package units
