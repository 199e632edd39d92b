// Package serialdilution plans equal-volume serial dilution series.
package serialdilution
