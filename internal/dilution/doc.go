// Package dilution plans single dilutions from a liquid stock or from a solid.
//
// Liquid stocks are diluted directly, or through a 1:100 intermediate when the
// required factor exceeds 100. Solid stocks are first weighed and dissolved
// into a stock solution that is then diluted with the liquid rules.
package dilution
