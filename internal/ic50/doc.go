// Package ic50 plans non-uniform dose-response dilution series.
//
// A series is split into an upper sparse range, a dense range around the
// expected IC50, and a lower sparse range. Each non-empty range is prepared
// from the main stock, through a 1:10 intermediate when the direct pipetting
// volume falls below 1 µL, and then serially diluted.
package ic50
