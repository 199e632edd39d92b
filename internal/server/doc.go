// Package server exposes the calculators and the reagent catalog over HTTP.
//
// Calculator endpoints accept JSON requests and answer with the rendered tables as
// JSON, or with the primary table as a CSV attachment when format=csv is requested.
package server
