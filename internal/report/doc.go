// Package report renders calculator results.
//
// A Document groups protocol notes with one or more named tables. Renderer
// writes a Document as a console table, CSV, or JSON, and WriteDestination
// routes the rendering to a file or to the command output.
package report
