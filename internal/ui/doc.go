// Package ui turns internal events into short console messages.
//
// ConsoleCommandEventLogger observes external git invocations made by the
// publish command and logs one readable line per lifecycle event.
package ui
