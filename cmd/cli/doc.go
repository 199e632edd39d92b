// Package cli constructs the labkit command-line interface. It wires the Cobra
// command hierarchy to the configuration loader and the zap logger and hands
// each subcommand its section of the configuration.
package cli
