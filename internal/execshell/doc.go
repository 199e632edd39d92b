// Package execshell runs external tools on behalf of labkit commands.
//
// ShellExecutor validates and logs every invocation, turns non-zero exit codes
// into CommandFailedError values, and reports lifecycle events to an optional
// CommandEventObserver. OSCommandRunner is the default os/exec backed runner.
package execshell
