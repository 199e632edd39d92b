// Package publish stages the working tree, commits it with a user supplied message,
// and pushes the commit to a configured remote branch.
package publish
