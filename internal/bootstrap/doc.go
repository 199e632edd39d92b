// Package bootstrap prepares a labkit workspace and launches the HTTP server.
//
// The workspace directory is created only when absent. The reagent store inside it is
// then opened and the seed manifest imported, and the server starts once every step
// has succeeded.
package bootstrap
