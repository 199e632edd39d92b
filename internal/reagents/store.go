package reagents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	unsupportedBackendTemplateConstant = "unsupported reagent store backend %q (expected json or sqlite)"
	jsonStoreFileNameConstant          = "reagents.json"
	sqliteStoreFileNameConstant        = "reagents.db"
)

// Backend names a store implementation.
type Backend string

// Supported backends.
const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Store persists reagents by name.
type Store interface {
	List(executionContext context.Context) ([]Reagent, error)
	Get(executionContext context.Context, name string) (Reagent, bool, error)
	Put(executionContext context.Context, reagent Reagent) error
	Delete(executionContext context.Context, name string) (bool, error)
	Close() error
}

// ParseBackend resolves a backend name, defaulting to JSON.
func ParseBackend(rawBackend string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(rawBackend))) {
	case "", BackendJSON:
		return BackendJSON, nil
	case BackendSQLite:
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf(unsupportedBackendTemplateConstant, rawBackend)
	}
}

// DefaultFileName returns the store file name used inside a workspace.
func (backend Backend) DefaultFileName() string {
	if backend == BackendSQLite {
		return sqliteStoreFileNameConstant
	}
	return jsonStoreFileNameConstant
}

// WorkspaceStorePath returns the store path inside a workspace directory.
func WorkspaceStorePath(workspaceDirectory string, backend Backend) string {
	return filepath.Join(workspaceDirectory, backend.DefaultFileName())
}

// OpenStore opens the store at path using the backend.
func OpenStore(executionContext context.Context, backend Backend, path string) (Store, error) {
	if backend == BackendSQLite {
		return OpenSQLiteStore(executionContext, path)
	}
	return NewJSONStore(path), nil
}
