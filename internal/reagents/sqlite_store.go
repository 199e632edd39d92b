package reagents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	sqliteDriverNameConstant             = "sqlite"
	sqliteDirectoryPermissions           = 0o755
	openSQLiteStoreErrorTemplateConstant = "unable to open reagent database %s: %w"
	sqliteQueryErrorTemplateConstant     = "reagent database query failed: %w"
	createReagentsTableStatement         = `CREATE TABLE IF NOT EXISTS reagents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	molecular_weight REAL NOT NULL,
	manufacturer TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
	listReagentsStatement  = `SELECT id, name, molecular_weight, manufacturer FROM reagents ORDER BY name`
	getReagentStatement    = `SELECT id, name, molecular_weight, manufacturer FROM reagents WHERE name = ?`
	upsertReagentStatement = `INSERT INTO reagents (id, name, molecular_weight, manufacturer, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET molecular_weight = excluded.molecular_weight, manufacturer = excluded.manufacturer, updated_at = excluded.updated_at`
	deleteReagentStatement = `DELETE FROM reagents WHERE name = ?`
)

// SQLiteStore keeps reagents in a SQLite database table.
type SQLiteStore struct {
	database *sql.DB
	clock    func() time.Time
}

// OpenSQLiteStore opens or creates the database at path and ensures the schema exists.
func OpenSQLiteStore(executionContext context.Context, path string) (*SQLiteStore, error) {
	if directoryError := os.MkdirAll(filepath.Dir(path), sqliteDirectoryPermissions); directoryError != nil {
		return nil, fmt.Errorf(openSQLiteStoreErrorTemplateConstant, path, directoryError)
	}
	database, openError := sql.Open(sqliteDriverNameConstant, path)
	if openError != nil {
		return nil, fmt.Errorf(openSQLiteStoreErrorTemplateConstant, path, openError)
	}
	database.SetMaxOpenConns(1)
	if _, schemaError := database.ExecContext(executionContext, createReagentsTableStatement); schemaError != nil {
		database.Close()
		return nil, fmt.Errorf(openSQLiteStoreErrorTemplateConstant, path, schemaError)
	}
	return &SQLiteStore{database: database, clock: time.Now}, nil
}

// List returns every reagent sorted by name.
func (store *SQLiteStore) List(executionContext context.Context) ([]Reagent, error) {
	rows, queryError := store.database.QueryContext(executionContext, listReagentsStatement)
	if queryError != nil {
		return nil, fmt.Errorf(sqliteQueryErrorTemplateConstant, queryError)
	}
	defer rows.Close()

	reagentList := make([]Reagent, 0)
	for rows.Next() {
		var reagent Reagent
		if scanError := rows.Scan(&reagent.ID, &reagent.Name, &reagent.MolecularWeight, &reagent.Manufacturer); scanError != nil {
			return nil, fmt.Errorf(sqliteQueryErrorTemplateConstant, scanError)
		}
		reagentList = append(reagentList, reagent)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, fmt.Errorf(sqliteQueryErrorTemplateConstant, rowsError)
	}
	return reagentList, nil
}

// Get returns the reagent with the name.
func (store *SQLiteStore) Get(executionContext context.Context, name string) (Reagent, bool, error) {
	var reagent Reagent
	scanError := store.database.QueryRowContext(executionContext, getReagentStatement, name).Scan(&reagent.ID, &reagent.Name, &reagent.MolecularWeight, &reagent.Manufacturer)
	if errors.Is(scanError, sql.ErrNoRows) {
		return Reagent{}, false, nil
	}
	if scanError != nil {
		return Reagent{}, false, fmt.Errorf(sqliteQueryErrorTemplateConstant, scanError)
	}
	return reagent, true, nil
}

// Put inserts a reagent with a fresh id or updates the existing row with the same name.
func (store *SQLiteStore) Put(executionContext context.Context, reagent Reagent) error {
	timestamp := store.clock().UTC().Format(time.RFC3339Nano)
	reagentID := reagent.ID
	if len(reagentID) == 0 {
		reagentID = uuid.NewString()
	}
	if _, execError := store.database.ExecContext(executionContext, upsertReagentStatement, reagentID, reagent.Name, reagent.MolecularWeight, reagent.Manufacturer, timestamp, timestamp); execError != nil {
		return fmt.Errorf(sqliteQueryErrorTemplateConstant, execError)
	}
	return nil
}

// Delete removes the reagent and reports whether it existed.
func (store *SQLiteStore) Delete(executionContext context.Context, name string) (bool, error) {
	execResult, execError := store.database.ExecContext(executionContext, deleteReagentStatement, name)
	if execError != nil {
		return false, fmt.Errorf(sqliteQueryErrorTemplateConstant, execError)
	}
	affectedRows, affectedError := execResult.RowsAffected()
	if affectedError != nil {
		return false, fmt.Errorf(sqliteQueryErrorTemplateConstant, affectedError)
	}
	return affectedRows > 0, nil
}

// Close closes the database.
func (store *SQLiteStore) Close() error {
	return store.database.Close()
}
