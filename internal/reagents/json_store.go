package reagents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	jsonIndentConstant                  = "    "
	jsonStoreDirectoryPermissions       = 0o755
	jsonStoreFilePermissions            = 0o644
	jsonStoreTemporaryPatternConstant   = "%s.*.tmp"
	readJSONStoreErrorTemplateConstant  = "unable to read reagent file %s: %w"
	writeJSONStoreErrorTemplateConstant = "unable to write reagent file %s: %w"
)

type jsonReagentRecord struct {
	MolecularWeight float64 `json:"mw"`
	Manufacturer    string  `json:"manufacturer"`
}

var jsonStoreLocks sync.Map

// jsonStoreLock returns the mutex shared by every JSONStore backed by path.
func jsonStoreLock(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if absolutePath, absoluteError := filepath.Abs(path); absoluteError == nil {
		key = absolutePath
	}
	lock, _ := jsonStoreLocks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// JSONStore keeps reagents in a JSON object keyed by reagent name.
// A missing, empty, or unparsable file reads as an empty catalog.
// Stores opened on the same path within a process share one lock.
type JSONStore struct {
	path  string
	mutex *sync.Mutex
}

// NewJSONStore constructs a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, mutex: jsonStoreLock(path)}
}

// Path returns the backing file path.
func (store *JSONStore) Path() string {
	return store.path
}

// List returns every reagent sorted by name.
func (store *JSONStore) List(executionContext context.Context) ([]Reagent, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	records, readError := store.read()
	if readError != nil {
		return nil, readError
	}
	reagentList := make([]Reagent, 0, len(records))
	for name, record := range records {
		reagentList = append(reagentList, Reagent{Name: name, MolecularWeight: record.MolecularWeight, Manufacturer: record.Manufacturer})
	}
	sort.Slice(reagentList, func(left int, right int) bool {
		return reagentList[left].Name < reagentList[right].Name
	})
	return reagentList, nil
}

// Get returns the reagent with the name.
func (store *JSONStore) Get(executionContext context.Context, name string) (Reagent, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	records, readError := store.read()
	if readError != nil {
		return Reagent{}, false, readError
	}
	record, found := records[name]
	if !found {
		return Reagent{}, false, nil
	}
	return Reagent{Name: name, MolecularWeight: record.MolecularWeight, Manufacturer: record.Manufacturer}, true, nil
}

// Put inserts or replaces the reagent.
func (store *JSONStore) Put(executionContext context.Context, reagent Reagent) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	records, readError := store.read()
	if readError != nil {
		return readError
	}
	records[reagent.Name] = jsonReagentRecord{MolecularWeight: reagent.MolecularWeight, Manufacturer: reagent.Manufacturer}
	return store.write(records)
}

// Delete removes the reagent and reports whether it existed.
func (store *JSONStore) Delete(executionContext context.Context, name string) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	records, readError := store.read()
	if readError != nil {
		return false, readError
	}
	if _, found := records[name]; !found {
		return false, nil
	}
	delete(records, name)
	return true, store.write(records)
}

// Close releases nothing; the file is reopened per operation.
func (store *JSONStore) Close() error {
	return nil
}

func (store *JSONStore) read() (map[string]jsonReagentRecord, error) {
	records := map[string]jsonReagentRecord{}
	contents, readError := os.ReadFile(store.path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return records, nil
		}
		return nil, fmt.Errorf(readJSONStoreErrorTemplateConstant, store.path, readError)
	}
	if len(strings.TrimSpace(string(contents))) == 0 {
		return records, nil
	}
	if decodeError := json.Unmarshal(contents, &records); decodeError != nil {
		return map[string]jsonReagentRecord{}, nil
	}
	return records, nil
}

func (store *JSONStore) write(records map[string]jsonReagentRecord) error {
	encoded, encodeError := json.MarshalIndent(records, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(writeJSONStoreErrorTemplateConstant, store.path, encodeError)
	}
	if directoryError := os.MkdirAll(filepath.Dir(store.path), jsonStoreDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(writeJSONStoreErrorTemplateConstant, store.path, directoryError)
	}
	temporaryFile, createError := os.CreateTemp(filepath.Dir(store.path), fmt.Sprintf(jsonStoreTemporaryPatternConstant, filepath.Base(store.path)))
	if createError != nil {
		return fmt.Errorf(writeJSONStoreErrorTemplateConstant, store.path, createError)
	}
	temporaryPath := temporaryFile.Name()
	_, writeError := temporaryFile.Write(encoded)
	closeError := temporaryFile.Close()
	if writeError == nil {
		writeError = closeError
	}
	if writeError == nil {
		writeError = os.Chmod(temporaryPath, jsonStoreFilePermissions)
	}
	if writeError == nil {
		writeError = os.Rename(temporaryPath, store.path)
	}
	if writeError != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(writeJSONStoreErrorTemplateConstant, store.path, writeError)
	}
	return nil
}
