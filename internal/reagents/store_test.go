package reagents_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/temirov/labkit/internal/reagents"
)

const testReagentsSubtestTemplateConstant = "%d_%s"

func openStores(testInstance *testing.T) map[string]reagents.Store {
	testInstance.Helper()
	workspace := testInstance.TempDir()
	sqliteStore, openError := reagents.OpenSQLiteStore(context.Background(), filepath.Join(workspace, "reagents.db"))
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() { require.NoError(testInstance, sqliteStore.Close()) })
	return map[string]reagents.Store{
		"json":   reagents.NewJSONStore(filepath.Join(workspace, "reagents.json")),
		"sqlite": sqliteStore,
	}
}

func TestStoresRoundTripReagents(testInstance *testing.T) {
	for backendName, store := range openStores(testInstance) {
		testInstance.Run(backendName, func(testInstance *testing.T) {
			executionContext := context.Background()
			require.NoError(testInstance, store.Put(executionContext, reagents.Reagent{Name: "Glucose", MolecularWeight: 180.16, Manufacturer: "Sigma"}))
			require.NoError(testInstance, store.Put(executionContext, reagents.Reagent{Name: "ATP", MolecularWeight: 507.18}))

			reagentList, listError := store.List(executionContext)
			require.NoError(testInstance, listError)
			require.Len(testInstance, reagentList, 2)
			require.Equal(testInstance, "ATP", reagentList[0].Name)
			require.Equal(testInstance, "Glucose", reagentList[1].Name)

			reagent, found, getError := store.Get(executionContext, "Glucose")
			require.NoError(testInstance, getError)
			require.True(testInstance, found)
			require.InDelta(testInstance, 180.16, reagent.MolecularWeight, 1e-9)
			require.Equal(testInstance, "Sigma", reagent.Manufacturer)

			require.NoError(testInstance, store.Put(executionContext, reagents.Reagent{ID: reagent.ID, Name: "Glucose", MolecularWeight: 180.2, Manufacturer: "Merck"}))
			updated, _, _ := store.Get(executionContext, "Glucose")
			require.InDelta(testInstance, 180.2, updated.MolecularWeight, 1e-9)
			require.Equal(testInstance, reagent.ID, updated.ID)

			deleted, deleteError := store.Delete(executionContext, "ATP")
			require.NoError(testInstance, deleteError)
			require.True(testInstance, deleted)
			deletedAgain, _ := store.Delete(executionContext, "ATP")
			require.False(testInstance, deletedAgain)

			_, found, getError = store.Get(executionContext, "ATP")
			require.NoError(testInstance, getError)
			require.False(testInstance, found)
		})
	}
}

func TestSQLiteStoreAssignsUUIDs(testInstance *testing.T) {
	store, openError := reagents.OpenSQLiteStore(context.Background(), filepath.Join(testInstance.TempDir(), "nested", "reagents.db"))
	require.NoError(testInstance, openError)
	defer store.Close()

	require.NoError(testInstance, store.Put(context.Background(), reagents.Reagent{Name: "NaCl", MolecularWeight: 58.44}))
	reagent, found, getError := store.Get(context.Background(), "NaCl")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	_, parseError := uuid.Parse(reagent.ID)
	require.NoError(testInstance, parseError)
}

func TestJSONStoreWritesKeyedObject(testInstance *testing.T) {
	storePath := filepath.Join(testInstance.TempDir(), "reagents.json")
	store := reagents.NewJSONStore(storePath)
	require.NoError(testInstance, store.Put(context.Background(), reagents.Reagent{Name: "Glucose", MolecularWeight: 180.16, Manufacturer: "Sigma"}))

	contents, readError := os.ReadFile(storePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "{\n    \"Glucose\": {\n        \"mw\": 180.16,\n        \"manufacturer\": \"Sigma\"\n    }\n}", string(contents))
}

func TestJSONStoresSharingAFileKeepEveryConcurrentWrite(testInstance *testing.T) {
	const writerCount = 40
	workspace := testInstance.TempDir()
	storePath := filepath.Join(workspace, "reagents.json")

	var waitGroup sync.WaitGroup
	putErrors := make([]error, writerCount)
	for writerIndex := 0; writerIndex < writerCount; writerIndex++ {
		waitGroup.Add(1)
		go func(writerIndex int) {
			defer waitGroup.Done()
			store := reagents.NewJSONStore(storePath)
			putErrors[writerIndex] = store.Put(context.Background(), reagents.Reagent{Name: fmt.Sprintf("reagent-%02d", writerIndex), MolecularWeight: float64(writerIndex + 1)})
		}(writerIndex)
	}
	waitGroup.Wait()

	for _, putError := range putErrors {
		require.NoError(testInstance, putError)
	}
	reagentList, listError := reagents.NewJSONStore(storePath).List(context.Background())
	require.NoError(testInstance, listError)
	require.Len(testInstance, reagentList, writerCount)

	leftovers, globError := filepath.Glob(filepath.Join(workspace, "*.tmp"))
	require.NoError(testInstance, globError)
	require.Empty(testInstance, leftovers)
}

func TestJSONStoreToleratesUnreadableContents(testInstance *testing.T) {
	testCases := []struct {
		name     string
		contents *string
	}{
		{name: "missing"},
		{name: "empty", contents: stringPointer("")},
		{name: "whitespace", contents: stringPointer("  \n")},
		{name: "malformed", contents: stringPointer("{not json")},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testReagentsSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			storePath := filepath.Join(testInstance.TempDir(), "reagents.json")
			if testCase.contents != nil {
				require.NoError(testInstance, os.WriteFile(storePath, []byte(*testCase.contents), 0o644))
			}
			reagentList, listError := reagents.NewJSONStore(storePath).List(context.Background())
			require.NoError(testInstance, listError)
			require.Empty(testInstance, reagentList)
		})
	}
}

func TestParseBackend(testInstance *testing.T) {
	testCases := []struct {
		name            string
		rawBackend      string
		expectedBackend reagents.Backend
		expectError     bool
	}{
		{name: "default", rawBackend: "", expectedBackend: reagents.BackendJSON},
		{name: "sqlite", rawBackend: " SQLite ", expectedBackend: reagents.BackendSQLite},
		{name: "unknown", rawBackend: "postgres", expectError: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testReagentsSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			backend, parseError := reagents.ParseBackend(testCase.rawBackend)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedBackend, backend)
		})
	}
	require.Equal(testInstance, filepath.Join("ws", "reagents.db"), reagents.WorkspaceStorePath("ws", reagents.BackendSQLite))
}

func stringPointer(value string) *string {
	return &value
}
