package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/server"
)

const (
	serverSubtestTemplateConstant = "%d_%s"
	factorialRequestBodyConstant  = `{"variables":[{"name":"Temp","values":["20","30"]},{"name":"pH","values":["6","7"]}]}`
	solidDilutionBodyConstant     = `{"reagent_name":"NaCl","stock_form":"solid","stock_concentration":1,"stock_unit":"M","target_concentration":10,"target_unit":"mM","final_volume":10,"final_volume_unit":"mL","stock_volume":10,"stock_volume_unit":"mL"}`
)

type testServer struct {
	handler      http.Handler
	observedLogs *observer.ObservedLogs
}

func newTestServer(testInstance *testing.T, storeOpener reagents.StoreOpener) testServer {
	testInstance.Helper()
	if storeOpener == nil {
		storePath := filepath.Join(testInstance.TempDir(), "reagents.json")
		storeOpener = func(context.Context) (reagents.Store, error) {
			return reagents.NewJSONStore(storePath), nil
		}
	}
	observerCore, observedLogs := observer.New(zapcore.InfoLevel)
	labServer, creationError := server.NewServer(server.Dependencies{Logger: zap.New(observerCore), StoreOpener: storeOpener})
	require.NoError(testInstance, creationError)
	return testServer{handler: labServer.Handler(), observedLogs: observedLogs}
}

func (harness testServer) do(method string, target string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	harness.handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeError(testInstance *testing.T, recorder *httptest.ResponseRecorder) string {
	testInstance.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload.Error
}

func TestHealthIsLoggedWithRequestID(testInstance *testing.T) {
	harness := newTestServer(testInstance, nil)
	recorder := harness.do(http.MethodGet, "/health", "")

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Equal(testInstance, "OK", recorder.Body.String())
	requestID := recorder.Header().Get("X-Request-Id")
	_, parseError := uuid.Parse(requestID)
	require.NoError(testInstance, parseError)

	entries := harness.observedLogs.FilterMessage("HTTP request").All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, requestID, entries[0].ContextMap()["request_id"])
	require.Equal(testInstance, "/health", entries[0].ContextMap()["path"])
	require.EqualValues(testInstance, http.StatusOK, entries[0].ContextMap()["status"])
}

func TestCalculatorEndpoints(testInstance *testing.T) {
	harness := newTestServer(testInstance, nil)

	testCases := []struct {
		name           string
		target         string
		body           string
		expectedStatus int
		assertBody     func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "factorial_csv",
			target:         "/api/design/factorial?format=csv",
			body:           factorialRequestBodyConstant,
			expectedStatus: http.StatusOK,
			assertBody: func(testInstance *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(testInstance, "Temp,pH\n20,6\n20,7\n30,6\n30,7\n", recorder.Body.String())
				require.Equal(testInstance, `attachment; filename="combinations_data.csv"`, recorder.Header().Get("Content-Disposition"))
				require.True(testInstance, strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/csv"))
			},
		},
		{
			name:           "factorial_json",
			target:         "/api/design/factorial",
			body:           factorialRequestBodyConstant,
			expectedStatus: http.StatusOK,
			assertBody: func(testInstance *testing.T, recorder *httptest.ResponseRecorder) {
				var document report.Document
				require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &document))
				require.Len(testInstance, document.Tables, 1)
				require.Equal(testInstance, []string{"Temp", "pH"}, document.Tables[0].Columns)
				require.Len(testInstance, document.Tables[0].Rows, 4)
			},
		},
		{
			name:           "box_behnken_tables",
			target:         "/api/design/box-behnken",
			body:           `{"factors":[{"name":"A","low":1,"center":2,"high":3},{"name":"B","low":10,"center":20,"high":30},{"name":"C","low":0.1,"center":0.2,"high":0.3}],"center_points":3}`,
			expectedStatus: http.StatusOK,
			assertBody: func(testInstance *testing.T, recorder *httptest.ResponseRecorder) {
				var document report.Document
				require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &document))
				require.Equal(testInstance, "BBD_3factors_15runs.csv", document.Tables[0].Name)
				require.Len(testInstance, document.Tables[0].Rows, 15)
			},
		},
		{
			name:           "factorial_without_variables",
			target:         "/api/design/factorial",
			body:           `{"variables":[]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_body",
			target:         "/api/ic50",
			body:           `{"stock_concentration":`,
			expectedStatus: http.StatusBadRequest,
			assertBody: func(testInstance *testing.T, recorder *httptest.ResponseRecorder) {
				require.Contains(testInstance, decodeError(testInstance, recorder), "invalid request body")
			},
		},
		{
			name:           "unsupported_format",
			target:         "/api/design/factorial?format=xml",
			body:           factorialRequestBodyConstant,
			expectedStatus: http.StatusBadRequest,
			assertBody: func(testInstance *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(testInstance, `unsupported format "xml" (expected json or csv)`, decodeError(testInstance, recorder))
			},
		},
		{
			name:           "solid_dilution_without_molecular_weight",
			target:         "/api/dilution",
			body:           solidDilutionBodyConstant,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong_method",
			target:         "/api/dilution",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serverSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			method := http.MethodPost
			if testCase.name == "wrong_method" {
				method = http.MethodGet
			}
			recorder := harness.do(method, testCase.target, testCase.body)
			require.Equal(testInstance, testCase.expectedStatus, recorder.Code, recorder.Body.String())
			if testCase.assertBody != nil {
				testCase.assertBody(testInstance, recorder)
			}
		})
	}
}

func TestDilutionUsesStoredMolecularWeight(testInstance *testing.T) {
	harness := newTestServer(testInstance, nil)
	require.Equal(testInstance, http.StatusCreated, harness.do(http.MethodPost, "/api/reagents", `{"name":"NaCl","mw":58.44}`).Code)

	recorder := harness.do(http.MethodPost, "/api/dilution", solidDilutionBodyConstant)
	require.Equal(testInstance, http.StatusOK, recorder.Code, recorder.Body.String())

	var document report.Document
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &document))
	require.NotEmpty(testInstance, document.Tables[0].Rows)
	require.Equal(testInstance, "NaCl", document.Tables[0].Rows[0][2])
}

func TestReagentEndpoints(testInstance *testing.T) {
	harness := newTestServer(testInstance, nil)

	created := harness.do(http.MethodPost, "/api/reagents", `{"name":"Glucose","mw":180.16,"manufacturer":"Sigma"}`)
	require.Equal(testInstance, http.StatusCreated, created.Code)

	duplicate := harness.do(http.MethodPost, "/api/reagents", `{"name":"Glucose","mw":180.16}`)
	require.Equal(testInstance, http.StatusConflict, duplicate.Code)
	require.Equal(testInstance, "Reagent 'Glucose' already exists.", decodeError(testInstance, duplicate))

	invalid := harness.do(http.MethodPost, "/api/reagents", `{"name":"Water","mw":0}`)
	require.Equal(testInstance, http.StatusBadRequest, invalid.Code)
	require.Equal(testInstance, "Reagent Name and a valid MW are required.", decodeError(testInstance, invalid))

	missing := harness.do(http.MethodPut, "/api/reagents/ATP", `{"mw":507.18}`)
	require.Equal(testInstance, http.StatusNotFound, missing.Code)

	updated := harness.do(http.MethodPut, "/api/reagents/Glucose", `{"mw":180.2,"manufacturer":"Merck"}`)
	require.Equal(testInstance, http.StatusOK, updated.Code)
	var updatedReagent reagents.Reagent
	require.NoError(testInstance, json.Unmarshal(updated.Body.Bytes(), &updatedReagent))
	require.Equal(testInstance, "Merck", updatedReagent.Manufacturer)

	listed := harness.do(http.MethodGet, "/api/reagents", "")
	require.Equal(testInstance, http.StatusOK, listed.Code)
	var reagentList []reagents.Reagent
	require.NoError(testInstance, json.Unmarshal(listed.Body.Bytes(), &reagentList))
	require.Len(testInstance, reagentList, 1)
	require.InDelta(testInstance, 180.2, reagentList[0].MolecularWeight, 1e-9)

	exported := harness.do(http.MethodGet, "/api/reagents?format=csv", "")
	require.Equal(testInstance, "Reagent Name,mw,manufacturer\nGlucose,180.2,Merck\n", exported.Body.String())
	require.Equal(testInstance, `attachment; filename="reagent_list.csv"`, exported.Header().Get("Content-Disposition"))

	index := harness.do(http.MethodGet, "/", "")
	require.Equal(testInstance, http.StatusOK, index.Code)
	require.Contains(testInstance, index.Body.String(), "Lab Toolkit")
	require.Contains(testInstance, index.Body.String(), "Glucose")

	require.Equal(testInstance, http.StatusNoContent, harness.do(http.MethodDelete, "/api/reagents/Glucose", "").Code)
	require.Equal(testInstance, http.StatusNotFound, harness.do(http.MethodDelete, "/api/reagents/Glucose", "").Code)

	empty := harness.do(http.MethodGet, "/api/reagents", "")
	require.Equal(testInstance, "[]\n", empty.Body.String())
}

func TestConcurrentReagentAddsAreAllStored(testInstance *testing.T) {
	const requestCount = 40
	harness := newTestServer(testInstance, nil)

	var waitGroup sync.WaitGroup
	statusCodes := make([]int, requestCount)
	for requestIndex := 0; requestIndex < requestCount; requestIndex++ {
		waitGroup.Add(1)
		go func(requestIndex int) {
			defer waitGroup.Done()
			body := fmt.Sprintf(`{"name":"Reagent-%02d","mw":%d}`, requestIndex, requestIndex+1)
			statusCodes[requestIndex] = harness.do(http.MethodPost, "/api/reagents", body).Code
		}(requestIndex)
	}
	waitGroup.Wait()

	for requestIndex, statusCode := range statusCodes {
		require.Equal(testInstance, http.StatusCreated, statusCode, requestIndex)
	}
	listed := harness.do(http.MethodGet, "/api/reagents", "")
	var reagentList []reagents.Reagent
	require.NoError(testInstance, json.Unmarshal(listed.Body.Bytes(), &reagentList))
	require.Len(testInstance, reagentList, requestCount)
}

func TestConcurrentAddsOfOneNameCreateItOnce(testInstance *testing.T) {
	const requestCount = 10
	harness := newTestServer(testInstance, nil)

	var waitGroup sync.WaitGroup
	statusCodes := make(chan int, requestCount)
	for requestIndex := 0; requestIndex < requestCount; requestIndex++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			statusCodes <- harness.do(http.MethodPost, "/api/reagents", `{"name":"Glucose","mw":180.16}`).Code
		}()
	}
	waitGroup.Wait()
	close(statusCodes)

	counts := map[int]int{}
	for statusCode := range statusCodes {
		counts[statusCode]++
	}
	require.Equal(testInstance, map[int]int{http.StatusCreated: 1, http.StatusConflict: requestCount - 1}, counts)
}

func TestMalformedReagentBodyReportsDecodeFailure(testInstance *testing.T) {
	harness := newTestServer(testInstance, nil)

	recorder := harness.do(http.MethodPost, "/api/reagents", `{"name":`)
	require.Equal(testInstance, http.StatusBadRequest, recorder.Code)
	require.Equal(testInstance, "invalid request body: unexpected EOF", decodeError(testInstance, recorder))
}

func TestStoreFailuresAnswerInternalError(testInstance *testing.T) {
	harness := newTestServer(testInstance, func(context.Context) (reagents.Store, error) {
		return nil, errors.New("disk unavailable")
	})

	listed := harness.do(http.MethodGet, "/api/reagents", "")
	require.Equal(testInstance, http.StatusInternalServerError, listed.Code)
	require.Equal(testInstance, "reagent store unavailable: disk unavailable", decodeError(testInstance, listed))

	require.Equal(testInstance, http.StatusInternalServerError, harness.do(http.MethodPost, "/api/dilution", solidDilutionBodyConstant).Code)
	require.Equal(testInstance, http.StatusInternalServerError, harness.do(http.MethodGet, "/", "").Code)
}

func TestNewServerRequiresStoreOpener(testInstance *testing.T) {
	_, creationError := server.NewServer(server.Dependencies{})
	require.ErrorIs(testInstance, creationError, server.ErrStoreOpenerMissing)
}
