package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/report"
	"github.com/temirov/labkit/internal/serialdilution"
)

const (
	formatQueryParameterConstant     = "format"
	contentTypeHeaderConstant        = "Content-Type"
	contentDispositionHeaderConstant = "Content-Disposition"
	jsonContentTypeConstant          = "application/json"
	csvContentTypeConstant           = "text/csv; charset=utf-8"
	htmlContentTypeConstant          = "text/html; charset=utf-8"
	textContentTypeConstant          = "text/plain; charset=utf-8"
	attachmentTemplateConstant       = "attachment; filename=%q"
	healthResponseConstant           = "OK"
	applicationTitleConstant         = "Lab Toolkit"
	decodeRequestErrorTemplate       = "invalid request body: %v"
	storeFailureErrorTemplate        = "reagent store unavailable: %v"
	unsupportedFormatTemplate        = "unsupported format %q (expected json or csv)"
	requestFailedMessageConstant     = "Request failed"
	responseWriteFailedMessage       = "Unable to write response"
	statusLogFieldConstant           = "status"
)

type errorResponse struct {
	Error string `json:"error"`
}

type requestDecodeError struct {
	cause error
}

func (decodeError requestDecodeError) Error() string {
	return fmt.Sprintf(decodeRequestErrorTemplate, decodeError.cause)
}

func (decodeError requestDecodeError) Unwrap() error {
	return decodeError.cause
}

type storeFailure struct {
	cause error
}

func (failure storeFailure) Error() string {
	return fmt.Sprintf(storeFailureErrorTemplate, failure.cause)
}

func (failure storeFailure) Unwrap() error {
	return failure.cause
}

// storeLookup marks lookup failures so they answer 500 instead of 400.
type storeLookup struct {
	delegate reagents.OpenerLookup
}

func (lookup storeLookup) LookupMolecularWeight(executionContext context.Context, reagentName string) (float64, bool, error) {
	molecularWeight, found, lookupError := lookup.delegate.LookupMolecularWeight(executionContext, reagentName)
	if lookupError != nil {
		return 0, false, storeFailure{cause: lookupError}
	}
	return molecularWeight, found, nil
}

type toolLink struct {
	Name     string
	Endpoint string
}

type indexPage struct {
	Title    string
	Tools    []toolLink
	Reagents []reagents.Reagent
}

func (server *Server) handleHealth(responseWriter http.ResponseWriter, request *http.Request) {
	responseWriter.Header().Set(contentTypeHeaderConstant, textContentTypeConstant)
	responseWriter.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(responseWriter, healthResponseConstant)
}

func (server *Server) handleIndex(responseWriter http.ResponseWriter, request *http.Request) {
	var reagentList []reagents.Reagent
	listError := server.withReagents(request.Context(), func(service *reagents.Service) error {
		var serviceError error
		reagentList, serviceError = service.List(request.Context())
		return serviceError
	})
	if listError != nil {
		server.writeError(responseWriter, http.StatusInternalServerError, listError)
		return
	}

	page := indexPage{
		Title: applicationTitleConstant,
		Tools: []toolLink{
			{Name: "Experiment Designer: full factorial", Endpoint: factorialPathConstant},
			{Name: "Experiment Designer: Box-Behnken", Endpoint: boxBehnkenPathConstant},
			{Name: "Dilution Master", Endpoint: dilutionPathConstant},
			{Name: "Serial Dilution Planner", Endpoint: serialDilutionPathConstant},
			{Name: "IC50 Planner", Endpoint: ic50PathConstant},
			{Name: "Reagent Manager", Endpoint: reagentsPathConstant},
		},
		Reagents: reagentList,
	}
	responseWriter.Header().Set(contentTypeHeaderConstant, htmlContentTypeConstant)
	if renderError := server.templates.ExecuteTemplate(responseWriter, indexTemplateNameConstant, page); renderError != nil {
		server.logger.Error(responseWriteFailedMessage, zap.Error(renderError))
	}
}

func (server *Server) handleCalculator(plan func(context.Context, *json.Decoder) (report.Document, error)) http.HandlerFunc {
	return func(responseWriter http.ResponseWriter, request *http.Request) {
		format, formatError := parseResponseFormat(request)
		if formatError != nil {
			server.writeError(responseWriter, http.StatusBadRequest, formatError)
			return
		}
		document, planError := plan(request.Context(), json.NewDecoder(request.Body))
		if planError != nil {
			server.writeError(responseWriter, calculatorStatus(planError), planError)
			return
		}
		server.writeDocument(responseWriter, format, document)
	}
}

func (server *Server) planFactorial(executionContext context.Context, decoder *json.Decoder) (report.Document, error) {
	var designRequest design.FactorialRequest
	if decodeError := decoder.Decode(&designRequest); decodeError != nil {
		return report.Document{}, requestDecodeError{cause: decodeError}
	}
	result, planError := server.designService.Factorial(executionContext, designRequest)
	if planError != nil {
		return report.Document{}, planError
	}
	return result.Document(), nil
}

func (server *Server) planBoxBehnken(executionContext context.Context, decoder *json.Decoder) (report.Document, error) {
	var designRequest design.BoxBehnkenRequest
	if decodeError := decoder.Decode(&designRequest); decodeError != nil {
		return report.Document{}, requestDecodeError{cause: decodeError}
	}
	result, planError := server.designService.BoxBehnken(executionContext, designRequest)
	if planError != nil {
		return report.Document{}, planError
	}
	return result.Document(), nil
}

func (server *Server) planDilution(executionContext context.Context, decoder *json.Decoder) (report.Document, error) {
	var dilutionRequest dilution.Request
	if decodeError := decoder.Decode(&dilutionRequest); decodeError != nil {
		return report.Document{}, requestDecodeError{cause: decodeError}
	}
	result, planError := server.dilutionService.Plan(executionContext, dilutionRequest)
	if planError != nil {
		return report.Document{}, planError
	}
	return result.Document(), nil
}

func (server *Server) planSerialDilution(executionContext context.Context, decoder *json.Decoder) (report.Document, error) {
	var serialRequest serialdilution.Request
	if decodeError := decoder.Decode(&serialRequest); decodeError != nil {
		return report.Document{}, requestDecodeError{cause: decodeError}
	}
	result, planError := server.serialService.Plan(executionContext, serialRequest)
	if planError != nil {
		return report.Document{}, planError
	}
	return result.Document(), nil
}

func (server *Server) planIC50(executionContext context.Context, decoder *json.Decoder) (report.Document, error) {
	var ic50Request ic50.Request
	if decodeError := decoder.Decode(&ic50Request); decodeError != nil {
		return report.Document{}, requestDecodeError{cause: decodeError}
	}
	result, planError := server.ic50Service.Plan(executionContext, ic50Request)
	if planError != nil {
		return report.Document{}, planError
	}
	return result.Document(), nil
}

func (server *Server) handleListReagents(responseWriter http.ResponseWriter, request *http.Request) {
	format, formatError := parseResponseFormat(request)
	if formatError != nil {
		server.writeError(responseWriter, http.StatusBadRequest, formatError)
		return
	}
	reagentList := []reagents.Reagent{}
	listError := server.withReagents(request.Context(), func(service *reagents.Service) error {
		storedReagents, serviceError := service.List(request.Context())
		reagentList = append(reagentList, storedReagents...)
		return serviceError
	})
	if listError != nil {
		server.writeError(responseWriter, reagentStatus(listError), listError)
		return
	}
	if format == report.FormatCSV {
		server.writeDocument(responseWriter, format, reagents.ExportDocument(reagentList))
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, reagentList)
}

func (server *Server) handleAddReagent(responseWriter http.ResponseWriter, request *http.Request) {
	var candidate reagents.Reagent
	if decodeError := json.NewDecoder(request.Body).Decode(&candidate); decodeError != nil {
		server.writeError(responseWriter, http.StatusBadRequest, requestDecodeError{cause: decodeError})
		return
	}
	var added reagents.Reagent
	addError := server.withReagents(request.Context(), func(service *reagents.Service) error {
		var serviceError error
		added, serviceError = service.Add(request.Context(), candidate)
		return serviceError
	})
	if addError != nil {
		server.writeError(responseWriter, reagentStatus(addError), addError)
		return
	}
	server.writeJSON(responseWriter, http.StatusCreated, added)
}

func (server *Server) handleUpdateReagent(responseWriter http.ResponseWriter, request *http.Request) {
	var candidate reagents.Reagent
	if decodeError := json.NewDecoder(request.Body).Decode(&candidate); decodeError != nil {
		server.writeError(responseWriter, http.StatusBadRequest, requestDecodeError{cause: decodeError})
		return
	}
	candidate.Name = mux.Vars(request)[reagentNameVariableConstant]
	var updated reagents.Reagent
	updateError := server.withReagents(request.Context(), func(service *reagents.Service) error {
		var serviceError error
		updated, serviceError = service.Update(request.Context(), candidate)
		return serviceError
	})
	if updateError != nil {
		server.writeError(responseWriter, reagentStatus(updateError), updateError)
		return
	}
	server.writeJSON(responseWriter, http.StatusOK, updated)
}

func (server *Server) handleDeleteReagent(responseWriter http.ResponseWriter, request *http.Request) {
	reagentName := mux.Vars(request)[reagentNameVariableConstant]
	deleteError := server.withReagents(request.Context(), func(service *reagents.Service) error {
		return service.Delete(request.Context(), reagentName)
	})
	if deleteError != nil {
		server.writeError(responseWriter, reagentStatus(deleteError), deleteError)
		return
	}
	responseWriter.WriteHeader(http.StatusNoContent)
}

// withReagents runs one catalog operation against a freshly opened store.
// Operations are serialized so a lookup and the write that follows it see the same catalog.
func (server *Server) withReagents(executionContext context.Context, operation func(*reagents.Service) error) (operationError error) {
	server.catalogMutex.Lock()
	defer server.catalogMutex.Unlock()

	store, openError := server.storeOpener(executionContext)
	if openError != nil {
		return storeFailure{cause: openError}
	}
	defer func() {
		if closeError := store.Close(); closeError != nil {
			operationError = errors.Join(operationError, storeFailure{cause: closeError})
		}
	}()
	return operation(reagents.NewService(store, server.logger))
}

func (server *Server) writeDocument(responseWriter http.ResponseWriter, format report.Format, document report.Document) {
	if format != report.FormatCSV {
		server.writeJSON(responseWriter, http.StatusOK, document)
		return
	}
	primaryTable, primaryError := document.Primary()
	if primaryError != nil {
		server.writeError(responseWriter, http.StatusInternalServerError, primaryError)
		return
	}
	responseWriter.Header().Set(contentTypeHeaderConstant, csvContentTypeConstant)
	responseWriter.Header().Set(contentDispositionHeaderConstant, fmt.Sprintf(attachmentTemplateConstant, primaryTable.Name))
	responseWriter.WriteHeader(http.StatusOK)
	if csvError := report.WriteCSV(responseWriter, primaryTable); csvError != nil {
		server.logger.Error(responseWriteFailedMessage, zap.Error(csvError))
	}
}

func (server *Server) writeJSON(responseWriter http.ResponseWriter, status int, payload any) {
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	responseWriter.WriteHeader(status)
	if encodeError := json.NewEncoder(responseWriter).Encode(payload); encodeError != nil {
		server.logger.Error(responseWriteFailedMessage, zap.Error(encodeError))
	}
}

func (server *Server) writeError(responseWriter http.ResponseWriter, status int, failure error) {
	if status >= http.StatusInternalServerError {
		server.logger.Error(requestFailedMessageConstant, zap.Int(statusLogFieldConstant, status), zap.Error(failure))
	} else {
		server.logger.Debug(requestFailedMessageConstant, zap.Int(statusLogFieldConstant, status), zap.Error(failure))
	}
	server.writeJSON(responseWriter, status, errorResponse{Error: failure.Error()})
}

func parseResponseFormat(request *http.Request) (report.Format, error) {
	rawFormat := strings.ToLower(strings.TrimSpace(request.URL.Query().Get(formatQueryParameterConstant)))
	switch report.Format(rawFormat) {
	case "", report.FormatJSON:
		return report.FormatJSON, nil
	case report.FormatCSV:
		return report.FormatCSV, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplate, rawFormat)
	}
}

func calculatorStatus(failure error) int {
	var failedStore storeFailure
	if errors.As(failure, &failedStore) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func reagentStatus(failure error) int {
	switch {
	case errors.Is(failure, reagents.ErrReagentNotFound):
		return http.StatusNotFound
	case errors.Is(failure, reagents.ErrReagentExists):
		return http.StatusConflict
	case errors.Is(failure, reagents.ErrInvalidReagent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
