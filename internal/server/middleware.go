package server

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeaderConstant       = "X-Request-Id"
	requestHandledMessageConstant = "HTTP request"
	requestIDLogFieldConstant     = "request_id"
	methodLogFieldConstant        = "method"
	pathLogFieldConstant          = "path"
	durationLogFieldConstant      = "duration"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(status int) {
	recorder.status = status
	recorder.ResponseWriter.WriteHeader(status)
}

func (server *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestID := uuid.NewString()
		responseWriter.Header().Set(requestIDHeaderConstant, requestID)
		recorder := &statusRecorder{ResponseWriter: responseWriter, status: http.StatusOK}
		startedAt := server.clock()

		next.ServeHTTP(recorder, request)

		server.logger.Info(
			requestHandledMessageConstant,
			zap.String(requestIDLogFieldConstant, requestID),
			zap.String(methodLogFieldConstant, request.Method),
			zap.String(pathLogFieldConstant, request.URL.Path),
			zap.Int(statusLogFieldConstant, recorder.status),
			zap.Duration(durationLogFieldConstant, server.clock().Sub(startedAt)),
		)
	})
}
