package handlers

import (
	"net/http"
	"todolist/internal/logger"
	"todolist/internal/middleware"
	"todolist/internal/service"

	"go.uber.org/zap"
)

// handleError answers err as a re-rendered form: business errors keep their code,
// message and the submitted input; anything else becomes an opaque 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, form any) {
	if handleBusinessError(w, r, err, form) {
		return
	}

	logger.Error("HTTP: internal error", err,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))

	responseWithJSON(w, http.StatusInternalServerError,
		toPayload("error", "INTERNAL"),
		toPayload("message", "internal server error"),
	)
}

func handleBusinessError(w http.ResponseWriter, r *http.Request, err error, form any) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: business error",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("error_code", businessErr.Code),
		zap.String("message", businessErr.Message),
		zap.Int("http_status", statusCode))

	payload := []Payload{
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	}
	if form != nil {
		payload = append(payload, toPayload("form", form))
	}
	responseWithJSON(w, statusCode, payload...)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeAuthentication:
		return http.StatusUnauthorized
	case service.CodeAuthorization:
		return http.StatusForbidden
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict, service.CodeAlreadyCompleted, service.CodeVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	handleBusinessError(w, r, service.NewBusinessError(service.CodeNotFound, "page not found"), nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusMethodNotAllowed,
		toPayload("error", "METHOD_NOT_ALLOWED"),
		toPayload("message", "method "+r.Method+" is not allowed here"),
	)
}
