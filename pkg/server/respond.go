package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/typegraph/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidKind, errors.ErrCodeInvalidIndex,
		errors.ErrCodeIncompatibleKind, errors.ErrCodeCircularInheritance, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicate, errors.ErrCodeNothingToUndo, errors.ErrCodeNothingToRedo:
		return http.StatusConflict
	case errors.ErrCodeReadOnly:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func badRequest(err error, what string) error {
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: %v", what, err)
}
