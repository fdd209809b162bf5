package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    gerrors.Code `json:"code,omitempty"`
	Message string       `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch gerrors.GetCode(err) {
	case gerrors.ErrCodeItemNotFound, gerrors.ErrCodeLayoutNotFound, gerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case gerrors.ErrCodeItemAlreadyExists, gerrors.ErrCodeLayoutExists:
		return http.StatusConflict
	case gerrors.ErrCodeInvalidInput, gerrors.ErrCodeInvalidFormat, gerrors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case gerrors.ErrCodeOutOfBounds:
		return http.StatusUnprocessableEntity
	case gerrors.ErrCodeNetwork, gerrors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	case gerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    gerrors.GetCode(err),
		Message: gerrors.UserMessage(err),
	}})
}

// decode reads a JSON request body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}
