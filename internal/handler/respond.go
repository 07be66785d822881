package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pokerledger/platform/internal/domain"
)

const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError writes a JSON error response, detecting domain.AppError for status codes.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		if appErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(appErr.RetryAfter.Round(time.Second)/time.Second)))
		}
		RespondJSON(w, appErr.Status, appErr)
		return
	}
	if rw, ok := w.(*responseWriter); ok {
		rw.err = err
	}
	RespondJSON(w, http.StatusInternalServerError, &domain.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}

// RespondMessage writes {"message": msg} with status 200.
func RespondMessage(w http.ResponseWriter, msg string) {
	RespondJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// DecodeJSON reads and decodes a JSON request body into dst. Domain errors raised
// while decoding (bad amounts) pass through; anything else is a validation error.
func DecodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		return domain.ErrValidation("invalid request body")
	}
	return nil
}
