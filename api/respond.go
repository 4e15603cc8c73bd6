package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/pkg/repository"
)

const (
	internalErrorMessage = "internal server error"
	maxJSONBody          = 1 << 20
)

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, errorResponse{Error: msg}, status)
}

// writeRepoError maps repository and storage failures onto HTTP responses.
// notFound is the message used for repository.ErrNotFound.
func writeRepoError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var ve *repository.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, errorResponse{Error: ve.Error(), Fields: ve.Fields}, http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request deadline exceeded",
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
		writeError(w, http.StatusServiceUnavailable, "request timed out")
	case errors.Is(err, recordstore.ErrMalformedRecord):
		logger.Error("stored data is malformed",
			slog.Any("err", err),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	default:
		logger.Error("request failed",
			slog.Any("err", err),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

// readBody returns the request body, capped at maxJSONBody.
func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxJSONBody {
		return nil, fmt.Errorf("request body larger than %d bytes", maxJSONBody)
	}
	return b, nil
}

// decodeJSON decodes the body into v. Unknown keys are ignored unless
// strict is set.
func decodeJSON(r *http.Request, v any, strict bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(v)
}
