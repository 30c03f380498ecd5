package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"technotes-api/internal/logger"
	"technotes-api/internal/middleware"
	"technotes-api/internal/model"
	"technotes-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

type eventSink interface {
	Log(name string, message string)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	middleware.WriteJSON(w, status, data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apierror.Validation("Invalid JSON body", err.Error())
	}
	return nil
}

// writeError maps service and repository errors onto HTTP responses.
// Anything it cannot classify becomes a 500 and is written to the error log.
func writeError(w http.ResponseWriter, r *http.Request, sink eventSink, err error) {
	var apiErr *apierror.APIError

	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrUnauthorized):
		apiErr = apierror.Unauthorized("Unauthorized")
	case errors.Is(err, model.ErrTokenExpired), errors.Is(err, model.ErrTokenInvalid), errors.Is(err, model.ErrForbidden):
		apiErr = apierror.Forbidden("Forbidden")
	case errors.Is(err, model.ErrUserNotFound):
		apiErr = apierror.NotFound("User not found", "")
	case errors.Is(err, model.ErrNoteNotFound):
		apiErr = apierror.NotFound("Note not found", "")
	case errors.Is(err, model.ErrDuplicate):
		apiErr = apierror.Conflict("Duplicate record", "")
	case errors.Is(err, model.ErrUserHasNotes):
		apiErr = apierror.Validation("User has assigned notes", "")
	default:
		slog.Error("unhandled error", "error", err.Error(), "method", r.Method, "path", r.URL.Path)
		if sink != nil {
			sink.Log(logger.ErrorLog, fmt.Sprintf("%s\t%s\t%s\t%s", err.Error(), r.Method, r.URL.String(), r.Header.Get("Origin")))
		}
		apiErr = apierror.Internal()
	}

	middleware.WriteError(w, r, apiErr)
}

func credential(r *http.Request) (model.Credential, error) {
	cred, ok := middleware.CredentialFromContext(r.Context())
	if !ok {
		return model.Credential{}, model.ErrUnauthorized
	}
	return cred, nil
}

func rolesOf(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}
