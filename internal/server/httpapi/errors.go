package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/server/documents"
)

// apiError is the wire shape of a service error, shared with the
// terminal-agent client.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func classify(err error) (code string, status int) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return "not-found", http.StatusNotFound
	case errors.Is(err, documents.ErrDocumentExists),
		errors.Is(err, common.ErrorLoginAlreadyExists):
		return "already-exists", http.StatusConflict
	case errors.Is(err, common.ErrorInvalidLoginPassword),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return "unauthenticated", http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return "permission-denied", http.StatusForbidden
	case errors.Is(err, common.ErrorValidation):
		return "failed-precondition", http.StatusBadRequest
	default:
		return "internal", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, status := classify(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
