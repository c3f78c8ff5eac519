package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"podcast-notes-go/internal/storage"
	"podcast-notes-go/internal/store"
	"podcast-notes-go/internal/types"
)

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, status, types.ErrorResponse{Error: msg})
}

// errorKind names the failure class for logs.
func errorKind(err error) string {
	var perr *types.ProviderError
	switch {
	case errors.Is(err, types.ErrConfig):
		return "config"
	case errors.Is(err, types.ErrInput):
		return "input"
	case storage.IsRetrievalError(err):
		return "retrieval"
	case errors.As(err, &perr):
		return "provider"
	case errors.Is(err, store.ErrNotFound):
		return "store"
	default:
		return "internal"
	}
}
