package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/store"
	"podcast-notes-go/internal/types"
)

type StatusHandler struct {
	store store.StatusStore
	log   *logger.Logger
}

func NewStatusHandler(st store.StatusStore, log *logger.Logger) *StatusHandler {
	return &StatusHandler{store: st, log: log.Component("status")}
}

// GetStatus returns the processing status of one podcast for polling clients.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing podcast ID", http.StatusBadRequest)
		return
	}

	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "podcast not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.WithRequest(r).WithField("error", err.Error()).Error("status lookup failed")
		jsonError(w, "failed to load podcast status", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, http.StatusOK, types.StatusResponse{
		ID:               rec.ID,
		ProcessingStatus: rec.ProcessingStatus,
		Duration:         rec.Duration,
		UpdatedAt:        rec.UpdatedAt,
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
