package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"podcast-notes-go/internal/api/middleware"
	"podcast-notes-go/internal/config"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/pipeline"
	"podcast-notes-go/internal/types"
)

// Runner is the processing pipeline as seen by the handler.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type ProcessHandler struct {
	cfg    *config.Config
	runner Runner
	log    *logger.Logger
}

func NewProcessHandler(cfg *config.Config, runner Runner, log *logger.Logger) *ProcessHandler {
	return &ProcessHandler{cfg: cfg, runner: runner, log: log.Component("process-audio")}
}

// Process runs the pipeline synchronously for one podcast. Every failure is
// answered with a 500 carrying the message and the podcast id when known.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r)
	if claims := middleware.GetClaims(r); claims != nil {
		reqLog = reqLog.WithField("user_id", claims.Subject)
	}
	start := time.Now()

	if err := h.cfg.RequireProvider(); err != nil {
		reqLog.WithField("kind", errorKind(err)).Error(err.Error())
		jsonResponse(w, http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
		return
	}

	var body types.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reqLog.WithField("error", err.Error()).Warn("invalid request body")
		jsonResponse(w, http.StatusInternalServerError, types.ErrorResponse{Error: "Invalid JSON body: " + err.Error()})
		return
	}
	reqLog = reqLog.WithField("podcast_id", body.PodcastID)

	res, err := h.runner.Run(r.Context(), pipeline.Request{
		PodcastID: body.PodcastID,
		AudioURL:  body.AudioURL,
		Title:     body.PodcastTitle,
	})
	if err != nil {
		reqLog.WithField("kind", errorKind(err)).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("error", err.Error()).
			Error("process-audio failed")
		jsonResponse(w, http.StatusInternalServerError, types.ErrorResponse{
			Error:     err.Error(),
			PodcastID: body.PodcastID,
		})
		return
	}

	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("process-audio finished")
	jsonResponse(w, http.StatusOK, types.ProcessResponse{
		Success:            true,
		Message:            "Podcast processed successfully",
		TranscriptLength:   res.TranscriptLength,
		ShowNotesGenerated: true,
		Duration:           res.Duration,
	})
}
