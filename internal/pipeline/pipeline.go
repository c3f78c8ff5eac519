package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"podcast-notes-go/internal/extractor"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/storage"
	"podcast-notes-go/internal/store"
	"podcast-notes-go/internal/transcription"
	"podcast-notes-go/internal/types"
)

// failureWriteTimeout bounds the best-effort failed-status write.
const failureWriteTimeout = 10 * time.Second

type Timeouts struct {
	Retrieval     time.Duration
	Transcription time.Duration
	Summary       time.Duration
}

type Request struct {
	PodcastID string
	AudioURL  string
	Title     string
}

type Result struct {
	Transcript string
	// TranscriptLength counts UTF-16 code units, matching what browser
	// clients report for the same text.
	TranscriptLength int
	Duration         int
	ShowNotes        types.ShowNotes
}

// Orchestrator runs one podcast through retrieval, transcription and
// summarization and records the outcome in the status store.
//
// Callers must not run two invocations for the same podcast at once and
// must not re-run a record that already reached a terminal status.
type Orchestrator struct {
	store       store.StatusStore
	retriever   storage.Retriever
	transcriber transcription.Transcriber
	summarizer  extractor.Summarizer
	timeouts    Timeouts
	log         *logger.Logger
}

func New(st store.StatusStore, r storage.Retriever, t transcription.Transcriber, s extractor.Summarizer, timeouts Timeouts, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:       st,
		retriever:   r,
		transcriber: t,
		summarizer:  s,
		timeouts:    timeouts,
		log:         log.Component("pipeline"),
	}
}

// Run processes one record. Errors from retrieval, transcription or the
// summarization call leave the record failed with a placeholder document;
// the returned error carries the message for the caller's response.
//
// A run is not abortable: cancelling ctx does not stop it, only the per-step
// timeouts do. Values carried by ctx are kept.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	if req.PodcastID == "" || req.AudioURL == "" {
		return nil, &types.InputError{Msg: "Missing podcastId or audioUrl in request body"}
	}
	if req.Title == "" {
		req.Title = extractor.DefaultTitle
	}
	log := o.log.With("podcast_id", req.PodcastID)
	log.WithField("audio_url", req.AudioURL).Info("processing podcast")

	// Visible before any external call so a crash leaves the row processing.
	if err := o.store.Update(ctx, req.PodcastID, types.StatusUpdate{Status: types.StatusProcessing}); err != nil {
		log.WithError(err).Error("failed to mark podcast processing")
		return nil, fmt.Errorf("update status to processing: %w", err)
	}

	res, err := o.process(ctx, req, log)
	if err == nil {
		err = o.complete(ctx, req.PodcastID, res)
	}
	if err != nil {
		log.WithError(err).Error("podcast processing failed")
		o.fail(ctx, req.PodcastID, err, log)
		return nil, err
	}

	log.WithField("duration", res.Duration).Info("podcast processing completed")
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, req Request, log *logger.Logger) (*Result, error) {
	rctx, cancel := withTimeout(ctx, o.timeouts.Retrieval)
	audio, err := o.retriever.Retrieve(rctx, req.AudioURL)
	cancel()
	if err != nil {
		return nil, stepError("audio retrieval", o.timeouts.Retrieval, err)
	}
	log.WithField("size_bytes", audio.Size()).Info("audio retrieved")

	tctx, cancel := withTimeout(ctx, o.timeouts.Transcription)
	tr, err := o.transcriber.Transcribe(tctx, audio.Data, "audio"+audio.Extension, audio.ContentType)
	cancel()
	if err != nil {
		return nil, stepError("transcription", o.timeouts.Transcription, err)
	}
	duration := transcription.EstimateDuration(tr.Text)
	log.WithField("words", transcription.WordCount(tr.Text)).Info("transcript received")

	sctx, cancel := withTimeout(ctx, o.timeouts.Summary)
	notes, err := o.summarizer.Summarize(sctx, tr.Text, req.Title)
	cancel()
	if err != nil {
		return nil, stepError("summarization", o.timeouts.Summary, err)
	}

	return &Result{
		TranscriptLength: len(utf16.Encode([]rune(tr.Text))),
		Duration:         duration,
		ShowNotes:        notes,
		Transcript:       tr.Text,
	}, nil
}

// complete writes every result column and the terminal status in one update.
func (o *Orchestrator) complete(ctx context.Context, id string, res *Result) error {
	encoded, err := res.ShowNotes.Encode()
	if err != nil {
		return err
	}
	err = o.store.Update(ctx, id, types.StatusUpdate{
		Status:       types.StatusCompleted,
		Transcript:   &res.Transcript,
		ShowNotes:    &encoded,
		KeyTakeaways: nonNil(res.ShowNotes.KeyTakeaways),
		Timestamps:   nonNilChapters(res.ShowNotes.Chapters),
		Duration:     &res.Duration,
	})
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// fail records the failed status and placeholder document. It never returns
// an error: a second failure here is only logged.
func (o *Orchestrator) fail(ctx context.Context, id string, cause error, log *logger.Logger) {
	wctx, cancel := context.WithTimeout(ctx, failureWriteTimeout)
	defer cancel()

	transcript := FailureTranscript(cause)
	notes, err := PlaceholderShowNotes().Encode()
	if err != nil {
		log.WithError(err).Error("failed to encode placeholder show notes")
		return
	}
	err = o.store.Update(wctx, id, types.StatusUpdate{
		Status:     types.StatusFailed,
		Transcript: &transcript,
		ShowNotes:  &notes,
	})
	if err != nil {
		log.WithError(err).Error("failed to update podcast status")
	}
}

// FailureTranscript is the human-readable text stored in place of a
// transcript when a run fails. The cause is shown as a sentence, so its first
// letter is capitalised.
func FailureTranscript(cause error) string {
	msg := "Unknown error"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
		r, size := utf8.DecodeRuneInString(msg)
		msg = string(unicode.ToUpper(r)) + msg[size:]
	}
	return fmt.Sprintf("Processing failed: %s. Please try uploading again.", msg)
}

// PlaceholderShowNotes is the minimal document stored on failure.
func PlaceholderShowNotes() types.ShowNotes {
	return types.ShowNotes{
		Summary:        "Processing failed. Please try uploading again or check your audio file format.",
		KeyTakeaways:   []string{"Upload failed - please retry"},
		Chapters:       []types.Chapter{},
		Quotes:         []types.Quote{},
		Resources:      []string{},
		SocialCaptions: []string{},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func stepError(step string, limit time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %w", step, limit, err)
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilChapters(c []types.Chapter) []types.Chapter {
	if c == nil {
		return []types.Chapter{}
	}
	return c
}
