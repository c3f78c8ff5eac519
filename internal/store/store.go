package store

import (
	"context"
	"errors"

	"podcast-notes-go/internal/types"
)

// Table is the name of the podcasts table or collection in every backend.
const Table = "podcasts"

var ErrNotFound = errors.New("podcast record not found")

// StatusStore is the persistence boundary of the processing pipeline. Update
// writes only the pipeline-owned columns; a record that does not exist is
// reported as ErrNotFound.
type StatusStore interface {
	Update(ctx context.Context, id string, u types.StatusUpdate) error
	Get(ctx context.Context, id string) (*types.PodcastRecord, error)
	List(ctx context.Context) ([]types.PodcastRecord, error)
	Close() error
}

// apply copies the non-nil fields of u onto rec.
func apply(rec *types.PodcastRecord, u types.StatusUpdate) {
	rec.ProcessingStatus = u.Status
	if u.Transcript != nil {
		rec.Transcript = *u.Transcript
	}
	if u.ShowNotes != nil {
		rec.ShowNotes = *u.ShowNotes
	}
	if u.KeyTakeaways != nil {
		rec.KeyTakeaways = append([]string(nil), u.KeyTakeaways...)
	}
	if u.Timestamps != nil {
		rec.Timestamps = append([]types.Chapter(nil), u.Timestamps...)
	}
	if u.Duration != nil {
		rec.Duration = *u.Duration
	}
}

// columns renders u as column/value pairs in a fixed order. JSON-valued
// columns are left as Go values for the caller to encode.
func columns(u types.StatusUpdate) ([]string, []any) {
	cols := []string{"processing_status"}
	vals := []any{string(u.Status)}
	if u.Transcript != nil {
		cols = append(cols, "transcript")
		vals = append(vals, *u.Transcript)
	}
	if u.ShowNotes != nil {
		cols = append(cols, "show_notes")
		vals = append(vals, *u.ShowNotes)
	}
	if u.KeyTakeaways != nil {
		cols = append(cols, "key_takeaways")
		vals = append(vals, u.KeyTakeaways)
	}
	if u.Timestamps != nil {
		cols = append(cols, "timestamps")
		vals = append(vals, u.Timestamps)
	}
	if u.Duration != nil {
		cols = append(cols, "duration")
		vals = append(vals, *u.Duration)
	}
	return cols, vals
}
