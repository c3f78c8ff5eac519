package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	supabase "github.com/supabase-community/supabase-go"

	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

// SupabaseStore writes podcast rows through the PostgREST API with the
// service role key.
type SupabaseStore struct {
	client     *supabase.Client
	NewBackOff func() backoff.BackOff
	log        *logger.Logger
}

func NewSupabaseStore(client *supabase.Client, log *logger.Logger) *SupabaseStore {
	return &SupabaseStore{
		client: client,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
		log: log.Component("store.supabase"),
	}
}

// supabaseRow mirrors the podcasts table. show_notes is raw because the
// column may be text or jsonb depending on the project's migration.
type supabaseRow struct {
	ID               string          `json:"id"`
	UserID           *string         `json:"user_id"`
	Title            string          `json:"title"`
	Description      *string         `json:"description"`
	AudioURL         string          `json:"audio_url"`
	OriginalFilename *string         `json:"original_filename"`
	FileSize         *int64          `json:"file_size"`
	ProcessingStatus string          `json:"processing_status"`
	Transcript       *string         `json:"transcript"`
	ShowNotes        json.RawMessage `json:"show_notes"`
	KeyTakeaways     []string        `json:"key_takeaways"`
	Timestamps       []types.Chapter `json:"timestamps"`
	Duration         *int            `json:"duration"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (r supabaseRow) record() types.PodcastRecord {
	rec := types.PodcastRecord{
		ID:               r.ID,
		UserID:           deref(r.UserID),
		Title:            r.Title,
		Description:      deref(r.Description),
		AudioURL:         r.AudioURL,
		OriginalFilename: deref(r.OriginalFilename),
		ProcessingStatus: types.ProcessingStatus(r.ProcessingStatus),
		Transcript:       deref(r.Transcript),
		ShowNotes:        showNotesText(r.ShowNotes),
		KeyTakeaways:     r.KeyTakeaways,
		Timestamps:       r.Timestamps,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.FileSize != nil {
		rec.FileSize = *r.FileSize
	}
	if r.Duration != nil {
		rec.Duration = *r.Duration
	}
	return rec
}

// Update sends one PATCH carrying every changed column. Transport failures
// are retried; PostgREST errors are not.
func (s *SupabaseStore) Update(ctx context.Context, id string, u types.StatusUpdate) error {
	cols, vals := columns(u)
	payload := make(map[string]any, len(cols))
	for i, col := range cols {
		payload[col] = vals[i]
	}

	op := func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, backoff.Permanent(err)
		}
		body, err := bounded(ctx, func() ([]byte, error) {
			b, _, err := s.client.From(Table).Update(payload, "representation", "").Eq("id", id).Execute()
			return b, err
		})
		if err != nil {
			if ctx.Err() != nil || isPostgrestError(err) {
				return nil, backoff.Permanent(err)
			}
			s.log.WithError(err).WithField("podcast_id", id).Warn("status update failed, retrying")
			return nil, err
		}
		return body, nil
	}

	body, err := backoff.RetryWithData(op, backoff.WithContext(s.NewBackOff(), ctx))
	if err != nil {
		return fmt.Errorf("update podcast %s: %w", id, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("update podcast %s: decode response: %w", id, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) Get(ctx context.Context, id string) (*types.PodcastRecord, error) {
	rows, err := bounded(ctx, func() ([]supabaseRow, error) {
		var rows []supabaseRow
		_, err := s.client.From(Table).Select("*", "", false).Eq("id", id).ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return nil, fmt.Errorf("get podcast %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	rec := rows[0].record()
	return &rec, nil
}

func (s *SupabaseStore) List(ctx context.Context) ([]types.PodcastRecord, error) {
	rows, err := bounded(ctx, func() ([]supabaseRow, error) {
		var rows []supabaseRow
		_, err := s.client.From(Table).Select("*", "", false).ExecuteTo(&rows)
		return rows, err
	})
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	out := make([]types.PodcastRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *SupabaseStore) Close() error { return nil }

// bounded runs a PostgREST call, which takes no context, and stops waiting
// once ctx is done. An abandoned request completes in the background and its
// result is dropped.
func bounded[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}

// isPostgrestError matches the "(code) message" errors the client builds from
// a PostgREST error body. Those are answers, not transport failures.
func isPostgrestError(err error) bool {
	return strings.HasPrefix(err.Error(), "(")
}

// showNotesText returns the stored document as text whether the column
// holds a JSON string or a native JSON value.
func showNotesText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
