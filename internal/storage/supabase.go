package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"podcast-notes-go/internal/logger"
)

// DownloadFunc fetches one object from a bucket.
type DownloadFunc func(ctx context.Context, bucket, key string) ([]byte, error)

// SupabaseRetriever downloads audio from Supabase Storage with the service
// role, so private objects referenced by a public-style URL still resolve.
type SupabaseRetriever struct {
	Bucket     string
	Limit      int64
	Download   DownloadFunc
	NewBackOff func() backoff.BackOff

	log *logger.Logger
}

// NewSupabaseRetriever reads objects from the authenticated storage endpoint
// of the project at projectURL.
func NewSupabaseRetriever(projectURL, serviceKey, bucket string, limit int64, log *logger.Logger) *SupabaseRetriever {
	d := &objectDownloader{
		baseURL: strings.TrimRight(projectURL, "/") + "/storage/v1/object/",
		header:  http.Header{},
		client:  &http.Client{},
		limit:   limit,
	}
	d.header.Set("Authorization", "Bearer "+serviceKey)
	d.header.Set("apikey", serviceKey)
	return NewDownloadRetriever(d.download, bucket, limit, log)
}

// NewDownloadRetriever wraps any bucket download function, such as a local
// mirror of the bucket.
func NewDownloadRetriever(download DownloadFunc, bucket string, limit int64, log *logger.Logger) *SupabaseRetriever {
	return &SupabaseRetriever{
		Bucket:   bucket,
		Limit:    limit,
		Download: download,
		log:      log.Component("storage.supabase"),
	}
}

func (r *SupabaseRetriever) Retrieve(ctx context.Context, audioURL string) (*Audio, error) {
	key, err := ObjectKey(audioURL, r.Bucket)
	if err != nil {
		return nil, err
	}
	r.log.WithField("key", key).Info("downloading audio object")

	data, err := retryDownload(ctx, r.NewBackOff, func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, backoff.Permanent(err)
		}
		b, err := boundedDownload(ctx, r.Download, r.Bucket, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			if isNotFound(err.Error()) {
				return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, key))
			}
			r.log.WithError(err).Warn("storage download failed")
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		if IsRetrievalError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download audio file: %w", err)
	}

	audio, err := finish(key, data, r.Limit)
	if err != nil {
		return nil, err
	}
	r.log.WithField("size_bytes", audio.Size()).WithField("content_type", audio.ContentType).Info("audio downloaded")
	return audio, nil
}

// boundedDownload stops waiting once ctx is done, even when download itself
// does not watch ctx. A late result is dropped.
func boundedDownload(ctx context.Context, download DownloadFunc, bucket, key string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		b, err := download(ctx, bucket, key)
		done <- result{b, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.data, res.err
	}
}

// objectDownloader fetches {baseURL}{bucket}/{key} with the service role.
type objectDownloader struct {
	baseURL string
	header  http.Header
	client  *http.Client
	limit   int64
}

func (d *objectDownloader) download(ctx context.Context, bucket, key string) ([]byte, error) {
	return getObject(ctx, d.client, d.baseURL+bucket+"/"+key, d.header, key, d.limit)
}

// isNotFound matches the storage API's missing-object answers, which come
// back as 404 or as a 400 whose body names the error.
func isNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found") || strings.Contains(msg, "404")
}
