package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"podcast-notes-go/internal/logger"
)

// HTTPRetriever fetches the public object URL directly. It is used when the
// record store is not Supabase and audio is served by any static host that
// mirrors the public storage path.
type HTTPRetriever struct {
	Bucket     string
	Limit      int64
	Client     *http.Client
	NewBackOff func() backoff.BackOff

	log *logger.Logger
}

func NewHTTPRetriever(bucket string, limit int64, log *logger.Logger) *HTTPRetriever {
	return &HTTPRetriever{
		Bucket: bucket,
		Limit:  limit,
		Client: &http.Client{},
		log:    log.Component("storage.http"),
	}
}

func (r *HTTPRetriever) Retrieve(ctx context.Context, audioURL string) (*Audio, error) {
	key, err := ObjectKey(audioURL, r.Bucket)
	if err != nil {
		return nil, err
	}

	data, err := retryDownload(ctx, r.NewBackOff, func() ([]byte, error) {
		b, err := getObject(ctx, r.Client, audioURL, nil, key, r.Limit)
		if err != nil && ctx.Err() == nil {
			r.log.WithError(err).Warn("audio request failed")
		}
		return b, err
	})
	if err != nil {
		if IsRetrievalError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download audio file: %w", err)
	}
	return finish(key, data, r.Limit)
}

// getObject GETs one object. Server errors and transport failures stay
// retryable; everything else is wrapped as permanent.
func getObject(ctx context.Context, client *http.Client, objectURL string, header http.Header, key string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, objectURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		switch {
		case resp.StatusCode == http.StatusNotFound,
			resp.StatusCode == http.StatusBadRequest && isNotFound(string(msg)):
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, key))
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("storage server error: %d", resp.StatusCode)
		default:
			return nil, backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
	}

	if limit > 0 && resp.ContentLength > limit {
		return nil, backoff.Permanent(&TooLargeError{SizeBytes: resp.ContentLength, LimitBytes: limit})
	}

	body := io.Reader(resp.Body)
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	return io.ReadAll(body)
}
