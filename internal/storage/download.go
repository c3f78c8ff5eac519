package storage

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
)

const (
	fallbackContentType = "audio/mpeg"
	fallbackExtension   = ".mp3"
)

// defaultBackOff retries a transient download failure twice.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 300 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 2)
}

func retryDownload(ctx context.Context, newBackOff func() backoff.BackOff, op func() ([]byte, error)) ([]byte, error) {
	if newBackOff == nil {
		newBackOff = defaultBackOff
	}
	return backoff.RetryWithData(op, backoff.WithContext(newBackOff(), ctx))
}

// finish applies the size gate and sniffs the content type. The gate runs
// before anything is handed to the transcription provider.
func finish(key string, data []byte, limit int64) (*Audio, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, &TooLargeError{SizeBytes: int64(len(data)), LimitBytes: limit}
	}

	contentType, ext := fallbackContentType, fallbackExtension
	mt := mimetype.Detect(data)
	if s := mt.String(); strings.HasPrefix(s, "audio/") || strings.HasPrefix(s, "video/") {
		contentType = s
		if mt.Extension() != "" {
			ext = mt.Extension()
		}
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
	}

	return &Audio{
		Key:         key,
		Data:        data,
		ContentType: contentType,
		Extension:   ext,
	}, nil
}
