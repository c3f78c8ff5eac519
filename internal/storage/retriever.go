package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultBucket = "audio-files"
	publicPrefix  = "/storage/v1/object/public/"
)

var (
	ErrInvalidReference = errors.New("invalid audio URL format")
	ErrNotFound         = errors.New("audio object not found")
	ErrEmptyFile        = errors.New("downloaded audio file is empty")
)

// TooLargeError is returned when the object exceeds the transcription
// provider's upload ceiling.
type TooLargeError struct {
	SizeBytes  int64
	LimitBytes int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("audio file too large: %.2fMB. Maximum size is %dMB",
		float64(e.SizeBytes)/1024/1024, e.LimitBytes/1024/1024)
}

// Audio is a downloaded object with a best-effort content type.
type Audio struct {
	Key         string
	Data        []byte
	ContentType string
	Extension   string
}

func (a *Audio) Size() int64 { return int64(len(a.Data)) }

// Retriever resolves an audio reference to raw bytes.
type Retriever interface {
	Retrieve(ctx context.Context, audioURL string) (*Audio, error)
}

// PublicMarker is the path segment that separates the project host from the
// storage key in a public object URL of bucket.
func PublicMarker(bucket string) string {
	return publicPrefix + bucket + "/"
}

// ObjectKey extracts the storage key that follows the bucket's public marker.
func ObjectKey(audioURL, bucket string) (string, error) {
	parts := strings.Split(audioURL, PublicMarker(bucket))
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrInvalidReference
	}
	key := parts[1]
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", ErrInvalidReference
	}
	return key, nil
}

// IsRetrievalError reports whether err came out of a Retriever.
func IsRetrievalError(err error) bool {
	var tooLarge *TooLargeError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrInvalidReference) ||
		errors.As(err, &tooLarge)
}
