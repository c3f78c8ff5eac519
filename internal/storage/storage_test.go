package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"podcast-notes-go/internal/logger"
)

const testURL = "https://proj.supabase.co/storage/v1/object/public/audio-files/user-1/episode.mp3"

func noWait() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func TestObjectKey(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"public url", testURL, "user-1/episode.mp3", false},
		{"strips query", testURL + "?download=1", "user-1/episode.mp3", false},
		{"missing marker", "https://proj.supabase.co/other/path.mp3", "", true},
		{"empty key", "https://proj.supabase.co/storage/v1/object/public/audio-files/", "", true},
		{"marker twice", testURL + "/storage/v1/object/public/audio-files/x", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ObjectKey(tc.url, DefaultBucket)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Fatalf("expected ErrInvalidReference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("key = %q, want %q", got, tc.want)
			}
		})
	}
}

func newSupabaseRetriever(limit int64, download DownloadFunc) *SupabaseRetriever {
	return &SupabaseRetriever{
		Bucket:     DefaultBucket,
		Limit:      limit,
		Download:   download,
		NewBackOff: noWait,
		log:        logger.Nop(),
	}
}

func TestSupabaseRetriever_Success(t *testing.T) {
	var gotBucket, gotKey string
	r := newSupabaseRetriever(1024, func(_ context.Context, bucket, key string) ([]byte, error) {
		gotBucket, gotKey = bucket, key
		return []byte("not really audio"), nil
	})

	audio, err := r.Retrieve(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if gotBucket != "audio-files" || gotKey != "user-1/episode.mp3" {
		t.Errorf("downloaded %s/%s", gotBucket, gotKey)
	}
	if audio.ContentType != "audio/mpeg" || audio.Extension != ".mp3" {
		t.Errorf("expected mp3 fallback, got %s %s", audio.ContentType, audio.Extension)
	}
}

func TestSupabaseRetriever_SniffsWav(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), bytes.Repeat([]byte{0}, 32)...)
	r := newSupabaseRetriever(1024, func(context.Context, string, string) ([]byte, error) { return wav, nil })

	audio, err := r.Retrieve(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if audio.Extension != ".wav" {
		t.Errorf("Extension = %q, want .wav", audio.Extension)
	}
}

func TestSupabaseRetriever_Errors(t *testing.T) {
	t.Run("not found is not retried", func(t *testing.T) {
		var calls int32
		r := newSupabaseRetriever(1024, func(context.Context, string, string) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("Object not found")
		})
		_, err := r.Retrieve(context.Background(), testURL)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		r := newSupabaseRetriever(1024, func(context.Context, string, string) ([]byte, error) { return []byte{}, nil })
		if _, err := r.Retrieve(context.Background(), testURL); !errors.Is(err, ErrEmptyFile) {
			t.Fatalf("expected ErrEmptyFile, got %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		r := newSupabaseRetriever(10, func(context.Context, string, string) ([]byte, error) { return make([]byte, 11), nil })
		_, err := r.Retrieve(context.Background(), testURL)
		var tooLarge *TooLargeError
		if !errors.As(err, &tooLarge) {
			t.Fatalf("expected TooLargeError, got %v", err)
		}
		if tooLarge.SizeBytes != 11 || tooLarge.LimitBytes != 10 {
			t.Errorf("unexpected sizes: %+v", tooLarge)
		}
	})

	t.Run("transient error retried then surfaced", func(t *testing.T) {
		var calls int32
		r := newSupabaseRetriever(1024, func(context.Context, string, string) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("connection reset")
		})
		_, err := r.Retrieve(context.Background(), testURL)
		if err == nil || !strings.Contains(err.Error(), "failed to download audio file") {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})
}

func TestTooLargeError_Message(t *testing.T) {
	err := &TooLargeError{SizeBytes: 30 * 1024 * 1024, LimitBytes: 25 * 1024 * 1024}
	want := "audio file too large: 30.00MB. Maximum size is 25MB"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestHTTPRetriever(t *testing.T) {
	var fails int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/missing.mp3"):
			http.NotFound(w, r)
		case strings.HasSuffix(r.URL.Path, "/big.mp3"):
			w.Write(make([]byte, 64))
		case strings.HasSuffix(r.URL.Path, "/flaky.mp3"):
			if atomic.AddInt32(&fails, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte("audio bytes"))
		default:
			w.Write([]byte("audio bytes"))
		}
	}))
	defer srv.Close()

	r := NewHTTPRetriever(DefaultBucket, 32, logger.Nop())
	r.NewBackOff = noWait
	base := srv.URL + PublicMarker(DefaultBucket)

	audio, err := r.Retrieve(context.Background(), base+"ok.mp3")
	if err != nil {
		t.Fatalf("Retrieve ok: %v", err)
	}
	if string(audio.Data) != "audio bytes" || audio.Key != "ok.mp3" {
		t.Errorf("unexpected audio: %+v", audio)
	}

	if _, err := r.Retrieve(context.Background(), base+"missing.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var tooLarge *TooLargeError
	if _, err := r.Retrieve(context.Background(), base+"big.mp3"); !errors.As(err, &tooLarge) {
		t.Errorf("expected TooLargeError, got %v", err)
	}

	if _, err := r.Retrieve(context.Background(), base+"flaky.mp3"); err != nil {
		t.Errorf("expected retry to recover, got %v", err)
	}
}

func TestSupabaseRetriever_StopsAtDeadline(t *testing.T) {
	// The download ignores ctx, as the storage SDK does.
	r := newSupabaseRetriever(1024, func(context.Context, string, string) ([]byte, error) {
		time.Sleep(500 * time.Millisecond)
		return []byte("late audio"), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := r.Retrieve(ctx, testURL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("Retrieve returned after %s, want it bounded by the 50ms deadline", elapsed)
	}
}

func TestNewSupabaseRetriever_AuthenticatedEndpoint(t *testing.T) {
	var gotPath, gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/gone.mp3") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
			return
		}
		gotPath, gotAuth, gotKey = r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("apikey")
		w.Write([]byte("audio bytes"))
	}))
	defer srv.Close()

	r := NewSupabaseRetriever(srv.URL+"/", "service-key", DefaultBucket, 1024, logger.Nop())
	r.NewBackOff = noWait

	audio, err := r.Retrieve(context.Background(), srv.URL+PublicMarker(DefaultBucket)+"user-1/episode.mp3")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if string(audio.Data) != "audio bytes" {
		t.Errorf("data = %q", audio.Data)
	}
	if gotPath != "/storage/v1/object/audio-files/user-1/episode.mp3" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-key" || gotKey != "service-key" {
		t.Errorf("auth headers = %q / %q", gotAuth, gotKey)
	}

	_, err = r.Retrieve(context.Background(), srv.URL+PublicMarker(DefaultBucket)+"gone.mp3")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a not_found answer, got %v", err)
	}
}

func TestHTTPRetriever_StopsAtDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewHTTPRetriever(DefaultBucket, 1024, logger.Nop())
	r.NewBackOff = noWait
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Retrieve(ctx, srv.URL+PublicMarker(DefaultBucket)+"slow.mp3")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
