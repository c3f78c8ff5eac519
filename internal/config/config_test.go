package config

import (
	"errors"
	"testing"
	"time"

	"podcast-notes-go/internal/types"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxAudioBytes != 25*1024*1024 {
		t.Errorf("MaxAudioBytes = %d, want 25 MiB", cfg.MaxAudioBytes)
	}
	if cfg.RetrievalTimeout != 60*time.Second || cfg.TranscriptionTimeout != 120*time.Second || cfg.SummaryTimeout != 60*time.Second {
		t.Errorf("unexpected timeouts: %v %v %v", cfg.RetrievalTimeout, cfg.TranscriptionTimeout, cfg.SummaryTimeout)
	}
	if cfg.TranscriptionModel != "whisper-1" || cfg.SummaryModel != "gpt-4o-mini" || cfg.Language != "en" {
		t.Errorf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.AudioBucket != "audio-files" {
		t.Errorf("AudioBucket = %q", cfg.AudioBucket)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if err := cfg.RequireProvider(); err != nil {
		t.Errorf("RequireProvider: %v", err)
	}
}

func TestLoad_SupabaseRequiresCredentials(t *testing.T) {
	t.Setenv("STORE_BACKEND", "supabase")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")

	_, err := Load()
	if !errors.Is(err, types.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SUMMARY_TIMEOUT", "soon")

	if _, err := Load(); !errors.Is(err, types.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRequireProvider_MissingKey(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireProvider()
	if !errors.Is(err, types.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList = %v", got)
	}
}
