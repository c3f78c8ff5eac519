package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	supabase "github.com/supabase-community/supabase-go"

	"podcast-notes-go/internal/api"
	"podcast-notes-go/internal/config"
	"podcast-notes-go/internal/extractor"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/pipeline"
	"podcast-notes-go/internal/storage"
	"podcast-notes-go/internal/store"
	"podcast-notes-go/internal/transcription"
)

func main() {
	if os.Getenv("ENVIRONMENT") != "production" {
		_ = godotenv.Load() // loads .env
	}

	cfg, err := config.Load()
	if err != nil {
		logger.New("", "info").WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	log.WithField("service", "podcast-notes-go").
		WithField("store", cfg.StoreBackend).
		Info("starting service")

	if err := cfg.RequireProvider(); err != nil {
		// Requests still get a 500 with this message; boot anyway.
		log.Warn(err.Error())
	}

	var sb *supabase.Client
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		sb, err = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			log.WithError(err).Fatal("failed to create supabase client")
		}
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, sb, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open status store")
	}
	defer st.Close()

	var retriever storage.Retriever
	if sb != nil {
		retriever = storage.NewSupabaseRetriever(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.AudioBucket, cfg.MaxAudioBytes, log)
	} else {
		retriever = storage.NewHTTPRetriever(cfg.AudioBucket, cfg.MaxAudioBytes, log)
	}

	timeouts := pipeline.Timeouts{
		Retrieval:     cfg.RetrievalTimeout,
		Transcription: cfg.TranscriptionTimeout,
		Summary:       cfg.SummaryTimeout,
	}
	orchestrator := pipeline.New(
		st,
		retriever,
		transcription.NewWhisperClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.TranscriptionModel, cfg.Language, log),
		extractor.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.SummaryModel, log),
		timeouts,
		log,
	)

	router := api.NewRouter(cfg, st, orchestrator, log)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// A request holds the connection for the whole pipeline run.
		WriteTimeout: timeouts.Retrieval + timeouts.Transcription + timeouts.Summary + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server terminated")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("server stopped")
}
