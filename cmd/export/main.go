package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	supabase "github.com/supabase-community/supabase-go"

	"podcast-notes-go/internal/config"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/report"
	"podcast-notes-go/internal/store"
	"podcast-notes-go/internal/types"
)

func main() {
	out := flag.String("out", "podcasts.xlsx", "path of the xlsx workbook to write")
	staleAfter := flag.Duration("stale", 0, "list records stuck in processing longer than this (0 disables)")
	flag.Parse()

	if os.Getenv("ENVIRONMENT") != "production" {
		_ = godotenv.Load()
	}
	cfg, err := config.Load()
	if err != nil {
		logger.New("", "info").WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Environment, cfg.LogLevel).Component("export")

	var sb *supabase.Client
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		if sb, err = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil); err != nil {
			log.WithError(err).Fatal("failed to create supabase client")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg, sb, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open status store")
	}
	defer st.Close()

	records, err := st.List(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to list podcasts")
	}

	var stale []types.PodcastRecord
	if *staleAfter > 0 {
		stale = report.Stale(records, *staleAfter, time.Now())
		for _, r := range stale {
			log.WithField("podcast_id", r.ID).
				WithField("updated_at", r.UpdatedAt).
				Warn("podcast stuck in processing")
		}
	}

	wb, err := report.Build(records, stale, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build workbook")
	}
	defer wb.Close()
	if err := wb.SaveAs(*out); err != nil {
		log.WithError(err).Fatal("failed to save workbook")
	}
	log.WithField("path", *out).WithField("records", len(records)).Info("export written")
}
