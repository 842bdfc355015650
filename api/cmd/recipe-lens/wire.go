package main

import (
	"context"
	"database/sql"
	"log"

	"recipe-lens/api/internal/analyze"
	"recipe-lens/api/internal/config"
	"recipe-lens/api/internal/ingredient"
	"recipe-lens/api/internal/recipe/gemini"
	"recipe-lens/api/internal/store"
	"recipe-lens/api/internal/vision/remote"
)

// app holds the long-lived collaborators built once at startup.
type app struct {
	svc  *analyze.Service
	repo *store.AnalysisRepo // nil without DATABASE_URL
	db   *sql.DB
	gen  *gemini.Engine
}

func (a *app) Close() {
	if a.gen != nil {
		_ = a.gen.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func openDB(ctx context.Context, c *config.Config) (*sql.DB, error) {
	if c.DatabaseURL == "" {
		log.Printf("⚠️ DATABASE_URL is empty: analysis log disabled")
		return nil, nil
	}
	db, err := store.Open(ctx, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ db connected: %s", store.SafeDSNSummary(c.DatabaseURL))
	return db, nil
}

func buildApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{}

	gen, err := gemini.New(ctx, c.GeminiAPIKey, c.GeminiModel)
	if err != nil {
		return nil, err
	}
	a.gen = gen
	if c.GeminiAPIKey == "" {
		log.Printf("⚠️ GEMINI_API_KEY is empty: recipes will report a generation error")
	}

	custom := remote.Probe(ctx, "custom", c.CustomDetectorURL, c.DetectTimeout, c.DetectMaxSide)
	standard := remote.Probe(ctx, "standard", c.StandardDetectorURL, c.DetectTimeout, c.DetectMaxSide)

	db, err := openDB(ctx, c)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db

	deps := analyze.Deps{
		Custom:          custom,
		Standard:        standard,
		Filter:          ingredient.NewFilter(c.ExcludeLabels),
		Generator:       gen,
		Confidence:      c.DetectConfidence,
		GenerateTimeout: c.GenerateTimeout,
	}
	if db != nil {
		a.repo = store.NewAnalysisRepo(db)
		deps.Recorder = a.repo
	}
	a.svc = analyze.New(deps)
	return a, nil
}
