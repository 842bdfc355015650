package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-lens/api/internal/analyze"
)

var ErrNotFound = sql.ErrNoRows

// Analysis is one logged pipeline run. The image itself is never stored, only its hash.
type Analysis struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ImageHash   string    `json:"image_hash"`
	Source      string    `json:"source"`
	Ingredients []string  `json:"ingredients"`
	Recipe      string    `json:"recipe"`
	RecipeOK    bool      `json:"recipe_ok"`
}

type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

// Record implements analyze.Recorder.
func (r *AnalysisRepo) Record(ctx context.Context, rec analyze.Record) error {
	ingredients := rec.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	js, err := json.Marshal(ingredients)
	if err != nil {
		return err
	}
	const q = `
insert into analyses (image_hash, source, ingredients, recipe, recipe_ok)
values ($1, $2, $3, $4, $5)`
	_, err = r.DB.ExecContext(ctx, q, rec.ImageHash, rec.Source, js, rec.Recipe, rec.RecipeOK)
	return err
}

// Recent returns the newest analyses first, at most limit rows.
func (r *AnalysisRepo) Recent(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
select id, created_at, image_hash, source, ingredients, recipe, recipe_ok
from analyses
order by created_at desc, id desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Analysis, 0, limit)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindByHash returns the newest analysis of the image with the given SHA-256.
func (r *AnalysisRepo) FindByHash(ctx context.Context, imageHash string) (*Analysis, error) {
	const q = `
select id, created_at, image_hash, source, ingredients, recipe, recipe_ok
from analyses
where image_hash = $1
order by created_at desc, id desc
limit 1`
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, q, imageHash))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// PurgeOlderThan deletes log entries older than the given age.
func (r *AnalysisRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from analyses where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (Analysis, error) {
	var (
		a  Analysis
		js []byte
	)
	if err := s.Scan(&a.ID, &a.CreatedAt, &a.ImageHash, &a.Source, &js, &a.Recipe, &a.RecipeOK); err != nil {
		return Analysis{}, err
	}
	if err := json.Unmarshal(js, &a.Ingredients); err != nil {
		return Analysis{}, fmt.Errorf("analysis %d: bad ingredients json: %w", a.ID, err)
	}
	return a, nil
}
