package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"recipe-lens/api/internal/analyze"
	"recipe-lens/api/internal/store"
)

// Analyzer runs the ingredient/recipe pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req analyze.Request) (analyze.Result, error)
	Available() map[string]bool
}

// History reads the analysis log. Nil when no database is configured.
type History interface {
	Recent(ctx context.Context, limit int) ([]store.Analysis, error)
	FindByHash(ctx context.Context, imageHash string) (*store.Analysis, error)
}

type Handle struct {
	svc       Analyzer
	history   History
	maxUpload int64
}

func New(svc Analyzer, history History, maxUpload int64) *Handle {
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Handle{
		svc:       svc,
		history:   history,
		maxUpload: maxUpload,
	}
}

// Routes registers every endpoint on a new mux wrapped in the CORS middleware.
func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/analyze-image", h.AnalyzeImage)
	mux.HandleFunc("/analyses", h.Analyses)
	mux.HandleFunc("/analyses/{hash}", h.Analysis)
	return CORS(mux)
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"detectors": h.svc.Available(),
		"history":   h.history != nil,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
