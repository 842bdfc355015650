package handle

import (
	"errors"
	"net/http"
	"strconv"

	"recipe-lens/api/internal/store"
)

// Analyses handles GET /analyses?limit=N.
func (h *Handle) Analyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET only"})
		return
	}
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis log disabled"})
		return
	}
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1..200"})
			return
		}
		limit = n
	}
	out, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": out})
}

// Analysis handles GET /analyses/{hash}.
func (h *Handle) Analysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "GET only"})
		return
	}
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis log disabled"})
		return
	}
	a, err := h.history.FindByHash(r.Context(), r.PathValue("hash"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, a)
}
