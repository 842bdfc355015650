package handle

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"recipe-lens/api/internal/analyze"
)

// AnalyzeImage handles POST /analyze-image with a multipart "file" field.
func (h *Handle) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad multipart: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	res, err := h.svc.Analyze(ctx, analyze.Request{Image: data, Source: "http"})
	if err != nil {
		var de *analyze.DecodeError
		if errors.As(err, &de) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image: " + de.Err.Error()})
			return
		}
		log.Printf("analyze-image: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "detect error: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// requestDeadline reads X-Request-Timeout (seconds); 180s otherwise.
func requestDeadline(r *http.Request) time.Duration {
	deadline := 180 * time.Second
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}
