package vision

import (
	"context"
	"image"
)

// DefaultConfidence is the minimum score a detector should report.
const DefaultConfidence = 0.25

// Detection is one labelled object instance reported by a detector.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Detector runs an object-detection model over a decoded image.
// Implementations are shared across requests and must not keep per-call state.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img image.Image, confidence float64) ([]Detection, error)
}

// Labels returns the labels of ds in order, duplicates included.
func Labels(ds []Detection) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Label)
	}
	return out
}
