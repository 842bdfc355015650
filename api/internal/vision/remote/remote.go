package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"recipe-lens/api/internal/vision"
)

// Client talks to a model-serving process that wraps one set of detection weights.
//
//	POST <base>/predict   multipart: file=<jpeg>, conf=<float>
//	GET  <base>/health    200 when the model is loaded
type Client struct {
	name    string
	baseURL string
	maxSide int
	httpc   *http.Client
}

// New returns a client for the detector at baseURL. Images whose longer side exceeds
// maxSide are downscaled before upload; maxSide <= 0 disables resizing.
func New(name, baseURL string, timeout time.Duration, maxSide int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSide: maxSide,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return c.name }

type predictResponse struct {
	Detections []struct {
		Label      string    `json:"label"`
		Confidence float64   `json:"confidence"`
		Box        []float64 `json:"box"` // x1, y1, x2, y2
	} `json:"detections"`
}

// Detect uploads img and returns detections in the original image's pixel space.
func (c *Client) Detect(ctx context.Context, img image.Image, confidence float64) ([]vision.Detection, error) {
	upload, fx, fy := c.prepare(img)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := imaging.Encode(part, upload, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(confidence, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write conf: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict status %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	dets := make([]vision.Detection, 0, len(out.Detections))
	for _, d := range out.Detections {
		if len(d.Box) != 4 {
			return nil, fmt.Errorf("box for %q has %d coordinates", d.Label, len(d.Box))
		}
		b := vision.Box{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]}
		if fx != 1 || fy != 1 {
			b = b.Scale(fx, fy)
		}
		dets = append(dets, vision.Detection{Label: d.Label, Confidence: d.Confidence, Box: b})
	}
	return dets, nil
}

// prepare downscales img when needed and returns the per-axis factors mapping
// uploaded coordinates back to the original image. Fit rounds each side on its own.
func (c *Client) prepare(img image.Image) (image.Image, float64, float64) {
	if c.maxSide <= 0 {
		return img, 1, 1
	}
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= c.maxSide {
		return img, 1, 1
	}
	resized := imaging.Fit(img, c.maxSide, c.maxSide, imaging.Lanczos)
	rb := resized.Bounds()
	return resized, float64(b.Dx()) / float64(rb.Dx()), float64(b.Dy()) / float64(rb.Dy())
}

// CheckHealth verifies the detector has its model loaded.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health status %d", resp.StatusCode)
	}
	return nil
}

// Probe returns a Detector for baseURL, or nil when the detector is not configured or does not
// answer its health check. Callers treat nil as an absent detector.
func Probe(ctx context.Context, name, baseURL string, timeout time.Duration, maxSide int) vision.Detector {
	if strings.TrimSpace(baseURL) == "" {
		log.Printf("⚠️ %s detector not configured; continuing without it", name)
		return nil
	}
	c := New(name, baseURL, timeout, maxSide)

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.CheckHealth(hctx); err != nil {
		log.Printf("⚠️ %s detector unavailable at %s: %v", name, baseURL, err)
		return nil
	}
	log.Printf("✅ %s detector ready at %s", name, baseURL)
	return c
}
