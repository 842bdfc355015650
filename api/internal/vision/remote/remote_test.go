package remote

import (
	"context"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"recipe-lens/api/internal/vision"
)

// fakeServer emulates the model-serving process. It records the uploaded image size and conf.
type fakeServer struct {
	t        *testing.T
	body     string
	status   int
	gotConf  string
	gotW     int
	gotH     int
	requests int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		w.WriteHeader(f.status)
	case "/predict":
		f.requests++
		if r.Method != http.MethodPost {
			f.t.Errorf("predict method = %s", r.Method)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			f.t.Errorf("missing file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		img, err := imaging.Decode(file)
		if err != nil {
			f.t.Errorf("uploaded image is not decodable: %v", err)
		} else {
			f.gotW, f.gotH = img.Bounds().Dx(), img.Bounds().Dy()
		}
		f.gotConf = r.FormValue("conf")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	default:
		http.NotFound(w, r)
	}
}

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{200, 120, 40, 255})
}

func TestDetect(t *testing.T) {
	fs := &fakeServer{t: t, status: http.StatusOK, body: `{"detections":[
		{"label":"tomato","confidence":0.91,"box":[10,20,30,40]},
		{"label":"orange","confidence":0.55,"box":[12.5,20,31,41]}
	]}`}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	c := New("custom", srv.URL+"/", time.Second, 0)
	dets, err := c.Detect(context.Background(), testImage(64, 48), 0.25)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if fs.gotConf != "0.25" {
		t.Errorf("conf = %q, want 0.25", fs.gotConf)
	}
	if fs.gotW != 64 || fs.gotH != 48 {
		t.Errorf("uploaded %dx%d, want 64x48", fs.gotW, fs.gotH)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections, want 2", len(dets))
	}
	want := vision.Detection{Label: "tomato", Confidence: 0.91, Box: vision.Box{X1: 10, Y1: 20, X2: 30, Y2: 40}}
	if dets[0] != want {
		t.Errorf("dets[0] = %+v, want %+v", dets[0], want)
	}
	if dets[1].Label != "orange" || dets[1].Box.X1 != 12.5 {
		t.Errorf("dets[1] = %+v", dets[1])
	}
}

func TestDetectDownscalesAndRescalesBoxes(t *testing.T) {
	fs := &fakeServer{t: t, status: http.StatusOK, body: `{"detections":[{"label":"egg","confidence":0.7,"box":[10,10,20,20]}]}`}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	c := New("standard", srv.URL, time.Second, 100)
	dets, err := c.Detect(context.Background(), testImage(400, 200), 0.25)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if fs.gotW != 100 || fs.gotH != 50 {
		t.Fatalf("uploaded %dx%d, want 100x50", fs.gotW, fs.gotH)
	}
	want := vision.Box{X1: 40, Y1: 40, X2: 80, Y2: 80}
	if len(dets) != 1 || dets[0].Box != want {
		t.Fatalf("dets = %+v, want box %+v", dets, want)
	}
}

func TestDetectEmpty(t *testing.T) {
	fs := &fakeServer{t: t, status: http.StatusOK, body: `{"detections":[]}`}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	dets, err := New("custom", srv.URL, time.Second, 0).Detect(context.Background(), testImage(8, 8), 0.25)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(dets) != 0 {
		t.Fatalf("dets = %v, want none", dets)
	}
}

func TestDetectErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "model crashed", "500"},
		{"bad json", http.StatusOK, "{", "decode response"},
		{"short box", http.StatusOK, `{"detections":[{"label":"egg","box":[1,2,3]}]}`, "3 coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(&fakeServer{t: t, status: tt.status, body: tt.body})
			defer srv.Close()

			_, err := New("custom", srv.URL, time.Second, 0).Detect(context.Background(), testImage(8, 8), 0.25)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
			if strings.Contains(err.Error(), "custom") {
				t.Fatalf("err = %v: the pipeline names the detector, the client must not", err)
			}
		})
	}
}

func TestDetectUnreachable(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{t: t, status: http.StatusOK})
	url := srv.URL
	srv.Close()

	_, err := New("custom", url, time.Second, 0).Detect(context.Background(), testImage(8, 8), 0.25)
	if err == nil || !strings.HasPrefix(err.Error(), "predict: ") {
		t.Fatalf("err = %v, want a predict error", err)
	}
	if strings.Contains(err.Error(), "custom detector") {
		t.Fatalf("err = %v repeats the detector name", err)
	}
}

func TestPrepareScalesEachAxis(t *testing.T) {
	c := New("standard", "http://unused", time.Second, 100)
	resized, fx, fy := c.prepare(testImage(1000, 333))

	rb := resized.Bounds()
	if rb.Dx() != 100 {
		t.Fatalf("resized width = %d, want 100", rb.Dx())
	}
	if fx == fy {
		t.Fatalf("fx = fy = %v; height rounding should give its own factor", fx)
	}
	full := vision.Box{X1: 0, Y1: 0, X2: float64(rb.Dx()), Y2: float64(rb.Dy())}.Scale(fx, fy)
	if math.Abs(full.X2-1000) > 1e-9 || math.Abs(full.Y2-333) > 1e-9 {
		t.Fatalf("full-frame box maps to %+v, want 1000x333", full)
	}

	if _, fx, fy := c.prepare(testImage(80, 60)); fx != 1 || fy != 1 {
		t.Fatalf("small image factors = %v, %v; want 1, 1", fx, fy)
	}
}

func TestProbe(t *testing.T) {
	healthy := httptest.NewServer(&fakeServer{t: t, status: http.StatusOK})
	defer healthy.Close()
	sick := httptest.NewServer(&fakeServer{t: t, status: http.StatusServiceUnavailable})
	defer sick.Close()

	ctx := context.Background()
	if d := Probe(ctx, "custom", "", time.Second, 0); d != nil {
		t.Errorf("unconfigured detector should be nil, got %v", d)
	}
	if d := Probe(ctx, "custom", sick.URL, time.Second, 0); d != nil {
		t.Errorf("unhealthy detector should be nil, got %v", d)
	}
	d := Probe(ctx, "custom", healthy.URL, time.Second, 0)
	if d == nil {
		t.Fatal("healthy detector should be returned")
	}
	if d.Name() != "custom" {
		t.Errorf("Name = %q", d.Name())
	}
}
