package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"recipe-lens/api/internal/ingredient"
	"recipe-lens/api/internal/recipe"
	"recipe-lens/api/internal/util"
	"recipe-lens/api/internal/vision"
)

// Request is one image to analyze. Source tags where it came from: "http", "telegram", "cli".
type Request struct {
	Image  []byte
	Source string
}

// Result is what callers return to the user.
type Result struct {
	Ingredients []string `json:"ingredients"`
	Recipe      string   `json:"recipe"`
}

// Record is a finished analysis handed to the Recorder.
type Record struct {
	ImageHash   string
	Source      string
	Ingredients []string
	Recipe      string
	RecipeOK    bool
}

// Recorder keeps a log of finished analyses. It is never read back by the pipeline.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// DecodeError means the uploaded bytes are not an image we can read.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Deps are the long-lived collaborators of the pipeline. Custom, Standard and Recorder may be nil.
type Deps struct {
	Custom          vision.Detector
	Standard        vision.Detector
	Filter          *ingredient.Filter
	Generator       recipe.Generator
	Recorder        Recorder
	Confidence      float64
	GenerateTimeout time.Duration
}

// Service runs decode → detect → reconcile → filter → generate.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	custom     vision.Detector
	standard   vision.Detector
	filter     *ingredient.Filter
	gen        recipe.Generator
	rec        Recorder
	confidence float64
	genTimeout time.Duration
}

func New(d Deps) *Service {
	s := &Service{
		custom:     d.Custom,
		standard:   d.Standard,
		filter:     d.Filter,
		gen:        d.Generator,
		rec:        d.Recorder,
		confidence: d.Confidence,
		genTimeout: d.GenerateTimeout,
	}
	if s.filter == nil {
		s.filter = ingredient.NewFilter(nil)
	}
	if s.confidence <= 0 {
		s.confidence = vision.DefaultConfidence
	}
	return s
}

// Available reports which detectors were loaded at startup.
func (s *Service) Available() map[string]bool {
	return map[string]bool{
		"custom":   s.custom != nil,
		"standard": s.standard != nil,
	}
}

// Analyze returns the detected ingredients and a generated recipe.
//
// Only decode and detector failures are returned as errors. A generation failure is
// reported inside Result.Recipe so the ingredient list still reaches the caller.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	img, err := decode(req.Image)
	if err != nil {
		return Result{}, err
	}

	custom, standard, err := s.detect(ctx, img)
	if err != nil {
		return Result{}, err
	}

	labels := vision.Reconcile(custom, standard)
	if n := vision.Suppressed(custom, standard); n > 0 {
		log.Printf("⚠️ %d standard %q detection(s) overlap custom boxes; trusting the custom model", n, vision.ContestedLabel)
	}
	items := s.filter.Apply(labels.Sorted())
	log.Printf("analyze[%s]: custom=%v standard=%v final=%v", req.Source, vision.Labels(custom), vision.Labels(standard), items)

	res := Result{Ingredients: items}
	recipeOK := false
	if len(items) == 0 {
		res.Recipe = recipe.NoIngredientsMessage
	} else {
		res.Recipe, recipeOK = s.generate(ctx, items)
	}

	s.record(ctx, req, res, recipeOK)
	return res, nil
}

func decode(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, &DecodeError{Err: errors.New("empty upload")}
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%s: %w", util.SniffMimeHTTP(b), err)}
	}
	return img, nil
}

// detect runs both detectors concurrently. An absent detector contributes nothing.
func (s *Service) detect(ctx context.Context, img image.Image) (custom, standard []vision.Detection, err error) {
	g, gctx := errgroup.WithContext(ctx)
	if s.custom != nil {
		g.Go(func() error {
			ds, err := s.custom.Detect(gctx, img, s.confidence)
			if err != nil {
				return fmt.Errorf("%s detector: %w", s.custom.Name(), err)
			}
			custom = ds
			return nil
		})
	}
	if s.standard != nil {
		g.Go(func() error {
			ds, err := s.standard.Detect(gctx, img, s.confidence)
			if err != nil {
				return fmt.Errorf("%s detector: %w", s.standard.Name(), err)
			}
			standard = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return custom, standard, nil
}

func (s *Service) generate(ctx context.Context, items []string) (string, bool) {
	if s.gen == nil {
		return recipe.FailureMessage(errors.New("no recipe generator configured")), false
	}
	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}
	txt, err := s.gen.Generate(ctx, recipe.BuildPrompt(items))
	if err != nil {
		log.Printf("recipe generation failed: %v", err)
		return recipe.FailureMessage(err), false
	}
	return txt, true
}

func (s *Service) record(ctx context.Context, req Request, res Result, ok bool) {
	if s.rec == nil {
		return
	}
	err := s.rec.Record(ctx, Record{
		ImageHash:   util.SHA256Hex(req.Image),
		Source:      req.Source,
		Ingredients: res.Ingredients,
		Recipe:      res.Recipe,
		RecipeOK:    ok,
	})
	if err != nil {
		log.Printf("record analysis: %v", err)
	}
}
