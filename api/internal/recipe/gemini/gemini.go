package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-lens/api/internal/util"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.0-flash"

// Engine is a recipe.Generator backed by the Gemini API.
// The client is created once and shared by all requests.
type Engine struct {
	Model string
	cl    *genai.Client
}

// New creates the Gemini client. An empty key yields an Engine whose Generate always fails,
// so the service can still start and report detections.
func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	e := &Engine{Model: strings.TrimSpace(model)}
	if e.Model == "" {
		e.Model = DefaultModel
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return e, nil
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	e.cl = cl
	return e, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Generate sends prompt as a single user turn and returns the first text part.
func (e *Engine) Generate(ctx context.Context, prompt string) (string, error) {
	if e.cl == nil {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	m := e.cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.SetTemperature(0.7)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return util.StripCodeFences(txt), nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	if e.cl == nil {
		return nil
	}
	return e.cl.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
