package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiOptions configures the Gemini structuring client.
type GeminiOptions struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// Gemini structures documents via the Gemini API. It accepts either extracted
// text or raw PDF bytes (direct mode).
type Gemini struct {
	client    *genai.Client
	model     string
	timeout   time.Duration
	maxTokens int32
}

// NewGemini creates the structuring client. A missing API key is a fatal
// configuration error: the credential is validated at startup, not per request.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		model:     opts.Model,
		timeout:   opts.Timeout,
		maxTokens: int32(opts.MaxTokens),
	}, nil
}

// StructureText extracts a Record from previously extracted or OCR'd text.
func (g *Gemini) StructureText(ctx context.Context, text string) (*Record, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(ExtractionPrompt()),
		genai.NewPartFromText("DOCUMENT TEXT:\n" + text),
	}
	return g.generate(ctx, parts)
}

// StructureFile extracts a Record straight from PDF bytes, skipping local
// text extraction entirely (direct mode).
func (g *Gemini) StructureFile(ctx context.Context, pdfPath string) (*Record, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("read pdf: %w", err)}
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(data, "application/pdf"),
		genai.NewPartFromText(ExtractionPrompt()),
	}
	return g.generate(ctx, parts)
}

func (g *Gemini) generate(ctx context.Context, parts []*genai.Part) (*Record, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  g.maxTokens,
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(cctx, g.model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, &ServiceError{Err: ErrRateLimited}
		}
		return nil, &ServiceError{Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &ServiceError{Err: errors.New("empty response from model")}
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, &ServiceError{Err: errors.New("no text in model response")}
	}

	log.Debug().
		Str("model", g.model).
		Dur("duration", time.Since(start)).
		Int("response_chars", len(text)).
		Msg("gemini structuring completed")

	return ParseRecord(text)
}
