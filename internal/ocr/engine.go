package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

// EngineError indicates OCR initialization or inference failure. Terminal for
// the file: OCR is already the fallback path, so it is never retried.
type EngineError struct {
	Stage string // "init" or "recognize"
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("OCR recognition failed (%s): %v", e.Stage, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Engine wraps the Tesseract OCR engine. Language data is verified once per
// process; individual recognitions are stateless, so one Engine is shared
// read-only across concurrent file processing.
type Engine struct {
	languages []string

	initOnce sync.Once
	initErr  error
}

// NewEngine creates an OCR engine for the given "+"-separated tesseract
// language codes (e.g. "eng", "eng+deu"). Initialization is lazy: the engine
// probes tesseract on first use, not at construction.
func NewEngine(languages string) *Engine {
	langs := strings.Split(languages, "+")
	if languages == "" {
		langs = []string{"eng"}
	}
	return &Engine{languages: langs}
}

// ensureInit probes the tesseract installation exactly once.
func (e *Engine) ensureInit() error {
	e.initOnce.Do(func() {
		client := gosseract.NewClient()
		defer client.Close()
		if err := client.SetLanguage(e.languages...); err != nil {
			e.initErr = &EngineError{Stage: "init", Err: err}
			return
		}
		log.Info().Strs("languages", e.languages).Str("version", gosseract.Version()).Msg("OCR engine initialized")
	})
	return e.initErr
}

// Recognize runs OCR over the given page images and returns the concatenated
// text in page order. Fails with EngineError on the first unreadable page.
func (e *Engine) Recognize(ctx context.Context, imagePaths []string) (string, error) {
	if err := e.ensureInit(); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, path := range imagePaths {
		if err := ctx.Err(); err != nil {
			return "", &EngineError{Stage: "recognize", Err: err}
		}

		text, err := e.recognizeOne(path)
		if err != nil {
			return "", &EngineError{Stage: "recognize", Err: fmt.Errorf("page %d: %w", i+1, err)}
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)

		log.Debug().Str("image", path).Int("page", i+1).Int("chars", len(text)).Msg("recognized page")
	}

	return strings.TrimSpace(b.String()), nil
}

// recognizeOne opens a fresh client per image: gosseract clients are cheap once
// language data is resident, and are not safe for concurrent use.
func (e *Engine) recognizeOne(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", err
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", err
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
