package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/passscan/internal/ai"
	"github.com/local/passscan/internal/filetype"
	"github.com/local/passscan/internal/metrics"
	"github.com/local/passscan/internal/pdftext"
)

// Classifier decides a file's kind from its name and content.
type Classifier interface {
	Detect(filename string, data []byte) (filetype.Kind, error)
}

// TextExtractor reads a PDF's embedded text layer and reports usability.
type TextExtractor interface {
	Extract(path string) (pdftext.Result, error)
}

// PageRenderer rasterizes PDF pages into image files for OCR.
type PageRenderer interface {
	RenderPages(pdfPath, outDir string) ([]string, error)
}

// OCREngine recognizes text from page images, in page order.
type OCREngine interface {
	Recognize(ctx context.Context, imagePaths []string) (string, error)
}

// Structurer calls the AI completion service with the fixed extraction schema.
type Structurer interface {
	StructureText(ctx context.Context, text string) (*ai.Record, error)
	StructureFile(ctx context.Context, pdfPath string) (*ai.Record, error)
}

// Dependencies are the collaborators the pipeline orchestrates.
type Dependencies struct {
	Classifier Classifier
	Text       TextExtractor
	Renderer   PageRenderer
	OCR        OCREngine
	AI         Structurer
}

// Config defines batch processing behavior.
type Config struct {
	Concurrency int
	FileTimeout time.Duration
	MaxUploadMB int
	TempDir     string
}

// Scanner runs the extraction pipeline over uploaded document batches.
type Scanner struct {
	cfg  Config
	deps Dependencies
}

// New creates a Scanner. TempDir is created eagerly so the first request does
// not race on it.
func New(cfg Config, deps Dependencies) (*Scanner, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.FileTimeout <= 0 {
		cfg.FileTimeout = 120 * time.Second
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 64
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "tmp"
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Scanner{cfg: cfg, deps: deps}, nil
}

// processFile walks one document through the state machine and returns the
// structured record plus the method that produced it. All temporary artifacts
// are removed on every exit path.
func (s *Scanner) processFile(ctx context.Context, doc UploadedDocument, geminiOnly bool, index int) (*ai.Record, Method, error) {
	state := StateStart
	tempID := fmt.Sprintf("%s_%d", uuid.NewString()[:8], index)
	logger := log.With().Str("temp_id", tempID).Str("file", doc.Filename).Int("index", index).Logger()

	// Any error is a terminal transition; the caller records the details.
	fail := func(err error) (*ai.Record, Method, error) {
		logger.Debug().Str("state", StateFailed.String()).Msg("file failed")
		return nil, "", err
	}

	// Start → Classified
	kind, err := s.deps.Classifier.Detect(doc.Filename, doc.Data)
	if err != nil {
		return fail(err)
	}
	state = StateClassified
	logger.Debug().Str("kind", string(kind)).Str("state", state.String()).Msg("classified")

	// Persist upload for the path-based collaborators.
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	tempPath := filepath.Join(s.cfg.TempDir, tempID+ext)
	if err := os.WriteFile(tempPath, doc.Data, 0o600); err != nil {
		return fail(fmt.Errorf("save upload: %w", err))
	}
	defer os.Remove(tempPath)

	// Classified → MethodChosen
	method := ChooseMethod(kind, geminiOnly)
	state = StateMethodChosen
	logger.Debug().Str("method", string(method)).Str("state", state.String()).Msg("method chosen")

	var record *ai.Record
	switch method {
	case MethodDirectAI:
		// MethodChosen → Structured, no local extraction at all.
		start := time.Now()
		record, err = s.deps.AI.StructureFile(ctx, tempPath)
		metrics.ObserveStage("structure", time.Since(start))
		if err != nil {
			return fail(err)
		}

	case MethodOCRBased:
		// MethodChosen → TextObtained
		text, err := s.obtainText(ctx, kind, tempPath, tempID, logger)
		if err != nil {
			return fail(err)
		}
		state = StateTextObtained
		logger.Debug().Str("state", state.String()).Int("chars", len(text)).Msg("text obtained")

		// TextObtained → Structured
		start := time.Now()
		record, err = s.deps.AI.StructureText(ctx, text)
		metrics.ObserveStage("structure", time.Since(start))
		if err != nil {
			return fail(err)
		}
	}

	state = StateStructured
	logger.Debug().Str("state", state.String()).Msg("record structured")

	state = StateDone
	logger.Debug().Str("state", state.String()).Msg("file processed")
	return record, method, nil
}

// obtainText produces raw text for the OCR-based path: images go straight to
// the OCR engine, PDFs try the text layer first and fall back to rendered-page
// OCR when the layer is unusable or unreadable. Fallback runs in one direction
// only; an OCR failure is never rescued by the direct-AI path.
func (s *Scanner) obtainText(ctx context.Context, kind filetype.Kind, tempPath, tempID string, logger zerolog.Logger) (string, error) {
	if kind == filetype.KindImage {
		start := time.Now()
		text, err := s.deps.OCR.Recognize(ctx, []string{tempPath})
		metrics.ObserveStage("ocr", time.Since(start))
		if err != nil {
			return "", err
		}
		metrics.AddOCRPages(1)
		return text, nil
	}

	// PDF: text layer first.
	start := time.Now()
	res, textErr := s.deps.Text.Extract(tempPath)
	metrics.ObserveStage("text_extract", time.Since(start))
	if textErr == nil && res.Usable {
		logger.Debug().Int("chars", res.Chars).Msg("text layer usable")
		return res.Text, nil
	}
	if textErr != nil {
		logger.Warn().Err(textErr).Msg("text layer unreadable, falling back to OCR")
	} else {
		logger.Debug().Int("chars", res.Chars).Msg("text layer too short, falling back to OCR")
	}
	metrics.IncTextFallback()

	// Fallback: rasterize pages and OCR them.
	pagesDir := filepath.Join(s.cfg.TempDir, tempID+"_pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create pages dir: %w", err)
	}
	defer os.RemoveAll(pagesDir)

	start = time.Now()
	images, err := s.deps.Renderer.RenderPages(tempPath, pagesDir)
	metrics.ObserveStage("render", time.Since(start))
	if err != nil {
		return "", err
	}

	start = time.Now()
	text, err := s.deps.OCR.Recognize(ctx, images)
	metrics.ObserveStage("ocr", time.Since(start))
	if err != nil {
		return "", err
	}
	metrics.AddOCRPages(len(images))
	return text, nil
}
