package pdftext

import (
	"fmt"
	"regexp"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// DefaultMinChars is the usability threshold when a non-positive value is configured:
// a text layer shorter than this (whitespace stripped) is treated as unusable.
const DefaultMinChars = 20

// ParseError indicates the PDF could not be opened (corrupted or encrypted).
// Recoverable at the strategy level when the pages can still be rasterized.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PDF text extraction failed for %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the outcome of a text-layer extraction attempt.
type Result struct {
	Text   string
	Usable bool
	Chars  int // character count after whitespace stripping
}

// whitespaceRegex matches runs of whitespace.
var whitespaceRegex = regexp.MustCompile(`\s+`)

func stripWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, "")
}

// Usable reports whether extracted text clears the minimum-length heuristic.
func Usable(text string, minChars int) bool {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return len(stripWhitespace(text)) >= minChars
}

// Extractor reads the embedded text layer of PDFs using go-fitz (MuPDF).
type Extractor struct {
	minChars int
}

// New creates a text-layer extractor with the given usability threshold.
func New(minChars int) *Extractor {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Extractor{minChars: minChars}
}

// Extract pulls the text layer from all pages of the PDF at path, in page order.
// A failure to open the document returns ParseError; individual unreadable pages
// are skipped so one bad page does not discard the rest of the layer.
func (e *Extractor) Extract(path string) (Result, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return Result{}, &ParseError{Filename: path, Err: err}
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Str("pdf", path).Msg("failed to extract text from page")
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	text := b.String()
	chars := len(stripWhitespace(text))
	res := Result{Text: text, Usable: chars >= e.minChars, Chars: chars}

	log.Debug().
		Str("pdf", path).
		Int("chars", chars).
		Int("threshold", e.minChars).
		Bool("usable", res.Usable).
		Msg("extracted text layer")

	return res, nil
}
