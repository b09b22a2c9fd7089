package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the document kind the pipeline knows how to process.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// UnsupportedFormatError indicates the file is not one of the accepted formats.
type UnsupportedFormatError struct {
	Filename string
	MIMEType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type for %s (%s); allowed: %s",
		e.Filename, e.MIMEType, strings.Join(AllowedExtensions(), ", "))
}

// allowedExts maps accepted extensions to their kind. Extension checks exist for
// boundary validation only; Detect always confirms via magic bytes.
var allowedExts = map[string]Kind{
	".pdf":  KindPDF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
}

// AllowedExtensions lists the accepted file extensions in stable order.
func AllowedExtensions() []string {
	return []string{".pdf", ".jpg", ".jpeg", ".png"}
}

// ExtensionSupported reports whether the filename carries an accepted extension.
// Used at the request boundary to reject batches with no processable file.
func ExtensionSupported(filename string) bool {
	_, ok := allowedExts[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Detector classifies uploaded documents using magic bytes.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
	return &Detector{}
}

// Detect classifies content by magic bytes, falling back to the declared
// extension only to disambiguate. Returns UnsupportedFormatError for anything
// that is not a PDF, JPEG or PNG.
func (d *Detector) Detect(filename string, data []byte) (Kind, error) {
	mtype := mimetype.Detect(data)
	mime := mtype.String()

	log.Debug().Str("mime", mime).Str("ext", mtype.Extension()).Str("file", filename).Msg("detected file type")

	switch {
	case mime == "application/pdf":
		return KindPDF, nil
	case mime == "image/jpeg" || mime == "image/png":
		return KindImage, nil
	}

	// Magic bytes inconclusive (e.g. truncated upload): trust a supported
	// extension so the downstream parser produces the stage-specific error.
	if kind, ok := allowedExts[strings.ToLower(filepath.Ext(filename))]; ok && mime == "application/octet-stream" {
		log.Debug().Str("file", filename).Str("kind", string(kind)).Msg("classification from extension, magic bytes inconclusive")
		return kind, nil
	}

	return "", &UnsupportedFormatError{Filename: filename, MIMEType: mime}
}
