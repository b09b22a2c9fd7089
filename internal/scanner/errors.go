package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/local/passscan/internal/ai"
	"github.com/local/passscan/internal/filetype"
	"github.com/local/passscan/internal/ocr"
	"github.com/local/passscan/internal/pdftext"
)

// BatchInputError indicates the request itself is malformed (zero valid files).
// Aborts before any per-file work and surfaces as a 400.
type BatchInputError struct {
	Reason string
}

func (e *BatchInputError) Error() string { return e.Reason }

// IsBatchInputError reports whether err is a request-level input error.
func IsBatchInputError(err error) bool {
	var be *BatchInputError
	return errors.As(err, &be)
}

// fileErrorMessage converts a pipeline error into the user-visible message for
// a FileError entry. Context expiry is checked first: adapters wrap the
// deadline error in their own stage error, and the timeout message must win
// over the stage one. The adapter error types already name their failing
// stage; anything unrecognized gets a generic message so internals never leak.
func fileErrorMessage(err error) string {
	var (
		unsupportedErr *filetype.UnsupportedFormatError
		parseErr       *pdftext.ParseError
		ocrErr         *ocr.EngineError
		serviceErr     *ai.ServiceError
		respErr        *ai.ResponseParseError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out"
	case errors.Is(err, context.Canceled):
		return "processing cancelled"
	case errors.As(err, &unsupportedErr),
		errors.As(err, &parseErr),
		errors.As(err, &ocrErr),
		errors.As(err, &serviceErr),
		errors.As(err, &respErr):
		return err.Error()
	default:
		return fmt.Sprintf("processing failed: %v", err)
	}
}
