package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/passscan/internal/ai"
	"github.com/local/passscan/internal/filetype"
	"github.com/local/passscan/internal/ocr"
	"github.com/local/passscan/internal/pdftext"
)

func TestFileErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"unsupported format passes through",
			&filetype.UnsupportedFormatError{Filename: "a.docx", MIMEType: "application/zip"},
			"unsupported file type for a.docx",
		},
		{
			"pdf parse error passes through",
			&pdftext.ParseError{Filename: "a.pdf", Err: errors.New("bad xref")},
			"PDF text extraction failed",
		},
		{
			"ocr error passes through",
			&ocr.EngineError{Stage: "recognize", Err: errors.New("boom")},
			"OCR recognition failed",
		},
		{
			"ai service error passes through",
			&ai.ServiceError{Err: errors.New("503")},
			"AI structuring failed",
		},
		{
			"ai parse error passes through",
			&ai.ResponseParseError{Err: errors.New("not json")},
			"AI response parsing failed",
		},
		{
			"wrapped adapter error still recognized",
			fmt.Errorf("stage: %w", &ai.ServiceError{Err: errors.New("503")}),
			"AI structuring failed",
		},
		{
			"timeout",
			context.DeadlineExceeded,
			"processing timed out",
		},
		{
			"timeout wrapped by an adapter wins over the stage message",
			&ai.ServiceError{Err: context.DeadlineExceeded},
			"processing timed out",
		},
		{
			"cancellation",
			context.Canceled,
			"processing cancelled",
		},
		{
			"unknown errors stay generic",
			errors.New("disk exploded at /var/tmp/secret"),
			"processing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, fileErrorMessage(tt.err), tt.want)
		})
	}
}
