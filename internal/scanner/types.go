package scanner

import (
	"github.com/local/passscan/internal/ai"
)

// UploadedDocument is one file from the request, owned by a single pipeline
// invocation and discarded after processing.
type UploadedDocument struct {
	Filename string
	Data     []byte
}

// Method records which extraction path processed a file.
type Method string

const (
	// MethodDirectAI sends raw PDF bytes straight to the AI service.
	MethodDirectAI Method = "gemini_direct"
	// MethodOCRBased structures text obtained locally (text layer or OCR).
	MethodOCRBased Method = "ocr_based"
)

// FileResult is the outcome for one successfully processed file.
type FileResult struct {
	FileIndex        int        `json:"file_index"`
	Filename         string     `json:"filename"`
	ProcessingMethod Method     `json:"processing_method"`
	ProcessingTime   float64    `json:"processing_time"`
	Data             *ai.Record `json:"data"`
}

// FileError is the outcome for one failed file. Indices refer to the input
// order, independent of result indices.
type FileError struct {
	FileIndex int    `json:"file_index"`
	Filename  string `json:"filename"`
	Error     string `json:"error"`
}

// BatchResponse aggregates per-file outcomes for one scan request.
// Invariant: SuccessfulExtractions + FailedExtractions == TotalFiles.
type BatchResponse struct {
	TotalFiles            int          `json:"total_files"`
	SuccessfulExtractions int          `json:"successful_extractions"`
	FailedExtractions     int          `json:"failed_extractions"`
	TotalProcessingTime   float64      `json:"total_processing_time"`
	Results               []FileResult `json:"results"`
	Errors                []FileError  `json:"errors"`
}
