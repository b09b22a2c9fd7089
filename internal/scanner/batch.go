package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/passscan/internal/metrics"
)

// ProcessBatch runs the extraction pipeline over all documents with bounded
// parallelism. One file's failure never aborts the others; each slot in the
// results/errors arrays is keyed by the file's original index so callers can
// reconstruct input order regardless of completion order.
func (s *Scanner) ProcessBatch(ctx context.Context, docs []UploadedDocument, geminiOnly bool) (*BatchResponse, error) {
	if len(docs) == 0 {
		return nil, &BatchInputError{Reason: "No valid files to process"}
	}

	start := time.Now()
	metrics.ObserveBatch(len(docs))
	log.Info().Int("files", len(docs)).Bool("gemini_only", geminiOnly).Msg("batch started")

	okSlots := make([]*FileResult, len(docs))
	errSlots := make([]*FileError, len(docs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			res, ferr := s.processOne(ctx, doc, geminiOnly, i)
			if ferr != nil {
				errSlots[i] = ferr
			} else {
				okSlots[i] = res
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := &BatchResponse{
		TotalFiles: len(docs),
		Results:    make([]FileResult, 0, len(docs)),
		Errors:     make([]FileError, 0),
	}
	for i := range docs {
		if okSlots[i] != nil {
			resp.Results = append(resp.Results, *okSlots[i])
		} else {
			resp.Errors = append(resp.Errors, *errSlots[i])
		}
	}
	resp.SuccessfulExtractions = len(resp.Results)
	resp.FailedExtractions = len(resp.Errors)
	resp.TotalProcessingTime = time.Since(start).Seconds()

	log.Info().
		Int("total", resp.TotalFiles).
		Int("ok", resp.SuccessfulExtractions).
		Int("failed", resp.FailedExtractions).
		Dur("duration", time.Since(start)).
		Msg("batch completed")

	return resp, nil
}

// processOne isolates a single file: it applies the per-file timeout, recovers
// panics, records timing and converts any failure into a FileError entry.
func (s *Scanner) processOne(ctx context.Context, doc UploadedDocument, geminiOnly bool, index int) (res *FileResult, ferr *FileError) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.FileTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("index", index).Str("file", doc.Filename).Interface("panic", r).Msg("recovered panic during file processing")
			metrics.ObserveFile("unknown", "panic", time.Since(start))
			res = nil
			ferr = &FileError{FileIndex: index, Filename: doc.Filename, Error: "internal processing error"}
		}
	}()

	record, method, err := s.processFile(fctx, doc, geminiOnly, index)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Int("index", index).Str("file", doc.Filename).Msg("file processing failed")
		metrics.ObserveFile(methodLabel(method), "error", elapsed)
		return nil, &FileError{FileIndex: index, Filename: doc.Filename, Error: fileErrorMessage(err)}
	}

	metrics.ObserveFile(string(method), "success", elapsed)
	return &FileResult{
		FileIndex:        index,
		Filename:         doc.Filename,
		ProcessingMethod: method,
		ProcessingTime:   elapsed.Seconds(),
		Data:             record,
	}, nil
}

func methodLabel(m Method) string {
	if m == "" {
		return "unknown"
	}
	return string(m)
}
