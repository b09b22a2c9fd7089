package scanner

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/passscan/internal/filetype"
)

// ServiceName and ServiceVersion describe the API in the root metadata payload.
const (
	ServiceName    = "AI Pass Scan API"
	ServiceVersion = "1.0.0"
)

// RegisterRoutes attaches the HTTP surface to mux.
func (s *Scanner) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// WithCORS wraps h with allow-all CORS headers and OPTIONS preflight handling.
func WithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Scanner) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        ServiceName,
		"version":     ServiceVersion,
		"description": "Extract structured information from travel documents",
		"status":      "active",
		"endpoints": map[string]string{
			"/":     "API information",
			"/scan": "Upload and process travel documents (PDF, images)",
		},
		"supported_formats": []string{"PDF", "JPG", "JPEG", "PNG"},
		"processing_methods": []string{
			"Direct Gemini (PDF only): Direct AI processing for faster results",
		},
	})
}

// handleScan accepts a multipart batch: one or more "files" parts plus an
// optional "gemini_only" flag applied to the whole batch. Partial success is
// not a protocol error: the response is 200 as long as at least one file could
// be attempted.
func (s *Scanner) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(int64(s.cfg.MaxUploadMB) << 20); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	geminiOnly := parseBoolField(r.FormValue("gemini_only"))

	docs, err := collectUploads(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.ProcessBatch(r.Context(), docs, geminiOnly)
	if err != nil {
		if IsBatchInputError(err) {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("batch processing failed")
		httpError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// collectUploads reads the multipart file parts into memory and applies the
// request-level validation: empty-filename parts are skipped, a batch with no
// files at all or with no processable format is rejected outright. A batch
// that mixes supported and unsupported files passes; the unsupported members
// fail individually during processing.
func collectUploads(r *http.Request) ([]UploadedDocument, error) {
	if r.MultipartForm == nil {
		return nil, &BatchInputError{Reason: "No valid files uploaded"}
	}
	parts := r.MultipartForm.File["files"]

	var docs []UploadedDocument
	anySupported := false
	for _, hdr := range parts {
		if strings.TrimSpace(hdr.Filename) == "" {
			continue
		}
		f, err := hdr.Open()
		if err != nil {
			return nil, &BatchInputError{Reason: "failed to read uploaded file"}
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, &BatchInputError{Reason: "failed to read uploaded file"}
		}
		if filetype.ExtensionSupported(hdr.Filename) {
			anySupported = true
		}
		docs = append(docs, UploadedDocument{Filename: hdr.Filename, Data: data})
	}

	if len(docs) == 0 {
		return nil, &BatchInputError{Reason: "No valid files uploaded"}
	}
	if !anySupported {
		return nil, &BatchInputError{
			Reason: "Unsupported file types. Allowed: " + strings.Join(filetype.AllowedExtensions(), ", "),
		}
	}
	return docs, nil
}

func parseBoolField(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
