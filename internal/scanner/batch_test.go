package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/passscan/internal/ai"
	"github.com/local/passscan/internal/filetype"
	"github.com/local/passscan/internal/ocr"
	"github.com/local/passscan/internal/pdftext"
)

// pdfDoc builds minimal bytes that classify as a PDF and carry a recognizable
// payload for the fakes to echo back.
func pdfDoc(payload string) []byte {
	return []byte("%PDF-1.4\n" + payload + "\n%%EOF")
}

var pngDoc = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
var zipDoc = []byte{'P', 'K', 0x03, 0x04, 0x14, 0x00, 0x00, 0x00}

// fakeText echoes the stored upload back as the text layer.
type fakeText struct {
	usable bool
	err    error
	calls  atomic.Int32
}

func (f *fakeText) Extract(path string) (pdftext.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return pdftext.Result{}, f.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pdftext.Result{}, err
	}
	return pdftext.Result{Text: string(data), Usable: f.usable, Chars: len(data)}, nil
}

type fakeRenderer struct {
	pages int
	err   error
	calls atomic.Int32
}

func (f *fakeRenderer) RenderPages(pdfPath, outDir string) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, 0, f.pages)
	for i := 1; i <= f.pages; i++ {
		out = append(out, filepath.Join(outDir, fmt.Sprintf("page_%03d.jpg", i)))
	}
	return out, nil
}

type fakeOCR struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeOCR) Recognize(ctx context.Context, imagePaths []string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return fmt.Sprintf("recognized %d pages", len(imagePaths)), nil
}

// fakeAI returns a deterministic record derived from its input and fails any
// input containing failOn.
type fakeAI struct {
	failOn    string
	textCalls atomic.Int32
	fileCalls atomic.Int32

	mu    sync.Mutex
	texts []string
}

func (f *fakeAI) record(input string) (*ai.Record, error) {
	if f.failOn != "" && strings.Contains(input, f.failOn) {
		return nil, &ai.ServiceError{Err: errors.New("upstream unavailable")}
	}
	dt := "bus"
	pnr := fmt.Sprintf("LEN%d", len(input))
	return &ai.Record{DocumentType: &dt, PNRBookingID: &pnr}, nil
}

func (f *fakeAI) StructureText(ctx context.Context, text string) (*ai.Record, error) {
	f.textCalls.Add(1)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return f.record(text)
}

func (f *fakeAI) StructureFile(ctx context.Context, pdfPath string) (*ai.Record, error) {
	f.fileCalls.Add(1)
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, &ai.ServiceError{Err: err}
	}
	return f.record(string(data))
}

// panickyAI panics on inputs containing panicOn, delegating everything else.
type panickyAI struct {
	inner   *fakeAI
	panicOn string
}

func (p *panickyAI) StructureText(ctx context.Context, text string) (*ai.Record, error) {
	if strings.Contains(text, p.panicOn) {
		panic("nil schema entry")
	}
	return p.inner.StructureText(ctx, text)
}

func (p *panickyAI) StructureFile(ctx context.Context, pdfPath string) (*ai.Record, error) {
	return p.inner.StructureFile(ctx, pdfPath)
}

// slowAI blocks on inputs containing slowOn until the file context expires,
// then reports the expiry wrapped in the adapter's own error type, the way the
// real client surfaces a cancelled upstream call.
type slowAI struct {
	inner  *fakeAI
	slowOn string
}

func (s *slowAI) StructureText(ctx context.Context, text string) (*ai.Record, error) {
	if strings.Contains(text, s.slowOn) {
		<-ctx.Done()
		return nil, &ai.ServiceError{Err: ctx.Err()}
	}
	return s.inner.StructureText(ctx, text)
}

func (s *slowAI) StructureFile(ctx context.Context, pdfPath string) (*ai.Record, error) {
	return s.inner.StructureFile(ctx, pdfPath)
}

func newTestScanner(t *testing.T, deps Dependencies) *Scanner {
	t.Helper()
	if deps.Classifier == nil {
		deps.Classifier = filetype.New()
	}
	s, err := New(Config{Concurrency: 2, TempDir: t.TempDir()}, deps)
	require.NoError(t, err)
	return s
}

func TestProcessBatchEmptyInput(t *testing.T) {
	s := newTestScanner(t, Dependencies{})

	_, err := s.ProcessBatch(context.Background(), nil, false)
	require.Error(t, err)
	assert.True(t, IsBatchInputError(err))
	assert.Equal(t, "No valid files to process", err.Error())
}

func TestUsableTextLayerSkipsOCR(t *testing.T) {
	text := &fakeText{usable: true}
	renderer := &fakeRenderer{pages: 1}
	engine := &fakeOCR{}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: renderer, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "ticket.pdf", Data: pdfDoc("PNR ABC123")},
	}, false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 1, resp.TotalFiles)
	assert.Equal(t, 1, resp.SuccessfulExtractions)
	assert.Equal(t, 0, resp.FailedExtractions)

	res := resp.Results[0]
	assert.Equal(t, 0, res.FileIndex)
	assert.Equal(t, "ticket.pdf", res.Filename)
	assert.Equal(t, MethodOCRBased, res.ProcessingMethod)
	require.NotNil(t, res.Data)

	assert.Equal(t, int32(1), text.calls.Load())
	assert.Equal(t, int32(0), renderer.calls.Load(), "usable text layer must not render pages")
	assert.Equal(t, int32(0), engine.calls.Load(), "usable text layer must not invoke OCR")
	assert.Equal(t, int32(1), structurer.textCalls.Load())
	assert.Equal(t, int32(0), structurer.fileCalls.Load())
}

func TestShortTextLayerFallsBackToOCR(t *testing.T) {
	text := &fakeText{usable: false}
	renderer := &fakeRenderer{pages: 3}
	engine := &fakeOCR{text: "OCR TEXT PNR XY42"}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: renderer, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "scanned.pdf", Data: pdfDoc("scanned image only")},
	}, false)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, MethodOCRBased, resp.Results[0].ProcessingMethod)
	assert.Equal(t, int32(1), renderer.calls.Load())
	assert.Equal(t, int32(1), engine.calls.Load())
	require.Len(t, structurer.texts, 1)
	assert.Equal(t, "OCR TEXT PNR XY42", structurer.texts[0], "structuring must receive the OCR output, not the unusable layer")
}

func TestUnreadablePDFFallsBackToOCR(t *testing.T) {
	text := &fakeText{err: &pdftext.ParseError{Filename: "broken.pdf", Err: errors.New("bad xref")}}
	renderer := &fakeRenderer{pages: 1}
	engine := &fakeOCR{text: "rescued by rasterization"}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: renderer, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "broken.pdf", Data: pdfDoc("x")},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SuccessfulExtractions)
	assert.Equal(t, int32(1), renderer.calls.Load())
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestOCRFailureIsTerminal(t *testing.T) {
	text := &fakeText{usable: false}
	renderer := &fakeRenderer{pages: 1}
	engine := &fakeOCR{err: &ocr.EngineError{Stage: "recognize", Err: errors.New("tesseract crashed")}}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: renderer, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "scan.pdf", Data: pdfDoc("x")},
	}, false)
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0].Error, "OCR recognition failed")
	assert.Equal(t, int32(0), structurer.textCalls.Load())
	assert.Equal(t, int32(0), structurer.fileCalls.Load(), "OCR failure must not be rescued by the direct path")
}

func TestDirectPathSkipsLocalExtraction(t *testing.T) {
	text := &fakeText{usable: true}
	renderer := &fakeRenderer{pages: 1}
	engine := &fakeOCR{}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: renderer, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "ticket.pdf", Data: pdfDoc("PNR ABC123")},
	}, true)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, MethodDirectAI, resp.Results[0].ProcessingMethod)
	assert.Equal(t, int32(0), text.calls.Load())
	assert.Equal(t, int32(0), renderer.calls.Load())
	assert.Equal(t, int32(0), engine.calls.Load())
	assert.Equal(t, int32(1), structurer.fileCalls.Load())
	assert.Equal(t, int32(0), structurer.textCalls.Load())
}

func TestImagesNeverUseDirectPath(t *testing.T) {
	text := &fakeText{usable: true}
	engine := &fakeOCR{text: "boarding pass text"}
	structurer := &fakeAI{}
	s := newTestScanner(t, Dependencies{Text: text, Renderer: &fakeRenderer{}, OCR: engine, AI: structurer})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "boarding.png", Data: pngDoc},
	}, true)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, MethodOCRBased, resp.Results[0].ProcessingMethod)
	assert.Equal(t, int32(1), engine.calls.Load())
	assert.Equal(t, int32(0), text.calls.Load(), "images have no text layer to try")
	assert.Equal(t, int32(0), structurer.fileCalls.Load())
}

func TestMiddleFileFailureIsolated(t *testing.T) {
	structurer := &fakeAI{failOn: "POISON"}
	s := newTestScanner(t, Dependencies{
		Text:     &fakeText{usable: true},
		Renderer: &fakeRenderer{pages: 1},
		OCR:      &fakeOCR{},
		AI:       structurer,
	})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "a.pdf", Data: pdfDoc("first")},
		{Filename: "b.pdf", Data: pdfDoc("POISON")},
		{Filename: "c.pdf", Data: pdfDoc("third")},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalFiles)
	assert.Equal(t, 2, resp.SuccessfulExtractions)
	assert.Equal(t, 1, resp.FailedExtractions)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].FileIndex)
	assert.Equal(t, "a.pdf", resp.Results[0].Filename)
	assert.Equal(t, 2, resp.Results[1].FileIndex)
	assert.Equal(t, "c.pdf", resp.Results[1].Filename)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].FileIndex)
	assert.Equal(t, "b.pdf", resp.Errors[0].Filename)
	assert.Contains(t, resp.Errors[0].Error, "AI structuring failed")
}

func TestPanicInOneFileRecovered(t *testing.T) {
	s := newTestScanner(t, Dependencies{
		Text:     &fakeText{usable: true},
		Renderer: &fakeRenderer{pages: 1},
		OCR:      &fakeOCR{},
		AI:       &panickyAI{inner: &fakeAI{}, panicOn: "KABOOM"},
	})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "a.pdf", Data: pdfDoc("first")},
		{Filename: "b.pdf", Data: pdfDoc("KABOOM")},
		{Filename: "c.pdf", Data: pdfDoc("third")},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.SuccessfulExtractions)
	assert.Equal(t, 1, resp.FailedExtractions)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].FileIndex)
	assert.Equal(t, "b.pdf", resp.Errors[0].Filename)
	assert.Equal(t, "internal processing error", resp.Errors[0].Error)
}

func TestFileTimeoutFailsOnlyThatFile(t *testing.T) {
	s, err := New(Config{
		Concurrency: 2,
		FileTimeout: 30 * time.Millisecond,
		TempDir:     t.TempDir(),
	}, Dependencies{
		Classifier: filetype.New(),
		Text:       &fakeText{usable: true},
		Renderer:   &fakeRenderer{pages: 1},
		OCR:        &fakeOCR{},
		AI:         &slowAI{inner: &fakeAI{}, slowOn: "STALL"},
	})
	require.NoError(t, err)

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "fast.pdf", Data: pdfDoc("quick")},
		{Filename: "stuck.pdf", Data: pdfDoc("STALL")},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SuccessfulExtractions)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "fast.pdf", resp.Results[0].Filename)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].FileIndex)
	assert.Equal(t, "stuck.pdf", resp.Errors[0].Filename)
	assert.Equal(t, "processing timed out", resp.Errors[0].Error)
}

func TestUnsupportedFileFailsIndividually(t *testing.T) {
	s := newTestScanner(t, Dependencies{
		Text:     &fakeText{usable: true},
		Renderer: &fakeRenderer{pages: 1},
		OCR:      &fakeOCR{},
		AI:       &fakeAI{},
	})

	resp, err := s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "ticket.pdf", Data: pdfDoc("ok")},
		{Filename: "report.docx", Data: zipDoc},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SuccessfulExtractions)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].FileIndex)
	assert.Equal(t, "report.docx", resp.Errors[0].Filename)
	assert.Contains(t, resp.Errors[0].Error, "unsupported file type")
}

func TestBatchDeterministicAcrossRuns(t *testing.T) {
	docs := []UploadedDocument{
		{Filename: "a.pdf", Data: pdfDoc("alpha")},
		{Filename: "b.pdf", Data: pdfDoc("bravo bravo")},
		{Filename: "c.png", Data: pngDoc},
		{Filename: "d.pdf", Data: pdfDoc("delta")},
	}
	run := func() *BatchResponse {
		s := newTestScanner(t, Dependencies{
			Text:     &fakeText{usable: true},
			Renderer: &fakeRenderer{pages: 1},
			OCR:      &fakeOCR{text: "image text"},
			AI:       &fakeAI{},
		})
		resp, err := s.ProcessBatch(context.Background(), docs, false)
		require.NoError(t, err)
		return resp
	}

	first, second := run(), run()
	require.Len(t, first.Results, 4)
	for i := range first.Results {
		assert.Equal(t, first.Results[i].FileIndex, second.Results[i].FileIndex)
		assert.Equal(t, first.Results[i].Filename, second.Results[i].Filename)
		assert.Equal(t, first.Results[i].ProcessingMethod, second.Results[i].ProcessingMethod)
		assert.Equal(t, first.Results[i].Data, second.Results[i].Data)
	}
}

func TestTempFilesCleanedUp(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Concurrency: 1, TempDir: dir}, Dependencies{
		Classifier: filetype.New(),
		Text:       &fakeText{usable: false},
		Renderer:   &fakeRenderer{pages: 2},
		OCR:        &fakeOCR{},
		AI:         &fakeAI{},
	})
	require.NoError(t, err)

	_, err = s.ProcessBatch(context.Background(), []UploadedDocument{
		{Filename: "a.pdf", Data: pdfDoc("alpha")},
		{Filename: "b.png", Data: pngDoc},
	}, false)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp uploads and page dirs must be removed after the batch")
}
