package imagerender

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for rendering.
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Options control page rasterization.
type Options struct {
	DPI         int
	JPEGQuality int
	ColorMode   ColorMode
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = 200
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 85
	}
	if o.ColorMode == "" {
		o.ColorMode = ColorGray
	}
	return o
}

// Renderer rasterizes PDF pages to JPEG files for OCR.
type Renderer struct {
	opts Options
}

// New creates a renderer with the given options.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts.withDefaults()}
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// RenderPages rasterizes every page of the PDF at pdfPath into JPEG files under
// outDir, returning the file paths in page order. The caller owns the files and
// must delete them when done.
func (r *Renderer) RenderPages(pdfPath, outDir string) ([]string, error) {
	// Validate the document before opening it for rendering; encrypted or
	// truncated files fail here with a clearer error than mid-render.
	if n, err := PageCount(pdfPath); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("pdf has no pages: %s", pdfPath)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	defer doc.Close()

	var paths []string
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(r.opts.DPI))
		if err != nil {
			return paths, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		out := filepath.Join(outDir, fmt.Sprintf("page_%03d.jpg", i+1))
		if err := r.encodeJPEG(img, out); err != nil {
			return paths, err
		}
		paths = append(paths, out)

		log.Debug().
			Int("page", i+1).
			Int("dpi", r.opts.DPI).
			Str("color", string(r.opts.ColorMode)).
			Str("out", out).
			Msg("rendered page")
	}

	return paths, nil
}

func (r *Renderer) encodeJPEG(img image.Image, path string) error {
	var final image.Image = img
	if r.opts.ColorMode == ColorGray {
		bounds := img.Bounds()
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, image.Point{}, draw.Src)
		final = gray
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create page image: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, final, &jpeg.Options{Quality: r.opts.JPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return nil
}
