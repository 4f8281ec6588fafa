package golabel

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// ImageFormat represents the output image format for the save helpers.
type ImageFormat int

const (
	ImageFormatPNG ImageFormat = iota
	ImageFormatJPEG
)

// ErrInvalidTemplate is returned (wrapped) when a template is structurally
// invalid: non-positive canvas dimensions, an unknown component type, or an
// undecodable property bag. This indicates a template-authoring bug, not a
// data-quality issue, so it surfaces as an error rather than being silently
// tolerated like per-component failures.
var ErrInvalidTemplate = errors.New("invalid template")

// gcEveryNRenders is how often a reused renderer forces a garbage collection
// when PeriodicGC is enabled. Long batches accumulate short-lived glyph and
// sub-image buffers faster than the collector keeps up.
const gcEveryNRenders = 5

// RenderOptions configures template rendering.
type RenderOptions struct {
	// Logger receives structured records for extraction fallbacks, skipped
	// components and font substitutions. Default: a no-op logger.
	Logger *zap.Logger
	// FontDirs specifies additional directories to search for TrueType/OpenType
	// fonts. System font directories are always searched automatically.
	FontDirs []string
	// FontCache allows sharing a pre-configured FontCache across renderers
	// that are used sequentially. If nil, a new FontCache is created.
	FontCache *FontCache
	// PeriodicGC forces a garbage collection every few renders on a reused
	// renderer. Recommended for batches of thousands of rows.
	PeriodicGC bool
	// Format is the output format for RenderToFile and SaveImage.
	Format ImageFormat
	// JPEGQuality is the JPEG quality (1-100). Default: 90.
	JPEGQuality int
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		Format:      ImageFormatPNG,
		JPEGQuality: 90,
	}
}

// TemplateRenderer rasterizes one template against data rows. Construct one
// per template and call Render once per row: the canvas is allocated once and
// reset between calls, and fonts are cached for the renderer's lifetime.
// A TemplateRenderer is not safe for concurrent use; concurrent batches must
// use separate instances.
type TemplateRenderer struct {
	template *Template
	opts     *RenderOptions
	logger   *zap.Logger

	dc      *gg.Context
	fonts   *FontCache
	eval    *Evaluator
	props   []any // decoded property structs, parallel to template.Components
	renders int
}

// NewTemplateRenderer validates the template, decodes all component property
// bags, and allocates the canvas at the template's exact declared dimensions.
func NewTemplateRenderer(t *Template, opts *RenderOptions) (*TemplateRenderer, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	props := make([]any, len(t.Components))
	for i := range t.Components {
		p, err := decodeProps(&t.Components[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		props[i] = p
	}

	fonts := opts.FontCache
	if fonts == nil {
		fonts = NewFontCache(logger, opts.FontDirs...)
	}

	return &TemplateRenderer{
		template: t,
		opts:     opts,
		logger:   logger,
		dc:       gg.NewContext(t.CanvasWidth, t.CanvasHeight),
		fonts:    fonts,
		eval:     NewEvaluator(logger),
		props:    props,
	}, nil
}

// Render rasterizes one data row onto the template canvas and returns the
// finished image, always sized exactly CanvasWidth x CanvasHeight. The canvas
// is fully reset to the background color first, so nothing leaks between
// consecutive rows on a reused renderer, and the returned image is a copy
// with no aliasing into the internal canvas.
//
// A failing component (missing font, bad barcode value, absent column) is
// logged and skipped; the remaining components still render, so one bad row
// in a large batch produces a partial-but-mostly-correct label instead of
// aborting the batch.
func (r *TemplateRenderer) Render(row map[string]string) (image.Image, error) {
	bg := NewColor(r.template.BackgroundColor)
	if r.template.BackgroundColor == "" {
		bg = ColorWhite
	}
	// Background is opaque: an unset or "transparent" background paints white.
	if bg.IsTransparent() {
		bg = ColorWhite
	}
	r.dc.SetColor(bg.RGBA())
	r.dc.Clear()

	for i := range r.template.Components {
		c := &r.template.Components[i]
		value := r.resolveValue(c, row)
		if err := r.drawComponent(c, r.props[i], value); err != nil {
			r.logger.Warn("component render failed, skipping",
				zap.String("component_id", c.ID),
				zap.String("type", string(c.Type)),
				zap.Error(err))
		}
	}

	out := imaging.Clone(r.dc.Image())

	r.renders++
	if r.opts.PeriodicGC && r.renders%gcEveryNRenders == 0 {
		runtime.GC()
	}
	return out, nil
}

// RenderToFile renders one row and writes the image to path, creating parent
// directories as needed.
func (r *TemplateRenderer) RenderToFile(row map[string]string, path string) error {
	img, err := r.Render(row)
	if err != nil {
		return err
	}
	return SaveImage(img, path, r.opts)
}

// Render is the one-shot convenience form: it constructs a renderer, renders
// a single row, and returns the image. On a fatal template error it returns
// a minimal placeholder image alongside the error so batch callers can count
// the item as failed and continue.
func Render(t *Template, row map[string]string, opts *RenderOptions) (image.Image, error) {
	r, err := NewTemplateRenderer(t, opts)
	if err != nil {
		return placeholderImage(t.CanvasWidth, t.CanvasHeight), err
	}
	return r.Render(row)
}

// RenderBatch renders every row against one reused renderer. The returned
// slices are index-aligned with rows; a failed row leaves a nil image and a
// non-nil error in its slot while the rest of the batch proceeds.
func RenderBatch(t *Template, rows []map[string]string, opts *RenderOptions) ([]image.Image, []error) {
	images := make([]image.Image, len(rows))
	errs := make([]error, len(rows))

	r, err := NewTemplateRenderer(t, opts)
	if err != nil {
		for i := range rows {
			errs[i] = err
		}
		return images, errs
	}

	for i, row := range rows {
		img, err := r.Render(row)
		if err != nil {
			errs[i] = fmt.Errorf("row %d: %w", i, err)
			continue
		}
		images[i] = img
	}
	return images, errs
}

// placeholderImage builds the minimal fallback image handed back on fatal
// failures: a light gray canvas with a dark border.
func placeholderImage(w, h int) image.Image {
	if w <= 0 {
		w = 100
	}
	if h <= 0 {
		h = 100
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB255(230, 230, 230)
	dc.Clear()
	dc.SetRGB255(120, 120, 120)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(w)-2, float64(h)-2)
	dc.Stroke()
	return imaging.Clone(dc.Image())
}

// SaveImage encodes an image to path in the format named by opts.
func SaveImage(img image.Image, path string, opts *RenderOptions) error {
	if opts == nil {
		opts = DefaultRenderOptions()
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	switch opts.Format {
	case ImageFormatJPEG:
		quality := opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	default:
		return png.Encode(f, img)
	}
}
