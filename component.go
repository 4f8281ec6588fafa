package golabel

import (
	"fmt"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

// drawComponent dispatches one component to the renderer matching its type
// tag. Components draw at their exact (x, y, width, height) with no extra
// scaling, offsetting or clipping: positions are authoritative and must
// reproduce the design-tool layout pixel for pixel.
func (r *TemplateRenderer) drawComponent(c *Component, props any, value string) error {
	switch c.Type {
	case ComponentText:
		return r.drawText(c, props.(TextProps), value)
	case ComponentBarcode:
		return r.drawBarcode(c, value)
	case ComponentQR:
		return r.drawQR(c, props.(QRProps), value)
	case ComponentRectangle:
		return r.drawRectangle(c, props.(ShapeProps), value)
	case ComponentCircle:
		return r.drawCircle(c, props.(ShapeProps), value)
	case ComponentLine:
		return r.drawLine(c, props.(ShapeProps))
	default:
		return fmt.Errorf("unknown component type %q", c.Type)
	}
}

// --- Text ---

func (r *TemplateRenderer) drawText(c *Component, p TextProps, value string) error {
	if value == "" || p.Color.IsTransparent() {
		return nil
	}
	handle := r.fonts.Get(p.FontSize, p.FontWeight, p.FontFamily)
	r.dc.SetFontFace(handle.Face)
	r.dc.SetColor(p.Color.RGBA())

	// (x, y) is the component's top-left corner; the baseline sits one
	// ascent below it, matching the design tool's canvas text placement.
	ascent := float64(handle.Face.Metrics().Ascent.Ceil())

	if p.LetterSpacing == 0 {
		r.dc.DrawString(value, float64(c.X), float64(c.Y)+ascent)
		return nil
	}
	r.drawSpacedText(c, handle, value, p.LetterSpacing, ascent)
	return nil
}

// drawSpacedText renders glyph by glyph with explicit advance accumulation.
// The whole-string draw call cannot apply letter spacing, so each glyph is
// placed at the running advance and the spacing is added between glyphs.
// Lines are wrapped greedily on word boundaries within the component width
// and drawing stops once a line would fall below the component height.
func (r *TemplateRenderer) drawSpacedText(c *Component, handle *FontHandle, value string, spacing, ascent float64) {
	lineHeight := float64(handle.Face.Metrics().Height.Ceil())
	lines := r.wrapSpacedText(value, float64(c.Width), spacing)

	baseline := float64(c.Y) + ascent
	for _, line := range lines {
		if c.Height > 0 && baseline > float64(c.Y+c.Height) {
			break
		}
		cx := float64(c.X)
		for _, g := range line {
			glyph := string(g)
			r.dc.DrawString(glyph, cx, baseline)
			gw, _ := r.dc.MeasureString(glyph)
			cx += gw + spacing
		}
		baseline += lineHeight
	}
}

// wrapSpacedText splits value into lines that fit maxWidth when rendered
// with the given letter spacing, wrapping greedily on word boundaries.
// With a non-positive width the value stays on one line.
func (r *TemplateRenderer) wrapSpacedText(value string, maxWidth, spacing float64) [][]rune {
	words := strings.Fields(value)
	if len(words) == 0 || maxWidth <= 0 {
		return [][]rune{[]rune(value)}
	}

	spaceWidth, _ := r.dc.MeasureString(" ")
	spaceWidth += spacing

	var lines [][]rune
	var cur []rune
	curWidth := 0.0

	for _, word := range words {
		ww := r.spacedWidth(word, spacing)
		sep := 0.0
		if len(cur) > 0 {
			sep = spaceWidth
		}
		if curWidth+sep+ww > maxWidth && len(cur) > 0 {
			lines = append(lines, cur)
			cur = nil
			curWidth = 0
			sep = 0
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, []rune(word)...)
		curWidth += sep + ww
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// spacedWidth measures a word rendered glyph by glyph with letter spacing.
func (r *TemplateRenderer) spacedWidth(word string, spacing float64) float64 {
	runes := []rune(word)
	total := 0.0
	for _, g := range runes {
		gw, _ := r.dc.MeasureString(string(g))
		total += gw
	}
	if len(runes) > 1 {
		total += spacing * float64(len(runes)-1)
	}
	return total
}

// --- Barcode ---

// drawBarcode encodes the value as Code128 and scales the bars to exactly
// fill the component box. The human-readable text baseline is deliberately
// omitted: templates own their label text as a separate text component.
func (r *TemplateRenderer) drawBarcode(c *Component, value string) error {
	if value == "" {
		return fmt.Errorf("empty barcode value")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("barcode box is %dx%d", c.Width, c.Height)
	}

	bc, err := code128.Encode(value)
	if err != nil {
		return fmt.Errorf("encode code128: %w", err)
	}

	scaled, err := barcode.Scale(bc, c.Width, c.Height)
	if err != nil {
		// The box is narrower than the code's minimal module count;
		// resample the raw bars to the exact box instead.
		r.dc.DrawImage(imaging.Resize(bc, c.Width, c.Height, imaging.NearestNeighbor), c.X, c.Y)
		return nil
	}
	r.dc.DrawImage(scaled, c.X, c.Y)
	return nil
}

// --- QR ---

// drawQR mirrors the design tool's sizing strategy exactly: generate with a
// zero border at min(width, height), letting the library pick the minimal
// version for the data and error-correction level, then resize to the exact
// component box. A non-square box gets a final stretch to (width, height),
// preserving what the design tool's canvas draw call does by contract.
func (r *TemplateRenderer) drawQR(c *Component, p QRProps, value string) error {
	if value == "" {
		return fmt.Errorf("empty qr value")
	}
	side := c.Width
	if c.Height < side {
		side = c.Height
	}
	if side <= 0 {
		return fmt.Errorf("qr box is %dx%d", c.Width, c.Height)
	}

	q, err := qrcode.New(value, qrLevel(p.ErrorCorrectionLevel))
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true

	img := q.Image(side)
	if b := img.Bounds(); b.Dx() != c.Width || b.Dy() != c.Height {
		img = imaging.Resize(img, c.Width, c.Height, imaging.Lanczos)
	}
	r.dc.DrawImage(img, c.X, c.Y)
	return nil
}

func qrLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// --- Shapes ---

func (r *TemplateRenderer) drawRectangle(c *Component, p ShapeProps, value string) error {
	x, y := float64(c.X), float64(c.Y)
	w, h := float64(c.Width), float64(c.Height)

	if !p.FillColor.IsTransparent() {
		r.dc.SetColor(p.FillColor.RGBA())
		r.dc.DrawRectangle(x, y, w, h)
		r.dc.Fill()
	}
	if p.StrokeWidth > 0 && !p.StrokeColor.IsTransparent() {
		r.dc.SetColor(p.StrokeColor.RGBA())
		r.dc.SetLineWidth(p.StrokeWidth)
		r.dc.DrawRectangle(x, y, w, h)
		r.dc.Stroke()
	}
	r.drawShapeText(c, p, value)
	return nil
}

func (r *TemplateRenderer) drawCircle(c *Component, p ShapeProps, value string) error {
	cx := float64(c.X) + float64(c.Width)/2
	cy := float64(c.Y) + float64(c.Height)/2
	rx := float64(c.Width) / 2
	ry := float64(c.Height) / 2

	if !p.FillColor.IsTransparent() {
		r.dc.SetColor(p.FillColor.RGBA())
		r.dc.DrawEllipse(cx, cy, rx, ry)
		r.dc.Fill()
	}
	if p.StrokeWidth > 0 && !p.StrokeColor.IsTransparent() {
		r.dc.SetColor(p.StrokeColor.RGBA())
		r.dc.SetLineWidth(p.StrokeWidth)
		r.dc.DrawEllipse(cx, cy, rx, ry)
		r.dc.Stroke()
	}
	r.drawShapeText(c, p, value)
	return nil
}

// drawShapeText centers embedded label text within a shape's bounding box,
// using the same font resolution as standalone text components.
func (r *TemplateRenderer) drawShapeText(c *Component, p ShapeProps, value string) {
	if value == "" || p.Text.Color.IsTransparent() {
		return
	}
	handle := r.fonts.Get(p.Text.FontSize, p.Text.FontWeight, p.Text.FontFamily)
	r.dc.SetFontFace(handle.Face)
	r.dc.SetColor(p.Text.Color.RGBA())
	r.dc.DrawStringAnchored(value,
		float64(c.X)+float64(c.Width)/2,
		float64(c.Y)+float64(c.Height)/2,
		0.5, 0.5)
}

// drawLine strokes a straight segment from (x, y) to (x+width, y+height);
// the height encodes the slope, not a thickness.
func (r *TemplateRenderer) drawLine(c *Component, p ShapeProps) error {
	if p.StrokeColor.IsTransparent() {
		return nil
	}
	width := p.StrokeWidth
	if width <= 0 {
		width = 1
	}
	r.dc.SetColor(p.StrokeColor.RGBA())
	r.dc.SetLineWidth(width)
	r.dc.DrawLine(
		float64(c.X), float64(c.Y),
		float64(c.X+c.Width), float64(c.Y+c.Height))
	r.dc.Stroke()
	return nil
}
