package golabel

import (
	"image"
	"testing"
)

// regionHasInk reports whether any pixel in the region differs from white.
func regionHasInk(img image.Image, x0, y0, x1, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r>>8 != 0xFF || g>>8 != 0xFF || b>>8 != 0xFF {
				return true
			}
		}
	}
	return false
}

func TestDrawText_RendersInk(t *testing.T) {
	tpl := simpleTemplate(textComponent("t1", "GALAXY A25"))
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !regionHasInk(img, 10, 10, 210, 50) {
		t.Error("text component drew nothing")
	}
}

func TestDrawText_LetterSpacing(t *testing.T) {
	plain := simpleTemplate(Component{
		ID: "t1", Type: ComponentText, X: 10, Y: 10, Width: 280, Height: 120,
		Value:      "AB AB AB",
		Properties: map[string]any{"fontSize": 16.0, "color": "#000000"},
	})
	spaced := simpleTemplate(Component{
		ID: "t1", Type: ComponentText, X: 10, Y: 10, Width: 280, Height: 120,
		Value:      "AB AB AB",
		Properties: map[string]any{"fontSize": 16.0, "color": "#000000", "letterSpacing": 6.0},
	})

	imgPlain, err := Render(plain, nil, nil)
	if err != nil {
		t.Fatalf("plain render: %v", err)
	}
	imgSpaced, err := Render(spaced, nil, nil)
	if err != nil {
		t.Fatalf("spaced render: %v", err)
	}
	if !regionHasInk(imgSpaced, 10, 10, 290, 130) {
		t.Fatal("letter-spaced text drew nothing")
	}
	// The glyph-by-glyph path must actually shift advances.
	if imagesEqual(imgPlain, imgSpaced) {
		t.Error("letter spacing had no pixel effect")
	}
}

func TestDrawText_TransparentColorSkipped(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "t1", Type: ComponentText, X: 10, Y: 10, Width: 200, Height: 30,
		Value:      "INVISIBLE",
		Properties: map[string]any{"fontSize": 14.0, "color": "transparent"},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if regionHasInk(img, 0, 0, 300, 150) {
		t.Error("transparent text left ink on the canvas")
	}
}

func TestDrawBarcode_FillsComponentBox(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "bc", Type: ComponentBarcode, X: 20, Y: 20, Width: 240, Height: 60,
		Value: "350544301197847",
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !regionHasInk(img, 20, 25, 260, 75) {
		t.Error("barcode drew no bars")
	}
	// No human-readable baseline: the strip below the box stays clean.
	if regionHasInk(img, 20, 81, 260, 100) {
		t.Error("unexpected ink below the barcode box")
	}
}

func TestDrawQR_SquareBox(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "qr", Type: ComponentQR, X: 30, Y: 30, Width: 80, Height: 80,
		Value:      "350544301197847",
		Properties: map[string]any{"errorCorrectionLevel": "M"},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !regionHasInk(img, 30, 30, 110, 110) {
		t.Error("qr drew no modules")
	}
}

func TestDrawQR_NonSquareBoxIsStretched(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "qr", Type: ComponentQR, X: 30, Y: 30, Width: 120, Height: 60,
		Value: "HELLO",
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The final stretch reaches the full non-square box, not just the
	// square min(width,height) region.
	if !regionHasInk(img, 95, 30, 150, 90) {
		t.Error("qr was not stretched to the full component width")
	}
}

func TestDrawRectangle_FillAndStroke(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "r1", Type: ComponentRectangle, X: 40, Y: 40, Width: 80, Height: 50,
		Properties: map[string]any{
			"fillColor":   "#00FF00",
			"strokeColor": "#000000",
			"strokeWidth": 2.0,
		},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	r, g, b, _ := img.At(80, 65).RGBA()
	if r>>8 != 0x00 || g>>8 != 0xFF || b>>8 != 0x00 {
		t.Errorf("fill missing at center: R=%d G=%d B=%d", r>>8, g>>8, b>>8)
	}
	if !regionHasInk(img, 38, 38, 122, 42) {
		t.Error("stroke missing along the top edge")
	}
}

func TestDrawRectangle_TransparentFillLeavesBackground(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "r1", Type: ComponentRectangle, X: 40, Y: 40, Width: 80, Height: 50,
		Properties: map[string]any{
			"fillColor":   "transparent",
			"strokeColor": "#000000",
			"strokeWidth": 1.0,
		},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	r, g, b, _ := img.At(80, 65).RGBA()
	if r>>8 != 0xFF || g>>8 != 0xFF || b>>8 != 0xFF {
		t.Errorf("transparent fill painted the interior: R=%d G=%d B=%d", r>>8, g>>8, b>>8)
	}
}

func TestDrawCircle_FillInsideBox(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "c1", Type: ComponentCircle, X: 60, Y: 30, Width: 80, Height: 80,
		Properties: map[string]any{"fillColor": "#FF0000"},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Center of the ellipse is filled; the box corner stays background.
	r, g, b, _ := img.At(100, 70).RGBA()
	if r>>8 != 0xFF || g>>8 != 0x00 || b>>8 != 0x00 {
		t.Errorf("circle center not filled: R=%d G=%d B=%d", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(62, 32).RGBA()
	if r>>8 != 0xFF || g>>8 != 0xFF || b>>8 != 0xFF {
		t.Errorf("circle painted outside its ellipse: R=%d G=%d B=%d", r>>8, g>>8, b>>8)
	}
}

func TestDrawShape_CenteredText(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "r1", Type: ComponentRectangle, X: 40, Y: 40, Width: 160, Height: 60,
		Properties: map[string]any{
			"fillColor": "#FFFFFF",
			"text":      "CENTER",
			"fontSize":  14.0,
			"color":     "#000000",
		},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !regionHasInk(img, 60, 50, 180, 90) {
		t.Error("embedded shape text did not render")
	}
}

func TestDrawLine_SlopeFromHeight(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "l1", Type: ComponentLine, X: 20, Y: 20, Width: 100, Height: 80,
		Properties: map[string]any{"strokeColor": "#000000", "strokeWidth": 3.0},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The segment runs from (20,20) to (120,100); its midpoint carries ink.
	if !regionHasInk(img, 65, 55, 76, 66) {
		t.Error("line midpoint not drawn")
	}
	// A horizontal line would have painted here.
	if regionHasInk(img, 100, 18, 120, 24) {
		t.Error("line ignored its slope")
	}
}

func TestDrawComponent_OffCanvasDoesNotPanic(t *testing.T) {
	tpl := simpleTemplate(Component{
		ID: "r1", Type: ComponentRectangle, X: -50, Y: -20, Width: 100, Height: 60,
		Properties: map[string]any{"fillColor": "#0000FF"},
	})
	img, err := Render(tpl, nil, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The on-canvas part of the component still painted.
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 != 0x00 || g>>8 != 0x00 || b>>8 != 0xFF {
		t.Errorf("partially off-canvas fill missing: R=%d G=%d B=%d", r>>8, g>>8, b>>8)
	}
}
