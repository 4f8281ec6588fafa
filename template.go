package golabel

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ComponentType identifies the kind of visual element a component draws.
type ComponentType string

const (
	ComponentText      ComponentType = "text"
	ComponentBarcode   ComponentType = "barcode"
	ComponentQR        ComponentType = "qr"
	ComponentRectangle ComponentType = "rectangle"
	ComponentCircle    ComponentType = "circle"
	ComponentLine      ComponentType = "line"
)

// Template is a named label design: a fixed-size canvas plus an ordered list
// of components. Component order is paint order; later components draw over
// earlier ones. The renderer never mutates a template.
type Template struct {
	ID              string      `json:"id,omitempty"`
	Name            string      `json:"name,omitempty"`
	Description     string      `json:"description,omitempty"`
	CanvasWidth     int         `json:"canvas_width"`
	CanvasHeight    int         `json:"canvas_height"`
	BackgroundColor string      `json:"background_color,omitempty"`
	Components      []Component `json:"components"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at,omitempty"`
}

// Component is one positioned visual element within a template.
// X/Y may be any integer; components may legally extend past canvas bounds
// and the renderer does not clip them. Width/Height must be >= 0.
type Component struct {
	ID         string         `json:"id"`
	Type       ComponentType  `json:"type"`
	X          int            `json:"x"`
	Y          int            `json:"y"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Value      string         `json:"value,omitempty"` // template-authored literal
	Properties map[string]any `json:"properties,omitempty"`
	Mapping    *Mapping       `json:"mapping,omitempty"`
}

// Mapping binds a component's displayed value to input data. When IsConnected
// is set, ColumnName names the source data column and Rule (optional)
// transforms the raw cell value. Otherwise StaticValue, if non-empty, is used
// as a fixed literal. With no mapping at all the renderer falls back to
// heuristic inference and finally to the component's authored literal.
type Mapping struct {
	IsConnected bool            `json:"isConnected"`
	ColumnName  string          `json:"columnName,omitempty"`
	StaticValue string          `json:"staticValue,omitempty"`
	Rule        *ExtractionRule `json:"extractionRule,omitempty"`
}

// DecodeTemplate reads a template definition from JSON, as persisted by the
// design tool, and validates it.
func DecodeTemplate(r io.Reader) (*Template, error) {
	var t Template
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseTemplate decodes a template definition from raw JSON bytes.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Typed component properties ---
//
// The design tool stores per-component styling as a free-form property bag.
// Bags are decoded into typed props structs once, at the renderer boundary,
// with missing keys defaulted here rather than scattered through drawing code.

// TextProps holds styling for text components.
type TextProps struct {
	FontSize      float64
	Color         Color
	FontFamily    string
	FontWeight    string
	LetterSpacing float64
}

// BarcodeProps holds styling for linear barcode components.
type BarcodeProps struct {
	Format string // only "code128" is supported
	Value  string // template value, used when no mapping resolves
}

// QRProps holds styling for QR components.
type QRProps struct {
	ErrorCorrectionLevel string // "L", "M", "Q" or "H"
}

// ShapeProps holds styling for rectangle, circle and line components.
// The embedded TextProps apply when a shape carries centered label text.
type ShapeProps struct {
	FillColor   Color
	StrokeColor Color
	StrokeWidth float64
	Text        TextProps
}

func decodeTextProps(m map[string]any) TextProps {
	return TextProps{
		FontSize:      propFloat(m, "fontSize", 16),
		Color:         propColor(m, "color", "#000000"),
		FontFamily:    propString(m, "fontFamily", "Arial"),
		FontWeight:    propString(m, "fontWeight", "normal"),
		LetterSpacing: propFloat(m, "letterSpacing", 0),
	}
}

func decodeBarcodeProps(m map[string]any) BarcodeProps {
	return BarcodeProps{
		Format: propString(m, "format", "code128"),
		Value:  propString(m, "value", ""),
	}
}

func decodeQRProps(m map[string]any) QRProps {
	return QRProps{
		ErrorCorrectionLevel: propString(m, "errorCorrectionLevel", "M"),
	}
}

func decodeShapeProps(m map[string]any) ShapeProps {
	return ShapeProps{
		FillColor:   propColor(m, "fillColor", "transparent"),
		StrokeColor: propColor(m, "strokeColor", "#000000"),
		StrokeWidth: propFloat(m, "strokeWidth", 1),
		Text:        decodeTextProps(m),
	}
}

// decodeProps decodes a component's property bag into the typed props struct
// matching its type tag. An unknown type tag is a template-authoring bug and
// is reported as an error rather than defaulted.
func decodeProps(c *Component) (any, error) {
	switch c.Type {
	case ComponentText:
		return decodeTextProps(c.Properties), nil
	case ComponentBarcode:
		return decodeBarcodeProps(c.Properties), nil
	case ComponentQR:
		return decodeQRProps(c.Properties), nil
	case ComponentRectangle, ComponentCircle, ComponentLine:
		return decodeShapeProps(c.Properties), nil
	default:
		return nil, fmt.Errorf("component %q: unknown type %q", c.ID, c.Type)
	}
}

// --- Property bag accessors ---

func propString(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func propFloat(m map[string]any, key string, def float64) float64 {
	if m == nil {
		return def
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return def
}

func propColor(m map[string]any, key, def string) Color {
	return NewColor(propString(m, key, def))
}
