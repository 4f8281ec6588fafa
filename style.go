package golabel

import (
	"image/color"
	"strings"
)

// Color represents an ARGB color parsed from a design-tool color string.
type Color struct {
	ARGB string // 8-character hex string, e.g., "FF000000" for opaque black
}

// Predefined colors.
var (
	ColorBlack       = Color{ARGB: "FF000000"}
	ColorWhite       = Color{ARGB: "FFFFFFFF"}
	ColorTransparent = Color{ARGB: "00000000"}
)

// NewColor parses a design-tool color string. Accepted forms: "transparent",
// 3-char shorthand ("F00"), 6-char RGB ("FF0000") and 8-char ARGB
// ("FFFF0000"), each with an optional leading "#". Anything unparseable
// falls back to opaque black, matching the design tool's canvas behavior.
func NewColor(s string) Color {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "transparent") || s == "" {
		return ColorTransparent
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s = "FF" + s
	}
	s = strings.ToUpper(s)
	if !isValidARGB(s) {
		return ColorBlack
	}
	return Color{ARGB: s}
}

// isValidARGB checks that s is exactly 8 hex characters.
func isValidARGB(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// IsTransparent reports whether the color is fully transparent. Transparent
// fills and strokes are skipped entirely by the shape renderers.
func (c Color) IsTransparent() bool {
	return c.GetAlpha() == 0
}

// RGBA returns the color as a standard library color.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: c.GetRed(),
		G: c.GetGreen(),
		B: c.GetBlue(),
		A: c.GetAlpha(),
	}
}

// GetRed returns the red component (0-255).
func (c Color) GetRed() uint8 {
	return parseHexByte(c.ARGB, 2)
}

// GetGreen returns the green component (0-255).
func (c Color) GetGreen() uint8 {
	return parseHexByte(c.ARGB, 4)
}

// GetBlue returns the blue component (0-255).
func (c Color) GetBlue() uint8 {
	return parseHexByte(c.ARGB, 6)
}

// GetAlpha returns the alpha component (0-255).
func (c Color) GetAlpha() uint8 {
	return parseHexByte(c.ARGB, 0)
}

// parseHexByte parses two hex characters at offset into a uint8.
// Returns 0 on any error (out of range, invalid chars).
func parseHexByte(s string, offset int) uint8 {
	if offset+2 > len(s) {
		return 0
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return 0
	}
	return uint8(h<<4 | l)
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}
