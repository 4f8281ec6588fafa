package golabel

import (
	"testing"

	"golang.org/x/image/font"
)

func TestFontCache_SizeCompensation(t *testing.T) {
	fc := NewFontCache(nil)
	h := fc.Get(16, "normal", "Arial")
	if h == nil || h.Face == nil {
		t.Fatal("expected a usable font handle")
	}
	if h.RequestedSize != 16 {
		t.Errorf("requested size = %v, want 16", h.RequestedSize)
	}
	// The design tool renders larger than the server-side rasterizer at the
	// same nominal size; the resolver compensates by a fixed 1.5x.
	if h.LoadedSize != 24 {
		t.Errorf("loaded size = %v, want 24", h.LoadedSize)
	}
}

func TestFontCache_HandleIsCached(t *testing.T) {
	fc := NewFontCache(nil)
	h1 := fc.Get(12, "normal", "Arial")
	h2 := fc.Get(12, "normal", "Arial")
	if h1 != h2 {
		t.Error("expected the same handle for a repeated request")
	}
	h3 := fc.Get(12, "bold", "Arial")
	if h1 == h3 {
		t.Error("expected a distinct handle for a different weight")
	}
}

func TestFontCache_CacheKeyRoundsSize(t *testing.T) {
	fc := NewFontCache(nil)
	h1 := fc.Get(12.2, "normal", "Arial")
	h2 := fc.Get(12.4, "normal", "Arial")
	if h1 != h2 {
		t.Error("expected sizes rounding to the same key to share a handle")
	}
}

func TestFontCache_BuiltinFallback(t *testing.T) {
	fc := NewFontCache(nil)
	h := fc.Get(14, "normal", "definitely-not-a-real-font-xyz")
	if h == nil || h.Face == nil {
		t.Fatal("expected a handle even for an unknown family")
	}
	// Either a real system fallback file resolved, or the embedded Go font
	// stepped in; both must yield a measurable face.
	w := font.MeasureString(h.Face, "Hello")
	if w <= 0 {
		t.Error("expected positive text width from fallback face")
	}
}

func TestFontCache_UnknownFamilyNeverNil(t *testing.T) {
	fc := NewFontCache(nil, t.TempDir()) // extra dir with no fonts
	for _, weight := range []string{"normal", "bold"} {
		h := fc.Get(10, weight, "no-such-family")
		if h == nil || h.Face == nil {
			t.Fatalf("weight %s: expected a usable handle", weight)
		}
		if h.LoadedSize != 15 {
			t.Errorf("weight %s: loaded size = %v, want 15", weight, h.LoadedSize)
		}
	}
}

func TestNormalizeWeight(t *testing.T) {
	tests := []struct{ in, want string }{
		{"bold", "bold"},
		{"Bold", "bold"},
		{"700", "bold"},
		{"normal", "normal"},
		{"400", "normal"},
		{"", "normal"},
		{"light", "normal"},
	}
	for _, tt := range tests {
		if got := normalizeWeight(tt.in); got != tt.want {
			t.Errorf("normalizeWeight(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFontCache_ZeroSizeDefaults(t *testing.T) {
	fc := NewFontCache(nil)
	h := fc.Get(0, "normal", "Arial")
	if h.RequestedSize != 16 {
		t.Errorf("requested size = %v, want the 16 default", h.RequestedSize)
	}
	if h.LoadedSize != 24 {
		t.Errorf("loaded size = %v, want 24", h.LoadedSize)
	}
}
