package golabel

import "math"

// Physical measurement helpers for label sizing.
// Templates are authored in canvas pixels; physical label stock is specified
// in millimeters or inches, so batch tooling converts at a chosen DPI.
// 1 inch = 25.4 mm = 72 points.

const (
	mmPerInch     = 25.4
	pointsPerInch = 72
	// maxPixels is the maximum safe pixel dimension to prevent runaway
	// canvas allocations from bad unit math.
	maxPixels = 1 << 20
)

// MillimeterToPixels converts a physical length in millimeters to pixels at
// the given DPI. Clamps to a safe range.
func MillimeterToPixels(mm, dpi float64) int {
	return clampPixels(mm / mmPerInch * dpi)
}

// InchToPixels converts inches to pixels at the given DPI.
func InchToPixels(in, dpi float64) int {
	return clampPixels(in * dpi)
}

// PointToPixels converts a typographic point size to pixels at the given DPI.
func PointToPixels(pt, dpi float64) float64 {
	return pt / pointsPerInch * dpi
}

// PixelsToMillimeter converts pixels back to millimeters at the given DPI.
func PixelsToMillimeter(px int, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(px) / dpi * mmPerInch
}

// PixelsToInch converts pixels back to inches at the given DPI.
func PixelsToInch(px int, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(px) / dpi
}

// clampPixels rounds a float64 pixel count to int, clamping to [0, maxPixels].
func clampPixels(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > maxPixels {
		return maxPixels
	}
	return int(math.Round(v))
}
