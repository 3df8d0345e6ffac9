// Package dmxvalue converts between the 0-100 control scale used by fixture
// attributes and the 0-255 byte scale carried on the DMX wire, and between
// RGB triples and single hue values.
package dmxvalue

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// MaxPercent is the top of the control scale.
	MaxPercent = 100
	// MaxByte is the top of the DMX wire scale.
	MaxByte = 255

	scale = 2.55
)

// RGB is a color with each component on the 0-100 control scale.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Clamp limits v to [lo, hi]. NaN is treated as lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PercentToByte converts a 0-100 control value to a 0-255 DMX value.
func PercentToByte(p float64) int {
	return int(math.Round(Clamp(p, 0, MaxPercent) * scale))
}

// ByteToPercent converts a 0-255 DMX value to a 0-100 control value.
func ByteToPercent(d float64) int {
	return int(math.Round(Clamp(d, 0, MaxByte) / scale))
}

// RGBToHue returns the hue (0-100) of an RGB color given on the 0-100 scale.
// Saturation and lightness are discarded; gray input yields 0.
func RGBToHue(r, g, b float64) int {
	c := colorful.Color{
		R: Clamp(r, 0, MaxPercent) / MaxPercent,
		G: Clamp(g, 0, MaxPercent) / MaxPercent,
		B: Clamp(b, 0, MaxPercent) / MaxPercent,
	}
	h, _, _ := c.Hsl()
	return int(math.Round(h / 360 * MaxPercent))
}

// HueToRGB returns the fully saturated, half-lightness color for a hue on
// the 0-100 scale.
func HueToRGB(h float64) RGB {
	c := colorful.Hsl(Clamp(h, 0, MaxPercent)*3.6, 1, 0.5)
	return RGB{
		R: int(math.Round(c.R * MaxPercent)),
		G: int(math.Round(c.G * MaxPercent)),
		B: int(math.Round(c.B * MaxPercent)),
	}
}
