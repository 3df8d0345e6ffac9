package fixture

import (
	"errors"
	"fmt"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/bbernstein/qlove-go/pkg/dmxvalue"
)

// ErrNoCompatibleAttributes is returned when a paste finds nothing to copy.
var ErrNoCompatibleAttributes = errors.New("no compatible attributes")

var (
	redNames   = []string{"Red", "R"}
	greenNames = []string{"Green", "G"}
	blueNames  = []string{"Blue", "B"}
	hueNames   = []string{"Color", "Colores"}
)

func hasAny(attrs map[string]int, names []string) bool {
	for _, n := range names {
		if _, ok := attrs[n]; ok {
			return true
		}
	}
	return false
}

// firstValue returns the value of the first name present in values.
func firstValue(values map[string]float64, names []string) float64 {
	for _, n := range names {
		if v, ok := values[n]; ok {
			return v
		}
	}
	return 0
}

func isRGB(attrs map[string]int) bool {
	return hasAny(attrs, redNames) && hasAny(attrs, greenNames) && hasAny(attrs, blueNames)
}

func isHue(attrs map[string]int) bool {
	return hasAny(attrs, hueNames)
}

// HasRGB reports whether the fixture exposes separate red, green and blue attributes.
func (f *Fixture) HasRGB() bool { return isRGB(f.Attributes) }

// HasHue reports whether the fixture exposes a single hue attribute.
func (f *Fixture) HasHue() bool { return isHue(f.Attributes) }

// Color returns a CSS color for the fixture's current output, or "" when the
// fixture has no color attributes or they are all at zero.
func (f *Fixture) Color() string {
	if f.HasRGB() {
		r := firstValue(f.Values, redNames)
		g := firstValue(f.Values, greenNames)
		b := firstValue(f.Values, blueNames)
		if r == 0 && g == 0 && b == 0 {
			return ""
		}
		return fmt.Sprintf("rgb(%d, %d, %d)",
			dmxvalue.PercentToByte(r), dmxvalue.PercentToByte(g), dmxvalue.PercentToByte(b))
	}
	if f.HasHue() {
		hue := firstValue(f.Values, hueNames)
		if hue == 0 {
			return ""
		}
		return "hsl(" + strconv.FormatFloat(hue*3.6, 'f', -1, 64) + ", 100%, 50%)"
	}
	return ""
}

// Hex is Color as a #rrggbb string.
func (f *Fixture) Hex() string {
	if f.Color() == "" {
		return ""
	}
	if f.HasRGB() {
		c := colorful.Color{
			R: firstValue(f.Values, redNames) / dmxvalue.MaxPercent,
			G: firstValue(f.Values, greenNames) / dmxvalue.MaxPercent,
			B: firstValue(f.Values, blueNames) / dmxvalue.MaxPercent,
		}
		return c.Clamped().Hex()
	}
	return colorful.Hsl(firstValue(f.Values, hueNames)*3.6, 1, 0.5).Hex()
}

// IsOff reports whether the fixture shows no color.
func (f *Fixture) IsOff() bool {
	return f.Color() == ""
}

// Clipboard holds copied fixture properties for pasting onto other fixtures.
type Clipboard struct {
	Attributes map[string]int     `json:"attributes"`
	Values     map[string]float64 `json:"values"`
}

// CopyProperties captures the fixture's attributes and values.
func (f *Fixture) CopyProperties() Clipboard {
	d := f.Data()
	return Clipboard{Attributes: d.Attributes, Values: d.Values}
}

// PasteProperties applies copied values to the fixture. Values for attributes
// with the same name are copied directly; color is translated between RGB
// fixtures and hue-only fixtures. It returns how many pastes were applied.
func (f *Fixture) PasteProperties(clip Clipboard) (int, error) {
	pasted := 0
	for name := range f.Attributes {
		if v, ok := clip.Values[name]; ok {
			f.SetValue(name, v)
			pasted++
		}
	}

	if isRGB(clip.Attributes) && f.HasHue() {
		hue := float64(dmxvalue.RGBToHue(
			firstValue(clip.Values, redNames),
			firstValue(clip.Values, greenNames),
			firstValue(clip.Values, blueNames),
		))
		for _, n := range hueNames {
			f.SetValue(n, hue)
		}
		pasted++
	}

	if isHue(clip.Attributes) && f.HasRGB() {
		rgb := dmxvalue.HueToRGB(firstValue(clip.Values, hueNames))
		for _, n := range redNames {
			f.SetValue(n, float64(rgb.R))
		}
		for _, n := range greenNames {
			f.SetValue(n, float64(rgb.G))
		}
		for _, n := range blueNames {
			f.SetValue(n, float64(rgb.B))
		}
		pasted++
	}

	if pasted == 0 {
		return 0, ErrNoCompatibleAttributes
	}
	return pasted, nil
}
