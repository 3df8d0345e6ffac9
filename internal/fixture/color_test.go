package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbFixture(r, g, b float64) *Fixture {
	return New(Data{
		Attributes: map[string]int{"Dimmer": 1, "Red": 2, "Green": 3, "Blue": 4},
		Values:     map[string]float64{"Dimmer": 100, "Red": r, "Green": g, "Blue": b},
	})
}

func hueFixture(h float64) *Fixture {
	return New(Data{
		Attributes: map[string]int{"Colores": 6, "Dimmer": 8},
		Values:     map[string]float64{"Colores": h},
	})
}

func TestColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rgb(255, 0, 127)", rgbFixture(100, 0, 50).Color())
	assert.Equal(t, "#ff0080", rgbFixture(100, 0, 50).Hex())
	assert.True(t, rgbFixture(0, 0, 0).IsOff())

	assert.Equal(t, "hsl(90, 100%, 50%)", hueFixture(25).Color())
	assert.True(t, hueFixture(0).IsOff())

	plain := New(Data{Attributes: map[string]int{"intensity": 1}, Values: map[string]float64{"intensity": 100}})
	assert.True(t, plain.IsOff())
	assert.Equal(t, "", plain.Hex())
}

func TestPasteProperties_SameNames(t *testing.T) {
	t.Parallel()

	src := rgbFixture(10, 20, 30)
	dst := rgbFixture(0, 0, 0)

	n, err := dst.PasteProperties(src.CopyProperties())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 10.0, dst.Value("Red"))
	assert.Equal(t, 30.0, dst.Value("Blue"))
}

func TestPasteProperties_RGBToHue(t *testing.T) {
	t.Parallel()

	src := rgbFixture(0, 100, 0)
	dst := hueFixture(0)

	_, err := dst.PasteProperties(src.CopyProperties())
	require.NoError(t, err)
	assert.Equal(t, 33.0, dst.Value("Colores"))
	assert.Equal(t, 100.0, dst.Value("Dimmer"), "dimmer is copied by name")
}

func TestPasteProperties_HueToRGB(t *testing.T) {
	t.Parallel()

	src := hueFixture(50)
	dst := New(Data{Attributes: map[string]int{"R": 1, "G": 2, "B": 3}})

	_, err := dst.PasteProperties(src.CopyProperties())
	require.NoError(t, err)
	assert.Equal(t, 0.0, dst.Value("R"))
	assert.Equal(t, 100.0, dst.Value("G"))
	assert.Equal(t, 100.0, dst.Value("B"))
}

func TestPasteProperties_Incompatible(t *testing.T) {
	t.Parallel()

	src := New(Data{Attributes: map[string]int{"Gobos": 1}, Values: map[string]float64{"Gobos": 40}})
	dst := New(Data{Attributes: map[string]int{"intensity": 1}})

	n, err := dst.PasteProperties(src.CopyProperties())
	assert.ErrorIs(t, err, ErrNoCompatibleAttributes)
	assert.Zero(t, n)
}
