package fixture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	f := New(Data{})

	assert.NotEmpty(t, f.ID())
	assert.Equal(t, DefaultName, f.Name)
	assert.Equal(t, Position{X: 100, Y: 100}, f.Position)
	assert.Equal(t, Range{Start: 1, End: 1}, f.Channels)
	assert.Empty(t, f.Attributes)
	assert.Empty(t, f.Values)
}

func TestNew_FillsAndClampsValues(t *testing.T) {
	t.Parallel()

	f := New(Data{
		ID:         "fx-1",
		Name:       "CONTRA",
		Attributes: map[string]int{"Dimmer": 1, "R": 2, "G": 3},
		Values:     map[string]float64{"Dimmer": 140, "R": -3},
	})

	assert.Equal(t, "fx-1", f.ID())
	assert.Equal(t, 100.0, f.Value("Dimmer"))
	assert.Equal(t, 0.0, f.Value("R"))
	v, ok := f.Values["G"]
	require.True(t, ok, "missing attribute value should be defaulted")
	assert.Equal(t, 0.0, v)
}

func TestNew_CopiesInputMaps(t *testing.T) {
	t.Parallel()

	attrs := map[string]int{"Dimmer": 1}
	f := New(Data{Attributes: attrs})
	attrs["Dimmer"] = 99

	assert.Equal(t, 1, f.Attributes["Dimmer"])
}

func TestSetValue(t *testing.T) {
	t.Parallel()

	f := New(Data{Attributes: map[string]int{"Dimmer": 5}})

	f.SetValue("Dimmer", 42.5)
	assert.Equal(t, 42.5, f.Value("Dimmer"))

	f.SetValue("Dimmer", 500)
	assert.Equal(t, 100.0, f.Value("Dimmer"))

	f.SetValue("Dimmer", -1)
	assert.Equal(t, 0.0, f.Value("Dimmer"))

	f.SetValue("Unknown", 50)
	_, ok := f.Values["Unknown"]
	assert.False(t, ok, "unknown attributes are ignored")
	assert.Equal(t, 0.0, f.Value("Unknown"))
}

func TestAttributeLifecycle(t *testing.T) {
	t.Parallel()

	f := New(Data{})
	f.SetAttribute("Strobe", 7)
	assert.Equal(t, 7, f.Attributes["Strobe"])
	assert.Equal(t, 0.0, f.Values["Strobe"])

	f.SetValue("Strobe", 30)
	f.SetAttribute("Strobe", 8)
	assert.Equal(t, 30.0, f.Value("Strobe"), "rebinding keeps the value")

	f.RemoveAttribute("Strobe")
	assert.NotContains(t, f.Attributes, "Strobe")
	assert.NotContains(t, f.Values, "Strobe")
}

func TestReplaceAttributes(t *testing.T) {
	t.Parallel()

	f := New(Data{
		Attributes: map[string]int{"Dimmer": 1, "Gobo": 2},
		Values:     map[string]float64{"Dimmer": 80, "Gobo": 10},
	})
	f.ReplaceAttributes(map[string]int{"Dimmer": 3, "Pan": 4})

	assert.Equal(t, map[string]int{"Dimmer": 3, "Pan": 4}, f.Attributes)
	assert.Equal(t, map[string]float64{"Dimmer": 80, "Pan": 0}, f.Values)
}

func TestChannelInfo(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ChannelInfo{}, New(Data{}).ChannelInfo())

	f := New(Data{Attributes: map[string]int{"A": 12, "B": 9, "C": 15}})
	assert.Equal(t, ChannelInfo{Min: 9, Max: 15, Count: 3}, f.ChannelInfo())
}

func TestRemapChannels(t *testing.T) {
	t.Parallel()

	f := New(Data{Attributes: map[string]int{"Dimmer": 1, "R": 2, "G": 3, "B": 4, "Varios": 5}})
	f.RemapChannels(Range{Start: 40, End: 44})

	assert.Equal(t, Range{Start: 40, End: 44}, f.Channels)
	assert.Equal(t, map[string]int{"Dimmer": 40, "R": 41, "G": 42, "B": 43, "Varios": 44}, f.Attributes)
}

func TestRemapChannels_RangeTooSmall(t *testing.T) {
	t.Parallel()

	f := New(Data{Attributes: map[string]int{"Dimmer": 1, "Strobe": 2, "Speed": 3}})
	f.RemapChannels(Range{Start: 10, End: 11})

	assert.Equal(t, map[string]int{"Dimmer": 10, "Strobe": 11, "Speed": 12}, f.Attributes)
}

func TestSameType(t *testing.T) {
	t.Parallel()

	a := New(Data{Attributes: map[string]int{"R": 1, "G": 2, "B": 3}})
	b := New(Data{Attributes: map[string]int{"B": 9, "G": 8, "R": 7}})
	c := New(Data{Attributes: map[string]int{"Dimmer": 1}})

	assert.True(t, a.SameType(b))
	assert.False(t, a.SameType(c))
}

func TestClone(t *testing.T) {
	t.Parallel()

	f := New(Data{Name: "PAR", Attributes: map[string]int{"Dimmer": 1}, Values: map[string]float64{"Dimmer": 60}})
	c := f.Clone()

	assert.NotEqual(t, f.ID(), c.ID())
	assert.Equal(t, "PAR", c.Name)
	c.SetValue("Dimmer", 10)
	c.SetPosition(1, 2)
	assert.Equal(t, 60.0, f.Value("Dimmer"))
	assert.Equal(t, Position{X: 100, Y: 100}, f.Position)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	f := New(Data{
		ID:         "fx-json",
		Name:       "LAMP",
		Channels:   &Range{Start: 90, End: 100},
		Interface:  "USB-DEVICE",
		Attributes: map[string]int{"Dimmer": 90},
		Values:     map[string]float64{"Dimmer": 25},
	})

	b, err := json.Marshal(f)
	require.NoError(t, err)

	var back Fixture
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "fx-json", back.ID())
	assert.Equal(t, f.Data(), back.Data())
}
