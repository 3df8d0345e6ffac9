package presets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

func TestDefault(t *testing.T) {
	catalog := Default()
	require.Len(t, catalog, 8)

	names := make([]string, 0, len(catalog))
	for _, p := range catalog {
		names = append(names, p.Name)
		assert.Equal(t, "USB - ENTTEC DMX USB PRO - EN346284, Universe 0", p.FixtureData.Interface)
		assert.Len(t, p.FixtureData.Values, len(p.FixtureData.Attributes))
	}
	assert.Equal(t, []string{"FRONTAL", "CONTRA", "BICHITO", "PC", "PARTY", "PARET", "FRONTAL LED", "PAR MINI"}, names)

	bichito, err := Find(catalog, "preset-bichito")
	require.NoError(t, err)
	assert.Equal(t, fixture.Range{Start: 1, End: 11}, *bichito.FixtureData.Channels)
	assert.Equal(t, 2, bichito.FixtureData.Attributes["Inclinación"])
	assert.Equal(t, 11, bichito.FixtureData.Attributes["Velocidad"])
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(Default(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad(t *testing.T) {
	src := `
interface = "ART-NET"

[[preset]]
id = "wash"
name = "WASH"
channels = [10, 12]
interface = "USB"
  [preset.attributes]
  Dimmer = 10
  Pan = 11
  [preset.values]
  Dimmer = 50

[[preset]]
id = "spot"
name = "SPOT"
channels = [1, 1]
  [preset.attributes]
  Dimmer = 1
`
	catalog, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	assert.Equal(t, "USB", catalog[0].FixtureData.Interface)
	assert.Equal(t, map[string]float64{"Dimmer": 50, "Pan": 0}, catalog[0].FixtureData.Values)
	assert.Equal(t, "ART-NET", catalog[1].FixtureData.Interface)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax", src: "[[preset]\n"},
		{name: "missing id", src: "[[preset]]\nname = \"X\"\nchannels = [1, 1]\n"},
		{name: "bad channels", src: "[[preset]]\nid = \"x\"\nname = \"X\"\nchannels = [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestCatalog(t *testing.T) {
	catalog, err := Catalog("")
	require.NoError(t, err)
	assert.Len(t, catalog, 8)

	path := filepath.Join(t.TempDir(), "presets.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[preset]]\nid = \"a\"\nname = \"A\"\nchannels = [1, 1]\n[preset.attributes]\nDimmer = 1\n"), 0o600))

	catalog, err = Catalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "A", catalog[0].Name)

	_, err = Catalog(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestInstantiate(t *testing.T) {
	contra, err := Find(Default(), "preset-contra")
	require.NoError(t, err)

	f := Instantiate(contra, "CONTRA 2", &fixture.Range{Start: 40, End: 44})
	assert.Equal(t, "CONTRA 2", f.Name)
	assert.Equal(t, fixture.Range{Start: 40, End: 44}, f.Channels)
	assert.Equal(t, map[string]int{"Dimmer": 40, "R": 41, "G": 42, "B": 43, "Varios": 44}, f.Attributes)
	assert.NotEmpty(t, f.ID())

	// The preset itself is untouched.
	assert.Equal(t, 1, contra.FixtureData.Attributes["Dimmer"])

	plain := Instantiate(contra, "", nil)
	assert.Equal(t, "CONTRA", plain.Name)
	assert.Equal(t, 1, plain.Attributes["Dimmer"])
}

func TestFromFixture(t *testing.T) {
	f := fixture.New(fixture.Data{
		Name:       "MINE",
		Attributes: map[string]int{"Dimmer": 3},
		Values:     map[string]float64{"Dimmer": 80},
	})

	p := FromFixture("Mi preset", f)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Mi preset", p.Name)
	assert.Empty(t, p.FixtureData.ID)
	assert.Nil(t, p.FixtureData.Position)
	assert.Equal(t, 80.0, p.FixtureData.Values["Dimmer"])

	clone := Instantiate(p, "", nil)
	assert.NotEqual(t, f.ID(), clone.ID())
	assert.Equal(t, "MINE", clone.Name)
}
