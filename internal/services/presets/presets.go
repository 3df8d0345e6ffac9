// Package presets provides fixture templates: the built-in catalog and
// user presets saved from existing fixtures.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucsky/cuid"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

//go:embed default_presets.toml
var defaultCatalog string

// ErrNotFound is returned when a preset ID is unknown.
var ErrNotFound = errors.New("preset not found")

// Preset is a named fixture template.
type Preset struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	FixtureData fixture.Data `json:"fixtureData"`
}

type catalogFile struct {
	Interface string         `toml:"interface"`
	Presets   []catalogEntry `toml:"preset"`
}

type catalogEntry struct {
	ID         string             `toml:"id"`
	Name       string             `toml:"name"`
	Interface  string             `toml:"interface"`
	Channels   []int              `toml:"channels"`
	Attributes map[string]int     `toml:"attributes"`
	Values     map[string]float64 `toml:"values"`
}

// Load decodes a TOML preset catalog.
func Load(r io.Reader) ([]Preset, error) {
	var file catalogFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode preset catalog: %w", err)
	}

	out := make([]Preset, 0, len(file.Presets))
	for i, e := range file.Presets {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("preset %d: id and name are required", i+1)
		}
		if len(e.Channels) != 2 {
			return nil, fmt.Errorf("preset %s: channels must be [start, end]", e.ID)
		}
		iface := e.Interface
		if iface == "" {
			iface = file.Interface
		}
		values := make(map[string]float64, len(e.Attributes))
		for name := range e.Attributes {
			values[name] = e.Values[name]
		}
		out = append(out, Preset{
			ID:   e.ID,
			Name: e.Name,
			FixtureData: fixture.Data{
				Name:       e.Name,
				Channels:   &fixture.Range{Start: e.Channels[0], End: e.Channels[1]},
				Interface:  iface,
				Attributes: e.Attributes,
				Values:     values,
			},
		})
	}
	return out, nil
}

// LoadFile reads a preset catalog from disk.
func LoadFile(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in catalog.
func Default() []Preset {
	p, err := Load(strings.NewReader(defaultCatalog))
	if err != nil {
		panic("presets: embedded catalog is invalid: " + err.Error())
	}
	return p
}

// Catalog returns the catalog at path, or the built-in one when path is empty.
func Catalog(path string) ([]Preset, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Find returns the preset with the given ID.
func Find(presets []Preset, id string) (Preset, error) {
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FromFixture captures a fixture as a new user preset. Position and identity
// are not part of a preset.
func FromFixture(name string, f *fixture.Fixture) Preset {
	d := f.Data()
	d.ID = ""
	d.Position = nil
	return Preset{ID: cuid.New(), Name: name, FixtureData: d}
}

// Instantiate creates a fixture from a preset. A non-empty name overrides the
// preset's name and a non-nil channel range remaps the attributes onto it.
func Instantiate(p Preset, name string, channels *fixture.Range) *fixture.Fixture {
	d := p.FixtureData
	d.ID = ""
	if name != "" {
		d.Name = name
	}
	f := fixture.New(d)
	if channels != nil {
		f.RemapChannels(*channels)
	}
	return f
}
