// Package fixture defines the virtual lighting fixture placed on a map.
//
// A fixture owns a DMX address range, a set of named attributes bound to
// channel numbers, and a 0-100 value per attribute. Values are always kept
// in range and every attribute always has a value.
package fixture

import (
	"encoding/json"
	"sort"

	"github.com/lucsky/cuid"

	"github.com/bbernstein/qlove-go/pkg/dmxvalue"
)

const (
	// DefaultName is used when a fixture is created without a name.
	DefaultName = "Nuevo Foco"
	defaultX    = 100
	defaultY    = 100
)

// Position is the fixture's location on the map canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Range is an inclusive DMX address range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the range is positive and not inverted.
func (r Range) Valid() bool {
	return r.Start >= 1 && r.End >= r.Start
}

// Data is the serialized form of a fixture. It is also the seed used to
// create fixtures from imports and presets.
type Data struct {
	ID             string             `json:"id,omitempty"`
	Name           string             `json:"name"`
	Position       *Position          `json:"position,omitempty"`
	Channels       *Range             `json:"channels,omitempty"`
	Interface      string             `json:"interface"`
	Attributes     map[string]int     `json:"attributes"`
	Values         map[string]float64 `json:"values"`
	Visualizations map[string]string  `json:"visualizations,omitempty"`
}

// Fixture is one controllable lighting unit.
type Fixture struct {
	id             string
	Name           string
	Position       Position
	Channels       Range
	Interface      string
	Attributes     map[string]int
	Values         map[string]float64
	Visualizations map[string]string
}

// New creates a fixture from data, filling defaults and normalizing values.
func New(d Data) *Fixture {
	f := &Fixture{
		id:             d.ID,
		Name:           d.Name,
		Position:       Position{X: defaultX, Y: defaultY},
		Channels:       Range{Start: 1, End: 1},
		Interface:      d.Interface,
		Attributes:     make(map[string]int, len(d.Attributes)),
		Values:         make(map[string]float64, len(d.Values)),
		Visualizations: make(map[string]string, len(d.Visualizations)),
	}
	if f.id == "" {
		f.id = cuid.New()
	}
	if f.Name == "" {
		f.Name = DefaultName
	}
	if d.Position != nil {
		f.Position = *d.Position
	}
	if d.Channels != nil {
		f.Channels = *d.Channels
	}
	for name, ch := range d.Attributes {
		f.Attributes[name] = ch
	}
	for name, v := range d.Values {
		f.Values[name] = dmxvalue.Clamp(v, 0, dmxvalue.MaxPercent)
	}
	for k, v := range d.Visualizations {
		f.Visualizations[k] = v
	}
	f.fillValues()
	return f
}

// FromData is New for a slice of serialized fixtures.
func FromData(ds []Data) []*Fixture {
	out := make([]*Fixture, 0, len(ds))
	for _, d := range ds {
		out = append(out, New(d))
	}
	return out
}

// ID returns the fixture's immutable identifier.
func (f *Fixture) ID() string {
	return f.id
}

func (f *Fixture) fillValues() {
	for name := range f.Attributes {
		if _, ok := f.Values[name]; !ok {
			f.Values[name] = 0
		}
	}
}

// SetPosition moves the fixture on the canvas.
func (f *Fixture) SetPosition(x, y float64) *Fixture {
	f.Position = Position{X: x, Y: y}
	return f
}

// Rename changes the display name. An empty name is ignored.
func (f *Fixture) Rename(name string) *Fixture {
	if name != "" {
		f.Name = name
	}
	return f
}

// SetValue sets an attribute value, clamped to 0-100. Unknown attributes are ignored.
func (f *Fixture) SetValue(attribute string, value float64) *Fixture {
	if _, ok := f.Attributes[attribute]; ok {
		f.Values[attribute] = dmxvalue.Clamp(value, 0, dmxvalue.MaxPercent)
	}
	return f
}

// Value returns an attribute value, or 0 when unset.
func (f *Fixture) Value(attribute string) float64 {
	return f.Values[attribute]
}

// SetValues applies several values at once, with the same rules as SetValue.
func (f *Fixture) SetValues(values map[string]float64) *Fixture {
	for name, v := range values {
		f.SetValue(name, v)
	}
	return f
}

// SetAttribute binds an attribute to a channel, creating it with value 0 if new.
func (f *Fixture) SetAttribute(name string, channel int) *Fixture {
	f.Attributes[name] = channel
	f.fillValues()
	return f
}

// RemoveAttribute drops an attribute and its value.
func (f *Fixture) RemoveAttribute(name string) *Fixture {
	delete(f.Attributes, name)
	delete(f.Values, name)
	return f
}

// ReplaceAttributes swaps the whole attribute map, keeping values for names
// that survive and dropping the rest.
func (f *Fixture) ReplaceAttributes(attrs map[string]int) *Fixture {
	f.Attributes = make(map[string]int, len(attrs))
	for name, ch := range attrs {
		f.Attributes[name] = ch
	}
	for name := range f.Values {
		if _, ok := f.Attributes[name]; !ok {
			delete(f.Values, name)
		}
	}
	f.fillValues()
	return f
}

// AttributeNames returns the attribute names in sorted order.
func (f *Fixture) AttributeNames() []string {
	names := make([]string, 0, len(f.Attributes))
	for name := range f.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SameType reports whether both fixtures expose the same attribute names.
func (f *Fixture) SameType(other *Fixture) bool {
	if len(f.Attributes) != len(other.Attributes) {
		return false
	}
	for name := range f.Attributes {
		if _, ok := other.Attributes[name]; !ok {
			return false
		}
	}
	return true
}

// ChannelInfo summarizes the channels used by the fixture's attributes.
type ChannelInfo struct {
	Min   int `json:"min"`
	Max   int `json:"max"`
	Count int `json:"count"`
}

// ChannelInfo returns the lowest and highest attribute channel and the attribute count.
func (f *Fixture) ChannelInfo() ChannelInfo {
	if len(f.Attributes) == 0 {
		return ChannelInfo{}
	}
	info := ChannelInfo{Count: len(f.Attributes)}
	first := true
	for _, ch := range f.Attributes {
		if first || ch < info.Min {
			info.Min = ch
		}
		if first || ch > info.Max {
			info.Max = ch
		}
		first = false
	}
	return info
}

// RemapChannels moves the fixture to a new address range. Attributes are
// reassigned one per channel from r.Start in order of their current channel;
// attributes that do not fit keep counting past r.End so none are lost.
func (f *Fixture) RemapChannels(r Range) *Fixture {
	names := f.AttributeNames()
	sort.SliceStable(names, func(i, j int) bool {
		return f.Attributes[names[i]] < f.Attributes[names[j]]
	})
	next := r.Start
	for _, name := range names {
		f.Attributes[name] = next
		next++
	}
	f.Channels = r
	return f
}

// Clone returns a deep copy with a fresh ID.
func (f *Fixture) Clone() *Fixture {
	d := f.Data()
	d.ID = ""
	return New(d)
}

// Data serializes the fixture.
func (f *Fixture) Data() Data {
	pos := f.Position
	ch := f.Channels
	d := Data{
		ID:             f.id,
		Name:           f.Name,
		Position:       &pos,
		Channels:       &ch,
		Interface:      f.Interface,
		Attributes:     make(map[string]int, len(f.Attributes)),
		Values:         make(map[string]float64, len(f.Values)),
		Visualizations: make(map[string]string, len(f.Visualizations)),
	}
	for k, v := range f.Attributes {
		d.Attributes[k] = v
	}
	for k, v := range f.Values {
		d.Values[k] = v
	}
	for k, v := range f.Visualizations {
		d.Visualizations[k] = v
	}
	return d
}

// ToData serializes a slice of fixtures.
func ToData(fs []*Fixture) []Data {
	out := make([]Data, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Data())
	}
	return out
}

// MarshalJSON encodes the fixture in its Data form.
func (f *Fixture) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Data())
}

// UnmarshalJSON decodes a fixture from its Data form.
func (f *Fixture) UnmarshalJSON(b []byte) error {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*f = *New(d)
	return nil
}
