package models

import (
	"encoding/json"
	"fmt"

	"github.com/bbernstein/qlove-go/internal/fixture"
)

func marshalString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalString(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

// NewFixture converts a fixture into its row on mapID.
func NewFixture(mapID string, order int, f *fixture.Fixture) (*Fixture, error) {
	attrs, err := marshalString(f.Attributes)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	values, err := marshalString(f.Values)
	if err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}
	vis, err := marshalString(f.Visualizations)
	if err != nil {
		return nil, fmt.Errorf("encode visualizations: %w", err)
	}
	return &Fixture{
		ID:             f.ID(),
		MapID:          mapID,
		Name:           f.Name,
		Interface:      f.Interface,
		ChannelStart:   f.Channels.Start,
		ChannelEnd:     f.Channels.End,
		PositionX:      f.Position.X,
		PositionY:      f.Position.Y,
		Attributes:     attrs,
		Values:         values,
		Visualizations: vis,
		MapOrder:       order,
	}, nil
}

// Domain decodes the row into a fixture.
func (m *Fixture) Domain() (*fixture.Fixture, error) {
	d := fixture.Data{
		ID:        m.ID,
		Name:      m.Name,
		Interface: m.Interface,
		Position:  &fixture.Position{X: m.PositionX, Y: m.PositionY},
		Channels:  &fixture.Range{Start: m.ChannelStart, End: m.ChannelEnd},
	}
	if err := unmarshalString(m.Attributes, &d.Attributes); err != nil {
		return nil, fmt.Errorf("fixture %s attributes: %w", m.ID, err)
	}
	if err := unmarshalString(m.Values, &d.Values); err != nil {
		return nil, fmt.Errorf("fixture %s values: %w", m.ID, err)
	}
	if err := unmarshalString(m.Visualizations, &d.Visualizations); err != nil {
		return nil, fmt.Errorf("fixture %s visualizations: %w", m.ID, err)
	}
	return fixture.New(d), nil
}

// DomainFixtures decodes a slice of rows, keeping their order.
func DomainFixtures(rows []Fixture) ([]*fixture.Fixture, error) {
	out := make([]*fixture.Fixture, 0, len(rows))
	for i := range rows {
		f, err := rows[i].Domain()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// SetFixtureData stores a fixture seed as JSON.
func (p *Preset) SetFixtureData(d fixture.Data) error {
	s, err := marshalString(d)
	if err != nil {
		return err
	}
	p.FixtureData = s
	return nil
}

// Data decodes the stored fixture seed.
func (p *Preset) Data() (fixture.Data, error) {
	var d fixture.Data
	err := unmarshalString(p.FixtureData, &d)
	return d, err
}

// Snapshots decodes the captured light state. A cue without one returns nil.
func (c *Cue) Snapshots() ([]FixtureSnapshot, error) {
	if c.DMXState == nil {
		return nil, nil
	}
	var out []FixtureSnapshot
	if err := unmarshalString(*c.DMXState, &out); err != nil {
		return nil, fmt.Errorf("cue %s dmx state: %w", c.ID, err)
	}
	return out, nil
}

// SetSnapshots stores the captured light state. nil clears it.
func (c *Cue) SetSnapshots(s []FixtureSnapshot) error {
	if s == nil {
		c.DMXState = nil
		return nil
	}
	str, err := marshalString(s)
	if err != nil {
		return err
	}
	c.DMXState = &str
	return nil
}

// Sound decodes the attached sound reference, or nil.
func (c *Cue) Sound() (*SoundRef, error) {
	if c.SoundFile == nil {
		return nil, nil
	}
	var ref SoundRef
	if err := unmarshalString(*c.SoundFile, &ref); err != nil {
		return nil, fmt.Errorf("cue %s sound: %w", c.ID, err)
	}
	return &ref, nil
}

// SetSound stores the sound reference. nil clears it.
func (c *Cue) SetSound(ref *SoundRef) error {
	if ref == nil {
		c.SoundFile = nil
		return nil
	}
	str, err := marshalString(ref)
	if err != nil {
		return err
	}
	c.SoundFile = &str
	return nil
}
