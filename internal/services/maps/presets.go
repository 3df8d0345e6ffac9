package maps

import (
	"context"
	"fmt"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/services/presets"
)

// Presets returns the presets of a map. A map that never saved its own
// presets shows the default catalog.
func (s *Service) Presets(ctx context.Context, mapID string) ([]presets.Preset, error) {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return nil, err
	}
	rows, err := s.presetRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		out := make([]presets.Preset, len(s.catalog))
		copy(out, s.catalog)
		return out, nil
	}

	out := make([]presets.Preset, 0, len(rows))
	for i := range rows {
		d, err := rows[i].Data()
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", rows[i].PresetID, err)
		}
		out = append(out, presets.Preset{ID: rows[i].PresetID, Name: rows[i].Name, FixtureData: d})
	}
	return out, nil
}

func (s *Service) savePresets(ctx context.Context, mapID string, ps []presets.Preset) error {
	rows := make([]models.Preset, 0, len(ps))
	for _, p := range ps {
		row := models.Preset{PresetID: p.ID, Name: p.Name}
		if err := row.SetFixtureData(p.FixtureData); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return s.presetRepo.ReplaceForMap(ctx, mapID, rows)
}

// CreateFromPreset adds a fixture built from a preset. name and channels are
// optional overrides.
func (s *Service) CreateFromPreset(ctx context.Context, mapID, presetID, name string, channels *fixture.Range) (*fixture.Fixture, error) {
	list, err := s.Presets(ctx, mapID)
	if err != nil {
		return nil, err
	}
	p, err := presets.Find(list, presetID)
	if err != nil {
		return nil, err
	}
	f := presets.Instantiate(p, name, channels)
	return s.AddFixture(ctx, mapID, f.Data())
}

// SaveAsPreset stores a fixture as a new preset on its map.
func (s *Service) SaveAsPreset(ctx context.Context, mapID, fixtureID, name string) (presets.Preset, error) {
	f, err := s.Fixture(ctx, mapID, fixtureID)
	if err != nil {
		return presets.Preset{}, err
	}
	list, err := s.Presets(ctx, mapID)
	if err != nil {
		return presets.Preset{}, err
	}
	if name == "" {
		name = f.Name
	}
	p := presets.FromFixture(name, f)
	if err := s.savePresets(ctx, mapID, append(list, p)); err != nil {
		return presets.Preset{}, err
	}
	s.notify(ctx, mapID, "preset_saved")
	return p, nil
}

// DeletePreset removes a preset from a map.
func (s *Service) DeletePreset(ctx context.Context, mapID, presetID string) error {
	list, err := s.Presets(ctx, mapID)
	if err != nil {
		return err
	}
	if _, err := presets.Find(list, presetID); err != nil {
		return err
	}
	kept := list[:0]
	for _, p := range list {
		if p.ID != presetID {
			kept = append(kept, p)
		}
	}
	if err := s.savePresets(ctx, mapID, kept); err != nil {
		return err
	}
	s.notify(ctx, mapID, "preset_deleted")
	return nil
}
