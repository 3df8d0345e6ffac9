package maps

import (
	"context"
	"errors"
	"fmt"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/fixture"
)

// Fixtures returns the fixtures of a map in display order.
func (s *Service) Fixtures(ctx context.Context, mapID string) ([]*fixture.Fixture, error) {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return nil, err
	}
	rows, err := s.fixtureRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return models.DomainFixtures(rows)
}

// Fixture returns one fixture of a map.
func (s *Service) Fixture(ctx context.Context, mapID, id string) (*fixture.Fixture, error) {
	row, err := s.findFixture(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	return row.Domain()
}

func (s *Service) findFixture(ctx context.Context, mapID, id string) (*models.Fixture, error) {
	row, err := s.fixtureRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.MapID != mapID {
		return nil, fmt.Errorf("%w: %s", ErrFixtureNotFound, id)
	}
	return row, nil
}

// AddFixture stores a new fixture at the end of the map's fixture list.
func (s *Service) AddFixture(ctx context.Context, mapID string, d fixture.Data) (*fixture.Fixture, error) {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return nil, err
	}
	d.ID = ""
	f := fixture.New(d)
	row, err := models.NewFixture(mapID, 0, f)
	if err != nil {
		return nil, err
	}
	if err := s.fixtureRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create fixture: %w", err)
	}
	s.notify(ctx, mapID, "fixture_added")
	return f, nil
}

// RemoveFixture deletes a fixture from a map.
func (s *Service) RemoveFixture(ctx context.Context, mapID, id string) error {
	if _, err := s.findFixture(ctx, mapID, id); err != nil {
		return err
	}
	if err := s.fixtureRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, mapID, "fixture_removed")
	return nil
}

// Update holds the fields to change on a fixture. Nil fields are left alone.
type Update struct {
	Name           *string            `json:"name,omitempty"`
	Interface      *string            `json:"interface,omitempty"`
	Channels       *fixture.Range     `json:"channels,omitempty"`
	RemapChannels  bool               `json:"remapChannels,omitempty"`
	Attributes     map[string]int     `json:"attributes,omitempty"`
	Values         map[string]float64 `json:"values,omitempty"`
	Visualizations map[string]string  `json:"visualizations,omitempty"`
}

// UpdateFixture applies u to a fixture. Attributes replace the whole
// attribute set before values are applied. With RemapChannels the attributes
// are renumbered onto the new channel range.
func (s *Service) UpdateFixture(ctx context.Context, mapID, id string, u Update) (*fixture.Fixture, error) {
	row, err := s.findFixture(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	f, err := row.Domain()
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		f.Rename(*u.Name)
	}
	if u.Interface != nil {
		f.Interface = *u.Interface
	}
	if u.Attributes != nil {
		f.ReplaceAttributes(u.Attributes)
	}
	if u.Channels != nil {
		if u.RemapChannels {
			f.RemapChannels(*u.Channels)
		} else {
			f.Channels = *u.Channels
		}
	}
	if u.Values != nil {
		f.SetValues(u.Values)
	}
	if u.Visualizations != nil {
		f.Visualizations = u.Visualizations
	}

	if err := s.saveFixture(ctx, row, f); err != nil {
		return nil, err
	}
	s.notify(ctx, mapID, "fixture_updated")
	return f, nil
}

// saveFixture writes f over row, keeping the row's order and creation time.
func (s *Service) saveFixture(ctx context.Context, row *models.Fixture, f *fixture.Fixture) error {
	updated, err := models.NewFixture(row.MapID, row.MapOrder, f)
	if err != nil {
		return err
	}
	updated.CreatedAt = row.CreatedAt
	return s.fixtureRepo.Update(ctx, updated)
}

// SetFixturePosition moves a fixture on the map canvas.
func (s *Service) SetFixturePosition(ctx context.Context, mapID, id string, x, y float64) (*fixture.Fixture, error) {
	row, err := s.findFixture(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	f, err := row.Domain()
	if err != nil {
		return nil, err
	}
	f.SetPosition(x, y)
	if err := s.saveFixture(ctx, row, f); err != nil {
		return nil, err
	}
	s.notify(ctx, mapID, "fixture_moved")
	return f, nil
}

// SetFixtureValue sets one attribute on several fixtures at once. Fixtures
// without the attribute are left unchanged. It returns the updated fixtures.
func (s *Service) SetFixtureValue(ctx context.Context, mapID string, ids []string, attribute string, value float64) ([]*fixture.Fixture, error) {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return nil, err
	}
	rows, err := s.fixtureRepo.FindByIDs(ctx, mapID, ids)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrFixtureNotFound
	}

	out := make([]*fixture.Fixture, 0, len(rows))
	updated := make([]models.Fixture, 0, len(rows))
	for i := range rows {
		f, err := rows[i].Domain()
		if err != nil {
			return nil, err
		}
		f.SetValue(attribute, value)
		row, err := models.NewFixture(mapID, rows[i].MapOrder, f)
		if err != nil {
			return nil, err
		}
		row.CreatedAt = rows[i].CreatedAt
		updated = append(updated, *row)
		out = append(out, f)
	}
	if err := s.fixtureRepo.UpdateMany(ctx, updated); err != nil {
		return nil, err
	}
	s.notify(ctx, mapID, "values_changed")
	return out, nil
}

// ClearFixtures removes every fixture from a map.
func (s *Service) ClearFixtures(ctx context.Context, mapID string) error {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return err
	}
	if err := s.fixtureRepo.DeleteByMapID(ctx, mapID); err != nil {
		return err
	}
	s.notify(ctx, mapID, "fixtures_cleared")
	return nil
}

// ReplaceFixtures swaps the map's fixtures for fs, in order. IDs are kept
// unless another map already uses them.
func (s *Service) ReplaceFixtures(ctx context.Context, mapID string, fs []*fixture.Fixture) error {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return err
	}
	rows := make([]models.Fixture, 0, len(fs))
	for i, f := range fs {
		existing, err := s.fixtureRepo.FindByID(ctx, f.ID())
		if err != nil {
			return err
		}
		if existing != nil && existing.MapID != mapID {
			f = f.Clone()
		}
		row, err := models.NewFixture(mapID, i, f)
		if err != nil {
			return err
		}
		rows = append(rows, *row)
	}
	if err := s.fixtureRepo.ReplaceForMap(ctx, mapID, rows); err != nil {
		return err
	}
	s.notify(ctx, mapID, "fixtures_replaced")
	return nil
}

// CopyProperties copies a fixture's attributes and values.
func (s *Service) CopyProperties(ctx context.Context, mapID, id string) (fixture.Clipboard, error) {
	f, err := s.Fixture(ctx, mapID, id)
	if err != nil {
		return fixture.Clipboard{}, err
	}
	return f.CopyProperties(), nil
}

// PasteProperties pastes clip onto each target fixture. Targets that accept
// nothing are skipped; fixture.ErrNoCompatibleAttributes is returned only when
// no target accepted anything.
func (s *Service) PasteProperties(ctx context.Context, mapID string, ids []string, clip fixture.Clipboard) ([]*fixture.Fixture, error) {
	if _, err := s.findMap(ctx, mapID); err != nil {
		return nil, err
	}
	rows, err := s.fixtureRepo.FindByIDs(ctx, mapID, ids)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrFixtureNotFound
	}

	var out []*fixture.Fixture
	var updated []models.Fixture
	for i := range rows {
		f, err := rows[i].Domain()
		if err != nil {
			return nil, err
		}
		if _, err := f.PasteProperties(clip); err != nil {
			if errors.Is(err, fixture.ErrNoCompatibleAttributes) {
				continue
			}
			return nil, err
		}
		row, err := models.NewFixture(mapID, rows[i].MapOrder, f)
		if err != nil {
			return nil, err
		}
		row.CreatedAt = rows[i].CreatedAt
		updated = append(updated, *row)
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fixture.ErrNoCompatibleAttributes
	}
	if err := s.fixtureRepo.UpdateMany(ctx, updated); err != nil {
		return nil, err
	}
	s.notify(ctx, mapID, "properties_pasted")
	return out, nil
}
