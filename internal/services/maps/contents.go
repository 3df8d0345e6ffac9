package maps

import (
	"context"
	"fmt"

	"github.com/lucsky/cuid"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/database/repositories"
)

// Contents is a map together with everything stored on it.
type Contents struct {
	Map    *models.Map
	Sounds []models.Sound
}

// Contents loads a map with its fixtures, presets, cues and cue sounds.
func (s *Service) Contents(ctx context.Context, id string) (*Contents, error) {
	row, err := s.findMap(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Fixtures, err = s.fixtureRepo.FindByMapID(ctx, id); err != nil {
		return nil, err
	}
	if row.Presets, err = s.presetRepo.FindByMapID(ctx, id); err != nil {
		return nil, err
	}
	if row.Cues, err = s.cueRepo.FindByMapID(ctx, id); err != nil {
		return nil, err
	}

	c := &Contents{Map: row}
	for _, cue := range row.Cues {
		snd, err := s.soundRepo.FindByCueID(ctx, cue.ID)
		if err != nil {
			return nil, err
		}
		if snd != nil {
			c.Sounds = append(c.Sounds, *snd)
		}
	}
	return c, nil
}

// Copy returns an unsaved copy with fresh IDs everywhere. Captured light
// states and sounds are rewired to the new fixture and cue IDs.
func (c *Contents) Copy() (*Contents, error) {
	src := c.Map
	dst := &models.Map{Name: src.Name}

	fixtureIDs := make(map[string]string, len(src.Fixtures))
	for _, f := range src.Fixtures {
		nf := f
		nf.ID = cuid.New()
		nf.MapID = ""
		fixtureIDs[f.ID] = nf.ID
		dst.Fixtures = append(dst.Fixtures, nf)
	}
	for _, p := range src.Presets {
		np := p
		np.ID = ""
		np.MapID = ""
		dst.Presets = append(dst.Presets, np)
	}

	cueIDs := make(map[string]string, len(src.Cues))
	for _, cue := range src.Cues {
		nc := cue
		nc.ID = cuid.New()
		nc.MapID = ""
		cueIDs[cue.ID] = nc.ID

		snaps, err := cue.Snapshots()
		if err != nil {
			return nil, fmt.Errorf("cue %s: %w", cue.ID, err)
		}
		if snaps != nil {
			remapped := make([]models.FixtureSnapshot, 0, len(snaps))
			for _, snap := range snaps {
				if id, ok := fixtureIDs[snap.ID]; ok {
					snap.ID = id
				}
				remapped = append(remapped, snap)
			}
			if err := nc.SetSnapshots(remapped); err != nil {
				return nil, err
			}
		}
		dst.Cues = append(dst.Cues, nc)
	}

	out := &Contents{Map: dst}
	for _, snd := range c.Sounds {
		cueID, ok := cueIDs[snd.CueID]
		if !ok {
			continue
		}
		ns := snd
		ns.ID = ""
		ns.CueID = cueID
		out.Sounds = append(out.Sounds, ns)
	}
	return out, nil
}

// SaveNew stores copied contents as a new map and returns its ID.
func (s *Service) SaveNew(ctx context.Context, c *Contents) (string, error) {
	if err := s.mapRepo.CreateWithContents(ctx, c.Map); err != nil {
		return "", err
	}
	for i := range c.Sounds {
		if err := s.soundRepo.Save(ctx, &c.Sounds[i]); err != nil {
			return "", fmt.Errorf("save sound: %w", err)
		}
	}
	return c.Map.ID, nil
}

// ReplaceContents swaps everything stored on a map for c, renaming the map to
// c.Map.Name when it is set. c should carry fresh IDs, see Copy.
func (s *Service) ReplaceContents(ctx context.Context, mapID string, c *Contents) error {
	row, err := s.findMap(ctx, mapID)
	if err != nil {
		return err
	}
	if err := s.mapRepo.ReplaceContents(ctx, mapID, c.Map.Fixtures, c.Map.Presets, c.Map.Cues); err != nil {
		return fmt.Errorf("replace map contents: %w", err)
	}
	for i := range c.Sounds {
		if err := s.soundRepo.Save(ctx, &c.Sounds[i]); err != nil {
			return fmt.Errorf("save sound: %w", err)
		}
	}
	if c.Map.Name != "" && c.Map.Name != row.Name {
		row.Name = c.Map.Name
		if err := s.mapRepo.Update(ctx, row); err != nil {
			return err
		}
	}
	s.notify(ctx, mapID, "replaced")
	return nil
}

// ReplaceAll drops every map and stores the given ones instead. The first
// new map becomes active.
func (s *Service) ReplaceAll(ctx context.Context, all []*Contents) ([]string, error) {
	if len(all) == 0 {
		return nil, ErrMapNotFound
	}
	old, err := s.mapRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(all))
	for _, c := range all {
		id, err := s.SaveNew(ctx, c)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	for _, m := range old {
		if err := s.mapRepo.Delete(ctx, m.ID); err != nil {
			return nil, fmt.Errorf("delete map %s: %w", m.ID, err)
		}
	}
	if err := s.settingRepo.Upsert(ctx, repositories.SettingActiveMapID, ids[0]); err != nil {
		return nil, err
	}
	s.log.WithField("maps", len(ids)).Info("All maps replaced")
	return ids, nil
}
