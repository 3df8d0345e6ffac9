// Package maps manages the named stage layouts ("maps") and the fixtures,
// presets and cues stored on each of them. Exactly one map is active.
package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/database/repositories"
	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/dmx"
	"github.com/bbernstein/qlove-go/internal/services/presets"
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
)

var (
	// ErrMapNotFound is returned for an unknown map ID.
	ErrMapNotFound = errors.New("map not found")
	// ErrLastMap is returned when deleting the only remaining map.
	ErrLastMap = errors.New("cannot delete the last map")
	// ErrFixtureNotFound is returned for an unknown fixture ID.
	ErrFixtureNotFound = errors.New("fixture not found")
	// ErrNoFixtures is returned when sending a map without fixtures.
	ErrNoFixtures = errors.New("no fixtures to send")
)

// Output receives built universes. *dmx.Service implements it.
type Output interface {
	SendFixtures(ctx context.Context, fixtures []*fixture.Fixture) (dmx.Universe, error)
}

// Info summarizes a map.
type Info struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	FixtureCount int64     `json:"fixtureCount"`
	CueCount     int64     `json:"cueCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Event is published on pubsub.TopicMapUpdated after every change.
type Event struct {
	MapID  string `json:"mapId"`
	Change string `json:"change"`
}

// Service implements map, fixture and preset operations.
type Service struct {
	mapRepo     *repositories.MapRepository
	fixtureRepo *repositories.FixtureRepository
	presetRepo  *repositories.PresetRepository
	cueRepo     *repositories.CueRepository
	soundRepo   *repositories.SoundRepository
	settingRepo *repositories.SettingRepository

	catalog []presets.Preset
	output  Output
	pubsub  *pubsub.PubSub
	log     *logger.Log
}

// NewService creates a map service. output and ps may be nil.
func NewService(db *gorm.DB, catalog []presets.Preset, output Output, ps *pubsub.PubSub, log *logger.Log) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		mapRepo:     repositories.NewMapRepository(db),
		fixtureRepo: repositories.NewFixtureRepository(db),
		presetRepo:  repositories.NewPresetRepository(db),
		cueRepo:     repositories.NewCueRepository(db),
		soundRepo:   repositories.NewSoundRepository(db),
		settingRepo: repositories.NewSettingRepository(db),
		catalog:     catalog,
		output:      output,
		pubsub:      ps,
		log:         log.Module("maps"),
	}
}

func (s *Service) notify(ctx context.Context, mapID, change string) {
	if err := s.mapRepo.Touch(ctx, mapID); err != nil {
		s.log.WithError(err).Warn("failed to touch map")
	}
	if s.pubsub != nil {
		s.pubsub.Publish(pubsub.TopicMapUpdated, mapID, Event{MapID: mapID, Change: change})
	}
}

// Bootstrap makes sure at least one map exists and one map is active.
func (s *Service) Bootstrap(ctx context.Context) (*Info, error) {
	count, err := s.mapRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		s.log.Info("No maps found, creating the first one")
		return s.CreateMap(ctx, "")
	}
	return s.ActiveMap(ctx)
}

// ListMaps returns every map in display order.
func (s *Service) ListMaps(ctx context.Context) ([]Info, error) {
	rows, err := s.mapRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	active, _, err := s.settingRepo.Get(ctx, repositories.SettingActiveMapID)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(rows))
	for i := range rows {
		info, err := s.info(ctx, &rows[i], active)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, nil
}

// Map returns one map.
func (s *Service) Map(ctx context.Context, id string) (*Info, error) {
	row, err := s.findMap(ctx, id)
	if err != nil {
		return nil, err
	}
	active, _, err := s.settingRepo.Get(ctx, repositories.SettingActiveMapID)
	if err != nil {
		return nil, err
	}
	return s.info(ctx, row, active)
}

func (s *Service) info(ctx context.Context, row *models.Map, activeID string) (*Info, error) {
	fixtures, err := s.mapRepo.CountFixtures(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	cues, err := s.mapRepo.CountCues(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:           row.ID,
		Name:         row.Name,
		Active:       row.ID == activeID,
		FixtureCount: fixtures,
		CueCount:     cues,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (s *Service) findMap(ctx context.Context, id string) (*models.Map, error) {
	row, err := s.mapRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, id)
	}
	return row, nil
}

// ActiveMapID returns the ID of the active map. When the stored setting is
// missing or stale the first map becomes active.
func (s *Service) ActiveMapID(ctx context.Context) (string, error) {
	id, ok, err := s.settingRepo.Get(ctx, repositories.SettingActiveMapID)
	if err != nil {
		return "", err
	}
	if ok {
		row, err := s.mapRepo.FindByID(ctx, id)
		if err != nil {
			return "", err
		}
		if row != nil {
			return id, nil
		}
	}

	rows, err := s.mapRepo.FindAll(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrMapNotFound
	}
	if err := s.settingRepo.Upsert(ctx, repositories.SettingActiveMapID, rows[0].ID); err != nil {
		return "", err
	}
	return rows[0].ID, nil
}

// ActiveMap returns the active map.
func (s *Service) ActiveMap(ctx context.Context) (*Info, error) {
	id, err := s.ActiveMapID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Map(ctx, id)
}

// SwitchMap makes id the active map.
func (s *Service) SwitchMap(ctx context.Context, id string) error {
	if _, err := s.findMap(ctx, id); err != nil {
		return err
	}
	return s.settingRepo.Upsert(ctx, repositories.SettingActiveMapID, id)
}

// CreateMap adds an empty map and makes it active. An empty name becomes
// "Mapa N" where N is the new number of maps.
func (s *Service) CreateMap(ctx context.Context, name string) (*Info, error) {
	if name == "" {
		count, err := s.mapRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("Mapa %d", count+1)
	}

	row := &models.Map{Name: name}
	if err := s.mapRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}
	if err := s.settingRepo.Upsert(ctx, repositories.SettingActiveMapID, row.ID); err != nil {
		return nil, err
	}

	s.log.WithField("map", row.Name).Info("Map created")
	return s.Map(ctx, row.ID)
}

// DeleteMap removes a map. The last map cannot be deleted. When the active
// map is deleted the first remaining map becomes active.
func (s *Service) DeleteMap(ctx context.Context, id string) error {
	if _, err := s.findMap(ctx, id); err != nil {
		return err
	}
	count, err := s.mapRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastMap
	}

	if err := s.mapRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete map: %w", err)
	}

	// ActiveMapID repairs a stale setting.
	_, err = s.ActiveMapID(ctx)
	return err
}

// RenameMap changes a map's name.
func (s *Service) RenameMap(ctx context.Context, id, name string) (*Info, error) {
	row, err := s.findMap(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Name = name
	if err := s.mapRepo.Update(ctx, row); err != nil {
		return nil, err
	}
	s.notify(ctx, id, "renamed")
	return s.Map(ctx, id)
}

// DuplicateMap copies a map with all its contents under the name
// "<name> (copia)" and makes the copy active. Fixtures and cues get new IDs
// and captured light states follow the new fixture IDs.
func (s *Service) DuplicateMap(ctx context.Context, id string) (*Info, error) {
	src, err := s.findMap(ctx, id)
	if err != nil {
		return nil, err
	}

	contents, err := s.Contents(ctx, id)
	if err != nil {
		return nil, err
	}
	dup, err := contents.Copy()
	if err != nil {
		return nil, err
	}
	dup.Map.Name = src.Name + " (copia)"

	newID, err := s.SaveNew(ctx, dup)
	if err != nil {
		return nil, fmt.Errorf("duplicate map: %w", err)
	}
	if err := s.settingRepo.Upsert(ctx, repositories.SettingActiveMapID, newID); err != nil {
		return nil, err
	}
	return s.Map(ctx, newID)
}
