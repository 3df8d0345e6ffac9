// Package cues manages the cue list of a map. Light cues capture and restore
// fixture values; sound cues carry an audio file.
package cues

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
	"github.com/bbernstein/qlove-go/internal/services/pubsub"
)

// Cue types.
const (
	TypeSound = "sound"
	TypeLight = "light"
)

const (
	defaultColor  = "#333333"
	defaultAction = "stop"
)

var (
	ErrCueNotFound   = errors.New("cue not found")
	ErrInvalidType   = errors.New("invalid cue type")
	ErrNotLightCue   = errors.New("cue is not a light cue")
	ErrInvalidOrder  = errors.New("cue order must list every cue exactly once")
	ErrNoLightState  = errors.New("cue has no captured light state")
	ErrMapIDRequired = errors.New("map ID is required")
)

// Output pushes restored fixtures to the lights. *dmx.Service implements it.
type Output interface {
	IsConnected() bool
	SendFixtures(ctx context.Context, fixtures []*fixture.Fixture) (dmx.Universe, error)
}

// Cue is one entry of a cue list.
type Cue struct {
	ID        string                   `json:"id"`
	MapID     string                   `json:"mapId"`
	Number    int                      `json:"number"`
	Name      string                   `json:"name"`
	Type      string                   `json:"type"`
	Color     string                   `json:"color"`
	Action    string                   `json:"action"`
	SoundFile *models.SoundRef         `json:"soundFile"`
	DMXState  []models.FixtureSnapshot `json:"dmxState"`
}

func fromModel(row *models.Cue) (*Cue, error) {
	snaps, err := row.Snapshots()
	if err != nil {
		return nil, err
	}
	ref, err := row.Sound()
	if err != nil {
		return nil, err
	}
	return &Cue{
		ID:        row.ID,
		MapID:     row.MapID,
		Number:    row.Number,
		Name:      row.Name,
		Type:      row.Type,
		Color:     row.Color,
		Action:    row.Action,
		SoundFile: ref,
		DMXState:  snaps,
	}, nil
}

// Update holds the cue fields to change. Nil fields are left alone.
type Update struct {
	Name   *string `json:"name,omitempty"`
	Color  *string `json:"color,omitempty"`
	Action *string `json:"action,omitempty"`
	Type   *string `json:"type,omitempty"`
}

// Execution is the result of running a cue.
type Execution struct {
	Cue      *Cue               `json:"cue"`
	Fixtures []*fixture.Fixture `json:"fixtures,omitempty"`
	Sound    *models.SoundRef   `json:"sound,omitempty"`
	Sent     bool               `json:"sent"`
}

// Service implements the cue list operations.
type Service struct {
	cueRepo     *repositories.CueRepository
	soundRepo   *repositories.SoundRepository
	fixtureRepo *repositories.FixtureRepository
	mapRepo     *repositories.MapRepository

	output Output
	pubsub *pubsub.PubSub
	log    *logger.Log
}

// NewService creates a cue service. output and ps may be nil.
func NewService(db *gorm.DB, output Output, ps *pubsub.PubSub, log *logger.Log) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		cueRepo:     repositories.NewCueRepository(db),
		soundRepo:   repositories.NewSoundRepository(db),
		fixtureRepo: repositories.NewFixtureRepository(db),
		mapRepo:     repositories.NewMapRepository(db),
		output:      output,
		pubsub:      ps,
		log:         log.Module("cues"),
	}
}

func validType(t string) bool {
	return t == TypeSound || t == TypeLight
}

func (s *Service) findCue(ctx context.Context, mapID, id string) (*models.Cue, error) {
	row, err := s.cueRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil || row.MapID != mapID {
		return nil, fmt.Errorf("%w: %s", ErrCueNotFound, id)
	}
	return row, nil
}

func (s *Service) touch(ctx context.Context, mapID string) {
	if err := s.mapRepo.Touch(ctx, mapID); err != nil {
		s.log.WithError(err).Warn("failed to touch map")
	}
}

// List returns a map's cues in number order.
func (s *Service) List(ctx context.Context, mapID string) ([]*Cue, error) {
	rows, err := s.cueRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	out := make([]*Cue, 0, len(rows))
	for i := range rows {
		c, err := fromModel(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Get returns one cue.
func (s *Service) Get(ctx context.Context, mapID, id string) (*Cue, error) {
	row, err := s.findCue(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	return fromModel(row)
}

// AddCue appends a cue named "New <type> Cue" to the end of the list.
func (s *Service) AddCue(ctx context.Context, mapID, cueType string) (*Cue, error) {
	if mapID == "" {
		return nil, ErrMapIDRequired
	}
	if !validType(cueType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, cueType)
	}
	rows, err := s.cueRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}

	row := &models.Cue{
		MapID:  mapID,
		Number: len(rows) + 1,
		Name:   fmt.Sprintf("New %s Cue", cueType),
		Type:   cueType,
		Color:  defaultColor,
		Action: defaultAction,
	}
	if err := s.cueRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create cue: %w", err)
	}
	s.touch(ctx, mapID)
	return fromModel(row)
}

// UpdateCue changes a cue's editable fields.
func (s *Service) UpdateCue(ctx context.Context, mapID, id string, u Update) (*Cue, error) {
	row, err := s.findCue(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	if u.Type != nil {
		if !validType(*u.Type) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, *u.Type)
		}
		row.Type = *u.Type
	}
	if u.Name != nil {
		row.Name = *u.Name
	}
	if u.Color != nil {
		row.Color = *u.Color
	}
	if u.Action != nil {
		row.Action = *u.Action
	}
	if err := s.cueRepo.Update(ctx, row); err != nil {
		return nil, err
	}
	s.touch(ctx, mapID)
	return fromModel(row)
}

// DeleteCue removes a cue and its sound, then renumbers the list 1..n.
func (s *Service) DeleteCue(ctx context.Context, mapID, id string) error {
	if _, err := s.findCue(ctx, mapID, id); err != nil {
		return err
	}
	if err := s.cueRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.renumber(ctx, mapID, nil); err != nil {
		return err
	}
	s.touch(ctx, mapID)
	return nil
}

// DuplicateCue inserts a copy named "<name> Copy" right after the source.
// A sound attached to the source is copied as well.
func (s *Service) DuplicateCue(ctx context.Context, mapID, id string) (*Cue, error) {
	src, err := s.findCue(ctx, mapID, id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = ""
	dup.CreatedAt, dup.UpdatedAt = time.Time{}, time.Time{}
	dup.Name = src.Name + " Copy"
	dup.Number = src.Number + 1
	if err := s.cueRepo.Create(ctx, &dup); err != nil {
		return nil, fmt.Errorf("duplicate cue: %w", err)
	}

	snd, err := s.soundRepo.FindByCueID(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	if snd != nil {
		cp := *snd
		cp.ID = ""
		cp.CueID = dup.ID
		if err := s.soundRepo.Save(ctx, &cp); err != nil {
			return nil, err
		}
	}

	if err := s.renumber(ctx, mapID, &dup); err != nil {
		return nil, err
	}
	s.touch(ctx, mapID)
	return s.Get(ctx, mapID, dup.ID)
}

// renumber assigns 1..n in list order. When inserted is set it is placed
// right after the cue that precedes it by number.
func (s *Service) renumber(ctx context.Context, mapID string, inserted *models.Cue) error {
	rows, err := s.cueRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if inserted != nil && row.ID == inserted.ID {
			continue
		}
		ids = append(ids, row.ID)
		if inserted != nil && row.Number == inserted.Number-1 {
			ids = append(ids, inserted.ID)
		}
	}
	return s.cueRepo.Renumber(ctx, ids)
}

// ReorderCues renumbers the cues in the order given. ids must name every
// cue of the map exactly once.
func (s *Service) ReorderCues(ctx context.Context, mapID string, ids []string) ([]*Cue, error) {
	rows, err := s.cueRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(rows) {
		return nil, ErrInvalidOrder
	}
	known := make(map[string]bool, len(rows))
	for _, row := range rows {
		known[row.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, ErrInvalidOrder
		}
		delete(known, id)
	}

	if err := s.cueRepo.Renumber(ctx, ids); err != nil {
		return nil, err
	}
	s.touch(ctx, mapID)
	return s.List(ctx, mapID)
}

// CaptureLightState stores the current values of every fixture of the map
// on a light cue.
func (s *Service) CaptureLightState(ctx context.Context, mapID, id string) (*Cue, error) {
	row, err := s.findCue(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	if row.Type != TypeLight {
		return nil, ErrNotLightCue
	}

	fixtures, err := s.fixtureRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	fs, err := models.DomainFixtures(fixtures)
	if err != nil {
		return nil, err
	}
	snaps := make([]models.FixtureSnapshot, 0, len(fs))
	for _, f := range fs {
		snaps = append(snaps, models.FixtureSnapshot{ID: f.ID(), Values: f.Data().Values})
	}
	if err := row.SetSnapshots(snaps); err != nil {
		return nil, err
	}
	if err := s.cueRepo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.log.With(logger.Fields{"cue": row.Name, "fixtures": len(snaps)}).Info("Light state captured")
	s.touch(ctx, mapID)
	return fromModel(row)
}

// ExecuteCue runs a cue. Light cues write their captured values back onto
// the fixtures that still exist and push them to the lights when the output
// is connected. Sound cues report their sound reference.
func (s *Service) ExecuteCue(ctx context.Context, mapID, id string) (*Execution, error) {
	row, err := s.findCue(ctx, mapID, id)
	if err != nil {
		return nil, err
	}
	c, err := fromModel(row)
	if err != nil {
		return nil, err
	}
	exec := &Execution{Cue: c}

	switch c.Type {
	case TypeSound:
		exec.Sound = c.SoundFile
	case TypeLight:
		if c.DMXState == nil {
			return nil, ErrNoLightState
		}
		if err := s.restore(ctx, mapID, c.DMXState, exec); err != nil {
			return nil, err
		}
	}

	if s.pubsub != nil {
		s.pubsub.Publish(pubsub.TopicCueExecuted, mapID, exec)
	}
	return exec, nil
}

func (s *Service) restore(ctx context.Context, mapID string, snaps []models.FixtureSnapshot, exec *Execution) error {
	byID := make(map[string]map[string]float64, len(snaps))
	for _, snap := range snaps {
		byID[snap.ID] = snap.Values
	}

	rows, err := s.fixtureRepo.FindByMapID(ctx, mapID)
	if err != nil {
		return err
	}
	var updated []models.Fixture
	var all []*fixture.Fixture
	for i := range rows {
		f, err := rows[i].Domain()
		if err != nil {
			return err
		}
		all = append(all, f)
		values, ok := byID[f.ID()]
		if !ok {
			continue
		}
		f.SetValues(values)
		row, err := models.NewFixture(mapID, rows[i].MapOrder, f)
		if err != nil {
			return err
		}
		row.CreatedAt = rows[i].CreatedAt
		updated = append(updated, *row)
		exec.Fixtures = append(exec.Fixtures, f)
	}
	if len(updated) > 0 {
		if err := s.fixtureRepo.UpdateMany(ctx, updated); err != nil {
			return err
		}
		s.touch(ctx, mapID)
	}

	if s.output == nil || !s.output.IsConnected() || len(all) == 0 {
		return nil
	}
	if _, err := s.output.SendFixtures(ctx, all); err != nil {
		s.log.WithError(err).Warn("failed to send cue to DMX")
		return nil
	}
	exec.Sent = true
	return nil
}
