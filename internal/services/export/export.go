// Package export provides map backup and restore in the JSON formats used by
// the web client.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucsky/cuid"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/fixture"
	"github.com/bbernstein/qlove-go/internal/logger"
	"github.com/bbernstein/qlove-go/internal/services/maps"
	"github.com/bbernstein/qlove-go/internal/services/presets"
)

// Export document types.
const (
	TypeSingleMap = "qlove-single-map"
	TypeAllMaps   = "qlove-all-maps"

	FormatVersion = 2

	// DefaultConfigurationName names a loaded configuration without a name.
	DefaultConfigurationName = "Configuración cargada"
)

var (
	// ErrUnknownFormat is returned for documents of an unknown type.
	ErrUnknownFormat = errors.New("formato de archivo no reconocido")
	// ErrInvalidDocument is returned for documents that do not parse.
	ErrInvalidDocument = errors.New("formato inválido")
)

// ExportedCue is a cue in export form. SoundData carries the audio bytes so
// a backup is complete; documents without it import fine.
type ExportedCue struct {
	ID        string                   `json:"id"`
	Number    int                      `json:"number"`
	Name      string                   `json:"name"`
	Type      string                   `json:"type"`
	Color     string                   `json:"color,omitempty"`
	Action    string                   `json:"action,omitempty"`
	SoundFile *models.SoundRef         `json:"soundFile,omitempty"`
	SoundData []byte                   `json:"soundData,omitempty"`
	DMXState  []models.FixtureSnapshot `json:"dmxState,omitempty"`
}

// ExportedMap is one map in export form.
type ExportedMap struct {
	Name     string           `json:"name"`
	Fixtures []fixture.Data   `json:"fixtures"`
	Presets  []presets.Preset `json:"presets"`
	Cues     []ExportedCue    `json:"cues"`
}

// Document is a single-map or all-maps export.
type Document struct {
	Type       string        `json:"type"`
	Version    int           `json:"version"`
	Map        *ExportedMap  `json:"map,omitempty"`
	Maps       []ExportedMap `json:"maps,omitempty"`
	ExportedAt string        `json:"exportedAt"`
}

// Configuration is the legacy fixtures-only export.
type Configuration struct {
	Name       string         `json:"name"`
	Fixtures   []fixture.Data `json:"fixtures"`
	ExportedAt string         `json:"exportedAt,omitempty"`
}

// ImportStats reports what an import created.
type ImportStats struct {
	MapIDs        []string `json:"mapIds"`
	FixturesCount int      `json:"fixturesCount"`
	PresetsCount  int      `json:"presetsCount"`
	CuesCount     int      `json:"cuesCount"`
}

// ToJSON serializes the document with two-space indentation.
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ParseDocument parses an export document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Service implements export and import on top of the map service.
type Service struct {
	maps *maps.Service
	log  *logger.Log
	now  func() time.Time
}

// NewService creates an export service.
func NewService(mapService *maps.Service, log *logger.Log) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{maps: mapService, log: log.Module("export"), now: time.Now}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// ExportMap exports one map with its presets, cues and sounds.
func (s *Service) ExportMap(ctx context.Context, mapID string) (*Document, error) {
	m, err := s.exportMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return &Document{Type: TypeSingleMap, Version: FormatVersion, Map: m, ExportedAt: s.timestamp()}, nil
}

// ExportAllMaps exports every map in display order.
func (s *Service) ExportAllMaps(ctx context.Context) (*Document, error) {
	list, err := s.maps.ListMaps(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{Type: TypeAllMaps, Version: FormatVersion, Maps: []ExportedMap{}, ExportedAt: s.timestamp()}
	for _, info := range list {
		m, err := s.exportMap(ctx, info.ID)
		if err != nil {
			return nil, err
		}
		doc.Maps = append(doc.Maps, *m)
	}
	return doc, nil
}

func (s *Service) exportMap(ctx context.Context, mapID string) (*ExportedMap, error) {
	c, err := s.maps.Contents(ctx, mapID)
	if err != nil {
		return nil, err
	}
	fs, err := models.DomainFixtures(c.Map.Fixtures)
	if err != nil {
		return nil, err
	}

	// Presets follow the map's effective list, catalog included.
	ps, err := s.maps.Presets(ctx, mapID)
	if err != nil {
		return nil, err
	}

	sounds := make(map[string][]byte, len(c.Sounds))
	for _, snd := range c.Sounds {
		sounds[snd.CueID] = snd.Data
	}

	out := &ExportedMap{
		Name:     c.Map.Name,
		Fixtures: fixture.ToData(fs),
		Presets:  ps,
		Cues:     make([]ExportedCue, 0, len(c.Map.Cues)),
	}
	for i := range c.Map.Cues {
		row := &c.Map.Cues[i]
		snaps, err := row.Snapshots()
		if err != nil {
			return nil, err
		}
		ref, err := row.Sound()
		if err != nil {
			return nil, err
		}
		out.Cues = append(out.Cues, ExportedCue{
			ID:        row.ID,
			Number:    row.Number,
			Name:      row.Name,
			Type:      row.Type,
			Color:     row.Color,
			Action:    row.Action,
			SoundFile: ref,
			SoundData: sounds[row.ID],
			DMXState:  snaps,
		})
	}
	return out, nil
}

// ExportConfiguration exports a map's fixtures in the legacy format.
func (s *Service) ExportConfiguration(ctx context.Context, mapID string) (*Configuration, error) {
	info, err := s.maps.Map(ctx, mapID)
	if err != nil {
		return nil, err
	}
	fs, err := s.maps.Fixtures(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return &Configuration{Name: info.Name, Fixtures: fixture.ToData(fs), ExportedAt: s.timestamp()}, nil
}

// ImportMaps imports an export document. A single map is added as a new
// active map, or replaces the active map when replaceActive is set. An
// all-maps document replaces every map.
func (s *Service) ImportMaps(ctx context.Context, data []byte, replaceActive bool) (*ImportStats, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	switch doc.Type {
	case TypeSingleMap:
		if doc.Map == nil {
			return nil, fmt.Errorf("%w: missing map", ErrInvalidDocument)
		}
		c, stats, err := toContents(doc.Map)
		if err != nil {
			return nil, err
		}
		if replaceActive {
			activeID, err := s.maps.ActiveMapID(ctx)
			if err != nil {
				return nil, err
			}
			if err := s.maps.ReplaceContents(ctx, activeID, c); err != nil {
				return nil, err
			}
			stats.MapIDs = []string{activeID}
		} else {
			id, err := s.maps.SaveNew(ctx, c)
			if err != nil {
				return nil, err
			}
			if err := s.maps.SwitchMap(ctx, id); err != nil {
				return nil, err
			}
			stats.MapIDs = []string{id}
		}
		s.log.WithField("map", doc.Map.Name).Info("Map imported")
		return stats, nil

	case TypeAllMaps:
		if len(doc.Maps) == 0 {
			return nil, fmt.Errorf("%w: no maps", ErrInvalidDocument)
		}
		total := &ImportStats{}
		all := make([]*maps.Contents, 0, len(doc.Maps))
		for i := range doc.Maps {
			c, stats, err := toContents(&doc.Maps[i])
			if err != nil {
				return nil, err
			}
			all = append(all, c)
			total.FixturesCount += stats.FixturesCount
			total.PresetsCount += stats.PresetsCount
			total.CuesCount += stats.CuesCount
		}
		ids, err := s.maps.ReplaceAll(ctx, all)
		if err != nil {
			return nil, err
		}
		total.MapIDs = ids
		return total, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, doc.Type)
	}
}

// toContents converts an exported map into unsaved contents with fresh IDs.
func toContents(m *ExportedMap) (*maps.Contents, *ImportStats, error) {
	row := &models.Map{Name: m.Name}
	c := &maps.Contents{Map: row}

	for _, d := range m.Fixtures {
		f := fixture.New(d)
		fr, err := models.NewFixture("", 0, f)
		if err != nil {
			return nil, nil, err
		}
		row.Fixtures = append(row.Fixtures, *fr)
	}
	for _, p := range m.Presets {
		pr := models.Preset{PresetID: p.ID, Name: p.Name}
		if err := pr.SetFixtureData(p.FixtureData); err != nil {
			return nil, nil, err
		}
		row.Presets = append(row.Presets, pr)
	}
	for i, ec := range m.Cues {
		cue := models.Cue{
			ID:     ec.ID,
			Number: ec.Number,
			Name:   ec.Name,
			Type:   ec.Type,
			Color:  ec.Color,
			Action: ec.Action,
		}
		if cue.ID == "" {
			cue.ID = cuid.New()
		}
		if cue.Number == 0 {
			cue.Number = i + 1
		}
		if err := cue.SetSnapshots(ec.DMXState); err != nil {
			return nil, nil, err
		}
		if err := cue.SetSound(ec.SoundFile); err != nil {
			return nil, nil, err
		}
		row.Cues = append(row.Cues, cue)

		if len(ec.SoundData) > 0 {
			snd := models.Sound{CueID: cue.ID, Data: ec.SoundData, Size: int64(len(ec.SoundData))}
			if ec.SoundFile != nil {
				snd.FileName = ec.SoundFile.Name
				snd.MimeType = ec.SoundFile.Type
				snd.Format = ec.SoundFile.Format
				snd.DurationMs = ec.SoundFile.DurationMs
			}
			c.Sounds = append(c.Sounds, snd)
		}
	}

	fresh, err := c.Copy()
	if err != nil {
		return nil, nil, err
	}
	stats := &ImportStats{
		FixturesCount: len(row.Fixtures),
		PresetsCount:  len(row.Presets),
		CuesCount:     len(row.Cues),
	}
	return fresh, stats, nil
}

// LoadConfiguration replaces the active map's fixtures and name with a
// legacy configuration.
func (s *Service) LoadConfiguration(ctx context.Context, data []byte) (*ImportStats, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if cfg.Fixtures == nil {
		return nil, fmt.Errorf("%w: missing fixtures", ErrInvalidDocument)
	}
	name := cfg.Name
	if name == "" {
		name = DefaultConfigurationName
	}

	activeID, err := s.maps.ActiveMapID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.maps.ReplaceFixtures(ctx, activeID, fixture.FromData(cfg.Fixtures)); err != nil {
		return nil, err
	}
	if _, err := s.maps.RenameMap(ctx, activeID, name); err != nil {
		return nil, err
	}
	return &ImportStats{MapIDs: []string{activeID}, FixturesCount: len(cfg.Fixtures)}, nil
}
