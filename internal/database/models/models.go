// Package models contains the database model definitions.
// JSON-valued columns are stored as TEXT and decoded by the helpers in
// convert.go.
package models

import (
	"time"
)

// Map is one named stage layout with its own fixtures, presets and cues.
// Table: maps
type Map struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name"`
	MapOrder  int       `gorm:"column:map_order;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relations (loaded separately)
	Fixtures []Fixture `gorm:"foreignKey:MapID"`
	Presets  []Preset  `gorm:"foreignKey:MapID"`
	Cues     []Cue     `gorm:"foreignKey:MapID"`
}

func (Map) TableName() string { return "maps" }

// Fixture is a fixture placed on a map.
// Table: fixtures
type Fixture struct {
	ID             string  `gorm:"column:id;primaryKey"`
	MapID          string  `gorm:"column:map_id;index"`
	Name           string  `gorm:"column:name"`
	Interface      string  `gorm:"column:interface"`
	ChannelStart   int     `gorm:"column:channel_start;default:1"`
	ChannelEnd     int     `gorm:"column:channel_end;default:1"`
	PositionX      float64 `gorm:"column:position_x"`
	PositionY      float64 `gorm:"column:position_y"`
	Attributes     string  `gorm:"column:attributes"`       // JSON object name -> channel
	Values         string  `gorm:"column:attribute_values"` // JSON object name -> 0-100
	Visualizations string  `gorm:"column:visualizations"`   // JSON object name -> widget
	MapOrder       int     `gorm:"column:map_order;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Fixture) TableName() string { return "fixtures" }

// Preset is a fixture template saved on a map.
// Table: presets
type Preset struct {
	ID          string    `gorm:"column:id;primaryKey"`
	MapID       string    `gorm:"column:map_id;index"`
	PresetID    string    `gorm:"column:preset_id"` // ID shown to clients, unique per map
	Name        string    `gorm:"column:name"`
	FixtureData string    `gorm:"column:fixture_data"` // JSON fixture seed
	PresetOrder int       `gorm:"column:preset_order;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Preset) TableName() string { return "presets" }

// FixtureSnapshot is the captured state of one fixture inside a light cue.
type FixtureSnapshot struct {
	ID     string             `json:"id"`
	Values map[string]float64 `json:"values"`
}

// SoundRef describes the audio file attached to a sound cue. The audio
// bytes live in the sounds table.
type SoundRef struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified,omitempty"`
	Format       string `json:"format,omitempty"`
	DurationMs   int64  `json:"durationMs,omitempty"`
}

// Cue is one entry of a map's cue list.
// Table: cues
type Cue struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MapID     string    `gorm:"column:map_id;index"`
	Number    int       `gorm:"column:number"`
	Name      string    `gorm:"column:name"`
	Type      string    `gorm:"column:type"` // sound | light
	Color     string    `gorm:"column:color;default:#333333"`
	Action    string    `gorm:"column:action;default:stop"`
	SoundFile *string   `gorm:"column:sound_file"` // JSON SoundRef
	DMXState  *string   `gorm:"column:dmx_state"`  // JSON array of FixtureSnapshot
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cue) TableName() string { return "cues" }

// Sound holds the audio bytes of a sound cue.
// Table: sounds
type Sound struct {
	ID         string    `gorm:"column:id;primaryKey"`
	CueID      string    `gorm:"column:cue_id;uniqueIndex"`
	FileName   string    `gorm:"column:file_name"`
	MimeType   string    `gorm:"column:mime_type"`
	Format     string    `gorm:"column:format"`
	DurationMs int64     `gorm:"column:duration_ms"`
	Size       int64     `gorm:"column:size"`
	Data       []byte    `gorm:"column:data"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Sound) TableName() string { return "sounds" }

// Setting represents a system setting.
// Table: settings
type Setting struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Key       string    `gorm:"column:key;uniqueIndex"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Setting) TableName() string { return "settings" }

// All lists every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Map{},
		&Fixture{},
		&Preset{},
		&Cue{},
		&Sound{},
		&Setting{},
	}
}
