// Package repositories provides data access layer implementations.
package repositories

import (
	"context"
	"time"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// MapRepository handles map data access.
type MapRepository struct {
	db *gorm.DB
}

// NewMapRepository creates a new MapRepository.
func NewMapRepository(db *gorm.DB) *MapRepository {
	return &MapRepository{db: db}
}

// FindAll returns all maps in display order.
func (r *MapRepository) FindAll(ctx context.Context) ([]models.Map, error) {
	var maps []models.Map
	result := r.db.WithContext(ctx).
		Order("map_order ASC, created_at ASC").
		Find(&maps)
	return maps, result.Error
}

// FindByID returns a map by ID.
func (r *MapRepository) FindByID(ctx context.Context, id string) (*models.Map, error) {
	var m models.Map
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &m, nil
}

// Create creates a new map. Maps are appended after the existing ones.
func (r *MapRepository) Create(ctx context.Context, m *models.Map) error {
	if m.ID == "" {
		m.ID = cuid.New()
	}
	if m.MapOrder == 0 {
		var orders []int
		if err := r.db.WithContext(ctx).Model(&models.Map{}).Pluck("map_order", &orders).Error; err != nil {
			return err
		}
		for _, o := range orders {
			if o >= m.MapOrder {
				m.MapOrder = o + 1
			}
		}
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// Update updates an existing map.
func (r *MapRepository) Update(ctx context.Context, m *models.Map) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Touch bumps the map's updated_at.
func (r *MapRepository) Touch(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Map{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}

// Delete deletes a map and everything it owns.
func (r *MapRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cue_id IN (?)", tx.Model(&models.Cue{}).Select("id").Where("map_id = ?", id)).
			Delete(&models.Sound{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&models.Cue{}, &models.Preset{}, &models.Fixture{}} {
			if err := tx.Where("map_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Map{}, "id = ?", id).Error
	})
}

// Count returns the number of maps.
func (r *MapRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Map{}).Count(&count)
	return count, result.Error
}

// CountFixtures returns the number of fixtures on a map.
func (r *MapRepository) CountFixtures(ctx context.Context, mapID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Fixture{}).
		Where("map_id = ?", mapID).
		Count(&count)
	return count, result.Error
}

// CountCues returns the number of cues on a map.
func (r *MapRepository) CountCues(ctx context.Context, mapID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Cue{}).
		Where("map_id = ?", mapID).
		Count(&count)
	return count, result.Error
}

// CreateWithContents creates a map together with its fixtures, presets and
// cues in one transaction. Child rows get the new map's ID.
func (r *MapRepository) CreateWithContents(ctx context.Context, m *models.Map) error {
	if m.ID == "" {
		m.ID = cuid.New()
	}
	fixtures, presets, cues := m.Fixtures, m.Presets, m.Cues
	m.Fixtures, m.Presets, m.Cues = nil, nil, nil
	defer func() { m.Fixtures, m.Presets, m.Cues = fixtures, presets, cues }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewMapRepository(tx).Create(ctx, m); err != nil {
			return err
		}
		return replaceContents(tx, m.ID, fixtures, presets, cues)
	})
}

// ReplaceContents swaps the map's fixtures, presets and cues for the given ones.
func (r *MapRepository) ReplaceContents(ctx context.Context, mapID string, fixtures []models.Fixture, presets []models.Preset, cues []models.Cue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cue_id IN (?)", tx.Model(&models.Cue{}).Select("id").Where("map_id = ?", mapID)).
			Delete(&models.Sound{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{&models.Cue{}, &models.Preset{}, &models.Fixture{}} {
			if err := tx.Where("map_id = ?", mapID).Delete(model).Error; err != nil {
				return err
			}
		}
		return replaceContents(tx, mapID, fixtures, presets, cues)
	})
}

func replaceContents(tx *gorm.DB, mapID string, fixtures []models.Fixture, presets []models.Preset, cues []models.Cue) error {
	for i := range fixtures {
		fixtures[i].MapID = mapID
		fixtures[i].MapOrder = i
		if fixtures[i].ID == "" {
			fixtures[i].ID = cuid.New()
		}
	}
	for i := range presets {
		presets[i].MapID = mapID
		presets[i].PresetOrder = i
		if presets[i].ID == "" {
			presets[i].ID = cuid.New()
		}
	}
	for i := range cues {
		cues[i].MapID = mapID
		if cues[i].ID == "" {
			cues[i].ID = cuid.New()
		}
	}
	if len(fixtures) > 0 {
		if err := tx.Create(&fixtures).Error; err != nil {
			return err
		}
	}
	if len(presets) > 0 {
		if err := tx.Create(&presets).Error; err != nil {
			return err
		}
	}
	if len(cues) > 0 {
		if err := tx.Create(&cues).Error; err != nil {
			return err
		}
	}
	return nil
}
