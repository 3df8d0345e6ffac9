package repositories

import (
	"context"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// PresetRepository handles map preset data access.
type PresetRepository struct {
	db *gorm.DB
}

// NewPresetRepository creates a new PresetRepository.
func NewPresetRepository(db *gorm.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

// FindByMapID returns a map's presets in display order.
func (r *PresetRepository) FindByMapID(ctx context.Context, mapID string) ([]models.Preset, error) {
	var presets []models.Preset
	result := r.db.WithContext(ctx).
		Where("map_id = ?", mapID).
		Order("preset_order ASC").
		Find(&presets)
	return presets, result.Error
}

// ReplaceForMap swaps all presets on a map for the given ones.
func (r *PresetRepository) ReplaceForMap(ctx context.Context, mapID string, presets []models.Preset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("map_id = ?", mapID).Delete(&models.Preset{}).Error; err != nil {
			return err
		}
		for i := range presets {
			presets[i].MapID = mapID
			presets[i].PresetOrder = i
			presets[i].ID = cuid.New()
		}
		if len(presets) == 0 {
			return nil
		}
		return tx.Create(&presets).Error
	})
}
