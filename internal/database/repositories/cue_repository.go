package repositories

import (
	"context"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// CueRepository handles cue data access.
type CueRepository struct {
	db *gorm.DB
}

// NewCueRepository creates a new CueRepository.
func NewCueRepository(db *gorm.DB) *CueRepository {
	return &CueRepository{db: db}
}

// FindByMapID returns a map's cues ordered by number.
func (r *CueRepository) FindByMapID(ctx context.Context, mapID string) ([]models.Cue, error) {
	var cues []models.Cue
	result := r.db.WithContext(ctx).
		Where("map_id = ?", mapID).
		Order("number ASC").
		Find(&cues)
	return cues, result.Error
}

// FindByID returns a cue by ID.
func (r *CueRepository) FindByID(ctx context.Context, id string) (*models.Cue, error) {
	var cue models.Cue
	result := r.db.WithContext(ctx).First(&cue, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cue, nil
}

// Create creates a new cue.
func (r *CueRepository) Create(ctx context.Context, cue *models.Cue) error {
	if cue.ID == "" {
		cue.ID = cuid.New()
	}
	return r.db.WithContext(ctx).Create(cue).Error
}

// Update updates an existing cue.
func (r *CueRepository) Update(ctx context.Context, cue *models.Cue) error {
	return r.db.WithContext(ctx).Save(cue).Error
}

// Delete deletes a cue and its sound.
func (r *CueRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cue_id = ?", id).Delete(&models.Sound{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cue{}, "id = ?", id).Error
	})
}

// Renumber assigns numbers 1..n following the order of ids.
func (r *CueRepository) Renumber(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.Cue{}).Where("id = ?", id).Update("number", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
