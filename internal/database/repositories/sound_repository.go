package repositories

import (
	"context"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SoundRepository stores the audio attached to sound cues.
type SoundRepository struct {
	db *gorm.DB
}

// NewSoundRepository creates a new SoundRepository.
func NewSoundRepository(db *gorm.DB) *SoundRepository {
	return &SoundRepository{db: db}
}

// FindByCueID returns the sound of a cue.
func (r *SoundRepository) FindByCueID(ctx context.Context, cueID string) (*models.Sound, error) {
	var sound models.Sound
	result := r.db.WithContext(ctx).First(&sound, "cue_id = ?", cueID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &sound, nil
}

// Save stores the sound, replacing any previous sound of the same cue.
func (r *SoundRepository) Save(ctx context.Context, sound *models.Sound) error {
	if sound.ID == "" {
		sound.ID = cuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cue_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_name", "mime_type", "format", "duration_ms", "size", "data"}),
	}).Create(sound).Error
}

// DeleteByCueID removes the sound of a cue.
func (r *SoundRepository) DeleteByCueID(ctx context.Context, cueID string) error {
	return r.db.WithContext(ctx).Where("cue_id = ?", cueID).Delete(&models.Sound{}).Error
}
