package repositories

import (
	"context"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
)

// FixtureRepository handles fixture data access.
type FixtureRepository struct {
	db *gorm.DB
}

// NewFixtureRepository creates a new FixtureRepository.
func NewFixtureRepository(db *gorm.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// FindByMapID returns all fixtures on a map in insertion order.
func (r *FixtureRepository) FindByMapID(ctx context.Context, mapID string) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	result := r.db.WithContext(ctx).
		Where("map_id = ?", mapID).
		Order("map_order ASC, created_at ASC").
		Find(&fixtures)
	return fixtures, result.Error
}

// FindByID returns a fixture by ID.
func (r *FixtureRepository) FindByID(ctx context.Context, id string) (*models.Fixture, error) {
	var fixture models.Fixture
	result := r.db.WithContext(ctx).First(&fixture, "id = ?", id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &fixture, nil
}

// FindByIDs returns the fixtures with the given IDs that belong to mapID.
func (r *FixtureRepository) FindByIDs(ctx context.Context, mapID string, ids []string) ([]models.Fixture, error) {
	var fixtures []models.Fixture
	if len(ids) == 0 {
		return fixtures, nil
	}
	result := r.db.WithContext(ctx).
		Where("map_id = ? AND id IN ?", mapID, ids).
		Order("map_order ASC").
		Find(&fixtures)
	return fixtures, result.Error
}

// Create creates a new fixture at the end of its map.
func (r *FixtureRepository) Create(ctx context.Context, fixture *models.Fixture) error {
	if fixture.ID == "" {
		fixture.ID = cuid.New()
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Fixture{}).Where("map_id = ?", fixture.MapID).Count(&count).Error; err != nil {
		return err
	}
	fixture.MapOrder = int(count)
	return r.db.WithContext(ctx).Create(fixture).Error
}

// Update updates an existing fixture.
func (r *FixtureRepository) Update(ctx context.Context, fixture *models.Fixture) error {
	return r.db.WithContext(ctx).Save(fixture).Error
}

// UpdateMany saves several fixtures in one transaction.
func (r *FixtureRepository) UpdateMany(ctx context.Context, fixtures []models.Fixture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range fixtures {
			if err := tx.Save(&fixtures[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a fixture by ID.
func (r *FixtureRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Fixture{}, "id = ?", id).Error
}

// DeleteByMapID removes every fixture on a map.
func (r *FixtureRepository) DeleteByMapID(ctx context.Context, mapID string) error {
	return r.db.WithContext(ctx).Where("map_id = ?", mapID).Delete(&models.Fixture{}).Error
}

// ReplaceForMap swaps all fixtures on a map for the given ones.
func (r *FixtureRepository) ReplaceForMap(ctx context.Context, mapID string, fixtures []models.Fixture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("map_id = ?", mapID).Delete(&models.Fixture{}).Error; err != nil {
			return err
		}
		for i := range fixtures {
			fixtures[i].MapID = mapID
			fixtures[i].MapOrder = i
			if fixtures[i].ID == "" {
				fixtures[i].ID = cuid.New()
			}
		}
		if len(fixtures) == 0 {
			return nil
		}
		return tx.Create(&fixtures).Error
	})
}
