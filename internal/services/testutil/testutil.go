// Package testutil provides shared test utilities for service tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/bbernstein/qlove-go/internal/database/repositories"
)

// TestDB holds the test database and repositories.
type TestDB struct {
	DB          *gorm.DB
	MapRepo     *repositories.MapRepository
	FixtureRepo *repositories.FixtureRepository
	PresetRepo  *repositories.PresetRepository
	CueRepo     *repositories.CueRepository
	SoundRepo   *repositories.SoundRepository
	SettingRepo *repositories.SettingRepository
}

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is closed when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return &TestDB{
		DB:          db,
		MapRepo:     repositories.NewMapRepository(db),
		FixtureRepo: repositories.NewFixtureRepository(db),
		PresetRepo:  repositories.NewPresetRepository(db),
		CueRepo:     repositories.NewCueRepository(db),
		SoundRepo:   repositories.NewSoundRepository(db),
		SettingRepo: repositories.NewSettingRepository(db),
	}
}

// UniqueName generates a unique name for testing.
func UniqueName(prefix string) string {
	return prefix + "-" + cuid.New()[:8]
}
