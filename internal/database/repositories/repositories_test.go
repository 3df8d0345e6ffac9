package repositories

import (
	"context"
	"testing"

	"github.com/bbernstein/qlove-go/internal/database/models"
	"github.com/glebarez/sqlite"
	"github.com/lucsky/cuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB holds the test database.
type testDB struct {
	DB *gorm.DB
}

// setupTestDB creates an in-memory SQLite database for testing repositories.
func setupTestDB(t *testing.T) (*testDB, func()) {
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
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}

	return &testDB{DB: db}, cleanup
}

func createMap(t *testing.T, db *gorm.DB, name string) *models.Map {
	t.Helper()
	m := &models.Map{Name: name}
	if err := NewMapRepository(db).Create(context.Background(), m); err != nil {
		t.Fatalf("Create map failed: %v", err)
	}
	return m
}

func TestMapRepository_CRUD(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMapRepository(testDB.DB)
	ctx := context.Background()

	m := &models.Map{Name: "Mapa " + cuid.Slug()}
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID == "" {
		t.Error("Expected map ID to be set after Create")
	}

	found, err := repo.FindByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found == nil || found.Name != m.Name {
		t.Fatalf("FindByID returned %+v", found)
	}

	found.Name = "Renombrado"
	if err := repo.Update(ctx, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	found, _ = repo.FindByID(ctx, m.ID)
	if found.Name != "Renombrado" {
		t.Errorf("Name = %q after Update", found.Name)
	}

	if err := repo.Touch(ctx, m.ID); err != nil {
		t.Errorf("Touch failed: %v", err)
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	found, err = repo.FindByID(ctx, m.ID)
	if err != nil || found != nil {
		t.Errorf("Expected nil after Delete, got %+v, %v", found, err)
	}
}

func TestMapRepository_FindByID_NotFound(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := NewMapRepository(testDB.DB).FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found != nil {
		t.Errorf("Expected nil, got %+v", found)
	}
}

func TestMapRepository_OrderAndCount(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMapRepository(testDB.DB)
	ctx := context.Background()

	a := createMap(t, testDB.DB, "A")
	b := createMap(t, testDB.DB, "B")
	c := createMap(t, testDB.DB, "C")
	if !(a.MapOrder < b.MapOrder && b.MapOrder < c.MapOrder) {
		t.Errorf("orders not increasing: %d %d %d", a.MapOrder, b.MapOrder, c.MapOrder)
	}

	maps, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(maps) != 3 || maps[0].Name != "A" || maps[2].Name != "C" {
		t.Errorf("FindAll order wrong: %+v", maps)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("Count = %d, %v", count, err)
	}
}

func TestMapRepository_ContentsLifecycle(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMapRepository(testDB.DB)
	ctx := context.Background()

	m := &models.Map{
		Name:     "Con contenido",
		Fixtures: []models.Fixture{{Name: "F1", Attributes: `{"Dimmer":1}`}, {Name: "F2"}},
		Presets:  []models.Preset{{PresetID: "p1", Name: "P1"}},
		Cues:     []models.Cue{{Number: 1, Name: "Q1", Type: "light"}},
	}
	if err := repo.CreateWithContents(ctx, m); err != nil {
		t.Fatalf("CreateWithContents failed: %v", err)
	}
	if len(m.Fixtures) != 2 {
		t.Errorf("children should be restored on the model, got %d fixtures", len(m.Fixtures))
	}

	fixtures, _ := NewFixtureRepository(testDB.DB).FindByMapID(ctx, m.ID)
	if len(fixtures) != 2 || fixtures[0].Name != "F1" || fixtures[1].MapOrder != 1 {
		t.Errorf("fixtures = %+v", fixtures)
	}
	if n, _ := repo.CountFixtures(ctx, m.ID); n != 2 {
		t.Errorf("CountFixtures = %d", n)
	}
	if n, _ := repo.CountCues(ctx, m.ID); n != 1 {
		t.Errorf("CountCues = %d", n)
	}

	cues, _ := NewCueRepository(testDB.DB).FindByMapID(ctx, m.ID)
	if err := NewSoundRepository(testDB.DB).Save(ctx, &models.Sound{CueID: cues[0].ID, FileName: "a.wav"}); err != nil {
		t.Fatalf("Save sound failed: %v", err)
	}

	err := repo.ReplaceContents(ctx, m.ID, []models.Fixture{{Name: "NEW"}}, nil, nil)
	if err != nil {
		t.Fatalf("ReplaceContents failed: %v", err)
	}
	fixtures, _ = NewFixtureRepository(testDB.DB).FindByMapID(ctx, m.ID)
	if len(fixtures) != 1 || fixtures[0].Name != "NEW" {
		t.Errorf("fixtures after replace = %+v", fixtures)
	}
	if sound, _ := NewSoundRepository(testDB.DB).FindByCueID(ctx, cues[0].ID); sound != nil {
		t.Error("sound should be removed with its cue")
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := repo.CountFixtures(ctx, m.ID); n != 0 {
		t.Errorf("fixtures left after Delete: %d", n)
	}
}

func TestFixtureRepository_CRUD(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	m := createMap(t, testDB.DB, "Mapa")
	repo := NewFixtureRepository(testDB.DB)
	ctx := context.Background()

	f1 := &models.Fixture{MapID: m.ID, Name: "F1"}
	f2 := &models.Fixture{MapID: m.ID, Name: "F2"}
	if err := repo.Create(ctx, f1); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, f2); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if f2.MapOrder != 1 {
		t.Errorf("MapOrder = %d, want 1", f2.MapOrder)
	}

	found, err := repo.FindByID(ctx, f1.ID)
	if err != nil || found == nil || found.Name != "F1" {
		t.Fatalf("FindByID = %+v, %v", found, err)
	}

	found.Name = "F1b"
	if err := repo.Update(ctx, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	some, err := repo.FindByIDs(ctx, m.ID, []string{f1.ID, "other"})
	if err != nil || len(some) != 1 || some[0].Name != "F1b" {
		t.Errorf("FindByIDs = %+v, %v", some, err)
	}
	none, err := repo.FindByIDs(ctx, m.ID, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("FindByIDs(nil) = %+v, %v", none, err)
	}

	some[0].PositionX = 42
	if err := repo.UpdateMany(ctx, some); err != nil {
		t.Fatalf("UpdateMany failed: %v", err)
	}
	found, _ = repo.FindByID(ctx, f1.ID)
	if found.PositionX != 42 {
		t.Errorf("PositionX = %v", found.PositionX)
	}

	if err := repo.Delete(ctx, f1.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if found, _ := repo.FindByID(ctx, f1.ID); found != nil {
		t.Error("expected fixture to be deleted")
	}

	if err := repo.DeleteByMapID(ctx, m.ID); err != nil {
		t.Fatalf("DeleteByMapID failed: %v", err)
	}
	all, _ := repo.FindByMapID(ctx, m.ID)
	if len(all) != 0 {
		t.Errorf("expected no fixtures, got %d", len(all))
	}
}

func TestFixtureRepository_ReplaceForMap(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	m := createMap(t, testDB.DB, "Mapa")
	other := createMap(t, testDB.DB, "Otro")
	repo := NewFixtureRepository(testDB.DB)
	ctx := context.Background()

	_ = repo.Create(ctx, &models.Fixture{MapID: m.ID, Name: "OLD"})
	_ = repo.Create(ctx, &models.Fixture{MapID: other.ID, Name: "KEEP"})

	if err := repo.ReplaceForMap(ctx, m.ID, []models.Fixture{{Name: "A"}, {Name: "B"}}); err != nil {
		t.Fatalf("ReplaceForMap failed: %v", err)
	}
	got, _ := repo.FindByMapID(ctx, m.ID)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Errorf("fixtures = %+v", got)
	}
	kept, _ := repo.FindByMapID(ctx, other.ID)
	if len(kept) != 1 {
		t.Errorf("other map touched: %+v", kept)
	}

	if err := repo.ReplaceForMap(ctx, m.ID, nil); err != nil {
		t.Fatalf("ReplaceForMap(nil) failed: %v", err)
	}
	got, _ = repo.FindByMapID(ctx, m.ID)
	if len(got) != 0 {
		t.Errorf("expected empty map, got %d", len(got))
	}
}

func TestPresetRepository(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	a := createMap(t, testDB.DB, "A")
	b := createMap(t, testDB.DB, "B")
	repo := NewPresetRepository(testDB.DB)
	ctx := context.Background()

	// The same preset ID may exist on several maps.
	for _, m := range []*models.Map{a, b} {
		err := repo.ReplaceForMap(ctx, m.ID, []models.Preset{
			{PresetID: "preset-frontal", Name: "FRONTAL"},
			{PresetID: "preset-pc", Name: "PC"},
		})
		if err != nil {
			t.Fatalf("ReplaceForMap failed: %v", err)
		}
	}

	got, err := repo.FindByMapID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByMapID failed: %v", err)
	}
	if len(got) != 2 || got[0].PresetID != "preset-frontal" || got[1].PresetOrder != 1 {
		t.Errorf("presets = %+v", got)
	}
}

func TestCueRepository_CRUD(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	m := createMap(t, testDB.DB, "Mapa")
	repo := NewCueRepository(testDB.DB)
	ctx := context.Background()

	q1 := &models.Cue{MapID: m.ID, Number: 1, Name: "Q1", Type: "light"}
	q2 := &models.Cue{MapID: m.ID, Number: 2, Name: "Q2", Type: "sound"}
	for _, q := range []*models.Cue{q1, q2} {
		if err := repo.Create(ctx, q); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	found, err := repo.FindByID(ctx, q1.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID = %+v, %v", found, err)
	}
	if found.Color != "#333333" || found.Action != "stop" {
		t.Errorf("defaults not applied: color=%q action=%q", found.Color, found.Action)
	}

	if err := repo.Renumber(ctx, []string{q2.ID, q1.ID}); err != nil {
		t.Fatalf("Renumber failed: %v", err)
	}
	cues, _ := repo.FindByMapID(ctx, m.ID)
	if len(cues) != 2 || cues[0].ID != q2.ID || cues[0].Number != 1 {
		t.Errorf("cues after renumber = %+v", cues)
	}

	found.Name = "Intro"
	if err := repo.Update(ctx, found); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := repo.Delete(ctx, q1.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if found, _ := repo.FindByID(ctx, q1.ID); found != nil {
		t.Error("expected cue to be deleted")
	}
}

func TestSoundRepository(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSoundRepository(testDB.DB)
	ctx := context.Background()

	if s, err := repo.FindByCueID(ctx, "cue-1"); err != nil || s != nil {
		t.Fatalf("FindByCueID on empty table = %+v, %v", s, err)
	}

	if err := repo.Save(ctx, &models.Sound{CueID: "cue-1", FileName: "a.wav", Data: []byte{1, 2}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, &models.Sound{CueID: "cue-1", FileName: "b.mp3", Data: []byte{3}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	s, err := repo.FindByCueID(ctx, "cue-1")
	if err != nil || s == nil {
		t.Fatalf("FindByCueID = %+v, %v", s, err)
	}
	if s.FileName != "b.mp3" || len(s.Data) != 1 {
		t.Errorf("sound not replaced: %+v", s)
	}

	if err := repo.DeleteByCueID(ctx, "cue-1"); err != nil {
		t.Fatalf("DeleteByCueID failed: %v", err)
	}
	if s, _ := repo.FindByCueID(ctx, "cue-1"); s != nil {
		t.Error("expected sound to be deleted")
	}
}

func TestSettingRepository_CRUD(t *testing.T) {
	testDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingRepository(testDB.DB)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, SettingActiveMapID); err != nil || ok {
		t.Fatalf("Get on empty table: ok=%v err=%v", ok, err)
	}

	if err := repo.Upsert(ctx, SettingActiveMapID, "map-1"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, SettingActiveMapID, "map-2"); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	v, ok, err := repo.Get(ctx, SettingActiveMapID)
	if err != nil || !ok || v != "map-2" {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("FindAll = %+v, %v", all, err)
	}

	if err := repo.Delete(ctx, SettingActiveMapID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if s, _ := repo.FindByKey(ctx, SettingActiveMapID); s != nil {
		t.Error("expected setting to be deleted")
	}
}
