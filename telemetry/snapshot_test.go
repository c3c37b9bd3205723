package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/ecosim/components"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:     SnapshotVersion,
		Seed:        42,
		ArenaWidth:  1280,
		ArenaHeight: 720,
		Areas: []AreaState{
			NewAreaState(components.Area{Center: components.Position{X: 100, Y: 200}, Width: 50, Height: 60, Tag: components.TagCovered}),
		},
		Tick:       1000,
		SimTimeSec: 100,
		Population: map[string]int{"rabbit": 1},
		Entities: []EntityState{{
			ID:       1,
			Kind:     "rabbit",
			State:    "walking",
			X:        150,
			Y:        250,
			Health:   0.75,
			Strategy: "forage_cover",
			Lifetime: &LifetimeStats{BirthTick: 100, Children: 2},
		}},
		Bookmark: &Bookmark{
			Type:        BookmarkPreyCrash,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "snapshot_1000_prey_crash.json"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Tick != 1000 || loaded.Seed != 42 {
		t.Errorf("header = tick %d seed %d, want 1000/42", loaded.Tick, loaded.Seed)
	}
	if len(loaded.Areas) != 1 || loaded.Areas[0].Tag != "covered" {
		t.Errorf("areas = %+v", loaded.Areas)
	}
	if len(loaded.Entities) != 1 {
		t.Fatalf("entities = %d, want 1", len(loaded.Entities))
	}
	e := loaded.Entities[0]
	if e.Kind != "rabbit" || e.Strategy != "forage_cover" || e.Lifetime == nil || e.Lifetime.Children != 2 {
		t.Errorf("entity = %+v", e)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkPreyCrash {
		t.Errorf("bookmark = %+v", loaded.Bookmark)
	}
}

func TestLoadSnapshotRejectsOtherVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
