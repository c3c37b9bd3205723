package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/ecosim/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the observable simulation state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	ArenaWidth  float64 `json:"arena_width"`
	ArenaHeight float64 `json:"arena_height"`

	Areas []AreaState `json:"areas"`

	Tick       int32   `json:"tick"`
	SimTimeSec float64 `json:"sim_time"`

	Population map[string]int `json:"population"`
	Entities   []EntityState  `json:"entities"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AreaState describes one Area.
type AreaState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tag    string  `json:"tag"`
}

// NewAreaState converts an Area for serialization.
func NewAreaState(a components.Area) AreaState {
	return AreaState{X: a.Center.X, Y: a.Center.Y, Width: a.Width, Height: a.Height, Tag: a.Tag.String()}
}

// EntityState holds what a renderer needs to draw one entity.
type EntityState struct {
	ID     uint32  `json:"id" inspect:"label"`
	Kind   string  `json:"kind" inspect:"label"`
	State  string  `json:"state" inspect:"label"`
	X      float64 `json:"x" inspect:"label,fmt:%.1f"`
	Y      float64 `json:"y" inspect:"label,fmt:%.1f"`
	VelX   float64 `json:"vel_x,omitempty" inspect:"label,fmt:%.1f"`
	VelY   float64 `json:"vel_y,omitempty" inspect:"label,fmt:%.1f"`
	Health float64 `json:"health" inspect:"bar"` // fraction of initial

	// Animals only
	Target   uint32 `json:"target,omitempty" inspect:"label"`
	Strategy string `json:"strategy,omitempty" inspect:"label"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty" inspect:"skip"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
