package systems

import "github.com/pthm-cable/ecosim/telemetry"

// SystemInfo describes one tick phase for logs and metrics.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "core", "behavior")
}

// SystemRegistry holds metadata about all phases.
// This centralizes naming so the perf collector and metrics stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all tick phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.Register(SystemInfo{ID: telemetry.PhaseSpatial, Name: "Spatial Index", Description: "Rebuilds the neighbor lookup grid", Category: "core"})
	reg.Register(SystemInfo{ID: telemetry.PhaseEntities, Name: "Entities", Description: "Runs animal and plant state machines", Category: "behavior"})
	reg.Register(SystemInfo{ID: telemetry.PhaseFlocking, Name: "Flocking", Description: "Steers prey and integrates velocity", Category: "behavior"})
	reg.Register(SystemInfo{ID: telemetry.PhaseCleanup, Name: "Cleanup", Description: "Removes dead entities", Category: "core"})
	reg.Register(SystemInfo{ID: telemetry.PhaseSpawn, Name: "Spawn", Description: "Creates queued offspring", Category: "core"})
	reg.Register(SystemInfo{ID: telemetry.PhaseTelemetry, Name: "Telemetry", Description: "Records events and window stats", Category: "internal"})
	return reg
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
