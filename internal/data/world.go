package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Region is a static map area whose grid leaves are allocated at boot.
type Region struct {
	Name   string `yaml:"name"`
	StartX int32  `yaml:"start_x"`
	StartY int32  `yaml:"start_y"`
	EndX   int32  `yaml:"end_x"`
	EndY   int32  `yaml:"end_y"`
}

// SpawnEntry places one creature at boot.
type SpawnEntry struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // monster, npc, summon, player
	X           uint16 `yaml:"x"`
	Y           uint16 `yaml:"y"`
	Z           uint8  `yaml:"z"`
	WanderRange int32  `yaml:"wander_range"`
}

// WorldData is the parsed world file.
type WorldData struct {
	Regions []Region     `yaml:"regions"`
	Spawns  []SpawnEntry `yaml:"spawns"`
}

var validKinds = map[string]bool{"monster": true, "npc": true, "summon": true, "player": true}

// LoadWorld loads world.yaml.
func LoadWorld(path string) (*WorldData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file %s: %w", path, err)
	}
	w, err := ParseWorld(raw)
	if err != nil {
		return nil, fmt.Errorf("world file %s: %w", path, err)
	}
	return w, nil
}

// ParseWorld decodes and checks a world file.
func ParseWorld(raw []byte) (*WorldData, error) {
	var w WorldData
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}
	for i, r := range w.Regions {
		if r.StartX > r.EndX || r.StartY > r.EndY {
			return nil, fmt.Errorf("region %d (%s): start after end", i, r.Name)
		}
	}
	for i := range w.Spawns {
		s := &w.Spawns[i]
		if s.Kind == "" {
			s.Kind = "monster"
		}
		if !validKinds[s.Kind] {
			return nil, fmt.Errorf("spawn %d (%s): unknown kind %q", i, s.Name, s.Kind)
		}
		if s.Z >= 16 {
			return nil, fmt.Errorf("spawn %d (%s): layer %d out of range", i, s.Name, s.Z)
		}
		if s.WanderRange < 0 {
			return nil, fmt.Errorf("spawn %d (%s): negative wander range", i, s.Name)
		}
	}
	return &w, nil
}

// SpawnCount returns the number of spawn entries.
func (w *WorldData) SpawnCount() int { return len(w.Spawns) }
