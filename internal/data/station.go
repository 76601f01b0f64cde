package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transitloop/sim/internal/geom"
)

// StationEntry defines one platform: where it sits on the loop and where
// passengers queue and leave.
type StationEntry struct {
	Name          string  `yaml:"name"`
	Fraction      float64 `yaml:"fraction"` // [0,1) along the loop
	WaitingPoints []Point `yaml:"waiting_points"`
	ExitPoints    []Point `yaml:"exit_points"`
}

func (e *StationEntry) WaitingVecs() []geom.Vec3 { return toVecs(e.WaitingPoints) }
func (e *StationEntry) ExitVecs() []geom.Vec3    { return toVecs(e.ExitPoints) }

// StationTable holds the configured stations in file order.
type StationTable struct {
	entries []StationEntry
	byName  map[string]*StationEntry
}

// LoadStationTable loads stations.yaml.
func LoadStationTable(path string) (*StationTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station list: %w", err)
	}
	var file struct {
		Stations []StationEntry `yaml:"stations"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse station list: %w", err)
	}
	return NewStationTable(file.Stations)
}

// NewStationTable indexes entries. Names must be unique and fractions must
// lie in [0,1).
func NewStationTable(entries []StationEntry) (*StationTable, error) {
	t := &StationTable{
		entries: entries,
		byName:  make(map[string]*StationEntry, len(entries)),
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.Fraction < 0 || e.Fraction >= 1 {
			return nil, fmt.Errorf("station %q: fraction %v out of [0,1)", e.Name, e.Fraction)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("station %q defined twice", e.Name)
		}
		t.byName[e.Name] = e
	}
	return t, nil
}

// Get returns the station with the given name, or nil if none.
func (t *StationTable) Get(name string) *StationEntry {
	return t.byName[name]
}

// All returns the entries in file order. The slice is owned by the table.
func (t *StationTable) All() []StationEntry {
	return t.entries
}

// Count returns the total number of stations loaded.
func (t *StationTable) Count() int {
	return len(t.entries)
}
