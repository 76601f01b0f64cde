package track

import (
	"sort"

	"github.com/transitloop/sim/internal/core/ecs"
	"github.com/transitloop/sim/internal/geom"
)

// Snapshot is a read-only view of the loop and its ordered stations.
// Consumers re-fetch it every tick and never mutate it.
type Snapshot struct {
	Source    Source
	Length    float64
	Stations  []ecs.EntityID
	Fractions []float64
	Revision  uint64
}

// Valid reports whether the snapshot can drive movement: a source with
// positive length and at least two stations.
func (s *Snapshot) Valid() bool {
	return s != nil && s.Source != nil && s.Length > 0 && len(s.Stations) >= 2
}

// Sample forwards to the source.
func (s *Snapshot) Sample(fraction float64) (geom.Vec3, geom.Vec3) {
	return s.Source.Sample(fraction)
}

type stationEntry struct {
	id       ecs.EntityID
	fraction float64
}

// Cache rebuilds the snapshot lazily after Invalidate.
type Cache struct {
	source   Source
	stations []stationEntry
	dirty    bool
	snap     *Snapshot
}

func NewCache(src Source) *Cache {
	return &Cache{source: src, dirty: true, snap: &Snapshot{}}
}

// Source returns the geometry provider, which may be nil.
func (c *Cache) Source() Source { return c.source }

// Register adds or moves a station.
func (c *Cache) Register(id ecs.EntityID, fraction float64) {
	fraction = geom.WrapFraction(fraction)
	for i := range c.stations {
		if c.stations[i].id == id {
			c.stations[i].fraction = fraction
			c.dirty = true
			return
		}
	}
	c.stations = append(c.stations, stationEntry{id: id, fraction: fraction})
	c.dirty = true
}

func (c *Cache) Invalidate() { c.dirty = true }

// Snapshot returns the current snapshot, rebuilding it first when dirty.
// Snapshots handed out earlier are left untouched by a rebuild.
func (c *Cache) Snapshot() *Snapshot {
	if !c.dirty {
		return c.snap
	}
	sorted := make([]stationEntry, len(c.stations))
	copy(sorted, c.stations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].fraction < sorted[j].fraction })

	next := &Snapshot{
		Source:    c.source,
		Stations:  make([]ecs.EntityID, len(sorted)),
		Fractions: make([]float64, len(sorted)),
		Revision:  c.snap.Revision + 1,
	}
	if c.source != nil {
		next.Length = c.source.Length()
	}
	for i, e := range sorted {
		next.Stations[i] = e.id
		next.Fractions[i] = e.fraction
	}
	c.snap = next
	c.dirty = false
	return next
}
