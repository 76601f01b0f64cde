package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transitloop/sim/internal/geom"
)

// Point is a YAML coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (p Point) Vec() geom.Vec3 { return geom.V(p.X, p.Y, p.Z) }

func toVecs(points []Point) []geom.Vec3 {
	out := make([]geom.Vec3, len(points))
	for i, p := range points {
		out[i] = p.Vec()
	}
	return out
}

// TrackLayout is the control polyline of the loop.
type TrackLayout struct {
	Name   string  `yaml:"name"`
	Points []Point `yaml:"points"`
}

// Vecs returns the control points as vectors.
func (t *TrackLayout) Vecs() []geom.Vec3 { return toVecs(t.Points) }

// LoadTrackLayout loads track.yaml.
func LoadTrackLayout(path string) (*TrackLayout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track layout: %w", err)
	}
	var t TrackLayout
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse track layout: %w", err)
	}
	if len(t.Points) < 3 {
		return nil, fmt.Errorf("track layout %s: need at least 3 points, have %d", path, len(t.Points))
	}
	return &t, nil
}
