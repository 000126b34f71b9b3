// Package geometry wraps the underlying geometry engine behind an
// engine-agnostic interface so the classifier and aggregator never touch
// the engine directly.
package geometry

import (
	"github.com/twpayne/go-geom"

	"github.com/basinworks/roaddensity/internal/model"
)

// Engine is the set of geometry operations the pipeline needs. All methods
// are pure functions over geometry values; implementations may hold
// internal state (a native engine handle) and are therefore not required
// to be safe for concurrent use. Use a Factory to mint one Engine per
// goroutine.
type Engine interface {
	// Buffer returns the region within distance of g. The distance must be
	// positive; zero-distance classification is short-circuited by the
	// caller.
	Buffer(g geom.T, distance float64) (geom.T, error)

	// Union merges polygons into one composite region. Returns nil for an
	// empty input.
	Union(gs []geom.T) (geom.T, error)

	// Clip returns the portion of line inside polygon, possibly several
	// disjoint pieces in one composite geometry. Returns nil (not an
	// error) when there is no overlap or polygon is nil.
	Clip(line, polygon geom.T) (geom.T, error)

	// Intersects reports whether a and b share any point.
	Intersects(a, b geom.T) (bool, error)

	// Length returns the length of g in the linear unit of the active CRS.
	Length(g geom.T) (float64, error)

	// Area returns the area of g in the squared linear unit of the active CRS.
	Area(g geom.T) (float64, error)
}

// Factory creates an Engine bound to the canonical CRS of a run. The
// aggregator calls it once per worker because native engines are not
// safely shared across goroutines.
type Factory func(crs model.CRS) (Engine, error)

// isEmpty reports whether g carries no coordinates at all.
func isEmpty(g geom.T) bool {
	return g == nil || len(g.FlatCoords()) == 0
}
