// Package model holds the domain records shared across the road-density
// pipeline: input features, classified roads, and per-watershed results.
package model

import "github.com/twpayne/go-geom"

// CRS describes the coordinate reference system of a feature source,
// as read from its .prj sidecar.
type CRS struct {
	// WKT is the raw well-known-text definition. Empty when the source has
	// no .prj file.
	WKT string
	// Geographic is true for angular (lat/lon) systems. Linear measurement
	// is meaningless in such a system, so the geometry engine refuses
	// length, area, and buffer operations under one.
	Geographic bool
}

// Equal compares two CRS definitions by normalized WKT.
func (c CRS) Equal(other CRS) bool {
	return normalizeWKT(c.WKT) == normalizeWKT(other.WKT)
}

func normalizeWKT(wkt string) string {
	out := make([]rune, 0, len(wkt))
	for _, r := range wkt {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Watershed is the unit of aggregation: one drainage-basin polygon with a
// caller-selected unique identifier.
type Watershed struct {
	ID   string
	Geom geom.T
}

// RoadCategory distinguishes current infrastructure from planned.
type RoadCategory string

const (
	RoadExisting RoadCategory = "existing"
	RoadProposed RoadCategory = "proposed"
)

// StreamSegment is a stream centerline. Attributes beyond the geometry are
// not used by the computation.
type StreamSegment struct {
	Geom geom.T
}

// RoadSegment is a road centerline tagged with its category at load time.
type RoadSegment struct {
	Category RoadCategory
	Geom     geom.T
}

// ClassifiedRoad is a RoadSegment after proximity classification. Lengths
// are in the linear unit of the canonical CRS (meters for all supported
// projections).
type ClassifiedRoad struct {
	RoadSegment

	// NearGeom is the portion of the road inside the near-stream zone,
	// retained so the aggregator can re-clip it per watershed. Nil when the
	// road lies entirely outside the zone.
	NearGeom geom.T

	NearLength  float64
	FarLength   float64
	TotalLength float64
}

// DensityRecord is one output row. Lengths are kilometers, areas square
// kilometers, densities km/km².
type DensityRecord struct {
	WatershedID string
	AreaKM2     float64

	ExistingNearKM  float64
	ExistingTotalKM float64
	ProposedNearKM  float64
	ProposedTotalKM float64

	ExistingNearDensity  float64
	ExistingTotalDensity float64
	ProposedNearDensity  float64
	ProposedTotalDensity float64
}

// CombinedNearDensity is the near-stream density once proposed roads are
// built: (existing near + proposed near) / area.
func (r DensityRecord) CombinedNearDensity() float64 {
	if r.AreaKM2 <= 0 {
		return 0
	}
	return (r.ExistingNearKM + r.ProposedNearKM) / r.AreaKM2
}
