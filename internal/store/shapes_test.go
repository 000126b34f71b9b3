package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/basinworks/roaddensity/internal/model"
)

func sampleRoads() []model.ClassifiedRoad {
	return []model.ClassifiedRoad{
		{
			RoadSegment: model.RoadSegment{
				Category: model.RoadExisting,
				Geom:     geom.NewLineStringFlat(geom.XY, []float64{0, 450, 1000, 450}),
			},
			NearLength:  1000,
			TotalLength: 1000,
		},
		{
			RoadSegment: model.RoadSegment{
				Category: model.RoadProposed,
				Geom: geom.NewMultiLineStringFlat(geom.XY,
					[]float64{0, 900, 500, 900, 500, 900, 500, 1400}, []int{4, 8}),
			},
			FarLength:   900,
			TotalLength: 900,
		},
	}
}

func TestExportRoads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "classified_roads.shp")

	require.NoError(t, ExportRoads(sampleRoads(), model.CRS{WKT: `PROJCS["test"]`}, dest, false))

	r, err := shp.Open(dest)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	var categories []string
	for r.Next() {
		_, shape := r.Shape()
		_, ok := shape.(*shp.PolyLine)
		assert.True(t, ok)
		categories = append(categories, r.Attribute(0))
	}
	require.Len(t, categories, 2)
	assert.Contains(t, categories[0], "existing")
	assert.Contains(t, categories[1], "proposed")

	prj, err := os.ReadFile(filepath.Join(filepath.Dir(dest), "classified_roads.prj"))
	require.NoError(t, err)
	assert.Equal(t, `PROJCS["test"]`, string(prj))
}

func TestExportRoads_RefusesExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "classified_roads.shp")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	err := ExportRoads(sampleRoads(), model.CRS{}, dest, false)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrWrite))
}
