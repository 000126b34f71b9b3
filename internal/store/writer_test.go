package store

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/basinworks/roaddensity/internal/model"
)

func sampleRecords() []model.DensityRecord {
	return []model.DensityRecord{
		{
			WatershedID:          "W1",
			AreaKM2:              1.0,
			ExistingNearKM:       1.0,
			ExistingTotalKM:      1.0,
			ProposedTotalKM:      1.0,
			ExistingNearDensity:  1.0,
			ExistingTotalDensity: 1.0,
			ProposedTotalDensity: 1.0,
		},
		{
			WatershedID:          "W2",
			AreaKM2:              2.5,
			ExistingNearKM:       0.5,
			ExistingTotalKM:      2.0,
			ExistingNearDensity:  0.2,
			ExistingTotalDensity: 0.8,
		},
	}
}

func TestWriteRecords_CSV(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.csv")

	require.NoError(t, WriteRecords(sampleRecords(), dest, false))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "W1", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "W2", rows[2][0])
	assert.Equal(t, "2.5", rows[2][1])
}

func TestWriteRecords_RefusesExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	err := WriteRecords(sampleRecords(), dest, false)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrWrite))

	// The refused write must not have touched the existing file.
	data, readErr := os.ReadFile(dest)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(data))

	assert.NoError(t, WriteRecords(sampleRecords(), dest, true))
}

func TestWriteRecords_MissingDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nope", "results.csv")

	err := WriteRecords(sampleRecords(), dest, false)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrWrite))
}

func TestWriteRecords_UnsupportedFormat(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.parquet")

	err := WriteRecords(sampleRecords(), dest, false)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrWrite))
}

func TestWriteRecords_NoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteRecords(sampleRecords(), filepath.Join(dir, "results.csv"), false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "results.csv", entries[0].Name())
}

func TestWriteRecords_SQLite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.db")

	require.NoError(t, WriteRecords(sampleRecords(), dest, false))

	db, err := sql.Open("sqlite", dest)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count))
	assert.Equal(t, 2, count)

	var area, density float64
	require.NoError(t, db.QueryRow(
		`SELECT area, existing_total_density FROM results WHERE watershed_id = ?`, "W2",
	).Scan(&area, &density))
	assert.InDelta(t, 2.5, area, 1e-9)
	assert.InDelta(t, 0.8, density, 1e-9)
}

func TestWriteRecords_XLSX(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "results.xlsx")

	require.NoError(t, WriteRecords(sampleRecords(), dest, false))

	f, err := xlsx.OpenFile(dest)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "watershed_id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "W1", sheet.Rows[1].Cells[0].String())
}
