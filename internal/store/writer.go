// Package store serializes per-watershed density records to tabular
// outputs (CSV, XLSX, SQLite) and optionally exports the classified road
// geometries as a shapefile.
package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/basinworks/roaddensity/internal/model"
)

// Columns is the output column set, in order.
var Columns = []string{
	"watershed_id",
	"area",
	"existing_near_length",
	"existing_total_length",
	"proposed_near_length",
	"proposed_total_length",
	"existing_near_density",
	"existing_total_density",
	"proposed_near_density",
	"proposed_total_density",
}

// WriteRecords writes one row per DensityRecord to the table at dest. The
// format follows the extension: .csv, .xlsx, or .db/.sqlite. Output is
// staged in a temporary file in the destination directory and renamed into
// place, so a failure leaves no partial output.
func WriteRecords(records []model.DensityRecord, dest string, overwrite bool) error {
	if err := CheckDestination(dest, overwrite); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(dest)) {
	case ".csv":
		return writeAtomically(dest, records, writeCSV)
	case ".xlsx":
		return writeAtomically(dest, records, writeXLSX)
	case ".db", ".sqlite":
		return writeAtomically(dest, records, writeSQLite)
	default:
		return eris.Wrapf(model.ErrWrite, "store: unsupported output format %q", filepath.Ext(dest))
	}
}

// CheckDestination enforces the overwrite policy and verifies the parent
// directory exists. The writers call it themselves; the pipeline also
// calls it up front so nothing is written when a later stage is doomed.
func CheckDestination(dest string, overwrite bool) error {
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return eris.Wrapf(model.ErrWrite, "store: destination %s already exists", dest)
		}
	} else if !os.IsNotExist(err) {
		return eris.Wrapf(model.ErrWrite, "store: stat destination %s", dest)
	}

	dir := filepath.Dir(dest)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return eris.Wrapf(model.ErrWrite, "store: destination directory %s is not writable", dir)
	}
	return nil
}

// writeAtomically stages output via fn into a temp file sibling of dest,
// then renames into place.
func writeAtomically(dest string, records []model.DensityRecord, fn func(path string, records []model.DensityRecord) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".results-*"+filepath.Ext(dest))
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: create temporary output")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := fn(tmpPath, records); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(model.ErrWrite, "store: move output into place at %s", dest)
	}
	return nil
}

func writeCSV(path string, records []model.DensityRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return eris.Wrap(model.ErrWrite, "store: write csv header")
	}
	for _, rec := range records {
		if err := w.Write(csvRow(rec)); err != nil {
			return eris.Wrap(model.ErrWrite, "store: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(model.ErrWrite, "store: flush csv")
	}
	return f.Close()
}

func csvRow(rec model.DensityRecord) []string {
	vals := recordValues(rec)
	row := make([]string, 0, len(vals)+1)
	row = append(row, rec.WatershedID)
	for _, v := range vals {
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return row
}

// recordValues returns the numeric fields in Columns order (after the ID).
func recordValues(rec model.DensityRecord) []float64 {
	return []float64{
		rec.AreaKM2,
		rec.ExistingNearKM,
		rec.ExistingTotalKM,
		rec.ProposedNearKM,
		rec.ProposedTotalKM,
		rec.ExistingNearDensity,
		rec.ExistingTotalDensity,
		rec.ProposedNearDensity,
		rec.ProposedTotalDensity,
	}
}
