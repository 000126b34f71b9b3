package store

import (
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/basinworks/roaddensity/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	watershed_id           TEXT PRIMARY KEY,
	area                   REAL NOT NULL,
	existing_near_length   REAL NOT NULL,
	existing_total_length  REAL NOT NULL,
	proposed_near_length   REAL NOT NULL,
	proposed_total_length  REAL NOT NULL,
	existing_near_density  REAL NOT NULL,
	existing_total_density REAL NOT NULL,
	proposed_near_density  REAL NOT NULL,
	proposed_total_density REAL NOT NULL
);
`

const sqliteInsert = `
INSERT INTO results (
	watershed_id, area,
	existing_near_length, existing_total_length,
	proposed_near_length, proposed_total_length,
	existing_near_density, existing_total_density,
	proposed_near_density, proposed_total_density
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func writeSQLite(path string, records []model.DensityRecord) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: open sqlite output")
	}
	defer db.Close() //nolint:errcheck

	if _, err := db.Exec(sqliteSchema); err != nil {
		return eris.Wrap(model.ErrWrite, "store: create results table")
	}

	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: begin sqlite transaction")
	}
	for _, rec := range records {
		args := make([]any, 0, len(Columns))
		args = append(args, rec.WatershedID)
		for _, v := range recordValues(rec) {
			args = append(args, v)
		}
		if _, err := tx.Exec(sqliteInsert, args...); err != nil {
			_ = tx.Rollback()
			return eris.Wrapf(model.ErrWrite, "store: insert result for %s", rec.WatershedID)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(model.ErrWrite, "store: commit sqlite transaction")
	}

	return db.Close()
}
