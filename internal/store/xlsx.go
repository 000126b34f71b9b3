package store

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/basinworks/roaddensity/internal/model"
)

func writeXLSX(path string, records []model.DensityRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.WatershedID)
		for _, v := range recordValues(rec) {
			row.AddCell().SetFloat(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(model.ErrWrite, "store: save xlsx")
	}
	return nil
}
