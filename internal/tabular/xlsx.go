package tabular

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/model"
)

// SheetName is the sheet created for new spreadsheets.
const SheetName = "leads"

// AppendXLSX appends rows to the first sheet of base+".xlsx", creating the
// workbook with a header row when it does not exist. Rows are never
// deduplicated here.
func AppendXLSX(base string, rows [][]string) (string, error) {
	path := base + ".xlsx"

	err := withLock(path, func() error {
		var (
			f     *xlsx.File
			sheet *xlsx.Sheet
		)

		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			var err error
			f, err = xlsx.OpenFile(path)
			if err != nil {
				return eris.Wrap(err, "tabular: open xlsx")
			}
			if len(f.Sheets) == 0 {
				return eris.Errorf("tabular: %s has no sheets", path)
			}
			sheet = f.Sheets[0]
		case errors.Is(statErr, os.ErrNotExist):
			f = xlsx.NewFile()
			var err error
			sheet, err = f.AddSheet(SheetName)
			if err != nil {
				return eris.Wrap(err, "tabular: add sheet")
			}
			addRow(sheet, model.LeadColumns)
		default:
			return eris.Wrap(statErr, "tabular: stat xlsx")
		}

		for _, r := range rows {
			addRow(sheet, r)
		}

		if err := f.Save(path); err != nil {
			return eris.Wrap(err, "tabular: save xlsx")
		}
		zap.L().Debug("tabular: appended xlsx rows", zap.String("path", path), zap.Int("rows", len(rows)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadXLSX returns every row of the first sheet.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
