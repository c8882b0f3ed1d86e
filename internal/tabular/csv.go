package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/leadscrape/internal/model"
)

// AppendCSV merges rows into base+".csv" and returns the file path.
//
// A new file gets the lead header followed by every row. An existing file
// only receives rows that are not already present verbatim in it; rows
// repeated within the batch are kept. When nothing is new the file is left
// untouched.
func AppendCSV(base string, rows [][]string) (string, error) {
	path := base + ".csv"

	err := withLock(path, func() error {
		existing, err := ReadCSV(path)
		if errors.Is(err, os.ErrNotExist) {
			return writeCSV(path, append([][]string{model.LeadColumns}, rows...))
		}
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(existing))
		for _, r := range existing {
			seen[rowKey(r)] = struct{}{}
		}

		var fresh [][]string
		for _, r := range rows {
			if _, dup := seen[rowKey(r)]; dup {
				continue
			}
			fresh = append(fresh, r)
		}

		if len(fresh) == 0 {
			zap.L().Debug("tabular: no new csv rows", zap.String("path", path))
			return nil
		}

		zap.L().Debug("tabular: appending csv rows",
			zap.String("path", path),
			zap.Int("existing", len(existing)),
			zap.Int("new", len(fresh)),
		)
		return writeCSV(path, append(existing, fresh...))
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// ReadCSV loads every record of a CSV file. A leading UTF-8 byte order mark
// is ignored and rows may have differing widths.
func ReadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open csv")
	}
	defer f.Close() //nolint:errcheck

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(f, dec))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tabular: read csv row")
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// writeCSV replaces path with rows via a temp file in the same directory.
func writeCSV(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "tabular: create temp csv")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "tabular: write csv")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "tabular: close temp csv")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "tabular: replace csv")
	}
	return nil
}

func rowKey(r []string) string {
	return strings.Join(r, "\x1f")
}
