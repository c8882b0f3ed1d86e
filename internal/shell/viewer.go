package shell

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadscrape/internal/tabular"
)

const msgUnsupported = "Unsupported file format."

// LoadFile renders a previously written file for display. Text files are
// returned as-is; CSV and XLSX files are laid out as a table. Failures are
// rendered into the returned text instead of being returned.
func LoadFile(path string) string {
	content, err := loadFile(path)
	if err != nil {
		zap.L().Warn("shell: load file failed", zap.String("path", path), zap.Error(err))
		return "Error: " + err.Error()
	}
	return content
}

func loadFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".csv":
		rows, err := tabular.ReadCSV(path)
		if err != nil {
			return "", err
		}
		return tabular.RenderTable(rows), nil
	case ".xlsx":
		rows, err := tabular.ReadXLSX(path)
		if err != nil {
			return "", err
		}
		return tabular.RenderTable(rows), nil
	default:
		return msgUnsupported, nil
	}
}
