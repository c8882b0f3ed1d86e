package tabular

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscrape/internal/model"
)

func TestAppendXLSX_CreatesWithHeader(t *testing.T) {
	base := filepath.Join(t.TempDir(), "lead_data_q")

	path, err := AppendXLSX(base, [][]string{{"Jane Doe", "jane@x.com", "linkedin.com/jane", "Baker"}})
	require.NoError(t, err)
	assert.Equal(t, base+".xlsx", path)

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.LeadColumns, rows[0])
	assert.Equal(t, []string{"Jane Doe", "jane@x.com", "linkedin.com/jane", "Baker"}, rows[1])
}

func TestAppendXLSX_AlwaysAppends(t *testing.T) {
	base := filepath.Join(t.TempDir(), "lead_data_q")
	batch := [][]string{{"a", "a@x", "s", "p"}, {"b", "b@x", "s", "p"}}

	_, err := AppendXLSX(base, batch)
	require.NoError(t, err)
	path, err := AppendXLSX(base, batch)
	require.NoError(t, err)

	rows, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1+2+2)
}

func TestCSVAndXLSXMayDiverge(t *testing.T) {
	base := filepath.Join(t.TempDir(), "lead_data_q")
	batch := [][]string{{"a", "a@x", "s", "p"}}

	for i := 0; i < 2; i++ {
		_, err := AppendCSV(base, batch)
		require.NoError(t, err)
		_, err = AppendXLSX(base, batch)
		require.NoError(t, err)
	}

	csvRows, err := ReadCSV(base + ".csv")
	require.NoError(t, err)
	xlsxRows, err := ReadXLSX(base + ".xlsx")
	require.NoError(t, err)

	assert.Len(t, csvRows, 2)
	assert.Len(t, xlsxRows, 3)
}

func TestReadXLSX_Missing(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabular: open xlsx")
}
