package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable([][]string{
		{"name", "email"},
		{"Jane Doe", "jane@x.com"},
		{"Al", "al@x.com"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name      email", lines[0])
	assert.Equal(t, "----      -----", lines[1])
	assert.Equal(t, "Jane Doe  jane@x.com", lines[2])
	assert.Equal(t, "Al        al@x.com", lines[3])
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "", RenderTable(nil))
}
